// Package production books production batches, packing runs and raw material
// purchases. Every run commits its stock moves and cash-book rows together.
package production

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vpants/bookkeeper/internal/catalog"
	"github.com/vpants/bookkeeper/internal/inventory"
	"github.com/vpants/bookkeeper/internal/ledger"
	"github.com/vpants/bookkeeper/internal/store"
)

// Service coordinates production flows.
type Service struct {
	store     store.Store
	ledger    *ledger.Service
	inventory *inventory.Service
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds Service.
func NewService(st store.Store, ledgerSvc *ledger.Service, inv *inventory.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, ledger: ledgerSvc, inventory: inv, logger: logger, now: time.Now}
}

// RecordProduction books a batch: materials leave stock, finished pieces
// enter it, and the labor cost is expensed.
func (s *Service) RecordProduction(ctx context.Context, in ProductionInput) (BatchResult, error) {
	if in.ProductName == "" || in.Quantity <= 0 {
		return BatchResult{}, fmt.Errorf("%w: product and positive quantity required", ErrInvalidInput)
	}
	if in.Size == "" || !store.ValidSize(in.Size) {
		return BatchResult{}, fmt.Errorf("%w: size %q", ErrInvalidInput, in.Size)
	}
	labor := in.LaborCost
	if labor.IsZero() {
		labor = in.CostPerPiece.Mul(decimal.NewFromInt(in.Quantity))
	}
	if labor.IsNegative() {
		return BatchResult{}, fmt.Errorf("%w: labor cost must not be negative", ErrInvalidInput)
	}
	for _, m := range in.Materials {
		if m.Quantity <= 0 {
			return BatchResult{}, fmt.Errorf("%w: material %d quantity must be positive", ErrInvalidInput, m.MaterialID)
		}
	}

	ref := uuid.NewString()
	var res BatchResult
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		materialsCost := decimal.Zero
		for _, use := range in.Materials {
			m, err := tx.GetRawMaterial(ctx, use.MaterialID)
			if errors.Is(err, store.ErrRawMaterialNotFound) {
				return fmt.Errorf("%w: %d", catalog.ErrRawMaterialNotFound, use.MaterialID)
			}
			if err != nil {
				return err
			}
			materialsCost = materialsCost.Add(m.CostPerUnit.Mul(decimal.NewFromInt(use.Quantity)))
			if _, err := s.inventory.Apply(ctx, tx, inventory.AdjustInput{
				ItemType:  store.ItemMaterial,
				ItemName:  m.Name,
				Delta:     -use.Quantity,
				Ref:       ref,
				SkipAudit: true,
			}); err != nil {
				return err
			}
		}
		entry, err := s.inventory.Apply(ctx, tx, inventory.AdjustInput{
			ItemType:  store.ItemFinished,
			ItemName:  in.ProductName,
			Size:      in.Size,
			Delta:     in.Quantity,
			Ref:       ref,
			SkipAudit: true,
		})
		if err != nil {
			return err
		}
		notes := in.Notes
		if notes == "" {
			notes = fmt.Sprintf("Ongkos jahit %dpcs %s %s", in.Quantity, in.ProductName, in.Size)
		}
		batch, err := tx.InsertProductionBatch(ctx, store.ProductionBatch{
			Ref:              ref,
			ProductName:      in.ProductName,
			Size:             in.Size,
			QuantityProduced: in.Quantity,
			LaborCost:        labor,
			MaterialsCost:    materialsCost,
			TotalCost:        labor.Add(materialsCost),
			Notes:            notes,
		})
		if err != nil {
			return fmt.Errorf("production: insert batch: %w", err)
		}
		snap, _, err := s.book(ctx, tx, ref, labor, store.TypeProduction, CategoryLabor, in.Quantity, in.Size, notes)
		if err != nil {
			return err
		}
		res = BatchResult{Batch: batch, Balance: snap.CurrentBalance, Stock: entry}
		return nil
	})
	if err != nil {
		s.logger.Warn("production rejected", slog.String("product", in.ProductName), slog.Any("error", err))
		return BatchResult{}, err
	}
	s.ledger.Committed(ctx)
	s.logger.Info("production recorded",
		slog.String("ref", ref),
		slog.String("product", in.ProductName),
		slog.String("size", in.Size),
		slog.Int64("quantity", in.Quantity),
		slog.String("total_cost", res.Batch.TotalCost.StringFixed(2)),
	)
	return res, nil
}

// RecordPacking turns PackSize × Quantity loose pieces into Quantity packs.
func (s *Service) RecordPacking(ctx context.Context, in PackingInput) (PackingResult, error) {
	if in.ProductName == "" || in.PackSize <= 0 || in.Quantity <= 0 {
		return PackingResult{}, fmt.Errorf("%w: product, pack size and quantity required", ErrInvalidInput)
	}
	if in.Quantity > math.MaxInt64/in.PackSize {
		return PackingResult{}, fmt.Errorf("%w: %d packs of %d pieces is out of range", ErrInvalidInput, in.Quantity, in.PackSize)
	}
	if in.PackCost.IsNegative() {
		return PackingResult{}, fmt.Errorf("%w: pack cost must not be negative", ErrInvalidInput)
	}
	if !store.ValidSize(in.Size) || in.Size == store.SizePacked {
		return PackingResult{}, fmt.Errorf("%w: size %q", ErrInvalidInput, in.Size)
	}
	ref := uuid.NewString()
	packName := PackName(in.ProductName, in.PackSize)
	total := in.PackCost.Mul(decimal.NewFromInt(in.Quantity))
	notes := fmt.Sprintf("Packing %d pack @ %dpcs", in.Quantity, in.PackSize)

	var res PackingResult
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		loose, err := s.inventory.Apply(ctx, tx, inventory.AdjustInput{
			ItemType:  store.ItemFinished,
			ItemName:  in.ProductName,
			Size:      in.Size,
			Delta:     -in.PackSize * in.Quantity,
			Ref:       ref,
			SkipAudit: true,
		})
		if err != nil {
			return err
		}
		packed, err := s.inventory.Apply(ctx, tx, inventory.AdjustInput{
			ItemType:  store.ItemFinished,
			ItemName:  packName,
			Size:      store.SizePacked,
			Delta:     in.Quantity,
			Ref:       ref,
			SkipAudit: true,
		})
		if err != nil {
			return err
		}
		snap, row, err := s.book(ctx, tx, ref, total, store.TypePacking, CategoryPacking, in.Quantity, store.SizePacked, notes)
		if err != nil {
			return err
		}
		res = PackingResult{Loose: loose, Packed: packed, Posting: row, Balance: snap.CurrentBalance}
		return nil
	})
	if err != nil {
		s.logger.Warn("packing rejected", slog.String("product", in.ProductName), slog.Any("error", err))
		return PackingResult{}, err
	}
	s.ledger.Committed(ctx)
	s.logger.Info("packing recorded", slog.String("ref", ref), slog.String("pack", packName), slog.Int64("quantity", in.Quantity))
	return res, nil
}

// RecordMaterialPurchase adds purchased material to stock and books the purchase.
func (s *Service) RecordMaterialPurchase(ctx context.Context, in MaterialPurchaseInput) (PurchaseResult, error) {
	if in.Quantity <= 0 {
		return PurchaseResult{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if in.TotalCost.IsNegative() {
		return PurchaseResult{}, fmt.Errorf("%w: total cost must not be negative", ErrInvalidInput)
	}
	ref := uuid.NewString()
	var res PurchaseResult
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		m, err := tx.GetRawMaterial(ctx, in.MaterialID)
		if errors.Is(err, store.ErrRawMaterialNotFound) {
			return fmt.Errorf("%w: %d", catalog.ErrRawMaterialNotFound, in.MaterialID)
		}
		if err != nil {
			return err
		}
		cost := in.TotalCost
		if cost.IsZero() {
			cost = m.CostPerUnit.Mul(decimal.NewFromInt(in.Quantity))
		}
		entry, err := s.inventory.Apply(ctx, tx, inventory.AdjustInput{
			ItemType:  store.ItemMaterial,
			ItemName:  m.Name,
			Delta:     in.Quantity,
			Ref:       ref,
			SkipAudit: true,
		})
		if err != nil {
			return err
		}
		notes := in.Notes
		if notes == "" {
			notes = fmt.Sprintf("Beli %s %d %s", m.Name, in.Quantity, m.Unit)
		}
		qty := in.Quantity
		snap, row, err := s.ledger.Post(ctx, tx, store.Transaction{
			Ref:      ref,
			Type:     store.TypePurchase,
			Category: CategoryMaterialPurchase,
			Amount:   cost,
			Quantity: &qty,
			Unit:     m.Unit,
			Notes:    notes,
		})
		if err != nil {
			return err
		}
		res = PurchaseResult{Material: m, Stock: entry, Posting: row, Balance: snap.CurrentBalance}
		return nil
	})
	if err != nil {
		s.logger.Warn("material purchase rejected", slog.Int64("material_id", in.MaterialID), slog.Any("error", err))
		return PurchaseResult{}, err
	}
	s.ledger.Committed(ctx)
	s.logger.Info("material purchased", slog.String("ref", ref), slog.String("material", res.Material.Name), slog.Int64("quantity", in.Quantity))
	return res, nil
}

// book posts cost as an expense row, or a zero-amount row of markerType when
// there is no cost.
func (s *Service) book(ctx context.Context, tx store.Tx, ref string, cost decimal.Decimal, markerType store.TransactionType, category string, qty int64, size, notes string) (store.Snapshot, store.Transaction, error) {
	typ := store.TypeExpense
	if cost.IsZero() {
		typ = markerType
	}
	return s.ledger.Post(ctx, tx, store.Transaction{
		Ref:      ref,
		Type:     typ,
		Category: category,
		Amount:   cost,
		Quantity: &qty,
		Size:     size,
		Notes:    notes,
	})
}

// History lists batches from the trailing days, newest first.
func (s *Service) History(ctx context.Context, days int) ([]store.ProductionBatch, error) {
	if days <= 0 {
		days = 30
	}
	return s.store.ListProductionBatches(ctx, s.now().AddDate(0, 0, -days))
}

// Summary totals batches from the trailing days per product and size.
func (s *Service) Summary(ctx context.Context, days int) ([]SummaryLine, error) {
	batches, err := s.History(ctx, days)
	if err != nil {
		return nil, err
	}
	type key struct{ name, size string }
	lines := map[key]*SummaryLine{}
	for _, b := range batches {
		k := key{b.ProductName, b.Size}
		line, ok := lines[k]
		if !ok {
			line = &SummaryLine{ProductName: b.ProductName, Size: b.Size, TotalCost: decimal.Zero}
			lines[k] = line
		}
		line.Quantity += b.QuantityProduced
		line.TotalCost = line.TotalCost.Add(b.TotalCost)
	}
	out := make([]SummaryLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductName != out[j].ProductName {
			return out[i].ProductName < out[j].ProductName
		}
		return out[i].Size < out[j].Size
	})
	return out, nil
}
