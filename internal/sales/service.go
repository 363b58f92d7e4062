// Package sales records retail and pack sales. Each sale moves finished
// stock and the finance ledger in one unit of work.
package sales

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/vpants/bookkeeper/internal/catalog"
	"github.com/vpants/bookkeeper/internal/inventory"
	"github.com/vpants/bookkeeper/internal/ledger"
	"github.com/vpants/bookkeeper/internal/shared"
	"github.com/vpants/bookkeeper/internal/store"
)

// Service coordinates sales.
type Service struct {
	store     store.Store
	ledger    *ledger.Service
	inventory *inventory.Service
	catalog   *catalog.Service
	logger    *slog.Logger
}

// NewService builds Service.
func NewService(st store.Store, ledgerSvc *ledger.Service, inv *inventory.Service, cat *catalog.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, ledger: ledgerSvc, inventory: inv, catalog: cat, logger: logger}
}

// RecordSale sells loose finished goods. A zero unit price takes the catalog
// selling price.
func (s *Service) RecordSale(ctx context.Context, in SaleInput) (Result, error) {
	if !store.ValidSize(in.Size) || in.Size == "" || in.Size == store.SizePacked {
		return Result{}, fmt.Errorf("%w: size %q", ErrInvalidSale, in.Size)
	}
	if in.UnitPrice.IsZero() && s.catalog != nil {
		p, err := s.catalog.Product(ctx, in.ProductName, in.Size)
		if err != nil {
			return Result{}, err
		}
		in.UnitPrice = p.SellingPrice
	}
	if err := validateLine(in.ProductName, in.Quantity, in.UnitPrice, in.Discount); err != nil {
		return Result{}, err
	}
	return s.sell(ctx, sale{
		itemName: in.ProductName,
		size:     in.Size,
		qty:      in.Quantity,
		category: CategoryRetail,
		tx: store.Transaction{
			Amount:   Total(in.UnitPrice, in.Quantity, in.Discount),
			Discount: in.Discount,
			Size:     in.Size,
			Notes:    saleNote(in.ProductName+" "+in.Size, in.PaymentMethod, in.Notes),
		},
	})
}

// RecordPackSale sells packed goods kept under size PACKED.
func (s *Service) RecordPackSale(ctx context.Context, in PackSaleInput) (Result, error) {
	if err := validateLine(in.PackName, in.Quantity, in.UnitPrice, in.Discount); err != nil {
		return Result{}, err
	}
	return s.sell(ctx, sale{
		itemName: in.PackName,
		size:     store.SizePacked,
		qty:      in.Quantity,
		category: CategoryPack,
		tx: store.Transaction{
			Amount:   Total(in.UnitPrice, in.Quantity, in.Discount),
			Discount: in.Discount,
			Size:     store.SizePacked,
			Notes:    saleNote(in.PackName, in.PaymentMethod, in.Notes),
		},
	})
}

type sale struct {
	itemName string
	size     string
	qty      int64
	category string
	tx       store.Transaction
}

func (s *Service) sell(ctx context.Context, sl sale) (Result, error) {
	ref := uuid.NewString()
	row := sl.tx
	row.Ref = ref
	row.Type = store.TypeSale
	row.Category = sl.category
	qty := sl.qty
	row.Quantity = &qty

	var res Result
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		entry, err := s.inventory.Apply(ctx, tx, inventory.AdjustInput{
			ItemType:  store.ItemFinished,
			ItemName:  sl.itemName,
			Size:      sl.size,
			Delta:     -sl.qty,
			Ref:       ref,
			SkipAudit: true,
		})
		if err != nil {
			return err
		}
		snap, posted, err := s.ledger.Post(ctx, tx, row)
		if err != nil {
			return err
		}
		res = Result{
			Amount:         posted.Amount,
			Balance:        snap.CurrentBalance,
			DisplayBalance: shared.FormatRupiah(snap.CurrentBalance),
			Transaction:    posted,
			Stock:          entry,
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("sale rejected", slog.String("item", sl.itemName), slog.String("size", sl.size), slog.Any("error", err))
		return Result{}, err
	}
	s.ledger.Committed(ctx)
	s.logger.Info("sale recorded",
		slog.String("ref", ref),
		slog.String("category", sl.category),
		slog.String("item", sl.itemName),
		slog.Int64("quantity", sl.qty),
		slog.String("amount", res.Amount.StringFixed(2)),
	)
	return res, nil
}

// AvailableProducts lists catalog products with finished stock above zero.
func (s *Service) AvailableProducts(ctx context.Context) ([]AvailableProduct, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("sales: products: %w", err)
	}
	stock, err := s.store.ListStock(ctx, store.StockFilter{ItemType: store.ItemFinished})
	if err != nil {
		return nil, fmt.Errorf("sales: stock: %w", err)
	}
	onHand := make(map[store.StockKey]int64, len(stock))
	for _, e := range stock {
		onHand[e.StockKey] = e.Quantity
	}
	out := []AvailableProduct{}
	for _, p := range products {
		qty := onHand[store.StockKey{ItemType: store.ItemFinished, ItemName: p.Name, Size: p.Size}]
		if qty > 0 {
			out = append(out, AvailableProduct{Product: p, Quantity: qty})
		}
	}
	return out, nil
}

func saleNote(item, payment, notes string) string {
	parts := []string{"Penjualan " + item}
	if payment != "" {
		parts = append(parts, payment)
	}
	if notes != "" {
		parts = append(parts, notes)
	}
	return strings.Join(parts, " - ")
}
