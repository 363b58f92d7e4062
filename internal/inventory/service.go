// Package inventory keeps stock quantities keyed by item type, name and size.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vpants/bookkeeper/internal/store"
)

// CachePort invalidates derived report data after a commit.
type CachePort interface {
	Bump(ctx context.Context) error
}

// Service coordinates stock operations.
type Service struct {
	store  store.Store
	cache  CachePort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service.
func NewService(st store.Store, cache CachePort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, cache: cache, logger: logger, now: time.Now}
}

// Adjust applies one guarded movement in its own unit of work.
func (s *Service) Adjust(ctx context.Context, in AdjustInput) (store.StockEntry, error) {
	var entry store.StockEntry
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		entry, err = s.Apply(ctx, tx, in)
		return err
	})
	if err != nil {
		s.logger.Warn("stock adjustment rejected",
			slog.String("item_type", string(in.ItemType)),
			slog.String("item_name", in.ItemName),
			slog.Int64("delta", in.Delta),
			slog.Any("error", err),
		)
		return store.StockEntry{}, err
	}
	s.Committed(ctx)
	s.logger.Info("stock adjusted",
		slog.String("item_type", string(entry.ItemType)),
		slog.String("item_name", entry.ItemName),
		slog.String("size", entry.Size),
		slog.Int64("delta", in.Delta),
		slog.Int64("quantity", entry.Quantity),
	)
	return entry, nil
}

// Apply moves stock inside the caller's unit of work. The entry is locked
// before it is read and never written below zero. A missing key is created
// only by a positive delta.
func (s *Service) Apply(ctx context.Context, tx store.Tx, in AdjustInput) (store.StockEntry, error) {
	if err := in.validate(); err != nil {
		return store.StockEntry{}, err
	}
	key := in.Key()
	entry, err := s.applyDelta(ctx, tx, key, in.Delta)
	if err != nil {
		return store.StockEntry{}, err
	}
	if !in.SkipAudit {
		delta := in.Delta
		if _, err := tx.InsertTransaction(ctx, store.Transaction{
			Ref:      in.Ref,
			Type:     store.TypeStockAdjustment,
			Category: "stock_" + string(in.ItemType),
			Amount:   decimal.Zero,
			Quantity: &delta,
			Notes:    auditNote(in),
		}); err != nil {
			return store.StockEntry{}, fmt.Errorf("inventory: audit row: %w", err)
		}
	}
	return entry, nil
}

func (s *Service) applyDelta(ctx context.Context, tx store.Tx, key store.StockKey, delta int64) (store.StockEntry, error) {
	entry, err := tx.GetStockForUpdate(ctx, key)
	switch {
	case errors.Is(err, store.ErrStockNotFound):
		if delta < 0 {
			return store.StockEntry{}, fmt.Errorf("%w: %s", ErrUnknownItem, key.ItemName)
		}
		created := store.StockEntry{StockKey: key, Quantity: delta, LastUpdated: s.now().UTC()}
		err := tx.InsertStock(ctx, created)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, store.ErrDuplicateStock) {
			return store.StockEntry{}, fmt.Errorf("inventory: insert stock: %w", err)
		}
		// Lost the race to create the key; fall through to the update path.
		entry, err = tx.GetStockForUpdate(ctx, key)
		if err != nil {
			return store.StockEntry{}, fmt.Errorf("inventory: reload stock: %w", err)
		}
	case err != nil:
		return store.StockEntry{}, fmt.Errorf("inventory: load stock: %w", err)
	}

	if delta > 0 && entry.Quantity > math.MaxInt64-delta {
		return store.StockEntry{}, fmt.Errorf("%w: current %d, adjustment %d overflows", ErrInvalidQuantity, entry.Quantity, delta)
	}
	next := entry.Quantity + delta
	if next < 0 {
		return store.StockEntry{}, fmt.Errorf("%w: current %d, adjustment %d", ErrNegativeStock, entry.Quantity, delta)
	}
	if err := tx.UpdateStockQuantity(ctx, key, next); err != nil {
		return store.StockEntry{}, fmt.Errorf("inventory: update stock: %w", err)
	}
	entry.Quantity = next
	entry.LastUpdated = s.now().UTC()
	return entry, nil
}

// Initialize upserts every entry without the negative guard or audit rows.
// It is meant for the first stock load and bulk corrections.
func (s *Service) Initialize(ctx context.Context, entries []store.StockEntry) error {
	for _, e := range entries {
		if err := validateKey(e.StockKey); err != nil {
			return err
		}
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return s.InitializeTx(ctx, tx, entries)
	})
	if err != nil {
		return err
	}
	s.Committed(ctx)
	s.logger.Info("stock initialized", slog.Int("entries", len(entries)))
	return nil
}

// InitializeTx is Initialize inside the caller's unit of work.
func (s *Service) InitializeTx(ctx context.Context, tx store.Tx, entries []store.StockEntry) error {
	for _, e := range entries {
		if err := tx.UpsertStock(ctx, e); err != nil {
			return fmt.Errorf("inventory: upsert %s/%s: %w", e.ItemType, e.ItemName, err)
		}
	}
	return nil
}

// Committed invalidates cached reports after a caller-owned commit.
func (s *Service) Committed(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("report cache bump", slog.Any("error", err))
	}
}

// Levels lists stock entries, optionally narrowed to one item type.
func (s *Service) Levels(ctx context.Context, itemType store.ItemType) ([]store.StockEntry, error) {
	if itemType != "" && !itemType.Valid() {
		return nil, fmt.Errorf("%w: item type %q", ErrInvalidItem, itemType)
	}
	return s.store.ListStock(ctx, store.StockFilter{ItemType: itemType})
}

// LowStock lists entries at or below threshold, lowest first.
func (s *Service) LowStock(ctx context.Context, threshold int64) ([]store.StockEntry, error) {
	return s.store.ListStock(ctx, store.StockFilter{MaxQuantity: &threshold})
}

// History lists audited adjustments from the trailing days, newest first.
func (s *Service) History(ctx context.Context, days int) ([]store.Transaction, error) {
	if days <= 0 {
		days = 30
	}
	return s.store.ListTransactions(ctx, store.TransactionFilter{
		Types: []store.TransactionType{store.TypeStockAdjustment},
		From:  s.now().AddDate(0, 0, -days),
	})
}

func auditNote(in AdjustInput) string {
	parts := []string{"Stock adjustment:", in.ItemName}
	if in.Size != "" {
		parts = append(parts, in.Size)
	}
	note := strings.Join(parts, " ")
	if in.Notes != "" {
		note += " - " + in.Notes
	}
	return note
}
