// Package setup reports first-run status and performs the one-off loads:
// opening capital, catalog seeding and the initial stock count.
package setup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/vpants/bookkeeper/internal/catalog"
	"github.com/vpants/bookkeeper/internal/inventory"
	"github.com/vpants/bookkeeper/internal/ledger"
	"github.com/vpants/bookkeeper/internal/platform/httpx"
	"github.com/vpants/bookkeeper/internal/store"
)

var (
	// ErrAlreadyFunded is returned when opening capital is posted twice.
	ErrAlreadyFunded = fmt.Errorf("%w: setup: finance history already started", httpx.ErrConflict)
	// ErrInvalidAmount is returned for a negative opening balance.
	ErrInvalidAmount = fmt.Errorf("%w: setup: initial balance must not be negative", httpx.ErrValidation)
)

// Status reports which parts of the store hold data.
type Status struct {
	FinanceInitialized  bool `json:"finance_initialized"`
	ProductsInitialized bool `json:"products_initialized"`
	StockInitialized    bool `json:"stock_initialized"`
}

// Service drives setup.
type Service struct {
	store     store.Store
	ledger    *ledger.Service
	inventory *inventory.Service
	logger    *slog.Logger
}

// NewService builds Service.
func NewService(st store.Store, ledgerSvc *ledger.Service, inv *inventory.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, ledger: ledgerSvc, inventory: inv, logger: logger}
}

// Status checks for presence only; it does not validate the data.
func (s *Service) Status(ctx context.Context) (Status, error) {
	snaps, err := s.store.CountSnapshots(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("setup: count snapshots: %w", err)
	}
	products, err := s.store.CountProducts(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("setup: count products: %w", err)
	}
	stock, err := s.store.CountStock(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("setup: count stock: %w", err)
	}
	return Status{
		FinanceInitialized:  snaps > 0,
		ProductsInitialized: products > 0,
		StockInitialized:    stock > 0,
	}, nil
}

// InitialBalance posts the opening capital. It fails once any snapshot exists.
func (s *Service) InitialBalance(ctx context.Context, amount decimal.Decimal, notes string) (ledger.Posting, error) {
	if amount.IsNegative() {
		return ledger.Posting{}, ErrInvalidAmount
	}
	if notes == "" {
		notes = "Modal awal"
	}
	var posting ledger.Posting
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.LockLedger(ctx); err != nil {
			return fmt.Errorf("setup: lock: %w", err)
		}
		n, err := tx.CountSnapshots(ctx)
		if err != nil {
			return fmt.Errorf("setup: count snapshots: %w", err)
		}
		if n > 0 {
			return ErrAlreadyFunded
		}
		snap, row, err := s.ledger.Post(ctx, tx, store.Transaction{
			Type:     store.TypeInitialBalance,
			Category: "capital",
			Amount:   amount,
			Notes:    notes,
		})
		if err != nil {
			return err
		}
		posting = ledger.Posting{Transaction: row, Snapshot: snap}
		return nil
	})
	if err != nil {
		s.logger.Warn("initial balance rejected", slog.Any("error", err))
		return ledger.Posting{}, err
	}
	s.ledger.Committed(ctx)
	s.logger.Info("initial balance posted", slog.String("amount", amount.StringFixed(2)))
	return posting, nil
}

// SeedProducts replaces the product catalog with the default list.
func (s *Service) SeedProducts(ctx context.Context) (int, error) {
	products := catalog.DefaultProducts()
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.ReplaceProducts(ctx, products)
	})
	if err != nil {
		return 0, fmt.Errorf("setup: seed products: %w", err)
	}
	s.logger.Info("products seeded", slog.Int("count", len(products)))
	return len(products), nil
}

// SeedRawMaterials replaces the raw material catalog with the default list.
func (s *Service) SeedRawMaterials(ctx context.Context) (int, error) {
	materials := catalog.DefaultRawMaterials()
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.ReplaceRawMaterials(ctx, materials)
	})
	if err != nil {
		return 0, fmt.Errorf("setup: seed raw materials: %w", err)
	}
	s.logger.Info("raw materials seeded", slog.Int("count", len(materials)))
	return len(materials), nil
}

// InitializeStock loads the first stock count.
func (s *Service) InitializeStock(ctx context.Context, entries []store.StockEntry) error {
	return s.inventory.Initialize(ctx, entries)
}
