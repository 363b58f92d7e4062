package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vpants/bookkeeper/internal/shared"
	"github.com/vpants/bookkeeper/internal/store"
)

// CachePort invalidates derived report data after a commit.
type CachePort interface {
	Bump(ctx context.Context) error
}

// Service records transactions against the finance history.
type Service struct {
	store  store.Store
	fee    decimal.Decimal
	cache  CachePort
	logger *slog.Logger
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	WithdrawalFee decimal.Decimal
}

// NewService builds Service. A zero fee falls back to DefaultWithdrawalFee.
func NewService(st store.Store, cfg ServiceConfig, cache CachePort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	fee := cfg.WithdrawalFee
	if fee.IsZero() {
		fee = DefaultWithdrawalFee
	}
	return &Service{store: st, fee: fee, cache: cache, logger: logger}
}

// WithdrawalFee returns the configured withdrawal surcharge.
func (s *Service) WithdrawalFee() decimal.Decimal {
	return s.fee
}

// Record posts t in its own unit of work and returns the new balance.
func (s *Service) Record(ctx context.Context, t store.Transaction) (decimal.Decimal, error) {
	posting, err := s.RecordPosting(ctx, t)
	if err != nil {
		return decimal.Zero, err
	}
	return posting.Snapshot.CurrentBalance, nil
}

// RecordPosting is Record returning the stored rows.
func (s *Service) RecordPosting(ctx context.Context, t store.Transaction) (Posting, error) {
	if err := Validate(t); err != nil {
		s.logger.Warn("ledger rejected", slog.String("type", string(t.Type)), slog.Any("error", err))
		return Posting{}, err
	}
	var posting Posting
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		snap, row, err := s.Post(ctx, tx, t)
		if err != nil {
			return err
		}
		posting = Posting{Transaction: row, Snapshot: snap}
		return nil
	})
	if err != nil {
		return Posting{}, err
	}
	s.Committed(ctx)
	s.logger.Info("ledger posted",
		slog.String("type", string(posting.Transaction.Type)),
		slog.String("amount", posting.Transaction.Amount.StringFixed(2)),
		slog.String("balance", posting.Snapshot.CurrentBalance.StringFixed(2)),
	)
	return posting, nil
}

// Post appends t and its snapshot inside the caller's unit of work. The
// ledger lock is held until tx ends, so concurrent postings serialise on the
// latest snapshot.
func (s *Service) Post(ctx context.Context, tx store.Tx, t store.Transaction) (store.Snapshot, store.Transaction, error) {
	if err := Validate(t); err != nil {
		return store.Snapshot{}, store.Transaction{}, err
	}
	if t.Ref == "" {
		t.Ref = uuid.NewString()
	}
	if err := tx.LockLedger(ctx); err != nil {
		return store.Snapshot{}, store.Transaction{}, fmt.Errorf("ledger: lock: %w", err)
	}
	prev, err := tx.LatestSnapshot(ctx)
	if err != nil && !errors.Is(err, store.ErrSnapshotNotFound) {
		return store.Snapshot{}, store.Transaction{}, fmt.Errorf("ledger: latest snapshot: %w", err)
	}
	next := EffectOf(t, s.fee).Apply(prev)
	snap, err := tx.InsertSnapshot(ctx, next)
	if err != nil {
		return store.Snapshot{}, store.Transaction{}, fmt.Errorf("ledger: insert snapshot: %w", err)
	}
	row, err := tx.InsertTransaction(ctx, t)
	if err != nil {
		return store.Snapshot{}, store.Transaction{}, fmt.Errorf("ledger: insert transaction: %w", err)
	}
	return snap, row, nil
}

// Committed invalidates cached reports. Callers composing Post in their own
// unit of work call it after commit.
func (s *Service) Committed(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("report cache bump", slog.Any("error", err))
	}
}

// CurrentBalance returns the latest balance, zero when nothing was posted.
func (s *Service) CurrentBalance(ctx context.Context) (decimal.Decimal, error) {
	snap, err := s.latest(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return snap.CurrentBalance, nil
}

// Summary returns the latest snapshot with income and expense counts.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	snap, err := s.latest(ctx)
	if err != nil {
		return Summary{}, err
	}
	income, err := s.store.CountTransactions(ctx, store.TransactionFilter{Types: IncomeTypes})
	if err != nil {
		return Summary{}, fmt.Errorf("ledger: count income: %w", err)
	}
	expenses, err := s.store.CountTransactions(ctx, store.TransactionFilter{Types: ExpenseTypes})
	if err != nil {
		return Summary{}, fmt.Errorf("ledger: count expenses: %w", err)
	}
	return Summary{
		Snapshot:       snap,
		DisplayBalance: shared.FormatRupiah(snap.CurrentBalance),
		IncomeCount:    income,
		ExpenseCount:   expenses,
	}, nil
}

func (s *Service) latest(ctx context.Context) (store.Snapshot, error) {
	snap, err := s.store.LatestSnapshot(ctx)
	if errors.Is(err, store.ErrSnapshotNotFound) {
		return store.Snapshot{CurrentBalance: decimal.Zero, TotalIncome: decimal.Zero, TotalExpenses: decimal.Zero}, nil
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("ledger: latest snapshot: %w", err)
	}
	return snap, nil
}
