package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
	"github.com/vpants/bookkeeper/internal/store"
	"github.com/vpants/bookkeeper/internal/store/memstore"
)

type countingCache struct{ bumps int }

func (c *countingCache) Bump(context.Context) error {
	c.bumps++
	return nil
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func qty(v int64) *int64 { return &v }

func newTestService(t *testing.T) (*Service, *memstore.Store, *countingCache) {
	t.Helper()
	st := memstore.New()
	cache := &countingCache{}
	return NewService(st, ServiceConfig{}, cache, nil), st, cache
}

func TestRecordSaleThenExpense(t *testing.T) {
	ctx := context.Background()
	svc, st, cache := newTestService(t)

	balance, err := svc.Record(ctx, store.Transaction{Type: store.TypeInitialBalance, Category: "initial_capital", Amount: d(1_000_000)})
	require.NoError(t, err)
	require.True(t, balance.Equal(d(1_000_000)))

	balance, err = svc.Record(ctx, store.Transaction{Type: store.TypeSale, Category: "retail_sale", Amount: d(75_000), Quantity: qty(1), Size: store.SizeM})
	require.NoError(t, err)
	require.True(t, balance.Equal(d(1_075_000)), balance.String())

	snap, err := st.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.True(t, snap.TotalIncome.Equal(d(75_000)), "initial balance is not income")

	balance, err = svc.Record(ctx, store.Transaction{Type: store.TypeExpense, Category: "operational", Amount: d(20_000)})
	require.NoError(t, err)
	require.True(t, balance.Equal(d(1_055_000)))

	snap, err = st.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.True(t, snap.TotalExpenses.Equal(d(20_000)))
	require.Len(t, st.Snapshots(), 3)
	require.Equal(t, 3, cache.bumps)
}

func TestRecordWithdrawalAddsFee(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)

	balance, err := svc.Record(ctx, store.Transaction{Type: store.TypeWithdrawal, Category: "owner", Amount: d(100_000)})
	require.NoError(t, err)
	require.True(t, balance.Equal(d(-103_000)), balance.String())

	snap, err := st.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.True(t, snap.TotalExpenses.Equal(d(103_000)))
}

func TestBalanceEqualsSignedSumOfDeltas(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	rows := []store.Transaction{
		{Type: store.TypeInitialBalance, Category: "initial_capital", Amount: d(500_000)},
		{Type: store.TypeSale, Category: "retail_sale", Amount: d(120_000)},
		{Type: store.TypeSEIncome, Category: "marketplace", Amount: d(30_000)},
		{Type: store.TypePurchase, Category: "material_purchase", Amount: d(45_000)},
		{Type: store.TypeWithdrawal, Category: "owner", Amount: d(50_000)},
		{Type: store.TypeStockAdjustment, Category: "stock_adjustment", Amount: d(0)},
		{Type: store.TypeProduction, Category: "production", Amount: d(99_000)},
	}
	var last decimal.Decimal
	for _, row := range rows {
		var err error
		last, err = svc.Record(ctx, row)
		require.NoError(t, err)
	}
	expected := d(500_000 + 120_000 + 30_000 - 45_000 - 53_000)
	require.True(t, last.Equal(expected), last.String())

	current, err := svc.CurrentBalance(ctx)
	require.NoError(t, err)
	require.True(t, current.Equal(expected))
}

func TestRecordRollsBackWhenTransactionInsertFails(t *testing.T) {
	ctx := context.Background()
	svc, st, cache := newTestService(t)
	st.FailInsertTransaction = errors.New("disk full")

	_, err := svc.Record(ctx, store.Transaction{Type: store.TypeSale, Category: "retail_sale", Amount: d(10_000)})
	require.Error(t, err)
	require.Empty(t, st.Snapshots())
	require.Zero(t, cache.bumps)

	balance, err := svc.CurrentBalance(ctx)
	require.NoError(t, err)
	require.True(t, balance.IsZero())
}

func TestRecordValidation(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)
	cases := []struct {
		name string
		tx   store.Transaction
		err  error
	}{
		{"negative amount", store.Transaction{Type: store.TypeSale, Amount: d(-1)}, ErrNegativeAmount},
		{"unknown type", store.Transaction{Type: "refund", Amount: d(1)}, ErrUnknownType},
		{"bad size", store.Transaction{Type: store.TypeSale, Amount: d(1), Size: "XS"}, ErrInvalidSize},
		{"negative quantity", store.Transaction{Type: store.TypeSale, Amount: d(1), Quantity: qty(-2)}, ErrInvalidQuantity},
		{"discount over 100", store.Transaction{Type: store.TypeSale, Amount: d(1), Discount: d(101)}, ErrInvalidDiscount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Record(ctx, tc.tx)
			require.ErrorIs(t, err, tc.err)
			require.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
	require.Empty(t, st.Snapshots())
}

func TestSummaryCountsIncomeAndExpenseKinds(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	empty, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, empty.Snapshot.CurrentBalance.IsZero())
	assert.Zero(t, empty.IncomeCount)

	for _, row := range []store.Transaction{
		{Type: store.TypeInitialBalance, Category: "initial_capital", Amount: d(100_000)},
		{Type: store.TypeSale, Category: "retail_sale", Amount: d(10_000)},
		{Type: store.TypeSEIncome, Category: "marketplace", Amount: d(5_000)},
		{Type: store.TypeExpense, Category: "packing", Amount: d(1_000)},
		{Type: store.TypeWithdrawal, Category: "owner", Amount: d(1_000)},
	} {
		_, err := svc.Record(ctx, row)
		require.NoError(t, err)
	}

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.IncomeCount)
	assert.EqualValues(t, 2, summary.ExpenseCount)
	assert.True(t, summary.Snapshot.CurrentBalance.Equal(d(110_000)))
	assert.Contains(t, summary.DisplayBalance, "110.000")
}

func TestPostComposesWithCallerUnitOfWork(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)

	err := st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, _, err := svc.Post(ctx, tx, store.Transaction{Type: store.TypeSale, Category: "retail_sale", Amount: d(5_000)}); err != nil {
			return err
		}
		return errors.New("stock write failed")
	})
	require.Error(t, err)
	require.Empty(t, st.Snapshots())

	count, err := st.CountTransactions(ctx, store.TransactionFilter{})
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestEffectOfUnknownKindsIsZero(t *testing.T) {
	for _, typ := range []store.TransactionType{store.TypeStockAdjustment, store.TypeProduction, store.TypePacking} {
		e := EffectOf(store.Transaction{Type: typ, Amount: d(7_000)}, DefaultWithdrawalFee)
		require.True(t, e.Balance.IsZero(), typ)
		require.True(t, e.Income.IsZero(), typ)
		require.True(t, e.Expenses.IsZero(), typ)
	}
}
