package inventory

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
	"github.com/vpants/bookkeeper/internal/store"
	"github.com/vpants/bookkeeper/internal/store/memstore"
)

func newTestService() (*Service, *memstore.Store) {
	st := memstore.New()
	return NewService(st, nil, nil), st
}

func quantityOf(t *testing.T, st *memstore.Store, key store.StockKey) (int64, bool) {
	t.Helper()
	entries, err := st.ListStock(context.Background(), store.StockFilter{ItemType: key.ItemType})
	require.NoError(t, err)
	for _, e := range entries {
		if e.StockKey == key {
			return e.Quantity, true
		}
	}
	return 0, false
}

func TestAdjustGuardsNegativeStock(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()
	key := store.StockKey{ItemType: store.ItemFinished, ItemName: "ProductA", Size: store.SizeM}

	entry, err := svc.Adjust(ctx, AdjustInput{ItemType: key.ItemType, ItemName: key.ItemName, Size: key.Size, Delta: 10})
	require.NoError(t, err)
	require.EqualValues(t, 10, entry.Quantity)

	entry, err = svc.Adjust(ctx, AdjustInput{ItemType: key.ItemType, ItemName: key.ItemName, Size: key.Size, Delta: -3})
	require.NoError(t, err)
	require.EqualValues(t, 7, entry.Quantity)

	_, err = svc.Adjust(ctx, AdjustInput{ItemType: key.ItemType, ItemName: key.ItemName, Size: key.Size, Delta: -10})
	require.ErrorIs(t, err, ErrNegativeStock)
	require.ErrorIs(t, err, httpx.ErrValidation)

	qty, ok := quantityOf(t, st, key)
	require.True(t, ok)
	require.EqualValues(t, 7, qty)
}

func TestAdjustUnknownKey(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	_, err := svc.Adjust(ctx, AdjustInput{ItemType: store.ItemRaw, ItemName: "Kain Katun", Delta: -1})
	require.ErrorIs(t, err, ErrUnknownItem)
	_, ok := quantityOf(t, st, store.StockKey{ItemType: store.ItemRaw, ItemName: "Kain Katun"})
	require.False(t, ok)

	entry, err := svc.Adjust(ctx, AdjustInput{ItemType: store.ItemRaw, ItemName: "Kain Katun", Delta: 25})
	require.NoError(t, err)
	require.EqualValues(t, 25, entry.Quantity)
}

func TestAdjustWritesAuditRow(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()

	_, err := svc.Adjust(ctx, AdjustInput{ItemType: store.ItemFinished, ItemName: "Boxer", Size: store.SizeL, Delta: 4, Notes: "recount"})
	require.NoError(t, err)
	_, err = svc.Adjust(ctx, AdjustInput{ItemType: store.ItemFinished, ItemName: "Boxer", Size: store.SizeL, Delta: -1, SkipAudit: true})
	require.NoError(t, err)

	history, err := svc.History(ctx, 30)
	require.NoError(t, err)
	require.Len(t, history, 1)
	row := history[0]
	require.Equal(t, store.TypeStockAdjustment, row.Type)
	require.Equal(t, "stock_finished", row.Category)
	require.True(t, row.Amount.IsZero())
	require.NotNil(t, row.Quantity)
	require.EqualValues(t, 4, *row.Quantity)
	require.Equal(t, "Stock adjustment: Boxer L - recount", row.Notes)

	snaps := st.Snapshots()
	require.Empty(t, snaps, "stock adjustments never touch the finance history")
}

func TestAdjustRejectedFailureLeavesNoAuditRow(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()
	_, err := svc.Adjust(ctx, AdjustInput{ItemType: store.ItemMaterial, ItemName: "Benang", Delta: -5})
	require.Error(t, err)
	count, err := st.CountTransactions(ctx, store.TransactionFilter{})
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestAdjustValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Adjust(ctx, AdjustInput{ItemType: store.ItemFinished, ItemName: "Boxer", Delta: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.Adjust(ctx, AdjustInput{ItemType: "pallet", ItemName: "Boxer", Delta: 1})
	require.ErrorIs(t, err, ErrInvalidItem)
	_, err = svc.Adjust(ctx, AdjustInput{ItemType: store.ItemFinished, Delta: 1})
	require.ErrorIs(t, err, ErrInvalidItem)
}

func TestInitializeBypassesGuard(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()
	key := store.StockKey{ItemType: store.ItemFinished, ItemName: "Boxer", Size: store.SizeXL}

	_, err := svc.Adjust(ctx, AdjustInput{ItemType: key.ItemType, ItemName: key.ItemName, Size: key.Size, Delta: 9})
	require.NoError(t, err)

	require.NoError(t, svc.Initialize(ctx, []store.StockEntry{
		{StockKey: key, Quantity: 2},
		{StockKey: store.StockKey{ItemType: store.ItemRaw, ItemName: "Kain"}, Quantity: 100},
	}))

	qty, ok := quantityOf(t, st, key)
	require.True(t, ok)
	require.EqualValues(t, 2, qty)

	levels, err := svc.Levels(ctx, store.ItemRaw)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	require.EqualValues(t, 100, levels[0].Quantity)

	count, err := st.CountTransactions(ctx, store.TransactionFilter{Types: []store.TransactionType{store.TypeStockAdjustment}})
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestLowStockOrdersAscending(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	require.NoError(t, svc.Initialize(ctx, []store.StockEntry{
		{StockKey: store.StockKey{ItemType: store.ItemFinished, ItemName: "Boxer", Size: store.SizeS}, Quantity: 8},
		{StockKey: store.StockKey{ItemType: store.ItemFinished, ItemName: "Boxer", Size: store.SizeM}, Quantity: 3},
		{StockKey: store.StockKey{ItemType: store.ItemFinished, ItemName: "Boxer", Size: store.SizeL}, Quantity: 40},
		{StockKey: store.StockKey{ItemType: store.ItemMaterial, ItemName: "Karet"}, Quantity: 10},
	}))

	low, err := svc.LowStock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, low, 3)
	require.EqualValues(t, 3, low[0].Quantity)
	require.EqualValues(t, 8, low[1].Quantity)
	require.EqualValues(t, 10, low[2].Quantity)
}

func TestApplyRollsBackWithCallerUnitOfWork(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()
	key := store.StockKey{ItemType: store.ItemFinished, ItemName: "Boxer", Size: store.SizeM}
	require.NoError(t, svc.Initialize(ctx, []store.StockEntry{{StockKey: key, Quantity: 5}}))

	err := st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := svc.Apply(ctx, tx, AdjustInput{ItemType: key.ItemType, ItemName: key.ItemName, Size: key.Size, Delta: -2}); err != nil {
			return err
		}
		_, err := svc.Apply(ctx, tx, AdjustInput{ItemType: key.ItemType, ItemName: key.ItemName, Size: key.Size, Delta: -4})
		return err
	})
	require.ErrorIs(t, err, ErrNegativeStock)

	qty, _ := quantityOf(t, st, key)
	require.EqualValues(t, 5, qty)
}

func TestAdjustRejectsOverflow(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService()
	key := store.StockKey{ItemType: store.ItemRaw, ItemName: "Kain"}
	require.NoError(t, svc.Initialize(ctx, []store.StockEntry{{StockKey: key, Quantity: 5}}))

	_, err := svc.Adjust(ctx, AdjustInput{ItemType: key.ItemType, ItemName: key.ItemName, Delta: math.MaxInt64})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	require.NotErrorIs(t, err, ErrNegativeStock)

	qty, ok := quantityOf(t, st, key)
	require.True(t, ok)
	require.EqualValues(t, 5, qty)
}

func TestHistoryAcceptsLongWindows(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	_, err := svc.Adjust(ctx, AdjustInput{ItemType: store.ItemRaw, ItemName: "Kain", Delta: 3})
	require.NoError(t, err)

	history, err := svc.History(ctx, 200000)
	require.NoError(t, err)
	require.Len(t, history, 1)
}
