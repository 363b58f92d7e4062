package sales

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpants/bookkeeper/internal/catalog"
	"github.com/vpants/bookkeeper/internal/inventory"
	"github.com/vpants/bookkeeper/internal/ledger"
	"github.com/vpants/bookkeeper/internal/store"
	"github.com/vpants/bookkeeper/internal/store/memstore"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newTestService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	inv := inventory.NewService(st, nil, nil)
	led := ledger.NewService(st, ledger.ServiceConfig{}, nil, nil)
	require.NoError(t, st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.ReplaceProducts(ctx, catalog.DefaultProducts())
	}))
	require.NoError(t, inv.Initialize(ctx, []store.StockEntry{
		{StockKey: store.StockKey{ItemType: store.ItemFinished, ItemName: "Celana Dalam VPants", Size: store.SizeM}, Quantity: 10},
		{StockKey: store.StockKey{ItemType: store.ItemFinished, ItemName: "Celana Dalam VPants Pack 3pcs", Size: store.SizePacked}, Quantity: 2},
	}))
	_, err := led.Record(ctx, store.Transaction{Type: store.TypeInitialBalance, Category: "initial_capital", Amount: d(1_000_000)})
	require.NoError(t, err)
	return NewService(st, led, inv, catalog.NewService(st), nil), st
}

func stockOf(t *testing.T, st *memstore.Store, key store.StockKey) int64 {
	t.Helper()
	entries, err := st.ListStock(context.Background(), store.StockFilter{ItemType: key.ItemType})
	require.NoError(t, err)
	for _, e := range entries {
		if e.StockKey == key {
			return e.Quantity
		}
	}
	return -1
}

func TestTotalAppliesPercentDiscount(t *testing.T) {
	require.True(t, Total(d(75_000), 2, d(10)).Equal(d(135_000)))
	require.True(t, Total(d(75_000), 1, decimal.Zero).Equal(d(75_000)))
	require.True(t, Total(decimal.RequireFromString("33333.33"), 3, d(0)).Equal(decimal.RequireFromString("99999.99")))
}

func TestRecordSaleMovesStockAndLedgerTogether(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	res, err := svc.RecordSale(ctx, SaleInput{ProductName: "Celana Dalam VPants", Size: store.SizeM, Quantity: 1, UnitPrice: d(75_000), PaymentMethod: "cash"})
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(d(75_000)))
	assert.True(t, res.Balance.Equal(d(1_075_000)))
	assert.EqualValues(t, 9, res.Stock.Quantity)
	assert.Equal(t, CategoryRetail, res.Transaction.Category)
	assert.Equal(t, "Penjualan Celana Dalam VPants M - cash", res.Transaction.Notes)
	assert.NotEmpty(t, res.Transaction.Ref)

	key := store.StockKey{ItemType: store.ItemFinished, ItemName: "Celana Dalam VPants", Size: store.SizeM}
	require.EqualValues(t, 9, stockOf(t, st, key))

	adjustments, err := st.CountTransactions(ctx, store.TransactionFilter{Types: []store.TransactionType{store.TypeStockAdjustment}})
	require.NoError(t, err)
	require.Zero(t, adjustments, "sale rows carry the stock movement themselves")
}

func TestRecordSaleUsesCatalogPrice(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.RecordSale(context.Background(), SaleInput{ProductName: "Celana Dalam VPants", Size: store.SizeM, Quantity: 2, Discount: d(50)})
	require.NoError(t, err)
	require.True(t, res.Amount.Equal(d(75_000)), res.Amount.String())
}

func TestRecordSaleBeyondStockChangesNothing(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	_, err := svc.RecordSale(ctx, SaleInput{ProductName: "Celana Dalam VPants", Size: store.SizeM, Quantity: 11, UnitPrice: d(75_000)})
	require.ErrorIs(t, err, inventory.ErrNegativeStock)

	require.Len(t, st.Snapshots(), 1)
	require.EqualValues(t, 10, stockOf(t, st, store.StockKey{ItemType: store.ItemFinished, ItemName: "Celana Dalam VPants", Size: store.SizeM}))
}

func TestRecordSaleRollsBackStockWhenLedgerFails(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	st.FailInsertTransaction = assert.AnError

	_, err := svc.RecordSale(ctx, SaleInput{ProductName: "Celana Dalam VPants", Size: store.SizeM, Quantity: 3, UnitPrice: d(75_000)})
	require.ErrorIs(t, err, assert.AnError)
	require.EqualValues(t, 10, stockOf(t, st, store.StockKey{ItemType: store.ItemFinished, ItemName: "Celana Dalam VPants", Size: store.SizeM}))
	require.Len(t, st.Snapshots(), 1)
}

func TestRecordPackSale(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	res, err := svc.RecordPackSale(ctx, PackSaleInput{PackName: "Celana Dalam VPants Pack 3pcs", Quantity: 2, UnitPrice: d(200_000), Discount: d(5)})
	require.NoError(t, err)
	require.True(t, res.Amount.Equal(d(380_000)))
	require.Equal(t, store.SizePacked, res.Transaction.Size)
	require.Equal(t, CategoryPack, res.Transaction.Category)
	require.EqualValues(t, 0, stockOf(t, st, store.StockKey{ItemType: store.ItemFinished, ItemName: "Celana Dalam VPants Pack 3pcs", Size: store.SizePacked}))

	_, err = svc.RecordPackSale(ctx, PackSaleInput{PackName: "Celana Dalam VPants Pack 3pcs", Quantity: 1, UnitPrice: d(200_000)})
	require.ErrorIs(t, err, inventory.ErrNegativeStock)
}

func TestSaleValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.RecordSale(ctx, SaleInput{ProductName: "Celana Dalam VPants", Size: "XS", Quantity: 1, UnitPrice: d(1)})
	require.ErrorIs(t, err, ErrInvalidSale)
	_, err = svc.RecordSale(ctx, SaleInput{ProductName: "Celana Dalam VPants", Size: store.SizeM, Quantity: 0, UnitPrice: d(1)})
	require.ErrorIs(t, err, ErrInvalidSale)
	_, err = svc.RecordPackSale(ctx, PackSaleInput{PackName: "x", Quantity: 1, UnitPrice: d(1), Discount: d(120)})
	require.ErrorIs(t, err, ErrInvalidSale)
}

func TestAvailableProducts(t *testing.T) {
	svc, _ := newTestService(t)
	products, err := svc.AvailableProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, store.SizeM, products[0].Size)
	require.EqualValues(t, 10, products[0].Quantity)
}

func TestHandlerRecordSale(t *testing.T) {
	svc, _ := newTestService(t)
	r := chi.NewRouter()
	r.Route("/sales", NewHandler(nil, svc).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sales/", strings.NewReader(`{"product_name":"Celana Dalam VPants","size":"M","quantity":2,"unit_price":"75000"}`)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Contains(t, rr.Body.String(), `"amount":"150000"`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sales/", strings.NewReader(`{"product_name":"Celana Dalam VPants","size":"M","quantity":50,"unit_price":"75000"}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
