package setup

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

func newService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	led := ledger.NewService(st, ledger.ServiceConfig{}, nil, nil)
	inv := inventory.NewService(st, nil, nil)
	return NewService(st, led, inv, nil), st
}

func TestStatusTracksEachArea(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, Status{}, status)

	_, err = svc.InitialBalance(ctx, decimal.NewFromInt(1_000_000), "")
	require.NoError(t, err)
	_, err = svc.SeedProducts(ctx)
	require.NoError(t, err)

	status, err = svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, Status{FinanceInitialized: true, ProductsInitialized: true}, status)

	require.NoError(t, svc.InitializeStock(ctx, []store.StockEntry{
		{StockKey: store.StockKey{ItemType: store.ItemRaw, ItemName: "Kain"}, Quantity: 5},
	}))
	status, err = svc.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.StockInitialized)
}

func TestInitialBalanceOnlyOnce(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	posting, err := svc.InitialBalance(ctx, decimal.NewFromInt(1_000_000), "")
	require.NoError(t, err)
	assert.True(t, posting.Snapshot.CurrentBalance.Equal(decimal.NewFromInt(1_000_000)))
	assert.True(t, posting.Snapshot.TotalIncome.IsZero())
	assert.Equal(t, store.TypeInitialBalance, posting.Transaction.Type)

	_, err = svc.InitialBalance(ctx, decimal.NewFromInt(5), "")
	require.ErrorIs(t, err, ErrAlreadyFunded)
	require.Len(t, st.Snapshots(), 1)

	_, err = svc.InitialBalance(ctx, decimal.NewFromInt(-1), "")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSeedReplacesCatalog(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	for i := 0; i < 2; i++ {
		n, err := svc.SeedRawMaterials(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(catalog.DefaultRawMaterials()), n)
	}
	materials, err := st.ListRawMaterials(ctx)
	require.NoError(t, err)
	assert.Len(t, materials, len(catalog.DefaultRawMaterials()))
}

func TestHandlerInitialBalanceConflict(t *testing.T) {
	svc, _ := newService(t)
	r := chi.NewRouter()
	r.Route("/setup", NewHandler(nil, svc).MountRoutes)

	post := func() *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/setup/initial-balance", strings.NewReader(`{"amount":"1000000"}`)))
		return rr
	}
	first := post()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Contains(t, first.Body.String(), "1.000.000")
	require.Equal(t, http.StatusConflict, post().Code)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/setup/status", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"finance_initialized":true`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/setup/stock", strings.NewReader(`{"items":[]}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
