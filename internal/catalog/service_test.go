package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
	"github.com/vpants/bookkeeper/internal/store"
	"github.com/vpants/bookkeeper/internal/store/memstore"
)

func seeded(t *testing.T) *memstore.Store {
	t.Helper()
	st := memstore.New()
	require.NoError(t, st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		if err := tx.ReplaceProducts(ctx, DefaultProducts()); err != nil {
			return err
		}
		return tx.ReplaceRawMaterials(ctx, DefaultRawMaterials())
	}))
	return st
}

func TestProductLookup(t *testing.T) {
	svc := NewService(seeded(t))
	ctx := context.Background()

	p, err := svc.Product(ctx, "Celana Dalam VPants", store.SizeXL)
	require.NoError(t, err)
	require.Equal(t, "80000", p.SellingPrice.String())

	_, err = svc.Product(ctx, "Celana Dalam VPants", store.SizeMixed)
	require.ErrorIs(t, err, ErrProductNotFound)
	require.ErrorIs(t, err, httpx.ErrNotFound)

	materials, err := svc.RawMaterials(ctx)
	require.NoError(t, err)
	require.Len(t, materials, len(DefaultRawMaterials()))
	require.Equal(t, "Benang", materials[0].Name)

	m, err := svc.RawMaterial(ctx, materials[0].ID)
	require.NoError(t, err)
	require.Equal(t, "roll", m.Unit)

	_, err = svc.RawMaterial(ctx, 9999)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestHandlerListsCatalog(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/catalog", NewHandler(nil, NewService(seeded(t))).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/catalog/products", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Paket Celana Dalam")

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/catalog/raw-materials", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Kain Polar")
}
