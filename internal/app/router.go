package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vpants/bookkeeper/internal/catalog"
	"github.com/vpants/bookkeeper/internal/inventory"
	"github.com/vpants/bookkeeper/internal/ledger"
	"github.com/vpants/bookkeeper/internal/observability"
	"github.com/vpants/bookkeeper/internal/platform/httpx"
	"github.com/vpants/bookkeeper/internal/production"
	"github.com/vpants/bookkeeper/internal/reporting"
	"github.com/vpants/bookkeeper/internal/sales"
	"github.com/vpants/bookkeeper/internal/setup"
	"github.com/vpants/bookkeeper/internal/shared"
	"github.com/vpants/bookkeeper/jobs"
)

// Pinger reports dependency health; *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
	Keys    shared.KeyStore
	DB      Pinger

	LedgerHandler     *ledger.Handler
	InventoryHandler  *inventory.Handler
	ReportingHandler  *reporting.Handler
	SalesHandler      *sales.Handler
	ProductionHandler *production.Handler
	CatalogHandler    *catalog.Handler
	SetupHandler      *setup.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with the bookkeeping routes.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
		Keys:    params.Keys,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := params.DB.Ping(ctx); err != nil {
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "down"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.LedgerHandler != nil {
		r.Route("/finance", params.LedgerHandler.MountRoutes)
	}
	if params.InventoryHandler != nil {
		r.Route("/stock", params.InventoryHandler.MountRoutes)
	}
	if params.ReportingHandler != nil {
		r.Route("/reports", params.ReportingHandler.MountRoutes)
	}
	if params.SalesHandler != nil {
		r.Route("/sales", params.SalesHandler.MountRoutes)
	}
	if params.ProductionHandler != nil {
		r.Route("/production", params.ProductionHandler.MountRoutes)
	}
	if params.CatalogHandler != nil {
		r.Route("/catalog", params.CatalogHandler.MountRoutes)
	}
	if params.SetupHandler != nil {
		r.Route("/setup", params.SetupHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}
