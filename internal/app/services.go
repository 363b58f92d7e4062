package app

import (
	"log/slog"

	"github.com/vpants/bookkeeper/internal/catalog"
	"github.com/vpants/bookkeeper/internal/inventory"
	"github.com/vpants/bookkeeper/internal/ledger"
	"github.com/vpants/bookkeeper/internal/production"
	"github.com/vpants/bookkeeper/internal/reporting"
	"github.com/vpants/bookkeeper/internal/sales"
	"github.com/vpants/bookkeeper/internal/setup"
	"github.com/vpants/bookkeeper/internal/store"
)

// Services holds the domain services sharing one store and report cache.
type Services struct {
	Ledger     *ledger.Service
	Inventory  *inventory.Service
	Reporting  *reporting.Service
	Catalog    *catalog.Service
	Sales      *sales.Service
	Production *production.Service
	Setup      *setup.Service
}

// NewServices wires every domain service. cache may be nil.
func NewServices(cfg *Config, st store.Store, cache *reporting.Cache, logger *slog.Logger) (*Services, error) {
	fee, err := cfg.Fee()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	ledgerSvc := ledger.NewService(st, ledger.ServiceConfig{WithdrawalFee: fee}, cache, logger)
	inv := inventory.NewService(st, cache, logger)
	cat := catalog.NewService(st)
	return &Services{
		Ledger:    ledgerSvc,
		Inventory: inv,
		Reporting: reporting.NewService(st, cache, reporting.ServiceConfig{
			Location:      loc,
			WithdrawalFee: fee,
		}, logger),
		Catalog:    cat,
		Sales:      sales.NewService(st, ledgerSvc, inv, cat, logger),
		Production: production.NewService(st, ledgerSvc, inv, logger),
		Setup:      setup.NewService(st, ledgerSvc, inv, logger),
	}, nil
}

// Handlers fills the handler fields of RouterParams.
func (s *Services) Handlers(p RouterParams) RouterParams {
	threshold := int64(10)
	if p.Config != nil {
		threshold = p.Config.LowStockThreshold
	}
	p.LedgerHandler = ledger.NewHandler(p.Logger, s.Ledger)
	p.InventoryHandler = inventory.NewHandler(p.Logger, s.Inventory, threshold)
	p.ReportingHandler = reporting.NewHandler(p.Logger, s.Reporting, threshold)
	p.SalesHandler = sales.NewHandler(p.Logger, s.Sales)
	p.ProductionHandler = production.NewHandler(p.Logger, s.Production)
	p.CatalogHandler = catalog.NewHandler(p.Logger, s.Catalog)
	p.SetupHandler = setup.NewHandler(p.Logger, s.Setup)
	return p
}
