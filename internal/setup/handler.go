package setup

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
	"github.com/vpants/bookkeeper/internal/shared"
	"github.com/vpants/bookkeeper/internal/store"
)

// Handler exposes setup endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the setup handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers setup routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/status", h.handleStatus)
	r.Post("/initial-balance", h.handleInitialBalance)
	r.Post("/products", h.handleSeedProducts)
	r.Post("/raw-materials", h.handleSeedRawMaterials)
	r.Post("/stock", h.handleInitializeStock)
}

type initialBalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes" validate:"max=500"`
}

type stockRequest struct {
	Items []struct {
		ItemType string `json:"item_type" validate:"required,oneof=raw finished material"`
		ItemName string `json:"item_name" validate:"required,max=200"`
		Size     string `json:"size" validate:"max=32"`
		Quantity int64  `json:"quantity" validate:"gte=0,max=1000000000"`
	} `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.fail(w, "setup status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

func (h *Handler) handleInitialBalance(w http.ResponseWriter, r *http.Request) {
	var req initialBalanceRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	posting, err := h.service.InitialBalance(r.Context(), req.Amount, req.Notes)
	if err != nil {
		h.fail(w, "initial balance", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"balance":         posting.Snapshot.CurrentBalance,
		"display_balance": shared.FormatRupiah(posting.Snapshot.CurrentBalance),
		"transaction":     posting.Transaction,
	})
}

func (h *Handler) handleSeedProducts(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.SeedProducts(r.Context())
	if err != nil {
		h.fail(w, "seed products", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"products": n})
}

func (h *Handler) handleSeedRawMaterials(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.SeedRawMaterials(r.Context())
	if err != nil {
		h.fail(w, "seed raw materials", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"raw_materials": n})
}

func (h *Handler) handleInitializeStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries := make([]store.StockEntry, 0, len(req.Items))
	for _, item := range req.Items {
		entries = append(entries, store.StockEntry{
			StockKey: store.StockKey{ItemType: store.ItemType(item.ItemType), ItemName: item.ItemName, Size: item.Size},
			Quantity: item.Quantity,
		})
	}
	if err := h.service.InitializeStock(r.Context(), entries); err != nil {
		h.fail(w, "initialize stock", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"items": len(entries)})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
