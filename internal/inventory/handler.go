package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
	"github.com/vpants/bookkeeper/internal/store"
)

// Handler wires HTTP endpoints for the stock ledger.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	validator    *validator.Validate
	lowThreshold int64
}

// NewHandler constructs the inventory handler.
func NewHandler(logger *slog.Logger, service *Service, lowThreshold int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New(), lowThreshold: lowThreshold}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleLevels)
	r.Get("/low", h.handleLowStock)
	r.Get("/history", h.handleHistory)
	r.Post("/adjustments", h.handleAdjust)
	r.Post("/initialize", h.handleInitialize)
}

type adjustRequest struct {
	ItemType string `json:"item_type" validate:"required,oneof=raw finished material"`
	ItemName string `json:"item_name" validate:"required,max=200"`
	Size     string `json:"size" validate:"max=32"`
	Delta    int64  `json:"delta" validate:"required,min=-1000000000,max=1000000000"`
	Notes    string `json:"notes" validate:"max=500"`
}

type initializeRequest struct {
	Items []stockItem `json:"items" validate:"required,min=1,dive"`
}

type stockItem struct {
	ItemType string `json:"item_type" validate:"required,oneof=raw finished material"`
	ItemName string `json:"item_name" validate:"required,max=200"`
	Size     string `json:"size" validate:"max=32"`
	Quantity int64  `json:"quantity" validate:"gte=0,max=1000000000"`
}

// Entries converts the request into stock entries.
func (req initializeRequest) Entries() []store.StockEntry {
	out := make([]store.StockEntry, 0, len(req.Items))
	for _, item := range req.Items {
		out = append(out, store.StockEntry{
			StockKey: store.StockKey{ItemType: store.ItemType(item.ItemType), ItemName: item.ItemName, Size: item.Size},
			Quantity: item.Quantity,
		})
	}
	return out
}

func (h *Handler) handleLevels(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Levels(r.Context(), store.ItemType(r.URL.Query().Get("item_type")))
	if err != nil {
		h.fail(w, "stock levels", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := httpx.QueryInt(r, "threshold", h.lowThreshold)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries, err := h.service.LowStock(r.Context(), threshold)
	if err != nil {
		h.fail(w, "low stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"threshold": threshold, "entries": entries})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	days, err := httpx.QueryInt(r, "days", 30)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.History(r.Context(), int(days))
	if err != nil {
		h.fail(w, "stock history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"days": days, "transactions": rows})
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.Adjust(r.Context(), AdjustInput{
		ItemType: store.ItemType(req.ItemType),
		ItemName: req.ItemName,
		Size:     req.Size,
		Delta:    req.Delta,
		Notes:    req.Notes,
	})
	if err != nil {
		h.fail(w, "adjust stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Initialize(r.Context(), req.Entries()); err != nil {
		h.fail(w, "initialize stock", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"initialized": len(req.Items)})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
