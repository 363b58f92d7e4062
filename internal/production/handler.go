package production

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
)

// Handler wires HTTP endpoints for production.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the production handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers production routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/batches", h.handleBatch)
	r.Post("/packing", h.handlePacking)
	r.Post("/material-purchases", h.handlePurchase)
	r.Get("/history", h.handleHistory)
	r.Get("/summary", h.handleSummary)
}

type materialUseRequest struct {
	MaterialID int64 `json:"material_id" validate:"required,gt=0"`
	Quantity   int64 `json:"quantity" validate:"required,gt=0,max=1000000000"`
}

type batchRequest struct {
	ProductName  string               `json:"product_name" validate:"required,max=200"`
	Size         string               `json:"size" validate:"required,oneof=S M L XL XXL MIXED"`
	Quantity     int64                `json:"quantity" validate:"required,gt=0,max=1000000000"`
	LaborCost    decimal.Decimal      `json:"labor_cost"`
	CostPerPiece decimal.Decimal      `json:"cost_per_piece"`
	Materials    []materialUseRequest `json:"materials" validate:"dive"`
	Notes        string               `json:"notes" validate:"max=500"`
}

type packingRequest struct {
	ProductName string          `json:"product_name" validate:"required,max=200"`
	Size        string          `json:"size" validate:"omitempty,oneof=S M L XL XXL MIXED"`
	PackSize    int64           `json:"pack_size" validate:"required,gt=0,max=1000"`
	Quantity    int64           `json:"quantity" validate:"required,gt=0,max=1000000000"`
	PackCost    decimal.Decimal `json:"pack_cost"`
}

type purchaseRequest struct {
	MaterialID int64           `json:"material_id" validate:"required,gt=0"`
	Quantity   int64           `json:"quantity" validate:"required,gt=0,max=1000000000"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	Notes      string          `json:"notes" validate:"max=500"`
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	materials := make([]MaterialUse, 0, len(req.Materials))
	for _, m := range req.Materials {
		materials = append(materials, MaterialUse{MaterialID: m.MaterialID, Quantity: m.Quantity})
	}
	res, err := h.service.RecordProduction(r.Context(), ProductionInput{
		ProductName:  req.ProductName,
		Size:         req.Size,
		Quantity:     req.Quantity,
		LaborCost:    req.LaborCost,
		CostPerPiece: req.CostPerPiece,
		Materials:    materials,
		Notes:        req.Notes,
	})
	if err != nil {
		h.fail(w, "record production", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) handlePacking(w http.ResponseWriter, r *http.Request) {
	var req packingRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.RecordPacking(r.Context(), PackingInput{
		ProductName: req.ProductName,
		Size:        req.Size,
		PackSize:    req.PackSize,
		Quantity:    req.Quantity,
		PackCost:    req.PackCost,
	})
	if err != nil {
		h.fail(w, "record packing", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.RecordMaterialPurchase(r.Context(), MaterialPurchaseInput{
		MaterialID: req.MaterialID,
		Quantity:   req.Quantity,
		TotalCost:  req.TotalCost,
		Notes:      req.Notes,
	})
	if err != nil {
		h.fail(w, "record material purchase", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	days, err := httpx.QueryInt(r, "days", 30)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	batches, err := h.service.History(r.Context(), int(days))
	if err != nil {
		h.fail(w, "production history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"days": days, "batches": batches})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	days, err := httpx.QueryInt(r, "days", 30)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	lines, err := h.service.Summary(r.Context(), int(days))
	if err != nil {
		h.fail(w, "production summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"days": days, "lines": lines})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
