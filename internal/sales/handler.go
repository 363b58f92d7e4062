package sales

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
)

// Handler wires HTTP endpoints for sales.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the sales handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleSale)
	r.Post("/packs", h.handlePackSale)
	r.Get("/available", h.handleAvailable)
}

type saleRequest struct {
	ProductName   string          `json:"product_name" validate:"required,max=200"`
	Size          string          `json:"size" validate:"required,oneof=S M L XL XXL MIXED"`
	Quantity      int64           `json:"quantity" validate:"required,gt=0,max=1000000000"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Discount      decimal.Decimal `json:"discount"`
	PaymentMethod string          `json:"payment_method" validate:"max=50"`
	Notes         string          `json:"notes" validate:"max=500"`
}

type packSaleRequest struct {
	PackName      string          `json:"pack_name" validate:"required,max=200"`
	Quantity      int64           `json:"quantity" validate:"required,gt=0,max=1000000000"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Discount      decimal.Decimal `json:"discount"`
	PaymentMethod string          `json:"payment_method" validate:"max=50"`
	Notes         string          `json:"notes" validate:"max=500"`
}

func (h *Handler) handleSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.RecordSale(r.Context(), SaleInput{
		ProductName:   req.ProductName,
		Size:          req.Size,
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		Discount:      req.Discount,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		h.fail(w, "record sale", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) handlePackSale(w http.ResponseWriter, r *http.Request) {
	var req packSaleRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.RecordPackSale(r.Context(), PackSaleInput{
		PackName:      req.PackName,
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		Discount:      req.Discount,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		h.fail(w, "record pack sale", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) handleAvailable(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.AvailableProducts(r.Context())
	if err != nil {
		h.fail(w, "available products", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
