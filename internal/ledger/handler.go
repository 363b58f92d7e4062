package ledger

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

// Handler wires HTTP endpoints for the finance ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers finance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/transactions", h.handleRecord)
	r.Get("/balance", h.handleBalance)
	r.Get("/summary", h.handleSummary)
}

type recordRequest struct {
	Type     string          `json:"type" validate:"required"`
	Category string          `json:"category" validate:"required,max=100"`
	Amount   decimal.Decimal `json:"amount"`
	Quantity *int64          `json:"quantity"`
	Size     string          `json:"size" validate:"omitempty,oneof=S M L XL XXL MIXED PACKED"`
	Unit     string          `json:"unit" validate:"max=32"`
	Discount decimal.Decimal `json:"discount"`
	Notes    string          `json:"notes" validate:"max=500"`
}

type balanceResponse struct {
	Balance        decimal.Decimal    `json:"balance"`
	DisplayBalance string             `json:"display_balance"`
	Transaction    *store.Transaction `json:"transaction,omitempty"`
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	posting, err := h.service.RecordPosting(r.Context(), store.Transaction{
		Type:     store.TransactionType(req.Type),
		Category: req.Category,
		Amount:   req.Amount,
		Quantity: req.Quantity,
		Size:     req.Size,
		Unit:     req.Unit,
		Discount: req.Discount,
		Notes:    req.Notes,
	})
	if err != nil {
		h.fail(w, "record transaction", err)
		return
	}
	balance := posting.Snapshot.CurrentBalance
	httpx.JSON(w, http.StatusCreated, balanceResponse{
		Balance:        balance,
		DisplayBalance: shared.FormatRupiah(balance),
		Transaction:    &posting.Transaction,
	})
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.CurrentBalance(r.Context())
	if err != nil {
		h.fail(w, "current balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, balanceResponse{Balance: balance, DisplayBalance: shared.FormatRupiah(balance)})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(w, "finance summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
