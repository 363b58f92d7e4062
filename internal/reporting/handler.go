package reporting

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
)

// Handler exposes the read-only report endpoints.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	lowThreshold int64
}

// NewHandler constructs the reporting handler.
func NewHandler(logger *slog.Logger, service *Service, lowThreshold int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, lowThreshold: lowThreshold}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/daily-profit", h.handleDailyProfit)
	r.Get("/monthly", h.handleMonthly)
	r.Get("/transactions", h.handleHistory)
	r.Get("/recent", h.handleRecent)
	r.Get("/stock-summary", h.handleStockSummary)
	r.Get("/low-stock", h.handleLowStock)
	r.Get("/sales", h.handleSales)
	r.Get("/stock", h.handleStockReport)
}

func (h *Handler) handleDailyProfit(w http.ResponseWriter, r *http.Request) {
	var date time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.service.Location())
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidPeriod))
			return
		}
		date = parsed
	}
	report, err := h.service.DailyProfit(r.Context(), date)
	if err != nil {
		h.fail(w, "daily profit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleMonthly(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(h.service.Location())
	year, err := httpx.QueryInt(r, "year", int64(now.Year()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	month, err := httpx.QueryInt(r, "month", int64(now.Month()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.MonthlyReport(r.Context(), int(year), int(month))
	if err != nil {
		h.fail(w, "monthly report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	days, err := httpx.QueryInt(r, "days", 7)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.TransactionHistory(r.Context(), int(days))
	if err != nil {
		h.fail(w, "transaction history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"days": days, "transactions": rows})
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	days, err := httpx.QueryInt(r, "days", 7)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.RecentTransactions(r.Context(), int(days))
	if err != nil {
		h.fail(w, "recent transactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"days": days, "transactions": rows})
}

func (h *Handler) handleStockSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.StockSummary(r.Context())
	if err != nil {
		h.fail(w, "stock summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
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

func (h *Handler) handleSales(w http.ResponseWriter, r *http.Request) {
	days, err := httpx.QueryInt(r, "days", 30)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.SalesReport(r.Context(), int(days))
	if err != nil {
		h.fail(w, "sales report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"days": days, "sales": report})
}

func (h *Handler) handleStockReport(w http.ResponseWriter, r *http.Request) {
	lines, err := h.service.StockReport(r.Context())
	if err != nil {
		h.fail(w, "stock report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": lines})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
