package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
)

// Handler exposes catalog listings.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.handleProducts)
	r.Get("/raw-materials", h.handleRawMaterials)
}

func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Products(r.Context())
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) handleRawMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.service.RawMaterials(r.Context())
	if err != nil {
		h.logger.Error("list raw materials", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"raw_materials": materials})
}
