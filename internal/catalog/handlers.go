package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sugarnest/bakery-api/internal/common"
)

// Handler serves catalog endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts the catalog routes on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/products", h.List)
	r.Get("/products/{idOrSlug}", h.Get)
}

// List handles GET /products with optional category filter and pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 24)
	if perPage > 100 {
		perPage = 100
	}
	category := r.URL.Query().Get("category")

	result, err := h.Svc.List(r.Context(), category, page, perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list products", nil)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": result.Products,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: result.Total,
		},
	})
}

// Get handles GET /products/{idOrSlug}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	detail, err := h.Svc.Get(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load product", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}
