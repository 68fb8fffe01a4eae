package favorites

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sugarnest/bakery-api/internal/common"
)

// Handler exposes favorites endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts the favorites routes on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/favorites", h.List)
	r.Post("/favorites", h.Toggle)
	r.Get("/favorites/{productID}", h.Check)
}

// List returns the user's bookmarked products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	favs, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list favorites", nil)
		return
	}
	views := make([]map[string]any, 0, len(favs))
	for _, p := range favs {
		views = append(views, map[string]any{
			"id":       p.ID.String(),
			"name":     p.Name,
			"slug":     p.Slug,
			"imageUrl": p.ImageURL,
			"price":    p.Price,
			"inStock":  p.Stock > 0,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": views})
}

// Toggle flips the bookmark state for a product.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid payload", nil)
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid product id", nil)
		return
	}

	exists, err := h.Svc.Check(r.Context(), userID, productID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to check favorite", nil)
		return
	}
	if exists {
		err = h.Svc.Remove(r.Context(), userID, productID)
	} else {
		err = h.Svc.Add(r.Context(), userID, productID)
	}
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update favorite", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]bool{"favorited": !exists})
}

// Check reports the bookmark state. Anonymous callers always see false.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid product id", nil)
		return
	}
	userIDStr, ok := common.UserID(r.Context())
	if !ok {
		common.JSON(w, http.StatusOK, map[string]bool{"favorited": false})
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid user id", nil)
		return
	}
	exists, err := h.Svc.Check(r.Context(), userID, productID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to check favorite", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]bool{"favorited": exists})
}

func authedUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userIDStr, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "user identity is required", nil)
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid user id", nil)
		return uuid.Nil, false
	}
	return userID, true
}
