package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"github.com/sugarnest/bakery-api/internal/common"
	"github.com/sugarnest/bakery-api/internal/voucher"
)

// Handler exposes the checkout endpoint.
type Handler struct {
	Svc *Service
}

// Create handles POST /checkout.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "user identity is required", nil)
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid payload", nil)
		return
	}

	out, err := h.Svc.Create(r.Context(), userID, in)
	if err != nil {
		writeCreateError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, out)
}

func writeCreateError(w http.ResponseWriter, err error) {
	common.WriteError(w, toAppError(err))
}

func toAppError(err error) *common.AppError {
	var vErrs validator.ValidationErrors
	switch {
	case errors.As(err, &vErrs):
		fields := make([]string, 0, len(vErrs))
		for _, fe := range vErrs {
			fields = append(fields, fe.Field())
		}
		app := common.NewAppError("INVALID_INPUT", "invalid checkout payload", http.StatusBadRequest, err)
		app.Details = map[string]any{"fields": fields}
		return app
	case errors.Is(err, ErrEmptyCart):
		return common.NewAppError("EMPTY_CART", "cart has no items", http.StatusUnprocessableEntity, err)
	case errors.Is(err, ErrCartNotOwned):
		return common.NewAppError("FORBIDDEN", "cart does not belong to user", http.StatusForbidden, err)
	case errors.Is(err, ErrInProgress):
		return common.NewAppError("IN_PROGRESS", "checkout already in progress for this cart", http.StatusConflict, err)
	case errors.Is(err, voucher.ErrUsageLimitReached), errors.Is(err, voucher.ErrPerUserLimitReached):
		return common.NewAppError("VOUCHER_EXHAUSTED", err.Error(), http.StatusConflict, err)
	case errors.Is(err, pgx.ErrNoRows):
		return common.NewAppError("NOT_FOUND", "cart not found", http.StatusNotFound, err)
	default:
		return common.NewAppError("INTERNAL", "could not place order", http.StatusInternalServerError, err)
	}
}
