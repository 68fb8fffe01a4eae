package shipping

import (
	"encoding/json"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/sugarnest/bakery-api/internal/common"
	"github.com/sugarnest/bakery-api/internal/obs"
)

// Handler serves delivery fee quotes.
type Handler struct {
	Client   Client
	Validate *validator.Validate
}

// Quote handles POST /shipping/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Client == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "shipping client not configured", nil)
		return
	}
	var req QuoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "city and district are required", nil)
			return
		}
	}

	quote, err := h.Client.Quote(r.Context(), req)
	if err != nil {
		if obs.DeliveryQuoteTotal != nil {
			obs.DeliveryQuoteTotal.WithLabelValues("error").Inc()
		}
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM", "could not quote delivery fee", nil)
		return
	}
	if obs.DeliveryQuoteTotal != nil {
		obs.DeliveryQuoteTotal.WithLabelValues("ok").Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}
