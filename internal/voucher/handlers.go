package voucher

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sugarnest/bakery-api/internal/common"
	"github.com/sugarnest/bakery-api/internal/obs"
	"github.com/sugarnest/bakery-api/internal/pricing"
	"github.com/sugarnest/bakery-api/internal/store"
)

// Handler exposes voucher endpoints.
type Handler struct {
	Svc *Service
}

type voucherView struct {
	Code       string     `json:"code"`
	Scope      string     `json:"scope"`
	ProductID  *string    `json:"productId,omitempty"`
	PercentBps *int32     `json:"percentBps,omitempty"`
	HardValue  *int64     `json:"hardValue,omitempty"`
	MinQty     int32      `json:"minQty,omitempty"`
	MaxQty     int32      `json:"maxQty,omitempty"`
	MinSpend   int64      `json:"minSpend,omitempty"`
	StartsAt   *time.Time `json:"startsAt,omitempty"`
	EndsAt     *time.Time `json:"endsAt,omitempty"`
}

func toView(v store.Voucher) voucherView {
	view := voucherView{
		Code:       v.Code,
		Scope:      v.Scope,
		PercentBps: v.PercentBps,
		HardValue:  v.HardValue,
		MinQty:     v.MinQty,
		MaxQty:     v.MaxQty,
		MinSpend:   v.MinSpend,
		StartsAt:   v.StartsAt,
		EndsAt:     v.EndsAt,
	}
	if v.ProductID != nil {
		id := v.ProductID.String()
		view.ProductID = &id
	}
	return view
}

// List returns vouchers currently open for use.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "voucher service not configured", nil)
		return
	}
	vouchers, err := h.Svc.ListActive(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load vouchers", nil)
		return
	}
	views := make([]voucherView, 0, len(vouchers))
	for _, v := range vouchers {
		views = append(views, toView(v))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": views})
}

// Preview evaluates a voucher code against a subtotal without applying it.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "voucher service not configured", nil)
		return
	}
	var payload struct {
		Code     string `json:"code"`
		Subtotal int64  `json:"subtotal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	var userID *uuid.UUID
	if raw, ok := common.UserID(r.Context()); ok {
		if parsed, err := uuid.Parse(raw); err == nil {
			userID = &parsed
		}
	}
	res, err := h.Svc.Preview(r.Context(), payload.Code, userID, payload.Subtotal)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "voucher not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to evaluate voucher", nil)
		return
	}
	if obs.VoucherEvaluationsTotal != nil {
		reason := string(res.Reason)
		if reason == "" {
			reason = "applied"
		}
		obs.VoucherEvaluationsTotal.WithLabelValues(string(pricing.ScopeOrder), reason).Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}
