package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sugarnest/bakery-api/internal/common"
	"github.com/sugarnest/bakery-api/internal/pricing"
	"github.com/sugarnest/bakery-api/internal/store"
	"github.com/sugarnest/bakery-api/internal/voucher"
)

// Handler exposes cart endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts the cart routes on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/carts", h.Ensure)
	r.Get("/carts/{cartID}", h.Get)
	r.Post("/carts/{cartID}/items", h.AddItem)
	r.Patch("/carts/{cartID}/items/{itemID}", h.UpdateItem)
	r.Delete("/carts/{cartID}/items/{itemID}", h.RemoveItem)
	r.Put("/carts/{cartID}/items/{itemID}/voucher", h.SelectItemVoucher)
	r.Delete("/carts/{cartID}/items/{itemID}/voucher", h.RemoveItemVoucher)
	r.Put("/carts/{cartID}/voucher", h.ApplyOrderVoucher)
	r.Delete("/carts/{cartID}/voucher", h.RemoveOrderVoucher)
	r.Post("/carts/{cartID}/merge", h.Merge)
}

type cartView struct {
	ID               string         `json:"id"`
	OrderVoucherCode *string        `json:"orderVoucherCode,omitempty"`
	Items            []cartItemView `json:"items"`
	Summary          *summaryView   `json:"summary,omitempty"`
}

type cartItemView struct {
	ID              string   `json:"id"`
	ProductID       string   `json:"productId"`
	Name            string   `json:"name"`
	Options         []string `json:"options"`
	UnitPrice       int64    `json:"unitPrice"`
	AdditionalPrice int64    `json:"additionalPrice"`
	Qty             int32    `json:"qty"`
	VoucherCode     *string  `json:"voucherCode,omitempty"`
}

type summaryView struct {
	Lines         []lineView `json:"lines"`
	Subtotal      int64      `json:"subtotal"`
	OrderDiscount int64      `json:"orderDiscount"`
	OrderReason   string     `json:"orderReason,omitempty"`
	OrderMessage  string     `json:"orderMessage,omitempty"`
	Shipping      int64      `json:"shipping"`
	Total         int64      `json:"total"`
}

type lineView struct {
	LineKey  string `json:"key"`
	Total    int64  `json:"total"`
	Discount int64  `json:"discount"`
	Final    int64  `json:"final"`
	Reason   string `json:"reason,omitempty"`
	Message  string `json:"message,omitempty"`
}

func toSummaryView(s pricing.Summary) *summaryView {
	view := &summaryView{
		Lines:         make([]lineView, 0, len(s.Lines)),
		Subtotal:      s.Subtotal,
		OrderDiscount: s.OrderDiscount,
		OrderReason:   string(s.OrderReason),
		OrderMessage:  s.OrderReason.Message(),
		Shipping:      s.Shipping,
		Total:         s.Total,
	}
	for _, l := range s.Lines {
		view.Lines = append(view.Lines, lineView{
			LineKey:  l.Key,
			Total:    l.Total,
			Discount: l.Discount,
			Final:    l.Final,
			Reason:   string(l.Reason),
			Message:  l.Reason.Message(),
		})
	}
	return view
}

func toCartItemView(it store.CartItem) cartItemView {
	return cartItemView{
		ID:              it.ID.String(),
		ProductID:       it.ProductID.String(),
		Name:            it.Name,
		Options:         it.Options,
		UnitPrice:       it.UnitPrice,
		AdditionalPrice: it.AdditionalPrice,
		Qty:             it.Qty,
		VoucherCode:     it.VoucherCode,
	}
}

// Ensure returns the caller's active cart, creating one if needed.
func (h *Handler) Ensure(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AnonID *string `json:"anonId"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	var userID *string
	if uid, ok := common.UserID(r.Context()); ok {
		userID = &uid
	}
	cart, err := h.Svc.EnsureCart(r.Context(), userID, body.AnonID)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "user or anonId is required", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not create cart", nil)
		return
	}
	common.JSON(w, http.StatusOK, cartView{ID: cart.ID.String(), OrderVoucherCode: cart.OrderVoucherCode, Items: []cartItemView{}})
}

// Get returns the cart, its items, and the computed pricing summary.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cartID, ok := parseID(w, r, "cartID")
	if !ok {
		return
	}
	cart, err := h.Svc.Q.GetCartByID(r.Context(), cartID)
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
		return
	}
	items, err := h.Svc.Q.ListCartItems(r.Context(), cartID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load cart items", nil)
		return
	}

	var shipping int64
	if raw := r.URL.Query().Get("shipping"); raw != "" {
		shipping, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "shipping must be an integer", nil)
			return
		}
	}

	summary, err := h.Svc.Price(r.Context(), cartID, shipping)
	if err != nil {
		var ve *pricing.ValidationError
		if errors.As(err, &ve) {
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", ve.Message, map[string]string{"field": ve.Field})
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not price cart", nil)
		return
	}

	view := cartView{
		ID:               cart.ID.String(),
		OrderVoucherCode: cart.OrderVoucherCode,
		Items:            make([]cartItemView, 0, len(items)),
		Summary:          toSummaryView(summary),
	}
	for _, it := range items {
		view.Items = append(view.Items, toCartItemView(it))
	}
	common.JSON(w, http.StatusOK, view)
}

// AddItem adds a product line to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := parseID(w, r, "cartID")
	if !ok {
		return
	}
	var body struct {
		ProductID string   `json:"productId"`
		Options   []string `json:"options"`
		Qty       int      `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid payload", nil)
		return
	}
	item, err := h.Svc.AddItem(r.Context(), cartID, body.ProductID, body.Options, body.Qty)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not add item", nil)
		return
	}
	common.JSON(w, http.StatusCreated, toCartItemView(item))
}

// UpdateItem changes the quantity of a cart line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := parseID(w, r, "cartID"); !ok {
		return
	}
	itemID, ok := parseID(w, r, "itemID")
	if !ok {
		return
	}
	var body struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid payload", nil)
		return
	}
	if err := h.Svc.UpdateQty(r.Context(), itemID, body.Qty); err != nil {
		writeServiceError(w, err, "could not update item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveItem deletes a cart line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := parseID(w, r, "cartID")
	if !ok {
		return
	}
	itemID, ok := parseID(w, r, "itemID")
	if !ok {
		return
	}
	if err := h.Svc.RemoveItem(r.Context(), cartID, itemID); err != nil {
		writeServiceError(w, err, "could not remove item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectItemVoucher attaches an item voucher to a cart line.
func (h *Handler) SelectItemVoucher(w http.ResponseWriter, r *http.Request) {
	cartID, ok := parseID(w, r, "cartID")
	if !ok {
		return
	}
	itemID, ok := parseID(w, r, "itemID")
	if !ok {
		return
	}
	code, ok := decodeCode(w, r)
	if !ok {
		return
	}
	if err := h.Svc.SelectItemVoucher(r.Context(), cartID, itemID, code); err != nil {
		writeServiceError(w, err, "could not apply voucher")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveItemVoucher clears a cart line's voucher.
func (h *Handler) RemoveItemVoucher(w http.ResponseWriter, r *http.Request) {
	cartID, ok := parseID(w, r, "cartID")
	if !ok {
		return
	}
	itemID, ok := parseID(w, r, "itemID")
	if !ok {
		return
	}
	if err := h.Svc.RemoveItemVoucher(r.Context(), cartID, itemID); err != nil {
		writeServiceError(w, err, "could not remove voucher")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyOrderVoucher attaches an order voucher to the cart.
func (h *Handler) ApplyOrderVoucher(w http.ResponseWriter, r *http.Request) {
	cartID, ok := parseID(w, r, "cartID")
	if !ok {
		return
	}
	code, ok := decodeCode(w, r)
	if !ok {
		return
	}
	discount, err := h.Svc.ApplyOrderVoucher(r.Context(), cartID, code)
	if err != nil {
		writeServiceError(w, err, "could not apply voucher")
		return
	}
	common.JSON(w, http.StatusOK, map[string]int64{"discount": discount})
}

// RemoveOrderVoucher clears the cart's order voucher.
func (h *Handler) RemoveOrderVoucher(w http.ResponseWriter, r *http.Request) {
	cartID, ok := parseID(w, r, "cartID")
	if !ok {
		return
	}
	if err := h.Svc.RemoveOrderVoucher(r.Context(), cartID); err != nil {
		writeServiceError(w, err, "could not remove voucher")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Merge folds a guest cart into the authenticated user's cart.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	cartID, ok := parseID(w, r, "cartID")
	if !ok {
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "user identity is required", nil)
		return
	}
	mergedID, err := h.Svc.Merge(r.Context(), cartID, userID)
	if err != nil {
		writeServiceError(w, err, "could not merge carts")
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"cartId": mergedID.String()})
}

func decodeCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "code is required", nil)
		return "", false
	}
	return body.Code, true
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", param+" must be a uuid", nil)
		return uuid.Nil, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	common.WriteError(w, toAppError(err, fallback))
}

func toAppError(err error, fallback string) *common.AppError {
	switch {
	case errors.Is(err, ErrNotFound):
		return common.NewAppError("NOT_FOUND", "cart or item not found", http.StatusNotFound, err)
	case errors.Is(err, voucher.ErrNotFound):
		return common.NewAppError("VOUCHER_NOT_FOUND", "voucher code not found", http.StatusNotFound, err)
	case errors.Is(err, ErrVoucherNotApplicable):
		return common.NewAppError("VOUCHER_INELIGIBLE", err.Error(), http.StatusConflict, err)
	case errors.Is(err, ErrInvalidInput):
		return common.NewAppError("INVALID_INPUT", err.Error(), http.StatusBadRequest, err)
	default:
		return common.NewAppError("INTERNAL", fallback, http.StatusInternalServerError, err)
	}
}
