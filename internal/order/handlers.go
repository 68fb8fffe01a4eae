package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sugarnest/bakery-api/internal/common"
	"github.com/sugarnest/bakery-api/internal/store"
)

// Querier captures the database methods required by the order handlers.
type Querier interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (store.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]store.Order, error)
	CountOrdersByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]store.OrderItem, error)
}

// Handler serves order history endpoints.
type Handler struct {
	Q Querier
}

// Routes mounts the order routes on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/{orderID}", h.Get)
}

type orderView struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	Currency         string     `json:"currency"`
	Subtotal         int64      `json:"subtotal"`
	Discount         int64      `json:"discount"`
	Shipping         int64      `json:"shipping"`
	Total            int64      `json:"total"`
	OrderVoucherCode *string    `json:"orderVoucherCode,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	Items            []itemView `json:"items,omitempty"`
	Address          any        `json:"address,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

type itemView struct {
	ProductID       string   `json:"productId"`
	Name            string   `json:"name"`
	Options         []string `json:"options"`
	UnitPrice       int64    `json:"unitPrice"`
	AdditionalPrice int64    `json:"additionalPrice"`
	Qty             int32    `json:"qty"`
	Discount        int64    `json:"discount"`
	Subtotal        int64    `json:"subtotal"`
}

func toOrderView(o store.Order) orderView {
	return orderView{
		ID:               o.ID.String(),
		Status:           o.Status,
		Currency:         o.Currency,
		Subtotal:         o.Subtotal,
		Discount:         o.Discount,
		Shipping:         o.Shipping,
		Total:            o.Total,
		OrderVoucherCode: o.OrderVoucherCode,
		CreatedAt:        o.CreatedAt,
		Notes:            o.Notes,
	}
}

// List returns the authenticated user's order history, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "user identity is required", nil)
		return
	}
	uID, err := uuid.Parse(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid user id", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}

	total, err := h.Q.CountOrdersByUser(r.Context(), uID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.Q.ListOrdersByUser(r.Context(), uID, perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": views,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Get returns one order with its frozen lines. Users only see their own.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "user identity is required", nil)
		return
	}
	uID, err := uuid.Parse(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid user id", nil)
		return
	}
	oID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid order id", nil)
		return
	}

	ord, err := h.Q.GetOrderByID(r.Context(), oID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	if ord.UserID != uID {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	items, err := h.Q.ListOrderItems(r.Context(), oID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return
	}

	view := toOrderView(ord)
	if len(ord.Address) > 0 {
		var addr map[string]any
		if err := json.Unmarshal(ord.Address, &addr); err == nil {
			view.Address = addr
		}
	}
	view.Items = make([]itemView, 0, len(items))
	for _, it := range items {
		view.Items = append(view.Items, itemView{
			ProductID:       it.ProductID.String(),
			Name:            it.Name,
			Options:         it.Options,
			UnitPrice:       it.UnitPrice,
			AdditionalPrice: it.AdditionalPrice,
			Qty:             it.Qty,
			Discount:        it.Discount,
			Subtotal:        it.Subtotal,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}
