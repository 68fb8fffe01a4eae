package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sugarnest/bakery-api/internal/common"
	"github.com/sugarnest/bakery-api/internal/store"
)

type stubQueries struct {
	orders map[uuid.UUID]store.Order
	items  map[uuid.UUID][]store.OrderItem
}

func (s *stubQueries) GetOrderByID(_ context.Context, id uuid.UUID) (store.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return store.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (s *stubQueries) ListOrdersByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]store.Order, error) {
	var out []store.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubQueries) CountOrdersByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, o := range s.orders {
		if o.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *stubQueries) ListOrderItems(_ context.Context, orderID uuid.UUID) ([]store.OrderItem, error) {
	return s.items[orderID], nil
}

func newRouter(q Querier) http.Handler {
	h := &Handler{Q: q}
	r := chi.NewRouter()
	r.Use(common.IdentityMiddleware)
	h.Routes(r)
	return r
}

func seedOrder(q *stubQueries, userID uuid.UUID) store.Order {
	o := store.Order{
		ID:       uuid.New(),
		UserID:   userID,
		Status:   "CONFIRMED",
		Currency: "VND",
		Subtotal: 180000,
		Discount: 15000,
		Shipping: 25000,
		Total:    190000,
		Address:   []byte(`{"city":"Ho Chi Minh"}`),
		CreatedAt: time.Now(),
	}
	q.orders[o.ID] = o
	q.items[o.ID] = []store.OrderItem{{
		ID: uuid.New(), OrderID: o.ID, ProductID: uuid.New(),
		Name: "Matcha Mousse", UnitPrice: 200000, Qty: 1, Discount: 20000, Subtotal: 180000,
	}}
	return o
}

func TestListRequiresIdentity(t *testing.T) {
	router := newRouter(&stubQueries{orders: map[uuid.UUID]store.Order{}, items: map[uuid.UUID][]store.OrderItem{}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestListReturnsUserOrders(t *testing.T) {
	q := &stubQueries{orders: map[uuid.UUID]store.Order{}, items: map[uuid.UUID][]store.OrderItem{}}
	userID := uuid.New()
	seedOrder(q, userID)
	seedOrder(q, uuid.New())

	router := newRouter(q)
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set(common.UserIDHeader, userID.String())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Total-Count"); got != "1" {
		t.Fatalf("X-Total-Count = %q, want 1", got)
	}
	var body struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 {
		t.Fatalf("len(data) = %d, want 1", len(body.Data))
	}
}

func TestGetHidesOtherUsersOrders(t *testing.T) {
	q := &stubQueries{orders: map[uuid.UUID]store.Order{}, items: map[uuid.UUID][]store.OrderItem{}}
	o := seedOrder(q, uuid.New())

	router := newRouter(q)
	req := httptest.NewRequest(http.MethodGet, "/orders/"+o.ID.String(), nil)
	req.Header.Set(common.UserIDHeader, uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetReturnsOrderWithItems(t *testing.T) {
	q := &stubQueries{orders: map[uuid.UUID]store.Order{}, items: map[uuid.UUID][]store.OrderItem{}}
	userID := uuid.New()
	o := seedOrder(q, userID)

	router := newRouter(q)
	req := httptest.NewRequest(http.MethodGet, "/orders/"+o.ID.String(), nil)
	req.Header.Set(common.UserIDHeader, userID.String())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Data struct {
			Total   int64            `json:"total"`
			Items   []map[string]any `json:"items"`
			Address map[string]any   `json:"address"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Total != 190000 {
		t.Fatalf("total = %d, want 190000", body.Data.Total)
	}
	if len(body.Data.Items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(body.Data.Items))
	}
	if body.Data.Address["city"] != "Ho Chi Minh" {
		t.Fatalf("address = %v", body.Data.Address)
	}
}
