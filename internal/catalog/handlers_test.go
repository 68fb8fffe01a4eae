package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	redis "github.com/redis/go-redis/v9"

	"github.com/sugarnest/bakery-api/internal/store"
)

type stubQueries struct {
	products  []store.Product
	groups    map[uuid.UUID][]store.OptionGroup
	listCalls int
}

func (s *stubQueries) ListProducts(_ context.Context, category string, limit, offset int) ([]store.Product, error) {
	s.listCalls++
	var out []store.Product
	for _, p := range s.products {
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubQueries) CountProducts(_ context.Context, category string) (int, error) {
	n := 0
	for _, p := range s.products {
		if category == "" || p.Category == category {
			n++
		}
	}
	return n, nil
}

func (s *stubQueries) GetProduct(_ context.Context, id uuid.UUID) (store.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return store.Product{}, pgx.ErrNoRows
}

func (s *stubQueries) GetProductBySlug(_ context.Context, slug string) (store.Product, error) {
	for _, p := range s.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return store.Product{}, pgx.ErrNoRows
}

func (s *stubQueries) ListOptionGroups(_ context.Context, productID uuid.UUID) ([]store.OptionGroup, error) {
	return s.groups[productID], nil
}

type stubVouchers struct {
	byProduct map[uuid.UUID][]store.Voucher
}

func (s stubVouchers) ListForProduct(_ context.Context, productID uuid.UUID) ([]store.Voucher, error) {
	return s.byProduct[productID], nil
}

func seedCatalog() *stubQueries {
	cakeID := uuid.New()
	return &stubQueries{
		products: []store.Product{
			{ID: cakeID, Name: "Matcha Mousse", Slug: "matcha-mousse", Category: "cakes", Price: 200000, Stock: 5, Active: true},
			{ID: uuid.New(), Name: "Butter Croissant", Slug: "butter-croissant", Category: "pastries", Price: 35000, Stock: 20, Active: true},
		},
		groups: map[uuid.UUID][]store.OptionGroup{
			cakeID: {{
				ID: uuid.New(), ProductID: cakeID, Name: "size", Required: true,
				Values: []store.OptionValue{
					{Value: "size:small", Surcharge: 0},
					{Value: "size:large", Surcharge: 30000},
				},
			}},
		},
	}
}

func newRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	(&Handler{Svc: svc}).Routes(r)
	return r
}

func TestListFiltersByCategory(t *testing.T) {
	q := seedCatalog()
	router := newRouter(&Service{Q: q})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?category=cakes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Total-Count"); got != "1" {
		t.Fatalf("X-Total-Count = %q, want 1", got)
	}
	var body struct {
		Data []ProductView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Slug != "matcha-mousse" {
		t.Fatalf("unexpected data: %+v", body.Data)
	}
}

func TestGetBySlugIncludesOptionsAndVouchers(t *testing.T) {
	q := seedCatalog()
	cake := q.products[0]
	bps := int32(1000)
	vouchers := stubVouchers{byProduct: map[uuid.UUID][]store.Voucher{
		cake.ID: {{Code: "CAKE10", Scope: "item", PercentBps: &bps}},
	}}
	router := newRouter(&Service{Q: q, Vouchers: vouchers})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/matcha-mousse", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Data ProductDetail `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.OptionGroups) != 1 || len(body.Data.OptionGroups[0].Values) != 2 {
		t.Fatalf("option groups = %+v", body.Data.OptionGroups)
	}
	if len(body.Data.Vouchers) != 1 || body.Data.Vouchers[0].Code != "CAKE10" {
		t.Fatalf("vouchers = %+v", body.Data.Vouchers)
	}
}

func TestGetUnknownProductReturns404(t *testing.T) {
	router := newRouter(&Service{Q: seedCatalog()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/no-such-cake", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListServesFromCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	q := seedCatalog()
	svc := &Service{Q: q, Cache: NewCache(client, time.Minute)}

	if _, err := svc.List(context.Background(), "cakes", 1, 24); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := svc.List(context.Background(), "cakes", 1, 24); err != nil {
		t.Fatalf("List cached: %v", err)
	}
	if q.listCalls != 1 {
		t.Fatalf("listCalls = %d, want 1", q.listCalls)
	}
}
