package favorites

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sugarnest/bakery-api/internal/common"
	"github.com/sugarnest/bakery-api/internal/store"
)

type key struct{ user, product uuid.UUID }

type stubQueries struct {
	favs     map[key]bool
	products map[uuid.UUID]store.Product
}

func (s *stubQueries) AddFavorite(_ context.Context, userID, productID uuid.UUID) error {
	s.favs[key{userID, productID}] = true
	return nil
}

func (s *stubQueries) RemoveFavorite(_ context.Context, userID, productID uuid.UUID) error {
	delete(s.favs, key{userID, productID})
	return nil
}

func (s *stubQueries) ListFavorites(_ context.Context, userID uuid.UUID) ([]store.Product, error) {
	var out []store.Product
	for k := range s.favs {
		if k.user == userID {
			out = append(out, s.products[k.product])
		}
	}
	return out, nil
}

func (s *stubQueries) CheckFavorite(_ context.Context, userID, productID uuid.UUID) (bool, error) {
	return s.favs[key{userID, productID}], nil
}

func newRouter(q *stubQueries) http.Handler {
	h := &Handler{Svc: &Service{Q: q}}
	r := chi.NewRouter()
	r.Use(common.IdentityMiddleware)
	h.Routes(r)
	return r
}

func TestToggleAddsAndRemoves(t *testing.T) {
	productID := uuid.New()
	q := &stubQueries{
		favs:     map[key]bool{},
		products: map[uuid.UUID]store.Product{productID: {ID: productID, Name: "Tiramisu", Stock: 3}},
	}
	router := newRouter(q)
	userID := uuid.NewString()
	body := `{"productId":"` + productID.String() + `"}`

	req := httptest.NewRequest(http.MethodPost, "/favorites", strings.NewReader(body))
	req.Header.Set(common.UserIDHeader, userID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]bool
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp["favorited"] {
		t.Fatal("expected favorited=true after first toggle")
	}

	req = httptest.NewRequest(http.MethodPost, "/favorites", strings.NewReader(body))
	req.Header.Set(common.UserIDHeader, userID)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["favorited"] {
		t.Fatal("expected favorited=false after second toggle")
	}
	if len(q.favs) != 0 {
		t.Fatalf("expected empty favorites, got %d", len(q.favs))
	}
}

func TestCheckAnonymousIsFalse(t *testing.T) {
	q := &stubQueries{favs: map[key]bool{}, products: map[uuid.UUID]store.Product{}}
	router := newRouter(q)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favorites/"+uuid.NewString(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]bool
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["favorited"] {
		t.Fatal("anonymous check should be false")
	}
}

func TestListRequiresIdentity(t *testing.T) {
	q := &stubQueries{favs: map[key]bool{}, products: map[uuid.UUID]store.Product{}}
	router := newRouter(q)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favorites", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
