package cart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestSelectUnknownVoucherReturnsNotFound(t *testing.T) {
	q := newStub()
	svc := newTestService(q, nil)
	productID := seedProduct(q, 100000)
	anon := "device-1"
	cart, _ := svc.EnsureCart(context.Background(), nil, &anon)
	item, err := svc.AddItem(context.Background(), cart.ID, productID.String(), nil, 1)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	r := chi.NewRouter()
	(&Handler{Svc: svc}).Routes(r)

	url := "/carts/" + cart.ID.String() + "/items/" + item.ID.String() + "/voucher"
	req := httptest.NewRequest(http.MethodPut, url, strings.NewReader(`{"code":"NOPE"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusNotFound, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "VOUCHER_NOT_FOUND") {
		t.Fatalf("body missing VOUCHER_NOT_FOUND: %s", rec.Body.String())
	}
}
