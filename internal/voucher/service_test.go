package voucher_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sugarnest/bakery-api/internal/pricing"
	"github.com/sugarnest/bakery-api/internal/store"
	"github.com/sugarnest/bakery-api/internal/voucher"
)

type stubQueries struct {
	voucher   store.Voucher
	usages    map[uuid.UUID]bool
	userUsed  int64
	inserted  int
	increased int
}

func (q *stubQueries) GetVoucherByCode(_ context.Context, code string) (store.Voucher, error) {
	if code != q.voucher.Code {
		return store.Voucher{}, pgx.ErrNoRows
	}
	return q.voucher, nil
}

func (q *stubQueries) GetVoucherByCodeForUpdate(ctx context.Context, code string) (store.Voucher, error) {
	return q.GetVoucherByCode(ctx, code)
}

func (q *stubQueries) ListActiveVouchers(context.Context, time.Time) ([]store.Voucher, error) {
	return []store.Voucher{q.voucher}, nil
}

func (q *stubQueries) ListProductVouchers(context.Context, uuid.UUID, time.Time) ([]store.Voucher, error) {
	return nil, nil
}

func (q *stubQueries) CountVoucherUsageByUser(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	return q.userUsed, nil
}

func (q *stubQueries) GetVoucherUsageByOrder(_ context.Context, _, orderID uuid.UUID) (store.VoucherUsage, error) {
	if q.usages[orderID] {
		return store.VoucherUsage{ID: uuid.New()}, nil
	}
	return store.VoucherUsage{}, pgx.ErrNoRows
}

func (q *stubQueries) InsertVoucherUsage(_ context.Context, _, orderID, _ uuid.UUID, _ int64) error {
	if q.usages == nil {
		q.usages = map[uuid.UUID]bool{}
	}
	q.usages[orderID] = true
	q.inserted++
	return nil
}

func (q *stubQueries) IncreaseVoucherUsedCount(context.Context, uuid.UUID) error {
	q.increased++
	return nil
}

func orderRow(code string, mutate func(*store.Voucher)) store.Voucher {
	hard := int64(20_000)
	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	v := store.Voucher{
		ID:        uuid.New(),
		Code:      code,
		Scope:     "order",
		HardValue: &hard,
		StartsAt:  &from,
		EndsAt:    &to,
		Active:    true,
	}
	if mutate != nil {
		mutate(&v)
	}
	return v
}

func TestPreviewEligible(t *testing.T) {
	stub := &stubQueries{voucher: orderRow("TET2026", nil)}
	svc := &voucher.Service{Q: stub}
	res, err := svc.Preview(context.Background(), "TET2026", nil, 150_000)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if res.Discount != 20_000 || res.Reason != pricing.ReasonNone {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPreviewMinimumNotMet(t *testing.T) {
	stub := &stubQueries{voucher: orderRow("TET2026", func(v *store.Voucher) { v.MinSpend = 200_000 })}
	svc := &voucher.Service{Q: stub}
	res, err := svc.Preview(context.Background(), "TET2026", nil, 150_000)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if res.Discount != 0 || res.Reason != pricing.ReasonMinSpendNotMet {
		t.Fatalf("expected subtotal_below_minimum, got %+v", res)
	}
}

func TestPreviewUnknownCode(t *testing.T) {
	stub := &stubQueries{voucher: orderRow("TET2026", nil)}
	svc := &voucher.Service{Q: stub}
	if _, err := svc.Preview(context.Background(), "NOPE", nil, 150_000); err != voucher.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPreviewPerUserLimit(t *testing.T) {
	stub := &stubQueries{voucher: orderRow("TET2026", nil), userUsed: 1}
	svc := &voucher.Service{Q: stub, DefaultPerUserLimit: 1}
	user := uuid.New()
	res, err := svc.Preview(context.Background(), "TET2026", &user, 150_000)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if res.Reason != voucher.ReasonPerUserLimit {
		t.Fatalf("expected per-user limit reason, got %+v", res)
	}
}

func TestSettleIdempotent(t *testing.T) {
	stub := &stubQueries{voucher: orderRow("TET2026", nil)}
	svc := &voucher.Service{Q: stub}
	orderID := uuid.New()
	userID := uuid.New()
	if err := svc.Settle(context.Background(), "TET2026", orderID, userID, 20_000); err != nil {
		t.Fatalf("first settlement failed: %v", err)
	}
	if err := svc.Settle(context.Background(), "TET2026", orderID, userID, 20_000); err != nil {
		t.Fatalf("second settlement failed: %v", err)
	}
	if stub.inserted != 1 || stub.increased != 1 {
		t.Fatalf("expected exactly one usage record, got insert=%d increase=%d", stub.inserted, stub.increased)
	}
}

func TestSettleUsageLimit(t *testing.T) {
	limit := int32(5)
	stub := &stubQueries{voucher: orderRow("TET2026", func(v *store.Voucher) {
		v.UsageLimit = &limit
		v.UsedCount = 5
	})}
	svc := &voucher.Service{Q: stub}
	if err := svc.Settle(context.Background(), "TET2026", uuid.New(), uuid.New(), 20_000); err != voucher.ErrUsageLimitReached {
		t.Fatalf("expected ErrUsageLimitReached, got %v", err)
	}
}

func TestRuleFromModel(t *testing.T) {
	productID := uuid.New()
	bps := int32(1500)
	row := store.Voucher{
		ID:         uuid.New(),
		Code:       "CAKE15",
		Scope:      "item",
		ProductID:  &productID,
		PercentBps: &bps,
		MinQty:     2,
		MaxQty:     10,
		Active:     true,
	}
	rule := voucher.RuleFromModel(row)
	if rule.Scope != pricing.ScopeItem || rule.ProductID != productID.String() {
		t.Fatalf("unexpected rule: %+v", rule)
	}
	if rule.PercentBps == nil || *rule.PercentBps != 1500 {
		t.Fatalf("percent not carried over: %+v", rule)
	}
	if rule.MinQty != 2 || rule.MaxQty != 10 {
		t.Fatalf("quantity bounds not carried over: %+v", rule)
	}
}
