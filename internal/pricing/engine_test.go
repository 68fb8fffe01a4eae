package pricing

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func bps(v int32) *int32 { return &v }

func amount(v Money) *Money { return &v }

func itemVoucher(productID string, mutate func(*Voucher)) *Voucher {
	v := &Voucher{
		ID:        "v-item",
		Code:      "CAKE10",
		Scope:     ScopeItem,
		ProductID: productID,
		Active:    true,
	}
	if mutate != nil {
		mutate(v)
	}
	return v
}

func orderVoucher(mutate func(*Voucher)) *Voucher {
	v := &Voucher{
		ID:     "v-order",
		Code:   "ORDER50",
		Scope:  ScopeOrder,
		Active: true,
	}
	if mutate != nil {
		mutate(v)
	}
	return v
}

func TestItemDiscountEligibility(t *testing.T) {
	item := LineItem{ProductID: "p1", UnitPrice: 100_000, Qty: 2}
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	cases := []struct {
		name     string
		voucher  *Voucher
		want     Money
		wantWhy  Reason
	}{
		{"nil voucher", nil, 0, ReasonNone},
		{"inactive", itemVoucher("p1", func(v *Voucher) { v.Active = false; v.PercentBps = bps(1000) }), 0, ReasonInactive},
		{"order scope", orderVoucher(func(v *Voucher) { v.PercentBps = bps(1000) }), 0, ReasonScopeMismatch},
		{"wrong product", itemVoucher("p2", func(v *Voucher) { v.PercentBps = bps(1000) }), 0, ReasonWrongProduct},
		{"below min qty", itemVoucher("p1", func(v *Voucher) { v.MinQty = 3; v.PercentBps = bps(1000) }), 0, ReasonQuantityOutOfRange},
		{"above max qty", itemVoucher("p1", func(v *Voucher) { v.MaxQty = 1; v.PercentBps = bps(1000) }), 0, ReasonQuantityOutOfRange},
		{"not started", itemVoucher("p1", func(v *Voucher) { v.StartsAt = &future; v.PercentBps = bps(1000) }), 0, ReasonNotStarted},
		{"expired", itemVoucher("p1", func(v *Voucher) { v.EndsAt = &past; v.PercentBps = bps(1000); v.HardValue = amount(50_000) }), 0, ReasonExpired},
		{"percent applies", itemVoucher("p1", func(v *Voucher) { v.PercentBps = bps(1000) }), 10_000, ReasonNone},
		{"inclusive qty bounds", itemVoucher("p1", func(v *Voucher) { v.MinQty = 2; v.MaxQty = 2; v.PercentBps = bps(1000) }), 10_000, ReasonNone},
		{"hard value applies", itemVoucher("p1", func(v *Voucher) { v.HardValue = amount(30_000) }), 30_000, ReasonNone},
		{"hard value capped at unit base", itemVoucher("p1", func(v *Voucher) { v.HardValue = amount(250_000) }), 100_000, ReasonNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, why := ItemDiscount(item, tc.voucher, testNow)
			if got != tc.want || why != tc.wantWhy {
				t.Fatalf("got discount=%d reason=%q, want %d %q", got, why, tc.want, tc.wantWhy)
			}
		})
	}
}

func TestItemDiscountNeverStacks(t *testing.T) {
	item := LineItem{ProductID: "p1", UnitPrice: 100_000, Qty: 1}
	v := itemVoucher("p1", func(v *Voucher) {
		v.PercentBps = bps(1000) // candidate 10000
		v.HardValue = amount(50_000)
	})
	got, why := ItemDiscount(item, v, testNow)
	if why != ReasonNone {
		t.Fatalf("unexpected reason %q", why)
	}
	if got != 50_000 {
		t.Fatalf("expected max(10000, 50000)=50000, got %d", got)
	}
}

func TestItemDiscountIncludesOptionSurcharge(t *testing.T) {
	item := LineItem{ProductID: "p1", UnitPrice: 100_000, AdditionalPrice: 20_000, Qty: 1}
	v := itemVoucher("p1", func(v *Voucher) { v.PercentBps = bps(1000) })
	got, _ := ItemDiscount(item, v, testNow)
	if got != 12_000 {
		t.Fatalf("expected 10%% of 120000 = 12000, got %d", got)
	}
}

func TestOrderDiscount(t *testing.T) {
	past := testNow.Add(-time.Hour)

	cases := []struct {
		name     string
		subtotal Money
		voucher  *Voucher
		want     Money
		wantWhy  Reason
	}{
		{"nil voucher", 150_000, nil, 0, ReasonNone},
		{"inactive", 150_000, orderVoucher(func(v *Voucher) { v.Active = false }), 0, ReasonInactive},
		{"item scope", 150_000, itemVoucher("p1", nil), 0, ReasonScopeMismatch},
		{"below minimum", 150_000, orderVoucher(func(v *Voucher) { v.MinSpend = 200_000; v.HardValue = amount(20_000) }), 0, ReasonMinSpendNotMet},
		{"expired", 150_000, orderVoucher(func(v *Voucher) { v.EndsAt = &past; v.HardValue = amount(20_000) }), 0, ReasonExpired},
		{"minimum met", 200_000, orderVoucher(func(v *Voucher) { v.MinSpend = 200_000; v.HardValue = amount(20_000) }), 20_000, ReasonNone},
		{"percent of subtotal", 150_000, orderVoucher(func(v *Voucher) { v.PercentBps = bps(2000) }), 30_000, ReasonNone},
		{"capped at subtotal", 150_000, orderVoucher(func(v *Voucher) { v.HardValue = amount(400_000) }), 150_000, ReasonNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, why := OrderDiscount(tc.subtotal, tc.voucher, testNow)
			if got != tc.want || why != tc.wantWhy {
				t.Fatalf("got discount=%d reason=%q, want %d %q", got, why, tc.want, tc.wantWhy)
			}
		})
	}
}

// Scenario: one line, 2 x 100000, 10% item voucher, free shipping.
func TestComputeTotalsPercentVoucher(t *testing.T) {
	items := []LineItem{{ProductID: "p1", UnitPrice: 100_000, Qty: 2}}
	vouchers := map[string]*Voucher{
		"p1": itemVoucher("p1", func(v *Voucher) { v.PercentBps = bps(1000) }),
	}
	sum, err := ComputeTotals(items, vouchers, nil, 0, testNow)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	line := sum.Lines[0]
	if line.Total != 200_000 || line.Discount != 20_000 || line.Final != 180_000 {
		t.Fatalf("unexpected line breakdown: %+v", line)
	}
	if sum.Subtotal != 180_000 || sum.Shipping != 0 || sum.Total != 180_000 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

// Scenario: hard value beats percent, capped per unit at the unit base.
func TestComputeTotalsHardValueWins(t *testing.T) {
	items := []LineItem{{ProductID: "p1", UnitPrice: 100_000, Qty: 2}}
	vouchers := map[string]*Voucher{
		"p1": itemVoucher("p1", func(v *Voucher) {
			v.PercentBps = bps(1000)
			v.HardValue = amount(50_000)
		}),
	}
	sum, err := ComputeTotals(items, vouchers, nil, 0, testNow)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if sum.Lines[0].Discount != 100_000 || sum.Lines[0].Final != 100_000 {
		t.Fatalf("unexpected line: %+v", sum.Lines[0])
	}
	if sum.Total != 100_000 {
		t.Fatalf("expected total 100000, got %d", sum.Total)
	}
}

// Scenario: order voucher minimum not met degrades to zero discount with a
// reason; the rest of the order still prices.
func TestComputeTotalsOrderMinimumNotMet(t *testing.T) {
	items := []LineItem{{ProductID: "p1", UnitPrice: 150_000, Qty: 1}}
	ov := orderVoucher(func(v *Voucher) { v.MinSpend = 200_000; v.HardValue = amount(30_000) })
	sum, err := ComputeTotals(items, nil, ov, 20_000, testNow)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if sum.OrderDiscount != 0 {
		t.Fatalf("expected zero order discount, got %d", sum.OrderDiscount)
	}
	if sum.OrderReason != ReasonMinSpendNotMet {
		t.Fatalf("expected reason %q, got %q", ReasonMinSpendNotMet, sum.OrderReason)
	}
	if sum.Total != 170_000 {
		t.Fatalf("expected 150000 + 20000 shipping = 170000, got %d", sum.Total)
	}
}

func TestComputeTotalsShippingWaiver(t *testing.T) {
	items := []LineItem{{ProductID: "p1", UnitPrice: 50_000, Qty: 1}}
	for _, fee := range []Money{0, -15_000} {
		sum, err := ComputeTotals(items, nil, nil, fee, testNow)
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
		if sum.Shipping != 0 {
			t.Fatalf("fee %d: expected waived shipping, got %d", fee, sum.Shipping)
		}
	}
	sum, err := ComputeTotals(items, nil, nil, 25_000, testNow)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if sum.Shipping != 25_000 || sum.Total != 75_000 {
		t.Fatalf("expected shipping to pass through, got %+v", sum)
	}
}

func TestComputeTotalsValidation(t *testing.T) {
	cases := []struct {
		name  string
		item  LineItem
		field string
	}{
		{"negative price", LineItem{ProductID: "p1", UnitPrice: -1, Qty: 1}, "unitPrice"},
		{"negative surcharge", LineItem{ProductID: "p1", UnitPrice: 10, AdditionalPrice: -5, Qty: 1}, "additionalPrice"},
		{"zero quantity", LineItem{ProductID: "p1", UnitPrice: 10, Qty: 0}, "quantity"},
		{"negative quantity", LineItem{ProductID: "p1", UnitPrice: 10, Qty: -2}, "quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeTotals([]LineItem{tc.item}, nil, nil, 0, testNow)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, verr.Field)
			}
		})
	}
}

func TestComputeTotalsIdempotent(t *testing.T) {
	items := []LineItem{
		{ProductID: "p1", Options: []string{"large", "choco"}, UnitPrice: 80_000, AdditionalPrice: 15_000, Qty: 3},
		{ProductID: "p2", UnitPrice: 45_000, Qty: 1},
	}
	vouchers := map[string]*Voucher{
		items[0].Key(): itemVoucher("p1", func(v *Voucher) { v.PercentBps = bps(1500) }),
	}
	ov := orderVoucher(func(v *Voucher) { v.PercentBps = bps(500); v.HardValue = amount(10_000) })

	first, err := ComputeTotals(items, vouchers, ov, 18_000, testNow)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	second, err := ComputeTotals(items, vouchers, ov, 18_000, testNow)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs produced different summaries:\n%+v\n%+v", first, second)
	}
}

func TestComputeTotalsNonNegative(t *testing.T) {
	items := []LineItem{{ProductID: "p1", UnitPrice: 10_000, Qty: 1}}
	vouchers := map[string]*Voucher{
		"p1": itemVoucher("p1", func(v *Voucher) { v.HardValue = amount(1_000_000) }),
	}
	ov := orderVoucher(func(v *Voucher) { v.HardValue = amount(1_000_000) })
	sum, err := ComputeTotals(items, vouchers, ov, 0, testNow)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if sum.Lines[0].Final < 0 || sum.Subtotal < 0 || sum.Total < 0 {
		t.Fatalf("negative figures in summary: %+v", sum)
	}
	if sum.Lines[0].Discount > sum.Lines[0].Total {
		t.Fatalf("line discount exceeds line total: %+v", sum.Lines[0])
	}
	if sum.OrderDiscount > sum.Subtotal {
		t.Fatalf("order discount exceeds subtotal: %+v", sum)
	}
}

func TestLineItemKey(t *testing.T) {
	a := LineItem{ProductID: "p1", Options: []string{"choco", "large"}}
	b := LineItem{ProductID: "p1", Options: []string{"large", "choco"}}
	c := LineItem{ProductID: "p1", Options: []string{"small", "choco"}}
	if a.Key() != b.Key() {
		t.Fatalf("option order must not change identity: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() == c.Key() {
		t.Fatalf("different option sets must be distinct: %q", a.Key())
	}
}

func TestPercentOfRoundsHalfUp(t *testing.T) {
	cases := []struct {
		base Money
		bps  int32
		want Money
	}{
		{100_000, 1000, 10_000},
		{333, 1000, 33},  // 33.3 rounds down
		{335, 1000, 34},  // 33.5 rounds up
		{1, 50, 0},       // 0.005 rounds down
		{0, 1000, 0},
		{100, -5, 0},
	}
	for _, tc := range cases {
		if got := PercentOf(tc.base, tc.bps); got != tc.want {
			t.Fatalf("PercentOf(%d, %d) = %d, want %d", tc.base, tc.bps, got, tc.want)
		}
	}
}
