package pricing

import (
	"sort"
	"strings"
	"time"
)

// Scope declares what a voucher discounts.
type Scope string

const (
	// ScopeItem vouchers discount a single product's line item.
	ScopeItem Scope = "item"
	// ScopeOrder vouchers discount the cart subtotal after item discounts.
	ScopeOrder Scope = "order"
)

// LineItem is one cart line as seen by the engine. Two lines with the same
// product but different chosen option values are distinct for voucher
// eligibility.
type LineItem struct {
	ProductID       string
	Options         []string
	UnitPrice       Money
	AdditionalPrice Money
	Qty             int
}

// UnitBase returns the per-unit price before discounts, option surcharges
// included.
func (it LineItem) UnitBase() Money {
	return it.UnitPrice + it.AdditionalPrice
}

// Total returns the line total before any voucher discount.
func (it LineItem) Total() Money {
	return it.UnitBase() * Money(it.Qty)
}

// Key derives the identity used for per-item voucher matching: product plus
// the sorted set of chosen option values.
func (it LineItem) Key() string {
	if len(it.Options) == 0 {
		return it.ProductID
	}
	opts := append([]string(nil), it.Options...)
	sort.Strings(opts)
	return it.ProductID + "|" + strings.Join(opts, ",")
}

// Voucher captures one discount rule. PercentBps and HardValue may both be
// set; the applied discount is the larger candidate, never their sum.
type Voucher struct {
	ID         string
	Code       string
	Scope      Scope
	ProductID  string
	PercentBps *int32
	HardValue  *Money
	MinQty     int
	MaxQty     int
	MinSpend   Money
	StartsAt   *time.Time
	EndsAt     *time.Time
	Active     bool
}

// amount resolves the discount for the given base: the larger of the percent
// and fixed candidates, capped at the base and floored at zero.
func (v Voucher) amount(base Money) Money {
	if base <= 0 {
		return 0
	}
	var discount Money
	if v.PercentBps != nil {
		discount = PercentOf(base, *v.PercentBps)
	}
	if v.HardValue != nil && *v.HardValue > discount {
		discount = *v.HardValue
	}
	if discount > base {
		discount = base
	}
	if discount < 0 {
		return 0
	}
	return discount
}

// Reason explains why a voucher contributed no discount. Ineligibility is
// all-or-nothing: any failed predicate yields a zero discount plus a reason,
// never a partial discount and never an error.
type Reason string

const (
	// ReasonNone marks an applied voucher or the absence of one.
	ReasonNone Reason = ""
	// ReasonInactive marks a voucher disabled by its active flag.
	ReasonInactive Reason = "inactive"
	// ReasonScopeMismatch marks a voucher evaluated against the wrong scope.
	ReasonScopeMismatch Reason = "scope_mismatch"
	// ReasonWrongProduct marks an item voucher matched against another product.
	ReasonWrongProduct Reason = "wrong_product"
	// ReasonQuantityOutOfRange marks a line quantity outside the voucher bounds.
	ReasonQuantityOutOfRange Reason = "quantity_out_of_range"
	// ReasonNotStarted marks usage before the validity window opens.
	ReasonNotStarted Reason = "not_started"
	// ReasonExpired marks usage after the validity window closed.
	ReasonExpired Reason = "expired"
	// ReasonMinSpendNotMet marks a subtotal below the voucher minimum.
	ReasonMinSpendNotMet Reason = "subtotal_below_minimum"
)

// Message returns a user-facing explanation for the reason code.
func (r Reason) Message() string {
	switch r {
	case ReasonInactive:
		return "voucher is not active"
	case ReasonScopeMismatch:
		return "voucher does not apply here"
	case ReasonWrongProduct:
		return "voucher applies to a different product"
	case ReasonQuantityOutOfRange:
		return "item quantity outside voucher limits"
	case ReasonNotStarted:
		return "voucher is not valid yet"
	case ReasonExpired:
		return "voucher has expired"
	case ReasonMinSpendNotMet:
		return "minimum order amount not reached"
	default:
		return ""
	}
}

// window checks the validity window; absent bounds are unbounded.
func (v Voucher) window(now time.Time) Reason {
	if v.StartsAt != nil && now.Before(*v.StartsAt) {
		return ReasonNotStarted
	}
	if v.EndsAt != nil && now.After(*v.EndsAt) {
		return ReasonExpired
	}
	return ReasonNone
}
