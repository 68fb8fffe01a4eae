// Package pricing computes cart totals for the bakery storefront: per-item
// voucher discounts, an optional order-level voucher, and delivery fee, all in
// integer đồng. Every function is pure; the clock is always passed in so the
// same inputs produce the same outputs.
package pricing

import (
	"fmt"
	"time"
)

// ValidationError rejects a whole computation on malformed input. A partial or
// silently clamped total would misrepresent what the customer pays, so the
// caller must not render anything from a failed computation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pricing: invalid %s: %s", e.Field, e.Message)
}

// LineSummary is the computed breakdown for one cart line.
type LineSummary struct {
	Key      string `json:"key"`
	Total    Money  `json:"total"`
	Discount Money  `json:"discount"`
	Final    Money  `json:"final"`
	Reason   Reason `json:"voucherReason,omitempty"`
}

// Summary aggregates every derived figure for a cart. All amounts are
// non-negative.
type Summary struct {
	Lines         []LineSummary `json:"lines"`
	Subtotal      Money         `json:"subtotal"`
	OrderDiscount Money         `json:"orderDiscount"`
	OrderReason   Reason        `json:"orderVoucherReason,omitempty"`
	Shipping      Money         `json:"shipping"`
	Total         Money         `json:"total"`
}

// ItemDiscount returns the per-unit discount an item voucher grants for the
// line, together with the reason when it grants nothing. The result is not
// multiplied by quantity.
func ItemDiscount(item LineItem, v *Voucher, now time.Time) (Money, Reason) {
	if v == nil {
		return 0, ReasonNone
	}
	if !v.Active {
		return 0, ReasonInactive
	}
	if v.Scope != ScopeItem {
		return 0, ReasonScopeMismatch
	}
	if v.ProductID != item.ProductID {
		return 0, ReasonWrongProduct
	}
	if v.MinQty > 0 && item.Qty < v.MinQty {
		return 0, ReasonQuantityOutOfRange
	}
	if v.MaxQty > 0 && item.Qty > v.MaxQty {
		return 0, ReasonQuantityOutOfRange
	}
	if r := v.window(now); r != ReasonNone {
		return 0, r
	}
	return v.amount(item.UnitBase()), ReasonNone
}

// OrderDiscount returns the absolute discount an order voucher grants against
// the subtotal remaining after item discounts. The amount is always recomputed
// from the current subtotal; callers must never cache it as a ratio.
func OrderDiscount(subtotal Money, v *Voucher, now time.Time) (Money, Reason) {
	if v == nil {
		return 0, ReasonNone
	}
	if !v.Active {
		return 0, ReasonInactive
	}
	if v.Scope != ScopeOrder {
		return 0, ReasonScopeMismatch
	}
	if r := v.window(now); r != ReasonNone {
		return 0, r
	}
	if v.MinSpend > 0 && subtotal < v.MinSpend {
		return 0, ReasonMinSpendNotMet
	}
	return v.amount(subtotal), ReasonNone
}

// ComputeTotals prices the whole cart. itemVouchers maps LineItem.Key to the
// voucher selected for that line; orderVoucher may be nil; shippingFee is the
// externally computed delivery fee, charged only when positive.
func ComputeTotals(items []LineItem, itemVouchers map[string]*Voucher, orderVoucher *Voucher, shippingFee Money, now time.Time) (Summary, error) {
	if err := validate(items); err != nil {
		return Summary{}, err
	}

	lines := make([]LineSummary, 0, len(items))
	var subtotal Money
	for _, it := range items {
		key := it.Key()
		perUnit, reason := ItemDiscount(it, itemVouchers[key], now)
		total := it.Total()
		discount := perUnit * Money(it.Qty)
		final := total - discount
		if final < 0 {
			final = 0
		}
		lines = append(lines, LineSummary{
			Key:      key,
			Total:    total,
			Discount: discount,
			Final:    final,
			Reason:   reason,
		})
		subtotal += final
	}

	orderDiscount, orderReason := OrderDiscount(subtotal, orderVoucher, now)

	shipping := shippingFee
	if shipping <= 0 {
		shipping = 0
	}

	total := subtotal - orderDiscount
	if total < 0 {
		total = 0
	}
	total += shipping

	return Summary{
		Lines:         lines,
		Subtotal:      subtotal,
		OrderDiscount: orderDiscount,
		OrderReason:   orderReason,
		Shipping:      shipping,
		Total:         total,
	}, nil
}

func validate(items []LineItem) error {
	for _, it := range items {
		if it.UnitPrice < 0 {
			return &ValidationError{Field: "unitPrice", Message: fmt.Sprintf("negative unit price for %s", it.ProductID)}
		}
		if it.AdditionalPrice < 0 {
			return &ValidationError{Field: "additionalPrice", Message: fmt.Sprintf("negative option surcharge for %s", it.ProductID)}
		}
		if it.Qty <= 0 {
			return &ValidationError{Field: "quantity", Message: fmt.Sprintf("quantity must be positive for %s", it.ProductID)}
		}
	}
	return nil
}
