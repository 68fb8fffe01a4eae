package pricing

// Money represents a monetary value in Vietnamese đồng. The currency has no
// minor unit, so all arithmetic stays integral.
type Money = int64

// PercentOf applies a basis-point percentage to a base amount, rounding
// half-up. This is the only place fractional values can appear, so rounding
// happens exactly once per derived figure.
func PercentOf(base Money, bps int32) Money {
	if base <= 0 || bps <= 0 {
		return 0
	}
	return (base*Money(bps) + 5000) / 10000
}
