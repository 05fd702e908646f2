package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// NormalizeInput cleans raw field text: surrounding spaces and thousands
// separators are dropped and a leading "." gains a zero. Text that still does
// not parse as a number is returned as "".
func NormalizeInput(raw string) string {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if _, ok := ParseQuantity(s); !ok {
		return ""
	}
	return s
}

// ParseQuantity parses field text. "", "NaN" and junk report false.
func ParseQuantity(text string) (decimal.Decimal, bool) {
	if text == "" || strings.EqualFold(text, "nan") {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// IsPositiveText reports whether text parses to a value above zero.
func IsPositiveText(text string) bool {
	d, ok := ParseQuantity(text)
	return ok && d.IsPositive()
}

// FormatQuantity renders an oracle counter-quantity for a field. Values below
// 2 keep three significant figures, larger ones two decimals. Non-positive
// values render as "".
func FormatQuantity(d decimal.Decimal) string {
	if !d.IsPositive() {
		return ""
	}
	if d.GreaterThanOrEqual(two) {
		return d.StringFixed(2)
	}
	return toPrecision(d, 3)
}

// toPrecision mirrors Number.prototype.toPrecision for 0 < d < 10^digits,
// without switching to exponent notation.
func toPrecision(d decimal.Decimal, digits int32) string {
	mag := magnitude(d)
	places := digits - 1 - mag
	r := d.Round(places)
	if magnitude(r) != mag {
		// rounding carried into the next power of ten, e.g. 0.09996 -> 0.100
		places--
		r = d.Round(places)
	}
	if places < 0 {
		places = 0
	}
	return r.StringFixed(places)
}

// magnitude is floor(log10(d)) for d > 0.
func magnitude(d decimal.Decimal) int32 {
	return int32(d.NumDigits()) + d.Exponent() - 1
}
