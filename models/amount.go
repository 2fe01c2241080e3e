package models

import (
	"math"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// ToAmount converts a decimal value into the currency's smallest unit.
// It fails when the value carries more precision than the currency allows
// or does not fit into int64.
func ToAmount(d decimal.Decimal, c Currency) (int64, error) {
	info, ok := LookupCurrency(c)
	if !ok {
		return 0, errors.Wrapf(ErrCurrencyMismatch, "unsupported currency %q", c)
	}
	units := d.Shift(info.Decimals)
	if !units.IsInteger() {
		return 0, errors.Errorf("amount %s has more than %d decimal places", d.String(), info.Decimals)
	}
	if units.Abs().GreaterThan(maxAmount) {
		return 0, errors.Errorf("amount %s exceeds maximum safe integer value", d.String())
	}
	return units.IntPart(), nil
}

// ParseAmount parses a decimal string such as "150.00" into smallest units.
func ParseAmount(s string, c Currency) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid amount %q", s)
	}
	return ToAmount(d, c)
}

// AmountDecimal is the inverse of ToAmount. Unknown currencies are treated
// as having no fractional digits.
func AmountDecimal(amount int64, c Currency) decimal.Decimal {
	info, _ := LookupCurrency(c)
	return decimal.New(amount, -info.Decimals)
}

// FormatAmount renders an amount with the currency's full precision, e.g.
// 12500 sat -> "0.00012500".
func FormatAmount(amount int64, c Currency) string {
	info, _ := LookupCurrency(c)
	return AmountDecimal(amount, c).StringFixed(info.Decimals)
}
