package utils

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rupees = message.NewPrinter(language.English)

// WholeAmount validates a client supplied amount and returns it in whole
// currency units.
func WholeAmount(field string, d decimal.Decimal) (int64, error) {
	if d.IsZero() {
		return 0, Validation("%s is required", field)
	}
	if d.IsNegative() {
		return 0, Validation("%s must be positive", field)
	}
	if !d.IsInteger() {
		return 0, Validation("%s must be a whole number", field)
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, Validation("%s is too large", field)
	}
	return d.IntPart(), nil
}

// FormatRupees renders an amount with Indian currency symbol and grouping,
// e.g. ₹1,000.
func FormatRupees(amount int64) string {
	return rupees.Sprintf("₹%d", amount)
}

// OptionalAmount is WholeAmount for fields where zero is allowed.
func OptionalAmount(field string, d decimal.Decimal) (int64, error) {
	if d.IsZero() {
		return 0, nil
	}
	return WholeAmount(field, d)
}
