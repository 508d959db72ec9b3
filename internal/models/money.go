package models

import "github.com/shopspring/decimal"

var (
	// MinAmount is the smallest positive monetary value (one minor unit).
	MinAmount = decimal.New(1, -2)
	// MaxAmount is the largest value a NUMERIC(12,2) money column holds.
	MaxAmount = decimal.RequireFromString("9999999999.99")
)

// ValidateAmount checks that amount is between MinAmount and MaxAmount and
// has no sub-cent digits.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if amount.LessThan(MinAmount) {
		return Validationf("%s must be at least %s", field, MinAmount.StringFixed(2))
	}
	if amount.GreaterThan(MaxAmount) {
		return Validationf("%s must not exceed %s", field, MaxAmount.StringFixed(2))
	}
	if !amount.Equal(amount.Round(2)) {
		return Validationf("%s must not have more than two decimal places", field)
	}
	return nil
}
