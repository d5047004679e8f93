package validation

import (
	"net/mail"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records msg for field unless the field already has a violation.
func (v Violations) Add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func Email(field, value string, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v.Add(field, "invalid_email")
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	if value == "" {
		return
	}
	if !slices.Contains(allowed, value) {
		v.Add(field, "invalid_choice")
	}
}

func NonNegative(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v.Add(field, "must_not_be_negative")
	}
}

// Fixed checks val fits a numeric(intDigits+scale, scale) column: at most scale
// decimal places and fewer than intDigits digits before the point.
func Fixed(field string, val decimal.Decimal, intDigits, scale int32, v Violations) {
	if !val.Equal(val.Truncate(scale)) {
		v.Add(field, "too_many_decimals")
		return
	}
	if val.Abs().Cmp(decimal.New(1, intDigits)) >= 0 {
		v.Add(field, "too_large")
	}
}
