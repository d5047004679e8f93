package render

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"5", "$5.00"},
		{"999.999", "$1,000.00"},
		{"1234.5", "$1,234.50"},
		{"1234567.891", "$1,234,567.89"},
		{"-42.1", "-$42.10"},
		{"100000", "$100,000.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "N/A", FormatDate(time.Time{}))
	assert.Equal(t, "05 Mar 2025", FormatDate(time.Date(2025, 3, 5, 23, 0, 0, 0, time.UTC)))
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, PlaceholderQuantity, FormatQuantity(decimal.Zero))
	assert.Equal(t, "2.5", FormatQuantity(decimal.RequireFromString("2.500")))
}

func TestLinesAndOr(t *testing.T) {
	assert.Equal(t, []string{"130,", "University Drive,", "Callaghan"}, Lines("130,\r\nUniversity Drive,\n\n  Callaghan "))
	assert.Nil(t, Lines("  "))
	assert.Equal(t, "x", Or("  ", "x"))
	assert.Equal(t, "y", Or("y", "x"))
}
