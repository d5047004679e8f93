package render

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Placeholders printed instead of blank fields.
const (
	PlaceholderName        = "Name Here"
	PlaceholderAddress     = "Company Address Here"
	PlaceholderReference   = "PT"
	PlaceholderBank        = "Here"
	PlaceholderItem        = "Item here"
	PlaceholderQuantity    = "xxx.x"
	PlaceholderEmail       = "e-mail here"
	PlaceholderWebsite     = "web site here"
	PlaceholderPhone       = "phone here"
	PlaceholderABN         = "N/A"
	PlaceholderSlipName    = "Name here"
	PlaceholderDate        = "N/A"
	PlaceholderInvoiceNumb = "N/A"
)

const dateLayout = "02 Jan 2006"

// FormatDate prints t as "02 Jan 2006", or N/A for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return PlaceholderDate
	}
	return t.Format(dateLayout)
}

// FormatMoney prints an amount en-US style with two decimals: $1,234.56.
func FormatMoney(d decimal.Decimal) string {
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatQuantity prints a quantity without trailing zeros, or the placeholder when zero.
func FormatQuantity(d decimal.Decimal) string {
	if d.IsZero() {
		return PlaceholderQuantity
	}
	return d.String()
}

// Or returns s unless it is blank, then fallback.
func Or(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// Lines splits a multi-line address, dropping blank lines.
func Lines(s string) []string {
	var out []string
	for _, l := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
