// Package render turns an invoice into a printable document.
//
// Layout builds a backend-neutral Document once; the HTML template, the
// gofpdf renderer and the Chrome renderer all draw from it, so every engine
// prints the same fields, placeholders and totals.
package render

import (
	"net/url"
	"strings"

	"github.com/diewo77/invoice-api/internal/models"
)

// Brand is the company block printed when the invoice carries none.
type Brand struct {
	Name    string
	Address string
	Phone   string
	ABN     string
}

// Options tune Layout.
type Options struct {
	Brand Brand
	// PaymentLinkBase is the hosted checkout URL. Empty disables the pay link.
	PaymentLinkBase string
}

// Field is a labelled value.
type Field struct {
	Label string
	Value string
}

// Party is a name followed by address or contact lines.
type Party struct {
	Name  string
	Lines []string
}

// Row is one printed line item.
type Row struct {
	Description string
	Quantity    string
	UnitPrice   string
	Amount      string
}

// Payment is the block below the item table.
type Payment struct {
	DueDate     string
	Note        string
	Bank        []Field
	QuoteNote   string
	PayLink     string
	PayLinkText string
}

// Slip is the detachable payment advice.
type Slip struct {
	Title          string
	To             Party
	Rows           []Field
	AmountEnclosed string
	Hint           string
}

// Document is everything a renderer prints, already formatted.
type Document struct {
	Title      string
	Number     string
	FileName   string
	BillTo     Party
	Meta       []Field
	Company    Party
	Columns    [4]string
	Rows       []Row
	TotalLabel string
	Total      string
	Payment    Payment
	Slip       Slip
	Assets     Assets
}

// FileName is the download name of an invoice PDF.
func FileName(number string) string {
	return "Invoice-" + Or(number, "draft") + ".pdf"
}

// Layout maps an invoice onto a Document. It is pure: the same invoice,
// assets and options always produce the same Document.
func Layout(inv *models.Invoice, assets Assets, opts Options) Document {
	company := inv.CompanyDetails
	customer := inv.CustomerDetails
	pay := inv.PaymentInstructions
	brand := opts.Brand

	companyName := Or(company.Name, Or(brand.Name, PlaceholderName))
	companyLines := Lines(Or(company.Address, brand.Address))
	if len(companyLines) == 0 {
		companyLines = []string{PlaceholderAddress}
	}
	companyLines = append(companyLines,
		Or(company.Phone, Or(brand.Phone, PlaceholderPhone)),
		Or(company.Email, PlaceholderEmail),
		Or(company.Website, PlaceholderWebsite),
	)
	currency := Or(inv.Currency, models.DefaultCurrency)
	total := FormatMoney(inv.TotalAmount)
	dueDate := FormatDate(inv.DueDate)
	number := Or(inv.InvoiceNumber, PlaceholderInvoiceNumb)

	billTo := Party{Name: Or(customer.Name, PlaceholderName)}
	billTo.Lines = Lines(customer.Address)
	if len(billTo.Lines) == 0 {
		billTo.Lines = []string{PlaceholderAddress}
	}

	rows := make([]Row, len(inv.Items))
	for i, it := range inv.Items {
		rows[i] = Row{
			Description: Or(it.Description, PlaceholderItem),
			Quantity:    FormatQuantity(it.Quantity),
			UnitPrice:   FormatMoney(it.UnitPrice),
			Amount:      FormatMoney(it.Total),
		}
	}

	return Document{
		Title:    "INVOICE",
		Number:   number,
		FileName: FileName(inv.InvoiceNumber),
		BillTo:   billTo,
		Meta: []Field{
			{Label: "Invoice Date", Value: FormatDate(inv.InvoiceDate)},
			{Label: "Invoice Number", Value: number},
			{Label: "Reference", Value: Or(inv.Reference, PlaceholderReference)},
			{Label: "ABN", Value: Or(company.ABN, Or(brand.ABN, PlaceholderABN))},
		},
		Company:    Party{Name: companyName, Lines: companyLines},
		Columns:    [4]string{"Description", "Quantity", "Unit Price", "Amount " + currency},
		Rows:       rows,
		TotalLabel: "TOTAL " + currency,
		Total:      total,
		Payment: Payment{
			DueDate: dueDate,
			Note:    "We accept payment by bank transfer or card.",
			Bank: []Field{
				{Label: "Bank", Value: Or(pay.BankName, PlaceholderBank)},
				{Label: "Account name", Value: Or(pay.AccountName, companyName)},
				{Label: "Account Number", Value: Or(pay.AccountNumber, PlaceholderBank)},
				{Label: "BSB", Value: Or(pay.BSB, PlaceholderBank)},
			},
			QuoteNote:   "Please quote your invoice number as reference.",
			PayLink:     PaymentLink(opts.PaymentLinkBase, inv),
			PayLinkText: "View and pay online now",
		},
		Slip: Slip{
			Title: "PAYMENT ADVICE",
			To:    Party{Name: companyName, Lines: companyLines[:len(companyLines)-3]},
			Rows: []Field{
				{Label: "Customer", Value: Or(customer.Name, PlaceholderSlipName)},
				{Label: "Invoice Number", Value: number},
				{Label: "Amount", Value: total},
				{Label: "Due Date", Value: dueDate},
			},
			AmountEnclosed: "Amount Enclosed",
			Hint:           "Enter the amount you are paying above",
		},
		Assets: assets,
	}
}

// PaymentLink prefills the hosted checkout with the amount in cents, the
// invoice number and the payer email. It returns "" when base is empty or invalid.
func PaymentLink(base string, inv *models.Invoice) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	email := inv.CustomerDetails.Email
	if inv.Client != nil && inv.Client.Email != "" {
		email = inv.Client.Email
	}
	q := u.Query()
	q.Set("__prefilled_amount", inv.TotalAmount.Shift(2).Round(0).String())
	q.Set("client_reference_id", inv.InvoiceNumber)
	q.Set("prefilled_email", email)
	u.RawQuery = q.Encode()
	return u.String()
}
