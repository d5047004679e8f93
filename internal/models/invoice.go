package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Amounts travel as JSON numbers, as the API always did.
	decimal.MarshalJSONWithoutQuotes = true
}

// InvoiceStatus represents the status of an invoice.
// Any status may follow any other; there is no transition graph.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "Draft"
	InvoiceStatusSent    InvoiceStatus = "Sent"
	InvoiceStatusPaid    InvoiceStatus = "Paid"
	InvoiceStatusOverdue InvoiceStatus = "Overdue"
)

// InvoiceStatuses lists the accepted status values.
var InvoiceStatuses = []string{
	string(InvoiceStatusDraft),
	string(InvoiceStatusSent),
	string(InvoiceStatusPaid),
	string(InvoiceStatusOverdue),
}

// DefaultCurrency is used when an invoice does not name one.
const DefaultCurrency = "AUD"

// CompanyDetails is the issuer snapshot taken when the invoice is written.
type CompanyDetails struct {
	Name    string `gorm:"size:255" json:"name"`
	Address string `gorm:"size:500" json:"address"`
	Phone   string `gorm:"size:50" json:"phone"`
	Email   string `gorm:"size:255" json:"email"`
	Website string `gorm:"size:255" json:"website"`
	ABN     string `gorm:"size:20" json:"abn"`
}

func (d CompanyDetails) IsZero() bool { return d == CompanyDetails{} }

// CustomerDetails is the customer snapshot. It stays stable when the Client changes later.
type CustomerDetails struct {
	Name    string `gorm:"size:255;index" json:"name"`
	Address string `gorm:"size:500" json:"address"`
	Email   string `gorm:"size:255" json:"email"`
	Phone   string `gorm:"size:50" json:"phone"`
	Website string `gorm:"size:255" json:"website"`
}

type PaymentInstructions struct {
	BankName      string `gorm:"size:255" json:"bankName"`
	AccountName   string `gorm:"size:255" json:"accountName"`
	AccountNumber string `gorm:"size:50" json:"accountNumber"`
	BSB           string `gorm:"size:20" json:"bsb"`
}

func (p PaymentInstructions) IsZero() bool { return p == PaymentInstructions{} }

// Invoice represents a billing invoice.
// Implements the Ownable interface for ownership-based authorization.
type Invoice struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// UserID is the owner of this invoice (for multi-tenant isolation)
	UserID string `gorm:"type:varchar(36);index;not null" json:"userId"`

	// Client relationship
	ClientID string  `gorm:"type:varchar(36);index" json:"clientId"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	InvoiceNumber string    `gorm:"size:100;uniqueIndex;not null" json:"invoiceNumber"`
	InvoiceDate   time.Time `gorm:"not null" json:"invoiceDate"`
	DueDate       time.Time `gorm:"not null" json:"dueDate"`
	Reference     string    `gorm:"size:255" json:"reference"`

	CompanyDetails      CompanyDetails      `gorm:"embedded;embeddedPrefix:company_" json:"companyDetails"`
	CustomerDetails     CustomerDetails     `gorm:"embedded;embeddedPrefix:customer_" json:"customerDetails"`
	PaymentInstructions PaymentInstructions `gorm:"embedded;embeddedPrefix:payment_" json:"paymentInstructions"`

	Items       []InvoiceItem   `gorm:"foreignKey:InvoiceID" json:"items"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"totalAmount"`
	Currency    string          `gorm:"size:3;not null" json:"currency"`

	Status InvoiceStatus `gorm:"size:20;not null" json:"status"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// GetUserID implements the Ownable interface for authorization.
func (i *Invoice) GetUserID() string {
	if i == nil {
		return ""
	}
	return i.UserID
}

// RecalculateTotals sets Subtotal and TotalAmount to the sum of item totals.
// Item totals are trusted as given; quantity and unit price are not re-multiplied.
func (i *Invoice) RecalculateTotals() {
	sum := SumItems(i.Items)
	i.Subtotal = sum
	i.TotalAmount = sum
}

// SumItems adds up the line totals.
func SumItems(items []InvoiceItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Total)
	}
	return sum
}

// InvoiceItem represents a line item on an invoice.
type InvoiceItem struct {
	ID        string `gorm:"type:varchar(36);primaryKey" json:"id"`
	InvoiceID string `gorm:"type:varchar(36);index;not null" json:"-"`

	Description string          `gorm:"size:500;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unitPrice"`
	Total       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`

	// Position for ordering
	Position int `gorm:"not null;default:0" json:"-"`
}

func (it *InvoiceItem) BeforeCreate(*gorm.DB) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	return nil
}
