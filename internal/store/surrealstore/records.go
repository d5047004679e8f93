package surrealstore

import (
	"fmt"
	"time"

	"github.com/diewo77/invoice-api/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sdbmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Table names.
const (
	tableUser    = "user"
	tableClient  = "client"
	tableInvoice = "invoice"
)

// Records mirror the gorm models with snake_case keys. Money is kept as a
// decimal string so no precision is lost through CBOR floats.

type userRecord struct {
	ID               *sdbmodels.RecordID       `json:"id,omitempty"`
	Email            string                    `json:"email"`
	Password         string                    `json:"password"`
	Company          models.CompanyProfile     `json:"company"`
	ResetTokenHash   *string                   `json:"reset_token_hash,omitempty"`
	ResetTokenExpiry *sdbmodels.CustomDateTime `json:"reset_token_expiry,omitempty"`
	CreatedAt        sdbmodels.CustomDateTime  `json:"created_at"`
	UpdatedAt        sdbmodels.CustomDateTime  `json:"updated_at"`
}

type clientRecord struct {
	ID        *sdbmodels.RecordID      `json:"id,omitempty"`
	OwnerID   string                   `json:"owner_id"`
	Name      string                   `json:"name"`
	Address   string                   `json:"address"`
	Email     string                   `json:"email"`
	Phone     string                   `json:"phone"`
	Website   string                   `json:"website"`
	CreatedAt sdbmodels.CustomDateTime `json:"created_at"`
	UpdatedAt sdbmodels.CustomDateTime `json:"updated_at"`
}

type itemRecord struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
}

type invoiceRecord struct {
	ID            *sdbmodels.RecordID        `json:"id,omitempty"`
	OwnerID       string                     `json:"owner_id"`
	ClientID      string                     `json:"client_id"`
	InvoiceNumber string                     `json:"invoice_number"`
	InvoiceDate   sdbmodels.CustomDateTime   `json:"invoice_date"`
	DueDate       sdbmodels.CustomDateTime   `json:"due_date"`
	Reference     string                     `json:"reference"`
	Company       models.CompanyDetails      `json:"company"`
	Customer      models.CustomerDetails     `json:"customer"`
	Payment       models.PaymentInstructions `json:"payment"`
	Items         []itemRecord               `json:"items"`
	Subtotal      string                     `json:"subtotal"`
	TotalAmount   string                     `json:"total_amount"`
	Currency      string                     `json:"currency"`
	Status        string                     `json:"status"`
	CreatedAt     sdbmodels.CustomDateTime   `json:"created_at"`
	UpdatedAt     sdbmodels.CustomDateTime   `json:"updated_at"`
}

// recordKey returns the id part of a record id such as invoice:⟨uuid⟩.
func recordKey(rid *sdbmodels.RecordID) string {
	if rid == nil {
		return ""
	}
	if s, ok := rid.ID.(string); ok {
		return s
	}
	return fmt.Sprint(rid.ID)
}

func dt(t time.Time) sdbmodels.CustomDateTime { return sdbmodels.CustomDateTime{Time: t.UTC()} }

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// stamp fills timestamps the way gorm does: CreatedAt once, UpdatedAt on every write.
func stamp(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func toUserRecord(u *models.User) userRecord {
	rec := userRecord{
		Email:          u.Email,
		Password:       u.Password,
		Company:        u.CompanyProfile,
		ResetTokenHash: u.ResetTokenHash,
		CreatedAt:      dt(u.CreatedAt),
		UpdatedAt:      dt(u.UpdatedAt),
	}
	if u.ResetTokenExpiry != nil {
		exp := dt(*u.ResetTokenExpiry)
		rec.ResetTokenExpiry = &exp
	}
	return rec
}

func fromUserRecord(rec userRecord) *models.User {
	u := &models.User{
		ID:             recordKey(rec.ID),
		Email:          rec.Email,
		Password:       rec.Password,
		CompanyProfile: rec.Company,
		ResetTokenHash: rec.ResetTokenHash,
		CreatedAt:      rec.CreatedAt.Time,
		UpdatedAt:      rec.UpdatedAt.Time,
	}
	if rec.ResetTokenExpiry != nil {
		exp := rec.ResetTokenExpiry.Time
		u.ResetTokenExpiry = &exp
	}
	return u
}

func toClientRecord(c *models.Client) clientRecord {
	return clientRecord{
		OwnerID:   c.UserID,
		Name:      c.Name,
		Address:   c.Address,
		Email:     c.Email,
		Phone:     c.Phone,
		Website:   c.Website,
		CreatedAt: dt(c.CreatedAt),
		UpdatedAt: dt(c.UpdatedAt),
	}
}

func fromClientRecord(rec clientRecord) models.Client {
	return models.Client{
		ID:        recordKey(rec.ID),
		UserID:    rec.OwnerID,
		Name:      rec.Name,
		Address:   rec.Address,
		Email:     rec.Email,
		Phone:     rec.Phone,
		Website:   rec.Website,
		CreatedAt: rec.CreatedAt.Time,
		UpdatedAt: rec.UpdatedAt.Time,
	}
}

// toInvoiceRecord also assigns ids to new line items.
func toInvoiceRecord(inv *models.Invoice) invoiceRecord {
	items := make([]itemRecord, len(inv.Items))
	for i := range inv.Items {
		it := &inv.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.InvoiceID = inv.ID
		it.Position = i
		items[i] = itemRecord{
			ID:          it.ID,
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   it.UnitPrice.String(),
			Total:       it.Total.String(),
		}
	}
	return invoiceRecord{
		OwnerID:       inv.UserID,
		ClientID:      inv.ClientID,
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   dt(inv.InvoiceDate),
		DueDate:       dt(inv.DueDate),
		Reference:     inv.Reference,
		Company:       inv.CompanyDetails,
		Customer:      inv.CustomerDetails,
		Payment:       inv.PaymentInstructions,
		Items:         items,
		Subtotal:      inv.Subtotal.String(),
		TotalAmount:   inv.TotalAmount.String(),
		Currency:      inv.Currency,
		Status:        string(inv.Status),
		CreatedAt:     dt(inv.CreatedAt),
		UpdatedAt:     dt(inv.UpdatedAt),
	}
}

func fromInvoiceRecord(rec invoiceRecord) (models.Invoice, error) {
	inv := models.Invoice{
		ID:                  recordKey(rec.ID),
		UserID:              rec.OwnerID,
		ClientID:            rec.ClientID,
		InvoiceNumber:       rec.InvoiceNumber,
		InvoiceDate:         rec.InvoiceDate.Time,
		DueDate:             rec.DueDate.Time,
		Reference:           rec.Reference,
		CompanyDetails:      rec.Company,
		CustomerDetails:     rec.Customer,
		PaymentInstructions: rec.Payment,
		Currency:            rec.Currency,
		Status:              models.InvoiceStatus(rec.Status),
		CreatedAt:           rec.CreatedAt.Time,
		UpdatedAt:           rec.UpdatedAt.Time,
		Items:               make([]models.InvoiceItem, 0, len(rec.Items)),
	}
	var err error
	if inv.Subtotal, err = parseDecimal(rec.Subtotal); err != nil {
		return inv, fmt.Errorf("invoice %s subtotal: %w", inv.ID, err)
	}
	if inv.TotalAmount, err = parseDecimal(rec.TotalAmount); err != nil {
		return inv, fmt.Errorf("invoice %s total: %w", inv.ID, err)
	}
	for i, ir := range rec.Items {
		it := models.InvoiceItem{ID: ir.ID, InvoiceID: inv.ID, Description: ir.Description, Position: i}
		if it.Quantity, err = parseDecimal(ir.Quantity); err != nil {
			return inv, fmt.Errorf("invoice %s item %d quantity: %w", inv.ID, i, err)
		}
		if it.UnitPrice, err = parseDecimal(ir.UnitPrice); err != nil {
			return inv, fmt.Errorf("invoice %s item %d unit price: %w", inv.ID, i, err)
		}
		if it.Total, err = parseDecimal(ir.Total); err != nil {
			return inv, fmt.Errorf("invoice %s item %d total: %w", inv.ID, i, err)
		}
		inv.Items = append(inv.Items, it)
	}
	return inv, nil
}
