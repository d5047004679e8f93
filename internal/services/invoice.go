package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/invoice-api/internal/domain"
	"github.com/diewo77/invoice-api/internal/models"
	"github.com/diewo77/invoice-api/internal/policy"
	"github.com/diewo77/invoice-api/internal/store"
	"github.com/diewo77/invoice-api/validation"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type InvoiceItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
}

// InvoiceInput is the body of create and update. Update replaces every field;
// an empty status or currency keeps the stored value.
type InvoiceInput struct {
	InvoiceNumber       string                     `json:"invoiceNumber"`
	InvoiceDate         Date                       `json:"invoiceDate"`
	DueDate             Date                       `json:"dueDate"`
	Reference           string                     `json:"reference"`
	CompanyDetails      models.CompanyDetails      `json:"companyDetails"`
	CustomerDetails     models.CustomerDetails     `json:"customerDetails"`
	PaymentInstructions models.PaymentInstructions `json:"paymentInstructions"`
	Items               []InvoiceItemInput         `json:"items"`
	Currency            string                     `json:"currency"`
	Status              string                     `json:"status"`
}

var (
	errInvoiceNotFound  = domain.E(domain.ErrNotFound, "Invoice not found")
	errInvoiceDuplicate = domain.E(domain.ErrAlreadyExists, "Invoice number already exists")
)

// InvoiceService owns the invoice ledger and the implicit client upsert.
type InvoiceService struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewInvoiceService(st store.Store, log zerolog.Logger) *InvoiceService {
	return &InvoiceService{store: st, log: log, now: time.Now}
}

func (s *InvoiceService) SetClock(now func() time.Time) { s.now = now }

// Column precision of money (numeric(14,2)) and quantity (numeric(12,3)).
// Values are rejected rather than rounded so stored items always sum to the stored total.
const (
	moneyDigits, moneyScale = 12, 2
	qtyDigits, qtyScale     = 9, 3
)

func validateInvoice(in InvoiceInput) error {
	v := validation.Violations{}
	validation.Required("invoiceNumber", in.InvoiceNumber, v)
	if in.DueDate.IsZero() {
		v.Add("dueDate", "required")
	}
	validation.Required("customerDetails.name", in.CustomerDetails.Name, v)
	validation.Email("customerDetails.email", in.CustomerDetails.Email, v)
	validation.OneOf("status", in.Status, models.InvoiceStatuses, v)
	if len(in.Items) == 0 {
		v.Add("items", "at_least_one_item")
	}
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		validation.Required(field+".description", it.Description, v)
		validation.NonNegative(field+".quantity", it.Quantity, v)
		validation.NonNegative(field+".unitPrice", it.UnitPrice, v)
		validation.NonNegative(field+".total", it.Total, v)
		validation.Fixed(field+".quantity", it.Quantity, qtyDigits, qtyScale, v)
		validation.Fixed(field+".unitPrice", it.UnitPrice, moneyDigits, moneyScale, v)
		validation.Fixed(field+".total", it.Total, moneyDigits, moneyScale, v)
	}
	if v.Empty() {
		sum := decimal.Zero
		for _, it := range in.Items {
			sum = sum.Add(it.Total)
		}
		validation.Fixed("totalAmount", sum, moneyDigits, moneyScale, v)
	}
	return domain.Validate(v)
}

// build maps a validated input onto inv, filling defaults and totals.
// Company and payment blocks left empty are copied from the owner's profile.
func (s *InvoiceService) build(ctx context.Context, ownerID string, in InvoiceInput, inv *models.Invoice) error {
	inv.UserID = ownerID
	inv.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
	inv.InvoiceDate = in.InvoiceDate.Time
	if inv.InvoiceDate.IsZero() {
		inv.InvoiceDate = s.now().UTC()
	}
	inv.DueDate = in.DueDate.Time
	inv.Reference = strings.TrimSpace(in.Reference)
	inv.CustomerDetails = in.CustomerDetails
	inv.CustomerDetails.Name = strings.TrimSpace(inv.CustomerDetails.Name)
	inv.CompanyDetails = in.CompanyDetails
	inv.PaymentInstructions = in.PaymentInstructions

	if cur := strings.ToUpper(strings.TrimSpace(in.Currency)); cur != "" {
		inv.Currency = cur
	} else if inv.Currency == "" {
		inv.Currency = models.DefaultCurrency
	}
	if in.Status != "" {
		inv.Status = models.InvoiceStatus(in.Status)
	} else if inv.Status == "" {
		inv.Status = models.InvoiceStatusDraft
	}

	inv.Items = make([]models.InvoiceItem, len(in.Items))
	for i, it := range in.Items {
		inv.Items[i] = models.InvoiceItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
			Position:    i,
		}
	}
	inv.RecalculateTotals()

	if inv.CompanyDetails.IsZero() || inv.PaymentInstructions.IsZero() {
		user, err := s.store.GetUser(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("load company profile: %w", err)
		}
		prefill(inv, user.CompanyProfile)
	}
	return nil
}

func prefill(inv *models.Invoice, p models.CompanyProfile) {
	if inv.CompanyDetails.IsZero() {
		inv.CompanyDetails = models.CompanyDetails{
			Name:    p.Name,
			Address: p.Address,
			Phone:   p.Phone,
			Email:   p.Email,
			Website: p.Website,
			ABN:     p.ABN,
		}
	}
	if inv.PaymentInstructions.IsZero() {
		inv.PaymentInstructions = models.PaymentInstructions{
			BankName:      p.BankName,
			AccountName:   p.AccountName,
			AccountNumber: p.AccountNumber,
			BSB:           p.BSB,
		}
	}
}

// write upserts the client then runs persist in one store transaction.
func (s *InvoiceService) write(ctx context.Context, inv *models.Invoice, persist func(store.Store, *models.Invoice) error) error {
	return s.store.InTx(ctx, func(tx store.Store) error {
		client, err := upsertByName(ctx, tx, inv.UserID, inv.CustomerDetails)
		if err != nil {
			return fmt.Errorf("upsert client: %w", err)
		}
		inv.ClientID = client.ID
		inv.Client = client
		if err := persist(tx, inv); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return errInvoiceDuplicate
			}
			return err
		}
		return nil
	})
}

func (s *InvoiceService) Create(ctx context.Context, ownerID string, in InvoiceInput) (*models.Invoice, error) {
	if err := validateInvoice(in); err != nil {
		return nil, err
	}
	inv := &models.Invoice{}
	if err := s.build(ctx, ownerID, in, inv); err != nil {
		return nil, err
	}
	err := s.write(ctx, inv, func(tx store.Store, inv *models.Invoice) error {
		return tx.CreateInvoice(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", ownerID).Str("invoice_id", inv.ID).Str("number", inv.InvoiceNumber).Msg("invoice created")
	return inv, nil
}

func (s *InvoiceService) Update(ctx context.Context, ownerID, id string, in InvoiceInput) (*models.Invoice, error) {
	inv, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := validateInvoice(in); err != nil {
		return nil, err
	}
	if err := s.build(ctx, ownerID, in, inv); err != nil {
		return nil, err
	}
	err = s.write(ctx, inv, func(tx store.Store, inv *models.Invoice) error {
		return tx.UpdateInvoice(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *InvoiceService) List(ctx context.Context, ownerID, search string) ([]models.Invoice, error) {
	invoices, err := s.store.ListInvoices(ctx, ownerID, search)
	if err != nil {
		return nil, err
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	return invoices, nil
}

// Get returns the invoice when ownerID owns it. Missing and foreign invoices
// both come back as "Invoice not found".
func (s *InvoiceService) Get(ctx context.Context, ownerID, id string) (*models.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if !policy.Owns(ownerID, inv) {
		return nil, errInvoiceNotFound
	}
	return inv, nil
}

func (s *InvoiceService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.DeleteInvoice(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errInvoiceNotFound
		}
		return err
	}
	return nil
}

// DeleteAll removes every invoice of ownerID and reports how many went.
func (s *InvoiceService) DeleteAll(ctx context.Context, ownerID string) (int64, error) {
	n, err := s.store.DeleteInvoicesByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("user_id", ownerID).Int64("deleted", n).Msg("invoices deleted")
	return n, nil
}

// NextNumber suggests INV-001 style numbers from the owner's invoice count.
// The suggestion is not reserved; uniqueness is still enforced on write.
func (s *InvoiceService) NextNumber(ctx context.Context, ownerID string) (string, error) {
	n, err := s.store.CountInvoices(ctx, ownerID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%03d", n+1), nil
}
