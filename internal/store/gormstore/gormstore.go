// Package gormstore implements store.Store on top of gorm, for PostgreSQL in
// production and SQLite in tests or single-node runs.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/invoice-api/internal/domain"
	"github.com/diewo77/invoice-api/internal/models"
	"github.com/diewo77/invoice-api/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) conn(ctx context.Context) *gorm.DB { return s.db.WithContext(ctx) }

// translate maps driver errors onto the domain sentinels.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUniqueViolation catches drivers that were opened without TranslateError.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// ─────────────────────────────────────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────────────────────────────────────

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.conn(ctx).Create(u).Error, "create user")
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get user")
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err, "get user by email")
	}
	return &u, nil
}

func (s *Store) GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).Where("reset_token_hash = ?", tokenHash).First(&u).Error; err != nil {
		return nil, translate(err, "get user by reset token")
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	return translate(s.conn(ctx).Save(u).Error, "update user")
}

// ─────────────────────────────────────────────────────────────────────────────
// Clients
// ─────────────────────────────────────────────────────────────────────────────

func (s *Store) ListClients(ctx context.Context, ownerID string) ([]models.Client, error) {
	var clients []models.Client
	err := s.conn(ctx).Where("user_id = ?", ownerID).Order("name ASC").Find(&clients).Error
	return clients, translate(err, "list clients")
}

func (s *Store) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var c models.Client
	if err := s.conn(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get client")
	}
	return &c, nil
}

func (s *Store) GetClientByName(ctx context.Context, ownerID, name string) (*models.Client, error) {
	var c models.Client
	if err := s.conn(ctx).Where("user_id = ? AND name = ?", ownerID, name).First(&c).Error; err != nil {
		return nil, translate(err, "get client by name")
	}
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *models.Client) error {
	return translate(s.conn(ctx).Create(c).Error, "create client")
}

func (s *Store) UpdateClient(ctx context.Context, c *models.Client) error {
	return translate(s.conn(ctx).Save(c).Error, "update client")
}

// ─────────────────────────────────────────────────────────────────────────────
// Invoices
// ─────────────────────────────────────────────────────────────────────────────

func itemsInOrder(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }

func (s *Store) ListInvoices(ctx context.Context, ownerID, search string) ([]models.Invoice, error) {
	q := s.conn(ctx).Where("user_id = ?", ownerID)
	if pattern, ok := store.LikePattern(search); ok {
		q = q.Where(`(LOWER(invoice_number) LIKE ? ESCAPE '\' OR LOWER(customer_name) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	var invoices []models.Invoice
	err := q.Preload("Client").Preload("Items", itemsInOrder).
		Order("created_at DESC").Find(&invoices).Error
	return invoices, translate(err, "list invoices")
}

func (s *Store) CountInvoices(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Invoice{}).Where("user_id = ?", ownerID).Count(&n).Error
	return n, translate(err, "count invoices")
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.conn(ctx).Preload("Client").Preload("Items", itemsInOrder).First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "get invoice")
	}
	return &inv, nil
}

func prepareItems(inv *models.Invoice) {
	for i := range inv.Items {
		inv.Items[i].ID = ""
		inv.Items[i].InvoiceID = inv.ID
		inv.Items[i].Position = i
	}
}

func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	if err := inv.BeforeCreate(nil); err != nil {
		return err
	}
	prepareItems(inv)
	return translate(s.conn(ctx).Omit("Client").Create(inv).Error, "create invoice")
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	prepareItems(inv)
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(inv).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		if len(inv.Items) == 0 {
			return nil
		}
		return tx.Create(&inv.Items).Error
	})
	return translate(err, "update invoice")
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Invoice{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err, "delete invoice")
}

func (s *Store) DeleteInvoicesByOwner(ctx context.Context, ownerID string) (int64, error) {
	var deleted int64
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.Invoice{}).Where("user_id = ?", ownerID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("invoice_id IN ?", ids).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("user_id = ?", ownerID).Delete(&models.Invoice{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, translate(err, "delete invoices")
}

// ─────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ─────────────────────────────────────────────────────────────────────────────

func (s *Store) InTx(ctx context.Context, fn func(store.Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.conn(ctx).Exec("SELECT 1").Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
