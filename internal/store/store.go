// Package store defines the persistence boundary of the invoicing service.
//
// Two backends implement Store: gormstore (PostgreSQL, or SQLite for local
// runs and tests) and surrealstore (SurrealDB). Both report a missing record
// as domain.ErrNotFound and a uniqueness clash as domain.ErrAlreadyExists.
// Owner scoping for single records is applied by the services through
// policy.Owns; list and bulk operations take the owner id directly.
package store

import (
	"context"

	"github.com/diewo77/invoice-api/internal/models"
)

type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	// ListClients returns the owner's clients sorted by name ascending.
	ListClients(ctx context.Context, ownerID string) ([]models.Client, error)
	GetClient(ctx context.Context, id string) (*models.Client, error)
	GetClientByName(ctx context.Context, ownerID, name string) (*models.Client, error)
	CreateClient(ctx context.Context, c *models.Client) error
	UpdateClient(ctx context.Context, c *models.Client) error

	// ListInvoices returns the owner's invoices newest first with Client attached.
	// A non-empty search matches invoice number or customer name, case-insensitively.
	ListInvoices(ctx context.Context, ownerID, search string) ([]models.Invoice, error)
	CountInvoices(ctx context.Context, ownerID string) (int64, error)
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	// UpdateInvoice replaces the stored document, items included.
	UpdateInvoice(ctx context.Context, inv *models.Invoice) error
	DeleteInvoice(ctx context.Context, id string) error
	DeleteInvoicesByOwner(ctx context.Context, ownerID string) (int64, error)

	// InTx runs fn against a Store bound to one transaction when the backend
	// supports it. Backends without multi-record transactions run fn directly.
	InTx(ctx context.Context, fn func(Store) error) error

	Ping(ctx context.Context) error
	Close() error
}
