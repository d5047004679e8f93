// Package surrealstore implements store.Store on SurrealDB using parameterized
// SurrealQL. Invoices are single documents with their items embedded.
//
// SurrealDB transactions only span one query call, so InTx runs its callback
// directly: a client upsert followed by a failed invoice write leaves the
// client updated. Callers order the writes client first.
package surrealstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/invoice-api/internal/config"
	"github.com/diewo77/invoice-api/internal/domain"
	"github.com/diewo77/invoice-api/internal/models"
	"github.com/diewo77/invoice-api/internal/store"
	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
)

// schema declares the uniqueness rules the gorm backend gets from its indexes.
var schema = []string{
	"DEFINE TABLE IF NOT EXISTS user SCHEMALESS",
	"DEFINE INDEX IF NOT EXISTS user_email ON TABLE user FIELDS email UNIQUE",
	"DEFINE INDEX IF NOT EXISTS user_reset_token ON TABLE user FIELDS reset_token_hash",
	"DEFINE TABLE IF NOT EXISTS client SCHEMALESS",
	"DEFINE INDEX IF NOT EXISTS client_owner_name ON TABLE client FIELDS owner_id, name UNIQUE",
	"DEFINE TABLE IF NOT EXISTS invoice SCHEMALESS",
	"DEFINE INDEX IF NOT EXISTS invoice_number ON TABLE invoice FIELDS invoice_number UNIQUE",
	"DEFINE INDEX IF NOT EXISTS invoice_owner ON TABLE invoice FIELDS owner_id",
}

type Store struct {
	db  *surrealdb.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects, signs in when credentials are configured and selects the namespace and database.
func Open(ctx context.Context, cfg config.SurrealConfig) (*Store, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect surrealdb: %w", err)
	}
	if cfg.User != "" && cfg.Pass != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.User,
			"pass": cfg.Pass,
		}); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("surrealdb signin: %w", err)
		}
	}
	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("surrealdb use %s/%s: %w", cfg.Namespace, cfg.Database, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Migrate defines tables and unique indexes. It is safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := surrealdb.Query[any](ctx, s.db, stmt, nil); err != nil {
			return fmt.Errorf("surrealdb schema %q: %w", stmt, err)
		}
	}
	return nil
}

// translate maps SurrealDB error text onto the domain sentinels.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "already contains") || strings.Contains(msg, "already exists") {
		return fmt.Errorf("%s: %w", op, domain.ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// query runs sql and returns the rows of its last statement.
func query[T any](ctx context.Context, s *Store, op, sql string, vars map[string]any) ([]T, error) {
	res, err := surrealdb.Query[[]T](ctx, s.db, sql, vars)
	if err != nil {
		return nil, translate(err, op)
	}
	if res == nil || len(*res) == 0 {
		return nil, nil
	}
	last := (*res)[len(*res)-1]
	if last.Status != "OK" {
		return nil, fmt.Errorf("%s: query status %s", op, last.Status)
	}
	return last.Result, nil
}

func first[T any](rows []T, err error, op string) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return rows[0], nil
}

func thing(table, id string) map[string]any {
	return map[string]any{"tb": table, "id": id}
}

func withVars(base map[string]any, kv ...any) map[string]any {
	for i := 0; i+1 < len(kv); i += 2 {
		base[kv[i].(string)] = kv[i+1]
	}
	return base
}

const (
	createThing = "CREATE type::thing($tb, $id) CONTENT $content"
	updateThing = "UPDATE type::thing($tb, $id) CONTENT $content"
	selectThing = "SELECT * FROM type::thing($tb, $id)"
	deleteThing = "DELETE type::thing($tb, $id) RETURN BEFORE"
)

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	stamp(&u.CreatedAt, &u.UpdatedAt, s.now())
	_, err := query[userRecord](ctx, s, "create user", createThing,
		withVars(thing(tableUser, u.ID), "content", toUserRecord(u)))
	return err
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	rows, err := query[userRecord](ctx, s, "get user", selectThing, thing(tableUser, id))
	rec, err := first(rows, err, "get user")
	if err != nil {
		return nil, err
	}
	return fromUserRecord(rec), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	rows, err := query[userRecord](ctx, s, "get user by email",
		"SELECT * FROM user WHERE email = $email LIMIT 1", map[string]any{"email": email})
	rec, err := first(rows, err, "get user by email")
	if err != nil {
		return nil, err
	}
	return fromUserRecord(rec), nil
}

func (s *Store) GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	rows, err := query[userRecord](ctx, s, "get user by reset token",
		"SELECT * FROM user WHERE reset_token_hash = $hash LIMIT 1", map[string]any{"hash": tokenHash})
	rec, err := first(rows, err, "get user by reset token")
	if err != nil {
		return nil, err
	}
	return fromUserRecord(rec), nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	stamp(&u.CreatedAt, &u.UpdatedAt, s.now())
	rows, err := query[userRecord](ctx, s, "update user", updateThing,
		withVars(thing(tableUser, u.ID), "content", toUserRecord(u)))
	_, err = first(rows, err, "update user")
	return err
}

// Clients

func (s *Store) ListClients(ctx context.Context, ownerID string) ([]models.Client, error) {
	rows, err := query[clientRecord](ctx, s, "list clients",
		"SELECT * FROM client WHERE owner_id = $owner ORDER BY name ASC", map[string]any{"owner": ownerID})
	if err != nil {
		return nil, err
	}
	clients := make([]models.Client, 0, len(rows))
	for _, rec := range rows {
		clients = append(clients, fromClientRecord(rec))
	}
	return clients, nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*models.Client, error) {
	rows, err := query[clientRecord](ctx, s, "get client", selectThing, thing(tableClient, id))
	rec, err := first(rows, err, "get client")
	if err != nil {
		return nil, err
	}
	c := fromClientRecord(rec)
	return &c, nil
}

func (s *Store) GetClientByName(ctx context.Context, ownerID, name string) (*models.Client, error) {
	rows, err := query[clientRecord](ctx, s, "get client by name",
		"SELECT * FROM client WHERE owner_id = $owner AND name = $name LIMIT 1",
		map[string]any{"owner": ownerID, "name": name})
	rec, err := first(rows, err, "get client by name")
	if err != nil {
		return nil, err
	}
	c := fromClientRecord(rec)
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *models.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	stamp(&c.CreatedAt, &c.UpdatedAt, s.now())
	_, err := query[clientRecord](ctx, s, "create client", createThing,
		withVars(thing(tableClient, c.ID), "content", toClientRecord(c)))
	return err
}

func (s *Store) UpdateClient(ctx context.Context, c *models.Client) error {
	stamp(&c.CreatedAt, &c.UpdatedAt, s.now())
	rows, err := query[clientRecord](ctx, s, "update client", updateThing,
		withVars(thing(tableClient, c.ID), "content", toClientRecord(c)))
	_, err = first(rows, err, "update client")
	return err
}

// Invoices

// listInvoicesQuery builds the owner-scoped listing, adding the search filter
// when term is non-empty after trimming.
func listInvoicesQuery(ownerID, term string) (string, map[string]any) {
	vars := map[string]any{"owner": ownerID}
	sql := "SELECT * FROM invoice WHERE owner_id = $owner"
	if t := store.NormalizeSearch(term); t != "" {
		sql += " AND (string::contains(string::lowercase(invoice_number), $term)" +
			" OR string::contains(string::lowercase(customer.name), $term))"
		vars["term"] = t
	}
	return sql + " ORDER BY created_at DESC", vars
}

func (s *Store) ListInvoices(ctx context.Context, ownerID, search string) ([]models.Invoice, error) {
	sql, vars := listInvoicesQuery(ownerID, search)
	rows, err := query[invoiceRecord](ctx, s, "list invoices", sql, vars)
	if err != nil {
		return nil, err
	}
	clients, err := s.ListClients(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Client, len(clients))
	for i := range clients {
		byID[clients[i].ID] = &clients[i]
	}
	invoices := make([]models.Invoice, 0, len(rows))
	for _, rec := range rows {
		inv, err := fromInvoiceRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("list invoices: %w", err)
		}
		inv.Client = byID[inv.ClientID]
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func (s *Store) CountInvoices(ctx context.Context, ownerID string) (int64, error) {
	type countRow struct {
		Total int64 `json:"total"`
	}
	rows, err := query[countRow](ctx, s, "count invoices",
		"SELECT count() AS total FROM invoice WHERE owner_id = $owner GROUP ALL",
		map[string]any{"owner": ownerID})
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return rows[0].Total, nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	rows, err := query[invoiceRecord](ctx, s, "get invoice", selectThing, thing(tableInvoice, id))
	rec, err := first(rows, err, "get invoice")
	if err != nil {
		return nil, err
	}
	inv, err := fromInvoiceRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if inv.ClientID != "" {
		if c, err := s.GetClient(ctx, inv.ClientID); err == nil {
			inv.Client = c
		}
	}
	return &inv, nil
}

func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	stamp(&inv.CreatedAt, &inv.UpdatedAt, s.now())
	_, err := query[invoiceRecord](ctx, s, "create invoice", createThing,
		withVars(thing(tableInvoice, inv.ID), "content", toInvoiceRecord(inv)))
	return err
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	stamp(&inv.CreatedAt, &inv.UpdatedAt, s.now())
	rows, err := query[invoiceRecord](ctx, s, "update invoice", updateThing,
		withVars(thing(tableInvoice, inv.ID), "content", toInvoiceRecord(inv)))
	_, err = first(rows, err, "update invoice")
	return err
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	rows, err := query[invoiceRecord](ctx, s, "delete invoice", deleteThing, thing(tableInvoice, id))
	_, err = first(rows, err, "delete invoice")
	return err
}

func (s *Store) DeleteInvoicesByOwner(ctx context.Context, ownerID string) (int64, error) {
	rows, err := query[invoiceRecord](ctx, s, "delete invoices",
		"DELETE invoice WHERE owner_id = $owner RETURN BEFORE", map[string]any{"owner": ownerID})
	return int64(len(rows)), err
}

// Lifecycle

func (s *Store) InTx(_ context.Context, fn func(store.Store) error) error {
	return fn(s)
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := surrealdb.Query[bool](ctx, s.db, "RETURN true", nil)
	return err
}

func (s *Store) Close() error {
	return s.db.Close(context.Background())
}
