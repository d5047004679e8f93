package db

import (
	"errors"
	"fmt"

	"github.com/diewo77/invoice-api/internal/config"
	"github.com/diewo77/invoice-api/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Models lists every persisted model, parents first.
func Models() []any {
	return []any{
		&models.User{},
		&models.Client{},
		&models.Invoice{},
		&models.InvoiceItem{},
	}
}

// AutoMigrate creates or updates tables from the gorm models.
func AutoMigrate(gdb *gorm.DB) error {
	for _, m := range Models() {
		if err := gdb.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// Migrate applies the schema. With MIGRATIONS enabled on PostgreSQL the versioned
// SQL files in cfg.MigrationsDir are run through golang-migrate; otherwise the
// gorm AutoMigrate fallback is used (dev convenience, and always for SQLite).
func Migrate(gdb *gorm.DB, cfg config.DatabaseConfig, log zerolog.Logger) error {
	if cfg.Migrations && cfg.Driver == config.DriverPostgres {
		log.Info().Str("dir", cfg.MigrationsDir).Msg("running sql migrations")
		if err := RunSQLMigrations(cfg.MigrationsDir, NormalizeDSN(cfg.DSN)); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		log.Info().Str("driver", cfg.Driver).Msg("running automigrate")
		if err := AutoMigrate(gdb); err != nil {
			return err
		}
	}
	// sanity check: ensure required core tables exist
	for _, table := range []string{"users", "clients", "invoices", "invoice_items"} {
		if !gdb.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// RunSQLMigrations executes migrations in dir using golang-migrate file source.
func RunSQLMigrations(dir, dsn string) error {
	m, err := migrate.New("file://"+dir, ToURLDSN(dsn))
	if err != nil {
		return err
	}
	defer m.Close()
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
