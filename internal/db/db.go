package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/invoice-api/internal/config"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// retryDelay is the pause between connection attempts.
var retryDelay = 2 * time.Second

// Open connects to the SQL backend named by cfg.Driver, retrying a few times
// so the service can start alongside its database container.
func Open(cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	tries := max(cfg.ConnectTries, 1)
	var gdb *gorm.DB
	for i := 1; i <= tries; i++ {
		gdb, err = gorm.Open(dialector, gcfg)
		if err == nil {
			err = gdb.Exec("SELECT 1").Error
		}
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i).Int("of", tries).Msg("database connection failed")
		if i < tries {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s after %d attempts: %w", cfg.Driver, tries, err)
	}

	if cfg.Driver == config.DriverSQLite {
		// Only one writer at a time; avoids "database is locked" under concurrent requests.
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	log.Info().Str("driver", cfg.Driver).Str("dsn", MaskDSN(displayDSN(cfg))).Msg("database connected")
	return gdb, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		dsn := NormalizeDSN(cfg.DSN)
		if dsn == "" {
			return nil, errors.New("DATABASE_DSN is empty, check the environment configuration")
		}
		return postgres.Open(dsn), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath), nil
	}
	return nil, fmt.Errorf("driver %q is not a SQL backend", cfg.Driver)
}

func displayDSN(cfg config.DatabaseConfig) string {
	if cfg.Driver == config.DriverSQLite {
		return cfg.SQLitePath
	}
	return NormalizeDSN(cfg.DSN)
}
