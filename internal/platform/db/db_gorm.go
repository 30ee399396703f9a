// Package db opens and migrates the gorm connection backing the account store.
package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"account_backend/internal/feature/account/domain/entity"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultConnectTimeout = 30 * time.Second
)

// retryInterval is the pause between connection attempts.
var retryInterval = 3 * time.Second

// Config describes which database to open.
type Config struct {
	Driver         string
	Path           string // sqlite file, ":memory:" allowed
	DSN            string // postgres connection string
	ConnectTimeout time.Duration
	Debug          bool // log every query
}

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// Dialector selects the gorm dialector for cfg.
func Dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		if cfg.Path == "" {
			return nil, errors.New("sqlite path is empty")
		}
		return sqlite.Open(cfg.Path), nil
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, errors.New("postgres dsn is empty")
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, errors.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open connects to the configured database, retrying until ConnectTimeout elapses.
// Driver errors are translated into gorm sentinel errors.
func Open(cfg Config, logger *slog.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         newGormSlogLogger(logger, cfg.Debug),
	}
	opener := func(string) (*gorm.DB, error) {
		return gorm.Open(dialector, gormCfg)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	db, err := ConnectWithRetry(describe(cfg), timeout, opener)
	if err != nil {
		return nil, err
	}

	if dialector.Name() == DriverSQLite {
		// sqlite serializes writers; one connection avoids "database is locked"
		// and keeps ":memory:" databases from splitting across the pool.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "failed to access sql.DB")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	logger.Info("database connected", "driver", dialector.Name(), "target", describe(cfg))
	return db, nil
}

// ConnectWithRetry calls opener until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, errors.Wrapf(err, "database connect failed after %s", timeout)
		}
		slog.Warn("database connect failed, retrying", "error", err, "retry_in", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Migrate creates or updates the account table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entity.Account{}); err != nil {
		return errors.Wrap(err, "failed to migrate")
	}
	return nil
}

// Ping checks that the database answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to access sql.DB")
	}
	return errors.Wrap(sqlDB.PingContext(ctx), "database ping failed")
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to access sql.DB")
	}
	return sqlDB.Close()
}

// describe renders the target without credentials.
func describe(cfg Config) string {
	if cfg.Driver == DriverPostgres {
		return "postgres"
	}
	return cfg.Path
}
