// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping: opening one of
// the supported drivers, applying SQLite PRAGMAs, schema migrations and the
// process-wide Connector that hands out the shared handle.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/config"
	"github.com/tbourn/go-devflow-backend/internal/domain"
)

// Supported values of config.DatabaseConfig.Type.
const (
	DatabaseSQLite   = "sqlite"
	DatabaseMySQL    = "mysql"
	DatabasePostgres = "postgres"
	DatabaseMsSQL    = "mssql"
)

// OpenDatabase opens the database selected by cfg.Type. Statements are logged
// through zerolog with cfg.SlowQueryThreshold.
func OpenDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:         NewLogger(cfg.SlowQueryThreshold, cfg.Debug),
		TranslateError: true,
	}

	switch cfg.Type {
	case DatabaseMySQL:
		db, err := gorm.Open(mysql.Open(cfg.DSN), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetMaxOpenConns(10)
		// Ping opens a connection, making sure the database is reachable.
		if err := sqlDB.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
		}
		return db, nil
	case DatabaseMsSQL:
		db, err := gorm.Open(sqlserver.Open(cfg.DSN), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlserver database: %w", err)
		}
		return db, nil
	case DatabasePostgres:
		db, err := gorm.Open(postgres.Open(cfg.DSN), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open Postgres database: %w", err)
		}
		return db, nil
	case DatabaseSQLite, "":
		if dir := filepath.Dir(cfg.DSN); dir != "." && !strings.HasPrefix(cfg.DSN, "file:") {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create database base directory: %w", err)
			}
		}
		return openSQLite(cfg.DSN, gcfg)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
// The parent directory must already exist.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}
	return openSQLite(path, &gorm.Config{TranslateError: true})
}

// sqlitePragmas run on every pooled connection. PRAGMAs are per
// connection, so they travel in the DSN rather than through one Exec.
var sqlitePragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// withPragmas appends the sqlitePragmas the DSN does not set already.
func withPragmas(dsn string) string {
	var b strings.Builder
	b.WriteString(dsn)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range sqlitePragmas {
		name := p[:strings.IndexByte(p, '(')]
		if strings.Contains(dsn, "_pragma="+name+"(") {
			continue
		}
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

func openSQLite(dsn string, gcfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(withPragmas(dsn)), gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Account{},
		&domain.Question{},
		&domain.Answer{},
		&domain.Tag{},
		&domain.TagQuestion{},
		&domain.Vote{},
		&domain.Collection{},
		&domain.Interaction{},
		&domain.Idempotency{},
	}
}

// AutoMigrate creates or updates the schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// OpenFunc opens a database handle.
type OpenFunc func(ctx context.Context) (*gorm.DB, error)

// Connector owns the process-wide database handle. The first successful
// Connect opens it; later calls return the same handle. A failed attempt is
// not remembered, so the next call tries again.
type Connector struct {
	mu   sync.Mutex
	open OpenFunc
	db   *gorm.DB
}

// NewConnector returns a Connector that opens lazily with open.
func NewConnector(open OpenFunc) *Connector {
	return &Connector{open: open}
}

// StaticConnector returns a Connector that is already connected to db.
func StaticConnector(db *gorm.DB) *Connector {
	return &Connector{db: db}
}

// ErrNoOpener is returned by Connect when the connector has neither a handle
// nor a way to open one.
var ErrNoOpener = errors.New("repo: connector has no opener")

// Connect returns the shared handle, opening it on first use.
func (c *Connector) Connect(ctx context.Context) (*gorm.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}
	if c.open == nil {
		return nil, ErrNoOpener
	}
	db, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	c.db = db
	return db, nil
}

// Close releases the underlying pool. A later Connect reopens it.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	c.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
