package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-devflow-backend/internal/config"
	"github.com/tbourn/go-devflow-backend/internal/observability"
	"github.com/tbourn/go-devflow-backend/internal/repo"
)

// defaultDBWait bounds how long startup waits for the database.
const defaultDBWait = 30 * time.Second

// opener opens the configured database, instruments it and optionally
// migrates the schema.
func opener(cfg config.Config, migrate bool) repo.OpenFunc {
	return func(ctx context.Context) (*gorm.DB, error) {
		db, err := repo.OpenDatabase(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := observability.InstrumentDB(db, cfg.OTEL); err != nil {
			closeDB(db)
			return nil, fmt.Errorf("instrument database: %w", err)
		}
		if migrate {
			if err := repo.AutoMigrate(db.WithContext(ctx)); err != nil {
				closeDB(db)
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return db, nil
	}
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// connectWithRetry opens conn, retrying with exponential backoff until
// maxWait elapses or ctx is done.
func connectWithRetry(ctx context.Context, conn *repo.Connector, maxWait time.Duration) (*gorm.DB, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = maxWait
	b.RandomizationFactor = 0.1

	var db *gorm.DB
	err := backoff.RetryNotify(func() error {
		var err error
		db, err = conn.Connect(ctx)
		if errors.Is(err, repo.ErrNoOpener) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		log.Warn().Err(err).Dur("retry_in", next).Msg("database not ready")
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}
