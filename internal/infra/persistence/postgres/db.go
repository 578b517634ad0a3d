// Package postgres keeps the account document in a single PostgreSQL row through GORM.
package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"credstore/config"
	"credstore/internal/domain/lifecycle"

	"github.com/pkg/errors"
	pgLib "github.com/slighter12/go-lib/database/postgres"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const (
	poolMonitorInterval    = 5 * time.Second
	poolWaitWarnThreshold  = 50 * time.Millisecond
	slowStatementThreshold = 200 * time.Millisecond
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// Open connects to the database named in storage.postgres. The connection is
// pinged on start and closed on stop.
func Open(params Params) (*gorm.DB, error) {
	if params.Config.Storage == nil || params.Config.Storage.Postgres == nil {
		return nil, errors.New("storage.postgres is not configured")
	}

	db, err := pgLib.New(params.Config.Storage.Postgres)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create PostgreSQL client")
	}
	db = db.Session(&gorm.Session{
		// Replace opens its own transaction; single reads need none.
		SkipDefaultTransaction: true,
		Logger:                 newGormLogger(params.Logger, params.Config),
	})

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}

	monitorCtx, stopMonitor := context.WithCancel(context.Background())

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := sqlDB.PingContext(ctx); err != nil {
				return errors.Wrap(err, "failed to ping PostgreSQL")
			}

			go watchPool(monitorCtx, params.Logger, sqlDB, poolMonitorInterval)

			return nil
		},
		OnStop: func(_ context.Context) error {
			stopMonitor()

			return errors.WithStack(sqlDB.Close())
		},
	})

	return db, nil
}

// watchPool logs whenever callers had to wait for a pooled connection.
func watchPool(ctx context.Context, logger *slog.Logger, sqlDB *sql.DB, interval time.Duration) {
	if logger == nil || sqlDB == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := sqlDB.Stats()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := sqlDB.Stats()
			waits := now.WaitCount - last.WaitCount
			waited := now.WaitDuration - last.WaitDuration
			last = now

			if waits <= 0 {
				continue
			}

			level := slog.LevelDebug
			if waited >= poolWaitWarnThreshold {
				level = slog.LevelWarn
			}
			logger.LogAttrs(ctx, level, "Account database pool wait",
				slog.Int64("waits", waits),
				slog.Duration("waited", waited),
				slog.Duration("avgWait", waited/time.Duration(waits)),
				slog.Int("openConns", now.OpenConnections),
				slog.Int("inUseConns", now.InUse),
				slog.Int("idleConns", now.Idle),
			)
		}
	}
}
