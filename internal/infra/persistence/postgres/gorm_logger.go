package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"credstore/config"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger routes GORM output into the service's slog logger.
// Statement text is logged, bound values are not, so password digests stay out of the logs.
type gormLogger struct {
	logger        *slog.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(base *slog.Logger, cfg *config.Config) logger.Interface {
	return &gormLogger{
		logger:        base,
		level:         gormLevel(cfg),
		slowThreshold: slowStatementThreshold,
	}
}

func gormLevel(cfg *config.Config) logger.LogLevel {
	if cfg == nil {
		return logger.Warn
	}
	if cfg.Env.Debug || strings.EqualFold(cfg.Env.Log.Level, "debug") {
		return logger.Info
	}

	return logger.Warn
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level

	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Info, slog.LevelInfo, msg, args...)
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Warn, slog.LevelWarn, msg, args...)
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Error, slog.LevelError, msg, args...)
}

func (l *gormLogger) printf(ctx context.Context, threshold logger.LogLevel, level slog.Level, msg string, args ...any) {
	if l.logger == nil || l.level < threshold {
		return
	}

	l.logger.LogAttrs(ctx, level, "GORM", slog.String("message", fmt.Sprintf(msg, args...)))
}

// ParamsFilter drops bound values before GORM renders a statement for logging.
func (l *gormLogger) ParamsFilter(_ context.Context, stmt string, _ ...any) (string, []any) {
	return stmt, nil
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logger == nil || l.level == logger.Silent {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		// a missing document row is an expected state, reported by the backend itself
		attrs := append(l.statementAttrs(fc, elapsed), slog.String("error", err.Error()))
		l.logger.LogAttrs(ctx, slog.LevelError, "GORM statement failed", attrs...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn:
		attrs := append(l.statementAttrs(fc, elapsed), slog.Duration("slowThreshold", l.slowThreshold))
		l.logger.LogAttrs(ctx, slog.LevelWarn, "GORM slow statement", attrs...)
	case l.level >= logger.Info:
		l.logger.LogAttrs(ctx, slog.LevelDebug, "GORM statement", l.statementAttrs(fc, elapsed)...)
	}
}

func (l *gormLogger) statementAttrs(fc func() (string, int64), elapsed time.Duration) []slog.Attr {
	stmt, rows := fc()

	return []slog.Attr{
		slog.Duration("elapsed", elapsed),
		slog.Int64("rows", rows),
		slog.String("sql", stmt),
	}
}
