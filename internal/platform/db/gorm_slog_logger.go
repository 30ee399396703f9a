package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// gormSlogLogger routes gorm's logging through slog.
// Record-not-found is expected on every unknown username and is never logged.
type gormSlogLogger struct {
	logger        *slog.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
}

func newGormSlogLogger(base *slog.Logger, debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return &gormSlogLogger{
		logger:        base,
		level:         level,
		slowThreshold: defaultSlowThreshold,
	}
}

func (l *gormSlogLogger) LogMode(level logger.LogLevel) logger.Interface {
	cloned := *l
	cloned.level = level
	return &cloned
}

func (l *gormSlogLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		l.logger.InfoContext(ctx, "gorm", "message", fmt.Sprintf(msg, args...))
	}
}

func (l *gormSlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		l.logger.WarnContext(ctx, "gorm", "message", fmt.Sprintf(msg, args...))
	}
}

func (l *gormSlogLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		l.logger.ErrorContext(ctx, "gorm", "message", fmt.Sprintf(msg, args...))
	}
}

func (l *gormSlogLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.logger.ErrorContext(ctx, "gorm query failed",
			"elapsed", elapsed, "rows", rows, "sql", sql, "error", err)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn:
		sql, rows := fc()
		l.logger.WarnContext(ctx, "gorm slow query",
			"elapsed", elapsed, "rows", rows, "sql", sql, "slow_threshold", l.slowThreshold)
	case l.level >= logger.Info:
		sql, rows := fc()
		l.logger.InfoContext(ctx, "gorm query", "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}
