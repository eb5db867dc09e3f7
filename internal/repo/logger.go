package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// GormLogger routes GORM output through zerolog. Errors are always logged
// (record-not-found excepted), slow statements as warnings and everything
// else only in debug mode.
type GormLogger struct {
	SlowThreshold           time.Duration
	IgnoreErrRecordNotFound bool
	Debug                   bool
	Silent                  bool

	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger
}

// NewLogger returns a GormLogger with the given slow threshold.
func NewLogger(slowThreshold time.Duration, debug bool) *GormLogger {
	return &GormLogger{
		SlowThreshold:           slowThreshold,
		IgnoreErrRecordNotFound: true,
		Debug:                   debug,
	}
}

func (l *GormLogger) lg() *zerolog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return &log.Logger
}

// LogMode implements logger.Interface.
func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.Silent = level == logger.Silent
	return &cp
}

// Info implements logger.Interface.
func (l *GormLogger) Info(_ context.Context, s string, args ...any) {
	if l.Silent {
		return
	}
	l.lg().Info().Str("component", "gorm").Msg(fmt.Sprintf(s, args...))
}

// Warn implements logger.Interface.
func (l *GormLogger) Warn(_ context.Context, s string, args ...any) {
	if l.Silent {
		return
	}
	l.lg().Warn().Str("component", "gorm").Msg(fmt.Sprintf(s, args...))
}

// Error implements logger.Interface.
func (l *GormLogger) Error(_ context.Context, s string, args ...any) {
	if l.Silent {
		return
	}
	l.lg().Error().Str("component", "gorm").Msg(fmt.Sprintf(s, args...))
}

// Trace implements logger.Interface.
func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()

	var ev *zerolog.Event
	switch {
	case err != nil && !(errors.Is(err, gorm.ErrRecordNotFound) && l.IgnoreErrRecordNotFound):
		ev = l.lg().Error().Err(err)
	case l.SlowThreshold != 0 && elapsed > l.SlowThreshold:
		ev = l.lg().Warn().Bool("slow", true)
	case l.Debug:
		ev = l.lg().Debug()
	default:
		return
	}
	ev.Str("component", "gorm").
		Str("sql", sql).
		Int64("rows", rows).
		Dur("duration", elapsed).
		Str("src", utils.FileWithLineNum()).
		Msg("query")
}
