package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes GORM output through zap. Statement logs carry the
// request_id and trace ids of the calling request.
type GormLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger returns a GormLogger writing under the "gorm" name.
// A zero slowThreshold disables slow query warnings.
func NewGormLogger(zl *zap.Logger, level gormlogger.LogLevel, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{log: zl.Named("gorm"), level: level, slow: slowThreshold}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	g.printf(ctx, gormlogger.Info, msg, args)
}

func (g *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	g.printf(ctx, gormlogger.Warn, msg, args)
}

func (g *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	g.printf(ctx, gormlogger.Error, msg, args)
}

func (g *GormLogger) printf(ctx context.Context, at gormlogger.LogLevel, msg string, args []any) {
	if g.level < at {
		return
	}
	s := g.scoped(ctx).Sugar()
	switch at {
	case gormlogger.Error:
		s.Errorf(msg, args...)
	case gormlogger.Warn:
		s.Warnf(msg, args...)
	default:
		s.Infof(msg, args...)
	}
}

// Trace logs failed statements at error, slow ones at warn and, in info
// mode, everything else at debug. ErrRecordNotFound is not a failure here:
// repositories translate it into domain not-found errors.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	took := time.Since(begin)
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound)
	slow := g.slow > 0 && took > g.slow

	var (
		msg   string
		level = gormlogger.Info
	)
	switch {
	case failed:
		msg, level = "SQL Error", gormlogger.Error
	case slow:
		msg, level = "Slow SQL", gormlogger.Warn
	case err == nil:
		msg = "SQL Query"
	default:
		return
	}
	if g.level < level {
		return
	}

	query, rows := fc()
	fields := []zap.Field{
		zap.String("sql", query),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", took),
	}
	log := g.scoped(ctx)
	switch level {
	case gormlogger.Error:
		log.Error(msg, append(fields, zap.Error(err))...)
	case gormlogger.Warn:
		log.Warn(msg, append(fields, zap.Duration("threshold", g.slow))...)
	default:
		log.Debug(msg, fields...)
	}
}

func (g *GormLogger) scoped(ctx context.Context) *zap.Logger {
	log := g.log
	if id := GetRequestID(ctx); id != "" {
		log = log.With(zap.String("request_id", id))
	}
	return WithTraceContext(ctx, log)
}

// MapGormLogLevel translates an application log level name.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	}
	return gormlogger.Warn
}
