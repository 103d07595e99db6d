package logger

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

var fromTable = regexp.MustCompile("(?i)\\bFROM\\s+[`\"]?([A-Za-z0-9_]+)")

// GormLogger routes GORM query traces for the legacy source through zap.
// Every traced statement carries the source table it reads and the run id
// of the current migration.
type GormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	rowLimit      int64
	logNotFound   bool
}

// GormLoggerOption configures a GormLogger.
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a source query is logged as slow.
// Zero disables the check.
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slowThreshold = threshold
	}
}

// WithIgnoreRecordNotFoundError controls whether gorm.ErrRecordNotFound is logged.
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.logNotFound = !ignore
	}
}

// WithRowLimitWarning warns when a query returns exactly limit rows,
// which means the source table was probably truncated.
func WithRowLimitWarning(limit int) GormLoggerOption {
	return func(l *GormLogger) {
		l.rowLimit = int64(limit)
	}
}

// NewGormLogger returns a GORM logger writing to the "source" child of zapLogger.
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	l := &GormLogger{
		logger:        zapLogger.Named("source"),
		level:         level,
		slowThreshold: time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.logger.Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.logger.Sugar().Errorf(msg, data...)
	}
}

// Trace logs one finished statement. Errors win over the row limit warning,
// which wins over the slow query warning; anything else is a debug line.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	if err != nil && errors.Is(err, gormlogger.ErrRecordNotFound) && !l.logNotFound {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := l.traceFields(ctx, sql, rows, elapsed)

	switch {
	case err != nil:
		if l.level >= gormlogger.Error {
			l.logger.Error("Source query failed", append(fields, zap.Error(err))...)
		}
	case l.level < gormlogger.Warn:
	case l.rowLimit > 0 && rows == l.rowLimit:
		l.logger.Warn("Source row limit reached, rows may be missing", append(fields, zap.Int64("row_limit", l.rowLimit))...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		l.logger.Warn("Slow source query", append(fields, zap.Duration("threshold", l.slowThreshold))...)
	case l.level >= gormlogger.Info:
		l.logger.Debug("Source query", fields...)
	}
}

func (l *GormLogger) traceFields(ctx context.Context, sql string, rows int64, elapsed time.Duration) []zap.Field {
	fields := make([]zap.Field, 0, 6)
	if m := fromTable.FindStringSubmatch(sql); m != nil {
		fields = append(fields, zap.String("table", m[1]))
	}
	fields = append(fields,
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
	)
	if runID := GetRunID(ctx); runID != "" {
		fields = append(fields, zap.String("run_id", runID))
	}
	return fields
}

// MapGormLogLevel translates the application log level into a GORM level.
// Debug and info both trace every statement.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
