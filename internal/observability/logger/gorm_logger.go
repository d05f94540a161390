package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// SQLConfig configures SQLLogger.
type SQLConfig struct {
	// Verbose logs every statement at debug level.
	Verbose       bool
	SlowThreshold time.Duration
}

// SQLLogger routes gorm output through zap. Failed statements log at
// error level and slow ones at warn. Record-not-found is never logged since
// lookups use it for absence.
type SQLLogger struct {
	base  *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

// NewSQLLogger builds a gorm logger writing to base.
func NewSQLLogger(base *zap.Logger, cfg SQLConfig) *SQLLogger {
	if base == nil {
		base = zap.NewNop()
	}
	level := gormlogger.Warn
	if cfg.Verbose {
		level = gormlogger.Info
	}
	return &SQLLogger{base: base.Named("sql"), level: level, slow: cfg.SlowThreshold}
}

func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *SQLLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *SQLLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *SQLLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *SQLLogger) message(ctx context.Context, min gormlogger.LogLevel, lvl zapcore.Level, msg string, data []interface{}) {
	if l.level < min {
		return
	}
	if len(data) > 0 {
		msg = fmt.Sprintf(msg, data...)
	}
	WithContext(ctx, l.base).Log(lvl, msg)
}

// Trace logs one executed statement.
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var lvl zapcore.Level
	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound):
		lvl = zapcore.ErrorLevel
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		lvl = zapcore.WarnLevel
	case l.level >= gormlogger.Info:
		lvl = zapcore.DebugLevel
	default:
		return
	}

	sql, rows := fc()
	kind, table := describeSQL(sql)
	fields := []zap.Field{
		zap.String("statement", kind),
		zap.String("table", table),
		zap.Duration("elapsed", elapsed),
		zap.String("sql", strings.TrimSpace(sql)),
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows", rows))
	}
	if lvl == zapcore.ErrorLevel {
		fields = append(fields, zap.Error(err))
	}
	WithContext(ctx, l.base).Log(lvl, "query", fields...)
}

// ParamsFilter drops bound values so phone numbers and password hashes never
// reach the log.
func (l *SQLLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

// describeSQL returns the statement verb and the first table it touches.
func describeSQL(sql string) (string, string) {
	tokens := strings.Fields(strings.TrimSpace(sql))
	kind := "UNKNOWN"
	for i, tok := range tokens {
		word := strings.ToUpper(strings.Trim(tok, "();"))
		switch word {
		case "SELECT", "INSERT", "UPDATE", "DELETE":
			if kind == "UNKNOWN" {
				kind = word
			}
			if word == "UPDATE" {
				return kind, tableName(tokens, i+1)
			}
		case "FROM", "INTO":
			if kind != "UNKNOWN" {
				return kind, tableName(tokens, i+1)
			}
		}
	}
	return kind, ""
}

func tableName(tokens []string, i int) string {
	if i >= len(tokens) {
		return ""
	}
	return strings.Trim(tokens[i], "`\"();")
}

var _ gormlogger.Interface = (*SQLLogger)(nil)
