package logger

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

type contextKey struct{}

var loggerKey = contextKey{}

var (
	defaultLogger   = New(DefaultConfig())
	defaultLoggerMu sync.RWMutex
)

// GetDefault returns the default logger.
func GetDefault() *Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the default logger used when no logger is found in context.
func SetDefault(l *Logger) {
	if l == nil {
		return
	}
	defaultLoggerMu.Lock()
	defaultLogger = l
	defaultLoggerMu.Unlock()
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Logger{Entry: logrus.NewEntry(log)}
}

// WithContext returns a new context with the logger attached.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context, falling back to the default.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*Logger); ok {
			return l
		}
	}
	return GetDefault()
}

// WithFields attaches fields to the context logger and returns the new context.
func WithFields(ctx context.Context, fields Fields) context.Context {
	return FromContext(ctx).WithFields(fields).WithContext(ctx)
}
