package logging

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the logging surface used across the pipeline. Components obtain
// one per call via NewLogger(ctx) and attach fields for the show and
// artifact type they are working on.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	WithField(key string, value any) Logger
}

// LoggerFactory lets the embedding application substitute its own logger.
type LoggerFactory interface {
	CreateLogger(ctx context.Context) Logger
}

var (
	factoryMu sync.RWMutex
	factory   LoggerFactory
)

func SetLoggerFactory(f LoggerFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factory = f
}

// NewLogger returns the factory-provided logger when one is installed,
// falling back to a logrus logger bound to ctx.
func NewLogger(ctx context.Context) Logger {
	factoryMu.RLock()
	f := factory
	factoryMu.RUnlock()
	if f != nil {
		return f.CreateLogger(ctx)
	}
	return &logrusLogger{entry: logrus.New().WithContext(ctx)}
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Debugf(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLogger) Infof(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *logrusLogger) Warnf(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *logrusLogger) Errorf(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

func (l *logrusLogger) WithField(key string, value any) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}
