// Package logging adapts go.uber.org/zap to the core's ports.Logger
// capability, the same logger the teacher's services construct in their
// cmd/main.go entrypoints.
package logging

import "go.uber.org/zap"

// ZapLogger implements ports.Logger on top of a zap.SugaredLogger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// New wraps a pre-built *zap.Logger.
func New(l *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: l.Sugar()}
}

// NewProduction builds a ZapLogger using zap's JSON production config, or
// falls back to a development logger if that construction fails (mirroring
// the teacher's cmd/main.go fallback).
func NewProduction() *ZapLogger {
	l, err := zap.NewProduction()
	if err != nil {
		l, _ = zap.NewDevelopment()
	}
	return New(l)
}

func (z *ZapLogger) Debug(msg string, keysAndValues ...interface{}) {
	z.sugar.Debugw(msg, keysAndValues...)
}

func (z *ZapLogger) Info(msg string, keysAndValues ...interface{}) {
	z.sugar.Infow(msg, keysAndValues...)
}

func (z *ZapLogger) Warn(msg string, keysAndValues ...interface{}) {
	z.sugar.Warnw(msg, keysAndValues...)
}

func (z *ZapLogger) Error(msg string, keysAndValues ...interface{}) {
	z.sugar.Errorw(msg, keysAndValues...)
}

// Sync flushes any buffered log entries; callers should defer it in main.
func (z *ZapLogger) Sync() error {
	return z.sugar.Sync()
}
