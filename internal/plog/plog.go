// Package plog is a thin, keyed-logging wrapper over zap, matching the
// call shape used throughout the rest of this codebase:
// log.Warn("message", "key", value, "key2", value2).
package plog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a keyed logger handed to its users explicitly rather than
// reached through a global; in this module the demo command uses it.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New builds a Logger writing human-readable, colorless console output at
// or above level to stderr.
func New(level zapcore.Level) *Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(os.Stderr), level)
	return &Logger{sugar: zap.New(core).Sugar()}
}

// Discard builds a Logger that drops everything, for tests that need a
// Logger value but don't care about its output.
func Discard() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func (l *Logger) Debug(msg string, keyvals ...interface{}) { l.sugar.Debugw(msg, keyvals...) }
func (l *Logger) Info(msg string, keyvals ...interface{})  { l.sugar.Infow(msg, keyvals...) }
func (l *Logger) Warn(msg string, keyvals ...interface{})  { l.sugar.Warnw(msg, keyvals...) }
func (l *Logger) Error(msg string, keyvals ...interface{}) { l.sugar.Errorw(msg, keyvals...) }

// With returns a Logger that prepends keyvals to every subsequent call,
// useful for tagging a component ("space", id) across its lifetime.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keyvals...)}
}

// Sync flushes any buffered log entries; call before process exit.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
