// Package log provides structured JSON logging with scan-session context.
//
// The engine logs through Logger with map fields, flattened into the entry
// so each key is queryable. CLI surfaces that prefer printf-style calls use
// Logger.Sugar.
package log

import (
	"io"
	"slices"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes JSON entries. Entries carry session_id and source_id once
// bound with WithSession.
type Logger struct {
	zap *zap.Logger
}

// New creates a logger writing JSON to w at the given minimum level.
func New(w io.Writer, level zapcore.Level) *Logger {
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	return &Logger{zap: zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// WithSession returns a logger that stamps every entry with the session identity.
func (l *Logger) WithSession(sessionID, sourceID string) *Logger {
	return &Logger{zap: l.zap.With(
		zap.String("session_id", sessionID),
		zap.String("source_id", sourceID),
	)}
}

// Debug logs at debug level.
func (l *Logger) Debug(message string, fields map[string]any) {
	l.log(zapcore.DebugLevel, message, fields)
}

// Info logs at info level.
func (l *Logger) Info(message string, fields map[string]any) {
	l.log(zapcore.InfoLevel, message, fields)
}

// Warn logs at warn level.
func (l *Logger) Warn(message string, fields map[string]any) {
	l.log(zapcore.WarnLevel, message, fields)
}

// Error logs at error level.
func (l *Logger) Error(message string, fields map[string]any) {
	l.log(zapcore.ErrorLevel, message, fields)
}

func (l *Logger) log(level zapcore.Level, message string, fields map[string]any) {
	ce := l.zap.Check(level, message)
	if ce == nil {
		return
	}
	ce.Write(zapFields(fields)...)
}

// zapFields converts fields in key order so output is stable.
func zapFields(fields map[string]any) []zap.Field {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]zap.Field, len(keys))
	for i, k := range keys {
		out[i] = zap.Any(k, fields[k])
	}
	return out
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Sugar returns a printf-style logger sharing this logger's core and context.
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.zap.Sugar()
}
