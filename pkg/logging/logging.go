// Package logging wraps zap with a small key/value API shared by every package.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger is a structured logger; keyvals alternate key, value.
type Logger struct {
	s *zap.SugaredLogger
}

// Options selects level ("debug", "info", ...) and encoding ("json" or
// "console"). Zero values mean info and json.
type Options struct {
	Level  string
	Format string
}

// New builds a production logger writing to stderr.
func New(opts Options) *Logger {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(opts.Format, "console") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(opts.Level))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	z, err := cfg.Build()
	if err != nil {
		z, _ = zap.NewProduction()
	}
	return FromZap(z)
}

// FromZap adopts an existing zap logger.
func FromZap(z *zap.Logger) *Logger {
	return &Logger{s: z.Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return FromZap(zap.NewNop())
}

// Test returns a debug logger that writes through t.Log, so output only
// shows up for failing or verbose tests.
func Test(t zaptest.TestingT) *Logger {
	return FromZap(zaptest.NewLogger(t, zaptest.Level(zapcore.DebugLevel)))
}

func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{s: l.s.With(keyvals...)}
}

// Named returns a child logger whose entries carry the component name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{s: l.s.Named(name)}
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.s.Debugw(msg, keyvals...) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.s.Infow(msg, keyvals...) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.s.Warnw(msg, keyvals...) }
func (l *Logger) Error(msg string, keyvals ...any) { l.s.Errorw(msg, keyvals...) }

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func (l *Logger) Sync() {
	_ = l.s.Sync()
}

// ParseLevel maps a LOG_LEVEL value to a zap level; unknown values mean info.
func ParseLevel(level string) zapcore.Level {
	s := strings.ToLower(strings.TrimSpace(level))
	if s == "warning" {
		s = "warn"
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	if lvl > zapcore.ErrorLevel {
		return zapcore.ErrorLevel
	}
	return lvl
}
