// Package logger provides the process-wide structured logger, backed by
// zerolog with a printf-style facade used across services.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Log levels accepted by Config.Level.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Config for the default logger.
type Config struct {
	Level   string // debug, info, warn, error (default info)
	Service string
	Output  io.Writer
}

var (
	defaultLogger zerolog.Logger
	once          sync.Once
)

// ParseLevel maps a config string to a zerolog level.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init initializes the default logger. Safe to call more than once; only
// the first call takes effect.
func Init(cfg Config) {
	once.Do(func() {
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		service := cfg.Service
		if service == "" {
			service = "intake"
		}
		zerolog.TimeFieldFormat = time.RFC3339Nano
		defaultLogger = zerolog.New(out).
			Level(ParseLevel(cfg.Level)).
			With().
			Timestamp().
			Str("service", service).
			Logger()
	})
}

// Default returns the default logger, initializing it lazily. A pointer
// is returned because zerolog's level methods take pointer receivers.
func Default() *zerolog.Logger {
	Init(Config{})
	return &defaultLogger
}

// With returns a child logger carrying an extra field.
func With(key, value string) zerolog.Logger {
	return Default().With().Str(key, value).Logger()
}

func Debug(msg string, args ...any) { Default().Debug().Msgf(msg, args...) }
func Info(msg string, args ...any)  { Default().Info().Msgf(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn().Msgf(msg, args...) }
func Error(msg string, args ...any) { Default().Error().Msgf(msg, args...) }
func Fatal(msg string, args ...any) { Default().Fatal().Msgf(msg, args...) }
