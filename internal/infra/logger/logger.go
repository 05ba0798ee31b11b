package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config options for the logger.
type Config struct {
	Env   string // development -> console output; anything else -> JSON
	Level string // trace, debug, info, warn, error
}

// Logger wraps zerolog so it can be injected.
type Logger struct {
	zl zerolog.Logger
}

func New(cfg Config) *Logger {
	var w io.Writer = os.Stdout
	if strings.EqualFold(cfg.Env, "development") {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zl := zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()

	// libraries that log through the global zerolog logger get the same sink
	log.Logger = zl

	return &Logger{zl: zl}
}

// NewWithWriter builds a JSON logger writing to w, mostly for tests.
func NewWithWriter(w io.Writer, level string) *Logger {
	return &Logger{zl: zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// With creates a sub-logger context with fixed fields.
func (l *Logger) With() zerolog.Context {
	return l.zl.With()
}

// Component returns a sub-logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", name).Logger()}
}

// Zerolog exposes the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}
