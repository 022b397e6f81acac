package docmodel

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Fields carries structured log fields.
type Fields map[string]interface{}

// Logger wraps a zerolog.Logger with the small surface the package needs.
type Logger struct {
	zl zerolog.Logger
}

var (
	globalLogger     *Logger
	globalLoggerMu   sync.Mutex
	globalLoggerOnce sync.Once
)

func initGlobalLogger() {
	globalLoggerOnce.Do(func() {
		config := GetGlobalConfig()
		globalLogger = NewLogger(os.Stderr, config.LogLevel)
	})
}

func parseLogLevel(levelStr string) zerolog.Level {
	switch levelStr {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a logger writing to w at the given level ("debug", "info",
// "warn", "error", or "off").
func NewLogger(w io.Writer, level string) *Logger {
	if w == nil {
		w = io.Discard
	}
	zl := zerolog.New(w).With().Timestamp().Logger().Level(parseLogLevel(level))
	return &Logger{zl: zl}
}

// SetLevel changes the logger's level.
func (l *Logger) SetLevel(level string) {
	l.zl = l.zl.Level(parseLogLevel(level))
}

// WithField returns a logger with an extra structured field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// WithFields returns a logger with extra structured fields.
func (l *Logger) WithFields(fields Fields) *Logger {
	ctx := l.zl.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zl: ctx.Logger()}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

// SetLogger replaces the global logger.
func SetLogger(logger *Logger) {
	initGlobalLogger()
	globalLoggerMu.Lock()
	globalLogger = logger
	globalLoggerMu.Unlock()
}

// GetLogger returns the global logger.
func GetLogger() *Logger {
	initGlobalLogger()
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	return globalLogger
}

// UpdateLoggerFromConfig updates the global logger based on the current global configuration
func UpdateLoggerFromConfig() {
	config := GetGlobalConfig()
	GetLogger().SetLevel(config.LogLevel)
}
