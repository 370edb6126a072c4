// Package logger provides the leveled logging utility shared by the loaders and adapters.
// Records are written through zerolog; every record keeps its raw format template and
// arguments as structured fields next to the rendered message.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel is a type representing the logging level.
type LogLevel int

const (
	// LevelDebug is the log level used for detailed debugging information.
	LevelDebug LogLevel = iota
	// LevelInfo is the log level used for general informational messages.
	LevelInfo
	// LevelWarn is the log level used for potential issues or warning messages.
	LevelWarn
	// LevelError is the log level used for error messages.
	LevelError
	// LevelFatal is the log level used for fatal error messages that cause application termination.
	LevelFatal
)

// String returns the upper-case name of the level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Logger is the sink components report through.
// Loaders accept a Logger so callers (and tests) can observe exactly what is emitted.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// ZerologLogger implements Logger on top of a zerolog.Logger.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger creates a Logger writing to out at the given level.
// A nil out selects a console writer on stderr.
func NewZerologLogger(out io.Writer, level LogLevel) *ZerologLogger {
	if out == nil {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(out).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl}
}

func (l *ZerologLogger) emit(e *zerolog.Event, format string, v []interface{}) {
	if e == nil {
		return
	}
	e.Str("template", format)
	if len(v) > 0 {
		e.Interface("args", v)
	}
	e.Msgf(format, v...)
}

// Debugf writes a DEBUG record.
func (l *ZerologLogger) Debugf(format string, v ...interface{}) { l.emit(l.zl.Debug(), format, v) }

// Infof writes an INFO record.
func (l *ZerologLogger) Infof(format string, v ...interface{}) { l.emit(l.zl.Info(), format, v) }

// Warnf writes a WARN record.
func (l *ZerologLogger) Warnf(format string, v ...interface{}) { l.emit(l.zl.Warn(), format, v) }

// Errorf writes an ERROR record.
func (l *ZerologLogger) Errorf(format string, v ...interface{}) { l.emit(l.zl.Error(), format, v) }

func toZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

var (
	mu       sync.RWMutex
	logLevel = LevelInfo
	output   io.Writer
	std      = NewZerologLogger(nil, LevelInfo)
)

// ParseLevel converts "DEBUG", "INFO", "WARN", "ERROR" or "FATAL" (case-insensitive) to a LogLevel.
// Unknown values yield LevelInfo and false.
func ParseLevel(level string) (LogLevel, bool) {
	switch strings.ToUpper(level) {
	case "DEBUG", "TRACE":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// SetLogLevel sets the global log level.
// If an invalid value is specified, INFO is used and a warning is written.
func SetLogLevel(level string) {
	lvl, ok := ParseLevel(level)
	mu.Lock()
	logLevel = lvl
	std = NewZerologLogger(output, lvl)
	mu.Unlock()
	if !ok {
		Warnf("Unknown log level '%s' specified. Defaulting to INFO level.", level)
	}
}

// SetOutput redirects the global logger. A nil writer restores the stderr console writer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	std = NewZerologLogger(w, logLevel)
}

// Default returns the global Logger.
func Default() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

// Debugf formats and outputs a DEBUG level log message.
func Debugf(format string, v ...interface{}) { Default().Debugf(format, v...) }

// Infof formats and outputs an INFO level log message.
func Infof(format string, v ...interface{}) { Default().Infof(format, v...) }

// Warnf formats and outputs a WARN level log message.
func Warnf(format string, v ...interface{}) { Default().Warnf(format, v...) }

// Errorf formats and outputs an ERROR level log message.
func Errorf(format string, v ...interface{}) { Default().Errorf(format, v...) }

// Fatalf outputs a FATAL level log message, then terminates the program by calling os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	mu.RLock()
	zl := std.zl
	mu.RUnlock()
	zl.WithLevel(zerolog.FatalLevel).Str("template", format).Msgf(format, v...)
	os.Exit(1)
}
