package gorm

import (
	"fmt"
	"strings"
	"time"

	gorm_logger "gorm.io/gorm/logger"

	config "github.com/tigerroll/surfin-etl/pkg/batch/core/config"
	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/logger"
)

// NewGormLogger creates a gorm logger writing through the global framework logger.
// INFO and unknown levels keep GORM errors and slow queries (gorm Warn);
// DEBUG and TRACE add every statement.
func NewGormLogger(level string) gorm_logger.Interface {
	var gormLevel gorm_logger.LogLevel
	switch config.LogLevel(strings.ToUpper(level)) {
	case config.LogLevelError, config.LogLevelFatal:
		gormLevel = gorm_logger.Error
	case config.LogLevelDebug, config.LogLevelTrace:
		gormLevel = gorm_logger.Info
	default:
		gormLevel = gorm_logger.Warn
	}

	return gorm_logger.New(
		NewGormWriter(nil),
		gorm_logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// GormWriter redirects GORM log output to a logger.Logger.
type GormWriter struct {
	log logger.Logger
}

// NewGormWriter creates a new instance of GormWriter.
// A nil log writes to logger.Default() as it is at each call.
func NewGormWriter(log logger.Logger) *GormWriter {
	return &GormWriter{log: log}
}

func (w *GormWriter) sink() logger.Logger {
	if w.log != nil {
		return w.log
	}
	return logger.Default()
}

// Printf implements the gorm logger.Writer interface.
// Statement traces ("[1.2ms] [rows:3] INSERT ...") go to DEBUG, everything else to WARN.
func (w *GormWriter) Printf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	if isStatementTrace(msg) {
		w.sink().Debugf("[GORM] %s", msg)
		return
	}
	w.sink().Warnf("[GORM] %s", msg)
}

func isStatementTrace(msg string) bool {
	if !strings.Contains(msg, "[") || !strings.Contains(msg, "]") {
		return false
	}
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.Contains(msg, verb) {
			return true
		}
	}
	return false
}
