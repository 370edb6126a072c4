package test

import (
	"fmt"
	"sync"

	"github.com/tigerroll/surfin-etl/pkg/batch/support/util/logger"
)

// LogEntry is one record captured by LogRecorder.
type LogEntry struct {
	Level  logger.LogLevel
	Format string
	Args   []interface{}
}

// Message renders the entry.
func (e LogEntry) Message() string {
	return fmt.Sprintf(e.Format, e.Args...)
}

// LogRecorder is a logger.Logger that keeps every record in memory.
type LogRecorder struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewLogRecorder creates an empty LogRecorder.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{}
}

func (r *LogRecorder) record(level logger.LogLevel, format string, v []interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, LogEntry{Level: level, Format: format, Args: v})
}

func (r *LogRecorder) Debugf(format string, v ...interface{}) { r.record(logger.LevelDebug, format, v) }
func (r *LogRecorder) Infof(format string, v ...interface{})  { r.record(logger.LevelInfo, format, v) }
func (r *LogRecorder) Warnf(format string, v ...interface{})  { r.record(logger.LevelWarn, format, v) }
func (r *LogRecorder) Errorf(format string, v ...interface{}) { r.record(logger.LevelError, format, v) }

// Entries returns a copy of the captured records.
func (r *LogRecorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// AtLevel returns the captured records of the given level.
func (r *LogRecorder) AtLevel(level logger.LogLevel) []LogEntry {
	var out []LogEntry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

var _ logger.Logger = (*LogRecorder)(nil)
