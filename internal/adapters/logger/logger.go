// Package logger implements ports.Logger on top of charmbracelet/log.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"go.trai.ch/mops/internal/core/domain"
	"go.trai.ch/mops/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Logger = (*Logger)(nil)

// Logger implements ports.Logger. The underlying charm logger serialises
// writes, so a Logger is safe for concurrent use.
type Logger struct {
	logger *log.Logger
}

// New creates a Logger writing to stderr at info level.
func New() *Logger {
	return NewWithWriter(os.Stderr)
}

// NewWithWriter creates a Logger writing to w at info level.
func NewWithWriter(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		logger: log.NewWithOptions(w, log.Options{
			Level: log.InfoLevel,
		}),
	}
}

// SetOutput updates the output destination. A nil writer selects stderr.
func (l *Logger) SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	l.logger.SetOutput(w)
}

// SetVerbose toggles debug output.
func (l *Logger) SetVerbose(verbose bool) {
	if verbose {
		l.logger.SetLevel(log.DebugLevel)
		return
	}
	l.logger.SetLevel(log.InfoLevel)
}

// SetLevel sets the minimum level by name: debug, info, warn or error.
func (l *Logger) SetLevel(level string) error {
	if level == "" {
		level = domain.DefaultLogLevel
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrSettingsLoadFailed.Error()), "log_level", level)
	}
	l.logger.SetLevel(lvl)
	return nil
}

// Debug logs a diagnostic message, shown only in verbose mode.
func (l *Logger) Debug(msg string) {
	l.logger.Debug(msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.logger.Warn(msg)
}

// Error logs err together with its cause chain.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}
	l.logger.Error(formatErrorEntries(collectErrorEntries(err)))
}
