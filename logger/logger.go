// Package logger sets up structured logging for the game binaries.
package logger

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/njmcode/nidc2021-textadv/config"
)

// Setup configures the global slog logger from settings. When a log file is
// configured, output goes to a rotating file instead of stderr. The returned
// closer flushes and closes that file.
func Setup(s *config.Settings) (*slog.Logger, io.Closer) {
	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if s.Log.File != "" {
		lj := &lumberjack.Logger{
			Filename:   s.Log.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		w, closer = lj, lj
	}

	logger := New(w, s)
	slog.SetDefault(logger)
	return logger, closer
}

// New builds a logger writing to w in the format the environment calls for.
func New(w io.Writer, s *config.Settings) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: s.Log.Level.Level(),
	}

	if s.Environment == config.EnvProduction {
		// JSON format for production
		handler = slog.NewJSONHandler(w, opts)
	} else {
		// Text format for development
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithError adds error to logger context
func WithError(logger *slog.Logger, err error) *slog.Logger {
	return logger.With("error", err.Error())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
