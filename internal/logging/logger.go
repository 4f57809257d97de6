// Package logging builds the logrus loggers handed to the download client,
// the caches and the hub. Either construct one here or pass your own.
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logger at the given level with full timestamps. Unknown
// level names fall back to info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(ParseLevel(level))
	return log
}

// Discard returns a logger that writes nowhere. Used as the default when a
// constructor is handed a nil logger.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// ParseLevel converts a level name to a logrus.Level.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// OrDiscard returns log when non-nil and a discarding logger otherwise.
func OrDiscard(log *logrus.Logger) *logrus.Logger {
	if log != nil {
		return log
	}
	return Discard()
}
