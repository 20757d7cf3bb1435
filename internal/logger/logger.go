// Package logger provides leveled logging for sitectl.
//
// The logger package outputs debug information to stderr, separate from
// the user-facing output that goes to stdout. It is a thin layer over a
// process-wide logrus logger so that the rest of the code base keeps a
// small, printf-style API.
//
// # Log Levels
//
// Four log levels are supported, in order of severity:
//   - Debug: Detailed information for debugging
//   - Info: General operational information
//   - Warn: Warning conditions that don't prevent operation
//   - Error: Error conditions that affect operation
//
// # Initialization
//
// Initialize the logger based on the --verbose flag:
//
//	logger.Init(verbose)  // verbose=true enables Debug level
//
// # Usage
//
//	logger.Debug("Loading config from %s", path)
//	logger.Warn("Config file not found, using defaults")
//
// Structured logging with fields:
//
//	logger.InfoFields("stage finished", map[string]interface{}{
//	    "site":  "blog",
//	    "stage": "validated",
//	})
//
// Activation code logs through a site-scoped entry:
//
//	log := logger.ForSite("blog")
//	log.WithField("stage", "commit").Info("configuration committed")
//
// # Output Format
//
// Messages use logrus' text formatter without colors:
//
//	time="2026-02-03 10:30:45" level=debug msg="Loading configuration"
//	time="2026-02-03 10:30:45" level=info msg="stage finished" site=blog stage=validated
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level represents a logging severity level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.WarnLevel
	}
}

var (
	mu    sync.Mutex
	level = LevelWarn
	std   = newLogrus()
)

func newLogrus() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(LevelWarn.logrus())
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// Init initializes the global logger with the specified verbosity.
// When verbose is true, Debug and Info levels are enabled.
// When verbose is false, only Warn and Error are shown.
func Init(verbose bool) {
	if verbose {
		SetLevel(LevelDebug)
	} else {
		SetLevel(LevelWarn)
	}
}

// SetLevel sets the minimum log level for the global logger.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
	std.SetLevel(l.logrus())
}

// SetOutput sets the output destination for the global logger.
// A nil writer restores the default, os.Stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	std.SetOutput(w)
}

// GetLevel returns the current log level.
func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return level
}

// Logger returns the underlying logrus logger.
func Logger() *logrus.Logger {
	return std
}

// ForSite returns an entry carrying the site field.
func ForSite(name string) *logrus.Entry {
	return std.WithField("site", name)
}

// Debug logs a debug message.
// Only shown when verbose mode is enabled.
func Debug(format string, args ...interface{}) {
	std.Debugf(format, args...)
}

// Info logs an informational message.
// Only shown when verbose mode is enabled.
func Info(format string, args ...interface{}) {
	std.Infof(format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	std.Errorf(format, args...)
}

// DebugFields logs a debug message with structured fields.
func DebugFields(msg string, fields map[string]interface{}) {
	std.WithFields(logrus.Fields(fields)).Debug(msg)
}

// InfoFields logs an informational message with structured fields.
func InfoFields(msg string, fields map[string]interface{}) {
	std.WithFields(logrus.Fields(fields)).Info(msg)
}

// WarnFields logs a warning message with structured fields.
func WarnFields(msg string, fields map[string]interface{}) {
	std.WithFields(logrus.Fields(fields)).Warn(msg)
}

// ErrorFields logs an error message with structured fields.
func ErrorFields(msg string, fields map[string]interface{}) {
	std.WithFields(logrus.Fields(fields)).Error(msg)
}

// LogError logs an error with additional context message.
func LogError(err error, msg string) {
	if err == nil {
		return
	}
	std.WithError(err).Error(msg)
}
