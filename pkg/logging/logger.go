// Package logging wraps zerolog with key/value helpers.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog.Logger
type Logger struct {
	logger zerolog.Logger
}

// Init builds the process logger from configuration and installs it as zerolog's global logger.
// output is "stdout", "stderr" or a file path.
func Init(level, format, output string) (*Logger, error) {
	writer, err := openOutput(output)
	if err != nil {
		return nil, err
	}
	l := NewWriter(writer, level, format)
	log.Logger = l.logger
	return l, nil
}

// NewWriter creates a logger writing to w. format "text" selects console output, anything
// else JSON. Unknown levels fall back to info.
func NewWriter(w io.Writer, level, format string) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if strings.ToLower(format) == "text" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return &Logger{logger: zerolog.New(w).Level(lvl).With().Timestamp().Logger()}
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	return os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) // #nosec G304 -- operator supplied log path
}

// New wraps an existing zerolog logger.
func New(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger}
}

// NewNoopLogger returns a logger that discards everything. Intended for tests.
func NewNoopLogger() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// With returns a child logger that always carries key=value.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.log(l.logger.Debug(), msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...interface{}) {
	l.log(l.logger.Info(), msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.log(l.logger.Warn(), msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...interface{}) {
	l.log(l.logger.Error(), msg, fields)
}

// log adds key/value pairs to event and sends it. Odd trailing values and non-string keys are dropped.
func (l *Logger) log(event *zerolog.Event, msg string, fields []interface{}) {
	if event == nil {
		return
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		switch v := fields[i+1].(type) {
		case error:
			event.AnErr(key, v)
		case string:
			event.Str(key, v)
		case fmt.Stringer:
			event.Stringer(key, v)
		default:
			event.Interface(key, v)
		}
	}
	event.Msg(msg)
}
