package util

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pam-pakkiri/coinpree/internal/common"
)

// Logger provides consistent structured logging. Fields given to NewLogger or With
// are attached to every event.
type Logger struct {
	fields []interface{}
}

// NewLogger creates a Logger carrying the given key/value pairs.
func NewLogger(fields ...interface{}) *Logger {
	return &Logger{fields: fields}
}

// With returns a child logger with additional key/value pairs.
func (l *Logger) With(fields ...interface{}) *Logger {
	merged := make([]interface{}, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{fields: merged}
}

// Error logs an error with the specified error code, message, and optional fields.
func (l *Logger) Error(err error, errorCode common.ErrorCode, errorMsg common.ErrorMessage, msg string, fields ...interface{}) {
	event := log.Error().
		Err(err).
		Str("error_code", errorCode.String()).
		Str("error_message", errorMsg.String())
	l.send(event, msg, fields)
}

// Warn logs a warning with the specified error code, message, and optional fields.
func (l *Logger) Warn(errorCode common.ErrorCode, errorMsg common.ErrorMessage, msg string, fields ...interface{}) {
	event := log.Warn().
		Str("error_code", errorCode.String()).
		Str("error_message", errorMsg.String())
	l.send(event, msg, fields)
}

// Info logs an info message with optional fields.
func (l *Logger) Info(msg string, fields ...interface{}) {
	l.send(log.Info(), msg, fields)
}

// Debug logs a debug message with optional fields.
func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.send(log.Debug(), msg, fields)
}

func (l *Logger) send(event *zerolog.Event, msg string, fields []interface{}) {
	event = addFields(event, l.fields)
	event = addFields(event, fields)
	event.Msg(msg)
}

// addFields attaches key/value pairs; a trailing key without value or a non-string key is ignored.
func addFields(event *zerolog.Event, fields []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		event = event.Interface(key, fields[i+1])
	}
	return event
}

// SetLevel sets the global log level. It reports false for an unknown level name.
func SetLevel(level string) bool {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		return false
	}
	return true
}
