// Package logging builds the zerolog loggers used across the module.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// EnvLogLevel is the name of the environment variable to change the logging
// level.
const EnvLogLevel = "FROST_LOG"

const defaultLevel = zerolog.Disabled

var logout = zerolog.ConsoleWriter{
	Out:        os.Stderr,
	TimeFormat: time.RFC3339,
	PartsOrder: []string{
		zerolog.TimestampFieldName,
		zerolog.LevelFieldName,
		"component",
		zerolog.MessageFieldName,
	},
	FieldsExclude: []string{"component"},
}

// ParseLevel maps the values accepted by EnvLogLevel to a zerolog level.
// Unknown values fall back to the default, which disables logging.
func ParseLevel(lvl string) zerolog.Level {
	switch lvl {
	case "error":
		return zerolog.ErrorLevel
	case "warn":
		return zerolog.WarnLevel
	case "info":
		return zerolog.InfoLevel
	case "debug":
		return zerolog.DebugLevel
	case "trace":
		return zerolog.TraceLevel
	case "no":
		return zerolog.Disabled
	default:
		return defaultLevel
	}
}

// LevelFromEnv returns the level configured through EnvLogLevel.
func LevelFromEnv() zerolog.Level {
	return ParseLevel(os.Getenv(EnvLogLevel))
}

// New returns a console logger for the named component.
func New(component string, level zerolog.Level) zerolog.Logger {
	return zerolog.New(logout).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}
