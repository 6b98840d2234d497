package config

import (
	"log/slog"

	"git.home.luguber.info/inful/repoexplorer/internal/foundation/normalization"
)

// LogLevel is a normalized slog level name.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

var logLevelNormalizer = normalization.NewNormalizer(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

var logFormatNormalizer = normalization.NewNormalizer(map[string]LogFormat{
	"text": LogFormatText,
	"json": LogFormatJSON,
}, LogFormatText)

// NormalizeLogLevel maps raw onto a LogLevel, defaulting to info.
func NormalizeLogLevel(raw string) LogLevel { return logLevelNormalizer.Normalize(raw) }

// NormalizeLogFormat maps raw onto a LogFormat, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat { return logFormatNormalizer.Normalize(raw) }

// SlogLevel converts the level to its slog equivalent.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SlogLevel returns the configured level as a slog.Level.
func (c LoggingConfig) SlogLevel() slog.Level {
	return NormalizeLogLevel(c.Level).SlogLevel()
}
