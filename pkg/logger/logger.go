package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LevelCritical is rendered as "critical" and sits above error. zerolog has no
// such level, so it is emitted with the fatal level value without exiting.
const LevelCritical = zerolog.FatalLevel

type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
	Critical(message string, args ...any)
	BusinessError(message string, err error, args ...any)
	InternalError(message string, err error, args ...any)
	With(args ...any) Logger
}

type zeroLogger struct {
	base zerolog.Logger
}

func NewFromEnv() Logger {
	env := normalizeValue(os.Getenv("ENV"))
	level := parseLevel(os.Getenv("LOG_LEVEL"), env)
	format := parseFormat(os.Getenv("LOG_FORMAT"))
	return New(os.Stdout, level, format)
}

func New(output io.Writer, level zerolog.Level, format string) Logger {
	if normalizeValue(format) == "text" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339, NoColor: true}
	}

	base := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &zeroLogger{base: base}
}

// Nop discards everything. Tests use it where log output is irrelevant.
func Nop() Logger {
	return &zeroLogger{base: zerolog.Nop()}
}

func (l *zeroLogger) Debug(message string, args ...any) {
	l.base.Debug().Fields(args).Msg(message)
}

func (l *zeroLogger) Info(message string, args ...any) {
	l.base.Info().Fields(args).Msg(message)
}

func (l *zeroLogger) Warn(message string, args ...any) {
	l.base.Warn().Fields(args).Msg(message)
}

func (l *zeroLogger) Error(message string, args ...any) {
	l.base.Error().Fields(args).Msg(message)
}

func (l *zeroLogger) Critical(message string, args ...any) {
	l.base.WithLevel(LevelCritical).Str("severity", "critical").Fields(args).Msg(message)
}

func (l *zeroLogger) BusinessError(message string, err error, args ...any) {
	if err == nil {
		return
	}

	l.base.Warn().Err(err).Fields(args).Msg(message)
}

func (l *zeroLogger) InternalError(message string, err error, args ...any) {
	if err == nil {
		return
	}

	l.base.Error().Err(err).Fields(args).Msg(message)
}

func (l *zeroLogger) With(args ...any) Logger {
	return &zeroLogger{base: l.base.With().Fields(args).Logger()}
}

func parseLevel(value string, env string) zerolog.Level {
	switch normalizeValue(value) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		if env == "development" {
			return zerolog.DebugLevel
		}
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "critical", "fatal":
		return LevelCritical
	default:
		if env == "development" {
			return zerolog.DebugLevel
		}
		return zerolog.InfoLevel
	}
}

func parseFormat(value string) string {
	switch normalizeValue(value) {
	case "json", "text":
		return normalizeValue(value)
	default:
		return "json"
	}
}

func normalizeValue(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
