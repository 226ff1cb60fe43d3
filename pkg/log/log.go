package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

type ZeroLogger struct {
	logger zerolog.Logger
	name   string
}

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return filepath.Base(file) + ":" + strconv.Itoa(line)
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}

func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// ParseLevel maps a config log level to a zerolog level. An empty level means info.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	if level == "warning" {
		level = "warn"
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

// NewLogger returns a named logger writing JSON lines to output, stderr when nil.
// Notifications go to stdout, so logs stay out of their way.
func NewLogger(name string, output io.Writer) *ZeroLogger {
	if output == nil {
		output = os.Stderr
	}

	logger := zerolog.New(output).
		With().
		Timestamp().
		Str("logger", name).
		Caller().
		Logger()

	return &ZeroLogger{
		logger: logger,
		name:   name,
	}
}

// Named returns a logger sharing the output of l under another name.
func (l *ZeroLogger) Named(name string) *ZeroLogger {
	return &ZeroLogger{
		logger: l.logger.With().Str("logger", name).Logger(),
		name:   name,
	}
}

func (l *ZeroLogger) Name() string {
	return l.name
}

func (l *ZeroLogger) Debugf(format string, args ...any) {
	l.logger.Debug().Msgf(format, args...)
}

func (l *ZeroLogger) Infof(format string, args ...any) {
	l.logger.Info().Msgf(format, args...)
}

func (l *ZeroLogger) Warnf(format string, args ...any) {
	l.logger.Warn().Msgf(format, args...)
}

func (l *ZeroLogger) Errorf(format string, args ...any) {
	l.logger.Error().Msgf(format, args...)
}

var defaultLogger = NewLogger("default", nil)

func Debugf(format string, args ...any) {
	_, file, line, ok := runtime.Caller(1)
	event := defaultLogger.logger.Debug()
	if ok {
		event = event.Str("caller", filepath.Base(file)+":"+strconv.Itoa(line))
	}
	event.Msgf(format, args...)
}

func Infof(format string, args ...any) {
	_, file, line, ok := runtime.Caller(1)
	event := defaultLogger.logger.Info()
	if ok {
		event = event.Str("caller", filepath.Base(file)+":"+strconv.Itoa(line))
	}
	event.Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	_, file, line, ok := runtime.Caller(1)
	event := defaultLogger.logger.Warn()
	if ok {
		event = event.Str("caller", filepath.Base(file)+":"+strconv.Itoa(line))
	}
	event.Msgf(format, args...)
}

func Errorf(format string, args ...any) {
	_, file, line, ok := runtime.Caller(1)
	event := defaultLogger.logger.Error()
	if ok {
		event = event.Str("caller", filepath.Base(file)+":"+strconv.Itoa(line))
	}
	event.Msgf(format, args...)
}

func Fatalf(format string, args ...any) {
	_, file, line, ok := runtime.Caller(1)
	event := defaultLogger.logger.Fatal()
	if ok {
		event = event.Str("caller", filepath.Base(file)+":"+strconv.Itoa(line))
	}
	event.Msgf(format, args...)
	// zerolog will call os.Exit(1) when the event is actually logged
}
