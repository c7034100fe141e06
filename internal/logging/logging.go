// Package logging builds the dashboard's zerolog loggers and carries them
// through request contexts.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where log lines go. An empty FilePath disables the
// rotating file.
type Options struct {
	Level      string
	Console    bool
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewLogger returns a console logger at info level. The CLI uses it until
// the config directory has been read.
func NewLogger() zerolog.Logger {
	return New(Options{Level: "info", Console: true})
}

// New builds a logger from opts.
func New(opts Options) zerolog.Logger {
	var sinks []io.Writer
	if opts.Console {
		sinks = append(sinks, consoleWriter(os.Stderr))
	}
	if opts.FilePath != "" {
		if w, err := rotatingFile(opts); err == nil {
			sinks = append(sinks, w)
		}
	}

	var out io.Writer = io.Discard
	if len(sinks) == 1 {
		out = sinks[0]
	} else if len(sinks) > 1 {
		out = zerolog.MultiLevelWriter(sinks...)
	}

	return zerolog.New(out).Level(parseLevel(opts.Level)).With().Timestamp().Logger()
}

var levelLabels = map[string]*color.Color{
	zerolog.LevelDebugValue: color.New(color.FgCyan),
	zerolog.LevelInfoValue:  color.New(color.FgGreen),
	zerolog.LevelWarnValue:  color.New(color.FgYellow),
	zerolog.LevelErrorValue: color.New(color.FgRed),
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i interface{}) string {
			level, _ := i.(string)
			label := strings.ToUpper(level)
			if len(label) > 3 {
				label = label[:3]
			}
			if c, ok := levelLabels[level]; ok {
				return c.Sprint(label)
			}
			return label
		},
	}
}

func rotatingFile(opts Options) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}, nil
}

// parseLevel accepts zerolog level names and falls back to info.
func parseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

type ctxKey struct{}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContextOr returns the logger carried by ctx, or def.
func FromContextOr(ctx context.Context, def zerolog.Logger) zerolog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return logger
	}
	return def
}

func WithTicker(logger zerolog.Logger, ticker string) zerolog.Logger {
	return logger.With().Str("ticker", ticker).Logger()
}

func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

// LogAPICall records one provider round trip at debug level.
func LogAPICall(logger zerolog.Logger, provider, operation string, took time.Duration, err error) {
	ev := logger.Debug().
		Str("provider", provider).
		Str("call", operation).
		Dur("took", took)
	if err != nil {
		ev.Err(err).Msg("Provider call failed")
		return
	}
	ev.Msg("Provider call")
}

// LogRequest records a served HTTP request; 4xx log at warn, 5xx at error.
func LogRequest(logger zerolog.Logger, method, path string, status, size int, took time.Duration) {
	ev := logger.Info()
	switch {
	case status >= 500:
		ev = logger.Error()
	case status >= 400:
		ev = logger.Warn()
	}
	ev.Str("method", method).
		Str("path", path).
		Int("status", status).
		Int("bytes", size).
		Dur("took", took).
		Msg("Request served")
}
