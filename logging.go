package pgqueue

import (
	"io"
	"log/slog"
	"os"
)

// LogFormat selects the slog.Handler a Logger writes through.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// LoggerOption configures NewLogger.
type LoggerOption func(*loggerConfig)

type loggerConfig struct {
	level  slog.Level
	format LogFormat
	output io.Writer
	attrs  []slog.Attr
}

// WithLogLevel sets the minimum level a logger emits.
func WithLogLevel(l slog.Level) LoggerOption {
	return func(c *loggerConfig) { c.level = l }
}

// WithLogFormat selects JSON or text output.
func WithLogFormat(f LogFormat) LoggerOption {
	return func(c *loggerConfig) {
		if f == LogFormatJSON || f == LogFormatText {
			c.format = f
		}
	}
}

// WithLogOutput redirects log output; nil is ignored.
func WithLogOutput(w io.Writer) LoggerOption {
	return func(c *loggerConfig) {
		if w != nil {
			c.output = w
		}
	}
}

// WithLogAttrs attaches static attributes (e.g. a worker's session id) to
// every record a logger writes.
func WithLogAttrs(attrs ...slog.Attr) LoggerOption {
	return func(c *loggerConfig) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// NewLogger builds a *slog.Logger per opts. The default is JSON at info
// level to stdout, the shape a long-running worker process is deployed
// with; callers that want development-friendly text output pass
// WithLogFormat(LogFormatText) explicitly rather than relying on an
// environment preset.
func NewLogger(opts ...LoggerOption) *slog.Logger {
	cfg := &loggerConfig{
		level:  slog.LevelInfo,
		format: LogFormatJSON,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var handler slog.Handler
	handlerOpts := &slog.HandlerOptions{Level: cfg.level}
	if cfg.format == LogFormatText {
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	}
	if len(cfg.attrs) > 0 {
		handler = handler.WithAttrs(cfg.attrs)
	}
	return slog.New(handler)
}
