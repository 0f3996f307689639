// Package logging sets up the session's structured loggers: log/slog for the
// scene and host loop, zerolog for the storage and metrics managers.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ServiceName is the name logs are reported under.
const ServiceName = "globe"

// swapped in tests
var (
	osStdout io.Writer = os.Stdout
	osPipe             = os.Pipe
)

// SlogManager owns the process slog.Logger. Setup may be called again once the
// log file and telemetry are ready; the previous logger is replaced.
type SlogManager struct {
	logger      *slog.Logger
	logProvider *sdklog.LoggerProvider
}

func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// Option adds an output or decoration to Setup.
type Option func(*setupOptions)

type setupOptions struct {
	gelf    io.Writer
	context ContextProvider
}

// WithGELF ships every record to Graylog through w, usually a *gelf.Writer.
func WithGELF(w io.Writer) Option {
	return func(o *setupOptions) {
		o.gelf = w
	}
}

// WithContext attaches the attributes returned by p to every record.
func WithContext(p ContextProvider) Option {
	return func(o *setupOptions) {
		o.context = p
	}
}

// NewGELFWriter dials a Graylog UDP input.
func NewGELFWriter(addr string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, err
	}
	w.Facility = ServiceName
	return w, nil
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// parseLevel is case-insensitive; anything unknown is info.
func parseLevel(level string) slog.Level {
	if lvl, ok := levels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// utcTime renders record times as RFC 3339 in UTC.
func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
	}
	return a
}

// Setup builds the logger. Text records go to file, or to stdout when file is
// nil. A non-nil provider adds the OpenTelemetry bridge; options add Graylog
// output and per-record scene attributes.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider, opts ...Option) {
	var o setupOptions
	for _, opt := range opts {
		opt(&o)
	}

	handlerOpts := &slog.HandlerOptions{Level: parseLevel(level), ReplaceAttr: utcTime}

	text := file
	if text == nil {
		text = osStdout
	}
	outputs := []slog.Handler{slog.NewTextHandler(text, handlerOpts)}
	if o.gelf != nil {
		outputs = append(outputs, slog.NewJSONHandler(o.gelf, handlerOpts))
	}
	if provider != nil {
		outputs = append(outputs, otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(provider)))
	}

	m.logProvider = provider
	m.logger = slog.New(Decorate(Tee(outputs...), o.context))
	m.logger.Info("Logging initialized", "level", level, "outputs", len(outputs))
}

// Logger returns the configured logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush pushes buffered OpenTelemetry records out.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider == nil {
		return nil
	}
	return m.logProvider.ForceFlush(ctx)
}
