// Package otel builds the OpenTelemetry log pipeline of a globe session.
// Records are exported to the session log file and, when an endpoint is set,
// to an OTLP/HTTP collector.
package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ErrNoExporter is returned by New when telemetry is enabled with neither a
// log writer nor an endpoint.
var ErrNoExporter = errors.New("otel enabled without a log writer or endpoint")

// Config holds OTel configuration.
type Config struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	LogWriter    io.Writer
	Endpoint     string
	Insecure     bool
	// SessionID becomes service.instance.id when set.
	SessionID string
}

// Provider owns the SDK log provider. The zero Provider, returned when
// telemetry is disabled, is valid and does nothing.
type Provider struct {
	logProvider *sdklog.LoggerProvider
	enabled     bool
}

// New builds a provider for cfg.
func New(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	ctx := context.Background()
	res, err := sessionResource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	processors, err := batchProcessors(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := make([]sdklog.LoggerProviderOption, 0, len(processors)+1)
	opts = append(opts, sdklog.WithResource(res))
	for _, proc := range processors {
		opts = append(opts, sdklog.WithProcessor(proc))
	}
	return &Provider{logProvider: sdklog.NewLoggerProvider(opts...), enabled: true}, nil
}

func sessionResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}
	if cfg.SessionID != "" {
		attrs = append(attrs, semconv.ServiceInstanceID(cfg.SessionID))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("building otel resource: %w", err)
	}
	return res, nil
}

// batchProcessors returns one batch processor per configured exporter.
func batchProcessors(ctx context.Context, cfg Config) ([]sdklog.Processor, error) {
	var exporters []sdklog.Exporter

	if cfg.LogWriter != nil {
		exp, err := stdoutlog.New(stdoutlog.WithWriter(cfg.LogWriter), stdoutlog.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("creating file log exporter: %w", err)
		}
		exporters = append(exporters, exp)
	}

	if cfg.Endpoint != "" {
		httpOpts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			httpOpts = append(httpOpts, otlploghttp.WithInsecure())
		}
		exp, err := otlploghttp.New(ctx, httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP log exporter for %s: %w", cfg.Endpoint, err)
		}
		exporters = append(exporters, exp)
	}

	if len(exporters) == 0 {
		return nil, ErrNoExporter
	}

	processors := make([]sdklog.Processor, len(exporters))
	for i, exp := range exporters {
		processors[i] = sdklog.NewBatchProcessor(exp, sdklog.WithExportTimeout(cfg.BatchTimeout))
	}
	return processors, nil
}

// Install makes the provider the global log provider.
func (p *Provider) Install() {
	if p.logProvider != nil {
		global.SetLoggerProvider(p.logProvider)
	}
}

// LoggerProvider is handed to the otelslog bridge. Nil when disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logProvider
}

// Flush exports every buffered record.
func (p *Provider) Flush(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("flushing otel logs: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the provider. Records emitted afterwards are dropped.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down otel logs: %w", err)
	}
	return nil
}

func (p *Provider) Enabled() bool {
	return p.enabled
}
