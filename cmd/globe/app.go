package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/poseidonvest/globe/internal/calendar"
	"github.com/poseidonvest/globe/internal/config"
	"github.com/poseidonvest/globe/internal/geo"
	"github.com/poseidonvest/globe/internal/influx"
	"github.com/poseidonvest/globe/internal/logging"
	"github.com/poseidonvest/globe/internal/market"
	intOtel "github.com/poseidonvest/globe/internal/otel"
	"github.com/poseidonvest/globe/internal/scene"
	"github.com/poseidonvest/globe/internal/storage"
	"github.com/poseidonvest/globe/internal/stream"
	"github.com/poseidonvest/globe/pkg/core"
)

const shutdownTimeout = 5 * time.Second

// app holds the process-wide resources shared by every subcommand.
type app struct {
	sessionStart time.Time
	session      string

	slogManager *logging.SlogManager
	logger      *slog.Logger
	logFile     *os.File
	logFilePath string
	otel        *intOtel.Provider
	gelf        *gelf.Writer

	// current is the scene whose state decorates log records once it exists.
	current atomic.Pointer[scene.Scene]

	store  storage.Backend
	influx *influx.Manager
	stream *stream.Publisher
}

// newApp loads configuration and brings up logging and telemetry.
// A missing config file is not fatal; defaults apply.
func newApp(configDir string) *app {
	a := &app{
		sessionStart: time.Now(),
		session:      uuid.NewString(),
		slogManager:  logging.NewSlogManager(),
	}

	a.slogManager.Setup(nil, "info", nil)
	a.logger = a.slogManager.Logger()

	if err := config.Load(configDir); err != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		a.logger.Info("Loaded config", "file", viper.ConfigFileUsed())
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		a.logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
	}

	a.logFilePath = logging.LogFilePath(logsDir, logging.ServiceName, a.sessionStart)
	if _, err := os.Stat(a.logFilePath); err == nil {
		_ = os.Rename(a.logFilePath, a.logFilePath+".old")
	}
	logFile, err := os.OpenFile(a.logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		a.logger.Error("Failed to create/open log file!", "error", err, "path", a.logFilePath)
	} else {
		a.logFile = logFile
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		a.otel, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    a.logWriter(),
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
			SessionID:    a.session,
		})
		if err != nil {
			a.logger.Error("Failed to initialize OTel provider", "error", err)
			a.otel = nil
		} else {
			a.otel.Install()
		}
	}

	var opts []logging.Option
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGELFWriter(gl.Address)
		if err != nil {
			a.logger.Error("Failed to connect to Graylog", "error", err, "address", gl.Address)
		} else {
			a.gelf = w
			opts = append(opts, logging.WithGELF(w))
		}
	}
	opts = append(opts, logging.WithContext(logging.SceneAttrs(a.published)))

	var file io.Writer
	if a.logFile != nil {
		file = a.logFile
	}
	a.slogManager.Setup(file, viper.GetString("logLevel"), a.otelLogProvider(), opts...)
	a.logger = a.slogManager.Logger().With("session", a.session)
	a.logger.Info("Logging to file", "path", a.logFilePath, "otel", a.otel != nil, "graylog", a.gelf != nil)

	return a
}

func (a *app) otelLogProvider() *sdklog.LoggerProvider {
	if a.otel == nil {
		return nil
	}
	return a.otel.LoggerProvider()
}

// logWriter is the session log file, or stderr when it could not be opened.
func (a *app) logWriter() io.Writer {
	if a.logFile != nil {
		return a.logFile
	}
	return os.Stderr
}

// zerolog returns a component logger for the storage and metrics managers.
func (a *app) zerolog(component string) zerolog.Logger {
	return logging.NewZerolog(a.logWriter(), viper.GetString("logLevel"), component).
		With().Str("session", a.session).Logger()
}

func (a *app) published() (string, bool) {
	if sc := a.current.Load(); sc != nil {
		return sc.Published()
	}
	return "", false
}

// openStorage creates the configured backend and loads the event collection from it.
func (a *app) openStorage(ctx context.Context) (calendar.Book, error) {
	storageCfg := config.GetStorageConfig()
	store, err := storage.NewBackend(storageCfg, config.GetDatabaseConfig(), a.zerolog("storage"))
	if err != nil {
		return nil, err
	}
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("initializing %s storage: %w", storageCfg.Type, err)
	}
	a.store = store

	book, err := store.LoadEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	a.logger.Info("Storage initialized", "type", storageCfg.Type, "events", book.Len(), "countries", len(book))
	return book, nil
}

// buildScene assembles the registry, the market clock and the scene around host.
func (a *app) buildScene(host scene.Host) (*scene.Scene, error) {
	regCfg, err := config.GetRegistryConfig()
	if err != nil {
		return nil, err
	}
	reg, err := scene.NewRegistry(regCfg.Radius, regCfg.Centers, regCfg.Countries)
	if err != nil {
		return nil, err
	}
	clock, err := market.NewClock(reg.Centers(), a.logger)
	if err != nil {
		return nil, err
	}
	sceneCfg, err := config.GetSceneConfig()
	if err != nil {
		return nil, err
	}
	sc, err := scene.New(sceneCfg, reg, clock, host, a.logger)
	if err != nil {
		return nil, err
	}
	a.current.Store(sc)
	a.logger.Info("Scene built", "markers", reg.Len(), "centers", len(reg.Centers()))
	return sc, nil
}

// openInflux connects the time-series sink when it is enabled. A nil manager
// means status goes to storage only.
func (a *app) openInflux(ctx context.Context) *influx.Manager {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return nil
	}
	m := influx.NewManager(cfg, a.zerolog("influx"))
	if err := m.Connect(ctx); err != nil {
		a.logger.Error("Failed to set up InfluxDB", "error", err)
		return nil
	}
	a.influx = m
	return m
}

// openStream creates the renderer publisher when streaming is enabled. It is
// not connected until connectStream.
func (a *app) openStream() *stream.Publisher {
	cfg := config.GetStreamConfig()
	if !cfg.Enabled {
		return nil
	}
	a.stream = stream.New(stream.Config{URL: cfg.URL, BufferSize: cfg.BufferSize}, a.logger)
	return a.stream
}

// connectStream dials the renderer. A failed dial is logged and leaves the
// publisher reporting ErrNotConnected.
func (a *app) connectStream(sc *scene.Scene) {
	if a.stream == nil {
		return
	}
	url := config.GetStreamConfig().URL
	if err := a.stream.Connect(helloFor(sc, a.sessionStart)); err != nil {
		a.logger.Error("Failed to connect renderer stream", "error", err, "url", url)
		return
	}
	a.logger.Info("Renderer stream connected", "url", url, "session", a.stream.Session())
}

// helloFor describes every marker of sc for the renderer.
func helloFor(sc *scene.Scene, startedAt time.Time) stream.HelloPayload {
	reg := sc.Registry()
	hello := stream.HelloPayload{
		Service:     logging.ServiceName,
		StartedAt:   startedAt,
		GlobeRadius: config.GetGlobeConfig().Radius,
		Markers:     make([]stream.MarkerInfo, 0, reg.Len()),
	}
	for _, m := range reg.Markers() {
		b := m.Base()
		lat, lon, _ := geo.LatLon(b.Location)
		hello.Markers = append(hello.Markers, stream.MarkerInfo{
			Name:     b.Name,
			Category: m.Category().String(),
			Color:    b.Color,
			Lat:      lat,
			Lon:      lon,
			Position: core.Point3D{X: b.Position.X, Y: b.Position.Y, Z: b.Position.Z},
		})
	}
	return hello
}

// close releases every resource in reverse order of creation.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if a.stream != nil {
		errs = append(errs, a.stream.Close())
	}
	if a.influx != nil {
		errs = append(errs, a.influx.Close())
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		} else if exp, ok := a.store.(storage.Exportable); ok && exp.ExportedFilePath() != "" {
			a.logger.Info("Market status exported", "path", exp.ExportedFilePath())
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		a.logger.Error("Shutdown incomplete", "error", err)
	}
	a.logger.Info("Session ended", "duration", time.Since(a.sessionStart).Round(time.Second))

	if flushErr := a.slogManager.Flush(ctx); flushErr != nil {
		err = errors.Join(err, flushErr)
	}
	if a.otel != nil {
		err = errors.Join(err, a.otel.Shutdown(ctx))
	}
	if a.gelf != nil {
		err = errors.Join(err, a.gelf.Close())
	}
	if a.logFile != nil {
		err = errors.Join(err, a.logFile.Close())
	}
	return err
}
