package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/poseidonvest/globe/internal/config"
	"github.com/poseidonvest/globe/pkg/core"
)

// MeasurementMarketStatus is the measurement written for every center on each tick.
const MeasurementMarketStatus = "market_status"

const retentionSeconds = 60 * 60 * 24 * 90 // 90 days

// ErrDisabled is returned by Connect when influx.enabled is false.
var ErrDisabled = errors.New("influx disabled")

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Logger       zerolog.Logger

	cfg        config.InfluxConfig
	backupFile *os.File
	mu         sync.Mutex
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, log zerolog.Logger) *Manager {
	return &Manager{
		IsValid: false,
		Logger:  log,
		cfg:     cfg,
	}
}

// Connect establishes a connection to InfluxDB. When the server does not answer
// the ping, points go to a gzipped line-protocol backup file instead.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.cfg.URL(),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		m.Logger.Info().Str("backupPath", m.cfg.BackupPath).
			Msg("Failed to initialize InfluxDB client, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.IsValid = true
	m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.BackupWriter != nil {
		return nil
	}
	file, err := os.OpenFile(m.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := m.Client.OrganizationsAPI()

	influxOrg, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.Logger.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
		influxOrg, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", m.cfg.Org).Msg("Error creating organization")
			return err
		}
	}

	if _, err := m.Client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err != nil {
		m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, m.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: retentionSeconds,
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", m.cfg.Bucket).Msg("Error creating bucket")
			return err
		}
	}
	return nil
}

func (m *Manager) createWriter() {
	m.Writer = m.Client.WriteAPI(m.cfg.Org, m.cfg.Bucket)

	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(m.Writer.Errors())
}

// MarketStatusPoints builds one point per center, in name order.
func MarketStatusPoints(snap core.MarketSnapshot) []*influxdb2_write.Point {
	names := make([]string, 0, len(snap.Status))
	for name := range snap.Status {
		names = append(names, name)
	}
	slices.Sort(names)

	points := make([]*influxdb2_write.Point, 0, len(names))
	for _, name := range names {
		open := snap.Status[name]
		openInt := 0
		if open {
			openInt = 1
		}
		points = append(points, influxdb2.NewPoint(
			MeasurementMarketStatus,
			map[string]string{"center": name},
			map[string]any{"open": open, "open_int": openInt},
			snap.Time,
		))
	}
	return points
}

// RecordMarketStatus writes the snapshot's points.
func (m *Manager) RecordMarketStatus(ctx context.Context, snap core.MarketSnapshot) error {
	for _, p := range MarketStatusPoints(snap) {
		if err := m.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// WritePoint writes a point to InfluxDB or backup file.
func (m *Manager) WritePoint(ctx context.Context, point *influxdb2_write.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsValid {
		m.Writer.WritePoint(point)
		return nil
	}
	if m.BackupWriter == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}

	lineProtocol := strings.TrimRight(influxdb2_write.PointToLineProtocol(point, time.Nanosecond), "\n")
	if _, err := m.BackupWriter.Write([]byte(lineProtocol + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes pending writes and closes the backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}

	var errs []error
	if m.BackupWriter != nil {
		errs = append(errs, m.BackupWriter.Close())
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		errs = append(errs, m.backupFile.Close())
		m.backupFile = nil
	}
	m.IsValid = false
	return errors.Join(errs...)
}
