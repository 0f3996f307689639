// Package database opens the GORM connection behind the event and status
// store. Postgres is preferred; when it cannot be reached the session runs on
// an in-memory SQLite database that is written to disk on Close.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/poseidonvest/globe/internal/config"
)

var (
	errNoDumpPath   = errors.New("no sqlite dump path")
	errNotConnected = errors.New("database not connected")
)

// memSeq names in-memory databases so two managers never share tables.
var memSeq atomic.Uint64

// Applied to every SQLite connection. The store is rebuilt from the feed, so
// durability is traded for speed.
var sqlitePragmas = []string{
	"PRAGMA journal_mode = MEMORY",
	"PRAGMA synchronous = OFF",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA cache_size = -16000",
}

var quiet = logger.Default.LogMode(logger.Silent)

// Manager owns one database connection.
type Manager struct {
	DB *gorm.DB
	// DumpPath receives an in-memory database on Close. Ignored for Postgres
	// and file-backed SQLite.
	DumpPath string

	pool     *sql.DB
	inMemory bool
	log      zerolog.Logger
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{log: log}
}

// Connect opens Postgres and falls back to in-memory SQLite if the server does
// not answer a ping.
func (m *Manager) Connect(cfg config.DatabaseConfig) error {
	m.log.Debug().Str("host", cfg.Host).Str("port", cfg.Port).Str("database", cfg.Database).
		Msg("Connecting to Postgres")

	db, err := openPostgres(cfg)
	if err == nil {
		err = m.attach(db)
	}
	if err == nil {
		err = m.pool.Ping()
	}
	if err != nil {
		m.log.Warn().Err(err).Msg("Postgres unavailable, using in-memory SQLite")
		return m.UseSQLite("")
	}

	m.pool.SetMaxOpenConns(10)
	m.log.Info().Str("dialect", "postgres").Msg("Connected to database")
	return nil
}

// UseSQLite opens the SQLite file at path, or a fresh in-memory database
// when path is empty.
func (m *Manager) UseSQLite(path string) error {
	db, err := OpenSQLite(path)
	if err != nil {
		return fmt.Errorf("opening sqlite: %w", err)
	}
	if err := m.attach(db); err != nil {
		return err
	}
	m.inMemory = path == ""
	m.log.Info().Str("path", path).Bool("memory", m.inMemory).Msg("Using SQLite")
	return nil
}

func (m *Manager) attach(db *gorm.DB) error {
	pool, err := db.DB()
	if err != nil {
		return fmt.Errorf("accessing sql pool: %w", err)
	}
	m.DB, m.pool = db, pool
	return nil
}

// InMemory reports whether the connection is an in-memory SQLite database.
func (m *Manager) InMemory() bool {
	return m.inMemory
}

// Migrate creates or updates the tables for models.
func (m *Manager) Migrate(models ...any) error {
	if m.DB == nil {
		return errNotConnected
	}
	if err := m.DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("migrating %s schema: %w", m.DB.Dialector.Name(), err)
	}
	m.log.Info().Str("dialect", m.DB.Dialector.Name()).Int("models", len(models)).Msg("Schema migrated")
	return nil
}

// Dump writes the database to DumpPath.
func (m *Manager) Dump() error {
	if m.DB == nil {
		return errNotConnected
	}
	start := time.Now()
	if err := DumpSQLite(m.DB, m.DumpPath); err != nil {
		return err
	}
	m.log.Info().Str("path", m.DumpPath).Dur("took", time.Since(start)).Msg("Dumped SQLite database")
	return nil
}

// Close dumps an in-memory database when DumpPath is set, then closes the pool.
// A failed dump is logged; the pool is closed regardless.
func (m *Manager) Close() error {
	if m.pool == nil {
		return nil
	}
	if m.inMemory && m.DumpPath != "" {
		if err := m.Dump(); err != nil {
			m.log.Error().Err(err).Msg("Failed to dump SQLite database")
		}
	}
	pool := m.pool
	m.pool, m.DB = nil, nil
	return pool.Close()
}

func openPostgres(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 quiet,
	})
}

// OpenSQLite opens path, or a uniquely named in-memory database for "".
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = fmt.Sprintf("file:globe_%d?mode=memory&cache=shared", memSeq.Add(1))
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 quiet,
	})
	if err != nil {
		return nil, err
	}
	for _, p := range sqlitePragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return db, nil
}

// DumpSQLite copies db into a new file at path with VACUUM INTO. An existing
// file is replaced.
func DumpSQLite(db *gorm.DB, path string) error {
	if path == "" {
		return errNoDumpPath
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing old dump: %w", err)
	}
	target := strings.ReplaceAll(path, "'", "''")
	if err := db.Exec("VACUUM INTO '" + target + "'").Error; err != nil {
		return fmt.Errorf("vacuum into %s: %w", path, err)
	}
	return nil
}
