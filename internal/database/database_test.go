package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poseidonvest/globe/internal/config"
)

type siteRow struct {
	ID   uint `gorm:"primarykey"`
	Name string
}

func memoryManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(zerolog.Nop())
	require.NoError(t, m.UseSQLite(""))
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestUseSQLite_InMemory(t *testing.T) {
	m := memoryManager(t)
	assert.True(t, m.InMemory())

	require.NoError(t, m.Migrate(&siteRow{}))
	assert.True(t, m.DB.Migrator().HasTable(&siteRow{}))

	require.NoError(t, m.DB.Create(&siteRow{Name: "London"}).Error)
	var got siteRow
	require.NoError(t, m.DB.First(&got).Error)
	assert.Equal(t, "London", got.Name)
}

func TestUseSQLite_File(t *testing.T) {
	m := NewManager(zerolog.Nop())
	require.NoError(t, m.UseSQLite(filepath.Join(t.TempDir(), "events.db")))
	defer m.Close()
	assert.False(t, m.InMemory())
}

func TestOpenSQLite_InMemoryIsolated(t *testing.T) {
	a, err := OpenSQLite("")
	require.NoError(t, err)
	b, err := OpenSQLite("")
	require.NoError(t, err)

	require.NoError(t, a.AutoMigrate(&siteRow{}))
	assert.True(t, a.Migrator().HasTable(&siteRow{}))
	assert.False(t, b.Migrator().HasTable(&siteRow{}))
}

func TestConnect_FallsBackToSQLite(t *testing.T) {
	m := NewManager(zerolog.Nop())
	require.NoError(t, m.Connect(config.DatabaseConfig{
		Host:     "127.0.0.1",
		Port:     "1",
		Username: "postgres",
		Password: "postgres",
		Database: "globe",
	}))
	t.Cleanup(func() { _ = m.Close() })

	assert.True(t, m.InMemory())
	assert.Equal(t, "sqlite", m.DB.Dialector.Name())
}

func TestNotConnected(t *testing.T) {
	m := NewManager(zerolog.Nop())
	assert.ErrorIs(t, m.Migrate(&siteRow{}), errNotConnected)
	assert.ErrorIs(t, m.Dump(), errNotConnected)
	assert.NoError(t, m.Close())
}

func TestDump(t *testing.T) {
	m := memoryManager(t)
	require.NoError(t, m.Migrate(&siteRow{}))
	require.NoError(t, m.DB.Create(&siteRow{Name: "Tokyo"}).Error)

	assert.ErrorIs(t, m.Dump(), errNoDumpPath)

	m.DumpPath = filepath.Join(t.TempDir(), "globe.db")
	require.NoError(t, os.WriteFile(m.DumpPath, []byte("stale"), 0o644))
	require.NoError(t, m.Dump())

	disk, err := OpenSQLite(m.DumpPath)
	require.NoError(t, err)
	var got []siteRow
	require.NoError(t, disk.Find(&got).Error)
	require.Len(t, got, 1)
	assert.Equal(t, "Tokyo", got[0].Name)
}

func TestClose_DumpsInMemory(t *testing.T) {
	m := NewManager(zerolog.Nop())
	require.NoError(t, m.UseSQLite(""))
	require.NoError(t, m.Migrate(&siteRow{}))
	require.NoError(t, m.DB.Create(&siteRow{Name: "Sydney"}).Error)
	m.DumpPath = filepath.Join(t.TempDir(), "globe.db")

	require.NoError(t, m.Close())
	assert.Nil(t, m.DB)
	assert.FileExists(t, m.DumpPath)
	assert.NoError(t, m.Close(), "second close is a no-op")
}
