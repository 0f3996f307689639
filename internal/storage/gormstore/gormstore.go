// Package gormstore implements the storage.Backend interface on GORM. It serves
// both Postgres and SQLite; an in-memory SQLite database is dumped to disk with
// VACUUM INTO on Close.
package gormstore

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/poseidonvest/globe/internal/calendar"
	"github.com/poseidonvest/globe/internal/database"
	"github.com/poseidonvest/globe/pkg/core"
)

// Backend stores events and market status through a database.Manager.
type Backend struct {
	mgr *database.Manager
}

// New wraps a connected manager.
func New(mgr *database.Manager) *Backend {
	return &Backend{mgr: mgr}
}

// DB exposes the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.mgr.DB
}

// Init migrates the schema.
func (b *Backend) Init() error {
	return b.mgr.Migrate(Models...)
}

// Close closes the connection. An in-memory database is dumped first when the
// manager has a DumpPath.
func (b *Backend) Close() error {
	return b.mgr.Close()
}

// LoadEvents reads every event ordered by date then time.
func (b *Backend) LoadEvents(ctx context.Context) (calendar.Book, error) {
	var records []EventRecord
	err := b.mgr.DB.WithContext(ctx).
		Order("date ASC").Order("time ASC").Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	book := calendar.Book{}
	for _, r := range records {
		book.Add(recordToEvent(r))
	}
	return book, nil
}

// SaveEvents replaces the stored events with book.
func (b *Backend) SaveEvents(ctx context.Context, book calendar.Book) error {
	records := make([]EventRecord, 0, book.Len())
	for _, e := range book.Sorted() {
		records = append(records, eventToRecord(e))
	}

	return b.mgr.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&EventRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear events: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, 500).Error; err != nil {
			return fmt.Errorf("failed to insert events: %w", err)
		}
		return nil
	})
}

// RecordMarketStatus inserts one status row.
func (b *Backend) RecordMarketStatus(ctx context.Context, snap core.MarketSnapshot) error {
	status, err := json.Marshal(snap.Status)
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}

	open := 0
	for _, v := range snap.Status {
		if v {
			open++
		}
	}

	record := StatusRecord{
		Time:      snap.Time,
		Status:    datatypes.JSON(status),
		OpenCount: open,
	}
	if err := b.mgr.DB.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to record market status: %w", err)
	}
	return nil
}

// StatusHistory returns recorded snapshots in time order.
func (b *Backend) StatusHistory(ctx context.Context) ([]core.MarketSnapshot, error) {
	var records []StatusRecord
	if err := b.mgr.DB.WithContext(ctx).Order("time ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}

	out := make([]core.MarketSnapshot, 0, len(records))
	for _, r := range records {
		snap := core.MarketSnapshot{Time: r.Time.UTC()}
		if err := json.Unmarshal(r.Status, &snap.Status); err != nil {
			return nil, fmt.Errorf("failed to decode status row %d: %w", r.ID, err)
		}
		out = append(out, snap)
	}
	return out, nil
}
