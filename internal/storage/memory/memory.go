// internal/storage/memory/memory.go
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/poseidonvest/globe/internal/calendar"
	"github.com/poseidonvest/globe/internal/config"
	"github.com/poseidonvest/globe/pkg/core"
)

// Backend keeps events in a JSON file and market status history in memory,
// exporting the history on Close.
type Backend struct {
	cfg config.MemoryConfig

	book    calendar.Book
	history []core.MarketSnapshot

	startTime      time.Time
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:  cfg,
		book: calendar.Book{},
	}
}

// Init records the session start used to name the export.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.startTime = time.Now().UTC()
	return nil
}

// Close exports the status history, if any was recorded.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.history) == 0 {
		return nil
	}
	return b.exportJSON()
}

// LoadEvents reads the events file. A missing file yields an empty book.
func (b *Backend) LoadEvents(ctx context.Context) (calendar.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.EventsFile == "" {
		return b.book, nil
	}

	data, err := os.ReadFile(b.cfg.EventsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return b.book, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read events file: %w", err)
	}

	var events []core.EconomicEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events file %s: %w", b.cfg.EventsFile, err)
	}
	b.book = calendar.FromEvents(events)
	return b.book, nil
}

// SaveEvents replaces the stored book and rewrites the events file.
func (b *Backend) SaveEvents(ctx context.Context, book calendar.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.book = book
	if b.cfg.EventsFile == "" {
		return nil
	}

	if dir := filepath.Dir(b.cfg.EventsFile); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create events directory: %w", err)
		}
	}
	events := book.Sorted()
	if events == nil {
		events = []core.EconomicEvent{}
	}
	return writeJSON(b.cfg.EventsFile, events)
}

// RecordMarketStatus appends a copy of the snapshot to the history.
func (b *Backend) RecordMarketStatus(ctx context.Context, snap core.MarketSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	status := make(map[string]bool, len(snap.Status))
	for k, v := range snap.Status {
		status[k] = v
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.history = append(b.history, core.MarketSnapshot{Time: snap.Time, Status: status})
	return nil
}

// History returns the recorded snapshots in recording order.
func (b *Backend) History() []core.MarketSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.MarketSnapshot, len(b.history))
	copy(out, b.history)
	return out
}

// ExportedFilePath returns the path of the last export, empty before Close.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.lastExportPath
}
