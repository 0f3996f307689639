// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/poseidonvest/globe/internal/calendar"
	"github.com/poseidonvest/globe/pkg/core"
)

// Backend is the interface all storage implementations must satisfy.
// Storage feeds the event collection into the scene and keeps market status
// history; the scene itself never depends on it.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Economic calendar
	LoadEvents(ctx context.Context) (calendar.Book, error)
	SaveEvents(ctx context.Context, book calendar.Book) error

	// Market status history
	RecordMarketStatus(ctx context.Context, snap core.MarketSnapshot) error
}

// Exportable is an optional interface for backends that write a history file on Close.
type Exportable interface {
	ExportedFilePath() string
}
