package gormstore

import (
	"time"

	"gorm.io/datatypes"

	"github.com/poseidonvest/globe/pkg/core"
)

// EventRecord is one economic release row.
type EventRecord struct {
	ID         uint      `gorm:"primarykey;autoIncrement"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	Country    string    `gorm:"size:64;index:idx_event_country_date"`
	Date       time.Time `gorm:"index:idx_event_country_date"`
	Time       string    `gorm:"size:16"`
	Event      string    `gorm:"size:256"`
	Importance string    `gorm:"size:16;index"`
	Actual     *string   `gorm:"size:64"`
	Forecast   *string   `gorm:"size:64"`
}

func (*EventRecord) TableName() string {
	return "economic_events"
}

// StatusRecord is one market status recomputation. Status holds the
// center name to open flag map.
type StatusRecord struct {
	ID        uint           `gorm:"primarykey;autoIncrement"`
	Time      time.Time      `gorm:"index"`
	Status    datatypes.JSON
	OpenCount int
}

func (*StatusRecord) TableName() string {
	return "market_status"
}

// Models is the list migrated by Init.
var Models = []any{
	&EventRecord{},
	&StatusRecord{},
}

func eventToRecord(e core.EconomicEvent) EventRecord {
	return EventRecord{
		Country:    e.Country,
		Date:       e.Date,
		Time:       e.Time,
		Event:      e.Event,
		Importance: string(e.Importance),
		Actual:     e.Actual,
		Forecast:   e.Forecast,
	}
}

func recordToEvent(r EventRecord) core.EconomicEvent {
	return core.EconomicEvent{
		Country:    r.Country,
		Date:       r.Date.UTC(),
		Time:       r.Time,
		Event:      r.Event,
		Importance: core.ParseImportance(r.Importance),
		Actual:     r.Actual,
		Forecast:   r.Forecast,
	}
}
