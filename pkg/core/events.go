// pkg/core/events.go
package core

import (
	"fmt"
	"strings"
	"time"
)

// Importance is the impact level of a calendar release.
type Importance string

const (
	ImportanceHigh   Importance = "High"
	ImportanceMedium Importance = "Medium"
	ImportanceLow    Importance = "Low"
)

// ParseImportance accepts the feed's spellings ("high", "HIGH", "3") and
// returns ImportanceLow for anything it does not recognise.
func ParseImportance(s string) Importance {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "3":
		return ImportanceHigh
	case "medium", "2":
		return ImportanceMedium
	default:
		return ImportanceLow
	}
}

// EconomicEvent is one scheduled macroeconomic release.
// Actual and Forecast are nil until the feed carries a value.
type EconomicEvent struct {
	Event      string     `json:"event" yaml:"event"`
	Time       string     `json:"time" yaml:"time"`
	Date       time.Time  `json:"date" yaml:"date"`
	Importance Importance `json:"importance" yaml:"importance"`
	Actual     *string    `json:"actual,omitempty" yaml:"actual,omitempty"`
	Forecast   *string    `json:"forecast,omitempty" yaml:"forecast,omitempty"`
	Country    string     `json:"country,omitempty" yaml:"country,omitempty"`
}

// IsHigh reports whether the event takes part in cluster layout.
func (e EconomicEvent) IsHigh() bool {
	return e.Importance == ImportanceHigh
}

// Key identifies an event within a country's list.
func (e EconomicEvent) Key() string {
	return fmt.Sprintf("%s|%s|%s", e.Date.Format(time.DateOnly), e.Time, e.Event)
}
