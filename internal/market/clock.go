// Package market computes which financial centers are open at a given instant.
package market

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"
	_ "time/tzdata"
)

// ErrInvalidCenter is returned when a center table entry cannot be used.
var ErrInvalidCenter = errors.New("invalid financial center")

// Center is one trading venue. OpenHour and CloseHour are decimal local hours (9.5 = 09:30).
type Center struct {
	Name      string  `json:"name" mapstructure:"name" yaml:"name"`
	Timezone  string  `json:"timezone" mapstructure:"timezone" yaml:"timezone"`
	OpenHour  float64 `json:"openHour" mapstructure:"openHour" yaml:"openHour"`
	CloseHour float64 `json:"closeHour" mapstructure:"closeHour" yaml:"closeHour"`
}

// Validate checks the center's static configuration. Time zone resolution is not
// checked here; an unknown zone only makes the center report closed.
func (c Center) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidCenter)
	}
	if c.OpenHour < 0 || c.CloseHour > 24 || c.OpenHour >= c.CloseHour {
		return fmt.Errorf("%w: %s has hours %v-%v", ErrInvalidCenter, c.Name, c.OpenHour, c.CloseHour)
	}
	return nil
}

// StatusMap maps a center name to whether it is open.
type StatusMap map[string]bool

// Clone returns an independent copy.
func (s StatusMap) Clone() StatusMap {
	return maps.Clone(s)
}

// Clock evaluates the session state of an ordered list of centers.
type Clock struct {
	centers   []Center
	locations []*time.Location
	logger    *slog.Logger
}

// NewClock validates the center table and resolves each time zone.
// A malformed table is a configuration error; an unresolvable zone is logged and
// that center is reported closed on every tick.
func NewClock(centers []Center, logger *slog.Logger) (*Clock, error) {
	if logger == nil {
		logger = slog.Default()
	}

	seen := make(map[string]struct{}, len(centers))
	locations := make([]*time.Location, len(centers))
	for i, c := range centers {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %s", ErrInvalidCenter, c.Name)
		}
		seen[c.Name] = struct{}{}

		loc, err := time.LoadLocation(c.Timezone)
		if err != nil || c.Timezone == "" {
			logger.Warn("Unknown time zone, center will report closed", "center", c.Name, "timezone", c.Timezone, "error", err)
			continue
		}
		locations[i] = loc
	}

	return &Clock{
		centers:   append([]Center(nil), centers...),
		locations: locations,
		logger:    logger,
	}, nil
}

// Centers returns the configured centers in order.
func (c *Clock) Centers() []Center {
	return append([]Center(nil), c.centers...)
}

// Tick computes a fresh status map for now. The result is a new map every call.
func (c *Clock) Tick(now time.Time) StatusMap {
	status := make(StatusMap, len(c.centers))
	for i, center := range c.centers {
		loc := c.locations[i]
		if loc == nil {
			status[center.Name] = false
			continue
		}
		status[center.Name] = IsOpen(center, now.In(loc))
	}
	return status
}

// IsOpen reports whether center is in session at local, which must already be in
// the center's zone. Open is inclusive, close exclusive, weekends always closed.
func IsOpen(center Center, local time.Time) bool {
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	t := DecimalHour(local)
	return t >= center.OpenHour && t < center.CloseHour
}

// DecimalHour returns hour + minute/60 of t. Seconds are ignored.
func DecimalHour(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}
