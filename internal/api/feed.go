package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/poseidonvest/globe/pkg/core"
)

// ErrMalformedFeed is returned when the response is neither an event array
// nor an object wrapping one under "data".
var ErrMalformedFeed = errors.New("malformed calendar feed")

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

type feedEvent struct {
	Date       string          `json:"date"`
	Time       string          `json:"time"`
	Country    string          `json:"country"`
	Event      string          `json:"event"`
	Importance json.RawMessage `json:"importance"`
	Actual     json.RawMessage `json:"actual"`
	Forecast   json.RawMessage `json:"forecast"`
}

type feedWrapper struct {
	Data []feedEvent `json:"data"`
}

// DecodeFeed parses the calendar response. Rows without a country, an event
// name or a parseable date are skipped.
func DecodeFeed(data []byte) ([]core.EconomicEvent, error) {
	data = bytes.TrimSpace(data)
	var rows []feedEvent
	switch {
	case len(data) > 0 && data[0] == '[':
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
		}
	case len(data) > 0 && data[0] == '{':
		var w feedWrapper
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
		}
		rows = w.Data
	default:
		return nil, ErrMalformedFeed
	}

	events := make([]core.EconomicEvent, 0, len(rows))
	for _, r := range rows {
		e, ok := r.toEvent()
		if ok {
			events = append(events, e)
		}
	}
	return events, nil
}

func (r feedEvent) toEvent() (core.EconomicEvent, bool) {
	if r.Country == "" || r.Event == "" {
		return core.EconomicEvent{}, false
	}
	date, hasClock, err := parseDate(r.Date)
	if err != nil {
		return core.EconomicEvent{}, false
	}

	clock := strings.TrimSpace(r.Time)
	if clock == "" && hasClock {
		clock = date.Format("15:04")
	}

	return core.EconomicEvent{
		Event:      strings.TrimSpace(r.Event),
		Time:       clock,
		Date:       time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Importance: core.ParseImportance(rawString(r.Importance)),
		Actual:     optionalString(r.Actual),
		Forecast:   optionalString(r.Forecast),
		Country:    strings.TrimSpace(r.Country),
	}, true
}

func parseDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), layout != time.DateOnly, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognised date %q", s)
}

// rawString renders a JSON string or number as text. null and absent are empty.
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return n.String()
	}
	return ""
}

func optionalString(raw json.RawMessage) *string {
	s := rawString(raw)
	if s == "" {
		return nil
	}
	return &s
}
