// pkg/core/snapshot.go
package core

import "time"

// Point3D is a position in globe space.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// MarketSnapshot is one atomic market status recomputation.
type MarketSnapshot struct {
	Time   time.Time       `json:"time"`
	Status map[string]bool `json:"status"`
}

// MarkerFrame is the per-frame render state of one marker.
type MarkerFrame struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Color    string  `json:"color"`
	Position Point3D `json:"position"`
	// MercatorX and MercatorY are the EPSG:3857 coordinates for 2D overlays.
	MercatorX float64 `json:"mercatorX"`
	MercatorY float64 `json:"mercatorY"`
	Active    bool    `json:"active"`
	Selected  bool    `json:"selected"`
	Hovered   bool    `json:"hovered"`
	Pulse     float64 `json:"pulse"`
	Scale     float64 `json:"scale"`
	Opacity   float64 `json:"opacity"`
	DotScale  float64 `json:"dotScale"`
}

// EventNode is a clustered event label, recomputed on selection or event change.
type EventNode struct {
	Event       EconomicEvent `json:"event"`
	Position    Point3D       `json:"position"`
	Summary     string        `json:"summary"`
	Description string        `json:"description"`
}

// Frame is everything the renderer needs to draw one frame.
type Frame struct {
	Sequence   uint64        `json:"sequence"`
	Elapsed    float64       `json:"elapsed"`
	Rotation   float64       `json:"rotation"`
	Clouds     float64       `json:"clouds"`
	Phase      string        `json:"phase"`
	Selection  string        `json:"selection,omitempty"`
	Hovered    string        `json:"hovered,omitempty"`
	Label      *Point3D      `json:"label,omitempty"`
	Stem       *Point3D      `json:"stem,omitempty"`
	Markers    []MarkerFrame `json:"markers"`
	EventNodes []EventNode   `json:"eventNodes,omitempty"`
}
