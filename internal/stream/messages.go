package stream

import (
	"encoding/json"
	"time"

	"github.com/poseidonvest/globe/pkg/core"
)

// Message type constants of the renderer protocol.
const (
	TypeHello        = "hello"
	TypeFrame        = "frame"
	TypeMarketStatus = "market_status"
	TypeSelection    = "selection"
	TypeAck          = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Session string          `json:"session"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the renderer's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`
}

// MarkerInfo is the static description of one marker sent in the hello.
type MarkerInfo struct {
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Color    string       `json:"color"`
	Lat      float64      `json:"lat"`
	Lon      float64      `json:"lon"`
	Position core.Point3D `json:"position"`
}

// HelloPayload describes the scene once per connection. It is replayed after
// every reconnect.
type HelloPayload struct {
	Service     string       `json:"service"`
	StartedAt   time.Time    `json:"startedAt"`
	GlobeRadius float64      `json:"globeRadius"`
	Markers     []MarkerInfo `json:"markers"`
}

// SelectionPayload reports the selection and hover state after input.
type SelectionPayload struct {
	Selected string `json:"selected,omitempty"`
	Hovered  string `json:"hovered,omitempty"`
}
