// Package stream publishes scene frames and market status to a renderer over
// a WebSocket. Publishing never blocks the frame loop: when the send buffer
// is full the message is dropped and counted.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/poseidonvest/globe/pkg/core"
)

// ErrNotConnected is returned by publish calls made before Connect.
var ErrNotConnected = errors.New("stream not connected")

// Config holds stream publisher configuration.
type Config struct {
	URL        string
	BufferSize int
}

// Publisher streams envelopes to one renderer.
type Publisher struct {
	conn      *connection
	cfg       Config
	session   uuid.UUID
	seq       atomic.Uint64
	connected atomic.Bool
}

// New creates a publisher with a fresh session id.
func New(cfg Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	session := uuid.New()
	return &Publisher{
		conn:    newConnection(cfg.BufferSize, logger.With("session", session.String())),
		cfg:     cfg,
		session: session,
	}
}

// Session returns the session id sent with every envelope.
func (p *Publisher) Session() string {
	return p.session.String()
}

// Connect dials the renderer and sends hello. The hello is replayed after
// every reconnect.
func (p *Publisher) Connect(hello HelloPayload) error {
	data, err := p.marshalEnvelope(TypeHello, hello)
	if err != nil {
		return err
	}
	if err := p.conn.dial(p.cfg.URL, p.Session(), data); err != nil {
		return err
	}
	p.connected.Store(true)
	return nil
}

// Close disconnects from the renderer.
func (p *Publisher) Close() error {
	p.connected.Store(false)
	return p.conn.close()
}

// PublishFrame queues one frame.
func (p *Publisher) PublishFrame(f core.Frame) error {
	return p.sendEnvelope(TypeFrame, f)
}

// PublishMarketStatus queues a market status snapshot.
func (p *Publisher) PublishMarketStatus(snap core.MarketSnapshot) error {
	return p.sendEnvelope(TypeMarketStatus, snap)
}

// PublishSelection queues the selection and hover state.
func (p *Publisher) PublishSelection(sel SelectionPayload) error {
	return p.sendEnvelope(TypeSelection, sel)
}

// Dropped is the number of envelopes discarded because the buffer was full.
func (p *Publisher) Dropped() int {
	return p.conn.dropped.Value()
}

// Acks is the number of acknowledgements received from the renderer.
func (p *Publisher) Acks() int {
	return p.conn.acks.Value()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func (p *Publisher) marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := Envelope{
		Type:    msgType,
		Session: p.Session(),
		Seq:     p.seq.Add(1),
		Payload: raw,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (p *Publisher) sendEnvelope(msgType string, payload any) error {
	if !p.connected.Load() {
		return ErrNotConnected
	}
	data, err := p.marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	p.conn.send(data)
	return nil
}
