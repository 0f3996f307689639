package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/poseidonvest/globe/internal/cache"
)

const (
	defaultBufferSize = 256
	redialAttempts    = 10
	redialCeiling     = 30 * time.Second
	writeTimeout      = 10 * time.Second
)

// connection is one renderer link. A single writer goroutine owns writes; a
// reader counts acks. Either one noticing a failure starts a redial, after
// which the hello is sent again before queued messages.
type connection struct {
	mu     sync.Mutex
	conn   *ws.Conn
	hello  []byte
	closed bool

	sendCh chan []byte
	done   chan struct{}

	target         string
	initialBackoff time.Duration

	dropped cache.Counter
	acks    cache.Counter

	logger *slog.Logger
}

func newConnection(size int, logger *slog.Logger) *connection {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &connection{
		sendCh:         make(chan []byte, size),
		done:           make(chan struct{}),
		initialBackoff: time.Second,
		logger:         logger,
	}
}

// sessionURL adds the session query parameter to rawURL.
func sessionURL(rawURL, session string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("session", session)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// dial opens the link and writes hello before anything queued by send.
func (c *connection) dial(rawURL, session string, hello []byte) error {
	target, err := sessionURL(rawURL, session)
	if err != nil {
		return err
	}
	c.target = target

	conn, err := c.open(hello)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn, c.hello = conn, hello
	c.mu.Unlock()
	c.serve(conn)
	return nil
}

// open dials target and writes hello, closing the socket if the write fails.
func (c *connection) open(hello []byte) (*ws.Conn, error) {
	conn, _, err := ws.DefaultDialer.Dial(c.target, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	if hello != nil {
		if err := write(conn, hello); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to send hello: %w", err)
		}
	}
	return conn, nil
}

func write(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

func (c *connection) serve(conn *ws.Conn) {
	go c.writer(conn)
	go c.reader(conn)
}

func (c *connection) writer(conn *ws.Conn) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := write(conn, data); err != nil {
				c.logger.Warn("WebSocket write error", "error", err)
				go c.redial(conn)
				return
			}
		}
	}
}

func (c *connection) reader(conn *ws.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if c.shuttingDown() {
				return
			}
			c.logger.Warn("WebSocket read error", "error", err)
			go c.redial(conn)
			return
		}

		var ack AckMessage
		if json.Unmarshal(raw, &ack) == nil && ack.Type == TypeAck {
			c.acks.Inc()
			continue
		}
		c.logger.Debug("Ignoring renderer message", "raw", string(raw))
	}
}

func (c *connection) shuttingDown() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// redial replaces failed with a new socket, doubling the wait between tries.
// The reader and writer may both report the same failure; the second call
// finds c.conn already changed and returns.
func (c *connection) redial(failed *ws.Conn) {
	c.mu.Lock()
	if c.closed || c.conn != failed {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	hello := c.hello
	c.mu.Unlock()
	_ = failed.Close()

	wait := c.initialBackoff
	for attempt := 1; attempt <= redialAttempts; attempt++ {
		c.logger.Info("Reconnecting to WebSocket", "attempt", attempt, "backoff", wait)
		select {
		case <-c.done:
			return
		case <-time.After(wait):
		}
		wait = min(wait*2, redialCeiling)

		conn, err := c.open(hello)
		if err != nil {
			c.logger.Warn("Reconnect failed", "attempt", attempt, "error", err)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		c.mu.Unlock()

		c.logger.Info("WebSocket reconnected", "attempt", attempt)
		c.serve(conn)
		return
	}
	c.logger.Error("Giving up on WebSocket", "attempts", redialAttempts)
}

// send queues data for the writer, dropping it when the buffer is full.
func (c *connection) send(data []byte) {
	select {
	case c.sendCh <- data:
	default:
		c.dropped.Inc()
		c.logger.Debug("Send buffer full, message dropped")
	}
}

// close sends a normal-closure frame and stops both loops. It is idempotent.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
	return conn.Close()
}
