// Package dispatcher routes host commands (":FOCUS: USA") to handlers.
//
// A handler runs inline by default. Buffered handlers run on their own
// goroutine; deferred handlers are queued for the goroutine that owns the
// scene and run when it drains the queue.
package dispatcher

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/poseidonvest/globe/internal/queue"
)

// HandlerFunc handles one event.
type HandlerFunc func(Event) (any, error)

// Logger is the subset of a structured logger the dispatcher writes to.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Call is a deferred handler invocation.
type Call struct {
	Event   Event
	handler HandlerFunc
}

// Run invokes the handler.
func (c Call) Run() (any, error) {
	return c.handler(c.Event)
}

type options struct {
	buffer   int
	blocking bool
	logged   bool
	deferTo  *queue.Queue[Call]
}

// Option configures a registration.
type Option func(*options)

// Buffered runs the handler on a goroutine fed by a channel of size n.
// Dispatch returns "queued" and drops the event when the channel is full.
func Buffered(n int) Option {
	return func(o *options) { o.buffer = n }
}

// Blocking makes a buffered handler wait for room instead of dropping.
func Blocking() Option {
	return func(o *options) { o.blocking = true }
}

// Logged logs each run at debug level and failures at error level.
func Logged() Option {
	return func(o *options) { o.logged = true }
}

// Deferred pushes calls onto q; Dispatch returns "deferred".
// Deferred takes precedence over Buffered.
func Deferred(q *queue.Queue[Call]) Option {
	return func(o *options) { o.deferTo = q }
}

// Dispatcher maps commands to handlers. It is safe for concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	buffers  map[string]chan Event
	// every channel ever created, including ones a later Register replaced
	feeds    []chan Event
	closed   bool
	workers  sync.WaitGroup

	logger  Logger
	metrics *metrics
}

func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		buffers:  make(map[string]chan Event),
		logger:   logger,
	}
	m, err := newMetrics(d.observeBuffers)
	if err != nil {
		return nil, err
	}
	d.metrics = m
	return d, nil
}

func (d *Dispatcher) observeBuffers(observe func(string, int)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for cmd, ch := range d.buffers {
		observe(cmd, len(ch))
	}
}

// Register installs h for command, replacing any earlier handler.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.logged {
		h = d.logged(command, h)
	}
	if o.deferTo != nil {
		h = d.deferredTo(command, o.deferTo, h)
	} else if o.buffer > 0 {
		h = d.buffered(command, o.buffer, o.blocking, h)
	}

	d.mu.Lock()
	d.handlers[command] = h
	d.mu.Unlock()
}

// Dispatch runs the handler registered for e.Command.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	d.mu.RLock()
	h, closed := d.handlers[e.Command], d.closed
	d.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("%w: %s", ErrClosed, e.Command)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	return h(e)
}

// DispatchLine parses line and dispatches it.
func (d *Dispatcher) DispatchLine(line string) (any, error) {
	e, err := ParseLine(line)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(e)
}

func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers[command] != nil
}

// Commands lists the registered commands, sorted.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for cmd := range d.handlers {
		out = append(out, cmd)
	}
	slices.Sort(out)
	return out
}

// Close stops accepting events and waits until every buffered handler has
// finished the events already queued to it.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.feeds {
		close(ch)
	}
	d.mu.Unlock()
	d.workers.Wait()
}

func (d *Dispatcher) deferredTo(command string, q *queue.Queue[Call], h HandlerFunc) HandlerFunc {
	run := func(e Event) (any, error) {
		defer inc(d.metrics.processed, command)
		return h(e)
	}
	return func(e Event) (any, error) {
		if !q.TryPush(Call{Event: e, handler: run}) {
			inc(d.metrics.dropped, command)
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, command)
		}
		inc(d.metrics.deferred, command)
		return "deferred", nil
	}
}

func (d *Dispatcher) buffered(command string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	ch := make(chan Event, size)
	d.mu.Lock()
	d.buffers[command] = ch
	d.feeds = append(d.feeds, ch)
	d.mu.Unlock()

	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for e := range ch {
			_, _ = h(e)
			inc(d.metrics.processed, command)
		}
	}()

	return func(e Event) (any, error) {
		// held across the send so Close cannot close ch underneath it
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.closed {
			return nil, fmt.Errorf("%w: %s", ErrClosed, command)
		}
		if blocking {
			ch <- e
			return "queued", nil
		}
		select {
		case ch <- e:
			return "queued", nil
		default:
			inc(d.metrics.dropped, command)
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, command)
		}
	}
}

func (d *Dispatcher) logged(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		d.logger.Debug("handling command", "command", command, "args", e.Args)
		start := time.Now()
		result, err := h(e)
		took := time.Since(start)
		if err != nil {
			d.logger.Error("command failed", "command", command, "duration", took, "error", err)
			return result, err
		}
		d.logger.Debug("command complete", "command", command, "duration", took)
		return result, nil
	}
}
