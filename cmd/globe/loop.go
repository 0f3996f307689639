package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/poseidonvest/globe/internal/dispatcher"
	"github.com/poseidonvest/globe/internal/queue"
	"github.com/poseidonvest/globe/internal/scene"
	"github.com/poseidonvest/globe/pkg/core"
)

// statusSink receives every market status recomputation.
type statusSink interface {
	RecordMarketStatus(ctx context.Context, snap core.MarketSnapshot) error
}

const sinkTimeout = 10 * time.Second

// loop is the single goroutine that owns the scene. Input arrives through the
// dispatcher as deferred calls and is applied at the start of the next frame.
type loop struct {
	scene      *scene.Scene
	dispatcher *dispatcher.Dispatcher
	input      *queue.Queue[dispatcher.Call]
	pub        publisher
	frameEvery int
	logger     *slog.Logger

	start  time.Time
	frames uint64
}

func newLoop(sc *scene.Scene, d *dispatcher.Dispatcher, queueSize int, pub publisher, frameEvery int, logger *slog.Logger) *loop {
	l := &loop{
		scene:      sc,
		dispatcher: d,
		input:      queue.NewBounded[dispatcher.Call](queueSize),
		pub:        pub,
		frameEvery: max(1, frameEvery),
		logger:     logger,
	}
	registerInputHandlers(d, sc, dispatcher.Deferred(l.input), dispatcher.Logged())
	return l
}

// registerSinks installs the buffered status recorder. Sinks run on the
// dispatcher's worker goroutine, never on the loop.
func (l *loop) registerSinks(sinks ...statusSink) {
	l.dispatcher.Register(cmdRecordStatus, func(e dispatcher.Event) (any, error) {
		snap, ok := e.Payload.(core.MarketSnapshot)
		if !ok {
			return nil, dispatcher.ErrMalformedCommand
		}
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()

		var errs []error
		for _, s := range sinks {
			if err := s.RecordMarketStatus(ctx, snap); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			l.logger.Error("recording market status failed", "error", err)
			return nil, err
		}
		return nil, nil
	}, dispatcher.Buffered(64))
}

// applyInput runs every pending input call.
func (l *loop) applyInput() int {
	return l.input.Drain(func(c dispatcher.Call) {
		if _, err := c.Run(); err != nil {
			l.logger.Warn("input rejected", "command", c.Event.Command, "error", err)
		}
	})
}

// frame applies pending input and advances the scene by one frame.
func (l *loop) frame(now time.Time) core.Frame {
	if l.start.IsZero() {
		l.start = now
	}
	l.applyInput()

	f := l.scene.Frame(now.Sub(l.start).Seconds(), l.scene.Camera())
	l.frames++
	if l.pub != nil && l.frames%uint64(l.frameEvery) == 0 {
		if err := l.pub.PublishFrame(f); err != nil {
			l.logger.Debug("frame not streamed", "error", err)
		}
	}
	return f
}

// marketTick recomputes the sessions and hands the snapshot to the sinks and the renderer.
func (l *loop) marketTick(now time.Time) core.MarketSnapshot {
	l.scene.TickMarkets(now)
	snap := l.scene.Snapshot(now)

	if l.dispatcher.HasHandler(cmdRecordStatus) {
		_, err := l.dispatcher.Dispatch(dispatcher.Event{
			Command:   cmdRecordStatus,
			Payload:   snap,
			Timestamp: now,
		})
		if err != nil {
			l.logger.Warn("market status not recorded", "error", err)
		}
	}
	if l.pub != nil {
		if err := l.pub.PublishMarketStatus(snap); err != nil {
			l.logger.Debug("market status not streamed", "error", err)
		}
	}
	return snap
}

// run drives frames and market ticks until ctx is done.
func (l *loop) run(ctx context.Context, frameRate int, refresh time.Duration) error {
	frameTicker := time.NewTicker(time.Second / time.Duration(max(1, frameRate)))
	defer frameTicker.Stop()
	marketTicker := time.NewTicker(refresh)
	defer marketTicker.Stop()

	l.marketTick(time.Now())
	l.logger.Info("frame loop started", "frameRate", frameRate, "marketRefresh", refresh)
	l.logger.Debug("host commands registered", "commands", l.dispatcher.Commands())

	for {
		select {
		case <-ctx.Done():
			hits, misses := l.scene.LayoutStats()
			l.logger.Info("frame loop stopped", "frames", l.frames, "layoutHits", hits, "layoutMisses", misses)
			return nil
		case now := <-frameTicker.C:
			l.frame(now)
		case now := <-marketTicker.C:
			l.marketTick(now)
		}
	}
}

// readInput dispatches each line of r until r ends or ctx is done.
// Dispatch only queues the call; the loop applies it.
func readInput(ctx context.Context, r io.Reader, d *dispatcher.Dispatcher, logger *slog.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if _, err := d.DispatchLine(line); err != nil {
			logger.Warn("input line ignored", "line", line, "error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error("reading input failed", "error", err)
	}
}
