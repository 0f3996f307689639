package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poseidonvest/globe/internal/dispatcher"
	"github.com/poseidonvest/globe/pkg/core"
)

var testTime = time.Date(2024, 3, 6, 14, 30, 0, 0, time.UTC)

type chanSink struct {
	got chan core.MarketSnapshot
	err error
}

func newChanSink(err error) *chanSink {
	return &chanSink{got: make(chan core.MarketSnapshot, 4), err: err}
}

func (s *chanSink) RecordMarketStatus(_ context.Context, snap core.MarketSnapshot) error {
	s.got <- snap
	return s.err
}

func (s *chanSink) wait(t *testing.T) core.MarketSnapshot {
	t.Helper()
	select {
	case snap := <-s.got:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for market status")
		return core.MarketSnapshot{}
	}
}

func TestLoop_InputAppliedOnNextFrame(t *testing.T) {
	sc := newTestScene(t, nil)
	d := newTestDispatcher(t)
	l := newLoop(sc, d, 16, nil, 1, discard)

	result, err := d.DispatchLine(":SELECT: USA")
	require.NoError(t, err)
	assert.Equal(t, "deferred", result)

	_, ok := sc.Selection()
	assert.False(t, ok, "selection must wait for the loop")

	f := l.frame(testTime)
	assert.Equal(t, "USA", f.Selection)
	assert.Equal(t, 0, l.input.Len())
	assert.Equal(t, uint64(1), f.Sequence)
}

func TestLoop_InputAppliedInOrder(t *testing.T) {
	sc := newTestScene(t, nil)
	d := newTestDispatcher(t)
	l := newLoop(sc, d, 16, nil, 1, discard)

	for _, line := range []string{":SELECT: USA", ":SELECT: Japan", ":HOVER: Brazil", ":CAMERA: 1,2"} {
		_, err := d.DispatchLine(line)
		require.NoError(t, err, line)
	}
	assert.Equal(t, 4, l.applyInput())

	sel, _ := sc.Selection()
	assert.Equal(t, "Japan", sel)
	assert.Equal(t, "Brazil", sc.Hovered())
}

func TestLoop_InputQueueFull(t *testing.T) {
	sc := newTestScene(t, nil)
	d := newTestDispatcher(t)
	newLoop(sc, d, 1, nil, 1, discard)

	_, err := d.DispatchLine(":SELECT: USA")
	require.NoError(t, err)
	_, err = d.DispatchLine(":SELECT: Japan")
	assert.ErrorIs(t, err, dispatcher.ErrQueueFull)
}

func TestLoop_FrameCadence(t *testing.T) {
	pub := &fakePublisher{}
	sc := newTestScene(t, nil)
	l := newLoop(sc, newTestDispatcher(t), 16, pub, 3, discard)

	for i := range 7 {
		l.frame(testTime.Add(time.Duration(i) * time.Second / 60))
	}

	require.Len(t, pub.frames, 2)
	assert.Equal(t, uint64(3), pub.frames[0].Sequence)
	assert.Equal(t, uint64(6), pub.frames[1].Sequence)
	assert.InDelta(t, 5.0/60, pub.frames[1].Elapsed, 1e-6)
}

func TestLoop_FrameReportsMarkers(t *testing.T) {
	sc := newTestScene(t, nil)
	l := newLoop(sc, newTestDispatcher(t), 16, nil, 1, discard)
	l.marketTick(testTime)

	f := l.frame(testTime)
	assert.Len(t, f.Markers, sc.Registry().Len())
	assert.Equal(t, "auto-rotate", f.Phase)
}

func TestLoop_MarketTickRecordsAndPublishes(t *testing.T) {
	pub := &fakePublisher{}
	sc := newTestScene(t, nil)
	l := newLoop(sc, newTestDispatcher(t), 16, pub, 1, discard)
	sink := newChanSink(nil)
	other := newChanSink(errors.New("write failed"))
	l.registerSinks(sink, other)

	// 14:30 UTC on a Wednesday: London and New York trade, Tokyo and Sydney do not
	snap := l.marketTick(testTime)
	assert.Equal(t, testTime, snap.Time)
	assert.Equal(t, map[string]bool{
		"New York": true,
		"London":   true,
		"Tokyo":    false,
		"Sydney":   false,
	}, snap.Status)

	assert.Equal(t, snap, sink.wait(t))
	assert.Equal(t, snap, other.wait(t))

	require.Len(t, pub.statuses, 1)
	assert.Equal(t, snap, pub.statuses[0])
}

// slowSink takes a while per snapshot and reports whether it was written to after close.
type slowSink struct {
	mu       sync.Mutex
	recorded int
	closed   bool
	late     bool
}

func (s *slowSink) RecordMarketStatus(context.Context, core.MarketSnapshot) error {
	time.Sleep(20 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.late = true
	}
	s.recorded++
	return nil
}

func (s *slowSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func TestLoop_ShutdownFlushesSinks(t *testing.T) {
	sc := newTestScene(t, nil)
	d := newTestDispatcher(t)
	l := newLoop(sc, d, 16, nil, 1, discard)
	sink := &slowSink{}
	l.registerSinks(sink)

	for i := range 3 {
		l.marketTick(testTime.Add(time.Duration(i) * time.Minute))
	}

	d.Close()
	sink.Close()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, 3, sink.recorded)
	assert.False(t, sink.late, "snapshot written after the sink closed")
}

func TestLoop_MarketTickWithoutSinks(t *testing.T) {
	sc := newTestScene(t, nil)
	l := newLoop(sc, newTestDispatcher(t), 16, nil, 1, discard)

	snap := l.marketTick(testTime)
	assert.Len(t, snap.Status, 4)
	assert.Equal(t, snap.Status, map[string]bool(sc.MarketStatus()))
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	pub := &fakePublisher{}
	sc := newTestScene(t, nil)
	l := newLoop(sc, newTestDispatcher(t), 16, pub, 1, discard)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, l.run(ctx, 100, time.Hour))

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.statuses, 1)
	assert.NotEmpty(t, pub.frames)
}

func TestClockTime(t *testing.T) {
	tests := []struct {
		hour float64
		want string
	}{
		{9, "09:00"},
		{9.5, "09:30"},
		{16.5, "16:30"},
		{0, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clockTime(tt.hour))
	}
}
