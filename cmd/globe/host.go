package main

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poseidonvest/globe/internal/dispatcher"
	"github.com/poseidonvest/globe/internal/geo"
	"github.com/poseidonvest/globe/internal/scene"
	"github.com/poseidonvest/globe/internal/stream"
	"github.com/poseidonvest/globe/pkg/core"
)

// Host commands accepted on stdin, one per line.
const (
	cmdFocus      = ":FOCUS:"
	cmdSelect     = ":SELECT:"
	cmdDeselect   = ":DESELECT:"
	cmdHover      = ":HOVER:"
	cmdUnhover    = ":UNHOVER:"
	cmdBackground = ":BGCLICK:"
	cmdCamera     = ":CAMERA:"

	// internal, dispatched by the loop
	cmdRecordStatus = ":STATUS:RECORD:"
)

var errMissingArg = errors.New("missing argument")

// publisher is the part of stream.Publisher the host process uses.
type publisher interface {
	PublishFrame(core.Frame) error
	PublishMarketStatus(core.MarketSnapshot) error
	PublishSelection(stream.SelectionPayload) error
}

// renderHost forwards selection and hover changes to the renderer stream.
type renderHost struct {
	mu       sync.Mutex
	pub      publisher
	selected string
	hovered  string
	logger   *slog.Logger
}

func newRenderHost(pub publisher, logger *slog.Logger) *renderHost {
	return &renderHost{pub: pub, logger: logger}
}

func (h *renderHost) OnSelect(name string) {
	h.mu.Lock()
	h.selected = name
	h.mu.Unlock()
	h.logger.Info("selection changed", "name", name)
	h.send()
}

func (h *renderHost) OnHoverEnter(name string) {
	h.mu.Lock()
	h.hovered = name
	h.mu.Unlock()
	h.send()
}

func (h *renderHost) OnHoverExit() {
	h.mu.Lock()
	h.hovered = ""
	h.mu.Unlock()
	h.send()
}

func (h *renderHost) state() stream.SelectionPayload {
	h.mu.Lock()
	defer h.mu.Unlock()
	return stream.SelectionPayload{Selected: h.selected, Hovered: h.hovered}
}

func (h *renderHost) send() {
	if h.pub == nil {
		return
	}
	if err := h.pub.PublishSelection(h.state()); err != nil {
		h.logger.Debug("selection not streamed", "error", err)
	}
}

// registerInputHandlers routes pointer and focus commands into sc. Every
// handler is deferred onto the loop's input queue so the scene is only ever
// touched by the loop goroutine.
func registerInputHandlers(d *dispatcher.Dispatcher, sc *scene.Scene, opts ...dispatcher.Option) {
	named := func(apply func(string)) dispatcher.HandlerFunc {
		return func(e dispatcher.Event) (any, error) {
			name := e.Arg(0)
			if name == "" {
				return nil, fmt.Errorf("%w: marker name", errMissingArg)
			}
			apply(name)
			return nil, nil
		}
	}

	d.Register(cmdFocus, func(e dispatcher.Event) (any, error) {
		name := e.Arg(0)
		if name == "" {
			return nil, fmt.Errorf("%w: marker name", errMissingArg)
		}
		return sc.Focus(name), nil
	}, opts...)
	d.Register(cmdSelect, named(sc.Select), opts...)
	d.Register(cmdHover, named(sc.HoverEnter), opts...)
	d.Register(cmdDeselect, func(dispatcher.Event) (any, error) {
		sc.Deselect()
		return nil, nil
	}, opts...)
	d.Register(cmdUnhover, func(dispatcher.Event) (any, error) {
		sc.HoverExit()
		return nil, nil
	}, opts...)
	d.Register(cmdBackground, func(dispatcher.Event) (any, error) {
		sc.BackgroundClick()
		return nil, nil
	}, opts...)
	d.Register(cmdCamera, func(e dispatcher.Event) (any, error) {
		camera, err := geo.Vec3FromString(e.Arg(0))
		if err != nil {
			return nil, fmt.Errorf("camera %q: %w", e.Arg(0), err)
		}
		sc.SetCamera(camera)
		return nil, nil
	}, opts...)
}
