// Package scene composes the globe: the marker registry, selection and hover,
// market sessions, rotation, pulses and the event cluster of the selected country.
//
// A Scene is owned by a single goroutine. Frame and TickMarkets are expected to be
// called from the same loop that delivers pointer input.
package scene

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/poseidonvest/globe/internal/cache"
	"github.com/poseidonvest/globe/internal/calendar"
	"github.com/poseidonvest/globe/internal/cluster"
	"github.com/poseidonvest/globe/internal/geo"
	"github.com/poseidonvest/globe/internal/market"
	"github.com/poseidonvest/globe/internal/pulse"
	"github.com/poseidonvest/globe/internal/rotation"
	"github.com/poseidonvest/globe/pkg/core"
)

// DefaultCamera is the camera position the globe is first viewed from.
var DefaultCamera = geo.Vec3{X: 0, Y: 0, Z: 7.5}

// Config holds the scene's tunables.
type Config struct {
	Rotation          rotation.Config
	Layout            cluster.Layout
	ReferenceDistance float64
	Camera            geo.Vec3
}

// DefaultConfig returns the stock scene settings.
func DefaultConfig() Config {
	return Config{
		Rotation:          rotation.DefaultConfig(),
		Layout:            cluster.Default(),
		ReferenceDistance: pulse.DefaultReferenceDistance,
		Camera:            DefaultCamera,
	}
}

// Scene is the explicit state object for one globe.
type Scene struct {
	registry *Registry
	clock    *market.Clock
	animator *rotation.Animator
	layout   cluster.Layout
	layouts  *cache.LayoutCache
	host     Host
	logger   *slog.Logger

	pulses    map[string]pulse.Animation
	reference float64
	camera    geo.Vec3

	events    calendar.Book
	selection string
	hovered   string
	status    market.StatusMap
	sequence  uint64

	// published mirrors selection and animation for readers on other goroutines.
	publishedSelection atomic.Value
	publishedAnimating atomic.Bool

	focusRequests metric.Int64Counter
	transitions   metric.Int64Counter
}

// New builds a scene over reg. clock must evaluate reg.Centers().
// A nil host is replaced by NopHost and a nil logger by slog.Default().
func New(cfg Config, reg *Registry, clock *market.Clock, host Host, logger *slog.Logger) (*Scene, error) {
	if host == nil {
		host = NopHost{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scene{
		registry:  reg,
		clock:     clock,
		animator:  rotation.New(cfg.Rotation),
		layout:    cfg.Layout,
		layouts:   cache.NewLayoutCache(),
		host:      host,
		logger:    logger,
		pulses:    make(map[string]pulse.Animation, reg.Len()),
		reference: cfg.ReferenceDistance,
		camera:    cfg.Camera,
		events:    calendar.Book{},
	}
	s.publishedSelection.Store("")

	for _, m := range reg.Markers() {
		name := m.Base().Name
		s.pulses[name] = pulse.New(name, cfg.ReferenceDistance)
	}

	m := otel.Meter("github.com/poseidonvest/globe/internal/scene")
	var err error
	s.focusRequests, err = m.Int64Counter(
		"scene.focus.requests",
		metric.WithDescription("Focus requests received, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating focus counter: %w", err)
	}
	s.transitions, err = m.Int64Counter(
		"market.transitions",
		metric.WithDescription("Market open/close transitions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transitions counter: %w", err)
	}

	return s, nil
}

// Registry returns the scene's markers.
func (s *Scene) Registry() *Registry {
	return s.registry
}

// Selection returns the selected marker name.
func (s *Scene) Selection() (string, bool) {
	return s.selection, s.selection != ""
}

// Hovered returns the marker under the pointer, if any.
func (s *Scene) Hovered() string {
	return s.hovered
}

// MarketStatus returns a copy of the latest status map.
func (s *Scene) MarketStatus() market.StatusMap {
	return s.status.Clone()
}

// Rotation returns the current rotation state.
func (s *Scene) Rotation() rotation.State {
	return s.animator.State()
}

// Camera returns the last known camera position.
func (s *Scene) Camera() geo.Vec3 {
	return s.camera
}

// SetCamera records the camera position used by later focus requests.
func (s *Scene) SetCamera(camera geo.Vec3) {
	s.camera = camera
}

// Events returns the event collection.
func (s *Scene) Events() calendar.Book {
	return s.events
}

// LayoutStats reports event cluster cache hits and misses since the scene was built.
func (s *Scene) LayoutStats() (hits, misses int) {
	return s.layouts.Stats()
}

// SetEvents replaces the event collection and drops every cached cluster.
func (s *Scene) SetEvents(b calendar.Book) {
	if b == nil {
		b = calendar.Book{}
	}
	s.events = b
	s.layouts.Reset()
	s.logger.Info("event collection replaced", "events", b.Len(), "countries", len(b))
}

// Focus turns the globe so the named marker faces the camera, and selects it.
// Unknown names are ignored.
func (s *Scene) Focus(name string) bool {
	ctx := context.Background()
	m, ok := s.registry.Lookup(name)
	if !ok {
		s.logger.Debug("focus target not registered", "name", name)
		s.focusRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ignored")))
		return false
	}

	b := m.Base()
	lat, lon := b.LatLon()
	local := geo.ToSurfacePoint(lat, lon, 1)
	delta := s.animator.Focus(local, s.camera)
	s.setSelection(name)
	s.publish()

	s.focusRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "accepted")))
	s.logger.Debug("focus requested", "name", name, "delta", delta)
	return true
}

// Select handles a pointer click on a marker. Clicking the selected marker clears
// the selection. Unknown names are ignored.
func (s *Scene) Select(name string) {
	if _, ok := s.registry.Lookup(name); !ok {
		s.logger.Debug("select of unknown marker", "name", name)
		return
	}
	if s.selection == name {
		s.setSelection("")
	} else {
		s.setSelection(name)
	}
	s.publish()
}

// Deselect closes the selected marker's label. A turn in flight keeps going.
func (s *Scene) Deselect() {
	s.setSelection("")
	s.publish()
}

// BackgroundClick clears the selection and drops any turn in flight.
func (s *Scene) BackgroundClick() {
	s.setSelection("")
	s.animator.Cancel()
	s.publish()
}

// HoverEnter handles the pointer entering a marker's hit region.
func (s *Scene) HoverEnter(name string) {
	if _, ok := s.registry.Lookup(name); !ok {
		s.logger.Debug("hover of unknown marker", "name", name)
		return
	}
	s.hovered = name
	s.host.OnHoverEnter(name)
}

// HoverExit handles the pointer leaving a marker.
func (s *Scene) HoverExit() {
	if s.hovered == "" {
		return
	}
	s.hovered = ""
	s.host.OnHoverExit()
}

func (s *Scene) setSelection(name string) {
	if s.selection == name {
		return
	}
	s.selection = name
	s.host.OnSelect(name)
}

func (s *Scene) publish() {
	s.publishedSelection.Store(s.selection)
	s.publishedAnimating.Store(s.animator.State().Animating())
}

// Published returns the selection and animation flag as of the last input or frame.
// Safe to call from any goroutine.
func (s *Scene) Published() (selection string, animating bool) {
	return s.publishedSelection.Load().(string), s.publishedAnimating.Load()
}

// TickMarkets recomputes every center's session and swaps the status map as a whole.
// It returns the centers that changed since the previous tick; the first tick reports none.
func (s *Scene) TickMarkets(now time.Time) []market.Transition {
	next := s.clock.Tick(now)
	prev := s.status
	s.status = next

	if prev == nil {
		s.logger.Info("market status initialised", "status", map[string]bool(next))
		return nil
	}

	changes := market.Diff(s.clock.Centers(), prev, next)
	for _, c := range changes {
		state := "closed"
		if c.Open {
			state = "opened"
		}
		s.logger.Info("market "+state, "center", c.Center)
		s.transitions.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("center", c.Center),
			attribute.String("state", state),
		))
	}
	return changes
}

// Snapshot returns the current status as a storable record.
func (s *Scene) Snapshot(now time.Time) core.MarketSnapshot {
	return core.MarketSnapshot{Time: now, Status: s.status.Clone()}
}

// Frame advances the rotation by one frame and returns the render state.
// Positions are in globe space; the renderer applies Rotation about Y.
func (s *Scene) Frame(elapsed float64, camera geo.Vec3) core.Frame {
	s.camera = camera
	selected := s.selection != ""
	phase := s.animator.Phase(selected)
	state := s.animator.Step(selected)
	s.publish()
	s.sequence++

	f := core.Frame{
		Sequence:  s.sequence,
		Elapsed:   elapsed,
		Rotation:  state.Current,
		Clouds:    state.Clouds,
		Phase:     phase.String(),
		Selection: s.selection,
		Hovered:   s.hovered,
		Markers:   make([]core.MarkerFrame, 0, s.registry.Len()),
	}

	for _, m := range s.registry.Markers() {
		f.Markers = append(f.Markers, s.markerFrame(m, elapsed, state.Current))
	}

	if sel, ok := s.registry.Lookup(s.selection); ok {
		b := sel.Base()
		label := point(b.Position.Add(b.Normal.Scale(LabelOffset)))
		f.Label = &label
		f.EventNodes = s.EventNodes(s.selection)
		if len(f.EventNodes) > 0 {
			stem := point(s.layout.Stem(b.Position, b.Normal))
			f.Stem = &stem
		}
	}

	return f
}

func (s *Scene) markerFrame(m Marker, elapsed, rotationY float64) core.MarkerFrame {
	b := m.Base()

	var active bool
	switch m := m.(type) {
	case *FinancialCenter:
		active = s.status[m.Name]
	case *Country:
		active = s.selection == m.Name
	}

	world := b.Position.RotateY(rotationY)
	sample := s.pulses[b.Name].At(elapsed, active, s.camera, world)

	mx, my := b.MercatorXY()
	return core.MarkerFrame{
		Name:      b.Name,
		Category:  m.Category().String(),
		Color:     b.Color,
		Position:  point(b.Position),
		MercatorX: mx,
		MercatorY: my,
		Active:    active,
		Selected:  s.selection == b.Name,
		Hovered:   s.hovered == b.Name,
		Pulse:     sample.Pulse,
		Scale:     sample.Scale,
		Opacity:   sample.Opacity,
		DotScale:  pulse.DistanceScale(s.camera.DistanceTo(world), s.reference),
	}
}

// EventNodes lays out the high-importance events of a country marker.
// Financial centers and unknown names have none.
func (s *Scene) EventNodes(name string) []core.EventNode {
	m, ok := s.registry.Lookup(name)
	if !ok {
		return nil
	}
	country, ok := m.(*Country)
	if !ok {
		return nil
	}
	return s.layouts.GetOrCompute(name, func() []core.EventNode {
		events := s.events.HighImportance(country.Name)
		arranged := cluster.Arrange(s.layout, country.Position, country.Normal, events)
		nodes := make([]core.EventNode, len(arranged))
		for i, n := range arranged {
			nodes[i] = core.EventNode{
				Event:       n.Item,
				Position:    point(n.Position),
				Summary:     calendar.Summarize(n.Item),
				Description: calendar.Describe(n.Item.Event),
			}
		}
		return nodes
	})
}

func point(v geo.Vec3) core.Point3D {
	return core.Point3D{X: v.X, Y: v.Y, Z: v.Z}
}
