// Package rotation drives the globe's spin about its Y axis: idle auto-rotation,
// eased turns towards a focused marker, and the cloud shell's parallax.
package rotation

import (
	"math"

	"github.com/poseidonvest/globe/internal/geo"
)

// Defaults
const (
	DefaultLerpFactor          = 0.08
	DefaultEpsilon             = 0.001
	DefaultAutoRotateStep      = 0.0005
	DefaultCloudAutoRotateStep = 0.0007
	DefaultCloudParallax       = 1.05
)

// Config holds per-frame animation constants.
type Config struct {
	LerpFactor          float64 `json:"lerpFactor" mapstructure:"lerpFactor"`
	Epsilon             float64 `json:"epsilon" mapstructure:"epsilon"`
	AutoRotateStep      float64 `json:"autoRotateStep" mapstructure:"autoRotateStep"`
	CloudAutoRotateStep float64 `json:"cloudAutoRotateStep" mapstructure:"cloudAutoRotateStep"`
	CloudParallax       float64 `json:"cloudParallax" mapstructure:"cloudParallax"`
}

// DefaultConfig returns the stock animation constants.
func DefaultConfig() Config {
	return Config{
		LerpFactor:          DefaultLerpFactor,
		Epsilon:             DefaultEpsilon,
		AutoRotateStep:      DefaultAutoRotateStep,
		CloudAutoRotateStep: DefaultCloudAutoRotateStep,
		CloudParallax:       DefaultCloudParallax,
	}
}

// State is the rotation of the globe and its cloud shell.
// Animating is true exactly when a target is set.
type State struct {
	Current   float64 `json:"current"`
	Clouds    float64 `json:"clouds"`
	target    float64
	hasTarget bool
}

// Target returns the pending target angle, if any.
func (s State) Target() (float64, bool) {
	return s.target, s.hasTarget
}

// Animating reports whether an eased turn is in flight.
func (s State) Animating() bool {
	return s.hasTarget
}

// Phase is the animator's current behavior for the next frame.
type Phase int

const (
	PhaseAutoRotate Phase = iota
	PhaseAnimating
	PhaseFrozen
)

func (p Phase) String() string {
	switch p {
	case PhaseAnimating:
		return "animating"
	case PhaseFrozen:
		return "frozen"
	default:
		return "auto-rotate"
	}
}

// Animator owns one globe's rotation state.
type Animator struct {
	cfg   Config
	state State
}

// New creates an animator at rotation zero.
func New(cfg Config) *Animator {
	return &Animator{cfg: cfg}
}

// State returns a copy of the current rotation state.
func (a *Animator) State() State {
	return a.state
}

// Focus starts an eased turn that brings local (a point in the globe's own frame)
// in line with the camera's azimuth, by the shortest path. It supersedes any turn
// in flight and returns the signed delta that will be covered.
func (a *Animator) Focus(local, camera geo.Vec3) float64 {
	pointAngle := geo.Azimuth(local)
	targetAngle := geo.Azimuth(camera)

	desired := targetAngle - pointAngle
	delta := NormalizeAngle(desired - a.state.Current)

	a.state.target = a.state.Current + delta
	a.state.hasTarget = true
	return delta
}

// Cancel drops the pending target immediately, without easing out.
func (a *Animator) Cancel() {
	a.state.target = 0
	a.state.hasTarget = false
}

// Phase reports what Step will do given the current selection.
func (a *Animator) Phase(selected bool) Phase {
	switch {
	case a.state.hasTarget:
		return PhaseAnimating
	case selected:
		return PhaseFrozen
	default:
		return PhaseAutoRotate
	}
}

// Step advances one frame. selected reports whether a marker is currently selected,
// which freezes the globe once no turn is in flight.
func (a *Animator) Step(selected bool) State {
	switch a.Phase(selected) {
	case PhaseAnimating:
		a.state.Current = Lerp(a.state.Current, a.state.target, a.cfg.LerpFactor)
		if math.Abs(a.state.Current-a.state.target) < a.cfg.Epsilon {
			a.state.Current = a.state.target
			a.state.hasTarget = false
			a.state.target = 0
		}
		a.state.Clouds = a.state.Current * a.cfg.CloudParallax
	case PhaseAutoRotate:
		a.state.Current += a.cfg.AutoRotateStep
		a.state.Clouds += a.cfg.CloudAutoRotateStep
	}
	return a.state
}

// Lerp blends from a towards b by factor f.
func Lerp(a, b, f float64) float64 {
	return a + (b-a)*f
}

// NormalizeAngle folds an angle into (-π, π].
func NormalizeAngle(delta float64) float64 {
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	for delta <= -math.Pi {
		delta += 2 * math.Pi
	}
	return delta
}
