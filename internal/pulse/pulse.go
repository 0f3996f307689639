// Package pulse computes the breathing halo drawn around each marker.
package pulse

import (
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/poseidonvest/globe/internal/geo"
)

const (
	// DefaultReferenceDistance is the camera distance at which markers render at scale 1.
	DefaultReferenceDistance = 4.0
	// MinDistanceScale keeps markers from collapsing when the camera is very close.
	MinDistanceScale = 0.01
	// phaseRange bounds PhaseOffset to [0, phaseRange).
	phaseRange = 100.0
)

// Profile selects the oscillation used for a marker.
type Profile int

const (
	ProfileIdle Profile = iota
	ProfileActive
)

func (p Profile) String() string {
	if p == ProfileActive {
		return "active"
	}
	return "idle"
}

// ProfileFor returns ProfileActive when active is set.
func ProfileFor(active bool) Profile {
	if active {
		return ProfileActive
	}
	return ProfileIdle
}

// Sample is one frame of a marker's halo.
type Sample struct {
	Pulse   float64 `json:"pulse"`
	Scale   float64 `json:"scale"`
	Opacity float64 `json:"opacity"`
}

// PhaseOffset derives a stable per-marker phase offset in [0, 100) from its name.
func PhaseOffset(name string) float64 {
	const buckets = 1 << 20
	h := xxhash.Sum64String(name) % buckets
	return float64(h) / buckets * phaseRange
}

// Evaluate computes the halo for a given phase (elapsed seconds + marker offset),
// before distance compensation.
func Evaluate(profile Profile, phase float64) Sample {
	if profile == ProfileActive {
		p := (math.Sin(phase*3.0) + 1) / 2
		return Sample{
			Pulse:   p,
			Scale:   1.5 + p*2.0,
			Opacity: 0.7 + (1-p)*0.3,
		}
	}
	p := (math.Sin(phase*1.5) + 1) / 2
	return Sample{
		Pulse:   p,
		Scale:   1.0 + p*0.5,
		Opacity: 0.2 + p*0.3,
	}
}

// DistanceScale keeps apparent marker size roughly constant under zoom.
func DistanceScale(distance, reference float64) float64 {
	if reference <= 0 {
		reference = DefaultReferenceDistance
	}
	return math.Max(MinDistanceScale, distance/reference)
}

// Animation is a marker's halo generator. The offset is fixed at creation.
type Animation struct {
	offset    float64
	reference float64
}

// New creates the halo animation for the named marker.
func New(name string, referenceDistance float64) Animation {
	return Animation{
		offset:    PhaseOffset(name),
		reference: referenceDistance,
	}
}

// Offset returns the marker's phase offset.
func (a Animation) Offset() float64 {
	return a.offset
}

// At evaluates the halo at elapsed seconds for a marker at world position, seen from camera.
// The returned scale already includes distance compensation.
func (a Animation) At(elapsed float64, active bool, camera, world geo.Vec3) Sample {
	s := Evaluate(ProfileFor(active), elapsed+a.offset)
	s.Scale *= DistanceScale(camera.DistanceTo(world), a.reference)
	return s
}
