package pulse

import (
	"math"
	"testing"

	"github.com/poseidonvest/globe/internal/geo"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate_ActiveProfile(t *testing.T) {
	tests := []struct {
		name  string
		phase float64
		want  Sample
	}{
		{name: "trough", phase: -math.Pi / 6, want: Sample{Pulse: 0, Scale: 1.5, Opacity: 1.0}},
		{name: "midpoint", phase: 0, want: Sample{Pulse: 0.5, Scale: 2.5, Opacity: 0.85}},
		{name: "crest", phase: math.Pi / 6, want: Sample{Pulse: 1, Scale: 3.5, Opacity: 0.7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(ProfileActive, tt.phase)
			assert.InDelta(t, tt.want.Pulse, got.Pulse, 1e-9)
			assert.InDelta(t, tt.want.Scale, got.Scale, 1e-9)
			assert.InDelta(t, tt.want.Opacity, got.Opacity, 1e-9)
		})
	}
}

func TestEvaluate_IdleProfile(t *testing.T) {
	tests := []struct {
		name  string
		phase float64
		want  Sample
	}{
		{name: "trough", phase: -math.Pi / 3, want: Sample{Pulse: 0, Scale: 1.0, Opacity: 0.2}},
		{name: "midpoint", phase: 0, want: Sample{Pulse: 0.5, Scale: 1.25, Opacity: 0.35}},
		{name: "crest", phase: math.Pi / 3, want: Sample{Pulse: 1, Scale: 1.5, Opacity: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(ProfileIdle, tt.phase)
			assert.InDelta(t, tt.want.Pulse, got.Pulse, 1e-9)
			assert.InDelta(t, tt.want.Scale, got.Scale, 1e-9)
			assert.InDelta(t, tt.want.Opacity, got.Opacity, 1e-9)
		})
	}
}

func TestEvaluate_Bounds(t *testing.T) {
	for phase := 0.0; phase < 20; phase += 0.137 {
		a := Evaluate(ProfileActive, phase)
		assert.True(t, a.Scale >= 1.5 && a.Scale <= 3.5, "active scale %v", a.Scale)
		assert.True(t, a.Opacity >= 0.7 && a.Opacity <= 1.0, "active opacity %v", a.Opacity)

		i := Evaluate(ProfileIdle, phase)
		assert.True(t, i.Scale >= 1.0 && i.Scale <= 1.5, "idle scale %v", i.Scale)
		assert.True(t, i.Opacity >= 0.2 && i.Opacity <= 0.5, "idle opacity %v", i.Opacity)
	}
}

func TestDistanceScale(t *testing.T) {
	assert.InDelta(t, 1.0, DistanceScale(4, 4), 1e-12)
	assert.InDelta(t, 2.0, DistanceScale(8, 4), 1e-12)
	assert.Equal(t, MinDistanceScale, DistanceScale(0, 4))
	assert.InDelta(t, 1.5, DistanceScale(6, 0), 1e-12, "non-positive reference falls back to default")
}

func TestPhaseOffset_StableAndDistinct(t *testing.T) {
	names := []string{"New York", "London", "Tokyo", "Sydney", "USA", "Turkey"}
	seen := make(map[float64]string)
	for _, n := range names {
		off := PhaseOffset(n)
		assert.Equal(t, off, PhaseOffset(n), "offset must be reproducible")
		assert.GreaterOrEqual(t, off, 0.0)
		assert.Less(t, off, 100.0)
		if other, dup := seen[off]; dup {
			t.Errorf("%s and %s share phase offset %v", n, other, off)
		}
		seen[off] = n
	}
}

func TestAnimation_At(t *testing.T) {
	a := New("London", 4)
	assert.Equal(t, PhaseOffset("London"), a.Offset())

	camera := geo.Vec3{Z: 8}
	world := geo.Vec3{}
	got := a.At(1.25, true, camera, world)
	want := Evaluate(ProfileActive, 1.25+a.Offset())

	assert.InDelta(t, want.Scale*2, got.Scale, 1e-12)
	assert.InDelta(t, want.Opacity, got.Opacity, 1e-12)
}

func TestProfile_String(t *testing.T) {
	assert.Equal(t, "active", ProfileFor(true).String())
	assert.Equal(t, "idle", ProfileFor(false).String())
}
