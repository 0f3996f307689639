package rotation

import (
	"math"
	"testing"

	"github.com/poseidonvest/globe/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var camera = geo.Vec3{Z: 7.5}

// pointAt returns a unit vector in the XZ plane with the given azimuth.
func pointAt(azimuth float64) geo.Vec3 {
	return geo.Vec3{X: math.Sin(azimuth), Z: math.Cos(azimuth)}
}

func angleDiff(a, b float64) float64 {
	return math.Abs(math.Remainder(a-b, 2*math.Pi))
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{5 * math.Pi, math.Pi},
		{0.25 - 4*math.Pi, 0.25},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, NormalizeAngle(tt.in), 1e-9, "in=%v", tt.in)
	}
}

func TestAutoRotate_WhenNothingSelected(t *testing.T) {
	a := New(DefaultConfig())

	for i := 0; i < 10; i++ {
		a.Step(false)
	}

	s := a.State()
	assert.InDelta(t, 10*DefaultAutoRotateStep, s.Current, 1e-12)
	assert.InDelta(t, 10*DefaultCloudAutoRotateStep, s.Clouds, 1e-12)
	assert.False(t, s.Animating())
}

func TestFrozen_WhenSelectedAndIdle(t *testing.T) {
	a := New(DefaultConfig())
	a.Step(false)
	before := a.State()

	for i := 0; i < 5; i++ {
		a.Step(true)
	}

	assert.Equal(t, before, a.State())
	assert.Equal(t, PhaseFrozen, a.Phase(true))
}

func TestFocus_SetsTargetOnShortestPath(t *testing.T) {
	a := New(DefaultConfig())

	delta := a.Focus(pointAt(-2.0), camera)
	assert.InDelta(t, 2.0, delta, 1e-9)

	target, ok := a.State().Target()
	require.True(t, ok)
	assert.InDelta(t, 2.0, target, 1e-9)
	assert.True(t, a.State().Animating())
	assert.Equal(t, PhaseAnimating, a.Phase(false))
}

func TestFocus_DeltaAlwaysWithinHalfTurn(t *testing.T) {
	a := New(DefaultConfig())
	for i := 0; i < 40; i++ {
		a.Step(false)
	}

	for az := -math.Pi; az <= math.Pi; az += 0.1 {
		delta := a.Focus(pointAt(az), camera)
		assert.LessOrEqual(t, delta, math.Pi+1e-12)
		assert.Greater(t, delta, -math.Pi)
		a.Cancel()
	}
}

func TestStep_ErrorDecaysGeometrically(t *testing.T) {
	cfg := DefaultConfig()
	a := New(cfg)

	e0 := a.Focus(pointAt(-2.5), camera)
	require.InDelta(t, 2.5, e0, 1e-9)
	target, _ := a.State().Target()

	for k := 1; k <= 20; k++ {
		s := a.Step(false)
		want := e0 * math.Pow(1-cfg.LerpFactor, float64(k))
		assert.InDelta(t, want, math.Abs(target-s.Current), 1e-9, "frame %d", k)
	}
}

func TestStep_ConvergesWithinExpectedFrames(t *testing.T) {
	cfg := DefaultConfig()
	a := New(cfg)

	e0 := math.Abs(a.Focus(pointAt(-math.Pi+0.01), camera))
	expected := int(math.Ceil(math.Log(cfg.Epsilon/e0) / math.Log(1-cfg.LerpFactor)))

	frames := 0
	for a.State().Animating() && frames < 1000 {
		a.Step(true)
		frames++
	}

	assert.False(t, a.State().Animating())
	assert.InDelta(t, expected, frames, 1)
}

func TestStep_SnapsAndClearsTarget(t *testing.T) {
	a := New(DefaultConfig())
	a.Focus(pointAt(-1), camera)
	target, _ := a.State().Target()

	for a.State().Animating() {
		a.Step(false)
	}

	s := a.State()
	assert.Equal(t, target, s.Current)
	_, ok := s.Target()
	assert.False(t, ok)
	assert.InDelta(t, s.Current*DefaultCloudParallax, s.Clouds, 1e-12)
}

func TestStep_CloudParallaxWhileAnimating(t *testing.T) {
	a := New(DefaultConfig())
	a.Focus(pointAt(-1.5), camera)

	s := a.Step(false)
	assert.True(t, s.Animating())
	assert.InDelta(t, s.Current*1.05, s.Clouds, 1e-12)
}

func TestCancel_DiscardsTargetImmediately(t *testing.T) {
	a := New(DefaultConfig())
	a.Focus(pointAt(-1.5), camera)
	a.Step(true)
	mid := a.State().Current

	a.Cancel()
	assert.False(t, a.State().Animating())

	// a background click also clears selection, so the globe resumes auto-rotation
	a.Step(false)
	assert.InDelta(t, mid+DefaultAutoRotateStep, a.State().Current, 1e-12)
}

func TestFocus_SupersedesInFlightTurn(t *testing.T) {
	a := New(DefaultConfig())
	a.Focus(pointAt(-1.5), camera)
	a.Step(false)
	a.Step(false)

	a.Focus(pointAt(0.5), camera)
	target, ok := a.State().Target()
	require.True(t, ok)
	assert.InDelta(t, 0, angleDiff(target+0.5, 0), 1e-9)
}

func TestFocus_AntipodeTurnsHalfwayAndAligns(t *testing.T) {
	a := New(DefaultConfig())
	for i := 0; i < 300; i++ {
		a.Step(false)
	}
	current := a.State().Current

	// the marker currently faces directly away from the camera
	local := pointAt(math.Pi - current)
	delta := a.Focus(local, camera)
	assert.InDelta(t, math.Pi, math.Abs(delta), 1e-9)

	for a.State().Animating() {
		a.Step(true)
	}

	world := local.RotateY(a.State().Current)
	assert.Less(t, angleDiff(geo.Azimuth(world), geo.Azimuth(camera)), DefaultEpsilon)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "auto-rotate", PhaseAutoRotate.String())
	assert.Equal(t, "animating", PhaseAnimating.String())
	assert.Equal(t, "frozen", PhaseFrozen.String())
}
