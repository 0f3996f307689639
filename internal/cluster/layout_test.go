package cluster

import (
	"math"
	"testing"

	"github.com/poseidonvest/globe/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anchorAt(lat, lon float64) (geo.Vec3, geo.Vec3) {
	return geo.ToSurfacePoint(lat, lon, 2.01), geo.SurfaceNormal(lat, lon)
}

func TestPositions_Empty(t *testing.T) {
	anchor, normal := anchorAt(39, 35)
	assert.Nil(t, Default().Positions(anchor, normal, 0))
	assert.Nil(t, Arrange(Default(), anchor, normal, []string{}))
}

func TestPositions_SingleSitsOnStem(t *testing.T) {
	l := Default()
	anchor, normal := anchorAt(38.9, -77)

	got := l.Positions(anchor, normal, 1)
	require.Len(t, got, 1)
	assert.Equal(t, l.Stem(anchor, normal), got[0])
	assert.InDelta(t, DefaultStemHeight, got[0].DistanceTo(anchor), 1e-9)
}

func TestPositions_FourFormAnX(t *testing.T) {
	l := Default()
	anchor, normal := anchorAt(51.5, -0.12)
	stem := l.Stem(anchor, normal)
	tx, ty := TangentFrame(normal)

	got := l.Positions(anchor, normal, 4)
	require.Len(t, got, 4)

	want := []float64{math.Pi / 4, 3 * math.Pi / 4, 5 * math.Pi / 4, 7 * math.Pi / 4}
	for i, p := range got {
		off := p.Sub(stem)
		assert.InDelta(t, DefaultClusterRadius, off.Len(), 1e-9, "node %d radius", i)
		assert.InDelta(t, 0, off.Dot(normal), 1e-9, "node %d must lie in the tangent plane", i)

		angle := math.Atan2(off.Dot(ty), off.Dot(tx))
		if angle < 0 {
			angle += 2 * math.Pi
		}
		assert.InDelta(t, want[i], angle, 1e-9, "node %d angle", i)
	}
}

func TestPositions_Deterministic(t *testing.T) {
	anchor, normal := anchorAt(35.68, 139.65)
	a := Default().Positions(anchor, normal, 5)
	b := Default().Positions(anchor, normal, 5)
	assert.Equal(t, a, b)
}

func TestTangentFrame_Orthonormal(t *testing.T) {
	for _, c := range [][2]float64{{0, 0}, {45, 90}, {-60, -120}, {89.9, 10}} {
		normal := geo.SurfaceNormal(c[0], c[1])
		tx, ty := TangentFrame(normal)
		assert.InDelta(t, 1, tx.Len(), 1e-9)
		assert.InDelta(t, 1, ty.Len(), 1e-9)
		assert.InDelta(t, 0, tx.Dot(ty), 1e-9)
		assert.InDelta(t, 0, tx.Dot(normal), 1e-9)
		assert.InDelta(t, 0, ty.Dot(normal), 1e-9)
	}
}

func TestTangentFrame_PoleFallback(t *testing.T) {
	for _, lat := range []float64{90, -90} {
		normal := geo.SurfaceNormal(lat, 0)
		tx, ty := TangentFrame(normal)

		assert.Equal(t, geo.AxisX, tx)
		assert.False(t, math.IsNaN(ty.X) || math.IsNaN(ty.Y) || math.IsNaN(ty.Z))
		assert.InDelta(t, 1, ty.Len(), 1e-9)
	}
}

func TestPositions_PoleHasNoNaN(t *testing.T) {
	anchor, normal := anchorAt(90, 0)
	for _, p := range Default().Positions(anchor, normal, 3) {
		assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z))
		assert.InDelta(t, DefaultClusterRadius, p.DistanceTo(Default().Stem(anchor, normal)), 1e-9)
	}
}

func TestArrange_PreservesOrder(t *testing.T) {
	anchor, normal := anchorAt(40, -74)
	items := []string{"CPI", "NFP", "FOMC"}

	nodes := Arrange(Default(), anchor, normal, items)
	positions := Default().Positions(anchor, normal, 3)
	require.Len(t, nodes, 3)
	for i, n := range nodes {
		assert.Equal(t, items[i], n.Item)
		assert.Equal(t, positions[i], n.Position)
	}
}
