// Package cluster arranges a marker's event labels in a ring floating above it.
package cluster

import (
	"math"

	"github.com/poseidonvest/globe/internal/geo"
)

const (
	DefaultStemHeight    = 0.35
	DefaultClusterRadius = 0.25
	// AngleOffset rotates the ring so four labels form an X rather than a +.
	AngleOffset = math.Pi / 4
	// poleThreshold is the squared length under which cross(up, normal) is treated as degenerate.
	poleThreshold = 1e-6
)

// Layout holds the ring geometry.
type Layout struct {
	StemHeight    float64 `json:"stemHeight" mapstructure:"stemHeight"`
	ClusterRadius float64 `json:"clusterRadius" mapstructure:"clusterRadius"`
}

// Default returns the stock ring geometry.
func Default() Layout {
	return Layout{StemHeight: DefaultStemHeight, ClusterRadius: DefaultClusterRadius}
}

// Node is one placed item.
type Node[T any] struct {
	Item     T
	Position geo.Vec3
}

// TangentFrame returns two unit vectors spanning the plane orthogonal to normal.
// tangentX runs roughly east-west, tangentY roughly north-south. At the poles,
// where normal is parallel to the world up axis, tangentX falls back to world X.
func TangentFrame(normal geo.Vec3) (tangentX, tangentY geo.Vec3) {
	c := geo.Up.Cross(normal)
	if c.LenSq() < poleThreshold {
		tangentX = geo.AxisX
	} else {
		tangentX = c.Normalize()
	}
	tangentY = normal.Cross(tangentX).Normalize()
	return tangentX, tangentY
}

// Stem is the ring centre, stemHeight above anchor along normal.
func (l Layout) Stem(anchor, normal geo.Vec3) geo.Vec3 {
	return anchor.Add(normal.Scale(l.StemHeight))
}

// Positions places n items around anchor. A single item sits on the stem; more are
// spread evenly on a ring of ClusterRadius in the tangent plane.
func (l Layout) Positions(anchor, normal geo.Vec3, n int) []geo.Vec3 {
	if n <= 0 {
		return nil
	}
	stem := l.Stem(anchor, normal)
	if n == 1 {
		return []geo.Vec3{stem}
	}

	tx, ty := TangentFrame(normal)
	out := make([]geo.Vec3, n)
	for i := range out {
		angle := float64(i)/float64(n)*2*math.Pi + AngleOffset
		out[i] = stem.
			Add(tx.Scale(l.ClusterRadius * math.Cos(angle))).
			Add(ty.Scale(l.ClusterRadius * math.Sin(angle)))
	}
	return out
}

// Arrange pairs each item with its position. Order is preserved.
func Arrange[T any](l Layout, anchor, normal geo.Vec3, items []T) []Node[T] {
	positions := l.Positions(anchor, normal, len(items))
	if positions == nil {
		return nil
	}
	nodes := make([]Node[T], len(items))
	for i, item := range items {
		nodes[i] = Node[T]{Item: item, Position: positions[i]}
	}
	return nodes
}
