package scene

import (
	"github.com/peterstace/simplefeatures/geom"

	"github.com/poseidonvest/globe/internal/geo"
	"github.com/poseidonvest/globe/internal/market"
)

// Category distinguishes the two kinds of marker on the globe.
type Category int

const (
	CategoryFinancialCenter Category = iota
	CategoryCountry
)

func (c Category) String() string {
	switch c {
	case CategoryFinancialCenter:
		return "financial_center"
	case CategoryCountry:
		return "country"
	default:
		return "unknown"
	}
}

// Marker is implemented only by *FinancialCenter and *Country.
type Marker interface {
	Base() *MarkerBase
	Category() Category
	marker()
}

// MarkerBase is the shape shared by every marker. It is fixed once the registry is built.
type MarkerBase struct {
	Name  string
	Color string
	// Position is the marker's point in globe space, lifted just above the surface.
	Position geo.Vec3
	// Normal is the outward unit normal at the marker.
	Normal geo.Vec3
	// Location is the WGS84 point; Projected is the same point in Web Mercator metres.
	Location  geom.Point
	Projected geom.Point
}

func newBase(name string, lat, lon, radius float64, color string) (MarkerBase, error) {
	loc, err := geo.GeoPoint(lat, lon)
	if err != nil {
		return MarkerBase{}, err
	}
	proj, err := geo.Mercator(loc)
	if err != nil {
		return MarkerBase{}, err
	}
	return MarkerBase{
		Name:      name,
		Color:     color,
		Position:  geo.ToSurfacePoint(lat, lon, radius+MarkerLift),
		Normal:    geo.SurfaceNormal(lat, lon),
		Location:  loc,
		Projected: proj,
	}, nil
}

// LatLon returns the marker's geographic coordinates in degrees.
func (b MarkerBase) LatLon() (lat, lon float64) {
	lat, lon, _ = geo.LatLon(b.Location)
	return lat, lon
}

// MercatorXY returns the marker's Web Mercator coordinates.
func (b MarkerBase) MercatorXY() (x, y float64) {
	x, y, _ = geo.PlanarXY(b.Projected)
	return x, y
}

// FinancialCenter is a trading venue whose pulse follows its market session.
type FinancialCenter struct {
	MarkerBase
	Session market.Center
}

func (m *FinancialCenter) Base() *MarkerBase  { return &m.MarkerBase }
func (m *FinancialCenter) Category() Category { return CategoryFinancialCenter }
func (*FinancialCenter) marker()              {}

// Country is a country with calendar events.
type Country struct {
	MarkerBase
}

func (m *Country) Base() *MarkerBase  { return &m.MarkerBase }
func (m *Country) Category() Category { return CategoryCountry }
func (*Country) marker()              {}
