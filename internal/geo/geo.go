package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// GEO POINTS
// Marker locations are kept as WGS84 (EPSG:4326) points with X = longitude and Y = latitude.
// Flat overlays (minimaps, exported snapshots) use Web Mercator (EPSG:3857) metres.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ValidateLatLon reports ErrInvalidCoordinates when lat is outside [-90,90] or lon outside [-180,180].
func ValidateLatLon(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// GeoPoint builds a 2D WGS84 point from a latitude and longitude in degrees.
// Out-of-domain input is rejected so a bad registry entry fails at load time.
func GeoPoint(lat, lon float64) (geom.Point, error) {
	if err := ValidateLatLon(lat, lon); err != nil {
		return geom.NewEmptyPoint(geom.DimXY), err
	}
	p, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: lon, Y: lat},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXY), fmt.Errorf("building point (%v, %v): %w", lat, lon, err)
	}
	return p, nil
}

// PlanarXY returns the X and Y of a non-empty point.
func PlanarXY(p geom.Point) (x, y float64, ok bool) {
	c, ok := p.Coordinates()
	if !ok {
		return 0, 0, false
	}
	return c.X, c.Y, true
}

// LatLon extracts latitude and longitude from a point built by GeoPoint.
func LatLon(p geom.Point) (lat, lon float64, ok bool) {
	x, y, ok := PlanarXY(p)
	return y, x, ok
}

// Mercator projects a WGS84 point onto Web Mercator (EPSG:3857) metres.
func Mercator(p geom.Point) (geom.Point, error) {
	lon, lat, ok := PlanarXY(p)
	if !ok {
		return geom.NewEmptyPoint(geom.DimXY), ErrInvalidCoordinates
	}
	x, y, _ := wgs84.EPSG().Transform(4326, 3857)(lon, lat, 0)
	out, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXY), fmt.Errorf("projecting (%v, %v): %w", lat, lon, err)
	}
	return out, nil
}

// Vec3FromString parses "x,y,z" into a vector. Used for camera positions given on the command line.
func Vec3FromString(s string) (Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Vec3{}, ErrInvalidCoordinates
	}
	var out [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Vec3{}, ErrInvalidCoordinates
		}
		out[i] = v
	}
	return Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}
