package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/peterstace/simplefeatures/geom"
)

const tolerance = 1e-6

func TestToSurfacePoint_RadiusPreserved(t *testing.T) {
	for _, radius := range []float64{1, 2, 2.01, 7.5} {
		for lat := -90.0; lat <= 90; lat += 7.5 {
			for lon := -180.0; lon <= 180; lon += 15 {
				p := ToSurfacePoint(lat, lon, radius)
				if got := p.Len(); math.Abs(got-radius) > tolerance {
					t.Fatalf("lat=%v lon=%v r=%v: expected |p|=%v, got %v", lat, lon, radius, radius, got)
				}
			}
		}
	}
}

func TestToSurfacePoint_KnownPoints(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     Vec3
	}{
		{name: "north pole", lat: 90, lon: 0, want: Vec3{Y: 1}},
		{name: "south pole", lat: -90, lon: 0, want: Vec3{Y: -1}},
		{name: "null island", lat: 0, lon: 0, want: Vec3{X: 1}},
		{name: "90 east", lat: 0, lon: 90, want: Vec3{Z: -1}},
		{name: "90 west", lat: 0, lon: -90, want: Vec3{Z: 1}},
		{name: "antimeridian", lat: 0, lon: 180, want: Vec3{X: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToSurfacePoint(tt.lat, tt.lon, 1)
			if got.DistanceTo(tt.want) > tolerance {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestToSurfacePoint_Deterministic(t *testing.T) {
	a := ToSurfacePoint(40.7128, -74.0060, 2.01)
	b := ToSurfacePoint(40.7128, -74.0060, 2.01)
	if a != b {
		t.Errorf("expected identical results, got %+v and %+v", a, b)
	}
}

func TestSurfaceNormal_IsUnit(t *testing.T) {
	n := SurfaceNormal(-33.8688, 151.2093)
	if math.Abs(n.Len()-1) > tolerance {
		t.Errorf("expected unit normal, got length %v", n.Len())
	}
}

func TestRotateY_ShiftsAzimuth(t *testing.T) {
	p := ToSurfacePoint(35.6762, 139.6503, 1)
	before := Azimuth(p)
	after := Azimuth(p.RotateY(0.5))

	delta := math.Remainder(after-before, 2*math.Pi)
	if math.Abs(delta-0.5) > tolerance {
		t.Errorf("expected azimuth to advance by 0.5, got %v", delta)
	}
	if math.Abs(p.RotateY(0.5).Y-p.Y) > tolerance {
		t.Error("expected Y to be unchanged by RotateY")
	}
}

func TestVec3_CrossAndNormalize(t *testing.T) {
	c := Up.Cross(Vec3{Z: 1})
	if c.DistanceTo(AxisX) > tolerance {
		t.Errorf("expected up x z = x, got %+v", c)
	}

	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("expected zero vector to normalize to zero")
	}
}

func TestValidateLatLon(t *testing.T) {
	tests := []struct {
		lat, lon float64
		wantErr  bool
	}{
		{0, 0, false},
		{90, 180, false},
		{-90, -180, false},
		{90.0001, 0, true},
		{0, -180.5, true},
	}

	for _, tt := range tests {
		err := ValidateLatLon(tt.lat, tt.lon)
		if tt.wantErr && !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("lat=%v lon=%v: expected ErrInvalidCoordinates, got %v", tt.lat, tt.lon, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("lat=%v lon=%v: unexpected error %v", tt.lat, tt.lon, err)
		}
	}
}

func TestGeoPoint_RoundTrip(t *testing.T) {
	p, err := GeoPoint(51.5074, -0.1278)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lat, lon, ok := LatLon(p)
	if !ok {
		t.Fatal("expected valid coordinates")
	}
	if lat != 51.5074 || lon != -0.1278 {
		t.Errorf("expected (51.5074,-0.1278), got (%v,%v)", lat, lon)
	}
}

func TestGeoPoint_Invalid(t *testing.T) {
	p, err := GeoPoint(120, 0)
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
	}
	if _, _, ok := LatLon(p); ok {
		t.Error("expected empty point")
	}
}

func mercatorOf(t *testing.T, lat, lon float64) (x, y float64) {
	t.Helper()
	p, err := GeoPoint(lat, lon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, err := Mercator(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	x, y, ok := PlanarXY(m)
	if !ok {
		t.Fatal("expected a projected point")
	}
	return x, y
}

func TestMercator_Origin(t *testing.T) {
	x, y := mercatorOf(t, 0, 0)
	if math.Abs(x) > 1e-3 || math.Abs(y) > 1e-3 {
		t.Errorf("expected origin to map to (0,0), got (%v,%v)", x, y)
	}

	x, _ = mercatorOf(t, 0, 180)
	if math.Abs(x-20037508.34) > 1 {
		t.Errorf("expected x=20037508.34 at lon=180, got %v", x)
	}
}

func TestMercator_London(t *testing.T) {
	x, y := mercatorOf(t, 51.5074, -0.1278)
	if math.Abs(x-(-14226.63)) > 1 || math.Abs(y-6711542.47) > 5 {
		t.Errorf("unexpected London projection (%v,%v)", x, y)
	}
}

func TestMercator_EmptyPoint(t *testing.T) {
	p, err := Mercator(geom.NewEmptyPoint(geom.DimXY))
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
	}
	if _, _, ok := PlanarXY(p); ok {
		t.Error("expected empty point")
	}
}

func TestVec3FromString(t *testing.T) {
	v, err := Vec3FromString("0, 0, 7.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != (Vec3{Z: 7.5}) {
		t.Errorf("expected (0,0,7.5), got %+v", v)
	}

	if _, err := Vec3FromString("1,2"); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
	if _, err := Vec3FromString("1,b,3"); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}
