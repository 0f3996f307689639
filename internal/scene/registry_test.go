package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poseidonvest/globe/internal/geo"
	"github.com/poseidonvest/globe/internal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_Defaults(t *testing.T) {
	reg, err := NewRegistry(GlobeRadius, DefaultCenterSites, DefaultCountries)
	require.NoError(t, err)

	assert.Equal(t, len(DefaultCenterSites)+len(DefaultCountries), reg.Len())
	assert.Len(t, reg.Centers(), 4)
	assert.Equal(t, "New York", reg.Markers()[0].Base().Name)

	for _, m := range reg.Markers() {
		b := m.Base()
		assert.InDelta(t, GlobeRadius+MarkerLift, b.Position.Len(), 1e-9, b.Name)
		assert.InDelta(t, 1, b.Normal.Len(), 1e-9, b.Name)

		_, _, ok := geo.LatLon(b.Location)
		require.True(t, ok, b.Name)
		_, _, ok = geo.PlanarXY(b.Projected)
		require.True(t, ok, b.Name)
	}
}

func TestNewRegistry_ProjectsStoredLocation(t *testing.T) {
	reg, err := NewRegistry(GlobeRadius, DefaultCenterSites, DefaultCountries)
	require.NoError(t, err)

	for _, site := range DefaultCenterSites {
		m, ok := reg.Lookup(site.Name)
		require.True(t, ok, site.Name)
		b := m.Base()
		lat, lon := b.LatLon()
		assert.Equal(t, site.Lat, lat, site.Name)
		assert.Equal(t, site.Lon, lon, site.Name)

		want, err := geo.Mercator(b.Location)
		require.NoError(t, err)
		wx, wy, _ := geo.PlanarXY(want)
		x, y := b.MercatorXY()
		assert.Equal(t, wx, x, site.Name)
		assert.Equal(t, wy, y, site.Name)
	}

	m, ok := reg.Lookup("London")
	require.True(t, ok)
	x, y := m.Base().MercatorXY()
	assert.InDelta(t, -14226.63, x, 1, "london x")
	assert.InDelta(t, 6711542.47, y, 5, "london y")
}

func TestNewRegistry_Variants(t *testing.T) {
	reg, err := NewRegistry(GlobeRadius, DefaultCenterSites, DefaultCountries)
	require.NoError(t, err)

	m, ok := reg.Lookup("Tokyo")
	require.True(t, ok)
	fc, ok := m.(*FinancialCenter)
	require.True(t, ok)
	assert.Equal(t, "Asia/Tokyo", fc.Session.Timezone)
	assert.Equal(t, "#ff2222", fc.Color)
	assert.Equal(t, "financial_center", m.Category().String())

	m, ok = reg.Lookup("Japan")
	require.True(t, ok)
	_, ok = m.(*Country)
	assert.True(t, ok)
	assert.Equal(t, DefaultCountryColor, m.Base().Color)
	assert.Equal(t, "country", m.Category().String())

	_, ok = reg.Lookup("Atlantis")
	assert.False(t, ok)
}

func TestNewRegistry_Errors(t *testing.T) {
	tests := []struct {
		name      string
		centers   []CenterSite
		countries []CountrySite
		target    error
	}{
		{
			name:      "duplicate country",
			countries: []CountrySite{{Name: "USA", Lat: 1, Lon: 1}, {Name: "USA", Lat: 2, Lon: 2}},
			target:    ErrDuplicateMarker,
		},
		{
			name:      "country clashes with center",
			centers:   DefaultCenterSites[:1],
			countries: []CountrySite{{Name: "New York", Lat: 1, Lon: 1}},
			target:    ErrDuplicateMarker,
		},
		{
			name:      "latitude out of range",
			countries: []CountrySite{{Name: "Nowhere", Lat: 91, Lon: 0}},
			target:    geo.ErrInvalidCoordinates,
		},
		{
			name:      "longitude out of range",
			countries: []CountrySite{{Name: "Nowhere", Lat: 0, Lon: -181}},
			target:    geo.ErrInvalidCoordinates,
		},
		{
			name: "bad session hours",
			centers: []CenterSite{{
				Center: market.Center{Name: "Late", Timezone: "UTC", OpenHour: 17, CloseHour: 9},
			}},
			target: market.ErrInvalidCenter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(GlobeRadius, tt.centers, tt.countries)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestNewRegistry_EmptyCountryName(t *testing.T) {
	_, err := NewRegistry(GlobeRadius, nil, []CountrySite{{Lat: 1, Lon: 1}})
	assert.Error(t, err)
}

func TestLoadCountries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "countries.yaml")
	data := `countries:
  - name: Norway
    lat: 60.47
    lon: 8.47
  - name: Chile
    lat: -35.68
    lon: -71.54
    color: "#ff00ff"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	sites, err := LoadCountries(path)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "Norway", sites[0].Name)
	assert.InDelta(t, -71.54, sites[1].Lon, 1e-9)
	assert.Equal(t, "#ff00ff", sites[1].Color)

	reg, err := NewRegistry(GlobeRadius, nil, sites)
	require.NoError(t, err)
	m, _ := reg.Lookup("Norway")
	assert.Equal(t, DefaultCountryColor, m.Base().Color)
}

func TestLoadCountries_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCountries(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("countries: []\n"), 0o644))
	_, err = LoadCountries(empty)
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("countries: [\n"), 0o644))
	_, err = LoadCountries(broken)
	assert.Error(t, err)
}
