package scene

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/poseidonvest/globe/internal/market"
)

const (
	GlobeRadius = 2.0
	MarkerLift  = 0.01
	CloudLift   = 0.03
	LabelOffset = 0.02

	DefaultCountryColor = "#ffdd00"
)

var ErrDuplicateMarker = errors.New("duplicate marker name")

// CenterSite places a market center on the globe.
type CenterSite struct {
	market.Center `mapstructure:",squash" yaml:",inline"`
	Lat           float64 `json:"lat" mapstructure:"lat" yaml:"lat"`
	Lon           float64 `json:"lon" mapstructure:"lon" yaml:"lon"`
	Color         string  `json:"color" mapstructure:"color" yaml:"color"`
}

// CountrySite places a country marker on the globe.
type CountrySite struct {
	Name  string  `json:"name" mapstructure:"name" yaml:"name"`
	Lat   float64 `json:"lat" mapstructure:"lat" yaml:"lat"`
	Lon   float64 `json:"lon" mapstructure:"lon" yaml:"lon"`
	Color string  `json:"color,omitempty" mapstructure:"color" yaml:"color,omitempty"`
}

var DefaultCenterSites = []CenterSite{
	{Center: market.DefaultCenters[0], Lat: 40.7128, Lon: -74.0060, Color: "#0088ff"},
	{Center: market.DefaultCenters[1], Lat: 51.5074, Lon: -0.1278, Color: "#00ff44"},
	{Center: market.DefaultCenters[2], Lat: 35.6762, Lon: 139.6503, Color: "#ff2222"},
	{Center: market.DefaultCenters[3], Lat: -33.8688, Lon: 151.2093, Color: "#ffaa00"},
}

var DefaultCountries = []CountrySite{
	{Name: "USA", Lat: 39.8283, Lon: -98.5795},
	{Name: "Canada", Lat: 56.1304, Lon: -106.3468},
	{Name: "Brazil", Lat: -14.2350, Lon: -51.9253},
	{Name: "UK", Lat: 55.3781, Lon: -3.4360},
	{Name: "Germany", Lat: 51.1657, Lon: 10.4515},
	{Name: "France", Lat: 46.2276, Lon: 2.2137},
	{Name: "Italy", Lat: 41.8719, Lon: 12.5674},
	{Name: "Spain", Lat: 40.4637, Lon: -3.7492},
	{Name: "Switzerland", Lat: 46.8182, Lon: 8.2275},
	{Name: "Turkey", Lat: 38.9637, Lon: 35.2433},
	{Name: "India", Lat: 20.5937, Lon: 78.9629},
	{Name: "China", Lat: 35.8617, Lon: 104.1954},
	{Name: "South Korea", Lat: 35.9078, Lon: 127.7669},
	{Name: "Japan", Lat: 36.2048, Lon: 138.2529},
	{Name: "Australia", Lat: -25.2744, Lon: 133.7751},
	{Name: "New Zealand", Lat: -40.9006, Lon: 174.8860},
}

// Registry is the immutable set of markers on the globe.
type Registry struct {
	markers []Marker
	byName  map[string]Marker
	centers []market.Center
}

// NewRegistry validates every site and builds the markers at the given globe radius.
// Out-of-range coordinates, bad session hours and duplicate names are errors.
func NewRegistry(radius float64, centers []CenterSite, countries []CountrySite) (*Registry, error) {
	r := &Registry{byName: make(map[string]Marker, len(centers)+len(countries))}

	for _, c := range centers {
		if err := c.Center.Validate(); err != nil {
			return nil, err
		}
		base, err := newBase(c.Name, c.Lat, c.Lon, radius, c.Color)
		if err != nil {
			return nil, fmt.Errorf("center %q: %w", c.Name, err)
		}
		if err := r.add(&FinancialCenter{MarkerBase: base, Session: c.Center}); err != nil {
			return nil, err
		}
		r.centers = append(r.centers, c.Center)
	}

	for _, c := range countries {
		if c.Name == "" {
			return nil, fmt.Errorf("country at (%v, %v): empty name", c.Lat, c.Lon)
		}
		color := c.Color
		if color == "" {
			color = DefaultCountryColor
		}
		base, err := newBase(c.Name, c.Lat, c.Lon, radius, color)
		if err != nil {
			return nil, fmt.Errorf("country %q: %w", c.Name, err)
		}
		if err := r.add(&Country{MarkerBase: base}); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Registry) add(m Marker) error {
	name := m.Base().Name
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMarker, name)
	}
	r.byName[name] = m
	r.markers = append(r.markers, m)
	return nil
}

// Lookup finds a marker by name.
func (r *Registry) Lookup(name string) (Marker, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// Markers returns every marker, centers first, in registration order.
func (r *Registry) Markers() []Marker {
	return r.markers
}

// Centers returns the market session table for the registered financial centers.
func (r *Registry) Centers() []market.Center {
	return r.centers
}

// Len is the number of markers.
func (r *Registry) Len() int {
	return len(r.markers)
}

type countryFile struct {
	Countries []CountrySite `yaml:"countries"`
}

// LoadCountries reads a country table from a YAML file of the form
//
//	countries:
//	  - name: USA
//	    lat: 39.8
//	    lon: -98.6
func LoadCountries(path string) ([]CountrySite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading country table: %w", err)
	}
	var f countryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing country table %s: %w", path, err)
	}
	if len(f.Countries) == 0 {
		return nil, fmt.Errorf("country table %s is empty", path)
	}
	return f.Countries, nil
}
