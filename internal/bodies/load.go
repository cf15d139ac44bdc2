package bodies

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// catalogFile is the on-disk TOML layout:
//
//	[[body]]
//	id = "moon"
//	type = "moon"
//	name = "Luna"
//	radius_km = 1737.1
//	parent = "earth"
//	axial_tilt_deg = 6.68
//	orbital_period_days = 27.321661
type catalogFile struct {
	Body []catalogEntry `toml:"body"`
}

type catalogEntry struct {
	ID     string  `toml:"id"`
	Type   string  `toml:"type"`
	Name   string  `toml:"name"`
	Radius float64 `toml:"radius_km"`
	Parent string  `toml:"parent"`
	Tilt   float64 `toml:"axial_tilt_deg"`
	Period float64 `toml:"orbital_period_days"`
	Color  string  `toml:"color"`
}

// ParseCatalog decodes a TOML catalog. The result still has to go through
// New before it can be used.
func ParseCatalog(r io.Reader) ([]CelestialBody, error) {
	var f catalogFile
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	catalog := make([]CelestialBody, 0, len(f.Body))
	for i, e := range f.Body {
		id, err := ParseID(e.ID)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		typ, err := ParseType(e.Type)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d (%s): %w", i, id, err)
		}
		parent := NoBody
		if e.Parent != "" {
			if parent, err = ParseID(e.Parent); err != nil {
				return nil, fmt.Errorf("catalog entry %d (%s) parent: %w", i, id, err)
			}
		}
		catalog = append(catalog, CelestialBody{
			ID:     id,
			Type:   typ,
			Name:   e.Name,
			Radius: e.Radius,
			Parent: parent,
			Tilt:   e.Tilt,
			Period: e.Period,
			Color:  e.Color,
		})
	}
	return catalog, nil
}

// LoadFile reads, parses and validates a TOML catalog file.
func LoadFile(path string) (*SolarSystem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	catalog, err := ParseCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s, err := New(catalog)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
