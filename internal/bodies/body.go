// Package bodies holds the static catalog of celestial bodies and the
// hierarchy rules that decide which bodies are shown together.
package bodies

import (
	"fmt"
	"strings"
	"time"
)

// BodyID identifies a body. The set is closed; the zero value means "no body".
type BodyID int

const (
	NoBody BodyID = iota
	Sun
	Mercury
	Venus
	Earth
	Moon
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
)

// AllIDs lists every known id in catalog order.
var AllIDs = []BodyID{Sun, Mercury, Venus, Earth, Moon, Mars, Jupiter, Saturn, Uranus, Neptune}

var idNames = map[BodyID]string{
	Sun:     "sun",
	Mercury: "mercury",
	Venus:   "venus",
	Earth:   "earth",
	Moon:    "moon",
	Mars:    "mars",
	Jupiter: "jupiter",
	Saturn:  "saturn",
	Uranus:  "uranus",
	Neptune: "neptune",
}

// idsByName is the reverse of idNames, used only to parse user input.
var idsByName = func() map[string]BodyID {
	m := make(map[string]BodyID, len(idNames))
	for id, name := range idNames {
		m[name] = id
	}
	return m
}()

// String returns the canonical lowercase key of the id.
func (id BodyID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	if id == NoBody {
		return "none"
	}
	return fmt.Sprintf("body(%d)", int(id))
}

// Valid reports whether id is one of the known bodies.
func (id BodyID) Valid() bool {
	_, ok := idNames[id]
	return ok
}

// ParseID parses a canonical id key ("earth", "Moon"). It is meant for CLI
// and catalog-file input; lookups inside the engine always use BodyID.
func ParseID(s string) (BodyID, error) {
	if id, ok := idsByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return id, nil
	}
	return NoBody, &UnknownBodyError{Key: s}
}

// MarshalText implements encoding.TextMarshaler.
func (id BodyID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, &UnknownBodyError{ID: id}
	}
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *BodyID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// BodyType categorizes bodies for visibility and sampling.
type BodyType int

const (
	Star BodyType = iota
	Planet
	Satellite
	Asteroid
)

// String returns the body type name.
func (t BodyType) String() string {
	switch t {
	case Star:
		return "star"
	case Planet:
		return "planet"
	case Satellite:
		return "moon"
	case Asteroid:
		return "asteroid"
	default:
		return "unknown"
	}
}

// ParseType parses a body type name.
func ParseType(s string) (BodyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "star":
		return Star, nil
	case "planet":
		return Planet, nil
	case "moon", "satellite":
		return Satellite, nil
	case "asteroid":
		return Asteroid, nil
	default:
		return 0, fmt.Errorf("unknown body type %q", s)
	}
}

// CelestialBody is an immutable catalog record. Registries hand out copies.
type CelestialBody struct {
	ID     BodyID
	Type   BodyType
	Name   string  // Display name only
	Radius float64 // km
	Parent BodyID  // NoBody for the star
	Tilt   float64 // Axial tilt in degrees, [0, 180)
	Period float64 // Orbital period in days, 0 for the star
	Color  string  // Hex colour for display
}

// AxialTilt returns the axial tilt in degrees.
func (b CelestialBody) AxialTilt() float64 {
	return b.Tilt
}

// HasParent reports whether the body orbits another body.
func (b CelestialBody) HasParent() bool {
	return b.Parent != NoBody
}

// OrbitalPeriod returns the sidereal orbital period.
func (b CelestialBody) OrbitalPeriod() time.Duration {
	return time.Duration(b.Period * float64(24*time.Hour))
}

// DisplayRadius returns the radius scaled into display units.
func (b CelestialBody) DisplayRadius(scale float64) float64 {
	return b.Radius * scale
}

// String implements fmt.Stringer.
func (b CelestialBody) String() string {
	if b.Name != "" {
		return b.Name
	}
	return b.ID.String()
}
