package ephem

import (
	"fmt"

	"github.com/litescript/ls-orrery/internal/bodies"
)

// Key is a NAIF SPICE integer code.
// Sourced from https://naif.jpl.nasa.gov/pub/naif/toolkit_docs/C/req/naif_ids.html
type Key int

const (
	NAIFSun               Key = 10
	NAIFMercury           Key = 199
	NAIFVenus             Key = 299
	NAIFEarthMoonBary     Key = 3
	NAIFEarth             Key = 399
	NAIFMoon              Key = 301
	NAIFMarsBarycenter    Key = 4
	NAIFJupiterBarycenter Key = 5
	NAIFSaturnBarycenter  Key = 6
	NAIFUranusBarycenter  Key = 7
	NAIFNeptuneBarycenter Key = 8
)

// keyNames are the labels used in frame names and errors.
var keyNames = map[Key]string{
	NAIFSun:               "Sun",
	NAIFMercury:           "Mercury",
	NAIFVenus:             "Venus",
	NAIFEarthMoonBary:     "Earth-Moon Barycenter",
	NAIFEarth:             "Earth",
	NAIFMoon:              "Moon",
	NAIFMarsBarycenter:    "Mars Barycenter",
	NAIFJupiterBarycenter: "Jupiter Barycenter",
	NAIFSaturnBarycenter:  "Saturn Barycenter",
	NAIFUranusBarycenter:  "Uranus Barycenter",
	NAIFNeptuneBarycenter: "Neptune Barycenter",
}

// String returns the NAIF code with its label.
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return fmt.Sprintf("%d (%s)", int(k), name)
	}
	return fmt.Sprintf("%d", int(k))
}

// pathsByBody maps catalog bodies to ephemeris keys. The outer planets are
// queried at their system barycenters.
var pathsByBody = map[bodies.BodyID]Key{
	bodies.Sun:     NAIFSun,
	bodies.Mercury: NAIFMercury,
	bodies.Venus:   NAIFVenus,
	bodies.Earth:   NAIFEarth,
	bodies.Moon:    NAIFMoon,
	bodies.Mars:    NAIFMarsBarycenter,
	bodies.Jupiter: NAIFJupiterBarycenter,
	bodies.Saturn:  NAIFSaturnBarycenter,
	bodies.Uranus:  NAIFUranusBarycenter,
	bodies.Neptune: NAIFNeptuneBarycenter,
}

// orderedBodies returns the mapped bodies in catalog order.
func orderedBodies() []bodies.BodyID {
	out := make([]bodies.BodyID, 0, len(pathsByBody))
	for _, id := range bodies.AllIDs {
		if _, ok := pathsByBody[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// bodiesByPath is the reverse of pathsByBody.
var bodiesByPath = func() map[Key]bodies.BodyID {
	m := make(map[Key]bodies.BodyID, len(pathsByBody))
	for id, k := range pathsByBody {
		m[k] = id
	}
	return m
}()

// Frame is a reference frame with ICRF axes centred on Center.
type Frame struct {
	Center Key
	Name   string
}

// String implements fmt.Stringer.
func (f Frame) String() string {
	return f.Name
}

// EphemerisPath returns the lookup key for a body.
func EphemerisPath(id bodies.BodyID) (Key, error) {
	k, ok := pathsByBody[id]
	if !ok {
		return 0, &bodies.UnknownBodyError{ID: id}
	}
	return k, nil
}

// ReferenceFrame returns the J2000 frame centred on a body, derived from
// its lookup key.
func ReferenceFrame(id bodies.BodyID) (Frame, error) {
	k, err := EphemerisPath(id)
	if err != nil {
		return Frame{}, err
	}
	return FrameFor(k), nil
}

// FrameFor returns the J2000 frame centred on a key.
func FrameFor(k Key) Frame {
	name, ok := keyNames[k]
	if !ok {
		name = fmt.Sprintf("NAIF %d", int(k))
	}
	return Frame{Center: k, Name: name + " J2000"}
}

// BodyForKey returns the catalog body queried through k.
func BodyForKey(k Key) (bodies.BodyID, bool) {
	id, ok := bodiesByPath[k]
	return id, ok
}

// unknownKey builds the error returned for keys a source does not serve.
func unknownKey(k Key) error {
	return &bodies.UnknownBodyError{Key: k.String()}
}

// catalogKeys implements the id-to-key half of Source; every backend
// shares the same mapping.
type catalogKeys struct{}

func (catalogKeys) EphemerisPath(id bodies.BodyID) (Key, error) {
	return EphemerisPath(id)
}

func (catalogKeys) ReferenceFrame(id bodies.BodyID) (Frame, error) {
	return ReferenceFrame(id)
}
