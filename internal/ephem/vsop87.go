package ephem

import (
	"fmt"
	"math"
	"time"

	pp "github.com/soniakeys/meeus/v3/planetposition"

	"github.com/litescript/ls-orrery/internal/astro"
)

var (
	vsop87Start = time.Date(-2000, time.January, 1, 12, 0, 0, 0, time.UTC)
	vsop87End   = time.Date(6000, time.January, 1, 12, 0, 0, 0, time.UTC)
)

// vsop87Index maps keys to meeus planet numbers. Barycenter keys resolve to
// the planet centre; the offset is below display resolution.
var vsop87Index = map[Key]int{
	NAIFMercury:           pp.Mercury,
	NAIFVenus:             pp.Venus,
	NAIFEarth:             pp.Earth,
	NAIFMarsBarycenter:    pp.Mars,
	NAIFJupiterBarycenter: pp.Jupiter,
	NAIFSaturnBarycenter:  pp.Saturn,
	NAIFUranusBarycenter:  pp.Uranus,
	NAIFNeptuneBarycenter: pp.Neptune,
}

// VSOP87Source evaluates the full VSOP87B series. All planet files are
// loaded by the constructor, so lookups never touch the filesystem.
type VSOP87Source struct {
	catalogKeys
	planets map[Key]*pp.V87Planet
}

// NewVSOP87Source loads the VSOP87B.* files from dir.
func NewVSOP87Source(dir string) (*VSOP87Source, error) {
	s := &VSOP87Source{planets: make(map[Key]*pp.V87Planet, len(vsop87Index))}
	for k, ibody := range vsop87Index {
		planet, err := pp.LoadPlanetPath(ibody, dir)
		if err != nil {
			return nil, fmt.Errorf("loading VSOP87 series for %s: %w", k, err)
		}
		s.planets[k] = planet
	}
	return s, nil
}

// Name implements Source.
func (s *VSOP87Source) Name() string {
	return "VSOP87"
}

// Coverage implements Source.
func (s *VSOP87Source) Coverage() (time.Time, time.Time) {
	return vsop87Start, vsop87End
}

// State implements Source.
func (s *VSOP87Source) State(key Key, t time.Time, frame Frame, corr Correction) (State, error) {
	return computeState(s.heliocentric, vsop87Start, vsop87End, key, t, frame, corr)
}

func (s *VSOP87Source) heliocentric(k Key, t time.Time) (astro.Vec3, error) {
	jde := JDE(t)
	switch k {
	case NAIFSun:
		return astro.Vec3{}, nil
	case NAIFMoon:
		earth := s.planetPosition(NAIFEarth, jde)
		return earth.Add(moonGeocentric(jde)), nil
	case NAIFEarthMoonBary:
		earth := s.planetPosition(NAIFEarth, jde)
		return earth.Add(moonGeocentric(jde).Scale(moonMassRatio)), nil
	}
	if _, ok := s.planets[k]; !ok {
		return astro.Vec3{}, unknownKey(k)
	}
	return s.planetPosition(k, jde), nil
}

// planetPosition returns the ICRF heliocentric position in km.
func (s *VSOP87Source) planetPosition(k Key, jde float64) astro.Vec3 {
	l, b, r := s.planets[k].Position2000(jde)
	sl, cl := math.Sincos(l.Rad())
	sb, cb := math.Sincos(b.Rad())
	r *= astro.AU
	return eclipticToICRF(astro.Vec3{
		X: r * cb * cl,
		Y: r * cb * sl,
		Z: r * sb,
	})
}
