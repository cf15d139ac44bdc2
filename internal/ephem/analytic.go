package ephem

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/moonposition"

	"github.com/litescript/ls-orrery/internal/astro"
)

const (
	// moonMassRatio is M_moon / (M_earth + M_moon).
	moonMassRatio = 0.0121505856

	// precessionRate is the general precession in longitude, deg/century.
	precessionRate = 1.3969713
)

var (
	analyticStart = time.Date(-2999, time.January, 1, 0, 0, 0, 0, time.UTC)
	analyticEnd   = time.Date(3000, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// AnalyticSource computes positions from mean Keplerian elements for the
// planets and the ELP-2000/82 truncated lunar theory for the Moon. It needs
// no data files.
type AnalyticSource struct {
	catalogKeys
}

// NewAnalyticSource returns the built-in analytic source.
func NewAnalyticSource() *AnalyticSource {
	return &AnalyticSource{}
}

// Name implements Source.
func (s *AnalyticSource) Name() string {
	return "Analytic"
}

// Coverage implements Source.
func (s *AnalyticSource) Coverage() (time.Time, time.Time) {
	return analyticStart, analyticEnd
}

// State implements Source.
func (s *AnalyticSource) State(key Key, t time.Time, frame Frame, corr Correction) (State, error) {
	return computeState(s.heliocentric, analyticStart, analyticEnd, key, t, frame, corr)
}

func (s *AnalyticSource) heliocentric(k Key, t time.Time) (astro.Vec3, error) {
	jde := JDE(t)
	switch k {
	case NAIFSun:
		return astro.Vec3{}, nil
	case NAIFEarth, NAIFMoon:
		emb, err := elementPosition(NAIFEarthMoonBary, jde)
		if err != nil {
			return astro.Vec3{}, err
		}
		return splitEarthMoon(k, emb, jde), nil
	}
	if _, ok := elementTable[k]; !ok {
		return astro.Vec3{}, unknownKey(k)
	}
	return elementPosition(k, jde)
}

// elementPosition returns the ICRF heliocentric position in km of a body
// in elementTable.
func elementPosition(k Key, jde float64) (astro.Vec3, error) {
	p, err := elementTable[k].position(jde)
	if err != nil {
		return astro.Vec3{}, err
	}
	return eclipticToICRF(p.Scale(astro.AU)), nil
}

// splitEarthMoon returns Earth or the Moon given the barycentre position.
func splitEarthMoon(k Key, emb astro.Vec3, jde float64) astro.Vec3 {
	moon := moonGeocentric(jde)
	earth := emb.Sub(moon.Scale(moonMassRatio))
	if k == NAIFMoon {
		return earth.Add(moon)
	}
	return earth
}

// moonGeocentric returns the geocentric Moon in km on ICRF axes. The
// lunar theory gives ecliptic-of-date coordinates; longitude is carried
// back to J2000 by the general precession, which is accurate to a few
// arcseconds over several centuries.
func moonGeocentric(jde float64) astro.Vec3 {
	lon, lat, dist := moonposition.Position(jde)
	T := (jde - J2000) / 36525
	l := lon.Rad() - astro.DegToRad(precessionRate*T)
	sl, cl := math.Sincos(l)
	sb, cb := math.Sincos(lat.Rad())
	return eclipticToICRF(astro.Vec3{
		X: dist * cb * cl,
		Y: dist * cb * sl,
		Z: dist * sb,
	})
}
