package ephem

import (
	"sort"
	"time"

	"github.com/soniakeys/meeus/v3/deltat"
	"github.com/soniakeys/meeus/v3/julian"

	"github.com/litescript/ls-orrery/internal/astro"
)

const (
	// ttMinusTAI is the fixed offset of Terrestrial Time from TAI.
	ttMinusTAI = 32184 * time.Millisecond

	// lightTimeIterations is enough for sub-metre convergence inside the
	// solar system.
	lightTimeIterations = 3

	// velocityStep is the half-width of the central difference used for
	// velocities.
	velocityStep = 60 * time.Second
)

// leapSecond is a TAI−UTC step taking effect at since.
type leapSecond struct {
	since  time.Time
	taiUTC int
}

func utcDate(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// leapSeconds lists every TAI−UTC change since UTC adopted whole seconds.
var leapSeconds = []leapSecond{
	{utcDate(1972, time.January), 10}, {utcDate(1972, time.July), 11},
	{utcDate(1973, time.January), 12}, {utcDate(1974, time.January), 13},
	{utcDate(1975, time.January), 14}, {utcDate(1976, time.January), 15},
	{utcDate(1977, time.January), 16}, {utcDate(1978, time.January), 17},
	{utcDate(1979, time.January), 18}, {utcDate(1980, time.January), 19},
	{utcDate(1981, time.July), 20}, {utcDate(1982, time.July), 21},
	{utcDate(1983, time.July), 22}, {utcDate(1985, time.July), 23},
	{utcDate(1988, time.January), 24}, {utcDate(1990, time.January), 25},
	{utcDate(1991, time.January), 26}, {utcDate(1992, time.July), 27},
	{utcDate(1993, time.July), 28}, {utcDate(1994, time.July), 29},
	{utcDate(1996, time.January), 30}, {utcDate(1997, time.July), 31},
	{utcDate(1999, time.January), 32}, {utcDate(2006, time.January), 33},
	{utcDate(2009, time.January), 34}, {utcDate(2012, time.July), 35},
	{utcDate(2015, time.July), 36}, {utcDate(2017, time.January), 37},
}

// DeltaT returns TT − UT at t. From 1972 on it is exact from the leap
// second table (the last entry holds for later epochs); before that it
// comes from the Meeus polynomials and the historical ΔT table.
func DeltaT(t time.Time) time.Duration {
	t = t.UTC()
	if !t.Before(leapSeconds[0].since) {
		i := sort.Search(len(leapSeconds), func(i int) bool {
			return leapSeconds[i].since.After(t)
		}) - 1
		return ttMinusTAI + time.Duration(leapSeconds[i].taiUTC)*time.Second
	}

	jd := julian.TimeToJD(t)
	year := 2000 + (jd-J2000)/365.25
	var seconds float64
	switch {
	case year < 948:
		seconds = float64(deltat.PolyBefore948(year))
	case year < 1620:
		seconds = float64(deltat.Poly948to1600(year))
	default:
		seconds = float64(deltat.Interp10A(jd))
	}
	return time.Duration(seconds * float64(time.Second))
}

// JDE returns the Julian Ephemeris Day (TT) for t.
func JDE(t time.Time) float64 {
	return julian.TimeToJD(t.UTC()) + DeltaT(t).Seconds()/86400
}

// heliocentricFunc returns the ICRF position in km of k relative to the Sun.
type heliocentricFunc func(k Key, t time.Time) (astro.Vec3, error)

// computeState resolves a corrected state from heliocentric positions. It
// is shared by every backend; they differ only in helio.
func computeState(helio heliocentricFunc, start, end time.Time, key Key, t time.Time, frame Frame, corr Correction) (State, error) {
	if err := checkCoverage(t, start, end); err != nil {
		return State{}, err
	}

	relative := func(at, observerAt time.Time) (astro.Vec3, error) {
		target, err := helio(key, at)
		if err != nil {
			return astro.Vec3{}, err
		}
		center, err := helio(frame.Center, observerAt)
		if err != nil {
			return astro.Vec3{}, err
		}
		return target.Sub(center), nil
	}

	geometric, err := relative(t, t)
	if err != nil {
		return State{}, err
	}

	before, err := relative(t.Add(-velocityStep), t.Add(-velocityStep))
	if err != nil {
		return State{}, err
	}
	after, err := relative(t.Add(velocityStep), t.Add(velocityStep))
	if err != nil {
		return State{}, err
	}
	velocity := after.Sub(before).Scale(1 / (2 * velocityStep.Seconds()))

	pos := geometric
	if corr == CorrectionLightTime || corr == CorrectionAberration {
		for i := 0; i < lightTimeIterations; i++ {
			tau := time.Duration(astro.LightTime(pos.Norm()) * float64(time.Second))
			pos, err = relative(t.Add(-tau), t)
			if err != nil {
				return State{}, err
			}
		}
	}
	if corr == CorrectionAberration {
		obsVel, err := observerVelocity(helio, frame.Center, t)
		if err != nil {
			return State{}, err
		}
		pos = pos.Add(obsVel.Scale(pos.Norm() / astro.SpeedOfLight))
	}

	return State{Position: pos, Velocity: velocity}, nil
}

// observerVelocity returns the heliocentric velocity of a frame centre in km/s.
func observerVelocity(helio heliocentricFunc, center Key, t time.Time) (astro.Vec3, error) {
	before, err := helio(center, t.Add(-velocityStep))
	if err != nil {
		return astro.Vec3{}, err
	}
	after, err := helio(center, t.Add(velocityStep))
	if err != nil {
		return astro.Vec3{}, err
	}
	return after.Sub(before).Scale(1 / (2 * velocityStep.Seconds())), nil
}
