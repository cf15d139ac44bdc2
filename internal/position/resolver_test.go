package position

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/ephem"
)

var epoch = time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)

// fixedSource returns the same raw state for every query.
type fixedSource struct {
	ephem.Source
	pos      astro.Vec3
	gotCorr  ephem.Correction
	gotFrame ephem.Frame
	gotKey   ephem.Key
	stateErr error
}

func (f *fixedSource) EphemerisPath(id bodies.BodyID) (ephem.Key, error) {
	return ephem.EphemerisPath(id)
}

func (f *fixedSource) ReferenceFrame(id bodies.BodyID) (ephem.Frame, error) {
	return ephem.ReferenceFrame(id)
}

func (f *fixedSource) State(k ephem.Key, _ time.Time, frame ephem.Frame, corr ephem.Correction) (ephem.State, error) {
	f.gotKey, f.gotFrame, f.gotCorr = k, frame, corr
	if f.stateErr != nil {
		return ephem.State{}, f.stateErr
	}
	return ephem.State{Position: f.pos}, nil
}

func TestPositionOfSwapsAndScales(t *testing.T) {
	src := &fixedSource{pos: astro.Vec3{X: 1000, Y: 2000, Z: 3000}}
	r := NewResolver(src, 0.01)

	got, err := r.PositionOf(bodies.Mars, bodies.Earth, epoch)
	require.NoError(t, err)
	assert.Equal(t, astro.Vec3{X: 10, Y: 30, Z: 20}, got)

	assert.Equal(t, ephem.NAIFMarsBarycenter, src.gotKey)
	assert.Equal(t, ephem.NAIFEarth, src.gotFrame.Center)
	assert.Equal(t, ephem.CorrectionAberration, src.gotCorr)

	assert.Equal(t, src.pos, r.Kilometres(got))
}

func TestPositionOfPropagatesErrors(t *testing.T) {
	src := &fixedSource{stateErr: &ephem.CoverageError{Epoch: epoch}}
	r := NewResolver(src, 0)
	assert.InDelta(t, DefaultScale, r.Scale(), 0)

	_, err := r.PositionOf(bodies.Earth, bodies.Sun, epoch)
	assert.ErrorIs(t, err, ephem.ErrCoverage)

	_, err = r.PositionOf(bodies.NoBody, bodies.Sun, epoch)
	assert.ErrorIs(t, err, bodies.ErrUnknownBody)

	_, err = r.PositionOf(bodies.Earth, bodies.BodyID(99), epoch)
	assert.ErrorIs(t, err, bodies.ErrUnknownBody)
}

func TestEarthFromSun(t *testing.T) {
	r := NewResolver(ephem.NewAnalyticSource(), DefaultScale)
	pos, err := r.PositionOf(bodies.Earth, bodies.Sun, epoch)
	require.NoError(t, err)

	// Earth was a day from aphelion (1.0167 AU), so 1 AU is 1.7% off.
	au := astro.AU * DefaultScale
	assert.InEpsilon(t, au, pos.Norm(), 0.02)
	assert.InEpsilon(t, 1.0167*au, pos.Norm(), 1e-3)
}

func TestEarthFromSunOutsideCoverage(t *testing.T) {
	r := NewResolver(ephem.NewAnalyticSource(), DefaultScale)
	_, err := r.PositionOf(bodies.Earth, bodies.Sun, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ephem.ErrCoverage)
}

func TestMoonFromEarth(t *testing.T) {
	r := NewResolver(ephem.NewAnalyticSource(), DefaultScale)
	pos, err := r.PositionOf(bodies.Moon, bodies.Earth, epoch)
	require.NoError(t, err)
	assert.Greater(t, pos.Norm(), 356000*DefaultScale)
	assert.Less(t, pos.Norm(), 407000*DefaultScale)
}

func TestPlanetsLieNearTheirEcliptic(t *testing.T) {
	// Seen from the Sun with the Earth's tilt, planets sit close to the
	// display X–Z plane.
	r := NewResolver(ephem.NewAnalyticSource(), DefaultScale)
	earth, err := bodies.Default().Get(bodies.Earth)
	require.NoError(t, err)

	for _, id := range []bodies.BodyID{bodies.Mercury, bodies.Venus, bodies.Earth, bodies.Mars, bodies.Jupiter} {
		pos, err := r.PositionOf(id, bodies.Sun, epoch)
		require.NoError(t, err)
		ecl := astro.ToEcliptic(pos, earth)
		// Mercury is inclined 7°.
		assert.Less(t, abs(ecl.Y)/ecl.Norm(), 0.13, id.String())
	}
}

func TestRoundTripAllBodies(t *testing.T) {
	reg := bodies.Default()
	r := NewResolver(ephem.NewAnalyticSource(), DefaultScale)
	rng := rand.New(rand.NewSource(7))

	for _, b := range reg.Bodies() {
		pos, err := r.PositionOf(bodies.Mars, b.ID, epoch)
		require.NoError(t, err)
		vs := []astro.Vec3{pos}
		for i := 0; i < 10; i++ {
			vs = append(vs, astro.Vec3{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}.Scale(1e4))
		}
		for _, v := range vs {
			back := astro.ToEquatorial(astro.ToEcliptic(v, b), b)
			want := []float64{v.X, v.Y, v.Z}
			got := []float64{back.X, back.Y, back.Z}
			assert.True(t, floats.EqualApprox(want, got, 1e-9*(1+v.Norm())), b.Name)
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
