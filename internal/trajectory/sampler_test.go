package trajectory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/ephem"
	"github.com/litescript/ls-orrery/internal/position"
)

var start = time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)

func newSampler() *Sampler {
	return NewSampler(position.NewResolver(ephem.NewAnalyticSource(), position.DefaultScale), 4)
}

func TestSampleRejectsZeroSteps(t *testing.T) {
	s := newSampler()
	for _, target := range []bodies.BodyID{bodies.Sun, bodies.Earth, bodies.Moon} {
		_, err := s.Sample(bodies.Default(), target, bodies.Sun, start, time.Time{}, 0)
		assert.ErrorIs(t, err, ErrInvalidSampleCount, target.String())
	}

	_, err := s.Sample(bodies.Default(), bodies.Earth, bodies.Sun, start, start.Add(-time.Hour), 10)
	var ise *InvalidSampleCountError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 10, ise.Steps)
	assert.Equal(t, -time.Hour, ise.Span)
	assert.Contains(t, err.Error(), "span")
}

func TestSampleRejectsTooManySteps(t *testing.T) {
	s := newSampler()
	for _, steps := range []int{MaxSteps + 1, math.MaxInt} {
		_, err := s.Sample(bodies.Default(), bodies.Moon, bodies.Earth, start, time.Time{}, steps)
		var ise *InvalidSampleCountError
		require.ErrorAs(t, err, &ise)
		assert.Equal(t, MaxSteps, ise.Max)
		assert.Contains(t, err.Error(), "at most")
	}

	_, err := s.SampleAll(context.Background(), bodies.Default(), []bodies.BodyID{bodies.Earth, bodies.Moon}, bodies.Earth, start, time.Time{}, math.MaxInt)
	assert.ErrorIs(t, err, ErrInvalidSampleCount)
}

func TestSampleRejectsEmptySpan(t *testing.T) {
	_, err := newSampler().Sample(bodies.Default(), bodies.Moon, bodies.Earth, start, start, 10)
	assert.ErrorIs(t, err, ErrInvalidSampleCount)
}

func TestSampleSunIsEmpty(t *testing.T) {
	s := newSampler()
	for _, ref := range bodies.AllIDs {
		tr, err := s.Sample(bodies.Default(), bodies.Sun, ref, start, start.AddDate(1, 0, 0), 50)
		require.NoError(t, err)
		assert.True(t, tr.Empty())
		assert.Equal(t, 0, tr.Len())
	}
}

func TestSampleMoonAroundEarth(t *testing.T) {
	s := newSampler()
	tr, err := s.Sample(bodies.Default(), bodies.Moon, bodies.Earth, start, time.Time{}, 100)
	require.NoError(t, err)
	require.Equal(t, 100, tr.Len())
	require.Len(t, tr.Epochs, 100)

	end, err := s.DefaultEnd(bodies.Default(), bodies.Moon, start)
	require.NoError(t, err)
	assert.Equal(t, start, tr.Epochs[0])
	assert.True(t, tr.Epochs[99].Before(end))

	for i, p := range tr.Points {
		if i > 0 {
			assert.True(t, tr.Epochs[i].After(tr.Epochs[i-1]), "epochs must ascend")
		}
		assert.Greater(t, p.Norm(), 356000*position.DefaultScale)
		assert.Less(t, p.Norm(), 407000*position.DefaultScale)
	}
}

func TestSampleEpochSpacing(t *testing.T) {
	s := newSampler()
	end := start.Add(10 * time.Hour)
	tr, err := s.Sample(bodies.Default(), bodies.Moon, bodies.Earth, start, end, 4)
	require.NoError(t, err)
	want := []time.Time{start, start.Add(150 * time.Minute), start.Add(300 * time.Minute), start.Add(450 * time.Minute)}
	assert.Equal(t, want, tr.Epochs)
}

func TestSamplePlanetIsRebasedAtStart(t *testing.T) {
	s := newSampler()
	reg := bodies.Default()

	// Earth around itself: the first point is the origin, and the path is
	// the heliocentric orbit shifted by Earth's position at start.
	tr, err := s.Sample(reg, bodies.Earth, bodies.Earth, start, time.Time{}, 12)
	require.NoError(t, err)
	require.Equal(t, 12, tr.Len())
	assert.Equal(t, astro.Vec3{}, tr.Points[0])

	helio, err := s.Sample(reg, bodies.Earth, bodies.Sun, start, time.Time{}, 12)
	require.NoError(t, err)
	origin, err := s.Resolver().PositionOf(bodies.Earth, bodies.Sun, start)
	require.NoError(t, err)
	for i := range helio.Points {
		assert.InDelta(t, 0, helio.Points[i].Sub(origin).Distance(tr.Points[i]), 1e-6)

		au := astro.KmToAU(helio.Points[i].Norm() / position.DefaultScale)
		assert.InDelta(t, 1.0, au, 0.02)
	}
}

func TestSamplePlanetAroundMoonUsesFixedOrigin(t *testing.T) {
	s := newSampler()
	reg := bodies.Default()
	tr, err := s.Sample(reg, bodies.Mars, bodies.Moon, start, start.AddDate(0, 0, 60), 3)
	require.NoError(t, err)

	origin, err := s.Resolver().PositionOf(bodies.Moon, bodies.Sun, start)
	require.NoError(t, err)
	for i, at := range tr.Epochs {
		mars, err := s.Resolver().PositionOf(bodies.Mars, bodies.Sun, at)
		require.NoError(t, err)
		assert.Equal(t, mars.Sub(origin), tr.Points[i])
	}
}

func TestSampleUnknownBodies(t *testing.T) {
	s := newSampler()
	small := bodies.MustNew([]bodies.CelestialBody{
		{ID: bodies.Sun, Type: bodies.Star, Radius: 1},
		{ID: bodies.Earth, Type: bodies.Planet, Radius: 1, Parent: bodies.Sun, Period: 365},
	})

	_, err := s.Sample(small, bodies.Mars, bodies.Sun, start, time.Time{}, 10)
	assert.ErrorIs(t, err, bodies.ErrUnknownBody)

	_, err = s.Sample(small, bodies.Earth, bodies.Moon, start, time.Time{}, 10)
	assert.ErrorIs(t, err, bodies.ErrUnknownBody)

	_, err = s.DefaultEnd(small, bodies.Jupiter, start)
	assert.ErrorIs(t, err, bodies.ErrUnknownBody)
}

func TestSampleFailsFastOutsideCoverage(t *testing.T) {
	s := newSampler()
	_, covEnd := s.Resolver().Source().Coverage()
	from := covEnd.AddDate(0, 0, -10)

	tr, err := s.Sample(bodies.Default(), bodies.Moon, bodies.Earth, from, time.Time{}, 50)
	assert.ErrorIs(t, err, ephem.ErrCoverage)
	assert.True(t, tr.Empty())

	tr, err = s.Sample(bodies.Default(), bodies.Mars, bodies.Sun, from, time.Time{}, 50)
	assert.ErrorIs(t, err, ephem.ErrCoverage)
	assert.True(t, tr.Empty())
}

func TestSampleAllPreservesOrder(t *testing.T) {
	s := newSampler()
	targets := []bodies.BodyID{bodies.Neptune, bodies.Moon, bodies.Sun, bodies.Mercury, bodies.Earth}

	trs, err := s.SampleAll(context.Background(), bodies.Default(), targets, bodies.Sun, start, time.Time{}, 32)
	require.NoError(t, err)
	require.Len(t, trs, len(targets))
	for i, tr := range trs {
		assert.Equal(t, targets[i], tr.Target)
		assert.Equal(t, bodies.Sun, tr.Reference)
		if targets[i] == bodies.Sun {
			assert.True(t, tr.Empty())
			continue
		}
		assert.Equal(t, 32, tr.Len())

		single, err := s.Sample(bodies.Default(), targets[i], bodies.Sun, start, time.Time{}, 32)
		require.NoError(t, err)
		assert.Equal(t, single, tr)
	}
}

func TestSampleAllFails(t *testing.T) {
	s := newSampler()
	_, err := s.SampleAll(context.Background(), bodies.Default(),
		[]bodies.BodyID{bodies.Earth, bodies.NoBody, bodies.Mars}, bodies.Sun, start, time.Time{}, 8)
	assert.ErrorIs(t, err, bodies.ErrUnknownBody)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.SampleAll(ctx, bodies.Default(), []bodies.BodyID{bodies.Earth}, bodies.Sun, start, time.Time{}, 8)
	assert.ErrorIs(t, err, context.Canceled)
}
