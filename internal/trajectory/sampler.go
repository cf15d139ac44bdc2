// Package trajectory samples orbital paths over time.
package trajectory

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/position"
)

// MaxSteps bounds the points in one trajectory.
const MaxSteps = 1_000_000

// Trajectory is a chronologically ordered polyline in display units, in
// the equatorial frame of Reference.
type Trajectory struct {
	Target    bodies.BodyID
	Reference bodies.BodyID
	Epochs    []time.Time
	Points    []astro.Vec3
}

// Len returns the number of points.
func (t Trajectory) Len() int {
	return len(t.Points)
}

// Empty reports whether the trajectory has no points.
func (t Trajectory) Empty() bool {
	return len(t.Points) == 0
}

// Sampler produces trajectories from a resolver. It is stateless and safe
// for concurrent use.
type Sampler struct {
	res     *position.Resolver
	workers int
}

// NewSampler returns a sampler. workers bounds SampleAll's parallelism;
// zero or less means GOMAXPROCS.
func NewSampler(res *position.Resolver, workers int) *Sampler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Sampler{res: res, workers: workers}
}

// Resolver returns the resolver used for each point.
func (s *Sampler) Resolver() *position.Resolver {
	return s.res
}

// DefaultEnd returns start plus the orbital period of target.
func (s *Sampler) DefaultEnd(reg *bodies.SolarSystem, target bodies.BodyID, start time.Time) (time.Time, error) {
	b, err := reg.Get(target)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(b.OrbitalPeriod()), nil
}

// Sample returns steps points of target's path around reference, sampled
// at start + i·(end−start)/steps for i in [0, steps). A zero end means one
// orbital period of target. The Sun yields an empty trajectory.
//
// steps must be in [1, MaxSteps] and end must fall after start: an empty
// span has no distinct epochs to sample, so it is rejected like a reversed
// one, with InvalidSampleCountError.
//
// Planets are sampled heliocentrically and re-based onto reference's
// position at start; other bodies are sampled directly relative to
// reference. Any failed point fails the whole trajectory.
func (s *Sampler) Sample(reg *bodies.SolarSystem, target, reference bodies.BodyID, start, end time.Time, steps int) (Trajectory, error) {
	out := Trajectory{Target: target, Reference: reference}
	if steps <= 0 || steps > MaxSteps {
		return out, &InvalidSampleCountError{Steps: steps, Span: end.Sub(start), Max: MaxSteps}
	}
	if target == bodies.Sun {
		return out, nil
	}

	body, err := reg.Get(target)
	if err != nil {
		return out, err
	}
	if _, err := reg.Get(reference); err != nil {
		return out, err
	}
	if end.IsZero() {
		end = start.Add(body.OrbitalPeriod())
	}
	span := end.Sub(start)
	if span <= 0 {
		return out, &InvalidSampleCountError{Steps: steps, Span: span}
	}

	at := func(i int) time.Time {
		return start.Add(time.Duration(float64(span) * float64(i) / float64(steps)))
	}

	out.Epochs = make([]time.Time, steps)
	out.Points = make([]astro.Vec3, steps)

	if body.Type == bodies.Planet {
		origin, err := s.res.PositionOf(reference, bodies.Sun, start)
		if err != nil {
			return Trajectory{Target: target, Reference: reference}, err
		}
		for i := 0; i < steps; i++ {
			t := at(i)
			p, err := s.res.PositionOf(target, bodies.Sun, t)
			if err != nil {
				return Trajectory{Target: target, Reference: reference}, err
			}
			out.Epochs[i] = t
			out.Points[i] = p.Sub(origin)
		}
		return out, nil
	}

	for i := 0; i < steps; i++ {
		t := at(i)
		p, err := s.res.PositionOf(target, reference, t)
		if err != nil {
			return Trajectory{Target: target, Reference: reference}, err
		}
		out.Epochs[i] = t
		out.Points[i] = p
	}
	return out, nil
}

// SampleAll samples several targets concurrently around one reference and
// returns trajectories in the order of targets. The first failure cancels
// the remaining work. A zero end means one period per target.
func (s *Sampler) SampleAll(ctx context.Context, reg *bodies.SolarSystem, targets []bodies.BodyID, reference bodies.BodyID, start, end time.Time, steps int) ([]Trajectory, error) {
	out := make([]Trajectory, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tr, err := s.Sample(reg, target, reference, start, end, steps)
			if err != nil {
				return err
			}
			out[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
