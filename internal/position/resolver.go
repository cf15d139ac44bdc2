// Package position resolves body positions into display coordinates.
package position

import (
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/ephem"
)

// DefaultScale is the number of display units per kilometre.
const DefaultScale = 0.005

// Correction is the aberration mode used for every query.
const Correction = ephem.CorrectionAberration

// Resolver turns ephemeris states into display-scaled positions. It holds
// no mutable state and is safe for concurrent use.
type Resolver struct {
	src   ephem.Source
	scale float64
}

// NewResolver returns a resolver over src. A non-positive scale falls back
// to DefaultScale.
func NewResolver(src ephem.Source, scale float64) *Resolver {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Resolver{src: src, scale: scale}
}

// Source returns the underlying ephemeris source.
func (r *Resolver) Source() ephem.Source {
	return r.src
}

// Scale returns the display units per kilometre.
func (r *Resolver) Scale() float64 {
	return r.scale
}

// PositionOf returns target relative to reference at epoch, in the
// equatorial frame of reference with display axes (y up) and display
// units. Apply astro.ToEcliptic for an ecliptic result.
func (r *Resolver) PositionOf(target, reference bodies.BodyID, epoch time.Time) (astro.Vec3, error) {
	key, err := r.src.EphemerisPath(target)
	if err != nil {
		return astro.Vec3{}, err
	}
	frame, err := r.src.ReferenceFrame(reference)
	if err != nil {
		return astro.Vec3{}, err
	}
	st, err := r.src.State(key, epoch, frame, Correction)
	if err != nil {
		return astro.Vec3{}, err
	}
	return r.Display(st.Position), nil
}

// Display converts a raw ephemeris vector in km to display coordinates.
func (r *Resolver) Display(km astro.Vec3) astro.Vec3 {
	return km.SwapYZ().Scale(r.scale)
}

// Kilometres converts a display vector back to raw ephemeris axes in km.
func (r *Resolver) Kilometres(v astro.Vec3) astro.Vec3 {
	return v.Scale(1 / r.scale).SwapYZ()
}
