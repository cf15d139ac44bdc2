// Package ephem provides ephemeris sources for solar system bodies.
package ephem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
)

// Correction selects how the apparent position of a target is computed.
type Correction int

const (
	// CorrectionNone returns the geometric position.
	CorrectionNone Correction = iota
	// CorrectionLightTime retards the target by the one-way light time.
	CorrectionLightTime
	// CorrectionAberration applies light time and stellar aberration.
	CorrectionAberration
)

// String returns the correction name.
func (c Correction) String() string {
	switch c {
	case CorrectionNone:
		return "none"
	case CorrectionLightTime:
		return "lt"
	case CorrectionAberration:
		return "lt+s"
	default:
		return "unknown"
	}
}

// State is a position (km) and velocity (km/s) in a frame.
type State struct {
	Position astro.Vec3
	Velocity astro.Vec3
}

// Source is the capability every ephemeris backend provides. All positions
// are expressed along ICRF (J2000 equatorial) axes; a Frame only moves the
// origin. Implementations are read-only after construction and safe for
// concurrent use.
type Source interface {
	// Name returns the source name for display/logging.
	Name() string

	// EphemerisPath returns the lookup key used to query a body.
	EphemerisPath(id bodies.BodyID) (Key, error)

	// ReferenceFrame returns the natural frame centred on a body.
	ReferenceFrame(id bodies.BodyID) (Frame, error)

	// State returns the position of key relative to frame's centre at t.
	// It fails with a CoverageError when t lies outside Coverage and with
	// a bodies.UnknownBodyError when key is not served.
	State(key Key, t time.Time, frame Frame, corr Correction) (State, error)

	// Coverage returns the supported time span.
	Coverage() (start, end time.Time)
}

// ErrCoverage matches any CoverageError.
var ErrCoverage = errors.New("epoch outside ephemeris coverage")

// CoverageError reports an epoch outside the span a source supports.
type CoverageError struct {
	Epoch      time.Time
	Start, End time.Time
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("epoch %s outside ephemeris coverage [%s, %s]",
		e.Epoch.Format(time.RFC3339), e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// Is makes errors.Is(err, ErrCoverage) succeed.
func (e *CoverageError) Is(target error) bool {
	return target == ErrCoverage
}

func checkCoverage(t, start, end time.Time) error {
	if t.Before(start) || t.After(end) {
		return &CoverageError{Epoch: t, Start: start, End: end}
	}
	return nil
}

// Mode represents which ephemeris source to use.
type Mode int

const (
	ModeAnalytic Mode = iota // Keplerian elements + lunar theory (default)
	ModeVSOP87               // VSOP87 series files
	ModeHorizons             // JPL Horizons vector tables fetched at startup
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeAnalytic:
		return "analytic"
	case ModeVSOP87:
		return "vsop87"
	case ModeHorizons:
		return "horizons"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "analytic", "":
		return ModeAnalytic, nil
	case "vsop87":
		return ModeVSOP87, nil
	case "horizons":
		return ModeHorizons, nil
	default:
		return ModeAnalytic, fmt.Errorf("unknown ephemeris mode %q", s)
	}
}

// Options selects and configures a Source.
type Options struct {
	Mode      Mode
	VSOP87Dir string
	Horizons  HorizonsConfig
}

// Open constructs the source selected by opts. Any data files or remote
// tables are loaded here, before the source is returned.
func Open(ctx context.Context, opts Options) (Source, error) {
	switch opts.Mode {
	case ModeAnalytic:
		return NewAnalyticSource(), nil
	case ModeVSOP87:
		return NewVSOP87Source(opts.VSOP87Dir)
	case ModeHorizons:
		return NewHorizonsTable(ctx, opts.Horizons)
	default:
		return nil, fmt.Errorf("unknown ephemeris mode %d", int(opts.Mode))
	}
}
