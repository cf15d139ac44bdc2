package astro

import "math"

// ProjectedPoint represents a 2D projected position with metadata.
type ProjectedPoint struct {
	X float64 // Screen X coordinate (normalized)
	Y float64 // Screen Y coordinate (normalized)
	R float64 // Unprojected 3D distance in AU
	H float64 // Height above the ecliptic plane in AU
}

// ScaleMode defines how radial distances are mapped to screen space.
type ScaleMode int

const (
	// ScaleLogR uses logarithmic scaling: r_display = log10(r_AU + 1)
	ScaleLogR ScaleMode = iota

	// ScaleInner uses linear scaling optimized for 0-5 AU
	ScaleInner

	// ScaleOuter uses compressed scaling for outer solar system (>5 AU)
	ScaleOuter

	// ScaleLocal uses linear scaling for 0-0.01 AU (planet-moon systems)
	ScaleLocal
)

// String returns the scale mode name.
func (m ScaleMode) String() string {
	switch m {
	case ScaleLogR:
		return "log"
	case ScaleInner:
		return "inner"
	case ScaleOuter:
		return "outer"
	case ScaleLocal:
		return "local"
	default:
		return "unknown"
	}
}

// scaleModeCount is the number of ScaleMode values, for cycling.
const scaleModeCount = 4

// Next returns the following scale mode, wrapping around.
func (m ScaleMode) Next() ScaleMode {
	return (m + 1) % scaleModeCount
}

// ProjectionConfig configures the top-down ecliptic projection.
type ProjectionConfig struct {
	Scale float64   // Base scale factor
	Mode  ScaleMode // Scaling mode
}

// DefaultProjectionConfig returns a reasonable default configuration.
func DefaultProjectionConfig() ProjectionConfig {
	return ProjectionConfig{
		Scale: 1.0,
		Mode:  ScaleLogR,
	}
}

// ProjectTopDown projects a display-frame vector (in AU) onto the ecliptic
// plane as seen from above. Display vectors are y-up, so the ecliptic plane
// is spanned by X and Z and Y is the height above it.
func ProjectTopDown(v Vec3, cfg ProjectionConfig) ProjectedPoint {
	rAU := math.Hypot(v.X, v.Z)
	rDisplay := scaleRadius(rAU, cfg.Mode)
	angle := math.Atan2(v.Z, v.X)

	return ProjectedPoint{
		X: rDisplay * math.Cos(angle) * cfg.Scale,
		Y: rDisplay * math.Sin(angle) * cfg.Scale,
		R: v.Norm(),
		H: v.Y,
	}
}

// scaleRadius applies the configured scaling mode to a radial distance.
func scaleRadius(rAU float64, mode ScaleMode) float64 {
	switch mode {
	case ScaleInner:
		// Clamp outer planets to the edge
		if rAU > 5 {
			return 5
		}
		return rAU
	case ScaleOuter:
		// Linear to 5 AU, logarithmic beyond
		if rAU <= 5 {
			return rAU / 5 * 0.5
		}
		return 0.5 + math.Log10(rAU/5+1)*0.5
	case ScaleLocal:
		if rAU > 0.01 {
			return 1
		}
		return rAU * 100
	default:
		return math.Log10(rAU + 1)
	}
}
