// Package astro provides vector math and reference-frame rotations for the orrery.
package astro

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// AU is the Astronomical Unit in kilometers.
const AU = 149597870.7

// SpeedOfLight in km/s.
const SpeedOfLight = 299792.458

// Vec3 represents a 3D vector in any reference frame.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the magnitude of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized returns a unit vector in the same direction.
func (v Vec3) Normalized() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return Vec3{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}

// Scale returns the vector scaled by a factor.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Add returns the sum of two vectors.
func (v Vec3) Add(u Vec3) Vec3 {
	return Vec3{X: v.X + u.X, Y: v.Y + u.Y, Z: v.Z + u.Z}
}

// Sub returns the difference of two vectors.
func (v Vec3) Sub(u Vec3) Vec3 {
	return Vec3{X: v.X - u.X, Y: v.Y - u.Y, Z: v.Z - u.Z}
}

// Dot returns the scalar product.
func (v Vec3) Dot(u Vec3) float64 {
	return v.X*u.X + v.Y*u.Y + v.Z*u.Z
}

// Distance returns |v - u|.
func (v Vec3) Distance(u Vec3) float64 {
	return v.Sub(u).Norm()
}

// ApproxEqual reports whether each component of v is within tol of u,
// absolutely or relative to the larger magnitude.
func (v Vec3) ApproxEqual(u Vec3, tol float64) bool {
	return scalar.EqualWithinAbsOrRel(v.X, u.X, tol, tol) &&
		scalar.EqualWithinAbsOrRel(v.Y, u.Y, tol, tol) &&
		scalar.EqualWithinAbsOrRel(v.Z, u.Z, tol, tol)
}

// SwapYZ exchanges the second and third components. Ephemerides are
// z-up while the display is y-up; this is an axis relabelling only.
func (v Vec3) SwapYZ() Vec3 {
	return Vec3{X: v.X, Y: v.Z, Z: v.Y}
}

// String implements fmt.Stringer.
func (v Vec3) String() string {
	return fmt.Sprintf("(%.6g, %.6g, %.6g)", v.X, v.Y, v.Z)
}

// Tilted is anything with an axial tilt in degrees.
type Tilted interface {
	AxialTilt() float64
}

// Rotation returns the matrix rotating a vector about the x-axis by angle
// radians:
//
//	x' = x
//	y' = y·cos − z·sin
//	z' = y·sin + z·cos
func Rotation(angle float64) *mat.Dense {
	s, c := math.Sincos(angle)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// Apply returns m·v for a 3x3 matrix m.
func Apply(m mat.Matrix, v Vec3) Vec3 {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return Vec3{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

func rotateX(v Vec3, angle float64) Vec3 {
	return Apply(Rotation(angle), v)
}

// EquatorialToEcliptic rotates an equatorial vector into the ecliptic frame
// of a body whose axial tilt is tiltDeg. Units are preserved.
func EquatorialToEcliptic(eq Vec3, tiltDeg float64) Vec3 {
	return rotateX(eq, DegToRad(tiltDeg))
}

// EclipticToEquatorial is the inverse of EquatorialToEcliptic.
func EclipticToEquatorial(ecl Vec3, tiltDeg float64) Vec3 {
	return rotateX(ecl, -DegToRad(tiltDeg))
}

// ToEcliptic rotates v from the equatorial frame of ref into its ecliptic frame.
func ToEcliptic(v Vec3, ref Tilted) Vec3 {
	return EquatorialToEcliptic(v, ref.AxialTilt())
}

// ToEquatorial rotates v from the ecliptic frame of ref into its equatorial frame.
func ToEquatorial(v Vec3, ref Tilted) Vec3 {
	return EclipticToEquatorial(v, ref.AxialTilt())
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// KmToAU converts kilometers to Astronomical Units.
func KmToAU(km float64) float64 {
	return km / AU
}

// AUToKm converts Astronomical Units to kilometers.
func AUToKm(au float64) float64 {
	return au * AU
}

// EclipticLatitude returns the ecliptic latitude in degrees for a vector.
func EclipticLatitude(v Vec3) float64 {
	r := v.Norm()
	if r == 0 {
		return 0
	}
	return RadToDeg(math.Asin(v.Z / r))
}

// EclipticLongitude returns the ecliptic longitude in degrees for a vector.
func EclipticLongitude(v Vec3) float64 {
	lon := RadToDeg(math.Atan2(v.Y, v.X))
	if lon < 0 {
		lon += 360
	}
	return lon
}

// LightTime returns the one-way light time in seconds over km.
func LightTime(km float64) float64 {
	return km / SpeedOfLight
}

// FormatLightTime formats light time in seconds to a human-readable string.
func FormatLightTime(seconds float64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.1fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm%ds", int(seconds/60), int(seconds)%60)
	default:
		return fmt.Sprintf("%dh%dm", int(seconds/3600), (int(seconds)%3600)/60)
	}
}
