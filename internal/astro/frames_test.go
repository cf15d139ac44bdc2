package astro

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestVec3Norm(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		want float64
	}{
		{"zero", Vec3{0, 0, 0}, 0},
		{"unit x", Vec3{1, 0, 0}, 1},
		{"unit z", Vec3{0, 0, 1}, 1},
		{"3-4-5", Vec3{3, 4, 0}, 5},
		{"negative", Vec3{-3, -4, 0}, 5},
		{"3D", Vec3{1, 2, 2}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.v.Norm(), 1e-12)
		})
	}
}

func TestVec3Normalized(t *testing.T) {
	assert.Equal(t, Vec3{}, Vec3{}.Normalized())
	n := Vec3{1, 1, 0}.Normalized()
	assert.InDelta(t, 1/math.Sqrt(2), n.X, 1e-12)
	assert.InDelta(t, 1/math.Sqrt(2), n.Y, 1e-12)
	assert.InDelta(t, 0, n.Z, 1e-12)
}

func TestVec3Arithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, -5, 6}

	assert.Equal(t, Vec3{5, -3, 9}, a.Add(b))
	assert.Equal(t, Vec3{-3, 7, -3}, a.Sub(b))
	assert.Equal(t, Vec3{2, 4, 6}, a.Scale(2))
	assert.InDelta(t, 12.0, a.Dot(b), 1e-12)
	assert.InDelta(t, b.Sub(a).Norm(), a.Distance(b), 1e-12)
}

func TestVec3SwapYZ(t *testing.T) {
	v := Vec3{1, 2, 3}
	assert.Equal(t, Vec3{1, 3, 2}, v.SwapYZ())
	assert.Equal(t, v, v.SwapYZ().SwapYZ())
}

func TestEquatorialToEcliptic(t *testing.T) {
	const tilt = 23.439281

	// The x-axis is the rotation axis.
	x := EquatorialToEcliptic(Vec3{1, 0, 0}, tilt)
	assert.InDelta(t, 1, x.X, 1e-12)
	assert.InDelta(t, 0, x.Y, 1e-12)
	assert.InDelta(t, 0, x.Z, 1e-12)

	s, c := math.Sincos(DegToRad(tilt))
	y := EquatorialToEcliptic(Vec3{0, 1, 0}, tilt)
	assert.InDelta(t, c, y.Y, 1e-12)
	assert.InDelta(t, s, y.Z, 1e-12)

	z := EquatorialToEcliptic(Vec3{0, 0, 1}, tilt)
	assert.InDelta(t, -s, z.Y, 1e-12)
	assert.InDelta(t, c, z.Z, 1e-12)
}

func TestEquatorialToEclipticZeroTilt(t *testing.T) {
	v := Vec3{3, -7, 11}
	got := EquatorialToEcliptic(v, 0)
	assert.InDelta(t, v.X, got.X, 1e-12)
	assert.InDelta(t, v.Y, got.Y, 1e-12)
	assert.InDelta(t, v.Z, got.Z, 1e-12)
}

func TestFrameRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, tilt := range []float64{0, 0.034, 3.13, 23.439281, 97.77, 177.36, 179.99} {
		for i := 0; i < 100; i++ {
			v := Vec3{
				X: (rng.Float64() - 0.5) * 2e9,
				Y: (rng.Float64() - 0.5) * 2e9,
				Z: (rng.Float64() - 0.5) * 2e9,
			}
			back := EclipticToEquatorial(EquatorialToEcliptic(v, tilt), tilt)
			assert.True(t, scalar.EqualWithinAbsOrRel(v.X, back.X, 1e-6, 1e-9), "x tilt=%v v=%v", tilt, v)
			assert.True(t, scalar.EqualWithinAbsOrRel(v.Y, back.Y, 1e-6, 1e-9), "y tilt=%v v=%v", tilt, v)
			assert.True(t, scalar.EqualWithinAbsOrRel(v.Z, back.Z, 1e-6, 1e-9), "z tilt=%v v=%v", tilt, v)
		}
	}
}

func TestApproxEqual(t *testing.T) {
	v := Vec3{1e8, -2e3, 0}
	assert.True(t, v.ApproxEqual(v, 0))
	assert.True(t, v.ApproxEqual(Vec3{1e8 + 1, -2e3, 1e-10}, 1e-6))
	assert.False(t, v.ApproxEqual(Vec3{1e8, 2e3, 0}, 1e-6))
	assert.False(t, v.ApproxEqual(v.SwapYZ(), 1e-6))
}

func TestRotationPreservesNorm(t *testing.T) {
	v := Vec3{1.5e8, -2e7, 3e6}
	for _, tilt := range []float64{7.25, 26.73, 97.77} {
		assert.InEpsilon(t, v.Norm(), EquatorialToEcliptic(v, tilt).Norm(), 1e-12)
	}
}

type fixedTilt float64

func (f fixedTilt) AxialTilt() float64 { return float64(f) }

func TestToEclipticUsesReferenceTilt(t *testing.T) {
	v := Vec3{0, 1, 0}
	assert.Equal(t, EquatorialToEcliptic(v, 25.19), ToEcliptic(v, fixedTilt(25.19)))
	assert.Equal(t, EclipticToEquatorial(v, 25.19), ToEquatorial(v, fixedTilt(25.19)))
}

func TestKmToAU(t *testing.T) {
	assert.InDelta(t, 1.0, KmToAU(AU), 1e-12)
	assert.InDelta(t, AU*2.5, AUToKm(2.5), 1e-6)
}

func TestLightTime(t *testing.T) {
	// Light travels 1 AU in ~499.005 seconds
	assert.InDelta(t, 499.005, LightTime(AU), 0.01)
}

func TestFormatLightTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{1.28, "1.3s"},
		{499, "8m19s"},
		{3600 + 120, "1h2m"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLightTime(tt.seconds))
		})
	}
}

func TestEclipticLatitude(t *testing.T) {
	assert.InDelta(t, 0, EclipticLatitude(Vec3{1, 0, 0}), 1e-9)
	assert.InDelta(t, 90, EclipticLatitude(Vec3{0, 0, 1}), 1e-9)
	assert.InDelta(t, 45, EclipticLatitude(Vec3{1, 0, 1}), 1e-9)
	assert.InDelta(t, 0, EclipticLatitude(Vec3{}), 1e-9)
}

func TestEclipticLongitude(t *testing.T) {
	assert.InDelta(t, 0, EclipticLongitude(Vec3{1, 0, 0}), 1e-9)
	assert.InDelta(t, 90, EclipticLongitude(Vec3{0, 1, 0}), 1e-9)
	assert.InDelta(t, 270, EclipticLongitude(Vec3{0, -1, 0}), 1e-9)
}
