package ephem

import (
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/kepler"
	"github.com/soniakeys/unit"

	"github.com/litescript/ls-orrery/internal/astro"
)

// J2000 is the Julian Ephemeris Day of the J2000.0 epoch.
const J2000 = 2451545.0

// ObliquityJ2000 is the mean obliquity of the ecliptic at J2000 in degrees.
const ObliquityJ2000 = 23.439281

// keplerPlaces is the decimal precision requested from the Kepler solver.
const keplerPlaces = 10

// meanElements are Keplerian elements at J2000 plus their rates per Julian
// century, from Standish, "Keplerian Elements for Approximate Positions of
// the Major Planets" (Tables 2a and 2b, valid 3000 BC to 3000 AD).
type meanElements struct {
	a, e, i, l, peri, node                   float64 // AU, -, deg, deg, deg, deg
	aDot, eDot, iDot, lDot, periDot, nodeDot float64 // per century

	// Extra mean-anomaly terms for Jupiter through Neptune.
	b, c, s, f float64
}

var elementTable = map[Key]meanElements{
	NAIFMercury: {
		a: 0.38709843, e: 0.20563661, i: 7.00559432, l: 252.25166724, peri: 77.45771895, node: 48.33961819,
		eDot: 0.00002123, iDot: -0.00590158, lDot: 149472.67486623, periDot: 0.15940013, nodeDot: -0.12214182,
	},
	NAIFVenus: {
		a: 0.72332102, e: 0.00676399, i: 3.39777545, l: 181.97970850, peri: 131.76755713, node: 76.67261496,
		aDot: -0.00000026, eDot: -0.00005107, iDot: 0.00043494, lDot: 58517.81560260, periDot: 0.05679648, nodeDot: -0.27274174,
	},
	NAIFEarthMoonBary: {
		a: 1.00000018, e: 0.01673163, i: -0.00054346, l: 100.46691572, peri: 102.93005885, node: -5.11260389,
		aDot: -0.00000003, eDot: -0.00003661, iDot: -0.01337178, lDot: 35999.37306329, periDot: 0.31795260, nodeDot: -0.24123856,
	},
	NAIFMarsBarycenter: {
		a: 1.52371243, e: 0.09336511, i: 1.85181869, l: -4.56813164, peri: -23.91744784, node: 49.71320984,
		aDot: 0.00000097, eDot: 0.00009149, iDot: -0.00724757, lDot: 19140.29934243, periDot: 0.45223625, nodeDot: -0.26852431,
	},
	NAIFJupiterBarycenter: {
		a: 5.20248019, e: 0.04853590, i: 1.29861416, l: 34.33479152, peri: 14.27495244, node: 100.29282654,
		aDot: -0.00002864, eDot: 0.00018026, iDot: -0.00322699, lDot: 3034.90371757, periDot: 0.18199196, nodeDot: 0.13024619,
		b: -0.00012452, c: 0.06064060, s: -0.35635438, f: 38.35125,
	},
	NAIFSaturnBarycenter: {
		a: 9.54149883, e: 0.05550825, i: 2.49424102, l: 50.07571329, peri: 92.86136063, node: 113.63998702,
		aDot: -0.00003065, eDot: -0.00032044, iDot: 0.00451969, lDot: 1222.11494724, periDot: 0.54179478, nodeDot: -0.25015002,
		b: 0.00025899, c: -0.13434469, s: 0.87320147, f: 38.35125,
	},
	NAIFUranusBarycenter: {
		a: 19.18797948, e: 0.04685740, i: 0.77298127, l: 314.20276625, peri: 172.43404441, node: 73.96250215,
		aDot: -0.00020455, eDot: -0.00001550, iDot: -0.00180155, lDot: 428.49512595, periDot: 0.09266985, nodeDot: 0.05739699,
		b: 0.00058331, c: -0.97731848, s: 0.17689245, f: 7.67025,
	},
	NAIFNeptuneBarycenter: {
		a: 30.06952752, e: 0.00895439, i: 1.77005520, l: 304.22289287, peri: 46.68158724, node: 131.78635853,
		aDot: 0.00006447, eDot: 0.00000818, iDot: 0.00022400, lDot: 218.46515314, periDot: 0.01009938, nodeDot: -0.00606302,
		b: -0.00041348, c: 0.68346318, s: -0.10162547, f: 7.67025,
	},
}

// position returns the heliocentric position in AU on the J2000 ecliptic
// at jde.
func (el meanElements) position(jde float64) (astro.Vec3, error) {
	T := (jde - J2000) / 36525

	a := el.a + el.aDot*T
	e := el.e + el.eDot*T
	inc := astro.DegToRad(el.i + el.iDot*T)
	l := el.l + el.lDot*T
	peri := el.peri + el.periDot*T
	node := el.node + el.nodeDot*T

	m := l - peri + el.b*T*T
	if el.f != 0 {
		fT := astro.DegToRad(el.f * T)
		m += el.c*math.Cos(fT) + el.s*math.Sin(fT)
	}
	m = math.Mod(m, 360)
	if m > 180 {
		m -= 360
	} else if m < -180 {
		m += 360
	}

	E, err := kepler.Kepler2(e, unit.AngleFromDeg(m), keplerPlaces)
	if err != nil {
		return astro.Vec3{}, fmt.Errorf("solving Kepler's equation: %w", err)
	}
	sE, cE := math.Sincos(E.Rad())

	// Orbital-plane coordinates, x toward perihelion.
	xp := a * (cE - e)
	yp := a * math.Sqrt(1-e*e) * sE

	so, co := math.Sincos(astro.DegToRad(peri - node))
	sn, cn := math.Sincos(astro.DegToRad(node))
	si, ci := math.Sincos(inc)

	return astro.Vec3{
		X: (co*cn-so*sn*ci)*xp + (-so*cn-co*sn*ci)*yp,
		Y: (co*sn+so*cn*ci)*xp + (-so*sn+co*cn*ci)*yp,
		Z: (so*si)*xp + (co*si)*yp,
	}, nil
}

// eclipticToICRF rotates a J2000 ecliptic vector onto ICRF axes.
func eclipticToICRF(v astro.Vec3) astro.Vec3 {
	return astro.Apply(eclipticRotation, v)
}

var eclipticRotation = astro.Rotation(astro.DegToRad(ObliquityJ2000))
