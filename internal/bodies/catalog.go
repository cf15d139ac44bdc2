package bodies

// Catalog returns the built-in ten-body catalog in its canonical order.
// Radii are mean radii in km, tilts are obliquity to the orbit in degrees,
// periods are sidereal in days.
func Catalog() []CelestialBody {
	return []CelestialBody{
		{ID: Sun, Type: Star, Name: "Sun", Radius: 696340.0, Tilt: 7.25, Color: "#FDB813"},
		{ID: Mercury, Type: Planet, Name: "Mercury", Radius: 2439.7, Parent: Sun, Tilt: 0.034, Period: 87.969, Color: "#B5B5B5"},
		{ID: Venus, Type: Planet, Name: "Venus", Radius: 6051.8, Parent: Sun, Tilt: 177.36, Period: 224.701, Color: "#E8CDA2"},
		{ID: Earth, Type: Planet, Name: "Earth", Radius: 6371.0, Parent: Sun, Tilt: 23.439281, Period: 365.256, Color: "#4F7CAC"},
		{ID: Moon, Type: Satellite, Name: "Moon", Radius: 1737.1, Parent: Earth, Tilt: 6.68, Period: 27.321661, Color: "#C8C8C8"},
		{ID: Mars, Type: Planet, Name: "Mars", Radius: 3389.5, Parent: Sun, Tilt: 25.19, Period: 686.980, Color: "#C1440E"},
		{ID: Jupiter, Type: Planet, Name: "Jupiter", Radius: 69911.0, Parent: Sun, Tilt: 3.13, Period: 4332.589, Color: "#D8CA9D"},
		{ID: Saturn, Type: Planet, Name: "Saturn", Radius: 58232.0, Parent: Sun, Tilt: 26.73, Period: 10759.22, Color: "#E3E0C0"},
		{ID: Uranus, Type: Planet, Name: "Uranus", Radius: 25362.0, Parent: Sun, Tilt: 97.77, Period: 30685.4, Color: "#ACE5EE"},
		{ID: Neptune, Type: Planet, Name: "Neptune", Radius: 24622.0, Parent: Sun, Tilt: 28.32, Period: 60189.0, Color: "#4B70DD"},
	}
}

// Default returns a registry built from Catalog.
func Default() *SolarSystem {
	return MustNew(Catalog())
}
