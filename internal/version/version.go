// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - HTTP API with WebSocket position stream, Prometheus metrics, catalog hot reload
// 0.2.0 - VSOP87 and preloaded Horizons ephemerides, aberration-corrected positions
// 0.1.0 - Initial release: body registry, analytic ephemeris, orbit sampling, TUI orrery
