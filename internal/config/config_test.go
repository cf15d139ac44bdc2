package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-orrery/internal/ephem"
	"github.com/litescript/ls-orrery/internal/position"
)

func TestDefaults(t *testing.T) {
	c, err := FromViper(New())
	require.NoError(t, err)

	assert.InDelta(t, position.DefaultScale, c.Scale, 0)
	assert.Equal(t, time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC), c.Epoch)
	assert.Equal(t, ephem.ModeAnalytic, c.Ephemeris.Mode)
	assert.Equal(t, 1000, c.Trajectory.Steps)
	assert.Equal(t, time.Duration(0), c.Trajectory.Span)
	assert.Greater(t, c.Trajectory.Workers, 0)
	assert.Equal(t, ":8090", c.Server.Addr)
	assert.Equal(t, time.Second, c.Server.PushInterval)
	assert.Equal(t, 10000, c.Server.MaxSteps)
	assert.Equal(t, 10*time.Minute, c.Server.ClientIdle)
	assert.Equal(t, "logfmt", c.Log.Format)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ORRERY_DISPLAY_SCALE", "0.01")
	t.Setenv("ORRERY_TRAJECTORY_STEPS", "64")
	t.Setenv("ORRERY_EPHEMERIS_MODE", "horizons")

	c, err := FromViper(New())
	require.NoError(t, err)
	assert.InDelta(t, 0.01, c.Scale, 0)
	assert.Equal(t, 64, c.Trajectory.Steps)
	assert.Equal(t, ephem.ModeHorizons, c.Ephemeris.Mode)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orrery.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[display]
scale = 0.002

[epoch]
default = "2030-01-01T00:00:00Z"

[trajectory]
steps = 200
span = "720h"

[server]
addr = "127.0.0.1:9000"
`), 0o600))

	c, err := Load(New(), path)
	require.NoError(t, err)
	assert.InDelta(t, 0.002, c.Scale, 0)
	assert.Equal(t, 2030, c.Epoch.Year())
	assert.Equal(t, 200, c.Trajectory.Steps)
	assert.Equal(t, 720*time.Hour, c.Trajectory.Span)
	assert.Equal(t, "127.0.0.1:9000", c.Server.Addr)

	_, err = Load(New(), filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestLoadWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	c, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, 1000, c.Trajectory.Steps)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"zero scale", "display.scale", 0},
		{"negative scale", "display.scale", -1},
		{"zero steps", "trajectory.steps", 0},
		{"too many steps", "trajectory.steps", 2_000_000},
		{"negative span", "trajectory.span", "-1h"},
		{"unknown mode", "ephemeris.mode", "spice"},
		{"vsop87 without dir", "ephemeris.mode", "vsop87"},
		{"bad epoch", "epoch.default", "yesterday"},
		{"bad log format", "log.format", "xml"},
		{"zero rate", "server.rate", 0},
		{"zero push interval", "server.push_interval", "0s"},
		{"zero max steps", "server.max_steps", 0},
		{"max steps over sampler limit", "server.max_steps", 2_000_000},
		{"zero client idle", "server.client_idle", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set(tt.key, tt.val)
			_, err := FromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestEphemerisOptions(t *testing.T) {
	v := New()
	v.Set("ephemeris.mode", "horizons")
	v.Set("ephemeris.table_span", "48h")
	c, err := FromViper(v)
	require.NoError(t, err)

	opts := c.EphemerisOptions()
	assert.Equal(t, ephem.ModeHorizons, opts.Mode)
	assert.Equal(t, c.Epoch.Add(-24*time.Hour), opts.Horizons.Start)
	assert.Equal(t, c.Epoch.Add(24*time.Hour), opts.Horizons.End)
	assert.Equal(t, 6*time.Hour, opts.Horizons.Step)
	assert.Equal(t, ephem.HorizonsAPIURL, opts.Horizons.URL)
}
