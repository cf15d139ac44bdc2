// Package config loads ls-orrery settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/litescript/ls-orrery/internal/ephem"
	"github.com/litescript/ls-orrery/internal/position"
	"github.com/litescript/ls-orrery/internal/trajectory"
)

// EnvPrefix prefixes every environment override, e.g. ORRERY_DISPLAY_SCALE.
const EnvPrefix = "ORRERY"

// Config is the resolved application configuration.
type Config struct {
	Scale float64
	Epoch time.Time

	Ephemeris  EphemerisConfig
	Trajectory TrajectoryConfig
	Catalog    CatalogConfig
	Log        LogConfig
	Server     ServerConfig
}

// EphemerisConfig selects the ephemeris source.
type EphemerisConfig struct {
	Mode         ephem.Mode
	VSOP87Dir    string
	HorizonsURL  string
	TableSpan    time.Duration
	TableStep    time.Duration
	RequestEvery time.Duration
}

// TrajectoryConfig controls orbit sampling.
type TrajectoryConfig struct {
	Steps   int
	Span    time.Duration // 0 means one orbital period
	Workers int
}

// CatalogConfig points at an optional catalog file.
type CatalogConfig struct {
	Path  string
	Watch bool
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string
	Format string
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr         string
	Rate         float64 // requests per second per client
	Burst        int
	PushInterval time.Duration
	PushStep     time.Duration // epoch advance per push
	MaxSteps     int           // largest steps a query may request
	ClientIdle   time.Duration // idle time before a client's rate bucket is dropped
}

// SetDefaults installs every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("display.scale", position.DefaultScale)
	v.SetDefault("epoch.default", "2024-07-04T12:00:00Z")
	v.SetDefault("ephemeris.mode", ephem.ModeAnalytic.String())
	v.SetDefault("ephemeris.vsop87_dir", "")
	v.SetDefault("ephemeris.horizons_url", ephem.HorizonsAPIURL)
	v.SetDefault("ephemeris.table_span", "8760h")
	v.SetDefault("ephemeris.table_step", "6h")
	v.SetDefault("ephemeris.request_every", "500ms")
	v.SetDefault("trajectory.steps", 1000)
	v.SetDefault("trajectory.span", "0s")
	v.SetDefault("trajectory.workers", runtime.GOMAXPROCS(0))
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "logfmt")
	v.SetDefault("server.addr", ":8090")
	v.SetDefault("server.rate", 10.0)
	v.SetDefault("server.burst", 20)
	v.SetDefault("server.push_interval", "1s")
	v.SetDefault("server.push_step", "1h")
	v.SetDefault("server.max_steps", 10000)
	v.SetDefault("server.client_idle", "10m")
}

// New returns a viper instance with defaults and environment overrides.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file (explicit path, or orrery.toml in . and
// $HOME/.ls-orrery) into v and resolves it. A missing default file is
// not an error; a missing explicit file is.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("orrery")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".ls-orrery"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper resolves and validates the settings held by v.
func FromViper(v *viper.Viper) (Config, error) {
	mode, err := ephem.ParseMode(v.GetString("ephemeris.mode"))
	if err != nil {
		return Config{}, err
	}
	epoch, err := time.Parse(time.RFC3339, v.GetString("epoch.default"))
	if err != nil {
		return Config{}, fmt.Errorf("epoch.default: %w", err)
	}

	c := Config{
		Scale: v.GetFloat64("display.scale"),
		Epoch: epoch.UTC(),
		Ephemeris: EphemerisConfig{
			Mode:         mode,
			VSOP87Dir:    v.GetString("ephemeris.vsop87_dir"),
			HorizonsURL:  v.GetString("ephemeris.horizons_url"),
			TableSpan:    v.GetDuration("ephemeris.table_span"),
			TableStep:    v.GetDuration("ephemeris.table_step"),
			RequestEvery: v.GetDuration("ephemeris.request_every"),
		},
		Trajectory: TrajectoryConfig{
			Steps:   v.GetInt("trajectory.steps"),
			Span:    v.GetDuration("trajectory.span"),
			Workers: v.GetInt("trajectory.workers"),
		},
		Catalog: CatalogConfig{
			Path:  v.GetString("catalog.path"),
			Watch: v.GetBool("catalog.watch"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Server: ServerConfig{
			Addr:         v.GetString("server.addr"),
			Rate:         v.GetFloat64("server.rate"),
			Burst:        v.GetInt("server.burst"),
			PushInterval: v.GetDuration("server.push_interval"),
			PushStep:     v.GetDuration("server.push_step"),
			MaxSteps:     v.GetInt("server.max_steps"),
			ClientIdle:   v.GetDuration("server.client_idle"),
		},
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	switch {
	case !(c.Scale > 0):
		return fmt.Errorf("display.scale must be positive, got %v", c.Scale)
	case c.Trajectory.Steps <= 0 || c.Trajectory.Steps > trajectory.MaxSteps:
		return fmt.Errorf("trajectory.steps must be in [1, %d], got %d", trajectory.MaxSteps, c.Trajectory.Steps)
	case c.Trajectory.Span < 0:
		return fmt.Errorf("trajectory.span must not be negative, got %s", c.Trajectory.Span)
	case c.Ephemeris.Mode == ephem.ModeVSOP87 && c.Ephemeris.VSOP87Dir == "":
		return fmt.Errorf("ephemeris.vsop87_dir is required in vsop87 mode")
	case c.Ephemeris.Mode == ephem.ModeHorizons && (c.Ephemeris.TableSpan <= 0 || c.Ephemeris.TableStep <= 0):
		return fmt.Errorf("ephemeris.table_span and table_step must be positive in horizons mode")
	case c.Log.Format != "logfmt" && c.Log.Format != "json":
		return fmt.Errorf("log.format must be logfmt or json, got %q", c.Log.Format)
	case c.Server.Rate <= 0 || c.Server.Burst <= 0:
		return fmt.Errorf("server.rate and server.burst must be positive")
	case c.Server.PushInterval <= 0:
		return fmt.Errorf("server.push_interval must be positive")
	case c.Server.MaxSteps <= 0 || c.Server.MaxSteps > trajectory.MaxSteps:
		return fmt.Errorf("server.max_steps must be in [1, %d], got %d", trajectory.MaxSteps, c.Server.MaxSteps)
	case c.Server.ClientIdle <= 0:
		return fmt.Errorf("server.client_idle must be positive")
	}
	return nil
}

// EphemerisOptions converts the settings into source options. The
// Horizons table is centred on the default epoch.
func (c Config) EphemerisOptions() ephem.Options {
	half := c.Ephemeris.TableSpan / 2
	return ephem.Options{
		Mode:      c.Ephemeris.Mode,
		VSOP87Dir: c.Ephemeris.VSOP87Dir,
		Horizons: ephem.HorizonsConfig{
			URL:      c.Ephemeris.HorizonsURL,
			Start:    c.Epoch.Add(-half),
			End:      c.Epoch.Add(half),
			Step:     c.Ephemeris.TableStep,
			Interval: c.Ephemeris.RequestEvery,
		},
	}
}
