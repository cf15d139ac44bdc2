package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/config"
	"github.com/litescript/ls-orrery/internal/ephem"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/position"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/trajectory"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ls-orrery",
	Short: "Terminal orrery of the solar system",
	Long: `ls-orrery shows the Sun, planets and the Moon around any selected body,
with positions taken from an analytic, VSOP87 or JPL Horizons ephemeris.

Without a subcommand it starts the interactive orrery.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

// persistentBindings maps config keys to the root's persistent flags.
var persistentBindings = map[string]string{
	"epoch.default":  "epoch",
	"ephemeris.mode": "ephemeris",
	"catalog.path":   "catalog",
	"display.scale":  "scale",
	"log.level":      "log-level",
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./orrery.toml or ~/.ls-orrery/orrery.toml)")
	flags.String("epoch", "", "epoch as RFC 3339 (default from config)")
	flags.String("ephemeris", "", "ephemeris source: analytic, vsop87 or horizons")
	flags.String("catalog", "", "TOML body catalog replacing the built-in one")
	flags.Float64("scale", 0, "display units per km")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
}

// app bundles the components every subcommand needs.
type app struct {
	cfg    config.Config
	logger *logging.Logger
	mgr    *state.Manager
}

// newApp loads configuration with cmd's flags applied and builds the
// registry, ephemeris source and state manager. A catalog that fails to
// load or validate is fatal.
func newApp(ctx context.Context, cmd *cobra.Command, bindings map[string]string) (*app, error) {
	v := config.New()
	if err := bindFlags(v, cmd, persistentBindings); err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd, bindings); err != nil {
		return nil, err
	}
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}

	logger := logging.NewWithFormat(logging.ParseLevel(cfg.Log.Level), logging.Format(cfg.Log.Format), cmd.ErrOrStderr())

	reg := bodies.Default()
	if cfg.Catalog.Path != "" {
		reg, err = bodies.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		logger.Info("catalog %s: %d bodies", cfg.Catalog.Path, reg.Len())
	}
	if reg.Len() == 0 {
		return nil, fmt.Errorf("catalog has no bodies")
	}

	src, err := ephem.Open(ctx, cfg.EphemerisOptions())
	if err != nil {
		return nil, fmt.Errorf("opening %s ephemeris: %w", cfg.Ephemeris.Mode, err)
	}
	start, end := src.Coverage()
	logger.Debug("ephemeris %s covers %s to %s", src.Name(), start.Format("2006-01-02"), end.Format("2006-01-02"))

	res := position.NewResolver(src, cfg.Scale)
	sampler := trajectory.NewSampler(res, cfg.Trajectory.Workers)

	selected := bodies.Earth
	if !reg.Has(selected) {
		selected = reg.Bodies()[0].ID
	}
	mgr, err := state.NewManager(reg, sampler, state.Config{
		Selected: selected,
		Epoch:    cfg.Epoch,
		Steps:    cfg.Trajectory.Steps,
		Span:     cfg.Trajectory.Span,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, mgr: mgr}, nil
}

// bindFlags binds each config key to the named flag of cmd. Flags a
// command does not have are skipped.
func bindFlags(v *viper.Viper, cmd *cobra.Command, bindings map[string]string) error {
	for key, name := range bindings {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// parseBody parses a --body style flag.
func parseBody(cmd *cobra.Command, name string) (bodies.BodyID, error) {
	s, err := cmd.Flags().GetString(name)
	if err != nil {
		return bodies.NoBody, err
	}
	return bodies.ParseID(s)
}
