package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/litescript/ls-orrery/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve positions and trajectories over HTTP",
	Long: `Serve the orrery over HTTP:

  GET /api/bodies                          body catalog
  GET /api/positions?body=&epoch=          visible positions
  GET /api/trajectories?body=&epoch=&steps=&span=
  GET /api/events                          recent state changes
  GET /ws?body=&epoch=                     position stream
  GET /metrics                             Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveBindings = map[string]string{
	"server.addr":   "addr",
	"catalog.watch": "watch",
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	serveCmd.Flags().Bool("watch", false, "reload the catalog file when it changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, serveBindings)
	if err != nil {
		return err
	}

	srv := server.New(a.mgr, server.Options{
		Rate:         a.cfg.Server.Rate,
		Burst:        a.cfg.Server.Burst,
		PushInterval: a.cfg.Server.PushInterval,
		PushStep:     a.cfg.Server.PushStep,
		MaxSteps:     a.cfg.Server.MaxSteps,
		ClientIdle:   a.cfg.Server.ClientIdle,
	}, a.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, a.cfg.Server.Addr)
	})
	if a.cfg.Catalog.Watch && a.cfg.Catalog.Path != "" {
		g.Go(func() error {
			return a.mgr.WatchCatalog(ctx, a.cfg.Catalog.Path)
		})
	}
	return g.Wait()
}
