package main

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-orrery/internal/ui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive orrery",
	Long: `Launch the interactive terminal orrery.

Controls:
  j/k      - Previous / next body at the origin
  [ / ]    - Epoch back / forward one day
  { / }    - Epoch back / forward 30 days
  t        - Toggle orbit paths
  n/N      - Focus next / previous visible body
  +/-, 0   - Zoom in / out / reset
  arrows   - Pan
  z        - Cycle radial scale
  l        - Cycle labels
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

var tuiBindings = map[string]string{
	"catalog.watch": "watch",
}

func init() {
	tuiCmd.Flags().Bool("watch", false, "reload the catalog file when it changes")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if !isTerminal(cmd.OutOrStdout()) {
		return errors.New("the orrery needs a terminal; use the positions or trajectory commands instead")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, tuiBindings)
	if err != nil {
		return err
	}
	// Log lines would corrupt the alternate screen.
	if isTerminal(cmd.ErrOrStderr()) {
		a.logger.SetOutput(io.Discard)
	}

	if a.cfg.Catalog.Watch && a.cfg.Catalog.Path != "" {
		go func() {
			if err := a.mgr.WatchCatalog(ctx, a.cfg.Catalog.Path); err != nil {
				a.logger.Error("catalog watch: %v", err)
			}
		}()
	}

	p := tea.NewProgram(ui.New(a.mgr, a.logger), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
