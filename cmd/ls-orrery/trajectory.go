package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-orrery/internal/astro"
)

var trajectoryCmd = &cobra.Command{
	Use:   "trajectory",
	Short: "Sample the orbit of a body around a reference",
	Long: `Sample --steps positions of --body relative to --reference, starting at
the epoch and spanning --span (default: one orbital period of --body).

Planets are sampled around the Sun and shifted so the orbit passes through
the reference's position at the start epoch.`,
	Args: cobra.NoArgs,
	RunE: runTrajectory,
}

var trajectoryBindings = map[string]string{
	"trajectory.steps": "steps",
	"trajectory.span":  "span",
}

func init() {
	flags := trajectoryCmd.Flags()
	flags.String("body", "moon", "body to sample")
	flags.String("reference", "earth", "reference body at the origin")
	flags.Int("steps", 0, "number of samples (default from config)")
	flags.Duration("span", 0, "time covered by the samples (default one orbital period)")
	flags.Bool("json", false, "output as JSON")
	rootCmd.AddCommand(trajectoryCmd)
}

type trajectoryOutput struct {
	Body      string       `json:"body"`
	Reference string       `json:"reference"`
	Epochs    []time.Time  `json:"epochs"`
	Points    [][3]float64 `json:"points"`
}

func runTrajectory(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), cmd, trajectoryBindings)
	if err != nil {
		return err
	}
	target, err := parseBody(cmd, "body")
	if err != nil {
		return err
	}
	reference, err := parseBody(cmd, "reference")
	if err != nil {
		return err
	}
	ref, err := a.mgr.Registry().Get(reference)
	if err != nil {
		return err
	}

	start := a.cfg.Epoch
	var end time.Time
	if a.cfg.Trajectory.Span > 0 {
		end = start.Add(a.cfg.Trajectory.Span)
	}
	tr, err := a.mgr.Sampler().Sample(a.mgr.Registry(), target, reference, start, end, a.cfg.Trajectory.Steps)
	if err != nil {
		return err
	}

	out := trajectoryOutput{
		Body:      target.String(),
		Reference: reference.String(),
		Epochs:    make([]time.Time, tr.Len()),
		Points:    make([][3]float64, tr.Len()),
	}
	copy(out.Epochs, tr.Epochs)
	for i, p := range tr.Points {
		e := astro.ToEcliptic(p, ref)
		out.Points[i] = [3]float64{e.X, e.Y, e.Z}
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), out)
	}

	if tr.Empty() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s has no orbit to sample.\n", target)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d samples of %s around %s from %s\n\n", tr.Len(), target, reference, start.Format(time.RFC3339))
	rows := make([][]string, tr.Len())
	for i := range out.Points {
		p := out.Points[i]
		rows[i] = []string{
			fmt.Sprintf("%d", i),
			out.Epochs[i].Format(time.RFC3339),
			fmt.Sprintf("%.3f", p[0]),
			fmt.Sprintf("%.3f", p[1]),
			fmt.Sprintf("%.3f", p[2]),
		}
	}
	return renderTable(cmd.OutOrStdout(), []string{"#", "EPOCH", "X", "Y", "Z"}, rows)
}
