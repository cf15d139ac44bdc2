package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/state"
)

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Print the positions of the bodies visible from a body",
	Long: `Print the positions of every body visible from --body at the epoch, in
display units on the body's ecliptic frame (X-Z plane, Y up).

A planet sees itself, its star and its moons. A moon sees itself, its
planet and that planet's star. The Sun sees only itself.`,
	Args: cobra.NoArgs,
	RunE: runPositions,
}

func init() {
	positionsCmd.Flags().String("body", "earth", "body at the origin")
	positionsCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(positionsCmd)
}

type positionOutput struct {
	Body       string     `json:"body"`
	Position   [3]float64 `json:"position"`
	DistanceKm float64    `json:"distance_km"`
}

type positionsOutput struct {
	Reference string           `json:"reference"`
	Epoch     time.Time        `json:"epoch"`
	Positions []positionOutput `json:"positions"`
}

func runPositions(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), cmd, nil)
	if err != nil {
		return err
	}
	id, err := parseBody(cmd, "body")
	if err != nil {
		return err
	}

	epoch := a.cfg.Epoch
	res := a.mgr.Sampler().Resolver()
	ps, err := state.PositionsFor(a.mgr.Registry(), res, id, epoch)
	if err != nil {
		return err
	}

	out := positionsOutput{Reference: id.String(), Epoch: epoch, Positions: make([]positionOutput, len(ps))}
	for i, p := range ps {
		out.Positions[i] = positionOutput{
			Body:       p.Body.ID.String(),
			Position:   [3]float64{p.Position.X, p.Position.Y, p.Position.Z},
			DistanceKm: p.Position.Norm() / res.Scale(),
		}
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), out)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Bodies visible from %s at %s\n\n", ps[0].Body, epoch.Format(time.RFC3339))
	rows := make([][]string, len(ps))
	for i, p := range ps {
		km := out.Positions[i].DistanceKm
		rows[i] = []string{
			p.Body.String(),
			fmt.Sprintf("%.3f", p.Position.X),
			fmt.Sprintf("%.3f", p.Position.Y),
			fmt.Sprintf("%.3f", p.Position.Z),
			fmt.Sprintf("%.6f", astro.KmToAU(km)),
			astro.FormatLightTime(astro.LightTime(km)),
		}
	}
	return renderTable(cmd.OutOrStdout(), []string{"BODY", "X", "Y", "Z", "AU", "LIGHT TIME"}, rows)
}
