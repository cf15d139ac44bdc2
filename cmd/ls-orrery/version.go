package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-orrery/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ls-orrery version %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
