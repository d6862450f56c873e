package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "neuralgraph",
		Short: "Render a contribution graph as an animated neural network",
		Long: `neuralgraph fetches a GitHub user's contribution calendar and renders it
as an animated SVG: a pulse travels through a 7-layer network drawn over
the grid, and each day with activity lights up in turn.

Set GITHUB_TOKEN and GITHUB_REPOSITORY_OWNER to use real data. Without
them a random grid is generated.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := generateOptionsFromFlags(cmd)
			if err != nil {
				return err
			}
			return runGenerate(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (generate: same as --format json)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, or trace")
	addGenerateFlags(rootCmd)

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(),
		newCacheCmd(),
	)
	return rootCmd
}
