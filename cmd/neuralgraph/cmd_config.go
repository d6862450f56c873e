package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/neuralgraph/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect neuralgraph configuration",
		Long: `View the effective neuralgraph configuration.

Settings come from ~/.neuralgraph/config.yaml, overridden by environment
variables (GITHUB_TOKEN, GITHUB_REPOSITORY_OWNER, NEURALGRAPH_*).`,
	}

	cmd.AddCommand(newConfigListCmd())
	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				redacted := *cfg
				redacted.GitHub.Token = cfg.GitHub.RedactedToken()
				return json.NewEncoder(out).Encode(redacted)
			}

			fmt.Fprintln(out, "Configuration (~/.neuralgraph/config.yaml):")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "GitHub Settings:")
			fmt.Fprintf(out, "  github.owner:          %s\n", valueOrDefault(cfg.GitHub.Owner, "(not set)"))
			fmt.Fprintf(out, "  github.token:          %s\n", valueOrDefault(cfg.GitHub.RedactedToken(), "(not set)"))
			fmt.Fprintf(out, "  github.endpoint:       %s\n", cfg.GitHub.Endpoint)
			fmt.Fprintf(out, "  github.timeout:        %v\n", cfg.GitHub.Timeout)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Render Settings:")
			fmt.Fprintf(out, "  render.output:         %s\n", cfg.Render.Output)
			fmt.Fprintf(out, "  render.step_time:      %g\n", cfg.Render.StepTime)
			fmt.Fprintf(out, "  render.discovery_seed: %d\n", cfg.Render.DiscoverySeed)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Cache Settings:")
			fmt.Fprintf(out, "  cache.enabled:         %v\n", cfg.Cache.Enabled)
			fmt.Fprintf(out, "  cache.dir:             %s\n", valueOrDefault(cfg.Cache.Dir, "(none)"))
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  logging.level:         %s\n", valueOrDefault(cfg.Logging.Level, "info"))
			return nil
		},
	}
}

func valueOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
