package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nvandessel/neuralgraph/internal/config"
	"github.com/nvandessel/neuralgraph/internal/store"
	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached contribution grids",
		Long: `Grids fetched from GitHub are cached in ~/.neuralgraph/grids.db so the
graph can be regenerated with --offline.`,
	}

	cmd.AddCommand(
		newCacheListCmd(),
		newCacheClearCmd(),
	)
	return cmd
}

func openCache() (*store.GridCache, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Cache.Dir == "" {
		return nil, fmt.Errorf("no cache directory configured")
	}
	c, err := store.Open(cfg.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("open grid cache: %w", err)
	}
	return c, nil
}

func newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached grids",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			c, err := openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			entries, err := c.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if entries == nil {
					entries = []store.Entry{}
				}
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"grids": entries,
					"count": len(entries),
				})
			}

			if len(entries) == 0 {
				fmt.Fprintln(out, "No cached grids.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%4d  %-20s  %3d active  %s\n",
					e.ID, e.Login, e.Active, e.FetchedAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached grids",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			c, err := openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.Clear(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{"cleared": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached grid(s).\n", n)
			return nil
		},
	}
}
