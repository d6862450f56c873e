package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/signal"

	"github.com/nvandessel/neuralgraph/internal/config"
	"github.com/nvandessel/neuralgraph/internal/contrib"
	"github.com/nvandessel/neuralgraph/internal/layout"
	"github.com/nvandessel/neuralgraph/internal/logging"
	"github.com/nvandessel/neuralgraph/internal/store"
	"github.com/nvandessel/neuralgraph/internal/visualization"
	"github.com/spf13/cobra"
)

// generateOptions are the command-line overrides for a generate run.
// Zero values leave the loaded configuration untouched.
type generateOptions struct {
	output   string
	format   visualization.Format
	mock     bool
	offline  bool
	cache    bool
	noCache  bool
	open     bool
	seed     uint64
	seedSet  bool
	logLevel string
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Output file path (default neural_network_graph.svg)")
	cmd.Flags().String("format", "svg", "Output format: svg or json")
	cmd.Flags().Bool("mock", false, "Use a random grid even if credentials are set")
	cmd.Flags().Bool("offline", false, "Render the newest cached grid instead of fetching")
	cmd.Flags().Bool("cache", false, "Store the fetched grid for later --offline runs")
	cmd.Flags().Bool("no-cache", false, "Don't store the fetched grid, even if enabled in config")
	cmd.Flags().Bool("open", false, "Open the generated file in the default viewer")
	cmd.Flags().Uint64("seed", layout.DefaultDiscoverySeed, "Seed for the discovery order")
}

func generateOptionsFromFlags(cmd *cobra.Command) (generateOptions, error) {
	var opts generateOptions
	opts.output, _ = cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	opts.mock, _ = cmd.Flags().GetBool("mock")
	opts.offline, _ = cmd.Flags().GetBool("offline")
	opts.cache, _ = cmd.Flags().GetBool("cache")
	opts.noCache, _ = cmd.Flags().GetBool("no-cache")
	opts.open, _ = cmd.Flags().GetBool("open")
	opts.seed, _ = cmd.Flags().GetUint64("seed")
	opts.seedSet = cmd.Flags().Changed("seed")
	opts.logLevel, _ = cmd.Flags().GetString("log-level")

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		if cmd.Flags().Changed("format") && format != string(visualization.FormatJSON) {
			return opts, fmt.Errorf("--json conflicts with --format %s", format)
		}
		format = string(visualization.FormatJSON)
	}

	opts.format = visualization.Format(format)
	switch opts.format {
	case visualization.FormatSVG, visualization.FormatJSON:
	default:
		return opts, fmt.Errorf("unsupported format %q (use 'svg' or 'json')", format)
	}

	if opts.mock && opts.offline {
		return opts, fmt.Errorf("--mock and --offline are mutually exclusive")
	}
	if opts.cache && opts.noCache {
		return opts, fmt.Errorf("--cache and --no-cache are mutually exclusive")
	}
	return opts, nil
}

// apply folds the options into cfg.
func (o generateOptions) apply(cfg *config.Config) {
	if o.output != "" {
		cfg.Render.Output = o.output
	}
	if o.seedSet {
		cfg.Render.DiscoverySeed = o.seed
	}
	if o.cache {
		cfg.Cache.Enabled = true
	}
	if o.noCache {
		cfg.Cache.Enabled = false
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
}

func runGenerate(cmd *cobra.Command, opts generateOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	trace := logging.NewTraceLogger(cfg.Cache.Dir, cfg.Logging.Level)
	defer trace.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), interruptSignals...)
	defer stop()

	src, closeSrc, err := buildSource(cfg, opts, logger, trace)
	if err != nil {
		return err
	}
	defer closeSrc()

	grid, err := src.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch contributions: %w", err)
	}

	plan := layout.Compute(layout.DefaultLayers, cfg.Render.StepTime)
	scene := &visualization.Scene{
		Grid:      grid,
		Plan:      plan,
		Discovery: layout.DiscoveryOrder(grid, layout.NewDiscoveryRand(cfg.Render.DiscoverySeed)),
	}
	logger.Debug("planned signal path",
		"path_cells", plan.Delays.Len(), "active_cells", grid.Active())
	trace.Log(map[string]any{
		"event":        "plan",
		"path_cells":   plan.Delays.Len(),
		"active_cells": grid.Active(),
		"seed":         cfg.Render.DiscoverySeed,
	})
	traceCells(ctx, logger, scene)

	data, err := render(scene, opts.format)
	if err != nil {
		return err
	}
	if err := visualization.WriteFile(cfg.Render.Output, data); err != nil {
		return err
	}
	trace.Log(map[string]any{
		"event":  "emit",
		"output": cfg.Render.Output,
		"format": string(opts.format),
		"bytes":  len(data),
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %s\n", cfg.Render.Output)

	if opts.open {
		if err := visualization.Open(cfg.Render.Output); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open viewer: %v\nOpen %s manually.\n", err, cfg.Render.Output)
		}
	}
	return nil
}

// buildSource picks the grid source for cfg and returns a cleanup func.
func buildSource(cfg *config.Config, opts generateOptions, logger *slog.Logger, trace *logging.TraceLogger) (contrib.Source, func(), error) {
	noop := func() {}

	if opts.mock || (!opts.offline && !cfg.GitHub.Live()) {
		if opts.mock {
			logger.Info("--mock set, generating mock data")
		} else {
			logger.Info("no GitHub credentials, generating mock data",
				"token_set", cfg.GitHub.Token != "", "owner_set", cfg.GitHub.Owner != "")
		}
		trace.Log(map[string]any{"event": "fetch", "source": "mock"})
		return contrib.NewMockSource(nil), noop, nil
	}

	var live contrib.Source
	if !opts.offline {
		gh := contrib.NewGitHubClient(contrib.GitHubConfig{
			Token:    cfg.GitHub.Token,
			Login:    cfg.GitHub.Owner,
			Endpoint: cfg.GitHub.Endpoint,
			Timeout:  cfg.GitHub.Timeout,
		})
		gh.SetLogger(logger, trace)
		live = gh
	}

	if !opts.offline && !cfg.Cache.Enabled {
		return live, noop, nil
	}
	if opts.offline && cfg.GitHub.Owner == "" {
		return nil, noop, fmt.Errorf("--offline needs GITHUB_REPOSITORY_OWNER or github.owner to pick a cached grid")
	}

	cache, err := store.Open(cfg.Cache.Dir)
	if err != nil {
		if opts.offline {
			return nil, noop, fmt.Errorf("open grid cache: %w", err)
		}
		logger.Warn("grid cache unavailable, continuing without it", "error", err)
		return live, noop, nil
	}

	cached := contrib.NewCachedSource(live, cache, cfg.GitHub.Owner, opts.offline)
	cached.SetLogger(logger)
	return cached, func() { cache.Close() }, nil
}

func render(scene *visualization.Scene, format visualization.Format) ([]byte, error) {
	switch format {
	case visualization.FormatJSON:
		data, err := json.MarshalIndent(visualization.RenderJSON(scene), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode JSON: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return visualization.RenderSVG(scene), nil
	}
}

// traceCells logs every animated cell at trace level.
func traceCells(ctx context.Context, logger *slog.Logger, scene *visualization.Scene) {
	if !logger.Enabled(ctx, logging.LevelTrace) {
		return
	}
	for _, cs := range scene.Styles() {
		if cs.Kind == visualization.KindStatic {
			continue
		}
		logger.Log(ctx, logging.LevelTrace, "cell",
			"x", cs.X, "y", cs.Y, "level", int(cs.Level), "kind", string(cs.Kind), "delay", cs.Delay)
	}
}
