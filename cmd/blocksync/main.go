package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/fedisync/blocksync/internal/sync/common/log"
	"github.com/fedisync/blocksync/internal/sync/config"
	"github.com/fedisync/blocksync/internal/sync/domain"
	"github.com/fedisync/blocksync/internal/sync/gateways/mastodon"
	"github.com/fedisync/blocksync/internal/sync/repos/listcache"
	"github.com/fedisync/blocksync/internal/sync/services/exporter"
	"github.com/fedisync/blocksync/internal/sync/services/syncer"
)

const (
	version = "1.0.0"
	appName = "blocksync"
)

func main() {
	app := &cli.App{
		Name:    appName,
		Usage:   "aggregate trusted servers' domain block lists and apply them to your own",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "settings file `PATH`"},
			&cli.StringSliceFlag{Name: "remote", Aliases: []string{"r"}, Usage: "trusted server to fetch from (repeatable)"},
			&cli.StringFlag{Name: "home", Usage: "your own server's `HOST`"},
			&cli.StringFlag{Name: "token", Usage: "access token for your server's admin API"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "CSV export `PATH` (empty disables the export)"},
			&cli.StringFlag{Name: "import-file", Usage: "previously exported CSV to merge in as a source"},
			&cli.BoolFlag{Name: "apply", Usage: "push new entries to your server's admin API"},
			&cli.BoolFlag{Name: "offline", Usage: "serve every source from the fetch cache"},
			&cli.StringFlag{Name: "cache", Usage: "fetch cache database `PATH`"},
			&cli.DurationFlag{Name: "timeout", Usage: "per-request timeout"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn, or error"},
			&cli.StringFlag{Name: "env", Usage: "dev or prod"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flagOverrides maps the flags the user actually set onto config keys, so
// unset flags never mask environment or file values.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	if c.IsSet("remote") {
		overrides["remotes"] = c.StringSlice("remote")
	}
	if c.IsSet("home") {
		overrides["home"] = c.String("home")
	}
	if c.IsSet("token") {
		overrides["token"] = c.String("token")
	}
	if c.IsSet("output") {
		overrides["output"] = c.String("output")
	}
	if c.IsSet("import-file") {
		overrides["import_file"] = c.String("import-file")
	}
	if c.IsSet("apply") {
		overrides["apply"] = c.Bool("apply")
	}
	if c.IsSet("offline") {
		overrides["offline"] = c.Bool("offline")
	}
	if c.IsSet("cache") {
		overrides["cache_path"] = c.String("cache")
	}
	if c.IsSet("timeout") {
		overrides["timeout"] = c.Duration("timeout")
	}
	if c.IsSet("log-level") {
		overrides["log_level"] = c.String("log-level")
	}
	if c.IsSet("env") {
		overrides["env"] = c.String("env")
	}
	return overrides
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), flagOverrides(c))
	if err != nil {
		return err
	}

	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		return err
	}
	logger := log.GetLogger()

	logger.Info(map[string]any{
		"version": version,
		"remotes": cfg.Remotes,
		"home":    cfg.Home,
		"output":  cfg.Output,
		"apply":   cfg.Apply,
		"offline": cfg.Offline,
		"timeout": cfg.Timeout.String(),
	}, "starting blocksync")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := mastodon.New(mastodon.Options{
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
	})

	opts := syncer.Options{
		Remotes: cfg.Remotes,
		Home:    cfg.Home,
		Token:   cfg.Token,
		Output:  cfg.Output,
		Apply:   cfg.Apply,
		Offline: cfg.Offline,
		Remote:  client,
		Admin:   client,
		Logger:  logger,
	}

	cache, err := listcache.New(cfg.CachePath)
	if err != nil {
		if cfg.Offline {
			return fmt.Errorf("offline mode needs the fetch cache: %w", err)
		}
		logger.Warn(map[string]any{"path": cfg.CachePath, "error": err.Error()},
			"fetch cache unavailable, continuing without it")
	} else {
		defer cache.Close()
		opts.Cache = cache
	}

	if cfg.ImportFile != "" {
		list, err := exporter.ReadCSV(cfg.ImportFile)
		if err != nil {
			return err
		}
		logger.Info(map[string]any{"path": cfg.ImportFile, "domains": list.Len()},
			"loaded import file")
		opts.ExtraSources = append(opts.ExtraSources, list)
	}

	summary, err := syncer.New(opts).Run(ctx)
	logSummary(logger, summary)
	return err
}

// logSummary prints the final per-run accounting, including skip reasons,
// whether or not the run succeeded.
func logSummary(logger log.Logger, summary domain.RunSummary) {
	for _, skipped := range summary.Skipped {
		logger.Warn(map[string]any{
			"host":   skipped.Origin,
			"reason": skipped.Reason,
			"cached": skipped.Stale,
		}, "source not fetched")
	}

	fields := map[string]any{
		"sources_fetched": summary.SourcesFetched,
		"sources_cached":  summary.SourcesStale,
		"sources_skipped": len(summary.Skipped) - summary.SourcesStale,
		"unique_domains":  summary.UniqueDomains,
	}
	if summary.CSVPath != "" {
		fields["csv"] = summary.CSVPath
	}
	if summary.Import != nil {
		fields["import_attempted"] = summary.Import.Attempted
		fields["import_created"] = summary.Import.Created
		fields["import_skipped"] = summary.Import.Skipped
		fields["import_failed"] = summary.Import.Failed
	}
	logger.Info(fields, "run complete")

	if summary.Import != nil {
		for _, f := range summary.Import.Failures {
			logger.Warn(map[string]any{"domain": f.Domain, "error": f.Err.Error()},
				"domain block not created")
		}
	}
}
