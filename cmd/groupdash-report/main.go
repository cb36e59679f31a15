// Command groupdash-report runs one load against the configured backend and
// prints the snapshot as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"groupdash/internal/backend"
	"groupdash/internal/cli"
	"groupdash/internal/services"
)

func main() {
	cli.LoadEnvFile()

	indent := flag.Bool("indent", true, "indent JSON output")
	flag.Parse()

	cfg, cfgErr := cli.LoadConfig()
	logger := cli.SetupLoggerTo(cfg, os.Stderr)
	if cfgErr != nil {
		cli.Exit(logger, "Configuration validation failed", cfgErr)
	}

	rules, err := cli.LoadRules(logger, cfg.ReconcileRulesFile)
	if err != nil {
		cli.Exit(logger, "Failed to load reconciliation rules", err)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Exit(logger, "Invalid backend configuration", err)
	}
	src, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		cli.Exit(logger, "Failed to initialize data backend", err)
	}
	defer src.Close()

	loader := services.NewLoader(src.Source, services.LoaderConfig{
		FetchTimeout: cfg.SourceTimeout,
		Rules:        rules,
	}, logger, nil)

	snap, err := loader.Load(ctx)
	if err != nil {
		cli.Exit(logger, loader.Status(), err)
	}

	enc := json.NewEncoder(os.Stdout)
	if *indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(snap); err != nil {
		cli.Exit(logger, "Failed to write report", err)
	}
}
