// Command groupdash-import loads events and groups CSV exports into the
// SQLite database read by DATA_BACKEND=sqlite.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"groupdash/internal/amqp"
	"groupdash/internal/cli"
	"groupdash/internal/core"
	"groupdash/internal/ingest"
	"groupdash/internal/log"
	"groupdash/internal/sheets/file"
	"groupdash/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	cfg, cfgErr := cli.LoadConfig()
	logger := cli.SetupLoggerTo(cfg, os.Stderr).WithComponent(log.ComponentStorage)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-events file] [-groups file] [-db path] [-events-only | -groups-only] [-notify]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	eventsPath := flag.String("events", filepath.Join(cfg.DataDir, cfg.EventsFile), "events CSV file")
	groupsPath := flag.String("groups", filepath.Join(cfg.DataDir, cfg.GroupsFile), "groups CSV file")
	dbPath := flag.String("db", cfg.SQLiteDBPath, "SQLite database path")
	eventsOnly := flag.Bool("events-only", false, "replace only the events table")
	groupsOnly := flag.Bool("groups-only", false, "replace only the groups table")
	notify := flag.Bool("notify", cfg.AMQPEnabled(), "publish a reload request after importing")
	flag.Parse()

	scope, err := scopeFromFlags(*eventsOnly, *groupsOnly)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	// The import only needs the database path; other settings may be
	// incomplete on the machine running it.
	if cfgErr != nil {
		logger.Debug("Ignoring configuration problems unrelated to import", log.FieldError, cfgErr)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	imp, err := run(ctx, logger, *eventsPath, *groupsPath, *dbPath, scope)
	if err != nil {
		cli.Exit(logger, "Import failed", err)
	}
	fmt.Printf("imported %d events and %d groups into %s\n", imp.EventRows, imp.GroupRows, *dbPath)

	if *notify {
		if err := publishReload(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue); err != nil {
			cli.Exit(logger, "Failed to publish reload request", err)
		}
		logger.Info("Published reload request", "queue", cfg.AMQPQueue)
	}
}

// importScope selects the tables an import replaces.
type importScope int

const (
	scopeAll importScope = iota
	scopeEvents
	scopeGroups
)

func scopeFromFlags(eventsOnly, groupsOnly bool) (importScope, error) {
	switch {
	case eventsOnly && groupsOnly:
		return scopeAll, fmt.Errorf("-events-only and -groups-only are mutually exclusive")
	case eventsOnly:
		return scopeEvents, nil
	case groupsOnly:
		return scopeGroups, nil
	}
	return scopeAll, nil
}

// run parses the files in scope, rejecting the import on any fatal parse
// error, and replaces the matching tables in one transaction. Only a full
// import is recorded in the imports table.
func run(ctx context.Context, logger *log.Logger, eventsPath, groupsPath, dbPath string, scope importScope) (storage.Import, error) {
	src := file.New("", eventsPath, groupsPath)

	var (
		events  []core.Event
		groups  []core.Group
		dropped int
	)
	if scope != scopeGroups {
		doc, err := src.ReadEvents(ctx)
		if err != nil {
			return storage.Import{}, err
		}
		var diag ingest.Diagnostics
		events, diag, err = ingest.ParseEvents(bytes.NewReader(doc))
		if err != nil {
			return storage.Import{}, fmt.Errorf("parse %s: %w", eventsPath, err)
		}
		dropped += diag.Dropped
	}
	if scope != scopeEvents {
		doc, err := src.ReadGroups(ctx)
		if err != nil {
			return storage.Import{}, err
		}
		var diag ingest.Diagnostics
		groups, diag, err = ingest.ParseGroups(bytes.NewReader(doc))
		if err != nil {
			return storage.Import{}, fmt.Errorf("parse %s: %w", groupsPath, err)
		}
		dropped += diag.Dropped
	}
	logger.Info("Parsed import files",
		log.FieldEventsRaw, len(events),
		log.FieldGroupsRaw, len(groups),
		log.FieldRowsDropped, dropped)

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return storage.Import{}, err
	}
	defer repo.Close()

	switch scope {
	case scopeEvents:
		if err := repo.ImportEvents(ctx, events); err != nil {
			return storage.Import{}, err
		}
		return storage.Import{EventRows: int64(len(events)), Source: filepath.Base(eventsPath)}, nil
	case scopeGroups:
		if err := repo.ImportGroups(ctx, groups); err != nil {
			return storage.Import{}, err
		}
		return storage.Import{GroupRows: int64(len(groups)), Source: filepath.Base(groupsPath)}, nil
	}

	source := filepath.Base(eventsPath) + "+" + filepath.Base(groupsPath)
	imp, err := repo.Import(ctx, events, groups, source)
	if err != nil {
		return storage.Import{}, err
	}
	logger.Info("Import committed", "import_id", imp.ID, "db_path", dbPath)
	return imp, nil
}

func publishReload(ctx context.Context, url, exchange, queue string) error {
	client, err := amqp.NewClient(url, exchange, queue, "")
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return client.PublishReloadRequest(ctx, "import")
}
