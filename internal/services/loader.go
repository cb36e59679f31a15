package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"groupdash/internal/log"
	"groupdash/internal/pipeline"
	"groupdash/internal/reconcile"
	"groupdash/internal/sheets"
)

// Load status messages, in lifecycle order. A successful load leaves the
// status empty; a failed one sets it to "Error: <message>".
const (
	StatusLoading    = "Loading sources..."
	StatusParsing    = "Parsing data..."
	StatusProcessing = "Processing data..."
)

var (
	// ErrSuperseded is returned by a load that finished after a newer one
	// started. Its result is discarded.
	ErrSuperseded = errors.New("load superseded by a newer run")
	// ErrClosed is returned by loads that finish after Close.
	ErrClosed = errors.New("loader closed")
)

// Notifier is told about every committed snapshot.
type Notifier interface {
	SnapshotReady(ctx context.Context, snap *pipeline.Snapshot) error
}

// LoaderConfig holds configuration for the loader
type LoaderConfig struct {
	// FetchTimeout bounds both source reads of one load (default: 30s)
	FetchTimeout time.Duration

	// Rules drive name corrections and merge overrides
	Rules reconcile.Rules
}

// DefaultLoaderConfig returns sensible defaults
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		FetchTimeout: 30 * time.Second,
		Rules:        reconcile.DefaultRules(),
	}
}

// Loader runs the pipeline against a source and holds the latest committed
// snapshot. Loads may overlap; only the most recently started one may
// commit, so an older result never replaces a newer one.
type Loader struct {
	source   sheets.Source
	config   LoaderConfig
	logger   *log.Logger
	notifier Notifier

	latest   atomic.Uint64
	snapshot atomic.Pointer[pipeline.Snapshot]

	// mu orders status updates and commits against the generation check.
	mu     sync.Mutex
	status string
	closed bool
}

// NewLoader creates a loader. notifier may be nil.
func NewLoader(source sheets.Source, config LoaderConfig, logger *log.Logger, notifier Notifier) *Loader {
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultLoaderConfig().FetchTimeout
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Loader{
		source:   source,
		config:   config,
		logger:   logger.WithComponent(log.ComponentPipeline),
		notifier: notifier,
		status:   StatusLoading,
	}
}

// Snapshot returns the latest committed snapshot, or nil before the first
// successful load.
func (l *Loader) Snapshot() *pipeline.Snapshot {
	return l.snapshot.Load()
}

// Status returns the current load status message.
func (l *Loader) Status() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Ready reports whether a snapshot has been committed.
func (l *Loader) Ready() bool {
	return l.snapshot.Load() != nil
}

// Close stops any in-flight load from committing.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

// Load fetches both documents concurrently, runs the pipeline and commits
// the result unless a newer load has started in the meantime. A failed load
// keeps the previous snapshot and records the error in the status.
func (l *Loader) Load(ctx context.Context) (*pipeline.Snapshot, error) {
	gen := l.latest.Add(1)
	start := time.Now()
	l.setStatus(gen, StatusLoading)

	docs, err := l.fetch(ctx)
	if err != nil {
		return nil, l.fail(ctx, gen, log.OpFetch, err)
	}

	l.setStatus(gen, StatusParsing)
	in, err := pipeline.Parse(docs)
	if err != nil {
		return nil, l.fail(ctx, gen, log.OpParse, err)
	}
	l.logger.DebugContext(ctx, "Parsed source documents",
		log.FieldGeneration, gen,
		log.FieldEventsRaw, len(in.Events),
		log.FieldGroupsRaw, len(in.Groups),
		log.FieldRowsDropped, in.EventsDiag.Dropped+in.GroupsDiag.Dropped)

	l.setStatus(gen, StatusProcessing)
	snap := pipeline.Run(in, l.config.Rules)
	snap.Generation = gen
	snap.FetchedAt = start.UTC()
	snap.LoadedAt = time.Now().UTC()

	if err := l.commit(gen, snap); err != nil {
		l.logger.InfoContext(ctx, "Discarding load result", log.FieldGeneration, gen, log.FieldReason, err.Error())
		return nil, err
	}

	d := snap.Diagnostics
	log.NewStructuredLogger(l.logger).LogLoadCompleted(ctx, gen,
		len(in.Events), len(in.Groups), len(snap.Events), len(snap.Groups),
		d.EventRows.Dropped+d.GroupRows.Dropped+d.Enrichment.Dropped,
		time.Since(start).Milliseconds())

	if l.notifier != nil {
		if err := l.notifier.SnapshotReady(ctx, snap); err != nil {
			l.logger.WarnContext(ctx, "Snapshot notification failed", log.FieldGeneration, gen, log.FieldError, err)
		}
	}
	return snap, nil
}

func (l *Loader) fetch(ctx context.Context) (pipeline.Documents, error) {
	ctx, cancel := context.WithTimeout(ctx, l.config.FetchTimeout)
	defer cancel()

	var docs pipeline.Documents
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := l.source.ReadEvents(gctx)
		if err != nil {
			return err
		}
		docs.Events = b
		return nil
	})
	g.Go(func() error {
		b, err := l.source.ReadGroups(gctx)
		if err != nil {
			return err
		}
		docs.Groups = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return pipeline.Documents{}, err
	}
	return docs, nil
}

func (l *Loader) setStatus(gen uint64, status string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || gen != l.latest.Load() {
		return
	}
	l.status = status
}

func (l *Loader) commit(gen uint64, snap *pipeline.Snapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if gen != l.latest.Load() {
		return ErrSuperseded
	}
	l.snapshot.Store(snap)
	l.status = ""
	return nil
}

func (l *Loader) fail(ctx context.Context, gen uint64, op string, err error) error {
	l.setStatus(gen, "Error: "+err.Error())
	log.NewStructuredLogger(l.logger).LogError(ctx, "Load failed", err, log.ComponentPipeline, op,
		log.NewFields().WithGeneration(gen))
	return fmt.Errorf("load %d: %w", gen, err)
}
