package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"groupdash/internal/log"
	"groupdash/internal/pipeline"
	"groupdash/internal/sheets/memory"
)

const (
	testGroups = "group_id,group_name,canonical_status,members_count\n" +
		"1,A Widow's Walk,Active,5\n" +
		"2,a widows' walk,Archived,8\n" +
		"3,Young Adults,Active,10\n"
	testEvents = "group_id,event_date,total_attended_count,members_attended_count,visitors_attended_count\n" +
		"2,2024-06-02,10,8,2\n" +
		"3,2024-06-03,12,12,0\n"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: &bytes.Buffer{}})
}

type recordingNotifier struct {
	mu    sync.Mutex
	snaps []*pipeline.Snapshot
	err   error
}

func (n *recordingNotifier) SnapshotReady(_ context.Context, s *pipeline.Snapshot) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snaps = append(n.snaps, s)
	return n.err
}

func TestLoaderLoad(t *testing.T) {
	src := memory.New([]byte(testEvents), []byte(testGroups))
	notifier := &recordingNotifier{}
	l := NewLoader(src, DefaultLoaderConfig(), quietLogger(), notifier)

	if l.Ready() || l.Status() != StatusLoading {
		t.Fatalf("unexpected initial state: ready=%v status=%q", l.Ready(), l.Status())
	}

	snap, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Generation != 1 || l.Snapshot() != snap || l.Status() != "" || !l.Ready() {
		t.Fatalf("unexpected committed state: gen=%d status=%q", snap.Generation, l.Status())
	}
	if len(snap.Groups) != 2 || snap.Views.Summary.TotalEvents != 2 {
		t.Errorf("unexpected snapshot: groups=%d summary=%+v", len(snap.Groups), snap.Views.Summary)
	}
	if snap.Events[0].GroupID != "1" {
		t.Errorf("event should be remapped to group 1, got %q", snap.Events[0].GroupID)
	}
	if snap.FetchedAt.IsZero() || snap.LoadedAt.Before(snap.FetchedAt) {
		t.Errorf("fetch start %v should be set and not after commit %v", snap.FetchedAt, snap.LoadedAt)
	}
	if len(notifier.snaps) != 1 || notifier.snaps[0] != snap {
		t.Errorf("notifier not called with the snapshot")
	}
	if src.Reads() != 2 {
		t.Errorf("expected both documents read once, got %d reads", src.Reads())
	}
}

func TestLoaderFailureKeepsPreviousSnapshot(t *testing.T) {
	src := memory.New([]byte(testEvents), []byte(testGroups))
	l := NewLoader(src, DefaultLoaderConfig(), quietLogger(), nil)

	first, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	src.FailWith(errors.New("Failed to load events.csv: 404"))
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if l.Status() != "Error: Failed to load events.csv: 404" {
		t.Errorf("unexpected status %q", l.Status())
	}
	if l.Snapshot() != first {
		t.Error("previous snapshot should stay in place")
	}
}

func TestLoaderParseFailure(t *testing.T) {
	src := memory.New([]byte("group_id,event_date\n"), []byte(testGroups))
	l := NewLoader(src, DefaultLoaderConfig(), quietLogger(), nil)

	_, err := l.Load(context.Background())
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.HasPrefix(l.Status(), "Error: parse events: missing required column") {
		t.Errorf("unexpected status %q", l.Status())
	}
	if l.Ready() {
		t.Error("loader should not be ready")
	}
}

func TestLoaderNotifierErrorIsNotFatal(t *testing.T) {
	src := memory.New([]byte(testEvents), []byte(testGroups))
	l := NewLoader(src, DefaultLoaderConfig(), quietLogger(), &recordingNotifier{err: errors.New("broker down")})
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("notifier error should not fail the load: %v", err)
	}
}

// gatedSource blocks the first ReadEvents call until release is closed.
type gatedSource struct {
	*memory.Store
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSource) ReadEvents(ctx context.Context) ([]byte, error) {
	if g.calls.Add(1) == 1 {
		close(g.entered)
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.Store.ReadEvents(ctx)
}

func TestLoaderStaleRunNeverCommits(t *testing.T) {
	src := &gatedSource{
		Store:   memory.New([]byte(testEvents), []byte(testGroups)),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	l := NewLoader(src, DefaultLoaderConfig(), quietLogger(), nil)

	type result struct {
		snap *pipeline.Snapshot
		err  error
	}
	slow := make(chan result, 1)
	go func() {
		s, err := l.Load(context.Background())
		slow <- result{s, err}
	}()
	<-src.entered

	fresh, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	close(src.release)

	select {
	case r := <-slow:
		if !errors.Is(r.err, ErrSuperseded) || r.snap != nil {
			t.Fatalf("expected superseded result, got snap=%v err=%v", r.snap, r.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("slow load did not finish")
	}

	if got := l.Snapshot(); got != fresh || got.Generation != 2 {
		t.Fatalf("newer snapshot was overwritten: %+v", got)
	}
	if l.Status() != "" {
		t.Errorf("stale run changed status to %q", l.Status())
	}
}

func TestLoaderClosedDiscards(t *testing.T) {
	src := memory.New([]byte(testEvents), []byte(testGroups))
	l := NewLoader(src, DefaultLoaderConfig(), quietLogger(), nil)
	l.Close()
	if _, err := l.Load(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if l.Ready() {
		t.Error("closed loader must not commit")
	}
}

func TestDefaultLoaderConfig(t *testing.T) {
	config := DefaultLoaderConfig()
	if config.FetchTimeout != 30*time.Second {
		t.Errorf("expected FetchTimeout 30s, got %v", config.FetchTimeout)
	}
	if len(config.Rules.Corrections) == 0 {
		t.Error("expected default corrections")
	}
}
