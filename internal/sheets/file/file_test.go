package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ports "groupdash/internal/sheets"
)

func TestSourceReadsDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "events.csv"), []byte("ev"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "enriched_groups.csv"), []byte("gr"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(dir, "", "")
	ev, err := s.ReadEvents(context.Background())
	if err != nil || string(ev) != "ev" {
		t.Fatalf("unexpected events: %q err=%v", ev, err)
	}
	gr, err := s.ReadGroups(context.Background())
	if err != nil || string(gr) != "gr" {
		t.Fatalf("unexpected groups: %q err=%v", gr, err)
	}
}

func TestSourceAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "custom.csv")
	if err := os.WriteFile(abs, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := New("/does/not/matter", abs, abs)
	if b, err := s.ReadEvents(context.Background()); err != nil || string(b) != "x" {
		t.Fatalf("unexpected read: %q err=%v", b, err)
	}
}

func TestSourceMissingFile(t *testing.T) {
	s := New(t.TempDir(), "", "")
	_, err := s.ReadEvents(context.Background())
	if !errors.Is(err, ports.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Failed to load events.csv") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(t.TempDir(), "", "").ReadGroups(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
