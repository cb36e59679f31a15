// Package file reads source documents from a local directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	ports "groupdash/internal/sheets"
)

type Source struct {
	eventsPath string
	groupsPath string
}

var _ ports.Source = (*Source)(nil)

// New returns a source reading events and groups from dir. Blank file names
// fall back to events.csv and enriched_groups.csv. Absolute names are used
// as given.
func New(dir, eventsFile, groupsFile string) *Source {
	if eventsFile == "" {
		eventsFile = ports.EventsDocument
	}
	if groupsFile == "" {
		groupsFile = ports.GroupsDocument
	}
	return &Source{
		eventsPath: resolve(dir, eventsFile),
		groupsPath: resolve(dir, groupsFile),
	}
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

func (s *Source) ReadEvents(ctx context.Context) ([]byte, error) {
	return read(ctx, s.eventsPath)
}

func (s *Source) ReadGroups(ctx context.Context) ([]byte, error) {
	return read(ctx, s.groupsPath)
}

func read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("Failed to load %s: %w", filepath.Base(path), ports.ErrSourceNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Failed to load %s: %w", filepath.Base(path), err)
	}
	return b, nil
}
