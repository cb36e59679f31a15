package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	ports "groupdash/internal/sheets"
)

// Store serves documents held in memory. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	events []byte
	groups []byte
	err    error
	delay  time.Duration
	reads  int
}

var _ ports.Source = (*Store)(nil)

func New(events, groups []byte) *Store {
	return &Store{events: clone(events), groups: clone(groups)}
}

// Set replaces both documents.
func (s *Store) Set(events, groups []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = clone(events)
	s.groups = clone(groups)
}

// FailWith makes every subsequent read return err. A nil err clears it.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Delay makes every read wait d before answering.
func (s *Store) Delay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Reads returns how many documents have been served.
func (s *Store) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *Store) ReadEvents(ctx context.Context) ([]byte, error) {
	return s.read(ctx, ports.EventsDocument, func() []byte { return s.events })
}

func (s *Store) ReadGroups(ctx context.Context) ([]byte, error) {
	return s.read(ctx, ports.GroupsDocument, func() []byte { return s.groups })
}

func (s *Store) read(ctx context.Context, name string, doc func() []byte) ([]byte, error) {
	s.mu.Lock()
	delay, err := s.delay, s.err
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	d := doc()
	if d == nil {
		return nil, fmt.Errorf("%s: %w", name, ports.ErrSourceNotFound)
	}
	return clone(d), nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
