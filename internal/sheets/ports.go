package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
)

// Well-known document names. Remote and file sources use them as defaults.
const (
	EventsDocument = "events.csv"
	GroupsDocument = "enriched_groups.csv"
)

// ErrSourceNotFound is returned when a source document does not exist.
var ErrSourceNotFound = errors.New("source not found")

// Ports for inbound data adapters. Each returns one raw delimited document
// with a header row; parsing happens downstream.
type (
	EventsReader interface {
		ReadEvents(ctx context.Context) ([]byte, error)
	}

	GroupsReader interface {
		ReadGroups(ctx context.Context) ([]byte, error)
	}

	// Source supplies both documents for a load.
	Source interface {
		EventsReader
		GroupsReader
	}
)

// RenderCSV writes a header and rows as a CSV document.
func RenderCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write rows: %w", err)
	}
	return buf.Bytes(), nil
}
