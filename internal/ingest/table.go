// Package ingest turns delimited-text documents into typed event and group
// records.
//
// Parsing happens in two steps. ParseTable reads the header row and every
// data row, dropping (and counting) rows whose field count does not match the
// header. ParseEvents and ParseGroups then map the header-indexed rows onto
// core.Event and core.Group, coercing numeric and boolean columns.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrEmptyDocument is returned when a source has no header row.
	ErrEmptyDocument = errors.New("empty document")
	// ErrNoRows is returned when a source has a header but no usable rows.
	ErrNoRows = errors.New("no data rows")
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")
)

// maxRowErrors caps how many row diagnostics are retained; Dropped keeps
// counting past it.
const maxRowErrors = 50

// RowError describes one rejected row. Line is 0 when the row no longer
// has a source position.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Diagnostics summarises what happened to the rows of one document.
type Diagnostics struct {
	Accepted int        `json:"accepted"`
	Dropped  int        `json:"dropped"`
	Errors   []RowError `json:"errors,omitempty"`
}

// Reject counts a dropped row, keeping its reason while under the cap.
func (d *Diagnostics) Reject(line int, reason string) {
	d.Dropped++
	if len(d.Errors) < maxRowErrors {
		d.Errors = append(d.Errors, RowError{Line: line, Reason: reason})
	}
}

// Table is a parsed document: a trimmed header plus rows of equal width.
type Table struct {
	Header []string
	Rows   [][]string
	Diagnostics
}

// ParseTable reads a header row followed by data rows. Blank lines are
// skipped. Rows that fail CSV parsing or whose width differs from the header
// are dropped and recorded in the diagnostics.
func ParseTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyDocument
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := &Table{Header: header}
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			t.Reject(line, err.Error())
			continue
		}
		line, _ := reader.FieldPos(0)
		if len(rec) != len(header) {
			t.Reject(line, fmt.Sprintf("expected %d fields, got %d", len(header), len(rec)))
			continue
		}
		t.Rows = append(t.Rows, rec)
		t.Accepted++
	}
	return t, nil
}

// Index returns the position of the first header matching any of names,
// compared case-insensitively, or -1.
func (t *Table) Index(names ...string) int {
	for _, name := range names {
		for i, h := range t.Header {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	return -1
}

// require resolves each column alias set, reporting every missing one at once.
func (t *Table) require(cols [][]string) ([]int, error) {
	idx := make([]int, len(cols))
	var missing []string
	for i, names := range cols {
		idx[i] = t.Index(names...)
		if idx[i] == -1 {
			missing = append(missing, names[0])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s; got headers=%v", ErrMissingColumn, strings.Join(missing, ","), t.Header)
	}
	return idx, nil
}

func safeGet(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
