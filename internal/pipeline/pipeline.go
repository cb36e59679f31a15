// Package pipeline runs one full load: parse the two source documents,
// reconcile duplicate groups, enrich events and compute every view.
//
// Run is pure. The caller decides when to run it and holds the returned
// Snapshot, which is never modified afterwards.
package pipeline

import (
	"bytes"
	"fmt"
	"time"

	"groupdash/internal/analytics"
	"groupdash/internal/core"
	"groupdash/internal/ingest"
	"groupdash/internal/reconcile"
)

// Documents are the raw source bodies for one load.
type Documents struct {
	Events []byte
	Groups []byte
}

// Input holds the typed records parsed from Documents.
type Input struct {
	Events     []core.Event
	Groups     []core.Group
	EventsDiag ingest.Diagnostics
	GroupsDiag ingest.Diagnostics
}

// Diagnostics reports what each stage dropped or merged.
type Diagnostics struct {
	EventRows    ingest.Diagnostics `json:"eventRows"`
	GroupRows    ingest.Diagnostics `json:"groupRows"`
	Enrichment   ingest.Diagnostics `json:"enrichment"`
	MergedGroups int                `json:"mergedGroups"`
}

// Snapshot is the committed result of one load. FetchedAt is when the
// source reads began; the snapshot reflects the sources as of that time.
// LoadedAt is when it was committed.
type Snapshot struct {
	Generation  uint64            `json:"generation"`
	FetchedAt   time.Time         `json:"fetchedAt"`
	LoadedAt    time.Time         `json:"loadedAt"`
	Groups      []core.Group      `json:"-"`
	Events      []core.Event      `json:"-"`
	Mapping     map[string]string `json:"-"`
	Views       analytics.Views   `json:"views"`
	Diagnostics Diagnostics       `json:"diagnostics"`
}

// Parse reads both documents. Any document-level failure is returned; bad
// rows are only counted.
func Parse(docs Documents) (Input, error) {
	var in Input
	var err error
	in.Events, in.EventsDiag, err = ingest.ParseEvents(bytes.NewReader(docs.Events))
	if err != nil {
		return Input{}, err
	}
	in.Groups, in.GroupsDiag, err = ingest.ParseGroups(bytes.NewReader(docs.Groups))
	if err != nil {
		return Input{}, err
	}
	return in, nil
}

// Run reconciles, enriches and aggregates parsed input.
func Run(in Input, rules reconcile.Rules) *Snapshot {
	rec := reconcile.Reconcile(in.Groups, in.Events, rules)
	events, enrichDiag := Enrich(rec.Events)

	return &Snapshot{
		Groups:  rec.Groups,
		Events:  events,
		Mapping: rec.Mapping,
		Views:   analytics.Compute(events, rec.Groups),
		Diagnostics: Diagnostics{
			EventRows:    in.EventsDiag,
			GroupRows:    in.GroupsDiag,
			Enrichment:   enrichDiag,
			MergedGroups: rec.Merged,
		},
	}
}

// Process parses documents and runs the pipeline in one step.
func Process(docs Documents, rules reconcile.Rules) (*Snapshot, error) {
	in, err := Parse(docs)
	if err != nil {
		return nil, fmt.Errorf("process: %w", err)
	}
	return Run(in, rules), nil
}
