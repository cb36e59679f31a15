package pipeline

import (
	"errors"
	"testing"

	"groupdash/internal/core"
	"groupdash/internal/ingest"
	"groupdash/internal/reconcile"
)

const groupsDoc = `group_id,group_name,group_type,leaders,members_count,sources,canonical_status
1,A Widow's Walk,Small Group,Ruth,5,planning_center,Active
2,a widows' walk,Small Group,Naomi,8,legacy,Archived
3,Parking Serve Team,Serve Team,,20,planning_center,Active
4,Young Adults,Small Group,Ann,15,planning_center,Active
`

const eventsDoc = `event_id,group_id,event_name,event_date,event_start_dt,total_attended_count,members_attended_count,visitors_attended_count
e1,2,Walk,2024-06-02,2024-06-02T18:30:00,10,8,2
e2,1,Walk,2024-06-09,,12,10,2
e3,1,Walk,2024-07-07,2024-07-07 09:15,14,10,4
e4,3,Serve,2024-06-02,,20,20,0
e5,4,Meetup,2024-06-04,,9,9,0
e6,4,Meetup,,,7,7,0
e7,,Orphan,2024-06-05,,3,3,0
e8,4,Meetup,not a date,,5,5,0
e9,4,Meetup,2024-07-02,,11,x,-
`

func TestProcess(t *testing.T) {
	snap, err := Process(Documents{Events: []byte(eventsDoc), Groups: []byte(groupsDoc)}, reconcile.DefaultRules())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(snap.Groups) != 3 {
		t.Fatalf("expected 3 merged groups, got %d", len(snap.Groups))
	}
	widow := snap.Groups[0]
	if widow.ID != "1" || widow.Name != "A Widow's Walk" || widow.MembersCount != 8 || widow.Status != core.StatusActive {
		t.Errorf("unexpected merged group: %+v", widow)
	}
	if widow.Leaders != "Ruth; Naomi" || widow.Sources != "planning_center; legacy" {
		t.Errorf("unexpected joined fields: leaders=%q sources=%q", widow.Leaders, widow.Sources)
	}
	if snap.Mapping["2"] != "1" || snap.Mapping["1"] != "1" {
		t.Errorf("unexpected mapping: %v", snap.Mapping)
	}
	if snap.Diagnostics.MergedGroups != 1 {
		t.Errorf("expected 1 merged cluster, got %d", snap.Diagnostics.MergedGroups)
	}

	if len(snap.Events) != 6 {
		t.Fatalf("expected 6 working events, got %d", len(snap.Events))
	}
	if d := snap.Diagnostics.Enrichment; d.Dropped != 3 || d.Accepted != 6 {
		t.Errorf("unexpected enrichment diagnostics: %+v", d)
	}
	first := snap.Events[0]
	if first.GroupID != "1" {
		t.Errorf("event e1 should be rewritten to group 1, got %q", first.GroupID)
	}
	if first.Month != "2024-06" || first.Weekday != "Sunday" || first.Hour != 18 {
		t.Errorf("unexpected enrichment: month=%s weekday=%s hour=%d", first.Month, first.Weekday, first.Hour)
	}
	if snap.Events[1].Hour != 0 {
		t.Errorf("missing start time should give hour 0, got %d", snap.Events[1].Hour)
	}
	if snap.Events[2].Hour != 9 {
		t.Errorf("expected hour 9, got %d", snap.Events[2].Hour)
	}
	last := snap.Events[5]
	if last.Members != 0 || last.Visitors != 0 || last.Total != 11 {
		t.Errorf("malformed counts should coerce to 0: %+v", last)
	}

	v := snap.Views
	if v.Summary.TotalGroups != 3 || v.Summary.ActiveGroups != 3 || v.Summary.TotalEvents != 6 || v.Summary.TotalAttendance != 76 {
		t.Errorf("unexpected summary: %+v", v.Summary)
	}
	if len(v.Timeline) != 2 || v.Timeline[0].Month != "2024-06" || v.Timeline[0].Active != 4 {
		t.Errorf("unexpected timeline: %+v", v.Timeline)
	}
	if len(v.Consistency) != 1 || v.Consistency[0].GroupID != "1" || v.Consistency[0].Median != 12 {
		t.Errorf("unexpected consistency: %+v", v.Consistency)
	}
	if len(v.TopGroups) != 2 {
		t.Errorf("expected 2 top groups, got %+v", v.TopGroups)
	}
	if len(v.Groups) != 2 {
		t.Errorf("serve teams stay out of the detail table: %+v", v.Groups)
	}
}

func TestProcess_FatalErrors(t *testing.T) {
	tests := []struct {
		name string
		docs Documents
		want error
	}{
		{"empty events", Documents{Events: nil, Groups: []byte(groupsDoc)}, ingest.ErrEmptyDocument},
		{"header only", Documents{Events: []byte("group_id,event_date,total_attended_count,members_attended_count,visitors_attended_count\n"), Groups: []byte(groupsDoc)}, ingest.ErrNoRows},
		{"missing column", Documents{Events: []byte(eventsDoc), Groups: []byte("group_id,group_name\n1,x\n")}, ingest.ErrMissingColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Process(tt.docs, reconcile.DefaultRules())
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEnrich_DoesNotMutateInput(t *testing.T) {
	in := []core.Event{{GroupID: "1", DateText: "3/9/2025"}}
	out, diag := Enrich(in)
	if len(out) != 1 || diag.Dropped != 0 {
		t.Fatalf("unexpected result: %+v %+v", out, diag)
	}
	if out[0].Month != "2025-03" || out[0].Weekday != "Sunday" {
		t.Errorf("unexpected derived fields: %+v", out[0])
	}
	if in[0].Month != "" {
		t.Error("input event was modified")
	}
}
