package ingest

import (
	"fmt"
	"io"

	"groupdash/internal/core"
)

// Column aliases; the first name is the canonical one reported in errors.
var (
	colEventID       = []string{"event_id", "id"}
	colEventGroupID  = []string{"group_id"}
	colEventName     = []string{"event_name", "name"}
	colEventDate     = []string{"event_date", "date"}
	colEventStart    = []string{"event_start_dt", "start"}
	colEventEnd      = []string{"event_end_dt", "end"}
	colEventLocation = []string{"location"}
	colEventTotal    = []string{"total_attended_count", "total"}
	colEventMembers  = []string{"members_attended_count", "members"}
	colEventVisitors = []string{"visitors_attended_count", "visitors"}
	colEventSource   = []string{"source_file"}

	colGroupID        = []string{"group_id", "id"}
	colGroupName      = []string{"group_name", "name"}
	colGroupType      = []string{"group_type", "type"}
	colGroupTags      = []string{"tags"}
	colGroupLeaders   = []string{"leaders"}
	colGroupMembers   = []string{"members_count", "members"}
	colGroupSources   = []string{"sources"}
	colGroupStatus    = []string{"canonical_status", "status"}
	colGroupInArchive = []string{"in_archived_doc"}
	colGroupActiveExp = []string{"is_active_in_exports"}
	colGroupArchExp   = []string{"is_archived_in_exports"}
	colGroupDrift     = []string{"status_drift_flag"}
	colGroupNameNorm  = []string{"name_norm"}
	colGroupStatusSrc = []string{"status_source"}
	colGroupNote      = []string{"status_note"}
)

// ParseEvents reads an events document. Required columns are group_id,
// event_date and the three attendance counts; the rest are optional.
// Events with a blank date or group id are kept here and dropped during
// enrichment, so the returned slice mirrors the accepted source rows.
func ParseEvents(r io.Reader) ([]core.Event, Diagnostics, error) {
	t, err := ParseTable(r)
	if err != nil {
		return nil, Diagnostics{}, fmt.Errorf("parse events: %w", err)
	}
	req, err := t.require([][]string{colEventGroupID, colEventDate, colEventTotal, colEventMembers, colEventVisitors})
	if err != nil {
		return nil, t.Diagnostics, fmt.Errorf("parse events: %w", err)
	}
	if len(t.Rows) == 0 {
		return nil, t.Diagnostics, fmt.Errorf("parse events: %w", ErrNoRows)
	}
	var (
		iGroup, iDate, iTotal, iMembers, iVisitors = req[0], req[1], req[2], req[3], req[4]

		iID       = t.Index(colEventID...)
		iName     = t.Index(colEventName...)
		iStart    = t.Index(colEventStart...)
		iEnd      = t.Index(colEventEnd...)
		iLocation = t.Index(colEventLocation...)
		iSource   = t.Index(colEventSource...)
	)

	out := make([]core.Event, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, core.Event{
			ID:         safeGet(row, iID),
			GroupID:    safeGet(row, iGroup),
			Name:       safeGet(row, iName),
			DateText:   safeGet(row, iDate),
			StartText:  safeGet(row, iStart),
			EndText:    safeGet(row, iEnd),
			Location:   safeGet(row, iLocation),
			Total:      core.ParseCount(safeGet(row, iTotal)),
			Members:    core.ParseCount(safeGet(row, iMembers)),
			Visitors:   core.ParseCount(safeGet(row, iVisitors)),
			SourceFile: safeGet(row, iSource),
		})
	}
	return out, t.Diagnostics, nil
}

// ParseGroups reads a groups document. Required columns are group_id,
// group_name, canonical_status and members_count.
func ParseGroups(r io.Reader) ([]core.Group, Diagnostics, error) {
	t, err := ParseTable(r)
	if err != nil {
		return nil, Diagnostics{}, fmt.Errorf("parse groups: %w", err)
	}
	req, err := t.require([][]string{colGroupID, colGroupName, colGroupStatus, colGroupMembers})
	if err != nil {
		return nil, t.Diagnostics, fmt.Errorf("parse groups: %w", err)
	}
	if len(t.Rows) == 0 {
		return nil, t.Diagnostics, fmt.Errorf("parse groups: %w", ErrNoRows)
	}
	var (
		iID, iName, iStatus, iMembers = req[0], req[1], req[2], req[3]

		iType      = t.Index(colGroupType...)
		iTags      = t.Index(colGroupTags...)
		iLeaders   = t.Index(colGroupLeaders...)
		iSources   = t.Index(colGroupSources...)
		iInArchive = t.Index(colGroupInArchive...)
		iActiveExp = t.Index(colGroupActiveExp...)
		iArchExp   = t.Index(colGroupArchExp...)
		iDrift     = t.Index(colGroupDrift...)
		iNameNorm  = t.Index(colGroupNameNorm...)
		iStatusSrc = t.Index(colGroupStatusSrc...)
		iNote      = t.Index(colGroupNote...)
	)

	out := make([]core.Group, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, core.Group{
			ID:                safeGet(row, iID),
			Name:              safeGet(row, iName),
			Type:              safeGet(row, iType),
			Tags:              safeGet(row, iTags),
			Leaders:           safeGet(row, iLeaders),
			MembersCount:      core.ParseCount(safeGet(row, iMembers)),
			Sources:           safeGet(row, iSources),
			Status:            core.ParseStatus(safeGet(row, iStatus)),
			InArchivedDoc:     core.ParseFlag(safeGet(row, iInArchive)),
			ActiveInExports:   core.ParseFlag(safeGet(row, iActiveExp)),
			ArchivedInExports: core.ParseFlag(safeGet(row, iArchExp)),
			StatusDrift:       core.ParseFlag(safeGet(row, iDrift)),
			NameNorm:          safeGet(row, iNameNorm),
			StatusSource:      safeGet(row, iStatusSrc),
			StatusNote:        safeGet(row, iNote),
		})
	}
	return out, t.Diagnostics, nil
}
