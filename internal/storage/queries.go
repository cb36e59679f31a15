package storage

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type SourceEvent struct {
	RowID                 int64
	EventID               string
	GroupID               string
	EventName             string
	EventDate             string
	EventStartDt          string
	EventEndDt            string
	Location              string
	TotalAttendedCount    int64
	MembersAttendedCount  int64
	VisitorsAttendedCount int64
	SourceFile            string
}

type SourceGroup struct {
	RowID               int64
	GroupID             string
	GroupName           string
	GroupType           string
	Tags                string
	Leaders             string
	MembersCount        int64
	Sources             string
	CanonicalStatus     string
	InArchivedDoc       bool
	IsActiveInExports   bool
	IsArchivedInExports bool
	StatusDriftFlag     bool
	NameNorm            string
	StatusSource        string
	StatusNote          string
}

type Import struct {
	ID         int64
	EventRows  int64
	GroupRows  int64
	Source     string
	ImportedAt time.Time
}

const deleteEvents = `DELETE FROM source_events`

func (q *Queries) DeleteEvents(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteEvents)
	return err
}

const deleteGroups = `DELETE FROM source_groups`

func (q *Queries) DeleteGroups(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteGroups)
	return err
}

const insertEvent = `INSERT INTO source_events (
    event_id, group_id, event_name, event_date, event_start_dt, event_end_dt,
    location, total_attended_count, members_attended_count, visitors_attended_count, source_file
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type InsertEventParams struct {
	EventID               string
	GroupID               string
	EventName             string
	EventDate             string
	EventStartDt          string
	EventEndDt            string
	Location              string
	TotalAttendedCount    int64
	MembersAttendedCount  int64
	VisitorsAttendedCount int64
	SourceFile            string
}

func (q *Queries) InsertEvent(ctx context.Context, arg InsertEventParams) error {
	_, err := q.db.ExecContext(ctx, insertEvent,
		arg.EventID,
		arg.GroupID,
		arg.EventName,
		arg.EventDate,
		arg.EventStartDt,
		arg.EventEndDt,
		arg.Location,
		arg.TotalAttendedCount,
		arg.MembersAttendedCount,
		arg.VisitorsAttendedCount,
		arg.SourceFile,
	)
	return err
}

const insertGroup = `INSERT INTO source_groups (
    group_id, group_name, group_type, tags, leaders, members_count, sources,
    canonical_status, in_archived_doc, is_active_in_exports, is_archived_in_exports,
    status_drift_flag, name_norm, status_source, status_note
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type InsertGroupParams struct {
	GroupID             string
	GroupName           string
	GroupType           string
	Tags                string
	Leaders             string
	MembersCount        int64
	Sources             string
	CanonicalStatus     string
	InArchivedDoc       bool
	IsActiveInExports   bool
	IsArchivedInExports bool
	StatusDriftFlag     bool
	NameNorm            string
	StatusSource        string
	StatusNote          string
}

func (q *Queries) InsertGroup(ctx context.Context, arg InsertGroupParams) error {
	_, err := q.db.ExecContext(ctx, insertGroup,
		arg.GroupID,
		arg.GroupName,
		arg.GroupType,
		arg.Tags,
		arg.Leaders,
		arg.MembersCount,
		arg.Sources,
		arg.CanonicalStatus,
		arg.InArchivedDoc,
		arg.IsActiveInExports,
		arg.IsArchivedInExports,
		arg.StatusDriftFlag,
		arg.NameNorm,
		arg.StatusSource,
		arg.StatusNote,
	)
	return err
}

const listEvents = `SELECT row_id, event_id, group_id, event_name, event_date, event_start_dt,
    event_end_dt, location, total_attended_count, members_attended_count,
    visitors_attended_count, source_file
FROM source_events
ORDER BY row_id`

func (q *Queries) ListEvents(ctx context.Context) ([]SourceEvent, error) {
	rows, err := q.db.QueryContext(ctx, listEvents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SourceEvent
	for rows.Next() {
		var i SourceEvent
		if err := rows.Scan(
			&i.RowID,
			&i.EventID,
			&i.GroupID,
			&i.EventName,
			&i.EventDate,
			&i.EventStartDt,
			&i.EventEndDt,
			&i.Location,
			&i.TotalAttendedCount,
			&i.MembersAttendedCount,
			&i.VisitorsAttendedCount,
			&i.SourceFile,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listGroups = `SELECT row_id, group_id, group_name, group_type, tags, leaders, members_count,
    sources, canonical_status, in_archived_doc, is_active_in_exports,
    is_archived_in_exports, status_drift_flag, name_norm, status_source, status_note
FROM source_groups
ORDER BY row_id`

func (q *Queries) ListGroups(ctx context.Context) ([]SourceGroup, error) {
	rows, err := q.db.QueryContext(ctx, listGroups)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SourceGroup
	for rows.Next() {
		var i SourceGroup
		if err := rows.Scan(
			&i.RowID,
			&i.GroupID,
			&i.GroupName,
			&i.GroupType,
			&i.Tags,
			&i.Leaders,
			&i.MembersCount,
			&i.Sources,
			&i.CanonicalStatus,
			&i.InArchivedDoc,
			&i.IsActiveInExports,
			&i.IsArchivedInExports,
			&i.StatusDriftFlag,
			&i.NameNorm,
			&i.StatusSource,
			&i.StatusNote,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createImport = `INSERT INTO imports (event_rows, group_rows, source) VALUES (?, ?, ?)
RETURNING id, event_rows, group_rows, source, imported_at`

type CreateImportParams struct {
	EventRows int64
	GroupRows int64
	Source    string
}

func (q *Queries) CreateImport(ctx context.Context, arg CreateImportParams) (Import, error) {
	row := q.db.QueryRowContext(ctx, createImport, arg.EventRows, arg.GroupRows, arg.Source)
	var i Import
	err := row.Scan(&i.ID, &i.EventRows, &i.GroupRows, &i.Source, &i.ImportedAt)
	return i, err
}

const latestImport = `SELECT id, event_rows, group_rows, source, imported_at
FROM imports
ORDER BY id DESC
LIMIT 1`

func (q *Queries) LatestImport(ctx context.Context) (Import, error) {
	row := q.db.QueryRowContext(ctx, latestImport)
	var i Import
	err := row.Scan(&i.ID, &i.EventRows, &i.GroupRows, &i.Source, &i.ImportedAt)
	return i, err
}
