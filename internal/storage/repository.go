package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"groupdash/internal/core"
	ports "groupdash/internal/sheets"

	_ "modernc.org/sqlite"
)

// Header rows written by ReadEvents and ReadGroups. They use the canonical
// column names understood by the ingest package.
var (
	eventsHeader = []string{
		"event_id", "group_id", "event_name", "event_date", "event_start_dt", "event_end_dt",
		"location", "total_attended_count", "members_attended_count", "visitors_attended_count", "source_file",
	}
	groupsHeader = []string{
		"group_id", "group_name", "group_type", "tags", "leaders", "members_count", "sources",
		"canonical_status", "in_archived_doc", "is_active_in_exports", "is_archived_in_exports",
		"status_drift_flag", "name_norm", "status_source", "status_note",
	}
)

// ErrNoImport is returned by LatestImport before anything was imported.
var ErrNoImport = errors.New("no import recorded")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ ports.Source = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Import replaces both tables in one transaction and records the import.
func (r *SQLiteRepository) Import(ctx context.Context, events []core.Event, groups []core.Group, source string) (Import, error) {
	var rec Import
	err := r.inTx(ctx, func(q *Queries) error {
		if err := replaceGroups(ctx, q, groups); err != nil {
			return err
		}
		if err := replaceEvents(ctx, q, events); err != nil {
			return err
		}
		var err error
		rec, err = q.CreateImport(ctx, CreateImportParams{
			EventRows: int64(len(events)),
			GroupRows: int64(len(groups)),
			Source:    source,
		})
		if err != nil {
			return fmt.Errorf("record import: %w", err)
		}
		return nil
	})
	if err != nil {
		return Import{}, err
	}

	slog.InfoContext(ctx, "Source data imported to SQLite",
		"import_id", rec.ID,
		"events", rec.EventRows,
		"groups", rec.GroupRows,
		"source", rec.Source)
	return rec, nil
}

// ImportEvents replaces the events table in one transaction.
func (r *SQLiteRepository) ImportEvents(ctx context.Context, events []core.Event) error {
	return r.inTx(ctx, func(q *Queries) error { return replaceEvents(ctx, q, events) })
}

// ImportGroups replaces the groups table in one transaction.
func (r *SQLiteRepository) ImportGroups(ctx context.Context, groups []core.Group) error {
	return r.inTx(ctx, func(q *Queries) error { return replaceGroups(ctx, q, groups) })
}

// LatestImport returns the most recent import record.
func (r *SQLiteRepository) LatestImport(ctx context.Context) (Import, error) {
	rec, err := r.queries.LatestImport(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Import{}, ErrNoImport
	}
	if err != nil {
		return Import{}, fmt.Errorf("latest import: %w", err)
	}
	return rec, nil
}

// ReadEvents implements sheets.EventsReader
func (r *SQLiteRepository) ReadEvents(ctx context.Context) ([]byte, error) {
	items, err := r.queries.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	rows := make([][]string, 0, len(items))
	for _, e := range items {
		rows = append(rows, []string{
			e.EventID, e.GroupID, e.EventName, e.EventDate, e.EventStartDt, e.EventEndDt, e.Location,
			itoa(e.TotalAttendedCount), itoa(e.MembersAttendedCount), itoa(e.VisitorsAttendedCount), e.SourceFile,
		})
	}
	return ports.RenderCSV(eventsHeader, rows)
}

// ReadGroups implements sheets.GroupsReader
func (r *SQLiteRepository) ReadGroups(ctx context.Context) ([]byte, error) {
	items, err := r.queries.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	rows := make([][]string, 0, len(items))
	for _, g := range items {
		rows = append(rows, []string{
			g.GroupID, g.GroupName, g.GroupType, g.Tags, g.Leaders, itoa(g.MembersCount), g.Sources,
			g.CanonicalStatus,
			strconv.FormatBool(g.InArchivedDoc),
			strconv.FormatBool(g.IsActiveInExports),
			strconv.FormatBool(g.IsArchivedInExports),
			strconv.FormatBool(g.StatusDriftFlag),
			g.NameNorm, g.StatusSource, g.StatusNote,
		})
	}
	return ports.RenderCSV(groupsHeader, rows)
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func replaceEvents(ctx context.Context, q *Queries, events []core.Event) error {
	if err := q.DeleteEvents(ctx); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	for i, e := range events {
		err := q.InsertEvent(ctx, InsertEventParams{
			EventID:               e.ID,
			GroupID:               e.GroupID,
			EventName:             e.Name,
			EventDate:             e.DateText,
			EventStartDt:          e.StartText,
			EventEndDt:            e.EndText,
			Location:              e.Location,
			TotalAttendedCount:    int64(e.Total),
			MembersAttendedCount:  int64(e.Members),
			VisitorsAttendedCount: int64(e.Visitors),
			SourceFile:            e.SourceFile,
		})
		if err != nil {
			return fmt.Errorf("insert event %d: %w", i+1, err)
		}
	}
	return nil
}

func replaceGroups(ctx context.Context, q *Queries, groups []core.Group) error {
	if err := q.DeleteGroups(ctx); err != nil {
		return fmt.Errorf("clear groups: %w", err)
	}
	for i, g := range groups {
		err := q.InsertGroup(ctx, InsertGroupParams{
			GroupID:             g.ID,
			GroupName:           g.Name,
			GroupType:           g.Type,
			Tags:                g.Tags,
			Leaders:             g.Leaders,
			MembersCount:        int64(g.MembersCount),
			Sources:             g.Sources,
			CanonicalStatus:     g.Status.String(),
			InArchivedDoc:       g.InArchivedDoc,
			IsActiveInExports:   g.ActiveInExports,
			IsArchivedInExports: g.ArchivedInExports,
			StatusDriftFlag:     g.StatusDrift,
			NameNorm:            g.NameNorm,
			StatusSource:        g.StatusSource,
			StatusNote:          g.StatusNote,
		})
		if err != nil {
			return fmt.Errorf("insert group %d: %w", i+1, err)
		}
	}
	return nil
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
