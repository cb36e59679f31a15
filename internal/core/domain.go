package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusActive        Status = "Active"
	StatusArchived      Status = "Archived"
	StatusSeasonalBreak Status = "Seasonal break"
	StatusUnknown       Status = "Unknown"
)

type (
	// Status is the canonical lifecycle state of a group.
	Status string

	// Event is one attendance record for a gathering. Month, Weekday, Hour and
	// Date are populated by enrichment; ingestion only fills the source fields.
	Event struct {
		ID         string
		GroupID    string
		Name       string
		DateText   string // event_date as it appeared in the source
		StartText  string // event_start_dt, optional
		EndText    string // event_end_dt, optional
		Location   string
		Total      int
		Members    int
		Visitors   int
		SourceFile string

		Date    time.Time
		Month   string // YYYY-MM
		Weekday string
		Hour    int
	}

	// Group is a named recurring gathering entity.
	Group struct {
		ID           string
		Name         string
		Type         string
		Tags         string
		Leaders      string // free text, "; " separated after merges
		MembersCount int
		Sources      string
		Status       Status

		// Provenance and drift bookkeeping carried through from the export.
		InArchivedDoc     bool
		ActiveInExports   bool
		ArchivedInExports bool
		StatusDrift       bool
		NameNorm          string
		StatusSource      string
		StatusNote        string
	}
)

var (
	ErrEmptyGroupID = errors.New("empty group id")
	ErrEmptyDate    = errors.New("empty event date")
	ErrInvalidDate  = errors.New("invalid event date")
)

// Statuses lists the canonical statuses in display order.
var Statuses = []Status{StatusActive, StatusArchived, StatusSeasonalBreak, StatusUnknown}

// ParseStatus maps free text onto a canonical status. Matching ignores case
// and surrounding whitespace; anything unrecognised is Unknown.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return StatusActive
	case "archived":
		return StatusArchived
	case "seasonal break", "seasonal":
		return StatusSeasonalBreak
	default:
		return StatusUnknown
	}
}

func (s Status) String() string {
	return string(s)
}

// IsOperational reports whether the group is a serve team or staff meeting
// rather than a small group. Those are left out of the small-group views.
func (g Group) IsOperational() bool {
	return strings.Contains(g.Name, "Serve Team") || g.Name == "Staff Meeting"
}

// Validate checks the join keys an event needs before it can be enriched.
func (e Event) Validate() error {
	if strings.TrimSpace(e.GroupID) == "" {
		return ErrEmptyGroupID
	}
	if strings.TrimSpace(e.DateText) == "" {
		return ErrEmptyDate
	}
	return nil
}
