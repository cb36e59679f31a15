package analytics

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"groupdash/internal/core"
)

// Filter selects detail-table rows by status.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterActive   Filter = "active"
	FilterArchived Filter = "archived"
	FilterSeasonal Filter = "seasonal"
)

// Direction is a sort order for the detail table.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// DefaultSortKey and DefaultDirection order the detail table when the caller
// does not ask for anything else.
const (
	DefaultSortKey   = "totalEvents"
	DefaultDirection = Desc
)

var (
	ErrUnknownFilter    = errors.New("unknown status filter")
	ErrUnknownSortKey   = errors.New("unknown sort key")
	ErrUnknownDirection = errors.New("unknown sort direction")
)

var rowComparators = map[string]func(a, b GroupRow) int{
	"groupId":          func(a, b GroupRow) int { return cmp.Compare(a.GroupID, b.GroupID) },
	"name":             func(a, b GroupRow) int { return cmp.Compare(a.Name, b.Name) },
	"groupType":        func(a, b GroupRow) int { return cmp.Compare(a.GroupType, b.GroupType) },
	"status":           func(a, b GroupRow) int { return cmp.Compare(a.Status, b.Status) },
	"totalEvents":      func(a, b GroupRow) int { return cmp.Compare(a.TotalEvents, b.TotalEvents) },
	"medianAttendance": func(a, b GroupRow) int { return cmp.Compare(a.MedianAttendance, b.MedianAttendance) },
	"avgAttendance":    func(a, b GroupRow) int { return cmp.Compare(a.AvgAttendance, b.AvgAttendance) },
	"consistency":      func(a, b GroupRow) int { return cmp.Compare(a.Consistency, b.Consistency) },
	"visitorRate":      func(a, b GroupRow) int { return cmp.Compare(a.VisitorRate, b.VisitorRate) },
	"lastEvent":        func(a, b GroupRow) int { return a.LastEventDate.Compare(b.LastEventDate) },
	"leaders":          func(a, b GroupRow) int { return cmp.Compare(a.Leaders, b.Leaders) },
}

// ParseFilter reads a filter name. Blank means all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterArchived, FilterSeasonal:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
	}
}

// ParseDirection reads a sort direction. Blank means the default.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DefaultDirection, nil
	case Asc, Desc:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
}

func (f Filter) match(s core.Status) bool {
	switch f {
	case FilterActive:
		return s == core.StatusActive
	case FilterArchived:
		return s == core.StatusArchived
	case FilterSeasonal:
		return s == core.StatusSeasonalBreak
	default:
		return true
	}
}

// FilterGroupRows returns the rows whose status matches f in a new slice.
func FilterGroupRows(rows []GroupRow, f Filter) []GroupRow {
	out := make([]GroupRow, 0, len(rows))
	for _, r := range rows {
		if f.match(r.Status) {
			out = append(out, r)
		}
	}
	return out
}

// CountByFilter reports how many rows each filter would keep.
func CountByFilter(rows []GroupRow) map[Filter]int {
	counts := map[Filter]int{FilterAll: len(rows)}
	for _, f := range []Filter{FilterActive, FilterArchived, FilterSeasonal} {
		for _, r := range rows {
			if f.match(r.Status) {
				counts[f]++
			}
		}
	}
	return counts
}

// SortGroupRows returns a stably sorted copy of rows. A blank key sorts by
// total events. Dates sort chronologically, not by their display text.
func SortGroupRows(rows []GroupRow, key string, dir Direction) ([]GroupRow, error) {
	if key == "" {
		key = DefaultSortKey
	}
	compare, ok := rowComparators[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSortKey, key)
	}
	if dir == "" {
		dir = DefaultDirection
	}
	if dir != Asc && dir != Desc {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDirection, dir)
	}

	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b GroupRow) int {
		if dir == Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out, nil
}
