package analytics

import (
	"cmp"
	"slices"
	"strconv"

	"groupdash/internal/core"
)

// Lookup maps a group id to its reconciled group record.
type Lookup map[string]core.Group

// NewLookup indexes groups by id. When ids repeat the last record wins.
func NewLookup(groups []core.Group) Lookup {
	l := make(Lookup, len(groups))
	for _, g := range groups {
		l[g.ID] = g
	}
	return l
}

// StatusOf returns the canonical status of the event's group, or Unknown
// when the group is missing.
func (l Lookup) StatusOf(groupID string) core.Status {
	if g, ok := l[groupID]; ok {
		return g.Status
	}
	return core.StatusUnknown
}

// smallGroup returns the group when it exists and is not operational.
func (l Lookup) smallGroup(groupID string) (core.Group, bool) {
	g, ok := l[groupID]
	if !ok || g.IsOperational() {
		return core.Group{}, false
	}
	return g, true
}

type bucket struct {
	key    string
	events []core.Event
}

// byGroup buckets events by group id. Buckets come back with integer-like
// ids first in ascending numeric order, then the remaining ids in the order
// they were first seen. Rankings sort stably, so this order breaks ties.
func byGroup(events []core.Event) []bucket {
	idx := map[string]int{}
	var out []bucket
	for _, e := range events {
		i, ok := idx[e.GroupID]
		if !ok {
			i = len(out)
			idx[e.GroupID] = i
			out = append(out, bucket{key: e.GroupID})
		}
		out[i].events = append(out[i].events, e)
	}

	var numeric, other []bucket
	for _, b := range out {
		if _, ok := indexKey(b.key); ok {
			numeric = append(numeric, b)
		} else {
			other = append(other, b)
		}
	}
	slices.SortStableFunc(numeric, func(a, b bucket) int {
		x, _ := indexKey(a.key)
		y, _ := indexKey(b.key)
		return cmp.Compare(x, y)
	})
	return append(numeric, other...)
}

// byMonth buckets events by month key in chronological order.
func byMonth(events []core.Event) []bucket {
	idx := map[string]int{}
	var out []bucket
	for _, e := range events {
		i, ok := idx[e.Month]
		if !ok {
			i = len(out)
			idx[e.Month] = i
			out = append(out, bucket{key: e.Month})
		}
		out[i].events = append(out[i].events, e)
	}
	slices.SortStableFunc(out, func(a, b bucket) int { return cmp.Compare(a.key, b.key) })
	return out
}

// indexKey reports whether s is a canonical non-negative integer (no sign,
// no leading zeros) small enough to be used as an array index.
func indexKey(s string) (uint64, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 1<<32-1 {
		return 0, false
	}
	return n, true
}

func totals(events []core.Event) (total, members, visitors int) {
	for _, e := range events {
		total += e.Total
		members += e.Members
		visitors += e.Visitors
	}
	return total, members, visitors
}

func attendances(events []core.Event) []int {
	out := make([]int, len(events))
	for i, e := range events {
		out[i] = e.Total
	}
	return out
}
