package pipeline

import (
	"fmt"

	"groupdash/internal/core"
	"groupdash/internal/ingest"
)

// Enrich returns the working event set: events with a group id and a
// parseable date, each carrying its month, weekday and start hour. Rejected
// events are counted in the returned diagnostics. The input is not modified.
func Enrich(events []core.Event) ([]core.Event, ingest.Diagnostics) {
	var diag ingest.Diagnostics
	out := make([]core.Event, 0, len(events))
	for i, e := range events {
		if err := e.Validate(); err != nil {
			diag.Reject(0, fmt.Sprintf("event %d: %v", i+1, err))
			continue
		}
		d, err := core.ParseDate(e.DateText)
		if err != nil {
			diag.Reject(0, fmt.Sprintf("event %d: %v", i+1, err))
			continue
		}
		e.Date = d
		e.Month = core.MonthKey(d)
		e.Weekday = core.WeekdayName(d)
		e.Hour = 0
		if e.StartText != "" {
			if start, err := core.ParseDate(e.StartText); err == nil {
				e.Hour = start.Hour()
			}
		}
		out = append(out, e)
	}
	diag.Accepted = len(out)
	return out, diag
}
