package analytics

import (
	"cmp"
	"slices"
	"time"

	"groupdash/internal/core"
)

const (
	consistencyMinEvents = 3
	consistencyLimit     = 12
	consistencyLabelMax  = 20

	topGroupsMinEvents = 2
	topGroupsLimit     = 10
	topGroupsLabelMax  = 22
)

type (
	// TimelineRow counts a month's events by the owning group's status.
	TimelineRow struct {
		Month         string `json:"month"`
		Label         string `json:"label"`
		Active        int    `json:"active"`
		Archived      int    `json:"archived"`
		SeasonalBreak int    `json:"seasonalBreak"`
		Unknown       int    `json:"unknown"`
		Total         int    `json:"total"`
		Attendance    int    `json:"attendance"`
	}

	MemberVisitorRow struct {
		Month    string `json:"month"`
		Label    string `json:"label"`
		Members  int    `json:"members"`
		Visitors int    `json:"visitors"`
	}

	// ConsistencyRow ranks a small group by median attendance.
	ConsistencyRow struct {
		GroupID     string      `json:"groupId"`
		Name        string      `json:"name"`
		Label       string      `json:"label"`
		Status      core.Status `json:"status"`
		EventCount  int         `json:"eventCount"`
		Median      int         `json:"median"`
		Mean        int         `json:"mean"`
		Variance    float64     `json:"variance"`
		StdDev      float64     `json:"stdDev"`
		CV          float64     `json:"cv"`
		Consistency int         `json:"consistency"`
	}

	TopGroupRow struct {
		GroupID       string `json:"groupId"`
		Name          string `json:"name"`
		Label         string `json:"label"`
		AvgAttendance int    `json:"avgAttendance"`
		Events        int    `json:"events"`
	}

	VisitorTrendRow struct {
		Month           string `json:"month"`
		Label           string `json:"label"`
		VisitorRate     int    `json:"visitorRate"`
		TotalAttendance int    `json:"totalAttendance"`
		Visitors        int    `json:"visitors"`
	}

	// GroupRow is one line of the all-groups detail table.
	GroupRow struct {
		GroupID          string      `json:"groupId"`
		Name             string      `json:"name"`
		GroupType        string      `json:"groupType"`
		Status           core.Status `json:"status"`
		TotalEvents      int         `json:"totalEvents"`
		MedianAttendance int         `json:"medianAttendance"`
		AvgAttendance    int         `json:"avgAttendance"`
		Consistency      int         `json:"consistency"`
		VisitorRate      int         `json:"visitorRate"`
		LastEvent        string      `json:"lastEvent"`
		LastEventDate    time.Time   `json:"lastEventDate"`
		Leaders          string      `json:"leaders"`
	}

	// Summary holds the headline numbers shown above the charts.
	Summary struct {
		TotalGroups     int `json:"totalGroups"`
		ActiveGroups    int `json:"activeGroups"`
		TotalEvents     int `json:"totalEvents"`
		TotalAttendance int `json:"totalAttendance"`
	}

	// Views bundles every dashboard view computed from one load.
	Views struct {
		Summary       Summary            `json:"summary"`
		Timeline      []TimelineRow      `json:"timeline"`
		MemberVisitor []MemberVisitorRow `json:"memberVisitor"`
		Consistency   []ConsistencyRow   `json:"consistency"`
		TopGroups     []TopGroupRow      `json:"topGroups"`
		VisitorTrend  []VisitorTrendRow  `json:"visitorTrend"`
		Groups        []GroupRow         `json:"groups"`
	}
)

// Compute builds all views from the working event set and merged groups.
func Compute(events []core.Event, groups []core.Group) Views {
	lookup := NewLookup(groups)
	return Views{
		Summary:       Summarize(events, groups),
		Timeline:      Timeline(events, lookup),
		MemberVisitor: MemberVisitor(events),
		Consistency:   Consistency(events, lookup),
		TopGroups:     TopGroups(events, lookup),
		VisitorTrend:  VisitorTrend(events, lookup),
		Groups:        GroupTable(events, lookup),
	}
}

func Summarize(events []core.Event, groups []core.Group) Summary {
	s := Summary{TotalGroups: len(groups), TotalEvents: len(events)}
	for _, g := range groups {
		if g.Status == core.StatusActive {
			s.ActiveGroups++
		}
	}
	s.TotalAttendance, _, _ = totals(events)
	return s
}

// Timeline counts events per month and status. Events whose group is not
// in the lookup are counted as Unknown.
func Timeline(events []core.Event, lookup Lookup) []TimelineRow {
	months := byMonth(events)
	rows := make([]TimelineRow, 0, len(months))
	for _, m := range months {
		row := TimelineRow{Month: m.key, Label: core.MonthLabel(m.key), Total: len(m.events)}
		for _, e := range m.events {
			switch lookup.StatusOf(e.GroupID) {
			case core.StatusActive:
				row.Active++
			case core.StatusArchived:
				row.Archived++
			case core.StatusSeasonalBreak:
				row.SeasonalBreak++
			default:
				row.Unknown++
			}
		}
		row.Attendance, _, _ = totals(m.events)
		rows = append(rows, row)
	}
	return rows
}

func MemberVisitor(events []core.Event) []MemberVisitorRow {
	months := byMonth(events)
	rows := make([]MemberVisitorRow, 0, len(months))
	for _, m := range months {
		_, members, visitors := totals(m.events)
		rows = append(rows, MemberVisitorRow{
			Month:    m.key,
			Label:    core.MonthLabel(m.key),
			Members:  members,
			Visitors: visitors,
		})
	}
	return rows
}

// Consistency ranks small groups with at least three events by median
// attendance and keeps the top twelve.
func Consistency(events []core.Event, lookup Lookup) []ConsistencyRow {
	var rows []ConsistencyRow
	for _, b := range byGroup(events) {
		g, ok := lookup.smallGroup(b.key)
		if !ok || len(b.events) < consistencyMinEvents {
			continue
		}
		a := Describe(attendances(b.events))
		rows = append(rows, ConsistencyRow{
			GroupID:     b.key,
			Name:        g.Name,
			Label:       truncateLabel(g.Name, consistencyLabelMax),
			Status:      g.Status,
			EventCount:  a.Count,
			Median:      a.Median,
			Mean:        Round(a.Mean),
			Variance:    a.Variance,
			StdDev:      a.StdDev,
			CV:          a.CV,
			Consistency: a.Consistency,
		})
	}
	slices.SortStableFunc(rows, func(x, y ConsistencyRow) int { return cmp.Compare(y.Median, x.Median) })
	if len(rows) > consistencyLimit {
		rows = rows[:consistencyLimit]
	}
	return rows
}

// TopGroups ranks active small groups with at least two events by rounded
// mean attendance and keeps the top ten.
func TopGroups(events []core.Event, lookup Lookup) []TopGroupRow {
	var rows []TopGroupRow
	for _, b := range byGroup(events) {
		g, ok := lookup.smallGroup(b.key)
		if !ok || g.Status != core.StatusActive || len(b.events) < topGroupsMinEvents {
			continue
		}
		rows = append(rows, TopGroupRow{
			GroupID:       b.key,
			Name:          g.Name,
			Label:         truncateLabel(g.Name, topGroupsLabelMax),
			AvgAttendance: Round(Describe(attendances(b.events)).Mean),
			Events:        len(b.events),
		})
	}
	slices.SortStableFunc(rows, func(x, y TopGroupRow) int { return cmp.Compare(y.AvgAttendance, x.AvgAttendance) })
	if len(rows) > topGroupsLimit {
		rows = rows[:topGroupsLimit]
	}
	return rows
}

// VisitorTrend reports the monthly visitor rate of active small groups.
// Every month with events gets a row, even when no active group met.
func VisitorTrend(events []core.Event, lookup Lookup) []VisitorTrendRow {
	months := byMonth(events)
	rows := make([]VisitorTrendRow, 0, len(months))
	for _, m := range months {
		var attendance, visitors int
		for _, e := range m.events {
			g, ok := lookup.smallGroup(e.GroupID)
			if !ok || g.Status != core.StatusActive {
				continue
			}
			attendance += e.Total
			visitors += e.Visitors
		}
		rows = append(rows, VisitorTrendRow{
			Month:           m.key,
			Label:           core.MonthLabel(m.key),
			VisitorRate:     Rate(visitors, attendance),
			TotalAttendance: attendance,
			Visitors:        visitors,
		})
	}
	return rows
}

// GroupTable flattens every small group that has events into one row.
func GroupTable(events []core.Event, lookup Lookup) []GroupRow {
	var rows []GroupRow
	for _, b := range byGroup(events) {
		g, ok := lookup.smallGroup(b.key)
		if !ok {
			continue
		}
		a := Describe(attendances(b.events))
		total, _, visitors := totals(b.events)
		row := GroupRow{
			GroupID:          b.key,
			Name:             g.Name,
			GroupType:        g.Type,
			Status:           g.Status,
			TotalEvents:      len(b.events),
			MedianAttendance: a.Median,
			AvgAttendance:    Round(a.Mean),
			Consistency:      a.Consistency,
			VisitorRate:      Rate(visitors, total),
			LastEvent:        "-",
			Leaders:          g.Leaders,
		}
		for _, e := range b.events {
			if !e.Date.Before(row.LastEventDate) {
				row.LastEventDate = e.Date
			}
		}
		if !row.LastEventDate.IsZero() {
			row.LastEvent = core.ShortDate(row.LastEventDate)
		}
		rows = append(rows, row)
	}
	return rows
}
