package reconcile

import (
	"strings"

	"groupdash/internal/core"
)

// Result is the output of Reconcile. Groups holds one record per
// normalization key in first-encounter order; Events has the same length and
// order as the input with group ids rewritten through Mapping.
type Result struct {
	Groups  []core.Group
	Events  []core.Event
	Mapping map[string]string // duplicate id -> primary id, primaries included
	Merged  int               // duplicate clusters collapsed
}

// Reconcile applies name corrections, clusters groups by Key and merges each
// cluster of two or more into its primary record. The primary is the first
// Active record in the cluster, else the first record. Inputs are not
// modified.
func Reconcile(groups []core.Group, events []core.Event, rules Rules) Result {
	clusters := make(map[string][]core.Group)
	var order []string
	for _, g := range groups {
		g.Name = rules.Correct(g.Name)
		key := Key(g.Name)
		if _, ok := clusters[key]; !ok {
			order = append(order, key)
		}
		clusters[key] = append(clusters[key], g)
	}

	res := Result{
		Groups:  make([]core.Group, 0, len(order)),
		Mapping: make(map[string]string),
	}
	for _, key := range order {
		members := clusters[key]
		if len(members) == 1 {
			res.Groups = append(res.Groups, members[0])
			continue
		}
		merged := mergeCluster(key, members, rules)
		res.Groups = append(res.Groups, merged)
		for _, g := range members {
			res.Mapping[g.ID] = merged.ID
		}
		res.Merged++
	}

	res.Events = make([]core.Event, len(events))
	for i, e := range events {
		if to, ok := res.Mapping[e.GroupID]; ok {
			e.GroupID = to
		}
		res.Events[i] = e
	}
	return res
}

func mergeCluster(key string, members []core.Group, rules Rules) core.Group {
	primary := members[0]
	for _, g := range members {
		if g.Status == core.StatusActive {
			primary = g
			break
		}
	}

	merged := primary
	if name, ok := rules.overrideFor(key); ok {
		merged.Name = name
	}
	var sources, leaders []string
	for _, g := range members {
		if g.MembersCount > merged.MembersCount {
			merged.MembersCount = g.MembersCount
		}
		if g.Sources != "" {
			sources = append(sources, g.Sources)
		}
		if g.Leaders != "" {
			leaders = append(leaders, g.Leaders)
		}
	}
	merged.Sources = strings.Join(sources, "; ")
	merged.Leaders = strings.Join(leaders, "; ")
	return merged
}
