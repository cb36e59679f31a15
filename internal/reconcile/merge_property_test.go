package reconcile

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"groupdash/internal/core"
)

// nameVariants has no names containing "widow": the default override can
// rename a cluster into an existing record's name, which a second pass then
// merges (see TestReconcile_WidowOverrideCollidesOnSecondPass).
var nameVariants = []string{
	"Dad's Night", "Dad’s Night", "dads night", "Young Adults", "young  adults",
	"Men – Breakfast", "men - breakfast", "Prayer", "PRAYER!", "Café",
}

func genGroups(rt *rapid.T) []core.Group {
	n := rapid.IntRange(0, 12).Draw(rt, "n")
	groups := make([]core.Group, n)
	for i := range groups {
		groups[i] = core.Group{
			ID:           fmt.Sprintf("g%d", i),
			Name:         rapid.SampledFrom(nameVariants).Draw(rt, "name"),
			Status:       rapid.SampledFrom(core.Statuses).Draw(rt, "status"),
			MembersCount: rapid.IntRange(0, 40).Draw(rt, "members"),
			Leaders:      rapid.SampledFrom([]string{"", "Ann", "Bob"}).Draw(rt, "leaders"),
		}
	}
	return groups
}

// Property: reconciling an already reconciled set merges nothing further.
func TestProperty_ReconcileIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		groups := genGroups(rt)
		first := Reconcile(groups, nil, DefaultRules())
		second := Reconcile(first.Groups, nil, DefaultRules())

		if second.Merged != 0 {
			rt.Fatalf("second pass merged %d clusters", second.Merged)
		}
		if len(second.Groups) != len(first.Groups) {
			rt.Fatalf("group count changed: %d -> %d", len(first.Groups), len(second.Groups))
		}
		for i := range first.Groups {
			if first.Groups[i] != second.Groups[i] {
				rt.Fatalf("group %d changed: %+v -> %+v", i, first.Groups[i], second.Groups[i])
			}
		}
	})
}

// Property: every cluster's merged member count is the cluster maximum, and
// every event references a surviving group id or an id that was never mapped.
func TestProperty_ReconcileMergeInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		groups := genGroups(rt)
		var events []core.Event
		for _, g := range groups {
			events = append(events, core.Event{GroupID: g.ID})
		}
		res := Reconcile(groups, events, DefaultRules())

		if len(res.Groups) > len(groups) {
			rt.Fatalf("merged set grew")
		}
		if len(res.Events) != len(events) {
			rt.Fatalf("event count changed")
		}

		maxByKey := map[string]int{}
		for _, g := range groups {
			k := Key(DefaultRules().Correct(g.Name))
			if g.MembersCount > maxByKey[k] {
				maxByKey[k] = g.MembersCount
			}
		}
		surviving := map[string]bool{}
		for _, g := range res.Groups {
			surviving[g.ID] = true
			if want := maxByKey[Key(g.Name)]; g.MembersCount != want {
				rt.Fatalf("group %s members=%d want %d", g.ID, g.MembersCount, want)
			}
		}
		for _, e := range res.Events {
			if !surviving[e.GroupID] {
				rt.Fatalf("event references dropped group %s", e.GroupID)
			}
		}
	})
}
