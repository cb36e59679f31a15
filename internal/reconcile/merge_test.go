package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupdash/internal/core"
)

func TestReconcile_WidowsWalk(t *testing.T) {
	groups := []core.Group{
		{ID: "1", Name: "A Widow's Walk", Status: core.StatusActive, MembersCount: 5},
		{ID: "2", Name: "a widows' walk", Status: core.StatusArchived, MembersCount: 8},
	}
	events := []core.Event{{ID: "e1", GroupID: "2"}}

	res := Reconcile(groups, events, DefaultRules())

	require.Len(t, res.Groups, 1)
	g := res.Groups[0]
	assert.Equal(t, "1", g.ID)
	assert.Equal(t, "A Widow's Walk", g.Name)
	assert.Equal(t, 8, g.MembersCount)
	assert.Equal(t, core.StatusActive, g.Status)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "1", res.Events[0].GroupID)
	assert.Equal(t, map[string]string{"1": "1", "2": "1"}, res.Mapping)
	assert.Equal(t, 1, res.Merged)

	// Inputs untouched.
	assert.Equal(t, "2", events[0].GroupID)
	assert.Equal(t, "a widows' walk", groups[1].Name)
}

// The widow override renames a duplicate cluster to a name another record
// may already carry, so a second pass merges the two. Reconciliation is
// idempotent only for rule sets whose override names do not collide.
func TestReconcile_WidowOverrideCollidesOnSecondPass(t *testing.T) {
	groups := []core.Group{
		{ID: "w1", Name: "Widow Support", Status: core.StatusActive, MembersCount: 4},
		{ID: "w2", Name: "widow support", Status: core.StatusArchived, MembersCount: 6},
		{ID: "w3", Name: "A Widow's Walk", Status: core.StatusActive, MembersCount: 9},
	}

	first := Reconcile(groups, nil, DefaultRules())
	require.Len(t, first.Groups, 2)
	assert.Equal(t, 1, first.Merged)
	assert.Equal(t, "A Widow's Walk", first.Groups[0].Name)
	assert.Equal(t, "w1", first.Groups[0].ID)
	assert.Equal(t, "A Widow's Walk", first.Groups[1].Name)

	second := Reconcile(first.Groups, nil, DefaultRules())
	require.Len(t, second.Groups, 1)
	assert.Equal(t, 1, second.Merged)
	assert.Equal(t, "w1", second.Groups[0].ID)
	assert.Equal(t, 9, second.Groups[0].MembersCount)
	assert.Equal(t, map[string]string{"w1": "w1", "w3": "w1"}, second.Mapping)
}

func TestReconcile_ApostropheGlyphs(t *testing.T) {
	groups := []core.Group{
		{ID: "a", Name: "O'Brien’s Group", Status: core.StatusArchived, MembersCount: 12, Leaders: "Pat", Sources: "old"},
		{ID: "b", Name: "O'Brien's Group", Status: core.StatusArchived, MembersCount: 18, Sources: "new"},
		{ID: "c", Name: "Other", Status: core.StatusActive},
	}
	res := Reconcile(groups, nil, DefaultRules())

	require.Len(t, res.Groups, 2)
	merged := res.Groups[0]
	assert.Equal(t, "a", merged.ID, "no active record: first encountered wins")
	assert.Equal(t, "O'Brien’s Group", merged.Name)
	assert.Equal(t, 18, merged.MembersCount)
	assert.Equal(t, "old; new", merged.Sources)
	assert.Equal(t, "Pat", merged.Leaders)
	assert.Equal(t, "Other", res.Groups[1].Name)
	assert.Empty(t, res.Events)
}

func TestReconcile_PrimaryIsFirstActive(t *testing.T) {
	groups := []core.Group{
		{ID: "1", Name: "Alpha", Status: core.StatusArchived, Leaders: "A"},
		{ID: "2", Name: "alpha", Status: core.StatusActive, Leaders: "B"},
		{ID: "3", Name: "ALPHA", Status: core.StatusActive, Leaders: "C"},
	}
	events := []core.Event{{GroupID: "1"}, {GroupID: "3"}, {GroupID: "99"}}
	res := Reconcile(groups, events, DefaultRules())

	require.Len(t, res.Groups, 1)
	assert.Equal(t, "2", res.Groups[0].ID)
	assert.Equal(t, "alpha", res.Groups[0].Name)
	assert.Equal(t, "A; B; C", res.Groups[0].Leaders)
	assert.Equal(t, []string{"2", "2", "99"}, []string{res.Events[0].GroupID, res.Events[1].GroupID, res.Events[2].GroupID})
}

func TestReconcile_SingletonsPassThroughCorrected(t *testing.T) {
	groups := []core.Group{{ID: "9", Name: "a widows walk", Status: core.StatusSeasonalBreak, Leaders: "L"}}
	res := Reconcile(groups, nil, DefaultRules())
	require.Len(t, res.Groups, 1)
	assert.Equal(t, "A Widow's Walk", res.Groups[0].Name)
	assert.Equal(t, "L", res.Groups[0].Leaders)
	assert.Empty(t, res.Mapping)
	assert.Zero(t, res.Merged)
}
