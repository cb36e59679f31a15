package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupdash/internal/core"
)

func tableRows() []GroupRow {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	return []GroupRow{
		{GroupID: "1", Name: "Bravo", Status: core.StatusActive, TotalEvents: 5, Consistency: 80, LastEventDate: day(9), LastEvent: "Mar 9"},
		{GroupID: "2", Name: "Alpha", Status: core.StatusArchived, TotalEvents: 9, Consistency: 40, LastEventDate: day(10), LastEvent: "Mar 10"},
		{GroupID: "3", Name: "Charlie", Status: core.StatusSeasonalBreak, TotalEvents: 5, Consistency: 95, LastEventDate: day(2), LastEvent: "Mar 2"},
		{GroupID: "4", Name: "Delta", Status: core.StatusActive, TotalEvents: 1, Consistency: 100, LastEvent: "-"},
	}
}

func ids(rows []GroupRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.GroupID
	}
	return out
}

func TestFilterGroupRows(t *testing.T) {
	rows := tableRows()
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(FilterGroupRows(rows, FilterAll)))
	assert.Equal(t, []string{"1", "4"}, ids(FilterGroupRows(rows, FilterActive)))
	assert.Equal(t, []string{"2"}, ids(FilterGroupRows(rows, FilterArchived)))
	assert.Equal(t, []string{"3"}, ids(FilterGroupRows(rows, FilterSeasonal)))

	counts := CountByFilter(rows)
	assert.Equal(t, map[Filter]int{FilterAll: 4, FilterActive: 2, FilterArchived: 1, FilterSeasonal: 1}, counts)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	f, err = ParseFilter(" Seasonal ")
	require.NoError(t, err)
	assert.Equal(t, FilterSeasonal, f)

	_, err = ParseFilter("deleted")
	assert.ErrorIs(t, err, ErrUnknownFilter)
}

func TestSortGroupRows(t *testing.T) {
	rows := tableRows()

	sorted, err := SortGroupRows(rows, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1", "3", "4"}, ids(sorted), "default is total events descending, stable on ties")

	sorted, err = SortGroupRows(rows, "name", Asc)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1", "3", "4"}, ids(sorted))

	sorted, err = SortGroupRows(rows, "consistency", Asc)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1", "3", "4"}, ids(sorted))

	sorted, err = SortGroupRows(rows, "lastEvent", Desc)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1", "3", "4"}, ids(sorted), "dates compare chronologically")

	sorted, err = SortGroupRows(rows, "lastEvent", Asc)
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "3", "1", "2"}, ids(sorted))

	assert.Equal(t, tableRows(), rows, "input is not reordered")
}

func TestSortGroupRows_Errors(t *testing.T) {
	_, err := SortGroupRows(tableRows(), "colour", Asc)
	assert.ErrorIs(t, err, ErrUnknownSortKey)

	_, err = SortGroupRows(tableRows(), "name", Direction("sideways"))
	assert.ErrorIs(t, err, ErrUnknownDirection)

	_, err = ParseDirection("up")
	assert.ErrorIs(t, err, ErrUnknownDirection)
}
