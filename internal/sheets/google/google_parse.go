package google

import (
	"fmt"
	"strings"

	ports "groupdash/internal/sheets"
)

// valuesToCSV converts a values matrix (as returned by the Sheets API) into
// a CSV document. The first row is the header. The API omits trailing empty
// cells, so short rows are padded to the header width; blank rows are
// skipped.
func valuesToCSV(values [][]interface{}) ([]byte, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("empty values matrix")
	}
	header := toStrings(values[0])
	rows := make([][]string, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := toStrings(raw)
		if isBlank(row) {
			continue
		}
		for len(row) < len(header) {
			row = append(row, "")
		}
		rows = append(rows, row)
	}
	return ports.RenderCSV(header, rows)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
