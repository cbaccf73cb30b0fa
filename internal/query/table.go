package query

import (
	"fmt"
	"sort"
	"strings"
)

// Table is the structured result of a query: a header and string cells.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// TableFromRecords builds a table from row maps. Columns listed in order
// come first; keys not in order follow alphabetically.
func TableFromRecords(records []map[string]string, order []string) Table {
	seen := make(map[string]bool)
	for _, r := range records {
		for k := range r {
			seen[k] = true
		}
	}

	var columns []string
	for _, c := range order {
		if seen[c] {
			columns = append(columns, c)
			delete(seen, c)
		}
	}
	var rest []string
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	columns = append(columns, rest...)

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = r[c]
		}
		rows = append(rows, row)
	}
	return Table{Columns: columns, Rows: rows}
}

// stringify renders a cell value.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return FormatFloat(x)
	case float32:
		return FormatFloat(float64(x))
	default:
		return fmt.Sprint(x)
	}
}

// FormatFloat renders whole numbers without a fraction and everything else
// with at most two decimals.
func FormatFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
