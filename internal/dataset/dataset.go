package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Presence codes stored in date-indexed cells
const (
	CodePresent = "P"
	CodeAbsent  = "A"
)

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsDateColumn reports whether a column name is an ISO calendar date (YYYY-MM-DD).
func IsDateColumn(name string) bool {
	return isoDatePattern.MatchString(name)
}

// IsPresent reports whether a presence code marks the student present.
// Empty strings, "A" and anything else count as absent.
func IsPresent(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), CodePresent)
}

// Dataset is a read-only wide attendance table: one row per student,
// metadata columns followed by one column per recorded class date.
type Dataset struct {
	columns []string
	rows    [][]string
	index   map[string]int
}

// New builds a Dataset. Every row must have exactly len(columns) cells and
// column names must be unique.
func New(columns []string, rows [][]string) (*Dataset, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}

	copied := make([][]string, len(rows))
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", i, len(r), len(columns))
		}
		copied[i] = append([]string(nil), r...)
	}

	return &Dataset{
		columns: append([]string(nil), columns...),
		rows:    copied,
		index:   index,
	}, nil
}

// MustNew is New for fixtures; it panics on invalid input.
func MustNew(columns []string, rows [][]string) *Dataset {
	ds, err := New(columns, rows)
	if err != nil {
		panic(err)
	}
	return ds
}

// Columns returns a copy of the column names in table order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// DateColumns returns the date-indexed columns in chronological order.
func (d *Dataset) DateColumns() []string {
	var dates []string
	for _, c := range d.columns {
		if IsDateColumn(c) {
			dates = append(dates, c)
		}
	}
	// Zero-padded ISO dates sort lexicographically in chronological order.
	sort.Strings(dates)
	return dates
}

// MetaColumns returns the non-date columns in table order.
func (d *Dataset) MetaColumns() []string {
	var meta []string
	for _, c := range d.columns {
		if !IsDateColumn(c) {
			meta = append(meta, c)
		}
	}
	return meta
}

// LatestDate returns the most recent date column.
func (d *Dataset) LatestDate() (string, bool) {
	dates := d.DateColumns()
	if len(dates) == 0 {
		return "", false
	}
	return dates[len(dates)-1], true
}

// HasColumn reports whether the dataset has a column with the given name.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// HasDate reports whether iso names one of the dataset's date columns.
func (d *Dataset) HasDate(iso string) bool {
	return IsDateColumn(iso) && d.HasColumn(iso)
}

// Len returns the number of rows (students).
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Cell returns the value at row i for the named column.
func (d *Dataset) Cell(i int, column string) (string, bool) {
	j, ok := d.index[column]
	if !ok || i < 0 || i >= len(d.rows) {
		return "", false
	}
	return d.rows[i][j], true
}

// Row returns row i keyed by column name.
func (d *Dataset) Row(i int) map[string]string {
	out := make(map[string]string, len(d.columns))
	for j, c := range d.columns {
		out[c] = d.rows[i][j]
	}
	return out
}

// Rows returns a deep copy of the raw cells.
func (d *Dataset) Rows() [][]string {
	out := make([][]string, len(d.rows))
	for i, r := range d.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Records returns every row keyed by column name.
func (d *Dataset) Records() []map[string]string {
	out := make([]map[string]string, len(d.rows))
	for i := range d.rows {
		out[i] = d.Row(i)
	}
	return out
}

// Head returns a new dataset holding at most the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if n > len(d.rows) {
		n = len(d.rows)
	}
	if n < 0 {
		n = 0
	}
	return MustNew(d.columns, d.rows[:n])
}

// Clone returns a deep copy that shares no memory with d.
func (d *Dataset) Clone() *Dataset {
	return MustNew(d.columns, d.rows)
}

// Fingerprint identifies the dataset's shape: columns and row count.
func (d *Dataset) Fingerprint() string {
	h := sha256.New()
	for _, c := range d.columns {
		h.Write([]byte(c))
		h.Write([]byte{0})
	}
	fmt.Fprintf(h, "rows=%d", len(d.rows))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
