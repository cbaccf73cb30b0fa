package dataset

// Summary describes a dataset's shape for prompts, the schema command and the API.
type Summary struct {
	MetaColumns []string `json:"meta_columns"`
	DateColumns []string `json:"date_columns"`
	Students    int      `json:"students"`
	ClassDays   int      `json:"class_days"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
}

// Summarize computes the dataset summary. Missing dates are reported as "N/A".
func Summarize(d *Dataset) Summary {
	dates := d.DateColumns()
	s := Summary{
		MetaColumns: d.MetaColumns(),
		DateColumns: dates,
		Students:    d.Len(),
		ClassDays:   len(dates),
		StartDate:   "N/A",
		EndDate:     "N/A",
	}
	if len(dates) > 0 {
		s.StartDate = dates[0]
		s.EndDate = dates[len(dates)-1]
	}
	return s
}

// PresentCount returns how many of row i's date cells are marked present.
func (d *Dataset) PresentCount(i int) int {
	n := 0
	for _, date := range d.DateColumns() {
		if v, _ := d.Cell(i, date); IsPresent(v) {
			n++
		}
	}
	return n
}
