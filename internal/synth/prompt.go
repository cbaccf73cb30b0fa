package synth

import (
	"fmt"
	"strings"

	"attendq/internal/dataset"
	"attendq/internal/format"
	"attendq/internal/query"
)

func defaultSampleRows(s Style) int {
	if s == StyleBasic {
		return 2
	}
	return 3
}

// BuildPrompt renders the full prompt for question.
func (s *Synthesizer) BuildPrompt(question string, ds *dataset.Dataset) string {
	var b strings.Builder

	b.WriteString(s.role())
	b.WriteString("\n\n")

	if s.style == StyleBasic {
		b.WriteString("Table schema:\n")
		b.WriteString(columnTypes(ds))
		b.WriteString("\n\nSample data:\n")
		b.WriteString(sample(ds, s.sampleRows))
	} else {
		b.WriteString(ContextSummary(ds))
		fmt.Fprintf(&b, "\n### Sample Data (First %d rows)\n", s.sampleRows)
		b.WriteString(sample(ds, s.sampleRows))
	}

	b.WriteString("\n\n### Task\n")
	b.WriteString(s.rules())

	if s.examples != "" {
		b.WriteString("\n\n### Examples\n")
		b.WriteString(s.examples)
	}

	fmt.Fprintf(&b, "\n\n### Question: %s\n", question)
	return b.String()
}

func (s *Synthesizer) role() string {
	if s.dialect == DialectSQL {
		return "You are a DuckDB SQL expert. You are given a table named `df` tracking student attendance.\n" +
			"Each row is a single student with a roll number, a name, and one VARCHAR column per class date (YYYY-MM-DD)."
	}
	return "You are a data query expert. You are given a table named `df` tracking student attendance.\n" +
		"Each row is a single student with a roll number, a name, and one column per class date (YYYY-MM-DD)."
}

func (s *Synthesizer) rules() string {
	if s.dialect == DialectSQL {
		return strings.Join([]string{
			"Write a SINGLE read-only SQL SELECT statement to answer the question.",
			"- Query the table `df`. Date columns must be double-quoted, e.g. \"2024-01-15\".",
			"- Every column is VARCHAR. 'P' means present; '', 'A' or NULL mean absent.",
			"- Do NOT modify df and do not use more than one statement.",
			"- Return ONLY the SQL. No markdown, no explanations.",
		}, "\n")
	}
	return strings.Join([]string{
		"Write a SINGLE expression in the expr language to answer the question.",
		"- `df.rows` is a list of maps, one per student, keyed by column name. Access a cell with `#[\"2024-01-15\"]` or `.name`.",
		"- `df.columns` lists all columns, `df.dates` the date columns in ascending order, `df.meta` the other columns.",
		"- Helpers: present(code) bool, student(nameOrRoll) row, attendance(nameOrRoll) map of date to code,",
		"  presentOn(date) names, absentOn(date) names, rate(nameOrRoll) attendance percentage.",
		"- Builtins such as filter, map, count, find, len, first, last, sum and sort are available.",
		"- Do NOT modify df. No statements, no variables outside the expression.",
		"- Return ONLY the expression. No markdown, no explanations.",
	}, "\n")
}

// ContextSummary describes the table semantically for the model.
func ContextSummary(ds *dataset.Dataset) string {
	sum := dataset.Summarize(ds)

	var b strings.Builder
	b.WriteString("### Dataset Structure (Wide Format)\n")
	b.WriteString("- **Rows**: Each row represents a SINGLE STUDENT.\n")
	fmt.Fprintf(&b, "- **Metadata Columns**: %s (Use these to identify students)\n", strings.Join(sum.MetaColumns, ", "))
	fmt.Fprintf(&b, "- **Data Columns**: %d columns representing class dates from %s to %s.\n",
		sum.ClassDays, sum.StartDate, sum.EndDate)
	b.WriteString("\n### Statistics\n")
	fmt.Fprintf(&b, "- **Total Students**: %d\n", sum.Students)
	fmt.Fprintf(&b, "- **Total Class Days**: %d\n", sum.ClassDays)
	fmt.Fprintf(&b, "- **Latest Date**: %s\n", sum.EndDate)
	b.WriteString("\n### Attendance Codes\n")
	b.WriteString("- 'P' = Present\n")
	b.WriteString("- '' (Empty String) or 'A' or missing = Absent\n")
	return b.String()
}

func columnTypes(ds *dataset.Dataset) string {
	var lines []string
	for _, c := range ds.Columns() {
		kind := "text"
		if dataset.IsDateColumn(c) {
			kind = "attendance code"
		}
		lines = append(lines, fmt.Sprintf("%-12s %s", c, kind))
	}
	return strings.Join(lines, "\n")
}

func sample(ds *dataset.Dataset, n int) string {
	head := ds.Head(n)
	return format.RenderTable(query.Table{Columns: head.Columns(), Rows: head.Rows()})
}
