package format

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendq/internal/query"
)

func TestAnswer_TotalOverResultKinds(t *testing.T) {
	q := "How many were present on 2024-01-01?"

	testCases := []struct {
		name     string
		value    any
		prefix   string
		contains string
	}{
		{"error string", "ERROR executing code: boom", FailurePrefix, "boom"},
		{"warning string", "⚠️ Date '2023-12-31' not found in records. Latest date is: 2024-01-02", FailurePrefix, "2023-12-31"},
		{"error value", errors.New("broken"), FailurePrefix, "broken"},
		{"integer", 12, ScalarPrefix, "is → 12"},
		{"int64", int64(7), ScalarPrefix, "is → 7"},
		{"whole float", 50.0, ScalarPrefix, "is → 50"},
		{"fractional float", 33.333333, ScalarPrefix, "is → 33.33"},
		{"text", "P", ScalarPrefix, "is → P"},
		{"empty text", "", ScalarPrefix, `is → ""`},
		{"boolean", true, ScalarPrefix, "is → true"},
		{"nil", nil, ScalarPrefix, "(no value)"},
		{"table", query.Table{Columns: []string{"name"}, Rows: [][]string{{"Alice"}}}, StructuredPrefix, "Alice"},
		{"string list", []string{"Bob", "Cara"}, StructuredPrefix, "Cara"},
		{"map", map[string]string{"2024-01-01": "P"}, StructuredPrefix, "2024-01-01"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Answer(q, tc.value)
			assert.NotEmpty(t, got)
			assert.True(t, strings.HasPrefix(got, tc.prefix), "got %q", got)
			assert.Contains(t, got, tc.contains)
		})
	}
}

func TestAnswer_QuotesQuestion(t *testing.T) {
	got := Answer("Was Alice present on 2024-01-01?", "P")
	assert.Equal(t, "📊 Answer to: 'Was Alice present on 2024-01-01?' is → P", got)
}

func TestAnswer_StructuredLayout(t *testing.T) {
	got := Answer("Who came?", query.Table{
		Columns: []string{"roll", "name"},
		Rows:    [][]string{{"1", "Alice"}, {"2", "Bob"}},
	})

	lines := strings.Split(got, "\n")
	require.Greater(t, len(lines), 3)
	assert.Equal(t, "✅ Answer to your question: 'Who came?'", lines[0])
	assert.Empty(t, lines[1])
	assert.Contains(t, got, "roll")
	assert.Contains(t, got, "Bob")
}

func TestFailure(t *testing.T) {
	assert.Equal(t, "❌ Failed to answer: LLM not initialized.", Failure("LLM not initialized."))
	assert.Equal(t, "❌ Failed to answer: unknown error", Failure(""))
}

func TestIsErrorText(t *testing.T) {
	assert.True(t, IsErrorText("ERROR executing code: x"))
	assert.True(t, IsErrorText("⚠️ Attendance can't be checked for a future date: 2024-01-03"))
	assert.False(t, IsErrorText("Alice"))
	assert.False(t, IsErrorText("error in lowercase is data"))
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Equal(t, "(no rows)", RenderTable(query.Table{Columns: []string{"name"}}))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "3", FormatFloat(3))
	assert.Equal(t, "0.5", FormatFloat(0.5))
	assert.Equal(t, "66.67", FormatFloat(66.666))
}
