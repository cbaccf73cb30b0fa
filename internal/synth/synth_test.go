package synth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendq/internal/dataset"
	"attendq/internal/llm"
)

func testDataset() *dataset.Dataset {
	return dataset.MustNew(
		[]string{"roll", "name", "2024-01-01", "2024-01-02"},
		[][]string{
			{"1", "Alice", "P", ""},
			{"2", "Bob", "P", "P"},
			{"3", "Cara", "A", "P"},
			{"4", "Dev", "P", "A"},
		},
	)
}

// recorder captures the prompt and replies with a canned answer.
type recorder struct {
	prompt string
	reply  string
	err    error
	calls  int
}

func (r *recorder) Complete(ctx context.Context, prompt string) (string, error) {
	r.calls++
	r.prompt = prompt
	return r.reply, r.err
}

func TestSynthesize_NilCompleter(t *testing.T) {
	s := New(nil)

	_, err := s.Synthesize(context.Background(), "Was Alice present on 2024-01-01?", testDataset())

	var unavailable *LLMUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "LLM not initialized.", err.Error())
}

func TestSynthesize_ServiceFailure(t *testing.T) {
	rec := &recorder{err: errors.New("529 overloaded")}
	s := New(rec)

	_, err := s.Synthesize(context.Background(), "q", testDataset())

	var synthErr *SynthesisError
	require.True(t, errors.As(err, &synthErr))
	assert.Equal(t, "LLM Error: 529 overloaded", err.Error())
	assert.Equal(t, 1, rec.calls)
}

func TestSynthesize_UnavailableFromClient(t *testing.T) {
	rec := &recorder{err: llm.ErrUnavailable}
	s := New(rec)

	_, err := s.Synthesize(context.Background(), "q", testDataset())

	var unavailable *LLMUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.True(t, errors.Is(err, llm.ErrUnavailable))
}

func TestSynthesize_TrimsReply(t *testing.T) {
	testCases := []struct {
		name     string
		reply    string
		expected string
	}{
		{"plain", "  presentOn(\"2024-01-01\")\n", `presentOn("2024-01-01")`},
		{"fenced with tag", "```expr\nlen(df.dates)\n```", "len(df.dates)"},
		{"fenced without tag", "```\nlen(df.rows)\n```", "len(df.rows)"},
		{"inline backticks", "`rate(\"Bob\")`", `rate("Bob")`},
		{"sql fence", "```sql\nSELECT count(*) FROM df\n```", "SELECT count(*) FROM df"},
		{"empty", "   ", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(&recorder{reply: tc.reply})
			got, err := s.Synthesize(context.Background(), "q", testDataset())
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestBuildPrompt_SummaryStyle(t *testing.T) {
	rec := &recorder{reply: "len(df.rows)"}
	s := New(rec, WithExamples("Q: example\nA: len(df.rows)"))

	_, err := s.Synthesize(context.Background(), "How many students were present on 2024-01-02?", testDataset())
	require.NoError(t, err)

	p := rec.prompt
	assert.Contains(t, p, "Metadata Columns**: roll, name")
	assert.Contains(t, p, "class dates from 2024-01-01 to 2024-01-02")
	assert.Contains(t, p, "Total Students**: 4")
	assert.Contains(t, p, "First 3 rows")
	assert.Contains(t, p, "Cara")
	assert.NotContains(t, p, "Dev", "only three sample rows are shown")
	assert.Contains(t, p, "Q: example")
	assert.Contains(t, p, "### Question: How many students were present on 2024-01-02?")
	assert.Contains(t, p, "Return ONLY the expression")
}

func TestBuildPrompt_BasicStyle(t *testing.T) {
	s := New(nil, WithStyle(StyleBasic))
	p := s.BuildPrompt("Who came?", testDataset())

	assert.Contains(t, p, "Table schema:")
	assert.Contains(t, p, "attendance code")
	assert.Contains(t, p, "Bob")
	assert.NotContains(t, p, "Cara", "only two sample rows are shown")
	assert.NotContains(t, p, "### Statistics")
}

func TestBuildPrompt_SampleRows(t *testing.T) {
	testCases := []struct {
		name     string
		rows     int
		contains string
		absent   string
	}{
		{"one row", 1, "First 1 rows", "Bob"},
		{"all rows", 10, "First 10 rows", ""},
		{"zero keeps the style default", 0, "First 3 rows", "Dev"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(nil, WithSampleRows(tc.rows)).BuildPrompt("Who came?", testDataset())

			assert.Contains(t, p, tc.contains)
			assert.Contains(t, p, "Alice")
			if tc.absent != "" {
				assert.NotContains(t, p, tc.absent)
			} else {
				assert.Contains(t, p, "Dev")
			}
		})
	}
}

func TestBuildPrompt_SQLDialect(t *testing.T) {
	s := New(nil, WithDialect(DialectSQL))
	p := s.BuildPrompt("Who came?", testDataset())

	assert.Contains(t, p, "SQL SELECT statement")
	assert.Contains(t, p, `SELECT count(*) FROM df WHERE "2024-01-15" = 'P'`)
	assert.Equal(t, DialectSQL, s.Dialect())
}

func TestDefaultExamples(t *testing.T) {
	assert.Contains(t, DefaultExamples(DialectExpr), "presentOn(")
	assert.Contains(t, DefaultExamples(DialectSQL), "SELECT")
	assert.Empty(t, DefaultExamples(Dialect("cobol")))
}

func TestLoadExamples(t *testing.T) {
	dir := t.TempDir()

	got, err := LoadExamples(filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)
	assert.Empty(t, got)

	path := filepath.Join(dir, "few_shot.txt")
	require.NoError(t, os.WriteFile(path, []byte("\nQ: a\nA: b\n\n"), 0644))
	got, err = LoadExamples(path)
	require.NoError(t, err)
	assert.Equal(t, "Q: a\nA: b", got)

	got, err = LoadExamples("")
	require.NoError(t, err)
	assert.Empty(t, got)
}
