package query

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendq/internal/dataset"
)

func testDataset() *dataset.Dataset {
	return dataset.MustNew(
		[]string{"roll", "name", "2024-01-01", "2024-01-02"},
		[][]string{
			{"1", "Alice", "P", ""},
			{"2", "Bob", "P", "P"},
			{"3", "Cara", "A", "P"},
		},
	)
}

func TestExprEngine(t *testing.T) {
	x := NewExecutor(NewExprEngine(), nil)
	ds := testDataset()

	testCases := []struct {
		name       string
		expression string
		expected   any
	}{
		{"cell lookup", `find(df.rows, .name == "Alice")["2024-01-01"]`, "P"},
		{"count present", `count(df.rows, present(#["2024-01-01"]))`, 2},
		{"number of days", `len(df.dates)`, 2},
		{"present on", `presentOn("2024-01-02")`, []string{"Bob", "Cara"}},
		{"absent on", `absentOn("2024-01-02")`, []string{"Alice"}},
		{"rate", `rate("alice")`, 50.0},
		{"rate by roll", `rate("2")`, 100.0},
		{"student by name", `student("Cara").roll`, "3"},
		{"attendance", `attendance("Alice")["2024-01-02"]`, ""},
		{"boolean", `present(student("Bob")["2024-01-02"])`, true},
		{"latest date", `last(df.dates)`, "2024-01-02"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := x.Execute(context.Background(), tc.expression, ds, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestExprEngine_RowsBecomeTable(t *testing.T) {
	x := NewExecutor(NewExprEngine(), nil)

	got, err := x.Execute(context.Background(), `filter(df.rows, #["2024-01-02"] == "P")`, testDataset(), nil)
	require.NoError(t, err)

	table, ok := got.(Table)
	require.True(t, ok, "expected Table, got %T", got)
	assert.Equal(t, []string{"roll", "name", "2024-01-01", "2024-01-02"}, table.Columns)
	assert.Equal(t, [][]string{
		{"2", "Bob", "P", "P"},
		{"3", "Cara", "A", "P"},
	}, table.Rows)
}

func TestExprEngine_FloatCells(t *testing.T) {
	x := NewExecutor(NewExprEngine(), nil)

	got, err := x.Execute(context.Background(),
		`map(filter(df.rows, #.name != "Cara"), {"name": #.name, "rate": #.name == "Alice" ? 12345.5 : 2.0})`,
		testDataset(), nil)
	require.NoError(t, err)

	assert.Equal(t, Table{
		Columns: []string{"name", "rate"},
		Rows:    [][]string{{"Alice", "12345.5"}, {"Bob", "2"}},
	}, got)
}

func TestFormatFloat(t *testing.T) {
	testCases := map[float64]string{
		12345.5:  "12345.5",
		2:        "2",
		66.666:   "66.67",
		-3.10:    "-3.1",
		123456.0: "123456",
	}
	for in, want := range testCases {
		assert.Equal(t, want, FormatFloat(in), "FormatFloat(%v)", in)
	}
}

func TestExprEngine_Faults(t *testing.T) {
	x := NewExecutor(NewExprEngine(), nil)

	testCases := []struct {
		name       string
		expression string
	}{
		{"syntax error", `df.rows[`},
		{"unknown identifier", `os.Getenv("HOME")`},
		{"unknown student", `rate("Zed")`},
		{"type mismatch", `df.rows + 1`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := x.Execute(context.Background(), tc.expression, testDataset(), nil)
			var execErr *ExecutionError
			require.True(t, errors.As(err, &execErr), "expected ExecutionError, got %v", err)
			assert.Contains(t, err.Error(), "ERROR executing code")
		})
	}
}

func TestExecutor_EmptyExpression(t *testing.T) {
	x := NewExecutor(NewExprEngine(), nil)

	_, err := x.Execute(context.Background(), "  ", testDataset(), nil)
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "no expression generated", execErr.Message)

	prior := errors.New("LLM Error: overloaded")
	_, err = x.Execute(context.Background(), "", testDataset(), prior)
	assert.Same(t, prior, err)
}

type panicEngine struct{}

func (panicEngine) Name() string { return "panic" }

func (panicEngine) Eval(ctx context.Context, expression string, ds *dataset.Dataset) (any, error) {
	panic("boom")
}

func TestExecutor_RecoversPanics(t *testing.T) {
	x := NewExecutor(panicEngine{}, nil)

	_, err := x.Execute(context.Background(), "anything", testDataset(), nil)
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Contains(t, execErr.Message, "boom")
}

type headEngine struct{}

func (headEngine) Name() string { return "head" }

func (headEngine) Eval(ctx context.Context, expression string, ds *dataset.Dataset) (any, error) {
	return ds.Head(1).Len(), nil
}

func TestExecutor_DoesNotMutateDataset(t *testing.T) {
	ds := testDataset()
	before := ds.Rows()

	for _, engine := range []Engine{NewExprEngine(), headEngine{}} {
		x := NewExecutor(engine, nil)
		_, err := x.Execute(context.Background(), `len(df.rows)`, ds, nil)
		require.NoError(t, err)
	}

	if diff := cmp.Diff(before, ds.Rows()); diff != "" {
		t.Errorf("dataset changed (-before +after):\n%s", diff)
	}
}

func TestValidateSelect(t *testing.T) {
	testCases := []struct {
		statement string
		valid     bool
	}{
		{"SELECT * FROM df", true},
		{"  select count(*) from df;  ", true},
		{"WITH p AS (SELECT * FROM df) SELECT count(*) FROM p", true},
		{"", false},
		{"DROP TABLE df", false},
		{"SELECT 1; DELETE FROM df", false},
		{"COPY df TO 'out.csv'", false},
	}

	for _, tc := range testCases {
		t.Run(tc.statement, func(t *testing.T) {
			_, err := ValidateSelect(tc.statement)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSQLEngine(t *testing.T) {
	x := NewExecutor(NewSQLEngine(), nil)
	ds := testDataset()

	got, err := x.Execute(context.Background(), `SELECT "2024-01-01" FROM df WHERE name = 'Alice'`, ds, nil)
	require.NoError(t, err)
	assert.Equal(t, "P", got)

	got, err = x.Execute(context.Background(), `SELECT count(*) FROM df WHERE "2024-01-02" = 'P'`, ds, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	got, err = x.Execute(context.Background(), `SELECT name FROM df WHERE "2024-01-02" = '' ORDER BY name`, ds, nil)
	require.NoError(t, err)
	// A single row with a single column collapses to a scalar.
	assert.Equal(t, "Alice", got)

	got, err = x.Execute(context.Background(), `SELECT roll, name FROM df ORDER BY roll`, ds, nil)
	require.NoError(t, err)
	assert.Equal(t, Table{
		Columns: []string{"roll", "name"},
		Rows:    [][]string{{"1", "Alice"}, {"2", "Bob"}, {"3", "Cara"}},
	}, got)
}

func TestSQLEngine_Rejects(t *testing.T) {
	x := NewExecutor(NewSQLEngine(), nil)

	_, err := x.Execute(context.Background(), `DELETE FROM df`, testDataset(), nil)
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Contains(t, execErr.Message, "only SELECT")

	_, err = x.Execute(context.Background(), `SELECT * FROM read_csv('/etc/passwd')`, testDataset(), nil)
	assert.Error(t, err)
}
