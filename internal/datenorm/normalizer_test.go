package datenorm

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendq/internal/dataset"
)

// 2024-01-02 is a Tuesday.
var fixedNow = time.Date(2024, 1, 2, 15, 30, 0, 0, time.UTC)

func testDataset() *dataset.Dataset {
	return dataset.MustNew(
		[]string{"roll", "name", "2023-12-29", "2024-01-01", "2024-01-02"},
		[][]string{
			{"1", "Alice", "P", "P", ""},
			{"2", "Bob", "", "P", "P"},
		},
	)
}

func newTestNormalizer() *Normalizer {
	return New(WithClock(clockwork.NewFakeClockAt(fixedNow)))
}

func TestFindPhrases(t *testing.T) {
	testCases := []struct {
		question string
		expected []string
	}{
		{"Was Alice present today?", []string{"today"}},
		{"Compare YESTERDAY with 2024-01-01", []string{"YESTERDAY", "2024-01-01"}},
		{"Who came 3 days ago or 1 day before?", []string{"3 days ago", "1 day before"}},
		{"Was Bob here on Monday?", []string{"on Monday"}},
		{"How about next week", []string{"next week"}},
		{"How many students are there?", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.question, func(t *testing.T) {
			assert.Equal(t, tc.expected, FindPhrases(tc.question))
		})
	}
}

func TestNormalize_Success(t *testing.T) {
	n := newTestNormalizer()
	ds := testDataset()

	testCases := []struct {
		name     string
		question string
		expected string
	}{
		{"today", "Was Alice present today?", "Was Alice present 2024-01-02?"},
		{"yesterday", "Who was absent yesterday?", "Who was absent 2024-01-01?"},
		{"days ago", "Was Bob present 4 days ago?", "Was Bob present 2023-12-29?"},
		{"on weekday", "Was Bob present on Monday?", "Was Bob present 2024-01-01?"},
		{"on weekday is today", "Was Bob present on tuesday?", "Was Bob present 2024-01-02?"},
		{"on yesterday", "Was Alice present on yesterday?", "Was Alice present 2024-01-01?"},
		{"on today", "Was Alice present on today?", "Was Alice present 2024-01-02?"},
		{"multiple phrases", "Compare today and yesterday", "Compare 2024-01-02 and 2024-01-01"},
		{"no phrases", "How many students are there?", "How many students are there?"},
		{"unresolvable phrase left alone", "Who is on holiday?", "Who is on holiday?"},
		{"next to is not a date", "Who sits next to Alice?", "Who sits next to Alice?"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := n.Normalize(tc.question, ds)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestNormalize_IdempotentOnISODates(t *testing.T) {
	n := newTestNormalizer()
	ds := testDataset()

	question := "Was Alice present on 2024-01-01 and 2023-12-29?"
	got, err := n.Normalize(question, ds)
	require.NoError(t, err)
	assert.Equal(t, question, got)

	again, err := n.Normalize(got, ds)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestNormalize_FirstOccurrenceOnly(t *testing.T) {
	n := newTestNormalizer()

	got, err := n.Normalize("today vs today", testDataset())
	require.NoError(t, err)
	// Each match is substituted once, left to right.
	assert.Equal(t, "2024-01-02 vs 2024-01-02", got)
}

func TestNormalize_FutureDate(t *testing.T) {
	n := newTestNormalizer()
	ds := testDataset()

	testCases := []struct {
		question string
		date     string
	}{
		{"Was Alice present tomorrow?", "2024-01-03"},
		{"Was Alice present on tomorrow?", "2024-01-03"},
		{"Will Bob come 2 days after?", "2024-01-04"},
		{"Who is coming next week?", "2024-01-09"},
		{"Anything next friday?", "2024-01-05"},
		{"Check 2030-05-01 please", "2030-05-01"},
	}

	for _, tc := range testCases {
		t.Run(tc.question, func(t *testing.T) {
			_, err := n.Normalize(tc.question, ds)
			var future *FutureDateError
			require.True(t, errors.As(err, &future), "expected FutureDateError, got %v", err)
			assert.Equal(t, tc.date, future.Date)
			assert.Contains(t, err.Error(), tc.date)
		})
	}
}

func TestNormalize_UnknownDate(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.Normalize("Was Alice present 2 days ago?", testDataset())

	var unknown *UnknownDateError
	require.True(t, errors.As(err, &unknown), "expected UnknownDateError, got %v", err)
	assert.Equal(t, "2023-12-31", unknown.Date)
	assert.Equal(t, "2024-01-02", unknown.Latest)
	assert.Contains(t, err.Error(), "Latest date is: 2024-01-02")
}

func TestNormalize_UnknownDateWithoutDateColumns(t *testing.T) {
	n := newTestNormalizer()
	ds := dataset.MustNew([]string{"roll", "name"}, [][]string{{"1", "Alice"}})

	_, err := n.Normalize("Was Alice present today?", ds)

	var unknown *UnknownDateError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "N/A", unknown.Latest)
}

func TestNormalize_FirstFailureAbortsAll(t *testing.T) {
	n := newTestNormalizer()

	got, err := n.Normalize("Compare today with tomorrow and 2 days ago", testDataset())

	var future *FutureDateError
	require.True(t, errors.As(err, &future))
	assert.Equal(t, "2024-01-03", future.Date)
	assert.Empty(t, got)
}

func TestNormalize_CustomResolver(t *testing.T) {
	calls := 0
	n := New(
		WithClock(clockwork.NewFakeClockAt(fixedNow)),
		WithResolver(ResolverFunc(func(phrase string, now time.Time) (time.Time, bool) {
			calls++
			return time.Time{}, false
		})),
	)

	got, err := n.Normalize("today and yesterday", testDataset())
	require.NoError(t, err)
	assert.Equal(t, "today and yesterday", got)
	assert.Equal(t, 2, calls)
}

func TestDefaultResolver_InvalidISO(t *testing.T) {
	r := NewDefaultResolver()
	_, ok := r.Resolve("2024-02-30", fixedNow)
	assert.False(t, ok)
}
