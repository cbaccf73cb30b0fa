package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"attendq/internal/datenorm"
	"attendq/internal/llm"
	"attendq/internal/pipeline"
	"attendq/internal/query"
	"attendq/internal/synth"
)

// testToday is the day after the last date in testdata/attendance_log.csv.
var testToday = time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC)

// SetupTestDB creates a test database from the given testdata files
// (attendance_log.csv when none are named). Files in testdata subdirectories
// are copied under their base name.
func SetupTestDB(t *testing.T, files ...string) (*DB, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "attendq-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	if len(files) == 0 {
		files = []string{logFileName}
	}
	for _, file := range files {
		src := filepath.Join("testdata", file)
		dst := filepath.Join(tmpDir, filepath.Base(file))

		data, err := os.ReadFile(src)
		if err != nil {
			t.Fatalf("failed to read %s: %v", src, err)
		}

		if err := os.WriteFile(dst, data, 0644); err != nil {
			t.Fatalf("failed to write %s: %v", dst, err)
		}
	}

	db, err := NewDB(tmpDir)
	if err != nil {
		t.Fatalf("failed to initialize test database: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db, cleanup
}

// StubCompleter always replies with expression.
func StubCompleter(expression string) llm.Completer {
	return llm.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return expression, nil
	})
}

// SetupTestApp builds an App over the test database (loaded from files, see
// SetupTestDB) whose language model always replies with expression. An empty
// expression means no model.
func SetupTestApp(t *testing.T, expression string, files ...string) (*App, func()) {
	t.Helper()

	db, cleanup := SetupTestDB(t, files...)

	ds, err := db.Dataset()
	if err != nil {
		cleanup()
		t.Fatalf("failed to load dataset: %v", err)
	}

	var c llm.Completer
	var llmErr error = llm.ErrUnavailable
	if expression != "" {
		c = StubCompleter(expression)
		llmErr = nil
	}

	clock := clockwork.NewFakeClockAt(testToday)
	registry := prometheus.NewRegistry()
	executor := query.NewExecutor(query.NewExprEngine(), nil)
	p, err := pipeline.New(pipeline.Config{
		Normalizer:  datenorm.New(datenorm.WithClock(clock)),
		Synthesizer: synth.New(c),
		Executor:    executor,
		Clock:       clock,
		GuardPanics: true,
		Metrics:     pipeline.NewMetrics(registry),
	})
	if err != nil {
		cleanup()
		t.Fatalf("failed to build pipeline: %v", err)
	}

	app := &App{
		db:       db,
		dataset:  ds,
		pipeline: p,
		executor: executor,
		registry: registry,
		llmErr:   llmErr,
	}
	return app, func() {
		p.Close()
		cleanup()
	}
}
