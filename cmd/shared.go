package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"attendq/internal/config"
	"attendq/internal/dataset"
	"attendq/internal/pipeline"
)

// StudentData represents a student record (matches main.Student)
type StudentData struct {
	Roll       string            `json:"roll_number"`
	Name       string            `json:"name"`
	Class      string            `json:"class,omitempty"`
	Present    int               `json:"present"`
	ClassDays  int               `json:"class_days"`
	Rate       float64           `json:"rate"`
	Attendance map[string]string `json:"attendance,omitempty"`
}

// DaySummaryData represents attendance counts for one date (matches main.DaySummary)
type DaySummaryData struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
}

// AppInterface wraps the attendance store and question pipeline for CLI commands
type AppInterface interface {
	Ask(ctx context.Context, question string) pipeline.State
	Eval(ctx context.Context, expression string) (any, error)
	Schema() dataset.Summary
	Classes() ([]string, error)
	SearchStudents(query string, limit int) ([]StudentData, error)
	GetStudent(roll string) (*StudentData, error)
	DailySummary() ([]DaySummaryData, error)
	ExecuteQuery(query string) ([]map[string]interface{}, error)
	Close() error
}

// These variables will be set by main package
var (
	LaunchTUI   func(cfg config.Config)
	InitApp     func(cfg config.Config) (AppInterface, func(), error)
	StartServer func(app AppInterface, cfg config.Config) error
)

// HandleError prints error and exits
func HandleError(err error, message string) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, err)
	os.Exit(1)
}

// printJSON writes v as indented JSON to stdout
func printJSON(v any) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		HandleError(err, "Failed to encode JSON")
	}
	fmt.Println(string(output))
}

// mustInitApp initializes the app or exits
func mustInitApp() (AppInterface, func()) {
	app, cleanup, err := InitApp(cfg)
	if err != nil {
		HandleError(err, "Failed to initialize")
	}
	return app, cleanup
}
