package main

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

// TestNewDB tests database initialization from the attendance log
func TestNewDB(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	if db == nil {
		t.Fatal("Expected database to be initialized")
	}

	if db.conn == nil {
		t.Fatal("Expected database connection to be established")
	}

	if db.rollCol != "roll_number" || db.nameCol != "name" {
		t.Errorf("Expected roll_number/name columns, got %s/%s", db.rollCol, db.nameCol)
	}
}

func TestNewDB_NoData(t *testing.T) {
	if _, err := NewDB(t.TempDir()); err == nil {
		t.Fatal("Expected an error when no attendance file is present")
	}
}

// TestDataset tests the pivot from log rows to the wide table
func TestDataset(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	ds, err := db.Dataset()
	if err != nil {
		t.Fatalf("Dataset failed: %v", err)
	}

	wantDates := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	if got := ds.DateColumns(); !reflect.DeepEqual(got, wantDates) {
		t.Errorf("Expected dates %v, got %v", wantDates, got)
	}

	if ds.Len() != 4 {
		t.Fatalf("Expected 4 students (non-numeric roll dropped), got %d", ds.Len())
	}

	testCases := []struct {
		row  int
		roll string
		name string
		want []string
	}{
		{0, "1", "Alice", []string{"P", "A", "P"}},
		{1, "2", "Bob", []string{"P", "P", "P"}},
		{2, "3", "Cara", []string{"A", "P", "A"}},
		{3, "10", "Dev", []string{"A", "A", "P"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			roll, _ := ds.Cell(tc.row, "roll_number")
			name, _ := ds.Cell(tc.row, "name")
			if roll != tc.roll || name != tc.name {
				t.Errorf("Expected %s/%s at row %d, got %s/%s", tc.roll, tc.name, tc.row, roll, name)
			}
			for i, date := range wantDates {
				got, _ := ds.Cell(tc.row, date)
				if got != tc.want[i] {
					t.Errorf("Expected %s on %s, got %q", tc.want[i], date, got)
				}
			}
		})
	}
}

// TestDataset_Wide tests loading an already pivoted file
func TestDataset_Wide(t *testing.T) {
	db, cleanup := SetupTestDB(t, wideFileName)
	defer cleanup()

	ds, err := db.Dataset()
	if err != nil {
		t.Fatalf("Dataset failed: %v", err)
	}

	if ds.Len() != 3 {
		t.Errorf("Expected 3 students, got %d", ds.Len())
	}
	if latest, ok := ds.LatestDate(); !ok || latest != "2024-02-02" {
		t.Errorf("Expected latest date 2024-02-02, got %q", latest)
	}
}

// TestSearchStudents tests student search functionality
func TestSearchStudents(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	testCases := []struct {
		name          string
		query         string
		expectedCount int
		expectedName  string
	}{
		{
			name:          "Search by name",
			query:         "alice",
			expectedCount: 1,
			expectedName:  "Alice",
		},
		{
			name:          "Search by partial name",
			query:         "ar",
			expectedCount: 1,
			expectedName:  "Cara",
		},
		{
			name:          "Search by roll number",
			query:         "10",
			expectedCount: 1,
			expectedName:  "Dev",
		},
		{
			name:          "Empty query lists everyone",
			query:         "",
			expectedCount: 4,
			expectedName:  "Alice",
		},
		{
			name:          "No results",
			query:         "Nobody",
			expectedCount: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			students, err := db.SearchStudents(tc.query, maxResults)
			if err != nil {
				t.Fatalf("SearchStudents failed: %v", err)
			}

			if len(students) != tc.expectedCount {
				t.Errorf("Expected %d results, got %d", tc.expectedCount, len(students))
			}

			if tc.expectedName != "" && len(students) > 0 && students[0].Name != tc.expectedName {
				t.Errorf("Expected first result %s, got %s", tc.expectedName, students[0].Name)
			}
		})
	}
}

// TestGetStudent tests the per-student record
func TestGetStudent(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	s, err := db.GetStudent("1")
	if err != nil {
		t.Fatalf("GetStudent failed: %v", err)
	}

	if s.Name != "Alice" {
		t.Errorf("Expected Alice, got %s", s.Name)
	}
	if s.Present != 2 || s.ClassDays != 3 {
		t.Errorf("Expected 2/3 days present, got %d/%d", s.Present, s.ClassDays)
	}
	if s.Rate != 66.67 {
		t.Errorf("Expected rate 66.67, got %v", s.Rate)
	}
	if s.Attendance["2024-01-02"] != "A" {
		t.Errorf("Expected absent on 2024-01-02, got %q", s.Attendance["2024-01-02"])
	}

	if _, err := db.GetStudent("99"); err == nil {
		t.Error("Expected an error for an unknown roll number")
	}
}

// TestDailySummary tests per-date counts
func TestDailySummary(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	days, err := db.DailySummary()
	if err != nil {
		t.Fatalf("DailySummary failed: %v", err)
	}

	want := []DaySummary{
		{Date: "2024-01-01", Present: 2, Absent: 2},
		{Date: "2024-01-02", Present: 2, Absent: 2},
		{Date: "2024-01-03", Present: 3, Absent: 1},
	}
	if !reflect.DeepEqual(days, want) {
		t.Errorf("Expected %+v, got %+v", want, days)
	}
}

var classLogFile = filepath.Join("classes", logFileName)

// TestClasses tests that the register is partitioned by class
func TestClasses(t *testing.T) {
	db, cleanup := SetupTestDB(t, classLogFile)
	defer cleanup()

	classes, err := db.Classes()
	if err != nil {
		t.Fatalf("Classes failed: %v", err)
	}
	if want := []string{"7A", "7B"}; !reflect.DeepEqual(classes, want) {
		t.Errorf("Expected classes %v, got %v", want, classes)
	}

	ds, err := db.Dataset()
	if err != nil {
		t.Fatalf("Dataset failed: %v", err)
	}
	if ds.Len() != 4 {
		t.Fatalf("Expected 4 students, got %d", ds.Len())
	}

	// Cells stay empty on days the student's class did not meet.
	testCases := []struct {
		row  int
		want []string
	}{
		{0, []string{"P", "", "A", ""}},
		{1, []string{"P", "", "P", ""}},
		{2, []string{"", "P", "", "P"}},
		{3, []string{"", "A", "", "P"}},
	}
	for _, tc := range testCases {
		for i, date := range ds.DateColumns() {
			if got, _ := ds.Cell(tc.row, date); got != tc.want[i] {
				t.Errorf("Expected %q for row %d on %s, got %q", tc.want[i], tc.row, date, got)
			}
		}
	}

	cara, err := db.GetStudent("3")
	if err != nil {
		t.Fatalf("GetStudent failed: %v", err)
	}
	if cara.Class != "7B" || cara.ClassDays != 2 || cara.Rate != 100 {
		t.Errorf("Expected 7B with 2 of 2 days, got %+v", cara)
	}

	days, err := db.DailySummary()
	if err != nil {
		t.Fatalf("DailySummary failed: %v", err)
	}
	want := []DaySummary{
		{Date: "2024-01-01", Present: 2, Absent: 0},
		{Date: "2024-01-02", Present: 1, Absent: 1},
		{Date: "2024-01-03", Present: 1, Absent: 1},
		{Date: "2024-01-04", Present: 2, Absent: 0},
	}
	if !reflect.DeepEqual(days, want) {
		t.Errorf("Expected %+v, got %+v", want, days)
	}
}

// TestSelectClass tests narrowing the roster to one class
func TestSelectClass(t *testing.T) {
	db, cleanup := SetupTestDB(t, classLogFile)
	defer cleanup()

	if err := db.SelectClass("7A"); err != nil {
		t.Fatalf("SelectClass failed: %v", err)
	}
	if db.Class() != "7A" {
		t.Errorf("Expected class 7A, got %q", db.Class())
	}

	ds, err := db.Dataset()
	if err != nil {
		t.Fatalf("Dataset failed: %v", err)
	}
	wantColumns := []string{"roll_number", "name", "2024-01-01", "2024-01-03"}
	if got := ds.Columns(); !reflect.DeepEqual(got, wantColumns) {
		t.Errorf("Expected columns %v, got %v", wantColumns, got)
	}
	if ds.Len() != 2 {
		t.Errorf("Expected 2 students in 7A, got %d", ds.Len())
	}

	days, err := db.DailySummary()
	if err != nil {
		t.Fatalf("DailySummary failed: %v", err)
	}
	want := []DaySummary{
		{Date: "2024-01-01", Present: 2, Absent: 0},
		{Date: "2024-01-03", Present: 1, Absent: 1},
	}
	if !reflect.DeepEqual(days, want) {
		t.Errorf("Expected %+v, got %+v", want, days)
	}

	alice, err := db.GetStudent("1")
	if err != nil {
		t.Fatalf("GetStudent failed: %v", err)
	}
	if alice.Class != "7A" || alice.ClassDays != 2 || alice.Present != 1 || alice.Rate != 50 {
		t.Errorf("Unexpected record %+v", alice)
	}
	if _, err := db.GetStudent("3"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("Expected a 7B student to be out of scope, got %v", err)
	}

	students, err := db.SearchStudents("", 10)
	if err != nil {
		t.Fatalf("SearchStudents failed: %v", err)
	}
	if len(students) != 2 {
		t.Errorf("Expected 2 students, got %d", len(students))
	}

	if err := db.SelectClass(""); err != nil {
		t.Fatalf("SelectClass failed: %v", err)
	}
	if ds, _ := db.Dataset(); ds == nil || ds.Len() != 4 {
		t.Error("Expected every student after clearing the class")
	}
}

// TestSelectClass_Unknown tests selecting a class that does not exist
func TestSelectClass_Unknown(t *testing.T) {
	db, cleanup := SetupTestDB(t, classLogFile)
	defer cleanup()

	if err := db.SelectClass("9Z"); !errors.Is(err, ErrClassNotFound) {
		t.Errorf("Expected ErrClassNotFound, got %v", err)
	}
	if db.Class() != "" {
		t.Errorf("Expected the selection to be unchanged, got %q", db.Class())
	}

	plain, cleanupPlain := SetupTestDB(t)
	defer cleanupPlain()

	if classes, err := plain.Classes(); err != nil || len(classes) != 0 {
		t.Errorf("Expected no classes, got %v (%v)", classes, err)
	}
	if err := plain.SelectClass("7A"); !errors.Is(err, ErrClassNotFound) {
		t.Errorf("Expected ErrClassNotFound without a class column, got %v", err)
	}
}

// TestExecuteQuery tests raw SQL access
func TestExecuteQuery(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	rows, err := db.ExecuteQuery(`SELECT name FROM attendance WHERE "2024-01-03" = 'P' ORDER BY name`)
	if err != nil {
		t.Fatalf("ExecuteQuery failed: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0]["name"] != "Alice" {
		t.Errorf("Expected Alice first, got %v", rows[0]["name"])
	}

	if _, err := db.ExecuteQuery("SELECT * FROM missing_table"); err == nil {
		t.Error("Expected an error for a missing table")
	}
}

// TestNewDB_Reopen tests that an existing database file is reused
func TestNewDB_Reopen(t *testing.T) {
	db, cleanup := SetupTestDB(t)
	defer cleanup()

	dir := db.dataDir
	db.Close()

	reopened, err := NewDB(dir)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	ds, err := reopened.Dataset()
	if err != nil {
		t.Fatalf("Dataset failed: %v", err)
	}
	if ds.Len() != 4 {
		t.Errorf("Expected 4 students after reopen, got %d", ds.Len())
	}
}
