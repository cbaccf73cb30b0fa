package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"attendq/internal/dataset"
)

const (
	dbFileName   = "attendance.duckdb"
	wideFileName = "attendance_wide.csv"
	logFileName  = "attendance_log.csv"
)

var (
	// ErrStudentNotFound is returned by GetStudent for an unknown roll number.
	ErrStudentNotFound = errors.New("student not found")
	// ErrClassNotFound is returned by SelectClass for a class with no students.
	ErrClassNotFound = errors.New("class not found")
)

// Student is one row of the attendance table with derived totals.
type Student struct {
	Roll       string            `json:"roll_number"`
	Name       string            `json:"name"`
	Class      string            `json:"class,omitempty"`
	Present    int               `json:"present"`
	ClassDays  int               `json:"class_days"`
	Rate       float64           `json:"rate"`
	Attendance map[string]string `json:"attendance,omitempty"`
}

// DaySummary counts attendance for one class date.
type DaySummary struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
}

type DB struct {
	conn     *sql.DB
	dataDir  string
	rollCol  string
	nameCol  string
	classCol string

	mu      sync.RWMutex
	class   string
	columns []string // roster columns while a class is selected
}

func NewDB(dataDir string) (*DB, error) {
	dbPath := filepath.Join(dataDir, dbFileName)

	// Check if database needs to be initialized
	needsInit := false
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		needsInit = true
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to open DuckDB database", "error", err, "db_path", dbPath)
		}
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	d := &DB{
		conn:    db,
		dataDir: dataDir,
	}

	if needsInit {
		if err := d.initializeDatabase(); err != nil {
			db.Close()
			os.Remove(dbPath)
			if logger != nil {
				logger.Error("Database initialization failed", "error", err, "data_dir", dataDir)
			}
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if logger != nil {
			logger.Info("Database initialized successfully", "db_path", dbPath)
		}
	}

	if err := d.resolveColumns(); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

// initializeDatabase loads the attendance table from whichever CSV is present.
// A wide file is used as is; a log file is pivoted to one column per date.
func (d *DB) initializeDatabase() error {
	wideFile := filepath.Join(d.dataDir, wideFileName)
	logFile := filepath.Join(d.dataDir, logFileName)

	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Ignore error - will fail if transaction was committed
	}()

	start := time.Now()
	switch {
	case fileExists(wideFile):
		_, err = tx.Exec(fmt.Sprintf(`
			CREATE TABLE attendance AS
			SELECT * FROM read_csv('%s', all_varchar=true)
		`, sqlString(wideFile)))
		if err != nil {
			return fmt.Errorf("failed to create attendance table: %w", err)
		}

	case fileExists(logFile):
		_, err = tx.Exec(fmt.Sprintf(`
			CREATE TABLE attendance_log AS
			SELECT * FROM read_csv('%s', all_varchar=true)
		`, sqlString(logFile)))
		if err != nil {
			return fmt.Errorf("failed to create attendance_log table: %w", err)
		}

		logColumns, err := tableColumns(tx, "attendance_log")
		if err != nil {
			return err
		}
		// An optional class column partitions the register.
		classCol := findClassColumn(logColumns)
		var classSelect, classGroup string
		if classCol != "" {
			classSelect = ", " + quoteIdent(classCol)
			classGroup = ", " + quoteIdent(classCol)
		}

		// Every log row is a present mark. Rolls that are not numbers are dropped.
		_, err = tx.Exec(fmt.Sprintf(`
			CREATE TEMP VIEW attendance_marks AS
			SELECT
				CAST(TRY_CAST(roll_number AS INTEGER) AS VARCHAR) AS roll_number,
				name,
				CAST(CAST("date" AS DATE) AS VARCHAR) AS "date",
				'P' AS status%s
			FROM attendance_log
			WHERE TRY_CAST(roll_number AS INTEGER) IS NOT NULL
		`, classSelect))
		if err != nil {
			return fmt.Errorf("failed to create attendance_marks view: %w", err)
		}

		_, err = tx.Exec(fmt.Sprintf(`
			CREATE TABLE attendance AS
			PIVOT attendance_marks
			ON "date"
			USING first(status)
			GROUP BY roll_number, name%s
		`, classGroup))
		if err != nil {
			return fmt.Errorf("failed to pivot attendance log: %w", err)
		}

		if err := fillAbsent(tx, classCol); err != nil {
			return err
		}

	default:
		return fmt.Errorf("no attendance data found: expected %s or %s in %s", wideFileName, logFileName, d.dataDir)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if logger != nil {
		logger.Info("Attendance table loaded", "duration", time.Since(start))
	}
	return nil
}

// fillAbsent marks missing date cells with the absent code. With a class
// column only the classes that met on a date get absences for it; the cells
// of other classes stay empty.
func fillAbsent(tx *sql.Tx, classCol string) error {
	columns, err := tableColumns(tx, "attendance")
	if err != nil {
		return err
	}
	for _, c := range columns {
		if !dataset.IsDateColumn(c) {
			continue
		}
		q := fmt.Sprintf(`UPDATE attendance SET %[1]s = '%[2]s' WHERE %[1]s IS NULL`,
			quoteIdent(c), dataset.CodeAbsent)
		if classCol != "" {
			q += fmt.Sprintf(` AND %[1]s IN (SELECT %[1]s FROM attendance WHERE %[2]s IS NOT NULL)`,
				quoteIdent(classCol), quoteIdent(c))
		}
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("failed to fill absences for %s: %w", c, err)
		}
	}
	return nil
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func tableColumns(q querier, table string) ([]string, error) {
	rows, err := q.Query(fmt.Sprintf("SELECT * FROM %s LIMIT 0", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s columns: %w", table, err)
	}
	defer rows.Close()
	return rows.Columns()
}

// resolveColumns finds the roll and name columns used for lookups.
func (d *DB) resolveColumns() error {
	columns, err := tableColumns(d.conn, "attendance")
	if err != nil {
		return err
	}
	for _, c := range columns {
		lc := strings.ToLower(c)
		if d.rollCol == "" && strings.Contains(lc, "roll") {
			d.rollCol = c
		}
		if d.nameCol == "" && lc == "name" {
			d.nameCol = c
		}
	}
	d.classCol = findClassColumn(columns)
	if d.nameCol == "" {
		for _, c := range columns {
			if strings.Contains(strings.ToLower(c), "name") {
				d.nameCol = c
				break
			}
		}
	}
	if d.rollCol == "" || d.nameCol == "" {
		return fmt.Errorf("attendance table needs a roll number and a name column, got %v", columns)
	}
	return nil
}

func findClassColumn(columns []string) string {
	for _, c := range columns {
		if lc := strings.ToLower(c); lc == "class_name" || lc == "class" {
			return c
		}
	}
	return ""
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// Classes lists the distinct classes in the register. It is empty when the
// attendance data has no class column.
func (d *DB) Classes() ([]string, error) {
	if d.classCol == "" {
		return nil, nil
	}
	rows, err := d.conn.Query(fmt.Sprintf(
		`SELECT DISTINCT %[1]s FROM attendance WHERE %[1]s IS NOT NULL ORDER BY %[1]s`,
		quoteIdent(d.classCol)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// Class returns the selected class, empty when every student is in scope.
func (d *DB) Class() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.class
}

// SelectClass narrows the roster to one class and the dates that class met.
// An empty class selects every student.
func (d *DB) SelectClass(class string) error {
	class = strings.TrimSpace(class)
	if class == "" {
		d.mu.Lock()
		d.class, d.columns = "", nil
		d.mu.Unlock()
		return nil
	}
	if d.classCol == "" {
		return fmt.Errorf("%w: %s (attendance data has no class column)", ErrClassNotFound, class)
	}

	columns, err := tableColumns(d.conn, "attendance")
	if err != nil {
		return err
	}
	var selected, dates []string
	for _, c := range columns {
		switch {
		case c == d.classCol:
		case dataset.IsDateColumn(c):
			dates = append(dates, c)
		default:
			selected = append(selected, c)
		}
	}

	counts := []string{"count(*)"}
	for _, c := range dates {
		counts = append(counts, fmt.Sprintf("count(%s)", quoteIdent(c)))
	}
	n := make([]int64, len(counts))
	ptrs := make([]any, len(n))
	for i := range n {
		ptrs[i] = &n[i]
	}
	err = d.conn.QueryRow(fmt.Sprintf(`SELECT %s FROM attendance WHERE %s = ?`,
		strings.Join(counts, ", "), quoteIdent(d.classCol)), class).Scan(ptrs...)
	if err != nil {
		return fmt.Errorf("failed to read class %s: %w", class, err)
	}
	if n[0] == 0 {
		return fmt.Errorf("%w: %s", ErrClassNotFound, class)
	}
	met := 0
	for i, c := range dates {
		if n[i+1] > 0 {
			selected = append(selected, c)
			met++
		}
	}

	d.mu.Lock()
	d.class, d.columns = class, selected
	d.mu.Unlock()

	if logger != nil {
		logger.Info("Class selected", "class", class, "students", n[0], "class_days", met)
	}
	return nil
}

// roster returns the query for the students and dates in scope.
func (d *DB) roster() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.class == "" {
		return "SELECT * FROM attendance"
	}
	quoted := make([]string, len(d.columns))
	for i, c := range d.columns {
		quoted[i] = quoteIdent(c)
	}
	return fmt.Sprintf("SELECT %s FROM attendance WHERE %s = '%s'",
		strings.Join(quoted, ", "), quoteIdent(d.classCol), sqlString(d.class))
}

// Dataset returns the attendance table of the selected class sorted by roll
// number.
func (d *DB) Dataset() (*dataset.Dataset, error) {
	rows, err := d.conn.Query(fmt.Sprintf(
		`SELECT * FROM (%s) AS roster ORDER BY TRY_CAST(%s AS INTEGER) NULLS LAST, %s`,
		d.roster(), quoteIdent(d.rollCol), quoteIdent(d.rollCol)))
	if err != nil {
		if logger != nil {
			logger.Error("Failed to query attendance table", "error", err)
		}
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var data [][]string
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = v.String
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dataset.New(columns, data)
}

// SearchStudents matches query against names (case-insensitive substring)
// and roll numbers (exact).
func (d *DB) SearchStudents(query string, limit int) ([]Student, error) {
	ds, err := d.Dataset()
	if err != nil {
		return nil, err
	}

	q := strings.TrimSpace(query)
	rows, err := d.conn.Query(fmt.Sprintf(`
		SELECT %[1]s
		FROM (%[3]s) AS roster
		WHERE ? = '' OR %[2]s ILIKE '%%' || ? || '%%' OR %[1]s = ?
		ORDER BY TRY_CAST(%[1]s AS INTEGER) NULLS LAST
		LIMIT ?
	`, quoteIdent(d.rollCol), quoteIdent(d.nameCol), d.roster()), q, q, q, limit)
	if err != nil {
		if logger != nil {
			logger.Error("Student search failed", "error", err, "query", query)
		}
		return nil, err
	}
	defer rows.Close()

	var rolls []string
	for rows.Next() {
		var roll string
		if err := rows.Scan(&roll); err != nil {
			return nil, err
		}
		rolls = append(rolls, roll)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	students := make([]Student, 0, len(rolls))
	for _, roll := range rolls {
		if s := d.studentFromDataset(ds, roll, false); s != nil {
			students = append(students, *s)
		}
	}
	return students, nil
}

// GetStudent returns one student's record with per-date attendance.
func (d *DB) GetStudent(roll string) (*Student, error) {
	ds, err := d.Dataset()
	if err != nil {
		return nil, err
	}
	s := d.studentFromDataset(ds, strings.TrimSpace(roll), true)
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, roll)
	}
	return s, nil
}

func (d *DB) studentFromDataset(ds *dataset.Dataset, roll string, withAttendance bool) *Student {
	dates := ds.DateColumns()
	for i := 0; i < ds.Len(); i++ {
		r, _ := ds.Cell(i, d.rollCol)
		if r != roll {
			continue
		}
		name, _ := ds.Cell(i, d.nameCol)
		class, ok := ds.Cell(i, d.classCol)
		if !ok {
			class = d.Class()
		}
		s := &Student{
			Roll:      r,
			Name:      name,
			Class:     class,
			Present:   ds.PresentCount(i),
			ClassDays: len(dates),
		}
		if d.classCol != "" {
			// Only the days the student's class met.
			s.ClassDays = 0
			for _, date := range dates {
				if code, _ := ds.Cell(i, date); code != "" {
					s.ClassDays++
				}
			}
		}
		if s.ClassDays > 0 {
			s.Rate = float64(int(float64(s.Present)/float64(s.ClassDays)*10000+0.5)) / 100
		}
		if withAttendance {
			s.Attendance = make(map[string]string, len(dates))
			for _, date := range dates {
				s.Attendance[date], _ = ds.Cell(i, date)
			}
		}
		return s
	}
	return nil
}

// DailySummary counts present and absent students per class date.
func (d *DB) DailySummary() ([]DaySummary, error) {
	ds, err := d.Dataset()
	if err != nil {
		return nil, err
	}
	dates := ds.DateColumns()
	if len(dates) == 0 {
		return nil, nil
	}

	quoted := make([]string, len(dates))
	for i, date := range dates {
		quoted[i] = quoteIdent(date)
	}

	// Empty cells count as absences unless classes leave them empty on the
	// days they did not meet.
	absent := `coalesce(upper(trim(status)), '') <> 'P'`
	if d.classCol != "" {
		absent = `status IS NOT NULL AND upper(trim(status)) <> 'P'`
	}

	rows, err := d.conn.Query(fmt.Sprintf(`
		WITH roster AS (%s),
		marks AS (
			UNPIVOT INCLUDE NULLS roster
			ON %s
			INTO NAME class_date VALUE status
		)
		SELECT
			class_date,
			count(*) FILTER (WHERE upper(trim(status)) = 'P') AS present,
			count(*) FILTER (WHERE %s) AS absent
		FROM marks
		GROUP BY class_date
		ORDER BY class_date
	`, d.roster(), strings.Join(quoted, ", "), absent))
	if err != nil {
		if logger != nil {
			logger.Error("Daily summary query failed", "error", err)
		}
		return nil, err
	}
	defer rows.Close()

	var out []DaySummary
	for rows.Next() {
		var s DaySummary
		if err := rows.Scan(&s.Date, &s.Present, &s.Absent); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ExecuteQuery runs raw SQL against the store and returns JSON-friendly rows.
func (d *DB) ExecuteQuery(query string) ([]map[string]interface{}, error) {
	rows, err := d.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
