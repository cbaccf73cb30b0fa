package query

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"attendq/internal/dataset"
)

// SQLEngine evaluates one read-only SELECT statement against an in-memory
// DuckDB copy of the dataset loaded as table df.
type SQLEngine struct{}

// NewSQLEngine creates a SQL engine.
func NewSQLEngine() *SQLEngine { return &SQLEngine{} }

// Name implements Engine.
func (e *SQLEngine) Name() string { return "sql" }

// ValidateSelect trims a statement and rejects anything that is not a single
// SELECT or WITH query.
func ValidateSelect(statement string) (string, error) {
	s := strings.TrimSpace(statement)
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return "", fmt.Errorf("empty statement")
	}
	if strings.Contains(s, ";") {
		return "", fmt.Errorf("only a single statement is allowed")
	}
	first := strings.ToLower(strings.Fields(s)[0])
	if first != "select" && first != "with" {
		return "", fmt.Errorf("only SELECT queries are allowed, got %q", strings.ToUpper(first))
	}
	return s, nil
}

// Eval implements Engine. A 1x1 result collapses to a scalar; anything else
// is returned as a Table.
func (e *SQLEngine) Eval(ctx context.Context, statement string, ds *dataset.Dataset) (any, error) {
	stmt, err := ValidateSelect(statement)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer db.Close()

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	if err := loadFrame(ctx, conn, ds); err != nil {
		return nil, err
	}

	// Generated SQL must not reach the filesystem or network.
	if _, err := conn.ExecContext(ctx, "SET enable_external_access = false"); err != nil {
		return nil, fmt.Errorf("failed to lock down database: %w", err)
	}

	rows, err := conn.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var raw [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		raw = append(raw, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(columns) == 1 && len(raw) == 1 {
		return scalar(raw[0][0]), nil
	}

	t := Table{Columns: columns, Rows: make([][]string, 0, len(raw))}
	for _, r := range raw {
		row := make([]string, len(r))
		for i, v := range r {
			row[i] = stringify(scalar(v))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func loadFrame(ctx context.Context, conn *sql.Conn, ds *dataset.Dataset) error {
	columns := ds.Columns()
	defs := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c) + " VARCHAR"
		marks[i] = "?"
	}

	if _, err := conn.ExecContext(ctx, fmt.Sprintf("CREATE TABLE df (%s)", strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("failed to create df table: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Ignore error - will fail if transaction was committed
	}()

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO df VALUES (%s)", strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer insert.Close()

	for _, row := range ds.Rows() {
		args := make([]any, len(row))
		for i, v := range row {
			args[i] = v
		}
		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}
	return tx.Commit()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// scalar converts driver values into plain Go values.
func scalar(v any) any {
	switch x := v.(type) {
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		return x.String()
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case interface{ Float64() float64 }:
		return x.Float64()
	}
	return v
}
