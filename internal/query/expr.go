package query

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"

	"attendq/internal/dataset"
)

// Frame is the view of the dataset bound to df inside expressions.
type Frame struct {
	Rows    []map[string]string `expr:"rows"`
	Columns []string            `expr:"columns"`
	Dates   []string            `expr:"dates"`
	Meta    []string            `expr:"meta"`

	nameCol string
	rollCol string
}

// NewFrame builds the expression view of ds.
func NewFrame(ds *dataset.Dataset) *Frame {
	meta := ds.MetaColumns()
	return &Frame{
		Rows:    ds.Records(),
		Columns: ds.Columns(),
		Dates:   ds.DateColumns(),
		Meta:    meta,
		nameCol: pickColumn(meta, "name"),
		rollCol: pickColumn(meta, "roll"),
	}
}

// pickColumn returns the meta column equal to key, else the first one
// containing it.
func pickColumn(meta []string, key string) string {
	for _, c := range meta {
		if strings.EqualFold(c, key) {
			return c
		}
	}
	for _, c := range meta {
		if strings.Contains(strings.ToLower(c), key) {
			return c
		}
	}
	return ""
}

func (f *Frame) find(who string) map[string]string {
	who = strings.TrimSpace(who)
	for _, r := range f.Rows {
		if f.nameCol != "" && strings.EqualFold(strings.TrimSpace(r[f.nameCol]), who) {
			return r
		}
		if f.rollCol != "" && strings.TrimSpace(r[f.rollCol]) == who {
			return r
		}
	}
	return nil
}

func (f *Frame) label(r map[string]string) string {
	if f.nameCol != "" {
		return r[f.nameCol]
	}
	if f.rollCol != "" {
		return r[f.rollCol]
	}
	return ""
}

func (f *Frame) env() map[string]any {
	return map[string]any{
		"df":      f,
		"present": dataset.IsPresent,
		"student": f.find,
		"attendance": func(who string) map[string]string {
			r := f.find(who)
			if r == nil {
				return nil
			}
			out := make(map[string]string, len(f.Dates))
			for _, d := range f.Dates {
				out[d] = r[d]
			}
			return out
		},
		"presentOn": func(date string) []string {
			return f.filterOn(date, true)
		},
		"absentOn": func(date string) []string {
			return f.filterOn(date, false)
		},
		"rate": func(who string) (float64, error) {
			r := f.find(who)
			if r == nil {
				return 0, fmt.Errorf("student %q not found", who)
			}
			if len(f.Dates) == 0 {
				return 0, nil
			}
			n := 0
			for _, d := range f.Dates {
				if dataset.IsPresent(r[d]) {
					n++
				}
			}
			pct := float64(n) / float64(len(f.Dates)) * 100
			return math.Round(pct*100) / 100, nil
		},
	}
}

func (f *Frame) filterOn(date string, present bool) []string {
	out := []string{}
	for _, r := range f.Rows {
		if dataset.IsPresent(r[date]) == present {
			out = append(out, f.label(r))
		}
	}
	return out
}

// ExprEngine evaluates expr-lang expressions. Only df and the attendance
// helpers are in scope.
type ExprEngine struct{}

// NewExprEngine creates an expression engine.
func NewExprEngine() *ExprEngine { return &ExprEngine{} }

// Name implements Engine.
func (e *ExprEngine) Name() string { return "expr" }

// Eval implements Engine.
func (e *ExprEngine) Eval(ctx context.Context, expression string, ds *dataset.Dataset) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame := NewFrame(ds)
	env := frame.env()

	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, err
	}
	return normalize(out, frame.Columns), nil
}

// normalize turns row collections into a Table and leaves everything else alone.
func normalize(v any, order []string) any {
	switch x := v.(type) {
	case []map[string]string:
		return TableFromRecords(x, order)
	case *Frame:
		return TableFromRecords(x.Rows, order)
	case []any:
		if len(x) == 0 {
			return x
		}
		records := make([]map[string]string, 0, len(x))
		for _, item := range x {
			switch r := item.(type) {
			case map[string]string:
				records = append(records, r)
			case map[string]any:
				m := make(map[string]string, len(r))
				for k, val := range r {
					m[k] = stringify(val)
				}
				records = append(records, m)
			default:
				return x
			}
		}
		return TableFromRecords(records, order)
	}
	return v
}
