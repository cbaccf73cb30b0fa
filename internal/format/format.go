// Package format turns pipeline results into the user-facing answer text.
package format

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"attendq/internal/query"
)

const (
	FailurePrefix    = "❌ Failed to answer: "
	ScalarPrefix     = "📊 Answer to: "
	StructuredPrefix = "✅ Answer to your question: "

	// WarningMarker prefixes user-input failures such as bad dates.
	WarningMarker = "⚠️"
)

// IsErrorText reports whether s carries one of the textual error markers.
func IsErrorText(s string) bool {
	return strings.HasPrefix(s, "ERROR") || strings.HasPrefix(s, "⚠")
}

// Failure renders a failed answer.
func Failure(message string) string {
	if message == "" {
		message = "unknown error"
	}
	return FailurePrefix + message
}

// Answer renders a successful result for question. Error values and marked
// error strings are rendered as failures.
func Answer(question string, v any) string {
	switch x := v.(type) {
	case error:
		return Failure(x.Error())
	case string:
		if IsErrorText(x) {
			return Failure(x)
		}
	}

	if t, ok := ToTable(v); ok {
		return fmt.Sprintf("%s'%s'\n\n%s", StructuredPrefix, question, RenderTable(t))
	}
	return fmt.Sprintf("%s'%s' is → %s", ScalarPrefix, question, Value(v))
}

// Value renders a scalar.
func Value(v any) string {
	switch x := v.(type) {
	case nil:
		return "(no value)"
	case string:
		if x == "" {
			return `""`
		}
		return x
	case float64:
		return FormatFloat(x)
	case float32:
		return FormatFloat(float64(x))
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// FormatFloat drops trailing zeros so 50.0 renders as 50 and 33.333333
// as 33.33. Table cells use the same rendering.
func FormatFloat(f float64) string {
	return query.FormatFloat(f)
}

// ToTable converts structured values into a table. Scalars report false.
func ToTable(v any) (query.Table, bool) {
	switch x := v.(type) {
	case query.Table:
		return x, true
	case *query.Table:
		if x == nil {
			return query.Table{}, false
		}
		return *x, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return query.Table{}, false
		}
		t := query.Table{Columns: []string{"value"}}
		for i := 0; i < rv.Len(); i++ {
			t.Rows = append(t.Rows, []string{Value(rv.Index(i).Interface())})
		}
		return t, true
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		byKey := make(map[string]string, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, k)
			byKey[k] = Value(iter.Value().Interface())
		}
		sort.Strings(keys)
		t := query.Table{Columns: []string{"key", "value"}}
		for _, k := range keys {
			t.Rows = append(t.Rows, []string{k, byKey[k]})
		}
		return t, true
	}
	return query.Table{}, false
}

// RenderTable renders t as a bordered text table.
func RenderTable(t query.Table) string {
	if len(t.Rows) == 0 {
		return "(no rows)"
	}

	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	if len(t.Columns) > 0 {
		table.SetHeader(t.Columns)
	}
	table.AppendBulk(t.Rows)
	table.Render()

	return strings.TrimRight(b.String(), "\n")
}
