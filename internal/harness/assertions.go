package harness

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/bankwatch/internal/store"
)

// validIdentifier matches valid SQL column names. Column names are
// interpolated into final_state queries and cannot be parameterized.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [cycle %d] %s", event.Cycle, event.key())
			if event.Account != "" {
				fmt.Fprintf(&buf, " account=%s", event.Account)
			}
			if event.Detail != "" {
				fmt.Fprintf(&buf, " detail=%s", event.Detail)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// matching returns the events of the given type whose fields include match.
func matching(trace []TraceEvent, eventType string, match map[string]interface{}) []TraceEvent {
	var out []TraceEvent
	for _, event := range trace {
		if event.Type == eventType && matchFields(event.fields(), match) {
			out = append(out, event)
		}
	}
	return out
}

// assertTraceContains checks that at least one event matches.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	if len(matching(trace, assertion.Event, assertion.Match)) > 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("event %s matching %s", assertion.Event, formatConditions(assertion.Match)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that events appear in the specified order.
// Events don't need to be consecutive; the first occurrence of each key counts.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		key := event.key()
		if positions[key] == 0 {
			positions[key] = i + 1 // 1-indexed for readability
		}
	}

	for _, key := range assertion.Events {
		if positions[key] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all events present: %v", assertion.Events),
				Actual:   fmt.Sprintf("missing event: %s", key),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Events); i++ {
		prev, curr := assertion.Events[i-1], assertion.Events[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", assertion.Events),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks that exactly Count events match.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := len(matching(trace, assertion.Event, assertion.Match))
	if count != assertion.Count {
		return &AssertionError{
			Type: AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s matching %s",
				assertion.Count, assertion.Event, formatConditions(assertion.Match)),
			Actual: fmt.Sprintf("%d occurrences", count),
			Trace:  trace,
		}
	}
	return nil
}

// assertFinalState checks the transactions table. With Rows set it checks
// the number of rows matching Where; with Expect it checks the single
// matching row (subset semantics).
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return err
	}
	query := "SELECT * FROM transactions"
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}
	query += " ORDER BY seq"

	rows, err := st.DB().QueryContext(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: "query transactions",
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	var matched []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		matched = append(matched, row)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}

	whereDesc := formatConditions(assertion.Where)
	if assertion.Rows != nil && len(matched) != *assertion.Rows {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%d row(s) where %s", *assertion.Rows, whereDesc),
			Actual:   fmt.Sprintf("%d row(s)", len(matched)),
		}
	}
	if len(assertion.Expect) == 0 {
		return nil
	}

	switch len(matched) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row where %s", whereDesc),
			Actual:   "row not found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row where %s", whereDesc),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := matched[0]
	for key, expectedValue := range assertion.Expect {
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("column %q to exist", key),
				Actual:   fmt.Sprintf("column %q not present in result columns: %v", key, columns),
			}
		}
		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("column %q = %v", key, expectedValue),
				Actual:   fmt.Sprintf("column %q = %v", key, actualValue),
			}
		}
	}

	return nil
}

// buildWhereClause constructs a parameterized WHERE clause. Keys are sorted
// for deterministic query generation.
func buildWhereClause(where map[string]interface{}) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := sortedKeys(where)
	clauses := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, key+" = ?")
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts a YAML scalar to the value stored in SQLite.
// Booleans are stored as 0/1.
func toSQLValue(v interface{}) interface{} {
	switch val := v.(type) {
	case bool:
		if val {
			return int64(1)
		}
		return int64(0)
	case string, int, int64:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// formatConditions creates a human-readable description of match conditions.
func formatConditions(conds map[string]interface{}) string {
	if len(conds) == 0 {
		return "(no conditions)"
	}
	parts := make([]string, 0, len(conds))
	for _, k := range sortedKeys(conds) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, conds[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stateValuesEqual compares a YAML value with a SQLite column value.
// SQLite returns int64 for integers (booleans included) and string or
// []byte for text.
func stateValuesEqual(expected, actual interface{}) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}
	if exp, ok := expected.(bool); ok {
		n, isInt := actual.(int64)
		return isInt && exp == (n != 0)
	}
	return fmt.Sprint(expected) == fmt.Sprint(actual)
}

// matchFields checks that actual contains every expected field (subset match).
// Scalars compare by their printed form so YAML ints match int64 cycles.
func matchFields(actual, expected map[string]interface{}) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists || fmt.Sprint(actualVal) != fmt.Sprint(expectedVal) {
			return false
		}
	}
	return true
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
