package postgres

import (
	"fmt"
	"strings"
)

// whereBuilder accumulates AND-ed conditions with numbered placeholders.
type whereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

func newWhereBuilder() *whereBuilder {
	return &whereBuilder{argIndex: 1}
}

// Add appends "col = $n".
func (wb *whereBuilder) Add(col string, value any) {
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", col, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddContains keeps rows where any non-null value of the jsonb column
// contains substr. Matching is case-sensitive. Empty substr is skipped.
func (wb *whereBuilder) AddContains(col, substr string) {
	if substr == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf(
		"EXISTS (SELECT 1 FROM jsonb_each_text(%s) kv WHERE strpos(kv.value, $%d) > 0)",
		col, wb.argIndex,
	))
	wb.args = append(wb.args, substr)
	wb.argIndex++
}

// NextArgIndex is the placeholder number for the next argument.
func (wb *whereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// Build returns " WHERE ..." and its arguments, or "" and nil.
func (wb *whereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}
