package store

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Result is the normalized tabular outcome of a graph query. It exists only
// within a turn's processing; the conversation record keeps at most a bounded
// summary of it.
type Result struct {
	// Columns are the result field names in query order.
	Columns []string

	// Rows map field names to scalar or list-of-scalar values.
	Rows []map[string]any

	// Truncated reports whether the row cap cut the result short.
	Truncated bool
}

// RowCount returns the number of retained rows.
func (r *Result) RowCount() int {
	return len(r.Rows)
}

// Summary renders a compact textual form of the result for prompt injection:
// at most maxRows rows, each value clipped to maxValueLen runes. Raw
// unbounded rows never reach the model.
func (r *Result) Summary(maxRows, maxValueLen int) string {
	if len(r.Rows) == 0 {
		return ""
	}

	rows := r.Rows
	clipped := r.Truncated
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
		clipped = true
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%d. ", i+1))

		for j, col := range r.columnsForRow(row) {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(col)
			b.WriteString(": ")
			b.WriteString(clipValue(row[col], maxValueLen))
		}
	}

	if clipped {
		b.WriteString("\n(more rows omitted)")
	}
	return b.String()
}

// PrettyPrint writes the result as an ASCII table, used by the CLI's verbose
// mode.
func (r *Result) PrettyPrint(w io.Writer) {
	if len(r.Rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(r.Columns)

	for _, row := range r.Rows {
		cells := make([]string, len(r.Columns))
		for i, col := range r.Columns {
			cells[i] = fmt.Sprint(row[col])
		}
		table.Append(cells)
	}
	table.Render()

	if r.Truncated {
		fmt.Fprintln(w, "(truncated)")
	}
}

// columnsForRow prefers the declared column order and falls back to sorted
// keys when the row carries fields the header does not.
func (r *Result) columnsForRow(row map[string]any) []string {
	if len(r.Columns) > 0 {
		return r.Columns
	}
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func clipValue(v any, maxLen int) string {
	s := fmt.Sprint(v)
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
