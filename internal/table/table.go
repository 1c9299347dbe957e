// Package table provides in-memory tabular data sources for the filter
// proxy, along with loaders for delimited text, YAML, SQLite queries and
// command output.
package table

import "strconv"

// Table is an in-memory grid of text cells with an optional header.
// Rows may be ragged; missing cells read as empty strings.
type Table struct {
	header    []string
	rows      [][]string
	cols      int
	listeners []func()
}

// New creates a table. The header may be nil.
func New(header []string, rows [][]string) *Table {
	t := &Table{header: header}
	t.setRows(rows)
	return t
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// ColumnCount returns the width of the widest row or of the header.
func (t *Table) ColumnCount() int {
	return t.cols
}

// CellText returns the text at row, col, or "" when out of range.
func (t *Table) CellText(row, col int) string {
	if row < 0 || row >= len(t.rows) {
		return ""
	}
	r := t.rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Header returns the column names, or nil.
func (t *Table) Header() []string {
	return t.header
}

// ColumnName returns the header label for col, falling back to its
// 1-based position.
func (t *Table) ColumnName(col int) string {
	if col >= 0 && col < len(t.header) && t.header[col] != "" {
		return t.header[col]
	}
	return "#" + strconv.Itoa(col+1)
}

// Row returns a copy of row padded to ColumnCount cells.
func (t *Table) Row(row int) []string {
	out := make([]string, t.cols)
	for col := range out {
		out[col] = t.CellText(row, col)
	}
	return out
}

// SetRows replaces every data row and notifies change listeners.
func (t *Table) SetRows(rows [][]string) {
	t.setRows(rows)
	t.notifyChange()
}

// Append adds rows at the end and notifies change listeners.
func (t *Table) Append(rows ...[]string) {
	if len(rows) == 0 {
		return
	}
	t.rows = append(t.rows, rows...)
	for _, r := range rows {
		t.cols = max(t.cols, len(r))
	}
	t.notifyChange()
}

// OnChange registers fn to run after the rows change.
func (t *Table) OnChange(fn func()) {
	t.listeners = append(t.listeners, fn)
}

func (t *Table) setRows(rows [][]string) {
	t.rows = rows
	t.cols = len(t.header)
	for _, r := range rows {
		t.cols = max(t.cols, len(r))
	}
}

func (t *Table) notifyChange() {
	for _, fn := range t.listeners {
		fn()
	}
}
