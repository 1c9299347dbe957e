// Package substring provides the default filtering and ordering used when
// neither regex nor fuzzy matching is active: fixed-string containment on a
// key column and plain column-value sorting.
package substring

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// AnyColumn matches the filter text against every column.
const AnyColumn = -1

// Source is the tabular data being filtered.
type Source interface {
	RowCount() int
	ColumnCount() int
	CellText(row, col int) string
}

// Options configures a Filter.
type Options struct {
	// Column is the key column for filtering, or AnyColumn.
	Column int

	// CaseSensitive disables case folding of the filter text and cells.
	CaseSensitive bool

	// SortColumn is the column LessThan compares, or AnyColumn to keep
	// source order.
	SortColumn int

	// Locale is a BCP 47 tag selecting collation for LessThan.
	// Empty compares strings byte-wise.
	Locale string
}

// Filter is the default fixed-string filter and column sorter.
type Filter struct {
	src           Source
	column        int
	sortColumn    int
	caseSensitive bool
	collator      *collate.Collator

	text   string // filter text as given
	folded string // filter text after case folding
}

// New creates a Filter over src. An unparseable Locale falls back to
// byte-wise comparison.
func New(src Source, opts Options) *Filter {
	f := &Filter{
		src:           src,
		column:        opts.Column,
		sortColumn:    opts.SortColumn,
		caseSensitive: opts.CaseSensitive,
	}
	if opts.Locale != "" {
		if tag, err := language.Parse(opts.Locale); err == nil {
			f.collator = collate.New(tag)
		}
	}
	return f
}

// SetSubstringFilter sets the fixed string rows must contain.
func (f *Filter) SetSubstringFilter(text string) {
	f.text = text
	f.folded = f.fold(text)
}

// SetFilterColumn changes the key column.
func (f *Filter) SetFilterColumn(col int) {
	f.column = col
}

// AcceptsRow reports whether the key column (or any column) of row contains
// the filter text. An empty filter accepts every row.
func (f *Filter) AcceptsRow(row int) bool {
	if f.text == "" {
		return true
	}

	if f.column >= 0 {
		return f.cellContains(row, f.column)
	}

	cols := f.src.ColumnCount()
	for col := 0; col < cols; col++ {
		if f.cellContains(row, col) {
			return true
		}
	}
	return false
}

// LessThan orders rows by the text of the sort column. Equal values, and
// AnyColumn as the sort column, keep source order.
func (f *Filter) LessThan(left, right int) bool {
	if f.sortColumn < 0 {
		return left < right
	}

	a := f.src.CellText(left, f.sortColumn)
	b := f.src.CellText(right, f.sortColumn)

	var c int
	if f.collator != nil {
		c = f.collator.CompareString(a, b)
	} else {
		c = strings.Compare(a, b)
	}
	if c != 0 {
		return c < 0
	}
	return left < right
}

func (f *Filter) cellContains(row, col int) bool {
	return strings.Contains(f.fold(f.src.CellText(row, col)), f.folded)
}

func (f *Filter) fold(s string) string {
	if f.caseSensitive {
		return s
	}
	return cases.Fold().String(s)
}
