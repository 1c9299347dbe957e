package substring

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

type grid [][]string

func (g grid) RowCount() int { return len(g) }

func (g grid) ColumnCount() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func (g grid) CellText(row, col int) string { return g[row][col] }

var people = grid{
	{"Émile", "paris"},
	{"zoe", "Berlin"},
	{"Adam", "oslo"},
	{"eve", "PARIS"},
}

func accepted(f *Filter, src Source) []int {
	var rows []int
	for row := 0; row < src.RowCount(); row++ {
		if f.AcceptsRow(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

func sorted(f *Filter, rows []int) []int {
	out := append([]int(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return f.LessThan(out[i], out[j]) })
	return out
}

func TestAcceptsRow(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		text string
		want []int
	}{
		{"empty accepts all", Options{Column: AnyColumn}, "", []int{0, 1, 2, 3}},
		{"any column folded", Options{Column: AnyColumn}, "paris", []int{0, 3}},
		{"key column", Options{Column: 0}, "e", []int{0, 1, 3}},
		{"key column excludes others", Options{Column: 0}, "paris", nil},
		{"case sensitive", Options{Column: AnyColumn, CaseSensitive: true}, "PARIS", []int{3}},
		{"no match", Options{Column: AnyColumn}, "tokyo", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(people, tt.opts)
			f.SetSubstringFilter(tt.text)
			assert.Equal(t, tt.text, f.text)
			assert.Equal(t, tt.want, accepted(f, people))
		})
	}
}

func TestSetFilterColumn(t *testing.T) {
	f := New(people, Options{Column: AnyColumn})
	f.SetSubstringFilter("berlin")
	assert.Equal(t, []int{1}, accepted(f, people))

	f.SetFilterColumn(0)
	assert.Empty(t, accepted(f, people))
}

func TestLessThan(t *testing.T) {
	all := []int{0, 1, 2, 3}

	t.Run("source order without sort column", func(t *testing.T) {
		f := New(people, Options{Column: AnyColumn, SortColumn: AnyColumn})
		assert.Equal(t, all, sorted(f, []int{3, 1, 0, 2}))
	})

	t.Run("byte-wise", func(t *testing.T) {
		f := New(people, Options{Column: AnyColumn, SortColumn: 0})
		// Byte order puts upper case first and accented letters last.
		assert.Equal(t, []int{2, 3, 1, 0}, sorted(f, all))
	})

	t.Run("collated", func(t *testing.T) {
		f := New(people, Options{Column: AnyColumn, SortColumn: 0, Locale: "en"})
		assert.Equal(t, []int{2, 0, 3, 1}, sorted(f, all))
	})

	t.Run("bad locale falls back", func(t *testing.T) {
		f := New(people, Options{Column: AnyColumn, SortColumn: 0, Locale: "!!"})
		assert.Equal(t, []int{2, 3, 1, 0}, sorted(f, all))
	})

	t.Run("ties keep source order", func(t *testing.T) {
		dup := grid{{"b"}, {"a"}, {"b"}, {"a"}}
		f := New(dup, Options{Column: AnyColumn, SortColumn: 0})
		assert.Equal(t, []int{1, 3, 0, 2}, sorted(f, []int{2, 0, 3, 1}))
	})
}
