package proxy

import "sort"

// Refresh rebuilds the display order from scratch: every source row is run
// through AcceptsRow and the survivors are stable-sorted with LessThan.
func (p *Proxy) Refresh() {
	n := p.src.RowCount()
	rows := make([]int, 0, n)
	for row := 0; row < n; row++ {
		if p.AcceptsRow(row) {
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return p.LessThan(rows[i], rows[j])
	})
	p.rows = rows
}

// Rows returns the visible source rows in display order.
func (p *Proxy) Rows() []int {
	out := make([]int, len(p.rows))
	copy(out, p.rows)
	return out
}

// RowCount returns the number of visible rows.
func (p *Proxy) RowCount() int {
	return len(p.rows)
}

// MapToSource converts a display position into a source row.
func (p *Proxy) MapToSource(proxyRow int) (int, bool) {
	if proxyRow < 0 || proxyRow >= len(p.rows) {
		return 0, false
	}
	return p.rows[proxyRow], true
}

// MapFromSource converts a source row into its display position.
// It reports false when the row is filtered out.
func (p *Proxy) MapFromSource(sourceRow int) (int, bool) {
	for i, row := range p.rows {
		if row == sourceRow {
			return i, true
		}
	}
	return 0, false
}

// OnInvalidate registers fn to run whenever previous visibility and order
// decisions become void. The display order has already been rebuilt when
// fn runs.
func (p *Proxy) OnInvalidate(fn func()) {
	p.listeners = append(p.listeners, fn)
}

// invalidate rebuilds the display order and notifies listeners.
func (p *Proxy) invalidate() {
	p.Refresh()
	for _, fn := range p.listeners {
		fn()
	}
}

// pruneRows drops display entries for rows the source no longer has.
func (p *Proxy) pruneRows() {
	n := p.src.RowCount()
	kept := p.rows[:0]
	for _, row := range p.rows {
		if row < n {
			kept = append(kept, row)
		}
	}
	p.rows = kept
}
