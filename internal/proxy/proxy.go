// Package proxy implements a filtering and ranking adapter over tabular text
// data. A Proxy sits between a Source (rows × columns of text) and whatever
// presents those rows, and decides which rows are visible and in which order
// for the current query string.
//
// Three matching modes are supported. Substring mode delegates entirely to a
// Fallback (plain fixed-string filtering and column sorting). Regex mode keeps
// rows whose text matches the query as a pattern and preserves source order.
// Fuzzy mode scores every row with a partial-ratio scorer and sorts by
// descending score.
//
// In regex and fuzzy mode every query change triggers one full scoring pass
// over the source; the resulting per-row scores are cached and drive both
// acceptance and ordering until the next change.
//
// A Proxy is not safe for concurrent use. It is meant to be owned by a
// single control goroutine such as a UI update loop.
package proxy

import (
	"context"
	"io"
	"log/slog"

	"github.com/runger/tabsift/internal/match"
	"github.com/runger/tabsift/internal/substring"
)

const (
	// AcceptThreshold is the score a row must exceed to be visible.
	// A score of exactly AcceptThreshold is rejected.
	AcceptThreshold = 50

	// NoFilter is a reserved query that, like the empty string, disables
	// filtering.
	NoFilter = "<NULL>"

	// NoColumn means no designated filter column: every column is matched
	// and the best-scoring one represents the row.
	NoColumn = -1

	// noScore seeds the per-row running maximum below any real score.
	noScore = -1

	regexHit  = 100
	regexMiss = 0
)

// Mode is the active matching mode.
type Mode int

const (
	ModeSubstring Mode = iota // Fixed-string filtering via the Fallback
	ModeRegex                 // Pattern matching, source order
	ModeFuzzy                 // Partial-ratio scoring, best first
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeSubstring:
		return "substring"
	case ModeRegex:
		return "regex"
	case ModeFuzzy:
		return "fuzzy"
	default:
		return "unknown"
	}
}

// ModeFor derives the matching mode from the fuzzy flag and the regex-mode
// switch. Regex takes precedence over fuzzy.
func ModeFor(fuzzy, regex bool) Mode {
	switch {
	case regex:
		return ModeRegex
	case fuzzy:
		return ModeFuzzy
	default:
		return ModeSubstring
	}
}

// Source is the tabular data the proxy filters. The proxy only reads from it.
type Source interface {
	RowCount() int
	ColumnCount() int
	CellText(row, col int) string
}

// Fallback supplies the default filtering and ordering used in substring
// mode.
type Fallback interface {
	AcceptsRow(row int) bool
	LessThan(left, right int) bool
	SetSubstringFilter(text string)
}

// RegexMatcher reports whether text matches pattern. Malformed patterns must
// report false rather than fail.
type RegexMatcher interface {
	Matches(pattern, text string) bool
}

// FuzzyScorer scores text against query in the range [0, 100].
type FuzzyScorer interface {
	PartialRatio(query, text string) int
}

// columnSetter is implemented by fallbacks that track the filter column.
type columnSetter interface {
	SetFilterColumn(col int)
}

// Options configures a Proxy.
type Options struct {
	// Fuzzy enables fuzzy mode. Fixed for the lifetime of the proxy.
	Fuzzy bool

	// Regex is the process-wide regex-mode switch as of construction.
	// It overrides Fuzzy and can be changed later with SetRegexMode.
	Regex bool

	// FilterColumn is the designated match column, or NoColumn. The zero
	// value designates column 0; start from DefaultOptions to match every
	// column.
	FilterColumn int

	// Workers splits the scoring pass across goroutines when > 1.
	// The Source, Matcher and Scorer must then tolerate concurrent reads.
	Workers int

	// Matcher, Scorer and Fallback override the default collaborators.
	// The default Scorer is case-sensitive.
	Matcher  RegexMatcher
	Scorer   FuzzyScorer
	Fallback Fallback

	// Logger receives debug output about scoring passes. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns options for a fuzzy proxy matching every column.
func DefaultOptions() Options {
	return Options{
		Fuzzy:        true,
		FilterColumn: NoColumn,
		Workers:      1,
	}
}

// Proxy filters and orders the rows of a Source for the current query.
type Proxy struct {
	src      Source
	fallback Fallback
	matcher  RegexMatcher
	scorer   FuzzyScorer
	logger   *slog.Logger

	fuzzy        bool
	regex        bool
	mode         Mode
	dynamic      bool
	filterColumn int
	workers      int

	query  string
	scores []int // empty, or one score per source row

	rows      []int // visible source rows in display order
	listeners []func()
}

// New creates a proxy over src. When fuzzy or regex mode is active at
// construction the proxy is dynamic: SourceChanged rescores and re-sorts.
func New(src Source, opts Options) *Proxy {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fallback := opts.Fallback
	if fallback == nil {
		fallback = substring.New(src, substring.Options{
			Column:     opts.FilterColumn,
			SortColumn: NoColumn,
		})
	}

	matcher := opts.Matcher
	if matcher == nil {
		matcher = match.NewRegex(match.RegexOptions{Logger: logger})
	}

	scorer := opts.Scorer
	if scorer == nil {
		scorer = match.NewPartialRatio(true)
	}

	mode := ModeFor(opts.Fuzzy, opts.Regex)
	p := &Proxy{
		src:          src,
		fallback:     fallback,
		matcher:      matcher,
		scorer:       scorer,
		logger:       logger,
		fuzzy:        opts.Fuzzy,
		regex:        opts.Regex,
		mode:         mode,
		dynamic:      mode != ModeSubstring,
		filterColumn: opts.FilterColumn,
		workers:      opts.Workers,
	}
	p.Refresh()
	return p
}

// Mode returns the active matching mode.
func (p *Proxy) Mode() Mode {
	return p.mode
}

// Dynamic reports whether source changes trigger re-filtering.
func (p *Proxy) Dynamic() bool {
	return p.dynamic
}

// Query returns the current query text.
func (p *Proxy) Query() string {
	return p.query
}

// FilterColumn returns the designated filter column, or NoColumn.
func (p *Proxy) FilterColumn() int {
	return p.filterColumn
}

// SetQuery updates the query. In regex and fuzzy mode it forwards the text to
// the fallback, rescores every row, and rebuilds the display order. In
// substring mode the fallback alone handles the new text.
func (p *Proxy) SetQuery(text string) {
	// Background never cancels, so the display order is always rebuilt.
	_ = p.SetQueryContext(context.Background(), text)
}

// SetQueryContext is SetQuery with a cancellable scoring pass. If ctx is
// cancelled before every row is scored, the cache stays cold, the display
// order is left as it was and the context error is returned.
func (p *Proxy) SetQueryContext(ctx context.Context, text string) error {
	p.query = text
	p.fallback.SetSubstringFilter(text)

	if p.mode != ModeSubstring {
		if err := p.RecomputeScoresContext(ctx); err != nil {
			return err
		}
	}
	p.invalidate()
	return nil
}

// SetRegexMode flips the process-wide regex-mode switch for this proxy.
// The mode is re-derived and the current query is rescored under it.
func (p *Proxy) SetRegexMode(on bool) {
	if p.regex == on {
		return
	}
	p.regex = on
	p.mode = ModeFor(p.fuzzy, p.regex)
	p.logger.Debug("regex mode changed", "regex", on, "mode", p.mode)

	p.RecomputeScores()
	p.invalidate()
}

// SetFilterColumn designates col as the only match column. Pass NoColumn to
// match every column again.
func (p *Proxy) SetFilterColumn(col int) {
	if p.filterColumn == col {
		return
	}
	p.filterColumn = col
	if cs, ok := p.fallback.(columnSetter); ok {
		cs.SetFilterColumn(col)
	}

	p.RecomputeScores()
	p.invalidate()
}

// SourceChanged tells the proxy that the source rows changed. A dynamic proxy
// rescores and rebuilds its display order; otherwise the stale cache is
// dropped and rows that no longer exist leave the display order, but
// filtering waits for the next explicit query update.
func (p *Proxy) SourceChanged() {
	if !p.dynamic {
		p.scores = nil
		p.pruneRows()
		return
	}
	p.RecomputeScores()
	p.invalidate()
}

// AcceptsRow reports whether the source row is visible.
func (p *Proxy) AcceptsRow(row int) bool {
	if p.unfiltered() {
		return true
	}
	if p.mode == ModeSubstring {
		return p.fallback.AcceptsRow(row)
	}

	if p.filterColumn >= 0 {
		return p.AcceptsCell(row, p.filterColumn)
	}

	// Once scores are cached AcceptsCell is row-scoped and this loop stops
	// at the first column. With a cold cache each cell is scored live.
	cols := p.src.ColumnCount()
	for col := 0; col < cols; col++ {
		if p.AcceptsCell(row, col) {
			return true
		}
	}
	return false
}

// AcceptsCell reports whether one cell passes the filter. With a populated
// score cache the column is ignored and the row's cached score decides.
func (p *Proxy) AcceptsCell(row, col int) bool {
	if p.unfiltered() {
		return true
	}
	if p.mode == ModeSubstring {
		return p.fallback.AcceptsRow(row)
	}

	if score, ok := p.cachedScore(row); ok {
		return score > AcceptThreshold
	}

	text := p.src.CellText(row, col)
	if p.mode == ModeRegex {
		return p.matcher.Matches(p.query, text)
	}
	return p.scorer.PartialRatio(p.query, text) > AcceptThreshold
}

// LessThan reports whether the left source row sorts before the right one.
// Regex mode keeps source order; fuzzy mode puts higher scores first and
// expects the score cache to be populated; substring mode defers to the
// fallback.
func (p *Proxy) LessThan(left, right int) bool {
	switch p.mode {
	case ModeRegex:
		return left < right
	case ModeFuzzy:
		ls, _ := p.cachedScore(left)
		rs, _ := p.cachedScore(right)
		return ls > rs
	default:
		return p.fallback.LessThan(left, right)
	}
}

// unfiltered reports whether the current query disables filtering.
func (p *Proxy) unfiltered() bool {
	return p.query == "" || p.query == NoFilter
}
