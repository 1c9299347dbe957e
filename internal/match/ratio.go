package match

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// PartialRatio scores how well the shorter of two strings aligns with any
// same-length slice of the longer one. Scores range over [0, 100]; a query
// that appears verbatim inside the text scores 100.
//
// PartialRatio is stateless and safe for concurrent use.
type PartialRatio struct {
	caseSensitive bool
}

// NewPartialRatio creates a scorer. Unless caseSensitive is set, both inputs
// are case-folded before comparison; the fuzzy.case_sensitive config key
// defaults to true, matching rapidfuzz without a processor. Inputs are always NFC-normalized so
// that composed and decomposed spellings compare equal.
func NewPartialRatio(caseSensitive bool) *PartialRatio {
	return &PartialRatio{caseSensitive: caseSensitive}
}

// PartialRatio implements proxy.FuzzyScorer.
func (p *PartialRatio) PartialRatio(query, text string) int {
	needle := p.prepare(query)
	hay := p.prepare(text)

	if len(needle) == 0 && len(hay) == 0 {
		return 100
	}
	if len(needle) == 0 || len(hay) == 0 {
		return 0
	}
	if len(needle) > len(hay) {
		needle, hay = hay, needle
	}

	best := alignWindows(needle, hay)
	if len(needle) == len(hay) && best < 100 {
		// Equal lengths have no natural needle; score both alignments.
		best = max(best, alignWindows(hay, needle))
	}
	return int(best)
}

// alignWindows returns the best ratio of needle against the full-length
// windows of hay, then the windows clipped by its start and end.
func alignWindows(needle, hay []rune) float64 {
	m, n := len(needle), len(hay)
	best := 0.0
	consider := func(window []rune) bool {
		if r := NormalizedRatio(needle, window); r > best {
			best = r
		}
		return best >= 100
	}

	for i := 0; i+m <= n; i++ {
		if consider(hay[i : i+m]) {
			return 100
		}
	}
	for i := 1; i < m; i++ {
		if consider(hay[:i]) {
			return 100
		}
	}
	for i := n - m + 1; i < n; i++ {
		if consider(hay[i:]) {
			return 100
		}
	}
	return best
}

// prepare normalizes s into runes ready for comparison.
func (p *PartialRatio) prepare(s string) []rune {
	if s == "" {
		return nil
	}
	s = norm.NFC.String(s)
	if !p.caseSensitive {
		// cases.Caser is stateful; a fresh one per call keeps the scorer
		// shareable across scoring workers.
		s = cases.Fold().String(s)
	}
	return []rune(s)
}
