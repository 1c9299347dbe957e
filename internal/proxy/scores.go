package proxy

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// minRowsPerWorker keeps small tables on the serial path and is the size of
// each chunk handed to a scoring goroutine.
const minRowsPerWorker = 256

// RecomputeScores rebuilds the score cache for the current query and mode.
// The cache is cleared first; in substring mode it stays empty.
func (p *Proxy) RecomputeScores() {
	// Background never cancels, so the pass always completes.
	_ = p.RecomputeScoresContext(context.Background())
}

// RecomputeScoresContext is RecomputeScores with cancellation. The cache is
// published only once every row has been scored; if ctx is cancelled first
// the cache stays empty, acceptance falls back to live scoring, and the
// context error is returned.
func (p *Proxy) RecomputeScoresContext(ctx context.Context) error {
	p.scores = nil
	if p.mode == ModeSubstring {
		return nil
	}

	start := time.Now()
	n := p.src.RowCount()
	col, single := p.designatedColumn()
	scores := make([]int, n)

	workers := p.workers
	if maxWorkers := n / minRowsPerWorker; workers > maxWorkers {
		workers = maxWorkers
	}

	if workers <= 1 {
		for row := 0; row < n; row++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			scores[row] = p.scoreRow(row, col, single)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for lo := 0; lo < n; lo += minRowsPerWorker {
			hi := min(lo+minRowsPerWorker, n)
			g.Go(func() error {
				for row := lo; row < hi; row++ {
					if err := gctx.Err(); err != nil {
						return err
					}
					scores[row] = p.scoreRow(row, col, single)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	p.scores = scores
	p.logger.Debug("scores recomputed",
		"mode", p.mode,
		"rows", n,
		"single_column", single,
		"workers", max(workers, 1),
		"duration", time.Since(start),
	)
	return nil
}

// scoreCache returns a copy of the score cache. It is empty when the cache has
// not been computed for the current query.
func (p *Proxy) scoreCache() []int {
	if len(p.scores) == 0 {
		return nil
	}
	out := make([]int, len(p.scores))
	copy(out, p.scores)
	return out
}

// Score returns the cached score of a source row.
func (p *Proxy) Score(row int) (int, bool) {
	return p.cachedScore(row)
}

// designatedColumn returns the single column to score, if there is one:
// the configured filter column, or column 0 of a one-column source.
func (p *Proxy) designatedColumn() (int, bool) {
	if p.filterColumn >= 0 {
		return p.filterColumn, true
	}
	if p.src.ColumnCount() == 1 {
		return 0, true
	}
	return 0, false
}

// scoreRow scores one row: the designated column alone, or the best of all
// columns.
func (p *Proxy) scoreRow(row, col int, single bool) int {
	if single {
		return p.scoreCell(row, col)
	}

	best := noScore
	cols := p.src.ColumnCount()
	for c := 0; c < cols; c++ {
		if s := p.scoreCell(row, c); s > best {
			best = s
		}
	}
	return best
}

// scoreCell scores one cell with the active mode's scorer. Regex matches
// collapse to regexHit or regexMiss.
func (p *Proxy) scoreCell(row, col int) int {
	text := p.src.CellText(row, col)
	switch p.mode {
	case ModeRegex:
		if p.matcher.Matches(p.query, text) {
			return regexHit
		}
		return regexMiss
	case ModeFuzzy:
		return p.scorer.PartialRatio(p.query, text)
	default:
		return regexMiss
	}
}

// cachedScore returns the cached score for row. It reports false when the
// cache is cold or does not cover row.
func (p *Proxy) cachedScore(row int) (int, bool) {
	if row < 0 || row >= len(p.scores) {
		return 0, false
	}
	return p.scores[row], true
}
