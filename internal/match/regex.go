// Package match provides the scoring functions used by the filter proxy:
// regular-expression matching and partial-ratio approximate matching.
package match

import (
	"io"
	"log/slog"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultRegexCacheSize bounds the number of compiled patterns kept around.
// Interactive typing produces one pattern per keystroke, so a small cache
// covers backspacing over recent input.
const defaultRegexCacheSize = 128

// RegexOptions configures a Regex matcher.
type RegexOptions struct {
	// CaseInsensitive prefixes every pattern with (?i).
	CaseInsensitive bool

	// CacheSize is the number of compiled patterns to keep.
	// Values <= 0 use the default.
	CacheSize int

	// Logger receives compile failures at debug level. Nil discards.
	Logger *slog.Logger
}

// compiled is a cache entry. A nil re records a pattern that failed to
// compile so the failure is reported only once.
type compiled struct {
	re  *regexp.Regexp
	err error
}

// Regex matches text against regular-expression patterns, caching compiled
// patterns. It is safe for concurrent use.
type Regex struct {
	cache           *lru.Cache[string, compiled]
	caseInsensitive bool
	logger          *slog.Logger
}

// NewRegex creates a regex matcher.
func NewRegex(opts RegexOptions) *Regex {
	size := opts.CacheSize
	if size <= 0 {
		size = defaultRegexCacheSize
	}
	cache, err := lru.New[string, compiled](size)
	if err != nil {
		// Should never happen with positive size, but fallback to default
		cache, _ = lru.New[string, compiled](defaultRegexCacheSize)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Regex{
		cache:           cache,
		caseInsensitive: opts.CaseInsensitive,
		logger:          logger,
	}
}

// Matches reports whether text contains a match of pattern.
// A malformed pattern matches nothing.
func (r *Regex) Matches(pattern, text string) bool {
	re, err := r.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// Compile returns the compiled form of pattern, consulting the cache first.
func (r *Regex) Compile(pattern string) (*regexp.Regexp, error) {
	if entry, ok := r.cache.Get(pattern); ok {
		return entry.re, entry.err
	}

	expr := pattern
	if r.caseInsensitive {
		expr = "(?i)" + pattern
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		r.logger.Debug("regex compile failed", "pattern", pattern, "error", err)
		re = nil
	}
	r.cache.Add(pattern, compiled{re: re, err: err})
	return re, err
}

// Len returns the number of cached patterns.
func (r *Regex) Len() int {
	return r.cache.Len()
}
