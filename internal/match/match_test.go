package match

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLongestCommonSubsequence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 0},
		{"abc", "abc", 3},
		{"abc", "axbxc", 3},
		{"apple", "banan", 1},
		{"kitten", "sitting", 4},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, LongestCommonSubsequence([]rune(tt.a), []rune(tt.b)))
			assert.Equal(t, tt.want, LongestCommonSubsequence([]rune(tt.b), []rune(tt.a)))
		})
	}
}

func TestIndelDistance(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, IndelDistance([]rune("abc"), []rune("abc")))
	assert.Equal(t, 2, IndelDistance([]rune("abc"), []rune("abd")))
	assert.Equal(t, 3, IndelDistance(nil, []rune("abc")))
}

func TestNormalizedRatio(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 100.0, NormalizedRatio(nil, nil), 0.001)
	assert.InDelta(t, 100.0, NormalizedRatio([]rune("same"), []rune("same")), 0.001)
	assert.InDelta(t, 0.0, NormalizedRatio([]rune("abc"), []rune("xyz")), 0.001)
	assert.InDelta(t, 20.0, NormalizedRatio([]rune("apple"), []rune("banan")), 0.001)
}

func TestPartialRatio(t *testing.T) {
	t.Parallel()

	scorer := NewPartialRatio(false)

	tests := []struct {
		name        string
		query, text string
		want        int
	}{
		{"exact", "apple", "apple", 100},
		{"substring", "apple", "apple pie", 100},
		{"substring suffix", "sauce", "applesauce", 100},
		{"needle longer than text", "apple pie", "apple", 100},
		{"unrelated", "apple", "banana", 33},
		{"no shared runes", "apple", "x", 0},
		{"case folded", "APPLE", "apple pie", 100},
		{"both empty", "", "", 100},
		{"empty query", "", "apple", 0},
		{"empty text", "apple", "", 0},
		{"one deletion", "aple", "an apple a day", 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, scorer.PartialRatio(tt.query, tt.text))
		})
	}
}

func TestPartialRatioEqualLengthIsSymmetric(t *testing.T) {
	t.Parallel()

	scorer := NewPartialRatio(true)

	tests := []struct {
		a, b string
		want int
	}{
		{"aaaa", "abba", 66},
		{"aaa", "aba", 80},
		{"abc", "abc", 100},
		{"abc", "xyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, scorer.PartialRatio(tt.a, tt.b))
			assert.Equal(t, tt.want, scorer.PartialRatio(tt.b, tt.a))
		})
	}
}

func TestPartialRatioCaseSensitive(t *testing.T) {
	t.Parallel()

	scorer := NewPartialRatio(true)
	assert.Equal(t, 100, scorer.PartialRatio("apple", "apple pie"))
	assert.Less(t, scorer.PartialRatio("APPLE", "apple pie"), 100)
}

func TestPartialRatioNormalization(t *testing.T) {
	t.Parallel()

	scorer := NewPartialRatio(false)
	// precomposed "\u00e9" against "e" followed by a combining acute accent
	assert.Equal(t, 100, scorer.PartialRatio("caf\u00e9", "le cafe\u0301 noir"))
}

func TestPartialRatioBounds(t *testing.T) {
	t.Parallel()

	scorer := NewPartialRatio(false)
	inputs := []string{"", "a", "apple", "banana", "日本語", "zzzzzzzzzzzzzzzz", "Straße"}
	for _, q := range inputs {
		for _, s := range inputs {
			got := scorer.PartialRatio(q, s)
			assert.GreaterOrEqual(t, got, 0, "%q vs %q", q, s)
			assert.LessOrEqual(t, got, 100, "%q vs %q", q, s)
		}
	}
}

func TestRegexMatches(t *testing.T) {
	t.Parallel()

	re := NewRegex(RegexOptions{})

	assert.True(t, re.Matches(`^app`, "apple"))
	assert.True(t, re.Matches(`\d+`, "row 42"))
	assert.False(t, re.Matches(`^pie`, "apple pie"))
	assert.False(t, re.Matches(`APPLE`, "apple"))
}

func TestRegexCaseInsensitive(t *testing.T) {
	t.Parallel()

	re := NewRegex(RegexOptions{CaseInsensitive: true})
	assert.True(t, re.Matches(`APPLE`, "apple"))
}

func TestRegexMalformedPatternMatchesNothing(t *testing.T) {
	t.Parallel()

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	re := NewRegex(RegexOptions{Logger: logger})

	assert.False(t, re.Matches(`(unclosed`, "(unclosed"))
	assert.False(t, re.Matches(`(unclosed`, "anything"))

	_, err := re.Compile(`(unclosed`)
	require.Error(t, err)

	// The failure is cached, so it is logged only once.
	assert.Equal(t, 1, bytes.Count(logBuf.Bytes(), []byte("regex compile failed")))
}

func TestRegexCacheBounded(t *testing.T) {
	t.Parallel()

	re := NewRegex(RegexOptions{CacheSize: 2})
	re.Matches("a", "a")
	re.Matches("b", "b")
	re.Matches("c", "c")
	assert.Equal(t, 2, re.Len())
}

func TestRegexConcurrentUse(t *testing.T) {
	t.Parallel()

	re := NewRegex(RegexOptions{CacheSize: 4})
	patterns := []string{"a", "b+", "^c", "d$", "[ef]"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				re.Matches(patterns[(i+j)%len(patterns)], "abcdef")
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, re.Len(), 4)
}
