package match

// IndelDistance computes the insertion/deletion edit distance between two
// rune slices. Substitutions are not allowed, so the distance equals
// len(a) + len(b) - 2*LCS(a, b).
func IndelDistance(a, b []rune) int {
	return len(a) + len(b) - 2*LongestCommonSubsequence(a, b)
}

// LongestCommonSubsequence returns the length of the longest common
// subsequence of a and b.
func LongestCommonSubsequence(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Use two-row optimization to reduce memory
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		curr[0] = 0

		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}

		// Swap rows
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// NormalizedRatio returns the indel similarity of a and b scaled to
// [0, 100]. Two empty inputs are identical and score 100.
func NormalizedRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 100 * float64(total-IndelDistance(a, b)) / float64(total)
}
