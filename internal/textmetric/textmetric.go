package textmetric

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Report is the accuracy assessment of an extracted answer against its
// reference text.
type Report struct {
	CharErrorRate float64
	WordErrorRate float64
	ExactMatch    bool
	EditDistance  int
}

var foldCaser = cases.Fold()

// Normalize prepares a string for comparison: Unicode NFC, case folding, and
// whitespace collapsing. Scanned-text pipelines produce inconsistent
// composition and casing that should not count as OCR errors.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = foldCaser.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Evaluate computes character and word error rates between a predicted string
// and the reference, after normalization.
func Evaluate(predicted, reference string) Report {
	predicted = Normalize(predicted)
	reference = Normalize(reference)

	distance := levenshtein([]rune(predicted), []rune(reference))
	return Report{
		CharErrorRate: errorRate(distance, len([]rune(predicted)), len([]rune(reference))),
		WordErrorRate: wordErrorRate(predicted, reference),
		ExactMatch:    predicted == reference,
		EditDistance:  distance,
	}
}

// CharErrorRate is the normalized character-level edit distance in [0, 1].
func CharErrorRate(predicted, reference string) float64 {
	return Evaluate(predicted, reference).CharErrorRate
}

// WordErrorRate is the normalized word-level edit distance in [0, 1].
func WordErrorRate(predicted, reference string) float64 {
	return Evaluate(predicted, reference).WordErrorRate
}

func wordErrorRate(predicted, reference string) float64 {
	predWords := strings.Fields(predicted)
	refWords := strings.Fields(reference)
	distance := levenshtein(predWords, refWords)
	return errorRate(distance, len(predWords), len(refWords))
}

// errorRate divides the edit distance by the longer of the two lengths. Both
// sides empty means a perfect match.
func errorRate(distance, lenA, lenB int) float64 {
	longest := max(lenA, lenB)
	if longest == 0 {
		return 0
	}
	rate := float64(distance) / float64(longest)
	if rate > 1 {
		return 1
	}
	return rate
}

// levenshtein computes edit distance over any comparable sequence with the
// usual two-row dynamic program.
func levenshtein[T comparable](a, b []T) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
