package textmetric_test

import (
	"math"
	"testing"

	"traceloom/internal/textmetric"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluateExactMatch(t *testing.T) {
	report := textmetric.Evaluate("A MOVE to stop", "a move to stop")
	if !report.ExactMatch {
		t.Fatalf("case differences must not count as errors: %+v", report)
	}
	if report.CharErrorRate != 0 || report.WordErrorRate != 0 || report.EditDistance != 0 {
		t.Fatalf("expected zero error rates: %+v", report)
	}
}

func TestEvaluateWhitespaceCollapsed(t *testing.T) {
	report := textmetric.Evaluate("first  line\n second", "first line second")
	if !report.ExactMatch {
		t.Fatalf("whitespace shape must not count as errors: %+v", report)
	}
}

func TestEvaluateUnicodeComposition(t *testing.T) {
	// "é" as a precomposed rune versus e + combining acute.
	report := textmetric.Evaluate("café", "café")
	if !report.ExactMatch {
		t.Fatalf("NFC-equivalent strings must match: %+v", report)
	}
}

func TestCharErrorRate(t *testing.T) {
	// "cat" vs "cut": one substitution over three characters.
	if got := textmetric.CharErrorRate("cat", "cut"); !approx(got, 1.0/3.0) {
		t.Fatalf("unexpected CER: %v", got)
	}
}

func TestWordErrorRate(t *testing.T) {
	// One substituted word out of four.
	got := textmetric.WordErrorRate("the quick brown fox", "the quick brown dog")
	if !approx(got, 0.25) {
		t.Fatalf("unexpected WER: %v", got)
	}
}

func TestEvaluateEmptyReference(t *testing.T) {
	report := textmetric.Evaluate("something", "")
	if !approx(report.CharErrorRate, 1) || !approx(report.WordErrorRate, 1) {
		t.Fatalf("prediction against empty reference must be fully wrong: %+v", report)
	}

	empty := textmetric.Evaluate("", "")
	if empty.CharErrorRate != 0 || !empty.ExactMatch {
		t.Fatalf("empty against empty must be a perfect match: %+v", empty)
	}
}

func TestEvaluateCompletelyDifferent(t *testing.T) {
	report := textmetric.Evaluate("abc", "xyzw")
	if !approx(report.CharErrorRate, 1) {
		t.Fatalf("expected full error rate, got %+v", report)
	}
	if report.EditDistance != 4 {
		t.Fatalf("unexpected edit distance: %d", report.EditDistance)
	}
}
