package pipeline

import (
	"strings"
	"testing"
)

func TestExtractConclusionBlock(t *testing.T) {
	text := "Some inner thinking here.\n\n**Final Conclusion**: The ledger entry reads forty-two pounds.\n\n**Verification**\nChecked against the strokes."
	got := ExtractConclusion(text, ContentOCR)
	if got != "The ledger entry reads forty-two pounds." {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestExtractConclusionBlockWithQuotedHeading(t *testing.T) {
	text := "**'Final Conclusion'**: The patient shows a left lower lobe opacity.\n\n**'Verification'**\nRe-checked."
	got := ExtractConclusion(text, ContentMedical)
	if got != "The patient shows a left lower lobe opacity." {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestExtractConclusionOCRTranscribedLead(t *testing.T) {
	text := "**Final Conclusion**: The transcribed text is as follows:\nA MOVE to stop Mr. Gaitskell"
	got := ExtractConclusion(text, ContentOCR)
	if got != "A MOVE to stop Mr. Gaitskell" {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestExtractConclusionOCRPatterns(t *testing.T) {
	text := "I examined the page closely.\n\nTranscription: the quick brown fox jumps over\n\nThat is my reading."
	got := ExtractConclusion(text, ContentOCR)
	if got != "the quick brown fox jumps over" {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestExtractConclusionMedicalPatterns(t *testing.T) {
	text := "Reviewing the image.\n\nFindings: consolidation in the right middle lobe\n\nEnd of report."
	got := ExtractConclusion(text, ContentMedical)
	if got != "consolidation in the right middle lobe" {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestExtractConclusionQuotedFallback(t *testing.T) {
	text := `I believe the sign says "Welcome to the annual village fair" based on the lettering.`
	got := ExtractConclusion(text, ContentGeneral)
	if got != "Welcome to the annual village fair" {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestExtractConclusionParagraphFallbackSkipsNarration(t *testing.T) {
	text := "Okay, let me look at this image carefully.\n\nThe document is an invoice from Acme Corporation dated March 1952 listing three items.\n\nWait, I should double check the date."
	got := ExtractConclusion(text, ContentGeneral)
	if !strings.HasPrefix(got, "The document is an invoice") {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestExtractConclusionShortTextVerbatim(t *testing.T) {
	if got := ExtractConclusion("short answer", ContentGeneral); got != "short answer" {
		t.Fatalf("unexpected extraction: %q", got)
	}
	if got := ExtractConclusion("   ", ContentGeneral); got != "" {
		t.Fatalf("expected empty for blank input, got %q", got)
	}
}

func TestContentTypeFor(t *testing.T) {
	if contentTypeFor("radiology") != ContentMedical {
		t.Fatal("radiology must use medical patterns")
	}
	if contentTypeFor("handwriting") != ContentOCR || contentTypeFor("documents") != ContentOCR {
		t.Fatal("text domains must use ocr patterns")
	}
	if contentTypeFor("other") != ContentGeneral {
		t.Fatal("unknown domains must use general patterns")
	}
}
