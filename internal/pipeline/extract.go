package pipeline

import (
	"regexp"
	"strings"
)

// ContentType selects which extraction patterns apply to a model response.
type ContentType string

const (
	ContentOCR     ContentType = "ocr"
	ContentMedical ContentType = "medical"
	ContentGeneral ContentType = "general"
)

var (
	conclusionBlockRe = regexp.MustCompile(`(?is)\*\*'?Final Conclusion'?\*\*:?\s*(.*?)(?:\n\n\*\*'?Verification'?\*\*|\*\*'?Verification'?\*\*|$)`)
	transcribedLeadRe = regexp.MustCompile(`(?is)^The transcribed text.*?(?:is|are).*?(?:as )?follows?:\s*\n*(.*)`)
	boldMarkupRe      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicMarkupRe    = regexp.MustCompile(`\*([^*]+)\*`)
	quoteRe           = regexp.MustCompile(`"([^"]+)"`)

	ocrPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)(?:transcription|transcribed text|extracted text|final transcription):\s*(.*?)(?:\n\n|\z)`),
		regexp.MustCompile(`(?is)(?:the text (?:in the image )?(?:reads?|says?)):\s*(.*?)(?:\n\n|\z)`),
		regexp.MustCompile(`(?is)(?:handwritten text|visible text|text content):\s*(.*?)(?:\n\n|\z)`),
	}
	medicalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)(?:final diagnosis|diagnosis:|findings?:|conclusion:)\s*(.*?)(?:\n\n|\z)`),
		regexp.MustCompile(`(?is)(?:the patient.*?has|consistent with|diagnosis.*?is)\s+(.*?)(?:\.|$)`),
		regexp.MustCompile(`(?is)(?:therefore|thus|in conclusion),?\s*(.*?)(?:\n\n|\z)`),
	}
	generalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)(?:final conclusion|in conclusion|therefore|thus|to conclude|in summary):\s*(.*?)(?:\n\n|\z)`),
		regexp.MustCompile(`(?is)(?:the answer is|my answer is|i conclude that):\s*(.*?)(?:\n\n|\z)`),
	}

	// Paragraphs dominated by these phrases are reasoning narration, not the
	// answer itself.
	metaPhrases = []string{
		"inner thinking", "verification", "let me", "okay", "now",
		"wait", "hmm", "alright", "putting it all together",
	}
)

// ExtractConclusion pulls the answer out of a reasoning-style model response.
// It prefers an explicit Final Conclusion block, then content-type specific
// answer phrasings, then quoted content, and finally the longest paragraph
// that is not reasoning narration.
func ExtractConclusion(text string, contentType ContentType) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if strings.Contains(text, "**'Final Conclusion'**") || strings.Contains(text, "**Final Conclusion**") {
		if match := conclusionBlockRe.FindStringSubmatch(text); match != nil {
			result := strings.TrimSpace(match[1])
			if contentType == ContentOCR {
				if lead := transcribedLeadRe.FindStringSubmatch(result); lead != nil {
					if body := strings.TrimSpace(lead[1]); body != "" {
						return body
					}
				}
			}
			result = boldMarkupRe.ReplaceAllString(result, "$1")
			result = italicMarkupRe.ReplaceAllString(result, "$1")
			if len(result) > 10 {
				return result
			}
		}
	}

	var patterns []*regexp.Regexp
	switch contentType {
	case ContentOCR:
		patterns = ocrPatterns
	case ContentMedical:
		patterns = medicalPatterns
	}
	for _, re := range append(patterns, generalPatterns...) {
		if match := re.FindStringSubmatch(text); match != nil {
			if result := strings.TrimSpace(match[1]); len(result) > 10 {
				return result
			}
		}
	}

	if quotes := quoteRe.FindAllStringSubmatch(text, -1); len(quotes) > 0 {
		longest := ""
		for _, q := range quotes {
			if len(q[1]) > len(longest) {
				longest = q[1]
			}
		}
		if len(longest) > 20 {
			return longest
		}
	}

	if answer := longestSubstantiveParagraph(text); answer != "" {
		return answer
	}

	if runes := []rune(text); len(runes) > 200 {
		return strings.TrimSpace(string(runes[len(runes)-200:]))
	}
	return text
}

func longestSubstantiveParagraph(text string) string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return ""
	}

	longest := ""
	for _, p := range paragraphs {
		lower := strings.ToLower(p)
		meta := false
		for _, phrase := range metaPhrases {
			if strings.Contains(lower, phrase) {
				meta = true
				break
			}
		}
		if !meta && len(p) > len(longest) {
			longest = p
		}
	}
	if longest != "" {
		return longest
	}
	return paragraphs[len(paragraphs)-1]
}
