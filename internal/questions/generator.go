package questions

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"strconv"
)

// Difficulty selects which question categories a generator draws from.
type Difficulty string

const (
	DifficultyBasic        Difficulty = "basic"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Question categories, roughly ordered by how much reasoning they demand.
const (
	CategoryBasicExtraction  = "basic_extraction"
	CategorySpecificElements = "specific_elements"
	CategoryStructural       = "structural_analysis"
	CategoryContextual       = "contextual_understanding"
	CategoryDetailed         = "detailed_analysis"
	CategoryChallenging      = "challenging_scenarios"
)

var templates = map[string][]string{
	CategoryBasicExtraction: {
		"What is all the text visible in this image?",
		"Please extract all readable text from this image.",
		"Transcribe all text content shown in the image.",
		"What text can you see in this image?",
	},
	CategorySpecificElements: {
		"What are the main headings or titles visible in this image?",
		"List all numbers or numerical values shown in the image.",
		"What labels or captions are present in this image?",
		"Identify any website URLs, email addresses, or contact information in the image.",
		"What brand names, logos, or company names are visible?",
	},
	CategoryStructural: {
		"Describe the layout and organization of text in this image.",
		"What is the reading order of the text elements in this image?",
		"How is the text structured or formatted in this image?",
		"What different text styles or fonts are used in this image?",
	},
	CategoryContextual: {
		"What type of document or content does this image appear to show?",
		"Based on the text visible, what is this image primarily about?",
		"What key information can be extracted from the text in this image?",
		"Summarize the main content based on the visible text.",
	},
	CategoryDetailed: {
		"Provide a detailed transcription preserving the original text layout.",
		"Extract all text while maintaining the spatial relationships between elements.",
		"Transcribe the text and describe its visual presentation.",
		"What text is present and how is it visually organized?",
	},
	CategoryChallenging: {
		"What text is visible, including any that might be partially obscured or difficult to read?",
		"Identify all text elements, including watermarks, stamps, or background text.",
		"Extract text from all areas of the image, including margins and corners.",
		"What text can you detect, even if it's small, faded, or at unusual angles?",
	},
}

var difficultyCategories = map[Difficulty][]string{
	DifficultyBasic:        {CategoryBasicExtraction},
	DifficultyIntermediate: {CategorySpecificElements, CategoryStructural},
	DifficultyAdvanced:     {CategoryContextual, CategoryDetailed, CategoryChallenging},
}

// Generator produces OCR questions. Each draw derives its randomness from the
// generator seed plus a caller-supplied key, so a given seed and key always
// yield the same question regardless of call order. That keeps resumed runs
// aligned with their first pass even when items are processed concurrently,
// and makes the generator safe for concurrent use.
type Generator struct {
	seed int64
}

// NewGenerator builds a generator from a seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{seed: seed}
}

func (g *Generator) rngFor(key string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(key))
	return rand.New(rand.NewSource(g.seed ^ int64(h.Sum64())))
}

// Generate picks a question for the difficulty tier, determined by the
// generator seed and key.
func (g *Generator) Generate(key string, level Difficulty) (string, error) {
	categories, ok := difficultyCategories[level]
	if !ok {
		return "", fmt.Errorf("unknown difficulty %q", level)
	}
	rng := g.rngFor(key)
	category := categories[rng.Intn(len(categories))]
	pool := templates[category]
	return pool[rng.Intn(len(pool))], nil
}

// GenerateFromCategory picks a question from a specific category.
func (g *Generator) GenerateFromCategory(key, category string) (string, error) {
	pool, ok := templates[category]
	if !ok {
		return "", fmt.Errorf("unknown question category %q", category)
	}
	return pool[g.rngFor(key).Intn(len(pool))], nil
}

// ForIndex cycles difficulty tiers across a batch the way the upstream test
// sets were built: every sixth item basic, every sixth intermediate, the rest
// advanced.
func (g *Generator) ForIndex(i int) (string, error) {
	key := strconv.Itoa(i)
	switch i % 6 {
	case 0:
		return g.Generate(key, DifficultyBasic)
	case 1:
		return g.Generate(key, DifficultyIntermediate)
	default:
		return g.Generate(key, DifficultyAdvanced)
	}
}

// Categorize reports which category a question belongs to, or "" when it is
// not one of the known templates.
func Categorize(question string) string {
	for category, pool := range templates {
		for _, candidate := range pool {
			if candidate == question {
				return category
			}
		}
	}
	return ""
}

// Categories lists the known question categories, sorted.
func Categories() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
