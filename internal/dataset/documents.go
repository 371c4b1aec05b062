package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DocumentsSource enumerates pre-authored OCR question/answer pairs from a
// JSON manifest, optionally filtered by text granularity.
type DocumentsSource struct {
	ManifestPath string
	// Granularity keeps only pairs at a given level (word, line, paragraph,
	// page). Empty keeps everything.
	Granularity string
}

// documentQAPair mirrors the manifest entries the upstream data preparation
// emits; the question and answer keys are verbatim from that format.
type documentQAPair struct {
	ProcessID   string   `json:"process_id"`
	Question    string   `json:"Open-ended Verifiable Question"`
	Answer      string   `json:"Ground-True Answer"`
	ImageURLs   []string `json:"img_urls"`
	Granularity string   `json:"granularity"`
}

// Enumerate reads the manifest in file order. Pairs without a question or an
// image are malformed and rejected rather than skipped, so a truncated
// manifest is noticed before a batch burns model calls on it.
func (s DocumentsSource) Enumerate() ([]Item, error) {
	data, err := os.ReadFile(s.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("read documents manifest: %w", err)
	}
	var pairs []documentQAPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parse documents manifest: %w", err)
	}

	var items []Item
	for i, pair := range pairs {
		if s.Granularity != "" && !strings.EqualFold(pair.Granularity, s.Granularity) {
			continue
		}
		if strings.TrimSpace(pair.Question) == "" {
			return nil, fmt.Errorf("documents manifest entry %d: no question", i)
		}
		if len(pair.ImageURLs) == 0 {
			return nil, fmt.Errorf("documents manifest entry %d: no images", i)
		}
		id := strings.TrimSpace(pair.ProcessID)
		if id == "" {
			id = fmt.Sprintf("doc-%04d", i)
		}
		items = append(items, Item{
			ID:          id,
			Domain:      "documents",
			ImagePaths:  pair.ImageURLs,
			Question:    pair.Question,
			GroundTruth: pair.Answer,
			Granularity: pair.Granularity,
		})
	}
	return items, nil
}
