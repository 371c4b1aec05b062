package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// RadiologySource enumerates scraped radiology cases from a JSON manifest,
// optionally filtered by imaging modality.
type RadiologySource struct {
	ManifestPath string
	// Modality keeps only cases of a given kind (x-ray, ct, mri, mammogram).
	// Empty keeps everything.
	Modality string
}

type radiologyCase struct {
	CaseID     string   `json:"case_id"`
	Modality   string   `json:"modality"`
	ImagePaths []string `json:"image_paths"`
	Question   string   `json:"question"`
	Report     string   `json:"report"`
}

// Enumerate reads the manifest in file order, one item per case with at
// least one image.
func (s RadiologySource) Enumerate() ([]Item, error) {
	data, err := os.ReadFile(s.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("read radiology manifest: %w", err)
	}
	var cases []radiologyCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parse radiology manifest: %w", err)
	}

	var items []Item
	for i, c := range cases {
		if s.Modality != "" && !strings.EqualFold(c.Modality, s.Modality) {
			continue
		}
		if len(c.ImagePaths) == 0 {
			return nil, fmt.Errorf("radiology manifest entry %d: no images", i)
		}
		id := strings.TrimSpace(c.CaseID)
		if id == "" {
			id = fmt.Sprintf("case-%04d", i)
		}
		items = append(items, Item{
			ID:          id,
			Domain:      "radiology",
			ImagePaths:  c.ImagePaths,
			Question:    c.Question,
			GroundTruth: c.Report,
			Modality:    c.Modality,
		})
	}
	return items, nil
}
