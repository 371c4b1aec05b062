package dataset

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HandwritingSource pairs cropped handwriting images with IAM-style XML
// ground-truth files by shared file stem.
type HandwritingSource struct {
	ImagesDir string
	XMLDir    string
}

var handwritingImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Enumerate walks the images directory in name order and yields one item per
// image that has a matching XML transcription. Images without a transcription
// are silently skipped, matching how the source corpus is distributed.
func (s HandwritingSource) Enumerate() ([]Item, error) {
	entries, err := os.ReadDir(s.ImagesDir)
	if err != nil {
		return nil, fmt.Errorf("read images directory: %w", err)
	}

	var items []Item
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !handwritingImageExts[ext] {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		xmlPath := filepath.Join(s.XMLDir, stem+".xml")
		if _, err := os.Stat(xmlPath); err != nil {
			continue
		}
		groundTruth, err := ExtractIAMGroundTruth(xmlPath)
		if err != nil {
			return nil, fmt.Errorf("ground truth for %s: %w", name, err)
		}
		items = append(items, Item{
			ID:          stem,
			Domain:      "handwriting",
			ImagePaths:  []string{filepath.Join(s.ImagesDir, name)},
			GroundTruth: groundTruth,
		})
	}
	return items, nil
}

// ExtractIAMGroundTruth pulls the reference transcription out of an IAM
// database XML file: the text attributes of every word element at any depth,
// joined with spaces, falling back to line elements when no words carry text.
func ExtractIAMGroundTruth(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open xml: %w", err)
	}
	defer f.Close()

	var words, lines []string
	decoder := xml.NewDecoder(f)
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		var text string
		for _, attr := range start.Attr {
			if attr.Name.Local == "text" {
				text = strings.TrimSpace(attr.Value)
				break
			}
		}
		if text == "" {
			continue
		}
		switch start.Name.Local {
		case "word":
			words = append(words, text)
		case "line":
			lines = append(lines, text)
		}
	}

	if len(words) > 0 {
		return strings.Join(words, " "), nil
	}
	return strings.Join(lines, " "), nil
}
