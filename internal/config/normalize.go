package config

import "strings"

// normalize expands user paths and canonicalizes string fields in place.
func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.ResultsDir,
		&c.Paths.DataDir,
		&c.Paths.LogDir,
		&c.Handwriting.ImagesDir,
		&c.Handwriting.XMLDir,
		&c.Handwriting.PromptsFile,
		&c.Documents.ManifestPath,
		&c.Documents.PromptsFile,
		&c.Radiology.ManifestPath,
		&c.Radiology.PromptsFile,
	} {
		trimmed := strings.TrimSpace(*field)
		if trimmed == "" {
			*field = ""
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Radiology.Modality = strings.ToLower(strings.TrimSpace(c.Radiology.Modality))
	return nil
}
