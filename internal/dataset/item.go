package dataset

// Item is one unit of batch work. Items are immutable once enumerated; the
// ID is the identity the progress ledger tracks across interrupted runs, so
// enumeration must be deterministic for resumption to line up.
type Item struct {
	// ID is stable across runs for the same source material.
	ID string
	// Domain labels which dataset family produced the item.
	Domain string
	// ImagePaths holds the local image files fed to the multimodal model.
	// The first path is the primary image.
	ImagePaths []string
	// Question is pre-authored for manifest-backed domains and empty for
	// domains that generate questions at pipeline time.
	Question string
	// GroundTruth is the reference answer or transcription, when known.
	GroundTruth string
	// Modality tags radiology items (x-ray, ct, mri, mammogram).
	Modality string
	// Granularity tags document QA pairs (word, line, paragraph, page).
	Granularity string
}

// Limit returns at most n items from the front of the enumeration order.
// n <= 0 means no limit.
func Limit(items []Item, n int) []Item {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}
