// Package dataset enumerates the work items a batch run processes.
//
// Each domain has its own source: handwriting pairs cropped images with IAM
// XML transcriptions, documents and radiology read JSON manifests. All
// sources enumerate deterministically so item identifiers line up across
// resumed runs.
package dataset
