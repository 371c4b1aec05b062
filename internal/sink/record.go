package sink

import (
	"strings"
	"time"
)

// Status represents the terminal outcome of one work item attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusSuccess, StatusError:
		return normalized, true
	default:
		return "", false
	}
}

// Metrics carries OCR accuracy figures for records with ground truth.
type Metrics struct {
	CharErrorRate float64 `json:"char_error_rate"`
	WordErrorRate float64 `json:"word_error_rate"`
}

// Record is the durable outcome of processing one work item. Records are
// appended exactly once per attempt and never mutated afterwards.
type Record struct {
	ItemID          string    `json:"item_id"`
	AttemptID       string    `json:"attempt_id"`
	Domain          string    `json:"domain,omitempty"`
	SourcePath      string    `json:"source_path,omitempty"`
	Status          Status    `json:"status"`
	Question        string    `json:"question,omitempty"`
	GroundTruth     string    `json:"ground_truth,omitempty"`
	Reasoning       string    `json:"reasoning,omitempty"`
	Response        string    `json:"response,omitempty"`
	ExtractedAnswer string    `json:"extracted_answer,omitempty"`
	QueryHistory    []string  `json:"query_history,omitempty"`
	ResponseHistory []string  `json:"response_history,omitempty"`
	StrategiesUsed  []string  `json:"strategies_used,omitempty"`
	Metrics         *Metrics  `json:"metrics,omitempty"`
	Error           string    `json:"error,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

// IsSuccess reports whether the record carries a success outcome.
func (r Record) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// SimplifiedRecord is the reduced-field projection of a success record used by
// downstream dataset consumers.
type SimplifiedRecord struct {
	ItemID         string   `json:"item_id"`
	SourcePath     string   `json:"source_path,omitempty"`
	Question       string   `json:"question"`
	Reasoning      string   `json:"reasoning"`
	Answer         string   `json:"answer"`
	GroundTruth    string   `json:"ground_truth,omitempty"`
	StrategiesUsed []string `json:"strategies_used,omitempty"`
	Metrics        *Metrics `json:"metrics,omitempty"`
}

// Simplify projects a record onto its simplified form.
func (r Record) Simplify() SimplifiedRecord {
	return SimplifiedRecord{
		ItemID:         r.ItemID,
		SourcePath:     r.SourcePath,
		Question:       r.Question,
		Reasoning:      r.Reasoning,
		Answer:         r.Response,
		GroundTruth:    r.GroundTruth,
		StrategiesUsed: r.StrategiesUsed,
		Metrics:        r.Metrics,
	}
}
