package entity

import (
	"sort"
	"strings"
	"time"

	"github.com/outorga-facil/filing-pipeline/constants"
)

// StructuredExtraction is the reviewable structured text for one category.
// ConsolidatedText is the source of truth for verification once reviewed.
// Field names are stable across versions; they match the persisted records.
type StructuredExtraction struct {
	ContentFields    map[string]string  `json:"contentFields"`
	IgnoredFields    map[string]string  `json:"ignoredFields"`
	ConsolidatedText string             `json:"consolidatedText"`
	WorkflowUsed     constants.Category `json:"workflowUsed"`
	ExtractedAt      time.Time          `json:"extractedAt"`
	LastModified     time.Time          `json:"lastModified"`
	Reviewed         bool               `json:"reviewed"`
}

// Consolidate joins all non-empty content-field values with blank-line
// separators, in the given field order for determinism.
func Consolidate(contentFields map[string]string, fieldOrder []string) string {
	var parts []string
	seen := make(map[string]struct{}, len(fieldOrder))
	for _, name := range fieldOrder {
		seen[name] = struct{}{}
		if v := strings.TrimSpace(contentFields[name]); v != "" {
			parts = append(parts, v)
		}
	}
	// Fields the AI returned beyond the taxonomy still count, appended last.
	var extra []string
	for name, v := range contentFields {
		if _, ok := seen[name]; ok {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		parts = append(parts, strings.TrimSpace(contentFields[name]))
	}
	return strings.Join(parts, "\n\n")
}

// HasContent reports whether the extraction carries any usable text.
func (e *StructuredExtraction) HasContent() bool {
	if e == nil {
		return false
	}
	if strings.TrimSpace(e.ConsolidatedText) != "" {
		return true
	}
	for _, v := range e.ContentFields {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
