package entity

import (
	"time"

	"github.com/outorga-facil/filing-pipeline/constants"
)

// Criterion is one compliance rule from the rule database. Criteria are
// read-only at runtime.
type Criterion struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	Category        string               `json:"category"`
	SourceDocuments []constants.Category `json:"source_documents"`
	Instruction     string               `json:"prompt_instruction"`

	// Check names a specialized deterministic sub-check ("mandate_validity")
	// replacing the generic AI judgment for this criterion. Empty for the
	// default flow.
	Check string `json:"check,omitempty"`
}

// CriterionResult is the verdict for one criterion in one project.
// OverriddenAt is set only by a manual override; an override is sticky
// against automatic re-runs until that criterion is re-evaluated explicitly.
type CriterionResult struct {
	CriterionID   string                     `json:"id"`
	Title         string                     `json:"title,omitempty"`
	Status        constants.ConformityStatus `json:"status"`
	Justification string                     `json:"justification"`
	CheckedAt     time.Time                  `json:"checkedAt"`
	OverriddenAt  *time.Time                 `json:"overriddenAt,omitempty"`
}

// Overridden reports whether this result was set by a human.
func (r *CriterionResult) Overridden() bool {
	return r.OverriddenAt != nil
}
