package constants

// ConformityStatus is the canonical verdict for a criterion evaluation.
type ConformityStatus string

// Stable values (store these exact strings on disk).
const (
	StatusConforming    ConformityStatus = "CONFORMING"
	StatusNonConforming ConformityStatus = "NON_CONFORMING"
	StatusIndeterminate ConformityStatus = "INDETERMINATE"
	StatusError         ConformityStatus = "ERROR"
)

var allStatuses = []ConformityStatus{
	StatusConforming,
	StatusNonConforming,
	StatusIndeterminate,
	StatusError,
}

// StatusValues returns the allowed verdict vocabulary as strings.
func StatusValues() []string {
	out := make([]string, len(allStatuses))
	for i, s := range allStatuses {
		out[i] = string(s)
	}
	return out
}

// IsValid reports whether s belongs to the fixed verdict vocabulary.
func (s ConformityStatus) IsValid() bool {
	for _, v := range allStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Resolved reports whether a verdict counts as settled for export gating.
// Indeterminate and Error block the export, as does NonConforming.
func (s ConformityStatus) Resolved() bool {
	return s == StatusConforming || s == StatusNonConforming
}

// PendingToken marks a content-field value the extraction could not find;
// reviewers fill these in before export.
const PendingToken = "NAO-ENCONTRADO"

// ExportStage is the state of a project's export package.
type ExportStage string

const (
	StageNone      ExportStage = "NONE"
	StageDraft     ExportStage = "DRAFT"
	StageSigned    ExportStage = "SIGNED"
	StageAssembled ExportStage = "ASSEMBLED"
)
