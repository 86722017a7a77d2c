package entity

import (
	"sort"
	"time"

	"github.com/outorga-facil/filing-pipeline/constants"
)

// FileRef is one source file attached to a project category. UploadedAt
// fixes the deterministic category-then-upload ordering used by export.
type FileRef struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Project is the root aggregate. CurrentStep marks the furthest workflow
// progress and never decreases on save.
type Project struct {
	Name         string                                       `json:"name"`
	Files        map[constants.Category][]FileRef             `json:"files"`
	Extractions  map[constants.Category]*StructuredExtraction `json:"-"`
	Results      []CriterionResult                            `json:"-"`
	CurrentStep  int                                          `json:"currentStep"`
	CreatedAt    time.Time                                    `json:"createdAt"`
	LastModified time.Time                                    `json:"lastModified"`
}

// NewProject creates an empty project with the five fixed categories.
func NewProject(name string, now time.Time) *Project {
	files := make(map[constants.Category][]FileRef, 5)
	for _, cat := range constants.AllCategories() {
		files[cat] = nil
	}
	return &Project{
		Name:         name,
		Files:        files,
		Extractions:  make(map[constants.Category]*StructuredExtraction),
		CurrentStep:  1,
		CreatedAt:    now,
		LastModified: now,
	}
}

// SourceFiles returns the project's file references in category-then-upload
// order, the stable ordering used everywhere downstream.
func (p *Project) SourceFiles() []FileRef {
	var out []FileRef
	for _, cat := range constants.AllCategories() {
		refs := append([]FileRef(nil), p.Files[cat]...)
		sort.SliceStable(refs, func(i, j int) bool {
			return refs[i].UploadedAt.Before(refs[j].UploadedAt)
		})
		out = append(out, refs...)
	}
	return out
}

// ResultByID finds a criterion result by id, or nil.
func (p *Project) ResultByID(criterionID string) *CriterionResult {
	for i := range p.Results {
		if p.Results[i].CriterionID == criterionID {
			return &p.Results[i]
		}
	}
	return nil
}
