package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outorga-facil/filing-pipeline/constants"
)

func TestNewProjectHasAllCategories(t *testing.T) {
	p := NewProject("radio-aurora", time.Now().UTC())
	require.Len(t, p.Files, 5)
	assert.Equal(t, 1, p.CurrentStep)
}

func TestSourceFilesCategoryThenUploadOrder(t *testing.T) {
	base := time.Now().UTC()
	p := NewProject("radio-aurora", base)

	p.Files[constants.Minutes] = []FileRef{
		{ID: "a2", Path: "ata2.pdf", UploadedAt: base.Add(2 * time.Hour)},
		{ID: "a1", Path: "ata1.pdf", UploadedAt: base.Add(time.Hour)},
	}
	p.Files[constants.Statute] = []FileRef{
		{ID: "s1", Path: "estatuto.pdf", UploadedAt: base.Add(5 * time.Hour)},
	}

	var got []string
	for _, ref := range p.SourceFiles() {
		got = append(got, ref.ID)
	}
	assert.Equal(t, []string{"s1", "a1", "a2"}, got,
		"statute precedes minutes regardless of upload time; within a category oldest first")
}

func TestResultByID(t *testing.T) {
	p := NewProject("radio-aurora", time.Now().UTC())
	p.Results = []CriterionResult{
		{CriterionID: "c1", Status: constants.StatusConforming},
		{CriterionID: "c2", Status: constants.StatusError},
	}

	r := p.ResultByID("c2")
	require.NotNil(t, r)
	assert.Equal(t, constants.StatusError, r.Status)
	assert.Nil(t, p.ResultByID("c9"))
}
