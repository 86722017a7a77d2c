package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/entity"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(context.Background(), Config{
		DSN: filepath.Join(dir, "filing.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndLoadProject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)
	assert.Equal(t, 1, created.CurrentStep)
	assert.Len(t, created.Files, 5)

	loaded, err := store.LoadProject(ctx, "radio-aurora")
	require.NoError(t, err)
	assert.Equal(t, "radio-aurora", loaded.Name)
	assert.Equal(t, 1, loaded.CurrentStep)
	assert.Empty(t, loaded.Results)
}

func TestLoadProjectNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadProject(context.Background(), "missing")
	require.Error(t, err)
}

func TestSaveProjectKeepsStepMonotone(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)

	p.CurrentStep = 3
	require.NoError(t, store.SaveProject(ctx, p))

	// A save with a lower step must not regress the stored value.
	p.CurrentStep = 2
	require.NoError(t, store.SaveProject(ctx, p))

	loaded, err := store.LoadProject(ctx, "radio-aurora")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.CurrentStep)
}

func TestSaveProjectPersistsFileRefs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)

	p.Files[constants.Statute] = append(p.Files[constants.Statute], entity.FileRef{
		ID:         "ref-1",
		Path:       "/docs/estatuto.pdf",
		UploadedAt: time.Now().UTC().Truncate(time.Second),
	})
	require.NoError(t, store.SaveProject(ctx, p))

	loaded, err := store.LoadProject(ctx, "radio-aurora")
	require.NoError(t, err)
	require.Len(t, loaded.Files[constants.Statute], 1)
	assert.Equal(t, "/docs/estatuto.pdf", loaded.Files[constants.Statute][0].Path)
}

func TestExtractionRoundTripAndUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	ex := &entity.StructuredExtraction{
		ContentFields:    map[string]string{"cnpj": "12.345.678/0001-00"},
		IgnoredFields:    map[string]string{"stamps": "carimbo"},
		ConsolidatedText: "12.345.678/0001-00",
		WorkflowUsed:     constants.Statute,
		ExtractedAt:      now,
		LastModified:     now,
	}
	require.NoError(t, store.SaveExtraction(ctx, "radio-aurora", constants.Statute, ex))

	loaded, err := store.LoadExtraction(ctx, "radio-aurora", constants.Statute)
	require.NoError(t, err)
	assert.Equal(t, "12.345.678/0001-00", loaded.ContentFields["cnpj"])
	assert.False(t, loaded.Reviewed)

	// Second save for the same (project, category) replaces the record.
	ex.Reviewed = true
	ex.ConsolidatedText = "edited"
	require.NoError(t, store.SaveExtraction(ctx, "radio-aurora", constants.Statute, ex))

	loaded, err = store.LoadExtraction(ctx, "radio-aurora", constants.Statute)
	require.NoError(t, err)
	assert.True(t, loaded.Reviewed)
	assert.Equal(t, "edited", loaded.ConsolidatedText)
}

func TestLoadExtractionNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)

	_, err = store.LoadExtraction(ctx, "radio-aurora", constants.Minutes)
	require.Error(t, err)
}

func TestSaveResultsOverwritesWholesale(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)

	first := []entity.CriterionResult{
		{CriterionID: "c1", Status: constants.StatusConforming, CheckedAt: time.Now().UTC()},
		{CriterionID: "c2", Status: constants.StatusNonConforming, CheckedAt: time.Now().UTC()},
	}
	require.NoError(t, store.SaveResults(ctx, "radio-aurora", first))

	second := []entity.CriterionResult{
		{CriterionID: "c3", Status: constants.StatusIndeterminate, CheckedAt: time.Now().UTC()},
	}
	require.NoError(t, store.SaveResults(ctx, "radio-aurora", second))

	loaded, err := store.LoadResults(ctx, "radio-aurora")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "c3", loaded[0].CriterionID)
}

func TestSaveResultReplacesSingleEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)

	require.NoError(t, store.SaveResults(ctx, "radio-aurora", []entity.CriterionResult{
		{CriterionID: "c1", Status: constants.StatusConforming, CheckedAt: time.Now().UTC()},
		{CriterionID: "c2", Status: constants.StatusConforming, CheckedAt: time.Now().UTC()},
	}))

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.SaveResult(ctx, "radio-aurora", entity.CriterionResult{
		CriterionID:   "c2",
		Status:        constants.StatusNonConforming,
		Justification: "manual decision",
		CheckedAt:     now,
		OverriddenAt:  &now,
	}))

	loaded, err := store.LoadResults(ctx, "radio-aurora")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	byID := map[string]entity.CriterionResult{}
	for _, r := range loaded {
		byID[r.CriterionID] = r
	}
	assert.Equal(t, constants.StatusConforming, byID["c1"].Status)
	assert.Equal(t, constants.StatusNonConforming, byID["c2"].Status)
	require.NotNil(t, byID["c2"].OverriddenAt)
}

func TestDeleteProjectRemovesEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)
	require.NoError(t, store.SaveExtraction(ctx, "radio-aurora", constants.Statute,
		&entity.StructuredExtraction{ContentFields: map[string]string{}, IgnoredFields: map[string]string{}}))
	require.NoError(t, store.SaveResults(ctx, "radio-aurora", []entity.CriterionResult{
		{CriterionID: "c1", Status: constants.StatusConforming, CheckedAt: time.Now().UTC()},
	}))

	require.NoError(t, store.DeleteProject(ctx, "radio-aurora"))

	_, err = store.LoadProject(ctx, "radio-aurora")
	require.Error(t, err)
}

func TestListProjects(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"radio-b", "radio-a"} {
		_, err := store.CreateProject(ctx, name)
		require.NoError(t, err)
	}

	names, err := store.ListProjects(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"radio-a", "radio-b"}, names)
}
