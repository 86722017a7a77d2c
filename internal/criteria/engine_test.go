package criteria

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/ai"
	"github.com/outorga-facil/filing-pipeline/internal/common"
	"github.com/outorga-facil/filing-pipeline/internal/entity"
	"github.com/outorga-facil/filing-pipeline/internal/repository"
)

// fakeGenerator replays a canned verdict and counts structured calls so
// tests can assert the AI was, or was not, consulted.
type fakeGenerator struct {
	payload         json.RawMessage
	err             error
	structuredCalls int
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt, model string) (string, error) {
	return "ok", nil
}

func (f *fakeGenerator) GenerateStructured(ctx context.Context, prompt, model string) (json.RawMessage, error) {
	f.structuredCalls++
	return f.payload, f.err
}

func (f *fakeGenerator) GenerateStructuredMultimodal(ctx context.Context, prompt string, images []ai.ImagePart, model string) (json.RawMessage, error) {
	return f.payload, f.err
}

func (f *fakeGenerator) Probe(ctx context.Context, model string) error { return nil }

func newTestStore(t *testing.T) repository.ProjectStore {
	t.Helper()
	store, err := repository.Open(context.Background(), repository.Config{
		DSN: filepath.Join(t.TempDir(), "filing.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRules() []entity.Criterion {
	return []entity.Criterion{
		{
			ID:              "crit-objetivos",
			Title:           "Objetivos sociais compatíveis",
			SourceDocuments: []constants.Category{constants.Statute},
			Instruction:     "Verifique se os objetivos sociais incluem radiodifusão comunitária.",
		},
		{
			ID:              "crit-dirigentes",
			Title:           "Dirigentes eleitos em ata",
			SourceDocuments: []constants.Category{constants.Minutes, constants.Statute},
			Instruction:     "Verifique se a ata registra a eleição dos dirigentes.",
		},
	}
}

func seedReviewedText(t *testing.T, store repository.ProjectStore, cat constants.Category, text string) {
	t.Helper()
	require.NoError(t, store.SaveExtraction(context.Background(), "radio-aurora", cat,
		&entity.StructuredExtraction{
			ContentFields:    map[string]string{},
			IgnoredFields:    map[string]string{},
			ConsolidatedText: text,
			WorkflowUsed:     cat,
			Reviewed:         true,
		}))
}

func conformingVerdict() json.RawMessage {
	return json.RawMessage(`{"status": "CONFORMING", "justification": "atende ao requisito"}`)
}

func TestEvaluateAllStoresAllResults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)
	seedReviewedText(t, store, constants.Statute, "objetivos sociais: radiodifusao comunitaria")
	seedReviewedText(t, store, constants.Minutes, "ata da eleicao da diretoria")

	gen := &fakeGenerator{payload: conformingVerdict()}
	engine := NewEngine(store, gen, "model-x", testRules(), nil)

	results, err := engine.EvaluateAll(ctx, "radio-aurora")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "crit-objetivos", results[0].CriterionID, "results keep rule-database order")
	assert.Equal(t, "crit-dirigentes", results[1].CriterionID)
	for _, r := range results {
		assert.Equal(t, constants.StatusConforming, r.Status)
	}

	stored, err := store.LoadResults(ctx, "radio-aurora")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestInsufficientContextShortCircuit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)
	// No extraction stored at all: every criterion lacks context.

	gen := &fakeGenerator{payload: conformingVerdict()}
	engine := NewEngine(store, gen, "model-x", testRules(), nil)

	results, err := engine.EvaluateAll(ctx, "radio-aurora")
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, constants.StatusError, r.Status)
		assert.Contains(t, r.Justification, "insufficient context")
	}
	assert.Zero(t, gen.structuredCalls, "no AI call without any context")
}

func TestPartialContextStillCallsAI(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)
	// Statute reviewed, minutes absent: the two-source criterion still runs
	// on the one contributing text.
	seedReviewedText(t, store, constants.Statute, "objetivos sociais")

	gen := &fakeGenerator{payload: conformingVerdict()}
	engine := NewEngine(store, gen, "model-x", testRules(), nil)

	results, err := engine.EvaluateAll(ctx, "radio-aurora")
	require.NoError(t, err)
	assert.Equal(t, 2, gen.structuredCalls)
	for _, r := range results {
		assert.Equal(t, constants.StatusConforming, r.Status)
	}
}

func TestMalformedVerdictBecomesError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)
	seedReviewedText(t, store, constants.Statute, "texto")
	seedReviewedText(t, store, constants.Minutes, "texto")

	gen := &fakeGenerator{payload: json.RawMessage(`{"unexpected": true}`)}
	engine := NewEngine(store, gen, "model-x", testRules(), nil)

	results, err := engine.EvaluateAll(ctx, "radio-aurora")
	require.NoError(t, err, "a format mismatch must never fail the batch")
	for _, r := range results {
		assert.Equal(t, constants.StatusError, r.Status)
	}
}

func TestEvaluateOneLeavesOthersUntouched(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)
	seedReviewedText(t, store, constants.Statute, "texto")
	seedReviewedText(t, store, constants.Minutes, "texto")

	gen := &fakeGenerator{payload: conformingVerdict()}
	engine := NewEngine(store, gen, "model-x", testRules(), nil)

	_, err = engine.EvaluateAll(ctx, "radio-aurora")
	require.NoError(t, err)
	before, err := store.LoadResults(ctx, "radio-aurora")
	require.NoError(t, err)

	gen.payload = json.RawMessage(`{"status": "NON_CONFORMING", "justification": "faltou registro"}`)
	result, err := engine.EvaluateOne(ctx, "radio-aurora", "crit-dirigentes")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusNonConforming, result.Status)

	after, err := store.LoadResults(ctx, "radio-aurora")
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for _, r := range after {
		if r.CriterionID == "crit-dirigentes" {
			assert.Equal(t, constants.StatusNonConforming, r.Status)
			continue
		}
		assert.Equal(t, constants.StatusConforming, r.Status, "other results must not change")
	}
}

func TestEvaluateOneUnknownCriterion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)

	engine := NewEngine(store, &fakeGenerator{}, "model-x", testRules(), nil)
	_, err = engine.EvaluateOne(ctx, "radio-aurora", "no-such-rule")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestOverrideRequiresPriorResult(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)

	engine := NewEngine(store, &fakeGenerator{}, "model-x", testRules(), nil)
	err = engine.Override(ctx, "radio-aurora", "crit-objetivos", constants.StatusConforming, "ok")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestOverrideSurvivesEvaluateAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)
	seedReviewedText(t, store, constants.Statute, "texto")
	seedReviewedText(t, store, constants.Minutes, "texto")

	gen := &fakeGenerator{payload: json.RawMessage(`{"status": "NON_CONFORMING", "justification": "automatico"}`)}
	engine := NewEngine(store, gen, "model-x", testRules(), nil)

	_, err = engine.EvaluateAll(ctx, "radio-aurora")
	require.NoError(t, err)

	require.NoError(t, engine.Override(ctx, "radio-aurora", "crit-objetivos",
		constants.StatusConforming, "documento complementar apresentado"))

	// A full re-run must not silently revert the human decision.
	results, err := engine.EvaluateAll(ctx, "radio-aurora")
	require.NoError(t, err)

	var overridden *entity.CriterionResult
	for i := range results {
		if results[i].CriterionID == "crit-objetivos" {
			overridden = &results[i]
		}
	}
	require.NotNil(t, overridden)
	assert.Equal(t, constants.StatusConforming, overridden.Status)
	assert.Equal(t, "documento complementar apresentado", overridden.Justification)
	require.NotNil(t, overridden.OverriddenAt)

	// An explicit single re-evaluation is the one thing that clears it.
	recomputed, err := engine.EvaluateOne(ctx, "radio-aurora", "crit-objetivos")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusNonConforming, recomputed.Status)
	assert.Nil(t, recomputed.OverriddenAt)
}

func TestOverrideRejectsUnknownStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)

	engine := NewEngine(store, &fakeGenerator{}, "model-x", testRules(), nil)
	err = engine.Override(ctx, "radio-aurora", "crit-objetivos", constants.ConformityStatus("MAYBE"), "x")
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestOverrideNeverCallsAI(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.CreateProject(ctx, "radio-aurora")
	require.NoError(t, err)
	seedReviewedText(t, store, constants.Statute, "texto")
	seedReviewedText(t, store, constants.Minutes, "texto")

	gen := &fakeGenerator{payload: conformingVerdict()}
	engine := NewEngine(store, gen, "model-x", testRules(), nil)
	_, err = engine.EvaluateAll(ctx, "radio-aurora")
	require.NoError(t, err)
	calls := gen.structuredCalls

	require.NoError(t, engine.Override(ctx, "radio-aurora", "crit-objetivos",
		constants.StatusNonConforming, "decisao manual"))
	assert.Equal(t, calls, gen.structuredCalls)
}
