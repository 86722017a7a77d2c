// Package extraction converts a category's source files into reviewable
// structured text: a text path for documents with a text layer, an image
// path for fully scanned ones.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/ai"
	"github.com/outorga-facil/filing-pipeline/internal/common"
	"github.com/outorga-facil/filing-pipeline/internal/docfmt"
	"github.com/outorga-facil/filing-pipeline/internal/entity"
	"github.com/outorga-facil/filing-pipeline/internal/repository"
	"github.com/outorga-facil/filing-pipeline/internal/taxonomy"
)

// stepExtracted is the workflow progress mark set once any category has a
// stored extraction.
const stepExtracted = 2

// Engine runs primary and secondary extraction. All collaborators come in
// through the constructor so tests can substitute fakes.
type Engine struct {
	store   repository.ProjectStore
	formats docfmt.ContentExtractor
	gen     ai.Generator
	model   string
	logger  *slog.Logger
}

func NewEngine(store repository.ProjectStore, formats docfmt.ContentExtractor, gen ai.Generator, model string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, formats: formats, gen: gen, model: model, logger: logger}
}

type extractionPayload struct {
	ContentFields map[string]string `json:"content_fields"`
	IgnoredFields map[string]string `json:"ignored_fields"`
}

// RunExtraction executes the full extraction flow for one category and
// persists the result. A reviewed extraction is never regenerated unless
// force marks the call as an explicit re-extraction request. Nothing is
// written to the store until both the format conversion and the AI call
// have returned in full.
func (e *Engine) RunExtraction(ctx context.Context, projectName string, cat constants.Category, force bool) (*entity.StructuredExtraction, error) {
	start := time.Now()
	e.logger.Info("extract.start", "project", projectName, "category", cat)

	wf, ok := taxonomy.ForCategory(cat)
	if !ok {
		return nil, common.NewAppError("BAD_CATEGORY", "unknown category "+string(cat), common.ErrInvalidInput)
	}

	project, err := e.store.LoadProject(ctx, projectName)
	if err != nil {
		return nil, err
	}

	if existing := project.Extractions[cat]; existing != nil && existing.Reviewed && !force {
		return nil, common.NewAppError("ALREADY_REVIEWED",
			"extraction for "+string(cat)+" was reviewed; re-run explicitly to regenerate",
			common.ErrValidation)
	}

	refs := project.Files[cat]
	if len(refs) == 0 {
		e.logger.Warn("extract.no_input", "project", projectName, "category", cat)
		return nil, common.NewAppError("NO_INPUT",
			"no files to extract in category "+string(cat), common.ErrNoInput)
	}
	paths := make([]string, len(refs))
	for i, r := range refs {
		paths[i] = r.Path
	}

	content, err := e.formats.ExtractContent(ctx, paths)
	if err != nil {
		return nil, common.WrapError(err, "extract content")
	}

	var raw json.RawMessage
	switch content.Kind {
	case docfmt.KindText:
		prompt := ai.BuildExtractionPrompt(string(cat),
			strings.Join(content.Texts, "\n\n"), wf.ContentFields, wf.IgnoredFields)
		raw, err = e.gen.GenerateStructured(ctx, prompt, e.model)

	case docfmt.KindImages:
		prompt := ai.BuildMultimodalExtractionPrompt(string(cat),
			wf.ContentFields, wf.IgnoredFields, content.AuxiliaryText)
		raw, err = e.gen.GenerateStructuredMultimodal(ctx, prompt, content.Images, e.model)

	default:
		return nil, common.NewAppError("EMPTY_INPUT",
			"files in category "+string(cat)+" produced neither text nor images",
			common.ErrNoInput)
	}
	if err != nil {
		e.logger.Error("extract.ai_failed", "project", projectName, "category", cat, "error", err)
		return nil, common.NewAppError("EXTRACTION_FAILED",
			"AI extraction failed for "+string(cat)+"; retry the extraction", err)
	}

	payload, err := decodePayload(raw)
	if err != nil {
		e.logger.Error("extract.bad_payload", "project", projectName, "category", cat, "error", err)
		return nil, common.NewAppError("EXTRACTION_FAILED",
			"AI returned an unusable extraction payload; retry the extraction", err)
	}

	now := time.Now().UTC()
	ex := &entity.StructuredExtraction{
		ContentFields:    payload.ContentFields,
		IgnoredFields:    payload.IgnoredFields,
		ConsolidatedText: entity.Consolidate(payload.ContentFields, wf.ContentFields),
		WorkflowUsed:     cat,
		ExtractedAt:      now,
		LastModified:     now,
		Reviewed:         false,
	}

	if err := e.store.SaveExtraction(ctx, projectName, cat, ex); err != nil {
		return nil, err
	}
	if project.CurrentStep < stepExtracted {
		project.CurrentStep = stepExtracted
	}
	if err := e.store.SaveProject(ctx, project); err != nil {
		return nil, err
	}

	e.logger.Info("extract.ok",
		"project", projectName,
		"category", cat,
		"path", string(content.Kind),
		"content_fields", len(ex.ContentFields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return ex, nil
}

// SaveEditedText stores the human-reviewed consolidated text and flips the
// reviewed flag. The reviewed text becomes the source of truth downstream.
func (e *Engine) SaveEditedText(ctx context.Context, projectName string, cat constants.Category, text string) error {
	ex, err := e.store.LoadExtraction(ctx, projectName, cat)
	if err != nil {
		return err
	}
	ex.ConsolidatedText = text
	ex.LastModified = time.Now().UTC()
	ex.Reviewed = true
	if err := e.store.SaveExtraction(ctx, projectName, cat, ex); err != nil {
		return err
	}
	e.logger.Info("extract.reviewed", "project", projectName, "category", cat, "text_len", len(text))
	return nil
}

func decodePayload(raw json.RawMessage) (extractionPayload, error) {
	if err := ai.ValidateJSONAgainstSchema(ai.ExtractionResponseSchema(), raw); err != nil {
		return extractionPayload{}, fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
	}
	var payload extractionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return extractionPayload{}, fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
	}
	if payload.ContentFields == nil {
		payload.ContentFields = map[string]string{}
	}
	if payload.IgnoredFields == nil {
		payload.IgnoredFields = map[string]string{}
	}
	return payload, nil
}
