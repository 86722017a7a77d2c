package extraction

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/ai"
	"github.com/outorga-facil/filing-pipeline/internal/common"
	"github.com/outorga-facil/filing-pipeline/internal/taxonomy"
)

// TemplateFields supplies the secondary-extraction targets for categories
// without a fixed list: the export template's field definitions sourced
// from extracted data whose key carries the category prefix.
type TemplateFields interface {
	ExtractedFieldNames(cat constants.Category) []string
}

// RunSecondaryExtraction re-extracts a focused field list from a category's
// already-reviewed consolidated text. The returned map contains every
// requested field; fields the AI could not find are explicit nils, never
// absent keys. Found values are merged into the stored content fields.
func (e *Engine) RunSecondaryExtraction(ctx context.Context, projectName string, cat constants.Category, tmpl TemplateFields) (map[string]*string, error) {
	e.logger.Info("extract.secondary.start", "project", projectName, "category", cat)

	ex, err := e.store.LoadExtraction(ctx, projectName, cat)
	if err != nil {
		return nil, err
	}
	if !ex.Reviewed || strings.TrimSpace(ex.ConsolidatedText) == "" {
		return nil, common.NewAppError("NOT_REVIEWED",
			"secondary extraction needs reviewed, non-empty consolidated text for "+string(cat),
			common.ErrValidation)
	}

	fields := secondaryFields(cat, tmpl)
	if len(fields) == 0 {
		return nil, common.NewAppError("NO_TARGET_FIELDS",
			"no secondary fields configured for category "+string(cat), common.ErrNoInput)
	}

	prompt := ai.BuildSecondaryExtractionPrompt(string(cat), ex.ConsolidatedText, fields)
	raw, err := e.gen.GenerateStructured(ctx, prompt, e.model)
	if err != nil {
		return nil, common.NewAppError("EXTRACTION_FAILED",
			"secondary extraction failed for "+string(cat)+"; retry", err)
	}

	var got map[string]*string
	if err := json.Unmarshal(raw, &got); err != nil {
		return nil, common.NewAppError("EXTRACTION_FAILED",
			"secondary extraction returned an unusable payload", common.ErrMalformedResponse)
	}

	// Normalize: every requested field present, missing ones explicit null.
	result := make(map[string]*string, len(fields))
	for _, f := range fields {
		result[f] = got[f]
	}

	// Merge found values; untouched keys stay as they were. A record that
	// round-tripped with null content fields starts from an empty map.
	changed := 0
	for f, v := range result {
		if v != nil && strings.TrimSpace(*v) != "" {
			if ex.ContentFields == nil {
				ex.ContentFields = make(map[string]string, len(result))
			}
			ex.ContentFields[f] = *v
			changed++
		}
	}
	if changed > 0 {
		ex.LastModified = time.Now().UTC()
		if err := e.store.SaveExtraction(ctx, projectName, cat, ex); err != nil {
			return nil, err
		}
	}

	e.logger.Info("extract.secondary.ok",
		"project", projectName,
		"category", cat,
		"requested", len(fields),
		"found", changed,
	)
	return result, nil
}

func secondaryFields(cat constants.Category, tmpl TemplateFields) []string {
	if wf, ok := taxonomy.ForCategory(cat); ok && len(wf.SecondaryFields) > 0 {
		return wf.SecondaryFields
	}
	if tmpl == nil {
		return nil
	}
	return tmpl.ExtractedFieldNames(cat)
}
