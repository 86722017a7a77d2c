// Package criteria evaluates a project's reviewed text against the
// compliance rule database with an AI-assisted judgment step.
package criteria

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/ai"
	"github.com/outorga-facil/filing-pipeline/internal/entity"
)

// ruleSchema validates the rule database shape at load time so a malformed
// rule fails loudly at startup instead of mid-run.
func ruleSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"id":       map[string]any{"type": "string", "minLength": 1},
				"title":    map[string]any{"type": "string", "minLength": 1},
				"category": map[string]any{"type": "string"},
				"source_documents": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items":    map[string]any{"type": "string", "enum": constants.AsStringSlice()},
				},
				"prompt_instruction": map[string]any{"type": "string"},
				"check":              map[string]any{"type": "string", "enum": []string{"mandate_validity"}},
			},
			"required": []string{"id", "title", "source_documents"},
		},
	}
}

// LoadRules reads the criterion database from a JSON file. Criteria are
// immutable at runtime; ids must be unique.
func LoadRules(path string, logger *slog.Logger) ([]entity.Criterion, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("criteria.rules.load", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule database: %w", err)
	}
	if err := ai.ValidateJSONAgainstSchema(ruleSchema(), data); err != nil {
		return nil, fmt.Errorf("rule database failed validation: %w", err)
	}

	var rules []entity.Criterion
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("decode rule database: %w", err)
	}

	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("rule database has duplicate id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	logger.Info("criteria.rules.loaded", "count", len(rules))
	return rules, nil
}
