package ai

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// ExtractionResponseSchema constrains the structured-extraction reply:
// two string maps, both required.
func ExtractionResponseSchema() map[string]any {
	stringMap := map[string]any{
		"type":                 "object",
		"additionalProperties": map[string]any{"type": "string"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"content_fields": stringMap,
			"ignored_fields": stringMap,
		},
		"required": []string{"content_fields", "ignored_fields"},
	}
}

// VerdictResponseSchema constrains the criteria-check reply.
func VerdictResponseSchema(allowedStatuses []string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"status":        map[string]any{"type": "string", "enum": allowedStatuses},
			"justification": map[string]any{"type": "string"},
		},
		"required": []string{"status", "justification"},
	}
}

// SecondaryResponseSchema requires every requested field to be present,
// with null for fields the model could not find. Missing keys are a
// contract violation, never silently tolerated.
func SecondaryResponseSchema(fields []string) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f] = map[string]any{"type": []string{"string", "null"}}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             fields,
	}
}
