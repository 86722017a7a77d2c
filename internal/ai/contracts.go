package ai

import (
	"context"
	"encoding/json"
)

// ImagePart is one page image sent on the multimodal path.
type ImagePart struct {
	MIMEType string
	Data     []byte
}

// Generator is the AI capability the engines depend on. Implementations
// must classify every failure (HTTP error, filtered content, malformed
// payload) into a typed error and never panic across this boundary.
type Generator interface {
	// GenerateText returns free text, or "" with an error when the
	// capability produced nothing usable.
	GenerateText(ctx context.Context, prompt, model string) (string, error)

	// GenerateStructured returns the raw JSON object the model produced.
	// Callers unmarshal into their own shape and treat decode failures as
	// a malformed response, not a crash.
	GenerateStructured(ctx context.Context, prompt, model string) (json.RawMessage, error)

	// GenerateStructuredMultimodal sends the prompt together with page
	// images (image path of the extraction engine).
	GenerateStructuredMultimodal(ctx context.Context, prompt string, images []ImagePart, model string) (json.RawMessage, error)

	// Probe performs a cheap connectivity check against the given model.
	Probe(ctx context.Context, model string) error
}
