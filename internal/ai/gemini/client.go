package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/outorga-facil/filing-pipeline/internal/ai"
	"github.com/outorga-facil/filing-pipeline/internal/common"
)

var _ ai.Generator = (*Client)(nil)

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents []struct {
		Parts []part `json:"parts"`
	} `json:"contents"`
	GenerationConfig *struct {
		ResponseMIMEType string `json:"response_mime_type,omitempty"`
	} `json:"generationConfig,omitempty"`
}

// GenerateText returns free text from the model, or a classified error.
func (c *Client) GenerateText(ctx context.Context, prompt, model string) (string, error) {
	text, err := c.generate(ctx, prompt, nil, model, false)
	if err != nil {
		return "", err
	}
	return text, nil
}

// GenerateStructured asks for a JSON-mode response and returns the raw
// object. A reply that is not a JSON object is a malformed response.
func (c *Client) GenerateStructured(ctx context.Context, prompt, model string) (json.RawMessage, error) {
	text, err := c.generate(ctx, prompt, nil, model, true)
	if err != nil {
		return nil, err
	}
	return parseObject(text)
}

// GenerateStructuredMultimodal sends the prompt with inline page images.
func (c *Client) GenerateStructuredMultimodal(ctx context.Context, prompt string, images []ai.ImagePart, model string) (json.RawMessage, error) {
	if len(images) == 0 {
		return nil, common.NewAppError("NO_IMAGES", "multimodal call without images", common.ErrInvalidInput)
	}
	text, err := c.generate(ctx, prompt, images, model, true)
	if err != nil {
		return nil, err
	}
	return parseObject(text)
}

// Probe performs a minimal generation call to validate key and model.
func (c *Client) Probe(ctx context.Context, model string) error {
	_, err := c.generate(ctx, "Reply with the single word: ok", nil, model, false)
	return err
}

func (c *Client) generate(ctx context.Context, prompt string, images []ai.ImagePart, model string, jsonMode bool) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", common.NewAppError("AI_RATE_WAIT", "rate limiter interrupted", err)
	}

	parts := []part{{Text: prompt}}
	for _, img := range images {
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: img.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		}})
	}

	var req generateRequest
	req.Contents = make([]struct {
		Parts []part `json:"parts"`
	}, 1)
	req.Contents[0].Parts = parts
	if jsonMode {
		req.GenerationConfig = &struct {
			ResponseMIMEType string `json:"response_mime_type,omitempty"`
		}{ResponseMIMEType: "application/json"}
	}

	c.logger.Info("ai.generate.start",
		"req_id", rid,
		"model", model,
		"prompt_len", len(prompt),
		"images", len(images),
		"json_mode", jsonMode,
	)

	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), model)
	raw, err := c.post(ctx, endpoint, req)
	if err != nil {
		c.logger.Error("ai.generate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError("AI_HTTP", "AI capability call failed", common.ErrServiceUnavailable)
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Error("ai.generate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError("AI_DECODE", "cannot decode AI response", common.ErrMalformedResponse)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		// Content filtering or an empty candidate list: "no result".
		c.logger.Warn("ai.generate.empty",
			"req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return "", common.NewAppError("AI_EMPTY", "AI capability returned no content", common.ErrMalformedResponse)
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", common.NewAppError("AI_EMPTY", "AI capability returned empty text", common.ErrMalformedResponse)
	}

	c.logger.Info("ai.generate.ok",
		"req_id", rid,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (c *Client) post(ctx context.Context, url string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("gemini response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

// parseObject accepts the model's text and requires a single JSON object,
// tolerating markdown code fences some models wrap around JSON mode output.
func parseObject(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
		return nil, common.NewAppError("AI_NOT_JSON", "AI reply is not a JSON object", common.ErrMalformedResponse)
	}
	return json.RawMessage(trimmed), nil
}
