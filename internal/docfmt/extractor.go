// Package docfmt turns source files into raw content for the extraction
// engine: page texts where a text layer exists, page images where it does
// not. Unsupported extensions are logged and skipped, never an error.
package docfmt

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/ai"
)

// Kind tells the extraction engine which path to take.
type Kind string

const (
	KindText   Kind = "text"
	KindImages Kind = "images"
	KindEmpty  Kind = "empty"
)

// Content is the combined result over a whole file set. Texts are ordered
// file-then-page. AuxiliaryText carries stray text found next to an
// image-only document set, appended as extra context on the image path.
type Content struct {
	Kind          Kind
	Texts         []string
	Images        []ai.ImagePart
	AuxiliaryText string
}

// ContentExtractor is the file-format capability.
type ContentExtractor interface {
	ExtractContent(ctx context.Context, paths []string) (Content, error)
}

// Extractor is the default implementation covering PDF, DOCX and plain
// image files.
type Extractor struct {
	logger *slog.Logger
}

var _ ContentExtractor = (*Extractor)(nil)

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// ExtractContent walks the files in order. Any extractable text anywhere
// selects the text path for the whole set; page images are still collected
// so a fully image-borne set can use the image path.
func (e *Extractor) ExtractContent(ctx context.Context, paths []string) (Content, error) {
	var out Content

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		base := filepath.Base(path)
		e.logger.Info("docfmt.file.start", "file", base)

		switch constants.MapExtToFormat(filepath.Ext(path)) {
		case constants.PDF:
			texts, images, err := e.extractPDF(path)
			if err != nil {
				e.logger.Error("docfmt.file.failed", "file", base, "error", err)
				continue
			}
			out.Texts = append(out.Texts, texts...)
			out.Images = append(out.Images, images...)

		case constants.DOCX:
			paragraphs, err := extractDOCXParagraphs(path)
			if err != nil {
				e.logger.Error("docfmt.file.failed", "file", base, "error", err)
				continue
			}
			out.Texts = append(out.Texts, paragraphs...)

		case constants.IMAGE:
			img, err := readImageFile(path)
			if err != nil {
				e.logger.Error("docfmt.file.failed", "file", base, "error", err)
				continue
			}
			out.Images = append(out.Images, img)

		default:
			e.logger.Warn("docfmt.file.unsupported", "file", base)
		}
	}

	switch {
	case hasText(out.Texts):
		out.Kind = KindText
	case len(out.Images) > 0:
		out.Kind = KindImages
	default:
		out.Kind = KindEmpty
	}

	e.logger.Info("docfmt.done",
		"kind", string(out.Kind),
		"texts", len(out.Texts),
		"images", len(out.Images),
	)
	return out, nil
}

func hasText(texts []string) bool {
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			return true
		}
	}
	return false
}

func readImageFile(path string) (ai.ImagePart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ai.ImagePart{}, err
	}
	mime := "image/png"
	switch constants.NormalizeExt(filepath.Ext(path)) {
	case "jpg", "jpeg":
		mime = "image/jpeg"
	}
	return ai.ImagePart{MIMEType: mime, Data: data}, nil
}
