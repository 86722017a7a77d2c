package docfmt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/outorga-facil/filing-pipeline/internal/ai"
)

// extractPDF walks a PDF page by page. A page with a text layer contributes
// its text; a page without one contributes its embedded page images instead,
// so a scanned document can still travel the multimodal path.
func (e *Extractor) extractPDF(path string) ([]string, []ai.ImagePart, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	var texts []string
	var imagePages []int

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("docfmt.pdf.page_text_failed",
				"file", filepath.Base(path), "page", pageNum, "error", err)
			imagePages = append(imagePages, pageNum)
			continue
		}
		if strings.TrimSpace(text) != "" {
			texts = append(texts, text)
		} else {
			imagePages = append(imagePages, pageNum)
		}
	}

	var images []ai.ImagePart
	if len(imagePages) > 0 {
		images, err = e.extractPageImages(path, imagePages)
		if err != nil {
			// Text from other pages may still carry the extraction.
			e.logger.Warn("docfmt.pdf.image_extract_failed",
				"file", filepath.Base(path), "pages", len(imagePages), "error", err)
		}
	}
	return texts, images, nil
}

// extractPageImages pulls the embedded images of the given pages via pdfcpu
// into a scratch directory and reads them back in page order.
func (e *Extractor) extractPageImages(path string, pages []int) ([]ai.ImagePart, error) {
	tmpDir, err := os.MkdirTemp("", "filing-pages-*")
	if err != nil {
		return nil, fmt.Errorf("scratch dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	selected := make([]string, len(pages))
	for i, p := range pages {
		selected[i] = fmt.Sprintf("%d", p)
	}
	if err := api.ExtractImagesFile(path, tmpDir, selected, nil); err != nil {
		return nil, fmt.Errorf("pdfcpu extract images: %w", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("read scratch dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, ent := range entries {
		if !ent.IsDir() {
			names = append(names, ent.Name())
		}
	}
	sort.Strings(names) // pdfcpu names files by page then object id

	var images []ai.ImagePart
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(tmpDir, name))
		if err != nil {
			return nil, err
		}
		mime := "image/png"
		switch strings.ToLower(filepath.Ext(name)) {
		case ".jpg", ".jpeg":
			mime = "image/jpeg"
		case ".tif", ".tiff":
			mime = "image/tiff"
		}
		images = append(images, ai.ImagePart{MIMEType: mime, Data: data})
	}
	return images, nil
}
