package pdfgen

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Merger concatenates PDFs in the given order into a single output file.
type Merger interface {
	Merge(inputPaths []string, outPath string) error
}

// FileMerger merges with pdfcpu. Input order is preserved exactly.
type FileMerger struct{}

func NewFileMerger() *FileMerger {
	return &FileMerger{}
}

func (m *FileMerger) Merge(inputPaths []string, outPath string) error {
	if len(inputPaths) == 0 {
		return fmt.Errorf("merge: no input files")
	}
	if err := api.MergeCreateFile(inputPaths, outPath, false, nil); err != nil {
		return fmt.Errorf("merge %d pdfs into %s: %w", len(inputPaths), outPath, err)
	}
	return nil
}
