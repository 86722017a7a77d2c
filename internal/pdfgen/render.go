// Package pdfgen is the PDF render/merge capability behind the export
// assembler: a template-to-bytes renderer and an ordered concatenator.
package pdfgen

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// Row is one label/value pair inside a document table.
type Row struct {
	Label string
	Value string
}

// Table is a titled block of label/value rows.
type Table struct {
	Title string
	Rows  []Row
}

// Document is the renderer-facing description of the filing form: a fixed
// title block, configurable tables, boilerplate, a declaration and three
// signature lines.
type Document struct {
	Title          string
	Subtitle       string
	Tables         []Table
	Boilerplate    string
	Declaration    string
	CityAndDate    string
	SignatureLines []string
}

// Renderer turns a document description into PDF bytes.
type Renderer interface {
	Render(doc Document) ([]byte, error)
}

// FormRenderer renders the filing form with fpdf. Core fonts only, so
// Portuguese text goes through the cp1252 translator. fontDir may point at
// a directory of extra font definition files; empty uses the built-ins.
type FormRenderer struct {
	fontDir string
}

func NewFormRenderer(fontDir string) *FormRenderer {
	return &FormRenderer{fontDir: fontDir}
}

func (r *FormRenderer) Render(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", r.fontDir)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 18, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.MultiCell(0, 7, tr(doc.Title), "", "C", false)
	if doc.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(doc.Subtitle), "", "C", false)
	}
	pdf.Ln(4)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageWidth - left - right
	labelWidth := usable * 0.38
	valueWidth := usable - labelWidth

	for _, table := range doc.Tables {
		if table.Title != "" {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.SetFillColor(230, 230, 230)
			pdf.CellFormat(usable, 7, tr(table.Title), "1", 1, "L", true, 0, "")
		}
		pdf.SetFont("Helvetica", "", 10)
		for _, row := range table.Rows {
			renderRow(pdf, tr, labelWidth, valueWidth, row)
		}
		pdf.Ln(3)
	}

	if doc.Boilerplate != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(doc.Boilerplate), "", "J", false)
		pdf.Ln(3)
	}
	if doc.Declaration != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 5, tr(doc.Declaration), "", "J", false)
		pdf.Ln(3)
	}
	if doc.CityAndDate != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, tr(doc.CityAndDate), "", "R", false)
	}

	pdf.Ln(14)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range doc.SignatureLines {
		pdf.MultiCell(0, 5, "_________________________________________", "", "C", false)
		pdf.MultiCell(0, 5, tr(line), "", "C", false)
		pdf.Ln(8)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render form pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// renderRow draws one label/value pair with a value cell tall enough for
// wrapped text, keeping the row borders aligned.
func renderRow(pdf *fpdf.Fpdf, tr func(string) string, labelWidth, valueWidth float64, row Row) {
	const lineHeight = 5.5
	value := tr(row.Value)
	lines := pdf.SplitText(value, valueWidth-2)
	height := lineHeight * float64(max(len(lines), 1))

	x, y := pdf.GetXY()
	pdf.Rect(x, y, labelWidth, height, "D")
	pdf.Rect(x+labelWidth, y, valueWidth, height, "D")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(x+1, y)
	pdf.MultiCell(labelWidth-2, lineHeight, tr(row.Label), "", "L", false)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(x+labelWidth+1, y)
	pdf.MultiCell(valueWidth-2, lineHeight, value, "", "L", false)

	pdf.SetXY(x, y+height)
}
