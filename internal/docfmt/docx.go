package docfmt

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDOCXParagraphs reads word/document.xml from the DOCX container and
// returns its non-empty paragraphs in document order.
func extractDOCXParagraphs(path string) ([]string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer func() { _ = reader.Close() }()

	var docXML io.ReadCloser
	for _, file := range reader.File {
		if file.Name == "word/document.xml" {
			docXML, err = file.Open()
			if err != nil {
				return nil, fmt.Errorf("open document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return nil, fmt.Errorf("docx has no word/document.xml")
	}
	defer func() { _ = docXML.Close() }()

	return decodeParagraphs(docXML)
}

// decodeParagraphs streams the WordprocessingML, collecting the text runs
// (w:t) of each paragraph (w:p).
func decodeParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var paragraphs []string
	var current strings.Builder
	inParagraph := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				if inParagraph {
					var text string
					if err := decoder.DecodeElement(&text, &t); err != nil {
						return nil, fmt.Errorf("decode text run: %w", err)
					}
					current.WriteString(text)
				}
			case "tab":
				if inParagraph {
					current.WriteString("\t")
				}
			case "br":
				if inParagraph {
					current.WriteString("\n")
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				if s := strings.TrimSpace(current.String()); s != "" {
					paragraphs = append(paragraphs, s)
				}
				inParagraph = false
			}
		}
	}
	return paragraphs, nil
}
