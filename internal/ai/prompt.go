package ai

import (
	"fmt"
	"strings"
)

// BuildExtractionPrompt asks for content/ignored field maps from the
// concatenated text of one category's documents.
func BuildExtractionPrompt(category, documentText string, contentFields, ignoredFields []string) string {
	var b strings.Builder
	b.WriteString("You are an assistant specialised in analysing legal and administrative filing documents. ")
	b.WriteString("Extract information precisely and return structured data only.\n\n")
	fmt.Fprintf(&b, "The document below belongs to the category '%s'.\n\n", category)
	b.WriteString("Document text:\n---\n")
	b.WriteString(documentText)
	b.WriteString("\n---\n\n")
	b.WriteString("Instructions:\n")
	fmt.Fprintf(&b, "1. content_fields: fill each of these fields with the matching passage from the text; use \"\" when not found: %s\n",
		strings.Join(contentFields, ", "))
	fmt.Fprintf(&b, "2. ignored_fields: collect any noise text matching these categories (headers, footers, page numbers, signatures, stamps): %s\n",
		strings.Join(ignoredFields, ", "))
	b.WriteString("\nReturn ONLY a JSON object of the form ")
	b.WriteString(`{"content_fields": {"field": "value"}, "ignored_fields": {"field": "value"}}`)
	b.WriteString(" with no additional text.")
	return b.String()
}

// BuildMultimodalExtractionPrompt is the image-path variant: the page
// images travel separately, auxText carries any text found elsewhere.
func BuildMultimodalExtractionPrompt(category string, contentFields, ignoredFields []string, auxText string) string {
	var b strings.Builder
	b.WriteString("You are an assistant with strong OCR capability analysing the PAGE IMAGES of a scanned document. ")
	fmt.Fprintf(&b, "The document belongs to the category '%s'.\n\n", category)
	b.WriteString("Instructions:\n")
	fmt.Fprintf(&b, "1. content_fields: fill each of these fields from text found in the images; use \"\" when not found: %s\n",
		strings.Join(contentFields, ", "))
	fmt.Fprintf(&b, "2. ignored_fields: collect noise text matching these categories: %s\n",
		strings.Join(ignoredFields, ", "))
	if strings.TrimSpace(auxText) != "" {
		b.WriteString("\nAuxiliary text found alongside the images:\n---\n")
		b.WriteString(auxText)
		b.WriteString("\n---\n")
	}
	b.WriteString("\nReturn ONLY a JSON object of the form ")
	b.WriteString(`{"content_fields": {"field": "value"}, "ignored_fields": {"field": "value"}}`)
	b.WriteString(" with no additional text.")
	return b.String()
}

// BuildCriteriaCheckPrompt wraps a rule's instruction around the gathered
// context. The context already carries document-name headers so the model
// can distinguish sources when cross-checking.
func BuildCriteriaCheckPrompt(contextText, instruction string, allowedStatuses []string) string {
	var b strings.Builder
	b.WriteString("You are an assistant verifying document conformity for a community radio licence filing. ")
	b.WriteString("Base your analysis strictly on the provided text.\n\n")
	b.WriteString("Analysis instruction:\n---\n")
	b.WriteString(instruction)
	b.WriteString("\n---\n\n")
	b.WriteString("Document text for analysis:\n---\n")
	b.WriteString(contextText)
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "Return ONLY a JSON object {\"status\": <one of %s>, \"justification\": \"...\"} with no additional text.",
		strings.Join(allowedStatuses, " | "))
	return b.String()
}

// BuildSecondaryExtractionPrompt re-extracts a focused field list from
// already-reviewed consolidated text. Every requested field must appear in
// the reply; unfound fields must be explicit null, never omitted.
func BuildSecondaryExtractionPrompt(category, reviewedText string, fields []string) string {
	var b strings.Builder
	b.WriteString("You are an assistant re-reading the reviewed text of the category '")
	b.WriteString(category)
	b.WriteString("' to extract a focused set of fields.\n\n")
	b.WriteString("Reviewed text:\n---\n")
	b.WriteString(reviewedText)
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "Extract exactly these fields: %s\n", strings.Join(fields, ", "))
	b.WriteString("Return ONLY a JSON object whose keys are EXACTLY the requested field names. ")
	b.WriteString("Every requested field MUST be present; use null for fields you cannot find. No additional text.")
	return b.String()
}

// BuildMandateDatePrompt asks the model only for the two literal strings
// the deterministic mandate check needs. Date parsing and duration
// arithmetic happen in the pipeline, not in the model.
func BuildMandateDatePrompt(minutesText, statuteText string) string {
	var b strings.Builder
	b.WriteString("Your only task is to extract two pieces of information and return them as JSON. ")
	b.WriteString("Read the MINUTES and the STATUTE texts below. Find the exact election date in the minutes ")
	b.WriteString("and the exact string describing the mandate duration in the statute.\n\n")
	b.WriteString("MINUTES text:\n---\n")
	b.WriteString(minutesText)
	b.WriteString("\n---\n\nSTATUTE text:\n---\n")
	b.WriteString(statuteText)
	b.WriteString("\n---\n\n")
	b.WriteString(`Return ONLY JSON like {"election_date": "15 de março de 2024", "mandate_duration": "4 (quatro) anos"}. `)
	b.WriteString("Use null for anything you cannot find.")
	return b.String()
}
