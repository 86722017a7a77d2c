package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractionResponseSchema(t *testing.T) {
	schema := ExtractionResponseSchema()

	ok := []byte(`{"content_fields": {"cnpj": "x"}, "ignored_fields": {}}`)
	require.NoError(t, ValidateJSONAgainstSchema(schema, ok))

	missing := []byte(`{"content_fields": {}}`)
	require.Error(t, ValidateJSONAgainstSchema(schema, missing))

	wrongType := []byte(`{"content_fields": {"cnpj": 42}, "ignored_fields": {}}`)
	require.Error(t, ValidateJSONAgainstSchema(schema, wrongType))
}

func TestVerdictResponseSchema(t *testing.T) {
	schema := VerdictResponseSchema([]string{"CONFORMING", "NON_CONFORMING"})

	require.NoError(t, ValidateJSONAgainstSchema(schema,
		[]byte(`{"status": "CONFORMING", "justification": "ok"}`)))

	require.Error(t, ValidateJSONAgainstSchema(schema,
		[]byte(`{"status": "MAYBE", "justification": "ok"}`)),
		"status outside the allowed vocabulary is rejected")

	require.Error(t, ValidateJSONAgainstSchema(schema,
		[]byte(`{"status": "CONFORMING"}`)))
}

func TestSecondaryResponseSchema(t *testing.T) {
	schema := SecondaryResponseSchema([]string{"nome_tecnico_responsavel", "crea_tecnico"})

	require.NoError(t, ValidateJSONAgainstSchema(schema,
		[]byte(`{"nome_tecnico_responsavel": "X", "crea_tecnico": null}`)),
		"explicit null for an unfound field is valid")

	require.Error(t, ValidateJSONAgainstSchema(schema,
		[]byte(`{"nome_tecnico_responsavel": "X"}`)),
		"an absent key violates the contract")

	require.Error(t, ValidateJSONAgainstSchema(schema,
		[]byte(`{"nome_tecnico_responsavel": "X", "crea_tecnico": null, "extra": "y"}`)))
}

func TestPromptBuildersCarryTheirInputs(t *testing.T) {
	p := BuildExtractionPrompt("estatuto", "ESTATUTO SOCIAL ...",
		[]string{"cnpj"}, []string{"stamps"})
	assert.Contains(t, p, "estatuto")
	assert.Contains(t, p, "ESTATUTO SOCIAL ...")
	assert.Contains(t, p, "cnpj")

	c := BuildCriteriaCheckPrompt("### PROVIDED DOCUMENT: ESTATUTO ###\ntexto",
		"Verifique os objetivos.", []string{"CONFORMING", "ERROR"})
	assert.Contains(t, c, "Verifique os objetivos.")
	assert.Contains(t, c, "CONFORMING | ERROR")

	m := BuildMandateDatePrompt("ata texto", "estatuto texto")
	assert.Contains(t, m, "election_date")
	assert.Contains(t, m, "mandate_duration")
	assert.Contains(t, m, "ata texto")
}
