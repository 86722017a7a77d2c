// Package taxonomy fixes the field vocabulary the extraction engine expects
// per document category. The table is closed: categories and their field
// lists are compiled in and validated once, instead of being looked up by
// free-form string key at every call site.
package taxonomy

import (
	"fmt"
	"strings"

	"github.com/outorga-facil/filing-pipeline/constants"
)

// Workflow describes what the extraction engine asks the AI capability for
// in one category: the content fields that matter to the filing, and the
// noise categories kept only for transparency.
type Workflow struct {
	Category        constants.Category
	ContentFields   []string
	IgnoredFields   []string
	SecondaryFields []string // fixed secondary-extraction targets, may be nil
}

var commonIgnored = []string{
	"headers", "footers", "page_numbers", "signatures", "stamps", "letterhead",
}

var table = map[constants.Category]Workflow{
	constants.Statute: {
		Category: constants.Statute,
		ContentFields: []string{
			"denominacao_entidade", "cnpj", "endereco_sede",
			"municipio_transmissor", "objetivos_sociais",
			"natureza_entidade", "artigos_principais", "main_content",
		},
		IgnoredFields: commonIgnored,
	},
	constants.Minutes: {
		Category: constants.Minutes,
		ContentFields: []string{
			"data_eleicao", "lista_dirigentes_eleitos", "pauta",
			"deliberacoes", "duracao_mandato", "main_content",
		},
		IgnoredFields: append([]string{"formatting"}, commonIgnored...),
		SecondaryFields: []string{
			"data_eleicao", "duracao_mandato", "lista_dirigentes_eleitos",
		},
	},
	constants.Identification: {
		Category: constants.Identification,
		ContentFields: []string{
			"nome_representante_legal", "cpf_representante",
			"rg_representante", "endereco_representante", "main_content",
		},
		IgnoredFields: commonIgnored,
		SecondaryFields: []string{
			"nome_representante_legal", "cpf_representante",
		},
	},
	constants.License: {
		Category: constants.License,
		ContentFields: []string{
			"numero_licenca", "orgao_emissor", "validade_licenca", "main_content",
		},
		IgnoredFields: commonIgnored,
	},
	constants.Schedule: {
		Category: constants.Schedule,
		ContentFields: []string{
			"grade_programacao", "horario_funcionamento",
			"conteudo_comunitario", "nome_tecnico_responsavel",
			"crea_tecnico", "main_content",
		},
		IgnoredFields: commonIgnored,
		SecondaryFields: []string{
			"nome_tecnico_responsavel", "crea_tecnico",
		},
	},
}

// ForCategory returns the workflow for a category. The bool is false only
// for categories outside the fixed five.
func ForCategory(cat constants.Category) (Workflow, bool) {
	wf, ok := table[cat]
	return wf, ok
}

// Validate checks the compiled table: every fixed category present, no
// blank or duplicate field names. Called once at startup.
func Validate() error {
	for _, cat := range constants.AllCategories() {
		wf, ok := table[cat]
		if !ok {
			return fmt.Errorf("taxonomy: category %q has no workflow", cat)
		}
		if len(wf.ContentFields) == 0 {
			return fmt.Errorf("taxonomy: category %q has no content fields", cat)
		}
		if err := uniqueNonBlank(string(cat)+" content", wf.ContentFields); err != nil {
			return err
		}
		if err := uniqueNonBlank(string(cat)+" ignored", wf.IgnoredFields); err != nil {
			return err
		}
		for _, f := range wf.SecondaryFields {
			if !contains(wf.ContentFields, f) {
				return fmt.Errorf("taxonomy: secondary field %q of %q is not a content field", f, cat)
			}
		}
	}
	return nil
}

func uniqueNonBlank(label string, fields []string) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("taxonomy: %s fields contain a blank name", label)
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("taxonomy: %s fields contain duplicate %q", label, f)
		}
		seen[f] = struct{}{}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
