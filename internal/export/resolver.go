package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/common"
	"github.com/outorga-facil/filing-pipeline/internal/entity"
)

// UnresolvedPlaceholder fills optional fields the resolver could not value;
// the form must never render a blank slot.
const UnresolvedPlaceholder = "____________________"

var ptMonthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// Resolver values template fields with strict precedence: computed
// placeholders, then user overrides, then extracted content fields keyed
// category.fieldName, then the configured default.
type Resolver struct {
	template *Template
	now      func() time.Time
	logger   *slog.Logger
}

func NewResolver(template *Template, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{template: template, now: time.Now, logger: logger}
}

// Resolve values every template field for one project. A required field
// that stays unresolved rejects the whole draft before anything is written.
func (r *Resolver) Resolve(project *entity.Project, overrides map[string]string) (map[string]string, error) {
	values := make(map[string]string)
	var missing []string

	for _, f := range r.template.Fields() {
		value, ok := r.resolveField(project, overrides, f)
		if !ok {
			if f.Required {
				missing = append(missing, f.ID)
				continue
			}
			value = UnresolvedPlaceholder
		}
		values[f.ID] = value
	}

	if len(missing) > 0 {
		return nil, common.NewAppError("MISSING_FIELDS",
			"required export fields unresolved: "+strings.Join(missing, ", "),
			common.ErrValidation)
	}
	return values, nil
}

func (r *Resolver) resolveField(project *entity.Project, overrides map[string]string, f Field) (string, bool) {
	if v, ok := r.computed(project, f.ID); ok {
		return v, true
	}
	if v, ok := overrides[f.ID]; ok && strings.TrimSpace(v) != "" {
		return v, true
	}
	if v, ok := extractedValue(project, f.ID); ok {
		return v, true
	}
	if strings.TrimSpace(f.Default) != "" {
		return f.Default, true
	}
	return "", false
}

// computed covers the small placeholder set the form derives itself rather
// than reading verbatim from any document.
func (r *Resolver) computed(project *entity.Project, id string) (string, bool) {
	switch id {
	case "data_atual":
		return FormatDatePT(r.now()), true
	case "cidade_uf":
		if v, ok := extractedValue(project, "estatuto.municipio_transmissor"); ok {
			return v, true
		}
		return "", false
	case "cidade":
		v, ok := extractedValue(project, "estatuto.municipio_transmissor")
		if !ok {
			return "", false
		}
		// "Cidade/UF" keeps only the city half.
		if idx := strings.Index(v, "/"); idx >= 0 {
			v = v[:idx]
		}
		return strings.TrimSpace(v), true
	case "nome_representante_legal":
		if v, ok := extractedValue(project, "identificacao.nome_representante_legal"); ok {
			return v, true
		}
		return "", false
	case "nome_tecnico_responsavel", "crea_tecnico":
		// Technician data comes from secondary extraction when present;
		// otherwise fall through so overrides and defaults still apply.
		return extractedValue(project, "programacao."+id)
	default:
		return "", false
	}
}

// extractedValue looks up a "category.fieldName" key in that category's
// content fields. The pending token counts as unresolved.
func extractedValue(project *entity.Project, key string) (string, bool) {
	idx := strings.Index(key, ".")
	if idx <= 0 {
		return "", false
	}
	cat := constants.Category(key[:idx])
	field := key[idx+1:]

	ex := project.Extractions[cat]
	if ex == nil {
		return "", false
	}
	v, ok := ex.ContentFields[field]
	if !ok || strings.TrimSpace(v) == "" || v == constants.PendingToken {
		return "", false
	}
	return v, true
}

// FormatDatePT renders a date the way the form expects: "28 de agosto de 2026".
func FormatDatePT(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), ptMonthNames[t.Month()-1], t.Year())
}
