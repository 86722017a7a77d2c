// Package export builds the filing package: a draft request form resolved
// from extracted data, the signed replacement, and the final concatenated
// PDF, plus the XLSX verification report.
package export

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/outorga-facil/filing-pipeline/constants"
)

// Field sources. Extracted fields carry a "category.fieldName" id; computed
// fields are filled by the resolver's placeholder set.
const (
	SourceExtracted = "extracted"
	SourceComputed  = "computed"
	SourceManual    = "manual"
)

// Field is one template slot to resolve.
type Field struct {
	ID       string `yaml:"id"`
	Label    string `yaml:"label"`
	Source   string `yaml:"source"`
	Default  string `yaml:"default"`
	Required bool   `yaml:"required"`
}

// TableDef is one titled label/value table on the form.
type TableDef struct {
	Title  string  `yaml:"title"`
	Fields []Field `yaml:"fields"`
}

// Template describes the request form: title block, tables, boilerplate,
// declaration and signature lines. Loaded once from YAML.
type Template struct {
	Title          string     `yaml:"title"`
	Subtitle       string     `yaml:"subtitle"`
	Tables         []TableDef `yaml:"tables"`
	Boilerplate    string     `yaml:"boilerplate"`
	Declaration    string     `yaml:"declaration"`
	SignatureLines []string   `yaml:"signature_lines"`
}

// LoadTemplate reads and validates the form template.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export template: %w", err)
	}
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode export template: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("export template %s: %w", path, err)
	}
	return &t, nil
}

func (t *Template) validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("title is required")
	}
	seen := make(map[string]struct{})
	for ti, table := range t.Tables {
		for fi, f := range table.Fields {
			if strings.TrimSpace(f.ID) == "" {
				return fmt.Errorf("table %d field %d has no id", ti, fi)
			}
			if _, dup := seen[f.ID]; dup {
				return fmt.Errorf("duplicate field id %q", f.ID)
			}
			seen[f.ID] = struct{}{}
			switch f.Source {
			case SourceExtracted, SourceComputed, SourceManual:
			default:
				return fmt.Errorf("field %q has unknown source %q", f.ID, f.Source)
			}
			if f.Source == SourceExtracted && !strings.Contains(f.ID, ".") {
				return fmt.Errorf("extracted field %q must be keyed category.fieldName", f.ID)
			}
		}
	}
	return nil
}

// Fields returns every field in table order.
func (t *Template) Fields() []Field {
	var out []Field
	for _, table := range t.Tables {
		out = append(out, table.Fields...)
	}
	return out
}

// ExtractedFieldNames returns the bare field names (category prefix
// stripped) of this template's extracted fields for one category. This is
// the secondary-extraction target list for categories without a fixed one.
func (t *Template) ExtractedFieldNames(cat constants.Category) []string {
	prefix := string(cat) + "."
	var out []string
	for _, f := range t.Fields() {
		if f.Source == SourceExtracted && strings.HasPrefix(f.ID, prefix) {
			out = append(out, strings.TrimPrefix(f.ID, prefix))
		}
	}
	return out
}
