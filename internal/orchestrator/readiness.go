package orchestrator

import (
	"context"
	"sort"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/common"
)

// CategoryReadiness summarizes one category's progress toward export.
type CategoryReadiness struct {
	Category  constants.Category
	Files     int
	Extracted bool
	Reviewed  bool
}

// Readiness is the whole-project summary shown before export.
type Readiness struct {
	Categories []CategoryReadiness
	Evaluated  int
	Conforming int
	Criteria   int
	Stage      constants.ExportStage
	Blockers   []string
}

// Ready reports whether the project can proceed to export.
func (r Readiness) Ready() bool {
	return len(r.Blockers) == 0
}

// ValidateReadiness inspects every category and criterion and lists what
// still blocks the export.
func (o *Orchestrator) ValidateReadiness(ctx context.Context, projectName string) (*Readiness, error) {
	project, err := o.store.LoadProject(ctx, projectName)
	if err != nil {
		return nil, err
	}

	out := &Readiness{
		Criteria: len(o.criteria.Rules()),
		Stage:    o.assembler.Stage(projectName),
	}

	for _, cat := range constants.AllCategories() {
		cr := CategoryReadiness{Category: cat, Files: len(project.Files[cat])}
		if ex := project.Extractions[cat]; ex != nil {
			cr.Extracted = true
			cr.Reviewed = ex.Reviewed
		}
		out.Categories = append(out.Categories, cr)

		switch {
		case cr.Files == 0:
			out.Blockers = append(out.Blockers, string(cat)+": no files")
		case !cr.Extracted:
			out.Blockers = append(out.Blockers, string(cat)+": not extracted")
		case !cr.Reviewed:
			out.Blockers = append(out.Blockers, string(cat)+": not reviewed")
		}
	}

	for _, r := range project.Results {
		if r.Status.Resolved() {
			out.Evaluated++
		}
		if r.Status == constants.StatusConforming {
			out.Conforming++
		}
	}
	if err := o.checkExportGate(ctx, projectName); err != nil {
		out.Blockers = append(out.Blockers, "criteria: "+common.Reason(err))
	}

	o.logger.Info("orchestrate.readiness",
		"project", projectName, "ready", out.Ready(), "blockers", len(out.Blockers))
	return out, nil
}

// PendingInformation lists the content fields whose value is still the
// pending token, grouped by category, so a reviewer knows what to fill in.
func (o *Orchestrator) PendingInformation(ctx context.Context, projectName string) (map[constants.Category][]string, error) {
	project, err := o.store.LoadProject(ctx, projectName)
	if err != nil {
		return nil, err
	}

	pending := make(map[constants.Category][]string)
	for _, cat := range constants.AllCategories() {
		ex := project.Extractions[cat]
		if ex == nil {
			continue
		}
		var fields []string
		for name, value := range ex.ContentFields {
			if value == constants.PendingToken {
				fields = append(fields, name)
			}
		}
		if len(fields) > 0 {
			sort.Strings(fields)
			pending[cat] = fields
		}
	}
	return pending, nil
}
