// Package orchestrator is the thin sequencing layer over the engines. It
// wires explicit dependencies, exposes the workflow operations, and holds
// the one cross-cutting policy: no export while any criterion is unresolved
// or non-conforming.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/ai"
	"github.com/outorga-facil/filing-pipeline/internal/common"
	"github.com/outorga-facil/filing-pipeline/internal/criteria"
	"github.com/outorga-facil/filing-pipeline/internal/entity"
	"github.com/outorga-facil/filing-pipeline/internal/export"
	"github.com/outorga-facil/filing-pipeline/internal/extraction"
	"github.com/outorga-facil/filing-pipeline/internal/repository"
)

// Orchestrator sequences the pipeline. Every collaborator comes in through
// the constructor; it holds no state of its own beyond the wiring.
type Orchestrator struct {
	store      repository.ProjectStore
	extraction *extraction.Engine
	criteria   *criteria.Engine
	assembler  *export.Assembler
	template   *export.Template
	gen        ai.Generator
	probeModel string
	logger     *slog.Logger
}

func New(
	store repository.ProjectStore,
	extractionEngine *extraction.Engine,
	criteriaEngine *criteria.Engine,
	assembler *export.Assembler,
	template *export.Template,
	gen ai.Generator,
	probeModel string,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:      store,
		extraction: extractionEngine,
		criteria:   criteriaEngine,
		assembler:  assembler,
		template:   template,
		gen:        gen,
		probeModel: probeModel,
		logger:     logger,
	}
}

// --- project management -------------------------------------------------

func (o *Orchestrator) CreateProject(ctx context.Context, name string) (*entity.Project, error) {
	return o.store.CreateProject(ctx, name)
}

func (o *Orchestrator) DeleteProject(ctx context.Context, name string) error {
	return o.store.DeleteProject(ctx, name)
}

func (o *Orchestrator) ListProjects(ctx context.Context) ([]string, error) {
	return o.store.ListProjects(ctx)
}

func (o *Orchestrator) LoadProject(ctx context.Context, name string) (*entity.Project, error) {
	return o.store.LoadProject(ctx, name)
}

// AddFile registers a source file into a project category. The path is
// stored absolute so later assembly is independent of the working directory.
func (o *Orchestrator) AddFile(ctx context.Context, projectName string, cat constants.Category, path string) (*entity.FileRef, error) {
	if !cat.IsValid() {
		return nil, common.NewAppError("BAD_CATEGORY", "unknown category "+string(cat), common.ErrInvalidInput)
	}
	if !constants.IsAllowedPath(path) {
		return nil, common.NewAppError("BAD_FORMAT",
			"unsupported file extension: "+filepath.Ext(path), common.ErrFormatUnsupported)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, common.NewAppError("FILE_MISSING", "file not found: "+abs, common.ErrNoInput)
	}

	project, err := o.store.LoadProject(ctx, projectName)
	if err != nil {
		return nil, err
	}
	for _, ref := range project.Files[cat] {
		if ref.Path == abs {
			return nil, common.NewAppError("DUPLICATE_FILE",
				"file already registered in "+string(cat), common.ErrInvalidInput)
		}
	}

	ref := entity.FileRef{
		ID:         uuid.NewString(),
		Path:       abs,
		UploadedAt: time.Now().UTC(),
	}
	project.Files[cat] = append(project.Files[cat], ref)
	project.LastModified = ref.UploadedAt
	if err := o.store.SaveProject(ctx, project); err != nil {
		return nil, err
	}
	o.logger.Info("orchestrate.file.added", "project", projectName, "category", cat, "path", abs)
	return &ref, nil
}

// --- extraction ----------------------------------------------------------

func (o *Orchestrator) RunExtraction(ctx context.Context, projectName string, cat constants.Category, force bool) (*entity.StructuredExtraction, error) {
	return o.extraction.RunExtraction(ctx, projectName, cat, force)
}

// BatchSummary aggregates a batch operation's partial failures: the batch
// completes for every unaffected item and reports the rest.
type BatchSummary struct {
	Total     int
	Succeeded int
	Failures  map[string]string
}

func (s BatchSummary) String() string {
	if len(s.Failures) == 0 {
		return fmt.Sprintf("%d of %d succeeded", s.Succeeded, s.Total)
	}
	var parts []string
	for item, reason := range s.Failures {
		parts = append(parts, item+": "+reason)
	}
	return fmt.Sprintf("%d of %d succeeded (%s)", s.Succeeded, s.Total, strings.Join(parts, "; "))
}

// RunExtractionAll extracts every category that has files, continuing past
// per-category failures.
func (o *Orchestrator) RunExtractionAll(ctx context.Context, projectName string, force bool) (BatchSummary, error) {
	project, err := o.store.LoadProject(ctx, projectName)
	if err != nil {
		return BatchSummary{}, err
	}

	summary := BatchSummary{Failures: make(map[string]string)}
	for _, cat := range constants.AllCategories() {
		if len(project.Files[cat]) == 0 {
			continue
		}
		summary.Total++
		if _, err := o.extraction.RunExtraction(ctx, projectName, cat, force); err != nil {
			summary.Failures[string(cat)] = common.Reason(err)
			continue
		}
		summary.Succeeded++
	}
	o.logger.Info("orchestrate.extract_all.done",
		"project", projectName, "total", summary.Total, "succeeded", summary.Succeeded)
	return summary, nil
}

func (o *Orchestrator) SaveEditedText(ctx context.Context, projectName string, cat constants.Category, text string) error {
	return o.extraction.SaveEditedText(ctx, projectName, cat, text)
}

func (o *Orchestrator) RunSecondaryExtraction(ctx context.Context, projectName string, cat constants.Category) (map[string]*string, error) {
	return o.extraction.RunSecondaryExtraction(ctx, projectName, cat, o.template)
}

// --- verification ----------------------------------------------------------

// EvaluateAll runs the whole rule database and reports partial failures as
// a summary rather than failing the batch.
func (o *Orchestrator) EvaluateAll(ctx context.Context, projectName string) ([]entity.CriterionResult, BatchSummary, error) {
	results, err := o.criteria.EvaluateAll(ctx, projectName)
	if err != nil {
		return nil, BatchSummary{}, err
	}
	summary := BatchSummary{Total: len(results), Failures: make(map[string]string)}
	for _, r := range results {
		if r.Status == constants.StatusError {
			summary.Failures[r.CriterionID] = r.Justification
			continue
		}
		summary.Succeeded++
	}
	return results, summary, nil
}

func (o *Orchestrator) EvaluateOne(ctx context.Context, projectName, criterionID string) (*entity.CriterionResult, error) {
	return o.criteria.EvaluateOne(ctx, projectName, criterionID)
}

func (o *Orchestrator) Override(ctx context.Context, projectName, criterionID string, status constants.ConformityStatus, reason string) error {
	return o.criteria.Override(ctx, projectName, criterionID, status, reason)
}

// --- export ----------------------------------------------------------------

// checkExportGate blocks the export while any criterion lacks a settled,
// conforming verdict.
func (o *Orchestrator) checkExportGate(ctx context.Context, projectName string) error {
	results, err := o.store.LoadResults(ctx, projectName)
	if err != nil {
		return err
	}
	byID := make(map[string]entity.CriterionResult, len(results))
	for _, r := range results {
		byID[r.CriterionID] = r
	}

	var blocking []string
	for _, rule := range o.criteria.Rules() {
		r, ok := byID[rule.ID]
		switch {
		case !ok:
			blocking = append(blocking, rule.ID+" (not evaluated)")
		case !r.Status.Resolved():
			blocking = append(blocking, rule.ID+" ("+string(r.Status)+")")
		case r.Status == constants.StatusNonConforming:
			blocking = append(blocking, rule.ID+" (NON_CONFORMING)")
		}
	}
	if len(blocking) > 0 {
		return common.NewAppError("EXPORT_BLOCKED",
			"export blocked by criteria: "+strings.Join(blocking, ", "),
			common.ErrValidation)
	}
	return nil
}

func (o *Orchestrator) GenerateDraft(ctx context.Context, projectName string, overrides map[string]string) (string, error) {
	if err := o.checkExportGate(ctx, projectName); err != nil {
		return "", err
	}
	return o.assembler.GenerateDraft(ctx, projectName, overrides)
}

func (o *Orchestrator) AttachSigned(ctx context.Context, projectName, signedScanPath string) (string, error) {
	return o.assembler.AttachSigned(ctx, projectName, signedScanPath)
}

func (o *Orchestrator) AssembleFinal(ctx context.Context, projectName string) (*export.AssemblyResult, error) {
	if err := o.checkExportGate(ctx, projectName); err != nil {
		return nil, err
	}
	return o.assembler.AssembleFinal(ctx, projectName)
}

func (o *Orchestrator) ExportStage(projectName string) constants.ExportStage {
	return o.assembler.Stage(projectName)
}

// WriteVerificationReport exports the stored verdicts to an XLSX workbook.
func (o *Orchestrator) WriteVerificationReport(ctx context.Context, projectName, path string) error {
	results, err := o.store.LoadResults(ctx, projectName)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return common.NewAppError("NO_RESULTS",
			"no verification results to report; run verify first", common.ErrNoInput)
	}
	return export.WriteVerificationReport(projectName, results, path, o.logger)
}

// --- AI connectivity ---------------------------------------------------------

// ProbeAI performs a cheap connectivity check against the configured model.
func (o *Orchestrator) ProbeAI(ctx context.Context) error {
	return o.gen.Probe(ctx, o.probeModel)
}
