package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/common"
	"github.com/outorga-facil/filing-pipeline/internal/pdfgen"
	"github.com/outorga-facil/filing-pipeline/internal/repository"
)

// Artifact file names inside a project's export directory.
const (
	draftFileName     = "requerimento_rascunho.pdf"
	signedFileName    = "requerimento_assinado.pdf"
	assembledFileName = "pacote_final.pdf"
)

const stepExported = 4

// AssemblyResult reports the merged package plus any source files skipped
// because they were missing on disk.
type AssemblyResult struct {
	PackagePath string
	Skipped     []string
}

// Assembler owns the export state machine: draft, signed replacement,
// final concatenated package, with downstream invalidation on regeneration.
type Assembler struct {
	store     repository.ProjectStore
	resolver  *Resolver
	template  *Template
	renderer  pdfgen.Renderer
	merger    pdfgen.Merger
	outputDir string
	logger    *slog.Logger
}

func NewAssembler(store repository.ProjectStore, template *Template, renderer pdfgen.Renderer, merger pdfgen.Merger, outputDir string, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		store:     store,
		resolver:  NewResolver(template, logger),
		template:  template,
		renderer:  renderer,
		merger:    merger,
		outputDir: outputDir,
		logger:    logger,
	}
}

func (a *Assembler) projectDir(projectName string) string {
	return filepath.Join(a.outputDir, projectName)
}

func (a *Assembler) draftPath(projectName string) string {
	return filepath.Join(a.projectDir(projectName), draftFileName)
}

func (a *Assembler) signedPath(projectName string) string {
	return filepath.Join(a.projectDir(projectName), signedFileName)
}

func (a *Assembler) packagePath(projectName string) string {
	return filepath.Join(a.projectDir(projectName), assembledFileName)
}

// Stage reports how far the export package has progressed, by probing which
// artifacts exist on disk.
func (a *Assembler) Stage(projectName string) constants.ExportStage {
	switch {
	case fileExists(a.packagePath(projectName)):
		return constants.StageAssembled
	case fileExists(a.signedPath(projectName)):
		return constants.StageSigned
	case fileExists(a.draftPath(projectName)):
		return constants.StageDraft
	default:
		return constants.StageNone
	}
}

// GenerateDraft resolves every template field and renders the request form.
// Any signed or assembled artifact is invalidated first: a package must
// never mix a new draft with an old signature.
func (a *Assembler) GenerateDraft(ctx context.Context, projectName string, overrides map[string]string) (string, error) {
	a.logger.Info("export.draft.start", "project", projectName)

	project, err := a.store.LoadProject(ctx, projectName)
	if err != nil {
		return "", err
	}

	values, err := a.resolver.Resolve(project, overrides)
	if err != nil {
		return "", err
	}

	a.invalidateDownstream(projectName, constants.StageDraft)

	doc := a.buildDocument(values)
	data, err := a.renderer.Render(doc)
	if err != nil {
		return "", common.NewAppError("RENDER_FAILED", "draft rendering failed", err)
	}

	path := a.draftPath(projectName)
	if err := os.MkdirAll(a.projectDir(projectName), 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write draft: %w", err)
	}

	a.logger.Info("export.draft.ok", "project", projectName, "path", path, "bytes", len(data))
	return path, nil
}

// AttachSigned registers the user's signed scan of the draft, replacing the
// draft as the form page of the final package. A stale assembled package is
// invalidated.
func (a *Assembler) AttachSigned(ctx context.Context, projectName, signedScanPath string) (string, error) {
	if a.Stage(projectName) == constants.StageNone {
		return "", common.NewAppError("NO_DRAFT",
			"generate a draft before attaching a signed scan", common.ErrValidation)
	}
	if !strings.EqualFold(filepath.Ext(signedScanPath), ".pdf") {
		return "", common.NewAppError("BAD_SIGNED_SCAN",
			"signed scan must be a PDF", common.ErrInvalidInput)
	}

	a.invalidateDownstream(projectName, constants.StageSigned)

	dst := a.signedPath(projectName)
	if err := copyFile(signedScanPath, dst); err != nil {
		return "", fmt.Errorf("store signed scan: %w", err)
	}
	a.logger.Info("export.signed.ok", "project", projectName, "path", dst)
	return dst, nil
}

// AssembleFinal concatenates the form (signed scan when present, otherwise
// the draft) followed by every PDF source file in category-then-upload
// order. Missing sources are skipped and reported; the draft artifact is
// removed after a successful merge; a failed merge leaves the target in
// place for diagnosis.
func (a *Assembler) AssembleFinal(ctx context.Context, projectName string) (*AssemblyResult, error) {
	start := time.Now()
	a.logger.Info("export.assemble.start", "project", projectName)

	project, err := a.store.LoadProject(ctx, projectName)
	if err != nil {
		return nil, err
	}

	form := a.signedPath(projectName)
	usingDraft := false
	if !fileExists(form) {
		form = a.draftPath(projectName)
		usingDraft = true
	}
	if !fileExists(form) {
		return nil, common.NewAppError("NO_DRAFT",
			"nothing to assemble: generate a draft first", common.ErrValidation)
	}

	inputs := []string{form}
	var skipped []string
	for _, ref := range project.SourceFiles() {
		if !strings.EqualFold(filepath.Ext(ref.Path), ".pdf") {
			continue
		}
		if !fileExists(ref.Path) {
			skipped = append(skipped, ref.Path)
			a.logger.Warn("export.assemble.missing_source", "project", projectName, "path", ref.Path)
			continue
		}
		inputs = append(inputs, ref.Path)
	}

	target := a.packagePath(projectName)
	if err := a.merger.Merge(inputs, target); err != nil {
		return nil, common.NewAppError("ASSEMBLY_FAILED", "final package merge failed", err)
	}

	if usingDraft {
		if err := os.Remove(a.draftPath(projectName)); err != nil && !os.IsNotExist(err) {
			a.logger.Warn("export.assemble.draft_cleanup_failed", "project", projectName, "error", err)
		}
	}

	if project.CurrentStep < stepExported {
		project.CurrentStep = stepExported
		if err := a.store.SaveProject(ctx, project); err != nil {
			return nil, err
		}
	}

	a.logger.Info("export.assemble.ok",
		"project", projectName,
		"path", target,
		"merged", len(inputs),
		"skipped", len(skipped),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &AssemblyResult{PackagePath: target, Skipped: skipped}, nil
}

// invalidateDownstream deletes every artifact past the stage being
// regenerated so stale downstream files can never leak into a package.
func (a *Assembler) invalidateDownstream(projectName string, regenerating constants.ExportStage) {
	targets := []string{a.packagePath(projectName)}
	if regenerating == constants.StageDraft {
		targets = append(targets, a.signedPath(projectName))
	}
	for _, path := range targets {
		if !fileExists(path) {
			continue
		}
		if err := os.Remove(path); err != nil {
			a.logger.Warn("export.invalidate.failed", "project", projectName, "path", path, "error", err)
			continue
		}
		a.logger.Info("export.invalidate.removed", "project", projectName, "path", path)
	}
}

func (a *Assembler) buildDocument(values map[string]string) pdfgen.Document {
	doc := pdfgen.Document{
		Title:          a.template.Title,
		Subtitle:       a.template.Subtitle,
		Boilerplate:    a.template.Boilerplate,
		Declaration:    a.template.Declaration,
		SignatureLines: a.template.SignatureLines,
	}
	for _, table := range a.template.Tables {
		t := pdfgen.Table{Title: table.Title}
		for _, f := range table.Fields {
			t.Rows = append(t.Rows, pdfgen.Row{Label: f.Label, Value: values[f.ID]})
		}
		doc.Tables = append(doc.Tables, t)
	}
	if city, ok := values["cidade"]; ok {
		doc.CityAndDate = city + ", " + values["data_atual"]
	} else if date, ok := values["data_atual"]; ok {
		doc.CityAndDate = date
	}
	return doc
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
