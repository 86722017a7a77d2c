package criteria

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/ai"
	"github.com/outorga-facil/filing-pipeline/internal/common"
	"github.com/outorga-facil/filing-pipeline/internal/entity"
	"github.com/outorga-facil/filing-pipeline/internal/repository"
)

// stepVerified is the workflow progress mark set after a verification run.
const stepVerified = 3

// Engine evaluates criteria against a project's consolidated texts.
type Engine struct {
	store       repository.ProjectStore
	gen         ai.Generator
	model       string
	rules       []entity.Criterion
	mandate     *MandateCheck
	parallelism int
	logger      *slog.Logger
}

func NewEngine(store repository.ProjectStore, gen ai.Generator, model string, rules []entity.Criterion, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:       store,
		gen:         gen,
		model:       model,
		rules:       rules,
		mandate:     NewMandateCheck(gen, model, logger),
		parallelism: 4,
		logger:      logger,
	}
}

// Rules returns the loaded rule database (read-only).
func (e *Engine) Rules() []entity.Criterion {
	out := make([]entity.Criterion, len(e.rules))
	copy(out, e.rules)
	return out
}

// EvaluateAll runs every criterion independently and overwrites the
// project's results wholesale, except that a manually overridden result is
// carried over untouched unless that criterion is explicitly re-evaluated.
// Criteria are evaluated in parallel but reassembled in rule-database order
// before anything is written back.
func (e *Engine) EvaluateAll(ctx context.Context, projectName string) ([]entity.CriterionResult, error) {
	if len(e.rules) == 0 {
		return nil, common.NewAppError("NO_RULES", "rule database is empty", common.ErrNoInput)
	}

	project, err := e.store.LoadProject(ctx, projectName)
	if err != nil {
		return nil, err
	}

	e.logger.Info("verify.all.start", "project", projectName, "criteria", len(e.rules))
	start := time.Now()

	results := make([]entity.CriterionResult, len(e.rules))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for i, rule := range e.rules {
		if prior := project.ResultByID(rule.ID); prior != nil && prior.Overridden() {
			// Overrides are sticky against automatic re-runs.
			results[i] = *prior
			e.logger.Info("verify.criterion.override_kept",
				"project", projectName, "criterion", rule.ID)
			continue
		}
		g.Go(func() error {
			results[i] = e.evaluate(gctx, rule, project)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := e.store.SaveResults(ctx, projectName, results); err != nil {
		return nil, err
	}
	if project.CurrentStep < stepVerified {
		project.CurrentStep = stepVerified
		if err := e.store.SaveProject(ctx, project); err != nil {
			return nil, err
		}
	}

	errored := 0
	for _, r := range results {
		if r.Status == constants.StatusError {
			errored++
		}
	}
	e.logger.Info("verify.all.done",
		"project", projectName,
		"evaluated", len(results)-errored,
		"errored", errored,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

// EvaluateOne recomputes a single criterion and replaces only the matching
// entry, leaving every other result untouched. This is the explicit
// re-trigger, so it replaces a manual override too.
func (e *Engine) EvaluateOne(ctx context.Context, projectName, criterionID string) (*entity.CriterionResult, error) {
	rule, ok := e.ruleByID(criterionID)
	if !ok {
		return nil, common.NewAppError("CRITERION_NOT_FOUND",
			"criterion "+criterionID+" is not in the rule database", common.ErrNotFound)
	}
	project, err := e.store.LoadProject(ctx, projectName)
	if err != nil {
		return nil, err
	}

	result := e.evaluate(ctx, rule, project)
	if err := e.store.SaveResult(ctx, projectName, result); err != nil {
		return nil, err
	}
	e.logger.Info("verify.one.done",
		"project", projectName, "criterion", criterionID, "status", result.Status)
	return &result, nil
}

// Override replaces an automatic verdict with a human decision. It requires
// a pre-existing result, stamps overriddenAt, and never calls the AI.
func (e *Engine) Override(ctx context.Context, projectName, criterionID string, status constants.ConformityStatus, reason string) error {
	if !status.IsValid() {
		return common.NewAppError("BAD_STATUS",
			"status must be one of "+strings.Join(constants.StatusValues(), ", "), common.ErrInvalidInput)
	}
	results, err := e.store.LoadResults(ctx, projectName)
	if err != nil {
		return err
	}
	var prior *entity.CriterionResult
	for i := range results {
		if results[i].CriterionID == criterionID {
			prior = &results[i]
			break
		}
	}
	if prior == nil {
		return common.NewAppError("NO_PRIOR_RESULT",
			"cannot override criterion "+criterionID+" before any automatic run", common.ErrNotFound)
	}

	now := time.Now().UTC()
	prior.Status = status
	prior.Justification = reason
	prior.OverriddenAt = &now
	if err := e.store.SaveResult(ctx, projectName, *prior); err != nil {
		return err
	}
	e.logger.Info("verify.override", "project", projectName, "criterion", criterionID, "status", status)
	return nil
}

// evaluate runs one criterion. It never returns an error: every failure is
// folded into a StatusError result so a batch completes for all unaffected
// criteria.
func (e *Engine) evaluate(ctx context.Context, rule entity.Criterion, project *entity.Project) entity.CriterionResult {
	result := entity.CriterionResult{
		CriterionID: rule.ID,
		Title:       rule.Title,
		CheckedAt:   time.Now().UTC(),
	}

	contextText, contributed := e.gatherContext(rule, project)
	if contributed == 0 {
		// Cost guard: no AI call without any context.
		result.Status = constants.StatusError
		result.Justification = "insufficient context: no source document contributed text"
		e.logger.Warn("verify.criterion.no_context", "project", project.Name, "criterion", rule.ID)
		return result
	}

	if rule.Check == "mandate_validity" {
		return e.evaluateMandate(ctx, rule, project, result)
	}

	prompt := ai.BuildCriteriaCheckPrompt(contextText, rule.Instruction, constants.StatusValues())
	raw, err := e.gen.GenerateStructured(ctx, prompt, e.model)
	if err != nil {
		result.Status = constants.StatusError
		result.Justification = "AI judgment failed: " + common.Reason(err)
		e.logger.Error("verify.criterion.ai_failed",
			"project", project.Name, "criterion", rule.ID, "error", err)
		return result
	}

	var verdict struct {
		Status        *string `json:"status"`
		Justification *string `json:"justification"`
	}
	if err := json.Unmarshal(raw, &verdict); err != nil || verdict.Status == nil || verdict.Justification == nil {
		result.Status = constants.StatusError
		result.Justification = "AI reply did not match the expected status/justification format"
		e.logger.Error("verify.criterion.format_mismatch",
			"project", project.Name, "criterion", rule.ID)
		return result
	}

	status := constants.ConformityStatus(strings.ToUpper(strings.TrimSpace(*verdict.Status)))
	if !status.IsValid() {
		result.Status = constants.StatusError
		result.Justification = fmt.Sprintf("AI returned unknown status %q", *verdict.Status)
		return result
	}
	result.Status = status
	result.Justification = *verdict.Justification
	e.logger.Info("verify.criterion.ok",
		"project", project.Name, "criterion", rule.ID, "status", status)
	return result
}

// gatherContext concatenates the contributing categories' consolidated
// texts with document-name headers so the judgment can tell sources apart
// when cross-checking.
func (e *Engine) gatherContext(rule entity.Criterion, project *entity.Project) (string, int) {
	var parts []string
	for _, cat := range rule.SourceDocuments {
		ex := project.Extractions[cat]
		if ex == nil {
			e.logger.Warn("verify.context.missing",
				"project", project.Name, "criterion", rule.ID, "category", cat)
			continue
		}
		text := strings.TrimSpace(ex.ConsolidatedText)
		if text == "" {
			e.logger.Warn("verify.context.blank",
				"project", project.Name, "criterion", rule.ID, "category", cat)
			continue
		}
		parts = append(parts,
			fmt.Sprintf("### PROVIDED DOCUMENT: %s ###\n%s", strings.ToUpper(string(cat)), text))
	}
	return strings.Join(parts, "\n\n---\n\n"), len(parts)
}

func (e *Engine) evaluateMandate(ctx context.Context, rule entity.Criterion, project *entity.Project, result entity.CriterionResult) entity.CriterionResult {
	minutesText, statuteText := "", ""
	if ex := project.Extractions[constants.Minutes]; ex != nil {
		minutesText = ex.ConsolidatedText
	}
	if ex := project.Extractions[constants.Statute]; ex != nil {
		statuteText = ex.ConsolidatedText
	}

	check := e.mandate.Verify(ctx, minutesText, statuteText)
	if check.Valid {
		result.Status = constants.StatusConforming
		result.Justification = check.Justification
	} else {
		result.Status = constants.StatusNonConforming
		result.Justification = check.Justification
	}
	e.logger.Info("verify.criterion.mandate",
		"project", project.Name, "criterion", rule.ID, "valid", check.Valid)
	return result
}

func (e *Engine) ruleByID(id string) (entity.Criterion, bool) {
	for _, r := range e.rules {
		if r.ID == id {
			return r, true
		}
	}
	return entity.Criterion{}, false
}
