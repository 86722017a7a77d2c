package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/common"
	"github.com/outorga-facil/filing-pipeline/internal/entity"
)

// ProjectStore is the persistence contract the engines depend on.
type ProjectStore interface {
	CreateProject(ctx context.Context, name string) (*entity.Project, error)
	LoadProject(ctx context.Context, name string) (*entity.Project, error)
	SaveProject(ctx context.Context, p *entity.Project) error
	DeleteProject(ctx context.Context, name string) error
	ListProjects(ctx context.Context) ([]string, error)

	SaveExtraction(ctx context.Context, project string, cat constants.Category, ex *entity.StructuredExtraction) error
	LoadExtraction(ctx context.Context, project string, cat constants.Category) (*entity.StructuredExtraction, error)

	SaveResults(ctx context.Context, project string, results []entity.CriterionResult) error
	SaveResult(ctx context.Context, project string, result entity.CriterionResult) error
	LoadResults(ctx context.Context, project string) ([]entity.CriterionResult, error)
}

var _ ProjectStore = (*Store)(nil)

// CreateProject inserts an empty project with the five fixed categories.
func (s *Store) CreateProject(ctx context.Context, name string) (*entity.Project, error) {
	if name == "" {
		return nil, common.NewAppError("PROJECT_NAME", "project name is required", common.ErrInvalidInput)
	}
	now := time.Now().UTC()
	p := entity.NewProject(name, now)

	filesJSON, err := json.Marshal(p.Files)
	if err != nil {
		return nil, fmt.Errorf("marshal files: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO projects (name, files_json, current_step, created_at, last_modified)
		 VALUES (?, ?, ?, ?, ?)`),
		p.Name, string(filesJSON), p.CurrentStep, p.CreatedAt, p.LastModified)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	s.logger.Info("store.project.created", "project", name)
	return p, nil
}

// LoadProject loads the project record plus its extraction and result
// records. A corrupt record is logged loudly and treated as absent; it
// never aborts the load.
func (s *Store) LoadProject(ctx context.Context, name string) (*entity.Project, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT name, files_json, current_step, created_at, last_modified
		 FROM projects WHERE name = ?`), name)

	p := &entity.Project{
		Files:       make(map[constants.Category][]entity.FileRef),
		Extractions: make(map[constants.Category]*entity.StructuredExtraction),
	}
	var filesJSON string
	err := row.Scan(&p.Name, &filesJSON, &p.CurrentStep, &p.CreatedAt, &p.LastModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("PROJECT_NOT_FOUND", "project "+name+" does not exist", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	if err := json.Unmarshal([]byte(filesJSON), &p.Files); err != nil {
		// StorageCorrupt: warn loudly, continue with empty file map.
		s.logger.Warn("store.project.corrupt_files", "project", name, "error", err)
		p.Files = make(map[constants.Category][]entity.FileRef)
		for _, cat := range constants.AllCategories() {
			p.Files[cat] = nil
		}
	}

	for _, cat := range constants.AllCategories() {
		ex, err := s.LoadExtraction(ctx, name, cat)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		if ex != nil {
			p.Extractions[cat] = ex
		}
	}

	results, err := s.LoadResults(ctx, name)
	if err != nil {
		return nil, err
	}
	p.Results = results
	return p, nil
}

// SaveProject persists project metadata. current_step never decreases:
// the stored value wins if it is already further along.
func (s *Store) SaveProject(ctx context.Context, p *entity.Project) error {
	var storedStep int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT current_step FROM projects WHERE name = ?`), p.Name).Scan(&storedStep)
	if errors.Is(err, sql.ErrNoRows) {
		return common.NewAppError("PROJECT_NOT_FOUND", "project "+p.Name+" does not exist", common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read current step: %w", err)
	}
	if storedStep > p.CurrentStep {
		p.CurrentStep = storedStep
	}

	filesJSON, err := json.Marshal(p.Files)
	if err != nil {
		return fmt.Errorf("marshal files: %w", err)
	}
	p.LastModified = time.Now().UTC()
	_, err = s.db.ExecContext(ctx, s.rebind(
		`UPDATE projects SET files_json = ?, current_step = ?, last_modified = ? WHERE name = ?`),
		string(filesJSON), p.CurrentStep, p.LastModified, p.Name)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

// DeleteProject removes the project and all derived state.
func (s *Store) DeleteProject(ctx context.Context, name string) error {
	for _, stmt := range []string{
		`DELETE FROM criterion_results WHERE project = ?`,
		`DELETE FROM extractions WHERE project = ?`,
		`DELETE FROM projects WHERE name = ?`,
	} {
		if _, err := s.db.ExecContext(ctx, s.rebind(stmt), name); err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
	}
	s.logger.Info("store.project.deleted", "project", name)
	return nil
}

// ListProjects returns all project names, sorted.
func (s *Store) ListProjects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
