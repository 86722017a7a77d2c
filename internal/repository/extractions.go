package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/common"
	"github.com/outorga-facil/filing-pipeline/internal/entity"
)

// SaveExtraction upserts the (project, category) extraction record.
func (s *Store) SaveExtraction(ctx context.Context, project string, cat constants.Category, ex *entity.StructuredExtraction) error {
	if ex == nil {
		return common.NewAppError("EXTRACTION_NIL", "extraction must not be nil", common.ErrInvalidInput)
	}
	contentJSON, err := json.Marshal(ex.ContentFields)
	if err != nil {
		return fmt.Errorf("marshal content fields: %w", err)
	}
	ignoredJSON, err := json.Marshal(ex.IgnoredFields)
	if err != nil {
		return fmt.Errorf("marshal ignored fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO extractions
			(project, category, content_fields, ignored_fields, consolidated_text,
			 workflow_used, extracted_at, last_modified, reviewed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (project, category) DO UPDATE SET
			content_fields = excluded.content_fields,
			ignored_fields = excluded.ignored_fields,
			consolidated_text = excluded.consolidated_text,
			workflow_used = excluded.workflow_used,
			extracted_at = excluded.extracted_at,
			last_modified = excluded.last_modified,
			reviewed = excluded.reviewed`),
		project, string(cat), string(contentJSON), string(ignoredJSON),
		ex.ConsolidatedText, string(ex.WorkflowUsed), ex.ExtractedAt, ex.LastModified, ex.Reviewed)
	if err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}
	return nil
}

// LoadExtraction loads one category's extraction. Returns ErrNotFound when
// the record does not exist. A record with corrupt JSON columns is logged
// and returned with those fields empty rather than failing the read.
func (s *Store) LoadExtraction(ctx context.Context, project string, cat constants.Category) (*entity.StructuredExtraction, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT content_fields, ignored_fields, consolidated_text, workflow_used,
			extracted_at, last_modified, reviewed
		 FROM extractions WHERE project = ? AND category = ?`), project, string(cat))

	var contentJSON, ignoredJSON, workflow string
	ex := &entity.StructuredExtraction{}
	err := row.Scan(&contentJSON, &ignoredJSON, &ex.ConsolidatedText, &workflow,
		&ex.ExtractedAt, &ex.LastModified, &ex.Reviewed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("EXTRACTION_NOT_FOUND",
			"no extraction for "+project+"/"+string(cat), common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load extraction: %w", err)
	}
	ex.WorkflowUsed = constants.Category(workflow)

	if err := json.Unmarshal([]byte(contentJSON), &ex.ContentFields); err != nil {
		s.logger.Warn("store.extraction.corrupt_content",
			"project", project, "category", cat, "error", err)
		ex.ContentFields = map[string]string{}
	}
	if err := json.Unmarshal([]byte(ignoredJSON), &ex.IgnoredFields); err != nil {
		s.logger.Warn("store.extraction.corrupt_ignored",
			"project", project, "category", cat, "error", err)
		ex.IgnoredFields = map[string]string{}
	}
	return ex, nil
}
