package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/entity"
)

// SaveResults overwrites the project's criterion results wholesale.
func (s *Store) SaveResults(ctx context.Context, project string, results []entity.CriterionResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(
		`DELETE FROM criterion_results WHERE project = ?`), project); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	for _, r := range results {
		if err := insertResult(ctx, tx, s, project, r); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveResult upserts a single criterion result, leaving all others untouched.
func (s *Store) SaveResult(ctx context.Context, project string, r entity.CriterionResult) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO criterion_results
			(project, criterion_id, title, status, justification, checked_at, overridden_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (project, criterion_id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			justification = excluded.justification,
			checked_at = excluded.checked_at,
			overridden_at = excluded.overridden_at`),
		project, r.CriterionID, r.Title, string(r.Status), r.Justification,
		r.CheckedAt, nullableTime(r.OverriddenAt))
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// LoadResults returns the project's results ordered by criterion id.
func (s *Store) LoadResults(ctx context.Context, project string) ([]entity.CriterionResult, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT criterion_id, title, status, justification, checked_at, overridden_at
		 FROM criterion_results WHERE project = ? ORDER BY criterion_id`), project)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	defer rows.Close()

	var out []entity.CriterionResult
	for rows.Next() {
		var r entity.CriterionResult
		var status string
		var overridden sql.NullTime
		if err := rows.Scan(&r.CriterionID, &r.Title, &status, &r.Justification,
			&r.CheckedAt, &overridden); err != nil {
			return nil, err
		}
		r.Status = constants.ConformityStatus(status)
		if !r.Status.IsValid() {
			// StorageCorrupt: keep the row visible but force an error verdict.
			s.logger.Warn("store.result.corrupt_status",
				"project", project, "criterion", r.CriterionID, "status", status)
			r.Status = constants.StatusError
		}
		if overridden.Valid {
			t := overridden.Time
			r.OverriddenAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func insertResult(ctx context.Context, tx *sql.Tx, s *Store, project string, r entity.CriterionResult) error {
	_, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO criterion_results
			(project, criterion_id, title, status, justification, checked_at, overridden_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		project, r.CriterionID, r.Title, string(r.Status), r.Justification,
		r.CheckedAt, nullableTime(r.OverriddenAt))
	if err != nil {
		return fmt.Errorf("insert result %s: %w", r.CriterionID, err)
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
