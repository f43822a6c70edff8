package memory

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/joss/domem/internal/db"
)

const planColumns = "id, session_id, title, file_path, content, status, created_at, updated_at"

// CreatePlan stores a draft plan and returns its id.
func (s *Store) CreatePlan(ctx context.Context, sessionID, title, filePath, content string) (int64, error) {
	now := s.unix()
	res, err := s.db.Execute(ctx, s.sql(`
		INSERT INTO plans (session_id, title, file_path, content, status, created_at, updated_at)
		VALUES (%[1]s, %[1]s, %[1]s, %[1]s, %[1]s, %[1]s, %[1]s)`),
		sessionID, title, nullIfEmpty(filePath), content, PlanDraft, now, now)
	if err != nil {
		return 0, fmt.Errorf("create plan: %w", err)
	}
	return s.insertID(res), nil
}

// ValidatePlanStatus rejects values outside PlanStatuses.
func ValidatePlanStatus(status string) error {
	if slices.Contains(PlanStatuses, status) {
		return nil
	}
	return fmt.Errorf("%w: %q (allowed: %s)", db.ErrInvalidStatus, status, strings.Join(PlanStatuses, ", "))
}

// UpdatePlanStatus changes a plan's status and bumps updated_at. Invalid
// statuses are rejected before anything is written. updated_at always
// moves forward, even for changes within the same second.
func (s *Store) UpdatePlanStatus(ctx context.Context, planID int64, status string) error {
	if err := ValidatePlanStatus(status); err != nil {
		return err
	}

	now := s.unix()
	res, err := s.db.Execute(ctx, s.sql(`
		UPDATE plans
		SET status = %[1]s,
		    updated_at = CASE WHEN %[1]s > updated_at THEN %[1]s ELSE updated_at + 1 END
		WHERE id = %[1]s`),
		status, now, now, planID)
	if err != nil {
		return fmt.Errorf("update plan status: %w", err)
	}
	if res.RowsAffected == 0 {
		return db.NewNotFoundError("plan", strconv.FormatInt(planID, 10))
	}
	return nil
}

// GetPlans lists plans by most recent update, optionally by status.
func (s *Store) GetPlans(ctx context.Context, status string) ([]Plan, error) {
	var (
		rows []db.Row
		err  error
	)
	if status != "" {
		rows, err = s.db.FetchAll(ctx, s.sql(`
			SELECT `+planColumns+`
			FROM plans
			WHERE status = %[1]s
			ORDER BY updated_at DESC, id DESC`), status)
	} else {
		rows, err = s.db.FetchAll(ctx, `
			SELECT `+planColumns+`
			FROM plans
			ORDER BY updated_at DESC, id DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("get plans: %w", err)
	}
	return mapRows(rows, planFromRow), nil
}

// GetPlan returns nil when the plan does not exist.
func (s *Store) GetPlan(ctx context.Context, planID int64) (*Plan, error) {
	row, err := s.db.FetchOne(ctx, s.sql(`
		SELECT `+planColumns+`
		FROM plans
		WHERE id = %[1]s`), planID)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if row == nil {
		return nil, nil
	}
	p := planFromRow(row)
	return &p, nil
}
