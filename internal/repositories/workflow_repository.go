package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"lexflow/internal/models"
)

type WorkflowRepository interface {
	Store(ctx context.Context, w *models.Workflow) error
	FindByID(ctx context.Context, id int64) (*models.Workflow, error)
	FindAll(ctx context.Context, filter models.WorkflowFilter) ([]models.Workflow, error)
	ListActiveByTrigger(ctx context.Context, event models.TriggerEvent) ([]models.Workflow, error)
	// ListTemplatesByTypes returns active templates whose type is in the
	// given set, most used first, capped at limit.
	ListTemplatesByTypes(ctx context.Context, types []string, limit int) ([]models.Workflow, error)
	MarkExecuted(ctx context.Context, id int64, at time.Time) error
}

type workflowRepository struct {
	db *sql.DB
}

func NewWorkflowRepository(db *sql.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

const workflowColumns = `id, owner_id, name, description, type, is_template, is_active,
       trigger_event, usage_count, last_executed, created_at, updated_at`

func (r *workflowRepository) Store(ctx context.Context, w *models.Workflow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO workflows (
			owner_id, name, description, type, is_template, is_active,
			trigger_event, usage_count, last_executed, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at, updated_at`,
		w.OwnerID, w.Name, w.Description, w.Type, w.IsTemplate, w.IsActive,
		w.TriggerEvent, w.UsageCount, w.LastExecuted, w.CreatedAt, w.UpdatedAt,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for i := range w.Steps {
		s := &w.Steps[i]
		s.WorkflowID = w.ID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO workflow_steps (
				workflow_id, step_order, title, description, task_type,
				assign_to_role, days_to_complete, priority, auto_assign
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING id`,
			s.WorkflowID, s.Order, s.Title, s.Description, s.TaskType,
			s.AssignToRole, s.DaysToComplete, s.Priority, s.AutoAssign,
		).Scan(&s.ID)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (r *workflowRepository) FindByID(ctx context.Context, id int64) (*models.Workflow, error) {
	q := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1`
	w := &models.Workflow{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&w.ID, &w.OwnerID, &w.Name, &w.Description, &w.Type, &w.IsTemplate, &w.IsActive,
		&w.TriggerEvent, &w.UsageCount, &w.LastExecuted, &w.CreatedAt, &w.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadSteps(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (r *workflowRepository) loadSteps(ctx context.Context, w *models.Workflow) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, workflow_id, step_order, title, description, task_type,
		       assign_to_role, days_to_complete, priority, auto_assign
		FROM workflow_steps
		WHERE workflow_id = $1
		ORDER BY step_order ASC`, w.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var s models.WorkflowStep
		if err := rows.Scan(
			&s.ID, &s.WorkflowID, &s.Order, &s.Title, &s.Description, &s.TaskType,
			&s.AssignToRole, &s.DaysToComplete, &s.Priority, &s.AutoAssign,
		); err != nil {
			return err
		}
		w.Steps = append(w.Steps, s)
	}
	return rows.Err()
}

func (r *workflowRepository) FindAll(ctx context.Context, filter models.WorkflowFilter) ([]models.Workflow, error) {
	baseQuery := `SELECT ` + workflowColumns + ` FROM workflows`

	conditions := []string{}
	args := []interface{}{}
	argID := 1

	if filter.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argID))
		args = append(args, *filter.OwnerID)
		argID++
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argID))
		args = append(args, *filter.Type)
		argID++
	}
	if filter.IsTemplate != nil {
		conditions = append(conditions, fmt.Sprintf("is_template = $%d", argID))
		args = append(args, *filter.IsTemplate)
		argID++
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argID))
		args = append(args, *filter.IsActive)
		argID++
	}
	if filter.TriggerEvent != nil {
		conditions = append(conditions, fmt.Sprintf("trigger_event = $%d", argID))
		args = append(args, *filter.TriggerEvent)
		argID++
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at DESC"

	return r.queryWorkflows(ctx, baseQuery, args...)
}

func (r *workflowRepository) queryWorkflows(ctx context.Context, query string, args ...interface{}) ([]models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Workflow
	for rows.Next() {
		var w models.Workflow
		if err := rows.Scan(
			&w.ID, &w.OwnerID, &w.Name, &w.Description, &w.Type, &w.IsTemplate, &w.IsActive,
			&w.TriggerEvent, &w.UsageCount, &w.LastExecuted, &w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadSteps(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *workflowRepository) ListActiveByTrigger(ctx context.Context, event models.TriggerEvent) ([]models.Workflow, error) {
	q := `SELECT ` + workflowColumns + ` FROM workflows
		WHERE is_active = TRUE AND trigger_event = $1
		ORDER BY id ASC`
	return r.queryWorkflows(ctx, q, event)
}

func (r *workflowRepository) ListTemplatesByTypes(ctx context.Context, types []string, limit int) ([]models.Workflow, error) {
	if len(types) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(types))
	args := make([]interface{}, 0, len(types)+1)
	for i, t := range types {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args = append(args, t)
	}
	args = append(args, limit)
	q := fmt.Sprintf(`SELECT `+workflowColumns+` FROM workflows
		WHERE is_template = TRUE AND is_active = TRUE AND type IN (%s)
		ORDER BY usage_count DESC, id ASC
		LIMIT $%d`, strings.Join(placeholders, ","), len(types)+1)
	return r.queryWorkflows(ctx, q, args...)
}

// MarkExecuted bumps the usage counter once per successful execution.
func (r *workflowRepository) MarkExecuted(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE workflows SET usage_count = usage_count + 1, last_executed = $1, updated_at = NOW()
		WHERE id = $2`, at, id)
	return err
}
