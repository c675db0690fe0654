package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"lexflow/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) error
	UpdateAssignee(ctx context.Context, id int64, assigneeID, assignerID int64) error
	Complete(ctx context.Context, id int64, at time.Time) error

	// Lifecycle queries for the periodic jobs.
	ListOverdue(ctx context.Context, now time.Time, cooldown time.Duration) ([]models.Task, error)
	ListDueWithin(ctx context.Context, now time.Time, window, cooldown time.Duration) ([]models.Task, error)
	ListRecurringDue(ctx context.Context, now time.Time) ([]models.Task, error)
	CountOpenByAssignee(ctx context.Context, assigneeID int64) (int, error)

	// Conditional updates: both return false when another run already
	// claimed the row, so overlapping ticks cannot double-send a reminder
	// or double-create a recurring instance.
	ClaimReminder(ctx context.Context, id int64, now time.Time, cooldown time.Duration) (bool, error)
	AdvanceRecurrence(ctx context.Context, id int64, prev, next time.Time) (bool, error)
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, case_id, assignee_id, assigner_id, title, description, type,
       priority, status, due_date, completed_at, is_recurring,
       recur_frequency, recur_interval, recur_end_date, recur_next_occurrence,
       last_reminder_sent, workflow_id, created_at, updated_at`

func scanTask(row interface{ Scan(...interface{}) error }) (*models.Task, error) {
	t := &models.Task{}
	var (
		freq     sql.NullString
		interval sql.NullInt64
	)
	err := row.Scan(
		&t.ID, &t.CaseID, &t.AssigneeID, &t.AssignerID, &t.Title, &t.Description, &t.Type,
		&t.Priority, &t.Status, &t.DueDate, &t.CompletedAt, &t.IsRecurring,
		&freq, &interval, &t.Recurrence.EndDate, &t.Recurrence.NextOccurrence,
		&t.LastReminderSent, &t.WorkflowID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Recurrence.Frequency = freq.String
	t.Recurrence.Interval = int(interval.Int64)
	return t, nil
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			case_id, assignee_id, assigner_id, title, description, type,
			priority, status, due_date, completed_at, is_recurring,
			recur_frequency, recur_interval, recur_end_date, recur_next_occurrence,
			last_reminder_sent, workflow_id, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		RETURNING id, created_at, updated_at`
	var freq sql.NullString
	var interval sql.NullInt64
	if task.IsRecurring {
		freq = sql.NullString{String: task.Recurrence.Frequency, Valid: true}
		interval = sql.NullInt64{Int64: int64(task.Recurrence.Interval), Valid: true}
	}
	return r.db.QueryRowContext(ctx, query,
		task.CaseID, task.AssigneeID, task.AssignerID, task.Title, task.Description, task.Type,
		task.Priority, task.Status, task.DueDate, task.CompletedAt, task.IsRecurring,
		freq, interval, task.Recurrence.EndDate, task.Recurrence.NextOccurrence,
		task.LastReminderSent, task.WorkflowID, task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`

	conditions := []string{}
	args := []interface{}{}
	argID := 1

	if filter.AssigneeID != nil {
		conditions = append(conditions, fmt.Sprintf("assignee_id = $%d", argID))
		args = append(args, *filter.AssigneeID)
		argID++
	}
	if filter.AssignerID != nil {
		conditions = append(conditions, fmt.Sprintf("assigner_id = $%d", argID))
		args = append(args, *filter.AssignerID)
		argID++
	}
	if filter.CaseID != nil {
		conditions = append(conditions, fmt.Sprintf("case_id = $%d", argID))
		args = append(args, *filter.CaseID)
		argID++
	}
	if filter.WorkflowID != nil {
		conditions = append(conditions, fmt.Sprintf("workflow_id = $%d", argID))
		args = append(args, *filter.WorkflowID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at DESC"

	return r.queryTasks(ctx, baseQuery, args...)
}

func (r *taskRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET
			assignee_id=$1, title=$2, description=$3, type=$4, due_date=$5,
			priority=$6, status=$7, is_recurring=$8, recur_frequency=$9,
			recur_interval=$10, recur_end_date=$11, recur_next_occurrence=$12,
			updated_at=$13
		WHERE id=$14`
	_, err := r.db.ExecContext(ctx, query,
		task.AssigneeID, task.Title, task.Description, task.Type, task.DueDate,
		task.Priority, task.Status, task.IsRecurring, task.Recurrence.Frequency,
		task.Recurrence.Interval, task.Recurrence.EndDate, task.Recurrence.NextOccurrence,
		task.UpdatedAt, task.ID,
	)
	return err
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status=$1, updated_at=NOW() WHERE id=$2`, to, id)
	return err
}

func (r *taskRepository) UpdateAssignee(ctx context.Context, id int64, assigneeID, assignerID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET assignee_id=$1, assigner_id=$2, updated_at=NOW() WHERE id=$3`,
		assigneeID, assignerID, id)
	return err
}

// Complete marks a task completed. completed_at is written only on the first
// transition; re-completing keeps the original timestamp.
func (r *taskRepository) Complete(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET status=$1, completed_at=COALESCE(completed_at, $2), updated_at=NOW()
		WHERE id=$3`,
		models.StatusCompleted, at, id)
	return err
}

func (r *taskRepository) ListOverdue(ctx context.Context, now time.Time, cooldown time.Duration) ([]models.Task, error) {
	q := `
SELECT ` + taskColumns + `
FROM tasks
WHERE status NOT IN ('completed','cancelled')
  AND due_date IS NOT NULL
  AND due_date < $1
  AND (last_reminder_sent IS NULL OR last_reminder_sent <= $2)
ORDER BY due_date ASC`
	return r.queryTasks(ctx, q, now, now.Add(-cooldown))
}

func (r *taskRepository) ListDueWithin(ctx context.Context, now time.Time, window, cooldown time.Duration) ([]models.Task, error) {
	q := `
SELECT ` + taskColumns + `
FROM tasks
WHERE status NOT IN ('completed','cancelled')
  AND due_date IS NOT NULL
  AND due_date >= $1 AND due_date <= $2
  AND (last_reminder_sent IS NULL OR last_reminder_sent <= $3)
ORDER BY due_date ASC`
	return r.queryTasks(ctx, q, now, now.Add(window), now.Add(-cooldown))
}

func (r *taskRepository) ListRecurringDue(ctx context.Context, now time.Time) ([]models.Task, error) {
	q := `
SELECT ` + taskColumns + `
FROM tasks
WHERE is_recurring = TRUE
  AND status = 'completed'
  AND recur_next_occurrence IS NOT NULL
  AND recur_next_occurrence <= $1
ORDER BY recur_next_occurrence ASC`
	return r.queryTasks(ctx, q, now)
}

func (r *taskRepository) CountOpenByAssignee(ctx context.Context, assigneeID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE assignee_id=$1 AND status NOT IN ('completed','cancelled')`,
		assigneeID).Scan(&n)
	return n, err
}

func (r *taskRepository) ClaimReminder(ctx context.Context, id int64, now time.Time, cooldown time.Duration) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET last_reminder_sent=$1, updated_at=NOW()
		WHERE id=$2 AND (last_reminder_sent IS NULL OR last_reminder_sent <= $3)`,
		now, id, now.Add(-cooldown))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *taskRepository) AdvanceRecurrence(ctx context.Context, id int64, prev, next time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET recur_next_occurrence=$1, updated_at=NOW()
		WHERE id=$2 AND recur_next_occurrence=$3`,
		next, id, prev)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
