package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"lexflow/internal/models"
)

type DeadlineRepository interface {
	Store(ctx context.Context, d *models.Deadline) error
	// InsertMany persists the batch in one transaction: either every
	// deadline lands or none do.
	InsertMany(ctx context.Context, ds []*models.Deadline) error
	FindByID(ctx context.Context, id int64) (*models.Deadline, error)
	FindByCase(ctx context.Context, caseID int64) ([]models.Deadline, error)
	UpdateStatus(ctx context.Context, id int64, to models.DeadlineStatus) error
	UpdateReminders(ctx context.Context, id int64, reminders models.ReminderList) error

	ListDueOn(ctx context.Context, day time.Time) ([]models.Deadline, error)
	ListOverdue(ctx context.Context, now time.Time) ([]models.Deadline, error)
	ListCritical(ctx context.Context, now time.Time, horizon time.Duration) ([]models.Deadline, error)
}

type deadlineRepository struct {
	db *sql.DB
}

func NewDeadlineRepository(db *sql.DB) DeadlineRepository {
	return &deadlineRepository{db: db}
}

const deadlineColumns = `id, case_id, title, description, type, date, reminders,
       priority, status, assignee_ids, task_id, created_at, updated_at`

func scanDeadline(row interface{ Scan(...interface{}) error }) (*models.Deadline, error) {
	d := &models.Deadline{}
	var assignees pq.Int64Array
	err := row.Scan(
		&d.ID, &d.CaseID, &d.Title, &d.Description, &d.Type, &d.Date, &d.Reminders,
		&d.Priority, &d.Status, &assignees, &d.TaskID, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.AssigneeIDs = assignees
	return d, nil
}

const insertDeadlineQuery = `
	INSERT INTO deadlines (
		case_id, title, description, type, date, reminders,
		priority, status, assignee_ids, task_id, created_at, updated_at
	)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	RETURNING id, created_at, updated_at`

func (r *deadlineRepository) Store(ctx context.Context, d *models.Deadline) error {
	return r.db.QueryRowContext(ctx, insertDeadlineQuery,
		d.CaseID, d.Title, d.Description, d.Type, d.Date, d.Reminders,
		d.Priority, d.Status, pq.Int64Array(d.AssigneeIDs), d.TaskID, d.CreatedAt, d.UpdatedAt,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *deadlineRepository) InsertMany(ctx context.Context, ds []*models.Deadline) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, d := range ds {
		err := tx.QueryRowContext(ctx, insertDeadlineQuery,
			d.CaseID, d.Title, d.Description, d.Type, d.Date, d.Reminders,
			d.Priority, d.Status, pq.Int64Array(d.AssigneeIDs), d.TaskID, d.CreatedAt, d.UpdatedAt,
		).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (r *deadlineRepository) FindByID(ctx context.Context, id int64) (*models.Deadline, error) {
	q := `SELECT ` + deadlineColumns + ` FROM deadlines WHERE id = $1`
	d, err := scanDeadline(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

func (r *deadlineRepository) FindByCase(ctx context.Context, caseID int64) ([]models.Deadline, error) {
	q := `SELECT ` + deadlineColumns + ` FROM deadlines WHERE case_id = $1 ORDER BY date ASC`
	return r.queryDeadlines(ctx, q, caseID)
}

func (r *deadlineRepository) queryDeadlines(ctx context.Context, query string, args ...interface{}) ([]models.Deadline, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Deadline
	for rows.Next() {
		d, err := scanDeadline(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *deadlineRepository) UpdateStatus(ctx context.Context, id int64, to models.DeadlineStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE deadlines SET status=$1, updated_at=NOW() WHERE id=$2`, to, id)
	return err
}

func (r *deadlineRepository) UpdateReminders(ctx context.Context, id int64, reminders models.ReminderList) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE deadlines SET reminders=$1, updated_at=NOW() WHERE id=$2`, reminders, id)
	return err
}

// ListDueOn returns open deadlines whose date falls on the given calendar day.
func (r *deadlineRepository) ListDueOn(ctx context.Context, day time.Time) ([]models.Deadline, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	q := `
SELECT ` + deadlineColumns + `
FROM deadlines
WHERE status NOT IN ('completed','cancelled')
  AND date >= $1 AND date < $2
ORDER BY date ASC`
	return r.queryDeadlines(ctx, q, start, end)
}

func (r *deadlineRepository) ListOverdue(ctx context.Context, now time.Time) ([]models.Deadline, error) {
	q := `
SELECT ` + deadlineColumns + `
FROM deadlines
WHERE status NOT IN ('completed','cancelled')
  AND date < $1
ORDER BY date ASC`
	return r.queryDeadlines(ctx, q, now)
}

func (r *deadlineRepository) ListCritical(ctx context.Context, now time.Time, horizon time.Duration) ([]models.Deadline, error) {
	q := `
SELECT ` + deadlineColumns + `
FROM deadlines
WHERE status NOT IN ('completed','cancelled')
  AND priority IN ('high','critical')
  AND date >= $1 AND date <= $2
ORDER BY date ASC`
	return r.queryDeadlines(ctx, q, now, now.Add(horizon))
}
