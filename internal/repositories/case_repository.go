package repositories

import (
	"context"
	"database/sql"

	"lexflow/internal/models"
)

// CaseRepository is the read-side view of case records the automation
// engine needs; case CRUD lives elsewhere.
type CaseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Case, error)
}

type caseRepository struct {
	db *sql.DB
}

func NewCaseRepository(db *sql.DB) CaseRepository {
	return &caseRepository{db: db}
}

func (r *caseRepository) FindByID(ctx context.Context, id int64) (*models.Case, error) {
	c := &models.Case{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, number, title, case_type, status, client_name, opened_at
		FROM cases WHERE id = $1`, id).Scan(
		&c.ID, &c.Number, &c.Title, &c.CaseType, &c.Status, &c.ClientName, &c.OpenedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
