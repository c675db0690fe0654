package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"lexflow/internal/models"
)

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindActiveByRole returns active users ordered by creation time
	// ascending; the engine's round-robin assignment depends on that order.
	FindActiveByRole(ctx context.Context, role string) ([]models.User, error)
	ListActiveByRoles(ctx context.Context, roles ...string) ([]models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, is_active,
       COALESCE(phone,''), COALESCE(telegram_chat_id,0), COALESCE(notify_telegram,TRUE), created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.Phone, &u.TelegramChatID, &u.NotifyTelegram, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) FindActiveByRole(ctx context.Context, role string) ([]models.User, error) {
	return r.queryUsers(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE role = $1 AND is_active = TRUE
		ORDER BY created_at ASC`, role)
}

func (r *userRepository) ListActiveByRoles(ctx context.Context, roles ...string) ([]models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE is_active = TRUE AND role = ANY($1) ORDER BY created_at ASC`
	return r.queryUsers(ctx, q, pq.Array(roles))
}

func (r *userRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
