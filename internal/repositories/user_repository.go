package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taskmarket_backend/internal/models"
	"taskmarket_backend/pkg/apperrors"
)

const userColumns = `
	id, email, password_hash, first_name, last_name, role, status,
	trust_level, admin_approved_tier3, provider_customer_id,
	provider_payout_id, suspended_at, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, u.Email,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return apperrors.ErrEmailAlreadyExists
	}

	return r.db.QueryRowContext(ctx, `
		INSERT INTO users (
			email, password_hash, first_name, last_name, role, status,
			trust_level, admin_approved_tier3
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.Status,
		u.TrustLevel, u.AdminApprovedTier3,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.Status,
		&u.TrustLevel, &u.AdminApprovedTier3, &u.ProviderCustomerID,
		&u.ProviderPayoutID, &u.SuspendedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			first_name = $1, last_name = $2, provider_customer_id = $3,
			provider_payout_id = $4, updated_at = now()
		WHERE id = $5
	`, u.FirstName, u.LastName, u.ProviderCustomerID, u.ProviderPayoutID, u.ID)
	if err != nil {
		return err
	}
	return requireRow(result, apperrors.ErrUserNotFound)
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2
	`, hash, userID)
	if err != nil {
		return err
	}
	return requireRow(result, apperrors.ErrUserNotFound)
}

func (r *UserRepository) UpdateTrustLevel(ctx context.Context, userID string, level int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET trust_level = $1, updated_at = now() WHERE id = $2
	`, level, userID)
	if err != nil {
		return err
	}
	return requireRow(result, apperrors.ErrUserNotFound)
}

func (r *UserRepository) SetAdminApprovedTier3(ctx context.Context, userID string, approved bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET admin_approved_tier3 = $1, updated_at = now() WHERE id = $2
	`, approved, userID)
	if err != nil {
		return err
	}
	return requireRow(result, apperrors.ErrUserNotFound)
}

// Suspend marks the account suspended with a timestamp. Suspending an
// already-suspended account is a no-op, not an error.
func (r *UserRepository) Suspend(ctx context.Context, userID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET status = $1, suspended_at = $2, updated_at = now()
		WHERE id = $3
	`, models.UserStatusSuspended, at, userID)
	if err != nil {
		return err
	}
	return requireRow(result, apperrors.ErrUserNotFound)
}

func (r *UserRepository) UpdateStatus(ctx context.Context, userID string, status models.UserStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET status = $1, suspended_at = NULL, updated_at = now()
		WHERE id = $2
	`, status, userID)
	if err != nil {
		return err
	}
	return requireRow(result, apperrors.ErrUserNotFound)
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.Status,
			&u.TrustLevel, &u.AdminApprovedTier3, &u.ProviderCustomerID,
			&u.ProviderPayoutID, &u.SuspendedAt, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
