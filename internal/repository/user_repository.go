package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/khoido2003/natour-api/internal/models"
	"github.com/khoido2003/natour-api/internal/query"
)

const userColumns = `id, name, email, photo, role, password_hash, password_changed_at, password_reset_token, password_reset_expires, active, created_at, updated_at, version`

// UserRepository provides database access for user management.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// List returns the page of users described by spec.
func (r *UserRepository) List(ctx context.Context, spec query.Spec) ([]models.User, error) {
	stmt := query.Render(spec, UserSchema)
	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, stmt.SelectSQL, stmt.SelectArgs...); err != nil {
		return nil, translate("list users", err)
	}
	return users, nil
}

// Count returns how many users match spec regardless of paging.
func (r *UserRepository) Count(ctx context.Context, spec query.Spec) (int, error) {
	stmt := query.Render(spec, UserSchema)
	var total int
	if err := r.db.GetContext(ctx, &total, stmt.CountSQL, stmt.CountArgs...); err != nil {
		return 0, translate("count users", err)
	}
	return total, nil
}

// FindByID returns an active user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id::text = $1 AND active = TRUE LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, q, id); err != nil {
		return nil, translate("find user by id", err)
	}
	return &user, nil
}

// FindByEmail returns a user by email address. Deactivated users are only
// returned when includeInactive is set.
func (r *UserRepository) FindByEmail(ctx context.Context, email string, includeInactive bool) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if !includeInactive {
		q += ` AND active = TRUE`
	}
	q += ` LIMIT 1`

	var user models.User
	if err := r.db.GetContext(ctx, &user, q, email); err != nil {
		return nil, translate("find user by email", err)
	}
	return &user, nil
}

// FindByResetToken returns the active user holding the given reset token digest.
func (r *UserRepository) FindByResetToken(ctx context.Context, digest string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE password_reset_token = $1 AND active = TRUE LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, q, digest); err != nil {
		return nil, translate("find user by reset token", err)
	}
	return &user, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Active = true
	user.Version = 0

	const q = `INSERT INTO users (` + userColumns + `) VALUES (:id, :name, :email, :photo, :role, :password_hash, :password_changed_at, :password_reset_token, :password_reset_expires, :active, :created_at, :updated_at, :version)`
	if _, err := r.db.NamedExecContext(ctx, q, user); err != nil {
		return translate("create user", err)
	}
	return nil
}

// Update updates the profile fields of a user and bumps its version.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const q = `UPDATE users SET name = :name, email = :email, photo = :photo, role = :role, updated_at = :updated_at, version = version + 1 WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, q, user)
	if err != nil {
		return translate("update user", err)
	}
	if err := expectAffected(res); err != nil {
		return translate("update user", err)
	}
	user.Version++
	return nil
}

// UpdatePassword stores a new password hash and change timestamp, clearing any reset token.
func (r *UserRepository) UpdatePassword(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const q = `UPDATE users SET password_hash = $2, password_changed_at = $3, password_reset_token = NULL, password_reset_expires = NULL, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, user.ID, user.PasswordHash, user.PasswordChangedAt, user.UpdatedAt)
	if err != nil {
		return translate("update password", err)
	}
	if err := expectAffected(res); err != nil {
		return translate("update password", err)
	}
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	return nil
}

// SetResetToken stores (or clears, when digest is nil) a reset token digest and its expiry.
func (r *UserRepository) SetResetToken(ctx context.Context, id string, digest *string, expires *time.Time) error {
	const q = `UPDATE users SET password_reset_token = $2, password_reset_expires = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, digest, expires, time.Now().UTC())
	if err != nil {
		return translate("set reset token", err)
	}
	return translate("set reset token", expectAffected(res))
}

// Deactivate performs a soft delete by marking the user inactive.
func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	const q = `UPDATE users SET active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, time.Now().UTC())
	if err != nil {
		return translate("deactivate user", err)
	}
	return translate("deactivate user", expectAffected(res))
}

// Delete removes a user permanently.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id::text = $1`, id)
	if err != nil {
		return translate("delete user", err)
	}
	return translate("delete user", expectAffected(res))
}
