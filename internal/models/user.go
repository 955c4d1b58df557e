package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleGuide     UserRole = "guide"
	RoleLeadGuide UserRole = "lead-guide"
	RoleAdmin     UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// DefaultPhoto is assigned to users who never uploaded one.
const DefaultPhoto = "default.jpg"

// User represents an application user stored in the users table.
//
// Password and PasswordConfirm are transient write-time inputs; only PasswordHash is persisted.
type User struct {
	ID                   string     `db:"id" json:"id"`
	Name                 string     `db:"name" json:"name" validate:"required,max=100"`
	Email                string     `db:"email" json:"email" validate:"required,email"`
	Photo                string     `db:"photo" json:"photo"`
	Role                 UserRole   `db:"role" json:"role" validate:"required,role"`
	PasswordHash         string     `db:"password_hash" json:"-"`
	Password             string     `db:"-" json:"-" validate:"omitempty,min=8"`
	PasswordConfirm      string     `db:"-" json:"-" validate:"eqfield=Password"`
	PasswordChangedAt    *time.Time `db:"password_changed_at" json:"passwordChangedAt,omitempty"`
	PasswordResetToken   *string    `db:"password_reset_token" json:"-"`
	PasswordResetExpires *time.Time `db:"password_reset_expires" json:"-"`
	Active               bool       `db:"active" json:"active"`
	CreatedAt            time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updatedAt"`
	Version              int        `db:"version" json:"version"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalCount int `json:"totalCount"`
}

// UpdateMeRequest carries the profile fields a user may change about themself.
// Password fields are accepted only so they can be rejected explicitly.
type UpdateMeRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Photo           *string `json:"photo"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"passwordConfirm"`
}

// UpdateUserRequest is the admin update payload.
type UpdateUserRequest struct {
	Name     *string   `json:"name"`
	Email    *string   `json:"email"`
	Photo    *string   `json:"photo"`
	Role     *UserRole `json:"role"`
	Password string    `json:"password"`
}
