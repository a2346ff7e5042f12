package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
)

// User is a staff account. Admins are bound to one school; superadmins see all.
type User struct {
	ID           string     `db:"id" json:"id"`
	SchoolID     *string    `db:"school_id" json:"school_id,omitempty"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateUserRequest is the payload for creating a staff account.
type CreateUserRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	FullName string   `json:"full_name" validate:"required,max=150"`
	Role     UserRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN"`
	SchoolID *string  `json:"school_id" validate:"required_if=Role ADMIN,omitempty,uuid"`
}

// UpdateUserRequest is the payload for updating a staff account.
type UpdateUserRequest struct {
	FullName string   `json:"full_name" validate:"required,max=150"`
	Role     UserRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN"`
	SchoolID *string  `json:"school_id" validate:"required_if=Role ADMIN,omitempty,uuid"`
	Active   *bool    `json:"active"`
}
