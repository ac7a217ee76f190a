//revive:disable-next-line:var-naming // legacy package name used across the project
package model

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores anything past 72 bytes
	maxUserNameLen = 255
)

// Console roles as stored in the users table.
const (
	UserRoleAdmin = "admin"
	UserRoleUser  = "user"
	UserRoleGuest = "guest"
)

// User is a console account checked by the local password authenticator.
type User struct {
	ID           string     `json:"id"                      db:"id"`
	Email        string     `json:"email"                   db:"email"`
	PasswordHash string     `json:"-"                       db:"password_hash"`
	FirstName    string     `json:"first_name"              db:"first_name"`
	LastName     string     `json:"last_name"               db:"last_name"`
	Role         string     `json:"role"                    db:"role"`
	Disabled     bool       `json:"disabled"                db:"disabled"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"              db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"              db:"updated_at"`
}

// CreateUserRequest holds the fields an operator supplies when adding an account.
type CreateUserRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role"`
	// PasswordHash is filled in by the service after validation; callers leave it empty.
	PasswordHash string `json:"-"`
}

// Normalize trims fields and lower-cases the email and role.
func (r *CreateUserRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	if r.Role == "" {
		r.Role = UserRoleUser
	}
}

// Validate validates the CreateUserRequest fields.
func (r *CreateUserRequest) Validate() error {
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}
	if !ValidUserRole(r.Role) {
		return errors.New("role must be one of admin, user, guest")
	}
	if utf8.RuneCountInString(r.FirstName) > maxUserNameLen || utf8.RuneCountInString(r.LastName) > maxUserNameLen {
		return errors.New("names cannot exceed 255 characters")
	}
	return nil
}

// UserListOptions controls pagination for listing users.
type UserListOptions struct {
	Limit  int
	Offset int
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateEmail checks that s is a bare address such as "a@b.com".
func ValidateEmail(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return errors.New("email must be a valid address")
	}
	return nil
}

// ValidatePassword enforces the length bounds for local passwords.
func ValidatePassword(p string) error {
	if len(p) < minPasswordLen {
		return errors.New("password must be at least 8 characters")
	}
	if len(p) > maxPasswordLen {
		return errors.New("password cannot exceed 72 bytes")
	}
	return nil
}

// ValidUserRole reports whether role is a known console role.
func ValidUserRole(role string) bool {
	switch role {
	case UserRoleAdmin, UserRoleUser, UserRoleGuest:
		return true
	default:
		return false
	}
}
