// Package domain contains core business types and interfaces.
//
// These types are separate from the repository models so that business
// logic never depends on database column representations (sql.Null* types),
// and so helper methods can live next to the data they describe.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Role is the coarse authorization tag carried in the session token.
//
// OWNER accounts manage the catalog, suppliers, documents and other user
// accounts. SELLER accounts record sales and read the catalog.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleSeller Role = "SELLER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleSeller
}

// User represents an account in the application.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string // Never expose this in API responses
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsOwner returns true if the user holds the OWNER role.
func (u *User) IsOwner() bool {
	return u.Role == RoleOwner
}

// DisplayName returns the user's name or email if name is empty.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// RegisterParams contains the validated parameters for creating an account.
// Accounts are created by an owner; there is no self-service signup.
type RegisterParams struct {
	Name     string
	Email    string
	Password string // Raw password, hashed by the service
	Role     Role
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	User  *User
	Token string // Signed session token, handed to the client exactly once
}

// PasswordChangeParams contains parameters for changing a user's password.
type PasswordChangeParams struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullTimeValue safely extracts a time pointer from sql.NullTime.
func NullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// ToNullString converts a string to sql.NullString.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// ToNullUUID converts a uuid pointer to uuid.NullUUID.
func ToNullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{Valid: false}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
