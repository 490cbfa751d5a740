package model

import "time"

// Role values stored in users.role. Every account has exactly one of
// these. Admins pass every role check (see middleware.RequireRole).
const (
	RoleUser  = "user"
	RoleHost  = "host"
	RoleAdmin = "admin"
)

// ValidRole reports whether s is one of the three known roles.
func ValidRole(s string) bool {
	return s == RoleUser || s == RoleHost || s == RoleAdmin
}

// User represents an application user record as stored in the `users`
// table. The password hash never leaves the repository/handler boundary;
// handlers expose separate response types without it.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique email address (stored lowercased).
//  Phone        – contact phone number.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of user/host/admin.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	Phone        string    // users.phone
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
}

// RefreshSession models a row in the `refresh_sessions` table. Each
// session belongs to a user; at most one non-revoked row exists per
// user at any time. The raw refresh token is not stored, only its
// SHA-256 hash. Rows are never deleted, only revoked, so the table
// doubles as an audit trail of issued sessions.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the session.
//  TokenHash – SHA-256 hex digest of the refresh token.
//  Revoked   – whether the session has been revoked or superseded.
//  CreatedAt – timestamp of creation.
type RefreshSession struct {
	ID        uint64    // refresh_sessions.id
	UserID    uint64    // refresh_sessions.user_id
	TokenHash string    // refresh_sessions.token_hash
	Revoked   bool      // refresh_sessions.revoked
	CreatedAt time.Time // refresh_sessions.created_at
}
