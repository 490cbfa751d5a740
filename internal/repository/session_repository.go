package repository

import (
	"context"
	"database/sql"

	"github.com/flatmate/flatmate-backend/internal/utils"
)

// SessionRepo is the registry of refresh sessions. Raw tokens are
// hashed with SHA-256 before they touch the database; rows are never
// deleted, only marked revoked, so the table keeps an audit trail of
// every session ever opened.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Open records a freshly issued refresh token for the user. It revokes
// every still-active session of that user and inserts the new row in
// one transaction, so at any instant at most one non-revoked session
// exists per user even under concurrent logins (last writer wins).
func (r *SessionRepo) Open(ctx context.Context, userID uint64, rawToken string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE refresh_sessions SET revoked=1 WHERE user_id=? AND revoked=0", userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_sessions (user_id, token_hash) VALUES (?,?)",
		userID, utils.HashToken(rawToken)); err != nil {
		return err
	}
	return tx.Commit()
}

// Revoke marks the session holding rawToken as revoked. Revoking an
// unknown or already-revoked token is a no-op, never an error, so the
// logout path can always call it blindly.
func (r *SessionRepo) Revoke(ctx context.Context, rawToken string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_sessions SET revoked=1 WHERE token_hash=? AND revoked=0",
		utils.HashToken(rawToken))
	return err
}
