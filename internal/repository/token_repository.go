package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists/validates refresh tokens (single 'token_hash' column).
// The subject is a customer email or a manager employee id, qualified by role.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, subject, role, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (subject, role, token_hash, expires_at) VALUES (?,?,?,?)",
		subject, role, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh returns subject and role if a non-revoked, non-expired
// token exists.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, string, error) {
	var (
		subject, role string
		expiresAt     time.Time
		revokedAt     sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT subject, role, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&subject, &role, &expiresAt, &revokedAt)
	if err != nil {
		return "", "", mapNoRows(err)
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return "", "", ErrNotFound
	}
	return subject, role, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForSubject revokes all active tokens of the subject.
func (r *TokenRepo) RevokeAllForSubject(ctx context.Context, subject, role string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE subject=? AND role=? AND revoked_at IS NULL",
		subject, role)
	return err
}
