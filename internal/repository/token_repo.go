package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"studyflow/internal/domain"
)

// TokenRepository persists single-use verification and reset tokens. The
// Consume methods also apply the paired user mutation; both writes commit in
// one transaction so a token can never be spent without its effect (or the
// other way around).
type TokenRepository interface {
	CreateVerification(ctx context.Context, token domain.VerificationToken) error
	CreateReset(ctx context.Context, token domain.VerificationToken) error
	// ConsumeVerification marks the token used and sets the owner's verified
	// flag. Returns pgx.ErrNoRows when the token is missing, expired or used.
	ConsumeVerification(ctx context.Context, token string, now time.Time) (int64, error)
	// ConsumeReset marks the token used and overwrites the owner's password
	// hash. Same not-found semantics as ConsumeVerification.
	ConsumeReset(ctx context.Context, token string, passwordHash string, now time.Time) (int64, error)
}

// PgTokenRepository implements TokenRepository on pgxpool.
type PgTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPgTokenRepository(pool *pgxpool.Pool) *PgTokenRepository {
	return &PgTokenRepository{pool: pool}
}

func (r *PgTokenRepository) CreateVerification(ctx context.Context, token domain.VerificationToken) error {
	const query = `
		INSERT INTO email_verifications (user_id, token, expires_at, is_used)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, token.UserID, token.Token, token.ExpiresAt, token.IsUsed)
	return err
}

func (r *PgTokenRepository) CreateReset(ctx context.Context, token domain.VerificationToken) error {
	const query = `
		INSERT INTO password_resets (user_id, token, expires_at, is_used)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, token.UserID, token.Token, token.ExpiresAt, token.IsUsed)
	return err
}

func (r *PgTokenRepository) ConsumeVerification(ctx context.Context, token string, now time.Time) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	// The is_used guard serializes racing consumers: exactly one UPDATE
	// matches, the loser sees zero rows.
	var userID int64
	err = tx.QueryRow(ctx, `
		UPDATE email_verifications
		SET is_used = TRUE
		WHERE token = $1 AND is_used = FALSE AND expires_at > $2
		RETURNING user_id
	`, token, now).Scan(&userID)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET is_verified = TRUE WHERE id = $1`, userID); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return userID, nil
}

func (r *PgTokenRepository) ConsumeReset(ctx context.Context, token string, passwordHash string, now time.Time) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var userID int64
	err = tx.QueryRow(ctx, `
		UPDATE password_resets
		SET is_used = TRUE
		WHERE token = $1 AND is_used = FALSE AND expires_at > $2
		RETURNING user_id
	`, token, now).Scan(&userID)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET password = $2 WHERE id = $1`, userID, passwordHash); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return userID, nil
}
