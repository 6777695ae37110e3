package domain

import "time"

// Token kinds stored in separate tables, same row shape.
const (
	TokenKindVerification = "email_verification"
	TokenKindReset        = "password_reset"
)

// VerificationToken is a single-use, time-boxed opaque secret mailed to a user.
// Valid only while is_used is false and expires_at is in the future.
type VerificationToken struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	IsUsed    bool      `json:"is_used"`
}
