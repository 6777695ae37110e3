package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"studyflow/internal/domain"
	"studyflow/internal/repository"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
	tokenByteLen         = 32 // 256 bits of randomness
)

// ErrInvalidOrExpiredToken covers missing, expired and already-used tokens
// uniformly so a failed consumption leaks nothing about which case occurred.
var ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

// TokenService manages the lifecycle of single-use verification and reset
// tokens: issuance with the kind's expiry window and at-most-once consumption.
type TokenService struct {
	tokens repository.TokenRepository
}

func NewTokenService(tokens repository.TokenRepository) *TokenService {
	return &TokenService{tokens: tokens}
}

// GenerateToken returns a URL-safe opaque token from a cryptographic source.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenByteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// IssueVerificationToken persists a new email-verification token (24h window)
// and returns the plaintext token. Previously issued tokens stay valid.
func (s *TokenService) IssueVerificationToken(ctx context.Context, userID int64) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	record := domain.VerificationToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(verificationTokenTTL),
	}
	if err := s.tokens.CreateVerification(ctx, record); err != nil {
		return "", err
	}
	return token, nil
}

// IssueResetToken persists a new password-reset token (1h window) and returns
// the plaintext token.
func (s *TokenService) IssueResetToken(ctx context.Context, userID int64) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	record := domain.VerificationToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(resetTokenTTL),
	}
	if err := s.tokens.CreateReset(ctx, record); err != nil {
		return "", err
	}
	return token, nil
}

// ConsumeVerification spends a verification token and marks its owner
// verified, atomically. Returns the owning user id.
func (s *TokenService) ConsumeVerification(ctx context.Context, token string) (int64, error) {
	userID, err := s.tokens.ConsumeVerification(ctx, token, time.Now().UTC())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInvalidOrExpiredToken
		}
		return 0, err
	}
	return userID, nil
}

// ConsumeReset spends a reset token and overwrites the owner's password hash,
// atomically. Returns the owning user id.
func (s *TokenService) ConsumeReset(ctx context.Context, token, passwordHash string) (int64, error) {
	userID, err := s.tokens.ConsumeReset(ctx, token, passwordHash, time.Now().UTC())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInvalidOrExpiredToken
		}
		return 0, err
	}
	return userID, nil
}
