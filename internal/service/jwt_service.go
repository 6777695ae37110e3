package service

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"studyflow/internal/domain"
)

// JWTService encodes and decodes stateless session tokens. A token is a signed
// HS256 credential carrying the subject user id and an absolute expiry; there
// is no revocation list, rotation of the secret invalidates everything
// outstanding.
type JWTService struct {
	secret    []byte
	accessTTL time.Duration
	issuer    string
}

type Claims struct {
	UserID     int64 `json:"uid"`
	IsVerified bool  `json:"is_verified"`
	jwt.RegisteredClaims
}

// ErrInvalidToken covers signature mismatch, malformed structure and expiry
// alike; callers get no detail about which one occurred.
var ErrInvalidToken = errors.New("invalid token")

func NewJWTService(secret string, accessTTL time.Duration) *JWTService {
	if accessTTL <= 0 {
		accessTTL = 60 * time.Minute
	}
	return &JWTService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		issuer:    "studyflow",
	}
}

// Encode signs a session token for the user with the configured TTL.
func (s *JWTService) Encode(user domain.User) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrInvalidToken
	}
	now := time.Now().UTC()
	claims := Claims{
		UserID:     user.ID,
		IsVerified: user.IsVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Decode verifies signature and expiry and returns the embedded claims.
func (s *JWTService) Decode(tokenString string) (Claims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	if !s.isValidClaims(claims) {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTService) isValidClaims(claims Claims) bool {
	if claims.UserID <= 0 {
		return false
	}
	subject, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subject != claims.UserID {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
