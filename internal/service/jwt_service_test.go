package service

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"studyflow/internal/domain"
)

func TestJWTService_EncodeDecodeRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", 30*time.Minute)
	user := domain.User{ID: 42, Username: "alice", Email: "a@x.com", IsVerified: true}

	token, err := svc.Encode(user)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	claims, err := svc.Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected uid 42, got %d", claims.UserID)
	}
	if !claims.IsVerified {
		t.Fatalf("expected is_verified claim")
	}
	if claims.Subject != "42" {
		t.Fatalf("expected subject 42, got %q", claims.Subject)
	}
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("secret", 30*time.Minute)
	now := time.Now().UTC()
	claims := Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "studyflow",
			Subject:   strconv.FormatInt(7, 10),
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Decode(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-a", 30*time.Minute)
	verifier := NewJWTService("secret-b", 30*time.Minute)

	token, err := issuer.Encode(domain.User{ID: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := verifier.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestJWTService_RejectsWrongIssuer(t *testing.T) {
	svc := NewJWTService("secret", 30*time.Minute)
	now := time.Now().UTC()
	claims := Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "other-app",
			Subject:   "7",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Decode(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong issuer, got %v", err)
	}
}

func TestJWTService_RejectsMalformedToken(t *testing.T) {
	svc := NewJWTService("secret", 30*time.Minute)
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.Decode(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", token, err)
		}
	}
}

func TestJWTService_RejectsEmptySecret(t *testing.T) {
	svc := NewJWTService("", 30*time.Minute)
	if _, err := svc.Encode(domain.User{ID: 1}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on empty secret, got %v", err)
	}
}
