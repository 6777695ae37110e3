package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"studyflow/internal/domain"
	"studyflow/internal/email"
	"studyflow/internal/repository"
	"studyflow/internal/security"
)

var (
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrInvalidCredentials deliberately covers both unknown email and wrong
	// password so login responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrUserNotFound       = errors.New("user not found")
	ErrRateLimited        = errors.New("rate limited")
)

// AuthService composes the hasher, token issuer and email sender into the
// registration, login, verification and password-reset flows.
type AuthService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	tokens      *TokenService
	hasher      *security.Hasher
	emailSender email.Sender
	limiter     EmailRateLimiter
	frontendURL string
}

func NewAuthService(
	logger *zap.Logger,
	users repository.UserRepository,
	tokens *TokenService,
	hasher *security.Hasher,
	emailSender email.Sender,
	limiter EmailRateLimiter,
	frontendURL string,
) *AuthService {
	if limiter == nil {
		limiter = NewEmailRateLimiter(10*time.Minute, 3)
	}
	return &AuthService{
		logger:      logger,
		users:       users,
		tokens:      tokens,
		hasher:      hasher,
		emailSender: emailSender,
		limiter:     limiter,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Gender    string
	Birthdate *time.Time
	UserClass string
	StudyGoal string
}

// Register creates an unverified account, issues a verification token and
// dispatches the verification email. Email delivery is best-effort: a send
// failure is logged and the registration still succeeds.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	username := strings.TrimSpace(input.Username)
	emailAddr := strings.TrimSpace(input.Email)
	if username == "" || emailAddr == "" || input.Password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	// Uniqueness is checked before any mutation; the database unique
	// constraints remain the backstop against races.
	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, ErrDuplicateEmail
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return domain.User{}, ErrDuplicateUsername
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		Username:     username,
		Email:        emailAddr,
		PasswordHash: hash,
		Gender:       strings.TrimSpace(input.Gender),
		Birthdate:    input.Birthdate,
		UserClass:    strings.TrimSpace(input.UserClass),
		StudyGoal:    strings.TrimSpace(input.StudyGoal),
		IsVerified:   false,
		CreatedAt:    time.Now().UTC(),
	}
	user, err = s.users.Create(ctx, user)
	if err != nil {
		if constraint := repository.UniqueViolation(err); constraint != "" {
			if strings.Contains(constraint, "username") {
				return domain.User{}, ErrDuplicateUsername
			}
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, err
	}

	s.sendVerification(ctx, user)
	return user, nil
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// VerifyEmail consumes a verification token and marks its owner verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, ErrInvalidOrExpiredToken
	}
	userID, err := s.tokens.ConsumeVerification(ctx, token)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// ResendVerification issues a fresh verification token for an unverified
// account and resends the email. Earlier tokens stay valid.
func (s *AuthService) ResendVerification(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(emailAddr)
	if s.limiter != nil && !s.limiter.Allow(emailAddr) {
		return ErrRateLimited
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	s.sendVerification(ctx, user)
	return nil
}

// ForgotPassword acknowledges identically whether or not the account exists.
// When it does, a reset token is issued and mailed as a side effect.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(emailAddr)
	if s.limiter != nil && !s.limiter.Allow(emailAddr) {
		return ErrRateLimited
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	token, err := s.tokens.IssueResetToken(ctx, user.ID)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/reset-password.html?token=%s", s.frontendURL, token)
	if err := s.emailSender.SendPasswordResetEmail(ctx, user.Email, user.Username, link); err != nil {
		s.logger.Warn("send password reset email failed", zap.Error(err), zap.Int64("user_id", user.ID))
	}
	return nil
}

// ResetPassword consumes a reset token and overwrites the owner's password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return ErrInvalidOrExpiredToken
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.tokens.ConsumeReset(ctx, token, hash); err != nil {
		return err
	}
	return nil
}

func (s *AuthService) sendVerification(ctx context.Context, user domain.User) {
	token, err := s.tokens.IssueVerificationToken(ctx, user.ID)
	if err != nil {
		s.logger.Warn("issue verification token failed", zap.Error(err), zap.Int64("user_id", user.ID))
		return
	}
	link := fmt.Sprintf("%s/verify-email.html?token=%s", s.frontendURL, token)
	if err := s.emailSender.SendVerificationEmail(ctx, user.Email, user.Username, link); err != nil {
		s.logger.Warn("send verification email failed", zap.Error(err), zap.Int64("user_id", user.ID))
	}
}
