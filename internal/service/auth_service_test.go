package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"studyflow/internal/domain"
	"studyflow/internal/security"
)

type mockUserRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byID: make(map[int64]domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	m.byID[user.ID] = user
	return user, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byID {
		if user.Username == username {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[user.ID]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	stored.Username = user.Username
	stored.Email = user.Email
	stored.Gender = user.Gender
	stored.Birthdate = user.Birthdate
	stored.UserClass = user.UserClass
	stored.StudyGoal = user.StudyGoal
	m.byID[user.ID] = stored
	return stored, nil
}

type mockTokenRepo struct {
	mu            sync.Mutex
	verifications map[string]*domain.VerificationToken
	resets        map[string]*domain.VerificationToken
	users         *mockUserRepo
}

func newMockTokenRepo(users *mockUserRepo) *mockTokenRepo {
	return &mockTokenRepo{
		verifications: make(map[string]*domain.VerificationToken),
		resets:        make(map[string]*domain.VerificationToken),
		users:         users,
	}
}

func (m *mockTokenRepo) CreateVerification(_ context.Context, token domain.VerificationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications[token.Token] = &token
	return nil
}

func (m *mockTokenRepo) CreateReset(_ context.Context, token domain.VerificationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[token.Token] = &token
	return nil
}

func (m *mockTokenRepo) ConsumeVerification(_ context.Context, token string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.verifications[token]
	if !ok || record.IsUsed || !record.ExpiresAt.After(now) {
		return 0, pgx.ErrNoRows
	}
	record.IsUsed = true
	if m.users != nil {
		m.users.mu.Lock()
		if user, ok := m.users.byID[record.UserID]; ok {
			user.IsVerified = true
			m.users.byID[user.ID] = user
		}
		m.users.mu.Unlock()
	}
	return record.UserID, nil
}

func (m *mockTokenRepo) ConsumeReset(_ context.Context, token string, passwordHash string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.resets[token]
	if !ok || record.IsUsed || !record.ExpiresAt.After(now) {
		return 0, pgx.ErrNoRows
	}
	record.IsUsed = true
	if m.users != nil {
		m.users.mu.Lock()
		if user, ok := m.users.byID[record.UserID]; ok {
			user.PasswordHash = passwordHash
			m.users.byID[user.ID] = user
		}
		m.users.mu.Unlock()
	}
	return record.UserID, nil
}

type mockEmailSender struct {
	mu            sync.Mutex
	verifications []string
	resets        []string
	err           error
}

func (m *mockEmailSender) SendVerificationEmail(_ context.Context, toEmail, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.verifications = append(m.verifications, toEmail+"|"+link)
	return nil
}

func (m *mockEmailSender) SendPasswordResetEmail(_ context.Context, toEmail, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.resets = append(m.resets, toEmail+"|"+link)
	return nil
}

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(string) bool { return true }

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func newTestAuthService(users *mockUserRepo, tokens *mockTokenRepo, sender *mockEmailSender) *AuthService {
	return NewAuthService(
		zap.NewNop(),
		users,
		NewTokenService(tokens),
		security.NewHasher(),
		sender,
		allowAllLimiter{},
		"http://localhost:5500",
	)
}

func registerAlice(t *testing.T, svc *AuthService) domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "longenough1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func TestAuthService_RegisterAndDuplicates(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo(users)
	sender := &mockEmailSender{}
	svc := newTestAuthService(users, tokens, sender)

	user := registerAlice(t, svc)
	if user.ID == 0 {
		t.Fatalf("expected assigned user id")
	}
	if user.IsVerified {
		t.Fatalf("expected new user to be unverified")
	}
	if user.PasswordHash == "longenough1" || user.PasswordHash == "" {
		t.Fatalf("expected stored password to be a hash")
	}
	if len(sender.verifications) != 1 {
		t.Fatalf("expected one verification email, got %d", len(sender.verifications))
	}
	if len(tokens.verifications) != 1 {
		t.Fatalf("expected one verification token, got %d", len(tokens.verifications))
	}

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice2",
		Email:    "a@x.com",
		Password: "longenough1",
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "other@x.com",
		Password: "longenough1",
	})
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestAuthService_RegisterSurvivesEmailFailure(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo(users)
	sender := &mockEmailSender{err: errors.New("smtp down")}
	svc := newTestAuthService(users, tokens, sender)

	user := registerAlice(t, svc)
	if user.ID == 0 {
		t.Fatalf("expected registration to succeed despite email failure")
	}
	if len(tokens.verifications) != 1 {
		t.Fatalf("expected verification token to be persisted anyway")
	}
}

func TestAuthService_Login(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo(users)
	sender := &mockEmailSender{}
	svc := newTestAuthService(users, tokens, sender)
	registerAlice(t, svc)

	user, err := svc.Login(context.Background(), "a@x.com", "longenough1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.IsVerified {
		t.Fatalf("expected unverified user")
	}

	// Unknown email and wrong password are indistinguishable.
	_, wrongPass := svc.Login(context.Background(), "a@x.com", "not-the-password")
	_, unknownMail := svc.Login(context.Background(), "nobody@x.com", "longenough1")
	if !errors.Is(wrongPass, ErrInvalidCredentials) || !errors.Is(unknownMail, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", wrongPass, unknownMail)
	}
}

func TestAuthService_VerifyEmailSingleUse(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo(users)
	sender := &mockEmailSender{}
	svc := newTestAuthService(users, tokens, sender)
	registered := registerAlice(t, svc)

	var plaintext string
	for token := range tokens.verifications {
		plaintext = token
	}

	user, err := svc.VerifyEmail(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("verify email: %v", err)
	}
	if user.ID != registered.ID || !user.IsVerified {
		t.Fatalf("expected user %d to be verified, got %+v", registered.ID, user)
	}

	if _, err := svc.VerifyEmail(context.Background(), plaintext); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected second consumption to fail, got %v", err)
	}
}

func TestAuthService_VerifyEmailExpiredToken(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo(users)
	sender := &mockEmailSender{}
	svc := newTestAuthService(users, tokens, sender)
	user := registerAlice(t, svc)

	expired := domain.VerificationToken{
		UserID:    user.ID,
		Token:     "expired-token",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	if err := tokens.CreateVerification(context.Background(), expired); err != nil {
		t.Fatalf("create token: %v", err)
	}

	if _, err := svc.VerifyEmail(context.Background(), "expired-token"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
	}
}

func TestAuthService_ResendVerification(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo(users)
	sender := &mockEmailSender{}
	svc := newTestAuthService(users, tokens, sender)
	registerAlice(t, svc)

	if err := svc.ResendVerification(context.Background(), "nobody@x.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := svc.ResendVerification(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if len(tokens.verifications) != 2 {
		t.Fatalf("expected a second outstanding token, got %d", len(tokens.verifications))
	}

	// Verify with the original token, then resend must report already verified.
	var first string
	for token, record := range tokens.verifications {
		if !record.IsUsed {
			first = token
			break
		}
	}
	if _, err := svc.VerifyEmail(context.Background(), first); err != nil {
		t.Fatalf("verify email: %v", err)
	}
	if err := svc.ResendVerification(context.Background(), "a@x.com"); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestAuthService_ResendVerificationRateLimited(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo(users)
	svc := NewAuthService(zap.NewNop(), users, NewTokenService(tokens), security.NewHasher(), &mockEmailSender{}, denyAllLimiter{}, "http://localhost:5500")

	if err := svc.ResendVerification(context.Background(), "a@x.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := svc.ForgotPassword(context.Background(), "a@x.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestAuthService_ForgotPasswordUnknownEmail(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo(users)
	sender := &mockEmailSender{}
	svc := newTestAuthService(users, tokens, sender)

	if err := svc.ForgotPassword(context.Background(), "ghost@x.com"); err != nil {
		t.Fatalf("expected generic success for unknown email, got %v", err)
	}
	if len(tokens.resets) != 0 {
		t.Fatalf("expected no reset token for unknown email")
	}
	if len(sender.resets) != 0 {
		t.Fatalf("expected no reset email for unknown email")
	}
}

func TestAuthService_ResetPasswordFlow(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo(users)
	sender := &mockEmailSender{}
	svc := newTestAuthService(users, tokens, sender)
	registerAlice(t, svc)

	if err := svc.ForgotPassword(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if len(sender.resets) != 1 {
		t.Fatalf("expected one reset email, got %d", len(sender.resets))
	}

	var plaintext string
	for token := range tokens.resets {
		plaintext = token
	}

	if err := svc.ResetPassword(context.Background(), plaintext, "brandnewpass1"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := svc.Login(context.Background(), "a@x.com", "longenough1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@x.com", "brandnewpass1"); err != nil {
		t.Fatalf("expected new password to work, got %v", err)
	}

	if err := svc.ResetPassword(context.Background(), plaintext, "anotherpass1"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected spent token to be rejected, got %v", err)
	}
}

func TestAuthService_ConcurrentResetSingleWinner(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo(users)
	sender := &mockEmailSender{}
	svc := newTestAuthService(users, tokens, sender)
	registerAlice(t, svc)

	if err := svc.ForgotPassword(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	var plaintext string
	for token := range tokens.resets {
		plaintext = token
	}

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.ResetPassword(context.Background(), plaintext, "concurrentpass1")
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInvalidOrExpiredToken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("expected exactly one winner, got %d successes and %d conflicts", successes, conflicts)
	}
}

func TestAuthService_VerificationLinkUsesFrontendURL(t *testing.T) {
	users := newMockUserRepo()
	tokens := newMockTokenRepo(users)
	sender := &mockEmailSender{}
	svc := newTestAuthService(users, tokens, sender)
	registerAlice(t, svc)

	if len(sender.verifications) != 1 {
		t.Fatalf("expected one verification email")
	}
	if !strings.Contains(sender.verifications[0], "http://localhost:5500/verify-email.html?token=") {
		t.Fatalf("unexpected verification link: %s", sender.verifications[0])
	}
}
