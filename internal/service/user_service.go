package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"studyflow/internal/domain"
	"studyflow/internal/repository"
)

// UserService handles profile reads and updates for the authenticated user.
type UserService struct {
	logger *zap.Logger
	users  repository.UserRepository
}

func NewUserService(logger *zap.Logger, users repository.UserRepository) *UserService {
	return &UserService{logger: logger, users: users}
}

type UpdateProfileInput struct {
	Username  *string
	Email     *string
	Gender    *string
	Birthdate *time.Time
	UserClass *string
	StudyGoal *string
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// UpdateProfile applies the provided fields to the user's own profile.
// Username and email changes are re-checked for uniqueness.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, input UpdateProfileInput) (domain.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username != "" && username != user.Username {
			if _, err := s.users.GetByUsername(ctx, username); err == nil {
				return domain.User{}, ErrDuplicateUsername
			} else if !errors.Is(err, pgx.ErrNoRows) {
				return domain.User{}, err
			}
			user.Username = username
		}
	}
	if input.Email != nil {
		emailAddr := strings.TrimSpace(*input.Email)
		if emailAddr != "" && emailAddr != user.Email {
			if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
				return domain.User{}, ErrDuplicateEmail
			} else if !errors.Is(err, pgx.ErrNoRows) {
				return domain.User{}, err
			}
			user.Email = emailAddr
		}
	}
	if input.Gender != nil {
		user.Gender = strings.TrimSpace(*input.Gender)
	}
	if input.Birthdate != nil {
		user.Birthdate = input.Birthdate
	}
	if input.UserClass != nil {
		user.UserClass = strings.TrimSpace(*input.UserClass)
	}
	if input.StudyGoal != nil {
		user.StudyGoal = strings.TrimSpace(*input.StudyGoal)
	}

	updated, err := s.users.UpdateProfile(ctx, user)
	if err != nil {
		if constraint := repository.UniqueViolation(err); constraint != "" {
			if strings.Contains(constraint, "username") {
				return domain.User{}, ErrDuplicateUsername
			}
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, err
	}
	return updated, nil
}
