package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyflow/internal/domain"
)

// UserRepository defines the persistence contract for users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	UpdateProfile(ctx context.Context, user domain.User) (domain.User, error)
}

// UniqueViolation returns the violated constraint name when err is a Postgres
// unique-constraint error, or "" otherwise.
func UniqueViolation(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName
	}
	return ""
}

// PgUserRepository implements UserRepository on pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, username, email, password, gender, birthdate, user_class, study_goal, is_verified, created_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const query = `
		INSERT INTO users (username, email, password, gender, birthdate, user_class, study_goal, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Gender,
		user.Birthdate,
		user.UserClass,
		user.StudyGoal,
		user.IsVerified,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgUserRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getBy(ctx, "email = $1", email)
}

func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getBy(ctx, "username = $1", username)
}

func (r *PgUserRepository) getBy(ctx context.Context, where string, arg any) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	var u domain.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Gender,
		&u.Birthdate,
		&u.UserClass,
		&u.StudyGoal,
		&u.IsVerified,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	return u, err
}

func (r *PgUserRepository) UpdateProfile(ctx context.Context, user domain.User) (domain.User, error) {
	const query = `
		UPDATE users
		SET username = $2, email = $3, gender = $4, birthdate = $5, user_class = $6, study_goal = $7
		WHERE id = $1
		RETURNING ` + userColumns
	var u domain.User
	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.Gender,
		user.Birthdate,
		user.UserClass,
		user.StudyGoal,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Gender,
		&u.Birthdate,
		&u.UserClass,
		&u.StudyGoal,
		&u.IsVerified,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}
