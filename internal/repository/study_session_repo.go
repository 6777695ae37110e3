package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyflow/internal/domain"
)

// StudySessionRepository defines persistence for study sessions and their
// aggregate statistics. All queries are scoped to a single owning user.
type StudySessionRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.StudySession, error)
	Create(ctx context.Context, session domain.StudySession) (domain.StudySession, error)
	Update(ctx context.Context, session domain.StudySession) (domain.StudySession, error)
	Delete(ctx context.Context, id, userID int64) error
	DashboardStats(ctx context.Context, userID int64, day time.Time) (domain.DashboardStats, error)
	HistoryStats(ctx context.Context, userID int64) (domain.HistoryStats, error)
}

// PgStudySessionRepository implements StudySessionRepository on pgxpool.
type PgStudySessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgStudySessionRepository(pool *pgxpool.Pool) *PgStudySessionRepository {
	return &PgStudySessionRepository{pool: pool}
}

const sessionColumns = `id, user_id, subject, start_time, end_time, duration_minutes, quality, percentage_completion, notes`

func (r *PgStudySessionRepository) ListByUser(ctx context.Context, userID int64) ([]domain.StudySession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM study_sessions WHERE user_id = $1 ORDER BY start_time DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.StudySession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *PgStudySessionRepository) Create(ctx context.Context, session domain.StudySession) (domain.StudySession, error) {
	const query = `
		INSERT INTO study_sessions (user_id, subject, start_time, end_time, duration_minutes, quality, percentage_completion, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		session.UserID,
		session.Subject,
		session.StartTime,
		session.EndTime,
		session.DurationMinutes,
		session.Quality,
		session.PercentageCompletion,
		session.Notes,
	).Scan(&session.ID)
	if err != nil {
		return domain.StudySession{}, err
	}
	return session, nil
}

func (r *PgStudySessionRepository) Update(ctx context.Context, session domain.StudySession) (domain.StudySession, error) {
	const query = `
		UPDATE study_sessions
		SET subject = $3, start_time = $4, end_time = $5, duration_minutes = $6, quality = $7, percentage_completion = $8, notes = $9
		WHERE id = $1 AND user_id = $2
		RETURNING ` + sessionColumns
	row := r.pool.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.Subject,
		session.StartTime,
		session.EndTime,
		session.DurationMinutes,
		session.Quality,
		session.PercentageCompletion,
		session.Notes,
	)
	return scanSession(row)
}

func (r *PgStudySessionRepository) Delete(ctx context.Context, id, userID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM study_sessions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgStudySessionRepository) DashboardStats(ctx context.Context, userID int64, day time.Time) (domain.DashboardStats, error) {
	const query = `
		SELECT COALESCE(SUM(duration_minutes), 0),
		       COUNT(*),
		       COALESCE(AVG(quality), 0),
		       COALESCE(AVG(percentage_completion), 0)
		FROM study_sessions
		WHERE user_id = $1 AND start_time::date = $2::date
	`
	var stats domain.DashboardStats
	err := r.pool.QueryRow(ctx, query, userID, day).Scan(
		&stats.TotalTime,
		&stats.SessionsCount,
		&stats.AvgQuality,
		&stats.TotalCompletion,
	)
	return stats, err
}

func (r *PgStudySessionRepository) HistoryStats(ctx context.Context, userID int64) (domain.HistoryStats, error) {
	const query = `
		SELECT COALESCE(SUM(duration_minutes), 0),
		       COUNT(*),
		       COALESCE(AVG(duration_minutes), 0)
		FROM study_sessions
		WHERE user_id = $1
	`
	var stats domain.HistoryStats
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&stats.TotalStudyTime,
		&stats.TotalSessions,
		&stats.AvgSessionLength,
	)
	return stats, err
}

func scanSession(row pgx.Row) (domain.StudySession, error) {
	var s domain.StudySession
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Subject,
		&s.StartTime,
		&s.EndTime,
		&s.DurationMinutes,
		&s.Quality,
		&s.PercentageCompletion,
		&s.Notes,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StudySession{}, err
	}
	return s, err
}
