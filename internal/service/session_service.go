package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"studyflow/internal/domain"
	"studyflow/internal/repository"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSession  = errors.New("invalid session data")
)

// SessionService handles study-session CRUD and statistics. The acting user id
// always comes from the authenticated request identity, never from the client
// payload.
type SessionService struct {
	sessions repository.StudySessionRepository
}

func NewSessionService(sessions repository.StudySessionRepository) *SessionService {
	return &SessionService{sessions: sessions}
}

func (s *SessionService) List(ctx context.Context, userID int64) ([]domain.StudySession, error) {
	return s.sessions.ListByUser(ctx, userID)
}

func (s *SessionService) Create(ctx context.Context, userID int64, session domain.StudySession) (domain.StudySession, error) {
	session.UserID = userID
	if err := normalizeSession(&session); err != nil {
		return domain.StudySession{}, err
	}
	return s.sessions.Create(ctx, session)
}

func (s *SessionService) Update(ctx context.Context, userID, sessionID int64, session domain.StudySession) (domain.StudySession, error) {
	session.ID = sessionID
	session.UserID = userID
	if err := normalizeSession(&session); err != nil {
		return domain.StudySession{}, err
	}
	updated, err := s.sessions.Update(ctx, session)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StudySession{}, ErrSessionNotFound
		}
		return domain.StudySession{}, err
	}
	return updated, nil
}

func (s *SessionService) Delete(ctx context.Context, userID, sessionID int64) error {
	err := s.sessions.Delete(ctx, sessionID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSessionNotFound
	}
	return err
}

func (s *SessionService) DashboardStats(ctx context.Context, userID int64) (domain.DashboardStats, error) {
	return s.sessions.DashboardStats(ctx, userID, time.Now().UTC())
}

func (s *SessionService) HistoryStats(ctx context.Context, userID int64) (domain.HistoryStats, error) {
	return s.sessions.HistoryStats(ctx, userID)
}

func normalizeSession(session *domain.StudySession) error {
	if session.StartTime.IsZero() || session.EndTime.IsZero() || session.EndTime.Before(session.StartTime) {
		return ErrInvalidSession
	}
	if session.DurationMinutes <= 0 {
		session.DurationMinutes = int(session.EndTime.Sub(session.StartTime).Minutes())
	}
	return nil
}
