package domain

import "time"

type StudySession struct {
	ID                   int64     `json:"id"`
	UserID               int64     `json:"user_id"`
	Subject              string    `json:"subject,omitempty"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	DurationMinutes      int       `json:"duration_minutes"`
	Quality              *int      `json:"quality,omitempty"`
	PercentageCompletion *int      `json:"percentage_completion,omitempty"`
	Notes                string    `json:"notes,omitempty"`
}

// DashboardStats aggregates today's study sessions.
type DashboardStats struct {
	TotalTime       int     `json:"total_time"`
	SessionsCount   int     `json:"sessions_count"`
	AvgQuality      float64 `json:"avg_quality"`
	TotalCompletion float64 `json:"total_completion"`
}

// HistoryStats aggregates all study sessions ever recorded for a user.
type HistoryStats struct {
	TotalStudyTime   int     `json:"total_study_time"`
	TotalSessions    int     `json:"total_sessions"`
	AvgSessionLength float64 `json:"avg_session_length"`
}
