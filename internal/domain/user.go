package domain

import "time"

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Gender       string     `json:"gender,omitempty"`
	Birthdate    *time.Time `json:"birthdate,omitempty"`
	UserClass    string     `json:"user_class,omitempty"`
	StudyGoal    string     `json:"study_goal,omitempty"`
	IsVerified   bool       `json:"is_verified"`
	CreatedAt    time.Time  `json:"created_at"`
}
