package models

import "time"

// Session закрывается установкой EndedAt; записи не удаляются при логауте.
type Session struct {
	ID        int        `json:"id" db:"id"`
	UserID    int        `json:"user_id" db:"user_id"`
	Token     string     `json:"-" db:"token"`
	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`
}

func (s *Session) Active() bool {
	return s.EndedAt == nil
}
