package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	TournamentSoon         TournamentStatus = "soon"
	TournamentRegistration TournamentStatus = "registration"
	TournamentActive       TournamentStatus = "active"
	TournamentCompleted    TournamentStatus = "completed"
	TournamentCanceled     TournamentStatus = "canceled"
)

type Tournament struct {
	ID        int              `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	Status    TournamentStatus `json:"status" db:"status"`
	StartsAt  time.Time        `json:"starts_at" db:"starts_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// ParticipationStatus соответствует ENUM participation_status в БД.
type ParticipationStatus string

const (
	ParticipationAccepted  ParticipationStatus = "accepted"
	ParticipationWithdrawn ParticipationStatus = "withdrawn"
)

// TournamentParticipation создаётся только как следствие принятого предложения.
type TournamentParticipation struct {
	ID           int                 `json:"id" db:"id"`
	TeamID       int                 `json:"team_id" db:"team_id"`
	TournamentID int                 `json:"tournament_id" db:"tournament_id"`
	Status       ParticipationStatus `json:"status" db:"status"`
	JoinedAt     time.Time           `json:"joined_at" db:"joined_at"`

	Team       *Team       `json:"team,omitempty" db:"-"`
	Tournament *Tournament `json:"tournament,omitempty" db:"-"`
}
