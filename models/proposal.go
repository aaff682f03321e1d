package models

import "time"

// ProposalState соответствует ENUM proposal_state в БД.
// Предложение покидает состояние pending ровно один раз; не-единогласное
// голосование оставляет его в pending (будущие голоса ещё могут сделать
// результат единогласным).
type ProposalState string

const (
	ProposalPending  ProposalState = "pending"
	ProposalAccepted ProposalState = "accepted"
	ProposalRejected ProposalState = "rejected"
)

// TournamentProposal — заявка команды на участие в турнире.
// Одна заявка на пару (team, tournament).
type TournamentProposal struct {
	ID           int           `json:"id" db:"id"`
	TeamID       int           `json:"team_id" db:"team_id"`
	TournamentID int           `json:"tournament_id" db:"tournament_id"`
	State        ProposalState `json:"state" db:"state"`
	ProposedAt   time.Time     `json:"proposed_at" db:"proposed_at"`

	Votes []Vote `json:"votes,omitempty" db:"-"`

	Team       *Team       `json:"team,omitempty" db:"-"`
	Tournament *Tournament `json:"tournament,omitempty" db:"-"`
}

// Vote append-only, пока предложение в pending; не более одного голоса
// на пару (proposal, voter).
type Vote struct {
	ID         int       `json:"id" db:"id"`
	ProposalID int       `json:"proposal_id" db:"proposal_id"`
	VoterID    int       `json:"voter_id" db:"voter_id"`
	Value      bool      `json:"value" db:"value"`
	CastAt     time.Time `json:"cast_at" db:"cast_at"`
}
