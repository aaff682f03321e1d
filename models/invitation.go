package models

import "time"

// InvitationType различает приглашения в команду и в сообщество.
type InvitationType string

const (
	InvitationTeam      InvitationType = "team"
	InvitationCommunity InvitationType = "community"
)

// InvitationState соответствует ENUM invitation_state в БД.
// Приглашение покидает состояние pending ровно один раз.
type InvitationState string

const (
	InvitationPending  InvitationState = "pending"
	InvitationAccepted InvitationState = "accepted"
	InvitationRejected InvitationState = "rejected"
)

type Invitation struct {
	ID          int             `json:"id" db:"id"`
	Type        InvitationType  `json:"type" db:"type"`
	SenderID    int             `json:"sender_id" db:"sender_id"`
	RecipientID int             `json:"recipient_id" db:"recipient_id"`
	TargetID    int             `json:"target_id" db:"target_id"` // team_id либо community_id в зависимости от Type
	State       InvitationState `json:"state" db:"state"`
	SentAt      time.Time       `json:"sent_at" db:"sent_at"`
	RespondedAt *time.Time      `json:"responded_at,omitempty" db:"responded_at"`
}
