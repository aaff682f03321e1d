package models

import "time"

// TeamRole представляет роли внутри команды, соответствующие ENUM в БД.
type TeamRole string

const (
	TeamRoleAdmin  TeamRole = "admin"
	TeamRoleMember TeamRole = "member"
)

type Team struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Members []TeamMembership `json:"members,omitempty" db:"-"`
}

type TeamMembership struct {
	ID       int              `json:"id" db:"id"`
	UserID   int              `json:"user_id" db:"user_id"`
	TeamID   int              `json:"team_id" db:"team_id"`
	Role     TeamRole         `json:"role" db:"role"`
	Status   MembershipStatus `json:"status" db:"status"`
	JoinedAt time.Time        `json:"joined_at" db:"joined_at"`
	LeftAt   *time.Time       `json:"left_at,omitempty" db:"left_at"`

	User *User `json:"user,omitempty" db:"-"`
	Team *Team `json:"team,omitempty" db:"-"`
}
