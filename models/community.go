package models

import "time"

// CommunityRole представляет роли внутри сообщества, соответствующие ENUM в БД.
type CommunityRole string

const (
	CommunityRoleLeader       CommunityRole = "leader"
	CommunityRoleModerator    CommunityRole = "moderator"
	CommunityRoleCollaborator CommunityRole = "collaborator"
	CommunityRoleMember       CommunityRole = "member"
)

// MembershipStatus используется и для сообществ, и для команд.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipInactive  MembershipStatus = "inactive"
	MembershipExpelled  MembershipStatus = "expelled"
	MembershipAbandoned MembershipStatus = "abandoned"
)

type Community struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	Members []CommunityMembership `json:"members,omitempty" db:"-"`
}

type CommunityMembership struct {
	ID          int              `json:"id" db:"id"`
	UserID      int              `json:"user_id" db:"user_id"`
	CommunityID int              `json:"community_id" db:"community_id"`
	Role        CommunityRole    `json:"role" db:"role"`
	Status      MembershipStatus `json:"status" db:"status"`
	JoinedAt    time.Time        `json:"joined_at" db:"joined_at"`
	LeftAt      *time.Time       `json:"left_at,omitempty" db:"left_at"`

	User      *User      `json:"user,omitempty" db:"-"`
	Community *Community `json:"community,omitempty" db:"-"`
}
