package models

import "time"

// ProfileVisibility соответствует ENUM profile_visibility в БД.
type ProfileVisibility string

const (
	ProfilePublic  ProfileVisibility = "public"
	ProfilePrivate ProfileVisibility = "private"
)

type Profile struct {
	ID         int               `json:"id" db:"id"`
	UserID     int               `json:"user_id" db:"user_id"`
	Nickname   string            `json:"nickname" db:"nickname"`
	Bio        *string           `json:"bio,omitempty" db:"bio"`
	Phone      *string           `json:"phone,omitempty" db:"phone"`
	Visibility ProfileVisibility `json:"visibility" db:"visibility"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`

	PhotoKey *string `json:"-" db:"photo_key"`
	PhotoURL *string `json:"photo_url,omitempty" db:"-"`
}
