package models

import "time"

// UserStatus представляет статусы аккаунта, соответствующие ENUM в БД.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusDeleted   UserStatus = "deleted"
)

type User struct {
	ID           int        `json:"id" db:"id"`
	Nickname     string     `json:"nickname" db:"nickname"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Status       UserStatus `json:"status" db:"status"`
	RegisteredAt time.Time  `json:"registered_at" db:"registered_at"`

	Profile *Profile `json:"profile,omitempty" db:"-"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
