package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity addresses a user by stable id plus the display name known at the time.
type Identity struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Online    bool      `json:"online"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Username}
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

type DeviceToken struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Platform  string    `json:"platform"` // ios, android
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}
