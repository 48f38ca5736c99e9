package models

import (
	"time"

	"github.com/google/uuid"
)

// Friendship is one direction of a friendship: the owner considers the target a friend.
// A friendship between two users is always stored as two of these.
type Friendship struct {
	ID         string    `json:"id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	TargetID   uuid.UUID `json:"target_id"`
	TargetName string    `json:"target_name"`
	Nickname   string    `json:"nickname,omitempty"`
	Favorite   bool      `json:"favorite"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewFriendship(ownerID uuid.UUID, target Identity, now time.Time) *Friendship {
	return &Friendship{
		OwnerID:    ownerID,
		TargetID:   target.ID,
		TargetName: target.Name,
		CreatedAt:  now,
	}
}

// DisplayName returns the owner-local nickname when one is set.
func (f *Friendship) DisplayName() string {
	if f.Nickname != "" {
		return f.Nickname
	}
	return f.TargetName
}

type FriendResponse struct {
	Friendship
	DisplayName string `json:"display_name"`
	Online      bool   `json:"online"`
}
