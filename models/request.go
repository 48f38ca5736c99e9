package models

import (
	"time"

	"github.com/google/uuid"
)

// FriendRequest is a pending, in-memory friend request. It is never persisted.
type FriendRequest struct {
	SenderID   uuid.UUID `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewFriendRequest(sender Identity, receiverID uuid.UUID, now time.Time) FriendRequest {
	return FriendRequest{
		SenderID:   sender.ID,
		SenderName: sender.Name,
		ReceiverID: receiverID,
		CreatedAt:  now,
	}
}

// IsExpired reports whether the request is strictly older than timeout at now.
func (r FriendRequest) IsExpired(now time.Time, timeout time.Duration) bool {
	return now.Sub(r.CreatedAt) > timeout
}
