package models

import (
	"time"

	"github.com/google/uuid"
)

// BlacklistEntry records that the owner has blocked the target. It is directed; the reverse
// entry only exists if the target blocked the owner too.
type BlacklistEntry struct {
	ID         string    `json:"id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	TargetID   uuid.UUID `json:"target_id"`
	TargetName string    `json:"target_name"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewBlacklistEntry(ownerID uuid.UUID, target Identity, reason string, now time.Time) *BlacklistEntry {
	return &BlacklistEntry{
		OwnerID:    ownerID,
		TargetID:   target.ID,
		TargetName: target.Name,
		Reason:     reason,
		CreatedAt:  now,
	}
}
