package social

import (
	"context"
	"time"

	"github.com/google/uuid"
	"socialgraph/models"
)

// Repository is the persistence contract for one record kind. Implementations give no
// multi-row transactional guarantees and the service never relies on any.
type Repository[T any] interface {
	Insert(ctx context.Context, record *T) (string, error)
	Query(ctx context.Context, filter models.Filter) ([]T, error)
	DeleteByID(ctx context.Context, id string) error
	Delete(ctx context.Context, filter models.Filter) (int64, error)
	// Update may fail with models.ErrConflict.
	Update(ctx context.Context, record *T) error
	Exists(ctx context.Context, filter models.Filter) (bool, error)
}

type (
	FriendshipStore = Repository[models.Friendship]
	BlacklistStore  = Repository[models.BlacklistEntry]
)

// Messenger delivers a text to a user directly. It is fire-and-forget and silently drops
// messages for users who are not connected.
type Messenger interface {
	Send(userID uuid.UUID, message string)
}

// Notifier is an optional richer delivery channel, such as mobile push.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, message string) error
}

type Presence interface {
	IsOnline(userID uuid.UUID) bool
}

type Teleporter interface {
	Teleport(ctx context.Context, userID, targetID uuid.UUID) error
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
