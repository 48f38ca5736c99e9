package social

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"socialgraph/models"
)

// Ledger holds pending friend requests grouped by receiver. A receiver has at most one
// request per sender. Every method is safe for concurrent use.
type Ledger struct {
	mu       sync.Mutex
	requests map[uuid.UUID][]models.FriendRequest
}

func NewLedger() *Ledger {
	return &Ledger{requests: make(map[uuid.UUID][]models.FriendRequest)}
}

// Add registers req unless the receiver already holds a live request from the same sender.
// An expired request from that sender is replaced.
func (l *Ledger) Add(req models.FriendRequest, now time.Time, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.requests[req.ReceiverID]
	if i := indexFrom(list, req.SenderID); i >= 0 {
		if !list[i].IsExpired(now, ttl) {
			return false
		}
		list = slices.Delete(list, i, i+1)
	}
	l.requests[req.ReceiverID] = append(list, req)
	return true
}

// Lookup returns the live request sent by senderID to receiverID.
func (l *Ledger) Lookup(receiverID, senderID uuid.UUID, now time.Time, ttl time.Duration) (models.FriendRequest, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.requests[receiverID]
	if i := indexFrom(list, senderID); i >= 0 && !list[i].IsExpired(now, ttl) {
		return list[i], true
	}
	return models.FriendRequest{}, false
}

// Find returns the receiver's request whose sender name matches case-insensitively,
// whether or not it has expired.
func (l *Ledger) Find(receiverID uuid.UUID, senderName string) (models.FriendRequest, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, req := range l.requests[receiverID] {
		if strings.EqualFold(req.SenderName, senderName) {
			return req, true
		}
	}
	return models.FriendRequest{}, false
}

// Take removes exactly req. It reports false when req was already consumed or replaced.
func (l *Ledger) Take(req models.FriendRequest) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.requests[req.ReceiverID]
	i := indexFrom(list, req.SenderID)
	if i < 0 || !list[i].CreatedAt.Equal(req.CreatedAt) {
		return false
	}
	l.store(req.ReceiverID, slices.Delete(list, i, i+1))
	return true
}

// Remove drops the request from senderID to receiverID, if any.
func (l *Ledger) Remove(receiverID, senderID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.requests[receiverID]
	i := indexFrom(list, senderID)
	if i < 0 {
		return false
	}
	l.store(receiverID, slices.Delete(list, i, i+1))
	return true
}

// RemovePair drops requests between a and b in both directions.
func (l *Ledger) RemovePair(a, b uuid.UUID) int {
	n := 0
	if l.Remove(a, b) {
		n++
	}
	if l.Remove(b, a) {
		n++
	}
	return n
}

// Pending returns the receiver's live requests, oldest first, and drops its expired ones.
func (l *Ledger) Pending(receiverID uuid.UUID, now time.Time, ttl time.Duration) []models.FriendRequest {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := slices.DeleteFunc(l.requests[receiverID], func(req models.FriendRequest) bool {
		return req.IsExpired(now, ttl)
	})
	l.store(receiverID, list)
	return slices.Clone(list)
}

// Sweep drops every expired request and returns how many were removed.
func (l *Ledger) Sweep(now time.Time, ttl time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for receiverID, list := range l.requests {
		before := len(list)
		list = slices.DeleteFunc(list, func(req models.FriendRequest) bool {
			return req.IsExpired(now, ttl)
		})
		removed += before - len(list)
		l.store(receiverID, list)
	}
	return removed
}

// Len returns the number of stored requests, expired ones included.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, list := range l.requests {
		n += len(list)
	}
	return n
}

// store must be called with mu held.
func (l *Ledger) store(receiverID uuid.UUID, list []models.FriendRequest) {
	if len(list) == 0 {
		delete(l.requests, receiverID)
		return
	}
	l.requests[receiverID] = list
}

func indexFrom(list []models.FriendRequest, senderID uuid.UUID) int {
	return slices.IndexFunc(list, func(req models.FriendRequest) bool {
		return req.SenderID == senderID
	})
}
