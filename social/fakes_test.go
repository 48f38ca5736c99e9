package social_test

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"socialgraph/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errStoreDown = errors.New("store unavailable")

// memStore is an in-memory store that counts calls.
type memStore[T any] struct {
	mu      sync.Mutex
	records map[string]T
	getID   func(*T) string
	setID   func(*T, string)
	column  func(*T, string) string

	inserts   atomic.Int32
	queries   atomic.Int32
	failQuery error
	// failInsert is returned by the insert with this 1-based sequence number.
	failInsertAt int32
	failInsert   error
	updateErr    error
}

func newFriendshipStore() *memStore[models.Friendship] {
	return &memStore[models.Friendship]{
		records: make(map[string]models.Friendship),
		getID:   func(f *models.Friendship) string { return f.ID },
		setID:   func(f *models.Friendship, id string) { f.ID = id },
		column: func(f *models.Friendship, column string) string {
			if column == models.ColumnOwnerID {
				return f.OwnerID.String()
			}
			return f.TargetID.String()
		},
	}
}

func newBlacklistStore() *memStore[models.BlacklistEntry] {
	return &memStore[models.BlacklistEntry]{
		records: make(map[string]models.BlacklistEntry),
		getID:   func(e *models.BlacklistEntry) string { return e.ID },
		setID:   func(e *models.BlacklistEntry, id string) { e.ID = id },
		column: func(e *models.BlacklistEntry, column string) string {
			if column == models.ColumnOwnerID {
				return e.OwnerID.String()
			}
			return e.TargetID.String()
		},
	}
}

func (m *memStore[T]) matches(record *T, filter models.Filter) bool {
	for column, value := range filter {
		if m.column(record, column) != value {
			return false
		}
	}
	return true
}

func (m *memStore[T]) Insert(_ context.Context, record *T) (string, error) {
	n := m.inserts.Add(1)
	if m.failInsert != nil && n == m.failInsertAt {
		return "", m.failInsert
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getID(record) == "" {
		m.setID(record, uuid.NewString())
	}
	m.records[m.getID(record)] = *record
	return m.getID(record), nil
}

func (m *memStore[T]) Query(_ context.Context, filter models.Filter) ([]T, error) {
	m.queries.Add(1)
	if m.failQuery != nil {
		return nil, m.failQuery
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []T
	for _, id := range slices.Sorted(maps.Keys(m.records)) {
		record := m.records[id]
		if m.matches(&record, filter) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (m *memStore[T]) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *memStore[T]) Delete(_ context.Context, filter models.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, record := range m.records {
		if m.matches(&record, filter) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore[T]) Update(_ context.Context, record *T) error {
	if m.updateErr != nil {
		return m.updateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[m.getID(record)]; !ok {
		return models.ErrConflict
	}
	m.records[m.getID(record)] = *record
	return nil
}

func (m *memStore[T]) Exists(_ context.Context, filter models.Filter) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if m.matches(&record, filter) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// recorder is both the messenger and the presence source.
type recorder struct {
	mu       sync.Mutex
	messages map[uuid.UUID][]string
	online   map[uuid.UUID]bool
}

func newRecorder() *recorder {
	return &recorder{
		messages: make(map[uuid.UUID][]string),
		online:   make(map[uuid.UUID]bool),
	}
}

func (r *recorder) Send(userID uuid.UUID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[userID] = append(r.messages[userID], message)
}

func (r *recorder) IsOnline(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online[userID]
}

func (r *recorder) SetOnline(userID uuid.UUID, online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online[userID] = online
}

func (r *recorder) Last(userID uuid.UUID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[userID]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

func (r *recorder) All(userID uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.messages[userID])
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[uuid.UUID][]string
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, userID uuid.UUID, message string) error {
	if n.err != nil {
		return n.err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = make(map[uuid.UUID][]string)
	}
	n.sent[userID] = append(n.sent[userID], message)
	return nil
}

type fakeTeleporter struct {
	calls []uuid.UUID
	err   error
}

func (t *fakeTeleporter) Teleport(_ context.Context, _, targetID uuid.UUID) error {
	if t.err != nil {
		return t.err
	}
	t.calls = append(t.calls, targetID)
	return nil
}
