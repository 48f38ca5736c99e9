package social

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Cooldowns throttles an action to once per window per user. It keeps only the time of the
// last action, there is no burst accounting.
type Cooldowns struct {
	mu     sync.Mutex
	last   map[uuid.UUID]time.Time
	window time.Duration
	clock  Clock
}

func NewCooldowns(window time.Duration, clock Clock) *Cooldowns {
	return &Cooldowns{
		last:   make(map[uuid.UUID]time.Time),
		window: window,
		clock:  clock,
	}
}

func (c *Cooldowns) CanAct(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.last[id]
	return !ok || c.clock.Now().Sub(last) > c.window
}

func (c *Cooldowns) Record(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[id] = c.clock.Now()
}

// Remaining returns the whole seconds left until the window elapses, rounded up.
func (c *Cooldowns) Remaining(id uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.last[id]
	if !ok {
		return 0
	}
	left := c.window - c.clock.Now().Sub(last)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// Prune forgets users whose window has elapsed.
func (c *Cooldowns) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	n := 0
	for id, last := range c.last {
		if now.Sub(last) > c.window {
			delete(c.last, id)
			n++
		}
	}
	return n
}
