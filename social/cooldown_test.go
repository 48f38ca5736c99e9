package social_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"socialgraph/social"
)

func TestCooldowns(t *testing.T) {
	clock := newFakeClock()
	c := social.NewCooldowns(30*time.Second, clock)
	id := uuid.New()

	assert.True(t, c.CanAct(id))
	assert.Zero(t, c.Remaining(id))

	c.Record(id)
	assert.False(t, c.CanAct(id))
	assert.Equal(t, 30, c.Remaining(id))

	clock.Advance(29*time.Second + time.Millisecond)
	assert.Equal(t, 1, c.Remaining(id))

	clock.Advance(999 * time.Millisecond)
	assert.False(t, c.CanAct(id), "exactly at the window is still cooling down")
	assert.Zero(t, c.Remaining(id))

	clock.Advance(time.Millisecond)
	assert.True(t, c.CanAct(id))
	assert.Equal(t, 1, c.Prune())
	assert.Zero(t, c.Prune())
}
