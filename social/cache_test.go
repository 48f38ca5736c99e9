package social_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"socialgraph/social"
)

func TestCache(t *testing.T) {
	c := social.NewCache[[]string]()
	id := uuid.New()

	loads := 0
	load := func(context.Context) ([]string, error) {
		loads++
		return []string{"a"}, nil
	}

	v, err := c.GetOrLoad(t.Context(), id, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, v)

	_, err = c.GetOrLoad(t.Context(), id, load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, c.Len())

	c.Invalidate(id)
	_, ok := c.Get(id)
	assert.False(t, ok)

	_, err = c.GetOrLoad(t.Context(), id, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestCacheErrorsAreNotStored(t *testing.T) {
	c := social.NewCache[int]()
	id := uuid.New()
	boom := errors.New("boom")

	_, err := c.GetOrLoad(t.Context(), id, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())
}

func TestCacheDropsLoadRacingInvalidate(t *testing.T) {
	c := social.NewCache[int]()
	id := uuid.New()

	v, err := c.GetOrLoad(t.Context(), id, func(context.Context) (int, error) {
		c.Invalidate(id)
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, ok := c.Get(id)
	assert.False(t, ok)
}

func TestCacheSharesConcurrentLoads(t *testing.T) {
	c := social.NewCache[int]()
	id := uuid.New()

	var loads atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (int, error) {
		loads.Add(1)
		<-release
		return 7, nil
	}

	const callers = 8
	var started, wg sync.WaitGroup
	started.Add(callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			v, err := c.GetOrLoad(t.Context(), id, load)
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}
	started.Wait()
	close(release)
	wg.Wait()

	n := loads.Load()
	assert.Positive(t, n)
	assert.LessOrEqual(t, n, int32(callers))
	assert.Equal(t, 1, c.Len())

	_, err := c.GetOrLoad(t.Context(), id, load)
	require.NoError(t, err)
	assert.Equal(t, n, loads.Load())
}

func TestCacheForgetsIdleKeys(t *testing.T) {
	c := social.NewCache[int]()

	for range 100 {
		c.Invalidate(uuid.New())
	}
	assert.Zero(t, c.Tracked())

	id := uuid.New()
	_, err := c.GetOrLoad(t.Context(), id, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.Zero(t, c.Tracked())
	assert.Equal(t, 1, c.Len())

	c.Invalidate(id)
	assert.Zero(t, c.Tracked())
	assert.Zero(t, c.Len())
}

type ctxKey struct{}

func TestCacheLoadOutlivesCallerCancellation(t *testing.T) {
	c := social.NewCache[string]()
	id := uuid.New()

	release := make(chan struct{})
	entered := make(chan struct{})
	load := func(ctx context.Context) (string, error) {
		close(entered)
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return ctx.Value(ctxKey{}).(string), nil
	}

	ctx, cancel := context.WithCancel(context.WithValue(t.Context(), ctxKey{}, "alice"))
	var first string
	var firstErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		first, firstErr = c.GetOrLoad(ctx, id, load)
	}()

	<-entered
	cancel()
	close(release)
	<-done

	require.NoError(t, firstErr)
	assert.Equal(t, "alice", first)

	v, err := c.GetOrLoad(t.Context(), id, load)
	require.NoError(t, err)
	assert.Equal(t, "alice", v)
	assert.Zero(t, c.Tracked())
}
