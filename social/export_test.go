package social

// Tracked reports how many keys still hold generation state.
func (c *Cache[V]) Tracked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}
