// Package cache holds the scene's memoized event clusters and the small
// goroutine-safe tallies kept alongside them.
package cache

import "sync"

// Counter is a tally that may be bumped from one goroutine and read from another.
type Counter struct {
	mu sync.Mutex
	n  int
}

func (c *Counter) Add(delta int) {
	c.mu.Lock()
	c.n += delta
	c.mu.Unlock()
}

func (c *Counter) Inc() { c.Add(1) }

func (c *Counter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
