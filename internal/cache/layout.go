package cache

import (
	"sync"

	"github.com/poseidonvest/globe/pkg/core"
)

// LayoutCache holds the computed event cluster for each marker so it is only
// rebuilt when the selection or the event collection changes.
type LayoutCache struct {
	mu      sync.RWMutex
	layouts map[string][]core.EventNode
	hits    Counter
	misses  Counter
}

// NewLayoutCache creates a new LayoutCache
func NewLayoutCache() *LayoutCache {
	return &LayoutCache{
		layouts: make(map[string][]core.EventNode),
	}
}

// Get retrieves the nodes for a marker
func (c *LayoutCache) Get(name string) ([]core.EventNode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	nodes, ok := c.layouts[name]
	if ok {
		c.hits.Inc()
	} else {
		c.misses.Inc()
	}
	return nodes, ok
}

// GetOrCompute returns the cached nodes for name, calling build on a miss.
func (c *LayoutCache) GetOrCompute(name string, build func() []core.EventNode) []core.EventNode {
	if nodes, ok := c.Get(name); ok {
		return nodes
	}
	nodes := build()
	c.Set(name, nodes)
	return nodes
}

// Set stores the nodes for a marker
func (c *LayoutCache) Set(name string, nodes []core.EventNode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layouts[name] = nodes
}

// Reset clears every layout
func (c *LayoutCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layouts = make(map[string][]core.EventNode)
}

// Len returns the number of cached layouts
func (c *LayoutCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.layouts)
}

// Stats returns hit and miss counts since creation.
func (c *LayoutCache) Stats() (hits, misses int) {
	return c.hits.Value(), c.misses.Value()
}
