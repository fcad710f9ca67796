package server

import (
	"sync"

	"github.com/pspoerri/geoproj"
)

// engineCache keeps built engines by key. Engines are safe for concurrent
// use, so one instance serves every request with the same definition.
// The cache is dropped wholesale once it reaches its limit.
type engineCache struct {
	mu      sync.Mutex
	limit   int
	engines map[string]*geoproj.Engine
}

func newEngineCache(limit int) *engineCache {
	return &engineCache{limit: limit, engines: make(map[string]*geoproj.Engine)}
}

// get returns the cached engine for key or builds one. Build failures are
// not cached.
func (c *engineCache) get(key string, build func() (*geoproj.Engine, error)) (*geoproj.Engine, bool, error) {
	c.mu.Lock()
	e, ok := c.engines[key]
	c.mu.Unlock()
	if ok {
		return e, true, nil
	}

	e, err := build()
	if err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.engines) >= c.limit {
		clear(c.engines)
	}
	c.engines[key] = e
	return e, false, nil
}

func (c *engineCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.engines)
}
