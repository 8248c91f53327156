package cache

import "sync"

// RowIDCache maps battle external IDs to their database row IDs for the
// current session
type RowIDCache struct {
	mu   sync.RWMutex
	rows map[string]uint
}

// NewRowIDCache creates a new RowIDCache
func NewRowIDCache() *RowIDCache {
	return &RowIDCache{
		rows: make(map[string]uint),
	}
}

// Get retrieves a row ID by battle ID
func (c *RowIDCache) Get(battleID string) (uint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.rows[battleID]
	return id, ok
}

// Set stores a row ID by battle ID
func (c *RowIDCache) Set(battleID string, id uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[battleID] = id
}

// Delete removes a battle from the cache
func (c *RowIDCache) Delete(battleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rows, battleID)
}

// Reset clears all battles from the cache
func (c *RowIDCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = make(map[string]uint)
}
