package cache

import (
	"sync"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
)

// SessionCache holds the current state of every live battle keyed by battle ID.
// Latency in these calls is critical to quickly process incoming operations.
type SessionCache struct {
	m       sync.Mutex
	Battles map[string]*battle.BattleState
}

func NewSessionCache() *SessionCache {
	return &SessionCache{
		m:       sync.Mutex{},
		Battles: make(map[string]*battle.BattleState),
	}
}

func (c *SessionCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.Battles = make(map[string]*battle.BattleState)
}

func (c *SessionCache) Lock() {
	c.m.Lock()
}

func (c *SessionCache) Unlock() {
	c.m.Unlock()
}

func (c *SessionCache) Get(id string) (*battle.BattleState, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if st, ok := c.Battles[id]; ok {
		return st, true
	}
	return nil, false
}

func (c *SessionCache) Put(id string, st *battle.BattleState) {
	c.m.Lock()
	defer c.m.Unlock()
	c.Battles[id] = st
}

func (c *SessionCache) Delete(id string) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.Battles, id)
}

func (c *SessionCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.Battles)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
