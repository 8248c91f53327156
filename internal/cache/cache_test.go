package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
)

func TestSessionCache_NewSessionCache(t *testing.T) {
	cache := NewSessionCache()

	require.NotNil(t, cache)
	assert.NotNil(t, cache.Battles)
	assert.Len(t, cache.Battles, 0)
}

func TestSessionCache_PutAndGet(t *testing.T) {
	cache := NewSessionCache()

	st := &battle.BattleState{Format: "gen9ou", Turn: 3}
	cache.Put("b-42", st)

	got, ok := cache.Get("b-42")
	require.True(t, ok, "expected to find battle b-42")
	assert.Equal(t, "gen9ou", got.Format)
	assert.Equal(t, 3, got.Turn)
}

func TestSessionCache_Get_NotFound(t *testing.T) {
	cache := NewSessionCache()

	_, ok := cache.Get("missing")
	assert.False(t, ok, "expected not to find battle 'missing'")
}

func TestSessionCache_Delete(t *testing.T) {
	cache := NewSessionCache()

	cache.Put("b-1", &battle.BattleState{Format: "gen9ou"})
	require.Equal(t, 1, cache.Len())

	cache.Delete("b-1")
	_, ok := cache.Get("b-1")
	assert.False(t, ok, "expected battle to be gone after delete")
	assert.Equal(t, 0, cache.Len())
}

func TestSessionCache_Reset(t *testing.T) {
	cache := NewSessionCache()

	// Add some data
	cache.Put("b-1", &battle.BattleState{Format: "gen9ou"})
	cache.Put("b-2", &battle.BattleState{Format: "gen9ou"})

	// Verify data exists
	assert.Len(t, cache.Battles, 2)

	// Reset
	cache.Reset()

	// Verify data is cleared
	assert.Len(t, cache.Battles, 0)

	// Verify we can still add data after reset
	cache.Put("b-3", &battle.BattleState{Format: "gen9ou"})
	_, ok := cache.Get("b-3")
	assert.True(t, ok, "expected to find battle added after reset")
}

func TestSessionCache_LockUnlock(t *testing.T) {
	cache := NewSessionCache()

	// Test Lock/Unlock don't cause deadlock
	cache.Lock()
	// Directly modify the map while holding the lock
	cache.Battles["b-1"] = &battle.BattleState{Format: "gen9ou", Turn: 7}
	cache.Unlock()

	// Verify the data was added
	got, ok := cache.Get("b-1")
	require.True(t, ok, "expected to find battle added while holding lock")
	assert.Equal(t, 7, got.Turn)
}

func TestSessionCache_Concurrent(t *testing.T) {
	cache := NewSessionCache()
	var wg sync.WaitGroup

	// Concurrent writes
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cache.Put(fmt.Sprintf("b-%d", n), &battle.BattleState{Format: "gen9ou"})
		}(i)
	}
	wg.Wait()

	// Verify count
	assert.Equal(t, 100, cache.Len())

	// Concurrent reads
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cache.Get(fmt.Sprintf("b-%d", n))
		}(i)
	}
	wg.Wait()
}

// SafeCounter tests

func TestSafeCounter_InitialValue(t *testing.T) {
	c := &SafeCounter{}
	assert.Equal(t, int(0), c.Value())
}

func TestSafeCounter_Set(t *testing.T) {
	c := &SafeCounter{}

	c.Set(42)
	assert.Equal(t, int(42), c.Value())

	c.Set(100)
	assert.Equal(t, int(100), c.Value())

	c.Set(0)
	assert.Equal(t, int(0), c.Value())
}

func TestSafeCounter_Inc(t *testing.T) {
	c := &SafeCounter{}

	c.Inc()
	assert.Equal(t, int(1), c.Value())

	c.Inc()
	c.Inc()
	assert.Equal(t, int(3), c.Value())
}

func TestSafeCounter_Concurrent(t *testing.T) {
	c := &SafeCounter{}
	var wg sync.WaitGroup

	// Concurrent increments
	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()

	assert.Equal(t, int(1000), c.Value())
}
