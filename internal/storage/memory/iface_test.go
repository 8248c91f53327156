package memory_test

import (
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage/memory"
)

// Compile-time interface checks
var (
	_ storage.Backend    = (*memory.Backend)(nil)
	_ storage.Uploadable = (*memory.Backend)(nil)
)
