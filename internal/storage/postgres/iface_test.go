package postgres_test

import (
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage/postgres"
)

// Compile-time interface check
var _ storage.Backend = (*postgres.Backend)(nil)
