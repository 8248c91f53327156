package websocket_test

import (
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage/websocket"
)

// Compile-time interface check.
var _ storage.Backend = (*websocket.Backend)(nil)
