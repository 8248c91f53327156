package gormstorage_test

import (
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage"
	gormstorage "github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage/gorm"
)

// Compile-time interface check
var _ storage.Backend = (*gormstorage.Backend)(nil)
