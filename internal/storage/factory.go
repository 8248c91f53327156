// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/config"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage/memory"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage/postgres"
	sqlite "github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage/sqlite"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage/websocket"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(cfg.Postgres), nil
	case "sqlite":
		return sqlite.New(cfg.SQLite), nil
	case "memory":
		return memory.New(cfg.Memory), nil
	case "websocket":
		return websocket.New(cfg.Websocket), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
