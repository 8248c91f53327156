// internal/storage/storage_test.go
package storage_test

import (
	"testing"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/config"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage/memory"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadMetadataFields(t *testing.T) {
	meta := core.UploadMetadata{
		FormatName:     "gen9ou",
		BattleID:       "b-42",
		Winner:         "p2",
		TurnCount:      18,
		BattleDuration: 12.5,
		Tag:            "ladder",
	}

	assert.Equal(t, "gen9ou", meta.FormatName)
	assert.Equal(t, "b-42", meta.BattleID)
	assert.Equal(t, "p2", meta.Winner)
	assert.Equal(t, 18, meta.TurnCount)
	assert.Equal(t, 12.5, meta.BattleDuration)
	assert.Equal(t, "ladder", meta.Tag)
}

func TestNewBackend_Memory(t *testing.T) {
	b, err := storage.NewBackend(config.StorageConfig{
		Type:   "memory",
		Memory: config.MemoryConfig{OutputDir: t.TempDir()},
	})
	require.NoError(t, err)
	require.NotNil(t, b)

	_, ok := b.(*memory.Backend)
	assert.True(t, ok)

	// Memory backends expose the replay exporter.
	_, ok = b.(storage.Uploadable)
	assert.True(t, ok)
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := storage.NewBackend(config.StorageConfig{Type: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}
