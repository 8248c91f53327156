// internal/storage/storage.go
package storage

import "github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Battle management
	StartBattle(b *core.BattleInfo) error
	EndBattle(r *core.BattleResult) error

	// Turn recording
	RecordTurn(t *core.TurnInfo) error
	RecordEffect(e *core.EffectInfo) error
	RecordCalc(c *core.CalcInfo) error

	// Aggregates
	RecordSummary(s *core.SummaryInfo) error
}

// Uploadable is an optional interface for storage backends that produce
// replay files suitable for upload to a review frontend.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
