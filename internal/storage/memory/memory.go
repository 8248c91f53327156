// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sync"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/config"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"
)

// BattleRecord groups one battle with all its recorded data
type BattleRecord struct {
	Info    core.BattleInfo
	Turns   []core.TurnInfo
	Effects []core.EffectInfo
	Calcs   []core.CalcInfo
	Summary *core.SummaryInfo
	Result  *core.BattleResult
}

// Backend stores battle data in memory and exports replays to JSON
type Backend struct {
	cfg config.MemoryConfig

	battles map[string]*BattleRecord // keyed by battle external ID

	lastExportPath string
	lastExportMeta core.UploadMetadata
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:     cfg,
		battles: make(map[string]*BattleRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartBattle begins recording a new battle
func (b *Backend) StartBattle(info *core.BattleInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.battles[info.ID] = &BattleRecord{
		Info:    *info,
		Turns:   make([]core.TurnInfo, 0),
		Effects: make([]core.EffectInfo, 0),
		Calcs:   make([]core.CalcInfo, 0),
	}
	return nil
}

// EndBattle finalizes the battle and exports the replay
func (b *Backend) EndBattle(r *core.BattleResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.battles[r.BattleID]
	if !ok {
		return fmt.Errorf("unknown battle %q", r.BattleID)
	}
	record.Result = r

	return b.exportJSON(record)
}

// RecordTurn records a resolved turn
func (b *Backend) RecordTurn(t *core.TurnInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.battles[t.BattleID]
	if !ok {
		return fmt.Errorf("unknown battle %q", t.BattleID)
	}
	record.Turns = append(record.Turns, *t)
	return nil
}

// RecordEffect records one effect-log entry
func (b *Backend) RecordEffect(e *core.EffectInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.battles[e.BattleID]
	if !ok {
		return fmt.Errorf("unknown battle %q", e.BattleID)
	}
	record.Effects = append(record.Effects, *e)
	return nil
}

// RecordCalc records one pre-turn evaluation
func (b *Backend) RecordCalc(c *core.CalcInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.battles[c.BattleID]
	if !ok {
		return fmt.Errorf("unknown battle %q", c.BattleID)
	}
	record.Calcs = append(record.Calcs, *c)
	return nil
}

// RecordSummary records the battle's aggregate summary
func (b *Backend) RecordSummary(s *core.SummaryInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.battles[s.BattleID]
	if !ok {
		return fmt.Errorf("unknown battle %q", s.BattleID)
	}
	record.Summary = s
	return nil
}

// GetBattle looks up a recorded battle by external ID
func (b *Backend) GetBattle(id string) (*BattleRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	record, ok := b.battles[id]
	return record, ok
}

// GetExportedFilePath returns the path of the most recently exported replay
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata returns metadata describing the most recent export
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportMeta
}
