// Package gormstorage implements the storage.Backend interface on top of a
// GORM database handle, with internal queues and a background DB writer
// goroutine so turn resolution never blocks on inserts.
package gormstorage

import (
	"fmt"
	"sync"
	"time"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/cache"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/logging"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/model"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/model/convert"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/queue"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"
	"gorm.io/gorm"
)

// Queues holds the internal record queues drained by the writer goroutine.
type Queues struct {
	Turns     *queue.Queue[model.TurnRecord]
	Effects   *queue.Queue[model.EffectRecord]
	Calcs     *queue.Queue[model.CalcRecord]
	Summaries *queue.Queue[model.BattleSummary]
}

// Dependencies are the collaborators a Backend needs.
type Dependencies struct {
	DB              *gorm.DB
	LogManager      *logging.SlogManager
	IsDatabaseValid func() bool
	WriteInterval   time.Duration
}

// Backend implements storage.Backend using GORM.
type Backend struct {
	db              *gorm.DB
	log             *logging.SlogManager
	isDatabaseValid func() bool
	writeInterval   time.Duration

	queues   *Queues
	stopChan chan struct{}
	wg       sync.WaitGroup

	battles *cache.RowIDCache // battle external ID -> battles row PK

	mu                sync.Mutex
	lastWriteDuration time.Duration
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	interval := deps.WriteInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	valid := deps.IsDatabaseValid
	if valid == nil {
		valid = func() bool { return deps.DB != nil }
	}
	log := deps.LogManager
	if log == nil {
		log = logging.NewSlogManager()
	}
	return &Backend{
		db:              deps.DB,
		log:             log,
		isDatabaseValid: valid,
		writeInterval:   interval,
		battles:         cache.NewRowIDCache(),
	}
}

// Init creates the queues and starts the background writer.
func (b *Backend) Init() error {
	b.queues = &Queues{
		Turns:     queue.New[model.TurnRecord](),
		Effects:   queue.New[model.EffectRecord](),
		Calcs:     queue.New[model.CalcRecord](),
		Summaries: queue.New[model.BattleSummary](),
	}
	b.stopChan = make(chan struct{})

	if b.db != nil {
		if err := b.db.AutoMigrate(model.DatabaseModels...); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	b.wg.Add(1)
	go b.writeLoop()

	return nil
}

// Close stops the writer, flushes pending records and closes the DB.
func (b *Backend) Close() error {
	close(b.stopChan)
	b.wg.Wait()
	b.flush()

	if b.db != nil {
		sqlDB, err := b.db.DB()
		if err == nil {
			return sqlDB.Close()
		}
	}
	return nil
}

// StartBattle registers the format and creates the battles row.
func (b *Backend) StartBattle(info *core.BattleInfo) error {
	if !b.isDatabaseValid() {
		b.battles.Set(info.ID, 0)
		return nil
	}

	format := convert.FormatToModel(info.Format)
	if _, err := format.GetOrInsert(b.db); err != nil {
		return fmt.Errorf("failed to upsert format: %w", err)
	}

	row := convert.BattleToModel(info.ID, info.Seed, info.Teams, info.StartTime)
	row.FormatID = format.ID
	row.Tag = info.Tag
	if err := b.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create battle row: %w", err)
	}

	b.battles.Set(info.ID, row.ID)

	b.log.WriteLog("gorm:StartBattle", fmt.Sprintf("Recording battle %s (%s)", info.ID, info.Format.Name), "DEBUG")
	return nil
}

// EndBattle flushes pending records and finalizes the battles row.
func (b *Backend) EndBattle(r *core.BattleResult) error {
	b.flush()

	rowID, err := b.battleRowID(r.BattleID)
	if err != nil {
		return err
	}
	if rowID == 0 {
		return nil
	}

	return b.db.Model(&model.Battle{}).Where("id = ?", rowID).Updates(map[string]interface{}{
		"winner":     r.Winner,
		"turn_count": uint16(r.Turns),
		"end_time":   r.EndTime,
		"terminated": true,
	}).Error
}

// RecordTurn queues a resolved turn for insertion.
func (b *Backend) RecordTurn(t *core.TurnInfo) error {
	rowID, err := b.battleRowID(t.BattleID)
	if err != nil {
		return err
	}
	b.queues.Turns.Push(convert.TurnToModel(rowID, t.Turn, t.Actions, t.State))
	return nil
}

// RecordEffect queues one effect-log entry for insertion.
func (b *Backend) RecordEffect(e *core.EffectInfo) error {
	rowID, err := b.battleRowID(e.BattleID)
	if err != nil {
		return err
	}
	b.queues.Effects.Push(convert.EffectToModel(rowID, e.Seq, e.Effect))
	return nil
}

// RecordCalc queues an evaluation result for insertion.
func (b *Backend) RecordCalc(c *core.CalcInfo) error {
	rowID, err := b.battleRowID(c.BattleID)
	if err != nil {
		return err
	}
	b.queues.Calcs.Push(convert.CalcToModel(rowID, c.Turn, c.Side, c.Result, c.Chosen))
	return nil
}

// RecordSummary queues the battle's aggregate summary for insertion.
func (b *Backend) RecordSummary(s *core.SummaryInfo) error {
	rowID, err := b.battleRowID(s.BattleID)
	if err != nil {
		return err
	}
	b.queues.Summaries.Push(convert.SummaryToModel(rowID, s))
	return nil
}

// BufferLengths reports current queue depths for performance monitoring.
func (b *Backend) BufferLengths() model.BufferLengths {
	if b.queues == nil {
		return model.BufferLengths{}
	}
	return model.BufferLengths{
		Turns:     uint16(b.queues.Turns.Len()),
		Effects:   uint16(b.queues.Effects.Len()),
		Calcs:     uint16(b.queues.Calcs.Len()),
		Summaries: uint16(b.queues.Summaries.Len()),
	}
}

// LastWriteDuration reports how long the most recent flush took.
func (b *Backend) LastWriteDuration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastWriteDuration
}

// GetLastDBWriteDuration satisfies the monitoring provider interface.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return b.LastWriteDuration()
}

func (b *Backend) battleRowID(externalID string) (uint, error) {
	rowID, ok := b.battles.Get(externalID)
	if !ok {
		return 0, fmt.Errorf("unknown battle %q", externalID)
	}
	return rowID, nil
}

func (b *Backend) writeLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.writeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.flush()
		}
	}
}

// flush drains all queues and writes them in batches.
func (b *Backend) flush() {
	if b.db == nil || !b.isDatabaseValid() {
		return
	}

	start := time.Now()

	if turns := b.queues.Turns.GetAndEmpty(); len(turns) > 0 {
		if err := b.db.CreateInBatches(turns, 500).Error; err != nil {
			b.log.WriteLog("gorm:flush", fmt.Sprintf("Error writing turns: %v", err), "ERROR")
		}
	}
	if effects := b.queues.Effects.GetAndEmpty(); len(effects) > 0 {
		if err := b.db.CreateInBatches(effects, 2000).Error; err != nil {
			b.log.WriteLog("gorm:flush", fmt.Sprintf("Error writing effects: %v", err), "ERROR")
		}
	}
	if calcs := b.queues.Calcs.GetAndEmpty(); len(calcs) > 0 {
		if err := b.db.CreateInBatches(calcs, 1000).Error; err != nil {
			b.log.WriteLog("gorm:flush", fmt.Sprintf("Error writing calcs: %v", err), "ERROR")
		}
	}
	if summaries := b.queues.Summaries.GetAndEmpty(); len(summaries) > 0 {
		if err := b.db.CreateInBatches(summaries, 100).Error; err != nil {
			b.log.WriteLog("gorm:flush", fmt.Sprintf("Error writing summaries: %v", err), "ERROR")
		}
	}

	b.mu.Lock()
	b.lastWriteDuration = time.Since(start)
	b.mu.Unlock()
}
