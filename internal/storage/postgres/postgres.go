// Package postgres implements the storage.Backend interface using GORM/PostgreSQL
// with internal queues and a background DB writer goroutine.
package postgres

import (
	"fmt"
	"time"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/cache"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/config"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/database"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/logging"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/model"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/model/convert"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/queue"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"

	"gorm.io/gorm"
)

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Turns     *queue.Queue[model.TurnRecord]
	Effects   *queue.Queue[model.EffectRecord]
	Calcs     *queue.Queue[model.CalcRecord]
	Summaries *queue.Queue[model.BattleSummary]
}

func newQueues() *queues {
	return &queues{
		Turns:     queue.New[model.TurnRecord](),
		Effects:   queue.New[model.EffectRecord](),
		Calcs:     queue.New[model.CalcRecord](),
		Summaries: queue.New[model.BattleSummary](),
	}
}

// Backend implements storage.Backend using GORM/PostgreSQL with queue-based batch writes.
type Backend struct {
	cfg      config.PostgresConfig
	db       *gorm.DB
	log      *logging.SlogManager
	queues   *queues
	stopChan chan struct{}
	dbReady  bool

	battles *cache.RowIDCache // battle external ID -> battles row PK
}

// New creates a new PostgreSQL storage backend from configuration.
func New(cfg config.PostgresConfig) *Backend {
	return &Backend{
		cfg:     cfg,
		log:     logging.NewSlogManager(),
		battles: cache.NewRowIDCache(),
	}
}

// NewWithDB creates a backend around an existing DB handle (used by tests).
func NewWithDB(db *gorm.DB, log *logging.SlogManager) *Backend {
	if log == nil {
		log = logging.NewSlogManager()
	}
	return &Backend{
		db:      db,
		log:     log,
		battles: cache.NewRowIDCache(),
	}
}

// Init creates internal queues, runs schema migration, and starts the DB writer goroutine.
// If no DB was injected, it creates its own postgres connection.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})

	if b.db == nil {
		db, err := database.GetPostgresDBStandalone(
			b.cfg.Host, b.cfg.Port, b.cfg.Username, b.cfg.Password, b.cfg.Database, b.cfg.SSLMode,
		)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.db = db
	}

	if err := b.setupDB(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.dbReady = true

	b.startDBWriters()
	return nil
}

// setupDB migrates tables and creates the engine info row if it doesn't exist.
func (b *Backend) setupDB() error {
	db := b.db
	log := b.log

	if !db.Migrator().HasTable(&model.EngineInfo{}) {
		if err := db.AutoMigrate(&model.EngineInfo{}); err != nil {
			log.WriteLog("setupDB", fmt.Sprintf("Failed to create engine_info table: %s", err), "ERROR")
			return fmt.Errorf("failed to auto-migrate EngineInfo: %w", err)
		}
		if err := db.Create(&model.EngineInfo{
			InstanceName:  "battle-engine",
			EngineVersion: "1.0.0",
			DexVersion:    "gen9",
		}).Error; err != nil {
			return fmt.Errorf("failed to create engine_info entry: %w", err)
		}
	}

	log.WriteLog("setupDB", "Migrating schema", "INFO")
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.WriteLog("setupDB", "Database setup complete", "INFO")
	return nil
}

// Close stops the DB writer goroutine and writes anything still queued.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
	}
	b.drain()
	return nil
}

// StartBattle upserts the format row and creates the battles row.
func (b *Backend) StartBattle(info *core.BattleInfo) error {
	if b.db == nil {
		b.battles.Set(info.ID, 0)
		return nil
	}

	format := convert.FormatToModel(info.Format)
	if _, err := format.GetOrInsert(b.db); err != nil {
		return fmt.Errorf("failed to upsert format %s: %w", info.Format.Name, err)
	}

	row := convert.BattleToModel(info.ID, info.Seed, info.Teams, info.StartTime)
	row.FormatID = format.ID
	row.Tag = info.Tag
	if err := b.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert new battle: %w", err)
	}

	b.battles.Set(info.ID, row.ID)

	return nil
}

// EndBattle drains the queues and finalizes the battles row.
func (b *Backend) EndBattle(r *core.BattleResult) error {
	b.drain()

	rowID, err := b.battleRowID(r.BattleID)
	if err != nil {
		return err
	}

	return b.db.Model(&model.Battle{}).Where("id = ?", rowID).Updates(map[string]interface{}{
		"winner":     r.Winner,
		"turn_count": uint16(r.Turns),
		"end_time":   r.EndTime,
		"terminated": true,
	}).Error
}

// RecordTurn converts a resolved turn to GORM and pushes to the write queue.
func (b *Backend) RecordTurn(t *core.TurnInfo) error {
	rowID, err := b.battleRowID(t.BattleID)
	if err != nil {
		return err
	}
	b.queues.Turns.Push(convert.TurnToModel(rowID, t.Turn, t.Actions, t.State))
	return nil
}

// RecordEffect converts and queues an effect-log entry.
func (b *Backend) RecordEffect(e *core.EffectInfo) error {
	rowID, err := b.battleRowID(e.BattleID)
	if err != nil {
		return err
	}
	b.queues.Effects.Push(convert.EffectToModel(rowID, e.Seq, e.Effect))
	return nil
}

// RecordCalc converts and queues an evaluation record.
func (b *Backend) RecordCalc(c *core.CalcInfo) error {
	rowID, err := b.battleRowID(c.BattleID)
	if err != nil {
		return err
	}
	b.queues.Calcs.Push(convert.CalcToModel(rowID, c.Turn, c.Side, c.Result, c.Chosen))
	return nil
}

// RecordSummary converts and queues the battle's aggregate summary.
func (b *Backend) RecordSummary(s *core.SummaryInfo) error {
	rowID, err := b.battleRowID(s.BattleID)
	if err != nil {
		return err
	}
	b.queues.Summaries.Push(convert.SummaryToModel(rowID, s))
	return nil
}

func (b *Backend) battleRowID(externalID string) (uint, error) {
	rowID, ok := b.battles.Get(externalID)
	if !ok {
		return 0, fmt.Errorf("unknown battle %q", externalID)
	}
	return rowID, nil
}

// writeQueue writes all items from a queue to the database in a transaction.
// On failure the items are pushed back for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log func(string, string, string)) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	if err := tx.Create(&items).Error; err != nil {
		log(":DB:WRITER:", fmt.Sprintf("Error creating %s: %v", name, err), "ERROR")
		tx.Rollback()
		q.Push(items...)
		return
	}

	tx.Commit()
}

// drain writes everything currently queued.
func (b *Backend) drain() {
	if b.db == nil || b.queues == nil {
		return
	}
	log := b.log.WriteLog
	writeQueue(b.db, b.queues.Turns, "turn records", log)
	writeQueue(b.db, b.queues.Effects, "effect records", log)
	writeQueue(b.db, b.queues.Calcs, "calc records", log)
	writeQueue(b.db, b.queues.Summaries, "battle summaries", log)
}

// startDBWriters starts the background goroutine that periodically drains queues into the DB.
func (b *Backend) startDBWriters() {
	go func() {
		for {
			select {
			case <-b.stopChan:
				return
			default:
			}

			if !b.dbReady {
				time.Sleep(1 * time.Second)
				continue
			}

			b.drain()
			time.Sleep(2 * time.Second)
		}
	}()
}
