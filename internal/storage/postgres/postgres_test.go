package postgres

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/calc"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/logging"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/model"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/queue"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestBackend creates a Backend with no DB (queue-only mode for unit testing).
func newTestBackend() *Backend {
	return NewWithDB(nil, logging.NewSlogManager())
}

func testBattleInfo(t *testing.T, id string) *core.BattleInfo {
	t.Helper()
	reg := dex.NewFormatRegistry()
	f, err := reg.Get("gen9ou")
	require.NoError(t, err)

	return &core.BattleInfo{
		ID:     id,
		Format: f,
		Seed:   7,
		Teams: [2][]dex.PokemonSpec{
			{{Species: "Gholdengo", Level: 100, Moves: []string{"shadowball"}}},
			{{Species: "Kingambit", Level: 100, Moves: []string{"kowtowcleave"}}},
		},
		Tag:       "ladder",
		StartTime: time.Now(),
	}
}

func startTestBattle(t *testing.T, b *Backend, id string) {
	t.Helper()
	require.NoError(t, b.StartBattle(testBattleInfo(t, id)))
}

func TestNew(t *testing.T) {
	b := newTestBackend()
	require.NotNil(t, b)
}

func TestInitClose(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	b := NewWithDB(db, logging.NewSlogManager())

	err = b.Init()
	require.NoError(t, err)
	require.NotNil(t, b.queues)
	require.NotNil(t, b.stopChan)

	err = b.Close()
	require.NoError(t, err)
}

func TestStartBattle_NoDB_NoOp(t *testing.T) {
	b := newTestBackend()
	b.Init() //nolint:errcheck // Init fails (no postgres) but queues are created for testing
	defer func() { require.NoError(t, b.Close()) }()

	startTestBattle(t, b, "b-1")
	// No DB → no battle row, but recording for the battle is still accepted
	require.NoError(t, b.RecordEffect(&core.EffectInfo{
		BattleID: "b-1",
		Seq:      0,
		Effect:   battle.Effect{Turn: 1, Kind: battle.EffectMove, Actor: "Gholdengo"},
	}))
}

func TestRecordTurn_QueuesToInternalQueue(t *testing.T) {
	b := newTestBackend()
	b.Init() //nolint:errcheck // Init fails (no postgres) but queues are created for testing
	defer func() { require.NoError(t, b.Close()) }()
	startTestBattle(t, b, "b-1")

	err := b.RecordTurn(&core.TurnInfo{
		BattleID: "b-1",
		Turn:     1,
		Actions: [2]battle.Action{
			{Type: battle.ActionMove, MoveID: "shadowball"},
			{Type: battle.ActionSwitch, SwitchTo: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, b.queues.Turns.Len())
}

func TestRecordEffect_QueuesToInternalQueue(t *testing.T) {
	b := newTestBackend()
	b.Init() //nolint:errcheck // Init fails (no postgres) but queues are created for testing
	defer func() { require.NoError(t, b.Close()) }()
	startTestBattle(t, b, "b-1")

	err := b.RecordEffect(&core.EffectInfo{
		BattleID: "b-1",
		Seq:      3,
		Effect: battle.Effect{
			Turn:   1,
			Side:   0,
			Kind:   battle.EffectDamage,
			Actor:  "Gholdengo",
			Target: "Kingambit",
			Amount: 142,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, b.queues.Effects.Len())
}

func TestRecordCalc_QueuesToInternalQueue(t *testing.T) {
	b := newTestBackend()
	b.Init() //nolint:errcheck // Init fails (no postgres) but queues are created for testing
	defer func() { require.NoError(t, b.Close()) }()
	startTestBattle(t, b, "b-1")

	err := b.RecordCalc(&core.CalcInfo{
		BattleID: "b-1",
		Turn:     1,
		Side:     0,
		Result: calc.Result{
			OK:     true,
			Action: battle.Action{Type: battle.ActionMove, MoveID: "shadowball"},
		},
		Chosen: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, b.queues.Calcs.Len())
}

func TestRecord_UnknownBattle(t *testing.T) {
	b := newTestBackend()
	b.Init() //nolint:errcheck // Init fails (no postgres) but queues are created for testing
	defer func() { require.NoError(t, b.Close()) }()

	err := b.RecordTurn(&core.TurnInfo{BattleID: "nope", Turn: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown battle")
	assert.Equal(t, 0, b.queues.Turns.Len())
}

func TestStartBattle_WithDB(t *testing.T) {
	db := newTestDB(t)

	b := NewWithDB(db, logging.NewSlogManager())
	require.NoError(t, b.Init())
	defer func() { require.NoError(t, b.Close()) }()

	startTestBattle(t, b, "b-1")

	var battleCount, formatCount int64
	db.Model(&model.Battle{}).Count(&battleCount)
	db.Model(&model.Format{}).Count(&formatCount)
	assert.Equal(t, int64(1), battleCount)
	assert.Equal(t, int64(1), formatCount)

	var row model.Battle
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, "b-1", row.ExternalID)
	assert.Equal(t, int64(7), row.Seed)
	assert.NotZero(t, row.FormatID)

	// Second battle in the same format should reuse the format row
	startTestBattle(t, b, "b-2")

	db.Model(&model.Battle{}).Count(&battleCount)
	db.Model(&model.Format{}).Count(&formatCount)
	assert.Equal(t, int64(2), battleCount)
	assert.Equal(t, int64(1), formatCount, "formats should be reused, not duplicated")
}

func TestEndBattle_WithDB(t *testing.T) {
	db := newTestDB(t)

	b := NewWithDB(db, logging.NewSlogManager())
	require.NoError(t, b.Init())
	defer func() { require.NoError(t, b.Close()) }()

	startTestBattle(t, b, "b-1")

	end := time.Now()
	require.NoError(t, b.EndBattle(&core.BattleResult{
		BattleID: "b-1",
		Winner:   "p1",
		Turns:    24,
		EndTime:  end,
	}))

	var row model.Battle
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, "p1", row.Winner)
	assert.Equal(t, uint16(24), row.TurnCount)
	assert.True(t, row.Terminated)
}

func TestSetupDB_CreatesEngineInfo(t *testing.T) {
	// Use a raw DB without prior AutoMigrate so setupDB creates the engine_infos table and seed row
	rawDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := rawDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	b := NewWithDB(rawDB, logging.NewSlogManager())

	// Init calls setupDB
	err = b.Init()
	require.NoError(t, err)
	defer func() { require.NoError(t, b.Close()) }()

	var info model.EngineInfo
	require.NoError(t, rawDB.First(&info).Error)
	assert.Equal(t, "battle-engine", info.InstanceName)

	// Verify full schema was migrated
	assert.True(t, rawDB.Migrator().HasTable(&model.Battle{}))
}

// newTestDB creates an in-memory SQLite DB with auto-migrated tables.
// MaxOpenConns=1 ensures all operations use the same connection (in-memory
// SQLite databases are per-connection, so multiple connections would each
// see an empty database).
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.DatabaseModels...))
	return db
}

func noopLog(_, _, _ string) {}

func TestWriteQueue_Success(t *testing.T) {
	db := newTestDB(t)
	q := queue.New[model.EffectRecord]()

	q.Push(model.EffectRecord{BattleID: 1, Turn: 1, Seq: 0, Kind: "move", Actor: "Gholdengo"})
	q.Push(model.EffectRecord{BattleID: 1, Turn: 1, Seq: 1, Kind: "damage", Target: "Kingambit", Amount: 142})

	writeQueue(db, q, "effect records", noopLog)

	assert.True(t, q.Empty(), "queue should be drained after successful write")

	var count int64
	db.Model(&model.EffectRecord{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestWriteQueue_EmptyQueue(t *testing.T) {
	db := newTestDB(t)
	q := queue.New[model.EffectRecord]()

	// Should be a no-op
	writeQueue(db, q, "effect records", noopLog)

	var count int64
	db.Model(&model.EffectRecord{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestWriteQueue_FailureRequeues(t *testing.T) {
	db := newTestDB(t)
	// Drop the table so the insert fails
	require.NoError(t, db.Migrator().DropTable(&model.EffectRecord{}))

	q := queue.New[model.EffectRecord]()
	q.Push(model.EffectRecord{BattleID: 1, Turn: 1, Kind: "move"})

	var logged atomic.Bool
	logFn := func(_, _, _ string) { logged.Store(true) }

	writeQueue(db, q, "effect records", logFn)

	assert.True(t, logged.Load(), "error should be logged")
	assert.Equal(t, 1, q.Len(), "failed items should be re-queued")
}

func TestStartDBWriters_DrainsQueues(t *testing.T) {
	db := newTestDB(t)

	b := NewWithDB(db, logging.NewSlogManager())
	require.NoError(t, b.Init())
	defer func() { require.NoError(t, b.Close()) }()

	startTestBattle(t, b, "b-1")

	// Push items via the public API (which queues GORM models internally)
	require.NoError(t, b.RecordTurn(&core.TurnInfo{
		BattleID: "b-1",
		Turn:     1,
		Actions: [2]battle.Action{
			{Type: battle.ActionMove, MoveID: "shadowball"},
			{Type: battle.ActionPass},
		},
	}))
	require.NoError(t, b.RecordEffect(&core.EffectInfo{
		BattleID: "b-1",
		Seq:      0,
		Effect:   battle.Effect{Turn: 1, Kind: battle.EffectMove, Actor: "Gholdengo"},
	}))
	require.NoError(t, b.RecordCalc(&core.CalcInfo{
		BattleID: "b-1",
		Turn:     1,
		Side:     0,
		Result:   calc.Result{OK: true, Action: battle.Action{Type: battle.ActionMove, MoveID: "shadowball"}},
		Chosen:   true,
	}))

	// Wait for the background writer to drain (it runs on a 2s loop, so wait up to 5s)
	require.Eventually(t, func() bool {
		var count int64
		db.Model(&model.TurnRecord{}).Count(&count)
		return count > 0
	}, 5*time.Second, 100*time.Millisecond, "turn records should be written to DB")

	var turnCount, effectCount, calcCount int64
	db.Model(&model.TurnRecord{}).Count(&turnCount)
	db.Model(&model.EffectRecord{}).Count(&effectCount)
	db.Model(&model.CalcRecord{}).Count(&calcCount)

	assert.Equal(t, int64(1), turnCount)
	assert.Equal(t, int64(1), effectCount)
	assert.Equal(t, int64(1), calcCount)
}
