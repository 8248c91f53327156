// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It embeds the GORM backend; the only SQLite-specific concerns are
// creating the in-memory DB and the periodic disk dump.
package sqlitestorage

import (
	"fmt"
	"time"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/config"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/database"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/logging"
	gormstorage "github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage/gorm"

	"gorm.io/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      config.SQLiteConfig
	log      *logging.SlogManager
	stopChan chan struct{}
}

// New creates a new SQLite storage backend. The in-memory database is
// opened on Init.
func New(cfg config.SQLiteConfig) *Backend {
	return &Backend{
		cfg:      cfg,
		log:      logging.NewSlogManager(),
		stopChan: make(chan struct{}),
	}
}

// Init creates the in-memory DB, initializes the embedded GORM backend and
// starts the dump goroutine.
func (b *Backend) Init() error {
	db, err := database.GetSqliteDBStandalone("")
	if err != nil {
		return fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	b.db = db

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:              db,
		LogManager:      b.log,
		IsDatabaseValid: func() bool { return true },
	})
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.Path != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, performs a final dump, and closes the
// embedded GORM backend.
func (b *Backend) Close() error {
	close(b.stopChan)

	if b.cfg.Path != "" && b.db != nil {
		if err := database.DumpMemoryDBToDisk(b.db, b.cfg.Path); err != nil {
			b.log.WriteLog("sqlite:Close", fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
		}
	}

	return b.Backend.Close()
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := database.DumpMemoryDBToDisk(b.db, b.cfg.Path); err != nil {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
			} else {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Dumped to disk in %s", time.Since(start)), "DEBUG")
			}
		}
	}
}
