package main

import (
	"fmt"
	"path/filepath"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/config"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/database"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/monitor"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/worker"
	"github.com/spf13/viper"
)

// initStorage brings up the configured storage backend, falling back from
// postgres to a session-local sqlite file when the connection fails, then
// wires the worker and monitor services around it.
func initStorage() error {
	storageCfg := config.GetStorageConfig()

	backend, cfgType, err := createStorageBackend(storageCfg)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	storageBackend = backend

	switch cfgType {
	case "postgres", "sqlite":
		IsDatabaseValid = true
	}

	handlerService.SetBackend(storageBackend)

	workerManager = worker.NewManager(worker.Dependencies{
		Engine:     battleEngine,
		LogManager: SlogManager,
		Count:      viper.GetInt("worker.count"),
		MaxTurns:   viper.GetInt("engine.maxTurns"),
	}, storageBackend)

	deps := monitor.Dependencies{
		LogManager:      SlogManager,
		Sessions:        sessionCache,
		WorkerManager:   workerManager,
		StatusDir:       LogsDir,
		IsDatabaseValid: func() bool { return IsDatabaseValid },
	}
	if provider, ok := storageBackend.(monitor.BufferLengthsProvider); ok {
		deps.Buffers = provider
	}
	if cfgType == "postgres" {
		cfg := storageCfg.Postgres
		db, err := database.GetPostgresDBStandalone(
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode,
		)
		if err != nil {
			Logger.Warn("No standalone DB for monitoring", "error", err)
		} else {
			deps.DB = db
			MonitorDB = db
		}
	}
	monitorService = monitor.NewService(deps)

	if deps.DB != nil {
		if err := monitorService.ValidateHypertables(map[string][]string{
			"engine_performances": {"battle_id"},
		}); err != nil {
			Logger.Warn("Hypertable validation failed", "error", err)
		}
	}

	Logger.Info("Storage backend initialized", "type", cfgType)
	return nil
}

// createStorageBackend builds and initializes a backend for the configured
// type. A failed postgres init degrades to sqlite so traces are not lost.
func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, string, error) {
	backend, err := storage.NewBackend(storageCfg)
	if err != nil {
		return nil, "", err
	}

	if err := backend.Init(); err != nil {
		if storageCfg.Type != "postgres" {
			return nil, "", fmt.Errorf("failed to initialize %s backend: %w", storageCfg.Type, err)
		}

		Logger.Warn("Postgres backend failed, falling back to local sqlite", "error", err)
		fallback := storageCfg
		fallback.Type = "sqlite"
		fallback.SQLite.Path = filepath.Join(WorkDir, fmt.Sprintf(
			"%s_%s.db", EngineName, SessionStartTime.Format("20060102_150405"),
		))
		backend, err = storage.NewBackend(fallback)
		if err != nil {
			return nil, "", err
		}
		if err := backend.Init(); err != nil {
			return nil, "", fmt.Errorf("failed to initialize sqlite fallback: %w", err)
		}
		return backend, "sqlite", nil
	}

	return backend, storageCfg.Type, nil
}
