package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/config"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/database"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dispatcher"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/engine"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/handlers"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// runDemo drives one scripted battle through the operation dispatcher,
// exercising the same command path external callers use.
func runDemo() error {
	if err := initStorage(); err != nil {
		return err
	}

	battleID := fmt.Sprintf("demo-%s", SessionStartTime.Format("20060102150405"))
	req := handlers.NewBattleRequest{
		ID:     battleID,
		Format: config.GetString("engine.defaultFormat"),
		Seed:   SessionStartTime.UnixNano(),
		Teams:  [2][]dex.PokemonSpec{builtinTeams[0], builtinTeams[1]},
		Tag:    "demo",
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	if _, err := dispatchDemoEvent(":NEW:BATTLE:", string(payload)); err != nil {
		return fmt.Errorf("new battle failed: %w", err)
	}
	fmt.Printf("started demo battle %s\n", battleID)

	for turn := 0; turn < 20; turn++ {
		var actions [2]battle.Action
		finished := false

		for side := 0; side < 2; side++ {
			sideReq, _ := json.Marshal(handlers.SideRequest{ID: battleID, Side: side})
			result, err := dispatchDemoEvent(":LEGAL:ACTIONS:", string(sideReq))
			if err != nil {
				return fmt.Errorf("legal actions failed: %w", err)
			}
			candidates, ok := result.([]battle.Candidate)
			if !ok {
				return fmt.Errorf("unexpected legal actions response %T", result)
			}

			enabled := engine.EnabledActions(candidates)
			if len(enabled) == 0 {
				finished = true
				break
			}

			evalReq, _ := json.Marshal(handlers.EvaluateRequest{
				ID: battleID, Side: side, Actions: enabled,
			})
			if _, err := dispatchDemoEvent(":EVALUATE:", string(evalReq)); err != nil {
				return fmt.Errorf("evaluate failed: %w", err)
			}

			actions[side] = enabled[0]
		}
		if finished {
			break
		}

		advReq, _ := json.Marshal(handlers.AdvanceRequest{ID: battleID, Actions: actions})
		result, err := dispatchDemoEvent(":ADVANCE:", string(advReq))
		if err != nil {
			return fmt.Errorf("advance failed: %w", err)
		}
		st, ok := result.(*battle.BattleState)
		if !ok {
			return fmt.Errorf("unexpected advance response %T", result)
		}
		fmt.Printf("turn %d resolved, %d log entries\n", st.Turn, len(st.Log))
		if st.Finished() {
			fmt.Printf("battle over, winner: %s\n", st.Winner)
			return nil
		}
	}

	endReq, _ := json.Marshal(handlers.SideRequest{ID: battleID})
	if _, err := dispatchDemoEvent(":END:BATTLE:", string(endReq)); err != nil {
		return fmt.Errorf("end battle failed: %w", err)
	}
	fmt.Println("demo battle ended at turn cap")
	return nil
}

// dispatchDemoEvent routes one command through the dispatcher.
func dispatchDemoEvent(command string, args ...string) (any, error) {
	return eventDispatcher.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: time.Now(),
	})
}

// getPostgresDB opens a standalone connection using the configured
// postgres settings.
func getPostgresDB() (*gorm.DB, error) {
	cfg := config.GetStorageConfig().Postgres
	db, err := database.GetPostgresDBStandalone(
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	return db, nil
}

// exportBattles writes gzipped replay JSON for recorded battles, looked up
// by their external IDs.
func exportBattles(battleIDs []string) error {
	if len(battleIDs) == 0 {
		return fmt.Errorf("no battle IDs provided")
	}
	fmt.Println("Exporting replay JSON for battle IDs: ", battleIDs)

	db, err := getPostgresDB()
	if err != nil {
		return err
	}

	for _, battleID := range battleIDs {
		txStart := time.Now()

		var row model.Battle
		err = db.Model(&model.Battle{}).
			Preload("Format").
			Where("external_id = ?", battleID).
			First(&row).Error
		if err != nil {
			return fmt.Errorf("error getting battle %s: %w", battleID, err)
		}

		replay := map[string]any{
			"battleId":      row.ExternalID,
			"format":        row.Format.Name,
			"formatHash":    row.Format.Hash,
			"seed":          row.Seed,
			"tag":           row.Tag,
			"engineVersion": row.EngineVersion,
			"startTime":     row.StartTime.Format(time.RFC3339),
			"endTime":       row.EndTime.Format(time.RFC3339),
			"winner":        row.Winner,
			"turnCount":     row.TurnCount,
			"teams":         []json.RawMessage{json.RawMessage(row.TeamP1), json.RawMessage(row.TeamP2)},
		}

		// Bulk-fetch all per-turn data for this battle
		turns := []model.TurnRecord{}
		err = db.Model(&model.TurnRecord{}).
			Where("battle_id = ?", row.ID).
			Order("turn ASC").
			Find(&turns).Error
		if err != nil {
			return fmt.Errorf("error getting turn records: %w", err)
		}

		turnRows := make([]map[string]any, 0, len(turns))
		for _, t := range turns {
			turnRows = append(turnRows, map[string]any{
				"turn":     t.Turn,
				"actionP1": json.RawMessage(t.ActionP1),
				"actionP2": json.RawMessage(t.ActionP2),
				"state":    json.RawMessage(t.State),
			})
		}
		replay["turns"] = turnRows

		effects := []model.EffectRecord{}
		err = db.Model(&model.EffectRecord{}).
			Where("battle_id = ?", row.ID).
			Order("turn ASC, seq ASC").
			Find(&effects).Error
		if err != nil {
			return fmt.Errorf("error getting effect records: %w", err)
		}

		timeline := make([][]any, 0, len(effects))
		for _, e := range effects {
			timeline = append(timeline, []any{
				e.Turn, e.Seq, e.Side, e.Kind, e.Actor, e.Target, e.Move, e.Amount, e.Detail,
			})
		}
		replay["timeline"] = timeline

		var summary model.BattleSummary
		err = db.Model(&model.BattleSummary{}).Where("battle_id = ?", row.ID).First(&summary).Error
		if err == nil {
			replay["summary"] = map[string]any{
				"winner":        summary.Winner,
				"turnCount":     summary.TurnCount,
				"damageP1":      summary.DamageP1,
				"damageP2":      summary.DamageP2,
				"faintsP1":      summary.FaintsP1,
				"faintsP2":      summary.FaintsP2,
				"moveUsage":     json.RawMessage(summary.MoveUsage),
				"statusUptime":  json.RawMessage(summary.StatusUptime),
				"hazardDamage":  summary.HazardDamage,
				"residualKills": summary.ResidualKills,
			}
		} else if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("error getting battle summary: %w", err)
		}

		fmt.Println("Got battle data in ", time.Since(txStart))

		replayJSON, err := json.Marshal(replay)
		if err != nil {
			return fmt.Errorf("error marshalling replay data: %w", err)
		}

		fileName := fmt.Sprintf("%s_%s.json.gz", row.ExternalID, row.StartTime.Format("20060102_150405"))
		fileName = strings.ReplaceAll(fileName, " ", "_")
		fileName = strings.ReplaceAll(fileName, ":", "_")
		f, err := os.Create(fileName)
		if err != nil {
			return fmt.Errorf("error creating file: %w", err)
		}
		defer func() { _ = f.Close() }()

		gzWriter := gzip.NewWriter(f)
		defer func() { _ = gzWriter.Close() }()
		_, err = gzWriter.Write(replayJSON)
		if err != nil {
			return fmt.Errorf("error writing to gzip: %w", err)
		}

		fmt.Println("Wrote replay data to ", fileName)
	}

	return nil
}

// pruneBattles deletes evaluation records that were not chosen, which is
// by far the bulkiest data a battle produces, then vacuums the schema.
func pruneBattles(battleIDs []string) error {
	if len(battleIDs) == 0 {
		return fmt.Errorf("no battle IDs provided")
	}

	db, err := getPostgresDB()
	if err != nil {
		return err
	}

	for _, battleID := range battleIDs {
		txStart := time.Now()

		var row model.Battle
		err = db.Model(&model.Battle{}).Where("external_id = ?", battleID).First(&row).Error
		if err != nil {
			return fmt.Errorf("error getting battle %s: %w", battleID, err)
		}

		calcsToDelete := []model.CalcRecord{}
		err = db.Model(&model.CalcRecord{}).Where(
			"battle_id = ? AND chosen = false",
			row.ID,
		).Find(&calcsToDelete).Error
		if err != nil {
			return fmt.Errorf("error getting calc records to delete: %w", err)
		}

		if len(calcsToDelete) == 0 {
			fmt.Println("No calc records to delete for battle ", battleID, ", checked in ", time.Since(txStart))
			continue
		}

		err = db.Delete(&calcsToDelete).Error
		if err != nil {
			return fmt.Errorf("error deleting calc records: %w", err)
		}

		fmt.Println("Deleted ", len(calcsToDelete), " calc records from battle ", battleID, " in ", time.Since(txStart))
	}

	fmt.Println("")
	fmt.Println("----------------------------------------")
	fmt.Println("")
	fmt.Println("Finished pruning calc records, running VACUUM to recover space...")
	txStart := time.Now()
	tables := []string{}
	err = db.Raw(
		`SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_type = 'BASE TABLE'`,
	).Scan(&tables).Error
	if err != nil {
		return fmt.Errorf("error getting tables to vacuum: %w", err)
	}

	for _, table := range tables {
		err = db.Exec(fmt.Sprintf(`VACUUM (FULL) "%s"`, table)).Error
		if err != nil {
			return fmt.Errorf("error running VACUUM on table %s: %w", table, err)
		}
	}

	fmt.Println("Finished VACUUM in ", time.Since(txStart))
	return nil
}

// migrateBackups pushes any local sqlite backup databases into Postgres.
// Backups accumulate when the engine runs with the sqlite fallback.
func migrateBackups() error {
	sqlitePaths, err := database.GetBackupDBPaths(WorkDir)
	if err != nil {
		return fmt.Errorf("error getting backup database paths: %w", err)
	}
	if len(sqlitePaths) == 0 {
		Logger.Info("No sqlite backups found", "dir", WorkDir)
		return nil
	}

	postgresDB, err := getPostgresDB()
	if err != nil {
		return err
	}

	successfulMigrations := make([]string, 0)

	for _, sqlitePath := range sqlitePaths {
		sqliteDB, err := database.GetSqliteDBStandalone(sqlitePath)
		if err != nil {
			return fmt.Errorf("error getting sqlite database: %w", err)
		}

		// transaction for Postgres so we can rollback if errors
		tx := postgresDB.Begin()

		err = migrateTables(sqliteDB, tx)
		if err != nil {
			tx.Rollback()
			return err
		}

		// With no issues, we commit the transaction
		tx.Commit()

		// if we get here, we've successfully migrated this backup
		sqlConnection, err := sqliteDB.DB()
		if err != nil {
			Logger.Error("Error getting sqlite connection", "error", err)
			continue
		}
		err = sqlConnection.Close()
		if err != nil {
			Logger.Error("Error closing sqlite connection", "error", err)
		}
		err = os.Rename(sqlitePath, sqlitePath+".migrated")
		if err != nil {
			Logger.Error("Error renaming sqlite file", "error", err)
		}
		successfulMigrations = append(successfulMigrations, sqlitePath)
	}

	Logger.Info("Successfully migrated backups, it's recommended to delete these to avoid future data duplication",
		"count", len(successfulMigrations),
		"paths", successfulMigrations)

	return nil
}

// migrateTables copies every battle table in dependency order.
func migrateTables(sqliteDB *gorm.DB, tx *gorm.DB) error {
	if err := migrateTable(sqliteDB, tx, model.EngineInfo{}, "engine_infos"); err != nil {
		return fmt.Errorf("error migrating engine_infos: %w", err)
	}
	if err := migrateTable(sqliteDB, tx, model.Format{}, "formats"); err != nil {
		return fmt.Errorf("error migrating formats: %w", err)
	}
	if err := migrateTable(sqliteDB, tx, model.Battle{}, "battles"); err != nil {
		return fmt.Errorf("error migrating battles: %w", err)
	}
	if err := migrateTable(sqliteDB, tx, model.TurnRecord{}, "turn_records"); err != nil {
		return fmt.Errorf("error migrating turn_records: %w", err)
	}
	if err := migrateTable(sqliteDB, tx, model.EffectRecord{}, "effect_records"); err != nil {
		return fmt.Errorf("error migrating effect_records: %w", err)
	}
	if err := migrateTable(sqliteDB, tx, model.CalcRecord{}, "calc_records"); err != nil {
		return fmt.Errorf("error migrating calc_records: %w", err)
	}
	if err := migrateTable(sqliteDB, tx, model.BattleSummary{}, "battle_summaries"); err != nil {
		return fmt.Errorf("error migrating battle_summaries: %w", err)
	}
	if err := migrateTable(sqliteDB, tx, model.EnginePerformance{}, "engine_performances"); err != nil {
		return fmt.Errorf("error migrating engine_performances: %w", err)
	}
	return nil
}

// helper function for sqlite migrations
func migrateTable[M any](
	sqliteDB *gorm.DB,
	postgresDB *gorm.DB,
	mdl M,
	tableName string,
) (err error) {
	rows := []M{}
	err = sqliteDB.Model(&mdl).Find(&rows).Error
	if err != nil {
		return fmt.Errorf("error reading %s from sqlite: %w", tableName, err)
	}
	Logger.Info("Found records", "count", len(rows), "table", tableName)

	if len(rows) == 0 {
		return nil
	}

	Logger.Info("Inserting records", "count", len(rows), "table", tableName)

	// insert into postgres
	err = postgresDB.Clauses(
		clause.OnConflict{
			DoNothing: true,
		}).CreateInBatches(rows, 500).Error
	if err != nil {
		Logger.Error("Error migrating table", "error", err, "table", tableName)
		return err
	}

	return nil
}
