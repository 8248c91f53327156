package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/api"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/influx"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/teams"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/worker"
	"github.com/spf13/viper"
)

// builtinTeams are used when no team file is supplied.
var builtinTeams = [][]dex.PokemonSpec{
	{
		{Species: "gholdengo", Moves: []string{"makeitrain", "shadowball", "nastyplot", "recover"}},
		{Species: "garchomp", Moves: []string{"earthquake", "stoneedge", "swordsdance", "stealthrock"}},
		{Species: "toxapex", Moves: []string{"surf", "toxic", "recover", "protect"}},
	},
	{
		{Species: "kingambit", Moves: []string{"ironhead", "suckerpunch", "knockoff", "swordsdance"}},
		{Species: "heatran", Moves: []string{"flamethrower", "earthpower", "stealthrock", "protect"}},
		{Species: "dragapult", Moves: []string{"shadowball", "dracometeor", "thunderbolt", "uturn"}},
	},
}

// runSelfPlay plays n battles against itself across the worker pool,
// reports the run to InfluxDB and uploads the last replay if a frontend
// is reachable.
func runSelfPlay(args []string) error {
	fs := flag.NewFlagSet("selfplay", flag.ExitOnError)
	count := fs.Int("n", 10, "number of battles to play")
	format := fs.String("format", viper.GetString("engine.defaultFormat"), "format to play under")
	teamFile := fs.String("teams", "", "Showdown export file with one or more teams")
	tag := fs.String("tag", viper.GetString("defaultTag"), "tag recorded on each battle")
	seed := fs.Int64("seed", time.Now().UnixNano(), "base RNG seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := initStorage(); err != nil {
		return err
	}
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Status monitor failed to start", "error", err)
	}

	pool, err := loadTeamPool(*teamFile)
	if err != nil {
		return err
	}

	runID := SessionStartTime.Format("20060102150405")
	provider := func(n int) worker.Matchup {
		return worker.Matchup{
			ID:     fmt.Sprintf("selfplay-%s-%d", runID, n),
			Format: *format,
			Seed:   *seed + int64(n),
			Teams: [2][]dex.PokemonSpec{
				pool[n%len(pool)],
				pool[(n+1)%len(pool)],
			},
			Tag: *tag,
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	Logger.Info("Starting self-play run", "battles", *count, "format", *format, "tag", *tag)
	start := time.Now()
	summary, results := workerManager.Run(ctx, *count, provider)
	elapsed := time.Since(start)

	fmt.Printf("played %d battles in %s: p1 %d / p2 %d / ties %d / unfinished %d / failures %d, avg %.1f turns\n",
		summary.Battles, elapsed.Round(time.Millisecond),
		summary.WinsP1, summary.WinsP2, summary.Ties, summary.Unfinished, summary.Failures,
		summary.AvgTurns())

	reportRun(ctx, *format, *tag, summary, results)
	uploadLastReplay()
	return nil
}

// loadTeamPool returns the teams battles are drawn from. A file with
// "=== [format] Name ===" headers contributes every team it contains.
func loadTeamPool(path string) ([][]dex.PokemonSpec, error) {
	if path == "" {
		return builtinTeams, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read team file: %w", err)
	}

	parser := teams.NewParser(Logger, battleEngine.Dex())
	text := string(raw)

	if strings.Contains(text, "===") {
		named, err := parser.ParseTeams(text)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(named))
		for name := range named {
			names = append(names, name)
		}
		sort.Strings(names)
		pool := make([][]dex.PokemonSpec, 0, len(named))
		for _, name := range names {
			pool = append(pool, named[name])
		}
		Logger.Info("Loaded team pool", "path", path, "teams", len(pool))
		return pool, nil
	}

	team, err := parser.ParseTeam(text)
	if err != nil {
		return nil, err
	}
	Logger.Info("Loaded single team, mirror matches", "path", path)
	return [][]dex.PokemonSpec{team}, nil
}

// reportRun pushes the run summary, per-battle results and current engine
// performance to InfluxDB. Disabled or unreachable Influx degrades to the
// gzip line-protocol backup file.
func reportRun(ctx context.Context, format, tag string, summary worker.Summary, results []worker.BattleResult) {
	if !viper.GetBool("influx.enabled") {
		return
	}

	influxManager = influx.NewManager(ZLogger, filepath.Join(LogsDir, "influx_backup.gz"))
	if err := influxManager.Connect(); err != nil {
		Logger.Warn("InfluxDB unavailable, skipping run metrics", "error", err)
		return
	}

	if err := influxManager.WriteSelfPlaySummary(ctx, format, tag, summary); err != nil {
		Logger.Error("Failed to write self-play summary", "error", err)
	}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if err := influxManager.WriteBattleResult(ctx, format, tag, r); err != nil {
			Logger.Error("Failed to write battle result", "battleId", r.ID, "error", err)
			break
		}
	}

	_, perf := monitorService.GetProgramStatus(false, true)
	if err := influxManager.WriteEnginePerformance(ctx, perf); err != nil {
		Logger.Error("Failed to write engine performance", "error", err)
	}
}

// uploadLastReplay posts the most recent exported replay to the review
// frontend when the backend produces files and the server is healthy.
func uploadLastReplay() {
	uploadable, ok := storageBackend.(storage.Uploadable)
	if !ok {
		return
	}
	path := uploadable.GetExportedFilePath()
	if path == "" {
		return
	}

	client := api.New(viper.GetString("api.serverUrl"), viper.GetString("api.apiKey"))
	if err := client.Healthcheck(); err != nil {
		Logger.Warn("Replay frontend not reachable, keeping replays local", "error", err)
		return
	}

	meta := uploadable.GetExportMetadata()
	if err := client.Upload(path, meta); err != nil {
		Logger.Error("Replay upload failed", "path", path, "error", err)
		return
	}
	Logger.Info("Replay uploaded", "path", path, "battleId", meta.BattleID)
}
