package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/cache"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/config"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dispatcher"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/engine"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/handlers"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/influx"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/logging"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/monitor"
	intOtel "github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/otel"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/worker"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"gorm.io/gorm"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentEngineVersion string = "1.0.0"
	BuildDate            string = "unknown"

	EngineName string = "pokeai"
)

// file paths
var (
	// WorkDir is the directory holding the config file and outputs.
	WorkDir string

	// LogsDir is resolved from config after loading.
	LogsDir string

	InitLogFilePath string
	InitLogFile     *os.File
	EngineLogPath   string
	EngineLogFile   *os.File
)

// global variables
var (
	// IsDatabaseValid indicates whether a DB-backed storage backend came up
	IsDatabaseValid bool = false

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// ZLogger feeds the zerolog-based collaborators (dispatcher, influx, db)
	ZLogger zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()

	// Services
	battleEngine    *engine.Engine
	sessionCache    *cache.SessionCache
	handlerService  *handlers.Service
	workerManager   *worker.Manager
	monitorService  *monitor.Service
	eventDispatcher *dispatcher.Dispatcher
	influxManager   *influx.Manager

	// Storage backend
	storageBackend storage.Backend

	// MonitorDB is a standalone connection used only for hypertable checks
	MonitorDB *gorm.DB
)

func main() {
	setup()
	defer shutdown()

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		return
	}

	var err error
	switch strings.ToLower(args[0]) {
	case "selfplay":
		err = runSelfPlay(args[1:])
	case "demo":
		err = runDemo()
	case "export":
		err = exportBattles(args[1:])
	case "prune":
		err = pruneBattles(args[1:])
	case "migrate":
		err = migrateBackups()
	case "version":
		fmt.Printf("%s %s (built %s)\n", EngineName, CurrentEngineVersion, BuildDate)
	default:
		usage()
	}

	if err != nil {
		Logger.Error("Command failed", "command", args[0], "error", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Printf(`usage: %s <command> [args]

commands:
  selfplay [-n count] [-format name] [-teams file] [-tag tag]
           play battles against itself and record the traces
  demo     run a single scripted battle through the operation dispatcher
  export   <battle-id...>  write replay JSON for recorded battles
  prune    <battle-id...>  drop evaluation records to reclaim space
  migrate  push local sqlite backups into postgres
  version  print version information
`, EngineName)
}

// setup mirrors the load-time initialization: bootstrap logging first,
// then config, then the real log file with optional OTel export.
func setup() {
	var err error

	WorkDir, err = os.Getwd()
	if err != nil {
		WorkDir = "."
	}

	InitLogFilePath = filepath.Join(WorkDir, "init.log")
	InitLogFile, err = os.Create(InitLogFilePath)
	if err != nil {
		// Log to stderr since logging isn't set up yet
		fmt.Fprintf(os.Stderr, "Failed to create init log file: %v\n", err)
	}

	// Initialize slog manager with initial config
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(InitLogFile, viper.GetString("logLevel"), nil)
	Logger = SlogManager.Logger()

	// load config
	err = config.Load(WorkDir)
	if err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	// create logs dir if it doesn't exist
	LogsDir = viper.GetString("logsDir")
	if _, err := os.Stat(LogsDir); os.IsNotExist(err) {
		os.Mkdir(LogsDir, 0755)
	}

	EngineLogPath = logging.LogFilePath(LogsDir, EngineName, SessionStartTime)
	if _, err := os.Stat(EngineLogPath); err == nil {
		os.Rename(EngineLogPath, EngineLogPath+".old")
	}
	EngineLogFile, err = os.OpenFile(EngineLogPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", EngineLogPath)
	}

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    EngineLogFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else if otelCfg.Endpoint != "" {
			Logger.Info("OTel provider initialized", "file", EngineLogPath, "endpoint", otelCfg.Endpoint)
		} else {
			Logger.Info("OTel provider initialized", "file", EngineLogPath)
		}
	}

	// Re-setup logging with file output and optional OTel
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(EngineLogFile, viper.GetString("logLevel"), otelLogProvider)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", EngineLogPath)

	ZLogger = zerolog.New(EngineLogFile).With().Timestamp().Logger()

	// event dispatcher comes up before storage so lifecycle commands
	// work even when no backend is configured
	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(ZLogger))
	if err != nil {
		Logger.Error("Failed to create dispatcher", "error", err)
		panic(err)
	}
	registerLifecycleHandlers(eventDispatcher)

	if err := setupEngine(); err != nil {
		Logger.Error("Failed to set up battle engine", "error", err)
		panic(err)
	}

	sessionCache = cache.NewSessionCache()
	handlerService = handlers.NewService(handlers.Dependencies{
		Engine:        battleEngine,
		Sessions:      sessionCache,
		LogManager:    SlogManager,
		EngineVersion: CurrentEngineVersion,
		DefaultTag:    viper.GetString("defaultTag"),
	})
	handlerService.RegisterHandlers(eventDispatcher)
	Logger.Info("Operation handlers registered with dispatcher")

	// leave two cores for the OS, minimum 1
	numCPUs := runtime.NumCPU()
	runtime.GOMAXPROCS(int(math.Max(float64(numCPUs-2), 1)))
	Logger.Debug("Number of CPUs", "numCPUs", numCPUs)
}

// setupEngine loads the dex and format registry, honoring config overrides
// for external data directories.
func setupEngine() error {
	var (
		d   *dex.Dex
		err error
	)

	dataDir := viper.GetString("engine.dataDir")
	if dataDir != "" {
		d, err = dex.NewFromDir(dataDir)
	} else {
		d, err = dex.New()
	}
	if err != nil {
		return fmt.Errorf("failed to load dex data: %w", err)
	}
	Logger.Info("Dex loaded", "species", d.SpeciesCount(), "moves", d.MoveCount())

	formats := dex.NewFormatRegistry()
	formatsDir := viper.GetString("engine.formatsDir")
	if formatsDir != "" {
		if err := formats.LoadFormats(formatsDir); err != nil {
			return fmt.Errorf("failed to load formats: %w", err)
		}
	}
	Logger.Info("Formats available", "names", formats.Names())

	battleEngine = engine.New(d, formats, Logger)
	return nil
}

// registerLifecycleHandlers registers system/lifecycle command handlers with the dispatcher
func registerLifecycleHandlers(d *dispatcher.Dispatcher) {
	d.Register(":VERSION:", func(e dispatcher.Event) (any, error) {
		return []string{CurrentEngineVersion, BuildDate}, nil
	})

	d.Register(":GETDIR:WORK:", func(e dispatcher.Event) (any, error) {
		return WorkDir, nil
	})

	d.Register(":GETDIR:LOGS:", func(e dispatcher.Event) (any, error) {
		return LogsDir, nil
	})

	d.Register(":SAVE:", func(e dispatcher.Event) (any, error) {
		Logger.Info("Received :SAVE: command, flushing storage")
		if OTelProvider != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := OTelProvider.Flush(ctx); err != nil {
				Logger.Warn("Failed to flush OTel data", "error", err)
			}
		}
		return "ok", nil
	})
}

func shutdown() {
	if storageBackend != nil {
		if err := storageBackend.Close(); err != nil {
			Logger.Error("Error closing storage backend", "error", err)
		}
	}
	if monitorService != nil && monitorService.IsRunning() {
		monitorService.Stop()
	}
	if OTelProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	if EngineLogFile != nil {
		EngineLogFile.Close()
	}
	if InitLogFile != nil {
		InitLogFile.Close()
	}
}
