package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/cache"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/logging"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/model"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/worker"

	"gorm.io/gorm"
)

// BufferLengthsProvider is implemented by backends that expose their
// write-queue depths for monitoring.
type BufferLengthsProvider interface {
	BufferLengths() model.BufferLengths
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	DB              *gorm.DB
	LogManager      *logging.SlogManager
	Sessions        *cache.SessionCache
	WorkerManager   *worker.Manager
	Buffers         BufferLengthsProvider
	StatusDir       string
	IsDatabaseValid func() bool
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus returns the current program status
func (s *Service) GetProgramStatus(
	rawBuffers bool,
	lastWrite bool,
) (output []string, perfModel model.EnginePerformance) {
	buffersObj := model.BufferLengths{}
	if s.deps.Buffers != nil {
		buffersObj = s.deps.Buffers.BufferLengths()
	}

	// The gorm backend drains its buffers straight into the write
	// transaction, so queue depth and write-queue depth coincide.
	writeQueuesObj := model.WriteQueueLengths{
		Turns:     buffersObj.Turns,
		Effects:   buffersObj.Effects,
		Calcs:     buffersObj.Calcs,
		Summaries: buffersObj.Summaries,
	}

	var lastWriteMs float32
	if s.deps.WorkerManager != nil {
		lastWriteMs = float32(s.deps.WorkerManager.GetLastDBWriteDuration().Milliseconds())
	}

	perf := model.EnginePerformance{
		Time:                time.Now(),
		BufferLengths:       buffersObj,
		WriteQueueLengths:   writeQueuesObj,
		LastWriteDurationMs: lastWriteMs,
	}

	if rawBuffers {
		rawBuffersStr, err := json.MarshalIndent(buffersObj, "", "  ")
		if err != nil {
			rawBuffersStr = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
		}
		output = append(output, string(rawBuffersStr))
	}
	if lastWrite {
		lastWriteStr, err := json.MarshalIndent(perf.LastWriteDurationMs, "", "  ")
		if err != nil {
			lastWriteStr = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
		}
		output = append(output, string(lastWriteStr))
	}

	return output, perf
}

// ValidateHypertables validates and creates TimescaleDB hypertables
func (s *Service) ValidateHypertables(tables map[string][]string) error {
	functionName := "validateHypertables"

	all := []any{}
	s.deps.DB.Exec(`SELECT x.* FROM timescaledb_information.hypertables`).Scan(&all)
	for _, row := range all {
		s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`hypertable row: %v`, row), "DEBUG")
	}

	for table := range tables {
		hypertable := any(nil)
		s.deps.DB.Exec(`SELECT x.* FROM timescaledb_information.hypertables WHERE hypertable_name = ?`, table).Scan(&hypertable)
		if hypertable != nil {
			s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Table %s is already configured`, table), "INFO")
			continue
		}

		queryCreateHypertable := fmt.Sprintf(`
				SELECT create_hypertable('%s', 'time', chunk_time_interval => interval '1 day', if_not_exists => true);
			`, table)
		err := s.deps.DB.Exec(queryCreateHypertable).Error
		if err != nil {
			s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Failed to create hypertable for %s. Err: %s`, table, err), "ERROR")
			return err
		}
		s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Created hypertable for %s`, table), "INFO")

		queryCompressHypertable := fmt.Sprintf(`
				ALTER TABLE %s SET (
					timescaledb.compress,
					timescaledb.compress_segmentby = ?);
			`, table)
		err = s.deps.DB.Exec(
			queryCompressHypertable,
			strings.Join(tables[table], ","),
		).Error
		if err != nil {
			s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Failed to enable compression for %s. Err: %s`, table, err), "ERROR")
			return err
		}
		s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Enabled hypertable compression for %s`, table), "INFO")

		queryCompressAfterHypertable := fmt.Sprintf(`
				SELECT add_compression_policy(
					'%s',
					compress_after => interval '14 day');
			`, table)
		err = s.deps.DB.Exec(queryCompressAfterHypertable).Error
		if err != nil {
			s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Failed to set compress_after for %s. Err: %s`, table, err), "ERROR")
			return err
		}
		s.deps.LogManager.WriteLog(functionName, fmt.Sprintf(`Set compress_after for %s`, table), "INFO")
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "function", "startStatusMonitor")

		statusFile, err := os.Create(filepath.Join(s.deps.StatusDir, "status.txt"))
		if err != nil {
			logger.Error("Error creating status file", "error", err)
		}
		defer statusFile.Close()

		for {
			select {
			case <-s.stopChan:
				return
			default:
				time.Sleep(1000 * time.Millisecond)

				if s.deps.Sessions == nil || s.deps.Sessions.Len() == 0 {
					continue
				}

				statusStr, perfModel := s.GetProgramStatus(true, true)

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					for _, line := range statusStr {
						statusFile.WriteString(line + "\n")
					}
				}

				// write model to Postgres
				if s.deps.IsDatabaseValid() {
					err = s.deps.DB.Create(&perfModel).Error
					if err != nil {
						logger.Error("Error writing perf model to Postgres", "error", err)
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
