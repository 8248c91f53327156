// Package worker runs self-play battles in parallel. Each worker owns
// its battles end to end: state, per-battle RNG and trace recording
// never cross worker boundaries.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/channel"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/engine"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/logging"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage"
)

// ErrNoLegalAction is returned when a side has no enabled candidate, which
// indicates a legality-generation bug rather than a playable position.
var ErrNoLegalAction = fmt.Errorf("no legal action available")

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Engine     *engine.Engine
	LogManager *logging.SlogManager
	Count      int // parallel workers
	MaxTurns   int // per-battle turn cap
}

// Manager manages self-play worker goroutines
type Manager struct {
	deps    Dependencies
	backend storage.Backend
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.Count <= 0 {
		deps.Count = 1
	}
	if deps.MaxTurns <= 0 {
		deps.MaxTurns = 1000
	}
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}

// Matchup describes one battle to play.
type Matchup struct {
	ID     string
	Format string
	Seed   int64
	Teams  [2][]dex.PokemonSpec
	Tag    string
}

// MatchupProvider produces the nth battle of a run.
type MatchupProvider func(n int) Matchup

// BattleResult is the outcome of one self-play battle.
type BattleResult struct {
	ID       string
	Winner   string
	Turns    int
	Duration time.Duration
	Err      error
}

// Summary aggregates a self-play run.
type Summary struct {
	Battles    int
	WinsP1     int
	WinsP2     int
	Ties       int
	Unfinished int // turn cap reached
	Failures   int
	TotalTurns int
}

// AvgTurns returns the mean turn count across completed battles.
func (s Summary) AvgTurns() float64 {
	done := s.Battles - s.Failures
	if done == 0 {
		return 0
	}
	return float64(s.TotalTurns) / float64(done)
}

func (s *Summary) add(r BattleResult) {
	s.Battles++
	if r.Err != nil {
		s.Failures++
		return
	}
	s.TotalTurns += r.Turns
	switch r.Winner {
	case "p1":
		s.WinsP1++
	case "p2":
		s.WinsP2++
	case "tie":
		s.Ties++
	default:
		s.Unfinished++
	}
}

// Run plays the given number of battles across the configured worker
// count and aggregates the outcomes. Individual battle failures are
// collected, not fatal; ctx cancellation stops dispatching new battles.
func (m *Manager) Run(ctx context.Context, battles int, provider MatchupProvider) (Summary, []BattleResult) {
	jobs := channel.NewUnbuffered[int]()
	resultCh := channel.NewBuffered[BattleResult](battles)

	var wg sync.WaitGroup
	for w := 0; w < m.deps.Count; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs.Receive() {
				resultCh.Send(m.playBattle(ctx, provider(n)))
			}
		}()
	}

dispatch:
	for n := 0; n < battles; n++ {
		select {
		case <-ctx.Done():
			break dispatch
		default:
			jobs.Send(n)
		}
	}
	jobs.Close()
	wg.Wait()
	resultCh.Close()

	var summary Summary
	results := make([]BattleResult, 0, battles)
	for r := range resultCh.Receive() {
		summary.add(r)
		results = append(results, r)
	}

	m.logRun(summary)
	return summary, results
}

func (m *Manager) logRun(s Summary) {
	if m.deps.LogManager == nil {
		return
	}
	m.deps.LogManager.WriteLog("worker:Run",
		fmt.Sprintf("Self-play run complete: %d battles, p1 %d / p2 %d / tie %d, %d unfinished, %d failed, avg %.1f turns",
			s.Battles, s.WinsP1, s.WinsP2, s.Ties, s.Unfinished, s.Failures, s.AvgTurns()),
		"INFO")
}
