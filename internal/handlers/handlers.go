package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/analysis"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/cache"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/calc"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dispatcher"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/engine"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/logging"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/util"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Engine        *engine.Engine
	Sessions      *cache.SessionCache
	LogManager    *logging.SlogManager
	EngineVersion string
	DefaultTag    string
}

// Service provides handler methods for processing battle operations
type Service struct {
	deps         Dependencies
	writeLogFunc func(functionName, data, level string)
	backend      storage.Backend
	battleSeq    cache.SafeCounter
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	s := &Service{
		deps: deps,
	}
	// Default writeLog function uses the logging manager
	s.writeLogFunc = func(functionName, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(functionName, data, level)
		}
	}
	return s
}

// SetBackend sets the storage backend for battle trace recording
func (s *Service) SetBackend(b storage.Backend) {
	s.backend = b
}

func (s *Service) writeLog(functionName, data, level string) {
	s.writeLogFunc(functionName, data, level)
}

func (s *Service) hasBackend() bool {
	return s.backend != nil
}

// RegisterHandlers registers all battle operations with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Battle lifecycle - sync (state must exist before operations arrive)
	d.Register(":NEW:BATTLE:", s.handleNewBattle, dispatcher.Logged())
	d.Register(":END:BATTLE:", s.handleEndBattle, dispatcher.Logged())

	// Per-turn operations - sync (callers need the result)
	d.Register(":LEGAL:ACTIONS:", s.handleLegalActions)
	d.Register(":EVALUATE:", s.handleEvaluate, dispatcher.Logged())
	d.Register(":ADVANCE:", s.handleAdvance, dispatcher.Logged())
	d.Register(":GET:STATE:", s.handleGetState)
}

// cleanArgs strips transport quoting from incoming operation arguments.
func cleanArgs(data []string) []string {
	out := make([]string, len(data))
	for i, v := range data {
		out[i] = util.FixEscapeQuotes(util.TrimQuotes(v))
	}
	return out
}

// NewBattleRequest is the payload of a :NEW:BATTLE: operation.
type NewBattleRequest struct {
	ID     string               `json:"id"`
	Format string               `json:"format"`
	Seed   int64                `json:"seed"`
	Teams  [2][]dex.PokemonSpec `json:"teams"`
	Tag    string               `json:"tag"`
}

// NewBattleResponse echoes the assigned ID with the initial state.
type NewBattleResponse struct {
	ID    string              `json:"id"`
	State *battle.BattleState `json:"state"`
}

// NewBattle creates a battle, caches its state and opens the storage trace.
func (s *Service) NewBattle(data []string) (*NewBattleResponse, error) {
	functionName := ":NEW:BATTLE:"
	data = cleanArgs(data)

	var req NewBattleRequest
	if err := json.Unmarshal([]byte(data[0]), &req); err != nil {
		s.writeLog(functionName, fmt.Sprintf(`Error unmarshalling battle request: %v`, err), "ERROR")
		return nil, fmt.Errorf("failed to parse battle request: %w", err)
	}

	st, err := s.deps.Engine.NewBattle(req.Format, req.Seed, req.Teams)
	if err != nil {
		s.writeLog(functionName, fmt.Sprintf(`Error creating battle: %v`, err), "ERROR")
		return nil, err
	}

	id := req.ID
	if id == "" {
		s.battleSeq.Inc()
		id = fmt.Sprintf("b-%d-%d", time.Now().Unix(), s.battleSeq.Value())
	}
	s.deps.Sessions.Put(id, st)

	if s.hasBackend() {
		f, err := s.deps.Engine.Format(st)
		if err != nil {
			return nil, err
		}
		tag := req.Tag
		if tag == "" {
			tag = s.deps.DefaultTag
		}
		if err := s.backend.StartBattle(&core.BattleInfo{
			ID:        id,
			Format:    f,
			Seed:      st.Seed,
			Teams:     req.Teams,
			Tag:       tag,
			StartTime: time.Now().UTC(),
		}); err != nil {
			s.writeLog(functionName, fmt.Sprintf(`Error opening battle trace: %v`, err), "ERROR")
			return nil, err
		}
	}

	return &NewBattleResponse{ID: id, State: st}, nil
}

// SideRequest addresses one side of a battle.
type SideRequest struct {
	ID   string `json:"id"`
	Side int    `json:"side"`
}

// LegalActions returns the ordered candidate list for a side.
func (s *Service) LegalActions(data []string) ([]battle.Candidate, error) {
	data = cleanArgs(data)

	var req SideRequest
	if err := json.Unmarshal([]byte(data[0]), &req); err != nil {
		return nil, fmt.Errorf("failed to parse side request: %w", err)
	}

	st, ok := s.deps.Sessions.Get(req.ID)
	if !ok {
		return nil, fmt.Errorf("battle %q: %w", req.ID, battle.ErrMissingEntity)
	}

	return s.deps.Engine.LegalActions(st, req.Side)
}

// EvaluateRequest is the payload of an :EVALUATE: operation.
type EvaluateRequest struct {
	ID      string          `json:"id"`
	Side    int             `json:"side"`
	Actions []battle.Action `json:"actions"`
	Beliefs *calc.Beliefs   `json:"beliefs,omitempty"`
}

// Evaluate scores candidate actions and records the evaluations.
func (s *Service) Evaluate(data []string) ([]calc.Result, error) {
	functionName := ":EVALUATE:"
	data = cleanArgs(data)

	var req EvaluateRequest
	if err := json.Unmarshal([]byte(data[0]), &req); err != nil {
		return nil, fmt.Errorf("failed to parse evaluate request: %w", err)
	}

	st, ok := s.deps.Sessions.Get(req.ID)
	if !ok {
		return nil, fmt.Errorf("battle %q: %w", req.ID, battle.ErrMissingEntity)
	}

	results, err := s.deps.Engine.Evaluate(st, req.Side, req.Actions, req.Beliefs)
	if err != nil {
		return nil, err
	}

	if s.hasBackend() {
		for _, res := range results {
			if err := s.backend.RecordCalc(&core.CalcInfo{
				BattleID: req.ID,
				Turn:     st.Turn,
				Side:     req.Side,
				Result:   res,
			}); err != nil {
				s.writeLog(functionName, fmt.Sprintf(`Error recording evaluation: %v`, err), "ERROR")
			}
		}
	}

	return results, nil
}

// AdvanceRequest is the payload of an :ADVANCE: operation.
type AdvanceRequest struct {
	ID      string           `json:"id"`
	Actions [2]battle.Action `json:"actions"`
}

// Advance resolves one turn, updates the session and records the trace.
func (s *Service) Advance(data []string) (*battle.BattleState, error) {
	functionName := ":ADVANCE:"
	data = cleanArgs(data)

	var req AdvanceRequest
	if err := json.Unmarshal([]byte(data[0]), &req); err != nil {
		return nil, fmt.Errorf("failed to parse advance request: %w", err)
	}

	st, ok := s.deps.Sessions.Get(req.ID)
	if !ok {
		return nil, fmt.Errorf("battle %q: %w", req.ID, battle.ErrMissingEntity)
	}
	turn := st.Turn
	logStart := len(st.Log)

	next, err := s.deps.Engine.Advance(st, req.Actions)
	if err != nil {
		s.writeLog(functionName, fmt.Sprintf(`Error advancing battle %s: %v`, req.ID, err), "ERROR")
		return nil, err
	}

	s.deps.Sessions.Put(req.ID, next)

	if s.hasBackend() {
		if err := s.backend.RecordTurn(&core.TurnInfo{
			BattleID: req.ID,
			Turn:     turn,
			Actions:  req.Actions,
			State:    next,
		}); err != nil {
			s.writeLog(functionName, fmt.Sprintf(`Error recording turn: %v`, err), "ERROR")
		}
		for i := logStart; i < len(next.Log); i++ {
			if err := s.backend.RecordEffect(&core.EffectInfo{
				BattleID: req.ID,
				Seq:      i,
				Effect:   next.Log[i],
			}); err != nil {
				s.writeLog(functionName, fmt.Sprintf(`Error recording effect: %v`, err), "ERROR")
				break
			}
		}
		if next.Finished() {
			if err := s.backend.RecordSummary(analysis.Summarize(req.ID, next)); err != nil {
				s.writeLog(functionName, fmt.Sprintf(`Error recording summary: %v`, err), "ERROR")
			}
			if err := s.backend.EndBattle(&core.BattleResult{
				BattleID: req.ID,
				Winner:   next.Winner,
				Turns:    next.Turn,
				EndTime:  time.Now().UTC(),
			}); err != nil {
				s.writeLog(functionName, fmt.Sprintf(`Error closing battle trace: %v`, err), "ERROR")
			}
		}
	}

	return next, nil
}

// GetState returns the current state of a battle.
func (s *Service) GetState(data []string) (*battle.BattleState, error) {
	data = cleanArgs(data)

	var req SideRequest
	if err := json.Unmarshal([]byte(data[0]), &req); err != nil {
		return nil, fmt.Errorf("failed to parse state request: %w", err)
	}

	st, ok := s.deps.Sessions.Get(req.ID)
	if !ok {
		return nil, fmt.Errorf("battle %q: %w", req.ID, battle.ErrMissingEntity)
	}
	return st, nil
}

// EndBattle drops a battle from the session cache, closing the trace
// if the battle never ran to completion.
func (s *Service) EndBattle(data []string) error {
	functionName := ":END:BATTLE:"
	data = cleanArgs(data)

	var req SideRequest
	if err := json.Unmarshal([]byte(data[0]), &req); err != nil {
		return fmt.Errorf("failed to parse end request: %w", err)
	}

	st, ok := s.deps.Sessions.Get(req.ID)
	if !ok {
		return fmt.Errorf("battle %q: %w", req.ID, battle.ErrMissingEntity)
	}

	if s.hasBackend() && !st.Finished() {
		if err := s.backend.RecordSummary(analysis.Summarize(req.ID, st)); err != nil {
			s.writeLog(functionName, fmt.Sprintf(`Error recording summary: %v`, err), "ERROR")
		}
		if err := s.backend.EndBattle(&core.BattleResult{
			BattleID: req.ID,
			Winner:   st.Winner,
			Turns:    st.Turn,
			EndTime:  time.Now().UTC(),
		}); err != nil {
			s.writeLog(functionName, fmt.Sprintf(`Error closing battle trace: %v`, err), "ERROR")
		}
	}

	s.deps.Sessions.Delete(req.ID)
	return nil
}

// Dispatcher adapters.

func (s *Service) handleNewBattle(e dispatcher.Event) (any, error) {
	return s.NewBattle(e.Args)
}

func (s *Service) handleLegalActions(e dispatcher.Event) (any, error) {
	return s.LegalActions(e.Args)
}

func (s *Service) handleEvaluate(e dispatcher.Event) (any, error) {
	return s.Evaluate(e.Args)
}

func (s *Service) handleAdvance(e dispatcher.Event) (any, error) {
	return s.Advance(e.Args)
}

func (s *Service) handleGetState(e dispatcher.Event) (any, error) {
	return s.GetState(e.Args)
}

func (s *Service) handleEndBattle(e dispatcher.Event) (any, error) {
	return nil, s.EndBattle(e.Args)
}
