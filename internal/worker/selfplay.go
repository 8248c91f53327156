package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/analysis"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/calc"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/engine"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"
)

// playBattle runs one battle to completion under the greedy
// expected-gain policy, recording the full trace as it goes.
func (m *Manager) playBattle(ctx context.Context, mu Matchup) BattleResult {
	start := time.Now()
	result := BattleResult{ID: mu.ID}

	st, err := m.deps.Engine.NewBattle(mu.Format, mu.Seed, mu.Teams)
	if err != nil {
		result.Err = fmt.Errorf("creating battle %s: %w", mu.ID, err)
		return result
	}

	if m.backend != nil {
		f, err := m.deps.Engine.Format(st)
		if err != nil {
			result.Err = err
			return result
		}
		if err := m.backend.StartBattle(&core.BattleInfo{
			ID:        mu.ID,
			Format:    f,
			Seed:      st.Seed,
			Teams:     mu.Teams,
			Tag:       mu.Tag,
			StartTime: time.Now().UTC(),
		}); err != nil {
			result.Err = fmt.Errorf("opening trace for %s: %w", mu.ID, err)
			return result
		}
	}

	for !st.Finished() && st.Turn <= m.deps.MaxTurns {
		if err := ctx.Err(); err != nil {
			result.Err = err
			break
		}

		var actions [2]battle.Action
		for side := 0; side < 2; side++ {
			a, err := m.chooseAction(mu.ID, st, side)
			if err != nil {
				result.Err = fmt.Errorf("choosing action for %s side %d turn %d: %w", mu.ID, side, st.Turn, err)
				break
			}
			actions[side] = a
		}
		if result.Err != nil {
			break
		}

		logStart := len(st.Log)
		turn := st.Turn
		next, err := m.deps.Engine.Advance(st, actions)
		if err != nil {
			result.Err = fmt.Errorf("advancing %s turn %d: %w", mu.ID, turn, err)
			break
		}

		if m.backend != nil {
			m.recordTurn(mu.ID, turn, actions, next, logStart)
		}
		st = next
	}

	result.Winner = st.Winner
	result.Turns = st.Turn
	result.Duration = time.Since(start)

	if m.backend != nil {
		if err := m.backend.RecordSummary(analysis.Summarize(mu.ID, st)); err != nil {
			m.writeLog("worker:playBattle", fmt.Sprintf("Error recording summary: %v", err), "ERROR")
		}
		if err := m.backend.EndBattle(&core.BattleResult{
			BattleID: mu.ID,
			Winner:   st.Winner,
			Turns:    st.Turn,
			EndTime:  time.Now().UTC(),
		}); err != nil && result.Err == nil {
			result.Err = fmt.Errorf("closing trace for %s: %w", mu.ID, err)
		}
	}

	return result
}

// chooseAction evaluates the enabled candidates for a side and picks
// the one with the highest expected gain. The full evaluation batch is
// recorded so training can see the alternatives that were rejected.
func (m *Manager) chooseAction(battleID string, st *battle.BattleState, side int) (battle.Action, error) {
	cands, err := m.deps.Engine.LegalActions(st, side)
	if err != nil {
		return battle.Action{}, err
	}
	enabled := engine.EnabledActions(cands)
	if len(enabled) == 0 {
		return battle.Action{}, ErrNoLegalAction
	}

	results, err := m.deps.Engine.Evaluate(st, side, enabled, nil)
	if err != nil {
		return battle.Action{}, err
	}

	best := pickBest(results)

	if m.backend != nil {
		for i, res := range results {
			if err := m.backend.RecordCalc(&core.CalcInfo{
				BattleID: battleID,
				Turn:     st.Turn,
				Side:     side,
				Result:   res,
				Chosen:   i == best,
			}); err != nil {
				m.writeLog("worker:chooseAction", fmt.Sprintf("Error recording evaluation: %v", err), "ERROR")
				break
			}
		}
	}

	return results[best].Action, nil
}

// pickBest returns the index of the highest expected gain among OK
// results, falling back to the first entry when none computed.
func pickBest(results []calc.Result) int {
	best := 0
	found := false
	for i, r := range results {
		if !r.OK {
			continue
		}
		if !found || r.ExpectedGain > results[best].ExpectedGain {
			best = i
			found = true
		}
	}
	return best
}

func (m *Manager) recordTurn(battleID string, turn int, actions [2]battle.Action, next *battle.BattleState, logStart int) {
	if err := m.backend.RecordTurn(&core.TurnInfo{
		BattleID: battleID,
		Turn:     turn,
		Actions:  actions,
		State:    next,
	}); err != nil {
		m.writeLog("worker:recordTurn", fmt.Sprintf("Error recording turn: %v", err), "ERROR")
	}
	for i := logStart; i < len(next.Log); i++ {
		if err := m.backend.RecordEffect(&core.EffectInfo{
			BattleID: battleID,
			Seq:      i,
			Effect:   next.Log[i],
		}); err != nil {
			m.writeLog("worker:recordTurn", fmt.Sprintf("Error recording effect: %v", err), "ERROR")
			break
		}
	}
}

func (m *Manager) writeLog(functionName, data, level string) {
	if m.deps.LogManager != nil {
		m.deps.LogManager.WriteLog(functionName, data, level)
	}
}
