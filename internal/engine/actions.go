package engine

import (
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/conditions"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
)

// Disabled-candidate reasons.
const (
	ReasonNoPP       = "no pp"
	ReasonBannedMove = "banned by format"
	ReasonFainted    = "fainted"
	ReasonTeraUsed   = "tera already used"
	ReasonTeraDenied = "tera not allowed in format"
)

// LegalActions generates the ordered candidate sequence for one side:
// moves first, then tera variants, then switches. Every candidate that
// exists under the format is listed; inapplicable ones carry a
// disabled flag and reason instead of being omitted. Struggle is
// synthesized when and only when every move is out of PP.
func LegalActions(st *battle.BattleState, side int, f dex.Format) ([]battle.Candidate, error) {
	if side < 0 || side > 1 {
		return nil, battle.ErrInvalidAction
	}
	s := &st.Sides[side]
	active := s.Active()
	if active == nil {
		return nil, battle.ErrMissingEntity
	}

	var out []battle.Candidate
	mustSwitch := active.Fainted()

	if !mustSwitch {
		out = append(out, moveCandidates(active, f)...)
		if active.OutOfPP() {
			out = append(out, battle.Candidate{
				Action: battle.Action{Type: battle.ActionMove, MoveID: battle.Struggle.ID},
			})
		}
		out = append(out, teraCandidates(active, f)...)
	}

	for _, idx := range s.BenchIndexes() {
		c := battle.Candidate{
			Action: battle.Action{Type: battle.ActionSwitch, SwitchTo: idx},
		}
		if s.Team[idx].Fainted() {
			c.Disabled = true
			c.Reason = ReasonFainted
		}
		out = append(out, c)
	}

	// Nothing playable at all: the side has lost, but callers still
	// get a well-formed sequence.
	if !hasEnabled(out) {
		out = append(out, battle.Candidate{Action: battle.Action{Type: battle.ActionPass}})
	}
	return out, nil
}

func moveCandidates(active *battle.Pokemon, f dex.Format) []battle.Candidate {
	out := make([]battle.Candidate, 0, len(active.Moves))
	for i := range active.Moves {
		slot := &active.Moves[i]
		c := battle.Candidate{
			Action: battle.Action{Type: battle.ActionMove, MoveID: slot.Move.ID},
		}
		switch {
		case slot.PP <= 0:
			c.Disabled = true
			c.Reason = ReasonNoPP
		case f.MoveBanned(slot.Move.ID):
			c.Disabled = true
			c.Reason = ReasonBannedMove
		default:
			if reason, blocked := conditions.MoveBlocked(active, slot.Move); blocked {
				c.Disabled = true
				c.Reason = reason
			}
		}
		out = append(out, c)
	}
	return out
}

func teraCandidates(active *battle.Pokemon, f dex.Format) []battle.Candidate {
	if active.Tera.Type == "" {
		return nil
	}
	var disabled bool
	var reason string
	switch {
	case !f.TeraAllowed:
		disabled, reason = true, ReasonTeraDenied
	case active.Tera.Used || !active.Tera.Available:
		disabled, reason = true, ReasonTeraUsed
	}

	var out []battle.Candidate
	for i := range active.Moves {
		slot := &active.Moves[i]
		c := battle.Candidate{
			Action: battle.Action{
				Type:     battle.ActionTera,
				MoveID:   slot.Move.ID,
				TeraType: active.Tera.Type,
			},
			Disabled: disabled,
			Reason:   reason,
		}
		if !c.Disabled {
			if slot.PP <= 0 {
				c.Disabled, c.Reason = true, ReasonNoPP
			} else if f.MoveBanned(slot.Move.ID) {
				c.Disabled, c.Reason = true, ReasonBannedMove
			} else if r, blocked := conditions.MoveBlocked(active, slot.Move); blocked {
				c.Disabled, c.Reason = true, r
			}
		}
		out = append(out, c)
	}
	return out
}

func hasEnabled(cs []battle.Candidate) bool {
	for _, c := range cs {
		if !c.Disabled {
			return true
		}
	}
	return false
}

// EnabledActions filters a candidate sequence down to the playable
// actions, in order.
func EnabledActions(cs []battle.Candidate) []battle.Action {
	out := make([]battle.Action, 0, len(cs))
	for _, c := range cs {
		if !c.Disabled {
			out = append(out, c.Action)
		}
	}
	return out
}
