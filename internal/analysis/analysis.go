// Package analysis derives per-battle aggregate summaries from the
// effect log. Summaries are what the review frontend and the self-play
// dashboards query instead of replaying full effect streams.
package analysis

import (
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"
)

var sideKeys = [2]string{"p1", "p2"}

// residualKinds are the effect kinds whose damage counts as residual
// when it is immediately followed by a faint of the same Pokémon.
var residualKinds = map[string]bool{
	battle.EffectStatusDamage: true,
	battle.EffectWeatherChip:  true,
	battle.EffectHazardDamage: true,
}

// Summarize walks a finished battle's effect log and builds the
// aggregate summary. Damage totals attribute move damage to the acting
// side and exclude self-inflicted hits. Status uptime counts the
// distinct turns in which a condition produced a log entry.
func Summarize(battleID string, st *battle.BattleState) *core.SummaryInfo {
	s := &core.SummaryInfo{
		BattleID:     battleID,
		Winner:       st.Winner,
		TurnCount:    st.Turn,
		MoveUsage:    map[string]map[string]int{},
		StatusUptime: map[string]int{},
	}

	statusTurns := map[string]map[int]bool{}
	markStatus := func(status string, turn int) {
		if status == "" || status == "recovered" || status == "thawed" {
			return
		}
		if statusTurns[status] == nil {
			statusTurns[status] = map[int]bool{}
		}
		statusTurns[status][turn] = true
	}

	var prev battle.Effect
	for i, e := range st.Log {
		switch e.Kind {
		case battle.EffectMove:
			if e.Side == 0 || e.Side == 1 {
				key := sideKeys[e.Side]
				if s.MoveUsage[key] == nil {
					s.MoveUsage[key] = map[string]int{}
				}
				s.MoveUsage[key][e.Move]++
			}
		case battle.EffectDamage:
			if e.Actor != e.Target {
				switch e.Side {
				case 0:
					s.DamageP1 += e.Amount
				case 1:
					s.DamageP2 += e.Amount
				}
			}
		case battle.EffectFaint:
			switch e.Side {
			case 0:
				s.FaintsP1++
			case 1:
				s.FaintsP2++
			}
			if i > 0 && residualKinds[prev.Kind] && prev.Actor == e.Actor {
				s.ResidualKills++
			}
		case battle.EffectHazardDamage:
			s.HazardDamage += e.Amount
		case battle.EffectStatusDamage:
			markStatus(e.Detail, e.Turn)
		case battle.EffectStatus:
			markStatus(e.Detail, e.Turn)
		}
		prev = e
	}

	for status, turns := range statusTurns {
		s.StatusUptime[status] = len(turns)
	}

	return s
}
