package convert

import (
	"encoding/json"
	"fmt"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/model"
)

// FormatFromModel rebuilds a dex.Format from its stored Rules document
func FormatFromModel(m model.Format) (dex.Format, error) {
	var f dex.Format
	if len(m.Rules) > 0 {
		if err := json.Unmarshal(m.Rules, &f); err != nil {
			return dex.Format{}, fmt.Errorf("unmarshal format rules: %w", err)
		}
	}
	if f.Name == "" {
		f.Name = m.Name
	}
	return f, nil
}

// TeamsFromModel deserializes both sides' team specs from a battles row
func TeamsFromModel(m model.Battle) ([2][]dex.PokemonSpec, error) {
	var teams [2][]dex.PokemonSpec
	if len(m.TeamP1) > 0 {
		if err := json.Unmarshal(m.TeamP1, &teams[0]); err != nil {
			return teams, fmt.Errorf("unmarshal p1 team: %w", err)
		}
	}
	if len(m.TeamP2) > 0 {
		if err := json.Unmarshal(m.TeamP2, &teams[1]); err != nil {
			return teams, fmt.Errorf("unmarshal p2 team: %w", err)
		}
	}
	return teams, nil
}

// TurnFromModel rebuilds the submitted actions and the post-turn state
// snapshot from a turn_records row
func TurnFromModel(m model.TurnRecord) (actions [2]battle.Action, st battle.BattleState, err error) {
	if len(m.ActionP1) > 0 {
		if err = json.Unmarshal(m.ActionP1, &actions[0]); err != nil {
			return actions, st, fmt.Errorf("unmarshal p1 action: %w", err)
		}
	}
	if len(m.ActionP2) > 0 {
		if err = json.Unmarshal(m.ActionP2, &actions[1]); err != nil {
			return actions, st, fmt.Errorf("unmarshal p2 action: %w", err)
		}
	}
	if len(m.State) > 0 {
		if err = json.Unmarshal(m.State, &st); err != nil {
			return actions, st, fmt.Errorf("unmarshal turn state: %w", err)
		}
	}
	return actions, st, nil
}

// EffectFromModel converts an effect_records row back to a battle.Effect
func EffectFromModel(m model.EffectRecord) battle.Effect {
	return battle.Effect{
		Turn:   int(m.Turn),
		Side:   int(m.Side),
		Kind:   m.Kind,
		Move:   m.Move,
		Actor:  m.Actor,
		Target: m.Target,
		Amount: m.Amount,
		Stat:   m.Stat,
		Stages: int(m.Stages),
		Detail: m.Detail,
	}
}
