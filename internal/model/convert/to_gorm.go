// Package convert provides functions to convert between GORM models and engine types
package convert

import (
	"encoding/json"
	"time"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/calc"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/model"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"
	"gorm.io/datatypes"
)

// toJSON marshals v to datatypes.JSON for DB storage, falling back to
// the given literal on error.
func toJSON(v interface{}, fallback string) datatypes.JSON {
	if v == nil {
		return datatypes.JSON(fallback)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON(fallback)
	}
	return datatypes.JSON(data)
}

// FormatToModel converts a dex.Format to a GORM model.Format.
// The full ruleset (banlists included) is serialized into Rules.
func FormatToModel(f dex.Format) model.Format {
	return model.Format{
		Name:        f.Name,
		Version:     f.Version,
		DexVersion:  f.DexVersion,
		Hash:        f.Hash(),
		TeraAllowed: f.TeraAllowed,
		SleepClause: f.SleepClause,
		TeamSize:    uint8(f.TeamSize),
		Rules:       toJSON(f, "{}"),
	}
}

// BattleToModel builds the battles row for a new battle. The caller is
// responsible for resolving FormatID before insert.
func BattleToModel(externalID string, seed int64, teams [2][]dex.PokemonSpec, start time.Time) model.Battle {
	return model.Battle{
		ExternalID: externalID,
		Seed:       seed,
		StartTime:  start,
		TeamP1:     toJSON(teams[0], "[]"),
		TeamP2:     toJSON(teams[1], "[]"),
	}
}

// TurnToModel converts a resolved turn to a GORM model.TurnRecord.
// st is the post-resolution state; actions are what each side submitted.
func TurnToModel(battleID uint, turn int, actions [2]battle.Action, st *battle.BattleState) model.TurnRecord {
	return model.TurnRecord{
		Time:     time.Now(),
		BattleID: battleID,
		Turn:     uint16(turn),
		ActionP1: toJSON(actions[0], "{}"),
		ActionP2: toJSON(actions[1], "{}"),
		State:    toJSON(st, "{}"),
	}
}

// EffectToModel converts one effect-log entry to a GORM model.EffectRecord
func EffectToModel(battleID uint, seq int, e battle.Effect) model.EffectRecord {
	return model.EffectRecord{
		Time:     time.Now(),
		BattleID: battleID,
		Turn:     uint16(e.Turn),
		Seq:      uint16(seq),
		Kind:     e.Kind,
		Side:     int8(e.Side),
		Actor:    e.Actor,
		Target:   e.Target,
		Move:     e.Move,
		Amount:   e.Amount,
		Stat:     e.Stat,
		Stages:   int8(e.Stages),
		Detail:   e.Detail,
	}
}

// SummaryToModel converts a battle aggregate to a GORM model.BattleSummary
func SummaryToModel(battleID uint, s *core.SummaryInfo) model.BattleSummary {
	return model.BattleSummary{
		BattleID:      battleID,
		Winner:        s.Winner,
		TurnCount:     uint16(s.TurnCount),
		DamageP1:      s.DamageP1,
		DamageP2:      s.DamageP2,
		FaintsP1:      uint8(s.FaintsP1),
		FaintsP2:      uint8(s.FaintsP2),
		MoveUsage:     toJSON(s.MoveUsage, "{}"),
		StatusUptime:  toJSON(s.StatusUptime, "{}"),
		HazardDamage:  s.HazardDamage,
		ResidualKills: uint8(s.ResidualKills),
	}
}

// CalcToModel converts a pre-turn evaluation to a GORM model.CalcRecord
func CalcToModel(battleID uint, turn, side int, res calc.Result, chosen bool) model.CalcRecord {
	return model.CalcRecord{
		Time:         time.Now(),
		BattleID:     battleID,
		Turn:         uint16(turn),
		Side:         uint8(side),
		Action:       toJSON(res.Action, "{}"),
		Result:       toJSON(res, "{}"),
		ExpectedGain: res.ExpectedGain,
		Chosen:       chosen,
	}
}
