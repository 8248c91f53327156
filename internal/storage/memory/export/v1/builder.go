package v1

import (
	"time"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"
)

// BattleData contains all the data needed to build a replay
type BattleData struct {
	Info    core.BattleInfo
	Turns   []core.TurnInfo
	Effects []core.EffectInfo
	Summary *core.SummaryInfo
	Result  *core.BattleResult
}

// Build creates a Replay from the recorded battle data
func Build(data *BattleData) Replay {
	replay := Replay{
		FormatVersion: 1,
		EngineVersion: "1.0.0",
		Format:        data.Info.Format.Name,
		FormatHash:    data.Info.Format.Hash(),
		Seed:          data.Info.Seed,
		Tag:           data.Info.Tag,
		StartTime:     data.Info.StartTime.UTC().Format(time.RFC3339),
		Turns:         make([]Turn, 0, len(data.Turns)),
		Timeline:      make([][]any, 0, len(data.Effects)),
	}

	for side := 0; side < 2; side++ {
		replay.Teams[side] = make([]TeamSlot, 0, len(data.Info.Teams[side]))
		for _, spec := range data.Info.Teams[side] {
			replay.Teams[side] = append(replay.Teams[side], specToSlot(spec))
		}
	}

	for _, turn := range data.Turns {
		replay.Turns = append(replay.Turns, Turn{
			Turn: turn.Turn,
			Actions: [2]string{
				turn.Actions[0].String(),
				turn.Actions[1].String(),
			},
			State: turn.State,
		})
	}

	// Timeline rows: [turn, seq, side, kind, actor, target, move, amount, detail]
	for _, e := range data.Effects {
		replay.Timeline = append(replay.Timeline, []any{
			e.Effect.Turn,
			e.Seq,
			e.Effect.Side,
			e.Effect.Kind,
			e.Effect.Actor,
			e.Effect.Target,
			e.Effect.Move,
			e.Effect.Amount,
			e.Effect.Detail,
		})
	}

	if data.Summary != nil {
		replay.Summary = data.Summary
	}

	if data.Result != nil {
		replay.Winner = data.Result.Winner
		replay.TurnCount = data.Result.Turns
		replay.EndTime = data.Result.EndTime.UTC().Format(time.RFC3339)
	}

	return replay
}

func specToSlot(spec dex.PokemonSpec) TeamSlot {
	moves := spec.Moves
	if moves == nil {
		moves = []string{}
	}
	return TeamSlot{
		Species:  spec.Species,
		Level:    spec.Level,
		Ability:  spec.Ability,
		Item:     spec.Item,
		TeraType: spec.TeraType,
		Moves:    moves,
	}
}
