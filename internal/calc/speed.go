package calc

import (
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
)

// SpeedCheck compares two combatants' effective speed. Faster is
// always consistent with the sign of SpeedDiff; a zero diff is a tie
// that the resolution engine settles with a random draw.
type SpeedCheck struct {
	Faster    bool `json:"faster"`
	SpeedDiff int  `json:"speedDiff"`
}

// EffectiveSpeed is the speed used for turn ordering: base stat with
// boosts applied, halved by paralysis, doubled under tailwind, then
// item and ability modifiers.
func EffectiveSpeed(p *battle.Pokemon, side *battle.Side, weather battle.WeatherKind) int {
	spe := float64(p.Stats.Spe) * battle.StageMultiplier(p.Boosts.Spe)
	if p.Status == battle.StatusParalysis {
		spe *= 0.5
	}
	if side != nil && side.Conditions.Tailwind > 0 {
		spe *= 2
	}
	if eff, ok := dex.ItemEffect(dex.TriggerSpeed, p.Item); ok && eff.Kind == dex.EffectSpeedMod {
		spe *= eff.Mod
	}
	if eff, ok := dex.AbilityEffect(dex.TriggerSpeed, p.Ability); ok && eff.Kind == dex.EffectSpeedMod {
		if eff.When == "" || eff.When == string(weather) {
			spe *= eff.Mod
		}
	}
	return int(spe)
}

// trickRoomActive reports whether either side has a live Trick Room
// counter. The effect is field-wide even though it is stored on the
// side that set it.
func trickRoomActive(st *battle.BattleState) bool {
	return st.Sides[0].Conditions.TrickRoom > 0 || st.Sides[1].Conditions.TrickRoom > 0
}

// CompareSpeed runs the ordering comparison for the Pokémon on side
// against the opposing active. Trick Room inverts the comparison but
// leaves exact ties as ties.
func CompareSpeed(st *battle.BattleState, side int, p *battle.Pokemon) SpeedCheck {
	opp := st.Sides[battle.Opposing(side)].Active()
	if p == nil || opp == nil {
		return SpeedCheck{}
	}
	mine := EffectiveSpeed(p, &st.Sides[side], st.Field.Weather.Kind)
	theirs := EffectiveSpeed(opp, &st.Sides[battle.Opposing(side)], st.Field.Weather.Kind)
	diff := mine - theirs
	if trickRoomActive(st) {
		diff = -diff
	}
	return SpeedCheck{Faster: diff > 0, SpeedDiff: diff}
}
