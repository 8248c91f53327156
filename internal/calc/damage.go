package calc

import (
	"math"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/conditions"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
)

// CritChance is the flat critical-hit rate.
const CritChance = 0.0625

// rollMultipliers is the canonical 16-point damage spread: 0.85 to
// 1.00 in 0.01 steps. Every damaging move samples one of these.
var rollMultipliers = [16]float64{
	0.85, 0.86, 0.87, 0.88, 0.89, 0.90, 0.91, 0.92,
	0.93, 0.94, 0.95, 0.96, 0.97, 0.98, 0.99, 1.00,
}

// RollCount is the size of the damage distribution.
const RollCount = len(rollMultipliers)

// DamageRolls computes the 16-roll damage distribution of a move from
// attacker to defender, with every deterministic modifier applied.
// A nil-power or status move yields all zeros, as does an immunity.
func DamageRolls(st *battle.BattleState, atkSide int, attacker, defender *battle.Pokemon, m battle.Move) [16]int {
	var rolls [16]int
	if m.Category == battle.CategoryStatus || m.Power <= 0 {
		return rolls
	}

	eff := dex.Effectiveness(m.Type, defender.EffectiveTypes())
	if eff == 0 {
		return rolls
	}

	atk, def := effectiveStats(attacker, defender, m)
	base := math.Floor(math.Floor(2*float64(attacker.Level)/5+2)*float64(m.Power)*atk/def/50) + 2
	mod := damageModifier(st, atkSide, attacker, defender, m) * eff

	for i, r := range rollMultipliers {
		dmg := int(base * mod * r)
		if dmg < 1 {
			dmg = 1
		}
		rolls[i] = dmg
	}
	return rolls
}

// effectiveStats picks the attack and defense stats for the move's
// category, applying boosts. An Unaware defender ignores the
// attacker's offensive stages and an Unaware attacker ignores the
// defender's defensive stages. Body Press attacks with Defense.
func effectiveStats(attacker, defender *battle.Pokemon, m battle.Move) (atk, def float64) {
	atkStages := 0
	defStages := 0

	defUnaware := hasAbility(defender, dex.EffectIgnoreBoosts)
	atkUnaware := hasAbility(attacker, dex.EffectIgnoreBoosts)

	if m.Category == battle.CategoryPhysical {
		if m.Target == "bodypress" {
			atk = float64(attacker.Stats.Def)
			atkStages = attacker.Boosts.Def
		} else {
			atk = float64(attacker.Stats.Atk)
			atkStages = attacker.Boosts.Atk
		}
		def = float64(defender.Stats.Def)
		defStages = defender.Boosts.Def
	} else {
		atk = float64(attacker.Stats.SpA)
		atkStages = attacker.Boosts.SpA
		def = float64(defender.Stats.SpD)
		defStages = defender.Boosts.SpD
	}

	if !defUnaware {
		atk *= battle.StageMultiplier(atkStages)
	}
	if !atkUnaware {
		def *= battle.StageMultiplier(defStages)
	}
	return atk, def
}

func hasAbility(p *battle.Pokemon, kind dex.EffectKind) bool {
	if eff, ok := dex.AbilityEffect(dex.TriggerDamageTaken, p.Ability); ok && eff.Kind == kind {
		return true
	}
	return false
}

// damageModifier folds the non-roll multipliers: STAB, weather,
// terrain, burn, screens, item and ability damage mods.
func damageModifier(st *battle.BattleState, atkSide int, attacker, defender *battle.Pokemon, m battle.Move) float64 {
	mod := 1.0

	mod *= stabMultiplier(attacker, m)

	switch st.Field.Weather.Kind {
	case battle.WeatherSun:
		if m.Type == "Fire" {
			mod *= 1.5
		} else if m.Type == "Water" {
			mod *= 0.5
		}
	case battle.WeatherRain:
		if m.Type == "Water" {
			mod *= 1.5
		} else if m.Type == "Fire" {
			mod *= 0.5
		}
	}

	switch st.Field.Terrain.Kind {
	case battle.TerrainElectric:
		if m.Type == "Electric" && Grounded(attacker) {
			mod *= 1.3
		}
	case battle.TerrainGrassy:
		if m.Type == "Grass" && Grounded(attacker) {
			mod *= 1.3
		}
	case battle.TerrainPsychic:
		if m.Type == "Psychic" && Grounded(attacker) {
			mod *= 1.3
		}
	case battle.TerrainMisty:
		if m.Type == "Dragon" && Grounded(defender) {
			mod *= 0.5
		}
	}

	statused := attacker.Status != battle.StatusNone && attacker.Status != battle.StatusFainted
	guts := false
	if eff, ok := dex.AbilityEffect(dex.TriggerDamageDealt, attacker.Ability); ok && eff.Kind == dex.EffectDamageMod {
		if (eff.Category == "" || eff.Category == m.Category) && (eff.When != "statused" || statused) {
			mod *= eff.Mod
			guts = eff.When == "statused"
		}
	}
	if attacker.Status == battle.StatusBurn && m.Category == battle.CategoryPhysical && !guts {
		mod *= 0.5
	}

	if eff, ok := dex.ItemEffect(dex.TriggerDamageDealt, attacker.Item); ok && eff.Kind == dex.EffectDamageMod {
		if eff.Category == "" || eff.Category == m.Category {
			mod *= eff.Mod
		}
	}

	defSide := &st.Sides[battle.Opposing(atkSide)]
	if conditions.ScreenBlunts(defSide, m.Category, st.Field.Weather.Kind) {
		mod *= 0.5
	}

	return mod
}

// stabMultiplier honors natural types; a terastallized attacker gets
// STAB on its tera type, stacked to 2x when it overlaps a natural
// type.
func stabMultiplier(p *battle.Pokemon, m battle.Move) float64 {
	teraMatch := p.Tera.Used && p.Tera.Type == m.Type
	natural := p.NaturalType(m.Type)
	switch {
	case teraMatch && natural:
		return 2.0
	case teraMatch || natural:
		return 1.5
	}
	return 1.0
}

// accStageMultiplier is the accuracy/evasion stage curve: (3+n)/3 for
// positive stages, 3/(3-n) for negative.
func accStageMultiplier(stage int) float64 {
	if stage > battle.MaxBoost {
		stage = battle.MaxBoost
	}
	if stage < battle.MinBoost {
		stage = battle.MinBoost
	}
	if stage >= 0 {
		return (3 + float64(stage)) / 3
	}
	return 3 / (3 - float64(stage))
}

// perfectInRain moves skip the accuracy check under rain and drop to
// 50% under sun.
var perfectInRain = map[string]bool{"thunder": true, "hurricane": true}

// Accuracy computes the final hit probability in [0,1]. Always-hit
// moves return 1 regardless of evasion.
func Accuracy(st *battle.BattleState, attacker, defender *battle.Pokemon, m battle.Move) float64 {
	if m.AlwaysHits() {
		return 1
	}
	base := float64(m.Accuracy)
	if perfectInRain[m.ID] {
		switch st.Field.Weather.Kind {
		case battle.WeatherRain:
			return 1
		case battle.WeatherSun:
			base = 50
		}
	}

	acc := base / 100
	acc *= accStageMultiplier(attacker.Boosts.Accuracy)
	acc /= accStageMultiplier(defender.Boosts.Evasion)
	if attacker.Status == battle.StatusParalysis {
		acc *= 0.8
	}

	if acc < 0 {
		return 0
	}
	if acc > 1 {
		return 1
	}
	return acc
}
