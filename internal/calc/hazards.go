package calc

import (
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
)

// HazardImpact is what entry hazards would do to a Pokémon switching
// in on the given side.
type HazardImpact struct {
	// DamageFraction is the total chip as a fraction of max HP.
	DamageFraction float64 `json:"damageFraction"`
	// InflictStatus is the poison variant toxic spikes would apply.
	InflictStatus battle.Status `json:"inflictStatus,omitempty"`
	// SpeedDrop reports a sticky web speed stage drop.
	SpeedDrop bool `json:"speedDrop,omitempty"`
	// AbsorbsToxicSpikes reports a grounded Poison-type clearing the
	// layers instead of being poisoned.
	AbsorbsToxicSpikes bool `json:"absorbsToxicSpikes,omitempty"`
}

// spikesFraction by layer count.
var spikesFraction = [4]float64{0, 1.0 / 8.0, 1.0 / 6.0, 1.0 / 4.0}

// Grounded reports whether entry hazards on the floor affect the
// Pokémon. Flying types and Levitate holders float over them.
func Grounded(p *battle.Pokemon) bool {
	if p.HasType("Flying") {
		return false
	}
	if eff, ok := dex.AbilityEffect(dex.TriggerHazard, p.Ability); ok && eff.Kind == dex.EffectGroundImmune {
		return false
	}
	return true
}

// HazardCost computes the switch-in impact of the hazards on a side.
// Stealth Rock deals 12.5% scaled by Rock effectiveness against the
// incoming typing; spikes deal 12.5/16.7/25% by layer to grounded
// targets; toxic spikes poison grounded non-Poison targets. Heavy-Duty
// Boots ignore everything.
func HazardCost(p *battle.Pokemon, h battle.Hazards) HazardImpact {
	if !h.Any() {
		return HazardImpact{}
	}
	if eff, ok := dex.ItemEffect(dex.TriggerHazard, p.Item); ok && eff.Kind == dex.EffectHazardImmune {
		return HazardImpact{}
	}

	var impact HazardImpact
	if h.StealthRock {
		impact.DamageFraction += 0.125 * dex.Effectiveness("Rock", p.EffectiveTypes())
	}
	if Grounded(p) {
		impact.DamageFraction += spikesFraction[h.Spikes]
		if h.ToxicSpikes > 0 {
			if p.HasType("Poison") {
				impact.AbsorbsToxicSpikes = true
			} else if p.Status == battle.StatusNone {
				if h.ToxicSpikes >= 2 {
					impact.InflictStatus = battle.StatusToxic
				} else {
					impact.InflictStatus = battle.StatusPoison
				}
			}
		}
		if h.StickyWeb {
			impact.SpeedDrop = true
		}
	}
	return impact
}
