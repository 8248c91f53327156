// Package conditions owns the transition rules for status conditions,
// volatile conditions, screens, hazards, weather and terrain. The
// engine calls into it before each action (can-this-Pokémon-act gates)
// and once at end of turn (ticks and countdowns).
package conditions

import (
	"fmt"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/rng"
)

// Per-turn status probabilities.
const (
	WakeChance    = 33 // percent
	ThawChance    = 20
	ParalysisSkip = 25
	ConfusionSelf = 33
)

// ActGate is the outcome of the pre-action status check.
type ActGate struct {
	CanAct  bool
	Reason  string // status or volatile that blocked the action
	SelfHit bool   // confusion self-hit instead of the chosen move
	Cured   bool   // woke up or thawed this turn
}

// CheckCanAct rolls the status and volatile gates for a Pokémon about
// to execute a move. It mutates the Pokémon: waking clears sleep,
// thawing clears freeze, a spent recharge clears the volatile.
func CheckCanAct(p *battle.Pokemon, r *rng.RNG) ActGate {
	if _, ok := p.Volatile(battle.VolatileRecharging); ok {
		p.RemoveVolatile(battle.VolatileRecharging)
		return ActGate{Reason: battle.VolatileRecharging}
	}

	switch p.Status {
	case battle.StatusSleep:
		p.StatusTurns++
		if r.Chance(WakeChance) {
			p.Status = battle.StatusNone
			p.StatusTurns = 0
			return checkConfusion(p, r, ActGate{CanAct: true, Cured: true})
		}
		return ActGate{Reason: string(battle.StatusSleep)}
	case battle.StatusFreeze:
		if r.Chance(ThawChance) {
			p.Status = battle.StatusNone
			return checkConfusion(p, r, ActGate{CanAct: true, Cured: true})
		}
		return ActGate{Reason: string(battle.StatusFreeze)}
	case battle.StatusParalysis:
		if r.Chance(ParalysisSkip) {
			return ActGate{Reason: string(battle.StatusParalysis)}
		}
	}

	return checkConfusion(p, r, ActGate{CanAct: true})
}

func checkConfusion(p *battle.Pokemon, r *rng.RNG, gate ActGate) ActGate {
	if _, ok := p.Volatile(battle.VolatileConfusion); !ok {
		return gate
	}
	if r.Chance(ConfusionSelf) {
		return ActGate{SelfHit: true, Reason: battle.VolatileConfusion, Cured: gate.Cured}
	}
	return gate
}

// ConfusionDamage is the fixed-formula self-hit: a typeless 40-power
// physical strike using the Pokémon's own attack against its own
// defense, no STAB, no modifiers, no random roll.
func ConfusionDamage(p *battle.Pokemon) int {
	atk := float64(p.Stats.Atk) * battle.StageMultiplier(p.Boosts.Atk)
	def := float64(p.Stats.Def) * battle.StageMultiplier(p.Boosts.Def)
	dmg := ((2*float64(p.Level)/5+2)*40*atk/def)/50 + 2
	if dmg < 1 {
		return 1
	}
	return int(dmg)
}

// ThawOnFireHit clears freeze when the holder is hit by a Fire move.
func ThawOnFireHit(p *battle.Pokemon) bool {
	if p.Status != battle.StatusFreeze {
		return false
	}
	p.Status = battle.StatusNone
	return true
}

// MoveBlocked reports whether a volatile condition forbids selecting
// the given move, with the blocking condition as the reason.
func MoveBlocked(p *battle.Pokemon, m battle.Move) (string, bool) {
	if v, ok := p.Volatile(battle.VolatileTaunt); ok && m.Category == battle.CategoryStatus {
		return v.Kind, true
	}
	if v, ok := p.Volatile(battle.VolatileDisable); ok && v.Data == m.ID {
		return v.Kind, true
	}
	if v, ok := p.Volatile(battle.VolatileEncore); ok && v.Data != "" && v.Data != m.ID {
		return v.Kind, true
	}
	if v, ok := p.Volatile(battle.VolatileChoiceLock); ok && v.Data != "" && v.Data != m.ID {
		return v.Kind, true
	}
	return "", false
}

// ScreenBlunts reports whether the defending side has a screen active
// against the given move category. Aurora Veil only works while snow
// is up; the check happens at the moment of use, the screen is not
// cleared when its weather ends.
func ScreenBlunts(side *battle.Side, cat battle.MoveCategory, weather battle.WeatherKind) bool {
	if side.Screens.AuroraVeil > 0 && weather == battle.WeatherSnow {
		return true
	}
	switch cat {
	case battle.CategoryPhysical:
		return side.Screens.Reflect > 0
	case battle.CategorySpecial:
		return side.Screens.LightScreen > 0
	}
	return false
}

// sandImmune types take no sandstorm chip.
var sandImmune = map[string]bool{"Rock": true, "Ground": true, "Steel": true}

// EndOfTurn applies every end-of-turn effect in the fixed category
// order weather → status → items, then ticks countdown timers. Sides
// are processed p1 first, then p2, inside each category.
func EndOfTurn(st *battle.BattleState, r *rng.RNG) {
	tickWeatherAndTerrain(st)
	for i := range st.Sides {
		statusTick(st, i)
	}
	for i := range st.Sides {
		itemTick(st, i)
	}
	for i := range st.Sides {
		tickVolatiles(st, i)
		tickSideCounters(&st.Sides[i])
	}
}

func tickWeatherAndTerrain(st *battle.BattleState) {
	w := &st.Field.Weather
	if w.Kind != battle.WeatherNone {
		for i := range st.Sides {
			p := st.Sides[i].Active()
			if p == nil || p.Fainted() {
				continue
			}
			chip := 0
			switch w.Kind {
			case battle.WeatherSand:
				if !anyType(p.EffectiveTypes(), sandImmune) {
					chip = p.MaxHP / 16
				}
			case battle.WeatherSnow:
				if !p.HasType("Ice") {
					chip = p.MaxHP / 16
				}
			}
			if chip > 0 {
				dealt := p.ApplyDamage(chip)
				logEffect(st, i, battle.EffectWeatherChip, battle.Effect{
					Actor:  p.Species,
					Amount: dealt,
					Detail: string(w.Kind),
				})
				logFaintIfNeeded(st, i, p)
			}
		}
		if !w.Permanent {
			w.Turns--
			if w.Turns <= 0 {
				logEffect(st, -1, battle.EffectWeather, battle.Effect{Detail: fmt.Sprintf("%s ended", w.Kind)})
				st.Field.Weather = battle.Weather{}
			}
		}
	}

	t := &st.Field.Terrain
	if t.Kind != battle.TerrainNone {
		t.Turns--
		if t.Turns <= 0 {
			logEffect(st, -1, battle.EffectTerrain, battle.Effect{Detail: fmt.Sprintf("%s ended", t.Kind)})
			st.Field.Terrain = battle.Terrain{}
		}
	}
}

func statusTick(st *battle.BattleState, side int) {
	p := st.Sides[side].Active()
	if p == nil || p.Fainted() {
		return
	}

	chip := 0
	status := string(p.Status)
	switch p.Status {
	case battle.StatusBurn:
		chip = p.MaxHP / 8
	case battle.StatusPoison:
		chip = p.MaxHP / 8
	case battle.StatusToxic:
		p.StatusTurns++
		chip = p.MaxHP * p.StatusTurns / 8
	}
	if chip > 0 {
		dealt := p.ApplyDamage(chip)
		logEffect(st, side, battle.EffectStatusDamage, battle.Effect{
			Actor:  p.Species,
			Amount: dealt,
			Detail: status,
		})
		logFaintIfNeeded(st, side, p)
		if p.Fainted() {
			return
		}
	}

	if _, ok := p.Volatile(battle.VolatileLeechSeed); ok {
		drain := p.MaxHP / 8
		dealt := p.ApplyDamage(drain)
		logEffect(st, side, battle.EffectStatusDamage, battle.Effect{
			Actor:  p.Species,
			Amount: dealt,
			Detail: battle.VolatileLeechSeed,
		})
		logFaintIfNeeded(st, side, p)
		if other := st.Sides[battle.Opposing(side)].Active(); other != nil && dealt > 0 {
			healed := other.Heal(dealt)
			if healed > 0 {
				logEffect(st, battle.Opposing(side), battle.EffectHeal, battle.Effect{
					Actor:  other.Species,
					Amount: healed,
					Detail: battle.VolatileLeechSeed,
				})
			}
		}
	}
}

func itemTick(st *battle.BattleState, side int) {
	p := st.Sides[side].Active()
	if p == nil || p.Fainted() || p.Item == "" {
		return
	}
	eff, ok := dex.ItemEffect(dex.TriggerEndOfTurn, p.Item)
	if !ok {
		return
	}
	switch eff.Kind {
	case dex.EffectHeal:
		if eff.When != "" && !p.HasType(eff.When) {
			// Black Sludge punishes non-Poison holders.
			dealt := p.ApplyDamage(p.MaxHP / 8)
			logEffect(st, side, battle.EffectItem, battle.Effect{
				Actor:  p.Species,
				Amount: -dealt,
				Detail: p.Item,
			})
			logFaintIfNeeded(st, side, p)
			return
		}
		healed := p.Heal(int(float64(p.MaxHP) * eff.Fraction))
		if healed > 0 {
			logEffect(st, side, battle.EffectItem, battle.Effect{
				Actor:  p.Species,
				Amount: healed,
				Detail: p.Item,
			})
		}
	}
}

func tickVolatiles(st *battle.BattleState, side int) {
	p := st.Sides[side].Active()
	if p == nil || p.Fainted() {
		return
	}

	// Protect only guards the turn it was used.
	p.RemoveVolatile(battle.VolatileProtect)

	var expired []string
	for i := range p.Volatiles {
		v := &p.Volatiles[i]
		if v.Turns <= 0 {
			continue // no countdown
		}
		v.Turns--
		if v.Turns == 0 {
			expired = append(expired, v.Kind)
		}
	}
	for _, kind := range expired {
		if kind == battle.VolatilePerishSong {
			dealt := p.ApplyDamage(p.HP)
			logEffect(st, side, battle.EffectVolatile, battle.Effect{
				Actor:  p.Species,
				Amount: dealt,
				Detail: battle.VolatilePerishSong,
			})
			logFaintIfNeeded(st, side, p)
		} else {
			logEffect(st, side, battle.EffectVolatile, battle.Effect{
				Actor:  p.Species,
				Detail: fmt.Sprintf("%s ended", kind),
			})
		}
		p.RemoveVolatile(kind)
	}
}

func tickSideCounters(s *battle.Side) {
	if s.Screens.Reflect > 0 {
		s.Screens.Reflect--
	}
	if s.Screens.LightScreen > 0 {
		s.Screens.LightScreen--
	}
	if s.Screens.AuroraVeil > 0 {
		s.Screens.AuroraVeil--
	}
	if s.Conditions.Tailwind > 0 {
		s.Conditions.Tailwind--
	}
	if s.Conditions.TrickRoom > 0 {
		s.Conditions.TrickRoom--
	}
	if s.Conditions.Gravity > 0 {
		s.Conditions.Gravity--
	}
	if s.Conditions.WonderRoom > 0 {
		s.Conditions.WonderRoom--
	}
	if s.Conditions.MagicRoom > 0 {
		s.Conditions.MagicRoom--
	}
}

func anyType(types []string, set map[string]bool) bool {
	for _, t := range types {
		if set[t] {
			return true
		}
	}
	return false
}

func logEffect(st *battle.BattleState, side int, kind string, e battle.Effect) {
	e.Turn = st.Turn
	e.Side = side
	e.Kind = kind
	st.Log = append(st.Log, e)
}

func logFaintIfNeeded(st *battle.BattleState, side int, p *battle.Pokemon) {
	if p.Fainted() {
		logEffect(st, side, battle.EffectFaint, battle.Effect{Actor: p.Species})
	}
}
