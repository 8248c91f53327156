// Package calc is the damage and outcome calculator: a pure function
// layer over BattleState. It never mutates state and never touches a
// random source; probabilistic outcomes are reported as distributions
// and probabilities for the caller to sample or rank.
package calc

import (
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
)

// Damage summarizes a damage distribution as percentages of the
// defender's max HP.
type Damage struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// Beliefs is the read-only opponent model passed into evaluation. It
// is owned and mutated by the external policy layer; the calculator
// only consults it. A nil Beliefs means "no information".
type Beliefs struct {
	// Items maps species id to the item the policy suspects it holds,
	// consulted when the real item is not yet revealed.
	Items map[string]string `json:"items,omitempty"`
}

func (b *Beliefs) suspectedItem(species string) string {
	if b == nil {
		return ""
	}
	return b.Items[species]
}

// Result is one evaluated candidate action. A zero-valued Result with
// OK == false marks an uncomputable action (unknown move, missing
// active); callers must never select those.
type Result struct {
	OK     bool          `json:"ok"`
	Err    string        `json:"err,omitempty"`
	Action battle.Action `json:"action"`

	Damage     Damage        `json:"damage"`
	Rolls      [16]int       `json:"rolls"`
	OHKO       float64       `json:"ohko"`
	TwoHKO     float64       `json:"twoHko"`
	Accuracy   float64       `json:"accuracy"`
	CritChance float64       `json:"critChance"`
	Priority   int           `json:"priority"`
	Speed      SpeedCheck    `json:"speed"`

	// HazardCost is the switch-in chip as a percentage of the
	// incoming Pokémon's max HP.
	HazardCost float64 `json:"hazardCost"`
	// ExpectedGain is the expected HP-percentage swing in the acting
	// side's favor: expected damage dealt minus expected retaliation.
	ExpectedGain float64 `json:"expectedGain"`
}

func errResult(a battle.Action, err error) Result {
	return Result{Action: a, Err: err.Error()}
}

// Evaluate scores one candidate action for the given side. It is pure:
// the state is read, never written, and the same inputs always produce
// the same Result.
func Evaluate(st *battle.BattleState, side int, a battle.Action, beliefs *Beliefs) Result {
	if side < 0 || side > 1 {
		return errResult(a, battle.ErrInvalidAction)
	}
	attacker := st.Sides[side].Active()
	defender := st.Sides[battle.Opposing(side)].Active()
	if attacker == nil || defender == nil || attacker.Fainted() {
		return errResult(a, battle.ErrMissingEntity)
	}

	switch a.Type {
	case battle.ActionMove:
		return evalMove(st, side, attacker, defender, a, beliefs, false)
	case battle.ActionTera:
		if !attacker.Tera.Available || attacker.Tera.Used {
			return errResult(a, battle.ErrInvalidAction)
		}
		return evalMove(st, side, attacker, defender, a, beliefs, true)
	case battle.ActionSwitch:
		return evalSwitch(st, side, a, beliefs)
	case battle.ActionPass:
		return Result{OK: true, Action: a}
	case battle.ActionMega, battle.ActionZMove, battle.ActionDynamax:
		return errResult(a, battle.ErrInvalidAction)
	}
	return errResult(a, battle.ErrInvalidAction)
}

// EvaluateAll scores a batch of candidates. Uncomputable entries
// degrade to zero-valued error results; the batch never aborts.
func EvaluateAll(st *battle.BattleState, side int, actions []battle.Action, beliefs *Beliefs) []Result {
	results := make([]Result, len(actions))
	for i, a := range actions {
		results[i] = Evaluate(st, side, a, beliefs)
	}
	return results
}

func evalMove(st *battle.BattleState, side int, attacker, defender *battle.Pokemon, a battle.Action, beliefs *Beliefs, tera bool) Result {
	var m battle.Move
	if a.MoveID == battle.Struggle.ID {
		m = battle.Struggle
	} else {
		slot := attacker.MoveSlotByID(a.MoveID)
		if slot == nil {
			return errResult(a, battle.ErrInvalidAction)
		}
		m = slot.Move
	}

	atk := attacker
	if tera {
		// Model the type change for this evaluation only.
		cp := attacker.Clone()
		cp.Tera.Used = true
		cp.Tera.Available = false
		if a.TeraType != "" {
			cp.Tera.Type = a.TeraType
		}
		atk = &cp
	}
	def := defender
	if item := beliefs.suspectedItem(defender.Species); item != "" && defender.Item == "" {
		cp := defender.Clone()
		cp.Item = item
		def = &cp
	}

	rolls := DamageRolls(st, side, atk, def, m)
	res := Result{
		OK:         true,
		Action:     a,
		Rolls:      rolls,
		Accuracy:   Accuracy(st, atk, def, m),
		CritChance: CritChance,
		Priority:   m.Priority,
		Speed:      CompareSpeed(st, side, atk),
	}
	if m.Category == battle.CategoryStatus {
		res.CritChance = 0
	}

	res.Damage = summarize(rolls, def.MaxHP)
	res.OHKO, res.TwoHKO = koProbabilities(rolls, def.HP)
	if res.OHKO > 0 && survivesLethal(def) {
		res.OHKO = 0
	}
	res.ExpectedGain = res.Accuracy*res.Damage.Average - expectedRetaliation(st, side, atk, beliefs)
	return res
}

func evalSwitch(st *battle.BattleState, side int, a battle.Action, beliefs *Beliefs) Result {
	s := &st.Sides[side]
	if a.SwitchTo < 0 || a.SwitchTo >= len(s.Team) || a.SwitchTo == s.ActiveIndex {
		return errResult(a, battle.ErrInvalidAction)
	}
	incoming := &s.Team[a.SwitchTo]
	if incoming.Fainted() {
		return errResult(a, battle.ErrInvalidAction)
	}

	impact := HazardCost(incoming, s.Hazards)
	res := Result{
		OK:         true,
		Action:     a,
		Accuracy:   1,
		HazardCost: impact.DamageFraction * 100,
		Speed:      CompareSpeed(st, side, incoming),
	}
	res.ExpectedGain = -res.HazardCost - expectedRetaliation(st, side, incoming, beliefs)
	return res
}

// summarize turns a roll distribution into min/max/average percentages
// of the defender's max HP.
func summarize(rolls [16]int, maxHP int) Damage {
	if maxHP <= 0 {
		return Damage{}
	}
	min, max, sum := rolls[0], rolls[0], 0
	for _, r := range rolls {
		if r < min {
			min = r
		}
		if r > max {
			max = r
		}
		sum += r
	}
	scale := 100 / float64(maxHP)
	return Damage{
		Min:     float64(min) * scale,
		Max:     float64(max) * scale,
		Average: float64(sum) / float64(len(rolls)) * scale,
	}
}

// survivesLethal reports whether the defender holds on at 1 HP from
// full against a single hit (Sturdy, Focus Sash).
func survivesLethal(def *battle.Pokemon) bool {
	if def.HP != def.MaxHP {
		return false
	}
	if eff, ok := dex.AbilityEffect(dex.TriggerLethal, def.Ability); ok && eff.Kind == dex.EffectSurviveOHKO {
		return true
	}
	if eff, ok := dex.ItemEffect(dex.TriggerLethal, def.Item); ok && eff.Kind == dex.EffectSurviveOHKO {
		return true
	}
	return false
}

// koProbabilities returns the fraction of rolls that KO outright and
// the fraction that KO in two hits of the same roll.
func koProbabilities(rolls [16]int, hp int) (ohko, twoHKO float64) {
	if hp <= 0 {
		return 0, 0
	}
	var one, two int
	for _, r := range rolls {
		if r >= hp {
			one++
		}
		if 2*r >= hp {
			two++
		}
	}
	n := float64(len(rolls))
	return float64(one) / n, float64(two) / n
}

// expectedRetaliation estimates the best average percentage hit the
// opposing active can land on target next turn, weighting each move by
// its accuracy. Suspected moves from the belief model are not looked
// up here; only revealed movesets count.
func expectedRetaliation(st *battle.BattleState, side int, target *battle.Pokemon, beliefs *Beliefs) float64 {
	oppActive := st.Sides[battle.Opposing(side)].Active()
	if oppActive == nil || oppActive.Fainted() || target.MaxHP <= 0 {
		return 0
	}
	o := oppActive
	if item := beliefs.suspectedItem(o.Species); item != "" && o.Item == "" {
		cp := o.Clone()
		cp.Item = item
		o = &cp
	}
	best := 0.0
	for _, slot := range o.Moves {
		if slot.PP <= 0 || slot.Move.Category == battle.CategoryStatus {
			continue
		}
		rolls := DamageRolls(st, battle.Opposing(side), o, target, slot.Move)
		d := summarize(rolls, target.MaxHP)
		score := d.Average * Accuracy(st, o, target, slot.Move)
		if score > best {
			best = score
		}
	}
	return best
}
