package engine

import (
	"fmt"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/calc"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/conditions"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/rng"
)

// resolutionPhase tracks where a turn is inside the resolution state
// machine. It only exists during one Advance call; the persisted state
// carries battle.Phase.
type resolutionPhase int

const (
	phaseQueued resolutionPhase = iota
	phasePrioritySorted
	phaseResolving
	phaseEndOfTurn
	phaseAdvanced
)

// Durations for timed effects, in turns.
const (
	weatherTurns   = 5
	terrainTurns   = 5
	screenTurns    = 5
	tailwindTurns  = 4
	trickRoomTurns = 5
	tauntTurns     = 3
	encoreTurns    = 3
	disableTurns   = 4
)

// queued is one side's chosen action waiting its turn.
type queued struct {
	side   int
	action battle.Action
}

// resolver runs one turn to completion on a working copy of the state.
type resolver struct {
	st     *battle.BattleState
	r      *rng.RNG
	format dex.Format
	phase  resolutionPhase
}

// turnRNG derives the random source for one turn. The battle seed and
// turn number fully determine every roll, so replaying a battle from
// its log reproduces it exactly.
func turnRNG(st *battle.BattleState) *rng.RNG {
	return rng.New(st.Seed + int64(st.Turn)*0x9E3779B9)
}

// resolveTurn applies both chosen actions and the end-of-turn ticks,
// returning the advanced state. Invalid actions are fatal here, unlike
// evaluation: a bad action would corrupt the log's replay guarantees.
func resolveTurn(st *battle.BattleState, actions [2]battle.Action, f dex.Format) (*battle.BattleState, error) {
	if st.Finished() {
		return nil, fmt.Errorf("battle already finished: %w", battle.ErrInvalidAction)
	}
	next := st.Clone()
	res := &resolver{st: next, r: turnRNG(next), format: f, phase: phaseQueued}

	queue, err := res.validate(actions)
	if err != nil {
		return nil, err
	}

	res.sortQueue(queue)
	res.phase = phaseResolving
	for _, q := range queue {
		res.execute(q)
		if res.checkEnd() {
			break
		}
	}

	if !next.Finished() {
		res.phase = phaseEndOfTurn
		conditions.EndOfTurn(next, res.r)
		res.checkEnd()
	}

	next.LastActions = actions
	next.Turn++
	res.phase = phaseAdvanced

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// validate rejects structurally invalid actions up front.
func (res *resolver) validate(actions [2]battle.Action) ([]queued, error) {
	queue := make([]queued, 0, 2)
	for side, a := range actions {
		s := &res.st.Sides[side]
		active := s.Active()
		if active == nil {
			return nil, fmt.Errorf("side %s: %w", s.ID, battle.ErrMissingEntity)
		}
		switch a.Type {
		case battle.ActionMove, battle.ActionTera:
			if a.MoveID != battle.Struggle.ID && active.MoveSlotByID(a.MoveID) == nil {
				return nil, fmt.Errorf("side %s move %q: %w", s.ID, a.MoveID, battle.ErrInvalidAction)
			}
			if a.Type == battle.ActionTera && (!active.Tera.Available || active.Tera.Used) {
				return nil, fmt.Errorf("side %s tera: %w", s.ID, battle.ErrInvalidAction)
			}
		case battle.ActionSwitch:
			if a.SwitchTo < 0 || a.SwitchTo >= len(s.Team) || a.SwitchTo == s.ActiveIndex {
				return nil, fmt.Errorf("side %s switch to %d: %w", s.ID, a.SwitchTo, battle.ErrInvalidAction)
			}
			if s.Team[a.SwitchTo].Fainted() {
				return nil, fmt.Errorf("side %s switch to fainted slot %d: %w", s.ID, a.SwitchTo, battle.ErrInvalidAction)
			}
		case battle.ActionPass:
		default:
			return nil, fmt.Errorf("side %s action %s: %w", s.ID, a.Type, battle.ErrInvalidAction)
		}
		queue = append(queue, queued{side: side, action: a})
	}
	return queue, nil
}

// sortQueue orders the two actions: switches before moves, then move
// priority, then effective speed with Trick Room inversion, then an
// explicit random draw. Input order never decides.
func (res *resolver) sortQueue(queue []queued) {
	res.phase = phasePrioritySorted
	if len(queue) < 2 {
		return
	}
	if res.actsBefore(queue[1], queue[0]) {
		queue[0], queue[1] = queue[1], queue[0]
	}
}

func (res *resolver) actsBefore(a, b queued) bool {
	ra, rb := actionRank(a.action), actionRank(b.action)
	if ra != rb {
		return ra < rb
	}
	if ra == rankMove {
		pa, pb := res.movePriority(a), res.movePriority(b)
		if pa != pb {
			return pa > pb
		}
	}
	sa := res.effectiveSpeed(a.side)
	sb := res.effectiveSpeed(b.side)
	if trickRoom(res.st) {
		sa, sb = -sa, -sb
	}
	if sa != sb {
		return sa > sb
	}
	return res.r.CoinFlip()
}

const (
	rankSwitch = iota
	rankPass
	rankMove
)

func actionRank(a battle.Action) int {
	switch a.Type {
	case battle.ActionSwitch:
		return rankSwitch
	case battle.ActionPass:
		return rankPass
	}
	return rankMove
}

func (res *resolver) movePriority(q queued) int {
	active := res.st.Sides[q.side].Active()
	if active == nil {
		return 0
	}
	if q.action.MoveID == battle.Struggle.ID {
		return battle.Struggle.Priority
	}
	if slot := active.MoveSlotByID(q.action.MoveID); slot != nil {
		return slot.Move.Priority
	}
	return 0
}

func (res *resolver) effectiveSpeed(side int) int {
	active := res.st.Sides[side].Active()
	if active == nil {
		return 0
	}
	return calc.EffectiveSpeed(active, &res.st.Sides[side], res.st.Field.Weather.Kind)
}

func trickRoom(st *battle.BattleState) bool {
	return st.Sides[0].Conditions.TrickRoom > 0 || st.Sides[1].Conditions.TrickRoom > 0
}

// execute runs one queued action. The re-check happens here: an actor
// that fainted earlier in the turn, or a move against a fainted
// target, becomes a logged no-op rather than an error.
func (res *resolver) execute(q queued) {
	s := &res.st.Sides[q.side]
	active := s.Active()
	if active == nil {
		return
	}

	switch q.action.Type {
	case battle.ActionSwitch:
		res.executeSwitch(q.side, q.action.SwitchTo)
	case battle.ActionPass:
		res.log(q.side, battle.EffectNoOp, battle.Effect{Actor: active.Species, Detail: "pass"})
	case battle.ActionMove, battle.ActionTera:
		if active.Fainted() {
			res.log(q.side, battle.EffectNoOp, battle.Effect{Actor: active.Species, Detail: "actor fainted"})
			return
		}
		if q.action.Type == battle.ActionTera {
			res.applyTera(q.side, q.action)
		}
		res.executeMove(q.side, q.action.MoveID)
	}
}

func (res *resolver) applyTera(side int, a battle.Action) {
	p := res.st.Sides[side].Active()
	p.Tera.Used = true
	p.Tera.Available = false
	if a.TeraType != "" {
		p.Tera.Type = a.TeraType
	}
	res.log(side, battle.EffectTera, battle.Effect{Actor: p.Species, Detail: p.Tera.Type})
}

func (res *resolver) executeMove(side int, moveID string) {
	s := &res.st.Sides[side]
	attacker := s.Active()
	defSide := battle.Opposing(side)
	defender := res.st.Sides[defSide].Active()

	var m battle.Move
	if moveID == battle.Struggle.ID {
		m = battle.Struggle
	} else {
		slot := attacker.MoveSlotByID(moveID)
		if slot == nil {
			res.log(side, battle.EffectNoOp, battle.Effect{Actor: attacker.Species, Detail: "unknown move"})
			return
		}
		m = slot.Move
	}

	gate := conditions.CheckCanAct(attacker, res.r)
	if gate.Cured {
		res.log(side, battle.EffectStatus, battle.Effect{Actor: attacker.Species, Detail: "recovered"})
	}
	if gate.SelfHit {
		dmg := conditions.ConfusionDamage(attacker)
		dealt := attacker.ApplyDamage(dmg)
		res.log(side, battle.EffectDamage, battle.Effect{
			Actor: attacker.Species, Target: attacker.Species,
			Amount: dealt, Detail: battle.VolatileConfusion,
		})
		res.logFaint(side, attacker)
		return
	}
	if !gate.CanAct {
		res.log(side, battle.EffectNoOp, battle.Effect{Actor: attacker.Species, Detail: gate.Reason})
		return
	}

	// Charge moves spend their first turn charging.
	if m.Charge {
		if _, charging := attacker.Volatile(battle.VolatileCharging); !charging {
			attacker.SetVolatile(battle.Volatile{Kind: battle.VolatileCharging, Turns: 2, Data: m.ID})
			res.log(side, battle.EffectVolatile, battle.Effect{Actor: attacker.Species, Move: m.ID, Detail: battle.VolatileCharging})
			return
		}
		attacker.RemoveVolatile(battle.VolatileCharging)
	}

	if m.ID != battle.Struggle.ID {
		if slot := attacker.MoveSlotByID(m.ID); slot != nil && slot.PP > 0 {
			slot.PP--
		}
	}
	attacker.LastMoveID = m.ID
	if dex.IsChoiceItem(attacker.Item) {
		if _, locked := attacker.Volatile(battle.VolatileChoiceLock); !locked {
			attacker.SetVolatile(battle.Volatile{Kind: battle.VolatileChoiceLock, Data: m.ID})
		}
	}

	res.log(side, battle.EffectMove, battle.Effect{Actor: attacker.Species, Move: m.ID})

	targetsOpponent := m.Target != "self" && m.Target != "side" && m.Target != "field"
	if targetsOpponent {
		if defender == nil || defender.Fainted() {
			res.log(side, battle.EffectNoOp, battle.Effect{Actor: attacker.Species, Move: m.ID, Detail: "target fainted"})
			return
		}
		if _, protected := defender.Volatile(battle.VolatileProtect); protected {
			res.log(defSide, battle.EffectVolatile, battle.Effect{Actor: defender.Species, Detail: battle.VolatileProtect})
			return
		}
	}

	if targetsOpponent {
		acc := calc.Accuracy(res.st, attacker, defender, m)
		if !res.r.ChanceF(acc) {
			res.log(side, battle.EffectMiss, battle.Effect{Actor: attacker.Species, Move: m.ID, Target: defender.Species})
			return
		}
	}

	if m.Category == battle.CategoryStatus {
		res.applyStatusMove(side, attacker, defender, m)
		return
	}
	res.applyDamagingMove(side, attacker, defender, m)
}

func (res *resolver) applyDamagingMove(side int, attacker, defender *battle.Pokemon, m battle.Move) {
	defSide := battle.Opposing(side)
	rolls := calc.DamageRolls(res.st, side, attacker, defender, m)
	dmg := rolls[res.r.Intn(calc.RollCount)]

	crit := res.r.ChanceF(calc.CritChance)
	if crit && dmg > 0 {
		dmg = dmg * 3 / 2
		res.log(side, battle.EffectCrit, battle.Effect{Actor: attacker.Species, Move: m.ID})
	}

	dmg = res.checkLethalGuard(defSide, defender, dmg)
	dealt := defender.ApplyDamage(dmg)
	res.log(side, battle.EffectDamage, battle.Effect{
		Actor: attacker.Species, Target: defender.Species, Move: m.ID, Amount: dealt,
	})

	if m.Type == "Fire" && conditions.ThawOnFireHit(defender) {
		res.log(defSide, battle.EffectStatus, battle.Effect{Actor: defender.Species, Detail: "thawed"})
	}

	if m.Drain > 0 && dealt > 0 {
		healed := attacker.Heal(int(float64(dealt) * m.Drain))
		if healed > 0 {
			res.log(side, battle.EffectHeal, battle.Effect{Actor: attacker.Species, Move: m.ID, Amount: healed})
		}
	}

	// Contact punishment from the defender's ability.
	if m.Contact && !defender.Fainted() {
		if eff, ok := dex.AbilityEffect(dex.TriggerDamageTaken, defender.Ability); ok && eff.Kind == dex.EffectRecoilChip {
			chip := attacker.ApplyDamage(int(float64(attacker.MaxHP) * eff.Fraction))
			if chip > 0 {
				res.log(side, battle.EffectAbility, battle.Effect{
					Actor: defender.Species, Target: attacker.Species, Amount: chip, Detail: defender.Ability,
				})
				res.logFaint(side, attacker)
			}
		}
	}

	res.logFaint(defSide, defender)

	if !defender.Fainted() {
		res.applySecondaries(side, attacker, defender, m)
	} else {
		// Self-targeted secondaries (stat drops like Draco Meteor's)
		// still land after a KO.
		res.applySelfEffects(side, attacker, m)
	}

	if m.ID == battle.Struggle.ID && !attacker.Fainted() {
		recoil := attacker.ApplyDamage(attacker.MaxHP / 4)
		res.log(side, battle.EffectDamage, battle.Effect{
			Actor: attacker.Species, Target: attacker.Species, Amount: recoil, Detail: "struggle recoil",
		})
		res.logFaint(side, attacker)
	}

	if m.Recharge {
		attacker.SetVolatile(battle.Volatile{Kind: battle.VolatileRecharging, Turns: 0})
	}
}

// checkLethalGuard caps attack damage at HP-1 when Sturdy or a Focus
// Sash would let a full-HP defender hold on. The sash is consumed.
func (res *resolver) checkLethalGuard(defSide int, defender *battle.Pokemon, dmg int) int {
	if defender.HP != defender.MaxHP || dmg < defender.HP {
		return dmg
	}
	if eff, ok := dex.AbilityEffect(dex.TriggerLethal, defender.Ability); ok && eff.Kind == dex.EffectSurviveOHKO {
		res.log(defSide, battle.EffectAbility, battle.Effect{Actor: defender.Species, Detail: defender.Ability})
		return defender.HP - 1
	}
	if eff, ok := dex.ItemEffect(dex.TriggerLethal, defender.Item); ok && eff.Kind == dex.EffectSurviveOHKO {
		res.log(defSide, battle.EffectItem, battle.Effect{Actor: defender.Species, Detail: defender.Item})
		defender.Item = ""
		return defender.HP - 1
	}
	return dmg
}

func (res *resolver) applySelfEffects(side int, attacker *battle.Pokemon, m battle.Move) {
	if m.SelfStat != "" && m.SelfStages != 0 && !attacker.Fainted() {
		applied := attacker.Boosts.Apply(m.SelfStat, m.SelfStages)
		if applied != 0 {
			res.log(side, battle.EffectBoost, battle.Effect{
				Actor: attacker.Species, Stat: m.SelfStat, Stages: applied,
			})
		}
	}
}

func (res *resolver) applySecondaries(side int, attacker, defender *battle.Pokemon, m battle.Move) {
	res.applySelfEffects(side, attacker, m)
	defSide := battle.Opposing(side)
	for _, sec := range m.Secondary {
		if !res.r.Chance(sec.Chance) {
			continue
		}
		switch sec.Effect {
		case "boost":
			target, tside := defender, defSide
			if sec.Self {
				target, tside = attacker, side
			}
			applied := target.Boosts.Apply(sec.Stat, sec.Stages)
			if applied != 0 {
				res.log(tside, battle.EffectBoost, battle.Effect{
					Actor: target.Species, Stat: sec.Stat, Stages: applied,
				})
			}
		case "flinch":
			// Flinch only matters when the defender has not moved yet;
			// order information is gone by now, so it is dropped.
		case "confusion":
			res.inflictVolatile(defSide, defender, battle.VolatileConfusion, res.confusionTurns(), "")
		default:
			res.inflictStatus(defSide, defender, battle.Status(sec.Effect))
		}
	}
}

func (res *resolver) applyStatusMove(side int, attacker, defender *battle.Pokemon, m battle.Move) {
	s := &res.st.Sides[side]
	defSide := battle.Opposing(side)
	targetSide := &res.st.Sides[defSide]

	switch {
	case m.Status != battle.StatusNone:
		res.inflictStatus(defSide, defender, m.Status)

	case m.Volatile != "":
		if m.Target == "self" {
			res.inflictVolatile(side, attacker, m.Volatile, 0, "")
			return
		}
		turns, data := 0, ""
		switch m.Volatile {
		case battle.VolatileConfusion:
			turns = res.confusionTurns()
		case battle.VolatileTaunt:
			turns = tauntTurns
		case battle.VolatileEncore:
			turns, data = encoreTurns, defender.LastMoveID
		case battle.VolatileDisable:
			turns, data = disableTurns, defender.LastMoveID
		}
		if (m.Volatile == battle.VolatileEncore || m.Volatile == battle.VolatileDisable) && data == "" {
			res.log(side, battle.EffectNoOp, battle.Effect{Actor: attacker.Species, Move: m.ID, Detail: "no move to lock"})
			return
		}
		res.inflictVolatile(defSide, defender, m.Volatile, turns, data)

	case m.Hazard != "":
		res.setHazard(defSide, targetSide, attacker, m)

	case m.Screen != "":
		res.setScreen(side, s, attacker, m)

	case m.Weather != battle.WeatherNone:
		if res.st.Field.Weather.Kind == m.Weather {
			res.log(side, battle.EffectNoOp, battle.Effect{Actor: attacker.Species, Move: m.ID, Detail: "weather unchanged"})
			return
		}
		res.st.Field.Weather = battle.Weather{Kind: m.Weather, Turns: weatherTurns}
		res.log(-1, battle.EffectWeather, battle.Effect{Actor: attacker.Species, Detail: string(m.Weather)})

	case m.Terrain != battle.TerrainNone:
		res.st.Field.Terrain = battle.Terrain{Kind: m.Terrain, Turns: terrainTurns}
		res.log(-1, battle.EffectTerrain, battle.Effect{Actor: attacker.Species, Detail: string(m.Terrain)})

	case m.HealFraction > 0:
		healed := attacker.Heal(int(float64(attacker.MaxHP) * m.HealFraction))
		res.log(side, battle.EffectHeal, battle.Effect{Actor: attacker.Species, Move: m.ID, Amount: healed})

	case m.ID == "tailwind":
		s.Conditions.Tailwind = tailwindTurns
		res.log(side, battle.EffectVolatile, battle.Effect{Actor: attacker.Species, Detail: m.ID})

	case m.ID == "trickroom":
		if trickRoom(res.st) {
			// Using it again tears the room down.
			res.st.Sides[0].Conditions.TrickRoom = 0
			res.st.Sides[1].Conditions.TrickRoom = 0
			res.log(-1, battle.EffectVolatile, battle.Effect{Actor: attacker.Species, Detail: "trickroom ended"})
			return
		}
		s.Conditions.TrickRoom = trickRoomTurns
		res.log(-1, battle.EffectVolatile, battle.Effect{Actor: attacker.Species, Detail: m.ID})

	default:
		res.applySecondaries(side, attacker, defender, m)
	}
}

func (res *resolver) setHazard(defSide int, target *battle.Side, attacker *battle.Pokemon, m battle.Move) {
	h := &target.Hazards
	changed := false
	switch m.Hazard {
	case battle.HazardStealthRock:
		changed = !h.StealthRock
		h.StealthRock = true
	case battle.HazardSpikes:
		if h.Spikes < 3 {
			h.Spikes++
			changed = true
		}
	case battle.HazardToxicSpikes:
		if h.ToxicSpikes < 2 {
			h.ToxicSpikes++
			changed = true
		}
	case battle.HazardStickyWeb:
		changed = !h.StickyWeb
		h.StickyWeb = true
	}
	if changed {
		res.log(defSide, battle.EffectHazard, battle.Effect{Actor: attacker.Species, Detail: m.Hazard})
	} else {
		res.log(defSide, battle.EffectNoOp, battle.Effect{Actor: attacker.Species, Move: m.ID, Detail: "hazard already maxed"})
	}
}

func (res *resolver) setScreen(side int, s *battle.Side, attacker *battle.Pokemon, m battle.Move) {
	switch m.Screen {
	case battle.ScreenReflect:
		s.Screens.Reflect = screenTurns
	case battle.ScreenLightScreen:
		s.Screens.LightScreen = screenTurns
	case battle.ScreenAuroraVeil:
		if res.st.Field.Weather.Kind != battle.WeatherSnow {
			res.log(side, battle.EffectNoOp, battle.Effect{Actor: attacker.Species, Move: m.ID, Detail: "requires snow"})
			return
		}
		s.Screens.AuroraVeil = screenTurns
	}
	res.log(side, battle.EffectScreen, battle.Effect{Actor: attacker.Species, Detail: m.Screen})
}

// statusImmunities by defender type.
var statusImmunities = map[battle.Status][]string{
	battle.StatusBurn:      {"Fire"},
	battle.StatusPoison:    {"Poison", "Steel"},
	battle.StatusToxic:     {"Poison", "Steel"},
	battle.StatusParalysis: {"Electric"},
	battle.StatusFreeze:    {"Ice"},
}

func (res *resolver) inflictStatus(side int, target *battle.Pokemon, status battle.Status) {
	if target == nil || target.Fainted() || target.Status != battle.StatusNone {
		return
	}
	for _, immune := range statusImmunities[status] {
		if target.HasType(immune) {
			res.log(side, battle.EffectNoOp, battle.Effect{Actor: target.Species, Detail: "immune to " + string(status)})
			return
		}
	}
	if calc.Grounded(target) {
		switch res.st.Field.Terrain.Kind {
		case battle.TerrainElectric:
			if status == battle.StatusSleep {
				res.log(side, battle.EffectNoOp, battle.Effect{Actor: target.Species, Detail: "electric terrain prevents sleep"})
				return
			}
		case battle.TerrainMisty:
			res.log(side, battle.EffectNoOp, battle.Effect{Actor: target.Species, Detail: "misty terrain prevents status"})
			return
		}
	}
	if status == battle.StatusSleep && res.format.SleepClause {
		for i := range res.st.Sides[side].Team {
			p := &res.st.Sides[side].Team[i]
			if p != target && !p.Fainted() && p.Status == battle.StatusSleep {
				res.log(side, battle.EffectNoOp, battle.Effect{Actor: target.Species, Detail: "sleep clause"})
				return
			}
		}
	}
	target.Status = status
	target.StatusTurns = 0
	res.log(side, battle.EffectStatus, battle.Effect{Actor: target.Species, Detail: string(status)})
}

func (res *resolver) inflictVolatile(side int, target *battle.Pokemon, kind string, turns int, data string) {
	if target == nil || target.Fainted() {
		return
	}
	if _, already := target.Volatile(kind); already {
		return
	}
	target.SetVolatile(battle.Volatile{Kind: kind, Turns: turns, Data: data})
	res.log(side, battle.EffectVolatile, battle.Effect{Actor: target.Species, Detail: kind})
}

func (res *resolver) confusionTurns() int {
	return 2 + res.r.Intn(3)
}

// executeSwitch swaps the active slot, firing switch-out and switch-in
// effects: Regenerator, entry hazards, Sticky Web, switch-in abilities.
func (res *resolver) executeSwitch(side int, to int) {
	s := &res.st.Sides[side]
	outgoing := s.Active()

	if outgoing != nil && !outgoing.Fainted() {
		if eff, ok := dex.AbilityEffect(dex.TriggerSwitchOut, outgoing.Ability); ok && eff.Kind == dex.EffectHeal {
			healed := outgoing.Heal(int(float64(outgoing.MaxHP) * eff.Fraction))
			if healed > 0 {
				res.log(side, battle.EffectAbility, battle.Effect{Actor: outgoing.Species, Amount: healed, Detail: outgoing.Ability})
			}
		}
		outgoing.ResetOnSwitchOut()
	}

	s.ActiveIndex = to
	incoming := s.Active()
	res.log(side, battle.EffectSwitch, battle.Effect{Actor: incoming.Species})

	res.applyEntryHazards(side, s, incoming)
	if !incoming.Fainted() {
		res.applySwitchInAbility(side, incoming)
	}
}

func (res *resolver) applyEntryHazards(side int, s *battle.Side, incoming *battle.Pokemon) {
	impact := calc.HazardCost(incoming, s.Hazards)
	if impact.DamageFraction > 0 {
		dealt := incoming.ApplyDamage(int(float64(incoming.MaxHP) * impact.DamageFraction))
		res.log(side, battle.EffectHazardDamage, battle.Effect{Actor: incoming.Species, Amount: dealt})
		res.logFaint(side, incoming)
		if incoming.Fainted() {
			return
		}
	}
	if impact.AbsorbsToxicSpikes {
		s.Hazards.ToxicSpikes = 0
		res.log(side, battle.EffectHazard, battle.Effect{Actor: incoming.Species, Detail: "toxicspikes absorbed"})
	} else if impact.InflictStatus != battle.StatusNone {
		res.inflictStatus(side, incoming, impact.InflictStatus)
	}
	if impact.SpeedDrop {
		applied := incoming.Boosts.Apply(battle.StatSpe, -1)
		if applied != 0 {
			res.log(side, battle.EffectBoost, battle.Effect{Actor: incoming.Species, Stat: battle.StatSpe, Stages: applied, Detail: battle.HazardStickyWeb})
		}
	}
}

func (res *resolver) applySwitchInAbility(side int, incoming *battle.Pokemon) {
	eff, ok := dex.AbilityEffect(dex.TriggerSwitchIn, incoming.Ability)
	if !ok {
		return
	}
	switch eff.Kind {
	case dex.EffectStatChange:
		opp := res.st.Sides[battle.Opposing(side)].Active()
		if opp != nil && !opp.Fainted() {
			applied := opp.Boosts.Apply(eff.Stat, eff.Stages)
			if applied != 0 {
				res.log(battle.Opposing(side), battle.EffectBoost, battle.Effect{
					Actor: opp.Species, Stat: eff.Stat, Stages: applied, Detail: incoming.Ability,
				})
			}
		}
	case dex.EffectSetWeather:
		if res.st.Field.Weather.Kind != eff.Weather {
			res.st.Field.Weather = battle.Weather{Kind: eff.Weather, Permanent: true}
			res.log(-1, battle.EffectWeather, battle.Effect{Actor: incoming.Species, Detail: string(eff.Weather)})
		}
	}
}

// checkEnd updates winner and phase when a side is out of Pokémon.
func (res *resolver) checkEnd() bool {
	r0 := res.st.Sides[0].Remaining()
	r1 := res.st.Sides[1].Remaining()
	if r0 > 0 && r1 > 0 {
		return false
	}
	res.st.Phase = battle.PhaseFinished
	switch {
	case r0 == 0 && r1 == 0:
		res.st.Winner = "tie"
	case r0 == 0:
		res.st.Winner = res.st.Sides[1].ID
	default:
		res.st.Winner = res.st.Sides[0].ID
	}
	res.log(-1, battle.EffectEnd, battle.Effect{Detail: res.st.Winner})
	return true
}

func (res *resolver) log(side int, kind string, e battle.Effect) {
	e.Turn = res.st.Turn
	e.Side = side
	e.Kind = kind
	res.st.Log = append(res.st.Log, e)
}

func (res *resolver) logFaint(side int, p *battle.Pokemon) {
	if p != nil && p.Fainted() && p.HP == 0 {
		// Only log once per faint: the entry is added by whichever
		// effect dropped it to zero.
		last := ""
		if n := len(res.st.Log); n > 0 {
			last = res.st.Log[n-1].Kind
		}
		if last != battle.EffectFaint {
			res.log(side, battle.EffectFaint, battle.Effect{Actor: p.Species})
		}
	}
}
