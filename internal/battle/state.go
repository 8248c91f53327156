package battle

import "fmt"

// Weather is the active weather with its remaining duration.
// Permanent weather (set by an ability) never decays on its own; it
// only ends when replaced.
type Weather struct {
	Kind      WeatherKind `json:"kind"`
	Turns     int         `json:"turns"`
	Permanent bool        `json:"permanent,omitempty"`
}

// Terrain is the active terrain with its remaining duration.
type Terrain struct {
	Kind  TerrainKind `json:"kind"`
	Turns int         `json:"turns"`
}

// Field is the state shared by both sides.
type Field struct {
	Weather Weather `json:"weather"`
	Terrain Terrain `json:"terrain"`
}

// Effect is one structured entry in the battle log: a sub-effect
// applied during turn resolution. The log is append-only; replays and
// training traces are reconstructed from it.
type Effect struct {
	Turn   int    `json:"turn"`
	Side   int    `json:"side"` // 0 or 1; -1 for field-wide effects
	Kind   string `json:"kind"`
	Move   string `json:"move,omitempty"`
	Actor  string `json:"actor,omitempty"`
	Target string `json:"target,omitempty"`
	Amount int    `json:"amount,omitempty"`
	Stat   string `json:"stat,omitempty"`
	Stages int    `json:"stages,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Effect kinds emitted by the resolution engine.
const (
	EffectMove         = "move"
	EffectDamage       = "damage"
	EffectHeal         = "heal"
	EffectMiss         = "miss"
	EffectCrit         = "crit"
	EffectFaint        = "faint"
	EffectSwitch       = "switch"
	EffectStatus       = "status"
	EffectStatusDamage = "status_damage"
	EffectBoost        = "boost"
	EffectVolatile     = "volatile"
	EffectHazard       = "hazard"
	EffectHazardDamage = "hazard_damage"
	EffectScreen       = "screen"
	EffectWeather      = "weather"
	EffectWeatherChip  = "weather_chip"
	EffectTerrain      = "terrain"
	EffectItem         = "item"
	EffectAbility      = "ability"
	EffectTera         = "tera"
	EffectNoOp         = "noop"
	EffectEnd          = "battle_end"
)

// BattleState is the complete state of one battle. It is created from
// team-preview selections, mutated only by the turn resolution engine,
// and frozen once Phase == PhaseFinished.
type BattleState struct {
	Format      string    `json:"format"`
	Turn        int       `json:"turn"`
	Phase       Phase     `json:"phase"`
	Sides       [2]Side   `json:"sides"`
	Field       Field     `json:"field"`
	Log         []Effect  `json:"log"`
	LastActions [2]Action `json:"lastActions"`
	Seed        int64     `json:"seed"`
	Winner      string    `json:"winner,omitempty"` // side id, or "tie"
}

// Clone returns a deep copy of the state.
func (st *BattleState) Clone() *BattleState {
	cp := *st
	cp.Sides[0] = st.Sides[0].Clone()
	cp.Sides[1] = st.Sides[1].Clone()
	cp.Log = append([]Effect(nil), st.Log...)
	return &cp
}

// Finished reports whether the battle is over.
func (st *BattleState) Finished() bool {
	return st.Phase == PhaseFinished
}

// Opposing returns the index of the other side.
func Opposing(side int) int {
	return 1 - side
}

// Validate checks the cross-cutting state invariants. A failure is
// always an engine bug, reported as ErrStateInvariant.
func (st *BattleState) Validate() error {
	for si := range st.Sides {
		s := &st.Sides[si]
		if s.ActiveIndex < 0 || s.ActiveIndex >= len(s.Team) {
			return fmt.Errorf("%w: side %s active index %d out of range", ErrStateInvariant, s.ID, s.ActiveIndex)
		}
		if s.Hazards.Spikes < 0 || s.Hazards.Spikes > 3 {
			return fmt.Errorf("%w: side %s spikes layers %d", ErrStateInvariant, s.ID, s.Hazards.Spikes)
		}
		if s.Hazards.ToxicSpikes < 0 || s.Hazards.ToxicSpikes > 2 {
			return fmt.Errorf("%w: side %s toxic spikes layers %d", ErrStateInvariant, s.ID, s.Hazards.ToxicSpikes)
		}
		for pi := range s.Team {
			p := &s.Team[pi]
			if p.HP < 0 || p.HP > p.MaxHP {
				return fmt.Errorf("%w: %s HP %d outside [0,%d]", ErrStateInvariant, p.Species, p.HP, p.MaxHP)
			}
			if (p.HP == 0) != (p.Status == StatusFainted) {
				return fmt.Errorf("%w: %s fainted flag inconsistent with HP %d", ErrStateInvariant, p.Species, p.HP)
			}
			if p.Tera.Used && p.Tera.Available {
				return fmt.Errorf("%w: %s tera both used and available", ErrStateInvariant, p.Species)
			}
		}
	}
	if st.Field.Weather.Turns < 0 || st.Field.Terrain.Turns < 0 {
		return fmt.Errorf("%w: negative field counter", ErrStateInvariant)
	}
	return nil
}
