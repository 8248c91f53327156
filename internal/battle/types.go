// Package battle defines the value objects shared by every engine
// component: Pokémon, moves, sides, the field, and the battle state
// itself. Everything here is plain data with JSON tags; the serialized
// BattleState document is the only persisted form of a battle.
package battle

// MoveCategory classifies how a move deals (or doesn't deal) damage.
type MoveCategory string

const (
	CategoryPhysical MoveCategory = "Physical"
	CategorySpecial  MoveCategory = "Special"
	CategoryStatus   MoveCategory = "Status"
)

// Status is a primary status condition. A Pokémon carries at most one.
type Status string

const (
	StatusNone      Status = ""
	StatusBurn      Status = "burn"
	StatusPoison    Status = "poison"
	StatusToxic     Status = "toxic"
	StatusParalysis Status = "paralysis"
	StatusSleep     Status = "sleep"
	StatusFreeze    Status = "freeze"
	StatusFainted   Status = "fainted"
)

// WeatherKind identifies the active weather. At most one is active.
type WeatherKind string

const (
	WeatherNone WeatherKind = ""
	WeatherSun  WeatherKind = "sun"
	WeatherRain WeatherKind = "rain"
	WeatherSand WeatherKind = "sand"
	WeatherSnow WeatherKind = "snow"
)

// TerrainKind identifies the active terrain. At most one is active.
type TerrainKind string

const (
	TerrainNone     TerrainKind = ""
	TerrainElectric TerrainKind = "electric"
	TerrainGrassy   TerrainKind = "grassy"
	TerrainMisty    TerrainKind = "misty"
	TerrainPsychic  TerrainKind = "psychic"
)

// Phase is the lifecycle phase of a battle.
type Phase string

const (
	PhasePreparation Phase = "preparation"
	PhaseTeamPreview Phase = "team_preview"
	PhaseBattle      Phase = "battle"
	PhaseFinished    Phase = "finished"
)

// Stat names used by boosts, secondary effects and the calculator.
const (
	StatAtk      = "atk"
	StatDef      = "def"
	StatSpA      = "spa"
	StatSpD      = "spd"
	StatSpe      = "spe"
	StatAccuracy = "accuracy"
	StatEvasion  = "evasion"
)

// Stats holds the computed stat block of a Pokémon (no boosts applied).
type Stats struct {
	HP  int `json:"hp"`
	Atk int `json:"atk"`
	Def int `json:"def"`
	SpA int `json:"spa"`
	SpD int `json:"spd"`
	Spe int `json:"spe"`
}

// Boosts are stat stages, each clamped to [-6, +6].
type Boosts struct {
	Atk      int `json:"atk"`
	Def      int `json:"def"`
	SpA      int `json:"spa"`
	SpD      int `json:"spd"`
	Spe      int `json:"spe"`
	Accuracy int `json:"accuracy"`
	Evasion  int `json:"evasion"`
}

// MinBoost and MaxBoost bound every stat stage.
const (
	MinBoost = -6
	MaxBoost = 6
)

func clampStage(v int) int {
	if v < MinBoost {
		return MinBoost
	}
	if v > MaxBoost {
		return MaxBoost
	}
	return v
}

// Get returns the stage for a named stat.
func (b Boosts) Get(stat string) int {
	switch stat {
	case StatAtk:
		return b.Atk
	case StatDef:
		return b.Def
	case StatSpA:
		return b.SpA
	case StatSpD:
		return b.SpD
	case StatSpe:
		return b.Spe
	case StatAccuracy:
		return b.Accuracy
	case StatEvasion:
		return b.Evasion
	}
	return 0
}

// Apply adds stages to a named stat, clamping to [-6, +6]. It returns
// the actual delta applied, which may be smaller than requested at the
// clamp boundary.
func (b *Boosts) Apply(stat string, stages int) int {
	before := b.Get(stat)
	after := clampStage(before + stages)
	switch stat {
	case StatAtk:
		b.Atk = after
	case StatDef:
		b.Def = after
	case StatSpA:
		b.SpA = after
	case StatSpD:
		b.SpD = after
	case StatSpe:
		b.Spe = after
	case StatAccuracy:
		b.Accuracy = after
	case StatEvasion:
		b.Evasion = after
	default:
		return 0
	}
	return after - before
}

// StageMultiplier converts a stat stage to its multiplier: (2+n)/2 for
// n >= 0 and 2/(2-n) for n < 0.
func StageMultiplier(stage int) float64 {
	stage = clampStage(stage)
	if stage >= 0 {
		return float64(2+stage) / 2
	}
	return 2 / float64(2-stage)
}
