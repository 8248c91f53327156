package battle

// Secondary is a chance-based side effect attached to a move.
type Secondary struct {
	Chance int    `json:"chance"` // percent
	Effect string `json:"effect"` // status name, volatile name, or "boost"
	Stat   string `json:"stat,omitempty"`
	Stages int    `json:"stages,omitempty"`
	Self   bool   `json:"self,omitempty"` // applies to the user instead of the target
}

// Move is the full data record for a move, as loaded from the dex.
type Move struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Category MoveCategory `json:"category"`
	Power    int          `json:"power"`
	Accuracy int          `json:"accuracy"` // percent; 0 means the move bypasses accuracy checks
	MaxPP    int          `json:"pp"`
	Priority int          `json:"priority"`
	Target   string       `json:"target,omitempty"`

	Contact  bool `json:"contact,omitempty"`
	Sound    bool `json:"sound,omitempty"`
	Charge   bool `json:"charge,omitempty"`
	Recharge bool `json:"recharge,omitempty"`

	// Primary effects. At most a few of these are set per move.
	Status       Status      `json:"status,omitempty"`   // inflicted on the target
	Volatile     string      `json:"volatile,omitempty"` // volatile inflicted on the target
	Hazard       string      `json:"hazard,omitempty"`
	Screen       string      `json:"screen,omitempty"`
	Weather      WeatherKind `json:"weather,omitempty"`
	Terrain      TerrainKind `json:"terrain,omitempty"`
	HealFraction float64     `json:"heal,omitempty"`  // fraction of user max HP restored
	Drain        float64     `json:"drain,omitempty"` // fraction of damage dealt restored
	SelfStat     string      `json:"selfStat,omitempty"`
	SelfStages   int         `json:"selfStages,omitempty"`

	Secondary []Secondary `json:"secondary,omitempty"`
}

// AlwaysHits reports whether the move bypasses the accuracy check.
func (m Move) AlwaysHits() bool {
	return m.Accuracy <= 0
}

// IsNil reports whether the move record is empty.
func (m Move) IsNil() bool {
	return m.ID == ""
}

// MoveSlot is a move known by a Pokémon together with its remaining PP.
type MoveSlot struct {
	Move Move `json:"move"`
	PP   int  `json:"pp"`
}

// Hazard identifiers used by moves and side state.
const (
	HazardStealthRock = "stealthrock"
	HazardSpikes      = "spikes"
	HazardToxicSpikes = "toxicspikes"
	HazardStickyWeb   = "stickyweb"
)

// Screen identifiers used by moves and side state.
const (
	ScreenReflect     = "reflect"
	ScreenLightScreen = "lightscreen"
	ScreenAuroraVeil  = "auroraveil"
)

// Struggle is the fallback move injected when no move has PP left.
var Struggle = Move{
	ID:       "struggle",
	Name:     "Struggle",
	Type:     "Normal",
	Category: CategoryPhysical,
	Power:    50,
	Accuracy: 0, // never misses
	MaxPP:    1,
}
