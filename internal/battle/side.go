package battle

// Hazards are the entry hazards laid on one side of the field.
// Layer counts are capped: spikes at 3, toxic spikes at 2.
type Hazards struct {
	Spikes      int  `json:"spikes"`
	ToxicSpikes int  `json:"toxicSpikes"`
	StealthRock bool `json:"stealthRock"`
	StickyWeb   bool `json:"stickyWeb"`
}

// Any reports whether at least one hazard is present.
func (h Hazards) Any() bool {
	return h.Spikes > 0 || h.ToxicSpikes > 0 || h.StealthRock || h.StickyWeb
}

// Screens are damage-reducing walls with remaining-turn counters.
// A zero counter means the screen is down.
type Screens struct {
	Reflect     int `json:"reflect"`
	LightScreen int `json:"lightScreen"`
	AuroraVeil  int `json:"auroraVeil"`
}

// SideConditions are side-bound field conditions with remaining-turn
// counters. A zero counter means the condition is inactive.
type SideConditions struct {
	Tailwind   int `json:"tailwind"`
	TrickRoom  int `json:"trickRoom"`
	Gravity    int `json:"gravity"`
	WonderRoom int `json:"wonderRoom"`
	MagicRoom  int `json:"magicRoom"`
}

// Side is one player's half of the battle: a team of up to six
// Pokémon, exactly one of which is active, plus side-bound state.
type Side struct {
	ID          string         `json:"id"` // "p1" or "p2"
	Team        []Pokemon      `json:"team"`
	ActiveIndex int            `json:"activeIndex"`
	Hazards     Hazards        `json:"hazards"`
	Screens     Screens        `json:"screens"`
	Conditions  SideConditions `json:"conditions"`
}

// Active returns the active Pokémon, or nil when the slot is invalid
// or the team is empty.
func (s *Side) Active() *Pokemon {
	if s.ActiveIndex < 0 || s.ActiveIndex >= len(s.Team) {
		return nil
	}
	return &s.Team[s.ActiveIndex]
}

// Remaining counts team members that have not fainted.
func (s *Side) Remaining() int {
	n := 0
	for i := range s.Team {
		if !s.Team[i].Fainted() {
			n++
		}
	}
	return n
}

// BenchIndexes returns team indexes that are on the bench (not
// active), in team order.
func (s *Side) BenchIndexes() []int {
	idx := make([]int, 0, len(s.Team))
	for i := range s.Team {
		if i != s.ActiveIndex {
			idx = append(idx, i)
		}
	}
	return idx
}

// Clone returns a deep copy.
func (s *Side) Clone() Side {
	cp := *s
	cp.Team = make([]Pokemon, len(s.Team))
	for i := range s.Team {
		cp.Team[i] = s.Team[i].Clone()
	}
	return cp
}
