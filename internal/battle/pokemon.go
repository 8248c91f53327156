package battle

// Volatile condition identifiers. Volatiles clear on switch-out.
const (
	VolatileConfusion   = "confusion"
	VolatileTaunt       = "taunt"
	VolatileEncore      = "encore"
	VolatileDisable     = "disable"
	VolatileLeechSeed   = "leechseed"
	VolatilePerishSong  = "perishsong"
	VolatileSubstitute  = "substitute"
	VolatileProtect     = "protect"
	VolatileCharging    = "charging"
	VolatileRecharging  = "recharging"
	VolatileChoiceLock  = "choicelock"
)

// Volatile is one active volatile condition on a Pokémon. Conditions
// are kept in an ordered slice so that expiry walks are deterministic.
type Volatile struct {
	Kind  string `json:"kind"`
	Turns int    `json:"turns"`          // remaining turns; 0 means no countdown
	Data  string `json:"data,omitempty"` // condition-specific payload (e.g. locked move id)
}

// TeraRecord tracks the one-time terastallization resource.
type TeraRecord struct {
	Available bool   `json:"available"`
	Used      bool   `json:"used"`
	Type      string `json:"type,omitempty"`
}

// Pokemon is one battler. HP is always within [0, MaxHP] and
// Status == StatusFainted exactly when HP == 0.
type Pokemon struct {
	Species string   `json:"species"`
	Level   int      `json:"level"`
	HP      int      `json:"hp"`
	MaxHP   int      `json:"maxHp"`
	Stats   Stats    `json:"stats"`
	Types   []string `json:"types"`
	Ability string   `json:"ability,omitempty"`
	Item    string   `json:"item,omitempty"`

	Moves []MoveSlot `json:"moves"`

	Status      Status `json:"status,omitempty"`
	StatusTurns int    `json:"statusTurns,omitempty"` // toxic stacks or sleep turns elapsed

	Boosts    Boosts     `json:"boosts"`
	Volatiles []Volatile `json:"volatiles,omitempty"`
	Tera      TeraRecord `json:"tera"`

	LastMoveID string `json:"lastMove,omitempty"`
}

// Fainted reports whether the Pokémon is out of the battle.
func (p *Pokemon) Fainted() bool {
	return p.HP <= 0
}

// EffectiveTypes returns the defensive/STAB typing, honoring an active
// terastallization.
func (p *Pokemon) EffectiveTypes() []string {
	if p.Tera.Used && p.Tera.Type != "" {
		return []string{p.Tera.Type}
	}
	return p.Types
}

// HasType reports whether the Pokémon currently has the given type.
func (p *Pokemon) HasType(t string) bool {
	for _, pt := range p.EffectiveTypes() {
		if pt == t {
			return true
		}
	}
	return false
}

// NaturalType reports whether t is one of the species' original types,
// ignoring terastallization. STAB keeps honoring natural types.
func (p *Pokemon) NaturalType(t string) bool {
	for _, pt := range p.Types {
		if pt == t {
			return true
		}
	}
	return false
}

// ApplyDamage subtracts HP, clamping at zero, and marks the Pokémon
// fainted when it drops to zero. Returns the damage actually dealt.
func (p *Pokemon) ApplyDamage(n int) int {
	if n <= 0 || p.HP <= 0 {
		return 0
	}
	if n > p.HP {
		n = p.HP
	}
	p.HP -= n
	if p.HP == 0 {
		p.Status = StatusFainted
		p.StatusTurns = 0
		p.Volatiles = nil
	}
	return n
}

// Heal restores HP, clamping at MaxHP. Fainted Pokémon cannot heal.
// Returns the amount actually restored.
func (p *Pokemon) Heal(n int) int {
	if n <= 0 || p.Fainted() {
		return 0
	}
	if p.HP+n > p.MaxHP {
		n = p.MaxHP - p.HP
	}
	p.HP += n
	return n
}

// Volatile returns the volatile entry of the given kind, if present.
func (p *Pokemon) Volatile(kind string) (Volatile, bool) {
	for _, v := range p.Volatiles {
		if v.Kind == kind {
			return v, true
		}
	}
	return Volatile{}, false
}

// SetVolatile adds or replaces a volatile condition, preserving the
// insertion order of unrelated entries.
func (p *Pokemon) SetVolatile(v Volatile) {
	for i := range p.Volatiles {
		if p.Volatiles[i].Kind == v.Kind {
			p.Volatiles[i] = v
			return
		}
	}
	p.Volatiles = append(p.Volatiles, v)
}

// RemoveVolatile drops a volatile condition if present.
func (p *Pokemon) RemoveVolatile(kind string) {
	for i := range p.Volatiles {
		if p.Volatiles[i].Kind == kind {
			p.Volatiles = append(p.Volatiles[:i], p.Volatiles[i+1:]...)
			return
		}
	}
}

// ResetOnSwitchOut clears everything that does not survive leaving the
// field: volatiles, boosts, and the choice lock.
func (p *Pokemon) ResetOnSwitchOut() {
	p.Volatiles = nil
	p.Boosts = Boosts{}
	p.LastMoveID = ""
}

// MoveSlotByID returns a pointer into Moves for the given move id.
func (p *Pokemon) MoveSlotByID(id string) *MoveSlot {
	for i := range p.Moves {
		if p.Moves[i].Move.ID == id {
			return &p.Moves[i]
		}
	}
	return nil
}

// OutOfPP reports whether every known move has zero PP remaining.
func (p *Pokemon) OutOfPP() bool {
	for _, s := range p.Moves {
		if s.PP > 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (p *Pokemon) Clone() Pokemon {
	cp := *p
	cp.Types = append([]string(nil), p.Types...)
	cp.Moves = append([]MoveSlot(nil), p.Moves...)
	cp.Volatiles = append([]Volatile(nil), p.Volatiles...)
	return cp
}
