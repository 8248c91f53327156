// Package dex holds the static battle data: the type chart, move and
// species records, ability and item effect tables, and the format
// registry. Everything here is immutable after load.
package dex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "embed"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
)

//go:embed data/moves.json
var movesJSON []byte

//go:embed data/species.json
var speciesJSON []byte

// Species is the dex record for one Pokémon species. Stats are the
// computed level-100 battle stats used directly by the calculator.
type Species struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Types     []string     `json:"types"`
	Stats     battle.Stats `json:"stats"`
	Abilities []string     `json:"abilities"`
	Moves     []string     `json:"moves"`
}

// Dex is a loaded move and species database.
type Dex struct {
	moves   map[string]battle.Move
	species map[string]Species
}

// New loads the embedded move and species data.
func New() (*Dex, error) {
	d := &Dex{
		moves:   make(map[string]battle.Move),
		species: make(map[string]Species),
	}
	if err := d.loadMoves(movesJSON); err != nil {
		return nil, fmt.Errorf("loading embedded moves: %w", err)
	}
	if err := d.loadSpecies(speciesJSON); err != nil {
		return nil, fmt.Errorf("loading embedded species: %w", err)
	}
	return d, nil
}

// NewFromDir loads the embedded data and then overlays moves.json and
// species.json from dir, if present. Records in the directory replace
// embedded records with the same id.
func NewFromDir(dir string) (*Dex, error) {
	d, err := New()
	if err != nil {
		return nil, err
	}
	if raw, err := os.ReadFile(filepath.Join(dir, "moves.json")); err == nil {
		if err := d.loadMoves(raw); err != nil {
			return nil, fmt.Errorf("loading %s/moves.json: %w", dir, err)
		}
	}
	if raw, err := os.ReadFile(filepath.Join(dir, "species.json")); err == nil {
		if err := d.loadSpecies(raw); err != nil {
			return nil, fmt.Errorf("loading %s/species.json: %w", dir, err)
		}
	}
	return d, nil
}

func (d *Dex) loadMoves(raw []byte) error {
	var moves []battle.Move
	if err := json.Unmarshal(raw, &moves); err != nil {
		return err
	}
	for _, m := range moves {
		if m.ID == "" {
			return fmt.Errorf("move %q has no id", m.Name)
		}
		d.moves[m.ID] = m
	}
	return nil
}

func (d *Dex) loadSpecies(raw []byte) error {
	var species []Species
	if err := json.Unmarshal(raw, &species); err != nil {
		return err
	}
	for _, s := range species {
		if s.ID == "" {
			return fmt.Errorf("species %q has no id", s.Name)
		}
		d.species[s.ID] = s
	}
	return nil
}

// Move looks up a move by id.
func (d *Dex) Move(id string) (battle.Move, bool) {
	m, ok := d.moves[NormalizeID(id)]
	return m, ok
}

// Species looks up a species by id.
func (d *Dex) Species(id string) (Species, bool) {
	s, ok := d.species[NormalizeID(id)]
	return s, ok
}

// MoveCount returns the number of loaded moves.
func (d *Dex) MoveCount() int { return len(d.moves) }

// SpeciesCount returns the number of loaded species.
func (d *Dex) SpeciesCount() int { return len(d.species) }

// PokemonSpec describes one team member to build.
type PokemonSpec struct {
	Species  string   `json:"species"`
	Level    int      `json:"level,omitempty"`
	Moves    []string `json:"moves,omitempty"`
	Ability  string   `json:"ability,omitempty"`
	Item     string   `json:"item,omitempty"`
	TeraType string   `json:"teraType,omitempty"`
}

// NewPokemon builds a battle-ready Pokémon from a spec. Missing fields
// fall back to the species defaults: first listed ability, the first
// four dex moves. Unknown species or moves are ErrMissingEntity.
func (d *Dex) NewPokemon(spec PokemonSpec) (battle.Pokemon, error) {
	sp, ok := d.Species(spec.Species)
	if !ok {
		return battle.Pokemon{}, fmt.Errorf("species %q: %w", spec.Species, battle.ErrMissingEntity)
	}
	level := spec.Level
	if level <= 0 {
		level = 100
	}
	ability := NormalizeID(spec.Ability)
	if ability == "" && len(sp.Abilities) > 0 {
		ability = sp.Abilities[0]
	}
	moveIDs := spec.Moves
	if len(moveIDs) == 0 {
		moveIDs = sp.Moves
	}
	if len(moveIDs) > 4 {
		moveIDs = moveIDs[:4]
	}
	slots := make([]battle.MoveSlot, 0, len(moveIDs))
	for _, id := range moveIDs {
		m, ok := d.Move(id)
		if !ok {
			return battle.Pokemon{}, fmt.Errorf("move %q: %w", id, battle.ErrMissingEntity)
		}
		slots = append(slots, battle.MoveSlot{Move: m, PP: m.MaxPP})
	}
	p := battle.Pokemon{
		Species: sp.ID,
		Level:   level,
		HP:      sp.Stats.HP,
		MaxHP:   sp.Stats.HP,
		Stats:   sp.Stats,
		Types:   append([]string(nil), sp.Types...),
		Ability: ability,
		Item:    NormalizeID(spec.Item),
		Moves:   slots,
	}
	if spec.TeraType != "" {
		p.Tera = battle.TeraRecord{Available: true, Type: spec.TeraType}
	}
	return p, nil
}

// NormalizeID lowercases a name and strips everything that is not a
// letter or digit, so "Rotom-Wash" and "rotomwash" hit the same record.
func NormalizeID(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
