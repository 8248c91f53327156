package dex

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
)

// Format is one ruleset a battle can be played under. Legality checks
// and the action generator consult it.
type Format struct {
	Name        string `json:"name" mapstructure:"name"`
	Version     string `json:"version" mapstructure:"version"`
	DexVersion  string `json:"dexVersion" mapstructure:"dexVersion"`
	TeraAllowed bool   `json:"teraAllowed" mapstructure:"teraAllowed"`
	SleepClause bool   `json:"sleepClause" mapstructure:"sleepClause"`
	TeamSize    int    `json:"teamSize" mapstructure:"teamSize"`

	BannedPokemon   []string `json:"bannedPokemon,omitempty" mapstructure:"bannedPokemon"`
	BannedMoves     []string `json:"bannedMoves,omitempty" mapstructure:"bannedMoves"`
	BannedItems     []string `json:"bannedItems,omitempty" mapstructure:"bannedItems"`
	BannedAbilities []string `json:"bannedAbilities,omitempty" mapstructure:"bannedAbilities"`
}

// Hash returns a stable digest of the ruleset, recorded alongside
// stored battles so replays can be matched to the exact rules they
// were played under.
func (f Format) Hash() string {
	cp := f
	sort.Strings(cp.BannedPokemon)
	sort.Strings(cp.BannedMoves)
	sort.Strings(cp.BannedItems)
	sort.Strings(cp.BannedAbilities)
	raw, _ := json.Marshal(cp)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}

// MoveBanned reports whether the format bans a move id.
func (f Format) MoveBanned(id string) bool { return containsID(f.BannedMoves, id) }

// PokemonBanned reports whether the format bans a species id.
func (f Format) PokemonBanned(id string) bool { return containsID(f.BannedPokemon, id) }

// ItemBanned reports whether the format bans an item id.
func (f Format) ItemBanned(id string) bool { return containsID(f.BannedItems, id) }

// AbilityBanned reports whether the format bans an ability id.
func (f Format) AbilityBanned(id string) bool { return containsID(f.BannedAbilities, id) }

func containsID(list []string, id string) bool {
	id = NormalizeID(id)
	for _, v := range list {
		if NormalizeID(v) == id {
			return true
		}
	}
	return false
}

// FormatRegistry holds every known format. Lookups for unknown names
// fail closed with battle.ErrUnsupportedFormat.
type FormatRegistry struct {
	formats map[string]Format
}

// builtinFormats are always registered, so the engine is usable
// without a formats directory.
var builtinFormats = []Format{
	{
		Name:        "gen9ou",
		Version:     "1.0.0",
		DexVersion:  "gen9",
		TeraAllowed: true,
		SleepClause: true,
		TeamSize:    6,
		BannedMoves: []string{"lastrespects", "shedtail"},
	},
	{
		Name:        "gen9ubers",
		Version:     "1.0.0",
		DexVersion:  "gen9",
		TeraAllowed: true,
		TeamSize:    6,
	},
	{
		Name:        "gen9noterastal",
		Version:     "1.0.0",
		DexVersion:  "gen9",
		TeraAllowed: false,
		SleepClause: true,
		TeamSize:    6,
	},
}

// NewFormatRegistry returns a registry seeded with the built-in formats.
func NewFormatRegistry() *FormatRegistry {
	r := &FormatRegistry{formats: make(map[string]Format)}
	for _, f := range builtinFormats {
		r.formats[NormalizeID(f.Name)] = f
	}
	return r
}

// LoadFormats reads every .yaml/.yml file under dir into the registry,
// replacing built-ins with the same name.
func (r *FormatRegistry) LoadFormats(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading formats dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		f, err := readFormatFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		r.formats[NormalizeID(f.Name)] = f
	}
	return nil
}

func readFormatFile(path string) (Format, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("teamSize", 6)
	if err := v.ReadInConfig(); err != nil {
		return Format{}, fmt.Errorf("reading format file %s: %w", path, err)
	}
	var f Format
	if err := v.Unmarshal(&f); err != nil {
		return Format{}, fmt.Errorf("decoding format file %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

// Get resolves a format by name.
func (r *FormatRegistry) Get(name string) (Format, error) {
	f, ok := r.formats[NormalizeID(name)]
	if !ok {
		return Format{}, fmt.Errorf("%q: %w", name, battle.ErrUnsupportedFormat)
	}
	return f, nil
}

// Names returns the registered format names, sorted.
func (r *FormatRegistry) Names() []string {
	names := make([]string, 0, len(r.formats))
	for _, f := range r.formats {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}
