// Package teams parses Showdown-style team exports into builder specs.
package teams

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
)

// Parser provides pure text -> spec conversion. When a dex is supplied,
// parsed species and moves are checked against it.
type Parser struct {
	logger *slog.Logger
	dex    *dex.Dex
}

// NewParser creates a new team parser. The dex may be nil to skip
// entity validation.
func NewParser(logger *slog.Logger, d *dex.Dex) *Parser {
	return &Parser{logger: logger, dex: d}
}

// ParseTeam parses a single team in Showdown export format. Set blocks
// are separated by blank lines:
//
//	Gholdengo @ Choice Specs
//	Ability: Good as Gold
//	Level: 100
//	Tera Type: Steel
//	- Make It Rain
//	- Shadow Ball
//
// EVs, IVs, nature, shiny and happiness lines are accepted and ignored.
func (p *Parser) ParseTeam(text string) ([]dex.PokemonSpec, error) {
	team := []dex.PokemonSpec{}

	for _, block := range splitBlocks(text) {
		spec, err := p.parseSet(block)
		if err != nil {
			return nil, err
		}
		team = append(team, spec)
	}

	if len(team) == 0 {
		return nil, fmt.Errorf("no pokemon found in team text")
	}

	if p.logger != nil {
		p.logger.Debug("Parsed team",
			"members", len(team),
			"lead", team[0].Species)
	}

	return team, nil
}

// ParseTeams parses a multi-team export. Teams are introduced by
// headers of the form "=== [gen9ou] Team Name ===" and keyed by the
// team name. Text before the first header is ignored.
func (p *Parser) ParseTeams(text string) (map[string][]dex.PokemonSpec, error) {
	out := map[string][]dex.PokemonSpec{}

	name := ""
	var buf []string
	flush := func() error {
		if name == "" || len(buf) == 0 {
			buf = nil
			return nil
		}
		team, err := p.ParseTeam(strings.Join(buf, "\n"))
		if err != nil {
			return fmt.Errorf("team %q: %w", name, err)
		}
		out[name] = team
		buf = nil
		return nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "===") && strings.HasSuffix(trimmed, "===") {
			if err := flush(); err != nil {
				return nil, err
			}
			name = parseTeamHeader(trimmed)
			continue
		}
		if name != "" {
			buf = append(buf, line)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no team headers found")
	}
	return out, nil
}

// ParseTeamFile reads and parses a single-team export file.
func (p *Parser) ParseTeamFile(path string) ([]dex.PokemonSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading team file: %w", err)
	}
	team, err := p.ParseTeam(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return team, nil
}

func (p *Parser) parseSet(lines []string) (dex.PokemonSpec, error) {
	spec := dex.PokemonSpec{}

	species, item := parseHeadline(lines[0])
	if species == "" {
		return spec, fmt.Errorf("set %q has no species", lines[0])
	}
	spec.Species = species
	spec.Item = item

	for _, line := range lines[1:] {
		switch {
		case strings.HasPrefix(line, "- "):
			spec.Moves = append(spec.Moves, strings.TrimSpace(line[2:]))
		case strings.HasPrefix(line, "Ability:"):
			spec.Ability = strings.TrimSpace(line[len("Ability:"):])
		case strings.HasPrefix(line, "Tera Type:"):
			spec.TeraType = strings.TrimSpace(line[len("Tera Type:"):])
		case strings.HasPrefix(line, "Level:"):
			lvl, err := strconv.Atoi(strings.TrimSpace(line[len("Level:"):]))
			if err != nil {
				return spec, fmt.Errorf("set %q: bad level: %w", species, err)
			}
			spec.Level = lvl
		case strings.HasPrefix(line, "EVs:"),
			strings.HasPrefix(line, "IVs:"),
			strings.HasPrefix(line, "Shiny:"),
			strings.HasPrefix(line, "Happiness:"),
			strings.HasSuffix(line, "Nature"):
			// stat detail lines carry no information the builder uses
		default:
			return spec, fmt.Errorf("set %q: unrecognized line %q", species, line)
		}
	}

	if len(spec.Moves) > 4 {
		return spec, fmt.Errorf("set %q has %d moves, max is 4", species, len(spec.Moves))
	}

	if err := p.validate(spec); err != nil {
		return spec, err
	}
	return spec, nil
}

func (p *Parser) validate(spec dex.PokemonSpec) error {
	if p.dex == nil {
		return nil
	}
	if _, ok := p.dex.Species(spec.Species); !ok {
		return fmt.Errorf("species %q: %w", spec.Species, battle.ErrMissingEntity)
	}
	for _, mv := range spec.Moves {
		if _, ok := p.dex.Move(mv); !ok {
			return fmt.Errorf("move %q: %w", mv, battle.ErrMissingEntity)
		}
	}
	return nil
}

// parseHeadline splits the first line of a set into species and item.
// Handles "Species", "Species @ Item", "Nickname (Species)" and
// trailing gender markers.
func parseHeadline(line string) (species, item string) {
	if at := strings.Index(line, " @ "); at >= 0 {
		item = strings.TrimSpace(line[at+3:])
		line = strings.TrimSpace(line[:at])
	}

	// strip gender marker
	for _, g := range []string{"(M)", "(F)"} {
		line = strings.TrimSpace(strings.TrimSuffix(line, g))
	}

	// nickname form keeps the species in the last parens group
	if strings.HasSuffix(line, ")") {
		if open := strings.LastIndex(line, "("); open >= 0 {
			line = line[open+1 : len(line)-1]
		}
	}

	return strings.TrimSpace(line), item
}

func parseTeamHeader(line string) string {
	name := strings.Trim(line, "= ")
	// drop the "[format]" prefix when present
	if strings.HasPrefix(name, "[") {
		if close := strings.Index(name, "]"); close >= 0 {
			name = name[close+1:]
		}
	}
	return strings.TrimSpace(name)
}

func splitBlocks(text string) [][]string {
	blocks := [][]string{}
	var cur []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			if len(cur) > 0 {
				blocks = append(blocks, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}
