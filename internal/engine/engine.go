// Package engine ties the battle model together: it creates battles,
// generates legal actions, evaluates candidates through the calculator
// and advances turns. Every entry point gates on the format registry;
// unsupported formats fail closed before any engine logic runs.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/calc"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/rng"
)

// Engine is safe for concurrent use across battles: it holds only the
// immutable dex tables and the format registry. Each battle owns its
// own BattleState and nothing is shared between them.
type Engine struct {
	dex     *dex.Dex
	formats *dex.FormatRegistry
	log     *slog.Logger
}

// New builds an engine over the given dex and format registry.
func New(d *dex.Dex, formats *dex.FormatRegistry, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{dex: d, formats: formats, log: log}
}

// Dex exposes the engine's data tables.
func (e *Engine) Dex() *dex.Dex { return e.dex }

// Format resolves the format of a state, failing closed on unknown
// names.
func (e *Engine) Format(st *battle.BattleState) (dex.Format, error) {
	return e.formats.Get(st.Format)
}

// NewBattle builds the initial BattleState for two teams under a
// format. A zero seed asks for a crypto-random one. Banned species,
// moves, items and abilities are rejected up front.
func (e *Engine) NewBattle(format string, seed int64, teams [2][]dex.PokemonSpec) (*battle.BattleState, error) {
	f, err := e.formats.Get(format)
	if err != nil {
		return nil, err
	}
	if seed == 0 {
		if seed, err = rng.NewSeed(); err != nil {
			return nil, err
		}
	}

	st := &battle.BattleState{
		Format: f.Name,
		Turn:   1,
		Phase:  battle.PhaseBattle,
		Seed:   seed,
	}
	for i, specs := range teams {
		if len(specs) == 0 || len(specs) > f.TeamSize {
			return nil, fmt.Errorf("team %d size %d: %w", i+1, len(specs), battle.ErrInvalidAction)
		}
		side := battle.Side{ID: fmt.Sprintf("p%d", i+1)}
		for _, spec := range specs {
			if err := checkLegality(f, spec); err != nil {
				return nil, err
			}
			p, err := e.dex.NewPokemon(spec)
			if err != nil {
				return nil, err
			}
			if !f.TeraAllowed {
				p.Tera = battle.TeraRecord{}
			}
			side.Team = append(side.Team, p)
		}
		st.Sides[i] = side
	}

	applyLeadAbilities(st, rng.New(seed))

	e.log.Info("battle created",
		"format", f.Name,
		"formatHash", f.Hash(),
		"seed", seed,
		"p1Lead", st.Sides[0].Team[0].Species,
		"p2Lead", st.Sides[1].Team[0].Species,
	)
	return st, nil
}

func checkLegality(f dex.Format, spec dex.PokemonSpec) error {
	if f.PokemonBanned(spec.Species) {
		return fmt.Errorf("species %q banned in %s: %w", spec.Species, f.Name, battle.ErrInvalidAction)
	}
	if spec.Item != "" && f.ItemBanned(spec.Item) {
		return fmt.Errorf("item %q banned in %s: %w", spec.Item, f.Name, battle.ErrInvalidAction)
	}
	if spec.Ability != "" && f.AbilityBanned(spec.Ability) {
		return fmt.Errorf("ability %q banned in %s: %w", spec.Ability, f.Name, battle.ErrInvalidAction)
	}
	for _, mv := range spec.Moves {
		if f.MoveBanned(mv) {
			return fmt.Errorf("move %q banned in %s: %w", mv, f.Name, battle.ErrInvalidAction)
		}
	}
	return nil
}

// applyLeadAbilities fires switch-in abilities for both leads at
// battle start, faster side first, speed ties by random draw.
func applyLeadAbilities(st *battle.BattleState, r *rng.RNG) {
	order := []int{0, 1}
	s0 := calc.EffectiveSpeed(st.Sides[0].Active(), &st.Sides[0], st.Field.Weather.Kind)
	s1 := calc.EffectiveSpeed(st.Sides[1].Active(), &st.Sides[1], st.Field.Weather.Kind)
	if s1 > s0 || (s1 == s0 && r.CoinFlip()) {
		order = []int{1, 0}
	}
	res := &resolver{st: st, r: r}
	for _, side := range order {
		res.applySwitchInAbility(side, st.Sides[side].Active())
	}
}

// LegalActions generates the candidate sequence for one side under the
// battle's format.
func (e *Engine) LegalActions(st *battle.BattleState, side int) ([]battle.Candidate, error) {
	f, err := e.Format(st)
	if err != nil {
		return nil, err
	}
	return LegalActions(st, side, f)
}

// Evaluate scores candidate actions for one side. Uncomputable
// candidates degrade to zero-valued results; the batch never aborts.
func (e *Engine) Evaluate(st *battle.BattleState, side int, actions []battle.Action, beliefs *calc.Beliefs) ([]calc.Result, error) {
	if _, err := e.Format(st); err != nil {
		return nil, err
	}
	return calc.EvaluateAll(st, side, actions, beliefs), nil
}

// Advance applies both sides' chosen actions and returns the next
// state. Invalid actions are fatal to the battle instance here: they
// would corrupt the replay log if skipped silently.
func (e *Engine) Advance(st *battle.BattleState, actions [2]battle.Action) (*battle.BattleState, error) {
	f, err := e.Format(st)
	if err != nil {
		return nil, err
	}
	next, err := resolveTurn(st, actions, f)
	if err != nil {
		e.log.Error("turn resolution failed",
			"format", st.Format,
			"turn", st.Turn,
			"error", err,
		)
		return nil, err
	}
	e.log.Debug("turn advanced",
		"format", next.Format,
		"turn", next.Turn,
		"p1Action", actions[0].String(),
		"p2Action", actions[1].String(),
		"logEntries", len(next.Log),
	)
	return next, nil
}
