package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	d, err := dex.New()
	require.NoError(t, err)
	return New(d, dex.NewFormatRegistry(), nil)
}

func newBattle(t *testing.T, e *Engine, seed int64, p1, p2 []dex.PokemonSpec) *battle.BattleState {
	t.Helper()
	st, err := e.NewBattle("gen9ou", seed, [2][]dex.PokemonSpec{p1, p2})
	require.NoError(t, err)
	return st
}

func move(id string) battle.Action {
	return battle.Action{Type: battle.ActionMove, MoveID: id}
}

func TestNewBattleUnknownFormatFailsClosed(t *testing.T) {
	e := newEngine(t)
	_, err := e.NewBattle("gen3randombattle", 1, [2][]dex.PokemonSpec{
		{{Species: "garchomp"}},
		{{Species: "heatran"}},
	})
	assert.ErrorIs(t, err, battle.ErrUnsupportedFormat)
}

func TestNewBattleRejectsBannedMove(t *testing.T) {
	e := newEngine(t)
	_, err := e.NewBattle("gen9ou", 1, [2][]dex.PokemonSpec{
		{{Species: "garchomp", Moves: []string{"lastrespects"}}},
		{{Species: "heatran"}},
	})
	assert.ErrorIs(t, err, battle.ErrInvalidAction)
}

func TestAdvanceGatesOnFormat(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		7,
		[]dex.PokemonSpec{{Species: "garchomp", Moves: []string{"earthquake"}}},
		[]dex.PokemonSpec{{Species: "heatran", Moves: []string{"flamethrower"}}},
	)
	st.Format = "notaformat"
	_, err := e.Advance(st, [2]battle.Action{move("earthquake"), move("flamethrower")})
	assert.ErrorIs(t, err, battle.ErrUnsupportedFormat)

	_, err = e.Evaluate(st, 0, []battle.Action{move("earthquake")}, nil)
	assert.ErrorIs(t, err, battle.ErrUnsupportedFormat)

	_, err = e.LegalActions(st, 0)
	assert.ErrorIs(t, err, battle.ErrUnsupportedFormat)
}

func TestAdvanceIsDeterministicPerSeed(t *testing.T) {
	run := func() []byte {
		e := newEngine(t)
		st := newBattle(t, e,
			1234,
			[]dex.PokemonSpec{{Species: "dragapult", Moves: []string{"dragondarts", "shadowball"}}},
			[]dex.PokemonSpec{{Species: "garchomp", Moves: []string{"earthquake", "stoneedge"}}},
		)
		var err error
		for i := 0; i < 4 && !st.Finished(); i++ {
			st, err = e.Advance(st, [2]battle.Action{move("dragondarts"), move("earthquake")})
			require.NoError(t, err)
		}
		raw, err := json.Marshal(st)
		require.NoError(t, err)
		return raw
	}
	assert.Equal(t, run(), run())
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		5,
		[]dex.PokemonSpec{{Species: "dragapult", Moves: []string{"shadowball"}}},
		[]dex.PokemonSpec{{Species: "blissey", Moves: []string{"softboiled"}}},
	)
	before, err := json.Marshal(st)
	require.NoError(t, err)

	_, err = e.Advance(st, [2]battle.Action{move("shadowball"), move("softboiled")})
	require.NoError(t, err)

	after, err := json.Marshal(st)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSwitchResolvesBeforeMove(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		11,
		[]dex.PokemonSpec{
			{Species: "blissey", Moves: []string{"softboiled"}},
			{Species: "corviknight", Moves: []string{"roost"}},
		},
		[]dex.PokemonSpec{{Species: "dragapult", Moves: []string{"shadowball"}}},
	)
	next, err := e.Advance(st, [2]battle.Action{
		{Type: battle.ActionSwitch, SwitchTo: 1},
		move("shadowball"),
	})
	require.NoError(t, err)

	// The switch happened first even though Dragapult is far faster.
	var kinds []string
	for _, entry := range next.Log {
		kinds = append(kinds, entry.Kind)
	}
	require.NotEmpty(t, kinds)
	assert.Equal(t, battle.EffectSwitch, kinds[0])
	// Shadow Ball then hit the incoming Corviknight.
	assert.Equal(t, "corviknight", next.Sides[0].Active().Species)
	assert.Less(t, next.Sides[0].Active().HP, next.Sides[0].Active().MaxHP)
}

func TestPriorityBeatsSpeed(t *testing.T) {
	e := newEngine(t)
	// Kingambit (136 Spe) holds Sucker Punch; Dragapult (333 Spe) has
	// a normal-priority move.
	st := newBattle(t, e,
		21,
		[]dex.PokemonSpec{{Species: "kingambit", Moves: []string{"suckerpunch"}}},
		[]dex.PokemonSpec{{Species: "dragapult", Moves: []string{"dragondarts"}}},
	)
	next, err := e.Advance(st, [2]battle.Action{move("suckerpunch"), move("dragondarts")})
	require.NoError(t, err)

	var firstMove battle.Effect
	for _, entry := range next.Log {
		if entry.Kind == battle.EffectMove {
			firstMove = entry
			break
		}
	}
	assert.Equal(t, "suckerpunch", firstMove.Move)
}

func TestTrickRoomInvertsOrder(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		31,
		[]dex.PokemonSpec{{Species: "ferrothorn", Moves: []string{"powerwhip"}}}, // 58 Spe
		[]dex.PokemonSpec{{Species: "dragapult", Moves: []string{"dragondarts"}}},
	)
	st.Sides[0].Conditions.TrickRoom = 5

	next, err := e.Advance(st, [2]battle.Action{move("powerwhip"), move("dragondarts")})
	require.NoError(t, err)

	var firstMove battle.Effect
	for _, entry := range next.Log {
		if entry.Kind == battle.EffectMove {
			firstMove = entry
			break
		}
	}
	assert.Equal(t, "powerwhip", firstMove.Move)
}

func TestFaintedTargetConvertsToNoOp(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		41,
		[]dex.PokemonSpec{
			{Species: "blissey", Moves: []string{"softboiled"}},
			{Species: "pikachu", Moves: []string{"thunderbolt"}},
		},
		[]dex.PokemonSpec{{Species: "garchomp", Moves: []string{"earthquake"}}},
	)
	// The incoming Pikachu dies to hazards before Garchomp's queued
	// Earthquake resolves.
	st.Sides[0].Hazards.StealthRock = true
	st.Sides[0].Team[1].HP = 5

	next, err := e.Advance(st, [2]battle.Action{
		{Type: battle.ActionSwitch, SwitchTo: 1},
		move("earthquake"),
	})
	require.NoError(t, err)

	assert.True(t, next.Sides[0].Active().Fainted())
	var sawNoOp bool
	for _, entry := range next.Log {
		if entry.Kind == battle.EffectNoOp && entry.Detail == "target fainted" {
			sawNoOp = true
		}
	}
	assert.True(t, sawNoOp, "queued move against fainted target must become a no-op")
	require.NoError(t, next.Validate())
}

func TestFaintedActiveForcesSwitchOnlyActions(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		43,
		[]dex.PokemonSpec{
			{Species: "pikachu", Moves: []string{"thunderbolt"}},
			{Species: "blissey", Moves: []string{"softboiled"}},
		},
		[]dex.PokemonSpec{{Species: "garchomp", Moves: []string{"earthquake"}}},
	)
	st.Sides[0].Team[0].ApplyDamage(10_000)

	cands, err := e.LegalActions(st, 0)
	require.NoError(t, err)
	for _, c := range cands {
		if !c.Disabled {
			assert.Equal(t, battle.ActionSwitch, c.Action.Type)
		}
	}
	assert.NotEmpty(t, EnabledActions(cands))
}

func TestChoiceLockOffersSingleMove(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		51,
		[]dex.PokemonSpec{
			{Species: "dragapult", Moves: []string{"dragondarts", "shadowball", "uturn"}, Item: "choiceband"},
			{Species: "blissey", Moves: []string{"softboiled"}},
		},
		[]dex.PokemonSpec{{Species: "corviknight", Moves: []string{"roost"}}},
	)
	next, err := e.Advance(st, [2]battle.Action{move("dragondarts"), move("roost")})
	require.NoError(t, err)

	cands, err := e.LegalActions(next, 0)
	require.NoError(t, err)
	var enabledMoves []string
	for _, c := range cands {
		if c.Action.Type == battle.ActionMove && !c.Disabled {
			enabledMoves = append(enabledMoves, c.Action.MoveID)
		}
		if c.Action.Type == battle.ActionMove && c.Disabled && c.Action.MoveID != "dragondarts" {
			assert.Equal(t, battle.VolatileChoiceLock, c.Reason)
		}
	}
	assert.Equal(t, []string{"dragondarts"}, enabledMoves)

	// Switching out clears the lock.
	next2, err := e.Advance(next, [2]battle.Action{
		{Type: battle.ActionSwitch, SwitchTo: 1},
		move("roost"),
	})
	require.NoError(t, err)
	next3, err := e.Advance(next2, [2]battle.Action{
		{Type: battle.ActionSwitch, SwitchTo: 0},
		move("roost"),
	})
	require.NoError(t, err)
	cands, err = e.LegalActions(next3, 0)
	require.NoError(t, err)
	enabledMoves = nil
	for _, c := range cands {
		if c.Action.Type == battle.ActionMove && !c.Disabled {
			enabledMoves = append(enabledMoves, c.Action.MoveID)
		}
	}
	assert.Equal(t, []string{"dragondarts", "shadowball", "uturn"}, enabledMoves)
}

func TestStruggleInjectedOnlyWhenNoPP(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		61,
		[]dex.PokemonSpec{{Species: "garchomp", Moves: []string{"earthquake", "stoneedge"}}},
		[]dex.PokemonSpec{{Species: "corviknight", Moves: []string{"roost"}}},
	)

	cands, err := e.LegalActions(st, 0)
	require.NoError(t, err)
	for _, c := range cands {
		assert.NotEqual(t, battle.Struggle.ID, c.Action.MoveID)
	}

	for i := range st.Sides[0].Team[0].Moves {
		st.Sides[0].Team[0].Moves[i].PP = 0
	}
	cands, err = e.LegalActions(st, 0)
	require.NoError(t, err)
	var hasStruggle bool
	for _, c := range cands {
		if c.Action.MoveID == battle.Struggle.ID {
			hasStruggle = true
			assert.False(t, c.Disabled)
		}
	}
	assert.True(t, hasStruggle)
}

func TestTeraIsOneTimeResource(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		71,
		[]dex.PokemonSpec{{Species: "dragapult", Moves: []string{"dragondarts"}, TeraType: "Dragon"}},
		[]dex.PokemonSpec{{Species: "blissey", Moves: []string{"softboiled"}}},
	)
	next, err := e.Advance(st, [2]battle.Action{
		{Type: battle.ActionTera, MoveID: "dragondarts", TeraType: "Dragon"},
		move("softboiled"),
	})
	require.NoError(t, err)

	p := next.Sides[0].Active()
	assert.True(t, p.Tera.Used)
	assert.False(t, p.Tera.Available)
	require.NoError(t, next.Validate())

	cands, err := e.LegalActions(next, 0)
	require.NoError(t, err)
	for _, c := range cands {
		if c.Action.Type == battle.ActionTera {
			assert.True(t, c.Disabled)
			assert.Equal(t, ReasonTeraUsed, c.Reason)
		}
	}

	_, err = e.Advance(next, [2]battle.Action{
		{Type: battle.ActionTera, MoveID: "dragondarts", TeraType: "Dragon"},
		move("softboiled"),
	})
	assert.ErrorIs(t, err, battle.ErrInvalidAction)
}

func TestTeraDisabledInNoTeraFormat(t *testing.T) {
	e := newEngine(t)
	st, err := e.NewBattle("gen9noterastal", 3, [2][]dex.PokemonSpec{
		{{Species: "dragapult", Moves: []string{"dragondarts"}, TeraType: "Dragon"}},
		{{Species: "blissey", Moves: []string{"softboiled"}}},
	})
	require.NoError(t, err)
	assert.False(t, st.Sides[0].Team[0].Tera.Available)
}

func TestHazardsApplyOnSwitchIn(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		81,
		[]dex.PokemonSpec{
			{Species: "blissey", Moves: []string{"softboiled"}},
			{Species: "garchomp", Moves: []string{"earthquake"}},
		},
		[]dex.PokemonSpec{{Species: "corviknight", Moves: []string{"roost"}}},
	)
	st.Sides[0].Hazards.StealthRock = true
	st.Sides[0].Hazards.Spikes = 3

	next, err := e.Advance(st, [2]battle.Action{
		{Type: battle.ActionSwitch, SwitchTo: 1},
		move("roost"),
	})
	require.NoError(t, err)

	chomp := next.Sides[0].Active()
	require.Equal(t, "garchomp", chomp.Species)
	// 6.25% rock (Ground resists) + 25% spikes
	chip := int(float64(chomp.MaxHP) * 0.3125)
	assert.Equal(t, chomp.MaxHP-chip, chomp.HP)
}

func TestIntimidateFiresOnSwitchIn(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		91,
		[]dex.PokemonSpec{
			{Species: "blissey", Moves: []string{"softboiled"}},
			{Species: "gyarados", Moves: []string{"aquajet"}, Ability: "intimidate"},
		},
		[]dex.PokemonSpec{{Species: "garchomp", Moves: []string{"earthquake"}}},
	)
	next, err := e.Advance(st, [2]battle.Action{
		{Type: battle.ActionSwitch, SwitchTo: 1},
		move("earthquake"),
	})
	require.NoError(t, err)
	assert.Equal(t, -1, next.Sides[1].Active().Boosts.Atk)
}

func TestWeatherSetterLeadsStartPermanentWeather(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		101,
		[]dex.PokemonSpec{{Species: "pelipper", Moves: []string{"hurricane"}}},
		[]dex.PokemonSpec{{Species: "blissey", Moves: []string{"softboiled"}}},
	)
	assert.Equal(t, battle.WeatherRain, st.Field.Weather.Kind)
	assert.True(t, st.Field.Weather.Permanent)
}

func TestBattleEndsWhenSideIsOut(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		111,
		[]dex.PokemonSpec{{Species: "greattusk", Moves: []string{"closecombat"}}},
		[]dex.PokemonSpec{{Species: "pikachu", Moves: []string{"quickattack"}}},
	)
	st.Sides[1].Team[0].HP = 1

	next, err := e.Advance(st, [2]battle.Action{move("closecombat"), move("quickattack")})
	require.NoError(t, err)

	assert.True(t, next.Finished())
	assert.Equal(t, battle.PhaseFinished, next.Phase)
	assert.Equal(t, "p1", next.Winner)
	last := next.Log[len(next.Log)-1]
	assert.Equal(t, battle.EffectEnd, last.Kind)

	_, err = e.Advance(next, [2]battle.Action{move("closecombat"), move("quickattack")})
	assert.ErrorIs(t, err, battle.ErrInvalidAction)
}

func TestStateRoundTripsThroughJSON(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		121,
		[]dex.PokemonSpec{{Species: "garchomp", Moves: []string{"stealthrock", "earthquake"}}},
		[]dex.PokemonSpec{{Species: "toxapex", Moves: []string{"toxic", "recover"}}},
	)
	next, err := e.Advance(st, [2]battle.Action{move("stealthrock"), move("toxic")})
	require.NoError(t, err)

	raw, err := json.Marshal(next)
	require.NoError(t, err)
	var back battle.BattleState
	require.NoError(t, json.Unmarshal(raw, &back))

	again, err := json.Marshal(&back)
	require.NoError(t, err)
	assert.Equal(t, raw, again)
}

func TestInvalidActionIsFatalToAdvance(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		131,
		[]dex.PokemonSpec{{Species: "garchomp", Moves: []string{"earthquake"}}},
		[]dex.PokemonSpec{{Species: "blissey", Moves: []string{"softboiled"}}},
	)
	_, err := e.Advance(st, [2]battle.Action{move("surf"), move("softboiled")})
	assert.ErrorIs(t, err, battle.ErrInvalidAction)

	_, err = e.Advance(st, [2]battle.Action{
		{Type: battle.ActionSwitch, SwitchTo: 3},
		move("softboiled"),
	})
	assert.ErrorIs(t, err, battle.ErrInvalidAction)
}

func TestFocusSashHoldsOnFromFullHP(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		141,
		[]dex.PokemonSpec{{Species: "garchomp", Moves: []string{"earthquake"}}},
		[]dex.PokemonSpec{{Species: "heatran", Moves: []string{"flamethrower"}, Item: "focussash"}},
	)
	// Shrink the target so every roll is lethal without the sash.
	tran := st.Sides[1].Active()
	tran.MaxHP, tran.HP = 80, 80

	next, err := e.Advance(st, [2]battle.Action{move("earthquake"), move("flamethrower")})
	require.NoError(t, err)

	tran = next.Sides[1].Active()
	assert.Equal(t, 1, tran.HP)
	assert.Empty(t, tran.Item)
	var consumed bool
	for _, entry := range next.Log {
		if entry.Kind == battle.EffectItem && entry.Detail == "focussash" {
			consumed = true
		}
	}
	assert.True(t, consumed)

	// No longer at full HP, so the next hit connects normally.
	next, err = e.Advance(next, [2]battle.Action{move("earthquake"), move("flamethrower")})
	require.NoError(t, err)
	assert.True(t, next.Sides[1].Team[0].Fainted())
}

func TestSturdySurvivesFromFullHP(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		151,
		[]dex.PokemonSpec{{Species: "garchomp", Moves: []string{"earthquake"}}},
		[]dex.PokemonSpec{{Species: "heatran", Moves: []string{"flamethrower"}, Ability: "sturdy"}},
	)
	tran := st.Sides[1].Active()
	tran.MaxHP, tran.HP = 80, 80

	next, err := e.Advance(st, [2]battle.Action{move("earthquake"), move("flamethrower")})
	require.NoError(t, err)

	tran = next.Sides[1].Active()
	assert.Equal(t, 1, tran.HP)
	var held bool
	for _, entry := range next.Log {
		if entry.Kind == battle.EffectAbility && entry.Detail == "sturdy" {
			held = true
		}
	}
	assert.True(t, held)
}

func TestSleepClauseBlocksSecondSleep(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		161,
		[]dex.PokemonSpec{{Species: "blissey", Moves: []string{"spore"}}},
		[]dex.PokemonSpec{
			{Species: "heatran", Moves: []string{"flamethrower"}},
			{Species: "toxapex", Moves: []string{"recover"}},
		},
	)
	// A benched team member is already asleep.
	st.Sides[1].Team[1].Status = battle.StatusSleep

	next, err := e.Advance(st, [2]battle.Action{move("spore"), move("flamethrower")})
	require.NoError(t, err)

	assert.Equal(t, battle.StatusNone, next.Sides[1].Active().Status)
	var blocked bool
	for _, entry := range next.Log {
		if entry.Kind == battle.EffectNoOp && entry.Detail == "sleep clause" {
			blocked = true
		}
	}
	assert.True(t, blocked)

	// Without a sleeping teammate the same move lands.
	st2 := newBattle(t, e,
		161,
		[]dex.PokemonSpec{{Species: "blissey", Moves: []string{"spore"}}},
		[]dex.PokemonSpec{
			{Species: "heatran", Moves: []string{"flamethrower"}},
			{Species: "toxapex", Moves: []string{"recover"}},
		},
	)
	next2, err := e.Advance(st2, [2]battle.Action{move("spore"), move("flamethrower")})
	require.NoError(t, err)
	assert.Equal(t, battle.StatusSleep, next2.Sides[1].Active().Status)
}

func TestElectricTerrainPreventsSleepWhenGrounded(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		171,
		[]dex.PokemonSpec{{Species: "blissey", Moves: []string{"spore"}}},
		[]dex.PokemonSpec{{Species: "heatran", Moves: []string{"flamethrower"}}},
	)
	st.Field.Terrain = battle.Terrain{Kind: battle.TerrainElectric, Turns: 5}

	next, err := e.Advance(st, [2]battle.Action{move("spore"), move("flamethrower")})
	require.NoError(t, err)
	assert.Equal(t, battle.StatusNone, next.Sides[1].Active().Status)

	// Airborne targets are outside the terrain.
	st2 := newBattle(t, e,
		171,
		[]dex.PokemonSpec{{Species: "blissey", Moves: []string{"spore"}}},
		[]dex.PokemonSpec{{Species: "corviknight", Moves: []string{"roost"}}},
	)
	st2.Field.Terrain = battle.Terrain{Kind: battle.TerrainElectric, Turns: 5}
	next2, err := e.Advance(st2, [2]battle.Action{move("spore"), move("roost")})
	require.NoError(t, err)
	assert.Equal(t, battle.StatusSleep, next2.Sides[1].Active().Status)
}

func TestMistyTerrainBlocksStatusWhenGrounded(t *testing.T) {
	e := newEngine(t)
	st := newBattle(t, e,
		181,
		[]dex.PokemonSpec{{Species: "blissey", Moves: []string{"spore"}}},
		[]dex.PokemonSpec{{Species: "heatran", Moves: []string{"flamethrower"}}},
	)
	st.Field.Terrain = battle.Terrain{Kind: battle.TerrainMisty, Turns: 5}

	next, err := e.Advance(st, [2]battle.Action{move("spore"), move("flamethrower")})
	require.NoError(t, err)

	assert.Equal(t, battle.StatusNone, next.Sides[1].Active().Status)
	var blocked bool
	for _, entry := range next.Log {
		if entry.Kind == battle.EffectNoOp && entry.Detail == "misty terrain prevents status" {
			blocked = true
		}
	}
	assert.True(t, blocked)
}
