package handlers

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/cache"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dispatcher"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/engine"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/logging"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/storage"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"
)

// mockBackend implements storage.Backend for testing
type mockBackend struct {
	battleStarted bool
	battleEnded   bool
	startedInfo   *core.BattleInfo
	endedResult   *core.BattleResult
	turns         []*core.TurnInfo
	effects       []*core.EffectInfo
	calcs         []*core.CalcInfo
	summary       *core.SummaryInfo
}

func (b *mockBackend) Init() error  { return nil }
func (b *mockBackend) Close() error { return nil }

func (b *mockBackend) StartBattle(info *core.BattleInfo) error {
	b.battleStarted = true
	b.startedInfo = info
	return nil
}

func (b *mockBackend) EndBattle(r *core.BattleResult) error {
	b.battleEnded = true
	b.endedResult = r
	return nil
}

func (b *mockBackend) RecordTurn(t *core.TurnInfo) error {
	b.turns = append(b.turns, t)
	return nil
}

func (b *mockBackend) RecordEffect(e *core.EffectInfo) error {
	b.effects = append(b.effects, e)
	return nil
}

func (b *mockBackend) RecordCalc(c *core.CalcInfo) error {
	b.calcs = append(b.calcs, c)
	return nil
}

func (b *mockBackend) RecordSummary(s *core.SummaryInfo) error {
	b.summary = s
	return nil
}

var _ storage.Backend = (*mockBackend)(nil)

func newTestZerolog() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	d, err := dex.New()
	require.NoError(t, err)

	logManager := logging.NewSlogManager()

	deps := Dependencies{
		Engine:        engine.New(d, dex.NewFormatRegistry(), nil),
		Sessions:      cache.NewSessionCache(),
		LogManager:    logManager,
		EngineVersion: "1.0.0",
		DefaultTag:    "test",
	}
	return NewService(deps)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func startTestBattle(t *testing.T, svc *Service) string {
	t.Helper()

	req := NewBattleRequest{
		ID:     "b-1",
		Format: "gen9ou",
		Seed:   7,
		Teams: [2][]dex.PokemonSpec{
			{
				{Species: "gholdengo", Moves: []string{"shadowball", "nastyplot"}},
				{Species: "garchomp", Moves: []string{"earthquake"}},
			},
			{
				{Species: "kingambit", Moves: []string{"ironhead", "suckerpunch"}},
				{Species: "heatran", Moves: []string{"flamethrower"}},
			},
		},
	}
	resp, err := svc.NewBattle([]string{mustJSON(t, req)})
	require.NoError(t, err)
	require.Equal(t, "b-1", resp.ID)
	return resp.ID
}

func TestNewService(t *testing.T) {
	svc := newTestService(t)
	require.NotNil(t, svc)
	assert.Nil(t, svc.backend)
}

func TestSetBackend(t *testing.T) {
	svc := newTestService(t)

	backend := &mockBackend{}
	svc.SetBackend(backend)

	assert.NotNil(t, svc.backend)
}

func TestNewBattle(t *testing.T) {
	svc := newTestService(t)
	backend := &mockBackend{}
	svc.SetBackend(backend)

	id := startTestBattle(t, svc)

	st, ok := svc.deps.Sessions.Get(id)
	require.True(t, ok, "battle should be cached")
	assert.Equal(t, "gen9ou", st.Format)
	assert.Equal(t, 1, st.Turn)

	require.True(t, backend.battleStarted)
	assert.Equal(t, id, backend.startedInfo.ID)
	assert.Equal(t, int64(7), backend.startedInfo.Seed)
	assert.Equal(t, "test", backend.startedInfo.Tag, "empty tag should fall back to default")
}

func TestNewBattle_GeneratesID(t *testing.T) {
	svc := newTestService(t)

	req := NewBattleRequest{
		Format: "gen9ou",
		Seed:   3,
		Teams: [2][]dex.PokemonSpec{
			{{Species: "pikachu", Moves: []string{"thunderbolt"}}},
			{{Species: "gyarados", Moves: []string{"earthquake"}}},
		},
	}
	resp, err := svc.NewBattle([]string{mustJSON(t, req)})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
}

func TestNewBattle_BadJSON(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.NewBattle([]string{"{not json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse battle request")
}

func TestNewBattle_UnknownFormat(t *testing.T) {
	svc := newTestService(t)

	req := NewBattleRequest{
		Format: "gen3randombattle",
		Teams: [2][]dex.PokemonSpec{
			{{Species: "pikachu"}},
			{{Species: "gyarados"}},
		},
	}
	_, err := svc.NewBattle([]string{mustJSON(t, req)})
	assert.ErrorIs(t, err, battle.ErrUnsupportedFormat)
}

func TestLegalActions(t *testing.T) {
	svc := newTestService(t)
	id := startTestBattle(t, svc)

	cands, err := svc.LegalActions([]string{mustJSON(t, SideRequest{ID: id, Side: 0})})
	require.NoError(t, err)
	require.NotEmpty(t, cands)

	var hasMove bool
	for _, c := range cands {
		if c.Action.Type == battle.ActionMove && !c.Disabled {
			hasMove = true
		}
	}
	assert.True(t, hasMove, "expected at least one enabled move candidate")
}

func TestLegalActions_UnknownBattle(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.LegalActions([]string{mustJSON(t, SideRequest{ID: "missing", Side: 0})})
	assert.ErrorIs(t, err, battle.ErrMissingEntity)
}

func TestEvaluate_RecordsCalcs(t *testing.T) {
	svc := newTestService(t)
	backend := &mockBackend{}
	svc.SetBackend(backend)
	id := startTestBattle(t, svc)

	req := EvaluateRequest{
		ID:   id,
		Side: 0,
		Actions: []battle.Action{
			{Type: battle.ActionMove, MoveID: "shadowball"},
			{Type: battle.ActionSwitch, SwitchTo: 1},
		},
	}
	results, err := svc.Evaluate([]string{mustJSON(t, req)})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].OK)

	require.Len(t, backend.calcs, 2)
	assert.Equal(t, id, backend.calcs[0].BattleID)
	assert.Equal(t, 1, backend.calcs[0].Turn)
}

func TestAdvance_RecordsTurnAndEffects(t *testing.T) {
	svc := newTestService(t)
	backend := &mockBackend{}
	svc.SetBackend(backend)
	id := startTestBattle(t, svc)

	req := AdvanceRequest{
		ID: id,
		Actions: [2]battle.Action{
			{Type: battle.ActionMove, MoveID: "shadowball"},
			{Type: battle.ActionMove, MoveID: "ironhead"},
		},
	}
	next, err := svc.Advance([]string{mustJSON(t, req)})
	require.NoError(t, err)
	assert.Equal(t, 2, next.Turn)

	st, ok := svc.deps.Sessions.Get(id)
	require.True(t, ok)
	assert.Equal(t, next, st, "session should hold the advanced state")

	require.Len(t, backend.turns, 1)
	assert.Equal(t, 1, backend.turns[0].Turn)
	require.NotEmpty(t, backend.effects)
	assert.Equal(t, 0, backend.effects[0].Seq)
}

func TestAdvance_UnknownBattle(t *testing.T) {
	svc := newTestService(t)

	req := AdvanceRequest{ID: "missing"}
	_, err := svc.Advance([]string{mustJSON(t, req)})
	assert.ErrorIs(t, err, battle.ErrMissingEntity)
}

func TestGetState(t *testing.T) {
	svc := newTestService(t)
	id := startTestBattle(t, svc)

	st, err := svc.GetState([]string{mustJSON(t, SideRequest{ID: id})})
	require.NoError(t, err)
	assert.Equal(t, "gen9ou", st.Format)
}

func TestEndBattle(t *testing.T) {
	svc := newTestService(t)
	backend := &mockBackend{}
	svc.SetBackend(backend)
	id := startTestBattle(t, svc)

	err := svc.EndBattle([]string{mustJSON(t, SideRequest{ID: id})})
	require.NoError(t, err)

	_, ok := svc.deps.Sessions.Get(id)
	assert.False(t, ok, "battle should be dropped from sessions")
	assert.True(t, backend.battleEnded, "unfinished battle should close its trace")
	require.NotNil(t, backend.summary)
	assert.Equal(t, id, backend.summary.BattleID)
}

func TestEndBattle_UnknownBattle(t *testing.T) {
	svc := newTestService(t)

	err := svc.EndBattle([]string{mustJSON(t, SideRequest{ID: "missing"})})
	assert.ErrorIs(t, err, battle.ErrMissingEntity)
}

func TestRegisterHandlers(t *testing.T) {
	svc := newTestService(t)

	d, err := dispatcher.New(logging.NewDispatcherLogger(newTestZerolog()))
	require.NoError(t, err)

	svc.RegisterHandlers(d)

	for _, cmd := range []string{
		":NEW:BATTLE:", ":END:BATTLE:", ":LEGAL:ACTIONS:",
		":EVALUATE:", ":ADVANCE:", ":GET:STATE:",
	} {
		assert.True(t, d.HasHandler(cmd), "missing handler for %s", cmd)
	}
}

func TestDispatchRoundTrip(t *testing.T) {
	svc := newTestService(t)

	d, err := dispatcher.New(logging.NewDispatcherLogger(newTestZerolog()))
	require.NoError(t, err)
	svc.RegisterHandlers(d)

	req := NewBattleRequest{
		ID:     "b-d",
		Format: "gen9ou",
		Seed:   11,
		Teams: [2][]dex.PokemonSpec{
			{{Species: "pikachu", Moves: []string{"thunderbolt"}}},
			{{Species: "gyarados", Moves: []string{"earthquake"}}},
		},
	}
	result, err := d.Dispatch(dispatcher.Event{
		Command: ":NEW:BATTLE:",
		Args:    []string{mustJSON(t, req)},
	})
	require.NoError(t, err)

	resp, ok := result.(*NewBattleResponse)
	require.True(t, ok)
	assert.Equal(t, "b-d", resp.ID)
}
