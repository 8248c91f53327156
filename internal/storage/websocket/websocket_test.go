package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/calc"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/config"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/streaming"
)

// testServer creates an httptest server that upgrades to WebSocket,
// records received messages, and sends acks for start_battle/end_battle.
func testServer(t *testing.T) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			// Ack start_battle and end_battle.
			if env.Type == streaming.TypeStartBattle || env.Type == streaming.TypeEndBattle {
				ack := streaming.AckMessage{Type: "ack", For: env.Type}
				data, _ := json.Marshal(ack)
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
		}
	}))

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testInfo(t *testing.T) *core.BattleInfo {
	t.Helper()
	reg := dex.NewFormatRegistry()
	f, err := reg.Get("gen9ou")
	require.NoError(t, err)
	return &core.BattleInfo{ID: "b-1", Format: f, Seed: 5, StartTime: time.Now()}
}

func TestStartAndEndBattle(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(config.WebsocketConfig{URL: wsURL(srv), Token: "test"})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartBattle(testInfo(t)))
	require.NoError(t, b.EndBattle(&core.BattleResult{BattleID: "b-1", Winner: "p1", Turns: 3}))

	msgs := ml.all()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, streaming.TypeStartBattle, msgs[0].Type)
	assert.Equal(t, streaming.TypeEndBattle, msgs[len(msgs)-1].Type)
}

func TestFireAndForgetMessages(t *testing.T) {
	srv, ml := testServer(t)
	defer srv.Close()

	b := New(config.WebsocketConfig{URL: wsURL(srv), Token: "s"})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartBattle(testInfo(t)))

	require.NoError(t, b.RecordTurn(&core.TurnInfo{
		BattleID: "b-1",
		Turn:     1,
		State:    &battle.BattleState{Turn: 2},
	}))
	require.NoError(t, b.RecordEffect(&core.EffectInfo{
		BattleID: "b-1",
		Effect:   battle.Effect{Turn: 1, Kind: battle.EffectDamage, Amount: 50},
	}))
	require.NoError(t, b.RecordCalc(&core.CalcInfo{
		BattleID: "b-1",
		Turn:     1,
		Result:   calc.Result{OK: true},
	}))

	require.NoError(t, b.EndBattle(&core.BattleResult{BattleID: "b-1"}))

	// Give a moment for all messages to arrive at server.
	time.Sleep(50 * time.Millisecond)

	msgs := ml.all()

	types := make(map[string]int)
	for _, m := range msgs {
		types[m.Type]++
	}

	assert.Equal(t, 1, types[streaming.TypeStartBattle])
	assert.Equal(t, 1, types[streaming.TypeEndBattle])
	assert.Equal(t, 1, types[streaming.TypeTurn])
	assert.Equal(t, 1, types[streaming.TypeEffect])
	assert.Equal(t, 1, types[streaming.TypeCalc])
}

func TestEnvelopeSerialization(t *testing.T) {
	payload := core.EffectInfo{
		BattleID: "b-9",
		Seq:      4,
		Effect:   battle.Effect{Turn: 2, Kind: battle.EffectHeal, Amount: 25},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	env := streaming.Envelope{Type: streaming.TypeEffect, Payload: raw}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded streaming.Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, streaming.TypeEffect, decoded.Type)

	var ei core.EffectInfo
	require.NoError(t, json.Unmarshal(decoded.Payload, &ei))
	assert.Equal(t, "b-9", ei.BattleID)
	assert.Equal(t, 25, ei.Effect.Amount)
}

func TestAckTimeout(t *testing.T) {
	// Server that never acks.
	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	b := New(config.WebsocketConfig{URL: wsURL(srv), Token: "s"})
	require.NoError(t, b.Init())
	defer b.Close()

	err := b.conn.sendAndWait([]byte(`{"type":"turn","payload":{}}`), streaming.TypeTurn, 50*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout waiting for ack")
}
