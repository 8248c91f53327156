package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/config"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/core"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/pkg/streaming"
)

// Backend streams battle data over WebSocket to a spectator/replay server.
// It implements storage.Backend but not storage.Uploadable.
type Backend struct {
	conn *connection
	cfg  config.WebsocketConfig
}

// New creates a new WebSocket storage backend.
func New(cfg config.WebsocketConfig) *Backend {
	return &Backend{
		conn: newConnection(slog.Default()),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Token)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// sendEnvelopeAndWait marshals the payload and waits for a server ack.
func (b *Backend) sendEnvelopeAndWait(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	return b.conn.sendAndWait(data, msgType, ackTimeout)
}

// StartBattle sends the battle header and waits for server ack.
func (b *Backend) StartBattle(info *core.BattleInfo) error {
	data, err := marshalEnvelope(streaming.TypeStartBattle, info)
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	b.conn.mu.Lock()
	b.conn.cachedStartMsg = data
	b.conn.mu.Unlock()

	return b.conn.sendAndWait(data, streaming.TypeStartBattle, ackTimeout)
}

// EndBattle sends end_battle and waits for server ack.
func (b *Backend) EndBattle(r *core.BattleResult) error {
	err := b.sendEnvelopeAndWait(streaming.TypeEndBattle, r)

	// Clear cached state regardless of error.
	b.conn.mu.Lock()
	b.conn.cachedStartMsg = nil
	b.conn.mu.Unlock()

	return err
}

func (b *Backend) RecordTurn(t *core.TurnInfo) error {
	return b.sendEnvelope(streaming.TypeTurn, t)
}

func (b *Backend) RecordEffect(e *core.EffectInfo) error {
	return b.sendEnvelope(streaming.TypeEffect, e)
}

func (b *Backend) RecordCalc(c *core.CalcInfo) error {
	return b.sendEnvelope(streaming.TypeCalc, c)
}

func (b *Backend) RecordSummary(s *core.SummaryInfo) error {
	return b.sendEnvelope(streaming.TypeSummary, s)
}
