package streaming

import (
	"encoding/json"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartBattle = "start_battle"
	TypeEndBattle   = "end_battle"
	TypeTurn        = "turn"
	TypeEffect      = "effect"
	TypeCalc        = "calc"
	TypeSummary     = "summary"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}
