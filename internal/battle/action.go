package battle

import "fmt"

// ActionType is the closed set of things a player can do in one turn.
// Every consumer switches exhaustively over these variants; an unknown
// variant is an InvalidAction, never a silent default.
type ActionType string

const (
	ActionMove    ActionType = "move"
	ActionSwitch  ActionType = "switch"
	ActionTera    ActionType = "tera"
	ActionMega    ActionType = "mega"
	ActionZMove   ActionType = "zmove"
	ActionDynamax ActionType = "dynamax"
	ActionPass    ActionType = "pass"
)

// Action is one proposed player action. The meaningful fields depend
// on Type: MoveID for move/tera/zmove variants, SwitchTo for switches.
type Action struct {
	Type     ActionType `json:"type"`
	MoveID   string     `json:"moveId,omitempty"`
	SwitchTo int        `json:"switchTo,omitempty"`
	TeraType string     `json:"teraType,omitempty"`
}

// String renders the action for logs.
func (a Action) String() string {
	switch a.Type {
	case ActionMove:
		return "move " + a.MoveID
	case ActionSwitch:
		return fmt.Sprintf("switch %d", a.SwitchTo)
	case ActionTera:
		return "tera " + a.MoveID
	case ActionMega:
		return "mega " + a.MoveID
	case ActionZMove:
		return "zmove " + a.MoveID
	case ActionDynamax:
		return "dynamax " + a.MoveID
	case ActionPass:
		return "pass"
	}
	return "unknown"
}

// Candidate is a generated action with its legality verdict. Disabled
// candidates stay in the sequence so callers can see why an action was
// excluded.
type Candidate struct {
	Action   Action `json:"action"`
	Disabled bool   `json:"disabled,omitempty"`
	Reason   string `json:"reason,omitempty"`
}
