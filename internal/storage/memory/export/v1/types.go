// Package v1 contains the v1 replay format for recorded battles.
// This format is what the replay review frontend consumes.
package v1

// Replay is the root JSON structure for v1 format
type Replay struct {
	FormatVersion int           `json:"formatVersion"` // always 1
	EngineVersion string        `json:"engineVersion"`
	Format        string        `json:"format"`
	FormatHash    string        `json:"formatHash"`
	Seed          int64         `json:"seed"`
	Tag           string        `json:"tag,omitempty"`
	StartTime     string        `json:"startTime"`
	EndTime       string        `json:"endTime,omitempty"`
	Teams         [2][]TeamSlot `json:"teams"`
	Turns         []Turn        `json:"turns"`
	Timeline      [][]any       `json:"timeline"`
	Summary       any           `json:"summary,omitempty"`
	Winner        string        `json:"winner,omitempty"`
	TurnCount     int           `json:"turnCount"`
}

// TeamSlot is one team member as brought to the battle
type TeamSlot struct {
	Species  string   `json:"species"`
	Level    int      `json:"level,omitempty"`
	Ability  string   `json:"ability,omitempty"`
	Item     string   `json:"item,omitempty"`
	TeraType string   `json:"teraType,omitempty"`
	Moves    []string `json:"moves"`
}

// Turn is one resolved turn: the submitted actions plus the post-turn
// state snapshot
type Turn struct {
	Turn    int       `json:"turn"`
	Actions [2]string `json:"actions"`
	State   any       `json:"state,omitempty"`
}
