// pkg/core/battle.go
package core

import (
	"time"

	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/calc"
	"github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/dex"
)

// BattleInfo identifies a battle being recorded
type BattleInfo struct {
	ID        string               `json:"id"`
	Format    dex.Format           `json:"format"`
	Seed      int64                `json:"seed"`
	Teams     [2][]dex.PokemonSpec `json:"teams"`
	Tag       string               `json:"tag,omitempty"`
	StartTime time.Time            `json:"startTime"`
}

// TurnInfo carries one resolved turn: the submitted actions and the
// post-resolution state snapshot
type TurnInfo struct {
	BattleID string              `json:"battleId"`
	Turn     int                 `json:"turn"`
	Actions  [2]battle.Action    `json:"actions"`
	State    *battle.BattleState `json:"state"`
}

// EffectInfo is one effect-log entry with its position within the turn
type EffectInfo struct {
	BattleID string        `json:"battleId"`
	Seq      int           `json:"seq"`
	Effect   battle.Effect `json:"effect"`
}

// CalcInfo is one pre-turn evaluation result
type CalcInfo struct {
	BattleID string      `json:"battleId"`
	Turn     int         `json:"turn"`
	Side     int         `json:"side"`
	Result   calc.Result `json:"result"`
	Chosen   bool        `json:"chosen"`
}

// SummaryInfo is a per-battle aggregate derived from the effect log
type SummaryInfo struct {
	BattleID      string                    `json:"battleId"`
	Winner        string                    `json:"winner"`
	TurnCount     int                       `json:"turnCount"`
	DamageP1      int                       `json:"damageP1"`
	DamageP2      int                       `json:"damageP2"`
	FaintsP1      int                       `json:"faintsP1"`
	FaintsP2      int                       `json:"faintsP2"`
	MoveUsage     map[string]map[string]int `json:"moveUsage"`
	StatusUptime  map[string]int            `json:"statusUptime"`
	HazardDamage  int                       `json:"hazardDamage"`
	ResidualKills int                       `json:"residualKills"`
}

// BattleResult finalizes a recorded battle
type BattleResult struct {
	BattleID string    `json:"battleId"`
	Winner   string    `json:"winner"`
	Turns    int       `json:"turns"`
	EndTime  time.Time `json:"endTime"`
}

// UploadMetadata describes an exported replay for upload
type UploadMetadata struct {
	FormatName     string  `json:"formatName"`
	BattleID       string  `json:"battleId"`
	Winner         string  `json:"winner"`
	TurnCount      int     `json:"turnCount"`
	BattleDuration float64 `json:"battleDuration"`
	Tag            string  `json:"tag,omitempty"`
}
