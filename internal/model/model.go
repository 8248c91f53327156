package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&EngineInfo{},
	&Format{},
	&Battle{},
	&TurnRecord{},
	&EffectRecord{},
	&CalcRecord{},
	&BattleSummary{},
	&EnginePerformance{},
}

var DatabaseModelsSQLite = []interface{}{
	&EngineInfo{},
	&Format{},
	&Battle{},
	&TurnRecord{},
	&EffectRecord{},
	&CalcRecord{},
	&BattleSummary{},
	&EnginePerformance{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// EngineInfo contains identifying information about the engine instance
type EngineInfo struct {
	gorm.Model
	InstanceName  string `json:"instanceName" gorm:"size:127"`
	EngineVersion string `json:"engineVersion" gorm:"size:64"`
	DexVersion    string `json:"dexVersion" gorm:"size:64"`
}

func (*EngineInfo) TableName() string {
	return "engine_infos"
}

// EnginePerformance is the model for engine performance metrics
type EnginePerformance struct {
	Time                time.Time         `json:"time" gorm:"type:timestamptz;index:idx_time"`
	BattleID            uint              `json:"battleId" gorm:"index:idx_engineperformance_battle_id"`
	Battle              Battle            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	BufferLengths       BufferLengths     `json:"bufferLengths" gorm:"embedded;embeddedPrefix:buffer_"`
	WriteQueueLengths   WriteQueueLengths `json:"writeQueueLengths" gorm:"embedded;embeddedPrefix:writequeue_"`
	LastWriteDurationMs float32           `json:"lastWriteDurationMs"`
}

func (*EnginePerformance) TableName() string {
	return "engine_performances"
}

// BufferLengths is the model for the in-memory record buffer lengths
type BufferLengths struct {
	Turns     uint16 `json:"turns"`
	Effects   uint16 `json:"effects"`
	Calcs     uint16 `json:"calcs"`
	Summaries uint16 `json:"summaries"`
}

// WriteQueueLengths is the model for the database write queue lengths
type WriteQueueLengths struct {
	Turns     uint16 `json:"turns"`
	Effects   uint16 `json:"effects"`
	Calcs     uint16 `json:"calcs"`
	Summaries uint16 `json:"summaries"`
}

////////////////////////
// BATTLE MODELS
////////////////////////

// Format is a ruleset under which battles are played
type Format struct {
	gorm.Model
	Name        string         `json:"name" gorm:"size:64;index:idx_format_name"`
	Version     string         `json:"version" gorm:"size:32"`
	DexVersion  string         `json:"dexVersion" gorm:"size:32"`
	Hash        string         `json:"hash" gorm:"size:16"`
	TeraAllowed bool           `json:"teraAllowed" gorm:"default:true"`
	SleepClause bool           `json:"sleepClause" gorm:"default:true"`
	TeamSize    uint8          `json:"teamSize" gorm:"default:6"`
	Rules       datatypes.JSON `json:"rules" gorm:"type:jsonb;default:'{}'"`
	Battles     []Battle
}

func (*Format) TableName() string {
	return "formats"
}

func (f *Format) GetOrInsert(db *gorm.DB) (
	created bool,
	err error,
) {
	var existing Format
	err = db.Where("name = ? AND hash = ?", f.Name, f.Hash).First(&existing).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// insert
			err = db.Create(f).Error
			return true, err
		}
		return false, err
	}
	// overwrite with db record if found
	*f = existing
	return false, nil
}

// Battle is the main model for a battle
type Battle struct {
	gorm.Model
	ExternalID    string    `json:"externalId" gorm:"size:64;index:idx_battle_external_id"`
	FormatID      uint      `json:"formatId"`
	Format        Format    `gorm:"foreignkey:FormatID"`
	Seed          int64     `json:"seed"`
	StartTime     time.Time `json:"startTime" gorm:"type:timestamptz;index:idx_battle_start"`
	EndTime       time.Time `json:"endTime" gorm:"type:timestamptz"`
	EngineVersion string    `json:"engineVersion" gorm:"size:64;default:1.0.0"`
	Tag           string    `json:"tag" gorm:"size:127"`

	// serialized []dex.PokemonSpec per side
	TeamP1 datatypes.JSON `json:"teamP1" gorm:"type:jsonb;default:'[]'"`
	TeamP2 datatypes.JSON `json:"teamP2" gorm:"type:jsonb;default:'[]'"`

	Winner     string `json:"winner" gorm:"size:8"`
	TurnCount  uint16 `json:"turnCount"`
	Terminated bool   `json:"terminated" gorm:"default:false"`

	Turns   []TurnRecord
	Effects []EffectRecord
	Calcs   []CalcRecord
}

func (*Battle) TableName() string {
	return "battles"
}

// TurnRecord captures the full engine state after one turn resolved.
// State is the serialized post-turn BattleState, so any turn can be
// replayed from its predecessor's snapshot plus the submitted actions.
type TurnRecord struct {
	ID       uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time     time.Time `json:"time" gorm:"type:timestamptz;"`
	BattleID uint      `json:"battleId" gorm:"index:idx_turnrecord_battle_id"`
	Battle   Battle    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	Turn     uint16    `json:"turn" gorm:"index:idx_turnrecord_turn"`

	ActionP1 datatypes.JSON `json:"actionP1" gorm:"type:jsonb;default:'{}'"`
	ActionP2 datatypes.JSON `json:"actionP2" gorm:"type:jsonb;default:'{}'"`
	State    datatypes.JSON `json:"state" gorm:"type:jsonb;default:'{}'"`
}

func (*TurnRecord) TableName() string {
	return "turn_records"
}

// EffectRecord is one entry of a turn's effect log
type EffectRecord struct {
	ID       uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time     time.Time `json:"time" gorm:"type:timestamptz;"`
	BattleID uint      `json:"battleId" gorm:"index:idx_effectrecord_battle_id"`
	Battle   Battle    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	Turn     uint16    `json:"turn"`
	Seq      uint16    `json:"seq"` // position within the turn's log
	Kind     string    `json:"kind" gorm:"size:32;index:idx_effectrecord_kind"`
	Side     int8      `json:"side"` // -1 when the effect is field-wide
	Actor    string    `json:"actor" gorm:"size:64"`
	Target   string    `json:"target" gorm:"size:64"`
	Move     string    `json:"move" gorm:"size:64"`
	Amount   int       `json:"amount"`
	Stat     string    `json:"stat" gorm:"size:16"`
	Stages   int8      `json:"stages"`
	Detail   string    `json:"detail" gorm:"size:255"`
}

func (*EffectRecord) TableName() string {
	return "effect_records"
}

// CalcRecord stores one pre-turn evaluation so decisions can be audited
// against what the calculator reported at the time
type CalcRecord struct {
	ID       uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time     time.Time `json:"time" gorm:"type:timestamptz;"`
	BattleID uint      `json:"battleId" gorm:"index:idx_calcrecord_battle_id"`
	Battle   Battle    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	Turn     uint16    `json:"turn"`
	Side     uint8     `json:"side"`

	Action       datatypes.JSON `json:"action" gorm:"type:jsonb;default:'{}'"`
	Result       datatypes.JSON `json:"result" gorm:"type:jsonb;default:'{}'"`
	ExpectedGain float64        `json:"expectedGain"`
	Chosen       bool           `json:"chosen" gorm:"default:false"`
}

func (*CalcRecord) TableName() string {
	return "calc_records"
}

// BattleSummary is an aggregate row derived from a battle's effect log
type BattleSummary struct {
	gorm.Model
	BattleID uint   `json:"battleId" gorm:"index:idx_battlesummary_battle_id"`
	Battle   Battle `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`

	Winner        string         `json:"winner" gorm:"size:8"`
	TurnCount     uint16         `json:"turnCount"`
	DamageP1      int            `json:"damageP1"` // total damage dealt by p1
	DamageP2      int            `json:"damageP2"`
	FaintsP1      uint8          `json:"faintsP1"` // pokemon p1 lost
	FaintsP2      uint8          `json:"faintsP2"`
	MoveUsage     datatypes.JSON `json:"moveUsage" gorm:"type:jsonb;default:'{}'"`
	StatusUptime  datatypes.JSON `json:"statusUptime" gorm:"type:jsonb;default:'{}'"`
	HazardDamage  int            `json:"hazardDamage"`
	ResidualKills uint8          `json:"residualKills"`
}

func (*BattleSummary) TableName() string {
	return "battle_summaries"
}
