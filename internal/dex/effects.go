package dex

import "github.com/ChanHengLucas/PotentialPokemonBattleAI/internal/battle"

// Trigger is the hook point at which an ability or item effect fires.
type Trigger string

const (
	TriggerSwitchIn    Trigger = "switch_in"
	TriggerSwitchOut   Trigger = "switch_out"
	TriggerDamageDealt Trigger = "damage_dealt" // attacker-side damage modifier
	TriggerDamageTaken Trigger = "damage_taken" // fires after the holder is hit
	TriggerEndOfTurn   Trigger = "end_of_turn"
	TriggerSpeed       Trigger = "speed"
	TriggerHazard      Trigger = "hazard"
	TriggerLethal      Trigger = "lethal" // holder would drop from full HP to zero
)

// EffectKind is what the effect does when its trigger fires.
type EffectKind string

const (
	EffectDamageMod    EffectKind = "damage_mod"    // multiply outgoing damage
	EffectStatChange   EffectKind = "stat_change"   // boost a stat on the opponent or self
	EffectHeal         EffectKind = "heal"          // restore a fraction of max HP
	EffectChip         EffectKind = "chip"          // fractional damage to the subject
	EffectRecoilChip   EffectKind = "recoil_chip"   // fractional damage to the attacker on contact
	EffectSpeedMod     EffectKind = "speed_mod"     // multiply effective speed
	EffectSetWeather   EffectKind = "set_weather"   // start weather on entry
	EffectHazardImmune EffectKind = "hazard_immune" // ignore entry hazards
	EffectSurviveOHKO  EffectKind = "survive_ohko"  // hold on at 1 HP from full
	EffectChoiceLock   EffectKind = "choice_lock"   // lock into the first selected move
	EffectIgnoreBoosts EffectKind = "ignore_boosts" // defender ignores attacker's offensive boosts
	EffectGroundImmune EffectKind = "ground_immune" // immune to Ground-type moves
)

// EffectDef is one entry in the ability or item table. Which fields
// are set depends on the kind.
type EffectDef struct {
	Kind     EffectKind
	Mod      float64 // multiplier for damage_mod / speed_mod
	Stat     string
	Stages   int
	Fraction float64            // of max HP, for heal / chip / recoil_chip
	Targets  string             // "self" or "opponent" for stat_change
	Weather  battle.WeatherKind // for set_weather
	Category battle.MoveCategory
	// When set, the effect only applies under this condition: a
	// weather kind, "statused", "contact", or a type name.
	When string
}

type effectKey struct {
	Trigger Trigger
	ID      string
}

// abilityEffects is the ability table. Abilities not listed here have
// no mechanical effect in this engine and are carried as flavor.
var abilityEffects = map[effectKey]EffectDef{
	{TriggerSwitchIn, "intimidate"}: {Kind: EffectStatChange, Stat: battle.StatAtk, Stages: -1, Targets: "opponent"},
	{TriggerSwitchOut, "regenerator"}: {Kind: EffectHeal, Fraction: 1.0 / 3.0},

	{TriggerDamageTaken, "roughskin"}: {Kind: EffectRecoilChip, Fraction: 1.0 / 8.0, When: "contact"},
	{TriggerDamageTaken, "ironbarbs"}: {Kind: EffectRecoilChip, Fraction: 1.0 / 8.0, When: "contact"},

	{TriggerDamageDealt, "guts"}: {Kind: EffectDamageMod, Mod: 1.5, Category: battle.CategoryPhysical, When: "statused"},

	{TriggerSwitchIn, "drizzle"}:     {Kind: EffectSetWeather, Weather: battle.WeatherRain},
	{TriggerSwitchIn, "drought"}:     {Kind: EffectSetWeather, Weather: battle.WeatherSun},
	{TriggerSwitchIn, "sandstream"}:  {Kind: EffectSetWeather, Weather: battle.WeatherSand},
	{TriggerSwitchIn, "snowwarning"}: {Kind: EffectSetWeather, Weather: battle.WeatherSnow},

	{TriggerSpeed, "swiftswim"}:  {Kind: EffectSpeedMod, Mod: 2, When: string(battle.WeatherRain)},
	{TriggerSpeed, "chlorophyll"}: {Kind: EffectSpeedMod, Mod: 2, When: string(battle.WeatherSun)},
	{TriggerSpeed, "sandrush"}:   {Kind: EffectSpeedMod, Mod: 2, When: string(battle.WeatherSand)},

	{TriggerHazard, "levitate"}:    {Kind: EffectGroundImmune},
	{TriggerLethal, "sturdy"}:      {Kind: EffectSurviveOHKO},
	{TriggerDamageTaken, "unaware"}: {Kind: EffectIgnoreBoosts},
}

// itemEffects is the held-item table.
var itemEffects = map[effectKey]EffectDef{
	{TriggerEndOfTurn, "leftovers"}:   {Kind: EffectHeal, Fraction: 1.0 / 16.0},
	{TriggerEndOfTurn, "blacksludge"}: {Kind: EffectHeal, Fraction: 1.0 / 16.0, When: "Poison"},

	{TriggerDamageDealt, "lifeorb"}:     {Kind: EffectDamageMod, Mod: 1.3},
	{TriggerDamageDealt, "choiceband"}:  {Kind: EffectDamageMod, Mod: 1.5, Category: battle.CategoryPhysical},
	{TriggerDamageDealt, "choicespecs"}: {Kind: EffectDamageMod, Mod: 1.5, Category: battle.CategorySpecial},

	{TriggerSpeed, "choicescarf"}: {Kind: EffectSpeedMod, Mod: 1.5},

	{TriggerHazard, "heavydutyboots"}: {Kind: EffectHazardImmune},
	{TriggerLethal, "focussash"}:      {Kind: EffectSurviveOHKO},
}

// choiceItems lock the holder into its first selected move.
var choiceItems = map[string]bool{
	"choiceband":  true,
	"choicespecs": true,
	"choicescarf": true,
}

// AbilityEffect looks up the ability table for a trigger point.
func AbilityEffect(trigger Trigger, ability string) (EffectDef, bool) {
	e, ok := abilityEffects[effectKey{trigger, NormalizeID(ability)}]
	return e, ok
}

// ItemEffect looks up the item table for a trigger point.
func ItemEffect(trigger Trigger, item string) (EffectDef, bool) {
	e, ok := itemEffects[effectKey{trigger, NormalizeID(item)}]
	return e, ok
}

// IsChoiceItem reports whether the item imposes a choice lock.
func IsChoiceItem(item string) bool {
	return choiceItems[NormalizeID(item)]
}
