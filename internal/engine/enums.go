package engine

// String backed enums for persistence interoperability.

type Meter string
type Difficulty string
type Tier string
type ModifierID string

const (
	MeterMind  Meter = "mind"
	MeterHeart Meter = "heart"
	MeterTime  Meter = "time"
	MeterDrive Meter = "drive"
)

// AllMeters is the fixed enumeration order. Every tie-break over meters
// (lowest meter, first zero-crossing, failure analytics) follows it.
var AllMeters = []Meter{MeterMind, MeterHeart, MeterTime, MeterDrive}

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

var AllDifficulties = []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard}

const (
	TierEasy Tier = "easy"
	TierMid  Tier = "mid"
	TierHard Tier = "hard"
)

var AllTiers = []Tier{TierEasy, TierMid, TierHard}

const (
	ModifierFastMind     ModifierID = "fast_mind"
	ModifierFastHeart    ModifierID = "fast_heart"
	ModifierFastTime     ModifierID = "fast_time"
	ModifierFastDrive    ModifierID = "fast_drive"
	ModifierDoubleEffect ModifierID = "double_effect"
	ModifierNoRecovery   ModifierID = "no_recovery"
	ModifierHarshEnd     ModifierID = "harsh_end"
)

var AllModifierIDs = []ModifierID{
	ModifierFastMind, ModifierFastHeart, ModifierFastTime, ModifierFastDrive,
	ModifierDoubleEffect, ModifierNoRecovery, ModifierHarshEnd,
}

// Generic helpers
func contains[T ~string](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (m Meter) Validate() bool       { return contains(AllMeters, m) }
func (d Difficulty) Validate() bool  { return contains(AllDifficulties, d) }
func (t Tier) Validate() bool        { return contains(AllTiers, t) }
func (id ModifierID) Validate() bool { return contains(AllModifierIDs, id) }

// ParseDifficulty returns the difficulty for s, falling back to normal.
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(s)
	if !d.Validate() {
		return DifficultyNormal, false
	}
	return d, true
}
