package engine

import (
	"encoding/json"
	"fmt"
)

// Choice is one of the two options a scene offers.
type Choice struct {
	Label   string  `json:"label"`
	Effects Effects `json:"effects"`
	Score   int     `json:"score"`
}

// Scene is an immutable catalog entry. IDs are unique within a tier only.
type Scene struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Choices []Choice `json:"choices"`
}

// Targets reports whether any choice touches one of the given meters.
func (s Scene) Targets(meters []Meter) bool {
	for _, c := range s.Choices {
		if c.Effects.Touches(meters) {
			return true
		}
	}
	return false
}

// Choice returns the choice at index or false when out of range.
func (s Scene) Choice(index int) (Choice, bool) {
	if index < 0 || index >= len(s.Choices) {
		return Choice{}, false
	}
	return s.Choices[index], true
}

type sceneFile struct {
	Scenes []Scene `json:"scenes"`
}

// ParseScenes decodes a `{"scenes": [...]}` document and checks every scene has two choices.
func ParseScenes(data []byte) ([]Scene, error) {
	var f sceneFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	for _, s := range f.Scenes {
		if len(s.Choices) != 2 {
			return nil, fmt.Errorf("scene %d: expected 2 choices, got %d", s.ID, len(s.Choices))
		}
	}
	return f.Scenes, nil
}

// FallbackScenes is the single built-in scene installed for every tier when loading fails.
func FallbackScenes() []Scene {
	return []Scene{{
		ID:   1,
		Text: "You stand before a choice: help a colleague, or focus on your own work.",
		Choices: []Choice{
			{Label: "Help the colleague", Effects: Effects{MeterHeart: -3, MeterTime: -5}, Score: 5},
			{Label: "Focus on the work", Effects: Effects{MeterDrive: -4, MeterHeart: -2}, Score: 8},
		},
	}}
}

// TierForProgress is the catalog's own curve: 0-9 easy, 10-29 mid, 30+ hard.
func TierForProgress(choicesMade int) Tier {
	switch {
	case choicesMade < 10:
		return TierEasy
	case choicesMade < 30:
		return TierMid
	default:
		return TierHard
	}
}

// TierForDifficulty is the curve the controller forces for a player-selected difficulty.
// Easy lingers in gentle pools, hard skips the easy pool entirely.
func TierForDifficulty(d Difficulty, choicesMade int) Tier {
	switch d {
	case DifficultyEasy:
		switch {
		case choicesMade < 15:
			return TierEasy
		case choicesMade < 25:
			return TierMid
		default:
			return TierHard
		}
	case DifficultyHard:
		if choicesMade < 5 {
			return TierMid
		}
		return TierHard
	default:
		return TierForProgress(choicesMade)
	}
}
