package game

import (
	"context"
	"log/slog"

	"github.com/DaanHessen/one-choice/internal/engine"
	"github.com/DaanHessen/one-choice/internal/store"
)

// Settings are the player preferences persisted between sessions.
type Settings struct {
	Language     string
	SoundEnabled bool
	Difficulty   engine.Difficulty
}

type soundSettings struct {
	SoundEnabled *bool `json:"soundEnabled"`
}

func defaultSettings() Settings {
	return Settings{SoundEnabled: true, Difficulty: engine.DifficultyNormal}
}

// loadSettings reads every preference key. Missing or unreadable values keep their defaults.
func loadSettings(ctx context.Context, kv store.KV, log *slog.Logger) Settings {
	s := defaultSettings()
	if lang, ok, err := store.GetString(ctx, kv, store.KeyLanguage); err != nil {
		log.Warn("load language failed", "error", err)
	} else if ok {
		s.Language = lang
	}
	var snd soundSettings
	if ok, err := store.GetJSON(ctx, kv, store.KeySettings, &snd); err != nil {
		log.Warn("load settings failed", "error", err)
	} else if ok && snd.SoundEnabled != nil {
		s.SoundEnabled = *snd.SoundEnabled
	}
	if raw, ok, err := store.GetString(ctx, kv, store.KeyDifficulty); err != nil {
		log.Warn("load difficulty failed", "error", err)
	} else if ok {
		if d, valid := engine.ParseDifficulty(raw); valid {
			s.Difficulty = d
		} else {
			log.Warn("ignoring stored difficulty", "value", raw)
		}
	}
	return s
}

func saveLanguage(ctx context.Context, kv store.KV, log *slog.Logger, lang string) {
	if err := store.PutString(ctx, kv, store.KeyLanguage, lang); err != nil {
		log.Warn("save language failed", "error", err)
	}
}

func saveSound(ctx context.Context, kv store.KV, log *slog.Logger, enabled bool) {
	if err := store.PutJSON(ctx, kv, store.KeySettings, soundSettings{SoundEnabled: &enabled}); err != nil {
		log.Warn("save settings failed", "error", err)
	}
}

func saveDifficulty(ctx context.Context, kv store.KV, log *slog.Logger, d engine.Difficulty) {
	if err := store.PutString(ctx, kv, store.KeyDifficulty, string(d)); err != nil {
		log.Warn("save difficulty failed", "error", err)
	}
}
