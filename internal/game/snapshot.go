package game

import (
	"context"
	"time"

	"github.com/DaanHessen/one-choice/internal/engine"
	"github.com/DaanHessen/one-choice/internal/store"
	"github.com/google/uuid"
)

// SnapshotTTL bounds how old a saved run may be before it is ignored.
const SnapshotTTL = 24 * time.Hour

// Snapshot is the write-only record of the latest choice in a run.
type Snapshot struct {
	RunID       uuid.UUID     `json:"runId"`
	Stats       engine.Meters `json:"stats"`
	Score       int           `json:"score"`
	ChoicesMade int           `json:"choicesMade"`
	Timestamp   int64         `json:"timestamp"` // unix millis
}

func (s Snapshot) SavedAt() time.Time { return time.UnixMilli(s.Timestamp) }

// LoadSnapshot returns the saved run when one exists and is younger than SnapshotTTL.
func LoadSnapshot(ctx context.Context, kv store.KV, now time.Time) (Snapshot, bool, error) {
	var s Snapshot
	ok, err := store.GetJSON(ctx, kv, store.KeySave, &s)
	if err != nil || !ok {
		return Snapshot{}, false, err
	}
	if now.Sub(s.SavedAt()) >= SnapshotTTL {
		return Snapshot{}, false, nil
	}
	return s, true, nil
}

func (c *Controller) saveSnapshot(ctx context.Context) {
	s := Snapshot{
		RunID:       c.run.ID,
		Stats:       c.bank.All(),
		Score:       c.run.Score,
		ChoicesMade: c.run.ChoicesMade,
		Timestamp:   c.now().UnixMilli(),
	}
	if err := store.PutJSON(ctx, c.kv, store.KeySave, s); err != nil {
		c.log.Warn("save snapshot failed", "run", c.run.ID, "error", err)
	}
}
