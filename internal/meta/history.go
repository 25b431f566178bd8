package meta

import (
	"context"
	"log/slog"

	"github.com/DaanHessen/one-choice/internal/engine"
	"github.com/DaanHessen/one-choice/internal/store"
)

// PlayerStats is the persisted cross-run tally.
type PlayerStats struct {
	TotalRuns      int                  `json:"totalRuns"`
	BestChoices    int                  `json:"bestChoices"`
	FailureStats   map[engine.Meter]int `json:"failureStats"`
	LastDifficulty engine.Difficulty    `json:"lastDifficulty"`
}

type History struct {
	kv    store.KV
	log   *slog.Logger
	stats PlayerStats
}

func NewHistory(kv store.KV, log *slog.Logger) *History {
	if log == nil {
		log = slog.Default()
	}
	return &History{kv: kv, log: log, stats: PlayerStats{
		FailureStats:   map[engine.Meter]int{},
		LastDifficulty: engine.DifficultyNormal,
	}}
}

// Stats returns a copy.
func (h *History) Stats() PlayerStats {
	st := h.stats
	st.FailureStats = make(map[engine.Meter]int, len(h.stats.FailureStats))
	for k, v := range h.stats.FailureStats {
		st.FailureStats[k] = v
	}
	return st
}

func (h *History) TotalRuns() int { return h.stats.TotalRuns }

// Record tallies one finished run and persists.
func (h *History) Record(ctx context.Context, zero engine.Meter, choicesMade int, d engine.Difficulty) {
	h.stats.TotalRuns++
	if choicesMade > h.stats.BestChoices {
		h.stats.BestChoices = choicesMade
	}
	h.stats.FailureStats[zero]++
	h.stats.LastDifficulty = d
	h.save(ctx)
}

// MostCommonFailure returns the meter that ended the most runs. Ties go to
// the earliest meter in AllMeters; false when nothing was recorded.
func (h *History) MostCommonFailure() (engine.Meter, bool) {
	var (
		best  engine.Meter
		count int
	)
	for _, m := range engine.AllMeters {
		if c := h.stats.FailureStats[m]; c > count {
			best, count = m, c
		}
	}
	return best, count > 0
}

// Load merges the stored record over the defaults.
func (h *History) Load(ctx context.Context) {
	st := h.Stats()
	ok, err := store.GetJSON(ctx, h.kv, store.KeyPlayerStats, &st)
	if err != nil {
		h.log.Warn("load player stats failed", "error", err)
		return
	}
	if !ok {
		return
	}
	if st.FailureStats == nil {
		st.FailureStats = map[engine.Meter]int{}
	}
	if !st.LastDifficulty.Validate() {
		st.LastDifficulty = engine.DifficultyNormal
	}
	h.stats = st
}

func (h *History) save(ctx context.Context) {
	if err := store.PutJSON(ctx, h.kv, store.KeyPlayerStats, h.stats); err != nil {
		h.log.Warn("save player stats failed", "error", err)
	}
}
