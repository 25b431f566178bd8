// Package meta holds the cross-run progression: insight currency, modifier
// unlocks, permanent bonuses, narrative endings, the daily run and player history.
//
// Every manager treats its store as best effort. Load and save failures are
// logged and the in-memory state stays authoritative for the session.
package meta

import (
	"context"
	"log/slog"
	"math"

	"github.com/DaanHessen/one-choice/internal/engine"
	"github.com/DaanHessen/one-choice/internal/store"
	"github.com/pkg/errors"
)

// ModifierCost is the flat insight price of any modifier unlock.
const ModifierCost = 50

var ErrUnknownModifier = errors.New("unknown modifier")

var insightMultipliers = map[engine.Difficulty]float64{
	engine.DifficultyEasy:   0.5,
	engine.DifficultyNormal: 1.0,
	engine.DifficultyHard:   1.5,
}

// CalculateInsight is floor(choices * multiplier), never negative. Unknown difficulties count as normal.
func CalculateInsight(choicesMade int, d engine.Difficulty) int {
	mult, ok := insightMultipliers[d]
	if !ok {
		mult = 1.0
	}
	v := int(math.Floor(float64(choicesMade) * mult))
	if v < 0 {
		return 0
	}
	return v
}

// InsightState is the persisted meta-progression record.
type InsightState struct {
	Insight           int                 `json:"insight"`
	UnlockedModifiers []engine.ModifierID `json:"unlockedModifiers"`
	// UnlockedScenes is carried for compatibility; nothing reads it.
	UnlockedScenes   []string             `json:"unlockedScenes"`
	PermanentBonuses map[engine.Meter]int `json:"permanentBonuses"`
}

func newInsightState() InsightState {
	return InsightState{
		UnlockedModifiers: []engine.ModifierID{},
		UnlockedScenes:    []string{},
		PermanentBonuses:  zeroBonuses(),
	}
}

func zeroBonuses() map[engine.Meter]int {
	out := make(map[engine.Meter]int, len(engine.AllMeters))
	for _, m := range engine.AllMeters {
		out[m] = 0
	}
	return out
}

// Insight manages the currency balance, modifier unlocks and permanent bonuses.
type Insight struct {
	kv    store.KV
	log   *slog.Logger
	state InsightState
}

func NewInsight(kv store.KV, log *slog.Logger) *Insight {
	if log == nil {
		log = slog.Default()
	}
	return &Insight{kv: kv, log: log, state: newInsightState()}
}

func (i *Insight) Balance() int { return i.state.Insight }

// Unlocked returns a copy of the unlocked modifier ids.
func (i *Insight) Unlocked() []engine.ModifierID {
	return append([]engine.ModifierID(nil), i.state.UnlockedModifiers...)
}

// State returns a deep copy of the persisted record.
func (i *Insight) State() InsightState {
	st := i.state
	st.UnlockedModifiers = i.Unlocked()
	st.UnlockedScenes = append([]string(nil), i.state.UnlockedScenes...)
	st.PermanentBonuses = make(map[engine.Meter]int, len(i.state.PermanentBonuses))
	for k, v := range i.state.PermanentBonuses {
		st.PermanentBonuses[k] = v
	}
	return st
}

// AddInsight credits amount and persists immediately.
func (i *Insight) AddInsight(ctx context.Context, amount int) {
	i.state.Insight += amount
	i.save(ctx)
}

func (i *Insight) IsUnlocked(id engine.ModifierID) bool {
	for _, u := range i.state.UnlockedModifiers {
		if u == id {
			return true
		}
	}
	return false
}

// CanUnlock reports whether id is affordable and still locked.
func (i *Insight) CanUnlock(id engine.ModifierID) bool {
	return id.Validate() && i.state.Insight >= ModifierCost && !i.IsUnlocked(id)
}

// UnlockModifier debits ModifierCost and persists. It returns false without
// side effects when the balance is short or id is already unlocked.
func (i *Insight) UnlockModifier(ctx context.Context, id engine.ModifierID) (bool, error) {
	if !id.Validate() {
		return false, ErrUnknownModifier
	}
	if !i.CanUnlock(id) {
		return false, nil
	}
	i.state.Insight -= ModifierCost
	i.state.UnlockedModifiers = append(i.state.UnlockedModifiers, id)
	i.save(ctx)
	return true, nil
}

// ApplyPermanentBonuses returns a copy of base raised by each stored bonus, capped at 100.
func (i *Insight) ApplyPermanentBonuses(base engine.Meters) engine.Meters {
	out := base.Clone()
	for m, bonus := range i.state.PermanentBonuses {
		if v, ok := out[m]; ok {
			out[m] = min(engine.MeterMax, v+bonus)
		}
	}
	return out
}

// Load replaces the in-memory state with the stored record, zero-filling bonuses.
func (i *Insight) Load(ctx context.Context) {
	st := newInsightState()
	ok, err := store.GetJSON(ctx, i.kv, store.KeyInsight, &st)
	if err != nil {
		i.log.Warn("load insight failed", "error", err)
		return
	}
	if !ok {
		return
	}
	if st.UnlockedModifiers == nil {
		st.UnlockedModifiers = []engine.ModifierID{}
	}
	if st.UnlockedScenes == nil {
		st.UnlockedScenes = []string{}
	}
	if st.PermanentBonuses == nil {
		st.PermanentBonuses = zeroBonuses()
	}
	for _, m := range engine.AllMeters {
		if _, ok := st.PermanentBonuses[m]; !ok {
			st.PermanentBonuses[m] = 0
		}
	}
	i.state = st
}

func (i *Insight) save(ctx context.Context) {
	if err := store.PutJSON(ctx, i.kv, store.KeyInsight, i.state); err != nil {
		i.log.Warn("save insight failed", "error", err)
	}
}
