package meta

import (
	"context"
	"log/slog"

	"github.com/DaanHessen/one-choice/internal/engine"
	"github.com/DaanHessen/one-choice/internal/store"
)

type EndingID string

const (
	EndingMind      EndingID = "mind"
	EndingHeart     EndingID = "heart"
	EndingTime      EndingID = "time"
	EndingDrive     EndingID = "drive"
	EndingBurnout   EndingID = "burnout"
	EndingObsession EndingID = "obsession"
	EndingEmptiness EndingID = "emptiness"
	EndingSacrifice EndingID = "sacrifice"
)

// AllEndings is the fixed catalog in display order.
var AllEndings = []EndingID{
	EndingMind, EndingHeart, EndingTime, EndingDrive,
	EndingBurnout, EndingObsession, EndingEmptiness, EndingSacrifice,
}

// TitleKey and DescriptionKey are the i18n keys of an ending.
func (id EndingID) TitleKey() string       { return "endings." + string(id) + ".title" }
func (id EndingID) DescriptionKey() string { return "endings." + string(id) + ".description" }

func (id EndingID) Validate() bool {
	for _, e := range AllEndings {
		if e == id {
			return true
		}
	}
	return false
}

func allMeters(final engine.Meters, pred func(int) bool) bool {
	for _, m := range engine.AllMeters {
		if !pred(final[m]) {
			return false
		}
	}
	return true
}

// Qualifies evaluates the unlock predicate of id.
func Qualifies(id EndingID, zero engine.Meter, final engine.Meters) bool {
	switch id {
	case EndingMind, EndingHeart, EndingTime, EndingDrive:
		return zero == engine.Meter(id)
	case EndingBurnout:
		return allMeters(final, func(v int) bool { return v < 20 })
	case EndingObsession:
		return final.Max() > 80 && final.Min() < 10
	case EndingEmptiness:
		return allMeters(final, func(v int) bool { return v >= 20 && v <= 40 })
	case EndingSacrifice:
		return zero == engine.MeterHeart || zero == engine.MeterTime
	}
	return false
}

// Ending is the display form of a catalog entry.
type Ending struct {
	ID          EndingID
	Title       string
	Description string
	Unlocked    bool
}

// Endings tracks which endings are permanently unlocked.
type Endings struct {
	kv       store.KV
	log      *slog.Logger
	unlocked map[EndingID]bool
}

func NewEndings(kv store.KV, log *slog.Logger) *Endings {
	if log == nil {
		log = slog.Default()
	}
	return &Endings{kv: kv, log: log, unlocked: make(map[EndingID]bool)}
}

func (e *Endings) IsUnlocked(id EndingID) bool { return e.unlocked[id] }
func (e *Endings) UnlockedCount() int          { return len(e.unlocked) }

// CheckAndUnlock unlocks every still-locked ending whose predicate holds and
// returns them in catalog order. Unlocks are never reverted.
func (e *Endings) CheckAndUnlock(ctx context.Context, zero engine.Meter, final engine.Meters) []EndingID {
	var fresh []EndingID
	for _, id := range AllEndings {
		if e.unlocked[id] {
			continue
		}
		if Qualifies(id, zero, final) {
			e.unlocked[id] = true
			fresh = append(fresh, id)
		}
	}
	if len(fresh) > 0 {
		e.save(ctx)
	}
	return fresh
}

// Unlock force-unlocks one ending.
func (e *Endings) Unlock(ctx context.Context, id EndingID) {
	if e.unlocked[id] {
		return
	}
	e.unlocked[id] = true
	e.save(ctx)
}

// All lists the catalog with localized text.
func (e *Endings) All(loc engine.Localizer) []Ending {
	out := make([]Ending, 0, len(AllEndings))
	for _, id := range AllEndings {
		en := Ending{ID: id, Unlocked: e.unlocked[id]}
		if loc != nil {
			en.Title = loc.Text(id.TitleKey())
			en.Description = loc.Text(id.DescriptionKey())
		}
		out = append(out, en)
	}
	return out
}

func (e *Endings) list() []EndingID {
	out := make([]EndingID, 0, len(e.unlocked))
	for _, id := range AllEndings {
		if e.unlocked[id] {
			out = append(out, id)
		}
	}
	return out
}

func (e *Endings) Load(ctx context.Context) {
	var ids []EndingID
	ok, err := store.GetJSON(ctx, e.kv, store.KeyEndings, &ids)
	if err != nil {
		e.log.Warn("load endings failed", "error", err)
		return
	}
	if !ok {
		return
	}
	e.unlocked = make(map[EndingID]bool, len(ids))
	for _, id := range ids {
		if !id.Validate() {
			e.log.Warn("dropping unknown stored ending", "ending", id)
			continue
		}
		e.unlocked[id] = true
	}
}

func (e *Endings) save(ctx context.Context) {
	if err := store.PutJSON(ctx, e.kv, store.KeyEndings, e.list()); err != nil {
		e.log.Warn("save endings failed", "error", err)
	}
}
