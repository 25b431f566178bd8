package meta

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf16"

	"github.com/DaanHessen/one-choice/internal/store"
)

const dateLayout = "2006-01-02"

// GenerateDateSeed hashes a YYYY-MM-DD string: hash = hash*31 + unit over
// UTF-16 code units, wrapped to int32, then the absolute value.
func GenerateDateSeed(date string) uint32 {
	var hash int32
	for _, u := range utf16.Encode([]rune(date)) {
		hash = (hash << 5) - hash + int32(u)
	}
	h := int64(hash)
	if h < 0 {
		h = -h
	}
	return uint32(h)
}

// DailyState is the persisted daily-run record.
type DailyState struct {
	LastDailyDate  string `json:"lastDailyDate"`
	DailyCompleted bool   `json:"dailyCompleted"`
	DailySeed      uint32 `json:"dailySeed"`
}

// DailyRun describes a started daily attempt.
type DailyRun struct {
	Seed uint32
	Date string
}

// Daily gates the once-per-local-calendar-day seeded run.
type Daily struct {
	kv    store.KV
	log   *slog.Logger
	now   func() time.Time
	state DailyState
}

type DailyOption func(*Daily)

// WithClock replaces time.Now. Dates are taken in the clock's location.
func WithClock(now func() time.Time) DailyOption { return func(d *Daily) { d.now = now } }

func NewDaily(kv store.KV, log *slog.Logger, opts ...DailyOption) *Daily {
	if log == nil {
		log = slog.Default()
	}
	d := &Daily{kv: kv, log: log, now: time.Now}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Today is the local calendar date as YYYY-MM-DD.
func (d *Daily) Today() string { return d.now().Format(dateLayout) }

func (d *Daily) State() DailyState { return d.state }

// IsAvailable is true until a daily run has been started on today's date.
func (d *Daily) IsAvailable() bool {
	return d.state.LastDailyDate == "" || d.state.LastDailyDate != d.Today()
}

// Peek returns today's daily run without claiming it.
func (d *Daily) Peek() (DailyRun, bool) {
	if !d.IsAvailable() {
		return DailyRun{}, false
	}
	today := d.Today()
	return DailyRun{Seed: GenerateDateSeed(today), Date: today}, true
}

// Start records today as the active daily date and returns its seed. It
// returns false when today's attempt was already taken.
func (d *Daily) Start(ctx context.Context) (DailyRun, bool) {
	dr, ok := d.Peek()
	if !ok {
		return DailyRun{}, false
	}
	d.state = DailyState{LastDailyDate: dr.Date, DailySeed: dr.Seed}
	d.save(ctx)
	return dr, true
}

// Complete marks the current daily run finished.
func (d *Daily) Complete(ctx context.Context) {
	d.state.DailyCompleted = true
	d.save(ctx)
}

// Load restores state. A stored date other than today clears the completed
// flag but keeps the seed.
func (d *Daily) Load(ctx context.Context) {
	var st DailyState
	ok, err := store.GetJSON(ctx, d.kv, store.KeyDaily, &st)
	if err != nil {
		d.log.Warn("load daily run failed", "error", err)
		return
	}
	if !ok {
		return
	}
	if st.LastDailyDate != d.Today() {
		st.DailyCompleted = false
	}
	d.state = st
}

func (d *Daily) save(ctx context.Context) {
	if err := store.PutJSON(ctx, d.kv, store.KeyDaily, d.state); err != nil {
		d.log.Warn("save daily run failed", "error", err)
	}
}
