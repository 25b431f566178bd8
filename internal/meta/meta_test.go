package meta

import (
	"context"
	"testing"
	"time"

	"github.com/DaanHessen/one-choice/internal/engine"
	"github.com/DaanHessen/one-choice/internal/store"
)

func meters(mind, heart, tm, drive int) engine.Meters {
	return engine.Meters{engine.MeterMind: mind, engine.MeterHeart: heart, engine.MeterTime: tm, engine.MeterDrive: drive}
}

func TestCalculateInsight(t *testing.T) {
	if got := CalculateInsight(20, engine.DifficultyHard); got != 30 {
		t.Fatalf("hard 20 -> %d, want 30", got)
	}
	if got := CalculateInsight(7, engine.DifficultyEasy); got != 3 {
		t.Fatalf("easy 7 -> %d, want 3", got)
	}
	if got := CalculateInsight(7, engine.Difficulty("weird")); got != 7 {
		t.Fatalf("unknown difficulty should count as normal, got %d", got)
	}
	if got := CalculateInsight(-4, engine.DifficultyNormal); got != 0 {
		t.Fatalf("negative runs clamp to 0, got %d", got)
	}
}

func TestUnlockModifier(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	in := NewInsight(kv, nil)
	if ok, err := in.UnlockModifier(ctx, engine.ModifierHarshEnd); ok || err != nil {
		t.Fatalf("unlock without balance: ok=%v err=%v", ok, err)
	}
	in.AddInsight(ctx, 120)
	if ok, _ := in.UnlockModifier(ctx, engine.ModifierHarshEnd); !ok {
		t.Fatalf("expected unlock")
	}
	if in.Balance() != 70 {
		t.Fatalf("balance %d, want 70", in.Balance())
	}
	if ok, _ := in.UnlockModifier(ctx, engine.ModifierHarshEnd); ok {
		t.Fatalf("double unlock must fail")
	}
	if in.Balance() != 70 {
		t.Fatalf("failed unlock must not debit")
	}
	if _, err := in.UnlockModifier(ctx, engine.ModifierID("nope")); err != ErrUnknownModifier {
		t.Fatalf("expected ErrUnknownModifier, got %v", err)
	}

	reloaded := NewInsight(kv, nil)
	reloaded.Load(ctx)
	if reloaded.Balance() != 70 || !reloaded.IsUnlocked(engine.ModifierHarshEnd) {
		t.Fatalf("state not persisted: %+v", reloaded.State())
	}
}

func TestPermanentBonusesCapAndZeroFill(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	_ = kv.Put(ctx, store.KeyInsight, []byte(`{"insight":5,"permanentBonuses":{"heart":10}}`))
	in := NewInsight(kv, nil)
	in.Load(ctx)
	st := in.State()
	for _, m := range engine.AllMeters {
		if _, ok := st.PermanentBonuses[m]; !ok {
			t.Fatalf("bonus for %s not zero-filled", m)
		}
	}
	out := in.ApplyPermanentBonuses(meters(50, 95, 100, 10))
	if out[engine.MeterHeart] != 100 || out[engine.MeterMind] != 50 || out[engine.MeterDrive] != 10 {
		t.Fatalf("unexpected bonuses %v", out)
	}
}

func TestEndingPredicates(t *testing.T) {
	burn := meters(15, 15, 15, 15)
	if !Qualifies(EndingBurnout, engine.MeterMind, burn) {
		t.Fatalf("burnout should hold for all < 20")
	}
	obs := meters(90, 5, 50, 50)
	if !Qualifies(EndingObsession, engine.MeterHeart, obs) {
		t.Fatalf("obsession should hold for max 90 min 5")
	}
	if !Qualifies(EndingEmptiness, engine.MeterMind, meters(20, 40, 30, 25)) {
		t.Fatalf("emptiness should hold inside [20,40]")
	}
	if Qualifies(EndingEmptiness, engine.MeterMind, meters(20, 41, 30, 25)) {
		t.Fatalf("emptiness must not hold with 41")
	}
	if !Qualifies(EndingSacrifice, engine.MeterTime, burn) || Qualifies(EndingSacrifice, engine.MeterDrive, burn) {
		t.Fatalf("sacrifice predicate wrong")
	}
	if !Qualifies(EndingDrive, engine.MeterDrive, burn) || Qualifies(EndingDrive, engine.MeterMind, burn) {
		t.Fatalf("meter ending predicate wrong")
	}
}

func TestCheckAndUnlockMonotonic(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	e := NewEndings(kv, nil)
	fresh := e.CheckAndUnlock(ctx, engine.MeterHeart, meters(15, 0, 15, 15))
	want := []EndingID{EndingHeart, EndingBurnout, EndingSacrifice}
	if len(fresh) != len(want) {
		t.Fatalf("fresh %v, want %v", fresh, want)
	}
	for i := range want {
		if fresh[i] != want[i] {
			t.Fatalf("fresh %v, want %v", fresh, want)
		}
	}
	again := e.CheckAndUnlock(ctx, engine.MeterMind, meters(0, 50, 50, 50))
	if len(again) != 1 || again[0] != EndingMind {
		t.Fatalf("second evaluation %v", again)
	}
	if !e.IsUnlocked(EndingBurnout) {
		t.Fatalf("burnout re-locked")
	}
	reloaded := NewEndings(kv, nil)
	reloaded.Load(ctx)
	if reloaded.UnlockedCount() != 4 {
		t.Fatalf("persisted count %d, want 4", reloaded.UnlockedCount())
	}
}

func TestEndingsLoadDropsUnknownIDs(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	stored := []string{"heart", "legacy_ending", "heart", "", "burnout"}
	if err := store.PutJSON(ctx, kv, store.KeyEndings, stored); err != nil {
		t.Fatal(err)
	}
	e := NewEndings(kv, nil)
	e.Load(ctx)
	if e.UnlockedCount() != 2 || !e.IsUnlocked(EndingHeart) || !e.IsUnlocked(EndingBurnout) {
		t.Fatalf("unlocked %d, want heart and burnout only", e.UnlockedCount())
	}
}

func TestDailyPeekDoesNotClaim(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)
	d := NewDaily(store.NewMemory(), nil, WithClock(func() time.Time { return now }))
	peek, ok := d.Peek()
	if !ok || peek.Date != "2024-01-01" || peek.Seed != GenerateDateSeed("2024-01-01") {
		t.Fatalf("peek %+v ok=%v", peek, ok)
	}
	if !d.IsAvailable() {
		t.Fatalf("peek claimed the daily run")
	}
	started, ok := d.Start(ctx)
	if !ok || started != peek {
		t.Fatalf("start %+v, peek %+v", started, peek)
	}
	if _, ok := d.Peek(); ok {
		t.Fatalf("peek after start should report the run taken")
	}
}

func TestGenerateDateSeed(t *testing.T) {
	a := GenerateDateSeed("2024-01-01")
	if a != 613341632 {
		t.Fatalf("seed %d, want 613341632", a)
	}
	if GenerateDateSeed("2024-01-01") != a {
		t.Fatalf("seed not stable")
	}
	if GenerateDateSeed("2024-01-02") == a {
		t.Fatalf("different dates should differ")
	}
}

func TestDailyAvailability(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)
	clock := func() time.Time { return now }
	d := NewDaily(kv, nil, WithClock(clock))
	if !d.IsAvailable() {
		t.Fatalf("fresh daily should be available")
	}
	run, ok := d.Start(ctx)
	if !ok || run.Seed != GenerateDateSeed("2024-01-01") || run.Date != "2024-01-01" {
		t.Fatalf("unexpected start %+v ok=%v", run, ok)
	}
	if d.IsAvailable() {
		t.Fatalf("daily must be unavailable after start on same date")
	}
	if _, ok := d.Start(ctx); ok {
		t.Fatalf("second start on same day must fail")
	}
	d.Complete(ctx)

	now = now.Add(24 * time.Hour)
	next := NewDaily(kv, nil, WithClock(clock))
	next.Load(ctx)
	if next.State().DailyCompleted {
		t.Fatalf("stale completion should reset on load")
	}
	if next.State().DailySeed != run.Seed {
		t.Fatalf("stale load must keep the stored seed")
	}
	if !next.IsAvailable() {
		t.Fatalf("daily should be available on a new date")
	}
}

func TestHistoryRecord(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	h := NewHistory(kv, nil)
	if _, ok := h.MostCommonFailure(); ok {
		t.Fatalf("empty history has no failure")
	}
	h.Record(ctx, engine.MeterDrive, 12, engine.DifficultyHard)
	h.Record(ctx, engine.MeterHeart, 30, engine.DifficultyEasy)
	h.Record(ctx, engine.MeterHeart, 4, engine.DifficultyEasy)
	h.Record(ctx, engine.MeterDrive, 4, engine.DifficultyEasy)
	st := h.Stats()
	if st.TotalRuns != 4 || st.BestChoices != 30 || st.LastDifficulty != engine.DifficultyEasy {
		t.Fatalf("unexpected stats %+v", st)
	}
	if m, _ := h.MostCommonFailure(); m != engine.MeterHeart {
		t.Fatalf("tie should go to heart, got %s", m)
	}
	reloaded := NewHistory(kv, nil)
	reloaded.Load(ctx)
	if reloaded.Stats().FailureStats[engine.MeterDrive] != 2 {
		t.Fatalf("failure tally not persisted: %+v", reloaded.Stats())
	}
}
