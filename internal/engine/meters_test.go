package engine

import "testing"

func TestApplyEffectsZeroCrossing(t *testing.T) {
	b := NewMeterBank()
	res := b.ApplyEffects(Effects{MeterMind: -100})
	if !res.AnyZero || res.ZeroMeter != MeterMind {
		t.Fatalf("expected mind zero crossing, got %+v", res)
	}
	ch := res.Changes[MeterMind]
	if ch.Previous != 100 || ch.New != 0 || ch.Delta != -100 {
		t.Fatalf("unexpected change record: %+v", ch)
	}
	if b.Get(MeterMind) != 0 {
		t.Fatalf("mind should be 0, got %d", b.Get(MeterMind))
	}
}

func TestApplyEffectsClamps(t *testing.T) {
	b := NewMeterBank()
	deltas := []Effects{
		{MeterMind: 40, MeterHeart: -250},
		{MeterHeart: 35, MeterTime: -99},
		{MeterTime: 1000, MeterDrive: -1},
		{MeterDrive: -150, MeterMind: -75},
	}
	for _, d := range deltas {
		b.ApplyEffects(d)
		for m, v := range b.All() {
			if v < MeterMin || v > MeterMax {
				t.Fatalf("meter %s out of range: %d", m, v)
			}
		}
	}
}

func TestApplyEffectsFirstZeroWins(t *testing.T) {
	b := NewMeterBank()
	res := b.ApplyEffects(Effects{MeterDrive: -100, MeterHeart: -100})
	if res.ZeroMeter != MeterHeart {
		t.Fatalf("expected heart to win the tie-break, got %s", res.ZeroMeter)
	}
}

func TestApplyEffectsReportsAlreadyZero(t *testing.T) {
	b := NewMeterBank()
	b.Set(MeterTime, 0)
	res := b.ApplyEffects(Effects{MeterTime: -5})
	if !res.AnyZero || res.ZeroMeter != MeterTime {
		t.Fatalf("expected crossing for meter already at zero, got %+v", res)
	}
	if res := b.ApplyEffects(Effects{MeterMind: -5}); res.AnyZero {
		t.Fatalf("untouched zero meter must not be reported")
	}
}

func TestApplyEffectsIgnoresUnknownMeter(t *testing.T) {
	b := NewMeterBank()
	res := b.ApplyEffects(Effects{Meter("luck"): -100})
	if res.AnyZero || len(res.Changes) != 0 {
		t.Fatalf("unknown meter should be ignored, got %+v", res)
	}
}

func TestObserversFire(t *testing.T) {
	b := NewMeterBank()
	changes := 0
	var zeroed []Meter
	b.OnChange(func(map[Meter]Change) { changes++ })
	b.OnZero(func(m Meter) { zeroed = append(zeroed, m) })
	b.ApplyEffects(Effects{MeterHeart: -10})
	b.ApplyEffects(Effects{MeterTime: -100})
	if changes != 2 {
		t.Fatalf("expected 2 change notifications, got %d", changes)
	}
	if len(zeroed) != 1 || zeroed[0] != MeterTime {
		t.Fatalf("expected single time zero notification, got %v", zeroed)
	}
}

func TestLowestTieBreak(t *testing.T) {
	b := NewMeterBank()
	if b.Lowest() != MeterMind {
		t.Fatalf("all-equal bank should report mind, got %s", b.Lowest())
	}
	b.Set(MeterDrive, 20)
	b.Set(MeterHeart, 20)
	if b.Lowest() != MeterHeart {
		t.Fatalf("expected heart, got %s", b.Lowest())
	}
}

func TestBelowKeepsOrder(t *testing.T) {
	b := NewMeterBank()
	b.Set(MeterDrive, 10)
	b.Set(MeterMind, 29)
	b.Set(MeterTime, 30)
	got := b.Below(30)
	if len(got) != 2 || got[0] != MeterMind || got[1] != MeterDrive {
		t.Fatalf("unexpected below set: %v", got)
	}
}

func TestReviveNeverLowers(t *testing.T) {
	b := NewMeterBank()
	b.Set(MeterHeart, 0)
	b.Revive(MeterHeart)
	if b.Get(MeterHeart) != ReviveFloor {
		t.Fatalf("expected heart revived to %d, got %d", ReviveFloor, b.Get(MeterHeart))
	}
	b.Set(MeterMind, 55)
	b.Revive(MeterMind)
	if b.Get(MeterMind) != 55 {
		t.Fatalf("revive lowered mind to %d", b.Get(MeterMind))
	}
}

func TestAllIsCopy(t *testing.T) {
	b := NewMeterBank()
	snap := b.All()
	snap[MeterMind] = 1
	if b.Get(MeterMind) != 100 {
		t.Fatalf("All must return a defensive copy")
	}
}
