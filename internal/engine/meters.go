package engine

const (
	MeterMin = 0
	MeterMax = 100
	// ReviveFloor is the value a revived meter is raised to.
	ReviveFloor = 30
)

// Clamp stat into 0-100.
func Clamp(v int) int {
	if v < MeterMin {
		return MeterMin
	}
	if v > MeterMax {
		return MeterMax
	}
	return v
}

// Effects is a sparse set of meter deltas. Omitted meters are unaffected.
type Effects map[Meter]int

// Clone returns an independent copy.
func (e Effects) Clone() Effects {
	out := make(Effects, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Touches reports whether any of the given meters carries a delta.
func (e Effects) Touches(meters []Meter) bool {
	for _, m := range meters {
		if _, ok := e[m]; ok {
			return true
		}
	}
	return false
}

// Meters is a full snapshot of the four meter values.
type Meters map[Meter]int

// Clone returns an independent copy.
func (m Meters) Clone() Meters {
	out := make(Meters, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Min returns the smallest value in the snapshot.
func (m Meters) Min() int {
	lowest := MeterMax
	for _, k := range AllMeters {
		if v := m[k]; v < lowest {
			lowest = v
		}
	}
	return lowest
}

// Max returns the largest value in the snapshot.
func (m Meters) Max() int {
	highest := MeterMin
	for _, k := range AllMeters {
		if v := m[k]; v > highest {
			highest = v
		}
	}
	return highest
}

// FullMeters returns every meter at its maximum.
func FullMeters() Meters {
	out := make(Meters, len(AllMeters))
	for _, m := range AllMeters {
		out[m] = MeterMax
	}
	return out
}

// Change records what a single ApplyEffects call did to one meter.
type Change struct {
	Previous int `json:"previous"`
	New      int `json:"new"`
	Delta    int `json:"delta"`
}

// ApplyResult is returned by MeterBank.ApplyEffects.
type ApplyResult struct {
	Changes map[Meter]Change
	AnyZero bool
	// ZeroMeter is the first meter, in AllMeters order, that sits at zero after the call.
	ZeroMeter Meter
}

// MeterBank owns the four clamped meters of the active run.
type MeterBank struct {
	values   map[Meter]int
	onChange []func(map[Meter]Change)
	onZero   []func(Meter)
}

// NewMeterBank returns a bank with every meter full.
func NewMeterBank() *MeterBank {
	b := &MeterBank{}
	b.Reset()
	return b
}

// Reset sets all four meters to 100.
func (b *MeterBank) Reset() {
	b.values = FullMeters()
}

// OnChange registers an observer called after every ApplyEffects.
func (b *MeterBank) OnChange(fn func(map[Meter]Change)) {
	b.onChange = append(b.onChange, fn)
}

// OnZero registers an observer called when ApplyEffects leaves a touched meter at zero.
func (b *MeterBank) OnZero(fn func(Meter)) {
	b.onZero = append(b.onZero, fn)
}

// ApplyEffects adds every delta, clamping to [0,100]. Unknown meters are ignored.
// Zero-crossing is reported whenever a touched meter ends at exactly 0,
// regardless of its previous value; only the first such meter is reported.
func (b *MeterBank) ApplyEffects(eff Effects) ApplyResult {
	res := ApplyResult{Changes: make(map[Meter]Change, len(eff))}
	for _, m := range AllMeters {
		delta, ok := eff[m]
		if !ok {
			continue
		}
		old := b.values[m]
		b.values[m] = Clamp(old + delta)
		res.Changes[m] = Change{Previous: old, New: b.values[m], Delta: delta}
		if b.values[m] == 0 && !res.AnyZero {
			res.AnyZero = true
			res.ZeroMeter = m
		}
	}
	for _, fn := range b.onChange {
		fn(res.Changes)
	}
	if res.AnyZero {
		for _, fn := range b.onZero {
			fn(res.ZeroMeter)
		}
	}
	return res
}

// Set overwrites one meter, clamped. Used when seeding a run with permanent bonuses.
func (b *MeterBank) Set(m Meter, v int) {
	if !m.Validate() {
		return
	}
	b.values[m] = Clamp(v)
}

// Get returns the current value of m, 0 for unknown meters.
func (b *MeterBank) Get(m Meter) int { return b.values[m] }

// All returns a defensive copy of every meter.
func (b *MeterBank) All() Meters { return Meters(b.values).Clone() }

// Lowest returns the meter with the smallest value; ties go to the earliest in AllMeters.
func (b *MeterBank) Lowest() Meter {
	return LowestOf(b.values)
}

// LowestOf applies the Lowest tie-break to an arbitrary snapshot.
func LowestOf(values map[Meter]int) Meter {
	lowest := AllMeters[0]
	for _, m := range AllMeters[1:] {
		if values[m] < values[lowest] {
			lowest = m
		}
	}
	return lowest
}

// Below lists, in AllMeters order, the meters strictly under threshold.
func (b *MeterBank) Below(threshold int) []Meter {
	var out []Meter
	for _, m := range AllMeters {
		if b.values[m] < threshold {
			out = append(out, m)
		}
	}
	return out
}

// Revive raises m to at least ReviveFloor. It never lowers a meter.
func (b *MeterBank) Revive(m Meter) {
	if !m.Validate() {
		return
	}
	v := b.values[m]
	if v < ReviveFloor {
		v = ReviveFloor
	}
	b.values[m] = Clamp(v)
}
