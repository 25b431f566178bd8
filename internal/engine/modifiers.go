package engine

import "math"

// Localizer resolves dotted text keys. Implemented by i18n.Bundle.
type Localizer interface {
	Text(key string) string
}

// Modifier is a run-wide rule that rewrites proposed meter deltas.
type Modifier struct {
	ID             ModifierID
	NameKey        string
	DescriptionKey string
	RequiresUnlock bool
	// Name and Description are resolved at selection time.
	Name        string
	Description string
}

// ModifierState is the per-run mutable part of the active modifier.
type ModifierState struct {
	LockedMeter Meter
	Locked      bool
}

// TransformInput bundles everything a modifier may read.
type TransformInput struct {
	Current       Meters
	Proposed      Effects
	ChoiceNumber  int
	TotalEstimate int
}

type transformFunc func(in TransformInput, st *ModifierState, rng *Stream) Effects

func modifierDef(id ModifierID) Modifier {
	return Modifier{
		ID:             id,
		NameKey:        "modifier." + string(id) + ".name",
		DescriptionKey: "modifier." + string(id) + ".description",
	}
}

// amplify multiplies by factor and floors toward negative infinity, so
// negative deltas grow by one more point than positive ones shrink.
func amplify(v int, factor float64) int {
	return int(math.Floor(float64(v) * factor))
}

func fastMeter(m Meter) transformFunc {
	return func(in TransformInput, _ *ModifierState, _ *Stream) Effects {
		if v := in.Proposed[m]; v != 0 {
			in.Proposed[m] = amplify(v, 1.5)
		}
		return in.Proposed
	}
}

func doubleEffect(in TransformInput, _ *ModifierState, rng *Stream) Effects {
	if in.ChoiceNumber%5 != 0 {
		return in.Proposed
	}
	var free []Meter
	for _, m := range AllMeters {
		if _, ok := in.Proposed[m]; !ok {
			free = append(free, m)
		}
	}
	if len(free) == 0 {
		return in.Proposed
	}
	m := free[rng.Intn(len(free))]
	in.Proposed[m] -= 5
	return in.Proposed
}

func noRecovery(in TransformInput, st *ModifierState, _ *Stream) Effects {
	if !st.Locked {
		st.LockedMeter = LowestOf(in.Current)
		st.Locked = true
	}
	if in.Proposed[st.LockedMeter] > 0 {
		in.Proposed[st.LockedMeter] = 0
	}
	return in.Proposed
}

// harshEnd amplifies damage inside the closing window. TotalEstimate is a
// moving estimate supplied by the caller, so the window drifts with it.
func harshEnd(in TransformInput, _ *ModifierState, _ *Stream) Effects {
	if in.TotalEstimate-in.ChoiceNumber > 5 {
		return in.Proposed
	}
	for m, v := range in.Proposed {
		if v < 0 {
			in.Proposed[m] = amplify(v, 1.3)
		}
	}
	return in.Proposed
}

var transforms = map[ModifierID]transformFunc{
	ModifierFastMind:     fastMeter(MeterMind),
	ModifierFastHeart:    fastMeter(MeterHeart),
	ModifierFastTime:     fastMeter(MeterTime),
	ModifierFastDrive:    fastMeter(MeterDrive),
	ModifierDoubleEffect: doubleEffect,
	ModifierNoRecovery:   noRecovery,
	ModifierHarshEnd:     harshEnd,
}

// ModifierCatalog returns the fixed catalog in AllModifierIDs order.
func ModifierCatalog() []Modifier {
	out := make([]Modifier, 0, len(AllModifierIDs))
	for _, id := range AllModifierIDs {
		out = append(out, modifierDef(id))
	}
	return out
}

// Registry holds the modifier catalog and the current run's selection.
type Registry struct {
	catalog []Modifier
	current *Modifier
	state   ModifierState
	loc     Localizer
	stream  *Stream
}

func NewRegistry(loc Localizer) *Registry {
	return &Registry{catalog: ModifierCatalog(), loc: loc}
}

func (r *Registry) SetLocalizer(loc Localizer) { r.loc = loc }
func (r *Registry) SetStream(s *Stream)        { r.stream = s }

// Catalog returns a copy of every known modifier.
func (r *Registry) Catalog() []Modifier { return append([]Modifier(nil), r.catalog...) }

// SelectRandom picks uniformly among unlock-free modifiers and those in unlocked.
func (r *Registry) SelectRandom(unlocked []ModifierID) (Modifier, bool) {
	var avail []Modifier
	for _, m := range r.catalog {
		if !m.RequiresUnlock || contains(unlocked, m.ID) {
			avail = append(avail, m)
		}
	}
	if len(avail) == 0 {
		return Modifier{}, false
	}
	return r.activate(avail[r.rng().Intn(len(avail))]), true
}

// Select activates a specific modifier regardless of unlock state.
func (r *Registry) Select(id ModifierID) (Modifier, bool) {
	for _, m := range r.catalog {
		if m.ID == id {
			return r.activate(m), true
		}
	}
	return Modifier{}, false
}

func (r *Registry) activate(m Modifier) Modifier {
	if r.loc != nil {
		m.Name = r.loc.Text(m.NameKey)
		m.Description = r.loc.Text(m.DescriptionKey)
	} else {
		m.Name = m.NameKey
		m.Description = m.DescriptionKey
	}
	r.current = &m
	r.state = ModifierState{}
	return m
}

// Current returns the active modifier, if any.
func (r *Registry) Current() (Modifier, bool) {
	if r.current == nil {
		return Modifier{}, false
	}
	return *r.current, true
}

// State exposes the per-run modifier state.
func (r *Registry) State() ModifierState { return r.state }

// Transform applies the active modifier to a copy of proposed. Identity when none is selected.
func (r *Registry) Transform(current Meters, proposed Effects, choiceNumber, totalEstimate int) Effects {
	out := proposed.Clone()
	if r.current == nil {
		return out
	}
	fn, ok := transforms[r.current.ID]
	if !ok {
		return out
	}
	in := TransformInput{Current: current, Proposed: out, ChoiceNumber: choiceNumber, TotalEstimate: totalEstimate}
	return fn(in, &r.state, r.rng())
}

// Reset clears the current modifier and its locked state.
func (r *Registry) Reset() {
	r.current = nil
	r.state = ModifierState{}
}

func (r *Registry) rng() *Stream {
	if r.stream == nil {
		r.stream = fallbackStream("modifiers")
	}
	return r.stream
}
