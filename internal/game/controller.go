// Package game owns a single run from the menu to collapse and wires the
// engine to the meta-progression managers.
package game

import (
	"context"
	"io/fs"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/DaanHessen/one-choice/internal/ads"
	"github.com/DaanHessen/one-choice/internal/engine"
	"github.com/DaanHessen/one-choice/internal/meta"
	"github.com/DaanHessen/one-choice/internal/store"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrNotPlaying    = errors.New("no run in progress")
	ErrInvalidChoice = errors.New("invalid choice")
	ErrNotGameOver   = errors.New("run has not collapsed")
	ErrNoScene       = errors.New("no scene available")
	ErrAdDeclined    = errors.New("revive ad not completed")
)

// State is the controller's position in the run lifecycle.
type State string

const (
	StateLoading  State = "loading"
	StateIdle     State = "idle"
	StatePlaying  State = "playing"
	StateGameOver State = "gameover"
)

// Texts is the localisation surface the controller needs.
type Texts interface {
	Text(key string) string
	Lines(key string) []string
	Language() string
	SetLanguage(lang string) bool
	Languages() []string
	Name(lang string) string
}

// Run is the per-run state. ID is regenerated for every new run.
type Run struct {
	ID             uuid.UUID
	Seed           engine.RunSeed
	Score          int
	ChoicesMade    int
	Difficulty     engine.Difficulty
	Daily          bool
	DailyDate      string
	InsightAwarded bool
}

// Intro is what the menu shows between START and the first scene.
type Intro struct {
	Modifier    engine.Modifier
	HasModifier bool
	FirstTime   bool
	Quote       string
	Daily       bool
	DailyDate   string
}

// Summary is the collapse screen of a run.
type Summary struct {
	RunID             uuid.UUID
	ZeroMeter         engine.Meter
	EndingTitle       string
	EndingDescription string
	Score             int
	ChoicesMade       int
	InsightEarned     int
	InsightTotal      int
	NewEndings        []meta.Ending
	Quote             string
	Percentile        int
	Daily             bool
	// Repeat is set when the run collapsed again after a revive and earned nothing new.
	Repeat bool
}

// ChoiceResult describes one applied choice.
type ChoiceResult struct {
	Applied  engine.Effects
	Changes  map[engine.Meter]engine.Change
	Next     engine.Scene
	GameOver bool
	Summary  Summary
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option        { return func(c *Controller) { c.log = l } }
func WithAds(p ads.Provider) Option           { return func(c *Controller) { c.ads = p } }
func WithSound(s Sound) Option                { return func(c *Controller) { c.sound = s } }
func WithClock(now func() time.Time) Option   { return func(c *Controller) { c.now = now } }
func WithQuoteStream(s *engine.Stream) Option { return func(c *Controller) { c.quoteStream = s } }

// Controller coordinates the meter bank, scene catalog, modifier registry
// and meta managers for one player. It is not safe for concurrent use.
type Controller struct {
	kv    store.KV
	texts Texts
	log   *slog.Logger
	ads   ads.Provider
	sound Sound
	now   func() time.Time

	bank    *engine.MeterBank
	catalog *engine.Catalog
	mods    *engine.Registry

	insight *meta.Insight
	endings *meta.Endings
	daily   *meta.Daily
	history *meta.History

	quotes      *Quotes
	quoteStream *engine.Stream
	pacer       *ads.Pacer
	settings    Settings

	state      State
	run        Run
	scene      *engine.Scene
	summary    *Summary
	percentile *engine.Stream
}

func New(kv store.KV, texts Texts, opts ...Option) *Controller {
	c := &Controller{
		kv:       kv,
		texts:    texts,
		log:      slog.Default(),
		sound:    Silent{},
		now:      time.Now,
		bank:     engine.NewMeterBank(),
		pacer:    ads.NewPacer(),
		settings: defaultSettings(),
		state:    StateLoading,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ads == nil {
		c.ads = ads.NewStandalone(c.log)
	}
	if c.catalog == nil {
		c.catalog = engine.NewCatalog(engine.WithCatalogLogger(c.log))
	}
	if c.quoteStream == nil {
		c.quoteStream = randomSeed(c.now).Stream("quotes")
	}
	c.mods = engine.NewRegistry(texts)
	c.quotes = NewQuotes(texts, c.quoteStream)
	c.insight = meta.NewInsight(kv, c.log)
	c.endings = meta.NewEndings(kv, c.log)
	c.daily = meta.NewDaily(kv, c.log, meta.WithClock(c.now))
	c.history = meta.NewHistory(kv, c.log)
	c.bank.OnChange(func(ch map[engine.Meter]engine.Change) {
		for m, d := range ch {
			c.log.Debug("meter changed", "meter", m, "from", d.Previous, "to", d.New)
		}
	})
	c.bank.OnZero(func(m engine.Meter) {
		c.log.Debug("meter depleted", "run", c.run.ID, "meter", m)
	})
	return c
}

func randomSeed(now func() time.Time) engine.RunSeed {
	s, err := engine.RandomRunSeed()
	if err != nil {
		return engine.NewRunSeed(uint64(now().UnixNano()))
	}
	return s
}

// Init restores preferences and progression and loads the scene pools from
// scenes. A pool failure is returned for reporting only: the catalog then
// serves the built-in fallback scene and the controller stays usable.
func (c *Controller) Init(ctx context.Context, scenes fs.FS) error {
	c.settings = loadSettings(ctx, c.kv, c.log)
	if c.settings.Language != "" && !c.texts.SetLanguage(c.settings.Language) {
		c.log.Warn("stored language unavailable", "lang", c.settings.Language)
	}
	c.settings.Language = c.texts.Language()
	c.insight.Load(ctx)
	c.endings.Load(ctx)
	c.daily.Load(ctx)
	c.history.Load(ctx)

	err := c.catalog.Load(ctx, scenes)
	c.state = StateIdle
	return errors.Wrap(err, "load scenes")
}

// StartFromMenu begins a run from the menu, claiming today's daily run when it is still available.
// The daily attempt is only claimed once the run has actually started.
func (c *Controller) StartFromMenu(ctx context.Context) (Intro, error) {
	dr, daily := c.daily.Peek()
	firstTime := c.history.TotalRuns() == 0
	var drp *meta.DailyRun
	if daily {
		drp = &dr
	}
	if err := c.startRun(ctx, drp); err != nil {
		return Intro{}, err
	}
	if daily {
		c.daily.Start(ctx)
	}
	in := Intro{FirstTime: firstTime, Daily: daily, DailyDate: dr.Date}
	in.Modifier, in.HasModifier = c.mods.Current()
	if firstTime {
		in.Quote = c.quotes.Get(QuotesPreGame)
	}
	return in, nil
}

// StartNewGame begins a regular, non-daily run.
func (c *Controller) StartNewGame(ctx context.Context) error { return c.startRun(ctx, nil) }

func (c *Controller) startRun(ctx context.Context, daily *meta.DailyRun) error {
	seed := randomSeed(c.now)
	run := Run{ID: uuid.New(), Difficulty: c.settings.Difficulty}
	if daily != nil {
		seed = engine.NewRunSeed(uint64(daily.Seed))
		run.Daily = true
		run.DailyDate = daily.Date
	}
	run.Seed = seed
	c.run = run
	c.summary = nil

	c.bank.Reset()
	c.catalog.Reset()
	c.mods.Reset()
	c.quotes.Reset()
	c.catalog.SetStream(seed.Stream("scenes"))
	c.mods.SetStream(seed.Stream("modifiers"))
	c.percentile = seed.Stream("percentile")

	c.catalog.SetTier(tierFor(run.Difficulty))
	for m, v := range c.insight.ApplyPermanentBonuses(c.bank.All()) {
		c.bank.Set(m, v)
	}
	if mod, ok := c.mods.SelectRandom(c.insight.Unlocked()); ok {
		c.log.Debug("modifier selected", "run", run.ID, "modifier", mod.ID)
	}
	c.state = StatePlaying
	c.log.Info("run started", "run", run.ID, "difficulty", run.Difficulty, "daily", run.Daily)
	return c.nextScene()
}

func tierFor(d engine.Difficulty) engine.Tier {
	switch d {
	case engine.DifficultyEasy:
		return engine.TierEasy
	case engine.DifficultyHard:
		return engine.TierHard
	}
	return engine.TierMid
}

func (c *Controller) nextScene() error {
	forced := engine.TierForDifficulty(c.run.Difficulty, c.run.ChoicesMade)
	sc, ok := c.catalog.Sample(c.run.ChoicesMade, c.bank.Below(engine.ReviveFloor), forced)
	if !ok {
		c.scene = nil
		return ErrNoScene
	}
	c.scene = &sc
	return nil
}

// MakeChoice applies choice index of the current scene. A zero-crossing
// terminates the run before the result is returned; otherwise the next
// scene is already sampled. The collapsing choice is settled against the
// counters as they stood before it, so it earns no score, insight or
// history credit of its own.
func (c *Controller) MakeChoice(ctx context.Context, index int) (ChoiceResult, error) {
	if c.state != StatePlaying || c.scene == nil {
		return ChoiceResult{}, ErrNotPlaying
	}
	choice, ok := c.scene.Choice(index)
	if !ok {
		return ChoiceResult{}, errors.Wrapf(ErrInvalidChoice, "index %d", index)
	}
	applied := c.mods.Transform(c.bank.All(), choice.Effects, c.run.ChoicesMade+1, c.run.ChoicesMade+10)
	res := c.bank.ApplyEffects(applied)
	c.play(SoundClick)

	out := ChoiceResult{Applied: applied, Changes: res.Changes}
	if res.AnyZero {
		out.GameOver = true
		out.Summary = c.handleGameOver(ctx, res.ZeroMeter)
	}
	c.run.Score += choice.Score
	c.run.ChoicesMade++
	c.saveSnapshot(ctx)
	if out.GameOver {
		return out, nil
	}
	if err := c.nextScene(); err != nil {
		return out, err
	}
	out.Next = *c.scene
	return out, nil
}

// handleGameOver terminates the run. Rewards are granted at most once per
// run even when a revived run collapses again.
func (c *Controller) handleGameOver(ctx context.Context, zero engine.Meter) Summary {
	if c.state == StateGameOver && c.summary != nil {
		return *c.summary
	}
	c.state = StateGameOver
	c.scene = nil
	sum := Summary{
		RunID:       c.run.ID,
		ZeroMeter:   zero,
		Score:       c.run.Score,
		ChoicesMade: c.run.ChoicesMade,
		Daily:       c.run.Daily,
		Repeat:      c.run.InsightAwarded,
	}
	if !c.run.InsightAwarded {
		c.run.InsightAwarded = true
		for _, id := range c.endings.CheckAndUnlock(ctx, zero, c.bank.All()) {
			sum.NewEndings = append(sum.NewEndings, meta.Ending{
				ID:          id,
				Title:       c.texts.Text(id.TitleKey()),
				Description: c.texts.Text(id.DescriptionKey()),
				Unlocked:    true,
			})
		}
		sum.InsightEarned = meta.CalculateInsight(c.run.ChoicesMade, c.run.Difficulty)
		c.insight.AddInsight(ctx, sum.InsightEarned)
		c.history.Record(ctx, zero, c.run.ChoicesMade, c.run.Difficulty)
		if c.run.Daily {
			c.daily.Complete(ctx)
		}
	}
	c.play(SoundCollapse)

	ending := meta.EndingID(zero)
	sum.EndingTitle = c.texts.Text(ending.TitleKey())
	sum.EndingDescription = c.texts.Text(ending.DescriptionKey())
	if sum.EndingTitle == ending.TitleKey() {
		sum.EndingTitle = c.texts.Text(meta.EndingMind.TitleKey())
		sum.EndingDescription = c.texts.Text(meta.EndingMind.DescriptionKey())
	}
	sum.InsightTotal = c.insight.Balance()
	sum.Quote = c.quotes.Get(QuotesRestart)
	sum.Percentile = c.calculatePercentile()
	c.summary = &sum
	c.log.Info("run collapsed", "run", c.run.ID, "meter", zero, "choices", c.run.ChoicesMade, "insight", sum.InsightEarned)
	return sum
}

func (c *Controller) calculatePercentile() int {
	base := int(math.Floor((float64(c.run.ChoicesMade)*2 + float64(c.run.Score)/10) * 1.5))
	base = min(95, max(5, base))
	variation := int(math.Floor(c.percentile.Float64()*10)) - 5
	return min(99, max(1, base+variation))
}

// Revive asks the ad provider for a rewarded view and, when approved,
// resumes the collapsed run.
func (c *Controller) Revive(ctx context.Context) (engine.Scene, error) {
	if c.state != StateGameOver {
		return engine.Scene{}, ErrNotGameOver
	}
	if !c.ads.RequestRewarded(ctx, ads.KindRevive) {
		return engine.Scene{}, ErrAdDeclined
	}
	return c.ApplyRevive()
}

// ApplyRevive resumes a collapsed run after the ad was approved elsewhere.
// The lowest meter is raised to the revive floor and play continues with the
// same score, choice count and modifier.
func (c *Controller) ApplyRevive() (engine.Scene, error) {
	if c.state != StateGameOver {
		return engine.Scene{}, ErrNotGameOver
	}
	lowest := c.bank.Lowest()
	c.bank.Revive(lowest)
	c.state = StatePlaying
	c.summary = nil
	c.log.Info("run revived", "run", c.run.ID, "meter", lowest)
	if err := c.nextScene(); err != nil {
		return engine.Scene{}, err
	}
	return *c.scene, nil
}

// ReturnToMenu leaves the current screen. Every third return from a
// collapsed run shows an interstitial.
func (c *Controller) ReturnToMenu(ctx context.Context) {
	if c.state == StateGameOver && c.pacer.Tick() {
		c.ads.RequestInterstitial(ctx)
	}
	c.state = StateIdle
	c.scene = nil
}

func (c *Controller) play(kind SoundKind) {
	if c.settings.SoundEnabled {
		c.sound.Play(kind)
	}
}

// SelectDifficulty persists d. It takes effect on the next run.
func (c *Controller) SelectDifficulty(ctx context.Context, d engine.Difficulty) bool {
	if !d.Validate() {
		return false
	}
	c.settings.Difficulty = d
	saveDifficulty(ctx, c.kv, c.log, d)
	return true
}

// SetLanguage switches and persists the language. Quotes start over in the new language.
func (c *Controller) SetLanguage(ctx context.Context, lang string) bool {
	if !c.texts.SetLanguage(lang) {
		return false
	}
	c.settings.Language = lang
	c.quotes.Reset()
	saveLanguage(ctx, c.kv, c.log, lang)
	return true
}

func (c *Controller) ToggleSound(ctx context.Context) bool {
	c.settings.SoundEnabled = !c.settings.SoundEnabled
	saveSound(ctx, c.kv, c.log, c.settings.SoundEnabled)
	return c.settings.SoundEnabled
}

func (c *Controller) UnlockModifier(ctx context.Context, id engine.ModifierID) (bool, error) {
	return c.insight.UnlockModifier(ctx, id)
}

// MenuQuote returns the next menu flavour line.
func (c *Controller) MenuQuote() string { return c.quotes.Get(QuotesMenu) }

// GameOverQuote returns a collapse flavour line.
func (c *Controller) GameOverQuote() string { return c.quotes.Get(QuotesGameOver) }

// ReturningInfo summarises earlier runs for the menu; empty for new players.
func (c *Controller) ReturningInfo() string {
	st := c.history.Stats()
	if st.TotalRuns == 0 {
		return ""
	}
	failure := "—"
	if m, ok := c.history.MostCommonFailure(); ok {
		failure = c.texts.Text("stats." + string(m))
	}
	decisions := strings.ToLower(strings.TrimSuffix(c.texts.Text("game.decisions"), ":"))
	return c.texts.Text("stats.bestResult") + " " + strconv.Itoa(st.BestChoices) + " " + decisions + ". " +
		c.texts.Text("stats.commonFailure") + " " + failure + "."
}

// StatsView is the statistics screen.
type StatsView struct {
	TotalRuns       int
	BestChoices     int
	CommonFailure   string
	LastDifficulty  string
	Insight         int
	UnlockedEndings int
	TotalEndings    int
	Failures        map[engine.Meter]int
}

func (c *Controller) Stats() StatsView {
	st := c.history.Stats()
	v := StatsView{
		TotalRuns:       st.TotalRuns,
		BestChoices:     st.BestChoices,
		CommonFailure:   "—",
		LastDifficulty:  "—",
		Insight:         c.insight.Balance(),
		UnlockedEndings: c.endings.UnlockedCount(),
		TotalEndings:    len(meta.AllEndings),
		Failures:        st.FailureStats,
	}
	if m, ok := c.history.MostCommonFailure(); ok {
		v.CommonFailure = c.texts.Text("stats." + string(m))
	}
	if st.LastDifficulty != "" {
		v.LastDifficulty = c.texts.Text("difficulty." + string(st.LastDifficulty))
	}
	return v
}

func (c *Controller) Endings() []meta.Ending { return c.endings.All(c.texts) }

// ModifierView is one row of the modifier screen.
type ModifierView struct {
	engine.Modifier
	Unlocked   bool
	Affordable bool
}

func (c *Controller) Modifiers() []ModifierView {
	var out []ModifierView
	for _, m := range c.mods.Catalog() {
		m.Name = c.texts.Text(m.NameKey)
		m.Description = c.texts.Text(m.DescriptionKey)
		out = append(out, ModifierView{
			Modifier:   m,
			Unlocked:   c.insight.IsUnlocked(m.ID),
			Affordable: c.insight.CanUnlock(m.ID),
		})
	}
	return out
}

func (c *Controller) State() State          { return c.state }
func (c *Controller) Run() Run              { return c.run }
func (c *Controller) Meters() engine.Meters { return c.bank.All() }
func (c *Controller) Settings() Settings    { return c.settings }
func (c *Controller) Texts() Texts          { return c.texts }
func (c *Controller) Ads() ads.Provider     { return c.ads }
func (c *Controller) Insight() int          { return c.insight.Balance() }
func (c *Controller) DailyAvailable() bool  { return c.daily.IsAvailable() }

// Modifier returns the modifier active for the current run.
func (c *Controller) Modifier() (engine.Modifier, bool) {
	return c.mods.Current()
}

// Scene returns the scene awaiting a choice.
func (c *Controller) Scene() (engine.Scene, bool) {
	if c.scene == nil {
		return engine.Scene{}, false
	}
	return *c.scene, true
}

// Summary returns the collapse summary of the current run, if it has collapsed.
func (c *Controller) Summary() (Summary, bool) {
	if c.summary == nil {
		return Summary{}, false
	}
	return *c.summary, true
}

// LastSnapshot returns the most recent in-progress save when it is fresh.
func (c *Controller) LastSnapshot(ctx context.Context) (Snapshot, bool) {
	s, ok, err := LoadSnapshot(ctx, c.kv, c.now())
	if err != nil {
		c.log.Warn("load snapshot failed", "error", err)
		return Snapshot{}, false
	}
	return s, ok
}
