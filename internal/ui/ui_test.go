package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/DaanHessen/one-choice/assets"
	"github.com/DaanHessen/one-choice/internal/ads"
	"github.com/DaanHessen/one-choice/internal/engine"
	"github.com/DaanHessen/one-choice/internal/game"
	"github.com/DaanHessen/one-choice/internal/i18n"
	"github.com/DaanHessen/one-choice/internal/meta"
	"github.com/DaanHessen/one-choice/internal/store"
)

type stubAds struct{}

func (stubAds) RequestRewarded(context.Context, ads.Kind) bool { return true }
func (stubAds) RequestInterstitial(context.Context) bool       { return true }

func testModel(t *testing.T) model {
	t.Helper()
	texts, err := i18n.New()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	ctrl := game.New(store.NewMemory(), texts, game.WithAds(stubAds{}))
	if err := ctrl.Init(ctx, assets.Scenes()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return initialModel(ctx, ctrl, "", nil)
}

func press(t *testing.T, m model, keys ...string) model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func (m model) send(msg tea.Msg) model {
	next, _ := m.Update(msg)
	return next.(model)
}

func TestStartShowsModifierThenFirstTimeQuote(t *testing.T) {
	m := testModel(t)
	if m.theme != defaultTheme {
		t.Fatalf("unknown theme should fall back, got %s", m.theme)
	}
	m = press(t, m, "enter")
	if m.screen != screenIntro || !m.intro.HasModifier {
		t.Fatalf("expected modifier announcement, screen %d", m.screen)
	}
	m = press(t, m, "enter")
	if m.screen != screenFirstTime {
		t.Fatalf("first run should show the pre-game quote, screen %d", m.screen)
	}
	m = m.send(advanceMsg{run: m.ctrl.Run().ID, to: screenPlay})
	if m.screen != screenPlay || len(m.scene.Choices) != 2 {
		t.Fatalf("expected play screen with a scene")
	}
	if !strings.Contains(m.View(), "[1]") {
		t.Fatalf("play view missing choices")
	}
}

func TestChoiceLocksInputUntilAdvance(t *testing.T) {
	m := testModel(t)
	if err := m.ctrl.StartNewGame(context.Background()); err != nil {
		t.Fatal(err)
	}
	m.showScene()
	first := m.scene
	m = press(t, m, "2")
	if !m.locked || m.ctrl.Run().ChoicesMade != 1 {
		t.Fatalf("choice not applied or not locked")
	}
	m = press(t, m, "1")
	if m.ctrl.Run().ChoicesMade != 1 {
		t.Fatalf("input accepted while locked")
	}
	if m.scene.Text != first.Text {
		t.Fatalf("scene swapped before the pacing delay")
	}
	m = m.send(advanceMsg{run: uuid.New(), to: screenPlay})
	if !m.locked {
		t.Fatalf("advance for another run must be ignored")
	}
	m = m.send(advanceMsg{run: m.ctrl.Run().ID, to: screenPlay})
	if m.locked || m.last != nil {
		t.Fatalf("advance should unlock input")
	}
}

func TestGameOverReviveFlow(t *testing.T) {
	m := testModel(t)
	ctx := context.Background()
	if err := m.ctrl.StartNewGame(ctx); err != nil {
		t.Fatal(err)
	}
	for m.ctrl.State() == game.StatePlaying {
		sc, _ := m.ctrl.Scene()
		worst := 0
		if game.CautiousPolicy(sc, m.ctrl.Meters(), nil) == 0 {
			worst = 1
		}
		if _, err := m.ctrl.MakeChoice(ctx, worst); err != nil {
			t.Fatalf("choice: %v", err)
		}
	}
	m.screen = screenPlay
	m = m.send(advanceMsg{run: m.ctrl.Run().ID, to: screenGameOver})
	if m.screen != screenGameOver {
		t.Fatalf("expected game over screen")
	}
	if !strings.Contains(m.View(), m.t("game.collapse")) {
		t.Fatalf("game over view missing collapse banner")
	}
	m = press(t, m, "r")
	if !m.reviving {
		t.Fatalf("revive request not started")
	}
	m = m.send(reviveMsg{approved: true})
	if m.screen != screenPlay || m.ctrl.State() != game.StatePlaying {
		t.Fatalf("revive should resume play")
	}
}

func TestMenuSettingsScreens(t *testing.T) {
	m := testModel(t)
	// difficulty: open, move to hard, select
	m = press(t, m, "down", "enter")
	if m.screen != screenDifficulty {
		t.Fatalf("expected difficulty screen")
	}
	m = press(t, m, "down", "enter")
	if m.ctrl.Settings().Difficulty != engine.DifficultyHard {
		t.Fatalf("difficulty %s", m.ctrl.Settings().Difficulty)
	}
	m.cursor = int(itemLanguage)
	m = press(t, m, "enter", "down", "enter")
	if m.ctrl.Texts().Language() != "ru" {
		t.Fatalf("language %s", m.ctrl.Texts().Language())
	}
	m.cursor = int(itemTheme)
	m = press(t, m, "enter")
	if m.theme != nextThemeName(defaultTheme, 1) {
		t.Fatalf("theme %s", m.theme)
	}
	for _, s := range []screen{screenStats, screenEndings, screenModifiers} {
		m.screen = s
		if m.View() == "" {
			t.Fatalf("screen %d rendered empty", s)
		}
	}
}

func TestEndingsMarkdownMasksLocked(t *testing.T) {
	md := endingsMarkdown("Endings", "???", []meta.Ending{
		{ID: meta.EndingMind, Title: "MADNESS", Description: "gone", Unlocked: true},
		{ID: meta.EndingHeart, Title: "SECRET", Description: "hidden"},
	})
	if !strings.Contains(md, "MADNESS") || strings.Contains(md, "SECRET") || !strings.Contains(md, "???") {
		t.Fatalf("unexpected markdown:\n%s", md)
	}
}

func TestNextThemeNameWraps(t *testing.T) {
	names := themeNames()
	last := names[len(names)-1]
	if nextThemeName(last, 1) != names[0] || nextThemeName(names[0], -1) != last {
		t.Fatalf("theme cycling does not wrap: %v", names)
	}
}
