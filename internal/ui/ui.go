package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/DaanHessen/one-choice/internal/ads"
	"github.com/DaanHessen/one-choice/internal/engine"
	"github.com/DaanHessen/one-choice/internal/game"
	"github.com/DaanHessen/one-choice/internal/meta"
)

type screen int

const (
	screenMenu screen = iota
	screenDifficulty
	screenStats
	screenEndings
	screenModifiers
	screenLanguage
	screenIntro
	screenFirstTime
	screenPlay
	screenGameOver
)

// Pacing between a choice and what follows it.
const (
	sceneDelay     = 500 * time.Millisecond
	gameOverDelay  = time.Second
	firstTimeDelay = 2 * time.Second
)

type menuItem int

const (
	itemStart menuItem = iota
	itemDifficulty
	itemStats
	itemEndings
	itemModifiers
	itemLanguage
	itemSound
	itemTheme
	itemQuit
)

var menuItems = []menuItem{itemStart, itemDifficulty, itemStats, itemEndings, itemModifiers, itemLanguage, itemSound, itemTheme, itemQuit}

// advanceMsg moves the run to the next screen once a pacing delay has passed.
// Messages for an older run are dropped.
type advanceMsg struct {
	run uuid.UUID
	to  screen
}

type reviveMsg struct{ approved bool }

type model struct {
	ctx  context.Context
	ctrl *game.Controller
	log  *slog.Logger

	theme string
	st    styles
	bar   progress.Model
	low   progress.Model

	screen screen
	cursor int
	width  int
	height int

	menuQuote     string
	collapseQuote string
	intro         game.Intro
	scene         engine.Scene
	sceneView     string
	last          *game.ChoiceResult
	locked        bool
	reviving      bool
	notice        string
}

func initialModel(ctx context.Context, ctrl *game.Controller, theme string, log *slog.Logger) model {
	if log == nil {
		log = slog.Default()
	}
	if _, ok := palettes[theme]; !ok {
		theme = defaultTheme
	}
	m := model{ctx: ctx, ctrl: ctrl, log: log, screen: screenMenu, width: 80}
	m.applyTheme(theme)
	m.menuQuote = ctrl.MenuQuote()
	return m
}

func (m *model) applyTheme(name string) {
	m.theme = name
	m.st = newStyles(paletteFor(name))
	p := m.st.palette
	m.bar = progress.New(progress.WithSolidFill(string(p.BarFill)), progress.WithoutPercentage(), progress.WithWidth(barWidth(m.width)))
	m.bar.EmptyColor = string(p.BarEmpty)
	m.low = progress.New(progress.WithSolidFill(string(p.BarLow)), progress.WithoutPercentage(), progress.WithWidth(barWidth(m.width)))
	m.low.EmptyColor = string(p.BarEmpty)
}

func barWidth(termWidth int) int {
	w := termWidth/2 - 12
	return min(40, max(10, w))
}

func (m model) t(key string) string { return m.ctrl.Texts().Text(key) }

func advanceAfter(d time.Duration, run uuid.UUID, to screen) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return advanceMsg{run: run, to: to} })
}

func requestRevive(ctx context.Context, p ads.Provider) tea.Cmd {
	return func() tea.Msg {
		return reviveMsg{approved: p.RequestRewarded(ctx, ads.KindRevive)}
	}
}

// renderMarkdown renders md through glamour, falling back to the raw text.
func (m model) renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(max(20, m.width-8)))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

func (m *model) showScene() {
	sc, ok := m.ctrl.Scene()
	if !ok {
		m.notice = game.ErrNoScene.Error()
		m.toMenu()
		return
	}
	m.scene = sc
	m.sceneView = m.renderMarkdown(sc.Text)
	m.last = nil
	m.locked = false
	m.screen = screenPlay
}

func (m *model) toMenu() {
	m.ctrl.ReturnToMenu(m.ctx)
	m.screen = screenMenu
	m.cursor = 0
	m.reviving = false
	m.menuQuote = m.ctrl.MenuQuote()
}

// tea.Model implementation ---------------------------------------------------
func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = barWidth(msg.Width)
		m.low.Width = barWidth(msg.Width)
		if m.screen == screenPlay {
			m.sceneView = m.renderMarkdown(m.scene.Text)
		}
		return m, nil
	case advanceMsg:
		if msg.run != m.ctrl.Run().ID || (m.screen != screenPlay && m.screen != screenFirstTime) {
			return m, nil
		}
		switch msg.to {
		case screenPlay:
			m.showScene()
		case screenGameOver:
			m.locked = false
			m.collapseQuote = m.ctrl.GameOverQuote()
			m.screen = screenGameOver
		}
		return m, nil
	case reviveMsg:
		m.reviving = false
		if !msg.approved {
			m.notice = m.t("game.reviveFailed")
			return m, nil
		}
		if _, err := m.ctrl.ApplyRevive(); err != nil {
			m.log.Warn("revive failed", "error", err)
			m.notice = err.Error()
			return m, nil
		}
		m.notice = ""
		m.showScene()
		return m, nil
	case tea.KeyMsg:
		k := msg.String()
		if k == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenMenu:
			return m.updateMenu(k)
		case screenDifficulty, screenModifiers, screenLanguage:
			return m.updateList(k)
		case screenStats, screenEndings:
			if k == "esc" || k == "q" || k == "enter" {
				m.screen = screenMenu
			}
			return m, nil
		case screenIntro:
			if k == "enter" || k == " " {
				return m.afterIntro()
			}
			return m, nil
		case screenPlay:
			return m.updatePlay(k)
		case screenGameOver:
			return m.updateGameOver(k)
		}
	}
	return m, nil
}

func (m model) updateMenu(k string) (tea.Model, tea.Cmd) {
	switch k {
	case "up", "k":
		m.cursor = (m.cursor - 1 + len(menuItems)) % len(menuItems)
	case "down", "j":
		m.cursor = (m.cursor + 1) % len(menuItems)
	case "q":
		return m, tea.Quit
	case "enter", " ":
		return m.selectMenu(menuItems[m.cursor])
	}
	return m, nil
}

func (m model) selectMenu(it menuItem) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch it {
	case itemStart:
		in, err := m.ctrl.StartFromMenu(m.ctx)
		if err != nil {
			m.log.Warn("start run failed", "error", err)
			m.notice = err.Error()
			m.ctrl.ReturnToMenu(m.ctx)
			return m, nil
		}
		m.intro = in
		if in.HasModifier {
			m.screen = screenIntro
			return m, nil
		}
		return m.afterIntro()
	case itemDifficulty:
		m.openList(screenDifficulty)
	case itemStats:
		m.screen = screenStats
	case itemEndings:
		m.screen = screenEndings
	case itemModifiers:
		m.openList(screenModifiers)
	case itemLanguage:
		m.openList(screenLanguage)
	case itemSound:
		m.ctrl.ToggleSound(m.ctx)
	case itemTheme:
		m.applyTheme(nextThemeName(m.theme, 1))
	case itemQuit:
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) openList(s screen) {
	m.screen = s
	m.cursor = 0
	switch s {
	case screenDifficulty:
		for i, d := range engine.AllDifficulties {
			if d == m.ctrl.Settings().Difficulty {
				m.cursor = i
			}
		}
	case screenLanguage:
		for i, l := range m.ctrl.Texts().Languages() {
			if l == m.ctrl.Texts().Language() {
				m.cursor = i
			}
		}
	}
}

func (m model) listLen() int {
	switch m.screen {
	case screenDifficulty:
		return len(engine.AllDifficulties)
	case screenModifiers:
		return len(engine.AllModifierIDs)
	case screenLanguage:
		return len(m.ctrl.Texts().Languages())
	}
	return 0
}

func (m model) updateList(k string) (tea.Model, tea.Cmd) {
	n := m.listLen()
	switch k {
	case "up", "k":
		m.cursor = (m.cursor - 1 + n) % n
	case "down", "j":
		m.cursor = (m.cursor + 1) % n
	case "esc", "q":
		m.screen = screenMenu
		m.cursor = 0
		m.notice = ""
	case "enter", " ":
		switch m.screen {
		case screenDifficulty:
			m.ctrl.SelectDifficulty(m.ctx, engine.AllDifficulties[m.cursor])
			m.screen = screenMenu
			m.cursor = 0
		case screenLanguage:
			m.ctrl.SetLanguage(m.ctx, m.ctrl.Texts().Languages()[m.cursor])
			m.menuQuote = m.ctrl.MenuQuote()
			m.screen = screenMenu
			m.cursor = 0
		case screenModifiers:
			id := engine.AllModifierIDs[m.cursor]
			ok, err := m.ctrl.UnlockModifier(m.ctx, id)
			switch {
			case err != nil:
				m.notice = err.Error()
			case ok:
				m.notice = m.t("insight.unlocked")
			default:
				m.notice = m.t("insight.notEnough")
			}
		}
	}
	return m, nil
}

func (m model) afterIntro() (tea.Model, tea.Cmd) {
	if m.intro.FirstTime && m.intro.Quote != "" {
		m.screen = screenFirstTime
		return m, advanceAfter(firstTimeDelay, m.ctrl.Run().ID, screenPlay)
	}
	m.showScene()
	return m, nil
}

func (m model) updatePlay(k string) (tea.Model, tea.Cmd) {
	switch k {
	case "esc":
		m.toMenu()
		return m, nil
	case "1", "2":
	default:
		return m, nil
	}
	if m.locked {
		return m, nil
	}
	res, err := m.ctrl.MakeChoice(m.ctx, int(k[0]-'1'))
	if errors.Is(err, game.ErrInvalidChoice) || errors.Is(err, game.ErrNotPlaying) {
		m.log.Debug("choice ignored", "error", err)
		return m, nil
	}
	if err != nil {
		m.log.Warn("choice failed", "error", err)
		m.notice = err.Error()
		return m, nil
	}
	m.notice = ""
	m.last = &res
	m.locked = true
	run := m.ctrl.Run().ID
	if res.GameOver {
		return m, advanceAfter(gameOverDelay, run, screenGameOver)
	}
	return m, advanceAfter(sceneDelay, run, screenPlay)
}

func (m model) updateGameOver(k string) (tea.Model, tea.Cmd) {
	if m.reviving {
		return m, nil
	}
	switch k {
	case "r":
		if m.ctrl.State() != game.StateGameOver {
			return m, nil
		}
		m.reviving = true
		m.notice = ""
		return m, requestRevive(m.ctx, m.ctrl.Ads())
	case "enter", "esc", "q":
		m.toMenu()
	}
	return m, nil
}

// Rendering ------------------------------------------------------------------
func (m model) View() string {
	var body string
	switch m.screen {
	case screenMenu:
		body = m.renderMenu()
	case screenDifficulty:
		body = m.renderDifficulty()
	case screenStats:
		body = m.renderStats()
	case screenEndings:
		body = m.renderEndings()
	case screenModifiers:
		body = m.renderModifiers()
	case screenLanguage:
		body = m.renderLanguages()
	case screenIntro:
		body = m.renderIntro()
	case screenFirstTime:
		body = m.st.box.Render(m.st.quote.Render(m.intro.Quote))
	case screenPlay:
		body = m.renderPlay()
	case screenGameOver:
		body = m.renderGameOver()
	}
	if m.notice != "" {
		body += "\n" + m.st.warn.Render(m.notice)
	}
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	return body
}

func (m model) menuLabel(it menuItem) string {
	switch it {
	case itemStart:
		if m.ctrl.DailyAvailable() {
			return m.t("menu.start") + "  " + m.st.good.Render("["+m.t("menu.dailyRun")+"]")
		}
		return m.t("menu.start")
	case itemDifficulty:
		return m.t("menu.difficulty") + ": " + m.t("difficulty."+string(m.ctrl.Settings().Difficulty))
	case itemStats:
		return m.t("menu.stats")
	case itemEndings:
		return m.t("menu.endings")
	case itemModifiers:
		return m.t("menu.modifiers")
	case itemLanguage:
		return m.t("menu.language") + ": " + m.ctrl.Texts().Name(m.ctrl.Texts().Language())
	case itemSound:
		if m.ctrl.Settings().SoundEnabled {
			return m.t("menu.sound") + ": " + m.t("menu.soundOn")
		}
		return m.t("menu.sound") + ": " + m.t("menu.soundOff")
	case itemTheme:
		return m.t("menu.theme") + ": " + m.theme
	case itemQuit:
		return m.t("menu.quit")
	}
	return ""
}

func (m model) cursorLine(selected bool, label string) string {
	if selected {
		return m.st.cursor.Render("> " + label)
	}
	return m.st.text.Render("  " + label)
}

func (m model) renderMenu() string {
	var b strings.Builder
	b.WriteString(m.st.title.Render(m.t("menu.title")) + "\n")
	b.WriteString(m.st.muted.Render(m.t("menu.subtitle")) + "\n\n")
	if m.menuQuote != "" {
		b.WriteString(m.st.quote.Render(m.menuQuote) + "\n\n")
	}
	for i, it := range menuItems {
		b.WriteString(m.cursorLine(i == m.cursor, m.menuLabel(it)) + "\n")
	}
	if info := m.ctrl.ReturningInfo(); info != "" {
		b.WriteString("\n" + m.st.muted.Render(info))
	}
	b.WriteString("\n" + m.st.accent.Render(fmt.Sprintf("%s %d", m.t("stats.insight"), m.ctrl.Insight())))
	b.WriteString("\n\n" + m.st.help.Render(m.t("help.menu")))
	return m.st.box.Width(min(64, max(40, m.width-4))).Render(b.String())
}

func (m model) renderDifficulty() string {
	var b strings.Builder
	b.WriteString(m.st.title.Render(m.t("menu.difficulty")) + "\n\n")
	for i, d := range engine.AllDifficulties {
		b.WriteString(m.cursorLine(i == m.cursor, m.t("difficulty."+string(d))) + "\n")
		desc := strings.ReplaceAll(m.t("difficulty."+string(d)+"Desc"), "\n", " ")
		b.WriteString("    " + m.st.muted.Render(desc) + "\n")
	}
	b.WriteString("\n" + m.st.help.Render(m.t("help.back")))
	return m.st.box.Render(b.String())
}

func (m model) renderStats() string {
	v := m.ctrl.Stats()
	rows := [][2]string{
		{m.t("stats.totalRuns"), fmt.Sprint(v.TotalRuns)},
		{m.t("stats.bestResult"), fmt.Sprint(v.BestChoices)},
		{m.t("stats.commonFailure"), v.CommonFailure},
		{m.t("stats.lastDifficulty"), v.LastDifficulty},
		{m.t("stats.insight"), fmt.Sprint(v.Insight)},
		{m.t("stats.unlockedEndings"), fmt.Sprintf("%d/%d", v.UnlockedEndings, v.TotalEndings)},
	}
	var b strings.Builder
	b.WriteString(m.st.title.Render(m.t("menu.stats")) + "\n\n")
	for _, r := range rows {
		b.WriteString(m.st.muted.Render(fmt.Sprintf("%-22s", r[0])) + m.st.text.Render(r[1]) + "\n")
	}
	if v.TotalRuns > 0 {
		b.WriteString("\n")
		for _, mt := range engine.AllMeters {
			b.WriteString(m.st.label.Render(m.t("stats."+string(mt))) + fmt.Sprintf(" %d\n", v.Failures[mt]))
		}
	}
	b.WriteString("\n" + m.st.help.Render(m.t("help.back")))
	return m.st.box.Render(b.String())
}

// endingsMarkdown lists the catalog with locked entries masked.
func endingsMarkdown(title, locked string, all []meta.Ending) string {
	var b strings.Builder
	b.WriteString("# " + title + "\n\n")
	for _, e := range all {
		if e.Unlocked {
			fmt.Fprintf(&b, "**%s**  \n%s\n\n", e.Title, e.Description)
			continue
		}
		fmt.Fprintf(&b, "**%s**  \n-\n\n", locked)
	}
	return b.String()
}

func (m model) renderEndings() string {
	md := endingsMarkdown(m.t("endings.title"), m.t("endings.locked"), m.ctrl.Endings())
	return m.renderMarkdown(md) + "\n\n" + m.st.help.Render(m.t("help.back"))
}

func (m model) renderModifiers() string {
	var b strings.Builder
	b.WriteString(m.st.title.Render(m.t("menu.modifiers")) + "\n")
	b.WriteString(m.st.accent.Render(fmt.Sprintf("%s %d   %s %d", m.t("insight.total"), m.ctrl.Insight(), m.t("insight.cost"), meta.ModifierCost)) + "\n\n")
	for i, v := range m.ctrl.Modifiers() {
		state := m.st.muted.Render(m.t("insight.locked"))
		if v.Unlocked {
			state = m.st.good.Render(m.t("insight.unlocked"))
		}
		b.WriteString(m.cursorLine(i == m.cursor, v.Name) + "  " + state + "\n")
		b.WriteString("    " + m.st.muted.Render(v.Description) + "\n")
	}
	b.WriteString("\n" + m.st.help.Render(m.t("help.back")))
	return m.st.box.Render(b.String())
}

func (m model) renderLanguages() string {
	var b strings.Builder
	b.WriteString(m.st.title.Render(m.t("menu.language")) + "\n\n")
	for i, l := range m.ctrl.Texts().Languages() {
		b.WriteString(m.cursorLine(i == m.cursor, m.ctrl.Texts().Name(l)) + "\n")
	}
	b.WriteString("\n" + m.st.help.Render(m.t("help.back")))
	return m.st.box.Render(b.String())
}

func (m model) renderIntro() string {
	var b strings.Builder
	if m.intro.Daily {
		b.WriteString(m.st.good.Render(m.t("game.daily")+" "+m.intro.DailyDate) + "\n\n")
	}
	b.WriteString(m.st.muted.Render(m.t("modifier.active")) + "\n")
	b.WriteString(m.st.title.Render(m.intro.Modifier.Name) + "\n")
	b.WriteString(m.st.text.Render(m.intro.Modifier.Description) + "\n\n")
	b.WriteString(m.st.help.Render("enter " + m.t("game.continue")))
	return m.st.box.Render(b.String())
}

func (m model) renderMeters() string {
	meters := m.ctrl.Meters()
	var lines []string
	for _, mt := range engine.AllMeters {
		v := meters[mt]
		bar := m.bar
		if v < engine.ReviveFloor {
			bar = m.low
		}
		line := m.st.label.Render(m.t("stats."+string(mt))) + bar.ViewAs(float64(v)/float64(engine.MeterMax)) + fmt.Sprintf(" %3d", v)
		if m.last != nil {
			if ch, ok := m.last.Changes[mt]; ok && ch.Delta != 0 {
				line += " " + m.deltaText(ch.Delta)
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m model) deltaText(d int) string {
	if d > 0 {
		return m.st.good.Render(fmt.Sprintf("+%d", d))
	}
	return m.st.danger.Render(fmt.Sprintf("%d", d))
}

func (m model) renderPlay() string {
	run := m.ctrl.Run()
	header := fmt.Sprintf("%s %d   %s %d", m.t("game.decisions"), run.ChoicesMade, m.t("game.score"), run.Score)
	if run.Daily {
		header = m.st.good.Render(m.t("game.daily")) + "   " + header
	}
	if mod, ok := m.ctrl.Modifier(); ok {
		header += "   " + m.st.accent.Render(mod.Name)
	}
	var b strings.Builder
	b.WriteString(m.st.muted.Render(header) + "\n\n")
	b.WriteString(m.renderMeters() + "\n\n")
	b.WriteString(m.sceneView + "\n\n")
	var opts []string
	for i, ch := range m.scene.Choices {
		st := m.st.choice
		if m.locked {
			st = st.Foreground(m.st.palette.Muted)
		}
		opts = append(opts, st.Render(fmt.Sprintf("[%d] %s", i+1, ch.Label)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, opts...) + "\n\n")
	b.WriteString(m.st.help.Render(m.t("help.play")))
	return b.String()
}

func (m model) renderGameOver() string {
	sum, ok := m.ctrl.Summary()
	if !ok {
		return m.st.box.Render(m.st.danger.Render(m.t("game.collapse")))
	}
	var b strings.Builder
	b.WriteString(m.st.danger.Render(m.t("game.collapse")) + "\n")
	if m.collapseQuote != "" {
		b.WriteString(m.st.muted.Render(m.collapseQuote) + "\n")
	}
	b.WriteString("\n" + m.st.title.Render(sum.EndingTitle) + "\n")
	b.WriteString(m.st.text.Render(sum.EndingDescription) + "\n\n")
	b.WriteString(fmt.Sprintf("%s %d   %s %d\n", m.t("game.score"), sum.Score, m.t("game.decisions"), sum.ChoicesMade))
	b.WriteString(fmt.Sprintf("%s %d%% %s\n", m.t("game.survived"), sum.Percentile, m.t("game.percentile")))
	if !sum.Repeat {
		b.WriteString(m.st.accent.Render(fmt.Sprintf("%s %d", m.t("insight.earned"), sum.InsightEarned)) + "\n")
	}
	if len(sum.NewEndings) > 0 {
		b.WriteString("\n" + m.st.good.Render(m.t("endings.newlyUnlocked")) + "\n")
		for _, e := range sum.NewEndings {
			b.WriteString("  " + e.Title + "\n")
		}
	}
	if sum.Quote != "" {
		b.WriteString("\n" + m.st.quote.Render(sum.Quote) + "\n")
	}
	if m.reviving {
		b.WriteString("\n" + m.st.warn.Render(m.t("game.reviving")))
	} else {
		b.WriteString("\n" + m.st.help.Render(m.t("help.gameOver")))
	}
	return m.st.box.Width(min(72, max(40, m.width-4))).Render(b.String())
}
