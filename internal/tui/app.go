// Package tui provides the interactive Bubble Tea page for drawdown.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/drawdown/internal/state"
	"github.com/theirongolddev/drawdown/internal/tui/components"
	"github.com/theirongolddev/drawdown/internal/tui/theme"
)

// PreloadedMsg is sent when an allocation pass finishes.
type PreloadedMsg struct {
	Snapshot state.Snapshot
	Err      error
	LoadTime time.Duration
}

const (
	tabBudget = iota
	tabSuccesses
	tabErrors
)

// App is the root Bubble Tea model.
type App struct {
	store   *state.Store
	fetcher state.Fetcher
	source  string

	// Data
	snap      state.Snapshot
	loaded    bool
	loadErr   error
	loadTime  time.Duration
	reloading bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	scroll    [3]int

	spinner spinner.Model
}

const (
	minTerminalWidth = 60
	maxContentWidth  = 140
	minContentHeight = 5
	preloadTimeout   = 30 * time.Second
)

// NewApp creates a new TUI app that preloads from f into st.
func NewApp(st *state.Store, f state.Fetcher, source string) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		store:   st,
		fetcher: f,
		source:  source,
		spinner: sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		preloadCmd(a.store, a.fetcher),
	)
}

// preloadCmd runs an allocation pass off the UI goroutine.
func preloadCmd(st *state.Store, f state.Fetcher) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), preloadTimeout)
		defer cancel()

		start := time.Now()
		_, err := st.Preload(ctx, f)
		return PreloadedMsg{
			Snapshot: st.Snapshot(),
			Err:      err,
			LoadTime: time.Since(start),
		}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.scrollBy(-1)
		case tea.MouseButtonWheelDown:
			a.scrollBy(1)
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case PreloadedMsg:
		a.loaded = true
		a.reloading = false
		a.loadTime = msg.LoadTime
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.snap = msg.Snapshot
			a.scroll = [3]int{}
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.reloading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if a.reloading {
			return a, nil
		}
		a.reloading = true
		return a, tea.Batch(a.spinner.Tick, preloadCmd(a.store, a.fetcher))
	case "tab", "right", "l":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	case "shift+tab", "left", "h":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "1", "2", "3":
		a.activeTab = int(key[0] - '1')
	case "j", "down":
		a.scrollBy(1)
	case "k", "up":
		a.scrollBy(-1)
	case "g":
		a.scroll[a.activeTab] = 0
	case "G":
		a.scroll[a.activeTab] = a.maxScroll()
	default:
		if len(msg.Runes) == 1 {
			if tab := components.TabIdxByKey(msg.Runes[0]); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a *App) scrollBy(n int) {
	a.scroll[a.activeTab] = min(max(a.scroll[a.activeTab]+n, 0), a.maxScroll())
}

// maxScroll is the largest useful offset for the active tab's line list.
func (a App) maxScroll() int {
	return max(len(a.tabLines(a.activeTab))-1, 0)
}

func (a App) contentWidth() int { return min(a.width, maxContentWidth) }

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  drawdown needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

// panel holds the styles shared by the centered loading and help cards.
type panel struct {
	box, title, key, muted, dim lipgloss.Style
}

func newPanel(t theme.Theme, vpad, hpad int) panel {
	on := func(fg lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(fg).Background(t.Surface)
	}
	return panel{
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderAccent).
			Background(t.Surface).
			Padding(vpad, hpad),
		title: on(t.AccentBright).Bold(true),
		key:   on(t.Accent).Bold(true),
		muted: on(t.TextMuted),
		dim:   on(t.TextDim),
	}
}

// place centers body in a card on the full terminal.
func (a App) place(p panel, body string) string {
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, p.box.Render(body),
		lipgloss.WithWhitespaceBackground(theme.Active.Background))
}

func (a App) viewLoading() string {
	p := newPanel(theme.Active, 2, 4)
	body := p.title.Render("◈ drawdown") + p.muted.Render(" · Budget Draws") + "\n\n" +
		a.spinner.View() + p.muted.Render(" Processing draws from "+a.source+"...")
	return a.place(p, body)
}

var helpBindings = [][2]string{
	{"b s e", "Jump to tab"},
	{"1 2 3", "Jump to tab"},
	{"tab ← →", "Previous / Next tab"},
	{"j k", "Scroll"},
	{"g G", "Top / Bottom"},
	{"r", "Re-run allocation"},
	{"?", "Toggle help"},
	{"q", "Quit"},
}

func (a App) viewHelp() string {
	p := newPanel(theme.Active, 1, 3)

	var b strings.Builder
	b.WriteString(p.title.Render("◈ Keyboard Shortcuts") + "\n\n")
	for _, kb := range helpBindings {
		fmt.Fprintf(&b, "  %s  %s\n", p.key.Render(fmt.Sprintf("%-10s", kb[0])), p.muted.Render(kb[1]))
	}
	b.WriteString("\n" + p.dim.Render("Press any key to close"))
	return a.place(p, b.String())
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)
	statusBar := components.RenderStatusBar(w, a.statusInfo(), a.reloading)

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	if a.loadErr != nil {
		errStyle := lipgloss.NewStyle().Foreground(t.Rejected).Background(t.Background)
		content = errStyle.Render(" Load failed: "+a.loadErr.Error()) + "\n"
	}
	switch a.activeTab {
	case tabBudget:
		content += a.renderBudgetTab(cw)
	default:
		content += a.renderListTab(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusInfo() string {
	parts := []string{a.source}
	if a.snap.RunID != "" {
		parts = append(parts, "run "+shortID(a.snap.RunID))
	}
	if a.loadTime > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", a.loadTime.Seconds()))
	}
	return strings.Join(parts, " · ")
}

// tabAtX maps a click column on the tab bar to a tab index, or -1.
func (a App) tabAtX(x int) int {
	left := 0
	for i, tab := range components.Tabs {
		right := left + components.TabVisualWidth(tab, i == a.activeTab)
		if x >= left && x < right {
			return i
		}
		left = right + 1 // separator column
	}
	return -1
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
