package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/filmpick/internal/controller"
	"github.com/abelbrown/filmpick/internal/film"
	"github.com/abelbrown/filmpick/internal/otel"
	"github.com/abelbrown/filmpick/internal/pubsub"
)

// pulseFrames is how many ticks the recommendations pane stays highlighted
// after new results land.
const pulseFrames = 6

const pulseInterval = 150 * time.Millisecond

// Workflow is the part of the controller the UI drives.
type Workflow interface {
	LoadCatalog(ctx context.Context) error
	ToggleSelect(title string) error
	RequestRecommendations(ctx context.Context) error
	ClearSelection()
	Snapshot() controller.Snapshot
}

// ObsConfig wires observability into the UI. Both fields are optional.
type ObsConfig struct {
	Ring   *otel.RingBuffer
	Events *otel.Logger
}

// AppConfig holds everything NewAppWithConfig needs.
type AppConfig struct {
	// Context bounds the remote calls the UI issues. Defaults to Background.
	Context  context.Context
	Workflow Workflow
	Obs      ObsConfig
}

type pane int

const (
	paneCatalog pane = iota
	paneRecs
)

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT own workflow state. It renders the latest
// Snapshot and forwards user intent to the Workflow.
type App struct {
	ctx    context.Context
	wf     Workflow
	ring   *otel.RingBuffer
	events *otel.Logger

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	details viewport.Model

	snap      controller.Snapshot
	focus     pane
	catCursor int
	recCursor int
	notice    string

	detailsVisible bool
	detailFilm     film.Film
	debugVisible   bool
	pulse          int
	pulseSeq       int

	width  int
	height int
	ready  bool
}

// NewApp creates an App driving wf.
func NewApp(wf Workflow) App {
	return NewAppWithConfig(AppConfig{Workflow: wf})
}

// NewAppWithConfig creates an App from cfg.
func NewAppWithConfig(cfg AppConfig) App {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(colorHighlight)))
	a := App{
		ctx:     ctx,
		wf:      cfg.Workflow,
		ring:    cfg.Obs.Ring,
		events:  cfg.Obs.Events,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		details: viewport.New(0, 0),
	}
	if a.wf != nil {
		a.snap = a.wf.Snapshot()
	}
	return a
}

// Init starts the spinner; the first catalog load is triggered by the
// coordinator.
func (a App) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Comp: "ui", Msg: fmt.Sprintf("%T", msg)})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.ready = true
		a.resizeDetails()
		return a, nil

	case WorkflowUpdate:
		a.applySnapshot(msg.Snapshot)
		if msg.Type == pubsub.RecommendationsUpdated {
			a.recCursor = 0
			cmd := a.startPulse()
			return a, cmd
		}
		if a.snap.Loading {
			return a, a.spinner.Tick
		}
		return a, nil

	case ActionDone:
		if controller.IsBusy(msg.Err) {
			a.notice = "busy, try again in a moment"
		}
		if a.wf != nil {
			a.applySnapshot(a.wf.Snapshot())
		}
		return a, nil

	case pulseTick:
		if msg.Seq != a.pulseSeq || a.pulse == 0 {
			return a, nil
		}
		a.pulse--
		if a.pulse == 0 {
			return a, nil
		}
		return a, a.pulseCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		if !a.snap.Loading {
			return a, nil
		}
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.notice = ""
	a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: msg.String()})

	if key.Matches(msg, a.keys.Quit) {
		return a, tea.Quit
	}
	if a.debugVisible {
		if key.Matches(msg, a.keys.Debug) {
			a.debugVisible = false
		}
		return a, nil
	}
	if a.detailsVisible {
		return a.handleDetailsKey(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Down):
		a.moveCursor(1)
	case key.Matches(msg, a.keys.Up):
		a.moveCursor(-1)
	case key.Matches(msg, a.keys.Top):
		a.setCursor(0)
	case key.Matches(msg, a.keys.Bottom):
		a.setCursor(len(a.focusedFilms()) - 1)
	case key.Matches(msg, a.keys.SwitchPane):
		if a.focus == paneCatalog {
			a.focus = paneRecs
		} else {
			a.focus = paneCatalog
		}
	case key.Matches(msg, a.keys.Toggle):
		if f, ok := a.filmAtCursor(); ok {
			a.toggle(f.Title)
		}
	case key.Matches(msg, a.keys.Details):
		if f, ok := a.filmAtCursor(); ok {
			a.openDetails(f)
		}
	case key.Matches(msg, a.keys.Clear):
		if a.wf != nil {
			a.wf.ClearSelection()
			a.applySnapshot(a.wf.Snapshot())
		}
	case key.Matches(msg, a.keys.Reload):
		cmd := a.loadCmd()
		return a, cmd
	case key.Matches(msg, a.keys.Recommend):
		cmd := a.recommendCmd()
		return a, cmd
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	case key.Matches(msg, a.keys.Debug):
		a.debugVisible = true
	}
	return a, nil
}

func (a App) handleDetailsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Back), key.Matches(msg, a.keys.Details):
		a.detailsVisible = false
		return a, nil
	case key.Matches(msg, a.keys.Toggle):
		a.toggle(a.detailFilm.Title)
		a.details.SetContent(a.renderDetailsContent())
		return a, nil
	}
	var cmd tea.Cmd
	a.details, cmd = a.details.Update(msg)
	return a, cmd
}

// loadCmd asks for a new catalog batch. Inert while anything is loading.
func (a *App) loadCmd() tea.Cmd {
	if a.wf == nil || a.snap.Loading {
		return nil
	}
	a.snap.Loading = true
	a.snap.LoadingCatalog = true
	wf, ctx := a.wf, a.ctx
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		return ActionDone{Op: "load", Err: wf.LoadCatalog(ctx)}
	})
}

// recommendCmd asks for recommendations. Inert while anything is loading.
// With nothing selected the workflow answers synchronously with an error
// message and no request is sent.
func (a *App) recommendCmd() tea.Cmd {
	if a.wf == nil || a.snap.Loading {
		return nil
	}
	if len(a.snap.Selected) == 0 {
		_ = a.wf.RequestRecommendations(a.ctx)
		a.applySnapshot(a.wf.Snapshot())
		return nil
	}
	a.snap.Loading = true
	a.snap.LoadingRecs = true
	wf, ctx := a.wf, a.ctx
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		return ActionDone{Op: "recommend", Err: wf.RequestRecommendations(ctx)}
	})
}

func (a *App) toggle(title string) {
	if a.wf == nil {
		return
	}
	_ = a.wf.ToggleSelect(title) // capacity errors surface through the snapshot
	a.applySnapshot(a.wf.Snapshot())
}

func (a *App) applySnapshot(s controller.Snapshot) {
	a.snap = s
	a.catCursor = clamp(a.catCursor, len(s.Films))
	a.recCursor = clamp(a.recCursor, len(s.Recommendations))
}

func (a *App) startPulse() tea.Cmd {
	a.pulseSeq++
	a.pulse = pulseFrames
	return a.pulseCmd()
}

func (a App) pulseCmd() tea.Cmd {
	seq := a.pulseSeq
	return tea.Tick(pulseInterval, func(time.Time) tea.Msg {
		return pulseTick{Seq: seq}
	})
}

func (a *App) openDetails(f film.Film) {
	a.detailFilm = f
	a.detailsVisible = true
	a.resizeDetails()
	a.details.SetContent(a.renderDetailsContent())
	a.details.GotoTop()
}

func (a *App) resizeDetails() {
	w := a.width - 4
	h := a.height - 4
	if w < 20 {
		w = 20
	}
	if h < 3 {
		h = 3
	}
	a.details.Width = w
	a.details.Height = h
}

func (a App) focusedFilms() []film.Film {
	if a.focus == paneRecs {
		return a.snap.Recommendations
	}
	return a.snap.Films
}

func (a App) filmAtCursor() (film.Film, bool) {
	films := a.focusedFilms()
	cursor := a.catCursor
	if a.focus == paneRecs {
		cursor = a.recCursor
	}
	if cursor < 0 || cursor >= len(films) {
		return film.Film{}, false
	}
	return films[cursor], true
}

func (a *App) moveCursor(delta int) {
	if a.focus == paneRecs {
		a.setCursor(a.recCursor + delta)
	} else {
		a.setCursor(a.catCursor + delta)
	}
}

func (a *App) setCursor(pos int) {
	n := len(a.focusedFilms())
	if pos >= n {
		pos = n - 1
	}
	if pos < 0 {
		pos = 0
	}
	if a.focus == paneRecs {
		a.recCursor = pos
	} else {
		a.catCursor = pos
	}
}

func clamp(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.debugVisible {
		return debugOverlay(a.ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}
	if a.detailsVisible {
		return DetailPanel.Width(a.width-2).Render(a.details.View()) + "\n" +
			HelpStyle.Render("space: select/unselect · j/k: scroll · esc: back")
	}

	spin := ""
	if a.snap.Loading {
		spin = a.spinner.View()
	}
	header := RenderHeader(len(a.snap.Selected), a.snap.MaxSelected, spin, a.width)

	footer := RenderStatusBar(len(a.snap.Films), len(a.snap.Recommendations), a.width, a.snap.Loading, a.notice)
	if a.help.ShowAll {
		footer = a.help.View(a.keys) + "\n" + footer
	}

	errorBar := ""
	if a.snap.Err != "" {
		errorBar = ErrorStyle.Width(a.width).Render("Error: "+a.snap.Err) + "\n"
	}

	// Header, footer and error bar take one line each (help more); panes
	// also lose two border lines and a title line.
	bodyHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer) - strings.Count(errorBar, "\n")
	inner := bodyHeight - 3
	if inner < linesPerFilm {
		inner = linesPerFilm
	}

	catWidth := a.width * 3 / 5
	recWidth := a.width - catWidth
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		a.renderCatalogPane(catWidth, inner),
		a.renderRecsPane(recWidth, inner),
	)

	return header + "\n" + body + "\n" + errorBar + footer
}

func (a App) renderCatalogPane(width, height int) string {
	style := Pane
	cursor := -1
	if a.focus == paneCatalog {
		style = FocusedPane
		cursor = a.catCursor
	}
	inner := width - style.GetHorizontalFrameSize()
	title := PaneTitle.Render("Films")
	list := RenderCatalog(a.snap.Films, a.snap.IsSelected, cursor, inner, height)
	return style.Width(inner).Height(height + 1).Render(title + "\n" + list)
}

func (a App) renderRecsPane(width, height int) string {
	style := Pane
	cursor := -1
	if a.focus == paneRecs {
		style = FocusedPane
		cursor = a.recCursor
	}
	if a.pulse > 0 {
		style = PulsePane
	}
	inner := width - style.GetHorizontalFrameSize()
	title := PaneTitle.Render("Recommendations")
	if n := len(a.snap.Recommendations); n > 0 {
		title += " " + CountBadge.Render(fmt.Sprintf("%d", n))
	}
	list := RenderRecommendations(a.snap.Recommendations, cursor, inner, height, a.snap.LoadingRecs, a.snap.CanRequest())
	return style.Width(inner).Height(height + 1).Render(title + "\n" + list)
}

// renderDetailsContent renders the full record for the details view.
func (a App) renderDetailsContent() string {
	f := a.detailFilm
	var b strings.Builder

	mark := UnselectedMark.Render("[ ] not selected")
	if a.snap.IsSelected(f.Title) {
		mark = SelectedMark.Render("[✓] selected")
	}
	b.WriteString(DetailTitle.Render(f.Title) + "  " + mark + "\n\n")

	if meta := f.MetaParts(); len(meta) > 0 {
		b.WriteString(MetaItem.Render(strings.Join(meta, " · ")) + "\n\n")
	}
	if c := f.Countries(); c != "" {
		b.WriteString(DetailLabel.Render("Country: ") + c + "\n")
	}
	if len(f.Actors) > 0 {
		b.WriteString(DetailLabel.Render("Cast: ") + strings.Join(f.Actors, ", ") + "\n")
	}
	if d := f.NormalizedDescription(); d != "" {
		width := a.details.Width
		if width <= 0 {
			width = 60
		}
		b.WriteString("\n" + lipgloss.NewStyle().Width(width).Render(d) + "\n")
	}
	return b.String()
}

// Snapshot returns the state currently rendered (for testing).
func (a App) Snapshot() controller.Snapshot {
	return a.snap
}

// Cursor returns the cursor of the focused pane (for testing).
func (a App) Cursor() int {
	if a.focus == paneRecs {
		return a.recCursor
	}
	return a.catCursor
}
