package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/abelbrown/channelguide/internal/coord"
	"github.com/abelbrown/channelguide/internal/otel"
	"github.com/abelbrown/channelguide/internal/schedule"
)

// clockInterval is how often the "now" marker moves.
const clockInterval = 30 * time.Second

// AppConfig wires the guide to its collaborators. Every func may be nil.
type AppConfig struct {
	// LoadLineup returns a Cmd producing LineupLoaded.
	LoadLineup func() tea.Cmd
	// RequestRefresh returns a Cmd that refreshes r and produces RefreshDone.
	RequestRefresh func(r coord.Range, reason coord.Reason, focus string) tea.Cmd
	// Tune returns a Cmd that tunes to ch and produces TuneDone.
	Tune func(ch coord.Channel) tea.Cmd
	// SetLineup receives the displayed lineup whenever it changes. Refresh
	// ranges index into it.
	SetLineup func(channels []coord.Channel)

	Span        time.Duration // visible time depth
	Slot        time.Duration // header label spacing and scroll step
	VisibleRows int           // rows before the terminal reports its size
	Ring        *otel.RingBuffer
	Now         func() time.Time
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold the coordinator or the store. Windows arrive
// as ScheduleLoaded messages.
type App struct {
	cfg     AppConfig
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	filter  channelFilter

	all         []coord.Channel // whole lineup
	channels    []coord.Channel // after the filter
	windows     map[string]schedule.Window
	cursor      int
	top         int
	startMs     int64
	live        string
	lastRefresh time.Time

	err          error
	width        int
	height       int
	ready        bool
	loading      bool
	debugVisible bool
}

// NewApp creates the guide model.
func NewApp(cfg AppConfig) App {
	if cfg.Span <= 0 {
		cfg.Span = 3 * time.Hour
	}
	if cfg.Slot <= 0 {
		cfg.Slot = 30 * time.Minute
	}
	if cfg.VisibleRows <= 0 {
		cfg.VisibleRows = 10
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	a := App{
		cfg:     cfg,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: s,
		filter:  newChannelFilter(),
		windows: make(map[string]schedule.Window),
	}
	a.startMs = a.alignedNow()
	return a
}

// alignedNow is the current time floored to a slot boundary.
func (a App) alignedNow() int64 {
	now := a.cfg.Now().UnixMilli()
	slot := a.cfg.Slot.Milliseconds()
	return now - ((now%slot)+slot)%slot
}

// Init loads the lineup and starts the clock.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{clockTick()}
	if a.cfg.LoadLineup != nil {
		cmds = append(cmds, a.cfg.LoadLineup(), a.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func clockTick() tea.Cmd {
	return tea.Tick(clockInterval, func(time.Time) tea.Msg { return ClockTick{} })
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.ready = true
		a.clampTop()
		return a, a.refresh(coord.ReasonResize)

	case LineupLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		reason := coord.ReasonInitial
		if a.all != nil {
			reason = coord.ReasonFilter
		}
		a.all = msg.Channels
		a.applyFilter()
		return a, a.refresh(reason)

	case ScheduleLoaded:
		a.windows[msg.ChannelID] = msg.Window
		return a, nil

	case RefreshDone:
		a.loading = false
		if msg.Err != nil && !errors.Is(msg.Err, coord.ErrClosed) {
			a.err = msg.Err
		} else if msg.Err == nil {
			a.lastRefresh = a.cfg.Now()
		}
		return a, nil

	case TuneDone:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.live = msg.ChannelID
		return a, a.refresh(coord.ReasonTune)

	case ClockTick:
		return a, clockTick()

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.err != nil {
		a.err = nil
	}

	if a.filter.active {
		return a.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Debug):
		a.debugVisible = !a.debugVisible
		return a, nil

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil

	case key.Matches(msg, a.keys.Up):
		return a.moveCursor(-1)

	case key.Matches(msg, a.keys.Down):
		return a.moveCursor(1)

	case key.Matches(msg, a.keys.PageUp):
		return a.moveCursor(-a.visibleRows())

	case key.Matches(msg, a.keys.PageDown):
		return a.moveCursor(a.visibleRows())

	case key.Matches(msg, a.keys.Left):
		a.startMs -= a.cfg.Slot.Milliseconds()
		return a, a.refresh(coord.ReasonScroll)

	case key.Matches(msg, a.keys.Right):
		a.startMs += a.cfg.Slot.Milliseconds()
		return a, a.refresh(coord.ReasonScroll)

	case key.Matches(msg, a.keys.Now):
		a.startMs = a.alignedNow()
		return a, a.refresh(coord.ReasonScroll)

	case key.Matches(msg, a.keys.Refresh):
		return a, a.refresh(coord.ReasonManual)

	case key.Matches(msg, a.keys.Filter):
		return a, a.filter.activate()

	case key.Matches(msg, a.keys.ClearFilter):
		if a.filter.query() == "" {
			return a, nil
		}
		a.filter.clear()
		a.applyFilter()
		return a, a.refresh(coord.ReasonFilter)

	case key.Matches(msg, a.keys.Tune):
		if ch, ok := a.focused(); ok && a.cfg.Tune != nil {
			return a, a.cfg.Tune(ch)
		}
		return a, nil
	}

	return a, nil
}

// handleFilterKey edits the filter. The lineup narrows on every keystroke;
// the coordinator's debounce absorbs the burst.
func (a App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return a, tea.Quit
	case tea.KeyEnter:
		a.filter.deactivate()
		return a, nil
	case tea.KeyEsc:
		a.filter.clear()
		a.applyFilter()
		return a, a.refresh(coord.ReasonFilter)
	}

	before := a.filter.query()
	var cmd tea.Cmd
	a.filter.input, cmd = a.filter.input.Update(msg)
	if a.filter.query() == before {
		return a, cmd
	}
	a.applyFilter()
	return a, tea.Batch(cmd, a.refresh(coord.ReasonFilter))
}

// applyFilter recomputes the displayed lineup, keeping the focused channel
// under the cursor when it survives the filter.
func (a *App) applyFilter() {
	focusID := ""
	if ch, ok := a.focused(); ok {
		focusID = ch.ID
	}
	a.channels = matchChannels(a.all, a.filter.query())

	a.cursor = min(a.cursor, max(len(a.channels)-1, 0))
	for i, ch := range a.channels {
		if ch.ID == focusID {
			a.cursor = i
			break
		}
	}
	a.clampTop()
	if a.cfg.SetLineup != nil {
		a.cfg.SetLineup(a.channels)
	}
}

// moveCursor moves the focus by delta rows. Scrolling the viewport is a
// scroll refresh; moving within it is a focus refresh.
func (a App) moveCursor(delta int) (tea.Model, tea.Cmd) {
	if len(a.channels) == 0 {
		return a, nil
	}
	next := min(max(a.cursor+delta, 0), len(a.channels)-1)
	if next == a.cursor {
		return a, nil
	}
	a.cursor = next

	oldTop := a.top
	a.clampTop()
	if a.top != oldTop {
		return a, a.refresh(coord.ReasonScroll)
	}
	return a, a.refresh(coord.ReasonFocus)
}

// clampTop keeps the cursor inside the viewport.
func (a *App) clampTop() {
	rows := a.visibleRows()
	if a.cursor < a.top {
		a.top = a.cursor
	}
	if a.cursor >= a.top+rows {
		a.top = a.cursor - rows + 1
	}
	if maxTop := max(len(a.channels)-rows, 0); a.top > maxTop {
		a.top = maxTop
	}
	if a.top < 0 {
		a.top = 0
	}
}

// visibleRows is the number of channel rows that fit: the terminal minus the
// time header, status bar and help line.
func (a App) visibleRows() int {
	if !a.ready {
		return a.cfg.VisibleRows
	}
	return max(a.height-3, 1)
}

// VisibleRange is the part of the guide on screen.
func (a App) VisibleRange() coord.Range {
	return coord.Range{
		ChannelStart: a.top,
		ChannelEnd:   min(a.top+a.visibleRows(), len(a.channels)),
		StartMs:      a.startMs,
		EndMs:        a.startMs + a.cfg.Span.Milliseconds(),
	}
}

func (a App) focused() (coord.Channel, bool) {
	if a.cursor < 0 || a.cursor >= len(a.channels) {
		return coord.Channel{}, false
	}
	return a.channels[a.cursor], true
}

func (a *App) refresh(reason coord.Reason) tea.Cmd {
	if a.cfg.RequestRefresh == nil || len(a.channels) == 0 {
		return nil
	}
	focus := ""
	if ch, ok := a.focused(); ok {
		focus = ch.ID
	}
	a.loading = true
	return tea.Batch(a.cfg.RequestRefresh(a.VisibleRange(), reason, focus), a.spinner.Tick)
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.debugVisible {
		overlay := debugOverlay(a.cfg.Ring, a.width, a.height-1)
		return lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, overlay) + "\n" + debugStatusBar(a.width)
	}

	grid := renderGrid(gridView{
		Channels: a.channels,
		Windows:  a.windows,
		Top:      a.top,
		Rows:     a.visibleRows(),
		Cursor:   a.cursor,
		StartMs:  a.startMs,
		Span:     a.cfg.Span,
		Slot:     a.cfg.Slot,
		LiveID:   a.live,
		NowMs:    a.cfg.Now().UnixMilli(),
		Width:    a.width,
	})

	errorBar := ""
	if a.err != nil {
		errorBar = ErrorStyle.Width(a.width).Render("Error: "+a.err.Error()+" (press any key to dismiss)") + "\n"
	}

	return grid + errorBar + a.statusBar() + "\n" + a.help.View(a.keys)
}

// statusBar describes the focused channel's current program, or shows the
// filter box while it is being edited.
func (a App) statusBar() string {
	if a.filter.active {
		return StatusBar.Width(a.width).Render(a.filter.input.View())
	}

	left := ""
	if a.loading {
		left = a.spinner.View() + " "
	}

	if q := a.filter.query(); q != "" {
		left += fmt.Sprintf("[/%s %d/%d] ", q, len(a.channels), len(a.all))
	}

	ch, ok := a.focused()
	if !ok {
		return StatusBar.Width(a.width).Render(left + "no channel")
	}
	left += fmt.Sprintf("%d %s", ch.Number, ch.Name)

	now := a.cfg.Now()
	if w, ok := a.windows[ch.ID]; ok {
		if p, ok := w.At(now.UnixMilli()); ok {
			title := p.Item.Title
			if title == "" {
				title = p.Item.ID
			}
			left += fmt.Sprintf(" · %s (ends %s)", title, humanize.RelTime(p.End(), now, "ago", "from now"))
		}
	}
	if a.live != "" && a.live == ch.ID {
		left += " · LIVE"
	}
	if !a.lastRefresh.IsZero() {
		left += StatusBarText.Render(" · updated " + humanize.RelTime(a.lastRefresh, now, "ago", "from now"))
	}
	return StatusBar.Width(a.width).Render(left)
}

// Cursor returns the focused row (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Channels returns the displayed lineup (for testing).
func (a App) Channels() []coord.Channel {
	return a.channels
}

// Live returns the tuned channel id (for testing).
func (a App) Live() string {
	return a.live
}
