package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/neonpulse/internal/analysis"
	"github.com/olivier-w/neonpulse/internal/log"
	"github.com/olivier-w/neonpulse/internal/player"
	"github.com/olivier-w/neonpulse/internal/util"
	"github.com/olivier-w/neonpulse/internal/visualizer"
)

const (
	skipStep     = 10 * time.Second
	volumeStep   = 0.05
	unmuteVolume = 0.5
	noticeTTL    = 5 * time.Second
	minWidth     = 30
	defaultWidth = 80
)

// Transport is the playback core driven by the UI. *player.Controller
// satisfies it.
type Transport interface {
	Events() <-chan player.Event
	State() player.PlaybackState
	Metadata() player.Metadata
	Analyzer() *analysis.Analyzer
	Play() error
	PlayPause() error
	Seek(t time.Duration)
	Skip(delta time.Duration)
	SetVolume(v float64) bool
	SetMuted(muted bool)
	SetPlaybackRate(r float64) bool
	Teardown()
}

// Disposer releases the render surface.
type Disposer interface {
	Dispose()
}

// Model is the Bubbletea model for the player screen.
type Model struct {
	ctrl    Transport
	driver  *visualizer.Driver
	surface Disposer

	keys keyMap
	help help.Model

	state  player.PlaybackState
	meta   player.Metadata
	repeat RepeatMode

	width, height int
	vizHeight     int

	notice   string
	noticeAt time.Time
	quitting bool
}

// New creates the player screen. The driver draws onto surface.
func New(ctrl Transport, driver *visualizer.Driver, surface Disposer) Model {
	m := Model{
		ctrl:    ctrl,
		driver:  driver,
		surface: surface,
		keys:    defaultKeyMap(),
		help:    help.New(),
		state:   ctrl.State(),
		meta:    ctrl.Metadata(),
	}
	m.help.Styles.ShortKey = statusStyle
	m.help.Styles.ShortDesc = helpStyle
	m.help.Styles.FullKey = statusStyle
	m.help.Styles.FullDesc = helpStyle
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitEvent(m.ctrl.Events()),
		func() tea.Msg { return startMsg{} },
		tea.SetWindowTitle(windowTitle(m.meta, false)),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case visualizer.FrameMsg:
		return m, m.driver.Update(msg)

	case startMsg:
		return m.play()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case eventMsg:
		return m.handleEvent(player.Event(msg))

	case eventsClosedMsg:
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.PlayPause):
		if m.state.IsPlaying() {
			if err := m.ctrl.PlayPause(); err != nil {
				m.setNotice(err)
			}
			m.state = m.ctrl.State()
			return m, tea.SetWindowTitle(windowTitle(m.meta, true))
		}
		var cmd tea.Cmd
		m, cmd = m.play()
		return m, tea.Batch(cmd, tea.SetWindowTitle(windowTitle(m.meta, !m.state.IsPlaying())))

	case key.Matches(msg, m.keys.Back):
		m.ctrl.Skip(-skipStep)
	case key.Matches(msg, m.keys.Forward):
		m.ctrl.Skip(skipStep)

	case key.Matches(msg, m.keys.VolUp):
		m.changeVolume(volumeStep)
	case key.Matches(msg, m.keys.VolDown):
		m.changeVolume(-volumeStep)

	case key.Matches(msg, m.keys.Mute):
		m.toggleMute()

	case key.Matches(msg, m.keys.Slower):
		m.ctrl.SetPlaybackRate(nextRate(m.state.Rate, -1))
	case key.Matches(msg, m.keys.Faster):
		m.ctrl.SetPlaybackRate(nextRate(m.state.Rate, 1))

	case key.Matches(msg, m.keys.Repeat):
		m.repeat = m.repeat.Next()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
	}

	m.state = m.ctrl.State()
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if msg.Y != m.progressRow() || m.state.Duration <= 0 {
		return m, nil
	}
	start, width := m.barSpan()
	ratio, ok := barRatio(msg.X, start, width)
	if !ok {
		return m, nil
	}
	m.ctrl.Seek(time.Duration(ratio * float64(m.state.Duration)))
	m.state = m.ctrl.State()
	return m, nil
}

func (m Model) handleEvent(ev player.Event) (Model, tea.Cmd) {
	cmds := []tea.Cmd{waitEvent(m.ctrl.Events())}
	// The event carries the state at emit time; a key handled since then may
	// have moved on, so read the current state instead.
	m.state = m.ctrl.State()

	switch ev.Kind {
	case player.EventMetadata:
		m.meta = ev.Metadata
		cmds = append(cmds, tea.SetWindowTitle(windowTitle(m.meta, !m.state.IsPlaying())))
	case player.EventEnded:
		if m.repeat.Replays(ev.Kind) {
			next, cmd := m.play()
			m = next
			cmds = append(cmds, cmd)
		}
	case player.EventError:
		m.setNotice(ev.Err)
	}

	if m.notice != "" && time.Since(m.noticeAt) > noticeTTL {
		m.notice = ""
	}
	return m, tea.Batch(cmds...)
}

// play starts playback and attaches the visual once a graph exists.
func (m Model) play() (Model, tea.Cmd) {
	if err := m.ctrl.Play(); err != nil {
		m.setNotice(err)
	}
	m.state = m.ctrl.State()
	if a := m.ctrl.Analyzer(); a != nil {
		return m, m.driver.Attach(a)
	}
	return m, nil
}

func (m Model) quit() (Model, tea.Cmd) {
	m.quitting = true
	m.Shutdown()
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

// Shutdown stops the frame loop before releasing the surface and the graph
// it reads from. It is safe to call more than once.
func (m Model) Shutdown() {
	m.driver.Stop()
	m.surface.Dispose()
	m.ctrl.Teardown()
}

func (m *Model) changeVolume(delta float64) {
	v := max(0, min(1, m.state.Volume+delta))
	v = float64(int(v*100+0.5)) / 100
	m.ctrl.SetVolume(v)
	if delta > 0 && m.state.Muted {
		m.ctrl.SetMuted(false)
	}
}

func (m *Model) toggleMute() {
	if !m.state.Muted {
		m.ctrl.SetMuted(true)
		return
	}
	if m.state.Volume == 0 {
		m.ctrl.SetVolume(unmuteVolume)
	}
	m.ctrl.SetMuted(false)
}

func (m *Model) setNotice(err error) {
	if err == nil {
		return
	}
	var gerr *player.GraphCreationError
	if errors.As(err, &gerr) {
		m.notice = fmt.Sprintf("audio output unavailable: %v", gerr.Err)
	} else {
		m.notice = err.Error()
	}
	m.noticeAt = time.Now()
	log.Warnf("ui: %v", err)
}

func (m *Model) layout() {
	m.vizHeight = max(0, m.height-m.chromeRows())
	m.driver.Resize(m.viewWidth(), m.vizHeight)
}

// chromeRows counts the lines below the visual: title, progress, status,
// notice and help.
func (m Model) chromeRows() int {
	return 4 + lipgloss.Height(m.help.View(m.keys))
}

func (m Model) viewWidth() int {
	if m.width < minWidth {
		return defaultWidth
	}
	return m.width
}

func (m Model) progressRow() int {
	return m.vizHeight + 1
}

// barSpan returns the first column and width of the progress bar.
func (m Model) barSpan() (int, int) {
	elapsed := util.FormatDuration(m.state.CurrentTime)
	total := util.FormatDuration(m.state.Duration)
	start := 2 + len(elapsed) + 1
	width := max(10, m.viewWidth()-start-len(total)-3)
	return start, width
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	viz := m.driver.View()
	if m.vizHeight > 0 {
		if viz == "" {
			b.WriteString(strings.Repeat("\n", m.vizHeight))
		} else {
			b.WriteString(viz)
			b.WriteByte('\n')
		}
	}

	title := titleStyle.Render(m.meta.Title)
	if m.meta.Artist != "" {
		title += "  " + artistStyle.Render(m.meta.Artist)
	}
	b.WriteString("  " + title + "\n")

	_, barWidth := m.barSpan()
	bar := barStyle.Render(renderProgressBar(m.state.CurrentTime.Seconds(), m.state.Duration.Seconds(), barWidth))
	fmt.Fprintf(&b, "  %s %s %s\n",
		timeStyle.Render(util.FormatDuration(m.state.CurrentTime)),
		bar,
		timeStyle.Render(util.FormatDuration(m.state.Duration)))

	b.WriteString("  " + m.statusLine() + "\n")

	if m.notice != "" {
		b.WriteString("  " + noticeStyle.Render(m.notice))
	}
	b.WriteString("\n")

	b.WriteString("  " + m.help.View(m.keys))
	return b.String()
}

func (m Model) statusLine() string {
	icon, text := "❚❚", "paused"
	switch m.state.Status {
	case player.Playing:
		icon, text = "▶", "playing"
	case player.Idle:
		icon, text = "■", "stopped"
	}
	left := fmt.Sprintf("%s  %s", icon, text)
	if m.state.Rate != 1 {
		left += "  " + util.FormatRate(m.state.Rate)
	}
	if r := m.repeat.Icon(); r != "" {
		left += "  " + r
	}
	right := renderVolume(m.state)

	gap := max(2, m.viewWidth()-len([]rune(left))-len(right)-4)
	return statusStyle.Render(left) + strings.Repeat(" ", gap) + statusStyle.Render(right)
}

func windowTitle(meta player.Metadata, paused bool) string {
	title := meta.DisplayTitle()
	if paused {
		return "⏸ " + title + " - neonpulse"
	}
	return "▶ " + title + " - neonpulse"
}
