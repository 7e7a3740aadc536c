package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/neonpulse/internal/media"
)

// BrowserResult holds the outcome of the file browser.
type BrowserResult struct {
	Path      string
	Cancelled bool
}

type audioItem struct {
	name string
	ext  string
}

func (i audioItem) Title() string       { return i.name }
func (i audioItem) Description() string { return i.ext }
func (i audioItem) FilterValue() string { return i.name }

type pathItem struct{}

func (i pathItem) Title() string       { return "Open path..." }
func (i pathItem) Description() string { return "type the path of an audio file" }
func (i pathItem) FilterValue() string { return "path" }

// BrowserSelectedMsg is sent by an embedded browser when a file is chosen.
type BrowserSelectedMsg struct {
	Path string
}

// BrowserCancelledMsg is sent by an embedded browser when the user quits.
type BrowserCancelledMsg struct{}

// BrowserModel is the Bubbletea model for the file browser screen.
type BrowserModel struct {
	embedded bool
	list     list.Model
	input    textinput.Model
	pathMode bool
	result   *BrowserResult
	err      error
}

// NewBrowser creates a new file browser model scanning the current directory.
func NewBrowser() BrowserModel {
	entries, err := os.ReadDir(".")
	if err != nil {
		return BrowserModel{err: fmt.Errorf("cannot read directory: %w", err)}
	}

	items := []list.Item{pathItem{}}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !media.IsSupportedPath(e.Name()) {
			continue
		}
		ext := filepath.Ext(e.Name())
		items = append(items, audioItem{name: strings.TrimSuffix(e.Name(), ext), ext: ext})
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(items, delegate, 80, 20)
	l.Title = "neonpulse"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = headerStyle

	ti := textinput.New()
	ti.Placeholder = "~/music/track.flac"
	ti.CharLimit = 2048
	ti.Width = 60

	return BrowserModel{list: l, input: ti}
}

// NewEmbeddedBrowser creates a browser that reports its result with
// BrowserSelectedMsg or BrowserCancelledMsg instead of quitting.
func NewEmbeddedBrowser() BrowserModel {
	m := NewBrowser()
	m.embedded = true
	return m
}

// HasError returns true if the browser could not be initialized.
func (m BrowserModel) HasError() bool {
	return m.err != nil
}

// Error returns the initialization error, if any.
func (m BrowserModel) Error() error {
	return m.err
}

// Result returns the browser result after the program finishes.
func (m BrowserModel) Result() BrowserResult {
	if m.result != nil {
		return *m.result
	}
	return BrowserResult{Cancelled: true}
}

func (m BrowserModel) Init() tea.Cmd {
	return tea.SetWindowTitle("neonpulse")
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.pathMode {
		return m.updatePathInput(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Don't intercept keys when filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			switch m.list.SelectedItem().(type) {
			case pathItem:
				m.pathMode = true
				m.input.Focus()
				return m, tea.Batch(textinput.Blink, tea.SetWindowTitle("neonpulse - open path"))
			case audioItem:
				item := m.list.SelectedItem().(audioItem)
				return m.finish(BrowserResult{Path: item.name + item.ext})
			}
		case "q", "esc", "ctrl+c":
			return m.finish(BrowserResult{Cancelled: true})
		}

	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m BrowserModel) updatePathInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			path := expandHome(strings.TrimSpace(m.input.Value()))
			if path != "" {
				m.pathMode = false
				m.input.Reset()
				m.input.Blur()
				return m.finish(BrowserResult{Path: path})
			}
		case "esc":
			m.pathMode = false
			m.input.Reset()
			m.input.Blur()
			return m, tea.SetWindowTitle("neonpulse")
		case "ctrl+c":
			return m.finish(BrowserResult{Cancelled: true})
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// finish records the result. A standalone browser quits; an embedded one
// reports it to the parent model.
func (m BrowserModel) finish(res BrowserResult) (tea.Model, tea.Cmd) {
	m.result = &res
	if m.embedded {
		if res.Cancelled {
			return m, func() tea.Msg { return BrowserCancelledMsg{} }
		}
		path := res.Path
		return m, func() tea.Msg { return BrowserSelectedMsg{Path: path} }
	}
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

func (m BrowserModel) View() string {
	if m.pathMode {
		s := "\n"
		s += "  " + headerStyle.Render("neonpulse") + "\n"
		s += "\n"
		s += "  " + statusStyle.Render("Path:") + "\n"
		s += "  " + m.input.View() + "\n"
		s += "\n"
		s += "  " + helpStyle.Render("enter confirm  esc back  ctrl+c quit") + "\n"
		return s
	}
	return m.list.View()
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
