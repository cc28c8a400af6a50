package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/chuhlomin/diff/internal/bus"
	"github.com/chuhlomin/diff/internal/fetch"
	"github.com/chuhlomin/diff/internal/logging"
	"github.com/chuhlomin/diff/internal/models"
	"github.com/chuhlomin/diff/internal/parser"
)

var (
	borderStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	fileListStyle = borderStyle.Copy().BorderForeground(lipgloss.Color("8"))
	diffStyle     = borderStyle.Copy().BorderForeground(lipgloss.Color("7"))
	focusedStyle  = lipgloss.Color("6")

	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const helpText = "[ ] from · { } to · tab focus · enter open · q quit"

type focus int

const (
	focusFiles focus = iota
	focusDiff
)

type (
	tagsLoadedMsg struct {
		from, to []string
		err      error
	}
	filesLoadedMsg struct {
		pair models.TagPair
		err  error
	}
	widgetChangedMsg struct{}
)

// ViewOptions configure the terminal client.
type ViewOptions struct {
	Tags     models.TagPair
	Language string
	Layout   Layout
	Widget   Options
}

// Model is the terminal client: two tag selectors, the file list, and
// the diff pane, wired through a selection bus.
type Model struct {
	ctx     context.Context
	client  *fetch.Client
	files   *FileList
	loader  *Loader
	widget  *DiffWidget
	layout  Layout
	log     logging.Logger
	initial models.TagPair

	fromTags []string
	toTags   []string
	tags     models.TagPair

	list     list.Model
	viewport viewport.Model
	spinner  spinner.Model
	focus    focus
	shown    int
	mode     Mode
	err      error
	width    int
	height   int
}

func NewModel(ctx context.Context, client *fetch.Client, opts ViewOptions, log logging.Logger) Model {
	if log == nil {
		log = logging.Nop()
	}

	signals := bus.New[models.FileSelection]()
	widget := NewDiffWidget(opts.Widget, 80, 20)
	loader := NewLoader(client, widget, opts.Language, log)
	loader.Subscribe(ctx, signals)

	l := list.New(nil, list.NewDefaultDelegate(), 30, 20)
	l.Title = "Changed Files"
	l.SetShowHelp(false)

	return Model{
		ctx:      ctx,
		client:   client,
		files:    NewFileList(client, signals, log),
		loader:   loader,
		widget:   widget,
		layout:   opts.Layout,
		log:      log,
		initial:  opts.Tags,
		list:     l,
		viewport: viewport.New(80, 20),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		shown:    -1,
		mode:     SideBySide,
	}
}

// Attach routes widget changes made by background loads into the program.
func (m Model) Attach(send func(tea.Msg)) {
	m.widget.OnChange(func() {
		go send(widgetChangedMsg{})
	})
}

// Close cancels any load in flight.
func (m Model) Close() {
	m.loader.Close()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadTags())
}

func (m Model) loadTags() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		resp, err := client.Get(ctx, "./").Wait(ctx)
		if err != nil {
			return tagsLoadedMsg{err: fmt.Errorf("load tags: %w", err)}
		}
		from, to, err := parser.ParseTagOptions(strings.NewReader(resp.Body))
		return tagsLoadedMsg{from: from, to: to, err: err}
	}
}

func (m Model) loadFiles() tea.Cmd {
	ctx, files, pair := m.ctx, m.files, m.tags
	files.SetTags(pair)
	return func() tea.Msg {
		return filesLoadedMsg{pair: pair, err: files.Load(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tagsLoadedMsg:
		if msg.err != nil {
			m.log.Error("load tags", "error", msg.err)
			m.err = msg.err
			return m, nil
		}
		if len(msg.from) == 0 || len(msg.to) == 0 {
			m.err = errors.New("no tags published")
			return m, nil
		}
		m.fromTags, m.toTags = msg.from, msg.to
		m.tags = m.pickTags()
		return m, m.loadFiles()

	case filesLoadedMsg:
		if msg.pair != m.tags || errors.Is(msg.err, fetch.ErrCanceled) {
			return m, nil
		}
		if msg.err != nil {
			m.log.Warn("load file list", "from", msg.pair.From, "to", msg.pair.To, "error", msg.err)
		}
		m.err = msg.err
		cmd := m.list.SetItems(fileItems(m.files.Entries()))
		m.list.ResetSelected()
		return m, cmd

	case widgetChangedMsg:
		m.refreshDiff()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			if m.focus == focusFiles {
				m.focus = focusDiff
			} else {
				m.focus = focusFiles
			}
			return m, nil
		case "[", "]":
			m.tags.From = cycleTag(m.fromTags, m.tags.From, msg.String() == "]")
			return m, m.loadFiles()
		case "{", "}":
			m.tags.To = cycleTag(m.toTags, m.tags.To, msg.String() == "}")
			return m, m.loadFiles()
		case "enter":
			if m.focus != focusFiles {
				break
			}
			return m, m.activate()
		}
	}

	var cmd tea.Cmd
	if m.focus == focusDiff {
		m.viewport, cmd = m.viewport.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *Model) pickTags() models.TagPair {
	p := models.TagPair{From: m.fromTags[0], To: m.toTags[0]}
	if len(m.fromTags) > 1 {
		p.From = m.fromTags[1]
	}
	if contains(m.fromTags, m.initial.From) {
		p.From = m.initial.From
	}
	if contains(m.toTags, m.initial.To) {
		p.To = m.initial.To
	}
	return p
}

func (m *Model) activate() tea.Cmd {
	item, ok := m.list.SelectedItem().(fileItem)
	if !ok {
		return nil
	}
	if err := m.files.Activate(item.index); err != nil {
		m.err = err
		return nil
	}
	m.err = nil
	idx := m.list.Index()
	cmd := m.list.SetItems(fileItems(m.files.Entries()))
	m.list.Select(idx)
	return cmd
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.mode = m.layout.Apply(m.widget, width)

	// header and status lines
	inner := max(height-2-fileListStyle.GetVerticalFrameSize(), 1)
	listWidth := max(width/4, 24)
	diffWidth := max(width-listWidth-fileListStyle.GetHorizontalFrameSize()-diffStyle.GetHorizontalFrameSize(), 10)

	m.list.SetSize(listWidth, inner)
	m.viewport.Width = diffWidth
	m.viewport.Height = inner
	m.widget.Resize(diffWidth, inner)
	m.refreshDiff()
}

func (m *Model) refreshDiff() {
	m.viewport.SetContent(m.widget.Render())
	if v := m.widget.Version(); v != m.shown {
		m.shown = v
		m.viewport.GotoTop()
	}
}

func (m Model) View() string {
	header := headerStyle.Render(fmt.Sprintf("%s → %s", orNone(m.tags.From), orNone(m.tags.To))) +
		"  " + statusStyle.Render(helpText)

	listStyle, paneStyle := fileListStyle, diffStyle
	if m.focus == focusFiles {
		listStyle = listStyle.Copy().BorderForeground(focusedStyle)
	} else {
		paneStyle = paneStyle.Copy().BorderForeground(focusedStyle)
	}

	diffContent := m.viewport.View()
	if m.widget.Loading() {
		diffContent = m.spinner.View() + " Loading…"
	}

	leftPane := listStyle.Render(m.list.View())
	rightPane := paneStyle.Render(diffContent)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane),
		m.status(),
	)
}

func (m Model) status() string {
	if m.err != nil {
		return errorStyle.Render(m.err.Error())
	}
	if err := m.widget.Err(); err != nil {
		return errorStyle.Render(err.Error())
	}

	parts := []string{m.mode.String()}
	if m.widget.Version() > 0 {
		dm := m.widget.Model()
		parts = append(parts, fmt.Sprintf("%s → %s",
			humanize.Bytes(uint64(len(dm.Original))),
			humanize.Bytes(uint64(len(dm.Modified))),
		))
	}
	if m.widget.Options().ReadOnly {
		parts = append(parts, "read-only")
	}
	return statusStyle.Render(strings.Join(parts, " · "))
}

type fileItem struct {
	entry models.FileEntry
	index int
}

func fileItems(entries []models.FileEntry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = fileItem{entry: e, index: i}
	}
	return items
}

func (i fileItem) Title() string {
	title := i.entry.Name
	if i.entry.OldName != "" {
		title = i.entry.OldName + " → " + i.entry.Name
	}
	if i.entry.Selected {
		return "● " + title
	}
	return title
}

func (i fileItem) Description() string {
	switch i.entry.Operation {
	case models.OpAdded:
		return "added"
	case models.OpDeleted:
		return "deleted"
	case models.OpRenamed:
		return "renamed"
	case models.OpModified:
		return "modified"
	}
	return ""
}

func (i fileItem) FilterValue() string { return i.entry.Name }

func cycleTag(tags []string, current string, forward bool) string {
	if len(tags) == 0 {
		return current
	}
	i := 0
	for j, t := range tags {
		if t == current {
			i = j
			break
		}
	}
	if forward {
		i = (i + 1) % len(tags)
	} else {
		i = (i - 1 + len(tags)) % len(tags)
	}
	return tags[i]
}

func contains(tags []string, t string) bool {
	for _, v := range tags {
		if v == t {
			return true
		}
	}
	return false
}

func orNone(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
