package ui

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/tickerboard/internal/activity"
	"github.com/five82/tickerboard/internal/config"
	"github.com/five82/tickerboard/internal/settings"
	"github.com/five82/tickerboard/internal/view"
)

const bannerDuration = 5 * time.Second

// Controller receives the user's commands. *session.Session implements it.
type Controller interface {
	StartMonitoring()
	StopMonitoring()
	Refresh()
	ClearLog()
	OpenSettings()
	CancelSettings()
	ResetSettings()
	SaveSettings(draft settings.Settings)
}

// Options configures the UI.
type Options struct {
	Context     context.Context
	Controller  Controller
	Sink        *ProgramSink
	ThemeName   string
	PrefsPath   string
	LogCapacity int
	Logger      zerolog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctl       Controller
	keys      keyMap
	prefsPath string
	logger    zerolog.Logger
	capacity  int

	// UI state
	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool

	// Board state, keyed by field id
	texts   map[view.FieldID]string
	classes map[view.FieldID]string

	// Activity log
	entries     []activity.Entry
	logViewport viewport.Model

	// Settings panel
	panelVisible bool
	inputs       []textinput.Model
	focusIdx     int
	formErr      string

	// Signal banner
	banner    string
	bannerSeq int
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = config.LoadPrefs(opts.PrefsPath).Theme
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = config.DefaultPrefsPath()
	}
	capacity := opts.LogCapacity
	if capacity <= 0 {
		capacity = activity.DefaultCapacity
	}

	return Model{
		ctl:         opts.Controller,
		keys:        DefaultKeyMap(),
		prefsPath:   prefsPath,
		logger:      opts.Logger,
		capacity:    capacity,
		theme:       GetTheme(themeName),
		texts:       make(map[view.FieldID]string),
		classes:     make(map[view.FieldID]string),
		logViewport: viewport.New(0, 0),
		inputs:      newSettingsInputs(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.EnterAltScreen
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layoutLog()
		return m, nil

	case fieldTextMsg:
		m.texts[msg.field] = msg.value
		m.syncInput(msg.field, msg.value)
		return m, nil

	case fieldClassMsg:
		m.classes[msg.field] = msg.classes
		return m, nil

	case logEntryMsg:
		m.appendEntry(activity.Entry(msg))
		return m, nil

	case logClearMsg:
		m.entries = nil
		m.refreshLog()
		return m, nil

	case panelMsg:
		return m.setPanel(msg.visible)

	case notifyMsg:
		m.bannerSeq++
		m.banner = signalBanner(msg.total)
		seq := m.bannerSeq
		return m, tea.Tick(bannerDuration, func(time.Time) tea.Msg {
			return bannerExpiredMsg{seq: seq}
		})

	case bannerExpiredMsg:
		if msg.seq == m.bannerSeq {
			m.banner = ""
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Connecting..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.panelVisible {
		return m.handleSettingsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.refreshLog()
		if err := config.SavePrefs(m.prefsPath, config.Prefs{Theme: m.theme.Name}); err != nil {
			m.logger.Warn().Err(err).Msg("save prefs")
		}
		return m, nil
	case key.Matches(msg, m.keys.Start):
		return m, m.command(func(c Controller) { c.StartMonitoring() })
	case key.Matches(msg, m.keys.Stop):
		return m, m.command(func(c Controller) { c.StopMonitoring() })
	case key.Matches(msg, m.keys.Refresh):
		return m, m.command(func(c Controller) { c.Refresh() })
	case key.Matches(msg, m.keys.ClearLog):
		return m, m.command(func(c Controller) { c.ClearLog() })
	case key.Matches(msg, m.keys.Settings):
		return m, m.command(func(c Controller) { c.OpenSettings() })
	case key.Matches(msg, m.keys.ScrollUp):
		m.logViewport.LineUp(1)
	case key.Matches(msg, m.keys.ScrollDown):
		m.logViewport.LineDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.logViewport.HalfViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.HalfViewDown()
	}
	return m, nil
}

// command runs fn off the update loop. The controller may block while its
// inbox is full, and the update loop must keep draining sink messages.
func (m Model) command(fn func(Controller)) tea.Cmd {
	if m.ctl == nil {
		return nil
	}
	ctl := m.ctl
	return func() tea.Msg {
		fn(ctl)
		return nil
	}
}

// appendEntry keeps the newest capacity entries and follows the tail when the
// viewport is already at the bottom.
func (m *Model) appendEntry(entry activity.Entry) {
	m.entries = append(m.entries, entry)
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
	follow := m.logViewport.AtBottom() || m.logViewport.TotalLineCount() <= m.logViewport.Height
	m.refreshLog()
	if follow {
		m.logViewport.GotoBottom()
	}
}

func signalBanner(total int) string {
	if total == 1 {
		return "New trade signal: 1 active"
	}
	return "New trade signals: " + strconv.Itoa(total) + " active"
}

// Program couples a Bubble Tea program with the sink feeding it.
type Program struct {
	program *tea.Program
	ctx     context.Context
}

// NewProgram builds the program and attaches opts.Sink to it.
func NewProgram(opts Options) *Program {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if opts.Sink != nil {
		opts.Sink.attach(p)
	}
	return &Program{program: p, ctx: ctx}
}

// Run blocks until the user quits or the context ends.
func (p *Program) Run() error {
	_, err := p.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && p.ctx.Err() != nil {
		return nil
	}
	return err
}
