package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/memheat/internal/frames"
	"github.com/five82/memheat/internal/heatmap"
	"github.com/five82/memheat/internal/prefs"
	"github.com/five82/memheat/internal/state"
)

// Controller is the part of the aggregator the UI drives directly.
type Controller interface {
	Snapshot() heatmap.Snapshot
	Epoch() uint64
	Delta() []uint64
	ZoomInto(i int) error
	ZoomOut()
	ZoomReset()
	Pan(n int) error
	Reset()
	Frames() []int64
	Frame(n int64) (heatmap.FrameSnapshot, bool)
	MemorySize() uint64
}

// Options configures the UI.
type Options struct {
	Context        context.Context
	Store          *state.Store
	Control        Controller
	Loader         *frames.Loader
	TracePath      string
	GridColumns    int
	FlashThreshold uint64
	PollTick       time.Duration
	ThemeName      string
	ColorScheme    string
	PrefsPath      string
	Log            *logrus.Entry
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx            context.Context
	store          *state.Store
	control        Controller
	loader         *frames.Loader
	tracePath      string
	columns        int
	flashThreshold uint64
	prefsPath      string
	pollTick       time.Duration
	log            *logrus.Entry
	keys           keyMap

	// UI state
	theme    Theme
	scheme   ColorScheme
	width    int
	height   int
	ready    bool
	showHelp bool
	notice   string

	// Data state
	snapshot state.Snapshot
	heat     heatmap.Snapshot
	delta    []uint64

	// Grid state
	cursor int
	scroll int // first visible grid row

	// Frame scrubbing
	scrubbing  bool
	scrubFrame int64
	aux        *frames.Aux
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = 100 * time.Millisecond
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	columns := opts.GridColumns
	if columns <= 0 {
		columns = 100
	}

	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	m := Model{
		ctx:            ctx,
		store:          opts.Store,
		control:        opts.Control,
		loader:         opts.Loader,
		tracePath:      opts.TracePath,
		columns:        columns,
		flashThreshold: opts.FlashThreshold,
		prefsPath:      prefsPath,
		pollTick:       pollTick,
		log:            log.WithField("component", "ui"),
		keys:           DefaultKeyMap(),
		theme:          GetTheme(themeName),
		scheme:         ParseColorScheme(opts.ColorScheme),
	}
	if m.control != nil {
		m.heat = m.control.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
	}
	if m.store != nil {
		cmds = append(cmds, m.fetchSnapshotCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.clampScroll()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(msg)
		return m, nil

	case auxMsg:
		if !m.scrubbing {
			return m, nil
		}
		if msg.Frame != m.scrubFrame {
			// The request for the shown frame may have been dropped while
			// this one was loading.
			if m.aux == nil {
				return m, m.requestAuxCmd(m.scrubFrame)
			}
			return m, nil
		}
		aux := frames.Aux(msg)
		m.aux = &aux
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.CycleScheme):
		m.scheme = m.scheme.Next()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Left):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-m.gridColumns())
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(m.gridColumns())
	case key.Matches(msg, m.keys.Home):
		m.moveCursor(-len(m.heat.Reads))
	case key.Matches(msg, m.keys.End):
		m.moveCursor(len(m.heat.Reads))
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.gridColumns() * m.gridHeight())
	case key.Matches(msg, m.keys.PageDn):
		m.moveCursor(m.gridColumns() * m.gridHeight())

	case key.Matches(msg, m.keys.PrevFrame):
		return m.stepFrame(-1)
	case key.Matches(msg, m.keys.NextFrame):
		return m.stepFrame(1)
	case key.Matches(msg, m.keys.Live):
		m.leaveScrub()
	}

	if m.control == nil || m.scrubbing {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.ZoomIn):
		m.zoomInto(m.cursor)
	case key.Matches(msg, m.keys.ZoomOut):
		m.control.ZoomOut()
		m.afterViewChange()
	case key.Matches(msg, m.keys.ZoomFull):
		m.control.ZoomReset()
		m.afterViewChange()
	case key.Matches(msg, m.keys.PanLeft):
		m.pan(-m.gridColumns())
	case key.Matches(msg, m.keys.PanRight):
		m.pan(m.gridColumns())
	case key.Matches(msg, m.keys.Reset):
		m.control.Reset()
		m.afterViewChange()
		m.notice = "counters reset"
		m.log.Info("counters reset from UI")
	}
	return m, nil
}

func (m *Model) zoomInto(bucket int) {
	if err := m.control.ZoomInto(bucket); err != nil {
		m.notice = "cannot zoom: " + err.Error()
		return
	}
	m.afterViewChange()
	m.cursor = 0
}

func (m *Model) pan(n int) {
	if err := m.control.Pan(n); err != nil {
		m.notice = "cannot pan: " + err.Error()
		return
	}
	m.afterViewChange()
}

// afterViewChange pulls the aggregate immediately so the grid never shows
// counters of the previous window.
func (m *Model) afterViewChange() {
	m.heat = m.control.Snapshot()
	m.delta = nil
	m.moveCursor(0)
}

func (m *Model) moveCursor(delta int) {
	n := len(m.heat.Reads)
	if n == 0 {
		m.cursor = 0
		return
	}
	c := m.cursor + delta
	if c < 0 {
		c = 0
	}
	if c >= n {
		c = n - 1
	}
	m.cursor = c
	m.clampScroll()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, ColorScheme: m.scheme.String()}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.log.WithError(err).Warn("save prefs failed")
	}
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, m.fetchSnapshotCmd())
	}
	if m.scrubbing && m.aux == nil {
		if cmd := m.requestAuxCmd(m.scrubFrame); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m *Model) applySnapshot(msg snapshotMsg) {
	m.snapshot = msg.snap
	if m.scrubbing {
		return
	}
	// Heat taken before the last zoom, pan or reset describes counters that
	// are gone, even when the store republishes it after a failed poll.
	if msg.snap.HasHeat && (m.control == nil || msg.snap.Heat.Epoch == m.control.Epoch()) {
		m.heat = msg.snap.Heat
		if len(msg.delta) == len(m.heat.Reads) {
			m.delta = msg.delta
		}
	}
	m.moveCursor(0)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderGrid())
	for _, line := range m.footerLines() {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	snap  state.Snapshot
	delta []uint64
}

type auxMsg frames.Aux

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchSnapshotCmd() tea.Cmd {
	store := m.store
	control := m.control
	flash := m.flashThreshold > 0
	return func() tea.Msg {
		msg := snapshotMsg{snap: store.Snapshot()}
		if flash && control != nil {
			msg.delta = control.Delta()
		}
		return msg
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
