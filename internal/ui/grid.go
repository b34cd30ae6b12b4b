package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// gridTop is the screen row of the first grid line (below header and status bar).
const gridTop = 2

const (
	cursorGlyph    = "▪"
	inspectorLines = 2 // inspector + legend
	auxPanelLines  = 6
)

// gridColumns is the number of cells per row actually drawn.
func (m Model) gridColumns() int {
	cols := m.columns
	if n := len(m.heat.Reads); n > 0 && n < cols {
		cols = n
	}
	if m.width > 0 && cols > m.width {
		cols = m.width
	}
	if cols < 1 {
		cols = 1
	}
	return cols
}

func (m Model) gridRows() int {
	n := len(m.heat.Reads)
	cols := m.gridColumns()
	return (n + cols - 1) / cols
}

func (m Model) footerHeight() int {
	if m.scrubbing && m.loader.Enabled() {
		return inspectorLines + auxPanelLines
	}
	return inspectorLines
}

// gridHeight is the number of grid rows that fit on screen.
func (m Model) gridHeight() int {
	h := m.height - gridTop - m.footerHeight()
	if h < 1 {
		return 1
	}
	return h
}

// clampScroll keeps the cursor row visible.
func (m *Model) clampScroll() {
	cols := m.gridColumns()
	gh := m.gridHeight()
	row := m.cursor / cols
	if row < m.scroll {
		m.scroll = row
	}
	if row >= m.scroll+gh {
		m.scroll = row - gh + 1
	}
	maxScroll := m.gridRows() - gh
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

// bucketAt maps a screen position to a bucket index.
func (m Model) bucketAt(x, y int) (int, bool) {
	row := y - gridTop
	if row < 0 || row >= m.gridHeight() || x < 0 {
		return 0, false
	}
	cols := m.gridColumns()
	if x >= cols {
		return 0, false
	}
	i := (m.scroll+row)*cols + x
	if i >= len(m.heat.Reads) {
		return 0, false
	}
	return i, true
}

func (m Model) flashing(i int) bool {
	if m.flashThreshold == 0 || m.scrubbing || i >= len(m.delta) {
		return false
	}
	return m.delta[i] >= m.flashThreshold
}

// renderGrid draws the visible rows, one terminal cell per bucket.
func (m Model) renderGrid() string {
	n := len(m.heat.Reads)
	cols := m.gridColumns()
	gh := m.gridHeight()
	styles := cellStyles{}
	blank := newPainter(m.theme.Background)

	lines := make([]string, 0, gh)
	for r := m.scroll; r < m.scroll+gh; r++ {
		var b strings.Builder
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if i >= n {
				b.WriteString(blank.gap(cols - c))
				break
			}
			bg := cellColor(m.scheme, m.theme, m.heat.Reads[i], m.heat.Writes[i], m.heat.MaxTotal)
			if bg == "" {
				bg = m.theme.Empty
			}
			if m.flashing(i) {
				bg = m.theme.Flash
			}
			if i == m.cursor {
				b.WriteString(styles.get(bg, m.theme.Cursor).Render(cursorGlyph))
				continue
			}
			b.WriteString(styles.get(bg, "").Render(" "))
		}
		lines = append(lines, blank.fill(b.String(), m.width))
	}
	return strings.Join(lines, "\n")
}

// handleMouse follows the pointer like a hover tooltip; clicks zoom.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showHelp || !m.ready {
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.moveCursor(-m.gridColumns())
		return m, nil
	case tea.MouseButtonWheelDown:
		m.moveCursor(m.gridColumns())
		return m, nil
	}

	i, ok := m.bucketAt(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.cursor = i

	if msg.Action != tea.MouseActionPress || m.control == nil || m.scrubbing {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonLeft:
		m.zoomInto(i)
	case tea.MouseButtonRight:
		m.control.ZoomOut()
		m.afterViewChange()
	}
	return m, nil
}
