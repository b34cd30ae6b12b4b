package ui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/memheat/internal/heatmap"
)

// stepFrame moves through archived frames. The first step from live lands
// on the newest (or oldest, going forward) archived frame.
func (m Model) stepFrame(dir int) (tea.Model, tea.Cmd) {
	if m.control == nil {
		return m, nil
	}
	list := m.control.Frames()
	if len(list) == 0 {
		m.notice = "no archived frames"
		return m, nil
	}

	var target int64
	if !m.scrubbing {
		target = list[len(list)-1]
		if dir > 0 {
			target = list[0]
		}
	} else {
		pos := sort.Search(len(list), func(i int) bool { return list[i] >= m.scrubFrame })
		switch {
		case dir < 0 && pos > 0:
			pos--
		case dir > 0 && pos < len(list) && list[pos] == m.scrubFrame:
			pos++
		}
		if pos >= len(list) {
			pos = len(list) - 1
		}
		target = list[pos]
	}

	fs, ok := m.control.Frame(target)
	if !ok {
		// Dropped from the archive between listing and fetching.
		m.notice = fmt.Sprintf("frame %d expired", target)
		return m, nil
	}

	live := m.heat
	if !m.scrubbing {
		live = m.control.Snapshot()
	}
	shown := heatmap.FromFrame(fs, m.control.MemorySize())
	shown.Policy = live.Policy
	shown.Totals = live.Totals

	m.scrubbing = true
	m.scrubFrame = target
	m.heat = shown
	m.aux = nil
	m.moveCursor(0)

	return m, m.requestAuxCmd(target)
}

// leaveScrub returns to the live aggregate.
func (m *Model) leaveScrub() {
	if !m.scrubbing {
		return
	}
	m.scrubbing = false
	m.aux = nil
	if m.control != nil {
		m.heat = m.control.Snapshot()
	}
	m.moveCursor(0)
}

// requestAuxCmd loads the frame's files off the UI goroutine. Requests
// arriving while a load runs are dropped by the loader.
func (m Model) requestAuxCmd(frame int64) tea.Cmd {
	if !m.loader.Enabled() {
		return nil
	}
	loader := m.loader
	return func() tea.Msg {
		aux, ok := loader.Request(frame)
		if !ok {
			return nil
		}
		return auxMsg(aux)
	}
}

// renderAuxPanel lists the frame's screenshot and the tail of its
// instruction log.
func (m Model) renderAuxPanel() []string {
	styles := m.theme.Styles(m.theme.Panel)
	bg := newPainter(m.theme.Panel)
	bar := func(s string) string { return oneLine(styles.Bar, m.width).Render(s) }

	lines := make([]string, 0, auxPanelLines)
	if m.aux == nil {
		lines = append(lines, bar(bg.text(fmt.Sprintf("loading frame %d files...", m.scrubFrame), styles.FaintText)))
	} else {
		aux := m.aux
		if aux.ImagePath != "" {
			status := bg.text(aux.ImageSizeHuman(), styles.Text)
			if !aux.HasImage {
				status = bg.text("missing", styles.DangerText)
			}
			lines = append(lines, bar(bg.text("image", styles.MutedText)+bg.gap(1)+
				bg.text(truncateMiddle(aux.ImagePath, 60), styles.Text)+bg.gap(2)+status))
		}
		for _, p := range aux.Problems {
			if len(lines) >= auxPanelLines {
				break
			}
			if aux.ImagePath != "" && strings.HasPrefix(p, "image missing") {
				continue
			}
			lines = append(lines, bar(bg.text(truncate(p, m.width-2), styles.WarningText)))
		}
		room := auxPanelLines - len(lines)
		ins := aux.Instructions
		if len(ins) > room {
			ins = ins[len(ins)-room:]
		}
		for _, line := range ins {
			lines = append(lines, bar(bg.text(truncate(line, m.width-2), styles.InfoText)))
		}
	}
	for len(lines) < auxPanelLines {
		lines = append(lines, bar(""))
	}
	return lines
}
