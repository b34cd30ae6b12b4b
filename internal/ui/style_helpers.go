package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// painter renders text segments over one background color. lipgloss ends
// every styled segment with a full reset, so the gaps between segments are
// painted explicitly or the terminal background shows through.
type painter struct {
	bg lipgloss.Style
}

func newPainter(color string) painter {
	return painter{bg: lipgloss.NewStyle().Background(lipgloss.Color(color))}
}

// text renders s in style, painting the spaces inside s as well.
func (p painter) text(s string, style lipgloss.Style) string {
	if s == "" {
		return ""
	}
	style = style.Inherit(p.bg)
	words := strings.Split(s, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, p.gap(1))
}

// gap returns n painted spaces.
func (p painter) gap(n int) string {
	if n <= 0 {
		return ""
	}
	return p.bg.Render(strings.Repeat(" ", n))
}

func (p painter) join(parts []string, sep string) string {
	return strings.Join(parts, p.bg.Render(sep))
}

// fill pads rendered content to width.
func (p painter) fill(content string, width int) string {
	return p.bg.Width(width).Render(content)
}

// cellStyles caches one style per cell color pair for a single render pass.
type cellStyles map[string]lipgloss.Style

func (c cellStyles) get(bg, fg string) lipgloss.Style {
	k := bg + "/" + fg
	if s, ok := c[k]; ok {
		return s
	}
	s := lipgloss.NewStyle().Background(lipgloss.Color(bg))
	if fg != "" {
		s = s.Foreground(lipgloss.Color(fg)).Bold(true)
	}
	c[k] = s
	return s
}
