package ui

import "github.com/charmbracelet/lipgloss"

// Theme is a named palette. Chrome colors style the bars and the help
// overlay; heat colors are used by the grid.
type Theme struct {
	Name string

	Background string // behind the grid
	Surface    string // header, status bar, inspector and legend
	Panel      string // frame file panel

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	Empty  string // bucket without traffic
	Read   string // binary scheme
	Write  string // binary scheme
	Both   string // binary scheme
	Cursor string
	Flash  string
}

// Styles holds text styles rendered over one background.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Bar  lipgloss.Style // full width line with horizontal padding
	Logo lipgloss.Style
}

// Styles builds the text styles for content drawn on bg. An empty bg leaves
// the terminal background showing.
func (t Theme) Styles(bg string) Styles {
	base := lipgloss.NewStyle()
	if bg != "" {
		base = base.Background(lipgloss.Color(bg))
	}
	fg := func(c string) lipgloss.Style { return base.Foreground(lipgloss.Color(c)) }

	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),
		Bar:         fg(t.Muted).Padding(0, 1),
		Logo:        fg(t.Warning).Bold(true),
	}
}

var themeOrder = []string{"Dracula", "Slate", "Gruvbox"}

var themes = map[string]Theme{
	"Dracula": draculaTheme(),
	"Slate":   slateTheme(),
	"Gruvbox": gruvboxTheme(),
}

// GetTheme returns a theme by name, falling back to the default.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return defaultTheme()
}

// NextTheme returns the theme name following current.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

func defaultTheme() Theme {
	return draculaTheme()
}

func draculaTheme() Theme {
	// https://draculatheme.com
	return Theme{
		Name:       "Dracula",
		Background: "#191A21",
		Surface:    "#282A36",
		Panel:      "#21222C",

		Text:    "#F8F8F2",
		Muted:   "#6272A4",
		Faint:   "#44475A",
		Accent:  "#BD93F9",
		Success: "#50FA7B",
		Warning: "#FFB86C",
		Danger:  "#FF5555",
		Info:    "#8BE9FD",

		Empty:  "#21222C",
		Read:   "#50FA7B",
		Write:  "#FF5555",
		Both:   "#F1FA8C",
		Cursor: "#FF79C6",
		Flash:  "#F8F8F2",
	}
}

func slateTheme() Theme {
	// Tailwind slate/sky
	return Theme{
		Name:       "Slate",
		Background: "#020617",
		Surface:    "#0f172a",
		Panel:      "#1e293b",

		Text:    "#f1f5f9",
		Muted:   "#94a3b8",
		Faint:   "#64748b",
		Accent:  "#38bdf8",
		Success: "#22c55e",
		Warning: "#f59e0b",
		Danger:  "#ef4444",
		Info:    "#06b6d4",

		Empty:  "#1e293b",
		Read:   "#22c55e",
		Write:  "#ef4444",
		Both:   "#facc15",
		Cursor: "#ec4899",
		Flash:  "#f8fafc",
	}
}

func gruvboxTheme() Theme {
	// Gruvbox dark, hard contrast
	return Theme{
		Name:       "Gruvbox",
		Background: "#1d2021",
		Surface:    "#282828",
		Panel:      "#32302f",

		Text:    "#ebdbb2",
		Muted:   "#a89984",
		Faint:   "#665c54",
		Accent:  "#d3869b",
		Success: "#b8bb26",
		Warning: "#fe8019",
		Danger:  "#fb4934",
		Info:    "#83a598",

		Empty:  "#3c3836",
		Read:   "#b8bb26",
		Write:  "#fb4934",
		Both:   "#fabd2f",
		Cursor: "#8ec07c",
		Flash:  "#fbf1c7",
	}
}
