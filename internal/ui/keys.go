package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit        key.Binding
	Help        key.Binding
	CycleTheme  key.Binding
	CycleScheme key.Binding

	// Cursor
	Left   key.Binding
	Right  key.Binding
	Up     key.Binding
	Down   key.Binding
	Home   key.Binding
	End    key.Binding
	PageUp key.Binding
	PageDn key.Binding

	// View
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	ZoomFull key.Binding
	PanLeft  key.Binding
	PanRight key.Binding
	Reset    key.Binding

	// Frames
	PrevFrame key.Binding
	NextFrame key.Binding
	Live      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		CycleScheme: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Cycle color scheme"),
		),

		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "Cursor left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "Cursor right"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Cursor up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Cursor down"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "First bucket"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Last bucket"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("ctrl+u", "Page up"),
		),
		PageDn: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("ctrl+d", "Page down"),
		),

		ZoomIn: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Zoom into bucket"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("o", "backspace"),
			key.WithHelp("o", "Zoom out"),
		),
		ZoomFull: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "Full address space"),
		),
		PanLeft: key.NewBinding(
			key.WithKeys("<", ","),
			key.WithHelp("<", "Pan left"),
		),
		PanRight: key.NewBinding(
			key.WithKeys(">", "."),
			key.WithHelp(">", "Pan right"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reset counters"),
		),

		PrevFrame: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Previous frame"),
		),
		NextFrame: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Next frame"),
		),
		Live: key.NewBinding(
			key.WithKeys("L", "esc"),
			key.WithHelp("L", "Back to live"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ZoomIn, k.ZoomOut, k.Reset, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down, k.Home, k.End, k.PageUp, k.PageDn},
		{k.ZoomIn, k.ZoomOut, k.ZoomFull, k.PanLeft, k.PanRight, k.Reset},
		{k.PrevFrame, k.NextFrame, k.Live},
		{k.CycleScheme, k.CycleTheme, k.Help, k.Quit},
	}
}
