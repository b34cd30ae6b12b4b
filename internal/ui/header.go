package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// renderHeader shows the window, its resolution and where frames stand.
func (m Model) renderHeader() string {
	styles := m.theme.Styles(m.theme.Surface)
	bg := newPainter(m.theme.Surface)
	compact := m.width < 100

	v := m.heat.View
	parts := []string{
		bg.text("memheat", styles.Logo),
		bg.text("Range:", styles.MutedText) + bg.gap(1) +
			bg.text(fmt.Sprintf("%#x - %#x", v.Start, v.End), styles.Text),
		bg.text("Bucket:", styles.MutedText) + bg.gap(1) +
			bg.text(formatBytes(v.BucketSize()), styles.Text),
	}

	if !compact {
		parts = append(parts,
			bg.text("Memory:", styles.MutedText)+bg.gap(1)+
				bg.text(formatBytes(m.heat.MemorySize), styles.Text),
			bg.text("Policy:", styles.MutedText)+bg.gap(1)+
				bg.text(m.heat.Policy.String(), styles.Text),
		)
	}

	if m.heat.Zoomed() {
		parts = append(parts, bg.text(fmt.Sprintf("ZOOM %d", m.heat.ZoomDepth), styles.AccentText.Bold(true)))
	}

	switch {
	case m.scrubbing:
		parts = append(parts, bg.text(fmt.Sprintf("FRAME %d", m.scrubFrame), styles.WarningText.Bold(true)))
	case m.heat.HasFrame:
		parts = append(parts,
			bg.text("Frame:", styles.MutedText)+bg.gap(1)+
				bg.text(fmt.Sprintf("%d", m.heat.Frame), styles.Text),
			bg.text("LIVE", styles.SuccessText))
	default:
		parts = append(parts, bg.text("LIVE", styles.SuccessText))
	}

	return oneLine(styles.Bar, m.width).Render(bg.join(parts, "  "))
}

// renderStatusBar shows tailer health: progress, drops and the last error.
func (m Model) renderStatusBar() string {
	styles := m.theme.Styles(m.theme.Surface)
	bg := newPainter(m.theme.Surface)
	snap := m.snapshot
	tail := snap.Tail
	totals := m.heat.Totals

	parts := []string{
		bg.text(truncateMiddle(m.tracePath, 40), styles.MutedText),
		bg.text("Lines:", styles.MutedText) + bg.gap(1) +
			bg.text(humanize.Comma(int64(tail.Lines)), styles.Text),
		bg.text("Read:", styles.MutedText) + bg.gap(1) +
			bg.text(humanize.IBytes(uint64(tail.Offset)), styles.Text),
	}

	discardStyle := styles.MutedText
	if totals.DiscardedTotal() > 0 {
		discardStyle = styles.WarningText
	}
	parts = append(parts,
		bg.text("Dropped:", styles.MutedText)+bg.gap(1)+
			bg.text(humanize.Comma(int64(totals.DiscardedTotal())), discardStyle),
		bg.text("Outside:", styles.MutedText)+bg.gap(1)+
			bg.text(humanize.Comma(int64(totals.OutOfRange)), styles.MutedText),
	)
	if tail.Rotations > 0 {
		parts = append(parts,
			bg.text("Rotations:", styles.MutedText)+bg.gap(1)+
				bg.text(fmt.Sprintf("%d", tail.Rotations), styles.InfoText))
	}

	switch {
	case snap.IsStalled():
		parts = append(parts,
			bg.text("STALLED", styles.DangerText)+bg.gap(1)+
				bg.text(truncate(errText(snap.LastError), 60), styles.DangerText))
	case snap.LastError != nil:
		parts = append(parts,
			bg.text("!", styles.WarningText.Bold(true))+bg.gap(1)+
				bg.text(truncate(errText(snap.LastError), 60), styles.WarningText))
	}

	if m.notice != "" {
		parts = append(parts, bg.text(m.notice, styles.InfoText))
	}

	return oneLine(styles.Bar, m.width).Render(bg.join(parts, "  "))
}

// oneLine sizes a bar to the terminal width and cuts off whatever wraps.
func oneLine(style lipgloss.Style, width int) lipgloss.Style {
	return style.Width(width).MaxHeight(1)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// footerLines returns the inspector, the legend and, while scrubbing, the
// auxiliary file panel.
func (m Model) footerLines() []string {
	lines := []string{m.renderInspector(), m.renderLegend()}
	if m.scrubbing && m.loader.Enabled() {
		lines = append(lines, m.renderAuxPanel()...)
	}
	return lines
}

// renderInspector describes the bucket under the cursor.
func (m Model) renderInspector() string {
	styles := m.theme.Styles(m.theme.Surface)
	bg := newPainter(m.theme.Surface)

	lo, hi, ok := m.heat.View.BucketRange(m.cursor)
	if !ok || m.cursor >= len(m.heat.Reads) {
		return oneLine(styles.Bar, m.width).Render(bg.text("no bucket under cursor", styles.FaintText))
	}
	reads, writes := m.heat.Reads[m.cursor], m.heat.Writes[m.cursor]
	parts := []string{
		bg.text(fmt.Sprintf("#%d", m.cursor), styles.AccentText),
		bg.text(fmt.Sprintf("%#x - %#x", lo, hi), styles.Text),
		bg.text("Reads:", styles.MutedText) + bg.gap(1) +
			bg.text(humanize.Comma(int64(reads)), styles.Text),
		bg.text("Writes:", styles.MutedText) + bg.gap(1) +
			bg.text(humanize.Comma(int64(writes)), styles.Text),
		bg.text("Peak:", styles.MutedText) + bg.gap(1) +
			bg.text(humanize.Comma(int64(m.heat.MaxTotal)), styles.FaintText),
	}
	return oneLine(styles.Bar, m.width).Render(bg.join(parts, "  "))
}

// renderLegend shows the color key and the short key help.
func (m Model) renderLegend() string {
	styles := m.theme.Styles(m.theme.Surface)
	bg := newPainter(m.theme.Surface)

	var swatches []string
	for _, e := range legendEntries(m.scheme, m.theme) {
		sw := lipgloss.NewStyle().Background(lipgloss.Color(e.color)).Render("  ")
		if e.label != "" {
			sw += bg.gap(1) + bg.text(e.label, styles.MutedText)
		}
		swatches = append(swatches, sw)
	}

	var hints []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, bg.text(h.Key, styles.WarningText)+bg.gap(1)+bg.text(strings.ToLower(h.Desc), styles.FaintText))
	}

	content := bg.text(m.scheme.String(), styles.AccentText) + bg.gap(2) +
		bg.join(swatches, " ") + bg.gap(3) + bg.join(hints, "  ")
	return oneLine(styles.Bar, m.width).Render(content)
}

func formatBytes(n uint64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	return humanize.IBytes(n)
}
