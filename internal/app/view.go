package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jwulff/jobwatch/internal/notify"
	"github.com/jwulff/jobwatch/internal/phase"
	"github.com/jwulff/jobwatch/internal/registry"
	"github.com/jwulff/jobwatch/internal/tail"
	"github.com/jwulff/jobwatch/internal/timefmt"
	"github.com/jwulff/jobwatch/internal/timeline"
	"github.com/jwulff/jobwatch/internal/ui"
)

// maxNotifications is how many notifications the status area shows.
const maxNotifications = 3

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStats())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	switch m.screen {
	case ScreenTail:
		sections = append(sections, m.renderTail())
	case ScreenTimeline:
		sections = append(sections, m.detailView.View())
	default:
		sections = append(sections, m.renderJobs())
	}

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderNotifications()...)
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("JOBWATCH")
	target := ui.DimStyle.Render(" · " + m.cfg.BaseURL)

	var refresh string
	if m.coord.AutoRefresh() {
		refresh = ui.LiveBadgeStyle.Render(fmt.Sprintf("  AUTO %s", m.cfg.RegistryInterval))
	} else {
		refresh = ui.ScrollBadgeStyle.Render("  PAUSED")
	}

	var updated string
	if at := m.reg.Updated(); !at.IsZero() {
		updated = ui.DimStyle.Render("  updated " + timefmt.Clock(at, m.loc))
	}
	return title + target + refresh + updated
}

func (m Model) renderStats() string {
	s := m.reg.Stats()
	stat := func(label string, n int, color lipgloss.Color) string {
		return lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprint(n)) +
			ui.DimStyle.Render(" "+label)
	}
	return strings.Join([]string{
		stat("total", s.Total, ui.ColorWhite),
		stat("processing", s.Processing, ui.ColorBlue),
		stat("awaiting review", s.AwaitingReview, ui.ColorYellow),
		stat("complete", s.Complete, ui.ColorGreen),
		stat("errors", s.Error, ui.ColorRed),
	}, "   ")
}

func (m Model) renderJobs() string {
	if !m.loaded && len(m.rows) == 0 {
		return padHeight(ui.DimStyle.Render("  Loading jobs..."), m.contentHeight())
	}
	if len(m.rows) == 0 {
		return padHeight(ui.DimStyle.Render("  No jobs found."), m.contentHeight())
	}
	return m.list.View()
}

// renderRows draws every job; the viewport picks the visible part.
func (m Model) renderRows() string {
	if len(m.rows) == 0 {
		return ""
	}
	barWidth := max(10, m.width-4)
	var lines []string
	for i, r := range m.rows {
		lines = append(lines, renderRow(r, i == m.cursor, barWidth, m.width)...)
	}
	return strings.Join(lines, "\n")
}

func renderRow(r registry.Row, selected bool, barWidth, width int) []string {
	marker := "  "
	id := "🎵 Job " + r.ID
	if selected {
		marker = ui.SelectedStyle.Render("> ")
		id = ui.SelectedStyle.Render(id)
	}
	badge := ui.StatusBadge(r.Display, phase.Color(r.Status, false))
	timing := ui.DimStyle.Render("Submitted: ") + r.Submitted + ui.DimStyle.Render("  Duration: ") + r.Duration

	head := marker + id + " " + badge
	if gap := width - lipgloss.Width(head) - lipgloss.Width(timing) - 1; gap > 0 {
		head += strings.Repeat(" ", gap) + timing
	} else {
		head += "  " + timing
	}

	track := "    " + r.Track
	if r.ReviewURL != "" && r.Status == phase.AwaitingReview {
		track += ui.DimStyle.Render("  review: " + r.ReviewURL)
	}

	info := "    " + ui.DimStyle.Render(r.Age)
	if len(r.Chips) > 0 {
		info += "   " + ui.Chips(r.Chips)
	}
	if r.Failed {
		info += "   " + ui.ErrorTextStyle.Render("(could not format job)")
	}

	return []string{
		truncateToWidth(head, width),
		truncateToWidth(track, width),
		"  " + ui.RenderBar(r.Segments, barWidth),
		truncateToWidth(info, width),
		"",
	}
}

func (m Model) renderTail() string {
	height := m.contentHeight()
	s := m.tails.Session()
	if s == nil {
		return padHeight("", height)
	}

	var badge string
	switch {
	case s.Held:
		badge = ui.HeldBadgeStyle.Render(" HELD")
	case s.AutoScroll:
		badge = ui.LiveBadgeStyle.Render(" LIVE")
	default:
		badge = ui.ScrollBadgeStyle.Render(" SCROLL")
	}
	font := ui.DimStyle.Render(fmt.Sprintf("  font %s", m.tails.Font()))
	header := ui.PanelTitleActiveStyle.Render(s.Title) + badge + font
	if s.Err != nil {
		header += "  " + ui.ErrorTextStyle.Render("Failed to load logs: "+s.Err.Error())
	}

	lines := []string{truncateToWidth(header, m.width)}
	switch {
	case !s.Loaded:
		lines = append(lines, ui.DimStyle.Render("  Starting log tail..."))
	case len(s.Entries) == 0:
		lines = append(lines, ui.DimStyle.Render("  No logs available yet..."))
	default:
		lines = append(lines, m.renderLogLines(s)...)
	}
	return padHeight(strings.Join(lines, "\n"), height)
}

func (m Model) renderLogLines(s *tail.Session) []string {
	class := ui.Font(string(m.tails.Font()))
	visible := m.visibleEntries()
	start := clamp(m.logScroll, 0, max(0, len(s.Entries)-1))
	end := min(len(s.Entries), start+visible)

	lo, hi := -1, -1
	if m.selecting {
		lo, hi = m.selectionRange()
	}

	var out []string
	for i, l := range tail.Lines(s.Entries[start:end], m.now(), m.loc) {
		idx := start + i
		var b strings.Builder
		b.WriteString("  ")
		if class.ShowTime {
			b.WriteString(ui.TimestampStyle.Render(l.Time))
			b.WriteString(" ")
		}
		b.WriteString(ui.LevelStyle(l.Level).Render(fmt.Sprintf("%-8s", l.Level)))
		b.WriteString(" ")
		b.WriteString(class.Message.Render(l.Message))
		line := truncateToWidth(b.String(), m.width)
		if idx >= lo && idx <= hi {
			line = ui.SelectionStyle.Render(line)
		}
		out = append(out, line)
		for k := 0; k < class.Spacing; k++ {
			out = append(out, "")
		}
	}
	return out
}

func (m Model) renderDetail(d timeline.Detail) string {
	var lines []string
	lines = append(lines, ui.TitleStyle.Render("⏱️ "+d.Heading))
	lines = append(lines, "")

	var cards []string
	for _, c := range d.Cards {
		cards = append(cards, ui.StatCardStyle.Render(ui.PanelTitleStyle.Render(c.Value)+"\n"+ui.DimStyle.Render(c.Label)))
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cards...))

	if d.Degraded {
		lines = append(lines, "", ui.DimStyle.Italic(true).Render(d.Note))
	}

	chartWidth := max(10, m.width-36)
	if len(d.Bars) > 0 {
		lines = append(lines, "", ui.PanelTitleStyle.Render("Phase Timeline"))
		for _, b := range d.Bars {
			n := max(1, int(b.Width/100*float64(chartWidth)))
			n = min(n, chartWidth)
			bar := lipgloss.NewStyle().Foreground(lipgloss.Color(b.Color)).Render(strings.Repeat("█", n))
			lines = append(lines, fmt.Sprintf("  %s %s  %s", padRight(b.Name, 22), bar, b.Duration))
		}
	}

	if len(d.Rows) > 0 {
		lines = append(lines, "", ui.PanelTitleStyle.Render("Phase Details"))
		lines = append(lines, ui.DimStyle.Render(fmt.Sprintf("  %-22s %-16s %-16s %-12s %s", "Phase", "Started", "Ended", "Duration", "Status")))
		for _, r := range d.Rows {
			dot := lipgloss.NewStyle().Foreground(lipgloss.Color(r.Color)).Render("●")
			line := fmt.Sprintf("  %s %-16s %-16s %-12s %s %s", padRight(r.Name, 22), r.Started, r.Ended, r.Duration, dot, r.State)
			if r.Active {
				line = ui.SelectedStyle.Render(line)
			}
			lines = append(lines, line)
		}
	}

	if len(d.Transitions) > 0 {
		lines = append(lines, "", ui.PanelTitleStyle.Render("Phase Transitions"))
		for _, t := range d.Transitions {
			lines = append(lines, fmt.Sprintf("  %s → %s  %s", phase.Display(t.From), phase.Display(t.To), ui.DimStyle.Render("Gap: "+t.Gap)))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderNotifications() []string {
	active := m.notes.Active()
	if len(active) > maxNotifications {
		active = active[len(active)-maxNotifications:]
	}
	lines := make([]string, 0, maxNotifications)
	for _, n := range active {
		var style lipgloss.Style
		switch n.Level {
		case notify.Error:
			style = ui.ErrorTextStyle
		case notify.Success:
			style = ui.SuccessTextStyle
		default:
			style = ui.InfoTextStyle
		}
		lines = append(lines, truncateToWidth(style.Render(n.Message), m.width))
	}
	for len(lines) < maxNotifications {
		lines = append(lines, "")
	}
	return lines
}

func (m Model) renderFooter() string {
	if m.confirm != nil {
		var prompt string
		switch m.confirm.action {
		case actionDelete:
			prompt = fmt.Sprintf("Delete job %s? (y/n)", m.confirm.jobID)
		case actionClearErrors:
			prompt = fmt.Sprintf("Clear all %d error jobs? (y/n)", m.reg.Stats().Error)
		default:
			prompt = fmt.Sprintf("Retry job %s? (y/n)", m.confirm.jobID)
		}
		return ui.ConfirmStyle.Render(prompt)
	}

	key := func(k, desc string) string {
		return ui.FooterKeyStyle.Render(k) + ui.FooterDescStyle.Render(" "+desc)
	}
	var parts []string
	switch m.screen {
	case ScreenTail:
		parts = append(parts, key("↑↓", "Scroll"), key("+/-", "Font"), key("s", "Auto-scroll"))
		if m.selecting {
			parts = append(parts, key("c", "Copy selection"), key("esc", "Clear selection"))
		} else {
			parts = append(parts, key("v", "Select"), key("c", "Copy"), key("esc", "Close"))
		}
	case ScreenTimeline:
		parts = append(parts, key("↑↓", "Scroll"), key("enter", "Logs"), key("esc", "Back"))
	default:
		parts = append(parts, key("j/k", "Nav"), key("enter", "Logs"), key("t", "Timeline"), key("r", "Refresh"), key("a", "Auto-refresh"))
		if m.retryable() {
			parts = append(parts, key("R", "Retry"))
		}
		parts = append(parts, key("d", "Delete"))
		if m.reg.Stats().Error > 0 {
			parts = append(parts, key("X", "Clear errors"))
		}
	}
	parts = append(parts, key("q", "Quit"))
	return strings.Join(parts, "  ")
}

// Helpers

func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

func padHeight(s string, height int) string {
	lines := strings.Split(s, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}
