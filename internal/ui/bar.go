package ui

import (
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jwulff/jobwatch/internal/timeline"
)

// Columns splits total terminal columns among widths in proportion, using
// largest remainders so the parts always add up to total. Every positive
// width gets at least one column while columns remain.
func Columns(widths []float64, total int) []int {
	out := make([]int, len(widths))
	if total <= 0 || len(widths) == 0 {
		return out
	}
	var sum float64
	for _, w := range widths {
		if w > 0 {
			sum += w
		}
	}
	if sum <= 0 {
		return out
	}

	type rem struct {
		i    int
		frac float64
	}
	rems := make([]rem, 0, len(widths))
	used := 0
	for i, w := range widths {
		if w <= 0 {
			continue
		}
		exact := w / sum * float64(total)
		out[i] = int(math.Floor(exact))
		used += out[i]
		rems = append(rems, rem{i, exact - math.Floor(exact)})
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for k := 0; used < total && len(rems) > 0; k = (k + 1) % len(rems) {
		out[rems[k].i]++
		used++
	}

	// Borrow from the widest part for positive widths that rounded to zero.
	for i, w := range widths {
		if w <= 0 || out[i] > 0 {
			continue
		}
		widest := 0
		for j := range out {
			if out[j] > out[widest] {
				widest = j
			}
		}
		if out[widest] <= 1 {
			break
		}
		out[widest]--
		out[i] = 1
	}
	return out
}

// RenderBar draws segments as one colored row of width columns.
func RenderBar(segs []timeline.Segment, width int) string {
	widths := make([]float64, len(segs))
	for i, s := range segs {
		widths[i] = s.Width
	}
	cols := Columns(widths, width)

	var b strings.Builder
	for i, s := range segs {
		n := cols[i]
		if n == 0 {
			continue
		}
		style := lipgloss.NewStyle().
			Background(lipgloss.Color(s.Color)).
			Foreground(ColorBlack)
		if s.Active {
			style = style.Bold(true)
		}
		if s.Next {
			style = style.Underline(true)
		}
		if s.Upcoming && !s.Next {
			style = style.Faint(true)
		}
		b.WriteString(style.Render(fit(segmentText(s, n), n)))
	}
	return b.String()
}

func segmentText(s timeline.Segment, n int) string {
	full := s.Label + " " + s.Caption
	if lipgloss.Width(full) <= n {
		return full
	}
	return s.Label
}

// fit pads or cuts s to exactly n cells.
func fit(s string, n int) string {
	w := lipgloss.Width(s)
	if w == n {
		return s
	}
	if w < n {
		pad := n - w
		left := pad / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > n {
		runes = runes[:len(runes)-1]
	}
	out := string(runes)
	return out + strings.Repeat(" ", n-lipgloss.Width(out))
}

// Chips renders the compact top-phases line.
func Chips(chips []timeline.Chip) string {
	parts := make([]string, 0, len(chips))
	for _, c := range chips {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render(c.Icon+" "+c.Duration))
	}
	return strings.Join(parts, "  ")
}
