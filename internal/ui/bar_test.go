package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/phase"
	"github.com/jwulff/jobwatch/internal/timeline"
)

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

func TestColumnsAddUp(t *testing.T) {
	cases := []struct {
		widths []float64
		total  int
	}{
		{[]float64{40, 60}, 50},
		{[]float64{8, 98, 3.33, 3.33, 3.34}, 37},
		{[]float64{33.3, 33.3, 33.4}, 10},
		{[]float64{100}, 1},
	}
	for _, tc := range cases {
		cols := Columns(tc.widths, tc.total)
		if got := sum(cols); got != tc.total {
			t.Errorf("Columns(%v, %d) = %v, sum %d", tc.widths, tc.total, cols, got)
		}
	}
}

func TestColumnsProportional(t *testing.T) {
	cols := Columns([]float64{40, 60}, 50)
	if cols[0] != 20 || cols[1] != 30 {
		t.Errorf("cols = %v, want [20 30]", cols)
	}
}

func TestColumnsKeepsTinySegmentsVisible(t *testing.T) {
	cols := Columns([]float64{1, 1000}, 20)
	if cols[0] < 1 {
		t.Errorf("cols = %v, tiny segment vanished", cols)
	}
	if sum(cols) != 20 {
		t.Errorf("sum = %d, want 20", sum(cols))
	}
}

func TestColumnsEmpty(t *testing.T) {
	if cols := Columns(nil, 10); len(cols) != 0 {
		t.Errorf("cols = %v", cols)
	}
	if cols := Columns([]float64{0, 0}, 10); sum(cols) != 0 {
		t.Errorf("cols = %v, want zeros", cols)
	}
}

func TestRenderBarWidth(t *testing.T) {
	segs := timeline.Build(api.Job{Status: phase.Processing, Progress: 40})
	for _, w := range []int{10, 40, 73} {
		if got := lipgloss.Width(RenderBar(segs, w)); got != w {
			t.Errorf("RenderBar width %d rendered %d cells", w, got)
		}
	}
}

func TestFit(t *testing.T) {
	if got := fit("Process 40%", 5); lipgloss.Width(got) != 5 {
		t.Errorf("fit = %q", got)
	}
	if got := fit("ab", 6); got != "  ab  " {
		t.Errorf("fit = %q, want centered", got)
	}
}

func TestFontFallsBackToMedium(t *testing.T) {
	if Font("xs").ShowTime {
		t.Error("xs should hide timestamps")
	}
	if Font("bogus").ShowTime != Font("md").ShowTime {
		t.Error("unknown font should use md")
	}
	if Font("xxl").Spacing != 1 {
		t.Error("xxl should add spacing")
	}
}
