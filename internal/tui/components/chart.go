package components

import (
	"fmt"
	"math"
	"strings"

	"thunderdash/internal/results"
	"thunderdash/internal/tui/styles"
)

const (
	glyph    = "•"
	yAxisPad = 9
)

// Chart plots several lines on a shared grid scaled to XMax and YMax.
type Chart struct {
	Title  string
	Lines  []results.Line
	XMax   float64
	YMax   float64
	Width  int
	Height int
}

func NewChart(title string, lines []results.Line, xMax, yMax float64) Chart {
	return Chart{Title: title, Lines: lines, XMax: xMax, YMax: yMax, Width: 60, Height: 10}
}

// Grid places every point into a Height x Width cell grid. Each cell holds the index of the
// last line drawn into it, or -1. Later lines win ties.
func (c Chart) Grid() [][]int {
	if c.Width <= 0 || c.Height <= 0 {
		return nil
	}
	grid := make([][]int, c.Height)
	for r := range grid {
		grid[r] = make([]int, c.Width)
		for col := range grid[r] {
			grid[r][col] = -1
		}
	}

	for i, line := range c.Lines {
		for _, p := range line.Points {
			col := scale(p.X, c.XMax, c.Width)
			row := c.Height - 1 - scale(p.Y, c.YMax, c.Height)
			grid[row][col] = i
		}
	}
	return grid
}

// scale maps v in [0, max] onto [0, n-1].
func scale(v, max float64, n int) int {
	if max <= 0 || math.IsNaN(v) {
		return 0
	}
	i := int(math.Round(v / max * float64(n-1)))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

func (c Chart) View() string {
	s := strings.Builder{}
	s.WriteString(styles.Title.Render(c.Title))
	s.WriteString("\n")

	grid := c.Grid()
	if len(grid) == 0 || !c.hasPoints() {
		s.WriteString(styles.Subtle.Render("no data"))
		return s.String()
	}

	axis := styles.Subtle
	for r, row := range grid {
		label := ""
		switch r {
		case 0:
			label = formatTick(c.YMax)
		case len(grid) - 1:
			label = formatTick(0)
		}
		s.WriteString(axis.Render(fmt.Sprintf("%*s │", yAxisPad-2, label)))
		for _, cell := range row {
			if cell < 0 {
				s.WriteString(" ")
				continue
			}
			s.WriteString(styles.ChartLine(cell).Render(glyph))
		}
		s.WriteString("\n")
	}
	s.WriteString(axis.Render(strings.Repeat(" ", yAxisPad-1) + "└" + strings.Repeat("─", c.Width)))
	s.WriteString("\n")
	right := formatTick(c.XMax) + "s"
	gap := c.Width - len(right)
	if gap < 1 {
		gap = 1
	}
	s.WriteString(axis.Render(strings.Repeat(" ", yAxisPad) + strings.Repeat(" ", gap) + right))
	s.WriteString("\n")
	s.WriteString(c.legend())
	return s.String()
}

func (c Chart) hasPoints() bool {
	for _, l := range c.Lines {
		if len(l.Points) > 0 {
			return true
		}
	}
	return false
}

func (c Chart) legend() string {
	items := make([]string, 0, len(c.Lines))
	for i, l := range c.Lines {
		items = append(items, styles.ChartLine(i).Render(glyph+" ")+styles.Subtle.Render(l.Label))
	}
	return strings.Join(items, "   ")
}

func formatTick(v float64) string {
	switch {
	case v >= 10000:
		return fmt.Sprintf("%.0fk", v/1000)
	case v >= 100:
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
