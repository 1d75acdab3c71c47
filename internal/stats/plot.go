package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is a named run of values drawn as one line.
type Series struct {
	Name   string
	Values []float64
}

// PlotOptions controls the size and colour of a plot.
type PlotOptions struct {
	Title string
	// Width is the number of plot columns, excluding the axis. Zero fits the
	// terminal.
	Width  int
	Height int
	// Color forces ANSI colours even when w is not a terminal.
	Color bool
}

const (
	defaultPlotHeight     = 10
	minPlotWidth          = 10
	axisLabelWidth        = 8
	axisSeparator         = " │ "
	fallbackTerminalWidth = 80
	ansiReset             = "\x1b[0m"
)

type dash struct {
	name   string
	on     int
	period int
}

// Lines are told apart by dash pattern when colour is off.
var dashes = []dash{
	{name: "solid", on: 1, period: 1},
	{name: "dashed", on: 3, period: 6},
	{name: "dotted", on: 1, period: 4},
	{name: "dashdot", on: 3, period: 8},
}

var palette = []string{
	"\x1b[36m", // cyan
	"\x1b[33m", // yellow
	"\x1b[35m", // magenta
	"\x1b[32m", // green
	"\x1b[34m", // blue
}

func (d dash) draws(x int) bool {
	if d.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%d.period < d.on
}

// Plot draws the series on one shared vertical scale using braille cells,
// each holding 2x4 dots.
func Plot(w io.Writer, series []Series, opts PlotOptions) error {
	series = nonEmpty(series)
	if len(series) == 0 {
		return nil
	}
	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	width := opts.Width
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	lo, hi := bounds(series)
	if hi-lo < 1e-9 {
		lo, hi = lo-1, hi+1
	}

	c := newCanvas(width, height)
	for si, s := range series {
		d := dashes[si%len(dashes)]
		prevX, prevY := -1, -1
		for col, v := range fit(s.Values, width) {
			x := col * 2
			y := c.dotRow(v, lo, hi)
			if prevX < 0 {
				if d.draws(x) {
					c.set(x, y, si)
				}
			} else {
				c.line(prevX, prevY, x, y, func(px, py int) {
					if d.draws(px) {
						c.set(px, py, si)
					}
				})
			}
			prevX, prevY = x, y
		}
	}

	color := colorEnabled(w, opts.Color)
	var out []string
	if opts.Title != "" {
		out = append(out, opts.Title)
	}
	out = append(out, fmt.Sprintf("Scale: %s to %s", formatAxis(lo), formatAxis(hi)))
	labels := axisLabels(lo, hi, height)
	for row := 0; row < height; row++ {
		var b strings.Builder
		b.WriteString(runewidth.FillLeft(labels[row], axisLabelWidth))
		b.WriteString(axisSeparator)
		for col := 0; col < width; col++ {
			r, owner := c.glyph(col, row)
			if color && owner >= 0 {
				b.WriteString(palette[owner%len(palette)])
				b.WriteRune(r)
				b.WriteString(ansiReset)
				continue
			}
			b.WriteRune(r)
		}
		out = append(out, b.String())
	}
	out = append(out, legend(series, color), "")
	for _, line := range out {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// PlotWidthFor returns the plot columns left after the axis in totalWidth
// terminal columns.
func PlotWidthFor(totalWidth int) int {
	width := totalWidth - axisLabelWidth - runewidth.StringWidth(axisSeparator)
	if width < minPlotWidth {
		return minPlotWidth
	}
	return width
}

func nonEmpty(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func bounds(series []Series) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

// fit stretches or squeezes values to n points. Longer runs are averaged per
// bucket, shorter ones interpolated linearly.
func fit(values []float64, n int) []float64 {
	out := make([]float64, n)
	switch {
	case len(values) == n:
		copy(out, values)
	case len(values) > n:
		for i := range out {
			start := i * len(values) / n
			end := (i + 1) * len(values) / n
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case len(values) == 1 || n == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		step := float64(len(values)-1) / float64(n-1)
		for i := range out {
			pos := float64(i) * step
			j := int(pos)
			if j >= len(values)-1 {
				out[i] = values[len(values)-1]
				continue
			}
			frac := pos - float64(j)
			out[i] = values[j] + (values[j+1]-values[j])*frac
		}
	}
	return out
}

func axisLabels(lo, hi float64, height int) []string {
	labels := make([]string, height)
	labels[0] = formatAxis(hi)
	if height > 1 {
		labels[height-1] = formatAxis(lo)
	}
	if height > 2 {
		labels[height/2] = formatAxis((lo + hi) / 2)
	}
	return labels
}

func formatAxis(v float64) string {
	if math.Abs(v) >= 1000 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func legend(series []Series, color bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", brailleBase+0x01, s.Name, dashes[i%len(dashes)].name)
		if color {
			label = palette[i%len(palette)] + label + ansiReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTerminalWidth
	}
	return width
}

func colorEnabled(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

const brailleBase = 0x2800

// brailleBits maps a dot at (row, column) inside a cell to its bit.
var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

type canvas struct {
	cols, rows int
	dots       [][]uint8
	// owner is the first series that touched a cell, -1 for none.
	owner [][]int
}

func newCanvas(cols, rows int) *canvas {
	c := &canvas{cols: cols, rows: rows}
	c.dots = make([][]uint8, rows)
	c.owner = make([][]int, rows)
	for r := 0; r < rows; r++ {
		c.dots[r] = make([]uint8, cols)
		c.owner[r] = make([]int, cols)
		for i := range c.owner[r] {
			c.owner[r][i] = -1
		}
	}
	return c
}

// dotRow maps v to a dot row, 0 at the top.
func (c *canvas) dotRow(v, lo, hi float64) int {
	n := c.rows * 4
	if n <= 1 {
		return 0
	}
	pos := (v - lo) / (hi - lo)
	y := int(math.Round((1 - pos) * float64(n-1)))
	return max(0, min(n-1, y))
}

func (c *canvas) set(x, y, series int) {
	col, row := x/2, y/4
	if x < 0 || y < 0 || col >= c.cols || row >= c.rows {
		return
	}
	c.dots[row][col] |= brailleBits[y%4][x%2]
	if c.owner[row][col] < 0 {
		c.owner[row][col] = series
	}
}

// line walks the dots between two points (Bresenham).
func (c *canvas) line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *canvas) glyph(col, row int) (rune, int) {
	return rune(brailleBase + int(c.dots[row][col])), c.owner[row][col]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
