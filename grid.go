package img2ascii

import (
	"strings"
)

// FrameSeparator joins the text of consecutive grids in multi-frame text
// output. It is a form feed on a line of its own.
const FrameSeparator = "\n\f\n"

// Grid is a rectangular glyph matrix. Every row holds exactly Width runes
// and there are exactly Height rows. Grids are never modified after they
// are built.
type Grid struct {
	Width  int
	Height int
	cells  []rune
}

func newGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		cells:  make([]rune, width*height),
	}
}

// ParseGrid builds a grid from newline separated text. Short lines are
// padded with spaces to the longest line so the result is rectangular.
// A trailing newline does not add a row.
func ParseGrid(text string) (*Grid, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil, &EmptyInputError{Stage: "parse grid"}
	}

	lines := strings.Split(text, "\n")
	rows := make([][]rune, len(lines))
	width := 0
	for i, line := range lines {
		rows[i] = []rune(line)
		width = max(width, len(rows[i]))
	}
	if width == 0 {
		return nil, &EmptyInputError{Stage: "parse grid"}
	}

	g := newGrid(width, len(rows))
	for y, row := range rows {
		line := g.cells[y*width : (y+1)*width]
		n := copy(line, row)
		for x := n; x < width; x++ {
			line[x] = ' '
		}
	}
	return g, nil
}

// At returns the glyph at column x, row y.
func (g *Grid) At(x, y int) rune {
	return g.cells[y*g.Width+x]
}

// Row returns row y as a string.
func (g *Grid) Row(y int) string {
	return string(g.cells[y*g.Width : (y+1)*g.Width])
}

// Lines returns every row as a string.
func (g *Grid) Lines() []string {
	lines := make([]string, g.Height)
	for y := range lines {
		lines[y] = g.Row(y)
	}
	return lines
}

// String returns the rows joined with newlines, without a trailing
// newline.
func (g *Grid) String() string {
	return strings.Join(g.Lines(), "\n")
}

// Equal reports whether two grids hold the same glyphs.
func (g *Grid) Equal(other *Grid) bool {
	if g.Width != other.Width || g.Height != other.Height {
		return false
	}
	for i, r := range g.cells {
		if other.cells[i] != r {
			return false
		}
	}
	return true
}
