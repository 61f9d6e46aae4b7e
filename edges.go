package img2ascii

import (
	"math"

	"github.com/wbrown/img2ascii/imageutil"
)

const (
	// edgeCellWidth is the width in pixels of one glyph cell on the plane
	// edges are detected on. The height follows from the cell aspect.
	edgeCellWidth = 4
)

// edgeGlyphs are indexed by edge orientation in 45 degree steps, starting
// with a vertical edge.
var edgeGlyphs = [4]rune{'|', '/', '-', '\\'}

// overlayEdges replaces the glyph of every cell crossed by a Canny edge
// with a line glyph following the edge. Detection runs on a plane of
// edgeCellWidth pixels per column so thin lines survive the reduction.
func (s *Sampler) overlayEdges(g *Grid, gray *imageutil.GrayImage) {
	cw := edgeCellWidth
	ch := max(1, int(math.Round(edgeCellWidth*s.CellAspect)))
	plane := imageutil.ResizeGray(gray, g.Width*cw, g.Height*ch, s.Resampler)
	mask, grad := imageutil.CannyDefault(plane)
	width := plane.Width()

	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			var count int
			var c, sn float64
			for y := row * ch; y < (row+1)*ch; y++ {
				for x := col * cw; x < (col+1)*cw; x++ {
					i := y*width + x
					if mask.Pix[i] == 0 {
						continue
					}
					count++
					// Doubled angle so opposite gradients reinforce.
					gx, gy := grad.DX[i], grad.DY[i]
					c += gx*gx - gy*gy
					sn += 2 * gx * gy
				}
			}
			if count < cw {
				continue
			}
			g.cells[row*g.Width+col] = edgeGlyph(math.Atan2(sn, c) / 2)
		}
	}
}

// edgeGlyph picks the line glyph for a gradient direction in radians. The
// edge runs perpendicular to the gradient; image y grows downwards.
func edgeGlyph(gradient float64) rune {
	deg := gradient * 180 / math.Pi
	for deg < 0 {
		deg += 180
	}
	step := int(math.Round(deg/45)) % 4
	return edgeGlyphs[step]
}
