package img2ascii

import (
	"image"
	"image/draw"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/wbrown/img2ascii/imageutil"
)

var (
	// DefaultForeground is the glyph color, light gray.
	DefaultForeground = imageutil.RGB{R: 200, G: 200, B: 200}
	// DefaultBackground is the cell color, black.
	DefaultBackground = imageutil.RGB{}
)

// Rasterizer draws grids into images using a fixed monospace cell. Glyph
// masks are rendered once per rune and cached, so a Rasterizer is safe for
// concurrent use and identical grids always produce identical pixels.
type Rasterizer struct {
	fontName   string
	cellWidth  int
	cellHeight int
	ascent     int
	fg, bg     imageutil.RGB

	mu    sync.Mutex
	face  font.Face
	masks map[rune]*image.Alpha
}

type rasterConfig struct {
	fontSize   float64
	chain      []FontSource
	cellWidth  int
	cellHeight int
	fg, bg     imageutil.RGB
}

// RasterOption is a functional option for configuring a Rasterizer.
type RasterOption func(*rasterConfig)

// WithFontSize sets the glyph size in points.
func WithFontSize(size float64) RasterOption {
	return func(c *rasterConfig) {
		c.fontSize = size
	}
}

// WithFonts puts TrueType files at the front of the default font chain.
func WithFonts(paths ...string) RasterOption {
	return func(c *rasterConfig) {
		c.chain = FontChain(paths...)
	}
}

// WithFontChain replaces the font resolution chain.
func WithFontChain(chain ...FontSource) RasterOption {
	return func(c *rasterConfig) {
		c.chain = chain
	}
}

// WithCellSize fixes the character cell size in pixels instead of
// deriving it from the font.
func WithCellSize(width, height int) RasterOption {
	return func(c *rasterConfig) {
		c.cellWidth = width
		c.cellHeight = height
	}
}

// WithColors sets the glyph and background colors.
func WithColors(fg, bg imageutil.RGB) RasterOption {
	return func(c *rasterConfig) {
		c.fg = fg
		c.bg = bg
	}
}

// NewRasterizer resolves a font and creates a Rasterizer. Without
// WithCellSize the cell is the advance of 'W' by the font's line height.
func NewRasterizer(opts ...RasterOption) (*Rasterizer, error) {
	cfg := &rasterConfig{
		fontSize: DefaultFontSize,
		chain:    FontChain(),
		fg:       DefaultForeground,
		bg:       DefaultBackground,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.fontSize <= 0 {
		return nil, configErrorf("font size", "must be positive, got %v", cfg.fontSize)
	}
	if cfg.cellWidth < 0 || cfg.cellHeight < 0 || (cfg.cellWidth == 0) != (cfg.cellHeight == 0) {
		return nil, configErrorf("cell size", "must be two positive values, got %dx%d",
			cfg.cellWidth, cfg.cellHeight)
	}

	face, name, err := ResolveFace(cfg.chain, cfg.fontSize)
	if err != nil {
		return nil, err
	}

	metrics := face.Metrics()
	r := &Rasterizer{
		fontName:   name,
		cellWidth:  cfg.cellWidth,
		cellHeight: cfg.cellHeight,
		ascent:     metrics.Ascent.Ceil(),
		fg:         cfg.fg,
		bg:         cfg.bg,
		face:       face,
		masks:      make(map[rune]*image.Alpha),
	}
	if r.cellWidth == 0 {
		advance, ok := face.GlyphAdvance('W')
		if !ok {
			advance = fixed.I(int(cfg.fontSize))
		}
		r.cellWidth = max(1, advance.Ceil())
		r.cellHeight = max(1, metrics.Height.Ceil(), r.ascent+metrics.Descent.Ceil())
	}
	return r, nil
}

// CellSize returns the character cell size in pixels.
func (r *Rasterizer) CellSize() (width, height int) {
	return r.cellWidth, r.cellHeight
}

// FontName returns the name of the font source that was resolved.
func (r *Rasterizer) FontName() string {
	return r.fontName
}

// Colors returns the foreground and background colors.
func (r *Rasterizer) Colors() (fg, bg imageutil.RGB) {
	return r.fg, r.bg
}

// Rasterize draws g into a new image of
// (g.Width*cellWidth) x (g.Height*cellHeight) pixels. Whitespace glyphs are
// left as background.
func (r *Rasterizer) Rasterize(g *Grid) *image.RGBA {
	img := imageutil.NewRGBAImage(g.Width*r.cellWidth, g.Height*r.cellHeight)
	img.Fill(r.bg)
	fg := image.NewUniform(r.fg.ToColor())

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			glyph := g.At(x, y)
			if unicode.IsSpace(glyph) {
				continue
			}
			cell := image.Rect(x*r.cellWidth, y*r.cellHeight,
				(x+1)*r.cellWidth, (y+1)*r.cellHeight)
			draw.DrawMask(img.RGBA, cell, fg, image.Point{}, r.mask(glyph), image.Point{}, draw.Over)
		}
	}
	return img.RGBA
}

// mask returns the cached coverage mask for glyph, rendering it on first
// use. font.Face implementations are not safe for concurrent use, so the
// face is only touched under mu.
func (r *Rasterizer) mask(glyph rune) *image.Alpha {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.masks[glyph]; ok {
		return m
	}
	m := image.NewAlpha(image.Rect(0, 0, r.cellWidth, r.cellHeight))
	d := font.Drawer{
		Dst:  m,
		Src:  image.Opaque,
		Face: r.face,
		Dot:  fixed.P(0, r.ascent),
	}
	d.DrawString(string(glyph))
	r.masks[glyph] = m
	return m
}
