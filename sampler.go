package img2ascii

import (
	"errors"
	"image"
	"math"

	"github.com/wbrown/img2ascii/imageutil"
)

const (
	// DefaultWidth is the column count used when no dimension is given.
	DefaultWidth = 120

	// DefaultCellAspect is the height/width ratio of a terminal character
	// cell.
	DefaultCellAspect = 2.2

	// DefaultMaxCells caps columns x rows so a request cannot size a grid
	// beyond what fits in memory.
	DefaultMaxCells = 1 << 20
)

// Sampler converts a still image into a Grid. Exactly one sizing mode is
// active:
//
//   - MaxWidth and MaxHeight set: fit inside the bounds
//   - Width and Height set: exact size, no aspect handling
//   - only Width set: rows follow from the image aspect
//   - only Height set: columns follow from the image aspect
//
// Grids larger than MaxCells are rejected; zero means no limit.
//
// A Sampler is read-only once built and safe for concurrent use.
type Sampler struct {
	Width      int
	Height     int
	MaxWidth   int
	MaxHeight  int
	CellAspect float64
	Ramp       *Ramp
	Resampler  imageutil.Resampler
	Invert     bool
	Sharpen    bool
	Edges      bool
	MaxCells   int

	// Set by the dimension options, so an explicit zero is rejected
	// instead of replaced by DefaultWidth.
	widthSet, heightSet, boundsSet bool
}

// SamplerOption is a functional option for configuring a Sampler.
type SamplerOption func(*Sampler)

// NewSampler creates a Sampler with the given options and validates it.
// Defaults: Width=120 when no dimension option is given, CellAspect=2.2,
// the standard ramp, Lanczos resampling, DefaultMaxCells.
func NewSampler(opts ...SamplerOption) (*Sampler, error) {
	s := &Sampler{
		CellAspect: DefaultCellAspect,
		Resampler:  imageutil.ResampleLanczos,
		MaxCells:   DefaultMaxCells,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Ramp == nil {
		s.Ramp = DefaultRamp()
	}
	if !s.widthSet && !s.heightSet && !s.boundsSet {
		s.Width = DefaultWidth
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// WithWidth sets the target column count.
func WithWidth(columns int) SamplerOption {
	return func(s *Sampler) {
		s.Width = columns
		s.widthSet = true
	}
}

// WithHeight sets the target row count.
func WithHeight(rows int) SamplerOption {
	return func(s *Sampler) {
		s.Height = rows
		s.heightSet = true
	}
}

// WithBounds fits the grid inside maxColumns x maxRows.
func WithBounds(maxColumns, maxRows int) SamplerOption {
	return func(s *Sampler) {
		s.MaxWidth = maxColumns
		s.MaxHeight = maxRows
		s.boundsSet = true
	}
}

// WithMaxCells caps the number of cells in a grid. Zero removes the cap.
func WithMaxCells(n int) SamplerOption {
	return func(s *Sampler) {
		s.MaxCells = n
	}
}

// WithCellAspect sets the character cell height/width correction.
func WithCellAspect(aspect float64) SamplerOption {
	return func(s *Sampler) {
		s.CellAspect = aspect
	}
}

// WithRamp sets the glyph ramp.
func WithRamp(r *Ramp) SamplerOption {
	return func(s *Sampler) {
		s.Ramp = r
	}
}

// WithResampler selects the resampling filter.
func WithResampler(r imageutil.Resampler) SamplerOption {
	return func(s *Sampler) {
		s.Resampler = r
	}
}

// WithInvert flips brightness before glyph mapping, for light glyphs on a
// dark background.
func WithInvert(invert bool) SamplerOption {
	return func(s *Sampler) {
		s.Invert = invert
	}
}

// WithSharpen applies a mild sharpening kernel after resampling.
func WithSharpen(sharpen bool) SamplerOption {
	return func(s *Sampler) {
		s.Sharpen = sharpen
	}
}

// WithEdges draws line glyphs along detected edges on top of the
// brightness glyphs.
func WithEdges(edges bool) SamplerOption {
	return func(s *Sampler) {
		s.Edges = edges
	}
}

func (s *Sampler) validate() error {
	switch {
	case s.Width < 0 || (s.widthSet && s.Width == 0):
		return configErrorf("width", "must be positive, got %d", s.Width)
	case s.Height < 0 || (s.heightSet && s.Height == 0):
		return configErrorf("height", "must be positive, got %d", s.Height)
	case s.MaxWidth < 0 || s.MaxHeight < 0 || (s.boundsSet && (s.MaxWidth == 0 || s.MaxHeight == 0)):
		return configErrorf("bounds", "must be positive, got %dx%d", s.MaxWidth, s.MaxHeight)
	case (s.MaxWidth == 0) != (s.MaxHeight == 0):
		return configErrorf("bounds", "max width and max height must be set together")
	case s.Width == 0 && s.Height == 0 && s.MaxWidth == 0:
		return configErrorf("size", "width, height or bounds must be positive")
	case s.MaxWidth > 0 && (s.Width > 0 || s.Height > 0):
		return configErrorf("bounds", "cannot be combined with width or height")
	case math.IsNaN(s.CellAspect) || math.IsInf(s.CellAspect, 0) || s.CellAspect <= 0:
		return configErrorf("cell aspect", "must be a positive number, got %v", s.CellAspect)
	case s.Ramp == nil || s.Ramp.Len() == 0:
		return configErrorf("ramp", "must contain at least one glyph")
	case s.MaxCells < 0:
		return configErrorf("max cells", "must not be negative, got %d", s.MaxCells)
	}
	return nil
}

// Dimensions returns the grid size for a source image of srcWidth x
// srcHeight pixels. The cell aspect correction is applied in both
// directions: rows = columns * (H/W) / aspect and
// columns = rows * (W/H) * aspect.
func (s *Sampler) Dimensions(srcWidth, srcHeight int) (columns, rows int, err error) {
	if err := s.validate(); err != nil {
		return 0, 0, err
	}
	if srcWidth <= 0 || srcHeight <= 0 {
		return 0, 0, &DecodeError{Kind: KindStill, Err: errors.New("image has no pixels")}
	}
	ratio := float64(srcHeight) / float64(srcWidth)

	rowsFor := func(cols int) int {
		return cellCount(float64(cols) * ratio / s.CellAspect)
	}
	colsFor := func(rows int) int {
		return cellCount(float64(rows) / ratio * s.CellAspect)
	}

	switch {
	case s.MaxWidth > 0:
		rows = min(rowsFor(s.MaxWidth), s.MaxHeight)
		columns = min(colsFor(rows), s.MaxWidth)
	case s.Width > 0 && s.Height > 0:
		columns, rows = s.Width, s.Height
	case s.Height > 0:
		rows = s.Height
		columns = colsFor(rows)
	default:
		columns = s.Width
		rows = rowsFor(columns)
	}
	if s.MaxCells > 0 && float64(columns)*float64(rows) > float64(s.MaxCells) {
		return 0, 0, configErrorf("size", "%dx%d grid exceeds the limit of %d cells",
			columns, rows, s.MaxCells)
	}
	return columns, rows, nil
}

// cellCount rounds a computed column or row count, keeping it at least
// one and within int32 so the cell limit check cannot overflow.
func cellCount(v float64) int {
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return max(1, int(math.Round(v)))
}

// Sample converts img into a Grid. The result always has at least one
// column and one row.
func (s *Sampler) Sample(img image.Image) (*Grid, error) {
	bounds := img.Bounds()
	columns, rows, err := s.Dimensions(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	return s.SampleGray(imageutil.ToGrayscale(img), columns, rows), nil
}

// SampleGray maps an already reduced luminance plane onto a grid of the
// given size.
func (s *Sampler) SampleGray(gray *imageutil.GrayImage, columns, rows int) *Grid {
	if s.Invert {
		gray = imageutil.Invert(gray)
	}
	small := imageutil.ResizeGray(gray, columns, rows, s.Resampler)
	if s.Sharpen {
		small = imageutil.SharpenGray(small)
	}

	g := newGrid(columns, rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < columns; x++ {
			g.cells[y*columns+x] = s.Ramp.Glyph(small.GetGray(x, y))
		}
	}
	if s.Edges {
		s.overlayEdges(g, gray)
	}
	return g
}
