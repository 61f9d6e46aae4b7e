package img2ascii

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"math"
	"os"
	"time"

	"gocv.io/x/gocv"

	"github.com/wbrown/img2ascii/imageutil"
)

const (
	// DefaultDelay is the inter-frame delay of animation output.
	DefaultDelay = 100 * time.Millisecond

	// VideoCodec is the FourCC used for video output.
	VideoCodec = "mp4v"

	// gifShades is the number of fg/bg blends in the animation palette.
	gifShades = 16
)

// RasterFrame is a rasterized grid together with the grid size it was
// drawn from.
type RasterFrame struct {
	Index   int
	Columns int
	Rows    int
	Image   *image.RGBA
}

// Assembler stitches rasterized frames into an animated GIF or a video.
// Frames may differ in size; every frame is drawn top-left on a canvas as
// large as the largest grid, and the rest is left as background.
type Assembler struct {
	CellWidth  int
	CellHeight int
	Foreground imageutil.RGB
	Background imageutil.RGB
	Delay      time.Duration
}

// AssembleOption is a functional option for configuring an Assembler.
type AssembleOption func(*Assembler)

// WithDelay sets the uniform inter-frame delay of animation output.
func WithDelay(d time.Duration) AssembleOption {
	return func(a *Assembler) {
		a.Delay = d
	}
}

// NewAssembler creates an Assembler whose cell size and colors match the
// rasterizer that produced the frames.
func NewAssembler(r *Rasterizer, opts ...AssembleOption) *Assembler {
	fg, bg := r.Colors()
	a := &Assembler{
		CellWidth:  r.cellWidth,
		CellHeight: r.cellHeight,
		Foreground: fg,
		Background: bg,
		Delay:      DefaultDelay,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Canvas returns the canvas size in glyph cells and in pixels. It fails
// with EmptyInputError when frames is empty.
func (a *Assembler) Canvas(frames []RasterFrame) (columns, rows int, bounds image.Rectangle, err error) {
	if len(frames) == 0 {
		return 0, 0, image.Rectangle{}, &EmptyInputError{Stage: "assemble"}
	}
	for _, f := range frames {
		columns = max(columns, f.Columns)
		rows = max(rows, f.Rows)
	}
	return columns, rows, image.Rect(0, 0, columns*a.CellWidth, rows*a.CellHeight), nil
}

// Animation writes frames as a GIF that loops forever, each frame shown
// for a.Delay.
func (a *Assembler) Animation(w io.Writer, frames []RasterFrame) error {
	_, _, bounds, err := a.Canvas(frames)
	if err != nil {
		return err
	}
	if a.Delay < 0 {
		return configErrorf("delay", "must not be negative, got %v", a.Delay)
	}

	palette := a.palette()
	delay := int(math.Round(float64(a.Delay) / float64(10*time.Millisecond)))
	anim := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: 0,
		Config: image.Config{
			ColorModel: palette,
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
		},
	}
	for i, f := range frames {
		canvas := image.NewPaletted(bounds, palette)
		// Index 0 is the background color, so the canvas starts filled.
		draw.Draw(canvas, f.Image.Bounds(), f.Image, f.Image.Bounds().Min, draw.Src)
		anim.Image[i] = canvas
		anim.Delay[i] = delay
	}

	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("failed to encode gif: %w", err)
	}
	return nil
}

// palette returns the background, the foreground and the blends between
// them. Antialiased glyph edges are such blends, so they quantize well.
func (a *Assembler) palette() color.Palette {
	p := make(color.Palette, gifShades)
	for i := range p {
		t := float64(i) / float64(gifShades-1)
		p[i] = a.Background.Lerp(a.Foreground, t).ToColor()
	}
	return p
}

// Video encodes frames at fps through OpenCV into a file in scratch and
// returns its bytes. The canvas is padded to even dimensions, which most
// encoders require.
func (a *Assembler) Video(frames []RasterFrame, fps float64, scratch *Scratch) ([]byte, error) {
	_, _, bounds, err := a.Canvas(frames)
	if err != nil {
		return nil, err
	}
	if scratch == nil {
		return nil, configErrorf("scratch", "video output needs a scratch area")
	}
	fps = normalizeFrameRate(fps)

	width, height := bounds.Dx()+bounds.Dx()%2, bounds.Dy()+bounds.Dy()%2
	path := scratch.Path(".mp4")
	writer, err := gocv.VideoWriterFile(path, VideoCodec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open video writer: %w", err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, errors.New("failed to open video writer: codec " + VideoCodec + " unavailable")
	}

	canvas := imageutil.NewRGBAImage(width, height)
	for _, f := range frames {
		canvas.Fill(a.Background)
		draw.Draw(canvas.RGBA, f.Image.Bounds(), f.Image, f.Image.Bounds().Min, draw.Src)
		if err := writeMat(writer, canvas.RGBA); err != nil {
			writer.Close()
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish video: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encoded video: %w", err)
	}
	return data, nil
}

func writeMat(writer *gocv.VideoWriter, img image.Image) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()
	if err := writer.Write(mat); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}
