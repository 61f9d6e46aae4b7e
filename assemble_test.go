package img2ascii

import (
	"bytes"
	"errors"
	"image"
	"image/gif"
	"testing"
	"time"
)

func rasterFrames(t *testing.T, r *Rasterizer, texts ...string) []RasterFrame {
	t.Helper()
	frames := make([]RasterFrame, len(texts))
	for i, text := range texts {
		g := mustGrid(t, text)
		frames[i] = RasterFrame{Index: i, Columns: g.Width, Rows: g.Height, Image: r.Rasterize(g)}
	}
	return frames
}

func TestAssemblerCanvas(t *testing.T) {
	t.Parallel()

	r := newBitmapRasterizer(t)
	a := NewAssembler(r)
	frames := []RasterFrame{
		{Columns: 10, Rows: 5},
		{Columns: 8, Rows: 6},
	}
	cols, rows, bounds, err := a.Canvas(frames)
	if err != nil {
		t.Fatal(err)
	}
	if cols != 10 || rows != 6 {
		t.Errorf("canvas = %dx%d cells, want 10x6", cols, rows)
	}
	if bounds != image.Rect(0, 0, 70, 78) {
		t.Errorf("bounds = %v, want 70x78", bounds)
	}
}

func TestAssemblerEmpty(t *testing.T) {
	t.Parallel()

	a := NewAssembler(newBitmapRasterizer(t))
	var emptyErr *EmptyInputError
	if _, _, _, err := a.Canvas(nil); !errors.As(err, &emptyErr) {
		t.Errorf("Canvas error = %v", err)
	}
	if err := a.Animation(&bytes.Buffer{}, nil); !errors.As(err, &emptyErr) {
		t.Errorf("Animation error = %v", err)
	}
	if _, err := a.Video(nil, 24, nil); !errors.As(err, &emptyErr) {
		t.Errorf("Video error = %v", err)
	}
}

func TestAssemblerAnimation(t *testing.T) {
	t.Parallel()

	r := newBitmapRasterizer(t)
	a := NewAssembler(r, WithDelay(250*time.Millisecond))
	frames := rasterFrames(t, r, "@@@@@@@@@@\n@@@@@@@@@@", "##\n##\n##", "..")

	var buf bytes.Buffer
	if err := a.Animation(&buf, frames); err != nil {
		t.Fatal(err)
	}
	anim, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Image) != 3 {
		t.Fatalf("decoded %d frames, want 3", len(anim.Image))
	}
	if anim.Config.Width != 70 || anim.Config.Height != 39 {
		t.Errorf("screen = %dx%d, want 70x39", anim.Config.Width, anim.Config.Height)
	}
	if anim.LoopCount != 0 {
		t.Errorf("LoopCount = %d, want 0", anim.LoopCount)
	}
	for i, d := range anim.Delay {
		if d != 25 {
			t.Errorf("frame %d delay = %d, want 25", i, d)
		}
	}
	// The unused area of a small frame stays background.
	if c := anim.Image[2].At(69, 38); c != a.palette()[0] {
		t.Errorf("padding color = %v, want background", c)
	}
}

func TestAssemblerNegativeDelay(t *testing.T) {
	t.Parallel()

	r := newBitmapRasterizer(t)
	a := NewAssembler(r, WithDelay(-time.Second))
	err := a.Animation(&bytes.Buffer{}, rasterFrames(t, r, "x"))
	if !errors.Is(err, ErrUnsupportedConfig) {
		t.Errorf("error = %v, want ErrUnsupportedConfig", err)
	}
}

func TestAssemblerPalette(t *testing.T) {
	t.Parallel()

	a := NewAssembler(newBitmapRasterizer(t))
	p := a.palette()
	if len(p) != gifShades {
		t.Fatalf("palette has %d colors", len(p))
	}
	if p[0] != a.Background.ToColor() || p[len(p)-1] != a.Foreground.ToColor() {
		t.Errorf("palette ends = %v %v", p[0], p[len(p)-1])
	}
}
