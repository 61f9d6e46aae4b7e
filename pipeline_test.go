package img2ascii

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/gif"
	"image/png"
	"strings"
	"testing"

	"github.com/wbrown/img2ascii/imageutil"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	s, err := NewSampler(WithWidth(10))
	if err != nil {
		t.Fatal(err)
	}
	return &Pipeline{Sampler: s, Rasterizer: newBitmapRasterizer(t), Workers: 2}
}

func TestPipelineConvertStill(t *testing.T) {
	t.Parallel()

	data, err := imageutil.EncodePNG(imageutil.CreateSolidImage(200, 100, imageutil.RGB{}))
	if err != nil {
		t.Fatal(err)
	}
	conv, err := testPipeline(t).Convert(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	dense := string(DefaultRamp().Dense())
	want := strings.Repeat(dense, 10) + "\n" + strings.Repeat(dense, 10)
	if conv.Text() != want {
		t.Errorf("Text() = %q, want %q", conv.Text(), want)
	}

	out, err := json.Marshal(conv.Document())
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["width"] != 10.0 || doc["height"] != 2.0 || doc["frames"] != 1.0 {
		t.Errorf("document = %s", out)
	}
	if _, ok := doc["frame_rate"]; ok {
		t.Errorf("still document should omit frame_rate: %s", out)
	}
}

func TestPipelineConvertAnimated(t *testing.T) {
	t.Parallel()

	conv, err := testPipeline(t).Convert(buildGIF(t, 3, 10), nil)
	if err != nil {
		t.Fatal(err)
	}
	if conv.Kind != KindAnimated || len(conv.Results) != 3 {
		t.Fatalf("kind=%v results=%d", conv.Kind, len(conv.Results))
	}
	if parts := strings.Split(conv.Text(), FrameSeparator); len(parts) != 3 {
		t.Errorf("text has %d frames, want 3", len(parts))
	}
	if conv.FrameRate != 10 {
		t.Errorf("FrameRate = %v, want 10", conv.FrameRate)
	}
}

func TestPipelineRenderPNG(t *testing.T) {
	t.Parallel()

	p := testPipeline(t)
	data, err := imageutil.EncodePNG(imageutil.CreateGradientImage(200, 100))
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.Render(data, FormatPNG, nil)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 70 || b.Dy() != 26 {
		t.Errorf("png = %dx%d, want 70x26", b.Dx(), b.Dy())
	}
	if out.Frames != 1 {
		t.Errorf("Frames = %d", out.Frames)
	}
}

func TestPipelineRenderGIF(t *testing.T) {
	t.Parallel()

	out, err := testPipeline(t).Render(buildGIF(t, 4, 10), FormatGIF, nil)
	if err != nil {
		t.Fatal(err)
	}
	anim, err := gif.DecodeAll(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Image) != 4 || out.Frames != 4 {
		t.Errorf("frames = %d/%d, want 4", len(anim.Image), out.Frames)
	}
	if out.FrameRate != 10 {
		t.Errorf("FrameRate = %v, want 10", out.FrameRate)
	}
}

func TestPipelineRenderErrors(t *testing.T) {
	t.Parallel()

	p := testPipeline(t)
	data := buildGIF(t, 2, 10)
	if _, err := p.Render(data, FormatText, nil); !errors.Is(err, ErrUnsupportedConfig) {
		t.Errorf("text render error = %v", err)
	}
	if _, err := p.Render(data, FormatMP4, nil); !errors.Is(err, ErrUnsupportedConfig) {
		t.Errorf("video without scratch error = %v", err)
	}
	noRaster := &Pipeline{Sampler: p.Sampler}
	if _, err := noRaster.Render(data, FormatPNG, nil); !errors.Is(err, ErrUnsupportedConfig) {
		t.Errorf("missing rasterizer error = %v", err)
	}
	var zero Pipeline
	if _, err := zero.Convert(data, nil); !errors.Is(err, ErrUnsupportedConfig) {
		t.Errorf("missing sampler error = %v", err)
	}
	if _, err := zero.Render(data, FormatPNG, nil); !errors.Is(err, ErrUnsupportedConfig) {
		t.Errorf("missing sampler render error = %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"out.txt", FormatText},
		{"art.ANS", FormatText},
		{"json", FormatJSON},
		{"frame.png", FormatPNG},
		{"GIF", FormatGIF},
		{"clip.mp4", FormatMP4},
		{"clip.mov", FormatMP4},
		{"video", FormatMP4},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseFormat("out.bmp"); !errors.Is(err, ErrUnsupportedConfig) {
		t.Errorf("ParseFormat(out.bmp) error = %v", err)
	}
	if FormatGIF.ContentType() != "image/gif" || FormatText.ContentType() != "text/plain; charset=utf-8" {
		t.Error("unexpected content types")
	}
}
