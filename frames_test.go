package img2ascii

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"math"
	"testing"
	"time"

	"github.com/wbrown/img2ascii/imageutil"
)

// buildGIF encodes n solid 8x8 frames cycling black, white and gray.
func buildGIF(t *testing.T, n int, delay int) []byte {
	t.Helper()
	anim := &gif.GIF{}
	for i := 0; i < n; i++ {
		anim.Image = append(anim.Image, imageutil.CreatePalettedFrame(8, 8, uint8(i%3)))
		anim.Delay = append(anim.Delay, delay)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// frameBlock returns the location of frame i (zero based) in a GIF.
func frameBlock(t *testing.T, data []byte, i int) gifBlock {
	t.Helper()
	s, err := newGIFScanner(data)
	if err != nil {
		t.Fatal(err)
	}
	for n := 0; ; n++ {
		b, err := s.next()
		if err != nil {
			t.Fatalf("frame %d not found: %v", i, err)
		}
		if n == i {
			return b
		}
	}
}

// corruptFrame makes frame i undecodable by setting an LZW minimum code
// size the decoder rejects, leaving the block structure intact.
func corruptFrame(t *testing.T, data []byte, i int) []byte {
	t.Helper()
	out := bytes.Clone(data)
	b := frameBlock(t, out, i)
	out[b.start+10+colorTableSize(out[b.start+9])] = 0x0c
	return out
}

func TestSniff(t *testing.T) {
	t.Parallel()

	png, err := imageutil.EncodePNG(imageutil.CreateSolidImage(4, 4, imageutil.RGB{}))
	if err != nil {
		t.Fatal(err)
	}
	mp4 := append([]byte{0, 0, 0, 0x18}, []byte("ftypisom\x00\x00\x02\x00")...)
	avi := []byte("RIFF\x00\x00\x00\x00AVI LIST")
	webm := []byte{0x1a, 0x45, 0xdf, 0xa3, 0x9f, 0x42, 0x86, 0x81}

	tests := []struct {
		name string
		data []byte
		want Kind
	}{
		{"png", png, KindStill},
		{"single frame gif", buildGIF(t, 1, 10), KindStill},
		{"animated gif", buildGIF(t, 3, 10), KindAnimated},
		{"mp4", mp4, KindVideo},
		{"avi", avi, KindVideo},
		{"webm", webm, KindVideo},
		{"garbage", []byte("hello"), KindStill},
		{"empty", nil, KindStill},
	}
	for _, tt := range tests {
		if got := Sniff(tt.data); got != tt.want {
			t.Errorf("Sniff(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestVideoExt(t *testing.T) {
	t.Parallel()

	mov := append([]byte{0, 0, 0, 0x14}, []byte("ftypqt  \x00\x00\x00\x00")...)
	if got := videoExt(mov); got != ".mov" {
		t.Errorf("videoExt(mov) = %s", got)
	}
	if got := videoExt([]byte("RIFF\x00\x00\x00\x00AVI ")); got != ".avi" {
		t.Errorf("videoExt(avi) = %s", got)
	}
	if got := videoExt([]byte{0x1a, 0x45, 0xdf, 0xa3}); got != ".mkv" {
		t.Errorf("videoExt(mkv) = %s", got)
	}
}

func TestDecodeStill(t *testing.T) {
	t.Parallel()

	data, err := imageutil.EncodePNG(imageutil.CreateGradientImage(16, 8))
	if err != nil {
		t.Fatal(err)
	}
	seq, err := DecodeAuto(data)
	if err != nil {
		t.Fatal(err)
	}
	if seq.Kind != KindStill || seq.Len() != 1 || seq.FrameRate != 0 {
		t.Fatalf("got kind=%v frames=%d rate=%v", seq.Kind, seq.Len(), seq.FrameRate)
	}
	if b := seq.Frames[0].Image.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("bounds = %v", b)
	}
}

func TestDecodeGarbage(t *testing.T) {
	t.Parallel()

	_, err := DecodeAuto([]byte("definitely not an image"))
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("error = %v, want DecodeError", err)
	}
	if _, err := Decode(KindStill, nil); !errors.Is(err, ErrDecode) {
		t.Errorf("empty input error = %v", err)
	}
}

func TestDecodeAnimated(t *testing.T) {
	t.Parallel()

	seq, err := DecodeAuto(buildGIF(t, 3, 5))
	if err != nil {
		t.Fatal(err)
	}
	if seq.Kind != KindAnimated || seq.Len() != 3 {
		t.Fatalf("got kind=%v frames=%d", seq.Kind, seq.Len())
	}
	if seq.FrameRate != 20 {
		t.Errorf("FrameRate = %v, want 20", seq.FrameRate)
	}
	wantGray := []uint8{0, 255, 128}
	for i, f := range seq.Frames {
		if f.Index != i {
			t.Errorf("frame %d has index %d", i, f.Index)
		}
		if f.Delay != 50*time.Millisecond {
			t.Errorf("frame %d delay = %v", i, f.Delay)
		}
		got := imageutil.RGBFromColor(f.Image.At(4, 4))
		if got.R != wantGray[i] {
			t.Errorf("frame %d pixel = %v, want gray %d", i, got, wantGray[i])
		}
	}
}

func TestDecodeAnimatedStopsAtBadFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		corrupt int
		want    int
	}{
		{"second frame", 1, 1},
		{"third frame", 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := corruptFrame(t, buildGIF(t, 3, 10), tt.corrupt)
			if Sniff(data) != KindAnimated {
				t.Fatal("corrupt GIF should still sniff as animated")
			}
			seq, err := DecodeAuto(data)
			if err != nil {
				t.Fatal(err)
			}
			if seq.Len() != tt.want {
				t.Errorf("decoded %d frames, want %d", seq.Len(), tt.want)
			}
		})
	}
}

func TestDecodeAnimatedTruncated(t *testing.T) {
	t.Parallel()

	data := buildGIF(t, 3, 10)
	b := frameBlock(t, data, 2)
	seq, err := Decode(KindAnimated, data[:b.start+12])
	if err != nil {
		t.Fatal(err)
	}
	if seq.Len() != 2 {
		t.Errorf("decoded %d frames, want 2", seq.Len())
	}
}

func TestDecodeAnimatedFirstFrameBad(t *testing.T) {
	t.Parallel()

	data := corruptFrame(t, buildGIF(t, 3, 10), 0)
	_, err := Decode(KindAnimated, data)
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("error = %v, want DecodeError", err)
	}
	if decErr.Kind != KindAnimated {
		t.Errorf("Kind = %v", decErr.Kind)
	}
}

func TestDecodeAnimatedMaxFrames(t *testing.T) {
	t.Parallel()

	seq, err := DecodeAuto(buildGIF(t, 5, 10), WithMaxFrames(2))
	if err != nil {
		t.Fatal(err)
	}
	if seq.Len() != 2 {
		t.Errorf("decoded %d frames, want 2", seq.Len())
	}
	if _, err := DecodeAuto(buildGIF(t, 2, 10), WithMaxFrames(-1)); !errors.Is(err, ErrUnsupportedConfig) {
		t.Errorf("negative max frames error = %v", err)
	}
}

func TestDecodeAnimatedDisposal(t *testing.T) {
	t.Parallel()

	pal := color.Palette{color.Black, color.White}
	full := image.NewPaletted(image.Rect(0, 0, 4, 4), pal)
	for i := range full.Pix {
		full.Pix[i] = 1
	}
	corner := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)

	anim := &gif.GIF{
		Image:    []*image.Paletted{full, corner, corner},
		Delay:    []int{10, 10, 10},
		Disposal: []byte{gif.DisposalNone, gif.DisposalPrevious, gif.DisposalNone},
		Config:   image.Config{ColorModel: pal, Width: 4, Height: 4},
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		t.Fatal(err)
	}

	seq, err := DecodeAuto(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if seq.Len() != 3 {
		t.Fatalf("decoded %d frames, want 3", seq.Len())
	}
	// Frame 2 draws a black corner over white.
	if c := imageutil.RGBFromColor(seq.Frames[1].Image.At(0, 0)); c.R != 0 {
		t.Errorf("frame 1 corner = %v, want black", c)
	}
	if c := imageutil.RGBFromColor(seq.Frames[1].Image.At(3, 3)); c.R != 255 {
		t.Errorf("frame 1 far corner = %v, want white", c)
	}
	// Frame 2 was disposed to previous, frame 3 draws the corner again
	// over the restored white canvas.
	if c := imageutil.RGBFromColor(seq.Frames[2].Image.At(3, 3)); c.R != 255 {
		t.Errorf("frame 2 far corner = %v, want white", c)
	}
}

func TestFrameRateFromDelays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		delays []time.Duration
		want   float64
	}{
		{[]time.Duration{100 * time.Millisecond}, 10},
		{[]time.Duration{40 * time.Millisecond, 60 * time.Millisecond}, 20},
		{[]time.Duration{0, 10 * time.Millisecond}, 10},
	}
	for _, tt := range tests {
		frames := make([]Frame, len(tt.delays))
		for i, d := range tt.delays {
			frames[i].Delay = d
		}
		if got := frameRateFromDelays(frames); got != tt.want {
			t.Errorf("frameRateFromDelays(%v) = %v, want %v", tt.delays, got, tt.want)
		}
	}
}

func TestNormalizeFrameRate(t *testing.T) {
	t.Parallel()

	for _, in := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		if got := normalizeFrameRate(in); got != DefaultFrameRate {
			t.Errorf("normalizeFrameRate(%v) = %v", in, got)
		}
	}
	if got := normalizeFrameRate(29.97); got != 29.97 {
		t.Errorf("normalizeFrameRate(29.97) = %v", got)
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	if KindVideo.String() != "video" || Kind(9).String() != "Kind(9)" {
		t.Error("unexpected Kind names")
	}
}

func TestSampleTransparentGIF(t *testing.T) {
	t.Parallel()

	pal := color.Palette{color.Transparent, color.Black}
	anim := &gif.GIF{Config: image.Config{ColorModel: pal, Width: 8, Height: 8}}
	for i := 0; i < 2; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 8, 8), pal)
		for y := 0; y < 8; y++ {
			for x := 0; x < 4; x++ {
				frame.SetColorIndex(x, y, 1)
			}
		}
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 10)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		t.Fatal(err)
	}

	seq, err := DecodeAuto(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewSampler(WithWidth(8))
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range seq.Frames {
		g, err := s.Sample(f.Image)
		if err != nil {
			t.Fatal(err)
		}
		for y := 0; y < g.Height; y++ {
			if got := g.At(0, y); got != s.Ramp.Dense() {
				t.Errorf("frame %d row %d: opaque cell = %q, want %q", f.Index, y, got, s.Ramp.Dense())
			}
			if got := g.At(7, y); got != s.Ramp.Empty() {
				t.Errorf("frame %d row %d: transparent cell = %q, want %q", f.Index, y, got, s.Ramp.Empty())
			}
		}
	}
}
