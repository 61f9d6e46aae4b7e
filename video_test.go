package img2ascii

import (
	"errors"
	"testing"
)

func TestVideoRoundTrip(t *testing.T) {
	t.Parallel()

	scratch, err := NewScratch(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer scratch.Close()

	r := newBitmapRasterizer(t)
	a := NewAssembler(r)
	frames := rasterFrames(t, r, "@@@\n@@@", "###\n###", "...\n...", "   \n   ")

	data, err := a.Video(frames, 12, scratch)
	if err != nil {
		t.Skipf("video encoding unavailable: %v", err)
	}
	if Sniff(data) != KindVideo {
		t.Fatalf("encoded video sniffs as %v", Sniff(data))
	}

	seq, err := Decode(KindVideo, data, WithScratch(scratch))
	if err != nil {
		t.Fatal(err)
	}
	if seq.Len() != len(frames) {
		t.Errorf("decoded %d frames, want %d", seq.Len(), len(frames))
	}
	if seq.FrameRate < 11.9 || seq.FrameRate > 12.1 {
		t.Errorf("FrameRate = %v, want 12", seq.FrameRate)
	}
	// Odd canvas sizes are padded to even.
	if b := seq.Frames[0].Image.Bounds(); b.Dx() != 22 || b.Dy() != 26 {
		t.Errorf("frame = %dx%d, want 22x26", b.Dx(), b.Dy())
	}
}

func TestDecodeVideoNeedsScratch(t *testing.T) {
	t.Parallel()

	_, err := Decode(KindVideo, []byte("\x00\x00\x00\x18ftypisom"))
	if !errors.Is(err, ErrUnsupportedConfig) {
		t.Errorf("error = %v, want ErrUnsupportedConfig", err)
	}
}

func TestDecodeVideoGarbage(t *testing.T) {
	t.Parallel()

	scratch, err := NewScratch(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer scratch.Close()

	_, err = Decode(KindVideo, []byte("\x00\x00\x00\x18ftypisom but nothing else"), WithScratch(scratch))
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("error = %v, want DecodeError", err)
	}
	if decErr.Kind != KindVideo {
		t.Errorf("Kind = %v", decErr.Kind)
	}
}
