package img2ascii

import (
	"errors"
	"testing"

	"github.com/wbrown/img2ascii/imageutil"
)

func TestBatchConvertKeepsOrder(t *testing.T) {
	t.Parallel()

	s, err := NewSampler(WithWidth(4), WithHeight(2), WithRamp(MustRamp(" .:-=+*#%@")))
	if err != nil {
		t.Fatal(err)
	}

	const n = 64
	seq := &Sequence{Kind: KindAnimated}
	for i := 0; i < n; i++ {
		v := uint8(i * 4)
		seq.Frames = append(seq.Frames, Frame{
			Image: imageutil.CreateSolidImage(4, 2, imageutil.RGB{R: v, G: v, B: v}),
			Index: i,
		})
	}

	for _, workers := range []int{1, 3, 16, 0} {
		results, err := NewBatchConverter(s, WithWorkers(workers)).Convert(seq)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != n {
			t.Fatalf("workers=%d: %d results, want %d", workers, len(results), n)
		}
		for i, r := range results {
			if r.Index != i {
				t.Errorf("workers=%d: result %d has index %d", workers, i, r.Index)
			}
			v := uint8(i * 4)
			want := s.Ramp.Glyph(v)
			if got := r.Grid.At(0, 0); got != want {
				t.Errorf("workers=%d: frame %d glyph %q, want %q", workers, i, got, want)
			}
		}
		if grids := Grids(results); len(grids) != n || grids[5] != results[5].Grid {
			t.Errorf("Grids() out of order")
		}
	}
}

func TestBatchConvertEmpty(t *testing.T) {
	t.Parallel()

	s, err := NewSampler()
	if err != nil {
		t.Fatal(err)
	}
	b := NewBatchConverter(s)
	for _, seq := range []*Sequence{nil, {Kind: KindVideo}} {
		_, err := b.Convert(seq)
		var emptyErr *EmptyInputError
		if !errors.As(err, &emptyErr) {
			t.Errorf("error = %v, want EmptyInputError", err)
		}
	}
}

func TestBatchConvertNilSampler(t *testing.T) {
	t.Parallel()

	seq := &Sequence{Kind: KindStill, Frames: []Frame{{Image: imageutil.CreateSolidImage(4, 4, imageutil.RGB{})}}}
	if _, err := NewBatchConverter(nil).Convert(seq); !errors.Is(err, ErrUnsupportedConfig) {
		t.Errorf("error = %v, want ErrUnsupportedConfig", err)
	}
}

func TestBatchConvertPropagatesErrors(t *testing.T) {
	t.Parallel()

	s, err := NewSampler()
	if err != nil {
		t.Fatal(err)
	}
	seq := &Sequence{Frames: []Frame{
		{Image: imageutil.CreateSolidImage(4, 4, imageutil.RGB{})},
		{Image: imageutil.NewRGBAImage(0, 0), Index: 1},
	}}
	if _, err := NewBatchConverter(s).Convert(seq); !errors.Is(err, ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
}
