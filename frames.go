package img2ascii

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/wbrown/img2ascii/imageutil"
)

// Kind identifies the media variant a Frame Source decodes.
type Kind int

const (
	// KindStill is a single image.
	KindStill Kind = iota
	// KindAnimated is an animated image container (GIF).
	KindAnimated
	// KindVideo is a video container decoded through OpenCV.
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindStill:
		return "still"
	case KindAnimated:
		return "animated"
	case KindVideo:
		return "video"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// DefaultFrameRate is used when a video container reports no usable rate.
const DefaultFrameRate = 24.0

// Frame is one decoded still image. Delay is the display duration for
// animated sources and zero otherwise. Index is the playback position.
type Frame struct {
	Image image.Image
	Delay time.Duration
	Index int
}

// Sequence is an ordered list of frames and their frame rate in frames per
// second. A still image has a rate of zero.
type Sequence struct {
	Kind      Kind
	Frames    []Frame
	FrameRate float64
}

// Len returns the number of frames.
func (s *Sequence) Len() int {
	return len(s.Frames)
}

// decodeConfig carries the options for one Decode call.
type decodeConfig struct {
	scratch   *Scratch
	maxFrames int
}

// DecodeOption is a functional option for Decode.
type DecodeOption func(*decodeConfig)

// WithScratch supplies the scratch area video input is staged in.
func WithScratch(s *Scratch) DecodeOption {
	return func(c *decodeConfig) {
		c.scratch = s
	}
}

// WithMaxFrames stops decoding after n frames. Zero means no limit.
func WithMaxFrames(n int) DecodeOption {
	return func(c *decodeConfig) {
		c.maxFrames = n
	}
}

func (c *decodeConfig) full(n int) bool {
	return c.maxFrames > 0 && n >= c.maxFrames
}

var (
	gifMagic87 = []byte("GIF87a")
	gifMagic89 = []byte("GIF89a")
	ebmlMagic  = []byte{0x1a, 0x45, 0xdf, 0xa3}
)

// Sniff inspects the leading bytes of data and picks the variant that
// should decode it. GIFs with more than one frame are animated; MP4, MOV,
// AVI and Matroska/WebM signatures are video; anything else is treated as
// a still image.
func Sniff(data []byte) Kind {
	switch {
	case bytes.HasPrefix(data, gifMagic87) || bytes.HasPrefix(data, gifMagic89):
		if countGIFFrames(data) > 1 {
			return KindAnimated
		}
		return KindStill
	case len(data) >= 12 && isISOBMFF(data[4:8]):
		return KindVideo
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("AVI ")):
		return KindVideo
	case bytes.HasPrefix(data, ebmlMagic):
		return KindVideo
	}
	return KindStill
}

func isISOBMFF(box []byte) bool {
	switch string(box) {
	case "ftyp", "moov", "mdat", "wide", "free":
		return true
	}
	return false
}

// videoExt picks a file extension OpenCV's demuxer probing is happy with.
func videoExt(data []byte) string {
	switch {
	case len(data) >= 12 && bytes.Equal(data[8:12], []byte("AVI ")):
		return ".avi"
	case bytes.HasPrefix(data, ebmlMagic):
		return ".mkv"
	case len(data) >= 12 && bytes.Equal(data[8:10], []byte("qt")):
		return ".mov"
	}
	return ".mp4"
}

// Decode turns raw bytes into a Sequence using the decoder for kind.
// Partial decodes of animated input are a normal result; a container that
// cannot be opened at all fails with a DecodeError.
func Decode(kind Kind, data []byte, opts ...DecodeOption) (*Sequence, error) {
	cfg := &decodeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.maxFrames < 0 {
		return nil, configErrorf("max frames", "must not be negative, got %d", cfg.maxFrames)
	}
	if len(data) == 0 {
		return nil, &DecodeError{Kind: kind, Err: fmt.Errorf("no data")}
	}

	switch kind {
	case KindStill:
		return decodeStill(data)
	case KindAnimated:
		return decodeAnimated(data, cfg)
	case KindVideo:
		return decodeVideo(data, cfg)
	}
	return nil, configErrorf("kind", "unknown media kind %d", int(kind))
}

// DecodeAuto sniffs data and decodes it.
func DecodeAuto(data []byte, opts ...DecodeOption) (*Sequence, error) {
	return Decode(Sniff(data), data, opts...)
}

func decodeStill(data []byte) (*Sequence, error) {
	img, _, err := imageutil.Decode(data)
	if err != nil {
		return nil, &DecodeError{Kind: KindStill, Err: err}
	}
	return &Sequence{
		Kind:   KindStill,
		Frames: []Frame{{Image: img}},
	}, nil
}

// normalizeFrameRate replaces zero, negative and non-finite rates with
// DefaultFrameRate.
func normalizeFrameRate(fps float64) float64 {
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 {
		return DefaultFrameRate
	}
	return fps
}
