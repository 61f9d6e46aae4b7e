package img2ascii

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"
	"time"
)

const (
	gifExtension      = 0x21
	gifImageSeparator = 0x2c
	gifTrailer        = 0x3b
	gifGraphicControl = 0xf9

	// Browsers treat delays of 0 or 1 centisecond as 10; so do we when
	// reconstructing a frame rate.
	minGIFDelay = 20 * time.Millisecond
	gifFallback = 100 * time.Millisecond
)

// gifBlock locates one frame inside a GIF stream: the graphic control
// extension that applies to it (if any) and the image descriptor through
// the end of its LZW data.
type gifBlock struct {
	control []byte
	start   int
	end     int
}

// gifScanner walks the block structure of a GIF stream without decoding
// pixel data, so each frame can be decoded on its own and a damaged frame
// only ends the sequence instead of losing it.
type gifScanner struct {
	data   []byte
	pos    int
	header []byte
	width  int
	height int
}

func newGIFScanner(data []byte) (*gifScanner, error) {
	if len(data) < 13 {
		return nil, errors.New("gif: header truncated")
	}
	if !bytes.HasPrefix(data, gifMagic87) && !bytes.HasPrefix(data, gifMagic89) {
		return nil, errors.New("gif: bad signature")
	}
	s := &gifScanner{
		data:   data,
		width:  int(data[6]) | int(data[7])<<8,
		height: int(data[8]) | int(data[9])<<8,
	}
	end := 13 + colorTableSize(data[10])
	if end > len(data) {
		return nil, errors.New("gif: global color table truncated")
	}
	s.header = data[:end]
	s.pos = end
	return s, nil
}

// colorTableSize returns the byte size of the color table announced by a
// packed field, or zero when the table flag is clear.
func colorTableSize(packed byte) int {
	if packed&0x80 == 0 {
		return 0
	}
	return 3 << ((packed & 0x07) + 1)
}

// next returns the next frame block. It returns io.EOF at the trailer or
// at the end of the data, and any other error for a malformed block.
func (s *gifScanner) next() (gifBlock, error) {
	var control []byte
	for {
		if s.pos >= len(s.data) {
			return gifBlock{}, io.EOF
		}
		switch s.data[s.pos] {
		case gifTrailer:
			return gifBlock{}, io.EOF
		case gifExtension:
			if s.pos+1 >= len(s.data) {
				return gifBlock{}, io.ErrUnexpectedEOF
			}
			end, err := s.skipSubBlocks(s.pos + 2)
			if err != nil {
				return gifBlock{}, err
			}
			if s.data[s.pos+1] == gifGraphicControl {
				control = s.data[s.pos:end]
			}
			s.pos = end
		case gifImageSeparator:
			start := s.pos
			if start+10 > len(s.data) {
				return gifBlock{}, io.ErrUnexpectedEOF
			}
			lzw := start + 10 + colorTableSize(s.data[start+9])
			if lzw >= len(s.data) {
				return gifBlock{}, io.ErrUnexpectedEOF
			}
			end, err := s.skipSubBlocks(lzw + 1)
			if err != nil {
				return gifBlock{}, err
			}
			s.pos = end
			return gifBlock{control: control, start: start, end: end}, nil
		default:
			return gifBlock{}, fmt.Errorf("gif: unexpected block 0x%02x at offset %d", s.data[s.pos], s.pos)
		}
	}
}

// skipSubBlocks returns the offset just past the zero-length terminator
// of the sub-block chain starting at pos.
func (s *gifScanner) skipSubBlocks(pos int) (int, error) {
	for {
		if pos >= len(s.data) {
			return 0, io.ErrUnexpectedEOF
		}
		n := int(s.data[pos])
		pos++
		if n == 0 {
			return pos, nil
		}
		pos += n
	}
}

// decode decodes a single frame by wrapping it in a minimal GIF stream
// that shares the original header and global color table.
func (s *gifScanner) decode(b gifBlock) (*image.Paletted, time.Duration, byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(s.header) + len(b.control) + b.end - b.start + 1)
	buf.Write(s.header)
	buf.Write(b.control)
	buf.Write(s.data[b.start:b.end])
	buf.WriteByte(gifTrailer)

	g, err := gif.DecodeAll(&buf)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(g.Image) == 0 {
		return nil, 0, 0, errors.New("gif: frame has no image")
	}
	return g.Image[0], time.Duration(g.Delay[0]) * 10 * time.Millisecond, g.Disposal[0], nil
}

// countGIFFrames counts structurally complete frames without decoding.
func countGIFFrames(data []byte) int {
	s, err := newGIFScanner(data)
	if err != nil {
		return 0
	}
	n := 0
	for {
		if _, err := s.next(); err != nil {
			return n
		}
		n++
	}
}

// decodeAnimated decodes every frame of a GIF in container order and
// composites it onto the logical screen, honoring disposal methods.
// Decoding stops at the first frame that cannot be read; frames decoded
// before it are kept. With no frames at all the whole container is
// decoded as a still image.
func decodeAnimated(data []byte, cfg *decodeConfig) (*Sequence, error) {
	s, err := newGIFScanner(data)
	if err != nil {
		return fallbackStill(data, err)
	}

	var (
		frames []Frame
		canvas *image.RGBA
	)
	for !cfg.full(len(frames)) {
		block, err := s.next()
		if err != nil {
			break
		}
		img, delay, disposal, err := s.decode(block)
		if err != nil {
			break
		}

		if canvas == nil {
			screen := image.Rect(0, 0, s.width, s.height)
			if screen.Empty() {
				screen = image.Rect(0, 0, img.Bounds().Max.X, img.Bounds().Max.Y)
			}
			canvas = image.NewRGBA(screen)
		}

		var previous *image.RGBA
		if disposal == gif.DisposalPrevious {
			previous = cloneRGBA(canvas)
		}
		draw.Draw(canvas, img.Bounds(), img, img.Bounds().Min, draw.Over)
		frames = append(frames, Frame{
			Image: cloneRGBA(canvas),
			Delay: delay,
			Index: len(frames),
		})

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, img.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}

	if len(frames) == 0 {
		return fallbackStill(data, errors.New("gif: first frame unreadable"))
	}
	return &Sequence{
		Kind:      KindAnimated,
		Frames:    frames,
		FrameRate: frameRateFromDelays(frames),
	}, nil
}

// fallbackStill decodes the whole container as one image after the
// animated path produced nothing.
func fallbackStill(data []byte, cause error) (*Sequence, error) {
	seq, err := decodeStill(data)
	if err != nil {
		return nil, &DecodeError{Kind: KindAnimated, Err: errors.Join(cause, err)}
	}
	return seq, nil
}

// frameRateFromDelays reconstructs a frame rate from the mean frame
// delay. Delays below 20ms are counted as 100ms, the way browsers play
// them.
func frameRateFromDelays(frames []Frame) float64 {
	var total time.Duration
	for _, f := range frames {
		d := f.Delay
		if d < minGIFDelay {
			d = gifFallback
		}
		total += d
	}
	mean := total / time.Duration(len(frames))
	return float64(time.Second) / float64(mean)
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
