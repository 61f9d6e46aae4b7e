// Package img2ascii converts still images, animated GIFs and video into
// glyph grids and renders grids back into PNG, GIF and MP4 output.
package img2ascii

import (
	"bytes"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wbrown/img2ascii/imageutil"
)

// Format is an output representation.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatPNG
	FormatGIF
	FormatMP4
)

var formatNames = map[Format]string{
	FormatText: "text",
	FormatJSON: "json",
	FormatPNG:  "png",
	FormatGIF:  "gif",
	FormatMP4:  "mp4",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatPNG:
		return "image/png"
	case FormatGIF:
		return "image/gif"
	case FormatMP4:
		return "video/mp4"
	}
	return "text/plain; charset=utf-8"
}

// ParseFormat accepts a format name ("gif") or a file name ("out.gif").
// Unknown extensions, including ".txt" and ".ans", select text.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimPrefix(ext, ".")
	}
	switch name {
	case "", "text", "txt", "ans", "asc":
		return FormatText, nil
	case "video", "mov":
		return FormatMP4, nil
	}
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return 0, configErrorf("format", "unknown output format %q", s)
}

// Conversion is the glyph result of one input: the grids in sequence
// order plus the source's kind and frame rate.
type Conversion struct {
	Kind      Kind
	Results   []Result
	FrameRate float64
}

// Document is the JSON shape returned to clients.
type Document struct {
	ASCII     string  `json:"ascii"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Frames    int     `json:"frames"`
	FrameRate float64 `json:"frame_rate,omitempty"`
}

// Text joins every grid with FrameSeparator.
func (c *Conversion) Text() string {
	parts := make([]string, len(c.Results))
	for i, r := range c.Results {
		parts[i] = r.Grid.String()
	}
	return strings.Join(parts, FrameSeparator)
}

// Document reports the text together with the size of the first grid.
func (c *Conversion) Document() Document {
	first := c.Results[0].Grid
	return Document{
		ASCII:     c.Text(),
		Width:     first.Width,
		Height:    first.Height,
		Frames:    len(c.Results),
		FrameRate: c.FrameRate,
	}
}

// Rendering is an encoded raster, animation or video.
type Rendering struct {
	Format    Format
	Data      []byte
	Frames    int
	FrameRate float64
}

// Pipeline chains the Frame Source, Batch Converter, Rasterizer and
// Assembler. Every field except Sampler may be left zero; Rasterizer and
// Assembler are only needed for raster output.
type Pipeline struct {
	Sampler    *Sampler
	Rasterizer *Rasterizer
	Assembler  *Assembler
	Workers    int
	MaxFrames  int
}

func (p *Pipeline) workers() int {
	if p.Workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return p.Workers
}

// Frames decodes data. The scratch area is only used for video input and
// remains owned by the caller.
func (p *Pipeline) Frames(data []byte, scratch *Scratch) (*Sequence, error) {
	return DecodeAuto(data, WithScratch(scratch), WithMaxFrames(p.MaxFrames))
}

// Convert decodes data and samples every frame.
func (p *Pipeline) Convert(data []byte, scratch *Scratch) (*Conversion, error) {
	if p.Sampler == nil {
		return nil, configErrorf("sampler", "conversion needs a sampler")
	}
	seq, err := p.Frames(data, scratch)
	if err != nil {
		return nil, err
	}
	results, err := NewBatchConverter(p.Sampler, WithWorkers(p.workers())).Convert(seq)
	if err != nil {
		return nil, err
	}
	return &Conversion{Kind: seq.Kind, Results: results, FrameRate: seq.FrameRate}, nil
}

// RasterizeAll draws every result, concurrently, keeping sequence order.
func (p *Pipeline) RasterizeAll(results []Result) ([]RasterFrame, error) {
	if p.Rasterizer == nil {
		return nil, configErrorf("rasterizer", "raster output needs a rasterizer")
	}
	if len(results) == 0 {
		return nil, &EmptyInputError{Stage: "rasterize"}
	}
	frames := make([]RasterFrame, len(results))
	var g errgroup.Group
	g.SetLimit(p.workers())
	for i, r := range results {
		g.Go(func() error {
			frames[i] = RasterFrame{
				Index:   r.Index,
				Columns: r.Grid.Width,
				Rows:    r.Grid.Height,
				Image:   p.Rasterizer.Rasterize(r.Grid),
			}
			return nil
		})
	}
	return frames, g.Wait()
}

// Render produces the requested format from data. Text and JSON formats
// are handled by Convert; Render covers PNG (first frame), GIF and MP4.
func (p *Pipeline) Render(data []byte, format Format, scratch *Scratch) (*Rendering, error) {
	conv, err := p.Convert(data, scratch)
	if err != nil {
		return nil, err
	}
	return p.RenderConversion(conv, format, scratch)
}

// RenderConversion rasterizes an existing conversion into format.
func (p *Pipeline) RenderConversion(conv *Conversion, format Format, scratch *Scratch) (*Rendering, error) {
	results := conv.Results
	if format == FormatPNG && len(results) > 1 {
		results = results[:1]
	}
	frames, err := p.RasterizeAll(results)
	if err != nil {
		return nil, err
	}

	out := &Rendering{Format: format, Frames: len(frames), FrameRate: conv.FrameRate}
	switch format {
	case FormatPNG:
		out.Data, err = imageutil.EncodePNG(frames[0].Image)
	case FormatGIF:
		a := p.assembler()
		var buf bytes.Buffer
		err = a.Animation(&buf, frames)
		out.Data = buf.Bytes()
		if a.Delay > 0 {
			out.FrameRate = float64(time.Second) / float64(a.Delay)
		}
	case FormatMP4:
		out.FrameRate = normalizeFrameRate(conv.FrameRate)
		out.Data, err = p.assembler().Video(frames, out.FrameRate, scratch)
	default:
		return nil, configErrorf("format", "%s is not a raster format", format)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) assembler() *Assembler {
	if p.Assembler != nil {
		return p.Assembler
	}
	return NewAssembler(p.Rasterizer)
}
