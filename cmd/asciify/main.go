package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alexflint/go-arg"
	"golang.org/x/term"

	"github.com/wbrown/img2ascii"
	"github.com/wbrown/img2ascii/imageutil"
)

type Cli struct {
	Input     string   `arg:"positional,required" help:"image, GIF or video to convert (- reads stdin)"`
	Output    string   `arg:"-o,--output" help:"output file; the extension picks the format (.txt .json .png .gif .mp4), stdout if empty"`
	Width     int      `arg:"-w,--width" help:"grid columns (default: terminal width, or 120)"`
	Height    int      `arg:"--height" help:"grid rows"`
	MaxWidth  int      `arg:"--max-width" help:"fit inside this many columns (with --max-height)"`
	MaxHeight int      `arg:"--max-height" help:"fit inside this many rows (with --max-width)"`
	Aspect    float64  `arg:"--aspect" help:"character cell height/width ratio" default:"2.2"`
	Ramp      string   `arg:"-r,--ramp" help:"built-in ramp: standard, simple or blocks" default:"standard"`
	Chars     string   `arg:"--chars" help:"custom ramp, brightest glyph first (overrides --ramp)"`
	Invert    bool     `arg:"-i,--invert" help:"invert brightness for light text on dark terminals"`
	Sharpen   bool     `arg:"--sharpen" help:"sharpen after resampling"`
	Edges     bool     `arg:"-e,--edges" help:"draw line glyphs along detected edges"`
	Resampler string   `arg:"--resampler" help:"lanczos, catmullrom or box" default:"lanczos"`
	FontSize  float64  `arg:"--font-size" help:"glyph size in points for raster output" default:"10"`
	Font      []string `arg:"--font,separate" help:"TrueType font to try before the system fonts"`
	Fg        string   `arg:"--fg" help:"glyph color" default:"#c8c8c8"`
	Bg        string   `arg:"--bg" help:"background color" default:"#000000"`
	Delay     int      `arg:"--delay" help:"GIF frame delay in milliseconds" default:"100"`
	Workers   int      `arg:"-j,--workers" help:"frames converted at once (0 = GOMAXPROCS)"`
	MaxFrames int      `arg:"--max-frames" help:"stop after this many frames (0 = all)"`
	Verbose   bool     `arg:"-v,--verbose" help:"print timings to stderr"`
}

func (Cli) Description() string {
	return "asciify converts images, animated GIFs and video into ASCII art"
}

func main() {
	var args Cli
	p := arg.MustParse(&args)

	if err := run(&args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if isUsageError(err) {
			p.WriteUsage(os.Stderr)
		}
		os.Exit(1)
	}
}

func run(args *Cli) error {
	begin := time.Now()

	format, err := img2ascii.ParseFormat(args.Output)
	if err != nil {
		return err
	}
	pipeline, err := buildPipeline(args, format)
	if err != nil {
		return err
	}

	data, err := readInput(args.Input)
	if err != nil {
		return err
	}

	scratch, err := img2ascii.NewScratch("")
	if err != nil {
		return err
	}
	defer scratch.Close()

	conv, err := pipeline.Convert(data, scratch)
	if err != nil {
		return err
	}
	endConversion := time.Now()

	var (
		out   []byte
		saved bool
	)
	switch format {
	case img2ascii.FormatText:
		out = []byte(conv.Text() + "\n")
	case img2ascii.FormatJSON:
		out, err = marshalDocument(conv)
	case img2ascii.FormatPNG:
		if args.Output != "" {
			saved, err = true, savePNG(pipeline, conv, args.Output)
			break
		}
		fallthrough
	default:
		var rendering *img2ascii.Rendering
		rendering, err = pipeline.RenderConversion(conv, format, scratch)
		if rendering != nil {
			out = rendering.Data
		}
	}
	if err != nil {
		return err
	}

	if args.Output == "" {
		if _, err := os.Stdout.Write(out); err != nil {
			return err
		}
	} else {
		if !saved {
			if err := os.WriteFile(args.Output, out, 0644); err != nil {
				return fmt.Errorf("error writing to file: %w", err)
			}
		}
		fmt.Fprintf(os.Stderr, "%s output written to %s\n", format, args.Output)
	}

	if args.Verbose {
		first := conv.Results[0].Grid
		fmt.Fprintf(os.Stderr, "Source: %s, %d frame(s), %.2f fps\n",
			conv.Kind, len(conv.Results), conv.FrameRate)
		fmt.Fprintf(os.Stderr, "Grid: %dx%d, ramp %s\n",
			first.Width, first.Height, pipeline.Sampler.Ramp.Name())
		if pipeline.Rasterizer != nil {
			w, h := pipeline.Rasterizer.CellSize()
			fmt.Fprintf(os.Stderr, "Font: %s, cell %dx%d\n", pipeline.Rasterizer.FontName(), w, h)
		}
		fmt.Fprintf(os.Stderr, "Conversion time: %v\n", endConversion.Sub(begin))
		fmt.Fprintf(os.Stderr, "Total time: %v\n", time.Since(begin))
	}
	return nil
}

func buildPipeline(args *Cli, format img2ascii.Format) (*img2ascii.Pipeline, error) {
	ramp, err := img2ascii.LookupRamp(args.Ramp)
	if args.Chars != "" {
		ramp, err = img2ascii.NewRamp(args.Chars)
	}
	if err != nil {
		return nil, err
	}
	resampler, err := imageutil.ParseResampler(args.Resampler)
	if err != nil {
		return nil, err
	}

	opts := []img2ascii.SamplerOption{
		img2ascii.WithCellAspect(args.Aspect),
		img2ascii.WithRamp(ramp),
		img2ascii.WithResampler(resampler),
		img2ascii.WithInvert(args.Invert),
		img2ascii.WithSharpen(args.Sharpen),
		img2ascii.WithEdges(args.Edges),
	}
	// Zero means "not given"; negative values reach the sampler and fail.
	if args.MaxWidth != 0 || args.MaxHeight != 0 {
		opts = append(opts, img2ascii.WithBounds(args.MaxWidth, args.MaxHeight))
	}
	if args.Width != 0 {
		opts = append(opts, img2ascii.WithWidth(args.Width))
	}
	if args.Height != 0 {
		opts = append(opts, img2ascii.WithHeight(args.Height))
	}
	if args.Width == 0 && args.Height == 0 && args.MaxWidth == 0 && args.MaxHeight == 0 {
		opts = append(opts, img2ascii.WithWidth(defaultWidth(args.Output)))
	}
	sampler, err := img2ascii.NewSampler(opts...)
	if err != nil {
		return nil, err
	}

	pipeline := &img2ascii.Pipeline{
		Sampler:   sampler,
		Workers:   args.Workers,
		MaxFrames: args.MaxFrames,
	}
	if format == img2ascii.FormatText || format == img2ascii.FormatJSON {
		return pipeline, nil
	}

	fg, err := imageutil.ParseRGB(args.Fg)
	if err != nil {
		return nil, fmt.Errorf("--fg: %w", err)
	}
	bg, err := imageutil.ParseRGB(args.Bg)
	if err != nil {
		return nil, fmt.Errorf("--bg: %w", err)
	}
	pipeline.Rasterizer, err = img2ascii.NewRasterizer(
		img2ascii.WithFontSize(args.FontSize),
		img2ascii.WithFonts(args.Font...),
		img2ascii.WithColors(fg, bg),
	)
	if err != nil {
		return nil, err
	}
	pipeline.Assembler = img2ascii.NewAssembler(pipeline.Rasterizer,
		img2ascii.WithDelay(time.Duration(args.Delay)*time.Millisecond))
	return pipeline, nil
}

// defaultWidth fills the terminal when printing to one.
func defaultWidth(output string) int {
	if output == "" && term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return img2ascii.DefaultWidth
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
