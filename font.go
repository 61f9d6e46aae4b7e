package img2ascii

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
)

// DefaultFontSize is the glyph size in points (pixels at 72 DPI).
const DefaultFontSize = 10.0

// SystemFontPaths are the monospace fonts tried before the embedded ones.
var SystemFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationMono-Regular.ttf",
}

// FontSource is one step of a font resolution chain.
type FontSource interface {
	// Name identifies the source in logs and errors.
	Name() string
	// Face opens the font at the given size.
	Face(size float64) (font.Face, error)
}

// TTFFile loads a font file from disk. Files ending in .otf are parsed as
// OpenType, which also covers CFF outlines freetype cannot read.
type TTFFile string

func (p TTFFile) Name() string { return string(p) }

func (p TTFFile) Face(size float64) (font.Face, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(string(p)), ".otf") {
		return OTFData{Label: string(p), Data: data}.Face(size)
	}
	return TTFData{Label: string(p), Data: data}.Face(size)
}

// TTFData parses a TrueType font held in memory.
type TTFData struct {
	Label string
	Data  []byte
}

func (d TTFData) Name() string { return d.Label }

func (d TTFData) Face(size float64) (font.Face, error) {
	ttf, err := freetype.ParseFont(d.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", d.Label, err)
	}
	return truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// OTFData parses an OpenType font held in memory.
type OTFData struct {
	Label string
	Data  []byte
}

func (d OTFData) Name() string { return d.Label }

func (d OTFData) Face(size float64) (font.Face, error) {
	otf, err := opentype.Parse(d.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", d.Label, err)
	}
	return opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// BuiltinFace is the embedded 7x13 bitmap face. It ignores the requested
// size and never fails, so it terminates every chain.
type BuiltinFace struct{}

func (BuiltinFace) Name() string { return "basicfont 7x13" }

func (BuiltinFace) Face(float64) (font.Face, error) {
	return basicfont.Face7x13, nil
}

// GoMono is the embedded Go Mono TrueType font.
var GoMono = TTFData{Label: "Go Mono", Data: gomono.TTF}

// FontChain returns the resolution order: the given paths, the system
// font paths, the embedded Go Mono font and finally the bitmap face.
func FontChain(paths ...string) []FontSource {
	chain := make([]FontSource, 0, len(paths)+len(SystemFontPaths)+2)
	for _, p := range paths {
		chain = append(chain, TTFFile(p))
	}
	for _, p := range SystemFontPaths {
		chain = append(chain, TTFFile(p))
	}
	return append(chain, GoMono, BuiltinFace{})
}

// ResolveFace tries each source in order and returns the first face that
// opens, with the name of its source. An empty chain resolves to the
// bitmap face. The error joins every failure and is only returned if the
// chain does not end in a source that always succeeds.
func ResolveFace(chain []FontSource, size float64) (font.Face, string, error) {
	if len(chain) == 0 {
		chain = []FontSource{BuiltinFace{}}
	}
	var errs []error
	for _, src := range chain {
		face, err := src.Face(size)
		if err == nil {
			return face, src.Name(), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}
	return nil, "", fmt.Errorf("no usable font: %w", errors.Join(errs...))
}
