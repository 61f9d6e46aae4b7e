package img2ascii

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// StandardRamp is the 70 glyph ramp used by the original web service,
	// sparsest first.
	StandardRamp = " .'`^\",:;Il!i><~+_-?][}{1)(|\\/tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$"

	// SimpleRamp is a short ramp that stays legible at small sizes.
	SimpleRamp = " .:-=+*#%@"

	// BlockRamp uses the Unicode shade blocks.
	BlockRamp = " ░▒▓█"
)

var builtinRamps = map[string]string{
	"standard": StandardRamp,
	"simple":   SimpleRamp,
	"blocks":   BlockRamp,
}

// Ramp is an ordered glyph palette. Brightness b selects index
// floor((255 - b) / 256 * N), so white selects index 0 and black selects
// index N-1. The built-in ramps list the sparsest glyph first, which makes
// dark pixels dense glyphs. A Ramp is immutable and safe for concurrent
// use.
type Ramp struct {
	name   string
	glyphs []rune
}

// NewRamp builds a ramp from glyphs, brightest bucket first. It rejects empty
// ramps, duplicate glyphs and non-printable characters.
func NewRamp(glyphs string) (*Ramp, error) {
	if !utf8.ValidString(glyphs) {
		return nil, configErrorf("ramp", "not valid UTF-8")
	}
	runes := []rune(glyphs)
	if len(runes) == 0 {
		return nil, configErrorf("ramp", "must contain at least one glyph")
	}
	seen := make(map[rune]bool, len(runes))
	for _, r := range runes {
		if r != ' ' && !unicode.IsPrint(r) {
			return nil, configErrorf("ramp", "glyph %U is not printable", r)
		}
		if seen[r] {
			return nil, configErrorf("ramp", "duplicate glyph %q", r)
		}
		seen[r] = true
	}
	return &Ramp{name: "custom", glyphs: runes}, nil
}

// MustRamp is like NewRamp but panics on error. Intended for package level
// variables.
func MustRamp(glyphs string) *Ramp {
	r, err := NewRamp(glyphs)
	if err != nil {
		panic(err)
	}
	return r
}

// LookupRamp returns a built-in ramp by name ("standard", "simple",
// "blocks").
func LookupRamp(name string) (*Ramp, error) {
	glyphs, ok := builtinRamps[strings.ToLower(name)]
	if !ok {
		return nil, configErrorf("ramp", "unknown ramp %q (have %s)",
			name, strings.Join(RampNames(), ", "))
	}
	r := MustRamp(glyphs)
	r.name = strings.ToLower(name)
	return r, nil
}

// RampNames lists the built-in ramp names in sorted order.
func RampNames() []string {
	names := make([]string, 0, len(builtinRamps))
	for name := range builtinRamps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRamp returns the standard ramp.
func DefaultRamp() *Ramp {
	r, _ := LookupRamp("standard")
	return r
}

// Index returns the ramp index for a brightness value:
// clamp(floor((255 - b) / 256 * N), 0, N-1).
func (r *Ramp) Index(brightness uint8) int {
	n := len(r.glyphs)
	idx := (255 - int(brightness)) * n / 256
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// Glyph maps a brightness value in [0, 255] to its glyph.
func (r *Ramp) Glyph(brightness uint8) rune {
	return r.glyphs[r.Index(brightness)]
}

// At returns the glyph at index i.
func (r *Ramp) At(i int) rune {
	return r.glyphs[i]
}

// Len returns the number of glyphs.
func (r *Ramp) Len() int {
	return len(r.glyphs)
}

// Empty returns the glyph of the brightest bucket, index 0.
func (r *Ramp) Empty() rune {
	return r.glyphs[0]
}

// Dense returns the glyph of the darkest bucket, index N-1.
func (r *Ramp) Dense() rune {
	return r.glyphs[len(r.glyphs)-1]
}

// Name returns the built-in name, or "custom".
func (r *Ramp) Name() string {
	return r.name
}

func (r *Ramp) String() string {
	return fmt.Sprintf("%s(%q)", r.name, string(r.glyphs))
}
