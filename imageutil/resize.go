package imageutil

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/gift"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// Resampler selects the antialiasing filter used to shrink a luminance
// plane down to glyph-grid resolution.
type Resampler int

const (
	// ResampleLanczos uses a Lanczos3 kernel. This is the default and
	// matches the filter the original web service used.
	ResampleLanczos Resampler = iota

	// ResampleCatmullRom uses the Catmull-Rom cubic from x/image/draw.
	ResampleCatmullRom

	// ResampleBox averages every source pixel covered by a destination
	// pixel. Softest result, best for tiny grids.
	ResampleBox
)

var resamplerNames = map[Resampler]string{
	ResampleLanczos:    "lanczos",
	ResampleCatmullRom: "catmullrom",
	ResampleBox:        "box",
}

// String returns the lower-case name accepted by ParseResampler.
func (r Resampler) String() string {
	if name, ok := resamplerNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Resampler(%d)", int(r))
}

// ParseResampler maps a name such as "lanczos" to a Resampler.
func ParseResampler(name string) (Resampler, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for r, n := range resamplerNames {
		if n == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown resampler %q", name)
}

// ResizeGray resizes a luminance plane to exactly width x height pixels.
func ResizeGray(img *GrayImage, width, height int, r Resampler) *GrayImage {
	if img.Width() == width && img.Height() == height {
		return img.Clone()
	}

	switch r {
	case ResampleCatmullRom:
		dst := NewGrayImage(width, height)
		draw.CatmullRom.Scale(dst.Gray, dst.Bounds(), img.Gray, img.Bounds(), draw.Src, nil)
		return dst
	case ResampleBox:
		g := gift.New(gift.Resize(width, height, gift.BoxResampling))
		dst := NewGrayImage(width, height)
		g.Draw(dst.Gray, img.Gray)
		return dst
	default:
		out := resize.Resize(uint(width), uint(height), img.Gray, resize.Lanczos3)
		if gray, ok := out.(*image.Gray); ok && gray.Bounds().Min == (image.Point{}) {
			return &GrayImage{Gray: gray}
		}
		return ToGrayscale(out)
	}
}
