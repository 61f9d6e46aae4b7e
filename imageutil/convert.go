package imageutil

import (
	"image"
	"image/color"
)

// Luminance returns the BT.601 luma of an 8-bit RGB triple:
// Y = 0.299*R + 0.587*G + 0.114*B, rounded to the nearest integer.
func Luminance(r, g, b uint8) uint8 {
	lum := (299*int(r) + 587*int(g) + 114*int(b) + 500) / 1000
	if lum > 255 {
		lum = 255
	}
	return uint8(lum)
}

// ToGrayscale reduces any image to a luminance plane anchored at the
// origin. Alpha is composited over white, so a fully transparent pixel
// reads as 255 and maps to the sparsest glyph.
func ToGrayscale(img image.Image) *GrayImage {
	if wrapped, ok := img.(*RGBAImage); ok {
		img = wrapped.RGBA
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	gray := NewGrayImage(width, height)

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < height; y++ {
			start := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(gray.Pix[y*gray.Stride:], src.Pix[start:start+width])
		}
	case *image.RGBA:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := src.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
				p := src.Pix[i : i+4 : i+4]
				gray.Pix[y*gray.Stride+x] = overWhite(p[0], p[1], p[2], p[3])
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := color.RGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.RGBA)
				gray.Pix[y*gray.Stride+x] = overWhite(c.R, c.G, c.B, c.A)
			}
		}
	}

	return gray
}

// overWhite returns the luminance of a premultiplied RGBA pixel drawn over
// a white background.
func overWhite(r, g, b, a uint8) uint8 {
	if a == 255 {
		return Luminance(r, g, b)
	}
	bg := 255 - a
	return Luminance(r+bg, g+bg, b+bg)
}

// Invert returns the photographic negative of a luminance plane.
func Invert(img *GrayImage) *GrayImage {
	dst := img.Clone()
	for i, v := range dst.Pix {
		dst.Pix[i] = 255 - v
	}
	return dst
}
