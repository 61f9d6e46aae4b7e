package imageutil

import (
	"image"
	"image/color"
)

// CreateGradientImage creates a horizontal gradient test image running
// from black on the left to white on the right.
func CreateGradientImage(width, height int) *RGBAImage {
	img := NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(255 * x / max(width-1, 1))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// CreateCheckerboardImage creates a black and white checkerboard.
func CreateCheckerboardImage(width, height, squareSize int) *RGBAImage {
	img := NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if ((x/squareSize)+(y/squareSize))%2 == 0 {
				img.SetRGBA(x, y, RGB{R: 255, G: 255, B: 255}.ToColor())
			} else {
				img.SetRGBA(x, y, RGB{}.ToColor())
			}
		}
	}
	return img
}

// CreateSolidImage creates a solid color image.
func CreateSolidImage(width, height int, c RGB) *RGBAImage {
	img := NewRGBAImage(width, height)
	img.Fill(c)
	return img
}

// CreatePalettedFrame creates a solid paletted image, handy for building
// GIF fixtures. The palette is black, white and mid gray.
func CreatePalettedFrame(width, height int, index uint8) *image.Paletted {
	pal := color.Palette{color.Black, color.White, color.Gray{Y: 128}}
	img := image.NewPaletted(image.Rect(0, 0, width, height), pal)
	for i := range img.Pix {
		img.Pix[i] = index
	}
	return img
}

// CalculateMaxDiff returns the largest per-channel difference between two
// images, or 256 when their sizes differ.
func CalculateMaxDiff(img1, img2 image.Image) int {
	b1, b2 := img1.Bounds(), img2.Bounds()
	if b1.Dx() != b2.Dx() || b1.Dy() != b2.Dy() {
		return 256
	}

	maxDiff := 0
	for y := 0; y < b1.Dy(); y++ {
		for x := 0; x < b1.Dx(); x++ {
			c1 := RGBFromColor(img1.At(b1.Min.X+x, b1.Min.Y+y))
			c2 := RGBFromColor(img2.At(b2.Min.X+x, b2.Min.Y+y))
			maxDiff = max(maxDiff,
				abs(int(c1.R)-int(c2.R)),
				abs(int(c1.G)-int(c2.G)),
				abs(int(c1.B)-int(c2.B)))
		}
	}

	return maxDiff
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
