package imageutil

import "math"

// Gradient holds the Sobel derivatives of a luminance plane in row-major
// order.
type Gradient struct {
	Width, Height int
	DX, DY        []float64
}

// Magnitude returns the gradient magnitude at index i.
func (g *Gradient) Magnitude(i int) float64 {
	return math.Hypot(g.DX[i], g.DY[i])
}

// GaussianKernel returns the 3x3 binomial blur used before edge detection.
func GaussianKernel() *Kernel {
	return NewKernel([][]float64{
		{1.0 / 16, 2.0 / 16, 1.0 / 16},
		{2.0 / 16, 4.0 / 16, 2.0 / 16},
		{1.0 / 16, 2.0 / 16, 1.0 / 16},
	})
}

// Sobel computes horizontal and vertical Sobel derivatives, replicating
// border pixels.
func Sobel(img *GrayImage) *Gradient {
	width, height := img.Width(), img.Height()
	g := &Gradient{
		Width:  width,
		Height: height,
		DX:     make([]float64, width*height),
		DY:     make([]float64, width*height),
	}
	at := func(x, y int) float64 {
		return float64(img.GetGray(clampInt(x, 0, width-1), clampInt(y, 0, height-1)))
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			tl, t, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			l, r := at(x-1, y), at(x+1, y)
			bl, b, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)
			i := y*width + x
			g.DX[i] = (tr + 2*r + br) - (tl + 2*l + bl)
			g.DY[i] = (bl + 2*b + br) - (tl + 2*t + tr)
		}
	}
	return g
}

// Canny runs Canny edge detection: blur, Sobel, non-maximum suppression,
// double threshold and hysteresis. Edge pixels are 255 in the returned
// mask, everything else 0. The gradient of the blurred plane is returned
// alongside so callers can read edge orientation.
func Canny(gray *GrayImage, low, high float64) (*GrayImage, *Gradient) {
	grad := Sobel(ConvolveGray(gray, GaussianKernel()))
	width, height := grad.Width, grad.Height

	mag := make([]float64, width*height)
	for i := range mag {
		mag[i] = grad.Magnitude(i)
	}

	// Non-maximum suppression along the quantized gradient direction.
	thin := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			dx, dy := neighborStep(grad.DX[i], grad.DY[i])
			a := mag[(y+dy)*width+x+dx]
			b := mag[(y-dy)*width+x-dx]
			if mag[i] >= a && mag[i] >= b {
				thin[i] = mag[i]
			}
		}
	}

	// Strong pixels seed the mask; weak pixels join when they touch it.
	edges := NewGrayImage(width, height)
	stack := make([]int, 0, 64)
	for i, v := range thin {
		if v >= high {
			edges.Pix[i] = 255
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		for ny := max(y-1, 0); ny <= min(y+1, height-1); ny++ {
			for nx := max(x-1, 0); nx <= min(x+1, width-1); nx++ {
				j := ny*width + nx
				if edges.Pix[j] == 0 && thin[j] >= low {
					edges.Pix[j] = 255
					stack = append(stack, j)
				}
			}
		}
	}
	return edges, grad
}

// CannyDefault runs Canny with thresholds 50 and 150.
func CannyDefault(gray *GrayImage) (*GrayImage, *Gradient) {
	return Canny(gray, 50, 150)
}

// neighborStep quantizes a gradient direction to one of four neighbor
// offsets: horizontal, the two diagonals and vertical.
func neighborStep(gx, gy float64) (dx, dy int) {
	angle := math.Atan2(gy, gx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return 1, 0
	case angle < 67.5:
		return 1, 1
	case angle < 112.5:
		return 0, 1
	}
	return -1, 1
}
