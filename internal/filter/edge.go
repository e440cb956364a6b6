package filter

import (
	"image"
	"math"
)

// EdgeMap holds per-pixel gradient magnitude and direction from a Sobel pass.
// Angle is in degrees, in (-180, 180].
type EdgeMap struct {
	Width     int
	Height    int
	Magnitude []float64
	Angle     []float64
}

// At returns the magnitude and angle at (x, y).
func (e *EdgeMap) At(x, y int) (float64, float64) {
	i := y*e.Width + x
	return e.Magnitude[i], e.Angle[i]
}

var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// Sobel computes the gradient magnitude and angle of the grayscale intensity
// of img using the standard 3x3 Sobel kernels. The one-pixel border is left
// at zero magnitude.
func Sobel(img *image.NRGBA) *EdgeMap {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			gray[y*w+x] = float64(Luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2]))
		}
	}

	edges := &EdgeMap{
		Width:     w,
		Height:    h,
		Magnitude: make([]float64, w*h),
		Angle:     make([]float64, w*h),
	}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := gray[(y+ky)*w+(x+kx)]
					gx += sobelX[ky+1][kx+1] * v
					gy += sobelY[ky+1][kx+1] * v
				}
			}
			i := y*w + x
			edges.Magnitude[i] = math.Sqrt(gx*gx + gy*gy)
			edges.Angle[i] = math.Atan2(gy, gx) * 180 / math.Pi
		}
	}
	return edges
}
