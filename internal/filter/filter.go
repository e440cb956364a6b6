// Package filter provides stateless pixel transforms over NRGBA buffers.
// Every function returns a freshly allocated image and never retains or
// aliases its input, so independent pipeline runs can share nothing.
package filter

import (
	"image"
	"math"
	"sort"
)

// Luma returns the BT.601 luma of an RGB triple.
func Luma(r, g, b uint8) uint8 {
	return uint8(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
}

// Clone returns a deep copy of img.
func Clone(img *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	return out
}

// Grayscale converts img to grayscale using BT.601 weighting, writing the
// luma value to all three color channels. Alpha is passed through unchanged.
func Grayscale(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for i := 0; i < len(img.Pix); i += 4 {
		gray := Luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
		out.Pix[i] = gray
		out.Pix[i+1] = gray
		out.Pix[i+2] = gray
		out.Pix[i+3] = img.Pix[i+3]
	}
	return out
}

// gaussianKernel builds a normalized 1-D Gaussian kernel with radius ceil(3σ).
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// GaussianBlur applies a separable Gaussian blur with the given sigma, a
// horizontal pass followed by a vertical pass. Taps that fall outside the
// image are skipped and the remaining weights renormalized, so border pixels
// average over fewer samples. Alpha is passed through unchanged.
func GaussianBlur(img *image.NRGBA, sigma float64) *image.NRGBA {
	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2

	horizontal := convolve1D(img, kernel, radius, true)
	return convolve1D(horizontal, kernel, radius, false)
}

func convolve1D(img *image.NRGBA, kernel []float64, radius int, horizontal bool) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var rSum, gSum, bSum, wSum float64
			for k := -radius; k <= radius; k++ {
				sx, sy := x, y
				if horizontal {
					sx += k
				} else {
					sy += k
				}
				if sx < 0 || sx >= w || sy < 0 || sy >= h {
					continue
				}
				weight := kernel[k+radius]
				i := img.PixOffset(b.Min.X+sx, b.Min.Y+sy)
				rSum += weight * float64(img.Pix[i])
				gSum += weight * float64(img.Pix[i+1])
				bSum += weight * float64(img.Pix[i+2])
				wSum += weight
			}
			i := out.PixOffset(b.Min.X+x, b.Min.Y+y)
			out.Pix[i] = uint8(rSum/wSum + 0.5)
			out.Pix[i+1] = uint8(gSum/wSum + 0.5)
			out.Pix[i+2] = uint8(bSum/wSum + 0.5)
			out.Pix[i+3] = img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y)+3]
		}
	}
	return out
}

// Median applies a square median filter of odd window size to each color
// channel independently. The window is clipped at the image border, so edge
// pixels take the median of the in-bounds samples. Alpha is passed through.
func Median(img *image.NRGBA, size int) *image.NRGBA {
	if size%2 == 0 {
		size++
	}
	radius := size / 2
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(b)

	window := make([][3]uint8, 0, size*size)
	channel := make([]int, 0, size*size)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					sx, sy := x+dx, y+dy
					if sx < 0 || sx >= w || sy < 0 || sy >= h {
						continue
					}
					i := img.PixOffset(b.Min.X+sx, b.Min.Y+sy)
					window = append(window, [3]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2]})
				}
			}
			i := out.PixOffset(b.Min.X+x, b.Min.Y+y)
			for c := 0; c < 3; c++ {
				channel = channel[:0]
				for _, s := range window {
					channel = append(channel, int(s[c]))
				}
				sort.Ints(channel)
				out.Pix[i+c] = uint8(channel[len(channel)/2])
			}
			out.Pix[i+3] = img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y)+3]
		}
	}
	return out
}
