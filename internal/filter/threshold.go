package filter

import "image"

// EqualizeHistogram remaps the grayscale intensity of img through its
// normalized cumulative distribution, stretching contrast across the full
// 0-255 range. The remapped value is written to all three color channels, so
// the output is grayscale regardless of the input. Alpha is passed through.
func EqualizeHistogram(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	total := w * h
	out := image.NewNRGBA(b)
	if total == 0 {
		return out
	}

	var hist [256]int
	for i := 0; i < len(img.Pix); i += 4 {
		hist[Luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2])]++
	}

	var lut [256]uint8
	cumulative := 0
	for v := 0; v < 256; v++ {
		cumulative += hist[v]
		lut[v] = uint8(float64(cumulative) / float64(total) * 255)
	}

	for i := 0; i < len(img.Pix); i += 4 {
		mapped := lut[Luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2])]
		out.Pix[i] = mapped
		out.Pix[i+1] = mapped
		out.Pix[i+2] = mapped
		out.Pix[i+3] = img.Pix[i+3]
	}
	return out
}

// AdaptiveThreshold binarizes img to pure black and white using a per-pixel
// threshold of localMean - c over a (2*radius+1) square neighborhood clipped
// at the border. The neighborhood sum is computed brute force, O(w*h*radius²);
// fine for receipt-sized images, a known ceiling for very large ones.
func AdaptiveThreshold(img *image.NRGBA, radius int, c float64) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			gray[y*w+x] = float64(Luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2]))
		}
	}

	out := image.NewNRGBA(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			count := 0
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					sx, sy := x+dx, y+dy
					if sx < 0 || sx >= w || sy < 0 || sy >= h {
						continue
					}
					sum += gray[sy*w+sx]
					count++
				}
			}
			threshold := sum/float64(count) - c
			var v uint8
			if gray[y*w+x] > threshold {
				v = 255
			}
			i := out.PixOffset(b.Min.X+x, b.Min.Y+y)
			out.Pix[i] = v
			out.Pix[i+1] = v
			out.Pix[i+2] = v
			out.Pix[i+3] = img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y)+3]
		}
	}
	return out
}
