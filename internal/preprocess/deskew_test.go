package preprocess

import (
	"image"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// verticalEdgeImage has its left half black and right half white: a single
// strong vertical edge whose Sobel gradient points along the x axis, so the
// dominant angle is exactly 0.
func verticalEdgeImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v uint8
			if x >= w/2 {
				v = 255
			}
			i := img.PixOffset(x, y)
			img.Pix[i] = v
			img.Pix[i+1] = v
			img.Pix[i+2] = v
			img.Pix[i+3] = 255
		}
	}
	return img
}

var _ = Describe("EstimateSkew", func() {
	It("returns 0 for a straight vertical edge", func() {
		Expect(EstimateSkew(verticalEdgeImage(32, 32))).To(BeZero())
	})

	It("returns 0 for an image with no strong edges", func() {
		Expect(EstimateSkew(flatImage(32, 32))).To(BeZero())
	})
})

var _ = Describe("Deskew", func() {
	When("the dominant angle is inside the skip band", func() {
		It("returns the input image untouched", func() {
			img := verticalEdgeImage(32, 32)
			Expect(Deskew(img)).To(BeIdenticalTo(img))
		})
	})

	When("the dominant angle is steep", func() {
		It("rotates into an enlarged canvas", func() {
			// Diagonal stripes give a dominant angle of 45 degrees
			img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
			for y := 0; y < 40; y++ {
				for x := 0; x < 40; x++ {
					var v uint8
					if (x+y)%10 < 5 {
						v = 255
					}
					i := img.PixOffset(x, y)
					img.Pix[i] = v
					img.Pix[i+1] = v
					img.Pix[i+2] = v
					img.Pix[i+3] = 255
				}
			}
			out := Deskew(img)
			Expect(out).NotTo(BeIdenticalTo(img))
			Expect(out.Bounds().Dx()).To(BeNumerically(">", 40))
			Expect(out.Bounds().Dy()).To(BeNumerically(">", 40))
		})
	})
})
