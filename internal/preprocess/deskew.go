package preprocess

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/keiri-app/receiptscan/internal/filter"
)

const (
	// edgeMagnitudeThreshold keeps only strong edges when estimating skew.
	edgeMagnitudeThreshold = 100.0

	// skewSkipDegrees is the band inside which rotation is skipped, so
	// already-straight images are not degraded by a resampling pass.
	skewSkipDegrees = 2.0
)

// EstimateSkew returns the dominant edge angle of the image in whole degrees.
// It runs a Sobel pass, keeps the angle of every pixel whose gradient
// magnitude exceeds the threshold, rounds each angle to the nearest degree
// and takes the mode of the resulting histogram. Returns 0 when the image has
// no strong edges at all.
func EstimateSkew(img *image.NRGBA) float64 {
	edges := filter.Sobel(img)

	counts := make(map[int]int)
	for i, mag := range edges.Magnitude {
		if mag > edgeMagnitudeThreshold {
			counts[int(math.Round(edges.Angle[i]))]++
		}
	}

	best, bestCount := 0, 0
	for angle, count := range counts {
		if count > bestCount {
			best, bestCount = angle, count
		}
	}
	return float64(best)
}

// Deskew straightens the image by rotating it against its estimated skew
// angle. When the estimate is within the skip band the input is returned
// untouched. Rotation goes into an enlarged canvas sized to contain the full
// rotated rectangle, filled with white.
func Deskew(img *image.NRGBA) *image.NRGBA {
	angle := EstimateSkew(img)
	if math.Abs(angle) < skewSkipDegrees {
		return img
	}
	return imaging.Rotate(img, -angle, color.White)
}
