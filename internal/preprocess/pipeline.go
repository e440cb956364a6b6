// Package preprocess composes the pixel filters into the named receipt
// preparation operations and runs them as a configurable pipeline ahead of
// OCR. The pipeline never fails outright: when the image cannot even be
// decoded, the caller gets the original bytes back together with the error
// and is expected to hand the unmodified image to the OCR engine.
package preprocess

import (
	"fmt"
	"image"

	"github.com/keiri-app/receiptscan/internal/filter"
)

const (
	noiseBlurSigma  = 1.5
	noiseMedianSize = 3

	sharpenBlurSigma = 1.0
	sharpenAmount    = 1.5

	thresholdBlockRadius = 15
	thresholdOffset      = 10.0

	defaultJPEGQuality = 95
)

// Options toggles the individual stages of the OCR pipeline. The zero value
// disables everything; use DefaultOptions for the all-on default.
type Options struct {
	Deskew          bool `json:"deskew"`
	Binarize        bool `json:"binarize"`
	EnhanceContrast bool `json:"enhanceContrast"`
	RemoveNoise     bool `json:"removeNoise"`
	Sharpen         bool `json:"sharpen"`
}

// DefaultOptions enables every stage.
func DefaultOptions() Options {
	return Options{
		Deskew:          true,
		Binarize:        true,
		EnhanceContrast: true,
		RemoveNoise:     true,
		Sharpen:         true,
	}
}

// StageHook is called with the stage name just before each enabled stage
// runs. Used by tests to assert stage ordering.
type StageHook func(stage string)

// Preprocessor runs the preparation pipeline over a Codec boundary.
type Preprocessor struct {
	codec Codec
	hook  StageHook
}

// New creates a Preprocessor over the given codec.
func New(codec Codec) *Preprocessor {
	return &Preprocessor{codec: codec}
}

// NewWithStageHook creates a Preprocessor that reports each stage to hook.
// Intended for tests.
func NewWithStageHook(codec Codec, hook StageHook) *Preprocessor {
	return &Preprocessor{codec: codec, hook: hook}
}

// RemoveNoise cleans salt-and-pepper noise with a Gaussian blur followed by
// a small median filter.
func RemoveNoise(img *image.NRGBA) *image.NRGBA {
	return filter.Median(filter.GaussianBlur(img, noiseBlurSigma), noiseMedianSize)
}

// EnhanceContrast maximizes ink/paper separation via histogram equalization.
// The result is grayscale: equalization remaps through a single intensity
// histogram and discards color.
func EnhanceContrast(img *image.NRGBA) *image.NRGBA {
	return filter.EqualizeHistogram(img)
}

// Sharpen applies an unsharp mask: the scaled difference between the image
// and a blurred copy is added back, clamped per channel.
func Sharpen(img *image.NRGBA) *image.NRGBA {
	blurred := filter.GaussianBlur(img, sharpenBlurSigma)
	out := image.NewNRGBA(img.Bounds())
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			orig := float64(img.Pix[i+c])
			v := orig + sharpenAmount*(orig-float64(blurred.Pix[i+c]))
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			out.Pix[i+c] = uint8(v)
		}
		out.Pix[i+3] = img.Pix[i+3]
	}
	return out
}

// Binarize converts the image to pure black and white with an adaptive local
// threshold.
func Binarize(img *image.NRGBA) *image.NRGBA {
	return filter.AdaptiveThreshold(img, thresholdBlockRadius, thresholdOffset)
}

func (p *Preprocessor) stage(name string) {
	if p.hook != nil {
		p.hook(name)
	}
}

// ProcessForOCR runs the enabled stages in a fixed order: removeNoise,
// deskew, enhanceContrast, sharpen, binarize. Noise removal comes first so
// angle and contrast analysis are not misled; deskew before thresholding so
// the local window aligns with text lines; binarization last because it is
// the most destructive step.
//
// On decode failure the original bytes are returned alongside the error so
// the caller can fall back to the unprocessed image.
func (p *Preprocessor) ProcessForOCR(data []byte, contentType string, opts Options) ([]byte, error) {
	img, err := p.codec.Decode(data, contentType)
	if err != nil {
		return data, fmt.Errorf("decoding for preprocessing: %w", err)
	}

	if opts.RemoveNoise {
		p.stage("removeNoise")
		img = RemoveNoise(img)
	}
	if opts.Deskew {
		p.stage("deskew")
		img = Deskew(img)
	}
	if opts.EnhanceContrast {
		p.stage("enhanceContrast")
		img = EnhanceContrast(img)
	}
	if opts.Sharpen {
		p.stage("sharpen")
		img = Sharpen(img)
	}
	if opts.Binarize {
		p.stage("binarize")
		img = Binarize(img)
	}

	out, err := p.codec.Encode(img, defaultJPEGQuality)
	if err != nil {
		return data, fmt.Errorf("encoding preprocessed image: %w", err)
	}
	return out, nil
}

// ProcessForVision runs the reduced pipeline for image-understanding models:
// deskew only. Grayscale, contrast and threshold stages are skipped on
// purpose, a vision model benefits from the color and texture cues they
// would destroy.
func (p *Preprocessor) ProcessForVision(data []byte, contentType string) ([]byte, error) {
	img, err := p.codec.Decode(data, contentType)
	if err != nil {
		return data, fmt.Errorf("decoding for preprocessing: %w", err)
	}

	p.stage("deskew")
	img = Deskew(img)

	out, err := p.codec.Encode(img, defaultJPEGQuality)
	if err != nil {
		return data, fmt.Errorf("encoding preprocessed image: %w", err)
	}
	return out, nil
}
