package preprocess

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// Codec is the decode/encode boundary between transport bytes and pixel
// buffers. Any platform image backend can satisfy it.
type Codec interface {
	// Decode converts encoded image bytes into a pixel buffer.
	Decode(data []byte, contentType string) (*image.NRGBA, error)

	// Encode converts a pixel buffer back into compressed bytes at the
	// given JPEG quality (1-100).
	Encode(img *image.NRGBA, quality int) ([]byte, error)
}

// StdCodec implements Codec with the standard image decoders plus HEIC
// (common on iPhones) and PDF (rendered at the first page, most receipts
// are single page).
type StdCodec struct{}

// NewStdCodec creates a new StdCodec.
func NewStdCodec() *StdCodec {
	return &StdCodec{}
}

// Decode converts encoded image or PDF bytes into an NRGBA pixel buffer.
func (c *StdCodec) Decode(data []byte, contentType string) (*image.NRGBA, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))

	var img image.Image
	var err error
	switch {
	case mimeType == "application/pdf":
		img, err = renderPDFPage(data)
		if err != nil {
			return nil, err
		}
	case isHEICData(data) || isHEICMimeType(mimeType):
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	default:
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
				return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF. Error: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	// imaging.Clone normalizes any image.Image into a fresh NRGBA buffer
	return imaging.Clone(img), nil
}

// Encode re-encodes a pixel buffer as JPEG at the given quality.
func (c *StdCodec) Encode(img *image.NRGBA, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = defaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// renderPDFPage rasterizes the first page of a PDF.
func renderPDFPage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// isHEICData sniffs the ftyp box for HEIC/HEIF brands.
func isHEICData(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
