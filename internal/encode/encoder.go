// Package encode writes preview images in the raster formats the CLI and
// the HTTP server can return.
package encode

import (
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// Encoder writes an image in one raster format.
type Encoder interface {
	// Encode writes img to w.
	Encode(w io.Writer, img image.Image) error

	// Format returns the format name (e.g. "jpeg", "png", "webp").
	Format() string

	// ContentType returns the MIME type served for the format.
	ContentType() string

	// FileExtension returns the appropriate file extension.
	FileExtension() string
}

// NewEncoder creates an encoder for the given format and quality.
// Quality is ignored by lossless formats.
func NewEncoder(format string, quality int) (Encoder, error) {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return &JPEGEncoder{Quality: quality}, nil
	case "png":
		return &PNGEncoder{}, nil
	case "webp":
		return newWebPEncoder(quality), nil
	default:
		return nil, errors.Newf("unsupported image format: %q (supported: jpeg, png, webp)", format)
	}
}

// FormatForPath guesses the format from a file name, defaulting to png.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".webp":
		return "webp"
	default:
		return "png"
	}
}
