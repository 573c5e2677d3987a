package imagecodec

import (
	"errors"
	"fmt"
	"strings"
)

// Format is the encoded image format of a decoded image.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
)

// ErrUnsupportedFormat is returned when data is not PNG, JPEG or GIF.
var ErrUnsupportedFormat = errors.New("imagecodec: unsupported image format")

// Image is a decoded image handle.
type Image interface {
	Width() int
	Height() int
	Format() Format
	// Close releases resources held by the handle. It is safe to call more
	// than once.
	Close() error
}

// Codec decodes, resizes and encodes images.
type Codec interface {
	Name() string
	Decode(data []byte) (Image, error)
	// ResizeLongSide scales img so that its longer side is pixels wide,
	// preserving the aspect ratio. The returned handle may be img itself.
	ResizeLongSide(img Image, pixels int) (Image, error)
	// Encode writes img in the format it was decoded from.
	Encode(img Image) ([]byte, error)
}

// New returns the codec registered under name ("imaging" or "vips").
func New(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "imaging":
		return NewImaging(), nil
	case "vips", "libvips":
		if err := InitVips(); err != nil {
			return nil, err
		}
		return NewVips(), nil
	default:
		return nil, fmt.Errorf("unknown image codec %q", name)
	}
}

func parseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "gif":
		return FormatGIF, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// longSideDimensions returns the width and height of a w×h image scaled so
// its longer side equals pixels.
func longSideDimensions(w, h, pixels int) (int, int) {
	if w <= 0 || h <= 0 {
		return pixels, pixels
	}
	if w >= h {
		nh := (h*pixels + w/2) / w
		if nh < 1 {
			nh = 1
		}
		return pixels, nh
	}
	nw := (w*pixels + h/2) / h
	if nw < 1 {
		nw = 1
	}
	return nw, pixels
}
