package imagecodec

import (
	"bytes"
	"fmt"
	"image"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when re-encoding resized JPEG photos.
const DefaultJPEGQuality = 90

type imagingImage struct {
	img    image.Image
	format Format
}

func (i *imagingImage) Width() int     { return i.img.Bounds().Dx() }
func (i *imagingImage) Height() int    { return i.img.Bounds().Dy() }
func (i *imagingImage) Format() Format { return i.format }
func (i *imagingImage) Close() error   { return nil }

// Imaging is a pure Go codec.
type Imaging struct {
	JPEGQuality int
	Filter      imaging.ResampleFilter
}

// NewImaging returns an Imaging codec with Lanczos resampling.
func NewImaging() *Imaging {
	return &Imaging{
		JPEGQuality: DefaultJPEGQuality,
		Filter:      imaging.Lanczos,
	}
}

func (c *Imaging) Name() string { return "imaging" }

func (c *Imaging) Decode(data []byte) (Image, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	format, err := parseFormat(name)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	return &imagingImage{img: img, format: format}, nil
}

func (c *Imaging) ResizeLongSide(img Image, pixels int) (Image, error) {
	src, ok := img.(*imagingImage)
	if !ok {
		return nil, fmt.Errorf("imaging codec cannot resize %T", img)
	}
	if pixels <= 0 {
		return nil, fmt.Errorf("invalid target size %d", pixels)
	}

	w, h := longSideDimensions(src.Width(), src.Height(), pixels)
	resized := imaging.Resize(src.img, w, h, c.Filter)
	return &imagingImage{img: resized, format: src.format}, nil
}

func (c *Imaging) Encode(img Image) ([]byte, error) {
	src, ok := img.(*imagingImage)
	if !ok {
		return nil, fmt.Errorf("imaging codec cannot encode %T", img)
	}

	var format imaging.Format
	var opts []imaging.EncodeOption
	switch src.format {
	case FormatPNG:
		format = imaging.PNG
	case FormatJPEG:
		format = imaging.JPEG
		opts = append(opts, imaging.JPEGQuality(c.JPEGQuality))
	case FormatGIF:
		format = imaging.GIF
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, src.format)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src.img, format, opts...); err != nil {
		return nil, fmt.Errorf("failed to encode %s image: %w", src.format, err)
	}
	return buf.Bytes(), nil
}
