package imagecodec

import (
	"fmt"
	"sync"

	"contact-photos/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// vipsLogSettings maps the application log level to a libvips level and a
// handler that forwards libvips messages to the logging package.
func vipsLogSettings(appLevel logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	forward := func(min vips.LogLevel) func(string, vips.LogLevel, string) {
		return func(domain string, level vips.LogLevel, msg string) {
			if level > min {
				return
			}
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			default:
				logging.Debug("[%s] %s", domain, msg)
			}
		}
	}

	switch appLevel {
	case logging.LevelDebug:
		return vips.LogLevelInfo, forward(vips.LogLevelDebug)
	case logging.LevelWarn:
		return vips.LogLevelError, forward(vips.LogLevelError)
	case logging.LevelError:
		return vips.LogLevelCritical, forward(vips.LogLevelCritical)
	default:
		return vips.LogLevelWarning, forward(vips.LogLevelWarning)
	}
}

// InitVips starts libvips. It must be called once before NewVips is used and
// is safe to call repeatedly.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Logging must be configured before Startup
	level, handler := vipsLogSettings(logging.GetLevel())
	vips.LoggingSettings(handler, level)

	// Contact photos are small; keep the operation cache modest
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      16 * 1024 * 1024,
		MaxCacheSize:     50,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips. govips cannot be restarted afterwards.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

type vipsImage struct {
	ref    *vips.ImageRef
	format Format
	closed bool
}

func (i *vipsImage) Width() int     { return i.ref.Width() }
func (i *vipsImage) Height() int    { return i.ref.Height() }
func (i *vipsImage) Format() Format { return i.format }

func (i *vipsImage) Close() error {
	if !i.closed {
		i.ref.Close()
		i.closed = true
	}
	return nil
}

// Vips is a libvips backed codec. Resizing happens in place on the handle.
type Vips struct {
	JPEGQuality int
}

// NewVips returns a libvips codec. InitVips must have been called.
func NewVips() *Vips {
	return &Vips{JPEGQuality: DefaultJPEGQuality}
}

func (c *Vips) Name() string { return "vips" }

func (c *Vips) Decode(data []byte) (Image, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}

	var format Format
	switch ref.Format() {
	case vips.ImageTypePNG:
		format = FormatPNG
	case vips.ImageTypeJPEG:
		format = FormatJPEG
	case vips.ImageTypeGIF:
		format = FormatGIF
	default:
		ref.Close()
		return nil, fmt.Errorf("%w: vips type %d", ErrUnsupportedFormat, ref.Format())
	}

	if err := ref.AutoRotate(); err != nil {
		logging.Debug("vips auto-rotate failed: %v", err)
	}
	return &vipsImage{ref: ref, format: format}, nil
}

func (c *Vips) ResizeLongSide(img Image, pixels int) (Image, error) {
	src, ok := img.(*vipsImage)
	if !ok {
		return nil, fmt.Errorf("vips codec cannot resize %T", img)
	}
	if pixels <= 0 {
		return nil, fmt.Errorf("invalid target size %d", pixels)
	}

	long := src.Width()
	if src.Height() > long {
		long = src.Height()
	}
	if long == 0 {
		return nil, fmt.Errorf("image has no pixels")
	}

	scale := float64(pixels) / float64(long)
	if err := src.ref.Resize(scale, vips.KernelLanczos3); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}
	return src, nil
}

func (c *Vips) Encode(img Image) ([]byte, error) {
	src, ok := img.(*vipsImage)
	if !ok {
		return nil, fmt.Errorf("vips codec cannot encode %T", img)
	}

	var (
		data []byte
		err  error
	)
	switch src.format {
	case FormatPNG:
		data, _, err = src.ref.ExportPng(vips.NewPngExportParams())
	case FormatJPEG:
		params := vips.NewJpegExportParams()
		params.Quality = c.JPEGQuality
		data, _, err = src.ref.ExportJpeg(params)
	case FormatGIF:
		data, _, err = src.ref.ExportGIF(vips.NewGifExportParams())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, src.format)
	}
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}
	return data, nil
}
