package photocache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"contact-photos/internal/blobstore"
	"contact-photos/internal/imagecodec"
	"contact-photos/internal/logging"
	"contact-photos/internal/vcardphoto"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotFound is returned when the contact has no photo or the requested
	// size cannot be served.
	ErrNotFound = errors.New("photocache: photo not found")
	// ErrUnsupportedContentType is returned when the extracted photo is not
	// PNG, JPEG or GIF and therefore cannot be given a file name.
	ErrUnsupportedContentType = errors.New("photocache: unsupported photo content type")
)

const noPhotoMarker = "nophoto"

// extensions maps stored content types to file extensions.
var extensions = map[string]string{
	vcardphoto.TypePNG:  "png",
	vcardphoto.TypeJPEG: "jpg",
	vcardphoto.TypeGIF:  "gif",
}

// probeOrder is the order in which an original is looked for.
var probeOrder = []string{"jpg", "png", "gif"}

var contentTypes = map[string]string{
	"png": vcardphoto.TypePNG,
	"jpg": vcardphoto.TypeJPEG,
	"gif": vcardphoto.TypeGIF,
}

// Blob is a stored or freshly derived photo.
type Blob struct {
	Name        string
	Extension   string
	ContentType string
	Data        []byte
	// Cached is false when the blob was generated but could not be stored.
	Cached bool
}

// Cache serves contact photos at power-of-two sizes.
type Cache struct {
	store     BlobStore
	codec     imagecodec.Codec
	extractor *vcardphoto.Extractor
	observer  Observer
	group     singleflight.Group
	// derivations bounds concurrent decode/resize/encode work; nil is unbounded
	derivations *semaphore.Weighted
}

// New returns a Cache over store. A nil extractor uses vcardphoto.NewExtractor.
func New(store BlobStore, codec imagecodec.Codec, extractor *vcardphoto.Extractor) *Cache {
	if extractor == nil {
		extractor = vcardphoto.NewExtractor()
	}
	return &Cache{
		store:     store,
		codec:     codec,
		extractor: extractor,
		observer:  nopObserver{},
	}
}

// SetObserver installs a metrics observer. Passing nil disables recording.
func (c *Cache) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	c.observer = o
}

// SetConcurrency bounds how many thumbnails are derived at once. n <= 0
// removes the bound. It must be called before the cache is shared.
func (c *Cache) SetConcurrency(n int) {
	if n <= 0 {
		c.derivations = nil
		return
	}
	c.derivations = semaphore.NewWeighted(int64(n))
}

// Get returns the contact's photo at size, or the original when size is
// Original. record is read only when the contact's folder is still empty.
func (c *Cache) Get(key ContactKey, size int, record vcardphoto.Record) (*Blob, error) {
	folder, err := c.store.GetOrCreateFolder(key.Folder())
	if err != nil {
		return nil, fmt.Errorf("failed to open photo folder for %s: %w", key, err)
	}

	names, err := folder.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list photo folder for %s: %w", key, err)
	}
	if len(names) == 0 {
		if err := c.initialize(key, folder, record); err != nil {
			return nil, err
		}
	}

	noPhoto, err := folder.Exists(noPhotoMarker)
	if err != nil {
		return nil, fmt.Errorf("failed to check photo marker for %s: %w", key, err)
	}
	if noPhoto {
		return nil, ErrNotFound
	}

	ext, err := extension(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to find original photo for %s: %w", key, err)
	}

	if size != Original {
		size = Bucket(size)
	}

	return c.file(key, folder, size, ext)
}

// Delete removes the contact's folder so the next Get re-reads the record.
func (c *Cache) Delete(key ContactKey) error {
	folder, err := c.store.GetOrCreateFolder(key.Folder())
	if err != nil {
		return fmt.Errorf("failed to open photo folder for %s: %w", key, err)
	}
	if err := folder.Delete(); err != nil {
		return fmt.Errorf("failed to delete photo folder for %s: %w", key, err)
	}
	c.observer.ObserveInvalidation()
	logging.Debug("Photo cache invalidated: %s", key)
	return nil
}

// initialize writes either the original photo or the negative marker into an
// empty folder. Racing initializers read the same record, so whichever write
// lands first is the one the others would have made; ErrExists is ignored.
func (c *Cache) initialize(key ContactKey, folder Folder, record vcardphoto.Record) error {
	_, err, _ := c.group.Do("init:"+key.Folder(), func() (interface{}, error) {
		photo, ok := c.extractor.Extract(record, key.fields())
		if !ok {
			c.observer.ObserveInitialization("nophoto")
			logging.Debug("Contact %s has no photo, writing marker", key)
			return nil, ignoreExists(folder.WriteNewFile(noPhotoMarker, nil))
		}

		ext, known := extensions[photo.ContentType]
		if !known {
			c.observer.ObserveInitialization("unsupported")
			logging.WarnFields("contact photo has unsupported content type", logging.Fields{
				"addressbook":  key.AddressBookID,
				"card":         key.CardURI,
				"content_type": photo.ContentType,
			})
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, photo.ContentType)
		}

		c.observer.ObserveInitialization("photo")
		logging.Debug("Contact %s photo stored as photo.%s (%d bytes)", key, ext, len(photo.Data))
		return nil, ignoreExists(folder.WriteNewFile("photo."+ext, photo.Data))
	})
	if err != nil {
		if errors.Is(err, ErrUnsupportedContentType) {
			return err
		}
		return fmt.Errorf("failed to initialize photo folder for %s: %w", key, err)
	}
	return nil
}

func ignoreExists(err error) error {
	if errors.Is(err, blobstore.ErrExists) {
		return nil
	}
	return err
}

// extension finds the extension of the stored original.
func extension(folder Folder) (string, error) {
	for _, ext := range probeOrder {
		ok, err := folder.Exists("photo." + ext)
		if err != nil {
			return "", err
		}
		if ok {
			return ext, nil
		}
	}
	return "", ErrNotFound
}

func fileName(size int, ext string) string {
	if size == Original {
		return "photo." + ext
	}
	return "photo." + strconv.Itoa(size) + "." + ext
}

func (c *Cache) file(key ContactKey, folder Folder, size int, ext string) (*Blob, error) {
	name := fileName(size, ext)
	kind := "variant"
	if size == Original {
		kind = "original"
	}

	data, found, err := folder.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s for %s: %w", name, key, err)
	}
	if found {
		c.observer.ObserveHit(kind)
		return &Blob{Name: name, Extension: ext, ContentType: contentTypes[ext], Data: data, Cached: true}, nil
	}
	c.observer.ObserveMiss(kind)

	if size <= 0 {
		return nil, ErrNotFound
	}

	v, err, _ := c.group.Do(key.Folder()+"/"+name, func() (interface{}, error) {
		return c.derive(key, folder, size, ext, name)
	})
	if err != nil {
		c.observer.ObserveGeneration("error")
		return nil, err
	}
	return v.(*Blob), nil
}

// derive resizes the original so its short side is size pixels and stores
// the result under name.
func (c *Cache) derive(key ContactKey, folder Folder, size int, ext, name string) (*Blob, error) {
	original, found, err := folder.ReadFile("photo." + ext)
	if err != nil {
		return nil, fmt.Errorf("failed to read original photo for %s: %w", key, err)
	}
	if !found {
		return nil, ErrNotFound
	}

	if c.derivations != nil {
		if err := c.derivations.Acquire(context.Background(), 1); err != nil {
			return nil, err
		}
		defer c.derivations.Release(1)
	}

	start := time.Now()
	img, err := c.codec.Decode(original)
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo for %s: %w", key, err)
	}
	defer img.Close()
	c.observer.ObservePhase("decode", time.Since(start).Seconds())

	w, h := img.Width(), img.Height()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("photo for %s has invalid dimensions %dx%d", key, w, h)
	}
	longSide := derivedLongSide(size, w, h)

	start = time.Now()
	resized, err := c.codec.ResizeLongSide(img, longSide)
	if err != nil {
		return nil, fmt.Errorf("failed to resize photo for %s: %w", key, err)
	}
	defer resized.Close()
	c.observer.ObservePhase("resize", time.Since(start).Seconds())

	start = time.Now()
	data, err := c.codec.Encode(resized)
	if err != nil {
		return nil, fmt.Errorf("failed to encode photo for %s: %w", key, err)
	}
	c.observer.ObservePhase("encode", time.Since(start).Seconds())

	blob := &Blob{Name: name, Extension: ext, ContentType: contentTypes[ext], Data: data, Cached: true}

	start = time.Now()
	err = folder.WriteNewFile(name, data)
	c.observer.ObservePhase("store", time.Since(start).Seconds())
	switch {
	case err == nil:
		logging.Debug("Photo variant cached: %s/%s (%dx%d -> long side %d)", key, name, w, h, longSide)
	case errors.Is(err, blobstore.ErrExists):
		logging.Debug("Photo variant %s/%s written concurrently", key, name)
	case errors.Is(err, blobstore.ErrPermission):
		logging.Warn("Failed to cache photo variant %s/%s: %v", key, name, err)
		blob.Cached = false
		c.observer.ObserveGeneration("uncached")
		return blob, nil
	default:
		return nil, fmt.Errorf("failed to store %s for %s: %w", name, key, err)
	}

	c.observer.ObserveGeneration("success")
	return blob, nil
}

// derivedLongSide scales bucket by the aspect ratio so that the short side of
// the result, not the long side, equals bucket.
func derivedLongSide(bucket, width, height int) int {
	long, short := width, height
	if short > long {
		long, short = short, long
	}
	ratio := float64(long) / float64(short)
	return int(math.Round(float64(bucket) * ratio))
}
