package photocache

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contact-photos/internal/blobstore"
	"contact-photos/internal/imagecodec"
	"contact-photos/internal/vcardphoto"

	"github.com/emersion/go-vcard"
)

// countingCodec wraps a real codec and counts decodes.
type countingCodec struct {
	imagecodec.Codec
	decodes atomic.Int32
}

func (c *countingCodec) Decode(data []byte) (imagecodec.Image, error) {
	c.decodes.Add(1)
	return c.Codec.Decode(data)
}

// countingRecord counts how often the card is read.
type countingRecord struct {
	vcardphoto.Record
	reads atomic.Int32
}

func (r *countingRecord) Card() (vcard.Card, error) {
	r.reads.Add(1)
	return r.Record.Card()
}

type testEnv struct {
	cache *Cache
	codec *countingCodec
	store *blobstore.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := blobstore.New(filepath.Join(t.TempDir(), "photos"))
	if err != nil {
		t.Fatalf("blobstore.New() error = %v", err)
	}
	codec := &countingCodec{Codec: imagecodec.NewImaging()}
	return &testEnv{
		cache: New(DiskStore(store), codec, nil),
		codec: codec,
		store: store,
	}
}

func (e *testEnv) folderFiles(t *testing.T, key ContactKey) []string {
	t.Helper()
	f, err := e.store.Folder(key.Folder())
	if err != nil {
		t.Fatalf("Folder(%s) error = %v", key, err)
	}
	names, err := f.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	return names
}

func encodeImage(t *testing.T, width, height int, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		t.Fatalf("unsupported test format %s", format)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func vcardWith(photoLine string) vcardphoto.Record {
	lines := []string{"BEGIN:VCARD", "VERSION:3.0", "FN:Ada Lovelace"}
	if photoLine != "" {
		lines = append(lines, photoLine)
	}
	lines = append(lines, "END:VCARD")
	return vcardphoto.Raw([]byte(strings.Join(lines, "\r\n") + "\r\n"))
}

func inlinePhoto(data []byte, mediaType string) vcardphoto.Record {
	return vcardWith("PHOTO;ENCODING=b;TYPE=" + mediaType + ":" + base64.StdEncoding.EncodeToString(data))
}

func TestGetOriginalStoresPhoto(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		mediaType string
		wantFile  string
		wantType  string
	}{
		{name: "png", format: "png", mediaType: "image/png", wantFile: "photo.png", wantType: "image/png"},
		{name: "jpeg", format: "jpeg", mediaType: "JPEG", wantFile: "photo.jpg", wantType: "image/jpeg"},
		{name: "gif", format: "gif", mediaType: "GIF", wantFile: "photo.gif", wantType: "image/gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			key := NewContactKey(1, tt.name+".vcf")
			src := encodeImage(t, 40, 20, tt.format)

			blob, err := env.cache.Get(key, Original, inlinePhoto(src, tt.mediaType))
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if blob.Name != tt.wantFile {
				t.Errorf("Name = %q, want %q", blob.Name, tt.wantFile)
			}
			if blob.ContentType != tt.wantType {
				t.Errorf("ContentType = %q, want %q", blob.ContentType, tt.wantType)
			}
			if !bytes.Equal(blob.Data, src) {
				t.Error("original bytes were modified")
			}
			if files := env.folderFiles(t, key); len(files) != 1 || files[0] != tt.wantFile {
				t.Errorf("folder = %v, want [%s]", files, tt.wantFile)
			}
			if n := env.codec.decodes.Load(); n != 0 {
				t.Errorf("decodes = %d, want 0 for an original request", n)
			}
		})
	}
}

func TestGetVariantIsCachedAndIdempotent(t *testing.T) {
	env := newTestEnv(t)
	key := NewContactKey(7, "grace.vcf")
	record := &countingRecord{Record: inlinePhoto(encodeImage(t, 200, 100, "png"), "image/png")}

	first, err := env.cache.Get(key, 50, record)
	if err != nil {
		t.Fatalf("first Get() error = %v", err)
	}
	if first.Name != "photo.64.png" {
		t.Errorf("Name = %q, want photo.64.png", first.Name)
	}
	if !first.Cached {
		t.Error("Cached = false, want true")
	}

	second, err := env.cache.Get(key, 60, record)
	if err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Error("second Get returned different bytes")
	}
	if n := env.codec.decodes.Load(); n != 1 {
		t.Errorf("decodes = %d, want 1", n)
	}
	if n := record.reads.Load(); n != 1 {
		t.Errorf("record reads = %d, want 1", n)
	}

	files := env.folderFiles(t, key)
	want := []string{"photo.64.png", "photo.png"}
	if fmt.Sprint(files) != fmt.Sprint(want) {
		t.Errorf("folder = %v, want %v", files, want)
	}
}

func TestGetVariantPreservesAspectRatio(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		size          int
		wantW, wantH  int
	}{
		{name: "landscape", width: 200, height: 100, size: 50, wantW: 128, wantH: 64},
		{name: "portrait", width: 100, height: 200, size: 32, wantW: 32, wantH: 64},
		{name: "square", width: 90, height: 90, size: 20, wantW: 32, wantH: 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			key := NewContactKey(1, tt.name)

			blob, err := env.cache.Get(key, tt.size, inlinePhoto(encodeImage(t, tt.width, tt.height, "png"), "PNG"))
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			cfg, format, err := image.DecodeConfig(bytes.NewReader(blob.Data))
			if err != nil {
				t.Fatalf("variant does not decode: %v", err)
			}
			if format != "png" {
				t.Errorf("variant format = %s, want png", format)
			}
			if cfg.Width != tt.wantW || cfg.Height != tt.wantH {
				t.Errorf("variant = %dx%d, want %dx%d", cfg.Width, cfg.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestGetNegativeCaching(t *testing.T) {
	env := newTestEnv(t)
	key := NewContactKey(3, "nobody.vcf")
	record := &countingRecord{Record: vcardWith("")}

	for i := 0; i < 3; i++ {
		if _, err := env.cache.Get(key, 32, record); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get() #%d error = %v, want ErrNotFound", i, err)
		}
	}
	if n := record.reads.Load(); n != 1 {
		t.Errorf("record reads = %d, want 1", n)
	}
	if files := env.folderFiles(t, key); len(files) != 1 || files[0] != noPhotoMarker {
		t.Errorf("folder = %v, want [%s]", files, noPhotoMarker)
	}
}

func TestGetIgnoresRemoteURIs(t *testing.T) {
	env := newTestEnv(t)
	key := NewContactKey(3, "remote.vcf")

	_, err := env.cache.Get(key, Original, vcardWith("PHOTO;VALUE=uri:http://example.com/a.jpg"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	if files := env.folderFiles(t, key); len(files) != 1 || files[0] != noPhotoMarker {
		t.Errorf("folder = %v, want [%s]", files, noPhotoMarker)
	}
}

func TestGetDataURIPhoto(t *testing.T) {
	env := newTestEnv(t)
	key := NewContactKey(3, "data.vcf")
	src := encodeImage(t, 30, 30, "jpeg")
	record := vcardWith("PHOTO;VALUE=uri:data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(src))

	blob, err := env.cache.Get(key, 16, record)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if blob.Name != "photo.16.jpg" {
		t.Errorf("Name = %q, want photo.16.jpg", blob.Name)
	}
}

func TestGetUnsupportedContentType(t *testing.T) {
	env := newTestEnv(t)
	key := NewContactKey(4, "bitmap.vcf")

	_, err := env.cache.Get(key, Original, inlinePhoto([]byte("BM fake bitmap"), "image/bmp"))
	if !errors.Is(err, ErrUnsupportedContentType) {
		t.Fatalf("Get() error = %v, want ErrUnsupportedContentType", err)
	}
	if files := env.folderFiles(t, key); len(files) != 0 {
		t.Errorf("folder = %v, want empty", files)
	}
}

func TestGetFailSoftOnMalformedRecord(t *testing.T) {
	env := newTestEnv(t)
	key := NewContactKey(4, "garbage.vcf")

	_, err := env.cache.Get(key, Original, vcardphoto.Raw([]byte("not a vcard at all")))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestGetInvalidBucket(t *testing.T) {
	env := newTestEnv(t)
	key := NewContactKey(5, "zero.vcf")
	record := inlinePhoto(encodeImage(t, 10, 10, "png"), "image/png")

	for _, size := range []int{0, -7} {
		if _, err := env.cache.Get(key, size, record); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(size=%d) error = %v, want ErrNotFound", size, err)
		}
	}
	if n := env.codec.decodes.Load(); n != 0 {
		t.Errorf("decodes = %d, want 0", n)
	}
}

func TestDeleteForcesReinitialization(t *testing.T) {
	env := newTestEnv(t)
	key := NewContactKey(6, "changing.vcf")

	if _, err := env.cache.Get(key, Original, vcardWith("")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}

	if err := env.cache.Delete(key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := env.store.Folder(key.Folder()); !errors.Is(err, blobstore.ErrNotFound) {
		t.Errorf("folder still present after Delete: %v", err)
	}

	src := encodeImage(t, 20, 20, "png")
	blob, err := env.cache.Get(key, Original, inlinePhoto(src, "image/png"))
	if err != nil {
		t.Fatalf("Get() after Delete error = %v", err)
	}
	if !bytes.Equal(blob.Data, src) {
		t.Error("photo not re-extracted after Delete")
	}
}

func TestDeleteAbsentFolder(t *testing.T) {
	env := newTestEnv(t)
	key := NewContactKey(9, "never-seen.vcf")

	if err := env.cache.Delete(key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := env.cache.Delete(key); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
}

// failingStore injects errors when variants are written.
type failingStore struct {
	BlobStore
	writeErr error
}

func (s failingStore) GetOrCreateFolder(name string) (Folder, error) {
	f, err := s.BlobStore.GetOrCreateFolder(name)
	if err != nil {
		return nil, err
	}
	return failingFolder{Folder: f, writeErr: s.writeErr}, nil
}

type failingFolder struct {
	Folder
	writeErr error
}

func (f failingFolder) WriteNewFile(name string, data []byte) error {
	if strings.Count(name, ".") == 2 {
		return f.writeErr
	}
	return f.Folder.WriteNewFile(name, data)
}

func TestGetServesUncachedOnPermissionError(t *testing.T) {
	env := newTestEnv(t)
	permErr := fmt.Errorf("%w: %w", blobstore.ErrPermission, os.ErrPermission)
	cache := New(failingStore{BlobStore: DiskStore(env.store), writeErr: permErr}, env.codec, nil)
	key := NewContactKey(8, "readonly.vcf")
	record := inlinePhoto(encodeImage(t, 64, 64, "png"), "image/png")

	blob, err := cache.Get(key, 16, record)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if blob.Cached {
		t.Error("Cached = true, want false")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(blob.Data))
	if err != nil {
		t.Fatalf("uncached variant does not decode: %v", err)
	}
	if cfg.Width != 16 {
		t.Errorf("variant width = %d, want 16", cfg.Width)
	}

	if _, err := cache.Get(key, 16, record); err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if n := env.codec.decodes.Load(); n != 2 {
		t.Errorf("decodes = %d, want 2 when caching is impossible", n)
	}
}

func TestGetPropagatesOtherStorageErrors(t *testing.T) {
	env := newTestEnv(t)
	diskFull := errors.New("no space left on device")
	cache := New(failingStore{BlobStore: DiskStore(env.store), writeErr: diskFull}, env.codec, nil)
	key := NewContactKey(8, "full.vcf")

	_, err := cache.Get(key, 16, inlinePhoto(encodeImage(t, 32, 32, "png"), "image/png"))
	if !errors.Is(err, diskFull) {
		t.Fatalf("Get() error = %v, want %v", err, diskFull)
	}
}

func TestGetCorruptOriginal(t *testing.T) {
	env := newTestEnv(t)
	key := NewContactKey(2, "corrupt.vcf")
	record := inlinePhoto([]byte("definitely not png"), "image/png")

	blob, err := env.cache.Get(key, Original, record)
	if err != nil {
		t.Fatalf("Get(Original) error = %v", err)
	}
	if string(blob.Data) != "definitely not png" {
		t.Errorf("original = %q", blob.Data)
	}
	if _, err := env.cache.Get(key, 32, record); err == nil {
		t.Error("Get(32) on corrupt original should fail")
	}
}

func TestConcurrentGetConverges(t *testing.T) {
	env := newTestEnv(t)
	key := NewContactKey(10, "popular.vcf")
	record := inlinePhoto(encodeImage(t, 120, 80, "png"), "image/png")

	const callers = 16
	results := make([][]byte, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			blob, err := env.cache.Get(key, 40, record)
			errs[i] = err
			if blob != nil {
				results[i] = blob.Data
			}
		}(i)
	}
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Fatalf("caller %d error = %v", i, errs[i])
		}
		if !bytes.Equal(results[i], results[0]) {
			t.Errorf("caller %d got different bytes", i)
		}
	}
	want := []string{"photo.64.png", "photo.png"}
	if files := env.folderFiles(t, key); fmt.Sprint(files) != fmt.Sprint(want) {
		t.Errorf("folder = %v, want %v", files, want)
	}
}

// slowCodec records the peak number of concurrent decodes.
type slowCodec struct {
	imagecodec.Codec
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *slowCodec) Decode(data []byte) (imagecodec.Image, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return c.Codec.Decode(data)
}

func TestSetConcurrencyBoundsDerivations(t *testing.T) {
	store, err := blobstore.New(filepath.Join(t.TempDir(), "photos"))
	if err != nil {
		t.Fatalf("blobstore.New() error = %v", err)
	}
	codec := &slowCodec{Codec: imagecodec.NewImaging()}
	cache := New(DiskStore(store), codec, nil)
	cache.SetConcurrency(1)

	record := inlinePhoto(encodeImage(t, 64, 64, "png"), "image/png")
	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cache.Get(NewContactKey(int64(i), "c.vcf"), 32, record)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d error = %v", i, err)
		}
	}
	if peak := codec.peak.Load(); peak != 1 {
		t.Errorf("peak concurrent decodes = %d, want 1", peak)
	}
}

func TestInitializeToleratesConcurrentWriter(t *testing.T) {
	env := newTestEnv(t)
	key := NewContactKey(11, "raced.vcf")
	src := encodeImage(t, 10, 10, "png")

	// Simulate another process that already wrote the original after this
	// caller saw an empty folder.
	folder, err := DiskStore(env.store).GetOrCreateFolder(key.Folder())
	if err != nil {
		t.Fatalf("GetOrCreateFolder() error = %v", err)
	}
	if err := folder.WriteNewFile("photo.png", src); err != nil {
		t.Fatalf("WriteNewFile() error = %v", err)
	}

	if err := env.cache.initialize(key, folder, inlinePhoto(src, "image/png")); err != nil {
		t.Fatalf("initialize() error = %v, want nil on ErrExists", err)
	}
}

type recordingObserver struct {
	nopObserver
	mu    sync.Mutex
	hits  map[string]int
	inits map[string]int
	gens  map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{hits: map[string]int{}, inits: map[string]int{}, gens: map[string]int{}}
}

func (o *recordingObserver) ObserveHit(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hits[kind]++
}

func (o *recordingObserver) ObserveInitialization(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inits[result]++
}

func (o *recordingObserver) ObserveGeneration(status string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gens[status]++
}

func TestObserverReceivesEvents(t *testing.T) {
	env := newTestEnv(t)
	obs := newRecordingObserver()
	env.cache.SetObserver(obs)
	key := NewContactKey(12, "observed.vcf")
	record := inlinePhoto(encodeImage(t, 10, 10, "png"), "image/png")

	for i := 0; i < 2; i++ {
		if _, err := env.cache.Get(key, 8, record); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
	}
	if _, err := env.cache.Get(key, Original, record); err != nil {
		t.Fatalf("Get(Original) error = %v", err)
	}

	if obs.inits["photo"] != 1 {
		t.Errorf("photo initializations = %d, want 1", obs.inits["photo"])
	}
	if obs.gens["success"] != 1 {
		t.Errorf("successful generations = %d, want 1", obs.gens["success"])
	}
	if obs.hits["variant"] != 1 || obs.hits["original"] != 1 {
		t.Errorf("hits = %v, want one variant and one original", obs.hits)
	}
}
