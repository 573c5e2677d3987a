package photocache

import (
	"errors"

	"contact-photos/internal/blobstore"
)

// Folder is the blob folder holding one contact's files.
type Folder interface {
	List() ([]string, error)
	Exists(name string) (bool, error)
	// ReadFile returns found=false, with a nil error, when the file is absent.
	ReadFile(name string) (data []byte, found bool, err error)
	// WriteNewFile fails with an error wrapping blobstore.ErrExists if the
	// file is present and blobstore.ErrPermission if writing is denied.
	WriteNewFile(name string, data []byte) error
	Delete() error
}

// BlobStore hands out contact folders.
type BlobStore interface {
	GetOrCreateFolder(name string) (Folder, error)
}

// DiskStore adapts a blobstore.Store to BlobStore.
func DiskStore(s *blobstore.Store) BlobStore {
	return diskStore{s: s}
}

type diskStore struct{ s *blobstore.Store }

func (d diskStore) GetOrCreateFolder(name string) (Folder, error) {
	f, err := d.s.GetOrCreateFolder(name)
	if err != nil {
		return nil, err
	}
	return diskFolder{f: f}, nil
}

type diskFolder struct{ f *blobstore.Folder }

func (d diskFolder) List() ([]string, error)          { return d.f.List() }
func (d diskFolder) Exists(name string) (bool, error) { return d.f.Exists(name) }
func (d diskFolder) Delete() error                    { return d.f.Delete() }

func (d diskFolder) WriteNewFile(name string, data []byte) error {
	return d.f.WriteNewFile(name, data)
}

func (d diskFolder) ReadFile(name string) ([]byte, bool, error) {
	data, err := d.f.ReadFile(name)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
