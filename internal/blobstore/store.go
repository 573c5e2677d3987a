package blobstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"contact-photos/internal/filesystem"
	"contact-photos/internal/logging"
)

var (
	// ErrNotFound is returned when a folder or file does not exist.
	ErrNotFound = errors.New("blobstore: not found")
	// ErrExists is returned by WriteNewFile when the file is already present.
	ErrExists = errors.New("blobstore: already exists")
	// ErrPermission is returned when the underlying filesystem denies access.
	ErrPermission = errors.New("blobstore: permission denied")
	// ErrInvalidName is returned for names that are not a single path element.
	ErrInvalidName = errors.New("blobstore: invalid name")
)

// tempPrefix marks staging files; they are hidden from List.
const tempPrefix = ".tmp-"

// Store is a directory of folders.
type Store struct {
	root  string
	retry filesystem.RetryConfig
}

// New creates the root directory if needed and returns a Store over it.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob store root %s: %w", root, mapError(err))
	}
	logging.Debug("Blob store ready at %s", root)
	return &Store{root: root, retry: filesystem.DefaultRetryConfig()}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, tempPrefix) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// mapError translates filesystem errors to the package sentinels while keeping
// the original error in the chain.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: %w", ErrExists, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermission, err)
	default:
		return err
	}
}

// GetOrCreateFolder returns the named folder, creating it if it is absent.
// Concurrent callers converge on the same directory.
func (s *Store) GetOrCreateFolder(name string) (*Folder, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	path := filepath.Join(s.root, name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create folder %s: %w", name, mapError(err))
	}
	return &Folder{name: name, path: path, retry: s.retry}, nil
}

// Folder looks up an existing folder.
func (s *Store) Folder(name string) (*Folder, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	path := filepath.Join(s.root, name)
	info, err := filesystem.StatWithRetry(path, s.retry)
	if err != nil {
		return nil, mapError(err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a folder", ErrNotFound, name)
	}
	return &Folder{name: name, path: path, retry: s.retry}, nil
}

// Folders lists the names of all folders in the store.
func (s *Store) Folders() ([]string, error) {
	entries, err := filesystem.ReadDirWithRetry(s.root, s.retry)
	if err != nil {
		return nil, mapError(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Folder is a flat container of named files.
type Folder struct {
	name  string
	path  string
	retry filesystem.RetryConfig
}

// Name returns the folder identifier.
func (f *Folder) Name() string {
	return f.name
}

// List returns the file names in the folder, sorted. Staging files are skipped.
func (f *Folder) List() ([]string, error) {
	entries, err := filesystem.ReadDirWithRetry(f.path, f.retry)
	if err != nil {
		return nil, mapError(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether the named file is present.
func (f *Folder) Exists(name string) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}
	_, err := filesystem.StatWithRetry(filepath.Join(f.path, name), f.retry)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, mapError(err)
}

// ReadFile returns the content of the named file, or ErrNotFound.
func (f *Folder) ReadFile(name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := filesystem.ReadFileWithRetry(filepath.Join(f.path, name), f.retry)
	if err != nil {
		return nil, mapError(err)
	}
	return data, nil
}

// WriteNewFile stores data under name. It fails with ErrExists if the file is
// already present. The content is written to a staging file first and then
// linked into place, so the target appears complete or not at all.
func (f *Folder) WriteNewFile(name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	target := filepath.Join(f.path, name)

	tmp, err := os.CreateTemp(f.path, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", name, mapError(err))
	}
	tmpPath := tmp.Name()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.Warn("failed to remove staging file %s: %v", tmpPath, err)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, mapError(err))
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, mapError(err))
	}

	err = os.Link(tmpPath, target)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}

	// Some filesystems do not support hard links; fall back to rename.
	logging.Debug("link failed for %s (%v), falling back to rename", target, err)
	if exists, statErr := f.Exists(name); statErr == nil && exists {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, mapError(err))
	}
	return nil
}

// Delete removes the folder and everything in it. Deleting an absent folder
// is not an error.
func (f *Folder) Delete() error {
	if err := os.RemoveAll(f.path); err != nil {
		return fmt.Errorf("failed to delete folder %s: %w", f.name, mapError(err))
	}
	return nil
}
