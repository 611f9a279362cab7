package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrBlobNotFound is returned when a storage key does not resolve to a file.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrInvalidKey is returned for keys that are not plain file names.
	ErrInvalidKey = errors.New("invalid storage key")
)

// BlobStore persists raw file bytes under generated opaque keys.
type BlobStore interface {
	// Store writes src to a freshly generated key. The original name is used
	// only to preserve the file extension.
	Store(src io.Reader, originalName string) (key string, size int64, err error)

	// Exists reports whether a key resolves to a stored file.
	Exists(key string) bool

	// Open returns a read stream for the blob, or ErrBlobNotFound.
	Open(key string) (io.ReadCloser, error)

	// Remove deletes the blob. Removing an absent blob is not an error.
	Remove(key string) error
}

// LocalStore is a BlobStore backed by a single filesystem directory,
// created lazily on first write.
type LocalStore struct {
	dir string

	mkdirOnce sync.Once
	mkdirErr  error
}

var _ BlobStore = (*LocalStore)(nil)

// NewLocalStore creates a LocalStore rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Store writes src under a name of the form <unixmilli>-<uuid><ext>.
// O_EXCL guarantees the generated name never overwrites an existing file.
func (s *LocalStore) Store(src io.Reader, originalName string) (string, int64, error) {
	s.mkdirOnce.Do(func() {
		s.mkdirErr = os.MkdirAll(s.dir, 0o755)
	})
	if s.mkdirErr != nil {
		return "", 0, fmt.Errorf("failed to create upload directory: %w", s.mkdirErr)
	}

	ext := sanitizeExt(originalName)

	for {
		key := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)

		f, err := os.OpenFile(filepath.Join(s.dir, key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", 0, fmt.Errorf("failed to create blob file: %w", err)
		}

		size, err := io.Copy(f, src)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(filepath.Join(s.dir, key))
			return "", 0, fmt.Errorf("failed to write blob: %w", err)
		}

		return key, size, nil
	}
}

// Exists reports whether the key resolves to a regular file.
func (s *LocalStore) Exists(key string) bool {
	path, err := s.resolve(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Open returns a read stream for the stored blob.
func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// Remove deletes the stored blob, treating an already-absent file as success.
func (s *LocalStore) Remove(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove blob: %w", err)
	}
	return nil
}

// resolve maps a key to its on-disk path, rejecting anything that is not a
// plain file name so stored keys can never escape the upload directory.
func (s *LocalStore) resolve(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, key), nil
}

// sanitizeExt extracts a safe file extension from an untrusted original name.
func sanitizeExt(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
