package store

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when an attachment file no longer exists.
// Callers treat it as "attachment unavailable", not as a fatal error.
var ErrNotFound = errors.New("attachment not found")

// ImageStore keeps uploaded images content-addressed on disk. The
// filename is derived from an MD5 of the bytes plus the owning thread
// id, so the same upload is written at most once.
type ImageStore struct {
	dir string
}

// NewImageStore creates the store directory if needed
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// Put stores image bytes under the given namespace (a thread id) and
// returns the derived filename. Storing identical bytes twice in the
// same namespace yields the same filename and performs a single write.
func (s *ImageStore) Put(data []byte, namespace string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty image data")
	}

	sum := md5.Sum(data)
	name := hex.EncodeToString(sum[:]) + "." + imageExt(data)
	if namespace != "" {
		name = namespace + "_" + name
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err == nil {
		return name, nil
	}

	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return name, nil
}

// Get reads an attachment by its stored filename
func (s *ImageStore) Get(filename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", filename, err)
	}
	return data, nil
}

// Path returns the on-disk location of a stored attachment, reporting
// false when the file is gone. Display surfaces use this as a
// chat.PathResolver.
func (s *ImageStore) Path(filename string) (string, bool) {
	path := filepath.Join(s.dir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// DeleteNamespace removes every attachment belonging to the given
// thread id. Called when the owning thread is deleted.
func (s *ImageStore) DeleteNamespace(namespace string) error {
	if namespace == "" {
		return errors.New("empty namespace")
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, namespace+"_*"))
	if err != nil {
		return fmt.Errorf("failed to scan image directory: %w", err)
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
	}
	return nil
}

// imageExt derives a file extension from the sniffed content type,
// defaulting to png for anything unrecognized
func imageExt(data []byte) string {
	mimeType := http.DetectContentType(data)
	switch {
	case strings.HasSuffix(mimeType, "jpeg"):
		return "jpg"
	case strings.HasSuffix(mimeType, "gif"):
		return "gif"
	case strings.HasSuffix(mimeType, "webp"):
		return "webp"
	default:
		return "png"
	}
}
