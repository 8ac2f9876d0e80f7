package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage persists uploaded activity evidence blobs. Implementations return
// the stored name for Save, which callers keep as the retrieval key.
type Storage interface {
	Save(originalName string, reader io.Reader) (storedName string, size int64, err error)
	Open(storedName string) (io.ReadCloser, error)
	Remove(storedName string) error
}

// Local stores blobs as flat files under a single directory. Stored names are
// prefixed with a UUID so uploads with the same original name never collide.
type Local struct {
	dir string
}

// NewLocal creates the upload directory if needed and returns a Local store.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &Local{dir: dir}, nil
}

func (l *Local) Save(originalName string, reader io.Reader) (string, int64, error) {
	storedName := uuid.NewString() + sanitizeExt(originalName)

	file, err := os.Create(filepath.Join(l.dir, storedName))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create blob: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		os.Remove(file.Name())
		return "", 0, fmt.Errorf("failed to write blob: %w", err)
	}

	return storedName, size, nil
}

func (l *Local) Open(storedName string) (io.ReadCloser, error) {
	path, err := l.resolve(storedName)
	if err != nil {
		return nil, err
	}

	return os.Open(path)
}

func (l *Local) Remove(storedName string) error {
	path, err := l.resolve(storedName)
	if err != nil {
		return err
	}

	return os.Remove(path)
}

// resolve rejects names that would escape the upload directory.
func (l *Local) resolve(storedName string) (string, error) {
	if storedName == "" || storedName != filepath.Base(storedName) {
		return "", fmt.Errorf("invalid stored name %q", storedName)
	}

	return filepath.Join(l.dir, storedName), nil
}

func sanitizeExt(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	for _, r := range ext {
		if r != '.' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}

	return ext
}
