package diskstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// FileStore defines the contract for the evidence file volume.
type FileStore interface {
	// Save writes the reader to a new file under the store root and returns
	// the stored basename. The caller never controls the name on disk.
	Save(r io.Reader, originalName string) (string, error)
	// Open opens a previously stored file by basename.
	Open(storedName string) (*os.File, error)
	// Remove deletes a stored file. Missing files are not an error.
	Remove(storedName string) error
	// FreeBytes reports the free space on the volume holding the root.
	FreeBytes() (uint64, error)
}

type diskStore struct {
	root string
}

// New creates a FileStore rooted at dir, creating it if needed.
func New(dir string) (FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &diskStore{root: abs}, nil
}

func (s *diskStore) Save(r io.Reader, originalName string) (string, error) {
	ext := filepath.Ext(originalName)
	if len(ext) > 16 {
		ext = ""
	}
	name := uuid.NewString() + ext

	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create evidence file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write evidence file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}

	return name, nil
}

func (s *diskStore) Open(storedName string) (*os.File, error) {
	path, err := s.resolve(storedName)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (s *diskStore) Remove(storedName string) error {
	path, err := s.resolve(storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *diskStore) FreeBytes() (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(s.root, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", s.root, err)
	}
	return st.Bavail * uint64(st.Bsize), nil
}

// resolve joins name onto the root and verifies the result stays inside it.
// Stored names are server-generated, but the check also protects reads if a
// stored value were ever corrupted.
func (s *diskStore) resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}
	path := filepath.Join(s.root, filepath.Clean("/"+name))
	if path != s.root && !strings.HasPrefix(path, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("file path escapes store root")
	}
	if filepath.Base(path) != name {
		return "", fmt.Errorf("file name must be a bare basename")
	}
	return path, nil
}
