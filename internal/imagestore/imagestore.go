// Package imagestore keeps a copy of every ingested screenshot and hands out
// opaque references that items persist, so an image can be shown again after
// the original file is gone.
package imagestore

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidRef is returned for references that were not issued by a Store.
var ErrInvalidRef = errors.New("invalid image reference")

// Store is a flat directory of content addressed by generated references.
type Store struct {
	dir   string
	newID func() string
}

// New returns a Store rooted at dir, creating it when needed.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("image directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	return &Store{dir: dir, newID: uuid.NewString}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string {
	return s.dir
}

// Import copies the file at src into the store and returns its reference and
// contents. The copy is verified by size and SHA256 before the reference is
// issued.
func (s *Store) Import(src string) (string, []byte, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", nil, fmt.Errorf("read image: %w", err)
	}
	ref, err := s.Put(data, filepath.Ext(src))
	if err != nil {
		return "", nil, err
	}
	return ref, data, nil
}

// Put writes data under a new reference. ext is kept as the file suffix when
// it looks like an extension.
func (s *Store) Put(data []byte, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if len(ext) > 6 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	ref := s.newID() + ext
	dst := filepath.Join(s.dir, ref)
	if err := writeVerified(bytes.NewReader(data), int64(len(data)), dst); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return ref, nil
}

// Path resolves a reference to its file path.
func (s *Store) Path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return filepath.Join(s.dir, ref), nil
}

// Read returns the stored bytes for ref.
func (s *Store) Read(ref string) ([]byte, error) {
	path, err := s.Path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", ref, err)
	}
	return data, nil
}

// Remove deletes the stored file for ref. A missing file is not an error.
func (s *Store) Remove(ref string) error {
	path, err := s.Path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image %s: %w", ref, err)
	}
	return nil
}

// writeVerified streams src to dst with SHA256 + size integrity verification.
// Removes dst on mismatch.
func writeVerified(src io.Reader, size int64, dst string) error {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	tee := io.TeeReader(src, srcHasher)
	written, err := io.Copy(out, tee)
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	if written != size {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", size, written)
	}

	stored, err := os.Open(dst)
	if err != nil {
		return err
	}
	defer stored.Close()
	dstHasher := sha256.New()
	if _, err := io.Copy(dstHasher, stored); err != nil {
		return err
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}
