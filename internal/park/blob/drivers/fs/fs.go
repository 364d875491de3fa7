// Package fs is the filesystem driver for report photo storage. Photos live
// flat in one directory, named by report reference plus sequence, so the
// photo reference doubles as the on-disk filename.
package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caremypark/caremypark/internal/park/blob"
)

// allowedExts are the photo types accepted for upload.
var allowedExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

type Store struct {
	dir string
}

var _ blob.Store = (*Store)(nil)

// NewStore ensures the upload directory exists and returns the driver.
func NewStore(dir string) (*Store, error) {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("blob/fs: create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Put(ctx context.Context, reportRef string, seq int, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExts[ext]; !ok {
		return "", blob.ErrUnsupported
	}

	// The photo reference is the filename: reference + sequence + original
	// base name, sanitized to its final path element.
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	photoRef := fmt.Sprintf("%s_%d_%s", reportRef, seq, base)

	path := filepath.Join(s.dir, photoRef)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640)
	if err != nil {
		return "", fmt.Errorf("blob/fs: create %s: %w", photoRef, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("blob/fs: write %s: %w", photoRef, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("blob/fs: close %s: %w", photoRef, err)
	}
	return photoRef, nil
}

func (s *Store) Open(ctx context.Context, photoRef string) (io.ReadCloser, error) {
	// Reject anything that could escape the upload directory.
	if photoRef == "" || photoRef != filepath.Base(photoRef) {
		return nil, blob.ErrNotFound
	}

	f, err := os.Open(filepath.Join(s.dir, photoRef))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, blob.ErrNotFound
		}
		return nil, fmt.Errorf("blob/fs: open %s: %w", photoRef, err)
	}
	return f, nil
}
