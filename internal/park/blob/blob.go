// Package blob stores report photo attachments. The interface mirrors the
// persistence layer's driver split so alternative backends (object storage)
// can slot in without touching the services.
package blob

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound    = errors.New("blob: not found")
	ErrUnsupported = errors.New("blob: unsupported file type")
)

// Store persists and serves report photos. Put returns the stable photo
// reference to record on the report.
type Store interface {
	// Put saves the photo under the report's reference ID. seq keeps
	// multiple photos on one report distinct.
	Put(ctx context.Context, reportRef string, seq int, filename string, r io.Reader) (string, error)

	// Open returns the photo content for a reference returned by Put.
	Open(ctx context.Context, photoRef string) (io.ReadCloser, error)
}
