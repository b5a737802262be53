package storage

import (
	"context"
	"errors"
	"io"
)

// ErrTooLarge is returned when an upload exceeds the configured size cap.
var ErrTooLarge = errors.New("file exceeds maximum allowed size")

// ObjectStore is the boundary to the external attachment storage
// collaborator. Save streams the reader to storage without buffering the
// whole payload, enforcing the size cap as it copies.
type ObjectStore interface {
	Save(ctx context.Context, key string, r io.Reader) (written int64, err error)
	URL(key string) string
	Delete(ctx context.Context, key string) error
}
