package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/serviceflow/helpdesk-service/internal/config"
)

// LocalStore writes attachment bytes under a local directory. Keys are
// slash-separated paths relative to the root.
type LocalStore struct {
	root    string
	baseURL string
	maxSize int64
}

// NewLocalStore constructs the store.
func NewLocalStore(cfg config.StorageConfig) *LocalStore {
	return &LocalStore{
		root:    cfg.LocalDir,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		maxSize: cfg.MaxSizeBytes,
	}
}

// Save streams r to disk. Copying reads one byte past the cap so an
// exactly-at-limit upload succeeds while anything larger fails with
// ErrTooLarge; the partial file is removed on failure.
func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	limited := io.LimitReader(r, s.maxSize+1)
	written, err := io.Copy(f, limited)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	return written, nil
}

// URL returns the public URL for a stored key.
func (s *LocalStore) URL(key string) string {
	return s.baseURL + "/" + key
}

// Delete removes a stored object; missing objects are not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
