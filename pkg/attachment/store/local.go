package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes objects below a directory. BaseURL, when set, is the
// public prefix the directory is served under.
type LocalStore struct {
	Dir     string
	BaseURL string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("store: local directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create %s: %w", dir, err)
	}
	return &LocalStore{Dir: dir, BaseURL: baseURL}, nil
}

func (s *LocalStore) Put(ctx context.Context, obj Object) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}
	if obj.Key == "" {
		return Stored{}, ErrEmptyKey
	}
	target := filepath.Join(s.Dir, filepath.FromSlash(obj.Key))
	if rel, err := filepath.Rel(s.Dir, target); err != nil || strings.HasPrefix(rel, "..") {
		return Stored{}, fmt.Errorf("store: key %q escapes %s", obj.Key, s.Dir)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Stored{}, fmt.Errorf("store: create %s: %w", filepath.Dir(target), err)
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Stored{}, fmt.Errorf("store: open %s: %w", target, err)
	}
	if _, err := io.Copy(f, obj.Body); err != nil {
		f.Close()
		os.Remove(target)
		return Stored{}, fmt.Errorf("store: write %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return Stored{}, fmt.Errorf("store: close %s: %w", target, err)
	}
	return Stored{Key: obj.Key, URL: joinURL(s.BaseURL, obj.Key)}, nil
}
