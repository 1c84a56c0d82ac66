package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore holds transcript payloads too large for an inline jsonb column.
type BlobStore interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, error)
}

// FileBlobStore keeps blobs on the local filesystem under a root directory,
// sharded by the first two characters of the key.
type FileBlobStore struct {
	root string
}

func NewFileBlobStore(root string) (*FileBlobStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blob store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FileBlobStore{root: root}, nil
}

func (s *FileBlobStore) path(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "..") || strings.ContainsRune(key, filepath.Separator) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	shard := "00"
	if len(key) >= 2 {
		shard = key[:2]
	}
	return filepath.Join(s.root, shard, key), nil
}

func (s *FileBlobStore) Put(key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (s *FileBlobStore) Get(key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}
