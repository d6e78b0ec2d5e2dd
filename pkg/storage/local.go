package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalBlobStore persists uploaded files on disk under a base directory and
// maps stored keys to public URLs. Keys are opaque to callers; only the
// returned reference (URL, name, size, type) is ever persisted in the
// database.
type LocalBlobStore struct {
	baseDir        string
	publicBasePath string
}

// NewLocalBlobStore ensures the base directory exists and returns a handle.
func NewLocalBlobStore(baseDir, publicBasePath string) (*LocalBlobStore, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if publicBasePath == "" {
		publicBasePath = "/uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalBlobStore{
		baseDir:        baseDir,
		publicBasePath: strings.TrimRight(publicBasePath, "/"),
	}, nil
}

// NewKey derives a unique storage key from the original filename.
func (s *LocalBlobStore) NewKey(originalName string) string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), sanitizeName(originalName))
}

// Save streams the reader into the file identified by key and returns the
// key. The write completes (or fails) before any metadata referencing it may
// be created.
func (s *LocalBlobStore) Save(key string, r io.Reader) (string, error) {
	target := s.resolve(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("write upload stream: %w", err)
	}
	return key, nil
}

// Open returns a read-only handle for a stored blob.
func (s *LocalBlobStore) Open(key string) (*os.File, error) {
	file, err := os.Open(s.resolve(key))
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return file, nil
}

// Delete removes a stored blob if present.
func (s *LocalBlobStore) Delete(key string) error {
	if err := os.Remove(s.resolve(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// PublicURL maps a storage key to its public path.
func (s *LocalBlobStore) PublicURL(key string) string {
	return s.publicBasePath + "/" + key
}

// KeyFromURL recovers the storage key from a public URL previously produced
// by PublicURL. Returns false when the URL is outside the store.
func (s *LocalBlobStore) KeyFromURL(url string) (string, bool) {
	prefix := s.publicBasePath + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// BaseDir exposes the directory served as static content.
func (s *LocalBlobStore) BaseDir() string {
	return s.baseDir
}

// ListKeys walks the base directory and returns all stored keys. Used by the
// orphan sweep.
func (s *LocalBlobStore) ListKeys() ([]string, error) {
	keys := make([]string, 0)
	err := filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list upload keys: %w", err)
	}
	return keys, nil
}

func (s *LocalBlobStore) resolve(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(path.Clean("/"+key)))
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
