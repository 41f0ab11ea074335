// Package blobstore stores uploaded files on local disk or in S3 through
// waffle's storage backends.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/waffle/pantry/storage"
)

// Backend names accepted by Config.Type.
const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// DefaultLocalURL is the prefix local files are served under when
// Config.LocalURL is empty.
const DefaultLocalURL = "/files"

// Config selects and configures a backend.
type Config struct {
	Type string

	LocalPath string // root directory for TypeLocal
	LocalURL  string // URL prefix the root is served under, e.g. "/files"

	S3Region    string
	S3Bucket    string
	S3Prefix    string // optional key prefix inside the bucket
	S3PublicURL string // optional base URL (CDN); defaults to the bucket's virtual-hosted URL
}

// Store puts and removes objects addressed by slash-separated keys and
// reports the URL clients fetch them from.
type Store struct {
	backend  storage.Store
	localURL string
}

// New builds the backend named by cfg.Type.
func New(ctx context.Context, cfg Config) (*Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "", TypeLocal:
		base := strings.TrimRight(cfg.LocalURL, "/")
		if base == "" {
			base = DefaultLocalURL
		}
		local, err := storage.NewLocal(storage.LocalConfig{
			BasePath: cfg.LocalPath,
			BaseURL:  base,
		})
		if err != nil {
			return nil, fmt.Errorf("blobstore: local: %w", err)
		}
		return &Store{backend: local, localURL: base}, nil
	case TypeS3:
		if cfg.S3Bucket == "" || cfg.S3Region == "" {
			return nil, errors.New("blobstore: s3 bucket and region are required")
		}
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:  cfg.S3Bucket,
			Region:  cfg.S3Region,
			Prefix:  cfg.S3Prefix,
			BaseURL: strings.TrimRight(cfg.S3PublicURL, "/"),
		})
		if err != nil {
			return nil, fmt.Errorf("blobstore: s3: %w", err)
		}
		return &Store{backend: s3}, nil
	default:
		return nil, fmt.Errorf("blobstore: unknown storage type %q", cfg.Type)
	}
}

// Wrap adapts an existing backend. Tests use it with storage.NewMemory.
func Wrap(backend storage.Store) *Store {
	return &Store{backend: backend}
}

// Backend exposes the underlying storage backend.
func (s *Store) Backend() storage.Store { return s.backend }

// Local returns the filesystem backend and the URL prefix it is served
// under, or ok=false for remote backends.
func (s *Store) Local() (local *storage.Local, urlPrefix string, ok bool) {
	local, ok = s.backend.(*storage.Local)
	return local, s.localURL, ok
}

// Put writes data under key and returns the object's URL.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	if err := s.backend.PutBytes(ctx, key, data, &storage.PutOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("blobstore: put %s: %w", key, err)
	}
	return s.backend.URL(key), nil
}

// Delete removes the object. A missing object is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := s.backend.Delete(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("blobstore: delete %s: %w", key, err)
	}
	return nil
}

// checkKey accepts only keys that are already in normalized relative form.
func checkKey(key string) error {
	if key == "" || key == "." || storage.NormalizePath(key) != key {
		return storage.ErrInvalidPath
	}
	return storage.ValidatePath(key)
}
