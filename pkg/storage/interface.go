package storage

import (
	"context"
	"io"
)

// Storage is the blob store used for result manifests and exported lead
// files. Implementations: local filesystem and S3-compatible object stores.
type Storage interface {
	Upload(ctx context.Context, path string, data io.Reader) error

	Download(ctx context.Context, path string) (io.Reader, error)

	Exists(ctx context.Context, path string) (bool, error)

	Delete(ctx context.Context, path string) error

	// List returns all stored paths under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// GetURL returns an access URL for a stored file. S3 backends presign;
	// the filesystem backend returns the relative path.
	GetURL(ctx context.Context, path string) (string, error)
}

type StorageConfig struct {
	Type      string // "filesystem" or "s3"
	BasePath  string // filesystem only
	Endpoint  string // S3-compatible endpoint
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}
