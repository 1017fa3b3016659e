package storage

import (
	"fmt"

	"leadharvest/internal/storage/filesystem"
	"leadharvest/internal/storage/s3"
	"leadharvest/pkg/storage"
)

// NewStorage builds the configured storage backend.
func NewStorage(config *storage.StorageConfig) (storage.Storage, error) {
	switch config.Type {
	case "filesystem":
		return filesystem.NewFilesystemStorage(config.BasePath)
	case "s3":
		return s3.NewS3Storage(config)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", config.Type)
	}
}
