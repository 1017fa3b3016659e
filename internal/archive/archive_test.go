package archive

import (
	"context"
	"testing"

	"leadharvest/internal/storage/filesystem"
	"leadharvest/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveAndReadBackManifest(t *testing.T) {
	store, err := filesystem.NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	service := NewService(store)
	job := &models.ExtractionJob{
		ID:           uuid.New(),
		OwnerUserID:  uuid.New(),
		Provider:     models.ProviderPostSearch,
		SourceType:   models.SourceKeyword,
		Target:       "devops",
		ScrapedCount: 120,
	}

	err = service.ArchiveResult(context.Background(), job, "https://cdn.example.com/export.csv")
	require.NoError(t, err)

	exists, err := store.Exists(context.Background(), "results/"+job.ID.String()+".json")
	require.NoError(t, err)
	assert.True(t, exists)

	manifest, err := service.GetManifest(context.Background(), job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, job.ID.String(), manifest.JobID)
	assert.Equal(t, "post-search", manifest.Provider)
	assert.Equal(t, 120, manifest.ScrapedCount)
	assert.Equal(t, "https://cdn.example.com/export.csv", manifest.DownloadURL)
	assert.False(t, manifest.ArchivedAt.IsZero())
}

func TestGetManifestMissing(t *testing.T) {
	store, err := filesystem.NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	_, err = NewService(store).GetManifest(context.Background(), uuid.New().String())
	assert.Error(t, err)
}
