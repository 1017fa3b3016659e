package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadharvest/pkg/models"
	"leadharvest/pkg/storage"
)

// Manifest is the durable record of a finished extraction: enough to re-pull
// the export after the vendor's download link expires.
type Manifest struct {
	JobID        string    `json:"job_id"`
	OwnerUserID  string    `json:"owner_user_id"`
	Provider     string    `json:"provider"`
	SourceType   string    `json:"source_type"`
	Target       string    `json:"target"`
	ScrapedCount int       `json:"scraped_count"`
	DownloadURL  string    `json:"download_url"`
	ArchivedAt   time.Time `json:"archived_at"`
}

// Service writes result manifests to the configured blob store.
type Service struct {
	store storage.Storage
}

func NewService(store storage.Storage) *Service {
	return &Service{store: store}
}

// ArchiveResult stores the manifest under results/<job_id>.json.
func (s *Service) ArchiveResult(ctx context.Context, job *models.ExtractionJob, downloadURL string) error {
	manifest := Manifest{
		JobID:        job.ID.String(),
		OwnerUserID:  job.OwnerUserID.String(),
		Provider:     string(job.Provider),
		SourceType:   string(job.SourceType),
		Target:       job.Target,
		ScrapedCount: job.ScrapedCount,
		DownloadURL:  downloadURL,
		ArchivedAt:   time.Now().UTC(),
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest for job %s: %w", job.ID, err)
	}

	path := fmt.Sprintf("results/%s.json", job.ID)
	if err := s.store.Upload(ctx, path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to archive manifest for job %s: %w", job.ID, err)
	}

	return nil
}

// GetManifest loads a previously archived manifest.
func (s *Service) GetManifest(ctx context.Context, jobID string) (*Manifest, error) {
	path := fmt.Sprintf("results/%s.json", jobID)

	reader, err := s.store.Download(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest for job %s: %w", jobID, err)
	}

	var manifest Manifest
	if err := json.NewDecoder(reader).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest for job %s: %w", jobID, err)
	}

	return &manifest, nil
}
