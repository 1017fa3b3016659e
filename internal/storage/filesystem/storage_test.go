package filesystem

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStorage(t *testing.T) {
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("Upload and Download", func(t *testing.T) {
		testData := `{"job_id":"abc","download_url":"https://cdn.example.com/x.csv"}`
		testPath := "results/abc.json"

		err := storage.Upload(ctx, testPath, strings.NewReader(testData))
		assert.NoError(t, err)

		exists, err := storage.Exists(ctx, testPath)
		assert.NoError(t, err)
		assert.True(t, exists)

		reader, err := storage.Download(ctx, testPath)
		assert.NoError(t, err)

		buf := make([]byte, len(testData))
		n, err := reader.Read(buf)
		assert.NoError(t, err)
		assert.Equal(t, len(testData), n)
		assert.Equal(t, testData, string(buf))
	})

	t.Run("List files", func(t *testing.T) {
		storage, err := NewFilesystemStorage(t.TempDir())
		require.NoError(t, err)

		files := map[string]string{
			"results/job1.json":  `{"job_id":"job1"}`,
			"results/job2.json":  `{"job_id":"job2"}`,
			"exports/job1.csv":   "email\nalice@example.com",
			"exports/job2.csv":   "email\nbob@example.com",
		}

		for path, content := range files {
			err := storage.Upload(ctx, path, strings.NewReader(content))
			assert.NoError(t, err)
		}

		manifests, err := storage.List(ctx, "results/")
		assert.NoError(t, err)
		assert.Len(t, manifests, 2)

		exports, err := storage.List(ctx, "exports/")
		assert.NoError(t, err)
		assert.Len(t, exports, 2)
	})

	t.Run("Delete file", func(t *testing.T) {
		testPath := "to-delete.json"

		err := storage.Upload(ctx, testPath, strings.NewReader("{}"))
		assert.NoError(t, err)

		err = storage.Delete(ctx, testPath)
		assert.NoError(t, err)

		exists, err := storage.Exists(ctx, testPath)
		assert.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Non-existent file", func(t *testing.T) {
		_, err := storage.Download(ctx, "non-existent.json")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "file not found")

		exists, err := storage.Exists(ctx, "non-existent.json")
		assert.NoError(t, err)
		assert.False(t, exists)
	})
}
