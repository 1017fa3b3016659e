package reconciler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"leadharvest/internal/jobs"
	"leadharvest/internal/providers"
	"leadharvest/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAdapter returns canned responses per handle and counts calls.
type scriptedAdapter struct {
	mu       sync.Mutex
	name     models.Provider
	statuses map[string]*providers.Status
	errs     map[string]error
	results  map[string]string
	calls    map[string]int
	block    chan struct{}
}

func newScriptedAdapter(name models.Provider) *scriptedAdapter {
	return &scriptedAdapter{
		name:     name,
		statuses: make(map[string]*providers.Status),
		errs:     make(map[string]error),
		results:  make(map[string]string),
		calls:    make(map[string]int),
	}
}

func (a *scriptedAdapter) Name() models.Provider                          { return a.name }
func (a *scriptedAdapter) MinLeads() int                                  { return 10 }
func (a *scriptedAdapter) RequiresCollectionType() bool                   { return false }
func (a *scriptedAdapter) Validate(req *models.SubmitRequest) error       { return nil }
func (a *scriptedAdapter) Submit(ctx context.Context, req *models.SubmitRequest) (string, error) {
	return "unused", nil
}

func (a *scriptedAdapter) QueryStatus(ctx context.Context, handle string) (*providers.Status, error) {
	if a.block != nil {
		<-a.block
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls[handle]++
	if err, ok := a.errs[handle]; ok {
		return nil, err
	}
	if status, ok := a.statuses[handle]; ok {
		return status, nil
	}
	return &providers.Status{State: models.StateRunning}, nil
}

func (a *scriptedAdapter) FetchResult(ctx context.Context, handle string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err, ok := a.errs[handle]; ok {
		return "", err
	}
	if url, ok := a.results[handle]; ok {
		return url, nil
	}
	return "", errors.New("result not ready")
}

func (a *scriptedAdapter) callCount(handle string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[handle]
}

type recordingArchiver struct {
	mu   sync.Mutex
	urls map[uuid.UUID]string
	err  error
}

func (r *recordingArchiver) ArchiveResult(ctx context.Context, job *models.ExtractionJob, downloadURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.urls == nil {
		r.urls = make(map[uuid.UUID]string)
	}
	r.urls[job.ID] = downloadURL
	return r.err
}

func seedJob(t *testing.T, svc jobs.JobService, provider models.Provider, handle string) *models.ExtractionJob {
	t.Helper()
	job := &models.ExtractionJob{
		OwnerUserID: uuid.New(),
		Provider:    provider,
		SourceType:  models.SourceKeyword,
		Target:      "golang",
		MaxLeads:    50,
		State:       models.StateCreated,
	}
	require.NoError(t, svc.CreateJob(context.Background(), job))
	require.NoError(t, svc.MarkQueued(context.Background(), job.ID, handle))
	return job
}

func TestStatusSweepAppliesVendorOutcomes(t *testing.T) {
	adapter := newScriptedAdapter(models.ProviderMicroBlog)
	svc := jobs.NewJobServiceImpl(jobs.NewMemoryRepository())
	r := New(svc, providers.NewRegistryFromAdapters(adapter), nil, time.Minute, time.Minute)

	running := seedJob(t, svc, models.ProviderMicroBlog, "h-running")
	succeeded := seedJob(t, svc, models.ProviderMicroBlog, "h-succeeded")
	failed := seedJob(t, svc, models.ProviderMicroBlog, "h-failed")

	adapter.statuses["h-running"] = &providers.Status{State: models.StateRunning, ScrapedCount: 17}
	adapter.statuses["h-succeeded"] = &providers.Status{State: models.StateSucceeded, ScrapedCount: 50}
	adapter.statuses["h-failed"] = &providers.Status{State: models.StateFailed, ErrorMessage: "account suspended"}

	r.StatusSweep(context.Background())

	got, err := svc.GetJob(context.Background(), running.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateRunning, got.State)
	assert.Equal(t, 17, got.ScrapedCount)

	got, err = svc.GetJob(context.Background(), succeeded.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateSucceeded, got.State)
	assert.Equal(t, 50, got.ScrapedCount)
	assert.NotNil(t, got.CompletedAt)

	got, err = svc.GetJob(context.Background(), failed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateFailed, got.State)
	assert.Equal(t, "account suspended", got.Error)
}

func TestStatusSweepTransientErrorOnlyTouches(t *testing.T) {
	adapter := newScriptedAdapter(models.ProviderMicroBlog)
	svc := jobs.NewJobServiceImpl(jobs.NewMemoryRepository())
	r := New(svc, providers.NewRegistryFromAdapters(adapter), nil, time.Minute, time.Minute)

	job := seedJob(t, svc, models.ProviderMicroBlog, "h-flaky")
	adapter.errs["h-flaky"] = &providers.TransientError{
		Provider: models.ProviderMicroBlog,
		Err:      errors.New("connection reset"),
	}

	before, err := svc.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	// Three consecutive transient failures leave the job queued; only
	// updated_at advances.
	for i := 0; i < 3; i++ {
		r.StatusSweep(context.Background())
	}

	after, err := svc.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateQueued, after.State)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.Equal(t, 3, adapter.callCount("h-flaky"))
}

func TestStatusSweepPermanentErrorFailsJob(t *testing.T) {
	adapter := newScriptedAdapter(models.ProviderMicroBlog)
	svc := jobs.NewJobServiceImpl(jobs.NewMemoryRepository())
	r := New(svc, providers.NewRegistryFromAdapters(adapter), nil, time.Minute, time.Minute)

	job := seedJob(t, svc, models.ProviderMicroBlog, "h-gone")
	adapter.errs["h-gone"] = &providers.PermanentError{
		Provider:   models.ProviderMicroBlog,
		StatusCode: 404,
		Message:    "unknown job",
	}

	r.StatusSweep(context.Background())

	got, err := svc.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateFailed, got.State)
	assert.Contains(t, got.Error, "unknown job")
}

func TestStatusSweepIsolatesFailures(t *testing.T) {
	adapter := newScriptedAdapter(models.ProviderMicroBlog)
	svc := jobs.NewJobServiceImpl(jobs.NewMemoryRepository())
	r := New(svc, providers.NewRegistryFromAdapters(adapter), nil, time.Minute, time.Minute)

	broken := seedJob(t, svc, models.ProviderMicroBlog, "h-broken")
	healthy := seedJob(t, svc, models.ProviderMicroBlog, "h-healthy")

	adapter.errs["h-broken"] = &providers.TransientError{
		Provider: models.ProviderMicroBlog,
		Err:      errors.New("vendor down"),
	}
	adapter.statuses["h-healthy"] = &providers.Status{State: models.StateSucceeded, ScrapedCount: 33}

	r.StatusSweep(context.Background())

	got, err := svc.GetJob(context.Background(), healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateSucceeded, got.State)

	got, err = svc.GetJob(context.Background(), broken.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateQueued, got.State)
}

func TestOverlappingSweepsSkipInFlightJobs(t *testing.T) {
	adapter := newScriptedAdapter(models.ProviderMicroBlog)
	adapter.block = make(chan struct{})
	svc := jobs.NewJobServiceImpl(jobs.NewMemoryRepository())
	r := New(svc, providers.NewRegistryFromAdapters(adapter), nil, time.Minute, time.Minute)

	job := seedJob(t, svc, models.ProviderMicroBlog, "h-slow")

	// First sweep blocks inside QueryStatus.
	done := make(chan struct{})
	go func() {
		r.StatusSweep(context.Background())
		close(done)
	}()

	// Wait until the job is marked in flight.
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		_, busy := r.inFlight[job.ID]
		return busy
	}, time.Second, time.Millisecond)

	// A second sweep must skip it entirely.
	r.StatusSweep(context.Background())
	assert.Equal(t, 0, adapter.callCount("h-slow"))

	close(adapter.block)
	<-done
	assert.Equal(t, 1, adapter.callCount("h-slow"))
}

func TestResultSweepStoresRefAndArchives(t *testing.T) {
	adapter := newScriptedAdapter(models.ProviderMicroBlog)
	svc := jobs.NewJobServiceImpl(jobs.NewMemoryRepository())
	archiver := &recordingArchiver{}
	r := New(svc, providers.NewRegistryFromAdapters(adapter), archiver, time.Minute, time.Minute)

	job := seedJob(t, svc, models.ProviderMicroBlog, "h-done")
	require.NoError(t, svc.MarkSucceeded(context.Background(), job.ID, 50))
	adapter.results["h-done"] = "https://cdn.example.com/h-done.csv"

	r.ResultSweep(context.Background())

	got, err := svc.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/h-done.csv", got.ResultRef)
	assert.Equal(t, "https://cdn.example.com/h-done.csv", archiver.urls[job.ID])

	// The job no longer appears in the result sweep.
	pending, err := svc.ListAwaitingResult(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestResultSweepLeavesJobWhenNotReady(t *testing.T) {
	adapter := newScriptedAdapter(models.ProviderMicroBlog)
	svc := jobs.NewJobServiceImpl(jobs.NewMemoryRepository())
	r := New(svc, providers.NewRegistryFromAdapters(adapter), nil, time.Minute, time.Minute)

	job := seedJob(t, svc, models.ProviderMicroBlog, "h-later")
	require.NoError(t, svc.MarkSucceeded(context.Background(), job.ID, 50))

	r.ResultSweep(context.Background())

	got, err := svc.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ResultRef)

	pending, err := svc.ListAwaitingResult(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestPollUntilTerminalSucceeds(t *testing.T) {
	adapter := newScriptedAdapter(models.ProviderMicroBlog)
	adapter.statuses["h-1"] = &providers.Status{State: models.StateSucceeded, ScrapedCount: 20}

	status, err := PollUntilTerminal(context.Background(), adapter, "h-1", time.Millisecond, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StateSucceeded, status.State)
	assert.Equal(t, 20, status.ScrapedCount)
}

func TestPollUntilTerminalTimesOut(t *testing.T) {
	adapter := newScriptedAdapter(models.ProviderMicroBlog)
	adapter.statuses["h-1"] = &providers.Status{State: models.StateRunning, ScrapedCount: 7}

	status, err := PollUntilTerminal(context.Background(), adapter, "h-1", time.Millisecond, 3)
	require.ErrorIs(t, err, ErrPollTimeout)
	require.NotNil(t, status)
	assert.Equal(t, models.StateRunning, status.State)
	assert.Equal(t, 3, adapter.callCount("h-1"))
}

func TestPollUntilTerminalSurvivesTransientErrors(t *testing.T) {
	adapter := newScriptedAdapter(models.ProviderMicroBlog)
	adapter.errs["h-1"] = &providers.TransientError{
		Provider: models.ProviderMicroBlog,
		Err:      errors.New("gateway timeout"),
	}

	_, err := PollUntilTerminal(context.Background(), adapter, "h-1", time.Millisecond, 3)
	require.ErrorIs(t, err, ErrPollTimeout)
	assert.Equal(t, 3, adapter.callCount("h-1"))
}

func TestPollUntilTerminalAbortsOnPermanentError(t *testing.T) {
	adapter := newScriptedAdapter(models.ProviderMicroBlog)
	adapter.errs["h-1"] = &providers.PermanentError{
		Provider:   models.ProviderMicroBlog,
		StatusCode: 410,
		Message:    "job purged",
	}

	_, err := PollUntilTerminal(context.Background(), adapter, "h-1", time.Millisecond, 10)
	require.Error(t, err)
	assert.Equal(t, 1, adapter.callCount("h-1"))

	var permanent *providers.PermanentError
	assert.True(t, errors.As(err, &permanent))
}

func TestPollUntilTerminalHonorsContext(t *testing.T) {
	adapter := newScriptedAdapter(models.ProviderMicroBlog)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PollUntilTerminal(ctx, adapter, "h-1", time.Minute, 30)
	require.ErrorIs(t, err, context.Canceled)
}
