package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"leadharvest/internal/jobs"
	"leadharvest/internal/ledger"
	"leadharvest/internal/providers"
	"leadharvest/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter is a scriptable vendor for gateway tests.
type fakeAdapter struct {
	name           models.Provider
	minLeads       int
	needsType      bool
	validateErr    error
	submitErr      error
	submittedCount int
}

func (f *fakeAdapter) Name() models.Provider          { return f.name }
func (f *fakeAdapter) MinLeads() int                  { return f.minLeads }
func (f *fakeAdapter) RequiresCollectionType() bool   { return f.needsType }
func (f *fakeAdapter) Validate(req *models.SubmitRequest) error { return f.validateErr }

func (f *fakeAdapter) Submit(ctx context.Context, req *models.SubmitRequest) (string, error) {
	f.submittedCount++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return fmt.Sprintf("handle-%d", f.submittedCount), nil
}

func (f *fakeAdapter) QueryStatus(ctx context.Context, handle string) (*providers.Status, error) {
	return &providers.Status{State: models.StateRunning}, nil
}

func (f *fakeAdapter) FetchResult(ctx context.Context, handle string) (string, error) {
	return "https://cdn.example.com/result.csv", nil
}

type fixture struct {
	gateway *Gateway
	jobs    jobs.JobService
	ledger  *ledger.LedgerService
	adapter *fakeAdapter
	user    uuid.UUID
}

func newFixture(t *testing.T, tier models.PlanTier, startingCredits int) *fixture {
	t.Helper()

	adapter := &fakeAdapter{name: models.ProviderMicroBlog, minLeads: 10}
	registry := providers.NewRegistryFromAdapters(adapter)
	jobService := jobs.NewJobServiceImpl(jobs.NewMemoryRepository())
	ledgerService := ledger.NewService(ledger.NewMemoryRepository())

	user := uuid.New()
	_, err := ledgerService.EnsureAccount(context.Background(), user, tier, nil)
	require.NoError(t, err)
	if startingCredits > 0 {
		_, err = ledgerService.Credit(context.Background(), user, startingCredits, models.ReasonFreeGrant, 0)
		require.NoError(t, err)
	}

	return &fixture{
		gateway: New(jobService, ledgerService, registry, 5*time.Second),
		jobs:    jobService,
		ledger:  ledgerService,
		adapter: adapter,
		user:    user,
	}
}

func validRequest() *models.SubmitRequest {
	return &models.SubmitRequest{
		Provider:      models.ProviderMicroBlog,
		SourceType:    models.SourceKeyword,
		Target:        "devops leads",
		MaxLeads:      50,
		TermsAccepted: true,
	}
}

func TestSubmitHappyPath(t *testing.T) {
	f := newFixture(t, models.TierFree, 100)

	job, err := f.gateway.Submit(context.Background(), f.user, validRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StateQueued, job.State)
	assert.Equal(t, "handle-1", job.ProviderJobHandle)

	balance, err := f.ledger.Balance(context.Background(), f.user)
	require.NoError(t, err)
	assert.Equal(t, 50, balance)
}

func TestValidationOrderFirstViolationWins(t *testing.T) {
	f := newFixture(t, models.TierFree, 1000)

	// Empty target reported before anything else, even with several problems.
	req := validRequest()
	req.Target = ""
	req.MaxLeads = 1
	req.TermsAccepted = false
	result := f.gateway.Validate(req)
	require.False(t, result.Valid)
	assert.Equal(t, "target", result.First().Field)

	// Vendor field rules come before the lead floor.
	f.adapter.validateErr = errors.New("micro-blog requires a keyword")
	req = validRequest()
	req.MaxLeads = 1
	result = f.gateway.Validate(req)
	require.False(t, result.Valid)
	assert.Equal(t, "PROVIDER_RULES", result.First().Code)
	f.adapter.validateErr = nil

	// Lead floor before terms.
	req = validRequest()
	req.MaxLeads = 5
	req.TermsAccepted = false
	result = f.gateway.Validate(req)
	require.False(t, result.Valid)
	assert.Equal(t, "max_leads", result.First().Field)

	// Terms last.
	req = validRequest()
	req.TermsAccepted = false
	result = f.gateway.Validate(req)
	require.False(t, result.Valid)
	assert.Equal(t, "terms_accepted", result.First().Field)
}

func TestCollectionTypeCheckedAfterLeadFloor(t *testing.T) {
	f := newFixture(t, models.TierFree, 1000)
	f.adapter.needsType = true

	req := validRequest()
	req.SourceType = models.SourceKeyword
	req.MaxLeads = 5
	result := f.gateway.Validate(req)
	require.False(t, result.Valid)
	assert.Equal(t, "max_leads", result.First().Field)

	req.MaxLeads = 50
	result = f.gateway.Validate(req)
	require.False(t, result.Valid)
	assert.Equal(t, "COLLECTION_TYPE_REQUIRED", result.First().Code)
}

func TestInsufficientCreditsCreatesNoJob(t *testing.T) {
	f := newFixture(t, models.TierFree, 10)

	req := validRequest() // 50 leads against a 10 credit balance
	_, err := f.gateway.Submit(context.Background(), f.user, req)
	require.ErrorIs(t, err, ledger.ErrInsufficientCredits)

	assert.Equal(t, 0, f.adapter.submittedCount)

	owned, err := f.jobs.ListJobs(context.Background(), jobs.JobFilters{OwnerUserID: &f.user})
	require.NoError(t, err)
	assert.Empty(t, owned)

	balance, err := f.ledger.Balance(context.Background(), f.user)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
}

func TestSubmitFailureRefundsAndFailsJob(t *testing.T) {
	f := newFixture(t, models.TierFree, 100)
	f.adapter.submitErr = &providers.PermanentError{
		Provider:   models.ProviderMicroBlog,
		StatusCode: 422,
		Message:    "target account is private",
	}

	job, err := f.gateway.Submit(context.Background(), f.user, validRequest())
	require.Error(t, err)
	require.NotNil(t, job)

	// Never left in created: the job is failed with the vendor message.
	assert.Equal(t, models.StateFailed, job.State)
	assert.Contains(t, job.Error, "target account is private")

	// Debit and refund are two entries; the balance is restored exactly.
	balance, err := f.ledger.Balance(context.Background(), f.user)
	require.NoError(t, err)
	assert.Equal(t, 100, balance)

	entries, err := f.ledger.ListLedger(context.Background(), f.user)
	require.NoError(t, err)
	require.Len(t, entries, 3) // grant, debit, refund

	reasons := map[models.LedgerReason]bool{}
	for _, e := range entries {
		reasons[e.Reason] = true
	}
	assert.True(t, reasons[models.ReasonJobDebit])
	assert.True(t, reasons[models.ReasonRefund])
}

func TestFirstJobBootstrapOnProPlan(t *testing.T) {
	f := newFixture(t, models.TierPro, 100)

	// First extraction: 50 leads against a 500-credit plan minimum still
	// debits face value.
	job, err := f.gateway.Submit(context.Background(), f.user, validRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StateQueued, job.State)

	balance, err := f.ledger.Balance(context.Background(), f.user)
	require.NoError(t, err)
	assert.Equal(t, 50, balance)

	// Second below-minimum job pays the free-tier rate: ceil(30*0.10/0.06)=50.
	req := validRequest()
	req.MaxLeads = 30
	_, err = f.gateway.Submit(context.Background(), f.user, req)
	require.NoError(t, err)

	balance, err = f.ledger.Balance(context.Background(), f.user)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestUnknownProviderRejected(t *testing.T) {
	f := newFixture(t, models.TierFree, 100)

	req := validRequest()
	req.Provider = models.Provider("carrier-pigeon")
	_, err := f.gateway.Submit(context.Background(), f.user, req)
	require.Error(t, err)
	assert.Equal(t, 0, f.adapter.submittedCount)
}
