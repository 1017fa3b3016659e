package providers

import (
	"context"
	"fmt"
	"strings"

	"leadharvest/pkg/models"
)

// Status is the normalized view of a vendor status payload. Vendor-specific
// status vocabularies are mapped to canonical job states here and never leak
// past the adapter boundary.
type Status struct {
	State        models.JobState
	ScrapedCount int
	ErrorMessage string
}

// Adapter is the capability set shared by all extraction vendors.
type Adapter interface {
	Name() models.Provider

	// MinLeads is the vendor's floor for max_leads at submission time.
	MinLeads() int

	// RequiresCollectionType reports whether the vendor needs an explicit
	// hashtag/followers/following selection.
	RequiresCollectionType() bool

	// Validate applies vendor-specific required-field rules. Field rules live
	// here, not in the gateway.
	Validate(req *models.SubmitRequest) error

	Submit(ctx context.Context, req *models.SubmitRequest) (handle string, err error)
	QueryStatus(ctx context.Context, handle string) (*Status, error)
	FetchResult(ctx context.Context, handle string) (downloadURL string, err error)
}

// TransientError marks a vendor failure worth retrying: network errors,
// timeouts, 5xx responses. The reconciler leaves the job untouched and retries
// on the next sweep; the gateway refunds instead.
type TransientError struct {
	Provider models.Provider
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient provider error: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a vendor rejection (4xx or explicit failure). The
// message is kept verbatim for user display.
type PermanentError struct {
	Provider   models.Provider
	StatusCode int
	Message    string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: provider rejected request (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// mapVendorState folds the vendor status vocabularies onto the canonical job
// states. Unknown values are treated as still running so a vendor adding a new
// intermediate status can never fail or complete a job by accident.
func mapVendorState(raw string) models.JobState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "created", "queued", "pending", "accepted":
		return models.StateQueued
	case "ready", "running", "processing", "in_progress", "started":
		return models.StateRunning
	case "succeeded", "success", "done", "complete", "completed", "finished":
		return models.StateSucceeded
	case "failed", "error", "cancelled", "canceled":
		return models.StateFailed
	default:
		return models.StateRunning
	}
}
