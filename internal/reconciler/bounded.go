package reconciler

import (
	"context"
	"errors"
	"time"

	"leadharvest/internal/providers"
	"leadharvest/pkg/models"
)

// ErrPollTimeout is returned when a bounded poll exhausts its attempts with
// the job still non-terminal. The job itself is untouched; the background
// sweeps keep reconciling it.
var ErrPollTimeout = errors.New("job did not reach a terminal state within the polling window")

const (
	DefaultPollInterval = 10 * time.Second
	DefaultMaxAttempts  = 30
)

// PollUntilTerminal queries the vendor at a fixed interval until the job
// reaches succeeded or failed, the attempts run out, or the context is
// cancelled. Transient vendor errors consume an attempt and the loop keeps
// going; permanent errors abort immediately. The last observed status is
// returned alongside ErrPollTimeout so the caller can report progress.
func PollUntilTerminal(ctx context.Context, adapter providers.Adapter, handle string, interval time.Duration, maxAttempts int) (*providers.Status, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *providers.Status
	for attempt := 0; attempt < maxAttempts; attempt++ {
		status, err := adapter.QueryStatus(ctx, handle)
		if err != nil {
			var transient *providers.TransientError
			if !errors.As(err, &transient) {
				return last, err
			}
		} else {
			last = status
			if status.State == models.StateSucceeded || status.State == models.StateFailed {
				return status, nil
			}
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}

	return last, ErrPollTimeout
}
