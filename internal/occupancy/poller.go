package occupancy

import (
	"context"
	"time"

	"github.com/nerrad567/parkpilot-core/internal/infrastructure/logging"
)

// DefaultPollInterval is how often the status endpoint is fetched.
const DefaultPollInterval = time.Second

// StatusFetcher is the part of Client the Poller needs.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (Status, error)
}

// Poller fetches the status on a fixed interval.
type Poller struct {
	fetcher  StatusFetcher
	interval time.Duration
	logger   *logging.Logger
}

// NewPoller creates a poller. A non-positive interval uses
// DefaultPollInterval.
func NewPoller(fetcher StatusFetcher, interval time.Duration, logger *logging.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until ctx is cancelled. The first fetch happens immediately.
//
// onStatus is called from Run's goroutine for every successful fetch.
// Failures are logged at warn and skipped; there is no backoff, the next
// attempt simply waits for the next tick. Cancelling ctx also aborts an
// in-flight request.
func (p *Poller) Run(ctx context.Context, onStatus func(Status)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		status, err := p.fetcher.FetchStatus(ctx)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			failures++
			p.logger.Warn("occupancy poll failed",
				"error", err,
				"consecutive_failures", failures,
			)
		default:
			if failures > 0 {
				p.logger.Info("occupancy poll recovered", "after_failures", failures)
				failures = 0
			}
			onStatus(status)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
