// Package collector implements the concurrent fan-out stages of one
// polling iteration: StatusCollector (section 4.D) and PoiCollector
// (section 4.E). Both spawn one bounded goroutine per indexer using
// sourcegraph/conc's result pool, the structured-concurrency fan-out
// primitive used throughout the teacher pack, and tolerate partial
// failure without ever propagating a remote error to the caller.
package collector

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/yash02896/graphix/internal/core/ports"
	"github.com/yash02896/graphix/internal/domain"
)

// DefaultStatusQueryTimeout bounds a single indexer's indexing_statuses
// call, per spec.md section 5.
const DefaultStatusQueryTimeout = 20 * time.Second

// DefaultMaxConcurrency bounds how many indexer queries run at once when a
// caller does not override it.
const DefaultMaxConcurrency = 16

type statusOutcome struct {
	address  string
	statuses []domain.IndexingStatus
	ok       bool
}

// CollectStatuses fans out one indexing_statuses query per indexer and
// flattens the successes. Failures are logged at debug, counted in
// metrics, and otherwise dropped; result ordering is unspecified.
//
// Postcondition: successes + failures == len(indexers), asserted here as a
// collector-internal invariant (a violation indicates a bug in this
// function, never a remote failure).
func CollectStatuses(
	ctx context.Context,
	indexers []domain.IndexerHandle,
	timeout time.Duration,
	maxConcurrency int,
	logger ports.Logger,
	metrics ports.Metrics,
) []domain.IndexingStatus {
	if timeout <= 0 {
		timeout = DefaultStatusQueryTimeout
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	p := pool.NewWithResults[statusOutcome]().WithMaxGoroutines(maxConcurrency)

	for _, indexer := range indexers {
		indexer := indexer
		p.Go(func() statusOutcome {
			queryCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			statuses, err := indexer.Client.IndexingStatuses(queryCtx)
			address := indexer.Client.AddressString()
			if err != nil {
				logger.Debug("failed to query indexing statuses", "indexer", address, "error", err)
				metrics.IndexingStatusesRequest(address, false)
				return statusOutcome{address: address, ok: false}
			}

			metrics.IndexingStatusesRequest(address, true)
			logger.Debug("queried indexing statuses", "indexer", address, "count", len(statuses))
			return statusOutcome{address: address, statuses: statuses, ok: true}
		})
	}

	outcomes := p.Wait()

	var successes, failures int
	var result []domain.IndexingStatus
	for _, o := range outcomes {
		if o.ok {
			successes++
			result = append(result, o.statuses...)
		} else {
			failures++
		}
	}

	if successes+failures != len(indexers) {
		panic("status collector: successes + failures != indexer count")
	}

	logger.Info("finished querying indexing statuses",
		"indexers", len(indexers), "successes", successes, "failures", failures, "statuses", len(result))

	return result
}
