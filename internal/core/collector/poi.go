package collector

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/yash02896/graphix/internal/core/policy"
	"github.com/yash02896/graphix/internal/core/ports"
	"github.com/yash02896/graphix/internal/domain"
)

// DefaultPoiQueryTimeout bounds a single indexer's proofs_of_indexing
// call, per spec.md section 5.
const DefaultPoiQueryTimeout = 30 * time.Second

// CollectPois implements the section 4.E algorithm: group statuses by
// deployment, ask the policy for a target block per deployment, batch
// per-indexer PoI requests, and fan those out concurrently.
func CollectPois(
	ctx context.Context,
	statuses []domain.IndexingStatus,
	blockPolicy policy.BlockChoicePolicy,
	timeout time.Duration,
	maxConcurrency int,
	logger ports.Logger,
	metrics ports.Metrics,
) []domain.ProofOfIndexing {
	if timeout <= 0 {
		timeout = DefaultPoiQueryTimeout
	}
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	// Step 1+2: unique deployments, and statuses grouped by deployment.
	statusesByDeployment := make(map[domain.SubgraphDeployment][]domain.IndexingStatus)
	for _, s := range statuses {
		statusesByDeployment[s.Deployment] = append(statusesByDeployment[s.Deployment], s)
	}

	// Step 3: choose a target block per deployment.
	targetBlocks := make(map[domain.SubgraphDeployment]uint64, len(statusesByDeployment))
	for deployment, group := range statusesByDeployment {
		if target, ok := blockPolicy.Choose(group); ok {
			targetBlocks[deployment] = target
		}
	}

	// Identify every unique indexer appearing in any status.
	indexersByKey := make(map[string]domain.IndexerHandle)
	for _, s := range statuses {
		indexersByKey[s.Indexer.Key()] = s.Indexer
	}

	p := pool.NewWithResults[[]domain.ProofOfIndexing]().WithMaxGoroutines(maxConcurrency)

	for _, indexer := range indexersByKey {
		indexer := indexer
		p.Go(func() []domain.ProofOfIndexing {
			// Step 4: build this indexer's batch.
			var batch []domain.PoiRequest
			for deployment, target := range targetBlocks {
				for _, s := range statusesByDeployment[deployment] {
					if s.Indexer.Key() != indexer.Key() {
						continue
					}
					if s.LatestBlock.Number >= target {
						batch = append(batch, domain.PoiRequest{Deployment: deployment, BlockNumber: target})
					}
					break
				}
			}

			if len(batch) == 0 {
				return nil
			}

			// Step 5: fetch, best-effort, infallible.
			queryCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			address := indexer.Client.AddressString()
			pois := indexer.Client.ProofsOfIndexing(queryCtx, batch)
			metrics.ProofsOfIndexingRequest(address, len(pois) > 0 || len(batch) == 0)
			logger.Debug("queried proofs of indexing", "indexer", address, "requested", len(batch), "returned", len(pois))

			// The client is only responsible for the (deployment, block,
			// poi) triple it resolved; attach the indexer identity here so
			// callers never depend on every IndexerClient implementation
			// remembering to stamp its own handle on the result.
			for i := range pois {
				pois[i].Indexer = indexer
			}

			return pois
		})
	}

	results := p.Wait()

	var flattened []domain.ProofOfIndexing
	for _, r := range results {
		flattened = append(flattened, r...)
	}

	logger.Info("finished querying proofs of indexing", "indexers", len(indexersByKey), "pois", len(flattened))

	return flattened
}
