// Package investigator implements the DivergenceInvestigator (spec.md
// section 4.H): it consumes divergence investigation requests, bisects the
// disagreement down to its first divergent block, and persists the
// resulting report.
package investigator

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"

	"github.com/yash02896/graphix/internal/core/ports"
	"github.com/yash02896/graphix/internal/core/registry"
	"github.com/yash02896/graphix/internal/domain"
)

// DefaultPollInterval is how often the investigator checks the Store for
// new requests when Config.PollInterval is unset.
const DefaultPollInterval = 5 * time.Second

// DefaultConcurrency bounds how many investigations run at once.
const DefaultConcurrency = 4

// DefaultPoiQueryTimeout bounds a single bisection step's PoI fetch.
const DefaultPoiQueryTimeout = 30 * time.Second

// Config bundles the investigator's tunables.
type Config struct {
	PollInterval   time.Duration
	Concurrency    int
	PoiQueryTimeout time.Duration
}

// Investigator is the long-running consumer of divergence investigation
// requests.
type Investigator struct {
	store     ports.Store
	registry  *registry.Registry
	logger    ports.Logger
	metrics   ports.Metrics
	messaging ports.MessagingClient
	cfg       Config

	sf singleflight.Group
}

// New builds an Investigator. messaging may be nil; when nil, completed
// reports are simply not published anywhere beyond the Store.
func New(
	store ports.Store,
	reg *registry.Registry,
	logger ports.Logger,
	metrics ports.Metrics,
	messaging ports.MessagingClient,
	cfg Config,
) *Investigator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.PoiQueryTimeout <= 0 {
		cfg.PoiQueryTimeout = DefaultPoiQueryTimeout
	}
	return &Investigator{store: store, registry: reg, logger: logger, metrics: metrics, messaging: messaging, cfg: cfg}
}

// Run drives the intake loop until ctx is cancelled. The first poll happens
// immediately, before the ticker starts, so a process restart picks up any
// request still pending in the Store straight away. Polling removes requests
// from the Store, so a request that a prior instance had already polled is
// not picked up again.
func (inv *Investigator) Run(ctx context.Context) {
	p := pool.New().WithMaxGoroutines(inv.cfg.Concurrency)
	defer p.Wait()

	inv.poll(ctx, p)

	ticker := time.NewTicker(inv.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			inv.poll(ctx, p)
		}
	}
}

func (inv *Investigator) poll(ctx context.Context, p *pool.Pool) {
	requests, err := inv.store.PollDivergenceInvestigationRequests(ctx)
	if err != nil {
		inv.logger.Error("failed to poll divergence investigation requests", "error", err)
		return
	}
	for _, req := range requests {
		req := req
		p.Go(func() { inv.dispatch(ctx, req) })
	}
}

// dispatch coalesces duplicate in-flight requests for the same
// (indexer_a, indexer_b, deployment) triple: the second caller simply waits
// on the first's result instead of re-running the bisection.
func (inv *Investigator) dispatch(ctx context.Context, req domain.DivergenceInvestigationRequest) {
	key := coalesceKey(req)
	inv.sf.Do(key, func() (interface{}, error) {
		inv.investigate(ctx, req)
		return nil, nil
	})
}

func coalesceKey(req domain.DivergenceInvestigationRequest) string {
	return fmt.Sprintf("%s|%s|%s", req.IndexerA.Key(), req.IndexerB.Key(), req.Deployment)
}

func (inv *Investigator) resolve(id domain.IndexerID) (domain.IndexerHandle, bool) {
	snapshot, _ := inv.registry.Broadcast().Snapshot()
	for _, h := range snapshot {
		if h.IndexerID.Equal(id) {
			return h, true
		}
	}
	return domain.IndexerHandle{}, false
}

func (inv *Investigator) investigate(ctx context.Context, req domain.DivergenceInvestigationRequest) {
	inv.metrics.InvestigationStarted()
	inv.logger.Info("starting divergence investigation", "a", req.IndexerA.Key(), "b", req.IndexerB.Key(), "deployment", req.Deployment, "upper", req.UpperBlockNumber)

	handleA, okA := inv.resolve(req.IndexerA)
	handleB, okB := inv.resolve(req.IndexerB)
	if !okA || !okB {
		inv.logger.Error("cannot investigate: indexer handle not currently registered", "a", req.IndexerA.Key(), "b", req.IndexerB.Key())
		inv.metrics.InvestigationCompleted(domain.InvestigationIncomplete)
		return
	}

	earliestA, _, errA := inv.store.EarliestBlockNumber(ctx, req.IndexerA, req.Deployment)
	earliestB, _, errB := inv.store.EarliestBlockNumber(ctx, req.IndexerB, req.Deployment)
	if errA != nil || errB != nil {
		inv.logger.Error("failed to read earliest block numbers", "error_a", errA, "error_b", errB)
		inv.metrics.InvestigationCompleted(domain.InvestigationIncomplete)
		return
	}

	low := earliestA
	if earliestB > low {
		low = earliestB
	}
	high := req.UpperBlockNumber

	if low > high {
		inv.logger.Error("investigation request has an inverted range", "low", low, "high", high)
		inv.metrics.InvestigationCompleted(domain.InvestigationIncomplete)
		return
	}

	// Re-verify the disagreement at the upper bound before committing to a
	// bisection: the underlying disagreement may have been a transient
	// false positive (e.g. the request was filed against a stale PoI).
	poiA, gotA := inv.fetchPoi(ctx, handleA, req.Deployment, high)
	poiB, gotB := inv.fetchPoi(ctx, handleB, req.Deployment, high)
	if !gotA || !gotB {
		inv.logger.Warn("re-verification fetch failed, aborting investigation", "indexer_a_ok", gotA, "indexer_b_ok", gotB)
		inv.metrics.InvestigationCompleted(domain.InvestigationIncomplete)
		return
	}
	if poiA.Poi == poiB.Poi {
		inv.logger.Info("indexers now agree at upper block, treating as false positive", "block", high)
		inv.metrics.InvestigationCompleted(domain.InvestigationComplete)
		return
	}

	report := inv.bisect(ctx, handleA, handleB, req, low, high)

	if err := inv.store.WriteDivergenceInvestigationReport(ctx, report); err != nil {
		inv.logger.Error("failed to persist divergence investigation report", "error", err)
	}
	inv.metrics.InvestigationCompleted(report.Status)

	if inv.messaging != nil {
		if err := inv.messaging.PublishDivergenceReport(ctx, report); err != nil {
			inv.logger.Warn("failed to publish divergence report", "error", err)
		}
	}
}

// bisect implements spec.md section 4.H's loop exactly: narrow [low, high]
// until adjacent, persisting every intermediate PoI it fetches as
// FromInvestigation.
func (inv *Investigator) bisect(ctx context.Context, a, b domain.IndexerHandle, req domain.DivergenceInvestigationRequest, low, high uint64) domain.DivergenceInvestigationReport {
	for high-low > 1 {
		mid := low + (high-low)/2

		poiA, okA := inv.fetchPoi(ctx, a, req.Deployment, mid)
		poiB, okB := inv.fetchPoi(ctx, b, req.Deployment, mid)
		inv.persist(ctx, poiA, okA)
		inv.persist(ctx, poiB, okB)

		if !okA || !okB {
			return inv.partialReport(req, mid, low)
		}
		if poiA.Poi == poiB.Poi {
			low = mid
		} else {
			high = mid
		}
	}
	return inv.finalReport(req, low, high)
}

func (inv *Investigator) fetchPoi(ctx context.Context, handle domain.IndexerHandle, deployment domain.SubgraphDeployment, block uint64) (domain.ProofOfIndexing, bool) {
	queryCtx, cancel := context.WithTimeout(ctx, inv.cfg.PoiQueryTimeout)
	defer cancel()

	results := handle.Client.ProofsOfIndexing(queryCtx, []domain.PoiRequest{{Deployment: deployment, BlockNumber: block}})
	if len(results) == 0 {
		return domain.ProofOfIndexing{}, false
	}
	poi := results[0]
	poi.Indexer = handle
	return poi, true
}

func (inv *Investigator) persist(ctx context.Context, poi domain.ProofOfIndexing, ok bool) {
	if !ok {
		return
	}
	if err := inv.store.WritePois(ctx, []domain.ProofOfIndexing{poi}, domain.LivenessFromInvestigation); err != nil {
		inv.logger.Error("failed to persist investigation poi", "error", err)
	}
}

func (inv *Investigator) partialReport(req domain.DivergenceInvestigationRequest, mid, low uint64) domain.DivergenceInvestigationReport {
	var lastCommon *domain.BlockPointer
	if low < mid {
		lastCommon = &domain.BlockPointer{Number: low}
	}
	return domain.DivergenceInvestigationReport{
		IndexerA:            req.IndexerA,
		IndexerB:            req.IndexerB,
		Deployment:          req.Deployment,
		FirstDivergentBlock: domain.BlockPointer{Number: mid},
		LastCommonBlock:     lastCommon,
		Status:              domain.InvestigationIncomplete,
		CompletedAt:         time.Now(),
	}
}

func (inv *Investigator) finalReport(req domain.DivergenceInvestigationRequest, low, high uint64) domain.DivergenceInvestigationReport {
	var lastCommon *domain.BlockPointer
	if low < high {
		lastCommon = &domain.BlockPointer{Number: low}
	}
	return domain.DivergenceInvestigationReport{
		IndexerA:            req.IndexerA,
		IndexerB:            req.IndexerB,
		Deployment:          req.Deployment,
		FirstDivergentBlock: domain.BlockPointer{Number: high},
		LastCommonBlock:     lastCommon,
		Status:              domain.InvestigationComplete,
		CompletedAt:         time.Now(),
	}
}
