// Package loop implements the MainLoop (spec.md section 4.G): one
// scheduled task that builds the indexer set, dedupes and publishes it,
// collects versions and indexing statuses, resolves PoIs, and persists
// everything before sleeping.
package loop

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/yash02896/graphix/internal/core/collector"
	"github.com/yash02896/graphix/internal/core/policy"
	"github.com/yash02896/graphix/internal/core/ports"
	"github.com/yash02896/graphix/internal/core/registry"
	"github.com/yash02896/graphix/internal/domain"
)

// BuildIndexersFunc constructs the current indexer list from
// configuration-derived sources (static entries, network subgraphs). It
// may itself perform network I/O and fail.
type BuildIndexersFunc func(ctx context.Context) ([]domain.IndexerHandle, error)

// Config bundles the tunables spec.md section 6 enumerates for the main
// loop and its collectors.
type Config struct {
	PollingPeriod      time.Duration
	BlockChoicePolicy  policy.BlockChoicePolicy
	StatusQueryTimeout time.Duration
	PoiQueryTimeout    time.Duration
	MaxConcurrency     int
}

// Loop is the MainLoop orchestrator.
type Loop struct {
	store         ports.Store
	registry      *registry.Registry
	logger        ports.Logger
	metrics       ports.Metrics
	buildIndexers BuildIndexersFunc
	cfg           Config
}

func New(
	store ports.Store,
	reg *registry.Registry,
	logger ports.Logger,
	metrics ports.Metrics,
	buildIndexers BuildIndexersFunc,
	cfg Config,
) *Loop {
	return &Loop{
		store:         store,
		registry:      reg,
		logger:        logger,
		metrics:       metrics,
		buildIndexers: buildIndexers,
		cfg:           cfg,
	}
}

// Run executes the loop until ctx is cancelled. It never returns early on a
// per-iteration error, the first iteration included: it logs, abandons the
// iteration, and sleeps as usual.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		l.runIteration(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.cfg.PollingPeriod):
		}
	}
}

func (l *Loop) runIteration(ctx context.Context) {
	l.logger.Info("new main loop iteration")

	indexers, err := l.buildIndexers(ctx)
	if err != nil {
		l.logger.Error("failed to build indexers, abandoning iteration", "error", err)
		return
	}

	deduped, err := l.registry.Publish(ctx, indexers)
	if err != nil {
		l.logger.Error("failed to write indexers, abandoning iteration", "error", err)
		return
	}

	versions := collectVersions(ctx, deduped)
	if err := l.store.WriteGraphNodeVersions(ctx, versions); err != nil {
		l.logger.Error("failed to write graph-node versions, abandoning iteration", "error", err)
		return
	}

	statuses := collector.CollectStatuses(ctx, deduped, l.cfg.StatusQueryTimeout, l.cfg.MaxConcurrency, l.logger, l.metrics)

	l.logger.Info("monitoring proofs of indexing")
	pois := collector.CollectPois(ctx, statuses, l.cfg.BlockChoicePolicy, l.cfg.PoiQueryTimeout, l.cfg.MaxConcurrency, l.logger, l.metrics)
	l.logger.Info("finished tracking pois", "pois", len(pois))

	if err := l.store.WritePois(ctx, pois, domain.LivenessLive); err != nil {
		l.logger.Error("failed to write pois to store", "error", err)
		return
	}

	l.logger.Info("sleeping before next iteration", "seconds", l.cfg.PollingPeriod.Seconds())
}

func collectVersions(ctx context.Context, indexers []domain.IndexerHandle) map[domain.IndexerID]ports.VersionResult {
	p := pool.NewWithResults[struct {
		id domain.IndexerID
		vr ports.VersionResult
	}]().WithMaxGoroutines(collector.DefaultMaxConcurrency)

	for _, indexer := range indexers {
		indexer := indexer
		p.Go(func() struct {
			id domain.IndexerID
			vr ports.VersionResult
		} {
			version, err := indexer.Client.Version(ctx)
			return struct {
				id domain.IndexerID
				vr ports.VersionResult
			}{id: indexer.IndexerID, vr: ports.VersionResult{Version: version, Err: err}}
		})
	}

	results := p.Wait()
	versions := make(map[domain.IndexerID]ports.VersionResult, len(results))
	for _, r := range results {
		versions[r.id] = r.vr
	}
	return versions
}
