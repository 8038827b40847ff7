// Package ports declares the capability interfaces the core depends on but
// does not implement: durable storage, structured logging, metrics and
// event publication. Concrete implementations live under internal/adapter.
package ports

import (
	"context"

	"github.com/yash02896/graphix/internal/domain"
)

// Logger is the structured logging facade used throughout the core. It
// mirrors the shape every teacher service passes through its ports
// package, so any zap/zerolog/std-log-backed implementation can satisfy
// it.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Store is the durable persistence capability. Implementations must
// upsert ProofsOfIndexing on (indexer, deployment, block number) and
// indexers on address when present, falling back to id otherwise.
type Store interface {
	CreateNetworksIfMissing(ctx context.Context, networks []domain.Network) error

	// WriteIndexers upserts indexer rows by address when an indexer has
	// one (the canonical identity per domain.IndexerID.Equal), and by id
	// for address-less indexers.
	WriteIndexers(ctx context.Context, indexers []domain.IndexerHandle) error

	WriteGraphNodeVersions(ctx context.Context, versions map[domain.IndexerID]VersionResult) error

	// WritePois upserts by (indexer, deployment, block.number), keeping the
	// most recent hash and timestamp.
	WritePois(ctx context.Context, pois []domain.ProofOfIndexing, liveness domain.PoiLiveness) error

	// SubmitDivergenceInvestigationRequest durably files a request for the
	// investigator to pick up on its next poll; this is how the external
	// API hands off a detected disagreement.
	SubmitDivergenceInvestigationRequest(ctx context.Context, req domain.DivergenceInvestigationRequest) error

	PollDivergenceInvestigationRequests(ctx context.Context) ([]domain.DivergenceInvestigationRequest, error)

	WriteDivergenceInvestigationReport(ctx context.Context, report domain.DivergenceInvestigationReport) error

	// EarliestBlockNumber returns the earliest block number this store has
	// observed an indexer report for a given deployment, used by the
	// investigator to bound its bisection.
	EarliestBlockNumber(ctx context.Context, indexer domain.IndexerID, deployment domain.SubgraphDeployment) (uint64, bool, error)
}

// VersionResult carries either a successfully queried graph-node version
// or the error encountered while querying it — the Go analogue of the
// original's Result<GraphNodeCollectedVersion>.
type VersionResult struct {
	Version domain.GraphNodeCollectedVersion
	Err     error
}

// MessagingClient publishes domain events to downstream collaborators
// (alerting, analytics). Publication failures are logged and never retried
// by the core. The core calls PublishDivergenceReport synchronously, so the
// caller waits until it returns.
type MessagingClient interface {
	PublishDivergenceReport(ctx context.Context, report domain.DivergenceInvestigationReport) error
	Close() error
}

// Metrics records per-indexer outcomes for status and PoI queries, and
// investigation counters, without the core needing to know whether the
// backing implementation is Prometheus or something else.
type Metrics interface {
	IndexingStatusesRequest(address string, success bool)
	ProofsOfIndexingRequest(address string, success bool)
	InvestigationStarted()
	InvestigationCompleted(status domain.InvestigationStatus)
}
