// Package memstore is a production in-memory ports.Store, guarded by
// sync.RWMutex rather than the Postgres-backed repository, used by
// `cmd/graphix -store=memory` for zero-dependency demo runs and by
// integration tests that need a faster Store than a real database.
package memstore

import (
	"context"
	"sync"

	"github.com/yash02896/graphix/internal/core/ports"
	"github.com/yash02896/graphix/internal/domain"
)

type poiKey struct {
	indexer    string
	deployment domain.SubgraphDeployment
	block      uint64
}

type earliestKey struct {
	indexer    string
	deployment domain.SubgraphDeployment
}

// Store is a concurrency-safe in-memory ports.Store.
type Store struct {
	mu       sync.RWMutex
	networks map[string]domain.Network
	indexers map[string]domain.IndexerHandle
	versions map[string]ports.VersionResult
	pois     map[poiKey]domain.ProofOfIndexing
	earliest map[earliestKey]uint64
	requests []domain.DivergenceInvestigationRequest
	reports  []domain.DivergenceInvestigationReport
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		networks: make(map[string]domain.Network),
		indexers: make(map[string]domain.IndexerHandle),
		versions: make(map[string]ports.VersionResult),
		pois:     make(map[poiKey]domain.ProofOfIndexing),
		earliest: make(map[earliestKey]uint64),
	}
}

func (s *Store) CreateNetworksIfMissing(ctx context.Context, networks []domain.Network) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range networks {
		if _, ok := s.networks[n.Name]; !ok {
			s.networks[n.Name] = n
		}
	}
	return nil
}

func (s *Store) WriteIndexers(ctx context.Context, indexers []domain.IndexerHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range indexers {
		s.indexers[i.Key()] = i
	}
	return nil
}

func (s *Store) WriteGraphNodeVersions(ctx context.Context, versions map[domain.IndexerID]ports.VersionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range versions {
		s.versions[id.Key()] = v
	}
	return nil
}

// WritePois upserts by (indexer, deployment, block.number) and maintains a
// running minimum block number per (indexer, deployment) so
// EarliestBlockNumber doesn't need a second pass over the PoI map.
func (s *Store) WritePois(ctx context.Context, pois []domain.ProofOfIndexing, liveness domain.PoiLiveness) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range pois {
		s.pois[poiKey{indexer: p.Indexer.Key(), deployment: p.Deployment, block: p.Block.Number}] = p

		ek := earliestKey{indexer: p.Indexer.Key(), deployment: p.Deployment}
		if cur, ok := s.earliest[ek]; !ok || p.Block.Number < cur {
			s.earliest[ek] = p.Block.Number
		}
	}
	return nil
}

func (s *Store) PollDivergenceInvestigationRequests(ctx context.Context) ([]domain.DivergenceInvestigationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.requests
	s.requests = nil
	return out, nil
}

// SubmitDivergenceInvestigationRequest appends req to the queue drained by
// PollDivergenceInvestigationRequests. It is how the HTTP handler files a
// new request when running in memory-store mode, mirroring what an INSERT
// into divergence_investigation_requests does for PostgresStore.
func (s *Store) SubmitDivergenceInvestigationRequest(ctx context.Context, req domain.DivergenceInvestigationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return nil
}

func (s *Store) WriteDivergenceInvestigationReport(ctx context.Context, report domain.DivergenceInvestigationReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return nil
}

// Reports returns a snapshot of every report written so far, for the
// read-side of the optional HTTP surface.
func (s *Store) Reports() []domain.DivergenceInvestigationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DivergenceInvestigationReport, len(s.reports))
	copy(out, s.reports)
	return out
}

func (s *Store) EarliestBlockNumber(ctx context.Context, indexer domain.IndexerID, deployment domain.SubgraphDeployment) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.earliest[earliestKey{indexer: indexer.Key(), deployment: deployment}]
	return n, ok, nil
}

var _ ports.Store = (*Store)(nil)
