// Package testsupport provides small hand-written fakes shared by the core
// packages' tests: a no-op logger/metrics pair and an in-memory Store,
// mirroring the original source's test_utils module.
package testsupport

import (
	"context"
	"fmt"
	"sync"

	"github.com/yash02896/graphix/internal/core/ports"
	"github.com/yash02896/graphix/internal/domain"
)

// NopLogger discards everything. Useful where a test only cares about
// return values, not log output.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}

// RecordingMetrics counts calls instead of exporting them, so tests can
// assert on outcome counts (spec.md scenario S4).
type RecordingMetrics struct {
	mu                   sync.Mutex
	StatusOutcomes       map[string]map[bool]int
	PoiOutcomes          map[string]map[bool]int
	InvestigationsStarted int
	InvestigationsDone   map[domain.InvestigationStatus]int
}

func NewRecordingMetrics() *RecordingMetrics {
	return &RecordingMetrics{
		StatusOutcomes: make(map[string]map[bool]int),
		PoiOutcomes:    make(map[string]map[bool]int),
		InvestigationsDone: make(map[domain.InvestigationStatus]int),
	}
}

func (m *RecordingMetrics) IndexingStatusesRequest(address string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StatusOutcomes[address] == nil {
		m.StatusOutcomes[address] = make(map[bool]int)
	}
	m.StatusOutcomes[address][success]++
}

func (m *RecordingMetrics) ProofsOfIndexingRequest(address string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PoiOutcomes[address] == nil {
		m.PoiOutcomes[address] = make(map[bool]int)
	}
	m.PoiOutcomes[address][success]++
}

func (m *RecordingMetrics) InvestigationStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InvestigationsStarted++
}

func (m *RecordingMetrics) InvestigationCompleted(status domain.InvestigationStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InvestigationsDone[status]++
}

// MemStore is a minimal in-memory ports.Store used by tests.
type MemStore struct {
	mu               sync.Mutex
	Networks         []domain.Network
	Indexers         map[string]domain.IndexerHandle
	Pois             map[string]domain.ProofOfIndexing
	Reports          []domain.DivergenceInvestigationReport
	Requests         []domain.DivergenceInvestigationRequest
	EarliestByKey    map[string]uint64
}

func NewMemStore() *MemStore {
	return &MemStore{
		Indexers:      make(map[string]domain.IndexerHandle),
		Pois:          make(map[string]domain.ProofOfIndexing),
		EarliestByKey: make(map[string]uint64),
	}
}

func (s *MemStore) CreateNetworksIfMissing(ctx context.Context, networks []domain.Network) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Networks = append(s.Networks, networks...)
	return nil
}

func (s *MemStore) WriteIndexers(ctx context.Context, indexers []domain.IndexerHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range indexers {
		s.Indexers[i.Key()] = i
	}
	return nil
}

func (s *MemStore) WriteGraphNodeVersions(ctx context.Context, versions map[domain.IndexerID]ports.VersionResult) error {
	return nil
}

func poiKey(indexerKey string, deployment domain.SubgraphDeployment, blockNumber uint64) string {
	return fmt.Sprintf("%s|%s|%d", indexerKey, deployment, blockNumber)
}

func (s *MemStore) WritePois(ctx context.Context, pois []domain.ProofOfIndexing, liveness domain.PoiLiveness) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range pois {
		s.Pois[poiKey(p.Indexer.Key(), p.Deployment, p.Block.Number)] = p
	}
	return nil
}

func (s *MemStore) SubmitDivergenceInvestigationRequest(ctx context.Context, req domain.DivergenceInvestigationRequest) error {
	s.AddRequest(req)
	return nil
}

func (s *MemStore) PollDivergenceInvestigationRequests(ctx context.Context) ([]domain.DivergenceInvestigationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reqs := s.Requests
	s.Requests = nil
	return reqs, nil
}

func (s *MemStore) WriteDivergenceInvestigationReport(ctx context.Context, report domain.DivergenceInvestigationReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reports = append(s.Reports, report)
	return nil
}

func (s *MemStore) EarliestBlockNumber(ctx context.Context, indexer domain.IndexerID, deployment domain.SubgraphDeployment) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.EarliestByKey[indexer.Key()+"|"+string(deployment)]
	return n, ok, nil
}

func (s *MemStore) SetEarliest(indexer domain.IndexerID, deployment domain.SubgraphDeployment, n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EarliestByKey[indexer.Key()+"|"+string(deployment)] = n
}

func (s *MemStore) PoiCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Pois)
}

func (s *MemStore) PoiAt(indexerKey string, deployment domain.SubgraphDeployment, blockNumber uint64) (domain.ProofOfIndexing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Pois[poiKey(indexerKey, deployment, blockNumber)]
	return p, ok
}

func (s *MemStore) AddRequest(req domain.DivergenceInvestigationRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
}

func (s *MemStore) ReportsSnapshot() []domain.DivergenceInvestigationReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DivergenceInvestigationReport, len(s.Reports))
	copy(out, s.Reports)
	return out
}

var (
	_ ports.Store   = (*MemStore)(nil)
	_ ports.Logger  = NopLogger{}
	_ ports.Metrics = (*RecordingMetrics)(nil)
)
