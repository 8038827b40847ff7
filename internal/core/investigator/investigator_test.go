package investigator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash02896/graphix/internal/core/registry"
	"github.com/yash02896/graphix/internal/domain"
	"github.com/yash02896/graphix/internal/testsupport"
)

// bisectingIndexer answers every proofs-of-indexing request with an all-zero
// PoI below divergesAt and a PoI whose first byte is flavor from divergesAt
// on, so two instances with different flavors agree below divergesAt and
// differ from it onwards, letting tests pin down exactly where the
// bisection should converge.
type bisectingIndexer struct {
	id         string
	divergesAt uint64 // first block at which this indexer's PoI differs from its pair
	flavor     byte   // distinguishes indexer A's "after" byte from B's
}

func (b *bisectingIndexer) ID() string          { return b.id }
func (b *bisectingIndexer) Address() *[20]byte  { return nil }
func (b *bisectingIndexer) AddressString() string { return b.id }
func (b *bisectingIndexer) IndexingStatuses(ctx context.Context) ([]domain.IndexingStatus, error) {
	return nil, nil
}
func (b *bisectingIndexer) Version(ctx context.Context) (domain.GraphNodeCollectedVersion, error) {
	return domain.GraphNodeCollectedVersion{}, nil
}
func (b *bisectingIndexer) ProofsOfIndexing(ctx context.Context, requests []domain.PoiRequest) []domain.ProofOfIndexing {
	out := make([]domain.ProofOfIndexing, 0, len(requests))
	for _, r := range requests {
		var poi domain.PoiBytes
		if r.BlockNumber >= b.divergesAt {
			poi[0] = b.flavor
		}
		out = append(out, domain.ProofOfIndexing{Deployment: r.Deployment, Block: domain.BlockPointer{Number: r.BlockNumber}, Poi: poi})
	}
	return out
}

func handleFor(id string, c domain.IndexerClient) domain.IndexerHandle {
	return domain.IndexerHandle{IndexerID: domain.IndexerID{ID: id}, Client: c}
}

// S3: X and Y diverge starting at block 37; earliest known block is 0 for
// both. The bisection must converge on first_divergent_block == 37 and
// persist an even number of FromInvestigation PoIs.
func TestBisectConvergesOnDivergencePoint(t *testing.T) {
	x := &bisectingIndexer{id: "x", divergesAt: 37, flavor: 0}
	y := &bisectingIndexer{id: "y", divergesAt: 37, flavor: 1}
	hx := handleFor("x", x)
	hy := handleFor("y", y)

	store := testsupport.NewMemStore()
	store.SetEarliest(hx.IndexerID, "QmD", 0)
	store.SetEarliest(hy.IndexerID, "QmD", 0)

	reg := registry.New(store, testsupport.NopLogger{})
	_, err := reg.Publish(context.Background(), []domain.IndexerHandle{hx, hy})
	require.NoError(t, err)

	inv := New(store, reg, testsupport.NopLogger{}, testsupport.NewRecordingMetrics(), nil, Config{PollInterval: time.Millisecond})

	req := domain.DivergenceInvestigationRequest{
		IndexerA: hx.IndexerID, IndexerB: hy.IndexerID, Deployment: "QmD", UpperBlockNumber: 100,
	}
	report := inv.bisect(context.Background(), hx, hy, req, 0, 100)

	assert.Equal(t, domain.InvestigationComplete, report.Status)
	assert.Equal(t, uint64(37), report.FirstDivergentBlock.Number)
	require.NotNil(t, report.LastCommonBlock)
	assert.Less(t, report.LastCommonBlock.Number, report.FirstDivergentBlock.Number)

	assert.Zero(t, store.PoiCount()%2, "expected an even number of persisted investigation PoIs")
	assert.Greater(t, store.PoiCount(), 0)
}

// A fetch that returns nothing mid-bisection aborts the investigation as
// Incomplete rather than looping forever or panicking.
func TestBisectAbortsOnFetchFailure(t *testing.T) {
	x := &bisectingIndexer{id: "x", divergesAt: 10, flavor: 0}
	y := &failingIndexer{id: "y"}
	hx := handleFor("x", x)
	hy := handleFor("y", y)

	store := testsupport.NewMemStore()
	reg := registry.New(store, testsupport.NopLogger{})
	inv := New(store, reg, testsupport.NopLogger{}, testsupport.NewRecordingMetrics(), nil, Config{})

	req := domain.DivergenceInvestigationRequest{IndexerA: hx.IndexerID, IndexerB: hy.IndexerID, Deployment: "QmD", UpperBlockNumber: 100}
	report := inv.bisect(context.Background(), hx, hy, req, 0, 100)

	assert.Equal(t, domain.InvestigationIncomplete, report.Status)
}

type failingIndexer struct{ id string }

func (f *failingIndexer) ID() string                                                        { return f.id }
func (f *failingIndexer) Address() *[20]byte                                                { return nil }
func (f *failingIndexer) AddressString() string                                             { return f.id }
func (f *failingIndexer) IndexingStatuses(ctx context.Context) ([]domain.IndexingStatus, error) { return nil, nil }
func (f *failingIndexer) Version(ctx context.Context) (domain.GraphNodeCollectedVersion, error) {
	return domain.GraphNodeCollectedVersion{}, nil
}
func (f *failingIndexer) ProofsOfIndexing(ctx context.Context, requests []domain.PoiRequest) []domain.ProofOfIndexing {
	return nil
}

// Full investigate() path: a request filed against two indexers that now
// agree at the upper block is treated as a transient false positive and
// completes with no report persisted.
func TestInvestigateFalsePositiveAtUpperBound(t *testing.T) {
	x := &bisectingIndexer{id: "x", divergesAt: 1000, flavor: 0} // never diverges within [0,100]
	y := &bisectingIndexer{id: "y", divergesAt: 1000, flavor: 0}
	hx := handleFor("x", x)
	hy := handleFor("y", y)

	store := testsupport.NewMemStore()
	reg := registry.New(store, testsupport.NopLogger{})
	_, err := reg.Publish(context.Background(), []domain.IndexerHandle{hx, hy})
	require.NoError(t, err)

	metrics := testsupport.NewRecordingMetrics()
	inv := New(store, reg, testsupport.NopLogger{}, metrics, nil, Config{})

	req := domain.DivergenceInvestigationRequest{IndexerA: hx.IndexerID, IndexerB: hy.IndexerID, Deployment: "QmD", UpperBlockNumber: 100}
	inv.investigate(context.Background(), req)

	assert.Empty(t, store.ReportsSnapshot())
	assert.Equal(t, 1, metrics.InvestigationsDone[domain.InvestigationComplete])
}

// When both indexers' earliest known block already equals the disputed
// upper block, there is nothing to bisect; the pair diverged from the
// earliest available block and a Complete report with no LastCommonBlock
// is expected, not an aborted Incomplete investigation.
func TestInvestigateCompletesWhenLowEqualsHigh(t *testing.T) {
	x := &bisectingIndexer{id: "x", divergesAt: 0, flavor: 0}
	y := &bisectingIndexer{id: "y", divergesAt: 0, flavor: 1}
	hx := handleFor("x", x)
	hy := handleFor("y", y)

	store := testsupport.NewMemStore()
	store.SetEarliest(hx.IndexerID, "QmD", 50)
	store.SetEarliest(hy.IndexerID, "QmD", 50)

	reg := registry.New(store, testsupport.NopLogger{})
	_, err := reg.Publish(context.Background(), []domain.IndexerHandle{hx, hy})
	require.NoError(t, err)

	metrics := testsupport.NewRecordingMetrics()
	inv := New(store, reg, testsupport.NopLogger{}, metrics, nil, Config{})

	req := domain.DivergenceInvestigationRequest{IndexerA: hx.IndexerID, IndexerB: hy.IndexerID, Deployment: "QmD", UpperBlockNumber: 50}
	inv.investigate(context.Background(), req)

	reports := store.ReportsSnapshot()
	require.Len(t, reports, 1)
	assert.Equal(t, domain.InvestigationComplete, reports[0].Status)
	assert.Equal(t, uint64(50), reports[0].FirstDivergentBlock.Number)
	assert.Nil(t, reports[0].LastCommonBlock)
}

func TestCoalesceKeyIgnoresUpperBound(t *testing.T) {
	a := domain.IndexerID{ID: "a"}
	b := domain.IndexerID{ID: "b"}
	r1 := domain.DivergenceInvestigationRequest{IndexerA: a, IndexerB: b, Deployment: "QmD", UpperBlockNumber: 50}
	r2 := domain.DivergenceInvestigationRequest{IndexerA: a, IndexerB: b, Deployment: "QmD", UpperBlockNumber: 999}
	assert.Equal(t, coalesceKey(r1), coalesceKey(r2))
}
