package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash02896/graphix/internal/domain"
	"github.com/yash02896/graphix/internal/testsupport"
)

func indexerHandle(name string, statuses []domain.IndexingStatus, statusesErr error) domain.IndexerHandle {
	return domain.IndexerHandle{
		IndexerID: domain.IndexerID{ID: name},
		Client: &fakeIndexer{
			id:          name,
			statuses:    statuses,
			statusesErr: statusesErr,
		},
	}
}

// S4: remote failure tolerance — one of five indexers times out, the
// other four still contribute statuses, and the failure is counted but
// never returned as an error.
func TestCollectStatusesToleratesFailures(t *testing.T) {
	deployment := domain.SubgraphDeployment("QmAAA")
	ok := domain.IndexingStatus{Deployment: deployment, LatestBlock: domain.BlockPointer{Number: 100}}

	indexers := []domain.IndexerHandle{
		indexerHandle("i0", []domain.IndexingStatus{ok}, nil),
		indexerHandle("i1", []domain.IndexingStatus{ok}, nil),
		indexerHandle("i2", nil, errors.New("timeout")),
		indexerHandle("i3", []domain.IndexingStatus{ok}, nil),
		indexerHandle("i4", []domain.IndexingStatus{ok}, nil),
	}

	metrics := testsupport.NewRecordingMetrics()
	result := CollectStatuses(context.Background(), indexers, time.Second, 0, testsupport.NopLogger{}, metrics)

	assert.Len(t, result, 4)
	assert.Equal(t, 1, metrics.StatusOutcomes["i2"][false])
	assert.Equal(t, 0, metrics.StatusOutcomes["i2"][true])
}

func TestCollectStatusesEmptyInput(t *testing.T) {
	result := CollectStatuses(context.Background(), nil, time.Second, 0, testsupport.NopLogger{}, testsupport.NewRecordingMetrics())
	assert.Empty(t, result)
}

// Order of the input list must not affect which statuses are returned.
func TestCollectStatusesOrderIndependent(t *testing.T) {
	deployment := domain.SubgraphDeployment("QmAAA")
	s1 := domain.IndexingStatus{Deployment: deployment, LatestBlock: domain.BlockPointer{Number: 1}}
	s2 := domain.IndexingStatus{Deployment: deployment, LatestBlock: domain.BlockPointer{Number: 2}}

	forward := []domain.IndexerHandle{
		indexerHandle("a", []domain.IndexingStatus{s1}, nil),
		indexerHandle("b", []domain.IndexingStatus{s2}, nil),
	}
	backward := []domain.IndexerHandle{forward[1], forward[0]}

	r1 := CollectStatuses(context.Background(), forward, time.Second, 0, testsupport.NopLogger{}, testsupport.NewRecordingMetrics())
	r2 := CollectStatuses(context.Background(), backward, time.Second, 0, testsupport.NopLogger{}, testsupport.NewRecordingMetrics())

	require.Len(t, r1, 2)
	require.Len(t, r2, 2)
	assert.ElementsMatch(t, r1, r2)
}
