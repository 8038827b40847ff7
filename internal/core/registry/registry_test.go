package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash02896/graphix/internal/domain"
	"github.com/yash02896/graphix/internal/testsupport"
)

func addr(b byte) *[20]byte {
	var a [20]byte
	a[19] = b
	return &a
}

// S5: dedupe retains the first occurrence of each distinct address.
func TestDedupeRetainsFirstOccurrence(t *testing.T) {
	a := domain.IndexerHandle{IndexerID: domain.IndexerID{ID: "A", Address: addr(1)}}
	b := domain.IndexerHandle{IndexerID: domain.IndexerID{ID: "B", Address: addr(2)}}
	aPrime := domain.IndexerHandle{IndexerID: domain.IndexerID{ID: "A-duplicate", Address: addr(1)}}

	result := Dedupe([]domain.IndexerHandle{a, b, aPrime})

	require.Len(t, result, 2)
	assert.Equal(t, "A", result[0].ID)
	assert.Equal(t, "B", result[1].ID)
}

// Property 2 + idempotence: deduping an already-deduped list changes
// nothing, and no two entries share an address.
func TestDedupeIdempotent(t *testing.T) {
	a := domain.IndexerHandle{IndexerID: domain.IndexerID{ID: "A", Address: addr(1)}}
	b := domain.IndexerHandle{IndexerID: domain.IndexerID{ID: "B", Address: addr(2)}}

	once := Dedupe([]domain.IndexerHandle{a, b})
	twice := Dedupe(once)

	assert.Equal(t, once, twice)

	seen := map[[20]byte]bool{}
	for _, i := range twice {
		seen[*i.Address] = true
	}
	assert.Len(t, seen, len(twice))
}

func TestPublishWritesAndBroadcasts(t *testing.T) {
	store := testsupport.NewMemStore()
	reg := New(store, testsupport.NopLogger{})

	a := domain.IndexerHandle{IndexerID: domain.IndexerID{ID: "A", Address: addr(1)}}
	_, changed := reg.Broadcast().Snapshot()

	deduped, err := reg.Publish(context.Background(), []domain.IndexerHandle{a})
	require.NoError(t, err)
	require.Len(t, deduped, 1)

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("expected broadcast channel to close after Publish")
	}

	snapshot, _ := reg.Broadcast().Snapshot()
	assert.Equal(t, deduped, snapshot)
	assert.Len(t, store.Indexers, 1)
}
