// Package registry implements the IndexerRegistry (spec.md section 4.F):
// address-based deduplication plus a single-value, last-writer-wins
// broadcast of the current indexer set.
package registry

import (
	"sync"

	"github.com/yash02896/graphix/internal/domain"
)

// Broadcast is a single-producer, multi-consumer "always see latest"
// channel, the Go analogue of tokio::sync::watch used by the original
// source to publish the indexer set from the main loop to the
// investigator. It is built on sync.Mutex plus the standard "closed
// channel as broadcast" idiom (the same mechanism context.Context.Done()
// uses) rather than a buffered queue, since subscribers only ever need the
// latest value, never history.
type Broadcast struct {
	mu    sync.Mutex
	value []domain.IndexerHandle
	gen   chan struct{}
}

// NewBroadcast creates a Broadcast seeded with an empty indexer set.
func NewBroadcast() *Broadcast {
	return &Broadcast{gen: make(chan struct{})}
}

// Publish stores a new snapshot and wakes every current subscriber.
func (b *Broadcast) Publish(indexers []domain.IndexerHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.value = indexers
	close(b.gen)
	b.gen = make(chan struct{})
}

// Snapshot returns the most recently published value and a channel that
// closes the moment a newer value is published.
func (b *Broadcast) Snapshot() ([]domain.IndexerHandle, <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value, b.gen
}
