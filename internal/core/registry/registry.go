package registry

import (
	"context"

	"github.com/yash02896/graphix/internal/core/ports"
	"github.com/yash02896/graphix/internal/domain"
)

// Registry deduplicates a freshly built indexer list by address (retaining
// the first occurrence of each distinct address), persists the deduped
// set, and publishes it on a Broadcast for the investigator to observe.
type Registry struct {
	store     ports.Store
	logger    ports.Logger
	broadcast *Broadcast
}

func New(store ports.Store, logger ports.Logger) *Registry {
	return &Registry{store: store, logger: logger, broadcast: NewBroadcast()}
}

// Broadcast exposes the registry's publish channel for subscribers.
func (r *Registry) Broadcast() *Broadcast {
	return r.broadcast
}

// Dedupe walks indexers in order, keeping the first occurrence of each
// distinct address and dropping later duplicates (property 2: no two
// indexers in the output share an address).
func Dedupe(indexers []domain.IndexerHandle) []domain.IndexerHandle {
	seen := make(map[string]struct{}, len(indexers))
	deduped := make([]domain.IndexerHandle, 0, len(indexers))
	for _, indexer := range indexers {
		key := indexer.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, indexer)
	}
	return deduped
}

// Publish deduplicates indexers, writes them to the Store, and broadcasts
// the result. Ordering per spec.md section 5: write-then-broadcast.
func (r *Registry) Publish(ctx context.Context, indexers []domain.IndexerHandle) ([]domain.IndexerHandle, error) {
	before := len(indexers)
	deduped := Dedupe(indexers)
	r.logger.Info("deduplicated indexers", "before", before, "after", len(deduped))

	if err := r.store.WriteIndexers(ctx, deduped); err != nil {
		return nil, err
	}

	r.broadcast.Publish(deduped)
	return deduped, nil
}
