package collector

import (
	"context"
	"errors"

	"github.com/yash02896/graphix/internal/domain"
)

// fakeIndexer is a hand-written test double for domain.IndexerClient,
// in the style of the original source's test_utils/gen.rs MockIndexer.
type fakeIndexer struct {
	id             string
	address        *[20]byte
	statuses       []domain.IndexingStatus
	statusesErr    error
	pois           map[domain.PoiRequest]domain.PoiBytes
}

func (f *fakeIndexer) ID() string           { return f.id }
func (f *fakeIndexer) Address() *[20]byte   { return f.address }
func (f *fakeIndexer) AddressString() string {
	if f.address == nil {
		return f.id
	}
	return f.id
}

func (f *fakeIndexer) IndexingStatuses(ctx context.Context) ([]domain.IndexingStatus, error) {
	if f.statusesErr != nil {
		return nil, f.statusesErr
	}
	return f.statuses, nil
}

func (f *fakeIndexer) ProofsOfIndexing(ctx context.Context, requests []domain.PoiRequest) []domain.ProofOfIndexing {
	var out []domain.ProofOfIndexing
	for _, r := range requests {
		poi, ok := f.pois[r]
		if !ok {
			continue
		}
		out = append(out, domain.ProofOfIndexing{
			Deployment: r.Deployment,
			Block:      domain.BlockPointer{Number: r.BlockNumber},
			Poi:        poi,
		})
	}
	return out
}

func (f *fakeIndexer) Version(ctx context.Context) (domain.GraphNodeCollectedVersion, error) {
	return domain.GraphNodeCollectedVersion{}, errors.New("not implemented")
}

func handle(name string) domain.IndexerHandle {
	return domain.IndexerHandle{
		IndexerID: domain.IndexerID{ID: name},
		Client:    &fakeIndexer{id: name},
	}
}

func poiBytes(b byte) domain.PoiBytes {
	var p domain.PoiBytes
	for i := range p {
		p[i] = b
	}
	return p
}
