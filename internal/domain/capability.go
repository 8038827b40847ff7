package domain

import "context"

// IndexerClient is the remote-query capability for one indexer. Core
// components depend only on this interface; concrete wire protocols live
// in internal/adapter/indexerclient.
type IndexerClient interface {
	ID() string
	Address() *[20]byte
	AddressString() string

	IndexingStatuses(ctx context.Context) ([]IndexingStatus, error)

	// ProofsOfIndexing is infallible: entries the remote side could not
	// resolve are simply absent from the result, never an error.
	ProofsOfIndexing(ctx context.Context, requests []PoiRequest) []ProofOfIndexing

	Version(ctx context.Context) (GraphNodeCollectedVersion, error)
}
