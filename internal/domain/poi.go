package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// SubgraphDeployment is an IPFS CID string identifying a subgraph
// deployment. It is case-sensitive and used directly as a map key; unlike
// the Rust original's newtype wrapper, Go strings are already comparable
// and hashable so no wrapper type is needed.
type SubgraphDeployment string

// PoiBytes is a 32-byte Proof-of-Indexing digest, compared bytewise.
type PoiBytes [32]byte

// DecodePoiHex parses a hex-encoded PoI with an optional "0x" prefix.
func DecodePoiHex(s string) (PoiBytes, error) {
	var poi PoiBytes
	trimmed := strings.TrimPrefix(s, "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return poi, fmt.Errorf("decode poi hex: %w", err)
	}
	if len(decoded) != len(poi) {
		return poi, fmt.Errorf("poi must be %d bytes, got %d", len(poi), len(decoded))
	}
	copy(poi[:], decoded)
	return poi, nil
}

// EncodeHex renders the PoI as a "0x"-prefixed hex string.
func (p PoiBytes) EncodeHex() string {
	return "0x" + hex.EncodeToString(p[:])
}

func (p PoiBytes) String() string {
	return p.EncodeHex()
}

// IndexingStatus is a snapshot produced by a live query against one
// indexer for one deployment.
//
// Invariant: EarliestBlockNumber <= LatestBlock.Number.
type IndexingStatus struct {
	Indexer             IndexerHandle
	Deployment          SubgraphDeployment
	Network             string
	LatestBlock         BlockPointer
	EarliestBlockNumber uint64
}

// ProofOfIndexing is unique per (Indexer, Deployment, Block.Number); the
// Store upserts on that key.
type ProofOfIndexing struct {
	Indexer    IndexerHandle
	Deployment SubgraphDeployment
	Block      BlockPointer
	Poi        PoiBytes
}

// PoiRequest names a single (deployment, block) pair to fetch a PoI for.
type PoiRequest struct {
	Deployment  SubgraphDeployment
	BlockNumber uint64
}

// PoiLiveness records the provenance of a persisted PoI.
type PoiLiveness int

const (
	LivenessLive PoiLiveness = iota
	LivenessFromInvestigation
)

func (l PoiLiveness) String() string {
	switch l {
	case LivenessLive:
		return "live"
	case LivenessFromInvestigation:
		return "from_investigation"
	default:
		return "unknown"
	}
}

// Network is a canonicalization entry for a configured chain.
type Network struct {
	Name   string
	Caip2  string
}

// GraphNodeCollectedVersion is the version information collected from an
// indexer's graph-node instance.
type GraphNodeCollectedVersion struct {
	Version string
	Commit  string
}
