package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// IndexerID is the identity projection of an indexer: a stable id plus an
// optional on-chain address. Two IDs that both have addresses are equal iff
// their addresses are equal; two IDs without addresses are equal iff their
// ids are equal; an ID with an address never equals one without. The
// address is the canonical deduplication key (spec.md section 3).
type IndexerID struct {
	ID      string
	Address *[20]byte
}

// Equal implements the identity rule from the data model.
func (i IndexerID) Equal(other IndexerID) bool {
	if i.Address != nil && other.Address != nil {
		return *i.Address == *other.Address
	}
	if i.Address != nil || other.Address != nil {
		return false
	}
	return i.ID == other.ID
}

// Key returns a comparable, hashable projection suitable for use as a map
// key: the hex-encoded address when present, else the raw id prefixed to
// avoid collisions between the two namespaces.
func (i IndexerID) Key() string {
	if i.Address != nil {
		return "addr:" + hex.EncodeToString(i.Address[:])
	}
	return "id:" + i.ID
}

func (i IndexerID) AddressString() string {
	if i.Address == nil {
		return ""
	}
	return "0x" + hex.EncodeToString(i.Address[:])
}

// DecodeAddressHex parses a 20-byte indexer address with an optional "0x"
// prefix.
func DecodeAddressHex(s string) ([20]byte, error) {
	var addr [20]byte
	decoded, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return addr, fmt.Errorf("decode address hex: %w", err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("address must be %d bytes, got %d", len(addr), len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}

// IndexerHandle couples an indexer's identity with the capability used to
// query it. It is immutable after construction and safe to share across
// goroutines; only the capability implementation's own internal state (if
// any) needs its own synchronization.
type IndexerHandle struct {
	IndexerID
	Client IndexerClient
}
