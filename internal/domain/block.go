// Package domain holds the data model shared by every core component:
// block pointers, indexer identity, indexing statuses, proofs of indexing
// and divergence investigation reports.
package domain

import "fmt"

// BlockPointer identifies a block by number and, optionally, by hash.
//
// Two pointers are consistent if either hash is absent or both hashes are
// present and equal; pointers are ordered by number alone.
type BlockPointer struct {
	Number uint64
	Hash   *[32]byte
}

// Consistent reports whether b and other could refer to the same block.
func (b BlockPointer) Consistent(other BlockPointer) bool {
	if b.Hash == nil || other.Hash == nil {
		return true
	}
	return *b.Hash == *other.Hash
}

func (b BlockPointer) String() string {
	if b.Hash == nil {
		return fmt.Sprintf("#%d (no hash)", b.Number)
	}
	return fmt.Sprintf("#%d (0x%x)", b.Number, *b.Hash)
}

// Less orders block pointers by number.
func (b BlockPointer) Less(other BlockPointer) bool {
	return b.Number < other.Number
}
