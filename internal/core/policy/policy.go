// Package policy implements the block-choice policies used to pick the
// block at which PoIs for a deployment are compared.
package policy

import (
	"fmt"

	"github.com/yash02896/graphix/internal/domain"
)

// BlockChoicePolicy is a pure function over the IndexingStatus records of
// one deployment. It must be deterministic and return ok == false iff
// statuses is empty.
type BlockChoicePolicy interface {
	Name() string
	Choose(statuses []domain.IndexingStatus) (blockNumber uint64, ok bool)
}

// MaxBlock returns the maximum latest-block number across statuses.
type MaxBlock struct{}

func (MaxBlock) Name() string { return "max_block" }

func (MaxBlock) Choose(statuses []domain.IndexingStatus) (uint64, bool) {
	if len(statuses) == 0 {
		return 0, false
	}
	max := statuses[0].LatestBlock.Number
	for _, s := range statuses[1:] {
		if s.LatestBlock.Number > max {
			max = s.LatestBlock.Number
		}
	}
	return max, true
}

// MostSyncedBlocks returns the block number held by the largest plurality
// of indexers, tie-breaking to the lowest number.
type MostSyncedBlocks struct{}

func (MostSyncedBlocks) Name() string { return "most_synced_blocks" }

func (MostSyncedBlocks) Choose(statuses []domain.IndexingStatus) (uint64, bool) {
	if len(statuses) == 0 {
		return 0, false
	}

	counts := make(map[uint64]int, len(statuses))
	for _, s := range statuses {
		counts[s.LatestBlock.Number]++
	}

	var best uint64
	bestCount := -1
	for number, count := range counts {
		if count > bestCount || (count == bestCount && number < best) {
			best = number
			bestCount = count
		}
	}
	return best, true
}

// FromName constructs the named policy, matching the config enum
// documented in spec.md section 6 (block_choice_policy).
func FromName(name string) (BlockChoicePolicy, error) {
	switch name {
	case "max_block":
		return MaxBlock{}, nil
	case "most_synced_blocks", "":
		return MostSyncedBlocks{}, nil
	default:
		return nil, fmt.Errorf("unknown block choice policy %q", name)
	}
}
