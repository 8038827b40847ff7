package domain

import "time"

// InvestigationStatus tracks the lifecycle of a divergence investigation.
// "Incomplete" realizes the InvestigationPartialFailure error kind: a
// report persisted mid-bisection after a remote fetch failed.
type InvestigationStatus int

const (
	InvestigationPending InvestigationStatus = iota
	InvestigationRunning
	InvestigationComplete
	InvestigationIncomplete
)

func (s InvestigationStatus) String() string {
	switch s {
	case InvestigationPending:
		return "pending"
	case InvestigationRunning:
		return "running"
	case InvestigationComplete:
		return "complete"
	case InvestigationIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// DivergenceInvestigationRequest names a pair of indexers that disagree on
// a PoI at UpperBlockNumber, filed through the external API and persisted
// by the Store.
type DivergenceInvestigationRequest struct {
	ID                string
	IndexerA          IndexerID
	IndexerB          IndexerID
	Deployment        SubgraphDeployment
	UpperBlockNumber  uint64
	CreatedAt         time.Time
}

// DivergenceInvestigationReport is the terminal (or partial) outcome of a
// bisection run.
//
// Invariant for a Complete report: either FirstDivergentBlock.Number ==
// LastCommonBlock.Number+1, or LastCommonBlock is nil, meaning the pair
// diverged from the earliest available block. An Incomplete report carries
// the block whose fetch failed as FirstDivergentBlock and the bisection's
// lower bound at that point as LastCommonBlock; the two need not be
// adjacent.
type DivergenceInvestigationReport struct {
	IndexerA            IndexerID
	IndexerB            IndexerID
	Deployment          SubgraphDeployment
	FirstDivergentBlock BlockPointer
	LastCommonBlock     *BlockPointer
	Status              InvestigationStatus
	CompletedAt         time.Time
}
