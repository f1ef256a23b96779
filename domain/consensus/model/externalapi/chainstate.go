package externalapi

import (
	"fmt"
	"math/big"
)

// ChainState describes the tip of the best chain.
// UTXOCommitment is the finalized MuHash of every entry in the UTXO set.
type ChainState struct {
	TipHash        DomainHash
	TipHeight      uint64
	CumulativeWork *big.Int
	UTXOCommitment DomainHash
}

// Clone returns a clone of ChainState
func (state *ChainState) Clone() *ChainState {
	return &ChainState{
		TipHash:        state.TipHash,
		TipHeight:      state.TipHeight,
		CumulativeWork: new(big.Int).Set(state.CumulativeWork),
		UTXOCommitment: state.UTXOCommitment,
	}
}

// Equal returns whether state equals to other
func (state *ChainState) Equal(other *ChainState) bool {
	if state == nil || other == nil {
		return state == other
	}
	return state.TipHash.Equal(&other.TipHash) &&
		state.TipHeight == other.TipHeight &&
		state.CumulativeWork.Cmp(other.CumulativeWork) == 0 &&
		state.UTXOCommitment.Equal(&other.UTXOCommitment)
}

func (state *ChainState) String() string {
	return fmt.Sprintf("tip %s at height %d (work %s)", state.TipHash, state.TipHeight, state.CumulativeWork)
}

// LedgerStats is a summary of the stored ledger.
type LedgerStats struct {
	TipHash          DomainHash
	TipHeight        uint64
	UTXOCount        uint64
	StoredBlockCount uint64
}

// TransactionLocation is where a best-chain transaction lives.
type TransactionLocation struct {
	BlockHash   DomainHash
	BlockHeight uint64
	Index       uint32
}
