package model

import "github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"

// BlockValidator exposes a set of validation classes, after which
// it's possible to determine whether a block is valid
type BlockValidator interface {
	// ValidateBlockInIsolation runs every check that needs nothing but the
	// block itself.
	ValidateBlockInIsolation(block *externalapi.DomainBlock) error

	// ValidateBlockInContext checks block against the chain it extends and
	// returns the UTXO delta it would apply. It never mutates state.
	ValidateBlockInContext(block *externalapi.DomainBlock, blockContext *BlockContext) (*externalapi.UTXODelta, error)

	// NewBodyValidation starts an incremental validation of the
	// transactions of a block at the given height.
	NewBodyValidation(height uint64, utxoView UTXOView) BodyValidation
}

// BodyValidation validates transactions one by one against a UTXO view and
// the outputs of the transactions already added.
type BodyValidation interface {
	// AddTransaction validates a non-coinbase transaction and, if it is
	// valid, records its spends and outputs. An invalid transaction leaves
	// the validation untouched.
	AddTransaction(transaction *externalapi.DomainTransaction) (fee uint64, err error)

	// TotalFees is the sum of the fees of every added transaction.
	TotalFees() uint64

	// Delta returns the net UTXO change of the coinbase followed by every
	// added transaction.
	Delta(coinbase *externalapi.DomainTransaction) *externalapi.UTXODelta
}

// BlockContext is everything the contextual checks need to know about the
// chain a block extends.
type BlockContext struct {
	ParentHash      *externalapi.DomainHash
	ParentHeight    uint64
	ParentTimestamp uint64
	RequiredBits    uint32
	UTXOView        UTXOView
}
