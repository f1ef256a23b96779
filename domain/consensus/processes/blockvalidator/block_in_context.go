package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/ruleerrors"
)

// ValidateBlockInContext validates block against the chain described by
// blockContext and returns the UTXO delta it would apply on top of it.
func (v *blockValidator) ValidateBlockInContext(block *externalapi.DomainBlock,
	blockContext *model.BlockContext) (*externalapi.UTXODelta, error) {

	err := v.checkHeaderInContext(block.Header, blockContext)
	if err != nil {
		return nil, err
	}

	body := v.NewBodyValidation(block.Header.Height, blockContext.UTXOView)
	for i, tx := range block.Transactions[1:] {
		_, err := body.AddTransaction(tx)
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %d is invalid", i+1)
		}
	}

	coinbase := block.Transactions[0]
	err = v.coinbaseManager.ValidateCoinbaseTransactionInContext(coinbase, block.Header.Height, body.TotalFees())
	if err != nil {
		return nil, err
	}

	return body.Delta(coinbase), nil
}

func (v *blockValidator) checkHeaderInContext(header *externalapi.DomainBlockHeader,
	blockContext *model.BlockContext) error {

	if !header.PreviousBlockHash.Equal(blockContext.ParentHash) {
		return errors.Wrapf(ruleerrors.ErrWrongPreviousHash, "block points to %s "+
			"while the expected parent is %s", &header.PreviousBlockHash, blockContext.ParentHash)
	}

	if header.Height != blockContext.ParentHeight+1 {
		return errors.Wrapf(ruleerrors.ErrWrongHeight, "block height is %d "+
			"while its parent is at height %d", header.Height, blockContext.ParentHeight)
	}

	if header.Timestamp <= blockContext.ParentTimestamp {
		return errors.Wrapf(ruleerrors.ErrBadTimestamp, "block timestamp %d is not after "+
			"the timestamp %d of its parent", header.Timestamp, blockContext.ParentTimestamp)
	}

	if header.Bits != blockContext.RequiredBits {
		return errors.Wrapf(ruleerrors.ErrBadDifficultyTarget, "block difficulty of %08x "+
			"is not the expected value of %08x", header.Bits, blockContext.RequiredBits)
	}
	return nil
}
