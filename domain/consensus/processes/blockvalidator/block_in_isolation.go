package blockvalidator

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/ruleerrors"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensushashing"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/difficulty"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/hashes"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/merkle"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/transactionhelper"
)

// ValidateBlockInIsolation validates a block in isolation from the current
// consensus state
func (v *blockValidator) ValidateBlockInIsolation(block *externalapi.DomainBlock) error {
	header := block.Header
	err := v.checkProofOfWork(header)
	if err != nil {
		return err
	}

	err = v.checkBlockTimestamp(header)
	if err != nil {
		return err
	}

	err = v.checkBlockContainsAtLeastOneTransaction(block)
	if err != nil {
		return err
	}

	err = v.checkFirstBlockTransactionIsCoinbase(block)
	if err != nil {
		return err
	}

	err = v.checkBlockContainsOnlyOneCoinbase(block)
	if err != nil {
		return err
	}

	err = v.checkTransactionsInIsolation(block)
	if err != nil {
		return err
	}

	err = v.checkBlockHashMerkleRoot(block)
	if err != nil {
		return err
	}

	err = v.checkBlockDuplicateTransactions(block)
	if err != nil {
		return err
	}

	return nil
}

// checkProofOfWork ensures the block header bits which indicate the target
// difficulty is in min/max range and that the block hash is less than the
// target difficulty as claimed.
func (v *blockValidator) checkProofOfWork(header *externalapi.DomainBlockHeader) error {
	// The target difficulty must be larger than zero and less than the
	// maximum allowed.
	if !difficulty.IsValidTarget(header.Bits, v.powLimit) {
		return errors.Wrapf(ruleerrors.ErrBadDifficultyTarget, "block target difficulty of %064x is "+
			"out of the range (0, %064x]", difficulty.CompactToBig(header.Bits), v.powLimit)
	}

	// The block hash must be less than or equal to the claimed target.
	target := difficulty.CompactToBig(header.Bits)
	blockHash := consensushashing.HeaderHash(header)
	hashNum := hashes.ToBig(blockHash)
	if hashNum.Cmp(target) > 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidProofOfWork, "block hash of %064x is higher "+
			"than expected max of %064x", hashNum, target)
	}

	return nil
}

// checkBlockTimestamp rejects blocks whose timestamp is further in the
// future than the allowed offset from the local clock.
func (v *blockValidator) checkBlockTimestamp(header *externalapi.DomainBlockHeader) error {
	maxTimestamp := v.timeSource().Add(v.maxTimeOffset).Unix()
	if maxTimestamp < 0 || header.Timestamp > uint64(maxTimestamp) {
		return errors.Wrapf(ruleerrors.ErrBadTimestamp, "block timestamp of %s is too far in the future",
			time.Unix(int64(header.Timestamp), 0))
	}
	return nil
}

func (v *blockValidator) checkBlockContainsAtLeastOneTransaction(block *externalapi.DomainBlock) error {
	if len(block.Transactions) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoTransactions, "block does not contain "+
			"any transactions")
	}
	return nil
}

func (v *blockValidator) checkFirstBlockTransactionIsCoinbase(block *externalapi.DomainBlock) error {
	return v.coinbaseManager.ValidateCoinbaseTransactionInIsolation(block.Transactions[0], block.Header.Height)
}

func (v *blockValidator) checkBlockContainsOnlyOneCoinbase(block *externalapi.DomainBlock) error {
	for i, tx := range block.Transactions[1:] {
		if transactionhelper.SpendsNullOutpoint(tx) {
			return errors.Wrapf(ruleerrors.ErrMultipleCoinbases, "block contains second coinbase at "+
				"index %d", i+1)
		}
	}
	return nil
}

func (v *blockValidator) checkTransactionsInIsolation(block *externalapi.DomainBlock) error {
	for i, tx := range block.Transactions {
		err := checkTransactionInIsolation(tx, i == 0)
		if err != nil {
			return errors.Wrapf(err, "transaction %d of block %s is malformed",
				i, consensushashing.BlockHash(block))
		}
	}
	return nil
}

func (v *blockValidator) checkBlockHashMerkleRoot(block *externalapi.DomainBlock) error {
	calculatedHashMerkleRoot := merkle.CalculateHashMerkleRoot(block.Transactions)
	if !block.Header.MerkleRoot.Equal(calculatedHashMerkleRoot) {
		return errors.Wrapf(ruleerrors.ErrBadMerkleRoot, "block hash merkle root is invalid - block "+
			"header indicates %s, but calculated value is %s",
			&block.Header.MerkleRoot, calculatedHashMerkleRoot)
	}
	return nil
}

func (v *blockValidator) checkBlockDuplicateTransactions(block *externalapi.DomainBlock) error {
	existingTxIDs := make(map[externalapi.DomainTransactionID]struct{}, len(block.Transactions))
	for _, tx := range block.Transactions {
		id := consensushashing.TransactionID(tx)
		if _, exists := existingTxIDs[*id]; exists {
			return errors.Wrapf(ruleerrors.ErrDuplicateTransaction, "block contains duplicate "+
				"transaction %s", id)
		}
		existingTxIDs[*id] = struct{}{}
	}
	return nil
}
