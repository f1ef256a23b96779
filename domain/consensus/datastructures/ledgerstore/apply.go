package ledgerstore

import (
	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensushashing"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensusserialization"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/difficulty"
	"github.com/sedlynet/sedlyd/infrastructure/db/database"
)

// ApplyBlock connects block on top of the current tip in one atomic batch:
// it records the block at its height, removes every spent entry, inserts
// every created entry, stores the undo record and transaction locations and
// moves the chain state to the block. A block at height zero may be applied
// to an uninitialized store.
//
// If the commit fails nothing is changed, neither on disk nor in memory.
func (s *LedgerStore) ApplyBlock(block *externalapi.DomainBlock, delta *externalapi.UTXODelta) (
	*externalapi.ChainState, error) {

	s.lock.Lock()
	defer s.lock.Unlock()

	blockHash := consensushashing.BlockHash(block)
	newState, err := s.chainStateAfterApply(block, blockHash)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return nil, ioFailure(err, "failed beginning the batch of block %s", blockHash)
	}
	defer dbTx.RollbackUnlessClosed()

	err = dbTx.Put(heightKey(block.Header.Height), blockHash.ByteSlice())
	if err != nil {
		return nil, ioFailure(err, "failed putting the height of block %s", blockHash)
	}

	err = stageUTXODelta(dbTx, newState, delta)
	if err != nil {
		return nil, err
	}

	undoBytes, err := serializeUndoDelta(delta)
	if err != nil {
		return nil, err
	}
	err = dbTx.Put(undoKey(blockHash), undoBytes)
	if err != nil {
		return nil, ioFailure(err, "failed putting the undo record of block %s", blockHash)
	}

	for i, transaction := range block.Transactions {
		locationBytes, err := serializeTransactionLocation(&externalapi.TransactionLocation{
			BlockHash:   *blockHash,
			BlockHeight: block.Header.Height,
			Index:       uint32(i),
		})
		if err != nil {
			return nil, err
		}
		err = dbTx.Put(txIndexKey(consensushashing.TransactionID(transaction)), locationBytes)
		if err != nil {
			return nil, ioFailure(err, "failed indexing the transactions of block %s", blockHash)
		}
	}

	entryBytes, err := serializeBlockIndexEntry(&BlockIndexEntry{
		Hash:           blockHash,
		Header:         block.Header,
		CumulativeWork: newState.cumulativeWork,
		Status:         externalapi.StatusValid,
	})
	if err != nil {
		return nil, err
	}
	err = dbTx.Put(blockIndexKey(blockHash), entryBytes)
	if err != nil {
		return nil, ioFailure(err, "failed putting the index entry of block %s", blockHash)
	}

	err = s.commitChainState(dbTx, newState)
	if err != nil {
		return nil, err
	}
	log.Debugf("Applied block %s at height %d (%d spent, %d created)",
		blockHash, block.Header.Height, len(delta.Spent), len(delta.Created))
	return newState.toChainState(), nil
}

// RevertBlock disconnects the current tip in one atomic batch. inverseDelta
// is the inverse of the delta the block was applied with: its Spent entries
// are the outputs the block created and its Created entries are the entries
// the block consumed.
func (s *LedgerStore) RevertBlock(block *externalapi.DomainBlock, inverseDelta *externalapi.UTXODelta) (
	*externalapi.ChainState, error) {

	s.lock.Lock()
	defer s.lock.Unlock()

	blockHash := consensushashing.BlockHash(block)
	newState, err := s.chainStateAfterRevert(block, blockHash)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return nil, ioFailure(err, "failed beginning the revert batch of block %s", blockHash)
	}
	defer dbTx.RollbackUnlessClosed()

	err = dbTx.Delete(heightKey(block.Header.Height))
	if err != nil {
		return nil, ioFailure(err, "failed deleting the height of block %s", blockHash)
	}

	err = stageUTXODelta(dbTx, newState, inverseDelta)
	if err != nil {
		return nil, err
	}

	err = dbTx.Delete(undoKey(blockHash))
	if err != nil {
		return nil, ioFailure(err, "failed deleting the undo record of block %s", blockHash)
	}

	for _, transaction := range block.Transactions {
		err = dbTx.Delete(txIndexKey(consensushashing.TransactionID(transaction)))
		if err != nil {
			return nil, ioFailure(err, "failed unindexing the transactions of block %s", blockHash)
		}
	}

	err = s.commitChainState(dbTx, newState)
	if err != nil {
		return nil, err
	}
	log.Debugf("Reverted block %s at height %d", blockHash, block.Header.Height)
	return newState.toChainState(), nil
}

func (s *LedgerStore) chainStateAfterApply(block *externalapi.DomainBlock,
	blockHash *externalapi.DomainHash) (*chainStateRecord, error) {

	blockWork := difficulty.CalcWork(block.Header.Bits)
	if s.chainState == nil {
		if block.Header.Height != 0 {
			return nil, errors.Errorf("cannot apply block %s at height %d to an uninitialized ledger",
				blockHash, block.Header.Height)
		}
		return &chainStateRecord{
			tipHash:        *blockHash,
			tipHeight:      0,
			cumulativeWork: blockWork,
			utxoCount:      0,
			utxoSet:        muhash.NewMuHash(),
		}, nil
	}

	if !block.Header.PreviousBlockHash.Equal(&s.chainState.tipHash) ||
		block.Header.Height != s.chainState.tipHeight+1 {
		return nil, errors.Errorf("block %s at height %d does not extend tip %s at height %d",
			blockHash, block.Header.Height, s.chainState.tipHash, s.chainState.tipHeight)
	}
	newState := s.chainState.clone()
	newState.tipHash = *blockHash
	newState.tipHeight = block.Header.Height
	newState.cumulativeWork.Add(newState.cumulativeWork, blockWork)
	return newState, nil
}

func (s *LedgerStore) chainStateAfterRevert(block *externalapi.DomainBlock,
	blockHash *externalapi.DomainHash) (*chainStateRecord, error) {

	if s.chainState == nil || !s.chainState.tipHash.Equal(blockHash) {
		return nil, errors.Errorf("cannot revert block %s since it is not the tip", blockHash)
	}
	if block.Header.Height == 0 {
		return nil, errors.Errorf("cannot revert the genesis block %s", blockHash)
	}
	newState := s.chainState.clone()
	newState.tipHash = block.Header.PreviousBlockHash
	newState.tipHeight = block.Header.Height - 1
	newState.cumulativeWork.Sub(newState.cumulativeWork, difficulty.CalcWork(block.Header.Bits))
	if newState.cumulativeWork.Sign() <= 0 {
		return nil, corruption(errors.Errorf("work %s", newState.cumulativeWork),
			"reverting block %s leaves no cumulative work", blockHash)
	}
	return newState, nil
}

// stageUTXODelta writes delta into dbTx and folds it into the UTXO multiset
// and count of newState. Removals are staged before insertions.
func stageUTXODelta(dbTx database.Transaction, newState *chainStateRecord, delta *externalapi.UTXODelta) error {
	for _, pair := range delta.Spent {
		if newState.utxoCount == 0 {
			return corruption(errors.Errorf("spending %s", pair.Outpoint), "UTXO count underflow")
		}
		err := dbTx.Delete(utxoKey(pair.Outpoint))
		if err != nil {
			return ioFailure(err, "failed deleting UTXO %s", pair.Outpoint)
		}
		utxoBytes, err := consensusserialization.SerializeUTXO(pair.UTXOEntry, pair.Outpoint)
		if err != nil {
			return err
		}
		newState.utxoSet.Remove(utxoBytes)
		newState.utxoCount--
	}

	for _, pair := range delta.Created {
		entryBytes, err := consensusserialization.SerializeUTXOEntry(pair.UTXOEntry)
		if err != nil {
			return err
		}
		err = dbTx.Put(utxoKey(pair.Outpoint), entryBytes)
		if err != nil {
			return ioFailure(err, "failed putting UTXO %s", pair.Outpoint)
		}
		utxoBytes, err := consensusserialization.SerializeUTXO(pair.UTXOEntry, pair.Outpoint)
		if err != nil {
			return err
		}
		newState.utxoSet.Add(utxoBytes)
		newState.utxoCount++
	}
	return nil
}

func (s *LedgerStore) commitChainState(dbTx database.Transaction, newState *chainStateRecord) error {
	stateBytes, err := serializeChainState(newState)
	if err != nil {
		return err
	}
	err = dbTx.Put(chainStateKey, stateBytes)
	if err != nil {
		return ioFailure(err, "failed putting the chain state")
	}
	err = dbTx.Commit()
	if err != nil {
		return ioFailure(err, "failed committing the chain state of tip %s", newState.tipHash)
	}
	s.chainState = newState
	return nil
}
