package ledgerstore

import (
	"math/big"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensushashing"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensusserialization"
	"github.com/sedlynet/sedlyd/infrastructure/db/database"
)

// LedgerStore persists blocks, the best chain height index, the UTXO set and
// the chain state. Mutations are serialized and each one is a single atomic
// batch. Lookups read the database directly and therefore only ever observe
// fully committed batches.
type LedgerStore struct {
	db database.Database

	// lock serializes mutations and guards the cached chain state and
	// block count.
	lock       sync.RWMutex
	chainState *chainStateRecord
	blockCount uint64

	blockCache *lru.Cache[externalapi.DomainHash, *externalapi.DomainBlock]
}

// New instantiates a new LedgerStore on top of db and loads the persisted
// chain state, if any.
func New(db database.Database, blockCacheSize int) (*LedgerStore, error) {
	blockCache, err := lru.New[externalapi.DomainHash, *externalapi.DomainBlock](blockCacheSize)
	if err != nil {
		return nil, errors.Wrapf(err, "failed creating a block cache of size %d", blockCacheSize)
	}

	store := &LedgerStore{
		db:         db,
		blockCache: blockCache,
	}

	err = store.initializeBlockCount()
	if err != nil {
		return nil, err
	}
	err = store.initializeChainState()
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (s *LedgerStore) initializeBlockCount() error {
	countBytes, err := s.db.Get(blockCountKey)
	if database.IsNotFoundError(err) {
		return nil
	}
	if err != nil {
		return ioFailure(err, "failed reading the block count")
	}
	s.blockCount, err = deserializeCount(countBytes)
	if err != nil {
		return corruption(err, "failed decoding the block count")
	}
	return nil
}

func (s *LedgerStore) initializeChainState() error {
	stateBytes, err := s.db.Get(chainStateKey)
	if database.IsNotFoundError(err) {
		log.Debugf("No chain state found, the ledger is uninitialized")
		return nil
	}
	if err != nil {
		return ioFailure(err, "failed reading the chain state")
	}
	s.chainState, err = deserializeChainState(stateBytes)
	if err != nil {
		return corruption(err, "failed decoding the chain state")
	}
	log.Debugf("Loaded chain state with tip %s at height %d",
		s.chainState.tipHash, s.chainState.tipHeight)
	return nil
}

// IsInitialized returns whether a chain state has ever been committed.
func (s *LedgerStore) IsInitialized() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.chainState != nil
}

// GetChainState returns the chain state as of the last committed batch.
func (s *LedgerStore) GetChainState() (*externalapi.ChainState, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.chainState == nil {
		return nil, errors.Wrap(ErrNotFound, "chain state not found")
	}
	return s.chainState.toChainState(), nil
}

// PutBlock persists the block bytes and a block index entry with the given
// cumulative work and status. It does not touch the height index nor the
// UTXO set. Putting an already stored block overwrites its index entry only.
func (s *LedgerStore) PutBlock(block *externalapi.DomainBlock, cumulativeWork *big.Int,
	status externalapi.BlockStatus) error {

	s.lock.Lock()
	defer s.lock.Unlock()

	blockHash := consensushashing.BlockHash(block)
	exists, err := s.db.Has(blockKey(blockHash))
	if err != nil {
		return ioFailure(err, "failed checking for block %s", blockHash)
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return ioFailure(err, "failed beginning the batch of block %s", blockHash)
	}
	defer dbTx.RollbackUnlessClosed()

	newBlockCount := s.blockCount
	if !exists {
		blockBytes, err := consensusserialization.SerializeBlock(block)
		if err != nil {
			return err
		}
		err = dbTx.Put(blockKey(blockHash), blockBytes)
		if err != nil {
			return ioFailure(err, "failed putting block %s", blockHash)
		}
		newBlockCount++
		err = dbTx.Put(blockCountKey, serializeCount(newBlockCount))
		if err != nil {
			return ioFailure(err, "failed putting the block count")
		}
	}

	entryBytes, err := serializeBlockIndexEntry(&BlockIndexEntry{
		Hash:           blockHash,
		Header:         block.Header,
		CumulativeWork: cumulativeWork,
		Status:         status,
	})
	if err != nil {
		return err
	}
	err = dbTx.Put(blockIndexKey(blockHash), entryBytes)
	if err != nil {
		return ioFailure(err, "failed putting the index entry of block %s", blockHash)
	}

	err = dbTx.Commit()
	if err != nil {
		return ioFailure(err, "failed committing block %s", blockHash)
	}
	s.blockCount = newBlockCount
	s.blockCache.Add(*blockHash, block.Clone())
	return nil
}

// SetBlockStatus updates the status kept in the index entry of a stored block.
func (s *LedgerStore) SetBlockStatus(blockHash *externalapi.DomainHash, status externalapi.BlockStatus) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	entry, err := s.blockIndexEntry(blockHash)
	if err != nil {
		return err
	}
	entry.Status = status
	entryBytes, err := serializeBlockIndexEntry(entry)
	if err != nil {
		return err
	}
	err = s.db.Put(blockIndexKey(blockHash), entryBytes)
	if err != nil {
		return ioFailure(err, "failed updating the status of block %s", blockHash)
	}
	return nil
}

// BlockIndexEntry returns the index entry of a stored block.
func (s *LedgerStore) BlockIndexEntry(blockHash *externalapi.DomainHash) (*BlockIndexEntry, error) {
	return s.blockIndexEntry(blockHash)
}

func (s *LedgerStore) blockIndexEntry(blockHash *externalapi.DomainHash) (*BlockIndexEntry, error) {
	entryBytes, err := s.db.Get(blockIndexKey(blockHash))
	if err != nil {
		return nil, readFailure(err, "failed reading the index entry of block %s", blockHash)
	}
	entry, err := deserializeBlockIndexEntry(entryBytes)
	if err != nil {
		return nil, corruption(err, "failed decoding the index entry of block %s", blockHash)
	}
	if !entry.Hash.Equal(blockHash) {
		return nil, corruption(errors.Errorf("entry hashes to %s", entry.Hash),
			"index entry of block %s is stored under the wrong key", blockHash)
	}
	return entry, nil
}

// BlockIndexEntries returns the index entries of every stored block, in
// key order.
func (s *LedgerStore) BlockIndexEntries() ([]*BlockIndexEntry, error) {
	cursor, err := s.db.Cursor(blockIndexBucket)
	if err != nil {
		return nil, ioFailure(err, "failed opening a block index cursor")
	}
	defer cursor.Close()

	var entries []*BlockIndexEntry
	for ok := cursor.First(); ok; ok = cursor.Next() {
		entryBytes, err := cursor.Value()
		if err != nil {
			return nil, ioFailure(err, "failed reading a block index entry")
		}
		entry, err := deserializeBlockIndexEntry(entryBytes)
		if err != nil {
			return nil, corruption(err, "failed decoding a block index entry")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// HasBlock returns whether the block bytes of blockHash are stored.
func (s *LedgerStore) HasBlock(blockHash *externalapi.DomainHash) (bool, error) {
	if s.blockCache.Contains(*blockHash) {
		return true, nil
	}
	exists, err := s.db.Has(blockKey(blockHash))
	if err != nil {
		return false, ioFailure(err, "failed checking for block %s", blockHash)
	}
	return exists, nil
}

// GetBlock returns the stored block with the given hash, whether or not it
// is on the best chain.
func (s *LedgerStore) GetBlock(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error) {
	if block, ok := s.blockCache.Get(*blockHash); ok {
		return block.Clone(), nil
	}

	blockBytes, err := s.db.Get(blockKey(blockHash))
	if err != nil {
		return nil, readFailure(err, "failed reading block %s", blockHash)
	}
	block, err := consensusserialization.DeserializeBlock(blockBytes)
	if err != nil {
		return nil, corruption(err, "failed decoding block %s", blockHash)
	}
	s.blockCache.Add(*blockHash, block)
	return block.Clone(), nil
}

// GetHashByHeight returns the hash of the best chain block at height.
func (s *LedgerStore) GetHashByHeight(height uint64) (*externalapi.DomainHash, error) {
	hashBytes, err := s.db.Get(heightKey(height))
	if err != nil {
		return nil, readFailure(err, "failed reading the block hash at height %d", height)
	}
	blockHash, err := externalapi.NewDomainHashFromByteSlice(hashBytes)
	if err != nil {
		return nil, corruption(err, "failed decoding the block hash at height %d", height)
	}
	return blockHash, nil
}

// GetBlockByHeight returns the best chain block at height.
func (s *LedgerStore) GetBlockByHeight(height uint64) (*externalapi.DomainBlock, error) {
	blockHash, err := s.GetHashByHeight(height)
	if err != nil {
		return nil, err
	}
	block, err := s.GetBlock(blockHash)
	if database.IsNotFoundError(err) {
		return nil, corruption(err, "height %d points to missing block %s", height, blockHash)
	}
	return block, err
}

// GetUTXO returns the unspent entry of outpoint on the best chain.
func (s *LedgerStore) GetUTXO(outpoint *externalapi.DomainOutpoint) (*externalapi.UTXOEntry, error) {
	entryBytes, err := s.db.Get(utxoKey(outpoint))
	if err != nil {
		return nil, readFailure(err, "failed reading UTXO %s", outpoint)
	}
	entry, err := consensusserialization.DeserializeUTXOEntry(entryBytes)
	if err != nil {
		return nil, corruption(err, "failed decoding UTXO %s", outpoint)
	}
	return entry, nil
}

// UndoDelta returns the delta that was committed when blockHash was applied.
// Its Inverse is what RevertBlock expects.
func (s *LedgerStore) UndoDelta(blockHash *externalapi.DomainHash) (*externalapi.UTXODelta, error) {
	undoBytes, err := s.db.Get(undoKey(blockHash))
	if err != nil {
		return nil, readFailure(err, "failed reading the undo record of block %s", blockHash)
	}
	delta, err := deserializeUndoDelta(undoBytes)
	if err != nil {
		return nil, corruption(err, "failed decoding the undo record of block %s", blockHash)
	}
	return delta, nil
}

// GetTransactionLocation returns where the best chain transaction with the
// given ID lives.
func (s *LedgerStore) GetTransactionLocation(transactionID *externalapi.DomainTransactionID) (
	*externalapi.TransactionLocation, error) {

	locationBytes, err := s.db.Get(txIndexKey(transactionID))
	if err != nil {
		return nil, readFailure(err, "failed reading the location of transaction %s", transactionID)
	}
	location, err := deserializeTransactionLocation(locationBytes)
	if err != nil {
		return nil, corruption(err, "failed decoding the location of transaction %s", transactionID)
	}
	return location, nil
}

// Stats returns a summary of the stored ledger.
func (s *LedgerStore) Stats() (*externalapi.LedgerStats, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.chainState == nil {
		return nil, errors.Wrap(ErrNotFound, "chain state not found")
	}
	return &externalapi.LedgerStats{
		TipHash:          s.chainState.tipHash,
		TipHeight:        s.chainState.tipHeight,
		UTXOCount:        s.chainState.utxoCount,
		StoredBlockCount: s.blockCount,
	}, nil
}
