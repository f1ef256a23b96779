package consensus

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/datastructures/ledgerstore"
	"github.com/sedlynet/sedlyd/domain/consensus/model"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/processes/blockvalidator"
	"github.com/sedlynet/sedlyd/domain/consensus/processes/coinbasemanager"
	"github.com/sedlynet/sedlyd/domain/consensus/processes/difficultymanager"
	"github.com/sedlynet/sedlyd/domain/dagconfig"
	"github.com/sedlynet/sedlyd/infrastructure/db/database"
	"github.com/sedlynet/sedlyd/infrastructure/db/database/ldb"
	"github.com/sedlynet/sedlyd/util/prioritylock"
)

// Ledger is the handle to a single chain: its store, its block index and the
// rules blocks are checked against. Every operation goes through a Ledger;
// there is no package level chain state.
type Ledger struct {
	params *dagconfig.Params
	config *Config

	db     database.Database
	ownsDB bool
	store  *ledgerstore.LedgerStore

	blockValidator    model.BlockValidator
	coinbaseManager   model.CoinbaseManager
	difficultyManager model.DifficultyManager

	// lock guards index and tip. Submissions take the high priority write
	// lock; lookups take the high priority read lock.
	lock  *prioritylock.Mutex
	index *blockIndex
	tip   int
}

// Open opens, or creates, the ledger database at path.
func Open(path string, config *Config) (*Ledger, error) {
	db, err := ldb.NewLevelDB(path, config.DatabaseCacheSizeMiB)
	if err != nil {
		return nil, ledgerstore.IOFailure(err, "failed opening the ledger database at %s", path)
	}
	ledger, err := New(db, config)
	if err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			log.Warnf("Failed closing the database after a failed open: %s", closeErr)
		}
		return nil, err
	}
	ledger.ownsDB = true
	return ledger, nil
}

// New instantiates a Ledger on top of an already open database.
func New(db database.Database, config *Config) (*Ledger, error) {
	params := config.Params
	store, err := ledgerstore.New(db, config.BlockCacheSize)
	if err != nil {
		return nil, err
	}

	coinbaseManager := coinbasemanager.New(params.BaseSubsidy, params.SubsidyReductionInterval)
	ledger := &Ledger{
		params: params,
		config: config,
		db:     db,
		store:  store,

		blockValidator: blockvalidator.New(
			params.PowLimit,
			params.MaxTimeOffset,
			params.BlockCoinbaseMaturity,
			config.TimeSource,
			config.OwnershipChecker,
			coinbaseManager),
		coinbaseManager: coinbaseManager,
		difficultyManager: difficultymanager.New(
			params.PowLimit,
			params.DifficultyAdjustmentInterval,
			params.TargetTimePerBlock,
			params.MaxDifficultyAdjustment),

		lock:  prioritylock.New(),
		index: newBlockIndex(),
		tip:   noParent,
	}

	err = ledger.loadBlockIndex()
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

// loadBlockIndex rebuilds the in-memory block index from the store and
// locates the persisted tip in it.
func (l *Ledger) loadBlockIndex() error {
	entries, err := l.store.BlockIndexEntries()
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Header.Height < entries[j].Header.Height
	})
	for _, entry := range entries {
		if entry.Header.Height > 0 {
			if _, ok := l.index.lookup(&entry.Header.PreviousBlockHash); !ok {
				return errors.Wrapf(ledgerstore.ErrCorruption, "stored block %s has no stored parent %s",
					entry.Hash, &entry.Header.PreviousBlockHash)
			}
		}
		l.index.add(entry.Hash, entry.Header, entry.CumulativeWork, entry.Status)
	}

	if !l.store.IsInitialized() {
		return nil
	}
	chainState, err := l.store.GetChainState()
	if err != nil {
		return err
	}
	genesisHash, err := l.store.GetHashByHeight(0)
	if err != nil {
		return err
	}
	if !genesisHash.Equal(l.params.GenesisHash) {
		return errors.Errorf("the database holds genesis %s while network %s expects %s",
			genesisHash, l.params.Name, l.params.GenesisHash)
	}
	tip, ok := l.index.lookup(&chainState.TipHash)
	if !ok {
		return errors.Wrapf(ledgerstore.ErrCorruption, "tip %s is missing from the block index",
			&chainState.TipHash)
	}
	l.tip = tip
	log.Infof("Loaded %d blocks, tip %s at height %d", len(entries), &chainState.TipHash, chainState.TipHeight)
	return nil
}

// Params returns the network parameters the ledger validates against.
func (l *Ledger) Params() *dagconfig.Params {
	return l.params
}

// Close releases the database if the ledger opened it.
func (l *Ledger) Close() error {
	l.lock.HighPriorityLock()
	defer l.lock.HighPriorityUnlock()

	if !l.ownsDB {
		return nil
	}
	return l.db.Close()
}

// GetBlock returns the stored block with the given hash. Side branch blocks
// are returned as well.
func (l *Ledger) GetBlock(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error) {
	l.lock.HighPriorityReadLock()
	defer l.lock.HighPriorityReadUnlock()

	return l.store.GetBlock(blockHash)
}

// GetBlockByHeight returns the best chain block at height.
func (l *Ledger) GetBlockByHeight(height uint64) (*externalapi.DomainBlock, error) {
	l.lock.HighPriorityReadLock()
	defer l.lock.HighPriorityReadUnlock()

	return l.store.GetBlockByHeight(height)
}

// GetUTXO returns the unspent entry of outpoint on the best chain.
func (l *Ledger) GetUTXO(outpoint *externalapi.DomainOutpoint) (*externalapi.UTXOEntry, error) {
	l.lock.HighPriorityReadLock()
	defer l.lock.HighPriorityReadUnlock()

	return l.store.GetUTXO(outpoint)
}

// GetTransaction returns a best chain transaction and where it lives.
func (l *Ledger) GetTransaction(transactionID *externalapi.DomainTransactionID) (
	*externalapi.DomainTransaction, *externalapi.TransactionLocation, error) {

	l.lock.HighPriorityReadLock()
	defer l.lock.HighPriorityReadUnlock()

	location, err := l.store.GetTransactionLocation(transactionID)
	if err != nil {
		return nil, nil, err
	}
	block, err := l.store.GetBlock(&location.BlockHash)
	if err != nil {
		return nil, nil, err
	}
	if int(location.Index) >= len(block.Transactions) {
		return nil, nil, errors.Wrapf(ledgerstore.ErrCorruption, "transaction %s is indexed at "+
			"position %d of block %s which has %d transactions",
			transactionID, location.Index, &location.BlockHash, len(block.Transactions))
	}
	return block.Transactions[location.Index], location, nil
}

// GetChainState returns the current best chain tip.
func (l *Ledger) GetChainState() (*externalapi.ChainState, error) {
	l.lock.HighPriorityReadLock()
	defer l.lock.HighPriorityReadUnlock()

	return l.store.GetChainState()
}

// GetBlockInfo returns what the index knows about blockHash. Unknown blocks
// are reported with Exists set to false.
func (l *Ledger) GetBlockInfo(blockHash *externalapi.DomainHash) (*externalapi.BlockInfo, error) {
	l.lock.HighPriorityReadLock()
	defer l.lock.HighPriorityReadUnlock()

	position, ok := l.index.lookup(blockHash)
	if !ok {
		return &externalapi.BlockInfo{Exists: false}, nil
	}
	node := l.index.node(position)
	isInBestChain := l.tip != noParent && l.index.isDescendantOf(l.tip, position)
	return &externalapi.BlockInfo{
		Exists:         true,
		BlockStatus:    node.status,
		Height:         node.header.Height,
		CumulativeWork: new(big.Int).Set(node.cumulativeWork),
		IsInBestChain:  isInBestChain,
	}, nil
}

// Stats returns a summary of the stored ledger.
func (l *Ledger) Stats() (*externalapi.LedgerStats, error) {
	l.lock.LowPriorityReadLock()
	defer l.lock.LowPriorityReadUnlock()

	return l.store.Stats()
}

// RequiredDifficulty returns the bits a block extending parentHash must
// carry. It is the same function submitted headers are checked with.
func (l *Ledger) RequiredDifficulty(parentHash *externalapi.DomainHash) (uint32, error) {
	l.lock.HighPriorityReadLock()
	defer l.lock.HighPriorityReadUnlock()

	parent, ok := l.index.lookup(parentHash)
	if !ok {
		return 0, errors.Wrapf(database.ErrNotFound, "block %s is not stored", parentHash)
	}
	return l.requiredDifficulty(parent)
}

func (l *Ledger) requiredDifficulty(parent int) (uint32, error) {
	height := l.index.node(parent).header.Height + 1
	return l.difficultyManager.RequiredDifficulty(l.index.branch(parent), height)
}
