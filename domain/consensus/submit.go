package consensus

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/ruleerrors"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensushashing"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/difficulty"
	"github.com/sedlynet/sedlyd/infrastructure/logger"
	"github.com/sedlynet/sedlyd/infrastructure/metrics"
)

// InitializeWithGenesis installs the genesis block of the ledger's network.
// It fails with ErrGenesisOnInitializedLedger if the ledger already has a
// tip, in which case nothing is changed.
func (l *Ledger) InitializeWithGenesis() error {
	l.lock.HighPriorityLock()
	defer l.lock.HighPriorityUnlock()

	if l.store.IsInitialized() {
		return errors.Wrapf(ruleerrors.ErrGenesisOnInitializedLedger, "ledger already has a tip")
	}

	genesis := l.params.GenesisBlock
	genesisHash := consensushashing.BlockHash(genesis)
	work := difficulty.CalcWork(genesis.Header.Bits)
	err := l.store.PutBlock(genesis, work, externalapi.StatusStored)
	if err != nil {
		return err
	}
	position, ok := l.index.lookup(genesisHash)
	if !ok {
		position = l.index.add(genesisHash, genesis.Header.Clone(), work, externalapi.StatusStored)
	}

	_, err = l.store.ApplyBlock(genesis, genesisDelta(genesis))
	if err != nil {
		return err
	}
	l.index.node(position).status = externalapi.StatusValid
	l.tip = position
	log.Infof("Initialized the %s ledger with genesis %s", l.params.Name, genesisHash)
	return nil
}

// genesisDelta returns the outputs of the genesis block. Genesis is never
// validated, so its transactions spend nothing.
func genesisDelta(genesis *externalapi.DomainBlock) *externalapi.UTXODelta {
	delta := &externalapi.UTXODelta{}
	for i, transaction := range genesis.Transactions {
		transactionID := consensushashing.TransactionID(transaction)
		for index, output := range transaction.Outputs {
			delta.Created = append(delta.Created, &externalapi.OutpointAndUTXOEntryPair{
				Outpoint:  externalapi.NewDomainOutpoint(transactionID, uint32(index)),
				UTXOEntry: externalapi.NewUTXOEntry(output, 0, i == 0),
			})
		}
	}
	return delta
}

// SubmitBlock validates block and, if it is accepted, connects it.
//
// A block extending the tip is validated against the tip's UTXO set and
// applied. A block extending any other stored block is stored as a side
// branch; if that branch now has strictly more cumulative work than the best
// chain the ledger switches to it, otherwise ErrWrongPreviousHash is
// returned and the best chain is left as is.
//
// A rejected block leaves the best chain untouched. A failed chain switch
// restores the original tip before returning.
func (l *Ledger) SubmitBlock(block *externalapi.DomainBlock) (*externalapi.BlockInsertionResult, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "SubmitBlock")
	defer onEnd()

	start := time.Now()
	l.lock.HighPriorityLock()
	defer l.lock.HighPriorityUnlock()

	result, err := l.submitBlock(block)
	if err != nil {
		if reason, ok := ruleerrors.Reason(err); ok {
			metrics.BlockRejected(reason)
			log.Infof("Rejected block %s: %s", consensushashing.BlockHash(block), err)
			log.Tracef("Rejected block dump: %s", logger.NewLogClosure(func() string {
				return spewBlock(block)
			}))
		}
		return nil, err
	}

	metrics.BlockAccepted(l.index.node(l.tip).header.Height, time.Since(start))
	return result, nil
}

func (l *Ledger) submitBlock(block *externalapi.DomainBlock) (*externalapi.BlockInsertionResult, error) {
	if !l.store.IsInitialized() {
		return nil, errors.WithStack(ruleerrors.ErrLedgerNotInitialized)
	}

	blockHash := consensushashing.BlockHash(block)
	position, known := l.index.lookup(blockHash)
	if known && !l.isConnectableStoredBlock(position) {
		return nil, errors.Wrapf(ruleerrors.ErrDuplicateBlock, "block %s is already known with status %s",
			blockHash, l.index.node(position).status)
	}

	err := l.blockValidator.ValidateBlockInIsolation(block)
	if err != nil {
		return nil, err
	}

	parent, err := l.checkHeaderAgainstParent(block.Header)
	if err != nil {
		return nil, err
	}

	if known {
		// The block was stored by an earlier submission whose connection
		// failed, so only the connection is retried.
		log.Debugf("Retrying the connection of stored block %s", blockHash)
		return l.extendTip(block, blockHash, position)
	}
	if parent == l.tip {
		return l.extendTip(block, blockHash, noParent)
	}
	return l.addSideBranchBlock(block, blockHash, parent)
}

// isConnectableStoredBlock returns whether the indexed block at position was
// stored but never connected although it extends the tip.
func (l *Ledger) isConnectableStoredBlock(position int) bool {
	node := l.index.node(position)
	return node.status == externalapi.StatusStored && node.parent == l.tip
}

// checkHeaderAgainstParent runs the header rules that hold on any branch and
// returns the arena position of the parent.
func (l *Ledger) checkHeaderAgainstParent(header *externalapi.DomainBlockHeader) (int, error) {
	parent, ok := l.index.lookup(&header.PreviousBlockHash)
	if !ok {
		return noParent, ruleerrors.NewErrMissingParent(&header.PreviousBlockHash)
	}
	parentNode := l.index.node(parent)
	if parentNode.status == externalapi.StatusInvalid {
		return noParent, errors.Wrapf(ruleerrors.ErrInvalidAncestorBlock, "parent %s is invalid",
			&header.PreviousBlockHash)
	}
	if header.Height != parentNode.header.Height+1 {
		return noParent, errors.Wrapf(ruleerrors.ErrWrongHeight, "block height is %d "+
			"while its parent is at height %d", header.Height, parentNode.header.Height)
	}
	if header.Timestamp <= parentNode.header.Timestamp {
		return noParent, errors.Wrapf(ruleerrors.ErrBadTimestamp, "block timestamp %d is not after "+
			"the timestamp %d of its parent", header.Timestamp, parentNode.header.Timestamp)
	}
	requiredBits, err := l.requiredDifficulty(parent)
	if err != nil {
		return noParent, err
	}
	if header.Bits != requiredBits {
		return noParent, errors.Wrapf(ruleerrors.ErrBadDifficultyTarget, "block difficulty of %08x "+
			"is not the expected value of %08x", header.Bits, requiredBits)
	}
	return parent, nil
}

func (l *Ledger) blockContext(parent int) (*model.BlockContext, error) {
	requiredBits, err := l.requiredDifficulty(parent)
	if err != nil {
		return nil, err
	}
	parentNode := l.index.node(parent)
	return &model.BlockContext{
		ParentHash:      &parentNode.hash,
		ParentHeight:    parentNode.header.Height,
		ParentTimestamp: parentNode.header.Timestamp,
		RequiredBits:    requiredBits,
		UTXOView:        l.store,
	}, nil
}

// extendTip validates block against the tip and connects it. position is
// the arena position of the block if it is already stored, or noParent.
func (l *Ledger) extendTip(block *externalapi.DomainBlock, blockHash *externalapi.DomainHash,
	position int) (*externalapi.BlockInsertionResult, error) {

	blockContext, err := l.blockContext(l.tip)
	if err != nil {
		return nil, err
	}
	delta, err := l.blockValidator.ValidateBlockInContext(block, blockContext)
	if err != nil {
		return nil, err
	}

	if position == noParent {
		position, err = l.storeBlock(block, blockHash, l.tip)
		if err != nil {
			return nil, err
		}
	}
	err = l.connectBlock(position, block, delta)
	if err != nil {
		return nil, err
	}
	log.Infof("Accepted block %s at height %d", blockHash, block.Header.Height)
	return &externalapi.BlockInsertionResult{BlockHash: blockHash, Delta: delta}, nil
}

// storeBlock persists block with StatusStored and indexes it under parent.
func (l *Ledger) storeBlock(block *externalapi.DomainBlock, blockHash *externalapi.DomainHash,
	parent int) (int, error) {

	work := new(big.Int).Add(l.index.node(parent).cumulativeWork, difficulty.CalcWork(block.Header.Bits))
	err := l.store.PutBlock(block, work, externalapi.StatusStored)
	if err != nil {
		return noParent, err
	}
	return l.index.add(blockHash, block.Header.Clone(), work, externalapi.StatusStored), nil
}

// connectBlock applies the block at position, which must extend the tip.
func (l *Ledger) connectBlock(position int, block *externalapi.DomainBlock, delta *externalapi.UTXODelta) error {
	_, err := l.store.ApplyBlock(block, delta)
	if err != nil {
		return err
	}
	l.index.node(position).status = externalapi.StatusValid
	l.tip = position
	return nil
}

// disconnectTip reverts the tip and returns the delta it had been applied with.
func (l *Ledger) disconnectTip() (*externalapi.UTXODelta, error) {
	tipNode := l.index.node(l.tip)
	block, err := l.store.GetBlock(&tipNode.hash)
	if err != nil {
		return nil, err
	}
	delta, err := l.store.UndoDelta(&tipNode.hash)
	if err != nil {
		return nil, err
	}
	_, err = l.store.RevertBlock(block, delta.Inverse())
	if err != nil {
		return nil, err
	}
	l.tip = tipNode.parent
	return delta, nil
}

func (l *Ledger) addSideBranchBlock(block *externalapi.DomainBlock, blockHash *externalapi.DomainHash,
	parent int) (*externalapi.BlockInsertionResult, error) {

	position, err := l.storeBlock(block, blockHash, parent)
	if err != nil {
		return nil, err
	}

	tipNode := l.index.node(l.tip)
	if l.index.node(position).cumulativeWork.Cmp(tipNode.cumulativeWork) <= 0 {
		log.Infof("Stored side branch block %s at height %d", blockHash, block.Header.Height)
		return nil, errors.Wrapf(ruleerrors.ErrWrongPreviousHash, "block %s extends %s instead of tip %s "+
			"and its branch does not have more work than the best chain",
			blockHash, &block.Header.PreviousBlockHash, &tipNode.hash)
	}

	reorg, delta, err := l.switchToBranch(position)
	if err != nil {
		return nil, err
	}
	return &externalapi.BlockInsertionResult{BlockHash: blockHash, Delta: delta, Reorg: reorg}, nil
}

type connectedBlock struct {
	position int
	block    *externalapi.DomainBlock
	delta    *externalapi.UTXODelta
}

// switchToBranch makes newTip the best chain tip: it reverts the best chain
// down to the common ancestor and then validates and applies every block of
// the new branch. If any step fails it restores the original tip and marks
// the offending block, along with its descendants, invalid.
func (l *Ledger) switchToBranch(newTip int) (*externalapi.ReorgInfo, *externalapi.UTXODelta, error) {
	oldTip := l.tip
	ancestor := l.index.commonAncestor(oldTip, newTip)
	if ancestor == noParent {
		return nil, nil, errors.Errorf("block %s shares no ancestor with the best chain",
			&l.index.node(newTip).hash)
	}

	disconnected := make([]*connectedBlock, 0)
	for l.tip != ancestor {
		position := l.tip
		delta, err := l.disconnectTip()
		if err != nil {
			return nil, nil, l.restoreBestChain(err, disconnected, nil)
		}
		disconnected = append(disconnected, &connectedBlock{position: position, delta: delta})
	}

	connected := make([]*connectedBlock, 0)
	for _, position := range l.index.path(ancestor, newTip) {
		node := l.index.node(position)
		block, err := l.store.GetBlock(&node.hash)
		if err != nil {
			return nil, nil, l.restoreBestChain(err, disconnected, connected)
		}
		blockContext, err := l.blockContext(node.parent)
		if err != nil {
			return nil, nil, l.restoreBestChain(err, disconnected, connected)
		}
		delta, err := l.blockValidator.ValidateBlockInContext(block, blockContext)
		if err != nil {
			invalidateErr := l.invalidateBranch(position)
			if invalidateErr != nil {
				log.Errorf("Failed marking block %s invalid: %s", &node.hash, invalidateErr)
			}
			return nil, nil, l.restoreBestChain(err, disconnected, connected)
		}
		err = l.connectBlock(position, block, delta)
		if err != nil {
			return nil, nil, l.restoreBestChain(err, disconnected, connected)
		}
		connected = append(connected, &connectedBlock{position: position, block: block, delta: delta})
	}

	reorg := &externalapi.ReorgInfo{
		Disconnected: make([]*externalapi.DomainHash, len(disconnected)),
		Connected:    make([]*externalapi.DomainHash, len(connected)),
	}
	for i, disconnectedBlock := range disconnected {
		reorg.Disconnected[i] = &l.index.node(disconnectedBlock.position).hash
	}
	for i, connectedBlock := range connected {
		reorg.Connected[i] = &l.index.node(connectedBlock.position).hash
	}
	metrics.Reorg(len(disconnected))
	log.Infof("Switched the best chain from %s to %s: %d blocks disconnected, %d connected",
		&l.index.node(oldTip).hash, &l.index.node(newTip).hash, len(disconnected), len(connected))
	return reorg, connected[len(connected)-1].delta, nil
}

// restoreBestChain undoes a partial chain switch: it reverts every block of
// the new branch that was applied and re-applies the disconnected blocks, and
// then returns cause.
func (l *Ledger) restoreBestChain(cause error, disconnected, connected []*connectedBlock) error {
	for i := len(connected) - 1; i >= 0; i-- {
		_, err := l.disconnectTip()
		if err != nil {
			return l.failedRestore(cause, err)
		}
	}
	for i := len(disconnected) - 1; i >= 0; i-- {
		position := disconnected[i].position
		block, err := l.store.GetBlock(&l.index.node(position).hash)
		if err != nil {
			return l.failedRestore(cause, err)
		}
		err = l.connectBlock(position, block, disconnected[i].delta)
		if err != nil {
			return l.failedRestore(cause, err)
		}
	}
	log.Warnf("Chain switch failed, restored tip %s: %s", &l.index.node(l.tip).hash, cause)
	return cause
}

func (l *Ledger) failedRestore(cause, restoreErr error) error {
	log.Criticalf("Failed restoring the best chain after a failed chain switch (%s): %s", cause, restoreErr)
	return errors.Wrapf(restoreErr, "failed restoring the best chain after: %s", cause)
}

// invalidateBranch marks the block at position and every indexed descendant
// of it invalid, both in the index and in the store.
func (l *Ledger) invalidateBranch(position int) error {
	for i := range l.index.nodes {
		if l.index.nodes[i].header.Height < l.index.node(position).header.Height {
			continue
		}
		if !l.index.isDescendantOf(i, position) {
			continue
		}
		err := l.store.SetBlockStatus(&l.index.nodes[i].hash, externalapi.StatusInvalid)
		if err != nil {
			return err
		}
		l.index.nodes[i].status = externalapi.StatusInvalid
	}
	return nil
}
