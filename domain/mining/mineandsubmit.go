package mining

import (
	"context"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/ruleerrors"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensushashing"
)

// ErrCancelled is returned by MineAndSubmit when its context is done before
// a block was accepted.
var ErrCancelled = errors.New("mining was cancelled")

// BlockSubmitter is the part of the ledger a mining loop talks to.
type BlockSubmitter interface {
	BuildBlockTemplate(coinbaseData *externalapi.DomainCoinbaseData,
		candidates []*externalapi.DomainTransaction) (*consensus.BlockTemplate, error)
	SubmitBlock(block *externalapi.DomainBlock) (*externalapi.BlockInsertionResult, error)
}

// MineAndSubmit mines a block on top of the submitter's current tip and
// submits it, retrying until a block is accepted or ctx is done.
//
// A round that exhausts the nonce space is retried with a fresh extra nonce
// appended to the coinbase extra data, which moves the merkle root. A mined
// block that lost the race to another block at the same height is dropped
// and mining restarts on the new tip.
func MineAndSubmit(ctx context.Context, miner *Miner, submitter BlockSubmitter,
	coinbaseData *externalapi.DomainCoinbaseData, candidates []*externalapi.DomainTransaction) (
	*externalapi.BlockInsertionResult, *MiningResult, error) {

	for extraNonce := uint64(0); ; extraNonce++ {
		if ctx.Err() != nil {
			return nil, nil, errors.Wrap(ErrCancelled, ctx.Err().Error())
		}

		template, err := submitter.BuildBlockTemplate(withExtraNonce(coinbaseData, extraNonce), candidates)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed building a block template")
		}
		for _, invalid := range template.InvalidTransactions {
			log.Debugf("Left transaction %s out of the template", invalid)
		}

		header := template.Block.Header
		result, err := miner.MineTemplate(ctx, template.Block)
		if err != nil {
			return nil, nil, err
		}
		switch result.Outcome {
		case OutcomeCancelled:
			return nil, result, errors.WithStack(ErrCancelled)
		case OutcomeExhausted:
			log.Debugf("Nonce space exhausted at height %d with extra nonce %d", header.Height, extraNonce)
			continue
		}

		insertionResult, err := submitter.SubmitBlock(result.Block)
		if err != nil {
			if errors.Is(err, ruleerrors.ErrWrongPreviousHash) || errors.Is(err, ruleerrors.ErrDuplicateBlock) {
				log.Infof("Mined block %s is stale: %s", consensushashing.BlockHash(result.Block), err)
				continue
			}
			return nil, result, errors.Wrapf(err, "block %s was rejected", consensushashing.BlockHash(result.Block))
		}
		return insertionResult, result, nil
	}
}

// withExtraNonce appends extraNonce to the coinbase extra data.
func withExtraNonce(coinbaseData *externalapi.DomainCoinbaseData, extraNonce uint64) *externalapi.DomainCoinbaseData {
	withNonce := coinbaseData.Clone()
	var extraNonceBytes [8]byte
	binary.LittleEndian.PutUint64(extraNonceBytes[:], extraNonce)
	withNonce.ExtraData = append(withNonce.ExtraData, extraNonceBytes[:]...)
	return withNonce
}
