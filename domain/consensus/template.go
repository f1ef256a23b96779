package consensus

import (
	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/ruleerrors"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/constants"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/merkle"
)

// BlockTemplate is an unsolved block extending the current tip.
type BlockTemplate struct {
	// Block carries a zero nonce. Its header fields other than the nonce
	// are final.
	Block *externalapi.DomainBlock

	TotalFees uint64

	// InvalidTransactions are the candidates that were left out, each with
	// the rule it broke.
	InvalidTransactions []ruleerrors.InvalidTransaction
}

// BuildBlockTemplate assembles a block on top of the current tip. Candidates
// are considered in order; each one that is valid against the tip UTXO set
// and the candidates already selected is included. The coinbase pays the
// subsidy plus the fees of the selected transactions to coinbaseData.
func (l *Ledger) BuildBlockTemplate(coinbaseData *externalapi.DomainCoinbaseData,
	candidates []*externalapi.DomainTransaction) (*BlockTemplate, error) {

	l.lock.LowPriorityReadLock()
	defer l.lock.LowPriorityReadUnlock()

	if l.tip == noParent {
		return nil, errors.WithStack(ruleerrors.ErrLedgerNotInitialized)
	}
	tipNode := l.index.node(l.tip)
	height := tipNode.header.Height + 1
	bits, err := l.requiredDifficulty(l.tip)
	if err != nil {
		return nil, err
	}

	body := l.blockValidator.NewBodyValidation(height, l.store)
	transactions := []*externalapi.DomainTransaction{nil}
	var invalidTransactions []ruleerrors.InvalidTransaction
	for _, candidate := range candidates {
		_, err := body.AddTransaction(candidate)
		if err != nil {
			if _, ok := ruleerrors.Reason(err); !ok {
				return nil, err
			}
			invalidTransactions = append(invalidTransactions,
				ruleerrors.InvalidTransaction{Transaction: candidate, Error: err})
			continue
		}
		transactions = append(transactions, candidate)
	}

	coinbase, err := l.coinbaseManager.ExpectedCoinbaseTransaction(height, body.TotalFees(), coinbaseData)
	if err != nil {
		return nil, err
	}
	transactions[0] = coinbase

	// The timestamp must be after the tip's even if the local clock lags.
	timestamp := uint64(0)
	if now := l.config.TimeSource().Unix(); now > 0 {
		timestamp = uint64(now)
	}
	if timestamp <= tipNode.header.Timestamp {
		timestamp = tipNode.header.Timestamp + 1
	}
	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:           constants.BlockVersion,
			PreviousBlockHash: tipNode.hash,
			MerkleRoot:        *merkle.CalculateHashMerkleRoot(transactions),
			Timestamp:         timestamp,
			Bits:              bits,
			Nonce:             0,
			Height:            height,
		},
		Transactions: transactions,
	}
	log.Debugf("Built a template at height %d with %d transactions (%d left out)",
		height, len(transactions), len(invalidTransactions))
	return &BlockTemplate{
		Block:               block,
		TotalFees:           body.TotalFees(),
		InvalidTransactions: invalidTransactions,
	}, nil
}
