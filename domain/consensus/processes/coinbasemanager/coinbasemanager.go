package coinbasemanager

import (
	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/ruleerrors"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/constants"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/transactionhelper"
)

type coinbaseManager struct {
	baseSubsidy              uint64
	subsidyReductionInterval uint64
}

// New instantiates a new CoinbaseManager
func New(baseSubsidy uint64, subsidyReductionInterval uint64) model.CoinbaseManager {
	return &coinbaseManager{
		baseSubsidy:              baseSubsidy,
		subsidyReductionInterval: subsidyReductionInterval,
	}
}

// CalcBlockSubsidy returns the subsidy amount a block at the provided height
// should have. This is mainly used for determining how much the coinbase for
// newly generated blocks awards as well as validating the coinbase for blocks
// has the expected value.
//
// The subsidy is halved every SubsidyReductionInterval blocks. Mathematically
// this is: baseSubsidy / 2^(height/SubsidyReductionInterval)
func (c *coinbaseManager) CalcBlockSubsidy(height uint64) uint64 {
	halvings := height / c.subsidyReductionInterval
	if halvings >= 64 {
		return 0
	}
	// Equivalent to: baseSubsidy / 2^(height/subsidyHalvingInterval)
	return c.baseSubsidy >> halvings
}

func (c *coinbaseManager) ExpectedCoinbaseTransaction(height uint64, totalFees uint64,
	coinbaseData *externalapi.DomainCoinbaseData) (*externalapi.DomainTransaction, error) {

	subsidy := c.CalcBlockSubsidy(height)
	value := subsidy + totalFees
	if value < subsidy {
		return nil, errors.Wrapf(ruleerrors.ErrBadTxOutValue,
			"subsidy %d plus fees %d overflows", subsidy, totalFees)
	}
	coinbase := transactionhelper.NewCoinbaseTransaction(height, coinbaseData, value)
	if name, length := transactionhelper.LongestField(coinbase); length > constants.MaxTransactionFieldLength {
		return nil, errors.Wrapf(ruleerrors.ErrTxFieldTooLong, "coinbase %s is %d bytes long, above "+
			"the maximum of %d", name, length, constants.MaxTransactionFieldLength)
	}
	return coinbase, nil
}

// ValidateCoinbaseTransactionInIsolation checks that coinbaseTransaction has
// the coinbase shape and commits to height.
func (c *coinbaseManager) ValidateCoinbaseTransactionInIsolation(
	coinbaseTransaction *externalapi.DomainTransaction, height uint64) error {

	if !transactionhelper.IsCoinBase(coinbaseTransaction) {
		return errors.Wrapf(ruleerrors.ErrFirstTxNotCoinbase, "first transaction in "+
			"block is not a coinbase")
	}
	committedHeight, _, err := transactionhelper.ExtractCoinbaseHeight(coinbaseTransaction)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction, "%s", err)
	}
	if committedHeight != height {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction, "coinbase commits to "+
			"height %d but the block is at height %d", committedHeight, height)
	}
	return nil
}

// ValidateCoinbaseTransactionInContext checks that the coinbase pays no more
// than the subsidy at height plus the fees of the block.
func (c *coinbaseManager) ValidateCoinbaseTransactionInContext(
	coinbaseTransaction *externalapi.DomainTransaction, height uint64, totalFees uint64) error {

	totalOut, ok := transactionhelper.TotalOutputValue(coinbaseTransaction)
	if !ok {
		return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "coinbase output values overflow")
	}
	subsidy := c.CalcBlockSubsidy(height)
	maxAllowed := subsidy + totalFees
	if maxAllowed < subsidy {
		return errors.Wrapf(ruleerrors.ErrBadTxOutValue,
			"subsidy %d plus fees %d overflows", subsidy, totalFees)
	}
	if totalOut > maxAllowed {
		return errors.Wrapf(ruleerrors.ErrCoinbaseOverspend, "coinbase transaction for "+
			"block pays %d which is more than expected value of %d (subsidy %d, fees %d)",
			totalOut, maxAllowed, subsidy, totalFees)
	}
	return nil
}
