package blockvalidator

import (
	"math/big"
	"time"

	"github.com/sedlynet/sedlyd/domain/consensus/model"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/ownership"
)

// blockValidator exposes a set of validation classes, after which
// it's possible to determine whether either a block is valid
type blockValidator struct {
	powLimit              *big.Int
	maxTimeOffset         time.Duration
	blockCoinbaseMaturity uint64
	timeSource            func() time.Time

	ownershipChecker ownership.Checker
	coinbaseManager  model.CoinbaseManager
}

// New instantiates a new BlockValidator. timeSource supplies the local clock
// that block timestamps are compared against.
func New(powLimit *big.Int,
	maxTimeOffset time.Duration,
	blockCoinbaseMaturity uint64,
	timeSource func() time.Time,
	ownershipChecker ownership.Checker,
	coinbaseManager model.CoinbaseManager) model.BlockValidator {

	return &blockValidator{
		powLimit:              powLimit,
		maxTimeOffset:         maxTimeOffset,
		blockCoinbaseMaturity: blockCoinbaseMaturity,
		timeSource:            timeSource,

		ownershipChecker: ownershipChecker,
		coinbaseManager:  coinbaseManager,
	}
}
