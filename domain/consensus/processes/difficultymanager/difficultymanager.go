package difficultymanager

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/difficulty"
)

// DifficultyManager provides a method to resolve the
// difficulty value of a block
type difficultyManager struct {
	powLimit                     *big.Int
	powLimitBits                 uint32
	difficultyAdjustmentInterval uint64
	targetTimePerBlock           time.Duration
	maxDifficultyAdjustment      int64
}

// New instantiates a new DifficultyManager
func New(powLimit *big.Int, difficultyAdjustmentInterval uint64, targetTimePerBlock time.Duration,
	maxDifficultyAdjustment int64) model.DifficultyManager {

	return &difficultyManager{
		powLimit:                     powLimit,
		powLimitBits:                 difficulty.BigToCompact(powLimit),
		difficultyAdjustmentInterval: difficultyAdjustmentInterval,
		targetTimePerBlock:           targetTimePerBlock,
		maxDifficultyAdjustment:      maxDifficultyAdjustment,
	}
}

// RequiredDifficulty returns the bits a block at height must carry. Only
// heights that are a multiple of the adjustment interval retarget; every
// other block carries the bits of its parent.
func (dm *difficultyManager) RequiredDifficulty(chain model.HeaderChain, height uint64) (uint32, error) {
	if height == 0 {
		return dm.powLimitBits, nil
	}

	parent, err := chain.HeaderAtHeight(height - 1)
	if err != nil {
		return 0, err
	}
	if height%dm.difficultyAdjustmentInterval != 0 {
		return parent.Bits, nil
	}

	first, err := chain.HeaderAtHeight(height - dm.difficultyAdjustmentInterval)
	if err != nil {
		return 0, err
	}
	if first.Height != height-dm.difficultyAdjustmentInterval || parent.Height != height-1 {
		return 0, errors.Errorf("header chain returned headers at heights %d and %d "+
			"when asked for %d and %d", first.Height, parent.Height,
			height-dm.difficultyAdjustmentInterval, height-1)
	}

	actualTimespan := int64(parent.Timestamp) - int64(first.Timestamp)
	newBits := dm.retarget(parent.Bits, actualTimespan)
	log.Debugf("Retarget at height %d: timespan %ds, bits %08x -> %08x",
		height, actualTimespan, parent.Bits, newBits)
	return newBits, nil
}

// retarget scales the target of oldBits by actualTimespan/expectedTimespan.
// The timespan is clamped so that a single retarget moves the target by at
// most maxDifficultyAdjustment in either direction, and the result never
// exceeds the pow limit.
func (dm *difficultyManager) retarget(oldBits uint32, actualTimespan int64) uint32 {
	expectedTimespan := int64(dm.difficultyAdjustmentInterval) * int64(dm.targetTimePerBlock/time.Second)
	minTimespan := expectedTimespan / dm.maxDifficultyAdjustment
	maxTimespan := expectedTimespan * dm.maxDifficultyAdjustment

	adjustedTimespan := actualTimespan
	if adjustedTimespan < minTimespan {
		adjustedTimespan = minTimespan
	} else if adjustedTimespan > maxTimespan {
		adjustedTimespan = maxTimespan
	}

	newTarget := difficulty.CompactToBig(oldBits)
	newTarget.Mul(newTarget, big.NewInt(adjustedTimespan))
	newTarget.Div(newTarget, big.NewInt(expectedTimespan))

	if newTarget.Cmp(dm.powLimit) > 0 {
		newTarget.Set(dm.powLimit)
	}
	if newTarget.Sign() <= 0 {
		newTarget.SetInt64(1)
	}
	return difficulty.BigToCompact(newTarget)
}
