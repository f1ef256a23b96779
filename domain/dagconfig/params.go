// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/difficulty"
)

// These variables are the chain proof-of-work limit parameters for each default
// network.
var (
	// mainPowLimit is the highest proof of work value a Sedly block can
	// have for the main network. It is 0x00000000ffff << 208.
	mainPowLimit = difficulty.CompactToBig(mainPowLimitBits)

	// testnetPowLimit is the highest proof of work value a Sedly block
	// can have for the test network.
	testnetPowLimit = difficulty.CompactToBig(testnetPowLimitBits)

	// simnetPowLimit is the highest proof of work value a Sedly block
	// can have for the simulation test network. Roughly every other hash
	// satisfies it.
	simnetPowLimit = difficulty.CompactToBig(simnetPowLimitBits)

	// devnetPowLimit is the highest proof of work value a Sedly block
	// can have for the development network.
	devnetPowLimit = difficulty.CompactToBig(devnetPowLimitBits)
)

const (
	mainPowLimitBits    = 0x1d00ffff
	testnetPowLimitBits = 0x1f00ffff
	simnetPowLimitBits  = 0x207fffff
	devnetPowLimitBits  = 0x1f00ffff
)

const (
	// SompiPerSedly is the number of base units in one coin.
	SompiPerSedly = 100_000_000

	// MaxSompi is the maximum supply that the subsidy schedule converges to.
	MaxSompi = 21_000_000 * SompiPerSedly

	baseSubsidy                  = 50 * SompiPerSedly
	subsidyReductionInterval     = 210_000
	targetTimePerBlock           = 120 * time.Second
	difficultyAdjustmentInterval = 144
	maxDifficultyAdjustment      = 4
	maxTimeOffset                = 2 * time.Hour
	blockCoinbaseMaturity        = 100
)

// Params defines a Sedly network by its parameters. These parameters may be
// used by Sedly applications to differentiate networks.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *externalapi.DomainBlock

	// GenesisHash is the starting block hash.
	GenesisHash *externalapi.DomainHash

	// PowLimit defines the highest allowed proof of work value for a block
	// as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// BlockCoinbaseMaturity is the number of blocks required before newly mined
	// coins can be spent.
	BlockCoinbaseMaturity uint64

	// BaseSubsidy is the starting subsidy amount for mined blocks.
	BaseSubsidy uint64

	// SubsidyReductionInterval is the interval of blocks before the subsidy
	// is reduced.
	SubsidyReductionInterval uint64

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.
	TargetTimePerBlock time.Duration

	// DifficultyAdjustmentInterval is the number of blocks between
	// difficulty retargets.
	DifficultyAdjustmentInterval uint64

	// MaxDifficultyAdjustment bounds the factor by which a single retarget
	// can move the target in either direction.
	MaxDifficultyAdjustment int64

	// MaxTimeOffset is the maximum a block timestamp may be ahead of the
	// local clock.
	MaxTimeOffset time.Duration
}

// ExpectedTimespan is the time a full difficulty adjustment interval should
// take, in seconds.
func (p *Params) ExpectedTimespan() int64 {
	return int64(p.DifficultyAdjustmentInterval) * int64(p.TargetTimePerBlock/time.Second)
}

// Validate checks that the parameters are internally consistent.
func (p *Params) Validate() error {
	if p.GenesisBlock == nil || p.GenesisHash == nil {
		return errors.Errorf("network %s has no genesis block", p.Name)
	}
	if p.PowLimit.Cmp(difficulty.CompactToBig(p.PowLimitBits)) != 0 {
		return errors.Errorf("network %s: PowLimit does not match PowLimitBits %08x", p.Name, p.PowLimitBits)
	}
	if p.DifficultyAdjustmentInterval < 2 {
		return errors.Errorf("network %s: difficulty adjustment interval must be at least 2", p.Name)
	}
	if p.TargetTimePerBlock < time.Second {
		return errors.Errorf("network %s: target time per block must be at least a second", p.Name)
	}
	if p.MaxDifficultyAdjustment < 1 {
		return errors.Errorf("network %s: max difficulty adjustment must be positive", p.Name)
	}
	if p.SubsidyReductionInterval == 0 {
		return errors.Errorf("network %s: subsidy reduction interval must be positive", p.Name)
	}
	return nil
}

// MainnetParams defines the network parameters for the main Sedly network.
var MainnetParams = Params{
	Name:                         "sedly-mainnet",
	GenesisBlock:                 &genesisBlock,
	GenesisHash:                  genesisHash,
	PowLimit:                     mainPowLimit,
	PowLimitBits:                 mainPowLimitBits,
	BlockCoinbaseMaturity:        blockCoinbaseMaturity,
	BaseSubsidy:                  baseSubsidy,
	SubsidyReductionInterval:     subsidyReductionInterval,
	TargetTimePerBlock:           targetTimePerBlock,
	DifficultyAdjustmentInterval: difficultyAdjustmentInterval,
	MaxDifficultyAdjustment:      maxDifficultyAdjustment,
	MaxTimeOffset:                maxTimeOffset,
}

// TestnetParams defines the network parameters for the test Sedly network.
var TestnetParams = Params{
	Name:                         "sedly-testnet",
	GenesisBlock:                 &testnetGenesisBlock,
	GenesisHash:                  testnetGenesisHash,
	PowLimit:                     testnetPowLimit,
	PowLimitBits:                 testnetPowLimitBits,
	BlockCoinbaseMaturity:        blockCoinbaseMaturity,
	BaseSubsidy:                  baseSubsidy,
	SubsidyReductionInterval:     subsidyReductionInterval,
	TargetTimePerBlock:           targetTimePerBlock,
	DifficultyAdjustmentInterval: difficultyAdjustmentInterval,
	MaxDifficultyAdjustment:      maxDifficultyAdjustment,
	MaxTimeOffset:                maxTimeOffset,
}

// SimnetParams defines the network parameters for the simulation test Sedly
// network. This network is similar to the normal test network except it is
// intended for private use within a group of individuals doing simulation
// testing. The functionality is intended to differ in that the only nodes
// which are specifically specified are used to create the network rather than
// following normal discovery rules. This is important as otherwise it would
// just turn into another public testnet.
var SimnetParams = Params{
	Name:                         "sedly-simnet",
	GenesisBlock:                 &simnetGenesisBlock,
	GenesisHash:                  simnetGenesisHash,
	PowLimit:                     simnetPowLimit,
	PowLimitBits:                 simnetPowLimitBits,
	BlockCoinbaseMaturity:        2,
	BaseSubsidy:                  baseSubsidy,
	SubsidyReductionInterval:     150,
	TargetTimePerBlock:           time.Second,
	DifficultyAdjustmentInterval: 10,
	MaxDifficultyAdjustment:      maxDifficultyAdjustment,
	MaxTimeOffset:                maxTimeOffset,
}

// DevnetParams defines the network parameters for the development Sedly network.
var DevnetParams = Params{
	Name:                         "sedly-devnet",
	GenesisBlock:                 &devnetGenesisBlock,
	GenesisHash:                  devnetGenesisHash,
	PowLimit:                     devnetPowLimit,
	PowLimitBits:                 devnetPowLimitBits,
	BlockCoinbaseMaturity:        10,
	BaseSubsidy:                  baseSubsidy,
	SubsidyReductionInterval:     subsidyReductionInterval,
	TargetTimePerBlock:           targetTimePerBlock,
	DifficultyAdjustmentInterval: difficultyAdjustmentInterval,
	MaxDifficultyAdjustment:      maxDifficultyAdjustment,
	MaxTimeOffset:                maxTimeOffset,
}
