package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/difficulty"
	"github.com/sedlynet/sedlyd/domain/dagconfig"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet            bool   `long:"testnet" description:"Use the test network"`
	Simnet             bool   `long:"simnet" description:"Use the simulation test network"`
	Devnet             bool   `long:"devnet" description:"Use the development test network"`
	OverrideParamsFile string `long:"override-params-file" description:"Overrides network params (allowed only on devnet)"`

	ActiveNetParams *dagconfig.Params
}

type overrideParamsConfig struct {
	PowLimitBits                     *uint32 `json:"powLimitBits"`
	BlockCoinbaseMaturity            *uint64 `json:"blockCoinbaseMaturity"`
	SubsidyReductionInterval         *uint64 `json:"subsidyReductionInterval"`
	TargetTimePerBlockInMilliSeconds *int64  `json:"targetTimePerBlockInMilliSeconds"`
	DifficultyAdjustmentInterval     *uint64 `json:"difficultyAdjustmentInterval"`
	MaxDifficultyAdjustment          *int64  `json:"maxDifficultyAdjustment"`
}

// ResolveNetwork parses the network command line argument and sets
// ActiveNetParams accordingly. The active params are a copy, so overrides
// never leak into the package level params. It returns an error if more than
// one network was selected.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// Default net is main net.
	selected := &dagconfig.MainnetParams
	// Multiple networks can't be selected simultaneously.
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		selected = &dagconfig.TestnetParams
	}
	if networkFlags.Simnet {
		numNets++
		selected = &dagconfig.SimnetParams
	}
	if networkFlags.Devnet {
		numNets++
		selected = &dagconfig.DevnetParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, simnet, devnet, etc.) cannot be used " +
			"together. Please choose only one network"
		err := errors.Errorf(message)
		if parser != nil {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
		}
		return err
	}

	params := *selected
	networkFlags.ActiveNetParams = &params

	err := networkFlags.overrideParams()
	if err != nil {
		return err
	}
	return networkFlags.ActiveNetParams.Validate()
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *dagconfig.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) overrideParams() error {
	if networkFlags.OverrideParamsFile == "" {
		return nil
	}

	if !networkFlags.Devnet {
		return errors.Errorf("override-params-file is allowed only when using devnet")
	}

	overrideParamsFile, err := os.Open(networkFlags.OverrideParamsFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer overrideParamsFile.Close()

	decoder := json.NewDecoder(overrideParamsFile)
	decoder.DisallowUnknownFields()
	config := &overrideParamsConfig{}
	err = decoder.Decode(config)
	if err != nil {
		return errors.Wrapf(err, "failed decoding %s", networkFlags.OverrideParamsFile)
	}

	params := networkFlags.ActiveNetParams
	if config.PowLimitBits != nil {
		powLimit := difficulty.CompactToBig(*config.PowLimitBits)
		genesisTarget := difficulty.CompactToBig(params.GenesisBlock.Header.Bits)
		if powLimit.Cmp(genesisTarget) < 0 {
			return errors.Errorf("pow limit (%s) is smaller than genesis's target (%s)", powLimit.Text(16),
				genesisTarget.Text(16))
		}
		params.PowLimit = powLimit
		params.PowLimitBits = *config.PowLimitBits
	}

	if config.BlockCoinbaseMaturity != nil {
		params.BlockCoinbaseMaturity = *config.BlockCoinbaseMaturity
	}

	if config.SubsidyReductionInterval != nil {
		params.SubsidyReductionInterval = *config.SubsidyReductionInterval
	}

	if config.TargetTimePerBlockInMilliSeconds != nil {
		params.TargetTimePerBlock = time.Duration(*config.TargetTimePerBlockInMilliSeconds) * time.Millisecond
	}

	if config.DifficultyAdjustmentInterval != nil {
		params.DifficultyAdjustmentInterval = *config.DifficultyAdjustmentInterval
	}

	if config.MaxDifficultyAdjustment != nil {
		params.MaxDifficultyAdjustment = *config.MaxDifficultyAdjustment
	}

	return nil
}
