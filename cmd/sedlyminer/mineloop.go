package main

import (
	"context"
	"time"

	"github.com/sedlynet/sedlyd/domain/consensus"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/mining"
	"github.com/sedlynet/sedlyd/infrastructure/config"
)

const logHashRateInterval = 10 * time.Second

// mineLoop mines cfg.NumBlocks blocks, or until ctx is done when NumBlocks
// is zero.
func mineLoop(ctx context.Context, ledger *consensus.Ledger, miner *mining.Miner, cfg *config.Config) error {
	coinbaseData := &externalapi.DomainCoinbaseData{
		LockingCondition: cfg.MiningLockingCondition,
		ExtraData:        []byte(cfg.CoinbaseExtra),
	}

	spawn("logHashRate", func() {
		logHashRate(ctx, miner)
	})

	for minedBlocks := uint64(0); cfg.NumBlocks == 0 || minedBlocks < cfg.NumBlocks; minedBlocks++ {
		insertionResult, miningResult, err := mining.MineAndSubmit(ctx, miner, ledger, coinbaseData, nil)
		if err != nil {
			return err
		}
		stats, err := ledger.Stats()
		if err != nil {
			return err
		}
		log.Infof("Found block %s at height %d after %d hashes in %s",
			insertionResult.BlockHash, stats.TipHeight, miningResult.HashesCalculated, miningResult.Elapsed)
		if insertionResult.Reorg != nil {
			log.Infof("Mined block caused a reorg of depth %d", len(insertionResult.Reorg.Disconnected))
		}
	}
	log.Infof("Mined %d blocks, stopping", cfg.NumBlocks)
	return nil
}

func logHashRate(ctx context.Context, miner *mining.Miner) {
	ticker := time.NewTicker(logHashRateInterval)
	defer ticker.Stop()

	lastCheck := time.Now()
	lastHashes := miner.TotalHashes()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hashes := miner.TotalHashes()
			now := time.Now()
			hashRate := float64(hashes-lastHashes) / now.Sub(lastCheck).Seconds()
			log.Infof("Current hash rate is %.2f Khash/s", hashRate/1000)
			lastCheck, lastHashes = now, hashes
		}
	}
}
