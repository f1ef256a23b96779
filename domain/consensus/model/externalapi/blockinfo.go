package externalapi

import "math/big"

// BlockInfo contains various information about a stored block
type BlockInfo struct {
	Exists         bool
	BlockStatus    BlockStatus
	Height         uint64
	CumulativeWork *big.Int
	IsInBestChain  bool
}
