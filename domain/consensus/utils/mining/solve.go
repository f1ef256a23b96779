package mining

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensushashing"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/difficulty"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/hashes"
)

// SolveBlock increments the given block's nonce until it matches the difficulty requirements in its bits field
func SolveBlock(block *externalapi.DomainBlock, rd *rand.Rand) {
	targetDifficulty := difficulty.CompactToBig(block.Header.Bits)
	headerBytes := consensushashing.HeaderBytes(block.Header)

	for i := rd.Uint64(); i < math.MaxUint64; i++ {
		consensushashing.PutNonce(headerBytes, i)
		hash := consensushashing.HeaderBytesHash(headerBytes)
		if hashes.ToBig(hash).Cmp(targetDifficulty) <= 0 {
			block.Header.Nonce = i
			return
		}
	}

	panic(errors.New("went over all the nonce space and couldn't find a single one that gives a valid block"))
}

// BreakBlock increments the given block's nonce until the block fails the
// difficulty requirements in its bits field
func BreakBlock(block *externalapi.DomainBlock, rd *rand.Rand) {
	targetDifficulty := difficulty.CompactToBig(block.Header.Bits)
	headerBytes := consensushashing.HeaderBytes(block.Header)

	for i := rd.Uint64(); i < math.MaxUint64; i++ {
		consensushashing.PutNonce(headerBytes, i)
		hash := consensushashing.HeaderBytesHash(headerBytes)
		if hashes.ToBig(hash).Cmp(targetDifficulty) > 0 {
			block.Header.Nonce = i
			return
		}
	}

	panic(errors.New("every nonce gives a valid block"))
}
