package hashes

import (
	"math/big"

	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
)

// ToBig converts a hash into a big.Int that can be used to perform math
// comparisons against a target. Byte 0 is the most significant.
func ToBig(hash *externalapi.DomainHash) *big.Int {
	return new(big.Int).SetBytes(hash.ByteSlice())
}

// FromBig writes value into a 32 byte big-endian hash. Values wider than 256
// bits keep only their low 256 bits.
func FromBig(value *big.Int) *externalapi.DomainHash {
	var hashBytes [externalapi.DomainHashSize]byte
	value.FillBytes(hashBytes[:])
	return externalapi.NewDomainHashFromByteArray(&hashBytes)
}

// Less returns true iff hash a is less than hash b
func Less(a, b *externalapi.DomainHash) bool {
	return a.Less(b)
}
