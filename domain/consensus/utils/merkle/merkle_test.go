package merkle

import (
	"testing"

	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensushashing"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/hashes"
	"github.com/stretchr/testify/require"
)

func transactions(n int) []*externalapi.DomainTransaction {
	txs := make([]*externalapi.DomainTransaction, n)
	for i := range txs {
		txs[i] = &externalapi.DomainTransaction{
			Version: 1,
			Outputs: []*externalapi.DomainTransactionOutput{{Value: uint64(i)}},
		}
	}
	return txs
}

func pair(left, right *externalapi.DomainHash) *externalapi.DomainHash {
	return hashes.DoubleSHA256(append(left.ByteSlice(), right.ByteSlice()...))
}

func id(tx *externalapi.DomainTransaction) *externalapi.DomainHash {
	return (*externalapi.DomainHash)(consensushashing.TransactionID(tx))
}

func TestMerkleRootShapes(t *testing.T) {
	require.True(t, CalculateHashMerkleRoot(nil).IsZero())

	txs := transactions(5)
	h := make([]*externalapi.DomainHash, len(txs))
	for i, tx := range txs {
		h[i] = id(tx)
	}

	require.True(t, h[0].Equal(CalculateHashMerkleRoot(txs[:1])))
	require.True(t, pair(h[0], h[1]).Equal(CalculateHashMerkleRoot(txs[:2])))

	three := pair(pair(h[0], h[1]), pair(h[2], h[2]))
	require.True(t, three.Equal(CalculateHashMerkleRoot(txs[:3])))

	h55 := pair(h[4], h[4])
	five := pair(pair(pair(h[0], h[1]), pair(h[2], h[3])), pair(h55, h55))
	require.True(t, five.Equal(CalculateHashMerkleRoot(txs)))
}

func TestMerkleRootDependsOnOrder(t *testing.T) {
	txs := transactions(2)
	swapped := []*externalapi.DomainTransaction{txs[1], txs[0]}
	require.False(t, CalculateHashMerkleRoot(txs).Equal(CalculateHashMerkleRoot(swapped)))
}
