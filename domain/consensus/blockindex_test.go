package consensus

import (
	"math/big"
	"testing"

	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/infrastructure/db/database"
	"github.com/stretchr/testify/require"
)

// buildTestIndex indexes the tree
//
//	0 - 1 - 2 - 3
//	     \
//	      4 - 5
//
// where each node's hash is its number.
func buildTestIndex() *blockIndex {
	index := newBlockIndex()
	parents := []int{noParent, 0, 1, 2, 1, 4}
	for i, parent := range parents {
		header := &externalapi.DomainBlockHeader{Timestamp: uint64(100 + i)}
		if parent != noParent {
			header.PreviousBlockHash = *testIndexHash(parent)
			header.Height = index.node(parent).header.Height + 1
		}
		index.add(testIndexHash(i), header, big.NewInt(int64(header.Height+1)), externalapi.StatusStored)
	}
	return index
}

func testIndexHash(i int) *externalapi.DomainHash {
	return externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{byte(i + 1)})
}

func TestBlockIndexAncestry(t *testing.T) {
	index := buildTestIndex()

	position, ok := index.lookup(testIndexHash(5))
	require.True(t, ok)
	require.Equal(t, 5, position)
	require.Equal(t, 4, index.node(position).parent)
	_, ok = index.lookup(testIndexHash(6))
	require.False(t, ok)

	tests := []struct {
		name     string
		a, b     int
		ancestor int
	}{
		{name: "same node", a: 3, b: 3, ancestor: 3},
		{name: "branches of equal height", a: 2, b: 4, ancestor: 1},
		{name: "branches of different height", a: 3, b: 5, ancestor: 1},
		{name: "one is an ancestor of the other", a: 1, b: 3, ancestor: 1},
		{name: "genesis", a: 0, b: 5, ancestor: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.ancestor, index.commonAncestor(test.a, test.b))
			require.Equal(t, test.ancestor, index.commonAncestor(test.b, test.a))
		})
	}

	require.Equal(t, []int{4, 5}, index.path(1, 5))
	require.Equal(t, []int{1, 2, 3}, index.path(0, 3))
	require.Empty(t, index.path(3, 3))

	require.True(t, index.isDescendantOf(3, 1))
	require.True(t, index.isDescendantOf(5, 5))
	require.False(t, index.isDescendantOf(5, 2))
	require.False(t, index.isDescendantOf(1, 3))
}

func TestBranchHeaderChain(t *testing.T) {
	index := buildTestIndex()
	chain := index.branch(5)

	header, err := chain.HeaderAtHeight(3)
	require.NoError(t, err)
	require.Equal(t, uint64(105), header.Timestamp)

	header, err = chain.HeaderAtHeight(1)
	require.NoError(t, err)
	require.Equal(t, uint64(101), header.Timestamp)

	_, err = chain.HeaderAtHeight(4)
	require.True(t, database.IsNotFoundError(err))
}
