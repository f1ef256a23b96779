package externalapi

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTransaction() *DomainTransaction {
	return &DomainTransaction{
		Version: 1,
		Inputs: []*DomainTransactionInput{{
			PreviousOutpoint: DomainOutpoint{
				TransactionID: *NewDomainTransactionIDFromByteArray(&[DomainHashSize]byte{1}),
				Index:         2,
			},
			UnlockingProof: []byte{3, 4},
			Sequence:       0xffffffff,
		}},
		Outputs: []*DomainTransactionOutput{{
			Value:            5,
			LockingCondition: []byte{6},
		}},
		Extension: []byte{7},
	}
}

func TestTransactionCloneIsDeep(t *testing.T) {
	tx := sampleTransaction()
	clone := tx.Clone()
	require.True(t, tx.Equal(clone))

	clone.Inputs[0].UnlockingProof[0] = 42
	require.False(t, tx.Equal(clone))
	require.Equal(t, byte(3), tx.Inputs[0].UnlockingProof[0])

	clone = tx.Clone()
	clone.Outputs[0].AssetID = *NewDomainHashFromByteArray(&[DomainHashSize]byte{9})
	require.False(t, tx.Equal(clone))

	clone = tx.Clone()
	clone.Extension = nil
	require.False(t, tx.Equal(clone))
}

func TestBlockEqual(t *testing.T) {
	block := &DomainBlock{
		Header:       &DomainBlockHeader{Version: 1, Timestamp: 10, Bits: 0x207fffff, Height: 3},
		Transactions: []*DomainTransaction{sampleTransaction()},
	}
	clone := block.Clone()
	require.True(t, block.Equal(clone))

	clone.Header.Nonce++
	require.False(t, block.Equal(clone))
	require.False(t, block.Equal(nil))
	require.True(t, (*DomainBlock)(nil).Equal(nil))
}

func TestDomainHashFromString(t *testing.T) {
	hashString := "00000000ffff0000000000000000000000000000000000000000000000000001"
	hash, err := NewDomainHashFromString(hashString)
	require.NoError(t, err)
	require.Equal(t, hashString, hash.String())
	require.False(t, hash.IsZero())
	require.True(t, NewZeroHash().Less(hash))

	_, err = NewDomainHashFromString("abcd")
	require.Error(t, err)
	_, err = NewDomainHashFromString(hashString[:62] + "zz")
	require.Error(t, err)
}

func TestUTXODeltaInverse(t *testing.T) {
	outpoint := &DomainOutpoint{Index: 1}
	entry := &UTXOEntry{Value: 10, CreationHeight: 4}
	delta := &UTXODelta{
		Spent:   []*OutpointAndUTXOEntryPair{{Outpoint: outpoint, UTXOEntry: entry}},
		Created: []*OutpointAndUTXOEntryPair{},
	}
	inverse := delta.Inverse()
	require.Len(t, inverse.Created, 1)
	require.Empty(t, inverse.Spent)
	require.True(t, inverse.Inverse().Equal(delta))
	require.True(t, delta.Clone().Equal(delta))
}

func TestChainStateClone(t *testing.T) {
	state := &ChainState{TipHeight: 7, CumulativeWork: big.NewInt(100)}
	clone := state.Clone()
	require.True(t, state.Equal(clone))
	clone.CumulativeWork.SetInt64(5)
	require.Equal(t, int64(100), state.CumulativeWork.Int64())
}
