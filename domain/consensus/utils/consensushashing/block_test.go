package consensushashing

import (
	"bytes"
	"testing"

	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/hashes"
	"github.com/stretchr/testify/require"
)

func testHeader() *externalapi.DomainBlockHeader {
	return &externalapi.DomainBlockHeader{
		Version:           1,
		PreviousBlockHash: *externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0xaa}),
		MerkleRoot:        *externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0xbb}),
		Timestamp:         1704067200,
		Bits:              0x1d00ffff,
		Nonce:             0x0102030405060708,
		Height:            9,
	}
}

func TestHeaderLayout(t *testing.T) {
	header := testHeader()
	headerBytes := HeaderBytes(header)
	require.Len(t, headerBytes, HeaderSize)

	require.Equal(t, []byte{1, 0, 0, 0}, headerBytes[:4])
	require.Equal(t, byte(0xaa), headerBytes[4])
	require.Equal(t, byte(0xbb), headerBytes[36])
	require.Equal(t, []byte{0xff, 0xff, 0x00, 0x1d}, headerBytes[76:80])
	require.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, headerBytes[NonceOffset:NonceOffset+8])
	require.Equal(t, byte(9), headerBytes[88])

	require.Equal(t, hashes.DoubleSHA256(headerBytes), HeaderHash(header))
	require.Equal(t, HeaderHash(header), HeaderBytesHash(headerBytes))
}

func TestPutNonceMatchesHeaderHash(t *testing.T) {
	header := testHeader()
	template := HeaderBytes(header)

	for _, nonce := range []uint64{0, 1, 0xdeadbeef, ^uint64(0)} {
		PutNonce(template, nonce)
		header.Nonce = nonce
		require.True(t, HeaderHash(header).Equal(HeaderBytesHash(template)), "nonce %d", nonce)
	}
}

func TestTransactionIDCoversEveryField(t *testing.T) {
	base := &externalapi.DomainTransaction{
		Version: 1,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{Index: 1},
			UnlockingProof:   []byte{1},
			Sequence:         0xffffffff,
		}},
		Outputs: []*externalapi.DomainTransactionOutput{{Value: 10, LockingCondition: []byte{2}}},
	}
	baseID := TransactionID(base)

	mutations := []func(tx *externalapi.DomainTransaction){
		func(tx *externalapi.DomainTransaction) { tx.Version = 2 },
		func(tx *externalapi.DomainTransaction) { tx.Inputs[0].PreviousOutpoint.Index = 2 },
		func(tx *externalapi.DomainTransaction) { tx.Inputs[0].UnlockingProof = []byte{1, 1} },
		func(tx *externalapi.DomainTransaction) { tx.Inputs[0].Sequence = 0 },
		func(tx *externalapi.DomainTransaction) { tx.Outputs[0].Value = 11 },
		func(tx *externalapi.DomainTransaction) { tx.Outputs[0].AssetID = *hashes.DoubleSHA256([]byte("asset")) },
		func(tx *externalapi.DomainTransaction) { tx.Outputs[0].LockingCondition = nil },
		func(tx *externalapi.DomainTransaction) { tx.Extension = []byte{0} },
	}
	for i, mutate := range mutations {
		tx := base.Clone()
		mutate(tx)
		require.False(t, baseID.Equal(TransactionID(tx)), "mutation %d left the ID unchanged", i)
	}

	require.True(t, baseID.Equal(TransactionID(base.Clone())))
	require.Len(t, TransactionIDs([]*externalapi.DomainTransaction{base, base}), 2)
}

func TestOutpointEncoding(t *testing.T) {
	outpoint := &externalapi.DomainOutpoint{Index: 0x01020304}
	buf := &bytes.Buffer{}
	require.NoError(t, WriteOutpoint(buf, outpoint))
	require.Equal(t, externalapi.DomainHashSize+4, buf.Len())
	require.Equal(t, []byte{4, 3, 2, 1}, buf.Bytes()[externalapi.DomainHashSize:])
}
