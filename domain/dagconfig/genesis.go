// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/transactionhelper"
)

// genesisTimestamp is 2024-01-01 00:00:00 UTC.
const genesisTimestamp = 1704067200

func newGenesisCoinbase(message []byte) *externalapi.DomainTransaction {
	return transactionhelper.NewNativeTransaction([]*externalapi.DomainTransactionInput{{
		PreviousOutpoint: *transactionhelper.CoinbaseOutpoint(),
		UnlockingProof:   message,
		Sequence:         transactionhelper.MaxTxInSequenceNum,
	}}, []*externalapi.DomainTransactionOutput{})
}

// genesisCoinbaseTx is the coinbase transaction for the genesis block for
// the main network. Its proof carries the message "Sedly - Fair Launch Blockchain". It has no outputs.
var genesisCoinbaseTx = newGenesisCoinbase([]byte("Sedly - Fair Launch Blockchain"))

// genesisHash is the hash of the first block in the block chain for the
// main network (genesis block).
var genesisHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0x30, 0x90, 0x2f, 0x08, 0xd6, 0xa6, 0x70, 0x7e,
	0x7c, 0x85, 0x58, 0x9d, 0x22, 0x03, 0x30, 0x26,
	0xf6, 0x93, 0xf1, 0xdd, 0x91, 0xad, 0xfe, 0xfc,
	0x29, 0x25, 0xbe, 0x6c, 0x63, 0x2a, 0x18, 0x2c,
})

// genesisMerkleRoot is the hash of the first transaction in the genesis block
// for the main network.
var genesisMerkleRoot = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0x38, 0x31, 0xea, 0xf9, 0xed, 0xf4, 0x4d, 0x55,
	0x48, 0x10, 0x34, 0x72, 0x55, 0xcb, 0xe4, 0xc6,
	0x2e, 0x1f, 0x77, 0xbb, 0xfc, 0xa3, 0xeb, 0xa2,
	0x1d, 0x8f, 0xa2, 0x64, 0xb0, 0xf2, 0x57, 0x2d,
})

// genesisBlock defines the genesis block of the block chain which serves as the
// public transaction ledger for the main network.
var genesisBlock = externalapi.DomainBlock{
	Header: &externalapi.DomainBlockHeader{
		Version:           1,
		PreviousBlockHash: externalapi.DomainHash{},
		MerkleRoot:        *genesisMerkleRoot,
		Timestamp:         genesisTimestamp,
		Bits:              0x1d00ffff,
		Nonce:             0,
		Height:            0,
	},
	Transactions: []*externalapi.DomainTransaction{genesisCoinbaseTx},
}

// testnetGenesisCoinbaseTx is the coinbase transaction for the genesis block for
// the test network. Its proof carries the message "Sedly - Testnet". It has no outputs.
var testnetGenesisCoinbaseTx = newGenesisCoinbase([]byte("Sedly - Testnet"))

// testnetGenesisHash is the hash of the first block in the block chain for the
// test network (genesis block).
var testnetGenesisHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0xf2, 0x86, 0x70, 0x75, 0xe6, 0x48, 0x61, 0xad,
	0x80, 0x34, 0x81, 0xad, 0xa9, 0xa3, 0x8e, 0xff,
	0x88, 0x6d, 0xc5, 0xe6, 0x8d, 0xa8, 0x05, 0xb4,
	0xee, 0x9e, 0x6c, 0x69, 0x53, 0x6d, 0x18, 0x32,
})

// testnetGenesisMerkleRoot is the hash of the first transaction in the genesis block
// for the test network.
var testnetGenesisMerkleRoot = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0xfd, 0xc1, 0x28, 0x41, 0x50, 0xcc, 0xe7, 0x80,
	0xab, 0x8c, 0x72, 0xef, 0x60, 0xad, 0x37, 0x92,
	0x21, 0xbc, 0xc6, 0xd9, 0x9e, 0x4b, 0xe0, 0x78,
	0x8a, 0xee, 0x1c, 0x34, 0x24, 0x5f, 0xcc, 0x48,
})

// testnetGenesisBlock defines the genesis block of the block chain which serves as the
// public transaction ledger for the test network.
var testnetGenesisBlock = externalapi.DomainBlock{
	Header: &externalapi.DomainBlockHeader{
		Version:           1,
		PreviousBlockHash: externalapi.DomainHash{},
		MerkleRoot:        *testnetGenesisMerkleRoot,
		Timestamp:         genesisTimestamp,
		Bits:              0x1f00ffff,
		Nonce:             0,
		Height:            0,
	},
	Transactions: []*externalapi.DomainTransaction{testnetGenesisCoinbaseTx},
}

// simnetGenesisCoinbaseTx is the coinbase transaction for the genesis block for
// the simulation test network. Its proof carries the message "Sedly - Simnet". It has no outputs.
var simnetGenesisCoinbaseTx = newGenesisCoinbase([]byte("Sedly - Simnet"))

// simnetGenesisHash is the hash of the first block in the block chain for the
// simulation test network (genesis block).
var simnetGenesisHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0x72, 0x2d, 0xaf, 0x87, 0xb3, 0x78, 0x2c, 0xb6,
	0x13, 0x20, 0x09, 0xf4, 0xf8, 0x8f, 0x86, 0x1b,
	0xdc, 0xd4, 0xc3, 0x3a, 0x24, 0x64, 0x8b, 0x02,
	0x33, 0x2f, 0xce, 0xe1, 0xe0, 0x8d, 0x76, 0x85,
})

// simnetGenesisMerkleRoot is the hash of the first transaction in the genesis block
// for the simulation test network.
var simnetGenesisMerkleRoot = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0x5d, 0x36, 0xec, 0xd6, 0xd0, 0xc7, 0x0e, 0xc9,
	0x29, 0xfc, 0xb8, 0xa1, 0x68, 0x0e, 0x16, 0xc4,
	0xe6, 0x30, 0xf8, 0x56, 0xe8, 0x8c, 0x20, 0xf7,
	0xfe, 0x74, 0xfe, 0x5c, 0x61, 0xcc, 0x36, 0x6d,
})

// simnetGenesisBlock defines the genesis block of the block chain which serves as the
// public transaction ledger for the simulation test network.
var simnetGenesisBlock = externalapi.DomainBlock{
	Header: &externalapi.DomainBlockHeader{
		Version:           1,
		PreviousBlockHash: externalapi.DomainHash{},
		MerkleRoot:        *simnetGenesisMerkleRoot,
		Timestamp:         genesisTimestamp,
		Bits:              0x207fffff,
		Nonce:             0,
		Height:            0,
	},
	Transactions: []*externalapi.DomainTransaction{simnetGenesisCoinbaseTx},
}

// devnetGenesisCoinbaseTx is the coinbase transaction for the genesis block for
// the development network. Its proof carries the message "Sedly - Devnet". It has no outputs.
var devnetGenesisCoinbaseTx = newGenesisCoinbase([]byte("Sedly - Devnet"))

// devnetGenesisHash is the hash of the first block in the block chain for the
// development network (genesis block).
var devnetGenesisHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0x3e, 0x79, 0xd9, 0x9a, 0x50, 0xa6, 0x66, 0x2b,
	0x53, 0x6c, 0xbc, 0xfe, 0xfd, 0x41, 0x52, 0xe8,
	0x0d, 0x60, 0x66, 0xc2, 0xa9, 0xd9, 0xf1, 0x44,
	0x05, 0x3f, 0xd5, 0x39, 0x6f, 0xbc, 0x31, 0x0a,
})

// devnetGenesisMerkleRoot is the hash of the first transaction in the genesis block
// for the development network.
var devnetGenesisMerkleRoot = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0x3d, 0xd7, 0x2e, 0xac, 0xba, 0x9f, 0x82, 0x0a,
	0xe0, 0x52, 0x4e, 0xdc, 0xfa, 0x55, 0x91, 0xbc,
	0x0d, 0x01, 0xab, 0xbc, 0x43, 0x0a, 0xd8, 0x79,
	0x6b, 0x90, 0xef, 0x67, 0xd7, 0xab, 0x47, 0x93,
})

// devnetGenesisBlock defines the genesis block of the block chain which serves as the
// public transaction ledger for the development network.
var devnetGenesisBlock = externalapi.DomainBlock{
	Header: &externalapi.DomainBlockHeader{
		Version:           1,
		PreviousBlockHash: externalapi.DomainHash{},
		MerkleRoot:        *devnetGenesisMerkleRoot,
		Timestamp:         genesisTimestamp,
		Bits:              0x1f00ffff,
		Nonce:             0,
		Height:            0,
	},
	Transactions: []*externalapi.DomainTransaction{devnetGenesisCoinbaseTx},
}
