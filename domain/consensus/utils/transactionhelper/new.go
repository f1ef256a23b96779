package transactionhelper

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
)

const (
	// TransactionVersion is the version of every transaction this node builds.
	TransactionVersion uint32 = 1

	// MaxTxInSequenceNum is the default sequence of an input.
	MaxTxInSequenceNum uint32 = 0xffffffff

	// CoinbaseOutpointIndex is the index of the null outpoint a coinbase
	// input refers to.
	CoinbaseOutpointIndex uint32 = 0xffffffff

	// heightCommitmentTag prefixes the block height inside a coinbase proof.
	// It is the length in bytes of the height that follows.
	heightCommitmentTag = 8

	heightCommitmentLength = 1 + 8
)

// NewNativeTransaction returns a new transaction of the native asset with no
// extension data.
func NewNativeTransaction(inputs []*externalapi.DomainTransactionInput,
	outputs []*externalapi.DomainTransactionOutput) *externalapi.DomainTransaction {

	return &externalapi.DomainTransaction{
		Version:   TransactionVersion,
		Inputs:    inputs,
		Outputs:   outputs,
		Extension: []byte{},
	}
}

// CoinbaseOutpoint returns the null outpoint a coinbase input refers to.
func CoinbaseOutpoint() *externalapi.DomainOutpoint {
	return &externalapi.DomainOutpoint{
		TransactionID: externalapi.DomainTransactionID{},
		Index:         CoinbaseOutpointIndex,
	}
}

// IsCoinBase determines whether or not a transaction is a coinbase transaction. A coinbase
// transaction has exactly one input, and that input refers to the null outpoint.
func IsCoinBase(tx *externalapi.DomainTransaction) bool {
	if len(tx.Inputs) != 1 {
		return false
	}
	return tx.Inputs[0].PreviousOutpoint.Equal(CoinbaseOutpoint())
}

// SpendsNullOutpoint returns whether any input of tx refers to the null outpoint.
func SpendsNullOutpoint(tx *externalapi.DomainTransaction) bool {
	nullOutpoint := CoinbaseOutpoint()
	for _, input := range tx.Inputs {
		if input.PreviousOutpoint.Equal(nullOutpoint) {
			return true
		}
	}
	return false
}

// CoinbaseProof returns the unlocking proof of a coinbase input for the given
// height: the height commitment followed by arbitrary extra data.
func CoinbaseProof(height uint64, extraData []byte) []byte {
	proof := make([]byte, heightCommitmentLength, heightCommitmentLength+len(extraData))
	proof[0] = heightCommitmentTag
	binary.LittleEndian.PutUint64(proof[1:heightCommitmentLength], height)
	return append(proof, extraData...)
}

// ExtractCoinbaseHeight parses the height commitment out of a coinbase's proof.
func ExtractCoinbaseHeight(coinbase *externalapi.DomainTransaction) (height uint64, extraData []byte, err error) {
	if !IsCoinBase(coinbase) {
		return 0, nil, errors.New("transaction is not a coinbase")
	}
	proof := coinbase.Inputs[0].UnlockingProof
	if len(proof) < heightCommitmentLength || proof[0] != heightCommitmentTag {
		return 0, nil, errors.Errorf("coinbase proof of length %d has no height commitment", len(proof))
	}
	return binary.LittleEndian.Uint64(proof[1:heightCommitmentLength]), proof[heightCommitmentLength:], nil
}

// NewCoinbaseTransaction builds the coinbase of a block at the given height,
// paying value to the coinbase data's locking condition.
func NewCoinbaseTransaction(height uint64, coinbaseData *externalapi.DomainCoinbaseData,
	value uint64) *externalapi.DomainTransaction {

	input := &externalapi.DomainTransactionInput{
		PreviousOutpoint: *CoinbaseOutpoint(),
		UnlockingProof:   CoinbaseProof(height, coinbaseData.ExtraData),
		Sequence:         MaxTxInSequenceNum,
	}
	outputs := []*externalapi.DomainTransactionOutput{{
		Value:            value,
		LockingCondition: coinbaseData.LockingCondition,
	}}
	return NewNativeTransaction([]*externalapi.DomainTransactionInput{input}, outputs)
}

// TotalOutputValue sums tx's outputs. ok is false on overflow.
func TotalOutputValue(tx *externalapi.DomainTransaction) (total uint64, ok bool) {
	for _, output := range tx.Outputs {
		sum := total + output.Value
		if sum < total {
			return 0, false
		}
		total = sum
	}
	return total, true
}

// LongestField returns the name and length of tx's longest variable-length
// field.
func LongestField(tx *externalapi.DomainTransaction) (name string, length int) {
	name, length = "extension", len(tx.Extension)
	for i, input := range tx.Inputs {
		if len(input.UnlockingProof) > length {
			name, length = fmt.Sprintf("unlocking proof of input %d", i), len(input.UnlockingProof)
		}
	}
	for i, output := range tx.Outputs {
		if len(output.LockingCondition) > length {
			name, length = fmt.Sprintf("locking condition of output %d", i), len(output.LockingCondition)
		}
	}
	return name, length
}
