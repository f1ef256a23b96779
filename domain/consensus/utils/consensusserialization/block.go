package consensusserialization

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensushashing"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/serialization"
)

// Smallest possible encodings, used to reject absurd element counts before
// allocating for them.
const (
	minTransactionSize = 4 + 8 + 8 + 8
	minInputSize       = externalapi.DomainHashSize + 4 + 8 + 4
	minOutputSize      = 8 + externalapi.DomainHashSize + 8
)

// SerializeBlock returns the canonical block encoding:
// header followed by a u64 transaction count and the transactions.
func SerializeBlock(block *externalapi.DomainBlock) ([]byte, error) {
	w := &bytes.Buffer{}
	err := consensushashing.SerializeHeader(w, block.Header)
	if err != nil {
		return nil, err
	}
	err = serialization.WriteElement(w, uint64(len(block.Transactions)))
	if err != nil {
		return nil, err
	}
	for _, tx := range block.Transactions {
		err = consensushashing.SerializeTransaction(w, tx)
		if err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// DeserializeBlock decodes a block produced by SerializeBlock. Trailing
// bytes are an error.
func DeserializeBlock(blockBytes []byte) (*externalapi.DomainBlock, error) {
	r := bytes.NewReader(blockBytes)
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	txCount, err := serialization.ReadCount(r, r.Len(), minTransactionSize)
	if err != nil {
		return nil, err
	}
	transactions := make([]*externalapi.DomainTransaction, txCount)
	for i := range transactions {
		transactions[i], err = readTransaction(r)
		if err != nil {
			return nil, err
		}
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after block", r.Len())
	}
	return &externalapi.DomainBlock{Header: header, Transactions: transactions}, nil
}

// DeserializeHeader decodes a header produced by consensushashing.SerializeHeader.
func DeserializeHeader(headerBytes []byte) (*externalapi.DomainBlockHeader, error) {
	if len(headerBytes) != consensushashing.HeaderSize {
		return nil, errors.Errorf("header must be %d bytes, got %d", consensushashing.HeaderSize, len(headerBytes))
	}
	return readHeader(bytes.NewReader(headerBytes))
}

// DeserializeTransaction decodes a transaction produced by
// consensushashing.SerializeTransaction.
func DeserializeTransaction(txBytes []byte) (*externalapi.DomainTransaction, error) {
	r := bytes.NewReader(txBytes)
	tx, err := readTransaction(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after transaction", r.Len())
	}
	return tx, nil
}

func readHeader(r io.Reader) (*externalapi.DomainBlockHeader, error) {
	header := &externalapi.DomainBlockHeader{}
	err := serialization.ReadElements(r, &header.Version, &header.PreviousBlockHash, &header.MerkleRoot,
		&header.Timestamp, &header.Bits, &header.Nonce, &header.Height)
	if err != nil {
		return nil, err
	}
	return header, nil
}

func readTransaction(r *bytes.Reader) (*externalapi.DomainTransaction, error) {
	tx := &externalapi.DomainTransaction{}
	err := serialization.ReadElement(r, &tx.Version)
	if err != nil {
		return nil, err
	}

	inputCount, err := serialization.ReadCount(r, r.Len(), minInputSize)
	if err != nil {
		return nil, err
	}
	tx.Inputs = make([]*externalapi.DomainTransactionInput, inputCount)
	for i := range tx.Inputs {
		input := &externalapi.DomainTransactionInput{}
		err = serialization.ReadElements(r, &input.PreviousOutpoint.TransactionID, &input.PreviousOutpoint.Index,
			&input.UnlockingProof, &input.Sequence)
		if err != nil {
			return nil, err
		}
		tx.Inputs[i] = input
	}

	outputCount, err := serialization.ReadCount(r, r.Len(), minOutputSize)
	if err != nil {
		return nil, err
	}
	tx.Outputs = make([]*externalapi.DomainTransactionOutput, outputCount)
	for i := range tx.Outputs {
		output := &externalapi.DomainTransactionOutput{}
		err = serialization.ReadElements(r, &output.Value, &output.AssetID, &output.LockingCondition)
		if err != nil {
			return nil, err
		}
		tx.Outputs[i] = output
	}

	tx.Extension, err = serialization.ReadVarBytes(r)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
