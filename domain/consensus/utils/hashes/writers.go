package hashes

import (
	"crypto/sha256"
	"hash"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
)

// HashWriter is used to incrementally hash data without concatenating all of the data to a single buffer
// it exposes an io.Writer api and a Finalize function to get the resulting hash.
// The used hash function is SHA-256 applied twice.
type HashWriter struct {
	hash.Hash
}

// NewBlockHashWriter returns a new HashWriter used for block hashes
func NewBlockHashWriter() HashWriter {
	return HashWriter{sha256.New()}
}

// NewTransactionIDWriter returns a new HashWriter used for transaction IDs
func NewTransactionIDWriter() HashWriter {
	return HashWriter{sha256.New()}
}

// NewMerkleBranchHashWriter returns a new HashWriter used for merkle tree branches
func NewMerkleBranchHashWriter() HashWriter {
	return HashWriter{sha256.New()}
}

// InfallibleWrite is just like write but doesn't return anything
func (h HashWriter) InfallibleWrite(p []byte) {
	// This write can never return an error, this is part of the hash.Hash interface contract.
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting hash
func (h HashWriter) Finalize() *externalapi.DomainHash {
	first := h.Sum(nil)
	second := sha256.Sum256(first)
	return externalapi.NewDomainHashFromByteArray(&second)
}

// DoubleSHA256 hashes data with SHA-256 twice.
func DoubleSHA256(data []byte) *externalapi.DomainHash {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return externalapi.NewDomainHashFromByteArray(&second)
}
