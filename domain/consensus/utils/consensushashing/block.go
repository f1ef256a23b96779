package consensushashing

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/hashes"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/serialization"
)

const (
	// HeaderSize is the length of a serialized block header:
	// version 4, previous hash 32, merkle root 32, timestamp 8, bits 4,
	// nonce 8, height 8.
	HeaderSize = 96

	// NonceOffset is the byte offset of the nonce in a serialized header.
	NonceOffset = 80
)

// BlockHash returns the given block's hash
func BlockHash(block *externalapi.DomainBlock) *externalapi.DomainHash {
	return HeaderHash(block.Header)
}

// HeaderHash returns the given header's hash
func HeaderHash(header *externalapi.DomainBlockHeader) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()
	err := SerializeHeader(writer, header)
	if err != nil {
		// It seems like this could only happen if the writer returned an error.
		// and this writer should never return an error (no allocations or possible failures)
		// the only non-writer error path here is unknown types in `WriteElement`
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}

	return writer.Finalize()
}

// SerializeHeader writes the canonical header encoding to w.
func SerializeHeader(w io.Writer, header *externalapi.DomainBlockHeader) error {
	return serialization.WriteElements(w, header.Version, &header.PreviousBlockHash, &header.MerkleRoot,
		header.Timestamp, header.Bits, header.Nonce, header.Height)
}

// HeaderBytes returns the canonical header encoding.
func HeaderBytes(header *externalapi.DomainBlockHeader) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize))
	err := SerializeHeader(buf, header)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. bytes.Buffer writes never fail"))
	}
	return buf.Bytes()
}

// PutNonce overwrites the nonce of a serialized header in place.
func PutNonce(headerBytes []byte, nonce uint64) {
	binary.LittleEndian.PutUint64(headerBytes[NonceOffset:NonceOffset+8], nonce)
}

// HeaderBytesHash hashes an already serialized header.
func HeaderBytesHash(headerBytes []byte) *externalapi.DomainHash {
	return hashes.DoubleSHA256(headerBytes)
}
