package ledgerstore

import (
	"encoding/binary"

	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/infrastructure/db/database"
)

var (
	blockBucket      = database.MakeBucket([]byte("block"))
	heightBucket     = database.MakeBucket([]byte("height"))
	utxoBucket       = database.MakeBucket([]byte("utxo"))
	blockIndexBucket = database.MakeBucket([]byte("blockindex"))
	undoBucket       = database.MakeBucket([]byte("undo"))
	txIndexBucket    = database.MakeBucket([]byte("txindex"))

	chainStateKey = database.MakeBucket().Key([]byte("chainstate"))
	blockCountKey = database.MakeBucket().Key([]byte("blocks-count"))
)

func blockKey(hash *externalapi.DomainHash) *database.Key {
	return blockBucket.Key(hash.ByteSlice())
}

func blockIndexKey(hash *externalapi.DomainHash) *database.Key {
	return blockIndexBucket.Key(hash.ByteSlice())
}

func undoKey(hash *externalapi.DomainHash) *database.Key {
	return undoBucket.Key(hash.ByteSlice())
}

// heightKey encodes the height big-endian so that the height bucket
// iterates in chain order.
func heightKey(height uint64) *database.Key {
	var suffix [8]byte
	binary.BigEndian.PutUint64(suffix[:], height)
	return heightBucket.Key(suffix[:])
}

func utxoKey(outpoint *externalapi.DomainOutpoint) *database.Key {
	suffix := make([]byte, externalapi.DomainHashSize+4)
	copy(suffix, outpoint.TransactionID.ByteSlice())
	binary.BigEndian.PutUint32(suffix[externalapi.DomainHashSize:], outpoint.Index)
	return utxoBucket.Key(suffix)
}

func txIndexKey(transactionID *externalapi.DomainTransactionID) *database.Key {
	return txIndexBucket.Key(transactionID.ByteSlice())
}
