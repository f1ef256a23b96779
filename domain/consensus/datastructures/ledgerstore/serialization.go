package ledgerstore

import (
	"bytes"
	"math/big"

	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensushashing"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensusserialization"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/serialization"
)

// chainStateRecord is the persisted chain state. The UTXO multiset is kept
// in its serialized, non-finalized form so that it can keep absorbing
// additions and removals after a restart.
type chainStateRecord struct {
	tipHash        externalapi.DomainHash
	tipHeight      uint64
	cumulativeWork *big.Int
	utxoCount      uint64
	utxoSet        *muhash.MuHash
}

func (r *chainStateRecord) clone() *chainStateRecord {
	return &chainStateRecord{
		tipHash:        r.tipHash,
		tipHeight:      r.tipHeight,
		cumulativeWork: new(big.Int).Set(r.cumulativeWork),
		utxoCount:      r.utxoCount,
		utxoSet:        r.utxoSet.Clone(),
	}
}

func (r *chainStateRecord) toChainState() *externalapi.ChainState {
	return &externalapi.ChainState{
		TipHash:        r.tipHash,
		TipHeight:      r.tipHeight,
		CumulativeWork: new(big.Int).Set(r.cumulativeWork),
		UTXOCommitment: *utxoCommitment(r.utxoSet),
	}
}

func utxoCommitment(utxoSet *muhash.MuHash) *externalapi.DomainHash {
	finalized := utxoSet.Finalize()
	var commitment [externalapi.DomainHashSize]byte
	copy(commitment[:], finalized[:])
	return externalapi.NewDomainHashFromByteArray(&commitment)
}

func serializeChainState(record *chainStateRecord) ([]byte, error) {
	w := &bytes.Buffer{}
	err := serialization.WriteElements(w, &record.tipHash, record.tipHeight,
		record.cumulativeWork.Bytes(), record.utxoCount, record.utxoSet.Serialize()[:])
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func deserializeChainState(recordBytes []byte) (*chainStateRecord, error) {
	r := bytes.NewReader(recordBytes)
	record := &chainStateRecord{}
	var workBytes, utxoSetBytes []byte
	err := serialization.ReadElements(r, &record.tipHash, &record.tipHeight,
		&workBytes, &record.utxoCount, &utxoSetBytes)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after chain state", r.Len())
	}

	record.cumulativeWork = new(big.Int).SetBytes(workBytes)

	serializedUTXOSet := &muhash.SerializedMuHash{}
	if len(utxoSetBytes) != len(serializedUTXOSet) {
		return nil, errors.Errorf("UTXO multiset expected to be in length of %d but got %d",
			len(serializedUTXOSet), len(utxoSetBytes))
	}
	copy(serializedUTXOSet[:], utxoSetBytes)
	record.utxoSet, err = muhash.DeserializeMuHash(serializedUTXOSet)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// BlockIndexEntry is the persisted block index record of a stored block.
type BlockIndexEntry struct {
	Hash           *externalapi.DomainHash
	Header         *externalapi.DomainBlockHeader
	CumulativeWork *big.Int
	Status         externalapi.BlockStatus
}

func serializeBlockIndexEntry(entry *BlockIndexEntry) ([]byte, error) {
	w := &bytes.Buffer{}
	err := consensushashing.SerializeHeader(w, entry.Header)
	if err != nil {
		return nil, err
	}
	err = serialization.WriteElements(w, uint8(entry.Status), entry.CumulativeWork.Bytes())
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func deserializeBlockIndexEntry(entryBytes []byte) (*BlockIndexEntry, error) {
	if len(entryBytes) < consensushashing.HeaderSize {
		return nil, errors.Errorf("block index entry of %d bytes is too short", len(entryBytes))
	}
	header, err := consensusserialization.DeserializeHeader(entryBytes[:consensushashing.HeaderSize])
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(entryBytes[consensushashing.HeaderSize:])
	var status uint8
	var workBytes []byte
	err = serialization.ReadElements(r, &status, &workBytes)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after block index entry", r.Len())
	}
	return &BlockIndexEntry{
		Hash:           consensushashing.HeaderHash(header),
		Header:         header,
		CumulativeWork: new(big.Int).SetBytes(workBytes),
		Status:         externalapi.BlockStatus(status),
	}, nil
}

// The undo record is the block's own delta: Spent holds the entries as they
// were before the block consumed them.
func serializeUndoDelta(delta *externalapi.UTXODelta) ([]byte, error) {
	w := &bytes.Buffer{}
	for _, pairs := range [][]*externalapi.OutpointAndUTXOEntryPair{delta.Spent, delta.Created} {
		err := serialization.WriteElement(w, uint64(len(pairs)))
		if err != nil {
			return nil, err
		}
		for _, pair := range pairs {
			pairBytes, err := consensusserialization.SerializeUTXO(pair.UTXOEntry, pair.Outpoint)
			if err != nil {
				return nil, err
			}
			err = serialization.WriteVarBytes(w, pairBytes)
			if err != nil {
				return nil, err
			}
		}
	}
	return w.Bytes(), nil
}

func deserializeUndoDelta(undoBytes []byte) (*externalapi.UTXODelta, error) {
	const minPairSize = 8 + externalapi.DomainHashSize + 4

	r := bytes.NewReader(undoBytes)
	readPairs := func() ([]*externalapi.OutpointAndUTXOEntryPair, error) {
		count, err := serialization.ReadCount(r, r.Len(), minPairSize)
		if err != nil {
			return nil, err
		}
		pairs := make([]*externalapi.OutpointAndUTXOEntryPair, count)
		for i := range pairs {
			pairBytes, err := serialization.ReadVarBytes(r)
			if err != nil {
				return nil, err
			}
			entry, outpoint, err := consensusserialization.DeserializeUTXO(pairBytes)
			if err != nil {
				return nil, err
			}
			pairs[i] = &externalapi.OutpointAndUTXOEntryPair{Outpoint: outpoint, UTXOEntry: entry}
		}
		return pairs, nil
	}

	spent, err := readPairs()
	if err != nil {
		return nil, err
	}
	created, err := readPairs()
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after undo record", r.Len())
	}
	return &externalapi.UTXODelta{Spent: spent, Created: created}, nil
}

func serializeTransactionLocation(location *externalapi.TransactionLocation) ([]byte, error) {
	w := &bytes.Buffer{}
	err := serialization.WriteElements(w, &location.BlockHash, location.BlockHeight, location.Index)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func deserializeTransactionLocation(locationBytes []byte) (*externalapi.TransactionLocation, error) {
	r := bytes.NewReader(locationBytes)
	location := &externalapi.TransactionLocation{}
	err := serialization.ReadElements(r, &location.BlockHash, &location.BlockHeight, &location.Index)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after transaction location", r.Len())
	}
	return location, nil
}

func serializeCount(count uint64) []byte {
	w := &bytes.Buffer{}
	// Writing to a bytes.Buffer never fails
	_ = serialization.WriteElement(w, count)
	return w.Bytes()
}

func deserializeCount(countBytes []byte) (uint64, error) {
	r := bytes.NewReader(countBytes)
	var count uint64
	err := serialization.ReadElement(r, &count)
	if err != nil {
		return 0, err
	}
	if r.Len() != 0 {
		return 0, errors.Errorf("%d trailing bytes after count", r.Len())
	}
	return count, nil
}
