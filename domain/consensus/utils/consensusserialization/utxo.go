package consensusserialization

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/consensushashing"
	"github.com/sedlynet/sedlyd/domain/consensus/utils/serialization"
)

// SerializeUTXO returns the byte-slice representation for given UTXOEntry-outpoint pair.
// It is the element fed into the UTXO set commitment.
func SerializeUTXO(entry *externalapi.UTXOEntry, outpoint *externalapi.DomainOutpoint) ([]byte, error) {
	w := &bytes.Buffer{}

	err := consensushashing.WriteOutpoint(w, outpoint)
	if err != nil {
		return nil, err
	}

	err = serializeUTXOEntry(w, entry)
	if err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// DeserializeUTXO deserializes the given byte slice to UTXOEntry-outpoint pair
func DeserializeUTXO(utxoBytes []byte) (entry *externalapi.UTXOEntry, outpoint *externalapi.DomainOutpoint, err error) {
	r := bytes.NewReader(utxoBytes)
	outpoint = &externalapi.DomainOutpoint{}
	err = serialization.ReadElements(r, &outpoint.TransactionID, &outpoint.Index)
	if err != nil {
		return nil, nil, err
	}

	entry, err = deserializeUTXOEntry(r)
	if err != nil {
		return nil, nil, err
	}
	if r.Len() != 0 {
		return nil, nil, errors.Errorf("%d trailing bytes after UTXO", r.Len())
	}

	return entry, outpoint, nil
}

// SerializeUTXOEntry returns the stored representation of a UTXO entry:
// value, asset id, locking condition, creation height, coinbase flag.
func SerializeUTXOEntry(entry *externalapi.UTXOEntry) ([]byte, error) {
	w := &bytes.Buffer{}
	err := serializeUTXOEntry(w, entry)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DeserializeUTXOEntry decodes an entry produced by SerializeUTXOEntry.
func DeserializeUTXOEntry(entryBytes []byte) (*externalapi.UTXOEntry, error) {
	r := bytes.NewReader(entryBytes)
	entry, err := deserializeUTXOEntry(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after UTXO entry", r.Len())
	}
	return entry, nil
}

func serializeUTXOEntry(w io.Writer, entry *externalapi.UTXOEntry) error {
	return serialization.WriteElements(w, entry.Value, &entry.AssetID, entry.LockingCondition,
		entry.CreationHeight, entry.IsCoinbase)
}

func deserializeUTXOEntry(r io.Reader) (*externalapi.UTXOEntry, error) {
	entry := &externalapi.UTXOEntry{}
	err := serialization.ReadElements(r, &entry.Value, &entry.AssetID, &entry.LockingCondition,
		&entry.CreationHeight, &entry.IsCoinbase)
	if err != nil {
		return nil, err
	}
	return entry, nil
}
