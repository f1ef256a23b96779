package externalapi

import "bytes"

// UTXOEntry houses details about an individual transaction output in a utxo
// set such as whether or not it was contained in a coinbase tx, the height of
// the block that created it, its locking condition, and how much it pays.
type UTXOEntry struct {
	Value            uint64
	AssetID          DomainHash
	LockingCondition []byte
	CreationHeight   uint64
	IsCoinbase       bool
}

// NewUTXOEntry creates a UTXOEntry for the given output, created at the given
// block height.
func NewUTXOEntry(output *DomainTransactionOutput, creationHeight uint64, isCoinbase bool) *UTXOEntry {
	return &UTXOEntry{
		Value:            output.Value,
		AssetID:          output.AssetID,
		LockingCondition: cloneBytes(output.LockingCondition),
		CreationHeight:   creationHeight,
		IsCoinbase:       isCoinbase,
	}
}

// Clone returns a clone of UTXOEntry
func (entry *UTXOEntry) Clone() *UTXOEntry {
	clone := *entry
	clone.LockingCondition = cloneBytes(entry.LockingCondition)
	return &clone
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = &UTXOEntry{0, DomainHash{}, []byte{}, 0, false}

// Equal returns whether entry equals to other
func (entry *UTXOEntry) Equal(other *UTXOEntry) bool {
	if entry == nil || other == nil {
		return entry == other
	}

	return entry.Value == other.Value &&
		entry.AssetID.Equal(&other.AssetID) &&
		bytes.Equal(entry.LockingCondition, other.LockingCondition) &&
		entry.CreationHeight == other.CreationHeight &&
		entry.IsCoinbase == other.IsCoinbase
}

// OutpointAndUTXOEntryPair is an outpoint along with its
// respective UTXO entry
type OutpointAndUTXOEntryPair struct {
	Outpoint  *DomainOutpoint
	UTXOEntry *UTXOEntry
}
