package externalapi

// UTXODelta is the change a single block makes to the UTXO set.
// Spent carries the entries as they were before the block consumed them,
// which makes the delta its own undo record.
type UTXODelta struct {
	Spent   []*OutpointAndUTXOEntryPair
	Created []*OutpointAndUTXOEntryPair
}

// Inverse returns the delta that undoes this one.
func (delta *UTXODelta) Inverse() *UTXODelta {
	return &UTXODelta{
		Spent:   delta.Created,
		Created: delta.Spent,
	}
}

// Clone returns a deep clone of UTXODelta
func (delta *UTXODelta) Clone() *UTXODelta {
	return &UTXODelta{
		Spent:   clonePairs(delta.Spent),
		Created: clonePairs(delta.Created),
	}
}

// Equal returns whether delta equals to other, order included
func (delta *UTXODelta) Equal(other *UTXODelta) bool {
	if delta == nil || other == nil {
		return delta == other
	}
	return pairsEqual(delta.Spent, other.Spent) && pairsEqual(delta.Created, other.Created)
}

func clonePairs(pairs []*OutpointAndUTXOEntryPair) []*OutpointAndUTXOEntryPair {
	clone := make([]*OutpointAndUTXOEntryPair, len(pairs))
	for i, pair := range pairs {
		clone[i] = &OutpointAndUTXOEntryPair{
			Outpoint:  pair.Outpoint.Clone(),
			UTXOEntry: pair.UTXOEntry.Clone(),
		}
	}
	return clone
}

func pairsEqual(a, b []*OutpointAndUTXOEntryPair) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Outpoint.Equal(b[i].Outpoint) || !a[i].UTXOEntry.Equal(b[i].UTXOEntry) {
			return false
		}
	}
	return true
}
