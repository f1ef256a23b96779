package externalapi

import "bytes"

// DomainCoinbaseData contains data by which a coinbase transaction
// is built
type DomainCoinbaseData struct {
	LockingCondition []byte
	ExtraData        []byte
}

// Clone returns a clone of DomainCoinbaseData
func (dcd *DomainCoinbaseData) Clone() *DomainCoinbaseData {
	return &DomainCoinbaseData{
		LockingCondition: cloneBytes(dcd.LockingCondition),
		ExtraData:        cloneBytes(dcd.ExtraData),
	}
}

// Equal returns whether dcd equals to other
func (dcd *DomainCoinbaseData) Equal(other *DomainCoinbaseData) bool {
	if dcd == nil || other == nil {
		return dcd == other
	}
	return bytes.Equal(dcd.LockingCondition, other.LockingCondition) &&
		bytes.Equal(dcd.ExtraData, other.ExtraData)
}
