package externalapi

// BlockStatus represents the validation state of the block.
type BlockStatus byte

// Clone returns a clone of BlockStatus
func (bs BlockStatus) Clone() BlockStatus {
	return bs
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ BlockStatus = 0

// Equal returns whether bs equals to other
func (bs BlockStatus) Equal(other BlockStatus) bool {
	return bs == other
}

const (
	// StatusInvalid indicates that the block is invalid, or descends from an
	// invalid block.
	StatusInvalid BlockStatus = iota

	// StatusStored indicates that the block passed the stateless checks and
	// is stored, but was never connected to the best chain.
	StatusStored

	// StatusValid indicates that the block was fully validated against the
	// UTXO set at its parent.
	StatusValid
)

var blockStatusStrings = map[BlockStatus]string{
	StatusInvalid: "Invalid",
	StatusStored:  "Stored",
	StatusValid:   "Valid",
}

func (bs BlockStatus) String() string {
	return blockStatusStrings[bs]
}
