package constants

const (
	// BlockVersion represents the current version of blocks mined and the maximum block version
	// this node is able to validate
	BlockVersion uint32 = 1

	// DefaultMiningThreads is the number of nonce search workers used when
	// none is configured.
	DefaultMiningThreads = 4

	// MaxTransactionFieldLength bounds the unlocking proof, locking condition
	// and extension of a transaction. It stays below the var-bytes limit of
	// the serializer so that a locking condition still fits once it is
	// stored inside a UTXO entry together with its outpoint.
	MaxTransactionFieldLength = 1<<24 - 1<<10
)
