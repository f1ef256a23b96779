package externalapi

// BlockInsertionResult is auxiliary data returned from a successful block
// submission. Delta is the UTXO change made by the submitted block itself.
type BlockInsertionResult struct {
	BlockHash *DomainHash
	Delta     *UTXODelta

	// Set only when the submission switched the best chain to another branch.
	Reorg *ReorgInfo
}

// ReorgInfo describes a best chain switch. Both lists are ordered by the
// order in which the blocks were processed.
type ReorgInfo struct {
	Disconnected []*DomainHash
	Connected    []*DomainHash
}
