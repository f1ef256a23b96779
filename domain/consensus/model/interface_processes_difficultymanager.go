package model

import "github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"

// DifficultyManager provides a method to resolve the
// difficulty value of a block
type DifficultyManager interface {
	// RequiredDifficulty returns the bits a block at height must carry,
	// given the branch of headers leading to its parent.
	RequiredDifficulty(chain HeaderChain, height uint64) (uint32, error)
}

// HeaderChain gives access to the headers of a single branch by height.
type HeaderChain interface {
	HeaderAtHeight(height uint64) (*externalapi.DomainBlockHeader, error)
}
