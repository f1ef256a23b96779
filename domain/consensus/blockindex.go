package consensus

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
	"github.com/sedlynet/sedlyd/infrastructure/db/database"
)

const noParent = -1

// blockNode is the in-memory index record of a stored block. parent is the
// arena position of the parent node, or noParent for genesis.
type blockNode struct {
	hash           externalapi.DomainHash
	header         *externalapi.DomainBlockHeader
	parent         int
	cumulativeWork *big.Int
	status         externalapi.BlockStatus
}

// blockIndex is an arena of every stored block. Nodes are never removed, so
// arena positions stay valid for the lifetime of the index.
type blockIndex struct {
	nodes  []blockNode
	byHash map[externalapi.DomainHash]int
}

func newBlockIndex() *blockIndex {
	return &blockIndex{
		byHash: make(map[externalapi.DomainHash]int),
	}
}

// add appends a node whose parent is already indexed, or which is genesis.
func (bi *blockIndex) add(hash *externalapi.DomainHash, header *externalapi.DomainBlockHeader,
	cumulativeWork *big.Int, status externalapi.BlockStatus) int {

	parent := noParent
	if header.Height > 0 {
		parent = bi.byHash[header.PreviousBlockHash]
	}
	bi.nodes = append(bi.nodes, blockNode{
		hash:           *hash,
		header:         header,
		parent:         parent,
		cumulativeWork: cumulativeWork,
		status:         status,
	})
	position := len(bi.nodes) - 1
	bi.byHash[*hash] = position
	return position
}

// lookup returns the arena position of hash.
func (bi *blockIndex) lookup(hash *externalapi.DomainHash) (int, bool) {
	position, ok := bi.byHash[*hash]
	return position, ok
}

func (bi *blockIndex) node(position int) *blockNode {
	return &bi.nodes[position]
}

// ancestorAtHeight walks back from position to the node at height on the
// same branch.
func (bi *blockIndex) ancestorAtHeight(position int, height uint64) (int, bool) {
	for position != noParent && bi.nodes[position].header.Height > height {
		position = bi.nodes[position].parent
	}
	if position == noParent || bi.nodes[position].header.Height != height {
		return noParent, false
	}
	return position, true
}

// commonAncestor returns the highest node that is an ancestor of both a and b.
func (bi *blockIndex) commonAncestor(a, b int) int {
	for a != b {
		if a == noParent || b == noParent {
			return noParent
		}
		heightA := bi.nodes[a].header.Height
		heightB := bi.nodes[b].header.Height
		if heightA >= heightB {
			a = bi.nodes[a].parent
		}
		if heightB >= heightA {
			b = bi.nodes[b].parent
		}
	}
	return a
}

// path returns the nodes after ancestor up to and including position, from
// the lowest to the highest.
func (bi *blockIndex) path(ancestor, position int) []int {
	var nodes []int
	for position != ancestor && position != noParent {
		nodes = append(nodes, position)
		position = bi.nodes[position].parent
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return nodes
}

// isDescendantOf returns whether position is ancestor or lies above it on
// the same branch.
func (bi *blockIndex) isDescendantOf(position, ancestor int) bool {
	ancestorPosition, ok := bi.ancestorAtHeight(position, bi.nodes[ancestor].header.Height)
	return ok && ancestorPosition == ancestor
}

// branch returns the header chain ending at position.
func (bi *blockIndex) branch(position int) model.HeaderChain {
	return &branchHeaderChain{index: bi, tip: position}
}

type branchHeaderChain struct {
	index *blockIndex
	tip   int
}

func (c *branchHeaderChain) HeaderAtHeight(height uint64) (*externalapi.DomainBlockHeader, error) {
	position, ok := c.index.ancestorAtHeight(c.tip, height)
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "no header at height %d below %s",
			height, &c.index.nodes[c.tip].hash)
	}
	return c.index.nodes[position].header, nil
}
