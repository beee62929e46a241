package state

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
)

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis.Clone()
}

// RetrieveGenesisBlock returns a copy of the first block of the chain.
func (s *State) RetrieveGenesisBlock() (database.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.blocks) == 0 {
		return database.Block{}, ErrEmptyChain
	}

	return s.blocks[0].Clone(), nil
}

// Difficulty returns the difficulty every block of the chain is mined at.
func (s *State) Difficulty() uint {
	return s.genesis.Difficulty
}

// Length returns the number of blocks in the chain, genesis included.
func (s *State) Length() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.blocks)
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() (database.Block, error) {
	block, err := s.latestBlock()
	if err != nil {
		return database.Block{}, err
	}

	return block.Clone(), nil
}

// Snapshot returns the chain as an ordered set of block records. This is
// the shape handed to peers for comparison.
func (s *State) Snapshot() []database.BlockData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]database.BlockData, len(s.blocks))
	for i, block := range s.blocks {
		out[i] = database.NewBlockData(block)
	}

	return out
}

// QueryBlock returns a copy of the block at the specified index.
func (s *State) QueryBlock(index uint64) (database.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index >= uint64(len(s.blocks)) {
		return database.Block{}, fmt.Errorf("block %d does not exist, chain length %d", index, len(s.blocks))
	}

	return s.blocks[index].Clone(), nil
}

// QueryProof returns the merkle inclusion proof for a transaction recorded
// in the block at the specified index along with the block's merkle root.
func (s *State) QueryProof(index uint64, tx string) (root string, proof []string, order []int64, err error) {
	block, err := s.QueryBlock(index)
	if err != nil {
		return "", nil, nil, err
	}

	proof, order, err = block.Proof(tx)
	if err != nil {
		return "", nil, nil, fmt.Errorf("transaction not found in block %d: %w", index, err)
	}

	return block.Header.MerkleRoot, proof, order, nil
}
