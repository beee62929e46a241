package database

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate holds the schema rules for block records received from peers.
var validate = validator.New(validator.WithRequiredStructEnabled())

// BlockData represents the plain record shape of a block. It is what the
// node hands to peers and what it accepts from them when comparing chains.
type BlockData struct {
	Index        uint64   `json:"index"`
	TimeStamp    uint64   `json:"timestamp"`
	Transactions []string `json:"transactions" validate:"required"`
	PrevHash     string   `json:"previous_hash" validate:"required"`
	MerkleRoot   string   `json:"merkle_root" validate:"omitempty,len=64,hexadecimal"`
	Nonce        uint64   `json:"nonce"`
	Hash         string   `json:"hash" validate:"required,len=64,hexadecimal"`
	Difficulty   uint     `json:"difficulty" validate:"lte=64"`
}

// NewBlockData constructs the record for the specified block.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Index:        block.Header.Index,
		TimeStamp:    block.Header.TimeStamp,
		Transactions: block.Transactions(),
		PrevHash:     block.Header.PrevBlockHash,
		MerkleRoot:   block.Header.MerkleRoot,
		Nonce:        block.Header.Nonce,
		Hash:         block.Hash(),
		Difficulty:   block.Header.Difficulty,
	}
}

// ToBlock reconstructs a block from its record. The record must pass the
// schema rules and the hash recomputed from its fields must equal the hash
// it claims, otherwise ErrMalformedCandidateBlock is returned. The merkle
// root is taken as claimed and checked later by block validation.
func ToBlock(blockData BlockData) (Block, error) {
	if err := validate.Struct(blockData); err != nil {
		return Block{}, fmt.Errorf("%w: blk[%d]: %s", ErrMalformedCandidateBlock, blockData.Index, err)
	}

	block, err := newBlock(blockData.Index, blockData.TimeStamp, blockData.Transactions, blockData.PrevHash, blockData.Difficulty)
	if err != nil {
		return Block{}, fmt.Errorf("%w: blk[%d]: %s", ErrMalformedCandidateBlock, blockData.Index, err)
	}

	block.Header.Nonce = blockData.Nonce
	block.Header.MerkleRoot = blockData.MerkleRoot

	hash, err := block.CalculateHash()
	if err != nil {
		return Block{}, fmt.Errorf("%w: blk[%d]: %s", ErrMalformedCandidateBlock, blockData.Index, err)
	}

	if hash != blockData.Hash {
		return Block{}, fmt.Errorf("%w: blk[%d]: hash mismatch, got %s, exp %s", ErrMalformedCandidateBlock, blockData.Index, blockData.Hash, hash)
	}

	block.hash = hash
	block.mined = true

	return block, nil
}
