package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ardanlabs/powledger/foundation/blockchain/merkle"
)

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Index         uint64 `json:"index"`         // Position of the block in the chain, genesis is 0.
	TimeStamp     uint64 `json:"timestamp"`     // Time the block was constructed.
	PrevBlockHash string `json:"previous_hash"` // Hash of the previous block in the chain.
	Difficulty    uint   `json:"difficulty"`    // Number of 0's needed to solve the hash solution.
	Nonce         uint64 `json:"nonce"`         // Value identified to solve the hash solution.
	MerkleRoot    string `json:"merkle_root"`   // Merkle tree root hash for the transactions in this block.
}

// Block represents a group of transactions batched together. The hash is
// sealed when the block is constructed and resealed on every nonce change
// while mining. Once mined a block is finalized and can't be mined again.
type Block struct {
	Header BlockHeader
	Trans  *merkle.Tree[BlockTx]
	hash   string
	mined  bool
}

// NewBlock constructs a block for the specified position in the chain. The
// timestamp is recorded now, the nonce starts at zero and the hash is
// calculated from the resulting fields.
func NewBlock(index uint64, trans []string, prevBlockHash string, difficulty uint) (Block, error) {
	return newBlock(index, uint64(time.Now().UTC().Unix()), trans, prevBlockHash, difficulty)
}

// NewGenesis constructs the first block of a chain. It takes a fixed
// timestamp so every replica configured the same way shares the same
// genesis hash. The genesis block is exempt from proof of work and is
// finalized on construction.
func NewGenesis(timeStamp uint64, trans []string, difficulty uint) (Block, error) {
	b, err := newBlock(0, timeStamp, trans, GenesisPrevHash, difficulty)
	if err != nil {
		return Block{}, err
	}
	b.mined = true

	return b, nil
}

// newBlock performs the construction shared by regular and genesis blocks.
func newBlock(index uint64, timeStamp uint64, trans []string, prevBlockHash string, difficulty uint) (Block, error) {
	if difficulty > digest.Size {
		return Block{}, fmt.Errorf("%w: %d", ErrInvalidDifficulty, difficulty)
	}

	// Construct a merkle tree from the transaction for this block. The root
	// of this tree will be part of the block to be mined.
	tree, err := merkle.NewTree(toBlockTxs(trans))
	if err != nil {
		return Block{}, err
	}

	b := Block{
		Header: BlockHeader{
			Index:         index,
			TimeStamp:     timeStamp,
			PrevBlockHash: prevBlockHash,
			Difficulty:    difficulty,
			Nonce:         0,
			MerkleRoot:    tree.MerkleRoot,
		},
		Trans: tree,
	}

	hash, err := b.CalculateHash()
	if err != nil {
		return Block{}, err
	}
	b.hash = hash

	return b, nil
}

// Mine does the work of finding a nonce that produces a hash with the
// required number of leading zeros. Pointer semantics are being used since
// the nonce and hash are being discovered. A block that already satisfies
// its difficulty is left untouched. The context is the only way to stop an
// active search and a cancelled block must be discarded.
func (b *Block) Mine(ctx context.Context, ev EventHandler) error {
	if ev == nil {
		ev = noEvents
	}

	if b.mined {
		return ErrAlreadyMined
	}

	if b.Header.Difficulty > digest.Size {
		return fmt.Errorf("%w: %d", ErrInvalidDifficulty, b.Header.Difficulty)
	}

	ev("database: Mine: MINING: started: blk[%d]: difficulty[%d]", b.Header.Index, b.Header.Difficulty)
	defer ev("database: Mine: MINING: completed: blk[%d]", b.Header.Index)

	var attempts uint64
	for !digest.IsSolved(b.hash, b.Header.Difficulty) {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: Mine: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if err := ctx.Err(); err != nil {
			ev("database: Mine: MINING: CANCELLED: attempts[%d]", attempts)
			return err
		}

		b.Header.Nonce++

		hash, err := b.CalculateHash()
		if err != nil {
			return err
		}
		b.hash = hash
	}

	ev("database: Mine: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%d]: attempts[%d]", b.Header.PrevBlockHash, b.hash, b.Header.Nonce, attempts)

	b.mined = true
	return nil
}

// Hash returns the hash sealed into the block.
func (b Block) Hash() string {
	return b.hash
}

// IsMined reports whether the block has been finalized.
func (b Block) IsMined() bool {
	return b.mined
}

// Transactions returns a copy of the transactions in the block.
func (b Block) Transactions() []string {
	if b.Trans == nil {
		return []string{}
	}

	return fromBlockTxs(b.Trans.Values())
}

// Proof returns the merkle inclusion proof for the specified transaction.
func (b Block) Proof(tx string) ([]string, []int64, error) {
	if b.Trans == nil {
		return nil, nil, fmt.Errorf("block %d has no transactions", b.Header.Index)
	}

	return b.Trans.Proof(BlockTx(tx))
}

// CalculateHash returns the digest of the canonical serialization of the
// block: index, timestamp, transactions, previous hash, nonce and merkle
// root, in that order.
func (b Block) CalculateHash() (string, error) {
	canonical := struct {
		Index         uint64   `json:"index"`
		TimeStamp     uint64   `json:"timestamp"`
		Trans         []string `json:"transactions"`
		PrevBlockHash string   `json:"previous_hash"`
		Nonce         uint64   `json:"nonce"`
		MerkleRoot    string   `json:"merkle_root"`
	}{
		Index:         b.Header.Index,
		TimeStamp:     b.Header.TimeStamp,
		Trans:         b.Transactions(),
		PrevBlockHash: b.Header.PrevBlockHash,
		Nonce:         b.Header.Nonce,
		MerkleRoot:    b.Header.MerkleRoot,
	}

	for _, tx := range canonical.Trans {
		if _, err := BlockTx(tx).Hash(); err != nil {
			return "", err
		}
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidTransactionEncoding, err)
	}

	return digest.Hash(data), nil
}

// CalculateMerkleRoot recomputes the merkle root from the transactions
// currently held by the block.
func (b Block) CalculateMerkleRoot() (string, error) {
	hashes := make([]string, 0)
	for _, tx := range b.Transactions() {
		hash, err := BlockTx(tx).Hash()
		if err != nil {
			return "", err
		}
		hashes = append(hashes, hash)
	}

	return merkle.Root(hashes), nil
}

// Clone returns a copy of the block that shares no memory with the original.
func (b Block) Clone() Block {
	b.Trans = b.Trans.Clone()
	return b
}

// =============================================================================

// ValidateGenesis checks the block can serve as the first block of a chain.
// Genesis is exempt from proof of work and linkage but must be internally
// consistent.
func (b Block) ValidateGenesis(ev EventHandler) error {
	if ev == nil {
		ev = noEvents
	}

	ev("database: ValidateGenesis: validate: blk[%d]: check: block is the genesis block", b.Header.Index)

	if b.Header.Index != 0 {
		return fmt.Errorf("genesis block has index %d", b.Header.Index)
	}

	return b.validateSeal(ev)
}

// ValidateBlock takes a block and validates it to be the block that follows
// the previous block in a chain mined at the specified difficulty.
func (b Block) ValidateBlock(previousBlock Block, difficulty uint, ev EventHandler) error {
	if ev == nil {
		ev = noEvents
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: block index is the next index", b.Header.Index)

	nextIndex := previousBlock.Header.Index + 1
	if b.Header.Index != nextIndex {
		return fmt.Errorf("this block is not the next index, got %d, exp %d", b.Header.Index, nextIndex)
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: block difficulty is the chain difficulty", b.Header.Index)

	if b.Header.Difficulty != difficulty {
		return fmt.Errorf("block difficulty doesn't match the chain, got %d, exp %d", b.Header.Difficulty, difficulty)
	}

	if err := b.validateSeal(ev); err != nil {
		return err
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Index)

	if b.Header.PrevBlockHash != previousBlock.Hash() {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.Header.PrevBlockHash, previousBlock.Hash())
	}

	ev("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Header.Index)

	if !digest.IsSolved(b.hash, difficulty) {
		return fmt.Errorf("%s invalid block hash for difficulty %d", b.hash, difficulty)
	}

	return nil
}

// validateSeal checks the sealed hash and merkle root still match the
// contents of the block.
func (b Block) validateSeal(ev EventHandler) error {
	ev("database: validateSeal: validate: blk[%d]: check: block hash does match block fields", b.Header.Index)

	hash, err := b.CalculateHash()
	if err != nil {
		return err
	}

	if b.hash != hash {
		return fmt.Errorf("block hash doesn't match block fields, got %s, exp %s", b.hash, hash)
	}

	ev("database: validateSeal: validate: blk[%d]: check: merkle root does match transactions", b.Header.Index)

	root, err := b.CalculateMerkleRoot()
	if err != nil {
		return err
	}

	if b.Header.MerkleRoot != root {
		return fmt.Errorf("merkle root does not match transactions, got %s, exp %s", root, b.Header.MerkleRoot)
	}

	return nil
}
