package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// TryReplace applies the longest valid chain rule against a chain reported
// by a peer. The candidate is adopted only when it is longer than the local
// chain, every record reconstructs to a block carrying the hash it claims,
// it starts from our genesis block and it passes the full audit. Any failure
// rejects the whole candidate and the local chain is left untouched. This
// function never fails loudly, a bad peer can only cause a false return.
func (s *State) TryReplace(candidate []database.BlockData) (replaced bool) {
	s.evHandler("state: TryReplace: started: candidate-len[%d]", len(candidate))
	defer func() {
		if r := recover(); r != nil {
			s.evHandler("state: TryReplace: REJECTED: panic: %v", r)
			replaced = false
		}
		s.evHandler("state: TryReplace: completed: replaced[%t]", replaced)
	}()

	if len(candidate) <= s.Length() {
		s.evHandler("state: TryReplace: REJECTED: candidate is not longer: candidate-len[%d]: local-len[%d]", len(candidate), s.Length())
		return false
	}

	// Reconstruct every block from its record. A single record that doesn't
	// carry the hash of its own fields invalidates the entire candidate.
	blocks := make([]database.Block, len(candidate))
	for i, blockData := range candidate {
		block, err := database.ToBlock(blockData)
		if err != nil {
			s.evHandler("state: TryReplace: REJECTED: %s", err)
			return false
		}
		blocks[i] = block
	}

	if err := ValidateBlocks(blocks, s.genesis.Difficulty, s.evHandler); err != nil {
		s.evHandler("state: TryReplace: REJECTED: %s", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The chain could have grown while the candidate was being audited.
	if len(blocks) <= len(s.blocks) {
		s.evHandler("state: TryReplace: REJECTED: local chain grew: candidate-len[%d]: local-len[%d]", len(blocks), len(s.blocks))
		return false
	}

	if len(s.blocks) > 0 && blocks[0].Hash() != s.blocks[0].Hash() {
		s.evHandler("state: TryReplace: REJECTED: genesis mismatch: got[%s]: exp[%s]", blocks[0].Hash(), s.blocks[0].Hash())
		return false
	}

	s.blocks = blocks

	s.evHandler("state: TryReplace: ADOPTED: len[%d]: latest-blk[%s]", len(blocks), blocks[len(blocks)-1].Hash())
	s.blockEvent(blocks[len(blocks)-1])

	return true
}
