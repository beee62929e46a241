package state

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// ValidateBlocks performs the full structural and cryptographic audit of a
// sequence of blocks mined at the specified difficulty. The first violation
// found is returned wrapped with ErrChainInvalid.
func ValidateBlocks(blocks []database.Block, difficulty uint, ev EventHandler) error {
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	if len(blocks) == 0 {
		return fmt.Errorf("%w: %w", ErrChainInvalid, ErrEmptyChain)
	}

	if err := blocks[0].ValidateGenesis(database.EventHandler(ev)); err != nil {
		return fmt.Errorf("%w: blk[0]: %s", ErrChainInvalid, err)
	}

	if blocks[0].Header.Difficulty != difficulty {
		return fmt.Errorf("%w: genesis difficulty %d, exp %d", ErrChainInvalid, blocks[0].Header.Difficulty, difficulty)
	}

	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].ValidateBlock(blocks[i-1], difficulty, database.EventHandler(ev)); err != nil {
			return fmt.Errorf("%w: blk[%d]: %s", ErrChainInvalid, i, err)
		}
	}

	return nil
}

// IsValid reports whether the local chain passes the full audit.
func (s *State) IsValid() bool {
	return s.Validate() == nil
}

// Validate performs the full audit of the local chain.
func (s *State) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ValidateBlocks(s.blocks, s.genesis.Difficulty, s.evHandler)
}
