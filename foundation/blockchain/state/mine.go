package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// errTipChanged is returned when the chain moved while a block was mined.
var errTipChanged = errors.New("chain tip changed while mining")

// =============================================================================

// SubmitTransactions constructs the next block for the specified
// transactions, mines it and appends it to the chain. Mining happens outside
// the lock so readers are not blocked. If the chain is replaced while mining,
// the candidate is discarded and the work starts over on the new tip. The
// context can be used to put a time limit on the work.
func (s *State) SubmitTransactions(ctx context.Context, trans []string) (database.Block, error) {
	s.evHandler("state: SubmitTransactions: started: trans[%d]", len(trans))
	defer s.evHandler("state: SubmitTransactions: completed")

	for {
		latestBlock, err := s.latestBlock()
		if err != nil {
			return database.Block{}, err
		}

		block, err := database.NewBlock(latestBlock.Header.Index+1, trans, latestBlock.Hash(), s.genesis.Difficulty)
		if err != nil {
			return database.Block{}, err
		}

		s.evHandler("state: SubmitTransactions: MINING: perform POW: blk[%d]", block.Header.Index)

		if err := block.Mine(ctx, database.EventHandler(s.evHandler)); err != nil {
			return database.Block{}, err
		}

		err = s.appendBlock(block)
		switch {
		case errors.Is(err, errTipChanged):
			s.evHandler("state: SubmitTransactions: MINING: chain changed, discarding blk[%s]", block.Hash())
			continue

		case err != nil:
			return database.Block{}, err
		}

		return block.Clone(), nil
	}
}

// =============================================================================

// latestBlock returns the current tip of the chain.
func (s *State) latestBlock() (database.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.blocks) == 0 {
		return database.Block{}, ErrEmptyChain
	}

	return s.blocks[len(s.blocks)-1], nil
}

// appendBlock validates the mined block against the current tip and adds it
// to the chain.
func (s *State) appendBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.blocks) == 0 {
		return ErrEmptyChain
	}

	latestBlock := s.blocks[len(s.blocks)-1]
	if block.Header.PrevBlockHash != latestBlock.Hash() || block.Header.Index != latestBlock.Header.Index+1 {
		return errTipChanged
	}

	s.evHandler("state: appendBlock: validate block")

	if err := block.ValidateBlock(latestBlock, s.genesis.Difficulty, database.EventHandler(s.evHandler)); err != nil {
		return fmt.Errorf("%w: %s", ErrChainInvalid, err)
	}

	s.blocks = append(s.blocks, block)

	// Send an event about this new block.
	s.blockEvent(block)

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(database.NewBlockData(block))
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: %s`, string(blockJSON))
}
