// Package state is the core API for the ledger. It owns the chain of blocks,
// appends newly mined blocks and decides when a chain reported by a peer
// replaces the local one.
package state

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
)

// Set of error variables for chain operations.
var (
	ErrEmptyChain   = errors.New("chain has no blocks")
	ErrChainInvalid = errors.New("chain is invalid")
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the chain.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the chain.
type Config struct {
	Genesis   genesis.Genesis
	EvHandler EventHandler
}

// State manages the chain of blocks. Appends and replacements hold the
// write lock, everything else reads under the read lock.
type State struct {
	mu        sync.RWMutex
	genesis   genesis.Genesis
	evHandler EventHandler
	blocks    []database.Block
}

// New constructs a chain holding only the genesis block built from the
// genesis parameters. The difficulty is fixed for the life of the chain.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Genesis.Difficulty > digest.Size {
		return nil, fmt.Errorf("%w: %d", database.ErrInvalidDifficulty, cfg.Genesis.Difficulty)
	}

	gen := cfg.Genesis.Clone()
	if len(gen.Transactions) == 0 {
		gen.Transactions = slices.Clone(genesis.DefaultTransactions)
	}

	genesisBlock, err := database.NewGenesis(gen.TimeStamp(), gen.Transactions, gen.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("constructing genesis block: %w", err)
	}

	ev("state: New: genesis: blk[%s]: difficulty[%d]", genesisBlock.Hash(), cfg.Genesis.Difficulty)

	state := State{
		genesis:   gen,
		evHandler: ev,
		blocks:    []database.Block{genesisBlock},
	}

	return &state, nil
}

// NewWithDifficulty constructs a chain using the default genesis parameters
// for the specified difficulty.
func NewWithDifficulty(difficulty uint, ev EventHandler) (*State, error) {
	return New(Config{
		Genesis:   genesis.New(difficulty),
		EvHandler: ev,
	})
}
