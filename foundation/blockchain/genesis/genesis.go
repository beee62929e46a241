// Package genesis maintains access to the genesis file. Every replica of a
// ledger must load the same genesis parameters to share a genesis block.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"
)

// DefaultTransactions is recorded in the genesis block when the genesis
// file doesn't specify any.
var DefaultTransactions = []string{"Genesis Block"}

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time `json:"date"`         // Recorded as the genesis block timestamp.
	Difficulty   uint      `json:"difficulty"`   // How difficult it needs to be to solve the work problem.
	Transactions []string  `json:"transactions"` // Payloads recorded in the genesis block.
}

// New constructs genesis parameters for the specified difficulty with a
// zero date and the default transactions.
func New(difficulty uint) Genesis {
	return Genesis{
		Difficulty:   difficulty,
		Transactions: slices.Clone(DefaultTransactions),
	}
}

// TimeStamp returns the genesis date as unix seconds, zero when unset.
func (g Genesis) TimeStamp() uint64 {
	if g.Date.IsZero() || g.Date.Unix() < 0 {
		return 0
	}

	return uint64(g.Date.Unix())
}

// Clone returns a copy of the genesis parameters that shares no memory
// with the original.
func (g Genesis) Clone() Genesis {
	g.Transactions = slices.Clone(g.Transactions)
	return g
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis file %s: %w", path, err)
	}

	if len(genesis.Transactions) == 0 {
		genesis.Transactions = slices.Clone(DefaultTransactions)
	}

	return genesis, nil
}
