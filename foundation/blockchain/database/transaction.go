package database

import (
	"fmt"
	"unicode/utf8"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
)

// BlockTx represents one opaque transaction payload recorded in a block.
// The ledger does not interpret the payload, it only hashes it.
type BlockTx string

// Hash implements the merkle Hashable interface. A payload that is not valid
// UTF-8 can't be canonically encoded and is rejected.
func (tx BlockTx) Hash() (string, error) {
	if !utf8.ValidString(string(tx)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionEncoding, string(tx))
	}

	return digest.HashString(string(tx)), nil
}

// Equals implements the merkle Hashable interface.
func (tx BlockTx) Equals(otherTx BlockTx) bool {
	return tx == otherTx
}

// String implements the Stringer interface for logging.
func (tx BlockTx) String() string {
	return string(tx)
}

// =============================================================================

// toBlockTxs converts the caller provided payloads into block transactions.
func toBlockTxs(trans []string) []BlockTx {
	txs := make([]BlockTx, len(trans))
	for i, tx := range trans {
		txs[i] = BlockTx(tx)
	}

	return txs
}

// fromBlockTxs converts block transactions back into plain payloads.
func fromBlockTxs(txs []BlockTx) []string {
	trans := make([]string, len(txs))
	for i, tx := range txs {
		trans[i] = string(tx)
	}

	return trans
}
