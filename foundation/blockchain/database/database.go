// Package database handles the lower level support for the ledger: the
// block, its cryptographic linkage, the proof of work search and the record
// shape blocks take when they leave the node.
package database

import "errors"

// Set of error variables for block construction, mining and reconstruction.
var (
	ErrInvalidTransactionEncoding = errors.New("transaction can't be canonically encoded")
	ErrAlreadyMined               = errors.New("block already mined")
	ErrMalformedCandidateBlock    = errors.New("malformed candidate block")
	ErrInvalidDifficulty          = errors.New("difficulty exceeds the digest size")
)

// GenesisPrevHash is the previous hash recorded in the genesis block.
const GenesisPrevHash = "0"

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// noEvents is used when the caller doesn't provide an event handler.
func noEvents(v string, args ...any) {}
