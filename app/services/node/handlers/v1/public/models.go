package public

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// submitRequest is the payload for submitting transactions to be mined
// into the next block.
type submitRequest struct {
	Transactions []string `json:"transactions" validate:"required,min=1"`
}

type validity struct {
	Valid  bool `json:"valid"`
	Length int  `json:"length"`
}

type proof struct {
	Index       uint64   `json:"index"`
	Transaction string   `json:"transaction"`
	LeafHash    string   `json:"leaf_hash"`
	MerkleRoot  string   `json:"merkle_root"`
	Proof       []string `json:"proof"`
	Order       []int64  `json:"order"`
	Verified    bool     `json:"verified"`
}

type submitResponse struct {
	Block database.BlockData `json:"block"`
}
