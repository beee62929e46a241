package merkle

import "github.com/ardanlabs/powledger/foundation/blockchain/digest"

// leaf is a digest that is already hashed and is used as is in the tree.
type leaf string

// Hash implements the Hashable interface.
func (l leaf) Hash() (string, error) {
	return string(l), nil
}

// Equals implements the Hashable interface.
func (l leaf) Equals(other leaf) bool {
	return l == other
}

// =============================================================================

// Root reduces an ordered set of digests to the merkle root. No digests
// returns EmptyRoot and a single digest is returned unchanged.
func Root(hashes []string) string {
	leafs := make([]leaf, len(hashes))
	for i, hash := range hashes {
		leafs[i] = leaf(hash)
	}

	// A leaf never fails to hash so the tree can't fail to build.
	tree, err := NewTree(leafs)
	if err != nil {
		return EmptyRoot
	}

	return tree.MerkleRoot
}

// VerifyProof replays a proof produced by Tree.Proof for the specified leaf
// hash and reports if it arrives at the specified root.
func VerifyProof(root string, leafHash string, proof []string, order []int64) bool {
	if len(proof) != len(order) {
		return false
	}

	hash := leafHash
	for i, p := range proof {
		switch order[i] {
		case ProofLeft:
			hash = digest.HashString(p + hash)
		case ProofRight:
			hash = digest.HashString(hash + p)
		default:
			return false
		}
	}

	return hash == root
}
