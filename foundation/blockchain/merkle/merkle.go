// Package merkle provides an implementation of a merkle tree for validation
// support for the blockchain. The tree is built over hex encoded digests: a
// parent is the digest of the concatenation of its children's hex strings,
// and an odd level duplicates its last node before pairing.
package merkle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
)

// EmptyRoot is the root reported for a tree with no values.
const EmptyRoot = ""

// Proof order markers. ProofLeft says the proof hash is concatenated first,
// ProofRight says it is concatenated second.
const (
	ProofLeft  int64 = 0
	ProofRight int64 = 1
)

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() (string, error)
	Equals(other T) bool
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Root         *Node[T]
	Leafs        []*Node[T]
	MerkleRoot   string
	hashStrategy func(data string) string
}

// WithHashStrategy is used to change the default hash strategy of using
// digest.HashString when constructing a new tree.
func WithHashStrategy[T Hashable[T]](hashStrategy func(data string) string) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	t := Tree[T]{
		hashStrategy: digest.HashString,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate constructs the leafs and nodes of the tree from the specified
// data. If the tree has been generated previously, the tree is re-generated
// from scratch. No values produces an empty tree with the EmptyRoot.
func (t *Tree[T]) Generate(values []T) error {
	t.Root = nil
	t.Leafs = nil
	t.MerkleRoot = EmptyRoot

	if len(values) == 0 {
		return nil
	}

	leafs := make([]*Node[T], 0, len(values))
	for _, value := range values {
		hash, err := value.Hash()
		if err != nil {
			return err
		}

		leafs = append(leafs, &Node[T]{
			Hash:  hash,
			Value: value,
			leaf:  true,
			Tree:  t,
		})
	}

	// A single value is its own root.
	root := leafs[0]
	if len(leafs) > 1 {
		root = buildIntermediate(leafs, t)
	}

	t.Root = root
	t.Leafs = leafs
	t.MerkleRoot = root.Hash

	return nil
}

// Rebuild is a helper function that will rebuild the tree reusing only the
// data that it currently holds in the leaves.
func (t *Tree[T]) Rebuild() error {
	return t.Generate(t.Values())
}

// Clone returns a deep copy of the tree that shares no nodes with the
// original. Nothing is rehashed so cloning can't fail.
func (t *Tree[T]) Clone() *Tree[T] {
	if t == nil {
		return nil
	}

	c := Tree[T]{
		MerkleRoot:   t.MerkleRoot,
		hashStrategy: t.hashStrategy,
	}

	// A duplicated node on an odd level is referenced twice by its parent,
	// the copy must keep that shape.
	copied := make(map[*Node[T]]*Node[T])

	var cp func(n *Node[T]) *Node[T]
	cp = func(n *Node[T]) *Node[T] {
		if n == nil {
			return nil
		}
		if m, exists := copied[n]; exists {
			return m
		}

		m := Node[T]{
			Tree:  &c,
			Hash:  n.Hash,
			Value: n.Value,
			leaf:  n.leaf,
		}
		copied[n] = &m

		m.Left = cp(n.Left)
		m.Right = cp(n.Right)
		if m.Left != nil {
			m.Left.Parent = &m
		}
		if m.Right != nil {
			m.Right.Parent = &m
		}

		return &m
	}

	c.Root = cp(t.Root)

	if t.Leafs != nil {
		c.Leafs = make([]*Node[T], len(t.Leafs))
		for i, leaf := range t.Leafs {
			c.Leafs[i] = cp(leaf)
		}
	}

	return &c
}

// Values returns the values stored in the tree in their original order.
func (t *Tree[T]) Values() []T {
	values := make([]T, len(t.Leafs))
	for i, node := range t.Leafs {
		values[i] = node.Value
	}

	return values
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving a value is in the tree.
//
// Starting with the value's hash, for each proof entry:
//
//	order 0: hash = digest(proof[i] ++ hash)
//	order 1: hash = digest(hash ++ proof[i])
//
// The final hash should match the merkle root.
func (t *Tree[T]) Proof(data T) ([]string, []int64, error) {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		var merkleProof []string
		var order []int64
		nodeParent := node.Parent

		for nodeParent != nil {
			if nodeParent.Left == node {
				merkleProof = append(merkleProof, nodeParent.Right.Hash)
				order = append(order, ProofRight)
			} else {
				merkleProof = append(merkleProof, nodeParent.Left.Hash)
				order = append(order, ProofLeft)
			}
			node = nodeParent
			nodeParent = nodeParent.Parent
		}

		return merkleProof, order, nil
	}

	return nil, nil, errors.New("unable to find data in tree")
}

// Verify validates the hashes at each level of the tree and returns an
// error if the resulting hash at the root does not match the merkle root.
func (t *Tree[T]) Verify() error {
	if t.Root == nil {
		if t.MerkleRoot != EmptyRoot {
			return errors.New("empty tree with a merkle root")
		}
		return nil
	}

	calculatedMerkleRoot, err := t.Root.verify()
	if err != nil {
		return err
	}

	if t.MerkleRoot != calculatedMerkleRoot {
		return fmt.Errorf("root hash invalid, got %s, exp %s", calculatedMerkleRoot, t.MerkleRoot)
	}

	return nil
}

// String returns a string representation of the tree. Only leaf nodes are
// included in the output.
func (t *Tree[T]) String() string {
	var sb strings.Builder
	for _, l := range t.Leafs {
		sb.WriteString(l.String())
		sb.WriteString("\n")
	}

	return sb.String()
}

// =============================================================================

// Node represents a node, root, or leaf in the tree. It stores pointers to its
// immediate relationships, a hash, the data if it is a leaf, and other metadata.
type Node[T Hashable[T]] struct {
	Tree   *Tree[T]
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   string
	Value  T
	leaf   bool
}

// verify walks down the tree until hitting a leaf, calculating the hash at
// each level and returning the resulting hash of the node.
func (n *Node[T]) verify() (string, error) {
	if n.leaf {
		return n.Value.Hash()
	}

	leftHash, err := n.Left.verify()
	if err != nil {
		return "", err
	}

	rightHash, err := n.Right.verify()
	if err != nil {
		return "", err
	}

	return n.Tree.hashStrategy(leftHash + rightHash), nil
}

// String returns a string representation of the node.
func (n *Node[T]) String() string {
	return fmt.Sprintf("%t %s %v", n.leaf, n.Hash, n.Value)
}

// =============================================================================

// buildIntermediate is a helper function that for a given list of nodes,
// constructs the next level of the tree until a single root remains. An odd
// level pairs its last node with itself.
func buildIntermediate[T Hashable[T]](nl []*Node[T], t *Tree[T]) *Node[T] {
	nodes := make([]*Node[T], 0, (len(nl)+1)/2)

	for i := 0; i < len(nl); i += 2 {
		left, right := i, i+1
		if right == len(nl) {
			right = i
		}

		n := Node[T]{
			Left:  nl[left],
			Right: nl[right],
			Hash:  t.hashStrategy(nl[left].Hash + nl[right].Hash),
			Tree:  t,
		}

		nodes = append(nodes, &n)
		nl[left].Parent = &n
		nl[right].Parent = &n
	}

	if len(nodes) == 1 {
		return nodes[0]
	}

	return buildIntermediate(nodes, t)
}
