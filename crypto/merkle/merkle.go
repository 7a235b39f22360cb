// Package merkle builds and verifies keccak256 Merkle allow-lists using the
// sorted-pair convention: every internal node is the hash of its two children
// in ascending byte order, so proofs carry no left/right direction bits.
package merkle

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Leaf returns the leaf value committed for an address.
func Leaf(addr common.Address) common.Hash {
	return ethcrypto.Keccak256Hash(addr.Bytes())
}

// HashPair combines two nodes in ascending order.
func HashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return ethcrypto.Keccak256Hash(a[:], b[:])
}

// Verify reports whether proof links addr to root. The zero root commits to an
// empty allow-list and verifies nothing.
func Verify(root common.Hash, addr common.Address, proof []common.Hash) bool {
	if root == (common.Hash{}) {
		return false
	}
	computed := Leaf(addr)
	for _, sibling := range proof {
		computed = HashPair(computed, sibling)
	}
	return computed == root
}

// Tree is the reference construction matching merkletreejs with sortPairs
// enabled. An odd node at the end of a layer is promoted unchanged.
type Tree struct {
	layers [][]common.Hash
	index  map[common.Address]int
}

// NewTree builds a tree over the supplied addresses in the given order.
// Duplicate addresses resolve to their first occurrence.
func NewTree(addrs []common.Address) *Tree {
	t := &Tree{index: make(map[common.Address]int, len(addrs))}
	leaves := make([]common.Hash, len(addrs))
	for i, addr := range addrs {
		leaves[i] = Leaf(addr)
		if _, ok := t.index[addr]; !ok {
			t.index[addr] = i
		}
	}
	t.layers = append(t.layers, leaves)
	for layer := leaves; len(layer) > 1; {
		next := make([]common.Hash, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 == len(layer) {
				next = append(next, layer[i])
				continue
			}
			next = append(next, HashPair(layer[i], layer[i+1]))
		}
		t.layers = append(t.layers, next)
		layer = next
	}
	return t
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	if t == nil || len(t.layers) == 0 {
		return 0
	}
	return len(t.layers[0])
}

// Root returns the tree root or the zero hash for an empty tree.
func (t *Tree) Root() common.Hash {
	if t.Len() == 0 {
		return common.Hash{}
	}
	top := t.layers[len(t.layers)-1]
	return top[0]
}

// Contains reports whether addr is one of the tree's leaves.
func (t *Tree) Contains(addr common.Address) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[addr]
	return ok
}

// Proof returns the sibling path for addr. The boolean is false when addr is
// not part of the tree.
func (t *Tree) Proof(addr common.Address) ([]common.Hash, bool) {
	if t == nil {
		return nil, false
	}
	idx, ok := t.index[addr]
	if !ok {
		return nil, false
	}
	proof := make([]common.Hash, 0, len(t.layers))
	for _, layer := range t.layers[:len(t.layers)-1] {
		pair := idx + 1
		if idx%2 == 1 {
			pair = idx - 1
		}
		if pair < len(layer) {
			proof = append(proof, layer[pair])
		}
		idx /= 2
	}
	return proof, true
}
