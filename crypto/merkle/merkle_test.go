package merkle

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func addrs(n int) []common.Address {
	out := make([]common.Address, n)
	for i := range out {
		out[i] = common.BigToAddress(common.Big1)
		out[i][0] = byte(i + 1)
		out[i][19] = byte(0xa0 + i)
	}
	return out
}

func TestTreeVerifiesEveryMember(t *testing.T) {
	for _, size := range []int{1, 2, 3, 4, 5, 7, 8, 13} {
		members := addrs(size)
		tree := NewTree(members)
		root := tree.Root()
		require.Equal(t, size, tree.Len())
		for _, member := range members {
			proof, ok := tree.Proof(member)
			require.True(t, ok)
			require.True(t, Verify(root, member, proof), "size %d member %s", size, member.Hex())
		}
	}
}

func TestVerifyRejectsNonMembers(t *testing.T) {
	members := addrs(4)
	tree := NewTree(members)
	root := tree.Root()
	outsider := common.HexToAddress("0x00000000000000000000000000000000000000ff")

	require.False(t, tree.Contains(outsider))
	_, ok := tree.Proof(outsider)
	require.False(t, ok)

	for _, member := range members {
		proof, _ := tree.Proof(member)
		require.False(t, Verify(root, outsider, proof))
	}
	require.False(t, Verify(root, outsider, nil))
}

func TestVerifyRejectsTruncatedProof(t *testing.T) {
	members := addrs(4)
	tree := NewTree(members)
	proof, ok := tree.Proof(members[2])
	require.True(t, ok)
	require.Len(t, proof, 2)

	require.False(t, Verify(tree.Root(), members[2], proof[:1]))
	require.False(t, Verify(tree.Root(), members[2], nil))
}

func TestSingleMemberUsesEmptyProof(t *testing.T) {
	member := addrs(1)[0]
	tree := NewTree([]common.Address{member})
	require.Equal(t, Leaf(member), tree.Root())

	proof, ok := tree.Proof(member)
	require.True(t, ok)
	require.Empty(t, proof)
	require.True(t, Verify(tree.Root(), member, proof))
}

func TestEmptyTreeVerifiesNothing(t *testing.T) {
	tree := NewTree(nil)
	require.Equal(t, common.Hash{}, tree.Root())
	require.False(t, Verify(tree.Root(), addrs(1)[0], nil))
}

func TestTwoLeafRootMatchesSortedPairHash(t *testing.T) {
	members := addrs(2)
	a := ethcrypto.Keccak256Hash(members[0].Bytes())
	b := ethcrypto.Keccak256Hash(members[1].Bytes())
	require.Equal(t, HashPair(a, b), NewTree(members).Root())
	require.Equal(t, HashPair(a, b), HashPair(b, a))
}

func TestOddNodeIsPromoted(t *testing.T) {
	members := addrs(3)
	tree := NewTree(members)
	l0, l1, l2 := Leaf(members[0]), Leaf(members[1]), Leaf(members[2])
	require.Equal(t, HashPair(HashPair(l0, l1), l2), tree.Root())

	proof, ok := tree.Proof(members[2])
	require.True(t, ok)
	require.Equal(t, []common.Hash{HashPair(l0, l1)}, proof)
}
