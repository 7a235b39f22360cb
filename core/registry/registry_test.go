package registry_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	coreerrors "nftwrapped/core/errors"
	"nftwrapped/core/registry"
	"nftwrapped/core/state"
	"nftwrapped/storage"
	"nftwrapped/storage/trie"
)

type stubContract struct {
	addr common.Address
}

func (s stubContract) Address() common.Address { return s.addr }
func (s stubContract) Kind() string             { return "stub" }

func newRegistry(t *testing.T) (*registry.Registry, *state.Manager) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	st := state.NewManager(tr)
	reg := registry.New(st)
	reg.RegisterKind("stub", func(addr common.Address) (registry.Contract, error) {
		return stubContract{addr: addr}, nil
	})
	return reg, st
}

func TestDeployUsesCreateAddresses(t *testing.T) {
	reg, st := newRegistry(t)
	deployer := common.HexToAddress("0x01")

	first, err := reg.Deploy(deployer, "stub", nil)
	require.NoError(t, err)
	second, err := reg.Deploy(deployer, "stub", nil)
	require.NoError(t, err)

	require.Equal(t, ethcrypto.CreateAddress(deployer, 0), first.Address())
	require.Equal(t, ethcrypto.CreateAddress(deployer, 1), second.Address())

	ok, err := st.IsContract(first.Address())
	require.NoError(t, err)
	require.True(t, ok)

	index, err := reg.Index()
	require.NoError(t, err)
	require.Equal(t, []registry.Entry{
		{Address: first.Address(), Kind: "stub"},
		{Address: second.Address(), Kind: "stub"},
	}, index)
}

func TestResolveRejectsNonContracts(t *testing.T) {
	reg, _ := newRegistry(t)
	deployer := common.HexToAddress("0x01")
	deployed, err := reg.Deploy(deployer, "stub", nil)
	require.NoError(t, err)

	got, err := reg.Resolve(deployed.Address())
	require.NoError(t, err)
	require.Equal(t, deployed.Address(), got.Address())

	_, err = reg.Resolve(deployer)
	require.ErrorIs(t, err, coreerrors.ErrInvalidCallee)
	_, err = reg.Resolve(common.Address{})
	require.ErrorIs(t, err, coreerrors.ErrInvalidCallee)

	_, err = reg.Deploy(deployer, "unknown", nil)
	require.Error(t, err)
}

func TestLoadRebuildsHandles(t *testing.T) {
	reg, st := newRegistry(t)
	deployed, err := reg.Deploy(common.HexToAddress("0x01"), "stub", nil)
	require.NoError(t, err)

	fresh := registry.New(st)
	fresh.RegisterKind("stub", func(addr common.Address) (registry.Contract, error) {
		return stubContract{addr: addr}, nil
	})
	_, err = fresh.Resolve(deployed.Address())
	require.ErrorIs(t, err, coreerrors.ErrInvalidCallee)

	require.NoError(t, fresh.Load())
	got, err := fresh.Resolve(deployed.Address())
	require.NoError(t, err)
	require.Equal(t, deployed.Address(), got.Address())
}
