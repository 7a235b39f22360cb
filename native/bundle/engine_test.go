package bundle_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	coreerrors "nftwrapped/core/errors"
	"nftwrapped/core/events"
	"nftwrapped/core/registry"
	"nftwrapped/core/state"
	"nftwrapped/crypto/merkle"
	"nftwrapped/native/bank"
	"nftwrapped/native/bundle"
	"nftwrapped/native/collection"
	"nftwrapped/storage"
	"nftwrapped/storage/trie"
)

var (
	owner   = common.HexToAddress("0x0000000000000000000000000000000000000001")
	tester1 = common.HexToAddress("0x0000000000000000000000000000000000000002")
	tester2 = common.HexToAddress("0x0000000000000000000000000000000000000003")
)

func ether(milli int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(milli), big.NewInt(1_000_000_000_000_000))
}

type world struct {
	state       *state.Manager
	registry    *registry.Registry
	buffer      *events.Buffer
	coordinator *bundle.Engine
	wrapped     *collection.Engine
	leaderboard *collection.Engine
	tree        *merkle.Tree
}

func newWorld(t *testing.T) *world {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	st := state.NewManager(tr)
	reg := registry.New(st)
	buf := &events.Buffer{}

	reg.RegisterKind(collection.Kind, func(addr common.Address) (registry.Contract, error) {
		engine := collection.NewEngine(addr)
		engine.SetState(st)
		engine.SetEmitter(buf)
		return engine, nil
	})
	reg.RegisterKind(bundle.Kind, func(addr common.Address) (registry.Contract, error) {
		engine := bundle.NewEngine(addr)
		engine.SetState(st)
		engine.SetResolver(reg)
		engine.SetEventJournal(buf)
		engine.SetEmitter(buf)
		return engine, nil
	})

	for _, addr := range []common.Address{owner, tester1, tester2} {
		require.NoError(t, bank.Credit(st, addr, ether(10_000)))
	}
	tree := merkle.NewTree([]common.Address{owner, tester1})

	coord, err := reg.Deploy(owner, bundle.Kind, func(addr common.Address) error {
		return bundle.Init(st, addr, bundle.Config{Owner: owner, Price: ether(60)})
	})
	require.NoError(t, err)
	deployCollection := func(name string, price *big.Int) *collection.Engine {
		c, err := reg.Deploy(owner, collection.Kind, func(addr common.Address) error {
			return collection.Init(st, addr, collection.Config{
				Name:   name,
				Owner:  owner,
				Bundle: coord.Address(),
				Root:   tree.Root(),
				Price:  price,
			})
		})
		require.NoError(t, err)
		return c.(*collection.Engine)
	}
	w := &world{
		state:       st,
		registry:    reg,
		buffer:      buf,
		coordinator: coord.(*bundle.Engine),
		wrapped:     deployCollection("NFTWrapped", ether(20)),
		leaderboard: deployCollection("NFTWrappedLeaderboard", ether(50)),
		tree:        tree,
	}
	require.NoError(t, w.coordinator.SetBundleContracts(owner, w.wrapped.Address(), w.leaderboard.Address()))
	buf.Drain()
	return w
}

func (w *world) proof(t *testing.T, addr common.Address) []common.Hash {
	t.Helper()
	proof, ok := w.tree.Proof(addr)
	require.True(t, ok)
	return proof
}

func TestMintPresaleBundle(t *testing.T) {
	w := newWorld(t)
	minted, err := w.coordinator.MintPresale(owner, w.proof(t, owner), ether(60))
	require.NoError(t, err)
	require.Equal(t, bundle.Minted{A: 1, B: 1}, minted)

	holder, err := w.wrapped.OwnerOf(1)
	require.NoError(t, err)
	require.Equal(t, owner, holder)
	holder, err = w.leaderboard.OwnerOf(1)
	require.NoError(t, err)
	require.Equal(t, owner, holder)

	balA, err := w.wrapped.Balance()
	require.NoError(t, err)
	balB, err := w.leaderboard.Balance()
	require.NoError(t, err)
	require.Equal(t, ether(60), new(big.Int).Add(balA, balB))
	coordBal, err := bank.BalanceOf(w.state, w.coordinator.Address())
	require.NoError(t, err)
	require.Zero(t, coordBal.Sign(), "funds must not be stranded in the coordinator")

	var transfers, bundles int
	for _, evt := range w.buffer.Drain() {
		switch evt.EventType() {
		case collection.EventTypeTransfer:
			transfers++
		case bundle.EventTypeMinted:
			bundles++
		}
	}
	require.Equal(t, 2, transfers)
	require.Equal(t, 1, bundles)
}

func TestMintMainSaleBundle(t *testing.T) {
	w := newWorld(t)
	_, err := w.coordinator.Mint(owner, ether(60))
	require.ErrorIs(t, err, coreerrors.ErrWrongPhase)

	require.NoError(t, w.wrapped.EndPresale(owner))
	require.NoError(t, w.leaderboard.EndPresale(owner))

	minted, err := w.coordinator.Mint(tester2, ether(60))
	require.NoError(t, err)
	require.Equal(t, bundle.Minted{A: 1, B: 1}, minted)
	holder, _ := w.wrapped.OwnerOf(1)
	require.Equal(t, tester2, holder)
	holder, _ = w.leaderboard.OwnerOf(1)
	require.Equal(t, tester2, holder)
}

func TestBundleRevertsWhenOneSideIsNotAContract(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, w.coordinator.SetBundleContracts(owner, w.wrapped.Address(), tester2))
	w.buffer.Drain()
	callerBefore, _ := bank.BalanceOf(w.state, owner)

	_, err := w.coordinator.MintPresale(owner, w.proof(t, owner), ether(60))
	require.ErrorIs(t, err, coreerrors.ErrInvalidCallee)

	_, err = w.wrapped.OwnerOf(1)
	require.ErrorIs(t, err, collection.ErrTokenNotFound)
	callerAfter, _ := bank.BalanceOf(w.state, owner)
	require.Equal(t, callerBefore, callerAfter)
	require.Empty(t, w.buffer.Drain())
}

func TestBundleRollsBackFirstMintWhenSecondFails(t *testing.T) {
	w := newWorld(t)
	// Only the leaderboard leaves presale, so the second presale mint fails
	// after the first one already ran.
	require.NoError(t, w.leaderboard.EndPresale(owner))
	w.buffer.Drain()
	root := w.state.Root()

	_, err := w.coordinator.MintPresale(owner, w.proof(t, owner), ether(60))
	require.ErrorIs(t, err, coreerrors.ErrWrongPhase)

	require.Equal(t, root, w.state.Root())
	minted, err := w.wrapped.TotalMinted()
	require.NoError(t, err)
	require.Zero(t, minted)
	require.Empty(t, w.buffer.Drain(), "events of the reverted mint must be dropped")
}

func TestBundlePropagatesCollectionErrors(t *testing.T) {
	w := newWorld(t)
	_, err := w.coordinator.MintPresale(tester2, w.proof(t, owner), ether(60))
	require.ErrorIs(t, err, coreerrors.ErrNotWhitelisted)

	_, err = w.coordinator.MintPresale(owner, w.proof(t, owner), ether(59))
	require.ErrorIs(t, err, coreerrors.ErrInsufficientPayment)

	// A collection that names another coordinator rejects the call.
	require.NoError(t, w.leaderboard.SetBundleCoordinator(owner, tester1))
	_, err = w.coordinator.MintPresale(owner, w.proof(t, owner), ether(60))
	require.ErrorIs(t, err, coreerrors.ErrUnauthorized)
	minted, _ := w.wrapped.TotalMinted()
	require.Zero(t, minted)
}

func TestBundleRejectsUnsetOrWrongKindLink(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, w.coordinator.SetBundleContracts(owner, w.wrapped.Address(), common.Address{}))
	_, err := w.coordinator.MintPresale(owner, w.proof(t, owner), ether(60))
	require.ErrorIs(t, err, coreerrors.ErrInvalidCallee)

	// Linking the coordinator to itself resolves to a contract that is not a
	// collection.
	require.NoError(t, w.coordinator.SetBundleContracts(owner, w.wrapped.Address(), w.coordinator.Address()))
	_, err = w.coordinator.MintPresale(owner, w.proof(t, owner), ether(60))
	require.ErrorIs(t, err, coreerrors.ErrInvalidCallee)
	require.False(t, errors.Is(err, coreerrors.ErrUnauthorized))
}

func TestCollectionRejectsPlainAccountCoordinator(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, w.wrapped.SetBundleCoordinator(owner, tester1))
	before, err := bank.BalanceOf(w.state, tester1)
	require.NoError(t, err)

	_, err = w.wrapped.MintBundlePresale(tester1, tester1, w.proof(t, tester1), nil)
	require.ErrorIs(t, err, coreerrors.ErrInvalidCallee)
	minted, err := w.wrapped.TotalMinted()
	require.NoError(t, err)
	require.Zero(t, minted)
	after, err := bank.BalanceOf(w.state, tester1)
	require.NoError(t, err)
	require.Zero(t, before.Cmp(after))
	require.Empty(t, w.buffer.Drain())
}

func TestSetBundleContractsOwnerOnly(t *testing.T) {
	w := newWorld(t)
	err := w.coordinator.SetBundleContracts(tester1, tester1, tester2)
	require.ErrorIs(t, err, coreerrors.ErrUnauthorized)
	a, b, err := w.coordinator.Link()
	require.NoError(t, err)
	require.Equal(t, w.wrapped.Address(), a)
	require.Equal(t, w.leaderboard.Address(), b)
}

func TestSplit(t *testing.T) {
	a, b := bundle.Split(big.NewInt(7))
	require.Equal(t, int64(4), a.Int64())
	require.Equal(t, int64(3), b.Int64())
	a, b = bundle.Split(nil)
	require.Zero(t, a.Sign())
	require.Zero(t, b.Sign())
}
